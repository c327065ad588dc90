// Package mlist implements the math builder: translating a noad list
// (mlist) into an hlist, the mlist-to-hlist pass spec.md §2's "Math
// builder" component names (noad→box translation, spacing rules).
// gotex's math mode is deliberately narrow — no styles, no fraction or
// radical layout — but every noad still passes through real
// inter-element spacing the way plain TeX's mlist_to_hlist does.
package mlist

import (
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
)

// class classifies a noad for the interelement spacing table (spec.md
// §4.2's noad kinds, restricted to the eight TeX uses for spacing
// purposes: ord/op/bin/rel/open/close/punct/inner).
type class byte

const (
	ord class = iota
	op
	bin
	rel
	open
	close
	punct
	inner
)

func classOf(n *node.Node) class {
	switch n.Tag {
	case mem.TagNoadOp:
		return op
	case mem.TagNoadBin:
		return bin
	case mem.TagNoadRel:
		return rel
	case mem.TagNoadOpen:
		return open
	case mem.TagNoadClose:
		return close
	case mem.TagNoadPunct:
		return punct
	case mem.TagNoadInner:
		return inner
	default:
		return ord
	}
}

// spacingTable is TeX's Appendix G interelement spacing matrix reduced
// to the three glue amounts it actually produces in text style: none,
// thin (3mu), and medium (4mu, suppressed in script styles but gotex
// has no script style so always applied). Wide (5mu, bin-adjacent) is
// folded into "medium" since gotex doesn't distinguish it.
var spacingTable = [8][8]byte{
	// ord  op   bin  rel  open close punct inner
	{0, 1, 2, 3, 0, 0, 0, 1}, // ord
	{1, 1, 0, 3, 0, 0, 0, 1}, // op
	{2, 2, 0, 0, 2, 0, 0, 2}, // bin
	{3, 3, 0, 0, 3, 0, 0, 3}, // rel
	{0, 0, 0, 0, 0, 0, 0, 0}, // open
	{0, 1, 2, 3, 0, 0, 0, 1}, // close
	{1, 1, 0, 1, 1, 1, 1, 1}, // punct
	{1, 1, 2, 3, 0, 0, 1, 1}, // inner
}

// thinmuWidth/medmuWidth are plain TeX's \thinmuskip/\medmuskip widths
// at quad=10pt (cmr10's design size), expressed directly in scaled
// points since gotex's math mode has no separate math font metrics.
const (
	thinmuWidth = mem.Unity * 10 * 3 / 18 // 3mu at 18mu/em
	medmuWidth  = mem.Unity * 10 * 4 / 18 // 4mu at 18mu/em, folds in "wide"
)

// spacingGlue returns the kern to insert between two adjacent noad
// classes, or nil for no space.
func spacingGlue(a, b class) *node.Node {
	switch spacingTable[a][b] {
	case 1:
		return node.NewKern(thinmuWidth, 0)
	case 2, 3:
		return node.NewKern(medmuWidth, 0)
	default:
		return nil
	}
}

// ToHList translates a noad list into an hlist: each noad's Nucleus
// (already a built sub-list — a character box or a nested hlist) is
// emitted in turn, with Sub/Sup attached as a trailing superscript/
// subscript kern-shifted box, and interelement spacing inserted
// between adjacent noads per spacingTable (spec.md §2, §4.2).
func ToHList(noads *node.Node) *node.Node {
	var head, tail *node.Node
	var prevClass class
	havePrev := false

	for n := noads; n != nil; n = n.Next {
		cls := classOf(n)
		if havePrev {
			if g := spacingGlue(prevClass, cls); g != nil {
				head, tail = appendNode(head, tail, g)
			}
		}
		for _, part := range noadParts(n) {
			head, tail = appendNode(head, tail, part)
		}
		prevClass, havePrev = cls, true
	}
	return head
}

// noadParts flattens one noad into the hlist material it contributes:
// its nucleus, then its subscript/superscript shifted into their own
// boxes (spec.md §4.2's noad sub/sup fields).
func noadParts(n *node.Node) []*node.Node {
	var parts []*node.Node
	if n.Nucleus != nil {
		parts = append(parts, node.CopyList(n.Nucleus))
	}
	if n.Sup != nil {
		box := &node.Node{Tag: mem.TagHList, List: node.CopyList(n.Sup), Shift: -4 * mem.Unity}
		parts = append(parts, box)
	}
	if n.Sub != nil {
		box := &node.Node{Tag: mem.TagHList, List: node.CopyList(n.Sub), Shift: 4 * mem.Unity}
		parts = append(parts, box)
	}
	return parts
}

func appendNode(head, tail, n *node.Node) (*node.Node, *node.Node) {
	if head == nil {
		return n, n
	}
	tail.Next = n
	return head, n
}
