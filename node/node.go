// Package node defines the node variants that make up every list in the
// system — boxes, glue, kerns, ligatures, discretionaries, whatsits,
// marks, insertions, unset (alignment) cells — plus the reference-
// counted glue spec they share (spec.md §3.1, §3.7).
//
// Dispatch on node kind is a dense switch on Tag, per spec.md §9's
// design note ("node type is a tag byte ... dispatch is a dense switch,
// no subclassing") rather than an interface hierarchy.
package node

import (
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/token"
)

// Running marks a rule dimension as "running" (determined by its
// container), TeX's null_flag sentinel.
const Running = -(mem.MaxDimen + 1)

// GlueSpec is the reference-counted 4-word glue node (spec.md §3.1).
// Callers duplicate-on-modify: never mutate a shared spec in place.
type GlueSpec struct {
	Width, Stretch, Shrink     int32
	StretchOrder, ShrinkOrder  mem.GlueOrder
	refcount                   int
}

// Zero is the canonical zero-glue spec (0pt plus 0pt minus 0pt).
func Zero() *GlueSpec { return &GlueSpec{refcount: 1} }

// IncRef records one more holder of g (eqtb entry or node field).
func (g *GlueSpec) IncRef() *GlueSpec {
	if g != nil {
		g.refcount++
	}
	return g
}

// DecRef releases one holder of g. Returns true if the caller's
// reference was the last one (g should not be used further).
func (g *GlueSpec) DecRef() bool {
	if g == nil {
		return false
	}
	g.refcount--
	return g.refcount <= 0
}

// RefCount exposes the current refcount, for the §8 invariant check
// (sum of held references across eqtb + node fields equals the spec's
// stored refcount).
func (g *GlueSpec) RefCount() int {
	if g == nil {
		return 0
	}
	return g.refcount
}

// Node is one element of a list. Which fields are meaningful is
// determined by Tag (spec.md §3.1's documented per-variant layout).
type Node struct {
	Tag  mem.NodeTag
	Next *Node

	// hlist/vlist/unset box fields.
	Width, Height, Depth, Shift int32
	GlueSet                     float64
	GlueSign                    mem.GlueSign
	GlueOrder                   mem.GlueOrder
	List                        *Node

	// unset (alignment) extras: spec.md §4.10.
	Span            int
	StretchTotal    [4]int32
	ShrinkTotal     [4]int32

	// rule.
	RuleWidth, RuleHeight, RuleDepth int32

	// glue.
	Glue    *GlueSpec
	Subtype byte

	// kern.
	KernWidth   int32
	KernSubtype byte

	// penalty.
	Penalty int32

	// discretionary.
	PreBreak, PostBreak *Node
	ReplaceCount        int

	// ligature: retains the original character chain for hyphenation.
	LigChar byte
	LigFont int
	LigPtr  *Node

	// char (leaf of a ligature/word in hlist).
	Char byte
	Font int

	// whatsit.
	WhatsitKind byte
	WhatsitData []byte

	// mark.
	MarkClass int32
	MarkText  *token.List

	// insertion.
	InsClass            int32
	InsHeight, InsDepth int32
	InsCount            int32
	FloatCost           int32
	InsList             *Node
	InsSplitTop         *GlueSpec

	// math noad fields (minimal: nucleus/sub/sup as sub-lists).
	Nucleus, Sub, Sup *Node
}

// NewGlue builds a glue node holding g (taking a reference).
func NewGlue(g *GlueSpec, subtype byte) *Node {
	return &Node{Tag: mem.TagGlue, Glue: g.IncRef(), Subtype: subtype}
}

// NewKern builds a kern node of the given width.
func NewKern(width int32, subtype byte) *Node {
	return &Node{Tag: mem.TagKern, KernWidth: width, KernSubtype: subtype}
}

// NewPenalty builds a penalty node.
func NewPenalty(value int32) *Node {
	return &Node{Tag: mem.TagPenalty, Penalty: value}
}

// NewChar builds a character node (a high-region two-word cell in real
// TeX; gotex represents it as any other Node since Go doesn't need the
// arena's physical packing to reason about list structure).
func NewChar(font int, ch byte) *Node {
	return &Node{Tag: mem.TagChar, Font: font, Char: ch}
}

// NewRule builds a rule node; any of width/height/depth may be Running.
func NewRule(width, height, depth int32) *Node {
	return &Node{Tag: mem.TagRule, RuleWidth: width, RuleHeight: height, RuleDepth: depth}
}

// NewHList/NewVList build an (initially empty) box of the given kind.
func NewHList() *Node { return &Node{Tag: mem.TagHList} }
func NewVList() *Node { return &Node{Tag: mem.TagVList} }

// IsDiscardable reports whether a node may be dropped at the start of a
// new line/page (glue, kern, penalty, math) per the classic TeX rule
// used by both the line breaker and the page builder.
func (n *Node) IsDiscardable() bool {
	if n == nil {
		return false
	}
	switch n.Tag {
	case mem.TagGlue, mem.TagKern, mem.TagPenalty, mem.TagMath:
		return true
	default:
		return false
	}
}

// IsCharNode reports whether n is a character leaf (font, char pair).
func (n *Node) IsCharNode() bool { return n != nil && n.Tag == mem.TagChar }

// ---- List helpers (spec.md §4.1) ----

// Append splices tail onto the end of head (head may be nil) and
// returns the new head.
func Append(head, tail *Node) *Node {
	if head == nil {
		return tail
	}
	n := head
	for n.Next != nil {
		n = n.Next
	}
	n.Next = tail
	return head
}

// Tail returns the last node of the list, or nil for an empty list.
func Tail(head *Node) *Node {
	if head == nil {
		return nil
	}
	n := head
	for n.Next != nil {
		n = n.Next
	}
	return n
}

// CopyList deep-copies a node chain, taking a fresh glue-spec reference
// for every glue node encountered (spec.md §4.1).
func CopyList(head *Node) *Node {
	if head == nil {
		return nil
	}
	var newHead, tail *Node
	for n := head; n != nil; n = n.Next {
		c := *n
		c.Next = nil
		if n.Glue != nil {
			c.Glue = n.Glue.IncRef()
		}
		c.List = CopyList(n.List)
		c.PreBreak = CopyList(n.PreBreak)
		c.PostBreak = CopyList(n.PostBreak)
		c.LigPtr = CopyList(n.LigPtr)
		if newHead == nil {
			newHead = &c
			tail = newHead
		} else {
			tail.Next = &c
			tail = tail.Next
		}
	}
	return newHead
}

// FlushList releases every glue-spec reference held transitively by
// head, the mirror image of CopyList (spec.md §4.1).
func FlushList(head *Node) {
	for n := head; n != nil; {
		next := n.Next
		n.Glue.DecRef()
		FlushList(n.List)
		FlushList(n.PreBreak)
		FlushList(n.PostBreak)
		FlushList(n.LigPtr)
		n = next
	}
}
