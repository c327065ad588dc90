// Package linebreak implements the paragraph line-breaking algorithm:
// a single forward pass over the horizontal list maintaining an active
// list of tentative breakpoints, each scored by badness and demerits
// against a paragraph shape (spec.md §3.6, §4.7).
package linebreak

import (
	"github.com/emirpasic/gods/lists/doublylinkedlist"

	"github.com/ha1tch/gotex/arith"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
	"github.com/ha1tch/gotex/pack"
)

// Fitness classes, spec.md §4.7.
type Fitness int

const (
	VeryLoose Fitness = iota
	Loose
	Decent
	Tight
)

// Shape gives the target line width for each line number; the last
// entry repeats for every further line (spec.md's paragraph shape).
type Shape struct {
	Widths []int32
}

func (s Shape) widthFor(line int) int32 {
	if line-1 < len(s.Widths) {
		return s.Widths[line-1]
	}
	return s.Widths[len(s.Widths)-1]
}

// passiveNode records where a chosen break falls in the original
// horizontal list and chains back to the break before it (spec.md §3.6).
type passiveNode struct {
	breakAt *node.Node // the node the break occurs at (nil = end of list)
	prev    *passiveNode
}

// activeNode is a tentative breakpoint: total demerits accumulated to
// reach it, its fitness class, and a back-pointer to its passive node
// (spec.md §3.6). The widths fields mirror the accumulators in spec.md
// §4.7 step 1 so the next candidate line's width is a subtraction, not
// a full rescan.
type activeNode struct {
	lineNumber    int
	fitness       Fitness
	totalDemerits int64
	passive       *passiveNode

	widthSoFar   int32
	stretchSoFar [4]int32
	shrinkSoFar  [4]int32
}

// Params tunes the algorithm: tolerance, per-class demerit penalties,
// and the line/hyphen penalty constants (spec.md §4.7).
type Params struct {
	Tolerance            int32
	LinePenalty          int32
	AdjDemerits          int64 // penalty for a fitness-class jump between adjacent lines
	DoubleHyphenDemerits int64
	FinalHyphenDemerits  int64
}

// DefaultParams mirrors plain TeX's \tolerance=200, \linepenalty=10,
// \adjdemerits=10000 defaults (original_source/src/constants.rs).
var DefaultParams = Params{
	Tolerance:            200,
	LinePenalty:          10,
	AdjDemerits:          10000,
	DoubleHyphenDemerits: 10000,
	FinalHyphenDemerits:  5000,
}

// Result is the finished paragraph: one packed box per output line.
type Result struct {
	Lines []pack.Result
}

// accumulator tracks running width/stretch/shrink totals from the
// start of the paragraph, per spec.md §4.7 step 1.
type accumulator struct {
	width   int32
	stretch [4]int32
	shrink  [4]int32
}

func (a *accumulator) advance(n *node.Node) {
	switch n.Tag {
	case mem.TagChar, mem.TagHList, mem.TagVList, mem.TagRule:
		a.width += n.Width
	case mem.TagKern:
		a.width += n.KernWidth
	case mem.TagGlue:
		if n.Glue != nil {
			a.width += n.Glue.Width
			a.stretch[n.Glue.StretchOrder] += n.Glue.Stretch
			a.shrink[n.Glue.ShrinkOrder] += n.Glue.Shrink
		}
	}
}

// isLegalBreak reports whether a break is legal immediately before n
// (prev is the node preceding n, or nil at the list head), per spec.md
// §4.7: glue after a non-discardable node, a penalty node with finite
// value, or a discretionary. n == nil always denotes end-of-paragraph.
func isLegalBreak(prev, n *node.Node) bool {
	if n == nil {
		return true
	}
	switch n.Tag {
	case mem.TagGlue:
		return prev != nil && !prev.IsDiscardable()
	case mem.TagPenalty:
		return n.Penalty < mem.InfBad
	case mem.TagDiscretionary:
		return true
	default:
		return false
	}
}

// BreakParagraph runs the algorithm of spec.md §4.7 over head, a
// horizontal list already terminated by a forced break (TeX's
// parfillskip followed by an infinite penalty), against shape.
func BreakParagraph(head *node.Node, shape Shape, p Params) Result {
	active := doublylinkedlist.New()
	active.Add(&activeNode{lineNumber: 1, fitness: Decent})

	acc := &accumulator{}

	var prev *node.Node
	for n := head; ; n = step(n) {
		if isLegalBreak(prev, n) {
			tryBreakAt(active, n, acc, shape, p)
		}
		if n == nil {
			break
		}
		acc.advance(n)
		prev = n
	}

	return materialize(head, bestFinal(active), shape)
}

func step(n *node.Node) *node.Node {
	if n == nil {
		return nil
	}
	return n.Next
}

type scored struct {
	demerits int64
	from     *activeNode
}

// tryBreakAt evaluates every active node against the candidate break b
// at the current accumulated width acc, keeping only the best
// predecessor per fitness class (spec.md §4.7 steps 1-6).
func tryBreakAt(active *doublylinkedlist.List, b *node.Node, acc *accumulator, shape Shape, p Params) {
	best := map[Fitness]scored{}

	it := active.Iterator()
	for it.Next() {
		a := it.Value().(*activeNode)
		lineWidth := acc.width - a.widthSoFar
		target := shape.widthFor(a.lineNumber)
		diff := target - lineWidth

		var badness int32
		feasible := true
		stretching := diff >= 0
		if stretching {
			total := highestOrderTotal(acc.stretch, a.stretchSoFar)
			if total != 0 {
				badness = arith.Badness(diff, total)
			}
		} else {
			total := highestOrderTotal(acc.shrink, a.shrinkSoFar)
			need := -diff
			if total == 0 || need > total {
				feasible = false
			} else {
				badness = arith.Badness(need, total)
			}
		}
		if !feasible || badness > p.Tolerance {
			continue
		}

		fit := classify(badness, stretching)
		penalty := int32(0)
		if b != nil && b.Tag == mem.TagPenalty {
			penalty = b.Penalty
		}
		d := demerits(badness, penalty, p)
		if diff := int(fit) - int(a.fitness); diff > 1 || diff < -1 {
			d += p.AdjDemerits
		}
		total := a.totalDemerits + d

		if cur, ok := best[fit]; !ok || total < cur.demerits {
			best[fit] = scored{demerits: total, from: a}
		}
	}

	for fit, c := range best {
		active.Add(&activeNode{
			lineNumber:    c.from.lineNumber + 1,
			fitness:       fit,
			totalDemerits: c.demerits,
			passive:       &passiveNode{breakAt: b, prev: c.from.passive},
			widthSoFar:    acc.width,
			stretchSoFar:  acc.stretch,
			shrinkSoFar:   acc.shrink,
		})
	}
}

func highestOrderTotal(atB, atA [4]int32) int32 {
	for order := 3; order >= 0; order-- {
		d := atB[order] - atA[order]
		if d != 0 {
			return d
		}
	}
	return 0
}

func classify(badness int32, stretching bool) Fitness {
	switch {
	case badness > 99:
		if stretching {
			return VeryLoose
		}
		return Tight
	case badness > 12:
		if stretching {
			return Loose
		}
		return Decent
	default:
		return Decent
	}
}

func demerits(badness, penalty int32, p Params) int64 {
	lb := int64(p.LinePenalty + badness)
	d := lb * lb
	switch {
	case penalty > 0:
		d += int64(penalty) * int64(penalty)
	case penalty > -mem.InfBad:
		d -= int64(penalty) * int64(penalty)
	}
	return d
}

func bestFinal(active *doublylinkedlist.List) *activeNode {
	var best *activeNode
	it := active.Iterator()
	for it.Next() {
		a := it.Value().(*activeNode)
		if best == nil || a.totalDemerits < best.totalDemerits {
			best = a
		}
	}
	return best
}

// materialize walks back-pointers from the winning active node,
// reverses them into forward order, and hpacks each resulting segment
// (spec.md §4.7's final step).
func materialize(head *node.Node, winner *activeNode, shape Shape) Result {
	if winner == nil {
		return Result{Lines: []pack.Result{pack.HPack(head, 0, pack.Additional, 0, mem.InfBad)}}
	}

	var breaks []*node.Node
	for pn := winner.passive; pn != nil; pn = pn.prev {
		breaks = append([]*node.Node{pn.breakAt}, breaks...)
	}

	var result Result
	cur := head
	lineNo := 1
	for _, b := range breaks {
		seg := sliceUpTo(cur, b)
		result.Lines = append(result.Lines, pack.HPack(seg, shape.widthFor(lineNo), pack.Exactly, 0, mem.InfBad))
		if b != nil {
			cur = b.Next
		} else {
			cur = nil
		}
		lineNo++
	}
	if cur != nil {
		result.Lines = append(result.Lines, pack.HPack(cur, shape.widthFor(lineNo), pack.Exactly, 0, mem.InfBad))
	}
	return result
}

// sliceUpTo returns a fresh shallow-copied chain [head, stop), so each
// line's box owns its own node chain independent of the original list.
func sliceUpTo(head, stop *node.Node) *node.Node {
	if head == stop {
		return nil
	}
	dummy := &node.Node{}
	tail := dummy
	for n := head; n != nil && n != stop; n = n.Next {
		cp := *n
		cp.Next = nil
		tail.Next = &cp
		tail = tail.Next
	}
	return dummy.Next
}
