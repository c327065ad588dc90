// Package page implements the page builder: a contribution list fed by
// the vertical list under construction, tracking running height/
// stretch/shrink/depth totals and choosing the best page break by cost
// (spec.md §4.9).
package page

import (
	"github.com/ha1tch/gotex/arith"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
)

// Totals mirrors TeX's page_so_far[0..7]: accumulated height, the four
// stretch orders, shrink, and accumulated depth.
type Totals struct {
	Height  int32
	Stretch [4]int32
	Shrink  int32
	Depth   int32
}

// InsertionClass holds one \insert class's accounting: the running
// height contributed so far and its holding-over list (spec.md §4.9).
type InsertionClass struct {
	Number      int
	CountPerMil int32 // eqtb's \count[n], interpreted as parts-per-thousand
	Height      int32
	Holding     *node.Node
	HoldOver    bool // holdinginserts > 0 disables split accounting
}

// Builder accumulates contributions and remembers the least-cost break
// seen since the last page was shipped out (spec.md §4.9).
type Builder struct {
	Goal     int32
	MaxDepth int32

	contribution *node.Node
	tail         *node.Node
	totals       Totals

	insertions map[int]*InsertionClass

	bestCost    int32
	bestBreakAt *node.Node // node preceding the legal break, nil = none yet
	haveBest    bool
}

// NewBuilder starts a page builder targeting goal height with the
// given maximum box depth (plain TeX's \vsize/\maxdepth).
func NewBuilder(goal, maxDepth int32) *Builder {
	return &Builder{Goal: goal, MaxDepth: maxDepth, insertions: make(map[int]*InsertionClass)}
}

// Contribute appends n to the contribution list, updating totals and
// (at a legal breakpoint) re-evaluating the remembered best break
// (spec.md §4.9).
func (b *Builder) Contribute(n *node.Node) {
	if b.contribution == nil {
		b.contribution = n
		b.tail = n
	} else {
		b.tail.Next = n
		b.tail = n
	}

	switch n.Tag {
	case mem.TagHList, mem.TagVList, mem.TagRule:
		b.totals.Height += b.totals.Depth + n.Height
		b.totals.Depth = n.Depth
		if b.totals.Depth > b.MaxDepth {
			b.totals.Height += b.totals.Depth - b.MaxDepth
			b.totals.Depth = b.MaxDepth
		}
	case mem.TagGlue:
		if n.Glue != nil {
			b.totals.Height += b.totals.Depth + n.Glue.Width
			b.totals.Depth = 0
			b.totals.Stretch[n.Glue.StretchOrder] += n.Glue.Stretch
			b.totals.Shrink += n.Glue.Shrink
		}
	case mem.TagKern:
		b.totals.Height += b.totals.Depth + n.KernWidth
		b.totals.Depth = 0
	case mem.TagIns:
		b.accountInsertion(n)
		return // insertions never themselves form a legal break
	}

	if b.legalBreakAfter(n) {
		b.considerBreak(n)
	}

	if n.Tag == mem.TagPenalty && n.Penalty <= -mem.InfBad {
		b.forceBreak(n)
	}
}

// accountInsertion attaches an \insert box to its class's holding
// list, charging count[n]/1000 of its height against the page total
// (spec.md §4.9).
func (b *Builder) accountInsertion(n *node.Node) {
	cls, ok := b.insertions[int(n.InsClass)]
	if !ok {
		cls = &InsertionClass{Number: int(n.InsClass), CountPerMil: 1000}
		b.insertions[int(n.InsClass)] = cls
	}
	contribution := (n.InsHeight * cls.CountPerMil) / 1000
	cls.Height += contribution
	b.totals.Height += contribution
	cls.Holding = node.Append(cls.Holding, n.InsList)
}

func (b *Builder) legalBreakAfter(n *node.Node) bool {
	switch n.Tag {
	case mem.TagGlue:
		return true
	case mem.TagKern:
		return n.Next != nil && n.Next.Tag == mem.TagGlue
	case mem.TagPenalty:
		return n.Penalty < mem.InfBad
	default:
		return false
	}
}

// cost computes spec.md §4.9's page-break cost at the current totals:
// badness(goal-height, stretch) plus the maximum pending insertion
// penalty, infinite if depth exceeds maxdepth or shrinkage can't cover
// an overfull page.
func (b *Builder) cost(explicitPenalty int32) int32 {
	diff := b.Goal - b.totals.Height
	var badness int32
	if diff >= 0 {
		order := highestNonzero(b.totals.Stretch[:])
		badness = arith.Badness(diff, b.totals.Stretch[order])
	} else {
		if b.totals.Shrink < -diff {
			return mem.InfBad + 1 // infinitely bad: shrink can't cover it
		}
		badness = arith.Badness(-diff, b.totals.Shrink)
	}
	if badness >= mem.InfBad {
		return mem.InfBad + 1
	}
	c := badness
	if explicitPenalty <= -mem.InfBad {
		return c // a forced break is never infinitely costly
	}
	if explicitPenalty > 0 {
		c += explicitPenalty
	} else if explicitPenalty > -mem.InfBad {
		c -= -explicitPenalty
	}
	return c
}

func highestNonzero(totals []int32) int {
	for i := len(totals) - 1; i >= 0; i-- {
		if totals[i] != 0 {
			return i
		}
	}
	return 0
}

func (b *Builder) considerBreak(n *node.Node) {
	penalty := int32(0)
	if n.Tag == mem.TagPenalty {
		penalty = n.Penalty
	}
	c := b.cost(penalty)
	if c > mem.InfBad {
		// The best break seen so far stays remembered for TakePage.
		return
	}
	if !b.haveBest || c <= b.bestCost {
		b.bestCost = c
		b.bestBreakAt = n
		b.haveBest = true
	}
}

func (b *Builder) forceBreak(n *node.Node) {
	b.bestBreakAt = n
	b.bestCost = b.cost(n.Penalty)
	b.haveBest = true
}

// Page is one shipped-out page: its body node list and the insertion
// classes that contributed to it.
type Page struct {
	Body       *node.Node
	Insertions []*InsertionClass
}

// emit materializes the remembered best break as a shipped page,
// returning the survivors (everything after the break) to the
// contribution list (spec.md §4.9).
func (b *Builder) emit() *Page {
	if !b.haveBest {
		return nil
	}
	body := sliceUpTo(b.contribution, b.bestBreakAt.Next)

	var classes []*InsertionClass
	for _, c := range b.insertions {
		classes = append(classes, c)
	}

	b.contribution = b.bestBreakAt.Next
	if b.contribution == nil {
		b.tail = nil
	}
	b.totals = Totals{}
	b.insertions = make(map[int]*InsertionClass)
	b.haveBest = false

	return &Page{Body: body, Insertions: classes}
}

// TakePage drains the builder's best-known page, if any has been
// recorded since the last call.
func (b *Builder) TakePage() *Page {
	if !b.haveBest {
		return nil
	}
	return b.emit()
}

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
