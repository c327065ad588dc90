// Package pack implements hpack/vpack, the box packager that computes
// glue-set ratios for a node list (spec.md §4.6).
package pack

import (
	"github.com/ha1tch/gotex/arith"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
)

// Kind distinguishes an exact target size from a natural-plus-additional
// one (spec.md §4.6).
type Kind byte

const (
	Exactly Kind = iota
	Additional
)

// Diagnostic records an underfull/overfull report for later printing
// (spec.md §4.6 step 5); Packager callers decide whether to surface it.
type Diagnostic struct {
	Overfull  bool
	Underfull bool
	Amount    int32
}

// Totals accumulates the natural size, per-order stretch, and per-order
// shrink of a list along its primary axis.
type Totals struct {
	Natural int32
	Stretch [4]int32
	Shrink  [4]int32
	MaxSecondary int32 // max height (hpack) or width (vpack)
	MaxDepth     int32 // max depth below the reference point
}

// measure walks an hlist-like list accumulating width totals and
// the max height/depth across its children (spec.md §4.6 step 1).
func measure(list *node.Node, horizontal bool) Totals {
	var t Totals
	for n := list; n != nil; n = n.Next {
		switch n.Tag {
		case mem.TagChar:
			// Character advance widths are resolved by the font package;
			// callers that build char nodes set Width via the font metrics
			// before packaging, so we only need to read it back here.
			t.Natural += n.Width
			if n.Height > t.MaxSecondary {
				t.MaxSecondary = n.Height
			}
			if n.Depth > t.MaxDepth {
				t.MaxDepth = n.Depth
			}
		case mem.TagHList, mem.TagVList, mem.TagUnset, mem.TagRule:
			if horizontal {
				t.Natural += n.Width
			} else {
				t.Natural += n.Height + n.Depth
			}
			if n.Height > t.MaxSecondary && horizontal {
				t.MaxSecondary = n.Height
			}
			if n.Width > t.MaxSecondary && !horizontal {
				t.MaxSecondary = n.Width
			}
			if n.Depth > t.MaxDepth && horizontal {
				t.MaxDepth = n.Depth
			}
		case mem.TagGlue:
			t.Natural += n.Glue.Width
			t.Stretch[n.Glue.StretchOrder] += n.Glue.Stretch
			t.Shrink[n.Glue.ShrinkOrder] += n.Glue.Shrink
		case mem.TagKern:
			t.Natural += n.KernWidth
		case mem.TagLigature:
			t.Natural += n.Width
		}
	}
	return t
}

// Result is a packaged box: a fully measured hlist/vlist node with its
// glue-set ratio, sign, and order recorded (spec.md §4.6 step 4).
type Result struct {
	Box        *node.Node
	Diagnostic Diagnostic
}

// HPack packages list into a horizontal box of the requested size,
// consuming list (ownership transfers to the returned box per spec.md
// §4.6). hfuzz/hbadness gate the diagnostic.
func HPack(list *node.Node, target int32, kind Kind, hfuzz int32, hbadness int32) Result {
	return pack(list, target, kind, true, hfuzz, hbadness)
}

// VPack is HPack's vertical-axis counterpart.
func VPack(list *node.Node, target int32, kind Kind, vfuzz int32, vbadness int32) Result {
	return pack(list, target, kind, false, vfuzz, vbadness)
}

func pack(list *node.Node, target int32, kind Kind, horizontal bool, fuzz, badnessLimit int32) Result {
	t := measure(list, horizontal)

	var desired int32
	if kind == Exactly {
		desired = target
	} else {
		desired = t.Natural + target
	}
	x := desired - t.Natural

	box := &node.Node{}
	if horizontal {
		box.Tag = mem.TagHList
		box.Width = desired
		box.Height = t.MaxSecondary
		box.Depth = t.MaxDepth
	} else {
		box.Tag = mem.TagVList
		box.Height = desired
		box.Width = t.MaxSecondary
		box.Depth = t.MaxDepth
	}
	box.List = list

	var diag Diagnostic
	switch {
	case x >= 0:
		order := highestNonzero(t.Stretch[:])
		if t.Stretch[order] != 0 {
			box.GlueSet = float64(x) / float64(t.Stretch[order])
			box.GlueSign = mem.Stretching
			box.GlueOrder = mem.GlueOrder(order)
		} else {
			box.GlueSign = mem.GlueNormal
		}
		if badnessOf(x, t.Stretch[mem.Normal], order) > badnessLimit {
			diag.Underfull = true
			diag.Amount = x
		}
	default:
		order := highestNonzero(t.Shrink[:])
		need := -x
		if t.Shrink[order] != 0 {
			r := float64(need) / float64(t.Shrink[order])
			if order == int(mem.Normal) && r > 1 {
				r = 1
				diag.Overfull = true
				diag.Amount = need - t.Shrink[mem.Normal]
			}
			box.GlueSet = r
			box.GlueSign = mem.Shrinking
			box.GlueOrder = mem.GlueOrder(order)
		} else {
			box.GlueSign = mem.GlueNormal
			diag.Overfull = true
			diag.Amount = need
		}
		if fuzz >= 0 && diag.Overfull && diag.Amount <= fuzz {
			diag.Overfull = false
		}
	}

	return Result{Box: box, Diagnostic: diag}
}

// highestNonzero returns the highest-order index with a nonzero total,
// defaulting to Normal (0) when all are zero.
func highestNonzero(totals []int32) int {
	for i := len(totals) - 1; i >= 1; i-- {
		if totals[i] != 0 {
			return i
		}
	}
	return int(mem.Normal)
}

// badnessOf is the stretch-only badness used to decide whether an
// underfull diagnostic should fire; only order-0 (finite) stretch
// produces a finite badness, matching real TeX (infinite stretch orders
// are always "perfect").
func badnessOf(x, normalStretch int32, order int) int32 {
	if order != int(mem.Normal) {
		return 0
	}
	return arith.Badness(x, normalStretch)
}
