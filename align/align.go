// Package align implements the alignment engine (\halign/\valign):
// two-pass preamble-driven column layout with unset boxes resolved
// against the widest cell seen in each column (spec.md §4.10).
package align

import (
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
	"github.com/ha1tch/gotex/pack"
	"github.com/ha1tch/gotex/token"
)

// Column is one preamble column: the token text TeX inserts before
// (UPart) and after (VPart) the cell's typed-in material, plus the
// natural width accumulated across every row's cell in this column
// (spec.md §4.10).
type Column struct {
	UPart, VPart *token.List
	NaturalWidth int32
	Repeating    bool // a `\tab` before `#` marks the loop-repeat column
	TabSkip      *node.GlueSpec
}

// Preamble is the full column specification scanned once before any
// row (spec.md §4.10).
type Preamble struct {
	Columns       []Column
	FinalTabSkip  *node.GlueSpec
}

// Cell is one row's content for one column: already-built node list
// for the material between UPart and VPart (the scanner/expander
// layer is responsible for inserting UPart/VPart tokens and collecting
// what gets typed in between; this package picks up from there).
type Cell struct {
	Content *node.Node
}

// Row is a sequence of cells, one per (repeated) preamble column.
type Row struct {
	Cells []Cell
}

// unsetCell is an intermediate box: packed to its own natural width in
// pass one, re-packed to the resolved column width in pass two
// (spec.md §4.10's "unset box with natural width sentinel").
type unsetCell struct {
	box   *node.Node
	colIx int
}

// Engine drives the two-pass alignment algorithm over a fixed set of
// rows against a preamble.
type Engine struct {
	Preamble Preamble
}

// New builds an alignment Engine over a scanned preamble.
func New(p Preamble) *Engine {
	return &Engine{Preamble: p}
}

// Build packs every row's cells to their natural width (pass one),
// tracking each column's maximum natural width, then re-packs every
// cell to its resolved column width and assembles the aligned rows
// (pass two), per spec.md §4.10.
func (e *Engine) Build(rows []Row) []*node.Node {
	packed := make([][]unsetCell, len(rows))

	for r, row := range rows {
		packed[r] = make([]unsetCell, len(row.Cells))
		for c, cell := range row.Cells {
			colIx := c % maxInt(1, len(e.Preamble.Columns))
			res := pack.HPack(cell.Content, 0, pack.Additional, 0, mem.InfBad)
			if res.Box.Width > e.Preamble.Columns[colIx].NaturalWidth {
				e.Preamble.Columns[colIx].NaturalWidth = res.Box.Width
			}
			packed[r][c] = unsetCell{box: res.Box, colIx: colIx}
		}
	}

	outRows := make([]*node.Node, len(rows))
	for r, cells := range packed {
		outRows[r] = e.assembleRow(cells)
	}
	return outRows
}

// assembleRow re-packs each cell to its column's resolved width
// (spec.md §4.10's "re-type unset nodes as aligned boxes by resolving
// each cell's glue ratio against its column width") and chains the
// row together with tabskip glue between columns.
func (e *Engine) assembleRow(cells []unsetCell) *node.Node {
	var head, tail *node.Node
	for _, uc := range cells {
		col := e.Preamble.Columns[uc.colIx]
		tabskip := col.TabSkip
		if tabskip == nil {
			tabskip = node.Zero()
		}
		glueNode := node.NewGlue(tabskip, 0)
		if head == nil {
			head, tail = glueNode, glueNode
		} else {
			tail.Next = glueNode
			tail = glueNode
		}

		resolved := pack.HPack(uc.box.List, col.NaturalWidth, pack.Exactly, 0, mem.InfBad).Box
		tail.Next = resolved
		tail = resolved
	}
	if e.Preamble.FinalTabSkip != nil {
		finalGlue := node.NewGlue(e.Preamble.FinalTabSkip, 0)
		if head == nil {
			head, tail = finalGlue, finalGlue
		} else {
			tail.Next = finalGlue
			tail = finalGlue
		}
	}
	return head
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
