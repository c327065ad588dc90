package align_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/align"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
)

func kernCell(width int32) align.Cell {
	return align.Cell{Content: node.NewKern(width, 0)}
}

func TestColumnWidthResolvesToWidestCell(t *testing.T) {
	preamble := align.Preamble{Columns: []align.Column{{}, {}}}
	eng := align.New(preamble)

	rows := []align.Row{
		{Cells: []align.Cell{kernCell(100), kernCell(50)}},
		{Cells: []align.Cell{kernCell(30), kernCell(200)}},
	}

	out := eng.Build(rows)
	require.Len(t, out, 2)
	require.EqualValues(t, 100, eng.Preamble.Columns[0].NaturalWidth)
	require.EqualValues(t, 200, eng.Preamble.Columns[1].NaturalWidth)
}

func TestAssembledRowHasGlueBetweenCells(t *testing.T) {
	preamble := align.Preamble{Columns: []align.Column{{}, {}}}
	eng := align.New(preamble)
	rows := []align.Row{{Cells: []align.Cell{kernCell(10), kernCell(20)}}}
	out := eng.Build(rows)
	require.NotNil(t, out[0])
	require.Equal(t, mem.TagGlue, out[0].Tag)
	require.Equal(t, mem.TagHList, out[0].Next.Tag)
	require.Equal(t, mem.TagGlue, out[0].Next.Next.Tag)
	require.Equal(t, mem.TagHList, out[0].Next.Next.Next.Tag)
}
