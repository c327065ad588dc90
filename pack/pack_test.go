package pack_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
	"github.com/ha1tch/gotex/pack"
)

func glueNode(width, stretch, shrink int32) *node.Node {
	return node.NewGlue(&node.GlueSpec{Width: width, Stretch: stretch, Shrink: shrink}, 0)
}

func TestHPackExactlyNatural(t *testing.T) {
	list := node.Append(node.NewKern(50, 0), glueNode(10, 5, 5))
	res := pack.HPack(list, 60, pack.Exactly, 0, 10000)
	require.EqualValues(t, 60, res.Box.Width)
	require.Equal(t, mem.Stretching, res.Box.GlueSign)
	require.False(t, res.Diagnostic.Overfull)
	require.False(t, res.Diagnostic.Underfull)
}

func TestHPackStretches(t *testing.T) {
	list := node.Append(node.NewKern(50, 0), glueNode(10, 10, 5))
	res := pack.HPack(list, 70, pack.Exactly, 0, 10000)
	require.Equal(t, mem.Stretching, res.Box.GlueSign)
	require.InDelta(t, 1.0, res.Box.GlueSet, 1e-9)
}

func TestHPackShrinksAndClampsAtOne(t *testing.T) {
	list := node.Append(node.NewKern(50, 0), glueNode(10, 10, 5))
	res := pack.HPack(list, 50, pack.Exactly, 0, 10000)
	require.Equal(t, mem.Shrinking, res.Box.GlueSign)
	require.True(t, res.Diagnostic.Overfull)
}

func TestHPackAdditional(t *testing.T) {
	list := node.NewKern(50, 0)
	res := pack.HPack(list, 5, pack.Additional, 0, 10000)
	require.EqualValues(t, 55, res.Box.Width)
}

func TestHPackIdempotentOnNaturalSize(t *testing.T) {
	list := node.Append(node.NewKern(50, 0), glueNode(10, 5, 5))
	first := pack.HPack(list, 0, pack.Additional, 0, 10000)
	second := pack.HPack(first.Box, 0, pack.Additional, 0, 10000)
	require.Equal(t, first.Box.Width, second.Box.Width)
}

func TestInfiniteStretchAbsorbsAllSlack(t *testing.T) {
	list := node.Append(node.NewKern(50, 0), node.NewGlue(&node.GlueSpec{Stretch: 1, StretchOrder: mem.Fil}, 0))
	res := pack.HPack(list, 1000, pack.Exactly, 0, 10000)
	require.Equal(t, mem.Fil, res.Box.GlueOrder)
	require.False(t, res.Diagnostic.Underfull, "fil stretch is never reported underfull")
}
