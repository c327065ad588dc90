package node_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/node"
)

func TestGlueRefcounting(t *testing.T) {
	g := node.Zero()
	require.Equal(t, 1, g.RefCount())

	n1 := node.NewGlue(g, 0)
	n2 := node.NewGlue(g, 0)
	require.Equal(t, 3, g.RefCount())

	require.False(t, n1.Glue.DecRef())
	require.False(t, n2.Glue.DecRef())
}

func TestCopyListDuplicatesGlueRefs(t *testing.T) {
	g := &node.GlueSpec{Width: 10}
	g.IncRef()
	list := node.Append(node.NewGlue(g, 0), node.NewKern(5, 0))

	before := g.RefCount()
	copied := node.CopyList(list)
	require.Equal(t, before+1, g.RefCount())

	node.FlushList(copied)
	require.Equal(t, before, g.RefCount())

	require.Len(t, flatten(list), 2)
}

func TestAppendAndTail(t *testing.T) {
	var head *node.Node
	head = node.Append(head, node.NewKern(1, 0))
	head = node.Append(head, node.NewKern(2, 0))
	head = node.Append(head, node.NewKern(3, 0))

	require.Len(t, flatten(head), 3)
	require.EqualValues(t, 3, node.Tail(head).KernWidth)
}

func TestDiscardability(t *testing.T) {
	require.True(t, node.NewKern(0, 0).IsDiscardable())
	require.True(t, node.NewPenalty(0).IsDiscardable())
	require.False(t, node.NewRule(0, 0, 0).IsDiscardable())
}

func flatten(head *node.Node) []*node.Node {
	var out []*node.Node
	for n := head; n != nil; n = n.Next {
		out = append(out, n)
	}
	return out
}
