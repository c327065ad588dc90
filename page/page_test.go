package page_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
	"github.com/ha1tch/gotex/page"
)

func box(height, depth int32) *node.Node {
	n := node.NewVList()
	n.Height, n.Depth = height, depth
	return n
}

func glue(width, stretch, shrink int32) *node.Node {
	return node.NewGlue(&node.GlueSpec{Width: width, Stretch: stretch, Shrink: shrink}, 0)
}

func TestBuilderEmitsPageOnForcedBreak(t *testing.T) {
	b := page.NewBuilder(1000, 100)
	b.Contribute(box(200, 0))
	b.Contribute(glue(10, 5, 5))
	b.Contribute(box(200, 0))
	b.Contribute(node.NewPenalty(-mem.InfBad))

	p := b.TakePage()
	require.NotNil(t, p)
	require.NotNil(t, p.Body)
}

func TestBuilderAccumulatesHeightAcrossContributions(t *testing.T) {
	b := page.NewBuilder(1000, 100)
	b.Contribute(box(300, 0))
	b.Contribute(glue(10, 5, 5))
	b.Contribute(box(300, 0))
	require.Nil(t, b.TakePage(), "no break has been forced or chosen yet")
}

func TestInsertionAccountsPartialHeight(t *testing.T) {
	b := page.NewBuilder(1000, 100)
	ins := &node.Node{Tag: mem.TagIns, InsClass: 0, InsHeight: 100, InsList: box(100, 0)}
	b.Contribute(ins)
	b.Contribute(glue(10, 5, 5))
	b.Contribute(node.NewPenalty(-mem.InfBad))

	p := b.TakePage()
	require.NotNil(t, p)
	require.Len(t, p.Insertions, 1)
	require.EqualValues(t, 100, p.Insertions[0].Height)
}
