package linebreak_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/linebreak"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
)

func word(width int32) *node.Node {
	n := node.NewChar(1, 'x')
	n.Width = width
	return n
}

func glue(width, stretch, shrink int32) *node.Node {
	return node.NewGlue(&node.GlueSpec{Width: width, Stretch: stretch, Shrink: shrink}, 0)
}

// buildParagraph makes a list of words separated by interword glue,
// followed by an infinite-penalty forced break (a stand-in for
// parfillskip + the end-of-paragraph penalty, spec.md §4.7).
func buildParagraph(words []int32, interWord, interStretch, interShrink int32) *node.Node {
	var head, tail *node.Node
	for i, w := range words {
		wn := word(w)
		if head == nil {
			head, tail = wn, wn
		} else {
			tail.Next = wn
			tail = wn
		}
		if i < len(words)-1 {
			g := glue(interWord, interStretch, interShrink)
			tail.Next = g
			tail = g
		}
	}
	tail.Next = node.NewPenalty(-mem.InfBad)
	return head
}

func TestSingleLineFitsWithoutBreaking(t *testing.T) {
	head := buildParagraph([]int32{1000}, 100, 50, 50)
	res := linebreak.BreakParagraph(head, linebreak.Shape{Widths: []int32{2000}}, linebreak.DefaultParams)
	require.Len(t, res.Lines, 1)
}

func TestLongParagraphBreaksIntoMultipleLines(t *testing.T) {
	words := make([]int32, 20)
	for i := range words {
		words[i] = 500
	}
	head := buildParagraph(words, 100, 50, 50)
	res := linebreak.BreakParagraph(head, linebreak.Shape{Widths: []int32{2000}}, linebreak.DefaultParams)
	require.Greater(t, len(res.Lines), 1)
}

func TestEachLineRespectsTargetWidthApproximately(t *testing.T) {
	words := make([]int32, 10)
	for i := range words {
		words[i] = 300
	}
	head := buildParagraph(words, 100, 80, 80)
	res := linebreak.BreakParagraph(head, linebreak.Shape{Widths: []int32{1500}}, linebreak.DefaultParams)
	for _, line := range res.Lines[:len(res.Lines)-1] {
		require.False(t, line.Diagnostic.Overfull)
	}
}
