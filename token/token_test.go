package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/token"
)

func TestDefaultCatCodes(t *testing.T) {
	require.Equal(t, token.Escape, token.DefaultCatCode('\\'))
	require.Equal(t, token.Letter, token.DefaultCatCode('a'))
	require.Equal(t, token.Other, token.DefaultCatCode('3'))
	require.Equal(t, token.Spacer, token.DefaultCatCode(' '))
	require.Equal(t, token.Comment, token.DefaultCatCode('%'))
}

func TestTokenEqual(t *testing.T) {
	a := token.NewChar(token.Letter, 'x', 1)
	b := token.NewChar(token.Letter, 'x', 2)
	require.True(t, a.Equal(b), "line number should not affect equality")

	cs1 := token.NewCS("def", 1)
	cs2 := token.NewCS("def", 5)
	require.True(t, cs1.Equal(cs2))
	require.False(t, cs1.Equal(a))
}

func TestListRoundTrip(t *testing.T) {
	toks := []token.Token{
		token.NewChar(token.BeginGroup, '{', 1),
		token.NewChar(token.Letter, 'a', 1),
		token.NewChar(token.EndGroup, '}', 1),
	}
	l := token.NewList(toks)
	got := l.Slice()
	require.Len(t, got, 3)
	for i := range toks {
		require.True(t, toks[i].Equal(got[i]))
	}
}
