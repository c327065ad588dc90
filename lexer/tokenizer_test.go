package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/lexer"
	"github.com/ha1tch/gotex/token"
)

func tokenizeAll(t *testing.T, text string) []token.Token {
	t.Helper()
	eq := eqtb.New()
	stack := lexer.NewStack()
	stack.PushFile(lexer.NewFileSource("test.tex", text))
	tz := lexer.New(stack, eq)

	var out []token.Token
	for {
		tok, ok, err := tz.GetNext()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, tok)
	}
	return out
}

func TestControlWordAndSkipBlanks(t *testing.T) {
	toks := tokenizeAll(t, `\hbox {ab}`)
	require.True(t, toks[0].IsCS())
	require.Equal(t, "hbox", toks[0].CS)
	require.Equal(t, token.BeginGroup, toks[1].Cat)
	require.Equal(t, byte('a'), toks[2].Char)
	require.Equal(t, byte('b'), toks[3].Char)
	require.Equal(t, token.EndGroup, toks[4].Cat)
}

func TestControlSymbolDoesNotSkipBlanks(t *testing.T) {
	toks := tokenizeAll(t, `\% x`)
	require.Equal(t, "%", toks[0].CS)
	require.Equal(t, token.Spacer, toks[1].Cat)
}

func TestEndOfLineInMidLineBecomesSpace(t *testing.T) {
	toks := tokenizeAll(t, "a\nb")
	require.Equal(t, byte('a'), toks[0].Char)
	require.Equal(t, token.Spacer, toks[1].Cat)
	require.Equal(t, byte('b'), toks[2].Char)
}

func TestBlankLineProducesPar(t *testing.T) {
	toks := tokenizeAll(t, "a\n\nb")
	require.Equal(t, byte('a'), toks[0].Char)
	require.Equal(t, token.Spacer, toks[1].Cat)
	require.True(t, toks[2].IsCS())
	require.Equal(t, "par", toks[2].CS)
}

func TestCommentIsDropped(t *testing.T) {
	toks := tokenizeAll(t, "a% comment\nb")
	require.Len(t, toks, 3)
	require.Equal(t, byte('a'), toks[0].Char)
	require.Equal(t, byte('b'), toks[1].Char)
}

func TestAlignStateTracksBraces(t *testing.T) {
	eq := eqtb.New()
	stack := lexer.NewStack()
	stack.PushFile(lexer.NewFileSource("test.tex", "{}"))
	tz := lexer.New(stack, eq)
	before := stack.AlignState
	_, _, _ = tz.GetNext()
	require.Equal(t, before-1, stack.AlignState)
	_, _, _ = tz.GetNext()
	require.Equal(t, before, stack.AlignState)
}
