package expand_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/expand"
	"github.com/ha1tch/gotex/lexer"
	"github.com/ha1tch/gotex/token"
)

func newExpander(t *testing.T, text string) (*expand.Expander, *eqtb.Table) {
	t.Helper()
	eq := eqtb.New()
	stack := lexer.NewStack()
	stack.PushFile(lexer.NewFileSource("test.tex", text))
	tz := lexer.New(stack, eq)
	return expand.New(tz, eq, stack), eq
}

func drain(t *testing.T, ex *expand.Expander) []token.Token {
	t.Helper()
	var out []token.Token
	for {
		tok, ok, err := ex.GetXToken()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, tok)
	}
	return out
}

func TestUndelimitedMacroArgumentSubstitutes(t *testing.T) {
	ex, eq := newExpander(t, `\greet{ab}`)
	eq.Define("greet", eqtb.Meaning{
		Kind:   eqtb.MacroCall,
		Params: token.NewList([]token.Token{token.MatchParam(1)}),
		Body: token.NewList([]token.Token{
			token.NewChar(token.Other, '[', 0),
			token.MatchParam(1),
			token.NewChar(token.Other, ']', 0),
		}),
	}, false)

	toks := drain(t, ex)
	require.Equal(t, byte('['), toks[0].Char)
	require.Equal(t, byte('a'), toks[1].Char)
	require.Equal(t, byte('b'), toks[2].Char)
	require.Equal(t, byte(']'), toks[3].Char)
}

func TestMacroArgumentAsSingleToken(t *testing.T) {
	ex, eq := newExpander(t, `\id x`)
	eq.Define("id", eqtb.Meaning{
		Kind:   eqtb.MacroCall,
		Params: token.NewList([]token.Token{token.MatchParam(1)}),
		Body:   token.NewList([]token.Token{token.MatchParam(1)}),
	}, false)

	toks := drain(t, ex)
	require.Len(t, toks, 2)
	require.Equal(t, byte('x'), toks[0].Char)
}

func TestIfTrueTakesThenBranch(t *testing.T) {
	ex, _ := newExpander(t, `\iftrue a\else b\fi`)
	toks := drain(t, ex)
	require.Len(t, toks, 1)
	require.Equal(t, byte('a'), toks[0].Char)
}

func TestIfFalseTakesElseBranch(t *testing.T) {
	ex, _ := newExpander(t, `\iffalse a\else b\fi`)
	toks := drain(t, ex)
	require.Len(t, toks, 1)
	require.Equal(t, byte('b'), toks[0].Char)
}

func TestIfNumComparesIntegers(t *testing.T) {
	ex, _ := newExpander(t, `\ifnum 3<5 yes\else no\fi`)
	toks := drain(t, ex)
	require.Equal(t, "yes", flatten(toks))
}

func TestNumberExpandsCountRegister(t *testing.T) {
	ex, eq := newExpander(t, `\number\count0 `)
	eq.SetCount(0, 42, false)
	toks := drain(t, ex)
	require.Equal(t, "42", flatten(toks))
}

func TestCsnameDefinesRelax(t *testing.T) {
	ex, eq := newExpander(t, `\csname foo\endcsname`)
	toks := drain(t, ex)
	require.Len(t, toks, 1)
	require.True(t, toks[0].IsCS())
	require.Equal(t, "foo", toks[0].CS)
	m, ok := eq.Meaning("foo")
	require.True(t, ok)
	require.Equal(t, eqtb.Primitive, m.Kind)
}

func flatten(toks []token.Token) string {
	var out []byte
	for _, t := range toks {
		if !t.IsCS() {
			out = append(out, t.Char)
		}
	}
	return string(out)
}
