package token

import "fmt"

// Kind distinguishes a character token from a control-sequence token.
type Kind byte

const (
	CharToken Kind = iota
	CSToken
)

// Token is one lexeme produced by the tokenizer: either a (catcode,
// char) pair or a reference to a control-sequence name in the hash
// (spec.md §4.2, §3.3). Line tracks the source line it came from, for
// error context (spec.md §7).
type Token struct {
	Kind Kind
	Cat  Cat    // valid when Kind == CharToken
	Char byte   // valid when Kind == CharToken
	CS   string // valid when Kind == CSToken: the control-sequence name
	Line int
}

// NewChar returns a character token.
func NewChar(cat Cat, ch byte, line int) Token {
	return Token{Kind: CharToken, Cat: cat, Char: ch, Line: line}
}

// NewCS returns a control-sequence token by name (without the leading
// escape character; a single non-letter CS name has length 1).
func NewCS(name string, line int) Token {
	return Token{Kind: CSToken, CS: name, Line: line}
}

// IsCS reports whether t names a control sequence.
func (t Token) IsCS() bool { return t.Kind == CSToken }

// String renders t for diagnostics, the way the teacher's lexer renders
// a Token for test failure messages.
func (t Token) String() string {
	if t.Kind == CSToken {
		return `\` + t.CS
	}
	return fmt.Sprintf("%q(cat=%d)", string(t.Char), t.Cat)
}

// Equal reports whether two tokens have the same meaning-relevant
// fields (used when comparing macro parameter/body token lists).
func (t Token) Equal(o Token) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == CSToken {
		return t.CS == o.CS
	}
	return t.Cat == o.Cat && t.Char == o.Char
}

// List is a singly linked token list, the unit macro bodies and
// parameter texts are built from (spec.md §3.7: refcounted while
// referenced by eqtb or an input record).
type List struct {
	Tok  Token
	Next *List
}

// NewList builds a List from a slice of tokens, tail first.
func NewList(toks []Token) *List {
	var head *List
	for i := len(toks) - 1; i >= 0; i-- {
		head = &List{Tok: toks[i], Next: head}
	}
	return head
}

// Slice flattens a List back into a slice, for comparison/printing.
func (l *List) Slice() []Token {
	var out []Token
	for n := l; n != nil; n = n.Next {
		out = append(out, n.Tok)
	}
	return out
}

// MatchParam is the token used in parameter text to stand for #1..#9.
func MatchParam(n int) Token {
	return Token{Kind: CharToken, Cat: Parameter, Char: byte('0' + n), Line: 0}
}
