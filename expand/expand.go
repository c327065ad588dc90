// Package expand implements the expander: macro calls, conditionals,
// \the, \csname, and the other expandable primitives (spec.md §4.3).
package expand

import (
	"strconv"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/lexer"
	"github.com/ha1tch/gotex/texerr"
	"github.com/ha1tch/gotex/token"
)

// ifRecord is one entry of the conditional stack (spec.md §4.3).
type ifRecord struct {
	limit string // "else" or "fi": which closing keyword is still legal
	line  int
}

// Expander turns raw tokens from a Tokenizer into fully expanded ones,
// per get_x_token's contract: loop expanding until the result is
// non-expandable (spec.md §4.3).
type Expander struct {
	Tz    *lexer.Tokenizer
	Eqtb  *eqtb.Table
	Stack *lexer.Stack

	ifStack []ifRecord
}

// New builds an Expander over tz, sharing its eqtb and input stack.
func New(tz *lexer.Tokenizer, eq *eqtb.Table, stack *lexer.Stack) *Expander {
	return &Expander{Tz: tz, Eqtb: eq, Stack: stack}
}

// expandablePrimitives is the set of control-sequence names the expander
// recognizes as primitives (as opposed to user macros looked up in
// eqtb), per spec.md §4.3's list.
var expandablePrimitives = map[string]bool{
	"if": true, "ifnum": true, "ifodd": true, "iftrue": true, "iffalse": true,
	"ifcase": true, "else": true, "or": true, "fi": true,
	"the": true, "number": true, "string": true, "csname": true, "endcsname": true,
	"expandafter": true, "noexpand": true,
}

// GetXToken returns the next non-expandable token, expanding macro
// calls and primitives as encountered (spec.md §4.3).
func (ex *Expander) GetXToken() (token.Token, bool, error) {
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil || !ok {
			return t, ok, err
		}
		if !t.IsCS() {
			return t, true, nil
		}
		_, consumed, err := ex.expandOnce(t)
		if err != nil {
			return token.Token{}, false, err
		}
		if !consumed {
			return t, true, nil
		}
	}
}

// expandOnce expands one control-sequence token if it names a macro or
// a recognized expandable primitive, pushing its replacement text back
// onto the input stack. Returns consumed=false for anything else
// (primitives dispatched by main control, undefined names, etc.).
func (ex *Expander) expandOnce(t token.Token) (token.Token, bool, error) {
	name := t.CS
	if expandablePrimitives[name] {
		return ex.dispatchPrimitive(name, t.Line)
	}
	m, ok := ex.Eqtb.Meaning(name)
	if !ok || m.Kind != eqtb.MacroCall {
		return token.Token{}, false, nil
	}
	body, err := ex.matchArgsAndSubstitute(name, m, t.Line)
	if err != nil {
		return token.Token{}, false, err
	}
	ex.Stack.PushTokens(&lexer.TokenSource{List: body, Kind: "macro", Name: name})
	return token.Token{}, true, nil
}

// matchArgsAndSubstitute implements the macro call contract of spec.md
// §4.3: walk the parameter text, binding #1..#9 either to a single
// token/balanced group (undelimited) or to everything up to a literal
// delimiter sequence, then substitute into the body.
func (ex *Expander) matchArgsAndSubstitute(name string, m eqtb.Meaning, line int) (*token.List, error) {
	args := make(map[byte][]token.Token)

	p := m.Params
	for p != nil {
		if p.Tok.Cat == token.Parameter {
			paramNum := p.Tok.Char
			p = p.Next
			var delim []token.Token
			for p != nil && p.Tok.Cat != token.Parameter {
				delim = append(delim, p.Tok)
				p = p.Next
			}
			arg, err := ex.scanArgument(delim, name, line)
			if err != nil {
				return nil, err
			}
			args[paramNum] = arg
			continue
		}
		// A literal token in the parameter text before the first # is
		// skipped here without being matched against, or consuming, any
		// input token; common macros (``\def\x#1{...}'') have no such
		// prefix.
		p = p.Next
	}

	return substitute(m.Body, args), nil
}

// scanArgument reads one macro argument: if delim is empty, a single
// token or one balanced {...} group; otherwise every token up to (and
// excluding) the literal delim sequence, honoring brace balance.
func (ex *Expander) scanArgument(delim []token.Token, name string, line int) ([]token.Token, error) {
	if len(delim) == 0 {
		t, ok, err := ex.Tz.GetNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, texerr.New(texerr.Syntax, "file ended while scanning arguments of \\%s", name).
				WithContext(texerr.Context{Line: line})
		}
		if !t.IsCS() && t.Cat == token.BeginGroup {
			return ex.scanBalancedGroup()
		}
		return []token.Token{t}, nil
	}

	var collected []token.Token
	depth := 0
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, texerr.New(texerr.Syntax, "file ended while scanning arguments of \\%s", name).
				WithContext(texerr.Context{Line: line})
		}
		if depth == 0 && matchesDelim(collected, delim, t) {
			return trimDelim(collected, delim), nil
		}
		if !t.IsCS() {
			if t.Cat == token.BeginGroup {
				depth++
			} else if t.Cat == token.EndGroup {
				depth--
			}
		}
		collected = append(collected, t)
	}
}

func matchesDelim(collected, delim []token.Token, next token.Token) bool {
	window := append(append([]token.Token{}, collected...), next)
	if len(window) < len(delim) {
		return false
	}
	tail := window[len(window)-len(delim):]
	for i := range delim {
		if !tail[i].Equal(delim[i]) {
			return false
		}
	}
	return true
}

func trimDelim(collected, delim []token.Token) []token.Token {
	return collected[:len(collected)-(len(delim)-1)]
}

func (ex *Expander) scanBalancedGroup() ([]token.Token, error) {
	depth := 1
	var out []token.Token
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, texerr.New(texerr.Syntax, "file ended inside a group")
		}
		if !t.IsCS() {
			if t.Cat == token.BeginGroup {
				depth++
			} else if t.Cat == token.EndGroup {
				depth--
				if depth == 0 {
					return out, nil
				}
			}
		}
		out = append(out, t)
	}
}

// substitute walks the macro body replacing each #n with its bound
// argument, left to right, in order (spec.md §8's order-preservation
// law).
func substitute(body *token.List, args map[byte][]token.Token) *token.List {
	var out []token.Token
	for n := body; n != nil; n = n.Next {
		if n.Tok.Cat == token.Parameter {
			out = append(out, args[n.Tok.Char]...)
			continue
		}
		out = append(out, n.Tok)
	}
	return token.NewList(out)
}

// dispatchPrimitive handles the subset of expandable primitives gotex
// implements directly: conditionals, \the (count registers only),
// \number, \string, \csname/\endcsname.
func (ex *Expander) dispatchPrimitive(name string, line int) (token.Token, bool, error) {
	switch name {
	case "iftrue":
		ex.pushIf(true, line)
		return token.Token{}, true, nil
	case "iffalse":
		ex.pushIf(false, line)
		return token.Token{}, true, nil
	case "ifnum":
		ok, err := ex.evalIfNum()
		if err != nil {
			return token.Token{}, false, err
		}
		ex.pushIf(ok, line)
		return token.Token{}, true, nil
	case "ifodd":
		n, err := ex.scanInt()
		if err != nil {
			return token.Token{}, false, err
		}
		ex.pushIf(n%2 != 0, line)
		return token.Token{}, true, nil
	case "else":
		return token.Token{}, true, ex.handleElse(line)
	case "fi":
		return token.Token{}, true, ex.handleFi(line)
	case "the":
		return token.Token{}, true, ex.expandThe(line)
	case "number":
		return token.Token{}, true, ex.expandNumber(line)
	case "string":
		return token.Token{}, true, ex.expandString(line)
	case "csname":
		return token.Token{}, true, ex.expandCsname(line)
	default:
		// Not yet implemented as an expansion: treat as non-expandable so
		// main control can dispatch it (or report undefined).
		return token.Token{}, false, nil
	}
}

func (ex *Expander) pushIf(branchTrue bool, line int) {
	rec := ifRecord{line: line}
	if branchTrue {
		rec.limit = "else"
	} else {
		ex.skipToElseOrFi()
		rec.limit = "fi"
	}
	ex.ifStack = append(ex.ifStack, rec)
}

// skipToElseOrFi runs a lexer-only pass that preserves brace balance
// without expanding, per spec.md §4.3's "skipping" contract.
func (ex *Expander) skipToElseOrFi() {
	depth := 0
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil || !ok {
			return
		}
		if t.IsCS() {
			switch t.CS {
			case "if", "ifnum", "ifodd", "iftrue", "iffalse", "ifcase":
				depth++
			case "fi":
				if depth == 0 {
					ex.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{t})})
					return
				}
				depth--
			case "else":
				if depth == 0 {
					return
				}
			}
		}
	}
}

func (ex *Expander) handleElse(line int) error {
	if len(ex.ifStack) == 0 {
		return texerr.New(texerr.Syntax, "extra \\else").WithContext(texerr.Context{Line: line})
	}
	top := &ex.ifStack[len(ex.ifStack)-1]
	if top.limit != "else" {
		return nil
	}
	ex.skipToFi()
	top.limit = "fi"
	return nil
}

func (ex *Expander) skipToFi() {
	depth := 0
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil || !ok {
			return
		}
		if t.IsCS() {
			switch t.CS {
			case "if", "ifnum", "ifodd", "iftrue", "iffalse", "ifcase":
				depth++
			case "fi":
				if depth == 0 {
					return
				}
				depth--
			}
		}
	}
}

func (ex *Expander) handleFi(line int) error {
	if len(ex.ifStack) == 0 {
		return texerr.New(texerr.Syntax, "extra \\fi").WithContext(texerr.Context{Line: line})
	}
	ex.ifStack = ex.ifStack[:len(ex.ifStack)-1]
	return nil
}

func (ex *Expander) evalIfNum() (bool, error) {
	lhs, err := ex.scanInt()
	if err != nil {
		return false, err
	}
	rel, err := ex.nextNonSpaceChar()
	if err != nil {
		return false, err
	}
	rhs, err := ex.scanInt()
	if err != nil {
		return false, err
	}
	switch rel {
	case '<':
		return lhs < rhs, nil
	case '>':
		return lhs > rhs, nil
	default:
		return lhs == rhs, nil
	}
}

func (ex *Expander) nextNonSpaceChar() (byte, error) {
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, texerr.New(texerr.Syntax, "unexpected end of input")
		}
		if !t.IsCS() && t.Cat == token.Spacer {
			continue
		}
		return t.Char, nil
	}
}

// scanInt scans a decimal integer, honoring \count registers and a
// leading sign, per a simplified form of spec.md §4.4.
func (ex *Expander) scanInt() (int32, error) {
	sign := int32(1)
	var digits []byte
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if t.IsCS() {
			if t.CS == "count" {
				n, err := ex.scanInt()
				if err != nil {
					return 0, err
				}
				return sign * ex.Eqtb.Count(int(n)), nil
			}
			ex.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{t})})
			break
		}
		if t.Cat == token.Spacer {
			if len(digits) > 0 {
				break
			}
			continue
		}
		if t.Char == '-' && len(digits) == 0 {
			sign = -sign
			continue
		}
		if t.Char == '+' && len(digits) == 0 {
			continue
		}
		if t.Char >= '0' && t.Char <= '9' {
			digits = append(digits, t.Char)
			continue
		}
		ex.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{t})})
		break
	}
	if len(digits) == 0 {
		return 0, texerr.New(texerr.Syntax, "missing number, treated as zero")
	}
	v, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return 0, texerr.New(texerr.Overflow, "number too big")
	}
	return sign * int32(v), nil
}

func (ex *Expander) expandThe(line int) error {
	t, ok, err := ex.Tz.GetNext()
	if err != nil {
		return err
	}
	if !ok || !t.IsCS() {
		return texerr.New(texerr.Syntax, "\\the requires an internal quantity").WithContext(texerr.Context{Line: line})
	}
	switch t.CS {
	case "count":
		n, err := ex.scanInt()
		if err != nil {
			return err
		}
		ex.pushDigits(strconv.FormatInt(int64(ex.Eqtb.Count(int(n))), 10), line)
		return nil
	default:
		return texerr.New(texerr.Semantic, "\\the cannot take \\%s", t.CS).WithContext(texerr.Context{Line: line})
	}
}

func (ex *Expander) expandNumber(line int) error {
	n, err := ex.scanInt()
	if err != nil {
		return err
	}
	ex.pushDigits(strconv.FormatInt(int64(n), 10), line)
	return nil
}

func (ex *Expander) expandString(line int) error {
	t, ok, err := ex.Tz.GetNext()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	var s string
	if t.IsCS() {
		s = `\` + t.CS
	} else {
		s = string(t.Char)
	}
	ex.pushDigits(s, line)
	return nil
}

func (ex *Expander) expandCsname(line int) error {
	var name []byte
	for {
		t, ok, err := ex.Tz.GetNext()
		if err != nil {
			return err
		}
		if !ok {
			return texerr.New(texerr.Syntax, "file ended in \\csname")
		}
		if t.IsCS() && t.CS == "endcsname" {
			break
		}
		if !t.IsCS() {
			name = append(name, t.Char)
		}
	}
	csName := string(name)
	if _, ok := ex.Eqtb.Meaning(csName); !ok {
		// An undefined \csname target becomes \relax, per spec.md §4.3 —
		// not a macro call, so it is returned unexpanded rather than
		// swallowed.
		ex.Eqtb.Define(csName, eqtb.Meaning{Kind: eqtb.Primitive, Name: "relax"}, false)
	}
	ex.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{token.NewCS(csName, line)})})
	return nil
}

// pushDigits pushes each byte of s as an "other"-category character
// token back onto the input stack, the way \number/\the materialize
// their result (spec.md §4.3).
func (ex *Expander) pushDigits(s string, line int) {
	toks := make([]token.Token, len(s))
	for i := 0; i < len(s); i++ {
		toks[i] = token.NewChar(token.Other, s[i], line)
	}
	ex.Stack.PushTokens(&lexer.TokenSource{List: token.NewList(toks)})
}
