package lexer

import (
	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/texerr"
	"github.com/ha1tch/gotex/token"
)

// Tokenizer turns the bytes of the innermost file source into tokens,
// honoring category codes and falling through to token sources
// transparently (spec.md §4.2).
type Tokenizer struct {
	Stack       *Stack
	Eqtb        *eqtb.Table
	EndLineChar byte // appended to each line per current eqtb setting; 0 disables it
}

// New builds a Tokenizer reading from stack using eq for category-code
// lookups.
func New(stack *Stack, eq *eqtb.Table) *Tokenizer {
	return &Tokenizer{Stack: stack, Eqtb: eq, EndLineChar: '\r'}
}

// GetNext returns the next raw token, per spec.md §4.3's get_next
// contract: no expansion, just lexing. Returns (Token{}, false, nil) at
// the end of the job (input stack empty).
func (tz *Tokenizer) GetNext() (token.Token, bool, error) {
	for {
		top := tz.Stack.top()
		if top == nil {
			return token.Token{}, false, nil
		}
		if top.Tokens != nil {
			t, ok := tz.Stack.nextFromTokenSource()
			if ok {
				return t, true, nil
			}
			continue // frame was popped; try the new top
		}
		t, ok, err := tz.nextFromFile(top.File)
		if err != nil {
			return token.Token{}, false, err
		}
		if !ok {
			tz.Stack.Pop()
			continue
		}
		return t, true, nil
	}
}

func (tz *Tokenizer) catCode(b byte) token.Cat {
	if tz.Eqtb != nil {
		return tz.Eqtb.CatCode(b)
	}
	return token.DefaultCatCode(b)
}

// nextFromFile implements the per-line state machine of spec.md §4.2:
// mid-line / skip-blanks / new-line, with multi-letter control-sequence
// scanning and ^^-notation character substitution.
func (tz *Tokenizer) nextFromFile(fs *FileSource) (token.Token, bool, error) {
	for {
		if fs.pos >= len(fs.buf) {
			if !fs.advanceLine(tz.EndLineChar) {
				return token.Token{}, false, nil
			}
			continue
		}
		b := tz.applySuperscriptNotation(fs)
		cat := tz.catCode(b)
		line := fs.Line

		switch cat {
		case token.Escape:
			fs.pos++
			name, ok := tz.scanControlSequenceName(fs)
			if !ok {
				// Control symbol: exactly one following character, of
				// whatever category, forms the name.
			}
			return token.NewCS(name, line), true, nil
		case token.EndLine:
			fs.pos = len(fs.buf)
			switch fs.state {
			case newLine:
				return token.NewCS("par", line), true, nil
			case midLine:
				return token.NewChar(token.Spacer, ' ', line), true, nil
			default: // skipBlanks
				continue
			}
		case token.Spacer:
			fs.pos++
			if fs.state == midLine {
				fs.state = skipBlanks
				return token.NewChar(token.Spacer, ' ', line), true, nil
			}
			continue
		case token.Comment:
			fs.pos = len(fs.buf)
			continue
		case token.Ignored:
			fs.pos++
			continue
		case token.Invalid:
			fs.pos++
			return token.Token{}, false, texerr.New(texerr.Syntax, "text line contains an invalid character").
				WithContext(texerr.Context{FileName: fs.Name, Line: line})
		case token.BeginGroup:
			fs.pos++
			fs.state = midLine
			tz.Stack.AlignState--
			return token.NewChar(cat, b, line), true, nil
		case token.EndGroup:
			fs.pos++
			fs.state = midLine
			tz.Stack.AlignState++
			return token.NewChar(cat, b, line), true, nil
		default:
			fs.pos++
			fs.state = midLine
			return token.NewChar(cat, b, line), true, nil
		}
	}
}

// applySuperscriptNotation implements the `^^X` replacement of spec.md
// §4.2: two identical superscript-category characters followed by
// either two lowercase hex digits or one other character produce a
// single replaced byte in the buffer.
func (tz *Tokenizer) applySuperscriptNotation(fs *FileSource) byte {
	p := fs.pos
	if p+1 >= len(fs.buf) {
		return fs.buf[p]
	}
	c := fs.buf[p]
	if tz.catCode(c) != token.SupMark || fs.buf[p+1] != c {
		return c
	}
	if p+3 < len(fs.buf) && isLowerHex(fs.buf[p+2]) && isLowerHex(fs.buf[p+3]) {
		v := hexVal(fs.buf[p+2])*16 + hexVal(fs.buf[p+3])
		replaceByte(fs, p, 4, byte(v))
		return fs.buf[p]
	}
	if p+2 < len(fs.buf) {
		c2 := fs.buf[p+2]
		var v byte
		if c2 < 128 {
			v = c2 + 64
		} else {
			v = c2 - 64
		}
		replaceByte(fs, p, 3, v)
		return fs.buf[p]
	}
	return c
}

func replaceByte(fs *FileSource, at, width int, v byte) {
	rest := append([]byte{v}, fs.buf[at+width:]...)
	fs.buf = append(fs.buf[:at], rest...)
}

func isLowerHex(b byte) bool { return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') }
func hexVal(b byte) byte {
	if b <= '9' {
		return b - '0'
	}
	return b - 'a' + 10
}

// scanControlSequenceName scans the letters following an escape
// character: a run of letter-category bytes forms a control word (and
// enters skip-blanks state); any other single byte forms a control
// symbol (state becomes mid-line, except after a control space, which
// enters skip-blanks state).
func (tz *Tokenizer) scanControlSequenceName(fs *FileSource) (string, bool) {
	if fs.pos >= len(fs.buf) {
		fs.state = midLine
		return "", false
	}
	start := fs.pos
	if tz.catCode(fs.buf[fs.pos]) == token.Letter {
		for fs.pos < len(fs.buf) && tz.catCode(fs.buf[fs.pos]) == token.Letter {
			fs.pos++
		}
		fs.state = skipBlanks
		return string(fs.buf[start:fs.pos]), true
	}
	name := string(fs.buf[fs.pos])
	fs.pos++
	if tz.catCode(fs.buf[start]) == token.Spacer {
		fs.state = skipBlanks
	} else {
		fs.state = midLine
	}
	return name, false
}
