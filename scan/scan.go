// Package scan implements the numeric, dimension, glue, and keyword
// scanners built on top of the expander (spec.md §4.4).
package scan

import (
	"strconv"

	"github.com/ha1tch/gotex/expand"
	"github.com/ha1tch/gotex/lexer"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/node"
	"github.com/ha1tch/gotex/texerr"
	"github.com/ha1tch/gotex/token"
)

// Scanner reads the higher-level quantities TeX's syntax builds out of
// tokens — integers, dimensions, glue, keywords — expanding as it
// goes (spec.md §4.4).
type Scanner struct {
	Ex *expand.Expander
}

// New builds a Scanner over an already-constructed Expander.
func New(ex *expand.Expander) *Scanner {
	return &Scanner{Ex: ex}
}

func (s *Scanner) next() (token.Token, bool, error) {
	return s.Ex.GetXToken()
}

func (s *Scanner) pushBack(t token.Token) {
	s.Ex.Stack.PushTokens(&lexer.TokenSource{List: token.NewList([]token.Token{t}), Kind: "backed_up"})
}

// ScanKeyword consumes word if the next tokens spell it out
// case-insensitively (letters or "other" category digits/symbols all
// match literally), per spec.md §4.4's keyword-matching contract. On a
// mismatch every consumed token is pushed back and false is returned.
func (s *Scanner) ScanKeyword(word string) (bool, error) {
	var consumed []token.Token
	for i := 0; i < len(word); i++ {
		t, ok, err := s.next()
		if err != nil {
			return false, err
		}
		if !ok {
			s.pushBackAll(consumed)
			return false, nil
		}
		if t.IsCS() || !equalFold(t.Char, word[i]) {
			s.pushBackAll(append(consumed, t))
			return false, nil
		}
		consumed = append(consumed, t)
	}
	return true, nil
}

func equalFold(a, b byte) bool {
	return toLower(a) == toLower(b)
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

func (s *Scanner) pushBackAll(toks []token.Token) {
	for i := len(toks) - 1; i >= 0; i-- {
		s.pushBack(toks[i])
	}
}

// skipOneOptionalSpace discards exactly one following space token, the
// way scan_int/scan_dimen consume the space that terminates a numeric
// constant (spec.md §4.4).
func (s *Scanner) skipOneOptionalSpace() error {
	t, ok, err := s.next()
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if t.IsCS() || t.Cat != token.Spacer {
		s.pushBack(t)
	}
	return nil
}

// ScanOptionalEquals skips spaces, then one "=" if present, the way
// scan_optional_equals prepares for the value half of an assignment
// (spec.md §4.4).
func (s *Scanner) ScanOptionalEquals() error {
	for {
		t, ok, err := s.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if !t.IsCS() && t.Cat == token.Spacer {
			continue
		}
		if !t.IsCS() && t.Char == '=' {
			return nil
		}
		s.pushBack(t)
		return nil
	}
}

// ScanInt scans a (possibly signed) decimal, octal ('), hex ("), or
// char-code (`) constant, or a \count register read as an integer
// (spec.md §4.4); no other internal quantity is read here.
func (s *Scanner) ScanInt() (int32, error) {
	sign, err := s.scanOptionalSigns()
	if err != nil {
		return 0, err
	}
	v, err := s.scanUnsignedInt()
	if err != nil {
		return 0, err
	}
	return sign * v, nil
}

func (s *Scanner) scanOptionalSigns() (int32, error) {
	sign := int32(1)
	for {
		t, ok, err := s.next()
		if err != nil {
			return 0, err
		}
		if !ok {
			return sign, nil
		}
		if t.IsCS() || t.Cat == token.Spacer {
			if !t.IsCS() {
				continue
			}
			s.pushBack(t)
			return sign, nil
		}
		switch t.Char {
		case '-':
			sign = -sign
		case '+':
		default:
			s.pushBack(t)
			return sign, nil
		}
	}
}

func (s *Scanner) scanUnsignedInt() (int32, error) {
	t, ok, err := s.next()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, texerr.New(texerr.Syntax, "missing number, treated as zero")
	}
	if t.IsCS() {
		return s.scanInternalInt(t)
	}
	switch {
	case t.Char >= '0' && t.Char <= '9':
		return s.scanDigits(t.Char, 10)
	case t.Char == '\'':
		return s.scanDigitsBase(8)
	case t.Char == '"':
		return s.scanDigitsBase(16)
	case t.Char == '`':
		return s.scanCharCode()
	default:
		s.pushBack(t)
		return 0, texerr.New(texerr.Syntax, "missing number, treated as zero")
	}
}

func (s *Scanner) scanDigits(first byte, base int) (int32, error) {
	digits := []byte{first}
	for {
		t, ok, err := s.next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if t.IsCS() {
			s.pushBack(t)
			break
		}
		if !isDigitInBase(t.Char, base) {
			if t.Cat != token.Spacer {
				s.pushBack(t)
			}
			break
		}
		digits = append(digits, t.Char)
	}
	v, err := strconv.ParseInt(string(digits), base, 64)
	if err != nil {
		return 0, texerr.New(texerr.Overflow, "number too big")
	}
	return int32(v), nil
}

func (s *Scanner) scanDigitsBase(base int) (int32, error) {
	var digits []byte
	for {
		t, ok, err := s.next()
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		if t.IsCS() || !isDigitInBase(t.Char, base) {
			if !t.IsCS() && t.Cat == token.Spacer {
				// consumed
			} else {
				s.pushBack(t)
			}
			break
		}
		digits = append(digits, t.Char)
	}
	if len(digits) == 0 {
		return 0, texerr.New(texerr.Syntax, "missing number, treated as zero")
	}
	v, err := strconv.ParseInt(string(digits), base, 64)
	if err != nil {
		return 0, texerr.New(texerr.Overflow, "number too big")
	}
	return int32(v), nil
}

func isDigitInBase(b byte, base int) bool {
	switch {
	case base == 10:
		return b >= '0' && b <= '9'
	case base == 8:
		return b >= '0' && b <= '7'
	case base == 16:
		return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'F')
	}
	return false
}

// scanCharCode scans `c or `\c, returning the byte code of the
// following character (spec.md §4.4).
func (s *Scanner) scanCharCode() (int32, error) {
	t, ok, err := s.next()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, texerr.New(texerr.Syntax, "missing character after `")
	}
	if t.IsCS() {
		if len(t.CS) == 1 {
			return int32(t.CS[0]), nil
		}
		return 0, texerr.New(texerr.Syntax, "improper alphabetic constant")
	}
	return int32(t.Char), nil
}

// scanInternalInt reads an internal quantity named by a control
// sequence as a plain integer; only \count is handled, and any other
// control sequence is an error.
func (s *Scanner) scanInternalInt(t token.Token) (int32, error) {
	switch t.CS {
	case "count":
		n, err := s.ScanInt()
		if err != nil {
			return 0, err
		}
		return s.Ex.Eqtb.Count(int(n)), nil
	default:
		return 0, texerr.New(texerr.Semantic, "you can't use \\%s after a number", t.CS)
	}
}

// ScanDimen scans a dimension: an optional signed decimal constant
// (with an optional fractional part) followed by a two-letter unit
// keyword, returning the value in sp (scaled points, spec.md §4.4/§4.5).
func (s *Scanner) ScanDimen() (int32, error) {
	sign, err := s.scanOptionalSigns()
	if err != nil {
		return 0, err
	}
	intPart, fracNum, fracDen, err := s.scanDecimalConstant()
	if err != nil {
		return 0, err
	}
	unitsPerPt, err := s.scanUnitKeyword()
	if err != nil {
		return 0, err
	}
	value := int32(intPart) * unitsPerPt
	if fracDen > 0 {
		value += int32((int64(fracNum) * int64(unitsPerPt)) / int64(fracDen))
	}
	return sign * value, nil
}

// scanDecimalConstant reads digits, an optional '.'/',' and more
// digits, returning the integer part and a fraction as num/den.
func (s *Scanner) scanDecimalConstant() (intPart int32, fracNum, fracDen int64, err error) {
	var digits []byte
	for {
		t, ok, e := s.next()
		if e != nil {
			return 0, 0, 0, e
		}
		if !ok {
			break
		}
		if t.IsCS() {
			s.pushBack(t)
			break
		}
		if t.Char >= '0' && t.Char <= '9' {
			digits = append(digits, t.Char)
			continue
		}
		if t.Char == '.' || t.Char == ',' {
			var frac []byte
			for {
				ft, fok, fe := s.next()
				if fe != nil {
					return 0, 0, 0, fe
				}
				if !fok {
					break
				}
				if !ft.IsCS() && ft.Char >= '0' && ft.Char <= '9' {
					frac = append(frac, ft.Char)
					continue
				}
				s.pushBack(ft)
				break
			}
			if len(frac) > 0 {
				den := int64(1)
				for range frac {
					den *= 10
				}
				num, _ := strconv.ParseInt(string(frac), 10, 64)
				fracNum, fracDen = num, den
			}
			break
		}
		s.pushBack(t)
		break
	}
	if len(digits) > 0 {
		v, e := strconv.ParseInt(string(digits), 10, 64)
		if e != nil {
			return 0, 0, 0, texerr.New(texerr.Overflow, "dimension too large")
		}
		intPart = int32(v)
	}
	return intPart, fracNum, fracDen, nil
}

// unitTable gives the sp-per-unit conversion for the fixed-size units
// spec.md §4.4 names; true-unit keywords ("true") are accepted but
// magnification is always unity (no \mag in this engine, see §5).
var unitTable = map[string]int32{
	"pt": mem.Unity,
	"sp": 1,
	"in": 7227 * mem.Unity / 100,
	"pc": 12 * mem.Unity,
	"bp": 7227 * mem.Unity / 7200,
	"cm": 7227 * mem.Unity / 254,
	"mm": 7227 * mem.Unity / 2540,
	"dd": 1238 * mem.Unity / 1157,
	"cc": 14856 * mem.Unity / 1157,
}

func (s *Scanner) scanUnitKeyword() (int32, error) {
	_, err := s.ScanKeyword("true")
	if err != nil {
		return 0, err
	}
	for _, unit := range []string{"pt", "sp", "in", "pc", "bp", "cm", "mm", "dd", "cc"} {
		ok, err := s.ScanKeyword(unit)
		if err != nil {
			return 0, err
		}
		if ok {
			if err := s.skipOneOptionalSpace(); err != nil {
				return 0, err
			}
			return unitTable[unit], nil
		}
	}
	return 0, texerr.New(texerr.Syntax, "illegal unit of measure (pt inserted)")
}

// ScanGlue scans a glue specification: a dimension, optionally
// followed by "plus <dimen-or-fil>" and "minus <dimen-or-fil>"
// (spec.md §4.4, §3.6's glue-order encoding).
func (s *Scanner) ScanGlue() (*node.GlueSpec, error) {
	width, err := s.ScanDimen()
	if err != nil {
		return nil, err
	}
	g := &node.GlueSpec{Width: width}
	if ok, err := s.ScanKeyword("plus"); err != nil {
		return nil, err
	} else if ok {
		v, order, err := s.scanDimenOrFil()
		if err != nil {
			return nil, err
		}
		g.Stretch, g.StretchOrder = v, order
	}
	if ok, err := s.ScanKeyword("minus"); err != nil {
		return nil, err
	} else if ok {
		v, order, err := s.scanDimenOrFil()
		if err != nil {
			return nil, err
		}
		g.Shrink, g.ShrinkOrder = v, order
	}
	return g, nil
}

// scanDimenOrFil scans either a normal dimension or an "fil"/"fill"/
// "filll" infinite-stretch quantity (spec.md §3.6).
func (s *Scanner) scanDimenOrFil() (int32, mem.GlueOrder, error) {
	sign, err := s.scanOptionalSigns()
	if err != nil {
		return 0, mem.Normal, err
	}
	intPart, fracNum, fracDen, err := s.scanDecimalConstant()
	if err != nil {
		return 0, mem.Normal, err
	}
	if ok, err := s.ScanKeyword("fil"); err != nil {
		return 0, mem.Normal, err
	} else if ok {
		order := mem.Fil
		for {
			more, err := s.ScanKeyword("l")
			if err != nil {
				return 0, mem.Normal, err
			}
			if !more {
				break
			}
			order++
			if order > mem.Filll {
				return 0, mem.Normal, texerr.New(texerr.Syntax, "illegal unit of measure (replaced by filll)")
			}
		}
		if err := s.skipOneOptionalSpace(); err != nil {
			return 0, mem.Normal, err
		}
		v := int32(intPart)*mem.Unity + int32((fracNum*int64(mem.Unity))/max64(fracDen, 1))
		return sign * v, order, nil
	}
	unitsPerPt, err := s.scanUnitKeyword()
	if err != nil {
		return 0, mem.Normal, err
	}
	value := int32(intPart) * unitsPerPt
	if fracDen > 0 {
		value += int32((fracNum * int64(unitsPerPt)) / fracDen)
	}
	return sign * value, mem.Normal, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
