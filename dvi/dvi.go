// Package dvi writes a DVI opcode stream: page/character/rule
// commands plus movement-compressed horizontal and vertical motion,
// using the two-register reuse scheme spec.md §4.12 describes.
package dvi

import (
	"bytes"
)

// Opcodes, per the DVI format spec.md §4.12 names.
const (
	opSetCharBase = 0
	opSet1        = 128
	opSetRule     = 132
	opPut1        = 133
	opPutRule     = 137
	opNop         = 138
	opBOP         = 139
	opEOP         = 140
	opPush        = 141
	opPop         = 142
	opRight1      = 143
	opW0          = 147
	opW1          = 148
	opX0          = 152
	opX1          = 153
	opDown1       = 157
	opY0          = 161
	opY1          = 162
	opZ0          = 166
	opZ1          = 167
	opFntNumBase  = 171
	opFnt1        = 235
	opXXX1        = 239
	opFntDef1     = 243
	opPre         = 247
	opPost        = 248
	opPostPost    = 249
)

const (
	idByte       = 2
	numeratorDefault   = 25400000
	denominatorDefault = 473628672
)

// regState is the movement-compression state machine of spec.md §4.12:
// none_seen, y_here/z_here, yz_ok, y_ok, z_ok, d_fixed. gotex names the
// states generically since the same machine drives both the
// horizontal (w/x) and vertical (y/z) registers.
type regState byte

const (
	noneSeen regState = iota
	firstHere
	secondHere
	bothOK
	firstOK
	secondOK
	fixed
)

// axis tracks one motion register pair's reuse state (right_ptr for
// horizontal, down_ptr for vertical, spec.md §4.12).
type axis struct {
	state         regState
	first, second int32
}

// move chooses the cheapest opcode for advancing by delta along this
// axis, reporting whether the first or the second register's "0" reuse
// variant can be emitted (both false means a literal multi-byte variant
// is needed), and updating the register state.
func (a *axis) move(delta int32) (reuseFirst, reuseSecond bool) {
	switch a.state {
	case firstHere:
		if delta == a.first {
			a.state = bothOK
			return true, false
		}
	case secondHere:
		if delta == a.second {
			a.state = bothOK
			return false, true
		}
	case bothOK:
		if delta == a.first {
			a.state = firstOK
			return true, false
		}
		if delta == a.second {
			a.state = secondOK
			return false, true
		}
	case firstOK:
		if delta == a.first {
			return true, false
		}
	case secondOK:
		if delta == a.second {
			return false, true
		}
	}
	// No reuse: record delta in whichever register is free, literal
	// motion either way.
	switch a.state {
	case noneSeen:
		a.first = delta
		a.state = firstHere
	case firstHere, firstOK:
		a.second = delta
		a.state = secondHere
	default:
		a.first = delta
		a.state = firstHere
	}
	return false, false
}

// Writer accumulates a DVI byte stream for one document, tracking the
// movement-compression registers across the whole page sequence
// (spec.md §4.12: registers persist across `push`/`pop` within a page,
// reset at `bop`).
type Writer struct {
	buf            bytes.Buffer
	Numerator      int32
	Denominator    int32
	Mag            int32
	Comment        string
	lastBOP        int32 // byte offset of the most recent bop, -1 before the first
	horiz, vert    axis
	fontDefs       []int32
	curFont        int32
}

// New builds a Writer with plain TeX's default num/den (the printer's
// point conversion spec.md §4.12 doesn't itself specify, so gotex
// follows tex.web's literal constants, preserved in
// original_source/src/constants.rs) and magnification 1000 (no
// \mag scaling beyond unity, per SPEC_FULL.md §5).
func New(comment string) *Writer {
	return &Writer{Numerator: numeratorDefault, Denominator: denominatorDefault, Mag: 1000, Comment: comment, lastBOP: -1}
}

func (w *Writer) byte(b byte) { w.buf.WriteByte(b) }

func (w *Writer) bytesN(v int64, n int) {
	for i := n - 1; i >= 0; i-- {
		w.buf.WriteByte(byte(v >> (8 * uint(i))))
	}
}

// Bytes returns the accumulated stream so far.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// CurrentFont returns the font number most recently selected by
// FontNum, so a caller walking a node list knows when a font-change
// opcode is actually needed.
func (w *Writer) CurrentFont() int32 { return w.curFont }

// Preamble emits the DVI preamble (opcode 247), spec.md §4.12.
func (w *Writer) Preamble() {
	w.byte(opPre)
	w.byte(idByte)
	w.bytesN(int64(w.Numerator), 4)
	w.bytesN(int64(w.Denominator), 4)
	w.bytesN(int64(w.Mag), 4)
	w.byte(byte(len(w.Comment)))
	w.buf.WriteString(w.Comment)
}

// BeginPage emits bop (opcode 139): ten \count-register values and a
// back-pointer to the previous bop (-1 for the first page).
func (w *Writer) BeginPage(counts [10]int32) {
	here := int32(w.buf.Len())
	w.byte(opBOP)
	for _, c := range counts {
		w.bytesN(int64(c), 4)
	}
	w.bytesN(int64(w.lastBOP), 4)
	w.lastBOP = here
	w.horiz = axis{}
	w.vert = axis{}
}

// EndPage emits eop (opcode 140).
func (w *Writer) EndPage() { w.byte(opEOP) }

// Push/Pop emit DVI's stack opcodes (141/142); movement-register state
// is not reset by push/pop, only by bop, per spec.md §4.12.
func (w *Writer) Push() { w.byte(opPush) }
func (w *Writer) Pop()  { w.byte(opPop) }

// SetChar emits the cheapest set-character opcode for c, advancing the
// reference point by the character's width (the caller is responsible
// for updating its own notion of cur_h; DVI itself has no width table).
func (w *Writer) SetChar(c byte) {
	if c < 128 {
		w.byte(c)
		return
	}
	w.byte(opSet1)
	w.byte(c)
}

// PutChar emits put1 (133): like SetChar but does not advance.
func (w *Writer) PutChar(c byte) {
	w.byte(opPut1)
	w.byte(c)
}

// SetRule/PutRule emit a solid rule of the given height/width (spec.md
// §4.12); Put does not advance the reference point.
func (w *Writer) SetRule(height, width int32) {
	w.byte(opSetRule)
	w.bytesN(int64(height), 4)
	w.bytesN(int64(width), 4)
}

func (w *Writer) PutRule(height, width int32) {
	w.byte(opPutRule)
	w.bytesN(int64(height), 4)
	w.bytesN(int64(width), 4)
}

// Right moves the reference point right by delta sp, using the w/w0
// register-reuse scheme when profitable (spec.md §4.12).
func (w *Writer) Right(delta int32) {
	reuseW, reuseX := w.horiz.move(delta)
	switch {
	case reuseW:
		w.byte(opW0)
	case reuseX:
		w.byte(opX0)
	default:
		w.emitLiteralMotion(opRight1, delta)
	}
}

// Down is Right's vertical counterpart, using y/y0 and z/z0.
func (w *Writer) Down(delta int32) {
	reuseY, reuseZ := w.vert.move(delta)
	switch {
	case reuseY:
		w.byte(opY0)
	case reuseZ:
		w.byte(opZ0)
	default:
		w.emitLiteralMotion(opDown1, delta)
	}
}

// emitLiteralMotion picks the smallest 1-4 byte signed encoding of
// delta and emits base+(n-1) followed by delta's n-byte two's
// complement form.
func (w *Writer) emitLiteralMotion(base byte, delta int32) {
	n := signedWidth(delta)
	w.byte(base + byte(n-1))
	w.bytesN(int64(delta), n)
}

func signedWidth(v int32) int {
	switch {
	case v >= -128 && v <= 127:
		return 1
	case v >= -32768 && v <= 32767:
		return 2
	case v >= -8388608 && v <= 8388607:
		return 3
	default:
		return 4
	}
}

// FontNum selects font f as the current font, using the compact
// fnt_num_0..63 opcode when it fits.
func (w *Writer) FontNum(f int32) {
	if f >= 0 && f < 64 {
		w.byte(opFntNumBase + byte(f))
		w.curFont = f
		return
	}
	n := signedWidth(f)
	if n < 1 {
		n = 1
	}
	w.byte(opFnt1 + byte(n-1))
	w.bytesN(int64(f), n)
	w.curFont = f
}

// FontDef emits fnt_def1 (243): checksum, magnified (at) size, design size,
// and the font's area/name strings (spec.md §4.12).
func (w *Writer) FontDef(f int32, checksum uint32, designSize, atSize int32, area, name string) {
	w.byte(opFntDef1)
	w.bytesN(int64(f), 1)
	w.bytesN(int64(checksum), 4)
	w.bytesN(int64(atSize), 4)
	w.bytesN(int64(designSize), 4)
	w.byte(byte(len(area)))
	w.byte(byte(len(name)))
	w.buf.WriteString(area)
	w.buf.WriteString(name)
	w.fontDefs = append(w.fontDefs, f)
}

// XXX emits an xxx1 special (239): an arbitrary byte string passed
// through to the DVI-consuming driver untouched.
func (w *Writer) XXX(data []byte) {
	n := byteWidth(len(data))
	w.byte(opXXX1 + byte(n-1))
	w.bytesN(int64(len(data)), n)
	w.buf.Write(data)
}

func byteWidth(v int) int {
	switch {
	case v <= 0xFF:
		return 1
	case v <= 0xFFFF:
		return 2
	case v <= 0xFFFFFF:
		return 3
	default:
		return 4
	}
}

// Post emits the post/post_post trailer (spec.md §4.12): the
// back-pointer to the last bop, num/den/mag, page-box extents, the
// max stack depth and page count, all font defs again, then the
// post_post with four 223 signature bytes.
func (w *Writer) Post(maxV, maxH int32, maxPush uint16, pageCount uint16, fontDefEmitter func(*Writer)) {
	postOffset := int32(w.buf.Len())
	w.byte(opPost)
	w.bytesN(int64(w.lastBOP), 4)
	w.bytesN(int64(w.Numerator), 4)
	w.bytesN(int64(w.Denominator), 4)
	w.bytesN(int64(w.Mag), 4)
	w.bytesN(int64(maxV), 4)
	w.bytesN(int64(maxH), 4)
	w.bytesN(int64(maxPush), 2)
	w.bytesN(int64(pageCount), 2)
	if fontDefEmitter != nil {
		fontDefEmitter(w)
	}

	w.byte(opPostPost)
	w.bytesN(int64(postOffset), 4)
	w.byte(idByte)
	for i := 0; i < 4; i++ {
		w.byte(223)
	}
	for w.buf.Len()%4 != 0 {
		w.byte(223)
	}
}
