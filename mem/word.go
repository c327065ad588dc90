// Package mem implements the fixed-capacity dynamic memory arena that
// backs every node in the system: boxes, glue, kerns, ligatures,
// discretionaries, math noads. See spec.md §3.1 and §4.1.
package mem

import "math"

// Word is one memory word: a 32-bit union viewed as a signed integer, a
// scaled fixed-point value, a float32, two 16-bit halves, or four 8-bit
// quarters. Go has no native union, so Word stores the raw bits and
// exposes typed accessors, the way the teacher's lexer treats a byte
// both as a rune and as a category-code index.
type Word uint32

// Int returns the word as a signed 32-bit integer.
func (w Word) Int() int32 { return int32(w) }

// SetInt stores a signed 32-bit integer.
func (w *Word) SetInt(v int32) { *w = Word(uint32(v)) }

// Scaled returns the word as a scaled fixed-point value (2^-16 pt units).
func (w Word) Scaled() int32 { return w.Int() }

// SetScaled stores a scaled fixed-point value.
func (w *Word) SetScaled(v int32) { w.SetInt(v) }

// Float returns the word as an IEEE-754 float32.
func (w Word) Float() float32 { return math.Float32frombits(uint32(w)) }

// SetFloat stores an IEEE-754 float32.
func (w *Word) SetFloat(v float32) { *w = Word(math.Float32bits(v)) }

// LH returns the left (high) 16-bit half.
func (w Word) LH() int32 { return int32(uint32(w) >> 16) }

// RH returns the right (low) 16-bit half.
func (w Word) RH() int32 { return int32(uint32(w) & 0xFFFF) }

// SetHalves packs two halves into the word.
func (w *Word) SetHalves(lh, rh int32) {
	*w = Word((uint32(lh) << 16) | (uint32(rh) & 0xFFFF))
}

// B0 returns quarter byte 0 (most significant).
func (w Word) B0() byte { return byte(uint32(w) >> 24) }

// B1 returns quarter byte 1.
func (w Word) B1() byte { return byte(uint32(w) >> 16) }

// B2 returns quarter byte 2.
func (w Word) B2() byte { return byte(uint32(w) >> 8) }

// B3 returns quarter byte 3 (least significant).
func (w Word) B3() byte { return byte(uint32(w)) }

// SetQuarters packs four bytes into the word, b0 first.
func (w *Word) SetQuarters(b0, b1, b2, b3 byte) {
	*w = Word(uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3))
}

// Pointer is an index into the arena. NULL is the sentinel and never
// aliases a real word.
type Pointer int32

// NULL is the minimum representable pointer value; it never aliases a
// real allocated word (spec.md §3.1 invariant).
const NULL Pointer = 0
