// Package strpool implements the append-only byte pool with a
// start-index directory described in spec.md §3.2. Strings 0..255 are
// the single-byte strings (identity with their byte value); everything
// else is appended as it is interned.
package strpool

import "github.com/ha1tch/gotex/texerr"

// StrNum identifies an interned string.
type StrNum int32

// Pool is the append-only byte buffer plus its directory.
type Pool struct {
	buf   []byte
	start []int32 // start[i+1]-start[i] is the length of string i
}

// New builds an empty pool, pre-populating the 256 single-byte strings
// (spec.md §3.2) plus one initial empty "current string" boundary.
func New() *Pool {
	p := &Pool{
		buf:   make([]byte, 0, 4096),
		start: make([]int32, 0, 512),
	}
	p.start = append(p.start, 0)
	for b := 0; b < 256; b++ {
		p.buf = append(p.buf, byte(b))
		p.start = append(p.start, int32(len(p.buf)))
	}
	return p
}

// Count returns the number of interned strings, including the 256
// single-byte identities.
func (p *Pool) Count() int { return len(p.start) - 1 }

// String returns the bytes of string i.
func (p *Pool) String(i StrNum) string {
	return string(p.buf[p.start[i]:p.start[i+1]])
}

// Append appends a byte to the string currently being built (the one
// not yet terminated by MakeString).
func (p *Pool) Append(b byte) {
	p.buf = append(p.buf, b)
}

// AppendString appends every byte of s to the string under construction.
func (p *Pool) AppendString(s string) {
	p.buf = append(p.buf, s...)
}

// MakeString closes off the string under construction and returns its
// StrNum.
func (p *Pool) MakeString() StrNum {
	p.start = append(p.start, int32(len(p.buf)))
	return StrNum(len(p.start) - 2)
}

// Intern appends s as a new standalone string and returns its StrNum in
// one step.
func (p *Pool) Intern(s string) StrNum {
	p.AppendString(s)
	return p.MakeString()
}

// Flush discards the string currently under construction (the bytes
// appended since the last MakeString) without interning it.
func (p *Pool) Flush() {
	p.buf = p.buf[:p.start[len(p.start)-1]]
}

// FlushLast removes the most recently made string. Only the most recent
// string may be flushed (spec.md §3.2).
func (p *Pool) FlushLast() error {
	if len(p.start) <= 257 {
		return texerr.New(texerr.Confusion, "cannot flush a single-byte string")
	}
	p.start = p.start[:len(p.start)-1]
	p.buf = p.buf[:p.start[len(p.start)-1]]
	return nil
}

// Bytes exposes the raw backing buffer, for format dumps.
func (p *Pool) Bytes() []byte { return p.buf }

// Starts exposes the raw directory, for format dumps.
func (p *Pool) Starts() []int32 { return p.start }

// Restore rebuilds a Pool from a prior dump's raw buffer and directory
// (format package's undump, spec.md §4.13).
func Restore(buf []byte, start []int32) *Pool {
	return &Pool{buf: buf, start: start}
}

// CheckInvariants verifies start[0]=0 and start[i] <= start[i+1] <=
// len(buf) for every i (spec.md §8).
func (p *Pool) CheckInvariants() error {
	if p.start[0] != 0 {
		return texerr.New(texerr.Confusion, "start[0] = %d, want 0", p.start[0])
	}
	for i := 0; i+1 < len(p.start); i++ {
		if p.start[i] > p.start[i+1] {
			return texerr.New(texerr.Confusion, "start[%d]=%d > start[%d]=%d", i, p.start[i], i+1, p.start[i+1])
		}
	}
	if p.start[len(p.start)-1] > int32(len(p.buf)) {
		return texerr.New(texerr.Confusion, "pool_ptr exceeds buffer length")
	}
	return nil
}
