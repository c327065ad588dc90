// Package format implements \dump/\undump: a binary snapshot of
// engine state (memory arena, string pool, eqtb, hyphenation
// dictionaries, loaded font table, interaction mode) that lets a
// later run resume from a saved format file instead of replaying a
// preload's control sequences from source, per spec.md §4.13.
package format

import (
	"encoding/binary"
	"io"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/hyphen"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/strpool"
	"github.com/ha1tch/gotex/texerr"
)

// FontRecord is one loaded font's identity and the path/at-size it was
// opened with, recorded so undump can re-Load the .tfm rather than
// serialize the whole metric table a second time.
type FontRecord struct {
	Number     int32
	Path       string
	AtSize     int32
	Checksum   uint32
	DesignSize int32
}

// Snapshot is everything \dump captures.
type Snapshot struct {
	FormatIdentifier string
	InteractionMode  int32

	Arena *mem.Arena
	Pool  *strpool.Pool
	Eqtb  eqtb.State

	Hyphenation map[int]*hyphen.Dictionary
	Fonts       []FontRecord
}

// Dump writes s to w in gotex's native format, in this order:
// identifier, interaction mode, arena bounds and words, string pool,
// eqtb, font table, hyphenation dictionaries, then the trailer.
func Dump(w io.Writer, s Snapshot) error {
	bw := &byteWriter{w: w}
	bw.writeString(s.FormatIdentifier)
	bw.writeInt32(s.InteractionMode)

	dumpArena(bw, s.Arena)
	dumpPool(bw, s.Pool)
	dumpEqtb(bw, s.Eqtb)
	dumpFonts(bw, s.Fonts)
	dumpHyphenation(bw, s.Hyphenation)

	bw.writeInt32(mem.FormatTrailer)
	return bw.err
}

// Undump reads a Snapshot back from r, verifying the trailer matches
// (spec.md §4.13: "a format not ending in 69069 is not loadable").
func Undump(r io.Reader) (Snapshot, error) {
	br := &byteReader{r: r}
	var s Snapshot
	s.FormatIdentifier = br.readString()
	s.InteractionMode = br.readInt32()

	s.Arena = undumpArena(br)
	s.Pool = undumpPool(br)
	s.Eqtb = undumpEqtb(br)
	s.Fonts = undumpFonts(br)
	s.Hyphenation = undumpHyphenation(br)

	trailer := br.readInt32()
	if br.err != nil {
		return Snapshot{}, texerr.Wrap(br.err, texerr.Fatal, "format file not loadable")
	}
	if trailer != mem.FormatTrailer {
		return Snapshot{}, texerr.New(texerr.Fatal, "format file not loadable: bad trailer %d", trailer)
	}
	return s, nil
}

// byteWriter/byteReader centralize the length-prefixed framing every
// dump section uses (a uint32 count followed by that many fixed-width
// or further length-prefixed entries), so the individual dump*/undump*
// functions below read as a flat list of fields rather than repeating
// error-checking boilerplate.
type byteWriter struct {
	w   io.Writer
	err error
}

func (bw *byteWriter) writeInt32(v int32) {
	if bw.err != nil {
		return
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, bw.err = bw.w.Write(buf[:])
}

func (bw *byteWriter) writeUint32(v uint32) { bw.writeInt32(int32(v)) }

func (bw *byteWriter) writeByte(b byte) {
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write([]byte{b})
}

func (bw *byteWriter) writeBytes(b []byte) {
	bw.writeInt32(int32(len(b)))
	if bw.err != nil {
		return
	}
	_, bw.err = bw.w.Write(b)
}

func (bw *byteWriter) writeString(s string) { bw.writeBytes([]byte(s)) }

func (bw *byteWriter) writeInt32Slice(v []int32) {
	bw.writeInt32(int32(len(v)))
	for _, x := range v {
		bw.writeInt32(x)
	}
}

type byteReader struct {
	r   io.Reader
	err error
}

func (br *byteReader) readInt32() int32 {
	if br.err != nil {
		return 0
	}
	var buf [4]byte
	if _, br.err = io.ReadFull(br.r, buf[:]); br.err != nil {
		return 0
	}
	return int32(binary.BigEndian.Uint32(buf[:]))
}

func (br *byteReader) readUint32() uint32 { return uint32(br.readInt32()) }

func (br *byteReader) readByte() byte {
	if br.err != nil {
		return 0
	}
	var buf [1]byte
	if _, br.err = io.ReadFull(br.r, buf[:]); br.err != nil {
		return 0
	}
	return buf[0]
}

// maxSectionLen bounds any single length-prefixed section. A corrupt or
// truncated format file can claim an arbitrary count; without a cap a
// hostile length turns into an attempted multi-gigabyte allocation.
const maxSectionLen = 1 << 28

func (br *byteReader) readBytes() []byte {
	n := br.readInt32()
	if br.err != nil || n < 0 || n > maxSectionLen {
		br.err = texerr.New(texerr.Fatal, "format file not loadable: implausible section length %d", n)
		return nil
	}
	buf := make([]byte, n)
	if _, br.err = io.ReadFull(br.r, buf); br.err != nil {
		return nil
	}
	return buf
}

func (br *byteReader) readString() string { return string(br.readBytes()) }

func (br *byteReader) readInt32Slice() []int32 {
	n := br.readInt32()
	if br.err != nil || n < 0 || n > maxSectionLen {
		br.err = texerr.New(texerr.Fatal, "format file not loadable: implausible section length %d", n)
		return nil
	}
	out := make([]int32, n)
	for i := range out {
		out[i] = br.readInt32()
	}
	return out
}
