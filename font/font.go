// Package font loads TeX font metric (.tfm) files: the checksum/design
// size header, character-info table, dimension arrays, ligature/kern
// program, extensible recipes, and font parameters (spec.md §4.11).
package font

import (
	"encoding/binary"
	"io"

	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/texerr"
)

// CharInfo is one character's entry in the .tfm character-info table:
// indices into the font's shared width/height/depth/italic arrays plus
// a tag selecting how to interpret the remainder field (spec.md §4.11).
type CharInfo struct {
	WidthIndex           byte
	HeightIndex          byte // high nibble of the packed byte
	DepthIndex           byte // low nibble
	ItalicIndex          byte // high 6 bits
	Tag                  byte // low 2 bits: 0 none, 1 lig/kern, 2 list, 3 extensible
	Remainder            byte
}

// LigKernStep is one instruction of the packed ligature/kern program
// (spec.md §4.11).
type LigKernStep struct {
	SkipByte byte // 128 = stop; >128 with the two top words = indirect jump
	NextChar byte
	Op       byte // 128 = kern step (the remainder indexes the kern array)
	Remainder byte
}

// ExtenRecipe describes a character built from top/mid/bot/rep pieces
// (spec.md §4.11's extensible recipes).
type ExtenRecipe struct {
	Top, Mid, Bot, Rep byte
}

// Font is one loaded .tfm file's metrics, scaled to a concrete design
// size (spec.md §4.11).
type Font struct {
	Checksum   uint32
	DesignSize int32 // scaled points

	BC, EC int // smallest/largest character code with a CharInfo entry

	CharInfos []CharInfo // indexed by code - BC
	Widths    []int32    // scaled points, shared array indexed by CharInfo.WidthIndex
	Heights   []int32
	Depths    []int32
	Italics   []int32
	LigKern   []LigKernStep
	Kerns     []int32
	Extens    []ExtenRecipe
	Params    []int32 // index 1 = slant, 2 = space, 3 = space_stretch, ...
}

// header12 is the fixed 12-word .tfm preamble (spec.md §4.11).
type header12 struct {
	lf, lh, bc, ec, nw, nh, nd, ni, nl, nk, ne, np uint16
}

// Load parses a .tfm file per spec.md §4.11, scaling every fix_word
// dimension by designSize (atSize overrides the file's own design size
// when nonzero — TeX's `at <dimen>`; scaledThousandths, if nonzero,
// further scales atSize/the file design size by scaledThousandths/1000,
// mirroring `scaled <n>`).
func Load(r io.Reader, atSize int32, scaledThousandths int32) (*Font, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, texerr.Wrap(err, texerr.Fatal, "reading font metric file")
	}
	if len(raw) < 24 || len(raw)%2 != 0 {
		return nil, texerr.New(texerr.Fatal, "TFM not loadable: truncated file")
	}
	words := make([]uint16, len(raw)/2)
	for i := range words {
		words[i] = binary.BigEndian.Uint16(raw[i*2 : i*2+2])
	}

	h := header12{
		lf: words[0], lh: words[1], bc: words[2], ec: words[3],
		nw: words[4], nh: words[5], nd: words[6], ni: words[7],
		nl: words[8], nk: words[9], ne: words[10], np: words[11],
	}
	if err := checkLengths(h); err != nil {
		return nil, err
	}

	pos := 12
	readWord32 := func() (int32, error) {
		if pos+2 > len(words) {
			return 0, texerr.New(texerr.Fatal, "TFM not loadable: out of bounds")
		}
		v := int32(words[pos])<<16 | int32(words[pos+1])
		pos += 2
		return v, nil
	}

	checksum, err := readWord32()
	if err != nil {
		return nil, err
	}
	designRaw, err := readWord32()
	if err != nil {
		return nil, err
	}
	designSize := fixWordToScaled(uint32(designRaw), mem.Unity)
	pos = 12 + 2*int(h.lh) // skip the rest of the header (each TFM word is 2 uint16 halfwords)

	f := &Font{Checksum: uint32(checksum), BC: int(h.bc), EC: int(h.ec)}

	effectiveDesign := designSize
	if atSize != 0 {
		effectiveDesign = atSize
	}
	if scaledThousandths != 0 {
		effectiveDesign = int32((int64(effectiveDesign) * int64(scaledThousandths)) / 1000)
	}
	f.DesignSize = effectiveDesign

	nChar := 0
	if h.ec >= h.bc {
		nChar = int(h.ec-h.bc) + 1
	}
	for i := 0; i < nChar; i++ {
		if pos+2 > len(words) {
			return nil, texerr.New(texerr.Fatal, "TFM not loadable: char_info truncated")
		}
		b0 := byte(words[pos] >> 8)
		b1 := byte(words[pos])
		b2 := byte(words[pos+1] >> 8)
		b3 := byte(words[pos+1])
		f.CharInfos = append(f.CharInfos, CharInfo{
			WidthIndex:  b0,
			HeightIndex: b1 >> 4,
			DepthIndex:  b1 & 0x0F,
			ItalicIndex: b2 >> 2,
			Tag:         b2 & 0x03,
			Remainder:   b3,
		})
		pos += 2
	}

	f.Widths, err = readScaledArray(words, &pos, int(h.nw), effectiveDesign)
	if err != nil {
		return nil, err
	}
	f.Heights, err = readScaledArray(words, &pos, int(h.nh), effectiveDesign)
	if err != nil {
		return nil, err
	}
	f.Depths, err = readScaledArray(words, &pos, int(h.nd), effectiveDesign)
	if err != nil {
		return nil, err
	}
	f.Italics, err = readScaledArray(words, &pos, int(h.ni), effectiveDesign)
	if err != nil {
		return nil, err
	}

	for i := 0; i < int(h.nl); i++ {
		if pos+2 > len(words) {
			return nil, texerr.New(texerr.Fatal, "TFM not loadable: lig/kern truncated")
		}
		f.LigKern = append(f.LigKern, LigKernStep{
			SkipByte:  byte(words[pos] >> 8),
			NextChar:  byte(words[pos]),
			Op:        byte(words[pos+1] >> 8),
			Remainder: byte(words[pos+1]),
		})
		pos += 2
	}

	f.Kerns, err = readScaledArray(words, &pos, int(h.nk), effectiveDesign)
	if err != nil {
		return nil, err
	}

	for i := 0; i < int(h.ne); i++ {
		if pos+2 > len(words) {
			return nil, texerr.New(texerr.Fatal, "TFM not loadable: exten truncated")
		}
		f.Extens = append(f.Extens, ExtenRecipe{
			Top: byte(words[pos] >> 8), Mid: byte(words[pos]),
			Bot: byte(words[pos+1] >> 8), Rep: byte(words[pos+1]),
		})
		pos += 2
	}

	f.Params = make([]int32, int(h.np)+1)
	for i := 1; i <= int(h.np); i++ {
		if pos+2 > len(words) {
			return nil, texerr.New(texerr.Fatal, "TFM not loadable: param truncated")
		}
		v := uint32(words[pos])<<16 | uint32(words[pos+1])
		pos += 2
		if i == 1 {
			// param[1] (slant) is a signed fraction, not a dimension.
			f.Params[i] = int32(v)
			continue
		}
		f.Params[i] = fixWordToScaled(v, effectiveDesign)
	}

	return f, nil
}

func checkLengths(h header12) error {
	if h.ec > 255 || (h.bc > h.ec && h.bc != h.ec+1) {
		return texerr.New(texerr.Fatal, "TFM not loadable: bad character code range")
	}
	nChar := 0
	if h.ec >= h.bc {
		nChar = int(h.ec-h.bc) + 1
	}
	expected := 6 + int(h.lh) + nChar + int(h.nw) + int(h.nh) + int(h.nd) +
		int(h.ni) + int(h.nl) + int(h.nk) + int(h.ne) + int(h.np)
	if int(h.lf) != expected {
		return texerr.New(texerr.Fatal, "TFM not loadable: length fields do not add up")
	}
	return nil
}

// readScaledArray reads n big-endian fix_word entries starting at
// *pos, converting each to scaled points against designSize.
func readScaledArray(words []uint16, pos *int, n int, designSize int32) ([]int32, error) {
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		if *pos+1 >= len(words) {
			return nil, texerr.New(texerr.Fatal, "TFM not loadable: dimension array truncated")
		}
		v := uint32(words[*pos])<<16 | uint32(words[*pos+1])
		*pos += 2
		out[i] = fixWordToScaled(v, designSize)
	}
	return out, nil
}

// fixWordToScaled converts a 4-byte TFM fix_word (signed, 2^20 = 1.0)
// into scaled points at the given design size, per spec.md §4.11/§4.5's
// 64-bit-intermediate conversion contract.
func fixWordToScaled(v uint32, designSize int32) int32 {
	signed := int32(v)
	return int32((int64(signed) * int64(designSize)) >> 20)
}
