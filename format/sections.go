package format

import (
	"sort"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/hyphen"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/strpool"
	"github.com/ha1tch/gotex/token"
)

// dumpArena writes the word store and every allocator bookkeeping
// field undump needs to resume allocating without re-deriving them
// (spec.md §4.13, §3.1).
func dumpArena(bw *byteWriter, a *mem.Arena) {
	bw.writeInt32(int32(a.Capacity()))
	bw.writeInt32(int32(a.LoMemMax()))
	bw.writeInt32(int32(a.HiMemMin()))
	bw.writeInt32(int32(a.Avail()))
	bw.writeInt32(int32(a.VarUsed()))

	free := a.FreeBlocks()
	bw.writeInt32(int32(len(free)))
	for _, b := range free {
		bw.writeInt32(int32(b.Start))
		bw.writeInt32(int32(b.Size))
	}

	for p := 0; p < a.Capacity(); p++ {
		bw.writeUint32(uint32(a.At(mem.Pointer(p))))
	}
}

func undumpArena(br *byteReader) *mem.Arena {
	capacity := int(br.readInt32())
	if capacity < 0 || capacity > maxSectionLen {
		capacity = 0
	}
	loMemMax := mem.Pointer(br.readInt32())
	hiMemMin := mem.Pointer(br.readInt32())
	avail := mem.Pointer(br.readInt32())
	varUsed := int(br.readInt32())

	nFree := int(br.readInt32())
	free := make([]mem.FreeBlock, nFree)
	for i := range free {
		free[i] = mem.FreeBlock{Start: mem.Pointer(br.readInt32()), Size: mem.Pointer(br.readInt32())}
	}

	words := make([]mem.Word, capacity)
	for i := range words {
		words[i] = mem.Word(br.readUint32())
	}

	return mem.Restore(words, loMemMax, hiMemMin, avail, varUsed, free)
}

// dumpPool writes the append-only byte buffer and its start-index
// directory verbatim (spec.md §3.2, §4.13).
func dumpPool(bw *byteWriter, p *strpool.Pool) {
	bw.writeBytes(p.Bytes())
	bw.writeInt32Slice(p.Starts())
}

func undumpPool(br *byteReader) *strpool.Pool {
	buf := br.readBytes()
	starts := br.readInt32Slice()
	return strpool.Restore(buf, starts)
}

// dumpTokenList serializes a token list as a flat sequence of
// (kind, cat, char, line) tuples for character tokens and
// (kind, csname) for control-sequence tokens.
func dumpTokenList(bw *byteWriter, l *token.List) {
	toks := l.Slice()
	bw.writeInt32(int32(len(toks)))
	for _, t := range toks {
		bw.writeByte(byte(t.Kind))
		if t.Kind == token.CSToken {
			bw.writeString(t.CS)
			continue
		}
		bw.writeByte(byte(t.Cat))
		bw.writeByte(t.Char)
		bw.writeInt32(int32(t.Line))
	}
}

func undumpTokenList(br *byteReader) *token.List {
	n := int(br.readInt32())
	if n == 0 {
		return nil
	}
	toks := make([]token.Token, n)
	for i := 0; i < n; i++ {
		kind := token.Kind(br.readByte())
		if kind == token.CSToken {
			toks[i] = token.NewCS(br.readString(), 0)
			continue
		}
		cat := token.Cat(br.readByte())
		ch := br.readByte()
		line := int(br.readInt32())
		toks[i] = token.NewChar(cat, ch, line)
	}
	return token.NewList(toks)
}

// dumpEqtb writes the control-sequence meaning table and every
// register/parameter region eqtb.State carries (spec.md §3.3, §4.13).
// Register banks addressed by arena pointer (\skip, \toks) are not
// part of eqtb.State — see eqtb.Dump's doc comment and DESIGN.md.
func dumpEqtb(bw *byteWriter, s eqtb.State) {
	names := make([]string, 0, len(s.CS))
	for name := range s.CS {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic byte-for-byte output across runs

	bw.writeInt32(int32(len(names)))
	for _, name := range names {
		m := s.CS[name]
		bw.writeString(name)
		bw.writeByte(byte(m.Kind))
		bw.writeInt32(m.Value)
		bw.writeByte(boolByte(m.Long))
		bw.writeByte(boolByte(m.Outer))
		bw.writeString(m.Name)
		hasBody := m.Body != nil
		bw.writeByte(boolByte(hasBody))
		if hasBody {
			dumpTokenList(bw, m.Body)
		}
		hasParams := m.Params != nil
		bw.writeByte(boolByte(hasParams))
		if hasParams {
			dumpTokenList(bw, m.Params)
		}
	}

	bw.writeInt32Slice(s.Count[:])
	bw.writeInt32Slice(s.Dimen[:])
	for _, c := range s.CatCode {
		bw.writeByte(byte(c))
	}
	bw.writeBytes(s.LcCode[:])
	bw.writeBytes(s.UcCode[:])
	bw.writeBytes(s.SfCode[:])
	bw.writeInt32Slice(s.MathCode[:])

	dumpStringMap(bw, s.IntPar)
	dumpStringMap(bw, s.DimenPar)
}

func undumpEqtb(br *byteReader) eqtb.State {
	var s eqtb.State
	s.CS = make(map[string]eqtb.Meaning)

	n := int(br.readInt32())
	for i := 0; i < n; i++ {
		name := br.readString()
		var m eqtb.Meaning
		m.Kind = eqtb.MeaningKind(br.readByte())
		m.Value = br.readInt32()
		m.Long = br.readByte() != 0
		m.Outer = br.readByte() != 0
		m.Name = br.readString()
		if br.readByte() != 0 {
			m.Body = undumpTokenList(br)
		}
		if br.readByte() != 0 {
			m.Params = undumpTokenList(br)
		}
		s.CS[name] = m
	}

	copy(s.Count[:], br.readInt32Slice())
	copy(s.Dimen[:], br.readInt32Slice())
	for i := range s.CatCode {
		s.CatCode[i] = token.Cat(br.readByte())
	}
	copy(s.LcCode[:], br.readBytes())
	copy(s.UcCode[:], br.readBytes())
	copy(s.SfCode[:], br.readBytes())
	copy(s.MathCode[:], br.readInt32Slice())

	s.IntPar = undumpStringMap(br)
	s.DimenPar = undumpStringMap(br)
	return s
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func dumpStringMap(bw *byteWriter, m map[string]int32) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	bw.writeInt32(int32(len(keys)))
	for _, k := range keys {
		bw.writeString(k)
		bw.writeInt32(m[k])
	}
}

func undumpStringMap(br *byteReader) map[string]int32 {
	n := int(br.readInt32())
	m := make(map[string]int32, n)
	for i := 0; i < n; i++ {
		k := br.readString()
		m[k] = br.readInt32()
	}
	return m
}

// dumpFonts writes the loaded-font table: just enough per font (path,
// at-size, checksum, design size) for undump to re-Load the .tfm file
// rather than re-serialize the whole metric table a second dump format
// would duplicate from the .tfm file itself (spec.md §4.11, §4.13).
func dumpFonts(bw *byteWriter, fonts []FontRecord) {
	bw.writeInt32(int32(len(fonts)))
	for _, f := range fonts {
		bw.writeInt32(f.Number)
		bw.writeString(f.Path)
		bw.writeInt32(f.AtSize)
		bw.writeUint32(f.Checksum)
		bw.writeInt32(f.DesignSize)
	}
}

func undumpFonts(br *byteReader) []FontRecord {
	n := int(br.readInt32())
	out := make([]FontRecord, n)
	for i := range out {
		out[i] = FontRecord{
			Number:     br.readInt32(),
			Path:       br.readString(),
			AtSize:     br.readInt32(),
			Checksum:   br.readUint32(),
			DesignSize: br.readInt32(),
		}
	}
	return out
}

// dumpHyphenation writes each language's exception and pattern source
// strings; undump replays them through AddException/AddPattern rather
// than serializing derekparker/trie's internal node structure (spec.md
// §4.8, §4.13).
func dumpHyphenation(bw *byteWriter, dicts map[int]*hyphen.Dictionary) {
	langs := make([]int, 0, len(dicts))
	for lang := range dicts {
		langs = append(langs, lang)
	}
	sort.Ints(langs)

	bw.writeInt32(int32(len(langs)))
	for _, lang := range langs {
		d := dicts[lang]
		bw.writeInt32(int32(lang))
		exc := d.ExceptionSources()
		bw.writeInt32(int32(len(exc)))
		for _, e := range exc {
			bw.writeString(e)
		}
		pat := d.PatternSources()
		bw.writeInt32(int32(len(pat)))
		for _, p := range pat {
			bw.writeString(p)
		}
	}
}

func undumpHyphenation(br *byteReader) map[int]*hyphen.Dictionary {
	n := int(br.readInt32())
	out := make(map[int]*hyphen.Dictionary, n)
	for i := 0; i < n; i++ {
		lang := int(br.readInt32())
		d := hyphen.NewDictionary(lang)
		nExc := int(br.readInt32())
		for j := 0; j < nExc; j++ {
			d.AddException(br.readString())
		}
		nPat := int(br.readInt32())
		for j := 0; j < nPat; j++ {
			d.AddPattern(br.readString())
		}
		out[lang] = d
	}
	return out
}
