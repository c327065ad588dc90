// Package eqtb implements the equivalents table (the register file of
// current meanings) and the save stack that gives assignments lexical
// group scoping (spec.md §3.3, §3.4, §4.3's group-restore contract).
package eqtb

import (
	"github.com/emirpasic/gods/stacks/arraystack"

	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/texerr"
	"github.com/ha1tch/gotex/token"
)

// MeaningKind tags what a control sequence or active character currently
// means.
type MeaningKind byte

const (
	Undefined MeaningKind = iota
	Primitive
	MacroCall
	CharGiven
	CountRegister
	DimenRegister
	SkipRegister
	ToksRegister
	IntPar
	DimenPar
	GluePar
	CatCodeVal
	LcCodeVal
	UcCodeVal
	SfCodeVal
	MathCodeVal
	FontIdentifier
)

// Meaning is the value stored in eqtb for one control sequence or
// active character.
type Meaning struct {
	Kind    MeaningKind
	Value   int32      // scalar payload: register index, char code, int value...
	Body    *token.List // macro body (MacroCall)
	Params  *token.List // macro parameter text (MacroCall)
	Long    bool
	Outer   bool
	Name    string // primitive name, for diagnostics
}

// Level is the group-nesting depth at which a meaning was assigned.
type Level int32

// entry is one eqtb slot: its current meaning and the level at which it
// was last assigned (spec.md §3.3).
type entry struct {
	m     Meaning
	level Level
}

// saveKind distinguishes the four save-stack record kinds (spec.md §3.4).
type saveKind byte

const (
	restoreOldValue saveKind = iota
	restoreZero
	insertToken
	levelBoundary
)

type saveRecord struct {
	kind      saveKind
	location  string
	old       Meaning
	hadEntry  bool
	groupCode int
	tok       token.Token
}

// Table is the eqtb: a name-indexed register file of current meanings,
// plus register/parameter arrays addressed by small integer indices
// (spec.md §3.3).
type Table struct {
	cs map[string]*entry

	// Register and parameter regions, each its own fixed array per
	// spec.md §3.3's region list.
	count  [256]int32
	dimen  [256]int32
	skip   [256]mem.Pointer // glue-spec pointer, refcounted by node pkg
	toks   [256]*token.List
	catcode [256]token.Cat
	lccode  [256]byte
	uccode  [256]byte
	sfcode  [256]byte
	mathcode [256]int32
	intpar  map[string]int32
	dimenpar map[string]int32

	level Level // current group nesting level; 0 = outermost
	save  *arraystack.Stack
}

// New builds a Table with plain TeX's initial category codes (escape is
// `\`, letters are catcode 11, everything else defaults per spec.md §6.2)
// and an empty save stack at level 0.
func New() *Table {
	t := &Table{
		cs:       make(map[string]*entry),
		intpar:   make(map[string]int32),
		dimenpar: make(map[string]int32),
		save:     arraystack.New(),
	}
	for b := 0; b < 256; b++ {
		t.catcode[b] = token.DefaultCatCode(byte(b))
		t.sfcode[b] = 1000
	}
	for b := 'a'; b <= 'z'; b++ {
		t.lccode[b] = byte(b)
		t.uccode[b] = byte(b - 'a' + 'A')
	}
	for b := 'A'; b <= 'Z'; b++ {
		t.lccode[b] = byte(b - 'A' + 'a')
		t.uccode[b] = byte(b)
	}
	return t
}

// PushGroup opens a new lexically scoped group, recording a level
// boundary carrying groupCode (spec.md §3.4).
func (t *Table) PushGroup(groupCode int) {
	t.level++
	t.save.Push(&saveRecord{kind: levelBoundary, groupCode: groupCode})
}

// PopGroup closes the innermost group, restoring every non-global
// assignment made since the matching PushGroup (spec.md §4.3's grouping
// law: eqtb entries not marked global equal their pre-group value).
func (t *Table) PopGroup() error {
	for {
		v, ok := t.save.Pop()
		if !ok {
			return texerr.New(texerr.Confusion, "save stack underflow: no matching level boundary")
		}
		rec := v.(*saveRecord)
		switch rec.kind {
		case levelBoundary:
			t.level--
			return nil
		case restoreOldValue:
			loc, r := rec.location, []rune(rec.location)
			switch {
			case len(r) == 7 && r[6] < 256 && string(r[:6]) == "count@":
				t.count[r[6]] = rec.old.Value
			case len(r) == 7 && r[6] < 256 && string(r[:6]) == "dimen@":
				t.dimen[r[6]] = rec.old.Value
			case len(r) == 5 && r[4] < 256 && string(r[:4]) == "cat@":
				t.catcode[r[4]] = token.Cat(rec.old.Value)
			case len(loc) > 9 && loc[:9] == "dimenpar@":
				t.dimenpar[loc[9:]] = rec.old.Value
			case rec.hadEntry:
				t.cs[loc] = &entry{m: rec.old, level: t.level}
			default:
				delete(t.cs, loc)
			}
		case restoreZero:
			delete(t.cs, rec.location)
		case insertToken:
			// Popped and dropped here; eqtb does not replay these
			// tokens into the input.
		}
	}
}

// Depth returns the current group nesting level.
func (t *Table) Depth() Level { return t.level }

// Define assigns meaning m to control sequence name, saving the prior
// meaning on the save stack unless global is true (spec.md §3.7).
func (t *Table) Define(name string, m Meaning, global bool) {
	old, had := t.cs[name]
	if !global {
		rec := &saveRecord{kind: restoreOldValue, location: name}
		if had {
			rec.old = old.m
			rec.hadEntry = true
		}
		t.save.Push(rec)
	}
	t.cs[name] = &entry{m: m, level: t.level}
}

// Meaning looks up the current meaning of a control sequence, returning
// (Meaning{Kind: Undefined}, false) if it has none.
func (t *Table) Meaning(name string) (Meaning, bool) {
	e, ok := t.cs[name]
	if !ok {
		return Meaning{Kind: Undefined}, false
	}
	return e.m, true
}

// SetCount assigns register n (spec.md §3.3's count-register bank),
// saving the old value unless global.
func (t *Table) SetCount(n int, v int32, global bool) {
	if !global {
		t.save.Push(&saveRecord{kind: restoreOldValue, location: countKey(n), old: Meaning{Value: t.count[n]}, hadEntry: true})
	}
	t.count[n] = v
}

// Count reads register n.
func (t *Table) Count(n int) int32 { return t.count[n] }

func countKey(n int) string { return "count@" + string(rune(n)) }

// SetDimen assigns dimension register n (spec.md §3.3's dimen-register
// bank), saving the old value unless global.
func (t *Table) SetDimen(n int, v int32, global bool) {
	if !global {
		t.save.Push(&saveRecord{kind: restoreOldValue, location: dimenKey(n), old: Meaning{Value: t.dimen[n]}, hadEntry: true})
	}
	t.dimen[n] = v
}

// Dimen reads dimension register n.
func (t *Table) Dimen(n int) int32 { return t.dimen[n] }

func dimenKey(n int) string { return "dimen@" + string(rune(n)) }

// SetDimenPar assigns a named dimension parameter (\hsize, \vsize, ...),
// saving the old value unless global.
func (t *Table) SetDimenPar(name string, v int32, global bool) {
	if !global {
		old, had := t.dimenpar[name]
		rec := &saveRecord{kind: restoreOldValue, location: dimenParKey(name), hadEntry: had}
		if had {
			rec.old = Meaning{Value: old}
		}
		t.save.Push(rec)
	}
	t.dimenpar[name] = v
}

// DimenPar reads a named dimension parameter.
func (t *Table) DimenPar(name string) int32 { return t.dimenpar[name] }

func dimenParKey(name string) string { return "dimenpar@" + name }

// SetCatCode assigns the category code of byte b.
func (t *Table) SetCatCode(b byte, c token.Cat, global bool) {
	if !global {
		t.save.Push(&saveRecord{kind: restoreOldValue, location: catKey(b), old: Meaning{Value: int32(t.catcode[b])}, hadEntry: true})
	}
	t.catcode[b] = c
}

// CatCode reads the category code of byte b.
func (t *Table) CatCode(b byte) token.Cat { return t.catcode[b] }

func catKey(b byte) string { return "cat@" + string(rune(b)) }

// SaveStackDepth exposes the current number of live save records, for
// the §8 invariant "exactly one boundary per group entry".
func (t *Table) SaveStackDepth() int { return t.save.Size() }

// State is eqtb's dumpable content: the control-sequence meanings and
// every register/parameter region, but not the save stack, which only
// has meaning mid-job and is always empty at a dump point (spec.md
// §4.13: \dump is only legal outside any group).
type State struct {
	CS       map[string]Meaning
	Count    [256]int32
	Dimen    [256]int32
	CatCode  [256]token.Cat
	LcCode   [256]byte
	UcCode   [256]byte
	SfCode   [256]byte
	MathCode [256]int32
	IntPar   map[string]int32
	DimenPar map[string]int32
}

// Dump captures the table's dumpable content. Register banks addressed
// by a mem.Pointer (skip, toks) are omitted: restoring them correctly
// requires the arena dump to already be loaded and the pointers
// relinked against it, which is format's job, not eqtb's — see
// DESIGN.md's note on this gap.
func (t *Table) Dump() State {
	s := State{
		CS:       make(map[string]Meaning, len(t.cs)),
		CatCode:  t.catcode,
		LcCode:   t.lccode,
		UcCode:   t.uccode,
		SfCode:   t.sfcode,
		MathCode: t.mathcode,
		IntPar:   make(map[string]int32, len(t.intpar)),
		DimenPar: make(map[string]int32, len(t.dimenpar)),
	}
	for k, e := range t.cs {
		s.CS[k] = e.m
	}
	s.Count = t.count
	s.Dimen = t.dimen
	for k, v := range t.intpar {
		s.IntPar[k] = v
	}
	for k, v := range t.dimenpar {
		s.DimenPar[k] = v
	}
	return s
}

// Restore rebuilds a Table from a prior Dump, at group level 0 with an
// empty save stack (format package's undump, spec.md §4.13).
func Restore(s State) *Table {
	t := &Table{
		cs:       make(map[string]*entry, len(s.CS)),
		intpar:   s.IntPar,
		dimenpar: s.DimenPar,
		save:     arraystack.New(),
	}
	if t.intpar == nil {
		t.intpar = make(map[string]int32)
	}
	if t.dimenpar == nil {
		t.dimenpar = make(map[string]int32)
	}
	for k, m := range s.CS {
		t.cs[k] = &entry{m: m, level: 0}
	}
	t.count = s.Count
	t.dimen = s.Dimen
	t.catcode = s.CatCode
	t.lccode = s.LcCode
	t.uccode = s.UcCode
	t.sfcode = s.SfCode
	t.mathcode = s.MathCode
	return t
}
