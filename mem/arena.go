package mem

import (
	"github.com/ha1tch/gotex/texerr"
)

// freeBlock is one entry of the low-region free list, kept sorted by
// start address so Free can coalesce with its neighbors.
// Real TeX links these through the words themselves (link, size) at
// mem[p] and mem[p+1]; gotex keeps the free set only in this sorted
// slice, searched linearly for first fit, and writes no link or size
// into the arena words.
type freeBlock struct {
	start, size Pointer
}

// Arena is the fixed-size word store described in spec.md §3.1: a low
// region of variable-size nodes served from a free list, and a high
// region of fixed single/double-word cells served from a LIFO stack.
type Arena struct {
	words []Word

	loMemMax Pointer // one past the last word ever given to the low region
	hiMemMin Pointer // one before the first word ever given to the high region

	free []freeBlock // sorted ascending by start; invariant: no two adjacent

	avail Pointer // head of the one-word high-region free list (via RH link)

	varUsed int // words currently allocated from the low region
}

// NewArena builds an arena of the given total capacity (word count),
// mirroring MemMax from spec.md's constant budget.
func NewArena(capacity int) *Arena {
	a := &Arena{
		words:    make([]Word, capacity),
		loMemMax: MemBot + 1, // word 0 is the permanent NULL sentinel
		hiMemMin: Pointer(capacity),
		avail:    NULL,
	}
	return a
}

// Capacity returns the total word count of the arena.
func (a *Arena) Capacity() int { return len(a.words) }

// At returns the word stored at p.
func (a *Arena) At(p Pointer) Word { return a.words[p] }

// Set stores w at p.
func (a *Arena) Set(p Pointer, w Word) { a.words[p] = w }

// LoMemMax and HiMemMin expose the region boundary so callers (and
// invariant checks) can verify lo_mem_max < hi_mem_min (spec.md §8).
func (a *Arena) LoMemMax() Pointer { return a.loMemMax }
func (a *Arena) HiMemMin() Pointer { return a.hiMemMin }

// freeWordsSum returns the total size of all free low-region blocks,
// used by the §8 invariant check: free sizes + allocated sizes equals
// lo_mem_max - MEM_BOT - constants.
func (a *Arena) freeWordsSum() int {
	sum := 0
	for _, b := range a.free {
		sum += int(b.size)
	}
	return sum
}

// CheckInvariants verifies the §8 arena invariants and returns a
// *texerr.Error of kind Confusion if any is violated.
func (a *Arena) CheckInvariants() error {
	if a.loMemMax > a.hiMemMin {
		return texerr.New(texerr.Confusion, "lo_mem_max (%d) >= hi_mem_min (%d)", a.loMemMax, a.hiMemMin)
	}
	if a.freeWordsSum()+a.varUsed != int(a.loMemMax)-MemBot-1 {
		return texerr.New(texerr.Confusion, "free+allocated words (%d) != lo_mem region size (%d)",
			a.freeWordsSum()+a.varUsed, int(a.loMemMax)-MemBot-1)
	}
	return nil
}

// Alloc reserves size consecutive words from the low region and returns
// the pointer to the first one. Policy per spec.md §4.1: first-fit over
// the free list; if no block fits, extend lo_mem_max upward; if that
// would collide with hi_mem_min, fail with capacity exhausted.
func (a *Arena) Alloc(size int) (Pointer, error) {
	if size <= 0 {
		return NULL, texerr.New(texerr.Confusion, "alloc size must be positive, got %d", size)
	}
	for i, b := range a.free {
		if int(b.size) < size {
			continue
		}
		p := b.start
		if int(b.size) == size {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = freeBlock{start: b.start + Pointer(size), size: b.size - Pointer(size)}
		}
		a.varUsed += size
		return p, nil
	}
	// No free block fits: extend the low region upward.
	p := a.loMemMax
	if int(p)+size > int(a.hiMemMin) {
		return NULL, texerr.New(texerr.Overflow, "capacity exhausted: memory size %d", len(a.words))
	}
	a.loMemMax = p + Pointer(size)
	a.varUsed += size
	return p, nil
}

// Free returns a size-word block at p to the free list, coalescing with
// any adjacent free blocks (spec.md §4.1).
func (a *Arena) Free(p Pointer, size int) {
	nb := freeBlock{start: p, size: Pointer(size)}
	i := 0
	for i < len(a.free) && a.free[i].start < nb.start {
		i++
	}
	// Merge with the following block if adjacent.
	if i < len(a.free) && nb.start+nb.size == a.free[i].start {
		nb.size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
	// Merge with the preceding block if adjacent.
	if i > 0 && a.free[i-1].start+a.free[i-1].size == nb.start {
		nb.start = a.free[i-1].start
		nb.size += a.free[i-1].size
		a.free = append(a.free[:i-1], a.free[i:]...)
		i--
	}
	a.free = append(a.free, freeBlock{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = nb
	a.varUsed -= size
}

// GetAvail returns a single word from the high-region LIFO free list,
// replenishing it by decrementing hi_mem_min when empty (spec.md §4.1).
func (a *Arena) GetAvail() (Pointer, error) {
	if a.avail != NULL {
		p := a.avail
		a.avail = Pointer(a.words[p].RH())
		return p, nil
	}
	if a.hiMemMin-1 <= a.loMemMax {
		return NULL, texerr.New(texerr.Overflow, "capacity exhausted: high memory region")
	}
	a.hiMemMin--
	return a.hiMemMin, nil
}

// FreeAvail pushes a single word back onto the high-region free list.
func (a *Arena) FreeAvail(p Pointer) {
	var w Word
	w.SetHalves(0, int32(a.avail))
	a.words[p] = w
	a.avail = p
}

// IsHighMem reports whether p lies in the high (fixed-size) region.
func (a *Arena) IsHighMem(p Pointer) bool { return p >= a.hiMemMin }

// Avail exposes the high-region LIFO free list head, for format dumps.
func (a *Arena) Avail() Pointer { return a.avail }

// VarUsed exposes the low-region allocated word count, for format dumps.
func (a *Arena) VarUsed() int { return a.varUsed }

// FreeBlock is one low-region free-list entry, exported for dumping.
type FreeBlock struct {
	Start, Size Pointer
}

// FreeBlocks returns a copy of the sorted low-region free list.
func (a *Arena) FreeBlocks() []FreeBlock {
	out := make([]FreeBlock, len(a.free))
	for i, b := range a.free {
		out[i] = FreeBlock{Start: b.start, Size: b.size}
	}
	return out
}

// Restore rebuilds an Arena from a prior dump's raw fields (format
// package's undump, spec.md §4.13): the word store plus every piece of
// allocator bookkeeping a fresh NewArena would otherwise have to infer.
func Restore(words []Word, loMemMax, hiMemMin, avail Pointer, varUsed int, free []FreeBlock) *Arena {
	a := &Arena{
		words:    words,
		loMemMax: loMemMax,
		hiMemMin: hiMemMin,
		avail:    avail,
		varUsed:  varUsed,
	}
	a.free = make([]freeBlock, len(free))
	for i, b := range free {
		a.free[i] = freeBlock{start: b.Start, size: b.Size}
	}
	return a
}
