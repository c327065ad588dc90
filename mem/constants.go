package mem

// Size budget constants, carried over from arusson/tex-rust's
// src/constants.rs (see SPEC_FULL.md §5) rather than invented. They bound
// the arena and the tables built on top of it.
const (
	MemMax   = 30000
	MemMin   = 0
	MemBot   = 0
	MemTop   = MemMax
	BufSize  = 200000
	FontMax  = 75
	FontMem  = 20000
	ParamSize = 60
	NestSize = 40
	MaxStrings = 3000
	PoolSize = 32000
	SaveSize = 600
	TrieSize = 8000
	TrieOpSize = 500
	DviBufSize = 800
	HashSize = 2100
	HashPrime = 1777
	HyphSize = 307
	StackSize = 200
	MaxInOpen = 6
	ErrorLine = 72
	HalfErrorLine = 36
	MaxPrintLine = 79

	// Unity is one printer's point in scaled-point (2^-16 pt) units.
	Unity = 1 << 16
	// InfBad is the worst possible badness value.
	InfBad = 10000
	// MaxDimen is the largest representable dimension, in scaled points.
	MaxDimen = 0x3FFFFFFF
	// FormatTrailer is the sentinel written at the end of a .fmt file.
	FormatTrailer = 69069
)
