package format_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/format"
	"github.com/ha1tch/gotex/hyphen"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/strpool"
)

func TestDumpUndumpRoundTripsArenaAndPool(t *testing.T) {
	arena := mem.NewArena(64)
	p, err := arena.Alloc(4)
	require.NoError(t, err)
	arena.Set(p, mem.Word(12345))

	pool := strpool.New()
	pool.AppendString("hello")
	pool.MakeString()

	eq := eqtb.New()
	eq.SetCount(17, 42, false)
	eq.SetCatCode('@', 11, false)

	snap := format.Snapshot{
		FormatIdentifier: "gotex test format",
		InteractionMode:  1,
		Arena:            arena,
		Pool:             pool,
		Eqtb:             eq.Dump(),
		Hyphenation:      map[int]*hyphen.Dictionary{},
		Fonts:            []format.FontRecord{{Number: 0, Path: "cmr10.tfm", AtSize: 0, Checksum: 1, DesignSize: 10 << 20}},
	}

	var buf bytes.Buffer
	require.NoError(t, format.Dump(&buf, snap))

	got, err := format.Undump(&buf)
	require.NoError(t, err)

	require.Equal(t, "gotex test format", got.FormatIdentifier)
	require.EqualValues(t, 1, got.InteractionMode)
	require.Equal(t, arena.Capacity(), got.Arena.Capacity())
	require.EqualValues(t, mem.Word(12345), got.Arena.At(p))
	require.Equal(t, pool.Count(), got.Pool.Count())
	require.Equal(t, pool.String(256), got.Pool.String(256))
	require.EqualValues(t, 42, got.Eqtb.Count[17])
	require.Len(t, got.Fonts, 1)
	require.Equal(t, "cmr10.tfm", got.Fonts[0].Path)
}

func TestDumpUndumpRoundTripsHyphenationDictionary(t *testing.T) {
	d := hyphen.NewDictionary(0)
	d.AddException("as-so-ciate")
	d.AddPattern("1ab2c")

	snap := format.Snapshot{
		FormatIdentifier: "id",
		Arena:            mem.NewArena(8),
		Pool:             strpool.New(),
		Eqtb:             eqtb.New().Dump(),
		Hyphenation:      map[int]*hyphen.Dictionary{0: d},
	}

	var buf bytes.Buffer
	require.NoError(t, format.Dump(&buf, snap))

	got, err := format.Undump(&buf)
	require.NoError(t, err)
	require.Contains(t, got.Hyphenation, 0)

	breaks := format_testHyphenate(got.Hyphenation[0], "associate")
	require.NotEmpty(t, breaks)
}

func format_testHyphenate(d *hyphen.Dictionary, word string) []int {
	return hyphen.BreakPositions(word, d.Hyphenate(word))
}

func TestUndumpRejectsBadTrailer(t *testing.T) {
	snap := format.Snapshot{
		FormatIdentifier: "id",
		Arena:            mem.NewArena(4),
		Pool:             strpool.New(),
		Eqtb:             eqtb.New().Dump(),
	}
	var buf bytes.Buffer
	require.NoError(t, format.Dump(&buf, snap))

	raw := buf.Bytes()
	// Corrupt the last 4 bytes (the trailer) in place.
	for i := len(raw) - 4; i < len(raw); i++ {
		raw[i] ^= 0xFF
	}

	_, err := format.Undump(bytes.NewReader(raw))
	require.Error(t, err)
}
