package scan_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/eqtb"
	"github.com/ha1tch/gotex/expand"
	"github.com/ha1tch/gotex/lexer"
	"github.com/ha1tch/gotex/mem"
	"github.com/ha1tch/gotex/scan"
)

func newScanner(t *testing.T, text string) *scan.Scanner {
	t.Helper()
	eq := eqtb.New()
	stack := lexer.NewStack()
	stack.PushFile(lexer.NewFileSource("test.tex", text))
	tz := lexer.New(stack, eq)
	ex := expand.New(tz, eq, stack)
	return scan.New(ex)
}

func TestScanIntDecimal(t *testing.T) {
	s := newScanner(t, "123 ")
	v, err := s.ScanInt()
	require.NoError(t, err)
	require.EqualValues(t, 123, v)
}

func TestScanIntNegative(t *testing.T) {
	s := newScanner(t, "-45")
	v, err := s.ScanInt()
	require.NoError(t, err)
	require.EqualValues(t, -45, v)
}

func TestScanIntOctalAndHex(t *testing.T) {
	s := newScanner(t, "'17 ")
	v, err := s.ScanInt()
	require.NoError(t, err)
	require.EqualValues(t, 15, v)

	s2 := newScanner(t, `"1F `)
	v2, err := s2.ScanInt()
	require.NoError(t, err)
	require.EqualValues(t, 31, v2)
}

func TestScanIntCharCode(t *testing.T) {
	s := newScanner(t, "`A")
	v, err := s.ScanInt()
	require.NoError(t, err)
	require.EqualValues(t, 'A', v)
}

func TestScanDimenPoints(t *testing.T) {
	s := newScanner(t, "12pt ")
	v, err := s.ScanDimen()
	require.NoError(t, err)
	require.EqualValues(t, 12*mem.Unity, v)
}

func TestScanDimenFractional(t *testing.T) {
	s := newScanner(t, "1.5pt ")
	v, err := s.ScanDimen()
	require.NoError(t, err)
	require.EqualValues(t, mem.Unity+mem.Unity/2, v)
}

func TestScanKeywordCaseInsensitive(t *testing.T) {
	s := newScanner(t, "PT")
	ok, err := s.ScanKeyword("pt")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestScanGlueWithStretchAndShrink(t *testing.T) {
	s := newScanner(t, "1pt plus 2pt minus 1fil")
	g, err := s.ScanGlue()
	require.NoError(t, err)
	require.EqualValues(t, mem.Unity, g.Width)
	require.EqualValues(t, 2*mem.Unity, g.Stretch)
	require.Equal(t, mem.Normal, g.StretchOrder)
	require.EqualValues(t, mem.Unity, g.Shrink)
	require.Equal(t, mem.Fil, g.ShrinkOrder)
}
