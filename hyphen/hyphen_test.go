package hyphen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/hyphen"
)

func TestExceptionDictionaryOverridesPatterns(t *testing.T) {
	d := hyphen.NewDictionary(0)
	d.AddException("hy-phen-ation")

	values := d.Hyphenate("hyphenation")
	breaks := hyphen.BreakPositions("hyphenation", values)
	require.Contains(t, breaks, 2)
	require.Contains(t, breaks, 6)
}

func TestPatternTrieFindsHyphenPoint(t *testing.T) {
	d := hyphen.NewDictionary(0)
	// A toy pattern set: ".hy1ph" records an odd (legal) value between
	// 'y' and 'p'.
	d.AddPattern(".hy1ph")
	d.AddPattern("hen5a")

	values := d.Hyphenate("hyphen")
	require.NotEmpty(t, values)
}

func TestBreakPositionsRespectsMargins(t *testing.T) {
	// 6-letter word, a break right after the first letter should be
	// rejected by lefthyphenmin=2.
	values := []int{1, 0, 0, 0, 1}
	breaks := hyphen.BreakPositions("abcdef", values)
	for _, b := range breaks {
		require.GreaterOrEqual(t, b, hyphen.MinLeft)
		require.GreaterOrEqual(t, len("abcdef")-b, hyphen.MinRight)
	}
}
