package texerr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/texerr"
)

func TestErrorMessageIncludesContext(t *testing.T) {
	err := texerr.New(texerr.Overflow, "hash size %d", 2100).
		WithContext(texerr.Context{FileName: "paper.tex", Line: 12})

	require.Equal(t, "overflow: paper.tex:12: hash size 2100", err.Error())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := texerr.New(texerr.Confusion, "free list corrupt")
	wrapped := texerr.Wrap(cause, texerr.Fatal, "capacity exhausted")

	require.True(t, texerr.Is(wrapped, texerr.Fatal))
	require.True(t, texerr.Is(wrapped, texerr.Confusion))
}

func TestKindStrings(t *testing.T) {
	cases := map[texerr.Kind]string{
		texerr.Fatal:     "fatal error",
		texerr.Confusion: "internal confusion",
		texerr.Syntax:    "syntax error",
		texerr.Semantic:  "semantic error",
		texerr.Overflow:  "overflow",
	}
	for k, want := range cases {
		require.Equal(t, want, k.String())
	}
}
