package strpool_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/strpool"
)

func TestSingleByteStringsAreIdentity(t *testing.T) {
	p := strpool.New()
	require.Equal(t, "A", p.String(strpool.StrNum('A')))
	require.Equal(t, 256, p.Count())
}

func TestInternAndFlushLast(t *testing.T) {
	p := strpool.New()
	s1 := p.Intern("hello")
	s2 := p.Intern("world")

	require.Equal(t, "hello", p.String(s1))
	require.Equal(t, "world", p.String(s2))

	require.NoError(t, p.FlushLast())
	require.Equal(t, 257, p.Count())

	require.NoError(t, p.CheckInvariants())
}

func TestFlushDiscardsUnterminatedString(t *testing.T) {
	p := strpool.New()
	p.AppendString("partial")
	p.Flush()
	s := p.Intern("complete")
	require.Equal(t, "complete", p.String(s))
}
