package arith_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/arith"
)

func TestBadnessBoundaries(t *testing.T) {
	require.EqualValues(t, 0, arith.Badness(0, 100))
	require.EqualValues(t, 10000, arith.Badness(100, 0))
	require.EqualValues(t, 10000, arith.Badness(200, 100))
	require.EqualValues(t, 100, arith.Badness(100, 100))
	require.EqualValues(t, 13, arith.Badness(50, 100))
}

func TestXnOverDExactRounding(t *testing.T) {
	v, err := arith.XnOverD(10, 1, 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, v)

	v, err = arith.XnOverD(-10, 1, 3)
	require.NoError(t, err)
	require.EqualValues(t, -3, v)
}

func TestXnOverDOverflow(t *testing.T) {
	_, err := arith.XnOverD(1<<30, 1<<30, 1)
	require.Error(t, err)
}

func TestNxPlusYOverflow(t *testing.T) {
	_, err := arith.NxPlusY(2, 1<<30, 1<<30)
	require.Error(t, err)

	v, err := arith.NxPlusY(2, 100, 3)
	require.NoError(t, err)
	require.EqualValues(t, 203, v)
}

func TestXOverN(t *testing.T) {
	q, r, err := arith.XOverN(10, 3)
	require.NoError(t, err)
	require.EqualValues(t, 3, q)
	require.EqualValues(t, 1, r)

	_, _, err = arith.XOverN(10, 0)
	require.Error(t, err)
}
