package mem_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/mem"
)

func TestAllocFreeCoalesces(t *testing.T) {
	a := mem.NewArena(1000)

	p1, err := a.Alloc(4)
	require.NoError(t, err)
	p2, err := a.Alloc(4)
	require.NoError(t, err)
	p3, err := a.Alloc(4)
	require.NoError(t, err)

	require.NoError(t, a.CheckInvariants())

	a.Free(p2, 4)
	a.Free(p1, 4)
	a.Free(p3, 4)

	require.NoError(t, a.CheckInvariants())

	// Coalescing should let a single 12-word allocation succeed from the
	// reclaimed space without growing lo_mem_max further.
	before := a.LoMemMax()
	_, err = a.Alloc(12)
	require.NoError(t, err)
	require.Equal(t, before, a.LoMemMax())
}

func TestAllocExtendsLoMemMax(t *testing.T) {
	a := mem.NewArena(1000)
	before := a.LoMemMax()
	p, err := a.Alloc(10)
	require.NoError(t, err)
	require.Equal(t, before, p)
	require.Equal(t, before+10, a.LoMemMax())
}

func TestAllocFailsOnCapacityExhausted(t *testing.T) {
	a := mem.NewArena(16)
	_, err := a.Alloc(20)
	require.Error(t, err)
}

func TestLoMemNeverMeetsHiMem(t *testing.T) {
	a := mem.NewArena(32)
	for {
		if _, err := a.Alloc(4); err != nil {
			break
		}
	}
	require.LessOrEqual(t, a.LoMemMax(), a.HiMemMin())
}

func TestGetAvailReplenishesFromHiMemMin(t *testing.T) {
	a := mem.NewArena(100)
	before := a.HiMemMin()
	p, err := a.GetAvail()
	require.NoError(t, err)
	require.Equal(t, before-1, p)

	a.FreeAvail(p)
	p2, err := a.GetAvail()
	require.NoError(t, err)
	require.Equal(t, p, p2, "freed cell should be reused before extending further")
}

func TestWordAccessors(t *testing.T) {
	var w mem.Word
	w.SetHalves(12, 34)
	require.EqualValues(t, 12, w.LH())
	require.EqualValues(t, 34, w.RH())

	w.SetQuarters(1, 2, 3, 4)
	require.EqualValues(t, 1, w.B0())
	require.EqualValues(t, 4, w.B3())

	w.SetScaled(-65536)
	require.EqualValues(t, -65536, w.Scaled())
}
