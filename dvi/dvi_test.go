package dvi_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/dvi"
)

func TestPreambleStartsWithOpcode247(t *testing.T) {
	w := dvi.New("gotex output")
	w.Preamble()
	b := w.Bytes()
	require.Equal(t, byte(247), b[0])
	require.Equal(t, byte(2), b[1])
}

func TestSetCharBelow128UsesBareOpcode(t *testing.T) {
	w := dvi.New("")
	w.SetChar('A')
	require.Equal(t, []byte{'A'}, w.Bytes())
}

func TestSetCharAbove127UsesSet1(t *testing.T) {
	w := dvi.New("")
	w.SetChar(200)
	require.Equal(t, []byte{128, 200}, w.Bytes())
}

func TestBeginPageRecordsBackPointer(t *testing.T) {
	w := dvi.New("")
	w.BeginPage([10]int32{1, 0, 0, 0, 0, 0, 0, 0, 0, 0})
	require.Equal(t, byte(139), w.Bytes()[0])

	firstLen := w.Bytes()
	_ = firstLen
	w.EndPage()
	secondBOPOffset := int32(len(w.Bytes()))
	w.BeginPage([10]int32{2, 0, 0, 0, 0, 0, 0, 0, 0, 0})

	// the back-pointer word of the second bop should equal the byte
	// offset the first bop started at (0).
	b := w.Bytes()
	backPtrStart := int(secondBOPOffset) + 1 + 10*4
	got := int32(b[backPtrStart])<<24 | int32(b[backPtrStart+1])<<16 | int32(b[backPtrStart+2])<<8 | int32(b[backPtrStart+3])
	require.EqualValues(t, 0, got)
}

func TestRightReusesW0OnRepeatedDelta(t *testing.T) {
	w := dvi.New("")
	w.Right(1000) // first time: no register holds 1000, literal right1..4
	firstLen := len(w.Bytes())
	w.Right(1000) // now w-register holds 1000 from the "here" state
	secondLen := len(w.Bytes())
	// the second call should be cheaper: a single w0 opcode byte, not a
	// fresh literal motion.
	require.Equal(t, 1, secondLen-firstLen)
	require.Equal(t, byte(147), w.Bytes()[firstLen])
}

func TestRightDistinguishesTwoRegisters(t *testing.T) {
	w := dvi.New("")
	w.Right(100) // first distinct delta -> first register, literal motion
	w.Right(200) // second distinct delta -> second register, literal motion
	lenBeforeRepeat := len(w.Bytes())
	w.Right(200) // repeating the second register's value -> x0 reuse
	require.Equal(t, 1, len(w.Bytes())-lenBeforeRepeat)
	require.Equal(t, byte(152), w.Bytes()[lenBeforeRepeat])
}

func TestFontNumUsesCompactOpcodeUnder64(t *testing.T) {
	w := dvi.New("")
	w.FontNum(5)
	require.Equal(t, []byte{171 + 5}, w.Bytes())
}

func TestFontDefEmitsAreaAndName(t *testing.T) {
	w := dvi.New("")
	w.FontDef(0, 0xDEADBEEF, 10<<20, 10<<20, "", "cmr10")
	b := w.Bytes()
	require.Equal(t, byte(243), b[0])
	require.Contains(t, string(b), "cmr10")
}

func TestPostPostEndsWithFourSignatureBytes(t *testing.T) {
	w := dvi.New("")
	w.Preamble()
	w.BeginPage([10]int32{})
	w.EndPage()
	w.Post(0, 0, 1, 1, nil)
	b := w.Bytes()
	n := len(b)
	require.Equal(t, byte(223), b[n-1])
	require.Equal(t, byte(223), b[n-2])
	require.Equal(t, byte(223), b[n-3])
	require.Equal(t, byte(223), b[n-4])
}
