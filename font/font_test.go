package font_test

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ha1tch/gotex/font"
	"github.com/ha1tch/gotex/mem"
)

// buildMinimalTFM constructs a one-character synthetic .tfm file (for
// 'A' = 65) with a 10pt design size, matching the layout spec.md §4.11
// describes: 12 length halfwords, a 2-word header (checksum + design
// size), one char_info word, and one width/height/depth/italic entry
// each.
func buildMinimalTFM(t *testing.T) []byte {
	t.Helper()
	halfwords := []uint16{
		13, // lf
		2,  // lh
		65, // bc
		65, // ec
		1,  // nw
		1,  // nh
		1,  // nd
		1,  // ni
		0,  // nl
		0,  // nk
		0,  // ne
		0,  // np
		0, 0, // checksum
		160, 0, // design size fix_word: 10 * 2^20
		0, 0, // char_info for 'A': all-zero indices
		80, 0, // width[0]: 5 * 2^20
		16, 0, // height[0]: 1 * 2^20
		0, 0, // depth[0]: 0
		0, 0, // italic[0]: 0
	}
	buf := make([]byte, len(halfwords)*2)
	for i, w := range halfwords {
		binary.BigEndian.PutUint16(buf[i*2:], w)
	}
	return buf
}

func TestLoadParsesDesignSizeAndDimensions(t *testing.T) {
	f, err := font.Load(bytes.NewReader(buildMinimalTFM(t)), 0, 0)
	require.NoError(t, err)
	require.EqualValues(t, 10*mem.Unity, f.DesignSize)
	require.Len(t, f.Widths, 1)
	require.Len(t, f.CharInfos, 1)
	require.EqualValues(t, 10*mem.Unity, f.Heights[0])
}

func TestLoadHonorsAtSizeOverride(t *testing.T) {
	f, err := font.Load(bytes.NewReader(buildMinimalTFM(t)), 12*mem.Unity, 0)
	require.NoError(t, err)
	require.EqualValues(t, 12*mem.Unity, f.DesignSize)
}

func TestLoadRejectsTruncatedFile(t *testing.T) {
	_, err := font.Load(bytes.NewReader(buildMinimalTFM(t)[:10]), 0, 0)
	require.Error(t, err)
}

func TestLoadRejectsLengthMismatch(t *testing.T) {
	raw := buildMinimalTFM(t)
	binary.BigEndian.PutUint16(raw[0:2], 999) // corrupt lf
	_, err := font.Load(bytes.NewReader(raw), 0, 0)
	require.Error(t, err)
}
