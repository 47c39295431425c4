package main

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidit77/embedinator"
)

func buildICO(images ...[]byte) []byte {
	var out []byte
	out = binary.LittleEndian.AppendUint16(out, 0)
	out = binary.LittleEndian.AppendUint16(out, 1)
	out = binary.LittleEndian.AppendUint16(out, uint16(len(images)))

	offset := icoHeaderSize + icoEntrySize*len(images)
	for i, img := range images {
		entry := make([]byte, icoEntrySize)
		entry[0] = byte(16 << i) // width, 0 means 256
		entry[1] = byte(16 << i)
		binary.LittleEndian.PutUint16(entry[4:], 1)
		binary.LittleEndian.PutUint16(entry[6:], 32)
		binary.LittleEndian.PutUint32(entry[8:], uint32(len(img)))
		binary.LittleEndian.PutUint32(entry[12:], uint32(offset))
		out = append(out, entry...)
		offset += len(img)
	}
	for _, img := range images {
		out = append(out, img...)
	}
	return out
}

func TestParseICO(t *testing.T) {
	imgA := []byte("imagedata-a")
	imgB := []byte("imagedata-b-larger")

	icon, err := parseICO(buildICO(imgA, imgB))
	require.NoError(t, err)

	// The parsed icon must register cleanly with the builder.
	b := embedinator.New(embedinator.ArchAMD64)
	require.NoError(t, b.AddIcon(1, icon))
}

func TestParseICOFrames(t *testing.T) {
	ico := buildICO([]byte("png-or-dib-bytes"))
	// Zero depth must fall back to 32 bpp.
	binary.LittleEndian.PutUint16(ico[icoHeaderSize+6:], 0)

	icon, err := parseICO(ico)
	require.NoError(t, err)
	require.NotNil(t, icon)
}

func TestParseICOErrors(t *testing.T) {
	t.Run("too short", func(t *testing.T) {
		_, err := parseICO([]byte{0, 0})
		assert.Error(t, err)
	})
	t.Run("bad type", func(t *testing.T) {
		ico := buildICO([]byte("x"))
		ico[2] = 2 // cursor, not icon
		_, err := parseICO(ico)
		assert.Error(t, err)
	})
	t.Run("no images", func(t *testing.T) {
		_, err := parseICO([]byte{0, 0, 1, 0, 0, 0})
		assert.Error(t, err)
	})
	t.Run("truncated directory", func(t *testing.T) {
		_, err := parseICO([]byte{0, 0, 1, 0, 2, 0, 1, 2, 3})
		assert.Error(t, err)
	})
	t.Run("image out of bounds", func(t *testing.T) {
		ico := buildICO([]byte("x"))
		binary.LittleEndian.PutUint32(ico[icoHeaderSize+8:], 0xFFFF)
		_, err := parseICO(ico)
		assert.Error(t, err)
	})
}
