package embedinator

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPNG(t *testing.T, width, height uint32, bitDepth, colorType byte) []byte {
	t.Helper()
	png := append([]byte{}, pngSignature...)
	png = append(png, 0, 0, 0, 13) // IHDR length
	png = append(png, "IHDR"...)
	png = binary.BigEndian.AppendUint32(png, width)
	png = binary.BigEndian.AppendUint32(png, height)
	png = append(png, bitDepth, colorType, 0, 0, 0)
	return png
}

func TestIconFromPNG(t *testing.T) {
	icon, err := IconFromPNG(testPNG(t, 256, 64, 8, 6))
	require.NoError(t, err)
	require.Len(t, icon.frames, 1)

	frame := icon.frames[0]
	assert.Equal(t, 256, frame.Width)
	assert.Equal(t, 64, frame.Height)
	assert.Equal(t, 32, frame.ColorDepth)
	assert.Equal(t, testPNG(t, 256, 64, 8, 6), frame.Data, "PNG stream is embedded unchanged")
}

func TestIconFromPNGRejectsInvalid(t *testing.T) {
	t.Run("not a png", func(t *testing.T) {
		_, err := IconFromPNG([]byte("GIF89a----------------------------"))
		assert.ErrorIs(t, err, ErrInvalidResource)
	})
	t.Run("truncated", func(t *testing.T) {
		_, err := IconFromPNG(pngSignature)
		assert.ErrorIs(t, err, ErrInvalidResource)
	})
	t.Run("wrong color type", func(t *testing.T) {
		_, err := IconFromPNG(testPNG(t, 16, 16, 8, 2))
		assert.ErrorIs(t, err, ErrInvalidResource)
	})
	t.Run("wrong bit depth", func(t *testing.T) {
		_, err := IconFromPNG(testPNG(t, 16, 16, 16, 6))
		assert.ErrorIs(t, err, ErrInvalidResource)
	})
}

func TestAddIconRegistersFramesAndGroup(t *testing.T) {
	frames := []IconFrame{
		{Width: 16, Height: 16, ColorDepth: 32, Data: []byte("frame-16")},
		{Width: 256, Height: 256, ColorDepth: 32, Data: []byte("frame-256!")},
		{Width: 48, Height: 48, ColorDepth: 4, Data: []byte("frame-48")},
	}

	b := New(ArchAMD64)
	require.NoError(t, b.AddIcon(1, NewIcon(frames...)))

	var icons, groups int
	var group []byte
	for _, e := range b.entries {
		switch e.Type.ID {
		case 3:
			icons++
		case 14:
			groups++
			group = e.Data
		}
	}
	assert.Equal(t, len(frames), icons)
	assert.Equal(t, 1, groups)

	// GRPICONDIR header.
	require.NotNil(t, group)
	assert.Equal(t, uint16(0), binary.LittleEndian.Uint16(group))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(group[2:]))
	assert.Equal(t, uint16(len(frames)), binary.LittleEndian.Uint16(group[4:]))
	require.Equal(t, 6+14*len(frames), len(group))

	for i, f := range frames {
		entry := group[6+14*i:]
		wantW, wantH := uint8(f.Width), uint8(f.Height)
		if f.Width >= 256 {
			wantW = 0
		}
		if f.Height >= 256 {
			wantH = 0
		}
		assert.Equal(t, wantW, entry[0], "frame %d width", i)
		assert.Equal(t, wantH, entry[1], "frame %d height", i)
		assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(entry[4:]), "frame %d planes", i)
		assert.Equal(t, uint16(f.ColorDepth), binary.LittleEndian.Uint16(entry[6:]), "frame %d depth", i)
		assert.Equal(t, uint32(len(f.Data)), binary.LittleEndian.Uint32(entry[8:]), "frame %d size", i)
		assert.Equal(t, uint16(iconBaseID+i), binary.LittleEndian.Uint16(entry[12:]), "frame %d id", i)
	}
	// The low-color frame advertises its palette size.
	assert.Equal(t, uint8(16), group[6+14*2+2])
}

func TestAddIconInternalIDsAdvance(t *testing.T) {
	b := New(ArchAMD64)
	require.NoError(t, b.AddIcon(1, NewIcon(IconFrame{Width: 16, Height: 16, ColorDepth: 32, Data: []byte("a")})))
	require.NoError(t, b.AddIcon(2, NewIcon(IconFrame{Width: 16, Height: 16, ColorDepth: 32, Data: []byte("b")})))

	var ids []uint32
	for _, e := range b.entries {
		if e.Type.ID == 3 {
			ids = append(ids, e.Name.ID)
		}
	}
	assert.Equal(t, []uint32{iconBaseID, iconBaseID + 1}, ids)
}

func TestAddIconEmpty(t *testing.T) {
	b := New(ArchAMD64)
	assert.ErrorIs(t, b.AddIcon(1, NewIcon()), ErrEmptyIcon)
	assert.ErrorIs(t, b.AddIcon(1, nil), ErrEmptyIcon)
	assert.Empty(t, b.entries)
}

func TestAddIconDuplicateGroup(t *testing.T) {
	frame := IconFrame{Width: 16, Height: 16, ColorDepth: 32, Data: []byte("a")}

	b := New(ArchAMD64)
	require.NoError(t, b.AddIcon(1, NewIcon(frame)))
	registered := len(b.entries)

	err := b.AddIcon(1, NewIcon(frame))
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.Len(t, b.entries, registered, "a failed AddIcon must not leave partial state")
}

func TestAddIconFrameIDExhaustion(t *testing.T) {
	frames := make([]IconFrame, 0x10000-iconBaseID+1)
	for i := range frames {
		frames[i] = IconFrame{Width: 16, Height: 16, ColorDepth: 32, Data: []byte{1}}
	}

	b := New(ArchAMD64)
	err := b.AddIcon(1, NewIcon(frames...))
	assert.ErrorIs(t, err, ErrIconTooLarge)
	assert.Empty(t, b.entries)
}
