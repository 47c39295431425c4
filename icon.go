package embedinator

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sidit77/embedinator/internal/binbuf"
)

// IconFrame is one already-decoded image of an icon. Data holds the encoded
// bytes as they should appear in the resource section (a PNG stream or a
// DIB); decoding image files is the caller's concern.
type IconFrame struct {
	Width      int
	Height     int
	ColorDepth int // bits per pixel
	Data       []byte
}

// Icon is an ordered collection of frames forming one logical icon.
type Icon struct {
	frames []IconFrame
}

// NewIcon builds an icon from the given frames. Frame order is preserved
// in the resulting icon group.
func NewIcon(frames ...IconFrame) *Icon {
	return &Icon{frames: frames}
}

var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

// IconFromPNG builds a single-frame icon from a PNG stream. The PNG must
// contain 8-bit RGBA data; modern loaders accept such frames verbatim.
// Only the header is inspected, the stream is embedded unchanged.
func IconFromPNG(data []byte) (*Icon, error) {
	if len(data) < 26 || !bytes.Equal(data[:8], pngSignature) || string(data[12:16]) != "IHDR" {
		return nil, fmt.Errorf("not a PNG stream: %w", ErrInvalidResource)
	}
	bitDepth, colorType := data[24], data[25]
	if bitDepth != 8 || colorType != 6 {
		return nil, fmt.Errorf("PNG must contain 8-bit RGBA data (depth %d, color type %d): %w",
			bitDepth, colorType, ErrInvalidResource)
	}
	return NewIcon(IconFrame{
		Width:      int(binary.BigEndian.Uint32(data[16:20])),
		Height:     int(binary.BigEndian.Uint32(data[20:24])),
		ColorDepth: 32,
		Data:       data,
	}), nil
}

// validate checks the frames before anything is registered, so a failing
// AddIcon leaves the builder untouched.
func (ic *Icon) validate() error {
	if ic == nil || len(ic.frames) == 0 {
		return ErrEmptyIcon
	}
	for i, f := range ic.frames {
		if len(f.Data) == 0 {
			return fmt.Errorf("icon frame %d is empty: %w", i, ErrInvalidResource)
		}
		if int64(len(f.Data)) > math.MaxUint32 {
			return fmt.Errorf("icon frame %d is %d bytes: %w", i, len(f.Data), ErrIconTooLarge)
		}
	}
	return nil
}

// groupData builds the icon group payload: a GRPICONDIR header followed by
// one 14-byte directory entry per frame. Frames are referenced by the
// builder-internal resource ids, not embedded.
func (ic *Icon) groupData(frameIDs []uint16) []byte {
	var buf binbuf.Buffer
	buf.WriteU16(0) // idReserved
	buf.WriteU16(1) // idType: icon
	buf.WriteU16(uint16(len(ic.frames)))

	for i, f := range ic.frames {
		buf.WriteU8(dimensionByte(f.Width))
		buf.WriteU8(dimensionByte(f.Height))
		buf.WriteU8(colorCount(f.ColorDepth))
		buf.WriteU8(0)  // bReserved
		buf.WriteU16(1) // wPlanes
		buf.WriteU16(uint16(f.ColorDepth))
		buf.WriteU32(uint32(len(f.Data)))
		buf.WriteU16(frameIDs[i])
	}
	return buf.Bytes()
}

// dimensionByte encodes a frame dimension; 0 stands for 256 and larger
// frames keep 0 as well, matching the icon directory convention.
func dimensionByte(v int) uint8 {
	if v >= 256 || v <= 0 {
		return 0
	}
	return uint8(v)
}

func colorCount(depth int) uint8 {
	if depth >= 8 || depth <= 0 {
		return 0
	}
	return uint8(1 << depth)
}
