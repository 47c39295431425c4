package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/sidit77/embedinator"
)

const (
	icoHeaderSize = 6
	icoEntrySize  = 16
)

// loadICO reads an .ico container and turns each image into an icon frame.
// The encoded image bytes (DIB or PNG) are passed through unchanged.
func loadICO(path string) (*embedinator.Icon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parseICO(data)
}

func parseICO(data []byte) (*embedinator.Icon, error) {
	if len(data) < icoHeaderSize {
		return nil, errors.New("not an ICO file: too short")
	}
	if binary.LittleEndian.Uint16(data[0:]) != 0 || binary.LittleEndian.Uint16(data[2:]) != 1 {
		return nil, errors.New("not an ICO file: bad header")
	}
	count := int(binary.LittleEndian.Uint16(data[4:]))
	if count == 0 {
		return nil, errors.New("ICO file contains no images")
	}
	if len(data) < icoHeaderSize+count*icoEntrySize {
		return nil, errors.New("ICO file truncated: missing directory entries")
	}

	frames := make([]embedinator.IconFrame, count)
	for i := 0; i < count; i++ {
		entry := data[icoHeaderSize+i*icoEntrySize:]
		width := int(entry[0])
		height := int(entry[1])
		if width == 0 {
			width = 256
		}
		if height == 0 {
			height = 256
		}
		depth := int(binary.LittleEndian.Uint16(entry[6:]))
		if depth == 0 {
			depth = 32
		}
		size := int(binary.LittleEndian.Uint32(entry[8:]))
		offset := int(binary.LittleEndian.Uint32(entry[12:]))
		if offset < 0 || size < 0 || offset+size > len(data) {
			return nil, fmt.Errorf("ICO image %d out of bounds (offset %d, size %d)", i, offset, size)
		}

		frames[i] = embedinator.IconFrame{
			Width:      width,
			Height:     height,
			ColorDepth: depth,
			Data:       data[offset : offset+size],
		}
	}
	return embedinator.NewIcon(frames...), nil
}
