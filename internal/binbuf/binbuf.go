package binbuf

import (
	"encoding/binary"
	"unicode/utf16"
)

// Buffer is an append-only little-endian byte buffer for assembling binary
// file structures. Besides plain appending it supports reserving space and
// patching previously written positions, which is needed for length and
// offset fields that are only known after the structure they describe has
// been written.
//
// The zero value is an empty buffer ready for use.
type Buffer struct {
	data []byte
}

// Len returns the current buffer length in bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Bytes returns the underlying byte slice. The slice is only valid until the
// next write.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// WriteBytes appends raw bytes.
func (b *Buffer) WriteBytes(p []byte) {
	b.data = append(b.data, p...)
}

// WriteU8 appends a single byte.
func (b *Buffer) WriteU8(v uint8) {
	b.data = append(b.data, v)
}

// WriteU16 appends a little-endian uint16.
func (b *Buffer) WriteU16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

// WriteU32 appends a little-endian uint32.
func (b *Buffer) WriteU32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// WriteUTF16 appends the string as NUL-terminated UTF-16LE.
func (b *Buffer) WriteUTF16(s string) {
	for _, c := range utf16.Encode([]rune(s)) {
		b.WriteU16(c)
	}
	b.WriteU16(0)
}

// Reserve appends n zero bytes and returns the position of the first one.
func (b *Buffer) Reserve(n int) int {
	pos := len(b.data)
	b.data = append(b.data, make([]byte, n)...)
	return pos
}

// ReserveU16 reserves space for a uint16 to be patched later.
func (b *Buffer) ReserveU16() int {
	return b.Reserve(2)
}

// ReserveU32 reserves space for a uint32 to be patched later.
func (b *Buffer) ReserveU32() int {
	return b.Reserve(4)
}

// PatchU16 overwrites a previously written (or reserved) uint16 at pos.
func (b *Buffer) PatchU16(pos int, v uint16) {
	binary.LittleEndian.PutUint16(b.data[pos:], v)
}

// PatchU32 overwrites a previously written (or reserved) uint32 at pos.
func (b *Buffer) PatchU32(pos int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[pos:], v)
}

// Align pads the buffer with zeros until its length is a multiple of n.
func (b *Buffer) Align(n int) {
	if pad := (n - len(b.data)%n) % n; pad > 0 {
		b.Reserve(pad)
	}
}
