package res

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidit77/embedinator/internal/rsrc"
)

// readRecord parses one resource record starting at off and returns the
// offset of the next one.
type record struct {
	dataSize   uint32
	headerSize uint32
	header     []byte
	data       []byte
}

func readRecord(t *testing.T, buf []byte, off int) (record, int) {
	t.Helper()
	require.LessOrEqual(t, off+8, len(buf))
	r := record{
		dataSize:   binary.LittleEndian.Uint32(buf[off:]),
		headerSize: binary.LittleEndian.Uint32(buf[off+4:]),
	}
	require.LessOrEqual(t, off+int(r.headerSize)+int(r.dataSize), len(buf))
	r.header = buf[off : off+int(r.headerSize)]
	r.data = buf[off+int(r.headerSize) : off+int(r.headerSize)+int(r.dataSize)]
	next := off + int(r.headerSize) + int(r.dataSize)
	return r, (next + 3) &^ 3
}

func TestWriteManifest(t *testing.T) {
	var out bytes.Buffer
	err := Write(&out, []rsrc.Entry{{
		Type: rsrc.Ident{ID: 24},
		Name: rsrc.Ident{ID: 1},
		Lang: 0x0409,
		Data: []byte("<manifest/>"),
	}})
	require.NoError(t, err)
	buf := out.Bytes()

	// The file starts with the empty resource marking the 32-bit format.
	empty, next := readRecord(t, buf, 0)
	assert.Equal(t, uint32(0), empty.dataSize)
	assert.Equal(t, uint32(32), empty.headerSize)
	assert.Equal(t, []byte{0xFF, 0xFF, 0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00}, empty.header[8:16])

	rec, end := readRecord(t, buf, next)
	assert.Equal(t, uint32(11), rec.dataSize)
	assert.Equal(t, uint32(32), rec.headerSize)
	// Numeric type and name idents use the 0xFFFF escape.
	assert.Equal(t, uint16(0xFFFF), binary.LittleEndian.Uint16(rec.header[8:]))
	assert.Equal(t, uint16(24), binary.LittleEndian.Uint16(rec.header[10:]))
	assert.Equal(t, uint16(0xFFFF), binary.LittleEndian.Uint16(rec.header[12:]))
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(rec.header[14:]))
	// DataVersion, then the manifest memory flags and the language.
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(rec.header[16:]))
	assert.Equal(t, uint16(memMoveable|memPure), binary.LittleEndian.Uint16(rec.header[20:]))
	assert.Equal(t, uint16(0x0409), binary.LittleEndian.Uint16(rec.header[22:]))
	assert.Equal(t, []byte("<manifest/>"), rec.data)
	assert.Equal(t, len(buf), end, "records must be 4-aligned")
}

func TestWriteNamedIdent(t *testing.T) {
	var out bytes.Buffer
	err := Write(&out, []rsrc.Entry{{
		Type: rsrc.Ident{Name: "DATA"},
		Name: rsrc.Ident{ID: 7},
		Lang: 0,
		Data: []byte{1, 2, 3},
	}})
	require.NoError(t, err)
	buf := out.Bytes()

	_, next := readRecord(t, buf, 0)
	rec, _ := readRecord(t, buf, next)

	// Named type is written inline as NUL-terminated UTF-16.
	want := []byte{'D', 0, 'A', 0, 'T', 0, 'A', 0, 0, 0}
	assert.Equal(t, want, rec.header[8:18])
	// Numeric name follows directly, then padding to 4 bytes.
	assert.Equal(t, uint16(0xFFFF), binary.LittleEndian.Uint16(rec.header[18:]))
	assert.Equal(t, uint16(7), binary.LittleEndian.Uint16(rec.header[20:]))
	assert.Equal(t, uint32(40), rec.headerSize, "idents padded to 4 bytes before the fixed fields")
}

func TestWriteRejectsWideNumericIdent(t *testing.T) {
	// Numeric idents are 16-bit in this format; an id the directory tables
	// accept must not be truncated into a different resource.
	for _, e := range []rsrc.Entry{
		{Type: rsrc.Ident{ID: 0x10000}, Name: rsrc.Ident{ID: 1}, Data: []byte{1}},
		{Type: rsrc.Ident{ID: 24}, Name: rsrc.Ident{ID: 0x12345}, Data: []byte{1}},
	} {
		var out bytes.Buffer
		err := Write(&out, []rsrc.Entry{e})
		assert.Error(t, err)
	}
}

func TestMemFlags(t *testing.T) {
	assert.Equal(t, uint16(0), memFlags(rsrc.Ident{ID: 0}))
	assert.Equal(t, uint16(memDiscardable|memMoveable), memFlags(rsrc.Ident{ID: typeIcon}))
	assert.Equal(t, uint16(memDiscardable|memMoveable|memPure), memFlags(rsrc.Ident{ID: typeGroupIcon}))
	assert.Equal(t, uint16(memMoveable|memPure), memFlags(rsrc.Ident{ID: 16}))
	assert.Equal(t, uint16(memMoveable|memPure), memFlags(rsrc.Ident{Name: "DATA"}))
}
