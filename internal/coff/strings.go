package coff

import "encoding/binary"

// stringTable collects symbol and section names that do not fit the 8-byte
// inline name field. Offsets are relative to the start of the table and
// include its 4-byte length field, as the format requires.
type stringTable struct {
	entries []string
	size    uint32
}

// add appends a name and returns its offset for use in a name field.
func (st *stringTable) add(name string) uint32 {
	if st.size == 0 {
		st.size = 4
	}
	off := st.size
	st.entries = append(st.entries, name)
	st.size += uint32(len(name)) + 1
	return off
}

// bytes serializes the table. An empty table still carries its length field.
func (st *stringTable) bytes() []byte {
	if st.size == 0 {
		st.size = 4
	}
	out := make([]byte, 4, st.size)
	binary.LittleEndian.PutUint32(out, st.size)
	for _, e := range st.entries {
		out = append(out, e...)
		out = append(out, 0)
	}
	return out
}
