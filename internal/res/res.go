// Package res writes the classic .res resource-file format, the
// intermediate form produced by a resource compiler. It lacks the object
// headers a linker needs, but some toolchains accept it directly.
package res

import (
	"fmt"
	"io"

	"github.com/sidit77/embedinator/internal/binbuf"
	"github.com/sidit77/embedinator/internal/rsrc"
)

// Memory flag bits attached to each resource header. They are leftovers
// from 16-bit Windows and widely ignored, but resource compilers still
// emit per-type defaults.
const (
	memMoveable    = 0x0010
	memPure        = 0x0020
	memDiscardable = 0x1000
)

// Numeric resource types with non-default memory flags.
const (
	typeIcon      = 3
	typeGroupIcon = 14
)

// Write serializes all entries into the .res format: a leading empty
// resource marking the 32-bit variant of the format, then one header and
// payload per entry, each 4-byte aligned. Numeric idents are 16-bit in this
// format, unlike in the directory tables, so larger ids are rejected.
func Write(w io.Writer, entries []rsrc.Entry) error {
	var buf binbuf.Buffer

	writeResource(&buf, rsrc.Entry{}, 0)
	for _, e := range entries {
		for _, id := range [2]rsrc.Ident{e.Type, e.Name} {
			if !id.Named() && id.ID > 0xFFFF {
				return fmt.Errorf("resource ident %s does not fit the 16-bit encoding", id)
			}
		}
		writeResource(&buf, e, memFlags(e.Type))
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write resource file: %w", err)
	}
	return nil
}

func memFlags(typ rsrc.Ident) uint16 {
	if typ.Named() {
		return memMoveable | memPure
	}
	switch typ.ID {
	case typeIcon:
		return memDiscardable | memMoveable
	case typeGroupIcon:
		return memDiscardable | memMoveable | memPure
	case 0:
		return 0
	default:
		return memMoveable | memPure
	}
}

func writeResource(buf *binbuf.Buffer, e rsrc.Entry, flags uint16) {
	dataSizePos := buf.ReserveU32()
	headerSizePos := buf.ReserveU32()
	headerStart := dataSizePos

	writeIdent(buf, e.Type)
	writeIdent(buf, e.Name)
	buf.Align(4)
	buf.WriteU32(0) // DataVersion
	buf.WriteU16(flags)
	buf.WriteU16(e.Lang)
	buf.WriteU32(0) // Version
	buf.WriteU32(0) // Characteristics

	buf.PatchU32(headerSizePos, uint32(buf.Len()-headerStart))
	buf.PatchU32(dataSizePos, uint32(len(e.Data)))
	buf.WriteBytes(e.Data)
	buf.Align(4)
}

// writeIdent emits a resource type or name: numeric idents as the 0xFFFF
// escape followed by the value, named idents as inline NUL-terminated UTF-16.
func writeIdent(buf *binbuf.Buffer, id rsrc.Ident) {
	if id.Named() {
		buf.WriteUTF16(id.Name)
		return
	}
	buf.WriteU16(0xFFFF)
	buf.WriteU16(uint16(id.ID))
}
