// Package coff assembles a linkable COFF object file around a serialized
// resource directory. The resource section is split into the conventional
// two pieces, .rsrc$01 (directory tables) and .rsrc$02 (raw data), so a
// linker can merge the directories of several resource-bearing objects
// before appending their data.
package coff

import (
	"fmt"
	"io"

	"github.com/sidit77/embedinator/internal/binbuf"
	"github.com/sidit77/embedinator/internal/rsrc"
)

// Target describes the machine the object file is meant for.
type Target struct {
	// Machine is the IMAGE_FILE_MACHINE_* value for the file header.
	Machine uint16
	// RelocRVA32 is the machine's relocation type for a 32-bit RVA
	// (IMAGE_REL_*_ADDR32NB or equivalent).
	RelocRVA32 uint16
}

// Machine and relocation constants, from the PE/COFF specification.
const (
	MachineI386  = 0x014C
	MachineAMD64 = 0x8664
	MachineARM64 = 0xAA64

	RelocI386DIR32NB   = 0x0007
	RelocAMD64ADDR32NB = 0x0003
	RelocARM64ADDR32NB = 0x0002
)

const (
	fileHeaderSize    = 20
	sectionHeaderSize = 40
	symbolSize        = 18
	relocationSize    = 10

	imageFile32BitMachine = 0x0100

	// Section characteristics: initialized data, readable, writable.
	sectionFlags = 0x00000040 | 0x40000000 | 0x80000000

	symClassStatic = 0x03
)

type section struct {
	name             string
	rawDataPtr       int
	rawDataSize      int
	relocationsPtr   int
	relocationsCount int
}

// Bytes assembles the complete object file in memory.
func Bytes(target Target, dir *rsrc.Directory) ([]byte, error) {
	if len(dir.Fixups) > 0xFFFF {
		return nil, fmt.Errorf("too many relocations for one object file: %d", len(dir.Fixups))
	}

	var buf binbuf.Buffer
	var strtab stringTable

	buf.Reserve(fileHeaderSize + 2*sectionHeaderSize)

	// Section 1: directory tables plus the relocation records closing the
	// RVA gap left by the directory builder.
	table := section{name: ".rsrc$01", rawDataPtr: buf.Len()}
	buf.WriteBytes(dir.Table)
	buf.Align(4)
	table.rawDataSize = buf.Len() - table.rawDataPtr
	table.relocationsPtr = buf.Len()
	table.relocationsCount = len(dir.Fixups)
	for i, f := range dir.Fixups {
		buf.WriteU32(f.Off)                       // VirtualAddress
		buf.WriteU32(uint32(resourceSymBase + i)) // SymbolTableIndex
		buf.WriteU16(target.RelocRVA32)           // Type
	}
	buf.Align(4)

	// Section 2: raw resource data.
	data := section{name: ".rsrc$02", rawDataPtr: buf.Len()}
	buf.WriteBytes(dir.Data)
	buf.Align(4)
	data.rawDataSize = buf.Len() - data.rawDataPtr

	symbolTablePtr, symbolCount := writeSymbols(&buf, &strtab, table, data, dir.Fixups)
	buf.WriteBytes(strtab.bytes())

	// File header, now that all pointers are known.
	buf.PatchU16(0, target.Machine)
	buf.PatchU16(2, 2) // NumberOfSections
	buf.PatchU32(4, 0) // TimeDateStamp, zero for reproducible output
	buf.PatchU32(8, uint32(symbolTablePtr))
	buf.PatchU32(12, uint32(symbolCount))
	buf.PatchU16(16, 0) // SizeOfOptionalHeader
	buf.PatchU16(18, imageFile32BitMachine)

	for i, s := range []section{table, data} {
		base := fileHeaderSize + i*sectionHeaderSize
		copy(buf.Bytes()[base:base+8], s.name)
		buf.PatchU32(base+8, 0)  // PhysicalAddress
		buf.PatchU32(base+12, 0) // VirtualAddress
		buf.PatchU32(base+16, uint32(s.rawDataSize))
		buf.PatchU32(base+20, uint32(s.rawDataPtr))
		buf.PatchU32(base+24, uint32(s.relocationsPtr))
		buf.PatchU32(base+28, 0) // PointerToLinenumbers
		buf.PatchU16(base+32, uint16(s.relocationsCount))
		buf.PatchU16(base+34, 0) // NumberOfLinenumbers
		buf.PatchU32(base+36, sectionFlags)
	}

	return buf.Bytes(), nil
}

// Write assembles the object file and writes it to w in one piece.
func Write(w io.Writer, target Target, dir *rsrc.Directory) error {
	obj, err := Bytes(target, dir)
	if err != nil {
		return err
	}
	if _, err := w.Write(obj); err != nil {
		return fmt.Errorf("write object file: %w", err)
	}
	return nil
}

// Symbol table layout: a section symbol plus an auxiliary format-5 record
// per section, then one symbol per resource payload. Relocations reference
// the payload symbols, whose value is the payload's offset within .rsrc$02;
// the linker turns that into the final RVA.
const resourceSymBase = 4

func writeSymbols(buf *binbuf.Buffer, strtab *stringTable, table, data section, fixups []rsrc.Fixup) (ptr, count int) {
	buf.Align(4)
	ptr = buf.Len()

	writeSectionSym := func(s section, number uint16) {
		writeSymName(buf, strtab, s.name)
		buf.WriteU32(0)      // Value
		buf.WriteU16(number) // SectionNumber
		buf.WriteU16(0)      // Type
		buf.WriteU8(symClassStatic)
		buf.WriteU8(1) // NumberOfAuxSymbols
		// Auxiliary section-definition record.
		buf.WriteU32(uint32(s.rawDataSize))
		buf.WriteU16(uint16(s.relocationsCount))
		buf.WriteU16(0) // NumberOfLinenumbers
		buf.Reserve(10) // CheckSum, Number, Selection, padding
	}
	writeSectionSym(table, 1)
	writeSectionSym(data, 2)

	for _, f := range fixups {
		writeSymName(buf, strtab, fmt.Sprintf("$R%06X", f.Target))
		buf.WriteU32(f.Target) // Value: offset into .rsrc$02
		buf.WriteU16(2)        // SectionNumber
		buf.WriteU16(0)        // Type
		buf.WriteU8(symClassStatic)
		buf.WriteU8(0)
	}

	return ptr, resourceSymBase + len(fixups)
}

// writeSymName emits the 8-byte symbol name field, spilling names longer
// than 8 bytes into the string table.
func writeSymName(buf *binbuf.Buffer, strtab *stringTable, name string) {
	if len(name) <= 8 {
		var field [8]byte
		copy(field[:], name)
		buf.WriteBytes(field[:])
		return
	}
	buf.WriteU32(0)
	buf.WriteU32(strtab.add(name))
}
