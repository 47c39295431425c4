package rsrc

import (
	"fmt"
	"sort"
	"unicode/utf16"

	"github.com/sidit77/embedinator/internal/binbuf"
)

const (
	dirHeaderSize = 16
	dirEntrySize  = 8
	dataEntrySize = 16

	// subdirBit marks a directory-entry offset as pointing at another
	// directory, and a name field as pointing into the name-string table.
	subdirBit = 0x80000000

	// dataAlign is the alignment of each payload within the data piece.
	dataAlign = 8
)

type langLeaf struct {
	lang uint16
	data []byte
}

type nameNode struct {
	id     Ident
	leaves []langLeaf
}

type typeNode struct {
	id    Ident
	names []*nameNode
}

// Build serializes the given resources into the three-level resource
// directory (type, name, language). The returned table piece contains the
// sorted directory tables, the data-entry records and the trailing
// name-string table; payloads are collected separately in the data piece.
//
// Every data-entry record's RVA field is written as zero and reported as a
// Fixup, since the final virtual address is only known at link time.
func Build(entries []Entry) (*Directory, error) {
	types, err := group(entries)
	if err != nil {
		return nil, err
	}

	// Layout: the level-1 table, then all level-2 tables, then all level-3
	// tables, then one 16-byte data entry per leaf, then the name strings.
	offset := dirHeaderSize + dirEntrySize*len(types)
	l2Off := make([]int, len(types))
	for i, tn := range types {
		l2Off[i] = offset
		offset += dirHeaderSize + dirEntrySize*len(tn.names)
	}
	l3Off := make([][]int, len(types))
	leaves := 0
	for i, tn := range types {
		l3Off[i] = make([]int, len(tn.names))
		for j, nn := range tn.names {
			l3Off[i][j] = offset
			offset += dirHeaderSize + dirEntrySize*len(nn.leaves)
			leaves += len(nn.leaves)
		}
	}
	dataEntryBase := offset
	nameBase := dataEntryBase + dataEntrySize*leaves

	nameOff, err := layoutNames(types, nameBase)
	if err != nil {
		return nil, err
	}

	var table binbuf.Buffer
	var data binbuf.Buffer
	var fixups []Fixup

	ident := func(id Ident) uint32 {
		if id.Named() {
			return uint32(nameOff[id.Name]) | subdirBit
		}
		return id.ID
	}

	// Level 1: types.
	named := 0
	for _, tn := range types {
		if tn.id.Named() {
			named++
		}
	}
	writeDirHeader(&table, named, len(types)-named)
	for i, tn := range types {
		table.WriteU32(ident(tn.id))
		table.WriteU32(uint32(l2Off[i]) | subdirBit)
	}
	// Level 2: names per type.
	for i, tn := range types {
		checkPos(&table, l2Off[i], "level-2 table")
		named = 0
		for _, nn := range tn.names {
			if nn.id.Named() {
				named++
			}
		}
		writeDirHeader(&table, named, len(tn.names)-named)
		for j, nn := range tn.names {
			table.WriteU32(ident(nn.id))
			table.WriteU32(uint32(l3Off[i][j]) | subdirBit)
		}
	}
	// Level 3: languages per name, pointing at data entries.
	leaf := 0
	for i, tn := range types {
		for j, nn := range tn.names {
			checkPos(&table, l3Off[i][j], "level-3 table")
			writeDirHeader(&table, 0, len(nn.leaves))
			for _, ll := range nn.leaves {
				table.WriteU32(uint32(ll.lang))
				table.WriteU32(uint32(dataEntryBase + dataEntrySize*leaf))
				leaf++
			}
		}
	}

	// Data entries, one per leaf, in the same sorted traversal order.
	checkPos(&table, dataEntryBase, "data entries")
	for _, tn := range types {
		for _, nn := range tn.names {
			for _, ll := range nn.leaves {
				target := data.Len()
				data.WriteBytes(ll.data)
				data.Align(dataAlign)

				fixups = append(fixups, Fixup{
					Off:    uint32(table.Len()),
					Target: uint32(target),
				})
				table.WriteU32(0) // Data RVA, patched by the linker
				table.WriteU32(uint32(len(ll.data)))
				table.WriteU32(0) // CodePage
				table.WriteU32(0) // Reserved
			}
		}
	}

	// Name strings, length-prefixed UTF-16, deduplicated in traversal order.
	writeNames(&table, types, nameOff)
	table.Align(4)

	dir := &Directory{
		Table:  table.Bytes(),
		Data:   data.Bytes(),
		Fixups: fixups,
	}
	dir.check()
	return dir, nil
}

// check verifies internal consistency of the serialized directory.
// A violation is a defect in the builder, not a caller error.
func (d *Directory) check() {
	for _, f := range d.Fixups {
		if int(f.Off)+4 > len(d.Table) {
			panic(fmt.Sprintf("rsrc: fixup at %#x outside directory table (%#x bytes)", f.Off, len(d.Table)))
		}
		if int(f.Target) > len(d.Data) {
			panic(fmt.Sprintf("rsrc: fixup target %#x outside data (%#x bytes)", f.Target, len(d.Data)))
		}
	}
}

func checkPos(table *binbuf.Buffer, want int, what string) {
	if table.Len() != want {
		panic(fmt.Sprintf("rsrc: %s at %#x, expected %#x", what, table.Len(), want))
	}
}

// group sorts the entries into the three-level tree.
func group(entries []Entry) ([]*typeNode, error) {
	var types []*typeNode
	typeIdx := make(map[Ident]*typeNode)
	nameIdx := make(map[Ident]map[Ident]*nameNode)

	for _, e := range entries {
		tn := typeIdx[e.Type]
		if tn == nil {
			tn = &typeNode{id: e.Type}
			typeIdx[e.Type] = tn
			nameIdx[e.Type] = make(map[Ident]*nameNode)
			types = append(types, tn)
		}
		nn := nameIdx[e.Type][e.Name]
		if nn == nil {
			nn = &nameNode{id: e.Name}
			nameIdx[e.Type][e.Name] = nn
			tn.names = append(tn.names, nn)
		}
		for _, ll := range nn.leaves {
			if ll.lang == e.Lang {
				return nil, fmt.Errorf("duplicate resource (type %s, name %s, lang %d)", e.Type, e.Name, e.Lang)
			}
		}
		nn.leaves = append(nn.leaves, langLeaf{lang: e.Lang, data: e.Data})
	}

	if len(types) > 0xFFFF {
		return nil, fmt.Errorf("too many resource types: %d", len(types))
	}
	sort.Slice(types, func(i, j int) bool { return types[i].id.Less(types[j].id) })
	for _, tn := range types {
		if len(tn.names) > 0xFFFF {
			return nil, fmt.Errorf("too many resources of type %s: %d", tn.id, len(tn.names))
		}
		sort.Slice(tn.names, func(i, j int) bool { return tn.names[i].id.Less(tn.names[j].id) })
		for _, nn := range tn.names {
			if len(nn.leaves) > 0xFFFF {
				return nil, fmt.Errorf("too many language variants of %s/%s: %d", tn.id, nn.id, len(nn.leaves))
			}
			sort.Slice(nn.leaves, func(i, j int) bool { return nn.leaves[i].lang < nn.leaves[j].lang })
		}
	}
	return types, nil
}

// layoutNames assigns a string-table offset to every named ident,
// deduplicated, in directory traversal order.
func layoutNames(types []*typeNode, nameBase int) (map[string]int, error) {
	nameOff := make(map[string]int)
	offset := nameBase
	place := func(s string) error {
		if _, ok := nameOff[s]; ok {
			return nil
		}
		units := len(utf16.Encode([]rune(s)))
		if units > 0xFFFF {
			return fmt.Errorf("resource name too long: %d UTF-16 units", units)
		}
		nameOff[s] = offset
		offset += 2 + 2*units
		return nil
	}
	for _, tn := range types {
		if tn.id.Named() {
			if err := place(tn.id.Name); err != nil {
				return nil, err
			}
		}
		for _, nn := range tn.names {
			if nn.id.Named() {
				if err := place(nn.id.Name); err != nil {
					return nil, err
				}
			}
		}
	}
	return nameOff, nil
}

func writeNames(table *binbuf.Buffer, types []*typeNode, nameOff map[string]int) {
	written := make(map[string]bool)
	emit := func(s string) {
		if written[s] {
			return
		}
		written[s] = true
		checkPos(table, nameOff[s], "name string")
		units := utf16.Encode([]rune(s))
		table.WriteU16(uint16(len(units)))
		for _, u := range units {
			table.WriteU16(u)
		}
	}
	for _, tn := range types {
		if tn.id.Named() {
			emit(tn.id.Name)
		}
		for _, nn := range tn.names {
			if nn.id.Named() {
				emit(nn.id.Name)
			}
		}
	}
}

// writeDirHeader emits the 16-byte directory header.
func writeDirHeader(table *binbuf.Buffer, named, numeric int) {
	table.WriteU32(0) // Characteristics
	table.WriteU32(0) // TimeDateStamp
	table.WriteU16(0) // MajorVersion
	table.WriteU16(0) // MinorVersion
	table.WriteU16(uint16(named))
	table.WriteU16(uint16(numeric))
}
