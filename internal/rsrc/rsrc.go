package rsrc

import "strconv"

// Ident identifies a resource type or a resource name. It is either numeric
// or a string; the zero value is the numeric ident 0.
type Ident struct {
	ID   uint32
	Name string // non-empty means this is a named ident
}

// Named reports whether the ident is a string name rather than a number.
func (id Ident) Named() bool {
	return id.Name != ""
}

// String renders the ident for error messages.
func (id Ident) String() string {
	if id.Named() {
		return id.Name
	}
	return "#" + strconv.FormatUint(uint64(id.ID), 10)
}

// Less defines the total order used within a directory level:
// numeric idents ascending come before all named idents, named idents are
// ordered bytewise ascending.
func (id Ident) Less(other Ident) bool {
	if id.Named() != other.Named() {
		return !id.Named()
	}
	if id.Named() {
		return id.Name < other.Name
	}
	return id.ID < other.ID
}

// Entry is one resource to be placed into the directory tree.
type Entry struct {
	Type Ident
	Name Ident
	Lang uint16
	Data []byte
}

// Fixup marks a data-entry RVA field that must be patched by the linker.
// Off is the position of the 32-bit field within the directory table buffer,
// Target is the offset of the corresponding payload within the data buffer.
type Fixup struct {
	Off    uint32
	Target uint32
}

// Directory is the serialized resource section, split into the directory
// table piece and the raw data piece. Keeping the two apart lets the object
// writer place them in separate section pieces so that a linker can merge
// resource-bearing objects.
type Directory struct {
	Table  []byte
	Data   []byte
	Fixups []Fixup
}
