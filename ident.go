package embedinator

import "github.com/sidit77/embedinator/internal/rsrc"

// Ident identifies a resource type or a resource name. Use ID for numeric
// identifiers and Name for textual ones.
type Ident struct {
	id   uint32
	name string
}

// ID returns a numeric resource ident.
func ID(n uint32) Ident {
	return Ident{id: n}
}

// Name returns a named resource ident.
func Name(s string) Ident {
	return Ident{name: s}
}

// String renders the ident for error messages.
func (id Ident) String() string {
	return id.rsrc().String()
}

func (id Ident) rsrc() rsrc.Ident {
	return rsrc.Ident{ID: id.id, Name: id.name}
}

// Well-known numeric resource types.
var (
	TypeIcon      = ID(3)
	TypeGroupIcon = ID(14)
	TypeVersion   = ID(16)
	TypeManifest  = ID(24)
)

// Language identifiers.
const (
	LangNeutral uint16 = 0
	LangEnUS    uint16 = 0x0409
)
