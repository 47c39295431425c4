package embedinator

import (
	"fmt"

	"github.com/sidit77/embedinator/internal/coff"
)

// Arch selects the machine architecture the object file targets.
type Arch int

const (
	ArchAMD64 Arch = iota
	Arch386
	ArchARM64
)

// ParseArch maps a GOARCH-style name to an Arch.
func ParseArch(s string) (Arch, error) {
	switch s {
	case "amd64":
		return ArchAMD64, nil
	case "386":
		return Arch386, nil
	case "arm64":
		return ArchARM64, nil
	}
	return 0, fmt.Errorf("unsupported target architecture %q", s)
}

func (a Arch) String() string {
	switch a {
	case ArchAMD64:
		return "amd64"
	case Arch386:
		return "386"
	case ArchARM64:
		return "arm64"
	}
	return fmt.Sprintf("Arch(%d)", int(a))
}

func (a Arch) target() coff.Target {
	switch a {
	case Arch386:
		return coff.Target{Machine: coff.MachineI386, RelocRVA32: coff.RelocI386DIR32NB}
	case ArchARM64:
		return coff.Target{Machine: coff.MachineARM64, RelocRVA32: coff.RelocARM64ADDR32NB}
	default:
		return coff.Target{Machine: coff.MachineAMD64, RelocRVA32: coff.RelocAMD64ADDR32NB}
	}
}
