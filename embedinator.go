// Package embedinator embeds native resources (icons, manifests, version
// information) into a Windows linkable object file, without invoking an
// external resource compiler. The produced file is passed to the linker
// alongside the rest of a program's objects; with the Go toolchain this is
// the .syso convention, the file only has to sit in the package directory.
package embedinator

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sidit77/embedinator/internal/coff"
	"github.com/sidit77/embedinator/internal/res"
	"github.com/sidit77/embedinator/internal/rsrc"
)

// iconBaseID is the first builder-internal id handed out to icon frames.
// It sits above the ids callers commonly pick for their icon groups.
const iconBaseID = 128

// PrintlnFunc is used for logging the build progress.
type PrintlnFunc func(format string, args ...interface{})

type key struct {
	typ  Ident
	name Ident
	lang uint16
}

// ResourceBuilder accumulates resources and compiles them into an object
// file. A builder is used once: register everything, then call Finish,
// Bytes or one of the Write methods. It is not safe for concurrent use.
type ResourceBuilder struct {
	arch       Arch
	out        string
	entries    []rsrc.Entry
	keys       map[key]struct{}
	nextIconID int
	version    *VersionInfo
	logf       PrintlnFunc
}

// New returns a builder targeting the given architecture. The default
// output path is rsrc_windows_<arch>.syso in the working directory.
func New(arch Arch) *ResourceBuilder {
	return &ResourceBuilder{
		arch:       arch,
		out:        fmt.Sprintf("rsrc_windows_%s.syso", arch),
		keys:       make(map[key]struct{}),
		nextIconID: iconBaseID,
		logf:       func(string, ...interface{}) {},
	}
}

// FromEnv returns a builder configured from the build environment:
// the target architecture is taken from the GOARCH variable, falling back
// to the runtime's own architecture.
func FromEnv() (*ResourceBuilder, error) {
	goarch := os.Getenv("GOARCH")
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	arch, err := ParseArch(goarch)
	if err != nil {
		return nil, err
	}
	return New(arch), nil
}

// SetOutput changes the path Finish writes to.
func (b *ResourceBuilder) SetOutput(path string) *ResourceBuilder {
	b.out = path
	return b
}

// SetLogger installs a logging callback reporting the build progress.
func (b *ResourceBuilder) SetLogger(logf PrintlnFunc) *ResourceBuilder {
	if logf == nil {
		logf = func(string, ...interface{}) {}
	}
	b.logf = logf
	return b
}

// AddResource registers an arbitrary resource. Every (type, name, language)
// combination may only be registered once; the payload must be non-empty.
func (b *ResourceBuilder) AddResource(typ, name Ident, lang uint16, data []byte) error {
	return b.register(typ, name, lang, data)
}

// AddManifest registers the application manifest, by convention manifest
// resource 1 in the neutral language.
func (b *ResourceBuilder) AddManifest(text string) error {
	if err := b.register(TypeManifest, ID(1), LangNeutral, []byte(text)); err != nil {
		return fmt.Errorf("manifest: %w", err)
	}
	b.logf("Added manifest (%d bytes)", len(text))
	return nil
}

// AddIcon registers an icon under the given group id. Each frame becomes an
// icon resource with a builder-internal id, and one icon-group resource
// under id describes all frames. Frame order is preserved.
func (b *ResourceBuilder) AddIcon(id uint16, icon *Icon) error {
	if err := icon.validate(); err != nil {
		return fmt.Errorf("icon %d: %w", id, err)
	}
	frames := icon.frames
	if b.nextIconID+len(frames) > 0x10000 {
		return fmt.Errorf("icon %d: out of frame ids: %w", id, ErrIconTooLarge)
	}

	frameIDs := make([]uint16, len(frames))
	keys := []key{{TypeGroupIcon, ID(uint32(id)), LangNeutral}}
	for i := range frames {
		frameIDs[i] = uint16(b.nextIconID + i)
		keys = append(keys, key{TypeIcon, ID(uint32(frameIDs[i])), LangNeutral})
	}
	// Check every key up front so a failing call leaves no partial state.
	for _, k := range keys {
		if _, ok := b.keys[k]; ok {
			return fmt.Errorf("icon %d: resource %s/%s: %w", id, k.typ, k.name, ErrDuplicateKey)
		}
	}

	for i, f := range frames {
		if err := b.register(TypeIcon, ID(uint32(frameIDs[i])), LangNeutral, f.Data); err != nil {
			return fmt.Errorf("icon %d frame %d: %w", id, i, err)
		}
	}
	if err := b.register(TypeGroupIcon, ID(uint32(id)), LangNeutral, icon.groupData(frameIDs)); err != nil {
		return fmt.Errorf("icon %d: %w", id, err)
	}
	b.nextIconID += len(frames)
	b.logf("Added icon %d (%d frames)", id, len(frames))
	return nil
}

// SetFileVersion sets the binary file version of the version resource.
func (b *ResourceBuilder) SetFileVersion(v Version) *ResourceBuilder {
	b.versionInfo().FileVersion = v
	return b
}

// SetProductVersion sets the binary product version of the version resource.
func (b *ResourceBuilder) SetProductVersion(v Version) *ResourceBuilder {
	b.versionInfo().ProductVersion = v
	return b
}

// SetFileType declares the binary as an application or a DLL.
func (b *ResourceBuilder) SetFileType(t FileType) *ResourceBuilder {
	b.versionInfo().FileType = t
	return b
}

// AddFileFlags adds status flags to the version resource.
func (b *ResourceBuilder) AddFileFlags(flags FileFlag) *ResourceBuilder {
	b.versionInfo().Flags |= flags
	return b
}

// AddVersionString adds a key/value pair to the version resource's string
// table, e.g. "ProductName" or "FileDescription".
func (b *ResourceBuilder) AddVersionString(key, value string) *ResourceBuilder {
	vi := b.versionInfo()
	if vi.Strings == nil {
		vi.Strings = make(map[string]string)
	}
	vi.Strings[key] = value
	return b
}

func (b *ResourceBuilder) versionInfo() *VersionInfo {
	if b.version == nil {
		b.version = &VersionInfo{}
	}
	return b.version
}

// register validates and stores one resource entry. The payload is copied,
// so callers may reuse their buffer afterwards.
func (b *ResourceBuilder) register(typ, name Ident, lang uint16, data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("resource %s/%s: empty payload: %w", typ, name, ErrInvalidResource)
	}
	k := key{typ, name, lang}
	if _, ok := b.keys[k]; ok {
		return fmt.Errorf("resource %s/%s lang %d: %w", typ, name, lang, ErrDuplicateKey)
	}
	b.keys[k] = struct{}{}
	b.entries = append(b.entries, rsrc.Entry{
		Type: typ.rsrc(),
		Name: name.rsrc(),
		Lang: lang,
		Data: append([]byte(nil), data...),
	})
	return nil
}

// assemble returns the final entry set, materializing the version resource
// if any version field was set.
func (b *ResourceBuilder) assemble() ([]rsrc.Entry, error) {
	entries := b.entries
	if b.version != nil {
		k := key{TypeVersion, ID(1), LangNeutral}
		if _, ok := b.keys[k]; ok {
			return nil, fmt.Errorf("version resource: %w", ErrDuplicateKey)
		}
		data, err := b.version.payload()
		if err != nil {
			return nil, fmt.Errorf("version resource: %w", err)
		}
		entries = append(entries[:len(entries):len(entries)], rsrc.Entry{
			Type: TypeVersion.rsrc(),
			Name: ID(1).rsrc(),
			Lang: LangNeutral,
			Data: data,
		})
	}
	return entries, nil
}

// Bytes compiles all registered resources into a complete object file.
func (b *ResourceBuilder) Bytes() ([]byte, error) {
	entries, err := b.assemble()
	if err != nil {
		return nil, err
	}
	dir, err := rsrc.Build(entries)
	if err != nil {
		return nil, err
	}
	b.logf("Compiled %d resources (%d directory bytes, %d data bytes)",
		len(entries), len(dir.Table), len(dir.Data))
	return coff.Bytes(b.arch.target(), dir)
}

// WriteObject compiles the object file and writes it to w.
func (b *ResourceBuilder) WriteObject(w io.Writer) error {
	obj, err := b.Bytes()
	if err != nil {
		return err
	}
	if _, err := w.Write(obj); err != nil {
		return fmt.Errorf("write object: %w", err)
	}
	return nil
}

// WriteRes writes the resources in the .res file format instead of a
// linkable object.
func (b *ResourceBuilder) WriteRes(w io.Writer) error {
	entries, err := b.assemble()
	if err != nil {
		return err
	}
	return res.Write(w, entries)
}

// Finish compiles the object file and writes it to the output path.
// A partially written file is removed, so a failed build can never leave a
// truncated object behind for a later link step to pick up.
func (b *ResourceBuilder) Finish() error {
	obj, err := b.Bytes()
	if err != nil {
		return err
	}
	b.logf("Writing %q (%d bytes)", b.out, len(obj))

	f, err := os.Create(b.out)
	if err != nil {
		return fmt.Errorf("create %q: %w", b.out, err)
	}
	_, werr := f.Write(obj)
	cerr := f.Close()
	if werr == nil {
		werr = cerr
	}
	if werr != nil {
		_ = os.Remove(b.out)
		return fmt.Errorf("write %q: %w", b.out, werr)
	}
	return nil
}
