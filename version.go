package embedinator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/sidit77/embedinator/internal/binbuf"
)

// Version is a four-part file or product version number.
type Version struct {
	Major uint16
	Minor uint16
	Patch uint16
	Build uint16
}

// ParseVersion parses a dotted version string with up to four components,
// e.g. "1.2.3" or "1.2.3.4"; missing components are zero.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) > 4 {
		return Version{}, fmt.Errorf("invalid version %q: too many components", s)
	}
	var nums [4]uint16
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		nums[i] = uint16(n)
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2], Build: nums[3]}, nil
}

// FileType states what kind of binary the version information describes.
type FileType uint32

const (
	FileTypeApp FileType = 1 // VFT_APP
	FileTypeDLL FileType = 2 // VFT_DLL
)

// FileFlag bits indicate the file's build status. Combine with |.
type FileFlag uint32

const (
	FileFlagDebug        FileFlag = 0x01
	FileFlagPrerelease   FileFlag = 0x02
	FileFlagPatched      FileFlag = 0x04
	FileFlagPrivateBuild FileFlag = 0x08
	FileFlagSpecialBuild FileFlag = 0x20
)

// VersionInfo collects everything that goes into a VS_VERSIONINFO resource.
type VersionInfo struct {
	FileVersion    Version
	ProductVersion Version
	FileType       FileType
	Flags          FileFlag
	Strings        map[string]string
}

// Version-info field types.
const (
	fieldBinary uint16 = 0
	fieldText   uint16 = 1
)

// payload serializes the VS_VERSIONINFO structure: the fixed info block,
// a StringFileInfo table with the string entries in sorted key order, and
// a VarFileInfo block declaring the neutral-language Unicode translation.
// Record lengths are 16-bit fields, so an oversized string entry fails the
// whole serialization instead of producing a corrupt resource.
func (v *VersionInfo) payload() ([]byte, error) {
	var buf binbuf.Buffer
	w := versionWriter{buf: &buf}

	w.field(fieldBinary, "VS_VERSION_INFO", func() { v.writeFixedInfo(&buf) }, func() {
		if len(v.Strings) > 0 {
			w.field(fieldText, "StringFileInfo", nil, func() {
				w.field(fieldText, "000004b0", nil, func() {
					keys := make([]string, 0, len(v.Strings))
					for k := range v.Strings {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					for _, k := range keys {
						w.stringField(k, v.Strings[k])
					}
				})
			})
		}
		w.field(fieldText, "VarFileInfo", nil, func() {
			w.field(fieldBinary, "Translation", func() {
				buf.WriteU32(0x04b00000) // language 0, charset 0x04b0 (Unicode)
			}, func() {})
		})
	})
	buf.Align(4)
	if w.err != nil {
		return nil, w.err
	}
	return buf.Bytes(), nil
}

// writeFixedInfo emits the 52-byte VS_FIXEDFILEINFO block.
func (v *VersionInfo) writeFixedInfo(buf *binbuf.Buffer) {
	buf.WriteU32(0xFEEF04BD) // dwSignature
	buf.WriteU32(1 << 16)    // dwStrucVersion

	buf.WriteU16(v.FileVersion.Minor)
	buf.WriteU16(v.FileVersion.Major)
	buf.WriteU16(v.FileVersion.Build)
	buf.WriteU16(v.FileVersion.Patch)

	buf.WriteU16(v.ProductVersion.Minor)
	buf.WriteU16(v.ProductVersion.Major)
	buf.WriteU16(v.ProductVersion.Build)
	buf.WriteU16(v.ProductVersion.Patch)

	buf.WriteU32(0x3F) // dwFileFlagsMask
	buf.WriteU32(uint32(v.Flags))
	buf.WriteU32(0x00040004) // dwFileOS: VOS_NT_WINDOWS32
	fileType := v.FileType
	if fileType == 0 {
		fileType = FileTypeApp
	}
	buf.WriteU32(uint32(fileType))
	buf.WriteU32(0) // dwFileSubtype
	buf.WriteU32(0) // dwFileDateMS
	buf.WriteU32(0) // dwFileDateLS
}

// versionWriter emits the recursive length-prefixed field records that make
// up a version resource. Field and value lengths are only known after the
// nested content is written, so they are reserved and patched. The first
// length that does not fit its 16-bit field is kept as err; once set, the
// produced bytes must not be used.
type versionWriter struct {
	buf *binbuf.Buffer
	err error
}

// patchLen writes a record or value length, which the format limits to
// 16 bits.
func (w *versionWriter) patchLen(pos, n int, key string) {
	if n > 0xFFFF && w.err == nil {
		w.err = fmt.Errorf("version field %q is %d bytes, exceeding the 16-bit record length: %w",
			key, n, ErrInvalidResource)
	}
	w.buf.PatchU16(pos, uint16(n))
}

func (w *versionWriter) field(typ uint16, key string, header func(), body func()) {
	w.buf.Align(4)
	fieldStart := w.buf.Len()
	lengthPos := w.buf.ReserveU16()
	valueLenPos := w.buf.ReserveU16()
	w.buf.WriteU16(typ)
	w.buf.WriteUTF16(key)
	w.buf.Align(4)

	if header != nil {
		headerStart := w.buf.Len()
		header()
		w.patchLen(valueLenPos, w.buf.Len()-headerStart, key)
		w.buf.Align(4)
	}
	body()
	w.patchLen(lengthPos, w.buf.Len()-fieldStart, key)
}

// stringField emits one String record of a StringTable. The value length
// is counted in UTF-16 units including the terminator.
func (w *versionWriter) stringField(key, value string) {
	w.buf.Align(4)
	fieldStart := w.buf.Len()
	lengthPos := w.buf.ReserveU16()
	valueLenPos := w.buf.ReserveU16()
	w.buf.WriteU16(fieldText)
	w.buf.WriteUTF16(key)
	w.buf.Align(4)
	w.buf.WriteUTF16(value)
	w.patchLen(valueLenPos, len(utf16.Encode([]rune(value)))+1, key)
	w.patchLen(lengthPos, w.buf.Len()-fieldStart, key)
}
