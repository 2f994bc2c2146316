package fat

import (
	"strings"

	"github.com/aligator/akaifat/checkpoint"
	"github.com/elliotwutingfeng/asciiset"
)

const (
	shortNameLength = 11
	shortBaseLength = 8
	shortExtLength  = 3

	asciiSpace = 0x20
	// deletedMarker escape used when a name really starts with 0xE5.
	e5Escape = 0x05
)

var illegalShortNameChars = mustASCIISet(`"*+,./:;<=>?[\]|`)

func mustASCIISet(chars string) asciiset.ASCIISet {
	set, ok := asciiset.MakeASCIISet(chars)
	if !ok {
		panic("non ascii characters in set " + chars)
	}
	return set
}

// ShortName is the 11 byte 8.3 name of a directory entry.
type ShortName struct {
	raw [shortNameLength]byte
}

var (
	DotName    = rawShortName(".")
	DotDotName = rawShortName("..")
)

func rawShortName(name string) ShortName {
	var s ShortName
	copy(s.raw[:], padRight(name, shortNameLength, asciiSpace))
	return s
}

// NewShortName converts a name like "FOO.BAR" into a short name.
// The name is upper-cased; base and extension are split at the last dot.
func NewShortName(name string) (ShortName, error) {
	if len(name) > shortBaseLength+1+shortExtLength {
		return ShortName{}, checkpoint.Wrapf(ErrInvalidName, "name %q too long for a short name", name)
	}

	base, ext := name, ""
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		base, ext = name[:i], name[i+1:]
	}
	return newShortName(base, ext)
}

func newShortName(base, ext string) (ShortName, error) {
	if len(base) < 1 || len(base) > shortBaseLength {
		return ShortName{}, checkpoint.Wrapf(ErrInvalidName, "short name %q must have 1 to %d characters", base, shortBaseLength)
	}
	if len(ext) > shortExtLength {
		return ShortName{}, checkpoint.Wrapf(ErrInvalidName, "extension %q has more than %d characters", ext, shortExtLength)
	}

	var s ShortName
	for i := range s.raw {
		s.raw[i] = asciiSpace
	}
	if err := putUpper(s.raw[:shortBaseLength], base); err != nil {
		return ShortName{}, err
	}
	if err := putUpper(s.raw[shortBaseLength:], ext); err != nil {
		return ShortName{}, err
	}

	if err := checkShortNameChars(s.raw[:]); err != nil {
		return ShortName{}, err
	}
	return s, nil
}

// putUpper stores the upper-cased runes of s as single bytes.
func putUpper(dst []byte, s string) error {
	i := 0
	for _, r := range strings.ToUpper(s) {
		if r > 0xFF {
			return checkpoint.Wrapf(ErrInvalidName, "multi-byte character %q in %q", r, s)
		}
		if i >= len(dst) {
			return checkpoint.Wrapf(ErrInvalidName, "%q does not fit into %d bytes", s, len(dst))
		}
		dst[i] = byte(r)
		i++
	}
	return nil
}

func checkShortNameChars(chars []byte) error {
	if chars[0] == asciiSpace {
		return checkpoint.Wrapf(ErrInvalidName, "short name must not start with a space")
	}
	return checkNameChars(chars)
}

// checkNameChars is shared by short names and Akai parts.
func checkNameChars(chars []byte) error {
	for i, c := range chars {
		if c < 0x20 && c != e5Escape {
			return checkpoint.Wrapf(ErrInvalidName, "control character %#02x at %d", c, i)
		}
		if illegalShortNameChars.Contains(c) {
			return checkpoint.Wrapf(ErrInvalidName, "illegal character %q at %d", c, i)
		}
	}
	return nil
}

// CanConvert reports whether name is a valid short name.
func CanConvert(name string) bool {
	_, err := NewShortName(name)
	return err == nil
}

func parseShortName(data []byte) ShortName {
	var s ShortName
	copy(s.raw[:], data[:shortNameLength])
	return s
}

func (s ShortName) write(dst []byte) {
	copy(dst, s.raw[:])
}

func decodeLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes)
}

// Name is the base name without padding.
func (s ShortName) Name() string {
	base := s.raw[:shortBaseLength]
	if base[0] == e5Escape {
		base = append([]byte{0xE5}, base[1:]...)
	}
	return strings.TrimRight(decodeLatin1(base), " ")
}

// Ext is the extension without padding.
func (s ShortName) Ext() string {
	return strings.TrimRight(decodeLatin1(s.raw[shortBaseLength:]), " ")
}

// String returns "NAME.EXT" or "NAME" if there is no extension.
func (s ShortName) String() string {
	if ext := s.Ext(); ext != "" {
		return s.Name() + "." + ext
	}
	return s.Name()
}

// Checksum is the checksum stored in all LFN slots belonging to this name.
func (s ShortName) Checksum() byte {
	var sum byte
	for _, b := range s.raw {
		sum = (sum&1)<<7 + sum>>1 + b
	}
	return sum
}
