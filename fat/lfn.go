package fat

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/aligator/akaifat/checkpoint"
	"golang.org/x/text/encoding/unicode"
)

const maxLongNameLength = 255

var (
	utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

	illegalLongNameChars = mustASCIISet(`"*/:<>?\|`)
)

// checkLongName validates a name which is only stored in LFN slots.
func checkLongName(name string) error {
	if name == "" || name == "." || name == ".." {
		return checkpoint.Wrapf(ErrInvalidName, "invalid name %q", name)
	}
	if !utf8.ValidString(name) {
		return checkpoint.Wrapf(ErrInvalidName, "name %q is not valid UTF-8", name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x20 || illegalLongNameChars.Contains(c) {
			return checkpoint.Wrapf(ErrInvalidName, "illegal character %q in %q", c, name)
		}
	}

	units, err := encodeUTF16(name)
	if err != nil {
		return err
	}
	if len(units) > maxLongNameLength {
		return checkpoint.Wrapf(ErrInvalidName, "name %q has more than %d characters", name, maxLongNameLength)
	}
	return nil
}

func encodeUTF16(s string) ([]uint16, error) {
	b, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, checkpoint.Wrapf(ErrInvalidName, "cannot encode %q: %w", s, err)
	}

	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return units, nil
}

func decodeUTF16(units []uint16) (string, error) {
	b := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(b[2*i:], u)
	}

	s, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return "", checkpoint.Wrapf(ErrInvalidName, "cannot decode long name: %w", err)
	}
	return string(s), nil
}

// lfnSlotCount is the number of LFN slots needed for name, without the real entry.
func lfnSlotCount(name string) int {
	units, err := encodeUTF16(name)
	if err != nil {
		return 0
	}
	return (len(units) + lfnCharsPerSlot - 1) / lfnCharsPerSlot
}

// encodeLfn creates the LFN slots for name in the order they are stored,
// i.e. the slot with the last part of the name comes first.
func encodeLfn(name string, checksum byte) ([]*DirectoryEntry, error) {
	units, err := encodeUTF16(name)
	if err != nil {
		return nil, err
	}
	if len(units) == 0 || len(units) > maxLongNameLength {
		return nil, checkpoint.Wrapf(ErrInvalidName, "long name %q must have 1 to %d characters", name, maxLongNameLength)
	}

	n := (len(units) + lfnCharsPerSlot - 1) / lfnCharsPerSlot
	slots := make([]*DirectoryEntry, n)
	for j := 0; j < n; j++ {
		end := (j + 1) * lfnCharsPerSlot
		if end > len(units) {
			end = len(units)
		}
		slots[n-1-j] = newLfnSlot(units[j*lfnCharsPerSlot:end], j+1, j == n-1, checksum)
	}
	return slots, nil
}

func newLfnSlot(chunk []uint16, ordinal int, last bool, checksum byte) *DirectoryEntry {
	e := &DirectoryEntry{dirty: true}

	ord := byte(ordinal)
	if last {
		ord |= lfnLastFlag
	}
	e.data[lfnOrdinal] = ord
	e.data[lfnAttr] = AttrLfn
	e.data[lfnType] = 0
	e.data[lfnChecksum] = checksum
	binary.LittleEndian.PutUint16(e.data[lfnZero:], 0)

	for i, offset := range lfnCharOffsets {
		var u uint16
		switch {
		case i < len(chunk):
			u = chunk[i]
		case i == len(chunk):
			u = 0x0000
		default:
			u = 0xFFFF
		}
		binary.LittleEndian.PutUint16(e.data[offset:], u)
	}
	return e
}

func (e *DirectoryEntry) lfnUnits() []uint16 {
	units := make([]uint16, 0, lfnCharsPerSlot)
	for _, offset := range lfnCharOffsets {
		units = append(units, binary.LittleEndian.Uint16(e.data[offset:]))
	}
	return units
}

// decodeLfn reconstructs the long name stored in slots, which precede real
// on disk. Ordinals, the last flag and every checksum have to match.
func decodeLfn(slots []*DirectoryEntry, real *DirectoryEntry) (string, error) {
	checksum := real.ShortName().Checksum()
	n := len(slots)

	var units []uint16
	for i := n - 1; i >= 0; i-- {
		slot := slots[i]
		ordinal := int(slot.data[lfnOrdinal] &^ lfnLastFlag)
		if ordinal != n-i {
			return "", checkpoint.Wrapf(ErrCorrupted, "LFN slot has ordinal %d, expected %d", ordinal, n-i)
		}
		if last := slot.data[lfnOrdinal]&lfnLastFlag != 0; last != (i == 0) {
			return "", checkpoint.Wrapf(ErrCorrupted, "LFN slot %d has a wrong last flag", ordinal)
		}
		if slot.data[lfnChecksum] != checksum {
			return "", checkpoint.Wrapf(ErrCorrupted, "LFN checksum %#02x does not match %#02x of %q", slot.data[lfnChecksum], checksum, real.ShortName().String())
		}
		units = append(units, slot.lfnUnits()...)
	}

	for i, u := range units {
		if u == 0x0000 || u == 0xFFFF {
			units = units[:i]
			break
		}
	}
	if len(units) == 0 {
		return "", checkpoint.Wrapf(ErrCorrupted, "empty long name for %q", real.ShortName().String())
	}

	return decodeUTF16(units)
}
