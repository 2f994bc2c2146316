package fat

import (
	"strings"

	"github.com/aligator/akaifat/checkpoint"
)

const (
	akaiPartOffset = 12
	akaiPartLength = 8
)

// akaiChars are the characters the sampler displays in the Akai part.
var akaiChars = mustASCIISet(" !#$%&'()-0123456789@ABCDEFGHIJKLMNOPQRSTUVWXYZ^_`{}~")

// AkaiPart holds up to 8 extra name characters in the otherwise
// reserved bytes 12 to 19 of a directory entry.
type AkaiPart struct {
	raw [akaiPartLength]byte
}

// EmptyAkaiPart is an Akai part of 8 spaces.
var EmptyAkaiPart = AkaiPart{raw: [akaiPartLength]byte{' ', ' ', ' ', ' ', ' ', ' ', ' ', ' '}}

// NewAkaiPart creates an upper-cased, space padded Akai part.
func NewAkaiPart(part string) (AkaiPart, error) {
	if len(part) > akaiPartLength {
		return AkaiPart{}, checkpoint.Wrapf(ErrInvalidName, "Akai part %q has more than %d characters", part, akaiPartLength)
	}

	p := EmptyAkaiPart
	if err := putUpper(p.raw[:], part); err != nil {
		return AkaiPart{}, err
	}
	if err := checkNameChars(p.raw[:]); err != nil {
		return AkaiPart{}, err
	}
	return p, nil
}

// parseAkaiPart reads the Akai part of a raw entry. Bytes the sampler
// would not display, like the zeros of entries written by other systems,
// result in an empty part.
func parseAkaiPart(data []byte) AkaiPart {
	var p AkaiPart
	copy(p.raw[:], data[akaiPartOffset:akaiPartOffset+akaiPartLength])
	for _, c := range p.raw {
		if !akaiChars.Contains(c) {
			return EmptyAkaiPart
		}
	}
	return p
}

func (p AkaiPart) write(dst []byte) {
	copy(dst[akaiPartOffset:], p.raw[:])
}

// String returns the part without padding.
func (p AkaiPart) String() string {
	return strings.TrimSpace(string(p.raw[:]))
}
