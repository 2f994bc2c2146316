package fat

import (
	"strconv"
	"strings"

	"github.com/aligator/akaifat/checkpoint"
)

const maxAliasSerial = 999999

// aliasChars are kept as they are in a generated short name, everything else becomes '_'.
var aliasChars = mustASCIISet("!#$%&'()-0123456789@ABCDEFGHIJKLMNOPQRSTUVWXYZ^_`{}~")

func tidyAlias(s string) (tidy string, clean bool) {
	var b strings.Builder
	clean = true
	for _, r := range strings.ToUpper(s) {
		if r == '.' || r == ' ' {
			clean = false
			continue
		}
		if r < 0x80 && aliasChars.Contains(byte(r)) {
			b.WriteRune(r)
			continue
		}
		clean = false
		b.WriteByte('_')
	}
	return b.String(), clean
}

// generateAlias derives a short name for a long name. taken reports whether
// a candidate short name (as "NAME.EXT") is already used in the directory.
func generateAlias(long string, taken func(string) bool) (ShortName, error) {
	long = strings.TrimLeft(long, ".")

	base, ext := long, ""
	if i := strings.LastIndexByte(long, '.'); i >= 0 {
		base, ext = long[:i], long[i+1:]
	}

	base, clean := tidyAlias(base)
	ext, _ = tidyAlias(ext)
	if len(ext) > shortExtLength {
		ext = ext[:shortExtLength]
	}

	if clean && base != "" && len(base) <= shortBaseLength {
		if s, err := newShortName(base, ext); err == nil && !taken(s.String()) {
			return s, nil
		}
	}

	for i := 1; i <= maxAliasSerial; i++ {
		serial := "~" + strconv.Itoa(i)
		prefix := base
		if room := shortBaseLength - len(serial); len(prefix) > room {
			prefix = prefix[:room]
		}

		s, err := newShortName(prefix+serial, ext)
		if err != nil {
			return ShortName{}, err
		}
		if !taken(s.String()) {
			return s, nil
		}
	}

	return ShortName{}, checkpoint.Wrapf(ErrNameInUse, "no free short name for %q", long)
}
