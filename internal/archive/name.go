package archive

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Suffix appended to every archive name.
const nameSuffix = "_instaloader.zip"

// Name derives the downloadable archive name from the raw target: accents
// are folded to their base letters, then every character outside
// [A-Za-z0-9] becomes an underscore, then the fixed suffix is appended.
// "john.doe_99" yields "john_doe_99_instaloader.zip".
func Name(target string) string {
	s := removeAccents(strings.TrimSpace(target))

	var b strings.Builder
	b.Grow(len(s) + len(nameSuffix))
	for _, r := range s {
		if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteString(nameSuffix)
	return b.String()
}

func removeAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}
