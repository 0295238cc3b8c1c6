package common

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeHeader folds a spreadsheet header for alias comparison: accents are
// stripped, letters lowercased and inner whitespace collapsed to single spaces.
func NormalizeHeader(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// EqualsAny reports whether the normalized header equals any of the aliases.
// Aliases are expected to be normalized already.
func EqualsAny(header string, aliases ...string) bool {
	h := NormalizeHeader(header)
	for _, a := range aliases {
		if h == a {
			return true
		}
	}
	return false
}

// IndexOfAny returns the position of the first header matching one of the
// aliases, or -1.
func IndexOfAny(headers []string, aliases ...string) int {
	for i, h := range headers {
		if EqualsAny(h, aliases...) {
			return i
		}
	}
	return -1
}
