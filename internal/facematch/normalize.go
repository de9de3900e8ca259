package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics strips diacritical marks ("Jiří" becomes "Jiri") so user
// search works regardless of how a name was typed.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

// NormalizePersonName folds a person name into a canonical search form:
// lowercase, no diacritics, dashes treated as spaces.
func NormalizePersonName(name string) string {
	name = strings.ToLower(RemoveDiacritics(name))
	return strings.ReplaceAll(name, "-", " ")
}
