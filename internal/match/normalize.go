package match

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize uppercases, strips diacritics and collapses whitespace so that
// "Juan Pérez" and "JUAN  PEREZ" compare equal.
func Normalize(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToUpper(folded)), " ")
}

// FoldAccents strips diacritics without changing case: "Pérez" -> "Perez".
func FoldAccents(s string) string {
	folded, _, err := transform.String(accentFolder, s)
	if err != nil {
		return s
	}
	return folded
}

// NormalizeReceipt trims a receipt number down to its comparable form:
// uppercase, no spaces, leading zeros preserved.
func NormalizeReceipt(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.TrimSpace(s))), "")
}
