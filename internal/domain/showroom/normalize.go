package showroom

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeText lower-cases s, strips punctuation and collapses whitespace.
// Other symbols become word separators. Diacritics are preserved.
func NormalizeText(s string) string {
	s = cases.Lower(language.Und).String(norm.NFC.String(s))

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			sb.WriteRune(r)
		case unicode.IsPunct(r):
			// dropped
		default:
			sb.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// NormalizeCity is the normalization applied to city names.
func NormalizeCity(s string) string { return NormalizeText(s) }

// BrandKey folds a brand name into a dictionary-safe key:
// lower-case, every run of non letters/digits collapsed to a single underscore.
func BrandKey(s string) string {
	s = cases.Lower(language.Und).String(norm.NFC.String(s))

	var sb strings.Builder
	sb.Grow(len(s))
	gap := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r) {
			if gap && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			gap = false
			sb.WriteRune(r)
			continue
		}
		gap = true
	}
	return sb.String()
}
