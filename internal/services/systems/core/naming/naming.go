// Package naming derives stable, URL-safe identifiers from display names.
package naming

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyName is returned when a name has no letters or digits to derive
// an identifier from.
var ErrEmptyName = errors.New("name has no usable characters")

// DeriveID converts a display name into a lowercase slug: accents are
// folded, runs of whitespace, hyphens and underscores become one hyphen,
// and other punctuation is dropped ("Star Wars" -> "star-wars").
//
// Names that differ only by case or spacing derive the same identifier;
// storage rejects the second writer.
func DeriveID(name string) (string, error) {
	folded := foldAccents(cases.Lower(language.Und).String(strings.TrimSpace(name)))

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingSep = true
		}
	}
	if b.Len() == 0 {
		return "", ErrEmptyName
	}
	return b.String(), nil
}

func foldAccents(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}
