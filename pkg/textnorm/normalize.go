// Package textnorm canonicalizes request text into a comparable form.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tatweel is the Arabic elongation mark; it is a letter modifier, not content.
const tatweel = 'ـ'

// Normalize lowercases raw, strips diacritics, replaces everything that is not
// a letter or digit with a space and collapses whitespace. The result is in
// NFC. Letters of every script are kept.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	// Casers and transform chains are stateful; build them per call.
	lowered := cases.Lower(language.Und).String(raw)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lowered)
	if err != nil {
		folded = lowered
	}

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		if r == tatweel {
			continue
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mc, r) {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
			continue
		}
		space = true
	}
	return b.String()
}

// Tokens splits normalized text into words.
func Tokens(normalized string) []string {
	return strings.Fields(normalized)
}
