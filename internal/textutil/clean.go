package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveAccents decomposes text and drops combining marks, so "José" becomes
// "Jose". Characters without a decomposition are left untouched.
func RemoveAccents(text string) string {
	if text == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, text)
	if err != nil {
		return text
	}
	return out
}

// Clean lowercases text, strips diacritics and keeps only letters and digits.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	stripped := RemoveAccents(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TitleCase title-cases a whitespace separated phrase.
func TitleCase(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return cases.Title(language.Und).String(text)
}
