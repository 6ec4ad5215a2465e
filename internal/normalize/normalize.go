// Package normalize cleans free text before it is stored or used as a key.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches runs of any whitespace, including newlines and tabs.
	whitespaceRun = regexp.MustCompile(`\s+`)
	// Matches any character that is not a lowercase letter or digit.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// Text composes unicode (NFC), trims, and collapses inner whitespace runs to
// a single space. "  Cafe \n de Flore " -> "Cafe de Flore".
func Text(s string) string {
	s = norm.NFC.String(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Paragraph composes unicode (NFC) and trims surrounding whitespace, but keeps
// line breaks. Used for descriptions.
func Paragraph(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// AddressKey folds an address into a comparison key: accents stripped,
// lowercased, punctuation collapsed.
// "20 W. 34th St., New York" -> "20 w 34th st new york".
func AddressKey(s string) string {
	// Decompose so accents become separate combining marks, then drop them.
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, " ")
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
