package textclf

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// minTokenLen is the shortest word kept as a feature, in runes.
const minTokenLen = 2

// analyze turns text into the word tokens used as vocabulary terms: control
// characters removed, lowercased, accents stripped, split on every rune that
// is not a letter, digit or underscore, and single-rune words dropped.
func analyze(text string) []string {
	text = stripAccents(strings.ToLower(cleanText(text)))

	var tokens []string
	var current strings.Builder
	n := 0
	flush := func() {
		if n >= minTokenLen {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		n = 0
	}
	for _, r := range text {
		if isWordRune(r) {
			current.WriteRune(r)
			n++
			continue
		}
		flush()
	}
	flush()
	return tokens
}

// cleanText removes control characters and replaces whitespace with spaces.
func cleanText(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == 0 || r == 0xFFFD || isControl(r) {
			continue
		}
		if isWhitespace(r) {
			b.WriteRune(' ')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// stripAccents removes combining diacritical marks after NFD normalization.
func stripAccents(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range norm.NFD.String(text) {
		if unicode.In(r, unicode.Mn) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isWhitespace(r rune) bool {
	if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

func isControl(r rune) bool {
	if r == '\t' || r == '\n' || r == '\r' {
		return false
	}
	return unicode.IsControl(r)
}
