package mib

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText returns the stored form of a Text value: s with invalid
// UTF-8 sequences dropped. Code points are otherwise kept as given, so a
// decomposed "e" + U+0301 stays two characters.
func NormalizeText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "")
}

// CharCount returns the number of code points in the stored form of s.
func CharCount(s string) int {
	return utf8.RuneCountInString(NormalizeText(s))
}

// Composed reports whether s is already in Unicode NFC. Values are stored
// and measured as given either way; the store logs uncomposed writes since
// they count more characters than they display.
func Composed(s string) bool {
	return norm.NFC.IsNormalString(s)
}
