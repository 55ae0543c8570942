// Package gram extracts word-based (n-gram) and character-based (k-gram)
// candidates from a line.
package gram

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// WordGrams returns every window of minLength..maxLength whitespace-separated
// words, joined by a single space, ordered by window length then start.
func WordGrams(line string, minLength, maxLength int) []string {
	words := strings.Fields(line)
	if maxLength > len(words) {
		maxLength = len(words)
	}

	var out []string
	for n := minLength; n <= maxLength; n++ {
		for i := 0; i+n <= len(words); i++ {
			out = append(out, strings.Join(words[i:i+n], " "))
		}
	}
	return out
}

// Variants returns extra spellings of a gram: lowercased, and folded to
// base letters with punctuation and symbols removed. Variants equal to the
// gram (or to each other) and empty variants are skipped.
func Variants(gram string) []string {
	var out []string
	seen := map[string]bool{gram: true}

	add := func(v string) {
		if v == "" || seen[v] {
			return
		}
		seen[v] = true
		out = append(out, v)
	}

	lower := strings.ToLower(gram)
	add(lower)
	add(stripSpecial(lower))

	return out
}

// stripSpecial decomposes the text, drops combining marks and removes
// punctuation and symbols. Spaces left at the edges are trimmed and inner
// runs of spaces collapsed.
func stripSpecial(s string) string {
	decomposed := norm.NFD.String(s)
	clean := strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, decomposed)
	return strings.Join(strings.Fields(norm.NFC.String(clean)), " ")
}
