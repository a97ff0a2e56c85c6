// Package textmatch fuzzy-compares a transcript against an expected sentence.
package textmatch

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Score returns a similarity in [0, 1] between the expected sentence and the
// actual transcript, tolerant of transcription noise. Both strings are
// lower-cased and punctuation-stripped before a normalized edit distance is
// computed; a token-sorted variant absorbs word-order flips. The policy
// threshold is supplied by the caller, not hard-coded here.
func Score(expected, actual string) float64 {
	e := normalize(expected)
	a := normalize(actual)

	if e == "" && a == "" {
		return 1
	}
	if e == "" || a == "" {
		return 0
	}

	s := ratio(e, a)
	if ts := ratio(sortTokens(e), sortTokens(a)); ts > s {
		s = ts
	}
	return s
}

// ratio is a normalized edit-distance similarity: 1 - dist/maxLen.
func ratio(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// normalize lower-cases, strips punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func sortTokens(s string) string {
	toks := strings.Fields(s)
	sort.Strings(toks)
	return strings.Join(toks, " ")
}
