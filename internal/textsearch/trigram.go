package textsearch

import (
	"strings"
	"unicode"
)

// Trigrams returns the distinct trigrams of text using pg_trgm rules: each
// word is lowercased and padded with two leading blanks and one trailing blank.
func Trigrams(text string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, word := range words {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			set[string(padded[i:i+3])] = struct{}{}
		}
	}
	return set
}

// Similarity returns the pg_trgm similarity of a and b: shared trigrams
// divided by the size of the union. The result is in [0, 1].
func Similarity(a, b string) float64 {
	ta, tb := Trigrams(a), Trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	shared := 0
	for g := range ta {
		if _, ok := tb[g]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(ta)+len(tb)-shared)
}
