package textsearch

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Language identifies a text-search configuration.
type Language string

const (
	English Language = "english"
	Russian Language = "russian"
)

// LanguageForLocale maps a storefront locale to its text-search configuration.
// Unknown locales use English.
func LanguageForLocale(locale string) Language {
	if strings.EqualFold(strings.TrimSpace(locale), "ru") {
		return Russian
	}
	return English
}

// token is a normalized lexeme with its 1-based position in the source text.
type token struct {
	lexeme   string
	position int
}

// stripMarks removes combining marks from a decomposed non-Cyrillic rune.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Unaccent lowercases text and removes combining marks from Latin and other
// non-Cyrillic letters. Among Cyrillic letters only ё folds to е; й keeps its
// breve so Russian stemming still sees adjective endings.
func Unaccent(text string) string {
	lower := norm.NFC.String(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		switch {
		case r == 'ё':
			b.WriteRune('е')
		case r < utf8.RuneSelf || unicode.Is(unicode.Cyrillic, r):
			b.WriteRune(r)
		default:
			out, _, err := transform.String(stripMarks, string(r))
			if err != nil {
				out = string(r)
			}
			b.WriteString(out)
		}
	}
	return b.String()
}

// NormalizeWhitespace collapses runs of whitespace into single spaces.
func NormalizeWhitespace(text string) string {
	if text == "" {
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}

// Normalize returns the lexemes produced from text by the given configuration.
// Stop words are dropped.
func Normalize(lang Language, text string) []string {
	tokens := tokenize(lang, text)
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.lexeme
	}
	return out
}

// tokenize splits text into words on any rune that is not a letter or digit.
// Stop words still consume a position, as in Postgres parsers. Under the
// Russian configuration, words without Cyrillic letters use the English rules.
func tokenize(lang Language, text string) []token {
	words := strings.FieldsFunc(Unaccent(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]token, 0, len(words))
	for i, word := range words {
		wordLang := lang
		if lang == Russian && !hasCyrillic(word) {
			wordLang = English
		}
		if isStopWord(wordLang, word) {
			continue
		}
		tokens = append(tokens, token{lexeme: stem(wordLang, word), position: i + 1})
	}
	return tokens
}

func stem(lang Language, word string) string {
	if isNumeric(word) {
		return word
	}
	stemmed, err := snowball.Stem(word, string(lang), true)
	if err != nil || stemmed == "" {
		return word
	}
	return stemmed
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func hasCyrillic(word string) bool {
	for _, r := range word {
		if unicode.Is(unicode.Cyrillic, r) {
			return true
		}
	}
	return false
}
