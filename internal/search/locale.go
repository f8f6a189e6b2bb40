package search

import (
	"strings"

	"github.com/timmy/gemstore/internal/textsearch"
)

// Supported locales.
const (
	LocaleEN = "en"
	LocaleRU = "ru"
)

const (
	cyrillicFirst = 'Ѐ'
	cyrillicLast  = 'ӿ'
)

// DetectLocale resolves the search locale for a query.
// An explicit "en" or "ru" override wins; other overrides are ignored.
// Blank queries resolve to "en". A single Cyrillic rune anywhere in the
// query makes it "ru".
func DetectLocale(query, override string) string {
	if l, ok := normalizeLocale(override); ok {
		return l
	}
	if strings.TrimSpace(query) == "" {
		return LocaleEN
	}
	if containsCyrillic(query) {
		return LocaleRU
	}
	return LocaleEN
}

// LanguageFor returns the text-search configuration for a resolved locale.
func LanguageFor(locale string) textsearch.Language {
	return textsearch.LanguageForLocale(locale)
}

func normalizeLocale(locale string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case LocaleEN:
		return LocaleEN, true
	case LocaleRU:
		return LocaleRU, true
	}
	return "", false
}

func containsCyrillic(text string) bool {
	for _, r := range text {
		if r >= cyrillicFirst && r <= cyrillicLast {
			return true
		}
	}
	return false
}
