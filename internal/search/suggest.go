package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/textsearch"
)

const (
	DefaultSuggestionLimit = 5
	MaxSuggestionLimit     = 50
)

// VocabularySource lists the localized display names of every attribute family.
type VocabularySource interface {
	Vocabulary(ctx context.Context, locale string) ([]domain.VocabularyEntry, error)
}

// Suggestion is a "did you mean" candidate.
type Suggestion struct {
	Text       string                 `json:"suggestion"`
	Similarity float64                `json:"similarity"`
	Category   domain.AttributeFamily `json:"category"`
}

// Suggester proposes vocabulary terms similar to a search term.
// It ignores the main search's filters entirely.
type Suggester struct {
	vocab VocabularySource
}

// NewSuggester creates a Suggester over a vocabulary source.
func NewSuggester(vocab VocabularySource) *Suggester {
	return &Suggester{vocab: vocab}
}

// Suggest returns up to limit vocabulary entries whose similarity to term
// exceeds FuzzyThreshold. A blank locale is detected from the term.
func (s *Suggester) Suggest(ctx context.Context, term string, limit int, locale string) ([]Suggestion, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Suggestion{}, nil
	}
	if limit < 1 {
		limit = DefaultSuggestionLimit
	}
	if limit > MaxSuggestionLimit {
		limit = MaxSuggestionLimit
	}
	locale = DetectLocale(term, locale)

	entries, err := s.vocab.Vocabulary(ctx, locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary: %w", err)
	}

	type key struct {
		text     string
		category domain.AttributeFamily
	}
	seen := make(map[key]struct{}, len(entries))
	out := make([]Suggestion, 0)
	for _, entry := range entries {
		k := key{entry.Text, entry.Category}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		sim := textsearch.Similarity(term, entry.Text)
		if sim > FuzzyThreshold {
			out = append(out, Suggestion{Text: entry.Text, Similarity: sim, Category: entry.Category})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		if out[i].Text != out[j].Text {
			return out[i].Text < out[j].Text
		}
		return out[i].Category < out[j].Category
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
