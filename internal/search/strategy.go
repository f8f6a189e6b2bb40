package search

import (
	"strings"

	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/textsearch"
)

// FuzzyThreshold is the trigram similarity a fuzzy candidate must strictly exceed.
const FuzzyThreshold = 0.3

// Strategy names reported in pages and analytics.
const (
	StrategyExact = "exact"
	StrategyFuzzy = "fuzzy"
)

// Candidate is a gemstone as seen by a ranking strategy.
type Candidate struct {
	Gemstone *domain.Gemstone
	// TypeName is the localized type display name, empty when no translation exists.
	TypeName string
}

// Strategy scores candidates for one query. ok=false excludes the candidate.
type Strategy interface {
	Name() string
	Score(c Candidate) (score float64, ok bool)
}

// SelectStrategy is the single decision point between exact and fuzzy ranking.
func SelectStrategy(query, locale string, f Filters) Strategy {
	if f.UseFuzzy {
		return NewFuzzyMatch(query)
	}
	return NewExactMatch(query, locale, f.SearchDescriptions)
}

// ExactMatch ranks by cover density over the locale's search vector.
type ExactMatch struct {
	locale              string
	query               textsearch.Query
	blank               bool
	includeDescriptions bool
}

// NewExactMatch builds the exact-match strategy. A blank query matches every
// candidate with score zero; a query made only of stop words matches nothing.
func NewExactMatch(query, locale string, includeDescriptions bool) *ExactMatch {
	return &ExactMatch{
		locale:              locale,
		query:               textsearch.PlainQuery(LanguageFor(locale), query),
		blank:               strings.TrimSpace(query) == "",
		includeDescriptions: includeDescriptions,
	}
}

// Name returns StrategyExact.
func (s *ExactMatch) Name() string { return StrategyExact }

// Score implements Strategy.
func (s *ExactMatch) Score(c Candidate) (float64, bool) {
	if s.blank {
		return 0, true
	}
	vector := c.Gemstone.SearchVector(s.locale)
	if s.includeDescriptions {
		vector = vector.Concat(c.Gemstone.DescriptionVector(s.locale))
	}
	if !textsearch.Match(vector, s.query) {
		return 0, false
	}
	return textsearch.RankCD(vector, s.query), true
}

// FuzzyMatch ranks by the best trigram similarity across serial number,
// type name and description.
type FuzzyMatch struct {
	query string
}

// NewFuzzyMatch builds the fuzzy strategy.
func NewFuzzyMatch(query string) *FuzzyMatch {
	return &FuzzyMatch{query: strings.TrimSpace(query)}
}

// Name returns StrategyFuzzy.
func (s *FuzzyMatch) Name() string { return StrategyFuzzy }

// Score implements Strategy.
func (s *FuzzyMatch) Score(c Candidate) (float64, bool) {
	if s.query == "" {
		return 0, true
	}
	g := c.Gemstone
	typeName := c.TypeName
	if typeName == "" {
		typeName = g.Name.DisplayName()
	}

	best := textsearch.Similarity(s.query, g.SerialNumber)
	for _, field := range []string{typeName, g.Description} {
		if sim := textsearch.Similarity(s.query, field); sim > best {
			best = sim
		}
	}
	if best > FuzzyThreshold {
		return best, true
	}
	return 0, false
}
