package search

import (
	"context"
	"fmt"
	"sort"

	"github.com/timmy/gemstore/internal/domain"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// CandidateSource yields rows that pass the default eligibility rule.
// Implementations should push the rule into storage; the engine re-checks it.
type CandidateSource interface {
	Searchable(ctx context.Context) ([]domain.Gemstone, error)
}

// NameSource returns code -> display name for one family and locale.
type NameSource interface {
	LocalizedNames(ctx context.Context, family domain.AttributeFamily, locale string) (map[string]string, error)
}

// Options tunes pagination limits.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Request is one search call.
type Request struct {
	Query    string
	Locale   string
	Filters  Filters
	Page     int
	PageSize int
}

// Page is one slice of ranked results. Total counts every match.
type Page struct {
	Items    []domain.SearchHit `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
	Locale   string             `json:"locale"`
	Strategy string             `json:"strategy"`
}

// Facets holds per-dimension value counts. Each dimension is counted with its
// own filter removed so the counts describe what selecting a value would return.
type Facets struct {
	Total  int64                          `json:"total"`
	Counts map[Dimension]map[string]int64 `json:"counts"`
	Locale string                         `json:"locale"`
}

// Engine runs the search pipeline: eligibility, filters, strategy scoring,
// ordering and pagination.
type Engine struct {
	candidates CandidateSource
	names      NameSource
	opts       Options
}

// NewEngine creates a search engine.
// Parameters:
//   - candidates: source of eligible gemstones.
//   - names: localized type names for fuzzy matching; may be nil.
//   - opts: pagination limits; zero values use DefaultPageSize and MaxPageSize.
// Returns:
//   - *Engine: configured engine.
func NewEngine(candidates CandidateSource, names NameSource, opts Options) *Engine {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.MaxPageSize <= 0 {
		opts.MaxPageSize = MaxPageSize
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}
	return &Engine{candidates: candidates, names: names, opts: opts}
}

// SearchFulltext auto-detects the locale and searches the main vectors only.
func (e *Engine) SearchFulltext(ctx context.Context, query string, filters Filters, page, pageSize int) (*Page, error) {
	filters.SearchDescriptions = false
	return e.Search(ctx, Request{Query: query, Filters: filters, Page: page, PageSize: pageSize})
}

// SearchMultilingual searches with an explicit locale and description opt-in.
func (e *Engine) SearchMultilingual(ctx context.Context, query, locale string, filters Filters, page, pageSize int, descriptions bool) (*Page, error) {
	filters.SearchDescriptions = descriptions
	return e.Search(ctx, Request{Query: query, Locale: locale, Filters: filters, Page: page, PageSize: pageSize})
}

// Search ranks, filters and paginates. Zero matches yield an empty page, not an error.
func (e *Engine) Search(ctx context.Context, req Request) (*Page, error) {
	page, pageSize := e.normalizePaging(req.Page, req.PageSize)
	locale := DetectLocale(req.Query, req.Locale)
	strategy := SelectStrategy(req.Query, locale, req.Filters)

	hits, err := e.rank(ctx, locale, strategy, Compose(req.Filters))
	if err != nil {
		return nil, err
	}

	result := &Page{
		Items:    []domain.SearchHit{},
		Total:    int64(len(hits)),
		Page:     page,
		PageSize: pageSize,
		Locale:   locale,
		Strategy: strategy.Name(),
	}
	result.Items = pageSlice(hits, page, pageSize)
	return result, nil
}

// pageSlice returns the 1-based page of hits. Pages past the end are empty;
// the bound is checked before multiplying so huge page numbers cannot overflow.
func pageSlice(hits []domain.SearchHit, page, pageSize int) []domain.SearchHit {
	if page-1 >= (len(hits)+pageSize-1)/pageSize {
		return []domain.SearchHit{}
	}
	offset := (page - 1) * pageSize
	end := offset + pageSize
	if end > len(hits) {
		end = len(hits)
	}
	return hits[offset:end]
}

// FacetCounts counts matches per categorical value using the same predicates as Search.
func (e *Engine) FacetCounts(ctx context.Context, req Request) (*Facets, error) {
	locale := DetectLocale(req.Query, req.Locale)
	strategy := SelectStrategy(req.Query, locale, req.Filters)

	candidates, err := e.score(ctx, locale, strategy)
	if err != nil {
		return nil, err
	}

	all := Compose(req.Filters)
	except := make(map[Dimension]Predicate, len(FacetDimensions))
	facets := &Facets{Counts: make(map[Dimension]map[string]int64, len(FacetDimensions)), Locale: locale}
	for _, dim := range FacetDimensions {
		except[dim] = ComposeExcept(req.Filters, dim)
		facets.Counts[dim] = map[string]int64{}
	}

	for i := range candidates {
		g := &candidates[i].Gemstone
		if all(g) {
			facets.Total++
		}
		for _, dim := range FacetDimensions {
			value := dim.Value(g)
			if value == "" || !except[dim](g) {
				continue
			}
			facets.Counts[dim][value]++
		}
	}
	return facets, nil
}

func (e *Engine) normalizePaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = e.opts.DefaultPageSize
	}
	if pageSize > e.opts.MaxPageSize {
		pageSize = e.opts.MaxPageSize
	}
	return page, pageSize
}

// rank returns every scored candidate passing pred, in result order.
func (e *Engine) rank(ctx context.Context, locale string, strategy Strategy, pred Predicate) ([]domain.SearchHit, error) {
	scored, err := e.score(ctx, locale, strategy)
	if err != nil {
		return nil, err
	}

	hits := make([]domain.SearchHit, 0, len(scored))
	for i := range scored {
		if pred(&scored[i].Gemstone) {
			hits = append(hits, scored[i])
		}
	}
	SortHits(hits)
	return hits, nil
}

// score applies eligibility and the strategy, before any filter. Every call
// scores the whole eligible catalog in memory, which assumes a catalog of at
// most tens of thousands of stones.
func (e *Engine) score(ctx context.Context, locale string, strategy Strategy) ([]domain.SearchHit, error) {
	rows, err := e.candidates.Searchable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load search candidates: %w", err)
	}

	var typeNames map[string]string
	if strategy.Name() == StrategyFuzzy && e.names != nil {
		typeNames, err = e.names.LocalizedNames(ctx, domain.FamilyType, locale)
		if err != nil {
			return nil, fmt.Errorf("failed to load type names: %w", err)
		}
	}

	out := make([]domain.SearchHit, 0, len(rows))
	for i := range rows {
		g := &rows[i]
		if !Eligible(g) {
			continue
		}
		score, ok := strategy.Score(Candidate{Gemstone: g, TypeName: typeNames[g.EffectiveTypeCode()]})
		if !ok {
			continue
		}
		out = append(out, domain.SearchHit{Gemstone: *g, RelevanceScore: score})
	}
	return out, nil
}

// SortHits orders by relevance desc, then newest first, then ID so that
// pagination is stable across calls.
func SortHits(hits []domain.SearchHit) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.RelevanceScore != b.RelevanceScore {
			return a.RelevanceScore > b.RelevanceScore
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
