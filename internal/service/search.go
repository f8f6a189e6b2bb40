package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/observability"
	"github.com/timmy/gemstore/internal/repository"
	"github.com/timmy/gemstore/internal/search"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
)

// SearchConfig holds configuration for search service.
type SearchConfig struct {
	DefaultPageSize      int
	MaxPageSize          int
	SuggestionLimit      int
	SuggestOnZeroResults bool
	RecordAnalytics      bool
}

// AnalyticsRecorder appends search analytics rows.
type AnalyticsRecorder interface {
	Append(ctx context.Context, rec *domain.SearchAnalytics) error
}

// SearchService runs catalog searches and records analytics.
type SearchService struct {
	engine    *search.Engine
	suggester *search.Suggester
	analytics AnalyticsRecorder
	logger    *logger.Logger
	cfg       SearchConfig
}

// NewSearchService creates a new search service.
// Parameters:
//   - gemstones: candidate source for the engine.
//   - translations: localized names and suggestion vocabulary.
//   - analytics: analytics sink; nil disables recording.
//   - log: logger instance.
//   - cfg: search configuration settings.
//
// Returns:
//   - *SearchService: initialized search service.
func NewSearchService(
	gemstones *repository.GemstoneRepository,
	translations *repository.TranslationRepository,
	analytics AnalyticsRecorder,
	log *logger.Logger,
	cfg SearchConfig,
) *SearchService {
	if cfg.SuggestionLimit <= 0 {
		cfg.SuggestionLimit = search.DefaultSuggestionLimit
	}
	return &SearchService{
		engine: search.NewEngine(gemstones, translations, search.Options{
			DefaultPageSize: cfg.DefaultPageSize,
			MaxPageSize:     cfg.MaxPageSize,
		}),
		suggester: search.NewSuggester(translations),
		analytics: analytics,
		logger:    log,
		cfg:       cfg,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *SearchService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// SearchRequest represents one search call. Filters holds the raw filters
// JSON object; unknown keys are ignored and echoed back.
type SearchRequest struct {
	Query     string          `json:"query"`
	Locale    string          `json:"locale,omitempty"`
	Filters   json.RawMessage `json:"filters,omitempty"`
	Page      int             `json:"page"`
	PageSize  int             `json:"pageSize"`
	UserID    string          `json:"-"`
	SessionID string          `json:"-"`
}

// SearchItem is one result row. TotalCount repeats the match total on every row.
type SearchItem struct {
	domain.SearchHit
	TotalCount int64 `json:"total_count"`
}

// SearchResponse is one page of results.
type SearchResponse struct {
	Items          []SearchItem        `json:"items"`
	Total          int64               `json:"total"`
	Page           int                 `json:"page"`
	PageSize       int                 `json:"page_size"`
	Locale         string              `json:"locale"`
	Strategy       string              `json:"strategy"`
	Suggestions    []search.Suggestion `json:"suggestions,omitempty"`
	IgnoredFilters []string            `json:"ignored_filters,omitempty"`
}

// Search runs one catalog search. Zero matches are not an error; when enabled,
// the response then carries "did you mean" suggestions.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: query, locale override, filters and paging.
//
// Returns:
//   - *SearchResponse: ranked page with totals.
//   - error: ErrInvalidInput for malformed filters, or a storage error.
func (s *SearchService) Search(ctx context.Context, req *SearchRequest) (*SearchResponse, error) {
	filters, err := search.ParseFilters(req.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ctx, span := observability.Tracer().Start(ctx, "SearchService.Search")
	defer span.End()

	ctx = logger.SetSearchID(ctx, uuid.New().String())
	start := time.Now()

	page, err := s.run(ctx, req, filters)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search failed")
		s.log(ctx).WithError(err).Error("Search failed")
		return nil, fmt.Errorf("search failed: %w", err)
	}
	elapsed := time.Since(start)

	ctx = logger.SetSearchContext(ctx, page.Locale, page.Strategy)
	span.SetAttributes(
		attribute.String("search.locale", page.Locale),
		attribute.String("search.strategy", page.Strategy),
		attribute.Int64("search.total", page.Total),
	)
	observability.SearchTotal.WithLabelValues(page.Strategy, page.Locale).Inc()
	observability.SearchDuration.WithLabelValues(page.Strategy).Observe(elapsed.Seconds())
	if page.Total == 0 {
		observability.SearchZeroResults.WithLabelValues(page.Strategy, page.Locale).Inc()
	}

	resp := &SearchResponse{
		Items:          make([]SearchItem, 0, len(page.Items)),
		Total:          page.Total,
		Page:           page.Page,
		PageSize:       page.PageSize,
		Locale:         page.Locale,
		Strategy:       page.Strategy,
		IgnoredFilters: filters.Ignored,
	}
	for _, hit := range page.Items {
		resp.Items = append(resp.Items, SearchItem{SearchHit: hit, TotalCount: page.Total})
	}

	if page.Total == 0 && s.cfg.SuggestOnZeroResults && strings.TrimSpace(req.Query) != "" {
		suggestions, err := s.suggester.Suggest(ctx, req.Query, s.cfg.SuggestionLimit, page.Locale)
		if err != nil {
			logger.CtxWarn(ctx, "Failed to load suggestions: %v", err)
		} else if len(suggestions) > 0 {
			resp.Suggestions = suggestions
		}
	}

	s.record(ctx, req, filters, page, elapsed)

	logger.With(logger.Fields{
		logger.FieldDurationMs: elapsed.Milliseconds(),
		logger.FieldTotal:      page.Total,
		logger.FieldCount:      len(resp.Items),
	}).Info(ctx, "Search completed: query=%q", req.Query)

	return resp, nil
}

// run picks the fulltext entry point for plain queries and the multilingual
// one when the caller pins a locale or opts into descriptions.
func (s *SearchService) run(ctx context.Context, req *SearchRequest, filters search.Filters) (*search.Page, error) {
	if strings.TrimSpace(req.Locale) == "" && !filters.SearchDescriptions {
		return s.engine.SearchFulltext(ctx, req.Query, filters, req.Page, req.PageSize)
	}
	return s.engine.SearchMultilingual(ctx, req.Query, req.Locale, filters, req.Page, req.PageSize, filters.SearchDescriptions)
}

// record appends the analytics row. Failures are logged and never fail the search.
func (s *SearchService) record(ctx context.Context, req *SearchRequest, filters search.Filters, page *search.Page, elapsed time.Duration) {
	if !s.cfg.RecordAnalytics || s.analytics == nil {
		return
	}
	rec := &domain.SearchAnalytics{
		Query:       strings.TrimSpace(req.Query),
		Filters:     datatypes.JSON(filters.JSON()),
		Locale:      page.Locale,
		Strategy:    page.Strategy,
		ResultCount: page.Total,
		UsedFuzzy:   page.Strategy == search.StrategyFuzzy,
		UserID:      optionalString(req.UserID),
		SessionID:   optionalString(req.SessionID),
		DurationMS:  elapsed.Milliseconds(),
	}
	if err := s.analytics.Append(ctx, rec); err != nil {
		observability.AnalyticsFailures.Inc()
		logger.CtxWarn(ctx, "Failed to record search analytics: %v", err)
	}
}

// Facets returns per-dimension counts for a query and filter set.
func (s *SearchService) Facets(ctx context.Context, req *SearchRequest) (*search.Facets, error) {
	filters, err := search.ParseFilters(req.Filters)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	facets, err := s.engine.FacetCounts(ctx, search.Request{Query: req.Query, Locale: req.Locale, Filters: filters})
	if err != nil {
		return nil, fmt.Errorf("facet count failed: %w", err)
	}
	return facets, nil
}

// Suggest returns "did you mean" candidates for term. A non-positive limit
// uses the configured default.
func (s *SearchService) Suggest(ctx context.Context, term string, limit int, locale string) ([]search.Suggestion, error) {
	if limit <= 0 {
		limit = s.cfg.SuggestionLimit
	}
	observability.SuggestionTotal.Inc()
	suggestions, err := s.suggester.Suggest(ctx, term, limit, locale)
	if err != nil {
		return nil, fmt.Errorf("suggest failed: %w", err)
	}
	return suggestions, nil
}

// DetectLocale reports the locale a query would be searched in.
func (s *SearchService) DetectLocale(query, override string) string {
	return search.DetectLocale(query, override)
}

func optionalString(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// IsInvalidInput reports whether err should be surfaced as a client error.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, search.ErrInvalidFilters) || errors.Is(err, domain.ErrInvalidStatus)
}
