package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/repository"
)

const (
	defaultAnalyticsWindow = 7 * 24 * time.Hour
	defaultAnalyticsLimit  = 20
	maxAnalyticsLimit      = 100
)

// AnalyticsService serves admin-only aggregate reads over search analytics.
type AnalyticsService struct {
	repo *repository.AnalyticsRepository
	now  func() time.Time
}

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(repo *repository.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo, now: time.Now}
}

// TopQueries returns the most frequent queries within window.
// Returns ErrAccessDenied unless the caller in ctx is an admin.
func (s *AnalyticsService) TopQueries(ctx context.Context, window time.Duration, limit int) ([]domain.QueryStat, error) {
	if !auth.PrincipalFrom(ctx).IsAdmin() {
		return nil, ErrAccessDenied
	}
	since, limit := s.bounds(window, limit)
	stats, err := s.repo.TopQueries(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load top queries: %w", err)
	}
	return stats, nil
}

// ZeroResultQueries returns the most frequent queries that matched nothing.
// Returns ErrAccessDenied unless the caller in ctx is an admin.
func (s *AnalyticsService) ZeroResultQueries(ctx context.Context, window time.Duration, limit int) ([]domain.QueryStat, error) {
	if !auth.PrincipalFrom(ctx).IsAdmin() {
		return nil, ErrAccessDenied
	}
	since, limit := s.bounds(window, limit)
	stats, err := s.repo.ZeroResultQueries(ctx, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load zero-result queries: %w", err)
	}
	return stats, nil
}

func (s *AnalyticsService) bounds(window time.Duration, limit int) (time.Time, int) {
	if window <= 0 {
		window = defaultAnalyticsWindow
	}
	if limit <= 0 {
		limit = defaultAnalyticsLimit
	}
	if limit > maxAnalyticsLimit {
		limit = maxAnalyticsLimit
	}
	return s.now().Add(-window), limit
}
