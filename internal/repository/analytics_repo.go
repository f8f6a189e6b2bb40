package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/gemstore/internal/domain"
	"gorm.io/gorm"
)

// AnalyticsRepository appends search analytics and serves aggregate reads.
// Records are never updated or deleted.
type AnalyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new AnalyticsRepository.
func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Append inserts one analytics record.
func (r *AnalyticsRepository) Append(ctx context.Context, rec *domain.SearchAnalytics) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(rec).Error
}

// TopQueries returns the most frequent non-empty queries since a point in time.
func (r *AnalyticsRepository) TopQueries(ctx context.Context, since time.Time, limit int) ([]domain.QueryStat, error) {
	return r.aggregate(ctx, since, limit, false)
}

// ZeroResultQueries returns the most frequent queries that found nothing.
func (r *AnalyticsRepository) ZeroResultQueries(ctx context.Context, since time.Time, limit int) ([]domain.QueryStat, error) {
	return r.aggregate(ctx, since, limit, true)
}

func (r *AnalyticsRepository) aggregate(ctx context.Context, since time.Time, limit int, zeroOnly bool) ([]domain.QueryStat, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.SearchAnalytics{}).
		Select("query, COUNT(*) AS searches, AVG(result_count) AS avg_result_count").
		Where("created_at >= ? AND query <> ''", since)
	if zeroOnly {
		q = q.Where("result_count = 0")
	}

	var stats []domain.QueryStat
	err := q.Group("query").
		Order("searches DESC, query ASC").
		Limit(limit).
		Scan(&stats).Error
	return stats, err
}

// Count returns the number of analytics records.
func (r *AnalyticsRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.SearchAnalytics{}).Count(&count).Error
	return count, err
}
