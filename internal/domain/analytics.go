package domain

import (
	"time"

	"gorm.io/datatypes"
)

// SearchAnalytics is one append-only record of a search request.
type SearchAnalytics struct {
	ID          string         `gorm:"type:text;primaryKey" json:"id"`
	Query       string         `gorm:"type:text;index:idx_search_analytics_query" json:"query"`
	Filters     datatypes.JSON `json:"filters"`
	Locale      string         `gorm:"type:text" json:"locale"`
	Strategy    string         `gorm:"type:text" json:"strategy"`
	ResultCount int64          `gorm:"not null;default:0" json:"result_count"`
	UsedFuzzy   bool           `gorm:"not null;default:false" json:"used_fuzzy"`
	UserID      *string        `gorm:"type:text" json:"user_id,omitempty"`
	SessionID   *string        `gorm:"type:text" json:"session_id,omitempty"`
	DurationMS  int64          `json:"duration_ms"`
	CreatedAt   time.Time      `gorm:"index:idx_search_analytics_created_at" json:"created_at"`
}

// TableName returns the database table name for SearchAnalytics.
func (SearchAnalytics) TableName() string {
	return "search_analytics"
}

// QueryStat is one aggregated row of the admin analytics reports.
type QueryStat struct {
	Query          string  `json:"query"`
	Searches       int64   `json:"searches"`
	AvgResultCount float64 `json:"avg_result_count"`
}
