package domain

import "time"

// JobStatus represents the status of an import job.
// Values include JobStatusPending, JobStatusRunning, JobStatusCompleted, and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ImportJob records one catalog import run and its progress counters.
type ImportJob struct {
	ID             string     `gorm:"type:text;primaryKey" json:"id"`
	SourceType     string     `gorm:"type:text;not null;index" json:"source_type"`
	SourceID       string     `gorm:"type:text;not null" json:"source_id"`
	Status         JobStatus  `gorm:"type:text;default:pending" json:"status"`
	TotalItems     int        `gorm:"default:0" json:"total_items"`
	ProcessedItems int        `gorm:"default:0" json:"processed_items"`
	SkippedItems   int        `gorm:"default:0" json:"skipped_items"`
	FailedItems    int        `gorm:"default:0" json:"failed_items"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ErrorLog       string     `json:"error_log,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TableName returns the database table name for ImportJob.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (ImportJob) TableName() string {
	return "import_jobs"
}
