package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/timmy/gemstore/internal/domain"
	"gorm.io/gorm"
)

// ImportJobRepository tracks catalog import runs.
type ImportJobRepository struct {
	db *gorm.DB
}

// NewImportJobRepository creates a new ImportJobRepository.
func NewImportJobRepository(db *gorm.DB) *ImportJobRepository {
	return &ImportJobRepository{db: db}
}

// Create inserts a job record.
func (r *ImportJobRepository) Create(ctx context.Context, job *domain.ImportJob) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// Update saves job progress.
func (r *ImportJobRepository) Update(ctx context.Context, job *domain.ImportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// GetByID retrieves a job.
func (r *ImportJobRepository) GetByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	var job domain.ImportJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// ListRecent returns the latest jobs, newest first.
func (r *ImportJobRepository) ListRecent(ctx context.Context, limit int) ([]domain.ImportJob, error) {
	var jobs []domain.ImportJob
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&jobs).Error
	return jobs, err
}
