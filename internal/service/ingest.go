package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/observability"
	"github.com/timmy/gemstore/internal/repository"
	"github.com/timmy/gemstore/internal/source"
	"github.com/timmy/gemstore/internal/storage"
	"gorm.io/gorm"
)

// ImportService runs catalog imports from a source into the catalog.
type ImportService struct {
	gemstones *repository.GemstoneRepository
	jobs      *repository.ImportJobRepository
	storage   storage.ObjectStorage
	logger    *logger.Logger
	workers   int
	batchSize int
}

// ImportConfig holds configuration for the import service
type ImportConfig struct {
	Workers   int
	BatchSize int
}

// NewImportService creates a new import service
func NewImportService(
	gemstones *repository.GemstoneRepository,
	jobs *repository.ImportJobRepository,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
	cfg *ImportConfig,
) *ImportService {
	workers, batchSize := 4, 50
	if cfg != nil {
		if cfg.Workers > 0 {
			workers = cfg.Workers
		}
		if cfg.BatchSize > 0 {
			batchSize = cfg.BatchSize
		}
	}
	return &ImportService{
		gemstones: gemstones,
		jobs:      jobs,
		storage:   objectStorage,
		logger:    log,
		workers:   workers,
		batchSize: batchSize,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *ImportService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

// ImportStats holds statistics for an import run
type ImportStats struct {
	JobID          string    `json:"job_id"`
	TotalItems     int64     `json:"total_items"`
	ProcessedItems int64     `json:"processed_items"`
	SkippedItems   int64     `json:"skipped_items"`
	FailedItems    int64     `json:"failed_items"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// ImportOptions holds options for an import run
type ImportOptions struct {
	Force bool // Re-import items whose serial number already exists
}

// ImportFromSource imports up to limit gemstones from a catalog source. Items
// are deduplicated by serial number. The run is recorded as an ImportJob row.
func (s *ImportService) ImportFromSource(ctx context.Context, src source.Source, limit int, opts *ImportOptions) (*ImportStats, error) {
	if opts == nil {
		opts = &ImportOptions{}
	}

	stats := &ImportStats{
		StartTime: time.Now(),
	}

	job := &domain.ImportJob{
		SourceType: sourceType(src.GetSourceID()),
		SourceID:   src.GetSourceID(),
		Status:     domain.JobStatusRunning,
		StartedAt:  &stats.StartTime,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}
	stats.JobID = job.ID

	ctx = logger.SetJobID(ctx, job.ID)
	ctx = logger.SetSource(ctx, src.GetSourceID())
	s.log(ctx).WithFields(logger.Fields{
		"limit": limit,
		"force": opts.Force,
	}).Info("Starting import")

	itemsChan := make(chan source.GemstoneItem, s.workers*2)
	resultsChan := make(chan *processResult, s.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.worker(ctx, src, itemsChan, resultsChan, opts)
		}()
	}

	var errorLog []string
	done := make(chan struct{})
	go func() {
		for result := range resultsChan {
			atomic.AddInt64(&stats.ProcessedItems, 1)
			switch {
			case result.skipped:
				atomic.AddInt64(&stats.SkippedItems, 1)
				observability.ImportItems.WithLabelValues("skipped").Inc()
			case result.err != nil:
				atomic.AddInt64(&stats.FailedItems, 1)
				observability.ImportItems.WithLabelValues("failed").Inc()
				errorLog = append(errorLog, fmt.Sprintf("%s: %v", result.sourceID, result.err))
				s.log(ctx).WithFields(logger.Fields{
					"source_id": result.sourceID,
				}).WithError(result.err).Error("Failed to process item")
			default:
				observability.ImportItems.WithLabelValues("processed").Inc()
			}
		}
		close(done)
	}()

	fetchErr := s.feed(ctx, src, limit, stats, itemsChan)

	close(itemsChan)
	wg.Wait()
	close(resultsChan)
	<-done

	stats.EndTime = time.Now()
	s.finishJob(ctx, job, stats, fetchErr, errorLog)

	logger.With(logger.Fields{
		logger.FieldTotal:      stats.TotalItems,
		logger.FieldDurationMs: stats.EndTime.Sub(stats.StartTime).Milliseconds(),
		"processed":            stats.ProcessedItems,
		"skipped":              stats.SkippedItems,
		"failed":               stats.FailedItems,
	}).Info(ctx, "Import completed")

	if fetchErr != nil {
		return stats, fetchErr
	}
	return stats, nil
}

// feed pages through the source and hands items to the workers.
func (s *ImportService) feed(ctx context.Context, src source.Source, limit int, stats *ImportStats, items chan<- source.GemstoneItem) error {
	cursor := ""
	totalFetched := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		batchLimit := s.batchSize
		if limit > 0 {
			remaining := limit - totalFetched
			if remaining <= 0 {
				return nil
			}
			if batchLimit > remaining {
				batchLimit = remaining
			}
		}

		batch, nextCursor, err := src.FetchBatch(ctx, cursor, batchLimit)
		if err != nil {
			s.log(ctx).WithError(err).Error("Failed to fetch batch")
			return fmt.Errorf("failed to fetch batch: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}
		if limit > 0 && len(batch) > limit-totalFetched {
			batch = batch[:limit-totalFetched]
		}

		atomic.AddInt64(&stats.TotalItems, int64(len(batch)))
		totalFetched += len(batch)

		for _, item := range batch {
			select {
			case items <- item:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if nextCursor == "" {
			return nil
		}
		cursor = nextCursor
	}
}

func (s *ImportService) finishJob(ctx context.Context, job *domain.ImportJob, stats *ImportStats, fetchErr error, errorLog []string) {
	job.TotalItems = int(stats.TotalItems)
	job.ProcessedItems = int(stats.ProcessedItems)
	job.SkippedItems = int(stats.SkippedItems)
	job.FailedItems = int(stats.FailedItems)
	job.CompletedAt = &stats.EndTime
	job.Status = domain.JobStatusCompleted
	if fetchErr != nil {
		job.Status = domain.JobStatusFailed
		errorLog = append([]string{fetchErr.Error()}, errorLog...)
	}
	job.ErrorLog = strings.Join(errorLog, "\n")

	// the job row is bookkeeping; record it even if the run was cancelled
	if err := s.jobs.Update(context.WithoutCancel(ctx), job); err != nil {
		s.log(ctx).WithError(err).Error("Failed to update import job")
	}
}

type processResult struct {
	sourceID string
	skipped  bool
	err      error
}

func (s *ImportService) worker(ctx context.Context, src source.Source, items <-chan source.GemstoneItem, results chan<- *processResult, opts *ImportOptions) {
	for item := range items {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := &processResult{sourceID: item.SourceID}

		existing, err := s.gemstones.GetBySerial(ctx, strings.TrimSpace(item.SerialNumber))
		switch {
		case err == nil && !opts.Force:
			result.skipped = true
		case err == nil:
			result.err = s.processItem(ctx, src, &item, existing)
		case errors.Is(err, gorm.ErrRecordNotFound):
			result.err = s.processItem(ctx, src, &item, nil)
		default:
			result.err = fmt.Errorf("failed to check existence: %w", err)
		}

		results <- result
	}
}

// uploadedMedia is one stored media file awaiting its image row.
type uploadedMedia struct {
	image    domain.GemstoneImage
	uploaded bool
}

// processItem uploads the item's media, saves the gemstone through the
// catalog write path and attaches image rows, which promote the first image
// and video to primary. Uploads are rolled back when the gemstone cannot be
// saved.
func (s *ImportService) processItem(ctx context.Context, src source.Source, item *source.GemstoneItem, existing *domain.Gemstone) error {
	g := item.ToGemstone()
	knownKeys := map[string]bool{}
	if existing != nil {
		// the repository keeps creation time, primary media and AI fields
		g.ID = existing.ID
		if full, err := s.gemstones.GetByID(ctx, existing.ID); err == nil {
			for _, img := range full.Images {
				knownKeys[img.StorageKey] = true
			}
		}
	}

	media := s.storeMedia(ctx, src, g, item.Media, knownKeys)

	if err := s.gemstones.Save(ctx, g); err != nil {
		for _, m := range media {
			if !m.uploaded {
				continue
			}
			if delErr := s.storage.Delete(ctx, m.image.StorageKey); delErr != nil {
				s.log(ctx).WithFields(logger.Fields{
					"storage_key": m.image.StorageKey,
				}).WithError(delErr).Error("Failed to rollback storage upload")
			}
		}
		return fmt.Errorf("failed to save gemstone: %w", err)
	}

	for i := range media {
		img := media[i].image
		img.GemstoneID = g.ID
		if err := s.gemstones.AddImage(ctx, &img); err != nil {
			return fmt.Errorf("failed to attach media %s: %w", img.StorageKey, err)
		}
	}
	return nil
}

// storeMedia reads and uploads each media file. Unreadable files are logged
// and skipped so one bad photo does not drop the listing.
func (s *ImportService) storeMedia(ctx context.Context, src source.Source, g *domain.Gemstone, refs []source.MediaRef, knownKeys map[string]bool) []uploadedMedia {
	var out []uploadedMedia
	for idx, ref := range refs {
		data, err := src.ReadMedia(ctx, ref)
		if err != nil {
			s.log(ctx).WithField("serial_number", g.SerialNumber).WithError(err).Warn("Failed to read media")
			continue
		}

		kind := ref.Kind
		if kind == "" {
			kind = source.KindForFormat(ref.Format)
		}
		img := domain.GemstoneImage{Kind: kind, Format: ref.Format, SortOrder: idx}
		if kind == "image" {
			w, h, format, err := imageDimensions(data)
			if err != nil {
				s.log(ctx).WithError(err).Warn("Failed to get image dimensions")
			} else {
				img.Width, img.Height, img.Format = w, h, format
			}
		}

		key := storage.MediaKey(g.SerialNumber, idx, img.Format)
		if knownKeys[key] {
			continue
		}

		exists, err := s.storage.Exists(ctx, key)
		if err != nil {
			s.log(ctx).WithError(err).Warn("Failed to check storage existence")
			continue
		}
		uploaded := false
		if !exists {
			if err := s.storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentTypeFor(img.Format)); err != nil {
				s.log(ctx).WithField("storage_key", key).WithError(err).Warn("Failed to upload media")
				continue
			}
			uploaded = true
		} else {
			s.log(ctx).WithField("storage_key", key).Debug("File already exists in storage, skipping upload")
		}

		img.StorageKey = key
		img.URL = s.storage.GetURL(key)
		out = append(out, uploadedMedia{image: img, uploaded: uploaded})
	}
	return out
}

// RecentJobs lists the latest import runs.
func (s *ImportService) RecentJobs(ctx context.Context, limit int) ([]domain.ImportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.jobs.ListRecent(ctx, limit)
}

func sourceType(sourceID string) string {
	if idx := strings.Index(sourceID, ":"); idx != -1 {
		return sourceID[:idx]
	}
	return sourceID
}
