package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/observability"
	"github.com/timmy/gemstore/internal/repository"
	"github.com/timmy/gemstore/internal/search"
	"github.com/timmy/gemstore/internal/storage"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const (
	reindexBatchSize      = 200
	defaultReindexWorkers = 4
)

// CatalogService is the catalog write path. Every gemstone write goes through
// GemstoneRepository.Save, which recomputes search vectors in the same transaction.
type CatalogService struct {
	gemstones    *repository.GemstoneRepository
	translations *repository.TranslationRepository
	storage      storage.ObjectStorage
	logger       *logger.Logger
}

// NewCatalogService creates a new catalog service.
// Parameters:
//   - gemstones: gemstone repository.
//   - translations: translation repository.
//   - objectStorage: media storage; may be nil when only URL images are attached.
//   - log: logger instance.
//
// Returns:
//   - *CatalogService: initialized service.
func NewCatalogService(
	gemstones *repository.GemstoneRepository,
	translations *repository.TranslationRepository,
	objectStorage storage.ObjectStorage,
	log *logger.Logger,
) *CatalogService {
	return &CatalogService{
		gemstones:    gemstones,
		translations: translations,
		storage:      objectStorage,
		logger:       log,
	}
}

// log returns a logger from context if available, otherwise returns the default logger
func (s *CatalogService) log(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != nil {
		return l
	}
	return s.logger
}

func validateGemstone(g *domain.Gemstone) error {
	switch {
	case strings.TrimSpace(g.SerialNumber) == "":
		return invalidInput("serial_number is required")
	case strings.TrimSpace(string(g.Name)) == "" && strings.TrimSpace(g.TypeCode) == "":
		return invalidInput("name or type_code is required")
	case g.PriceAmount < 0:
		return invalidInput("price_amount must not be negative")
	case g.WeightCarats < 0:
		return invalidInput("weight_carats must not be negative")
	}
	if g.PriceCurrency == "" {
		g.PriceCurrency = "USD"
	}
	if g.Name == "" {
		g.Name = domain.GemstoneType(g.TypeCode)
	}
	return nil
}

// CreateGemstone inserts a new gemstone. Serial numbers are unique.
func (s *CatalogService) CreateGemstone(ctx context.Context, g *domain.Gemstone) error {
	if err := validateGemstone(g); err != nil {
		return err
	}
	exists, err := s.gemstones.ExistsBySerial(ctx, g.SerialNumber)
	if err != nil {
		return fmt.Errorf("failed to check serial number: %w", err)
	}
	if exists {
		return fmt.Errorf("gemstone %s: %w", g.SerialNumber, ErrConflict)
	}
	g.ID = ""
	return s.save(ctx, g)
}

// UpdateGemstone replaces the editable columns of an existing gemstone.
// Media, AI shadow fields and creation time are preserved.
func (s *CatalogService) UpdateGemstone(ctx context.Context, id string, g *domain.Gemstone) (*domain.Gemstone, error) {
	if err := validateGemstone(g); err != nil {
		return nil, err
	}
	existing, err := s.gemstones.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "gemstone "+id)
	}
	if existing.SerialNumber != g.SerialNumber {
		other, err := s.gemstones.GetBySerial(ctx, g.SerialNumber)
		if err == nil && other.ID != id {
			return nil, fmt.Errorf("gemstone %s: %w", g.SerialNumber, ErrConflict)
		}
	}

	g.ID = id
	g.CreatedAt = time.Time{}
	g.PrimaryImageURL, g.PrimaryVideoURL = nil, nil
	if err := s.save(ctx, g); err != nil {
		return nil, err
	}
	return s.GetGemstone(ctx, id)
}

func (s *CatalogService) save(ctx context.Context, g *domain.Gemstone) error {
	ctx, span := observability.Tracer().Start(ctx, "CatalogService.SaveGemstone")
	defer span.End()

	if err := s.gemstones.Save(ctx, g); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to save gemstone: %w", err)
	}
	span.SetAttributes(attribute.String("gemstone.id", g.ID))
	s.log(ctx).WithField(logger.FieldGemstoneID, g.ID).Debug("Gemstone saved")
	return nil
}

// GetGemstone returns one gemstone with its images.
func (s *CatalogService) GetGemstone(ctx context.Context, id string) (*domain.Gemstone, error) {
	g, err := s.gemstones.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "gemstone "+id)
	}
	return g, nil
}

// DeleteGemstone removes a gemstone and then its stored media. Media cleanup
// failures are logged only.
func (s *CatalogService) DeleteGemstone(ctx context.Context, id string) error {
	g, err := s.gemstones.GetByID(ctx, id)
	if err != nil {
		return mapNotFound(err, "gemstone "+id)
	}
	if err := s.gemstones.Delete(ctx, id); err != nil {
		return mapNotFound(err, "gemstone "+id)
	}
	if s.storage == nil {
		return nil
	}
	for _, img := range g.Images {
		if img.StorageKey == "" {
			continue
		}
		if err := s.storage.Delete(ctx, img.StorageKey); err != nil {
			s.log(ctx).WithFields(logger.Fields{
				"storage_key": img.StorageKey,
			}).WithError(err).Warn("Failed to delete gemstone media")
		}
	}
	return nil
}

// ImageInput attaches media either by uploading Data or by referencing URL.
type ImageInput struct {
	Data   []byte
	URL    string
	Format string
	Kind   string
}

// AddImage stores and attaches one photo or video. The first image becomes the
// primary image when the gemstone has none.
func (s *CatalogService) AddImage(ctx context.Context, gemstoneID string, in ImageInput) (*domain.GemstoneImage, error) {
	g, err := s.gemstones.GetByID(ctx, gemstoneID)
	if err != nil {
		return nil, mapNotFound(err, "gemstone "+gemstoneID)
	}

	kind := in.Kind
	if kind == "" {
		kind = "image"
	}
	if kind != "image" && kind != "video" {
		return nil, invalidInput("kind must be image or video")
	}

	img := &domain.GemstoneImage{
		GemstoneID: gemstoneID,
		Kind:       kind,
		Format:     strings.ToLower(in.Format),
		SortOrder:  len(g.Images),
	}

	switch {
	case len(in.Data) > 0:
		if s.storage == nil {
			return nil, errors.New("object storage is not configured")
		}
		if kind == "image" {
			w, h, format, err := imageDimensions(in.Data)
			if err != nil {
				return nil, invalidInput("unreadable image: %v", err)
			}
			img.Width, img.Height, img.Format = w, h, format
		}
		key := storage.MediaKey(g.SerialNumber, len(g.Images), img.Format)
		if err := s.storage.Upload(ctx, key, bytes.NewReader(in.Data), int64(len(in.Data)), contentTypeFor(img.Format)); err != nil {
			return nil, fmt.Errorf("failed to upload media: %w", err)
		}
		img.StorageKey = key
		img.URL = s.storage.GetURL(key)
	case strings.TrimSpace(in.URL) != "":
		img.URL = strings.TrimSpace(in.URL)
	default:
		return nil, invalidInput("image data or url is required")
	}

	if err := s.gemstones.AddImage(ctx, img); err != nil {
		if img.StorageKey != "" {
			if delErr := s.storage.Delete(ctx, img.StorageKey); delErr != nil {
				s.log(ctx).WithError(delErr).Error("Failed to rollback media upload")
			}
		}
		return nil, mapNotFound(err, "gemstone "+gemstoneID)
	}
	return img, nil
}

// ReindexAll recomputes the search vectors of every gemstone.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - workers: concurrent reindex transactions; non-positive uses a default.
//
// Returns:
//   - int64: number of gemstones reindexed.
//   - error: first failure; remaining work is cancelled.
func (s *CatalogService) ReindexAll(ctx context.Context, workers int) (int64, error) {
	if workers <= 0 {
		workers = defaultReindexWorkers
	}
	var done int64
	after := ""
	for {
		ids, err := s.gemstones.ListIDsAfter(ctx, after, reindexBatchSize)
		if err != nil {
			return done, fmt.Errorf("failed to list gemstones: %w", err)
		}
		if len(ids) == 0 {
			break
		}
		n, err := s.reindex(ctx, ids, workers)
		done += n
		if err != nil {
			return done, err
		}
		after = ids[len(ids)-1]
	}

	logger.With(logger.Fields{logger.FieldCount: done}).Info(ctx, "Reindex completed")
	return done, nil
}

func (s *CatalogService) reindex(ctx context.Context, ids []string, workers int) (int64, error) {
	var done int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, id := range ids {
		g.Go(func() error {
			if err := s.gemstones.Reindex(gctx, id); err != nil {
				return fmt.Errorf("failed to reindex gemstone %s: %w", id, err)
			}
			atomic.AddInt64(&done, 1)
			observability.ReindexedGemstones.Inc()
			return nil
		})
	}
	err := g.Wait()
	return done, err
}

// UpsertTranslation creates or replaces a localized display name and then
// reindexes every gemstone whose vectors use that code.
// Returns the number of gemstones reindexed.
func (s *CatalogService) UpsertTranslation(ctx context.Context, t *domain.Translation) (int64, error) {
	t.Code = strings.TrimSpace(t.Code)
	t.Name = strings.TrimSpace(t.Name)
	t.Locale = strings.ToLower(strings.TrimSpace(t.Locale))
	switch {
	case !t.Family.Valid():
		return 0, invalidInput("unknown family %q", t.Family)
	case t.Code == "" || t.Name == "":
		return 0, invalidInput("code and name are required")
	case t.Locale != search.LocaleEN && t.Locale != search.LocaleRU:
		return 0, invalidInput("locale must be en or ru")
	}

	if err := s.translations.Upsert(ctx, t); err != nil {
		return 0, fmt.Errorf("failed to upsert translation: %w", err)
	}

	ids, err := s.gemstones.ListIDsByCode(ctx, t.Family, t.Code)
	if err != nil {
		return 0, fmt.Errorf("failed to list affected gemstones: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return s.reindex(ctx, ids, defaultReindexWorkers)
}
