package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/search"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const imageCountSelect = "gemstones.*, (SELECT COUNT(*) FROM gemstone_images gi WHERE gi.gemstone_id = gemstones.id) AS image_count"

// searchableWhere is the default eligibility rule: priced, with at least one image.
const searchableWhere = "gemstones.price_amount > 0 AND ((gemstones.primary_image_url IS NOT NULL AND gemstones.primary_image_url <> '') OR EXISTS (SELECT 1 FROM gemstone_images gi WHERE gi.gemstone_id = gemstones.id))"

var vectorColumns = []string{"search_vector_en", "search_vector_ru", "description_vector_en", "description_vector_ru"}

// GemstoneRepository handles gemstone persistence. Every write recomputes the
// search vectors inside the same transaction.
type GemstoneRepository struct {
	db *gorm.DB
}

// NewGemstoneRepository creates a new GemstoneRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *GemstoneRepository: repository instance bound to db.
func NewGemstoneRepository(db *gorm.DB) *GemstoneRepository {
	return &GemstoneRepository{db: db}
}

// Save creates or updates a gemstone and its search vectors atomically.
// Translation lookups run on the same transaction, so readers never observe a
// row whose vectors disagree with its columns.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - g: gemstone to persist; ID is assigned when empty.
// Returns:
//   - error: non-nil if the write fails.
func (r *GemstoneRepository) Save(ctx context.Context, g *domain.Gemstone) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveGemstone(ctx, tx, g)
	})
}

func saveGemstone(ctx context.Context, tx *gorm.DB, g *domain.Gemstone) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	} else {
		var current domain.Gemstone
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&current, "id = ?", g.ID).Error
		switch {
		case err == nil:
			keepOwnedColumns(g, &current)
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to load gemstone %s: %w", g.ID, err)
		}
	}

	maintainer := search.NewVectorMaintainer(NewTranslationRepository(tx))
	if err := maintainer.Recompute(ctx, g); err != nil {
		return fmt.Errorf("failed to recompute search vectors: %w", err)
	}
	if err := tx.Omit(clause.Associations).Save(g).Error; err != nil {
		return fmt.Errorf("failed to save gemstone: %w", err)
	}
	return nil
}

// keepOwnedColumns copies from the locked row the columns that catalog edits
// and imports do not own: creation time, the AI shadow fields, and primary
// media unless g brings its own.
func keepOwnedColumns(g, current *domain.Gemstone) {
	g.CreatedAt = current.CreatedAt
	if isBlank(g.PrimaryImageURL) {
		g.PrimaryImageURL = current.PrimaryImageURL
	}
	if isBlank(g.PrimaryVideoURL) {
		g.PrimaryVideoURL = current.PrimaryVideoURL
	}
	g.AIColor, g.AIColorConfidence = current.AIColor, current.AIColorConfidence
	g.AICut, g.AICutConfidence = current.AICut, current.AICutConfidence
	g.AIDescription, g.AIAnalyzedAt = current.AIDescription, current.AIAnalyzedAt
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// GetByID retrieves a gemstone with its images.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: gemstone ID.
// Returns:
//   - *domain.Gemstone: gemstone record if found.
//   - error: gorm.ErrRecordNotFound when missing.
func (r *GemstoneRepository) GetByID(ctx context.Context, id string) (*domain.Gemstone, error) {
	var g domain.Gemstone
	err := r.db.WithContext(ctx).
		Select(imageCountSelect).
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC, created_at ASC") }).
		First(&g, "gemstones.id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GetBySerial retrieves a gemstone by serial number.
func (r *GemstoneRepository) GetBySerial(ctx context.Context, serial string) (*domain.Gemstone, error) {
	var g domain.Gemstone
	if err := r.db.WithContext(ctx).First(&g, "serial_number = ?", serial).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// ExistsBySerial checks if a gemstone with the given serial number exists.
func (r *GemstoneRepository) ExistsBySerial(ctx context.Context, serial string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Gemstone{}).Where("serial_number = ?", serial).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a gemstone with its images and cart lines.
// Order items keep their gemstone ID as a historical reference.
func (r *GemstoneRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gemstone_id = ?", id).Delete(&domain.GemstoneImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("gemstone_id = ?", id).Delete(&domain.CartItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Gemstone{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// AddImage attaches a photo or video. The first of each kind becomes the
// gemstone's primary image or video when none is set.
// Images do not feed the search vectors, so no recompute is needed.
func (r *GemstoneRepository) AddImage(ctx context.Context, img *domain.GemstoneImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g domain.Gemstone
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").Take(&g, "id = ?", img.GemstoneID).Error; err != nil {
			return err
		}
		if img.ID == "" {
			img.ID = uuid.New().String()
		}
		if err := tx.Create(img).Error; err != nil {
			return fmt.Errorf("failed to create image: %w", err)
		}

		column := "primary_image_url"
		if img.Kind == "video" {
			column = "primary_video_url"
		}
		return tx.Model(&domain.Gemstone{}).
			Where("id = ? AND ("+column+" IS NULL OR "+column+" = '')", g.ID).
			Update(column, img.URL).Error
	})
}

// Searchable returns every gemstone passing the default eligibility rule,
// with image counts filled in.
// Parameters:
//   - ctx: context for cancellation and deadlines.
// Returns:
//   - []domain.Gemstone: eligible rows in creation order.
//   - error: non-nil if the query fails.
func (r *GemstoneRepository) Searchable(ctx context.Context) ([]domain.Gemstone, error) {
	var rows []domain.Gemstone
	err := r.db.WithContext(ctx).
		Model(&domain.Gemstone{}).
		Select(imageCountSelect).
		Where(searchableWhere).
		Order("gemstones.created_at DESC, gemstones.id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListIDsAfter pages through gemstone IDs in ID order for batch jobs.
func (r *GemstoneRepository) ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Gemstone{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// ListIDsByCode returns gemstones whose vectors depend on the given code.
// Only type and color feed the vectors; other families return nothing.
func (r *GemstoneRepository) ListIDsByCode(ctx context.Context, family domain.AttributeFamily, code string) ([]string, error) {
	q := r.db.WithContext(ctx).Model(&domain.Gemstone{})
	switch family {
	case domain.FamilyType:
		q = q.Where("type_code = ? OR ((type_code IS NULL OR type_code = '') AND name = ?)", code, code)
	case domain.FamilyColor:
		q = q.Where("color_code = ? OR ((color_code IS NULL OR color_code = '') AND (color = ? OR ((color IS NULL OR color = '') AND ai_color = ?)))", code, code, code)
	default:
		return nil, nil
	}
	var ids []string
	err := q.Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// Reindex reloads a gemstone under a row lock and rewrites only its vector
// columns, so concurrent edits to other columns are never overwritten.
func (r *GemstoneRepository) Reindex(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var g domain.Gemstone
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&g, "id = ?", id).Error; err != nil {
			return err
		}
		maintainer := search.NewVectorMaintainer(NewTranslationRepository(tx))
		if err := maintainer.Recompute(ctx, &g); err != nil {
			return fmt.Errorf("failed to recompute search vectors: %w", err)
		}
		return tx.Model(&domain.Gemstone{}).
			Where("id = ?", id).
			Select(vectorColumns).
			Updates(map[string]interface{}{
				"search_vector_en":      g.SearchVectorEN,
				"search_vector_ru":      g.SearchVectorRU,
				"description_vector_en": g.DescriptionVectorEN,
				"description_vector_ru": g.DescriptionVectorRU,
			}).Error
	})
}

// Count returns the number of gemstones.
func (r *GemstoneRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Gemstone{}).Count(&count).Error
	return count, err
}
