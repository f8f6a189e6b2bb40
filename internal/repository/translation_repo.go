package repository

import (
	"context"
	"errors"

	"github.com/timmy/gemstore/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TranslationRepository handles the localized attribute vocabulary.
type TranslationRepository struct {
	db *gorm.DB
}

// NewTranslationRepository creates a new TranslationRepository.
// Parameters:
//   - db: GORM database handle, or an open transaction.
// Returns:
//   - *TranslationRepository: repository instance bound to db.
func NewTranslationRepository(db *gorm.DB) *TranslationRepository {
	return &TranslationRepository{db: db}
}

// Upsert creates or replaces the display name for (family, code, locale).
func (r *TranslationRepository) Upsert(ctx context.Context, t *domain.Translation) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "family"}, {Name: "code"}, {Name: "locale"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
	}).Create(t).Error
}

// Lookup is a single-row equality lookup used by the vector maintainer.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - family: attribute family.
//   - code: attribute code.
//   - locale: target locale.
// Returns:
//   - string: display name when found.
//   - bool: false when no row exists.
//   - error: non-nil on query failure.
func (r *TranslationRepository) Lookup(ctx context.Context, family domain.AttributeFamily, code, locale string) (string, bool, error) {
	var t domain.Translation
	err := r.db.WithContext(ctx).
		Select("name").
		Where("family = ? AND code = ? AND locale = ?", family, code, locale).
		Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return t.Name, true, nil
}

// LocalizedNames returns code -> name for one family and locale.
func (r *TranslationRepository) LocalizedNames(ctx context.Context, family domain.AttributeFamily, locale string) (map[string]string, error) {
	var rows []domain.Translation
	if err := r.db.WithContext(ctx).
		Select("code", "name").
		Where("family = ? AND locale = ?", family, locale).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.Code] = row.Name
	}
	return names, nil
}

// Vocabulary returns every display name in a locale across all families.
func (r *TranslationRepository) Vocabulary(ctx context.Context, locale string) ([]domain.VocabularyEntry, error) {
	var rows []domain.Translation
	if err := r.db.WithContext(ctx).
		Select("family", "name").
		Where("locale = ?", locale).
		Order("family ASC, name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]domain.VocabularyEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, domain.VocabularyEntry{Text: row.Name, Category: row.Family})
	}
	return entries, nil
}

// List returns translations filtered by optional family and locale.
func (r *TranslationRepository) List(ctx context.Context, family domain.AttributeFamily, locale string) ([]domain.Translation, error) {
	q := r.db.WithContext(ctx).Model(&domain.Translation{})
	if family != "" {
		q = q.Where("family = ?", family)
	}
	if locale != "" {
		q = q.Where("locale = ?", locale)
	}
	var rows []domain.Translation
	err := q.Order("family ASC, code ASC, locale ASC").Find(&rows).Error
	return rows, err
}
