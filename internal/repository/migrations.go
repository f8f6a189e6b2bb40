package repository

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/timmy/gemstore/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Migrate applies every pending schema migration in order.
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		initialSchema(),
		seedTranslations(),
		searchIndexes(),
	}
}

// initialSchema creates every table from the domain models.
func initialSchema() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "001_initial_schema",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&domain.Gemstone{},
				&domain.GemstoneImage{},
				&domain.Translation{},
				&domain.SearchAnalytics{},
				&domain.Order{},
				&domain.OrderItem{},
				&domain.OrderEvent{},
				&domain.CartItem{},
				&domain.ImportJob{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				"import_jobs", "cart_items", "order_events", "order_items", "orders",
				"search_analytics", "attribute_translations", "gemstone_images", "gemstones",
			)
		},
	}
}

// seedTranslations loads the built-in en/ru vocabulary. Existing rows win.
func seedTranslations() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "002_seed_translations",
		Migrate: func(tx *gorm.DB) error {
			rows := seedVocabulary()
			if len(rows) == 0 {
				return nil
			}
			return tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(rows, 100).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DELETE FROM attribute_translations").Error
		},
	}
}

// searchIndexes adds partial indexes for the default eligibility rule.
// Both Postgres and SQLite support partial indexes.
func searchIndexes() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "003_search_indexes",
		Migrate: func(tx *gorm.DB) error {
			stmts := []string{
				`CREATE INDEX IF NOT EXISTS idx_gemstones_searchable ON gemstones (created_at DESC) WHERE price_amount > 0`,
				`CREATE INDEX IF NOT EXISTS idx_search_analytics_result_count ON search_analytics (result_count) WHERE result_count = 0`,
			}
			for _, stmt := range stmts {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Exec(`DROP INDEX IF EXISTS idx_gemstones_searchable`).Error; err != nil {
				return err
			}
			return tx.Exec(`DROP INDEX IF EXISTS idx_search_analytics_result_count`).Error
		},
	}
}
