// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"fmt"

	"github.com/timmy/gemstore/internal/api"
	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/config"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/repository"
	"github.com/timmy/gemstore/internal/service"
	"github.com/timmy/gemstore/internal/source"
	"github.com/timmy/gemstore/internal/source/feed"
	"github.com/timmy/gemstore/internal/source/staging"
	"github.com/timmy/gemstore/internal/storage"
	"gorm.io/gorm"
)

// App holds every long-lived dependency of a process.
type App struct {
	Config  *config.Config
	Logger  *logger.Logger
	DB      *gorm.DB
	Storage storage.ObjectStorage

	Search    *service.SearchService
	Catalog   *service.CatalogService
	Carts     *service.CartService
	Orders    *service.OrderService
	Analytics *service.AnalyticsService
	Import    *service.ImportService
	Tokens    *auth.TokenManager
}

// New opens the database and object storage and builds the services.
// Token auth is optional: without a JWT secret every caller is anonymous.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	objectStorage, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		log.WithError(err).Warn("Failed to ensure storage bucket")
	}

	var tokens *auth.TokenManager
	if cfg.Auth.JWTSecret != "" {
		tokens, err = auth.NewTokenManager(cfg.Auth)
		if err != nil {
			return nil, err
		}
	} else {
		log.Warn("JWT secret not configured, admin endpoints are unreachable")
	}

	gemstones := repository.NewGemstoneRepository(db)
	translations := repository.NewTranslationRepository(db)
	analytics := repository.NewAnalyticsRepository(db)

	return &App{
		Config:  cfg,
		Logger:  log,
		DB:      db,
		Storage: objectStorage,
		Search: service.NewSearchService(gemstones, translations, analytics, log, service.SearchConfig{
			DefaultPageSize:      cfg.Search.DefaultPageSize,
			MaxPageSize:          cfg.Search.MaxPageSize,
			SuggestionLimit:      cfg.Search.SuggestionLimit,
			SuggestOnZeroResults: cfg.Search.SuggestOnZeroResults,
			RecordAnalytics:      cfg.Search.RecordAnalytics,
		}),
		Catalog:   service.NewCatalogService(gemstones, translations, objectStorage, log),
		Carts:     service.NewCartService(repository.NewCartRepository(db), gemstones),
		Orders:    service.NewOrderService(repository.NewOrderRepository(db)),
		Analytics: service.NewAnalyticsService(analytics),
		Import: service.NewImportService(gemstones, repository.NewImportJobRepository(db), objectStorage, log, &service.ImportConfig{
			Workers:   cfg.Import.Workers,
			BatchSize: cfg.Import.BatchSize,
		}),
		Tokens: tokens,
	}, nil
}

// Sources returns every configured import source keyed by its source ID:
// one per staging directory with a manifest, plus the HTTP feed when a
// base URL is configured.
func (a *App) Sources() (map[string]source.Source, error) {
	sources := map[string]source.Source{}

	names, err := staging.ListStagingSources(a.Config.Import.StagingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list staging sources: %w", err)
	}
	for _, name := range names {
		src := staging.NewAdapter(a.Config.Import.StagingPath, name)
		sources[src.GetSourceID()] = src
	}

	if a.Config.Import.Feed.BaseURL != "" {
		src, err := feed.NewAdapter(&a.Config.Import.Feed)
		if err != nil {
			return nil, err
		}
		sources[src.GetSourceID()] = src
	}
	return sources, nil
}

// APIServices adapts the app to the HTTP layer.
func (a *App) APIServices(sources map[string]source.Source) *api.Services {
	return &api.Services{
		DB:        a.DB,
		Search:    a.Search,
		Catalog:   a.Catalog,
		Carts:     a.Carts,
		Orders:    a.Orders,
		Analytics: a.Analytics,
		Import:    a.Import,
		Sources:   sources,
		Tokens:    a.Tokens,
		Logger:    a.Logger,
	}
}

// Close releases the database connection.
func (a *App) Close() error {
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
