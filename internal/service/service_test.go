package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/repository"
	"github.com/timmy/gemstore/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	db        *gorm.DB
	gemstones *repository.GemstoneRepository
	analytics *repository.AnalyticsRepository
	storage   *storage.MemoryStorage
	catalog   *CatalogService
	search    *SearchService
	carts     *CartService
	orders    *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	log := logger.NewDefault()
	env := &testEnv{
		db:        db,
		gemstones: repository.NewGemstoneRepository(db),
		analytics: repository.NewAnalyticsRepository(db),
		storage:   storage.NewMemoryStorage("https://cdn.example.com"),
	}
	translations := repository.NewTranslationRepository(db)
	env.catalog = NewCatalogService(env.gemstones, translations, env.storage, log)
	env.search = NewSearchService(env.gemstones, translations, env.analytics, log, SearchConfig{
		SuggestOnZeroResults: true,
		RecordAnalytics:      true,
	})
	env.carts = NewCartService(repository.NewCartRepository(db), env.gemstones)
	env.orders = NewOrderService(repository.NewOrderRepository(db))
	return env
}

func strPtr(s string) *string { return &s }

func (e *testEnv) addGem(t *testing.T, serial string, typ domain.GemstoneType, colorCode string, price int64) *domain.Gemstone {
	t.Helper()
	g := &domain.Gemstone{
		SerialNumber:    serial,
		Name:            typ,
		ColorCode:       colorCode,
		PriceAmount:     price,
		InStock:         true,
		WeightCarats:    1.5,
		Description:     "Untreated stone with excellent luster",
		PrimaryImageURL: strPtr("https://cdn.example.com/" + serial + ".jpg"),
	}
	require.NoError(t, e.catalog.CreateGemstone(context.Background(), g))
	return g
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func adminCtx() context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{UserID: "admin-1", Role: auth.RoleAdmin})
}

func customerCtx(id string) context.Context {
	return auth.WithPrincipal(context.Background(), &auth.Principal{UserID: id, Role: auth.RoleCustomer})
}
