package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/search"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return db
}

func strPtr(s string) *string { return &s }

func testGem(serial string, typ domain.GemstoneType, price int64, image bool) *domain.Gemstone {
	g := &domain.Gemstone{
		SerialNumber:  serial,
		Name:          typ,
		ColorCode:     "red",
		PriceAmount:   price,
		PriceCurrency: "USD",
		InStock:       true,
		WeightCarats:  1.2,
		Description:   "Vivid stone from Mogok",
	}
	if image {
		g.PrimaryImageURL = strPtr("https://cdn.example.com/" + serial + ".jpg")
	}
	return g
}

func TestMigrate_IsIdempotentAndSeeds(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, Migrate(db))

	repo := NewTranslationRepository(db)
	name, found, err := repo.Lookup(context.Background(), domain.FamilyType, "ruby", "ru")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Рубин", name)

	_, found, err = repo.Lookup(context.Background(), domain.FamilyType, "opal", "ru")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGemstoneRepository_SaveRecomputesVectors(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	g := testGem("GEM-0001", domain.GemstoneTypeRuby, 1000, true)
	require.NoError(t, repo.Save(ctx, g))
	require.NotEmpty(t, g.ID)

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Contains(t, stored.SearchVectorRU, "рубин")
	assert.Contains(t, stored.SearchVectorEN, "rubi")
	first := stored.SearchVectorRU.String()

	// unchanged re-save is byte-identical
	require.NoError(t, repo.Save(ctx, stored))
	again, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, first, again.SearchVectorRU.String())
	assert.True(t, again.CreatedAt.Equal(stored.CreatedAt))

	// changing the type rewrites the vectors
	again.Name = domain.GemstoneTypeSapphire
	require.NoError(t, repo.Save(ctx, again))
	changed, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Contains(t, changed.SearchVectorRU, "сапфир")
	assert.NotContains(t, changed.SearchVectorRU, "рубин")
}

func TestGemstoneRepository_UpdateWithoutCreatedAtKeepsIt(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	g := testGem("GEM-0002", domain.GemstoneTypeRuby, 1000, true)
	require.NoError(t, repo.Save(ctx, g))
	created := g.CreatedAt

	update := testGem("GEM-0002", domain.GemstoneTypeRuby, 2000, true)
	update.ID = g.ID
	require.NoError(t, repo.Save(ctx, update))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, stored.PriceAmount)
	assert.WithinDuration(t, created, stored.CreatedAt, time.Second)
}

func TestGemstoneRepository_Searchable(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	withImage := testGem("GEM-1", domain.GemstoneTypeRuby, 1000, true)
	unpriced := testGem("GEM-2", domain.GemstoneTypeRuby, 0, true)
	noImage := testGem("GEM-3", domain.GemstoneTypeRuby, 1000, false)
	imageRow := testGem("GEM-4", domain.GemstoneTypeRuby, 1000, false)
	for _, g := range []*domain.Gemstone{withImage, unpriced, noImage, imageRow} {
		require.NoError(t, repo.Save(ctx, g))
	}
	require.NoError(t, repo.AddImage(ctx, &domain.GemstoneImage{GemstoneID: imageRow.ID, URL: "https://cdn.example.com/4.jpg", Kind: "video"}))

	rows, err := repo.Searchable(ctx)
	require.NoError(t, err)

	ids := map[string]int{}
	for _, r := range rows {
		ids[r.ID] = r.ImageCount
		assert.True(t, search.Eligible(&r), r.SerialNumber)
	}
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, withImage.ID)
	assert.Equal(t, 1, ids[imageRow.ID])
}

func TestGemstoneRepository_AddImagePromotesPrimary(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	g := testGem("GEM-5", domain.GemstoneTypeEmerald, 1000, false)
	require.NoError(t, repo.Save(ctx, g))
	require.NoError(t, repo.AddImage(ctx, &domain.GemstoneImage{GemstoneID: g.ID, URL: "https://cdn/a.jpg", Kind: "image"}))
	require.NoError(t, repo.AddImage(ctx, &domain.GemstoneImage{GemstoneID: g.ID, URL: "https://cdn/b.jpg", Kind: "image", SortOrder: 1}))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PrimaryImageURL)
	assert.Equal(t, "https://cdn/a.jpg", *stored.PrimaryImageURL)
	assert.Len(t, stored.Images, 2)
	assert.Equal(t, 2, stored.ImageCount)

	assert.Error(t, repo.AddImage(ctx, &domain.GemstoneImage{GemstoneID: "missing", URL: "x", Kind: "image"}))
}

func TestGemstoneRepository_SaveKeepsColumnsOwnedElsewhere(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	g := testGem("GEM-20", domain.GemstoneTypeRuby, 1000, false)
	require.NoError(t, repo.Save(ctx, g))
	stale := *g

	require.NoError(t, repo.AddImage(ctx, &domain.GemstoneImage{GemstoneID: g.ID, URL: "https://cdn/new.jpg", Kind: "image"}))
	analyzed := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.Model(&domain.Gemstone{ID: g.ID}).Updates(domain.Gemstone{
		AIColor:      strPtr("pink"),
		AIAnalyzedAt: &analyzed,
	}).Error)

	stale.PriceAmount = 2000
	stale.CreatedAt = time.Time{}
	require.NoError(t, repo.Save(ctx, &stale))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2000), stored.PriceAmount)
	require.NotNil(t, stored.PrimaryImageURL)
	assert.Equal(t, "https://cdn/new.jpg", *stored.PrimaryImageURL)
	require.NotNil(t, stored.AIColor)
	assert.Equal(t, "pink", *stored.AIColor)
	assert.NotNil(t, stored.AIAnalyzedAt)
	assert.True(t, stored.CreatedAt.Equal(g.CreatedAt))
}

func TestGemstoneRepository_ReindexWritesOnlyVectors(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	g := testGem("GEM-21", domain.GemstoneTypeRuby, 1000, false)
	require.NoError(t, repo.Save(ctx, g))
	require.NoError(t, db.Model(&domain.Gemstone{ID: g.ID}).Updates(domain.Gemstone{
		ColorCode:       "blue",
		PrimaryImageURL: strPtr("https://cdn/late.jpg"),
	}).Error)

	require.NoError(t, repo.Reindex(ctx, g.ID))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PrimaryImageURL)
	assert.Equal(t, "https://cdn/late.jpg", *stored.PrimaryImageURL)
	assert.Contains(t, stored.SearchVectorEN, "blue")
	assert.NotContains(t, stored.SearchVectorEN, "red")
	assert.Contains(t, stored.SearchVectorRU, "син")

	assert.Error(t, repo.Reindex(ctx, "missing"))
}

func TestGemstoneRepository_AddVideoPromotesPrimaryVideo(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	g := testGem("GEM-22", domain.GemstoneTypeTopaz, 1000, true)
	require.NoError(t, repo.Save(ctx, g))
	require.NoError(t, repo.AddImage(ctx, &domain.GemstoneImage{GemstoneID: g.ID, URL: "https://cdn/a.mp4", Kind: "video"}))
	require.NoError(t, repo.AddImage(ctx, &domain.GemstoneImage{GemstoneID: g.ID, URL: "https://cdn/b.mp4", Kind: "video", SortOrder: 1}))

	stored, err := repo.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PrimaryVideoURL)
	assert.Equal(t, "https://cdn/a.mp4", *stored.PrimaryVideoURL)
	assert.Equal(t, "https://cdn.example.com/GEM-22.jpg", *stored.PrimaryImageURL)
}

func TestGemstoneRepository_DeleteAndListByCode(t *testing.T) {
	db := newTestDB(t)
	repo := NewGemstoneRepository(db)
	ctx := context.Background()

	legacy := testGem("GEM-6", domain.GemstoneTypeRuby, 1000, true)
	coded := testGem("GEM-7", domain.GemstoneTypeSapphire, 1000, true)
	coded.TypeCode = "ruby"
	other := testGem("GEM-8", domain.GemstoneTypeTopaz, 1000, true)
	for _, g := range []*domain.Gemstone{legacy, coded, other} {
		require.NoError(t, repo.Save(ctx, g))
	}

	ids, err := repo.ListIDsByCode(ctx, domain.FamilyType, "ruby")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{legacy.ID, coded.ID}, ids)

	none, err := repo.ListIDsByCode(ctx, domain.FamilyClarity, "VS1")
	require.NoError(t, err)
	assert.Empty(t, none)

	require.NoError(t, repo.Delete(ctx, other.ID))
	assert.ErrorIs(t, repo.Delete(ctx, other.ID), gorm.ErrRecordNotFound)
	_, err = repo.GetByID(ctx, other.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTranslationRepository_UpsertAndVocabulary(t *testing.T) {
	db := newTestDB(t)
	repo := NewTranslationRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.Translation{Family: domain.FamilyType, Code: "ruby", Locale: "ru", Name: "Рубин звёздный"}))
	name, found, err := repo.Lookup(ctx, domain.FamilyType, "ruby", "ru")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Рубин звёздный", name)

	rows, err := repo.List(ctx, domain.FamilyType, "ru")
	require.NoError(t, err)
	count := 0
	for _, r := range rows {
		if r.Code == "ruby" {
			count++
		}
	}
	assert.Equal(t, 1, count, "upsert must not duplicate (family, code, locale)")

	vocab, err := repo.Vocabulary(ctx, "en")
	require.NoError(t, err)
	assert.Contains(t, vocab, domain.VocabularyEntry{Text: "Diamond", Category: domain.FamilyType})
	assert.Contains(t, vocab, domain.VocabularyEntry{Text: "Oval", Category: domain.FamilyCut})

	names, err := repo.LocalizedNames(ctx, domain.FamilyColor, "ru")
	require.NoError(t, err)
	assert.Equal(t, "Синий", names["blue"])
}

func TestAnalyticsRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewAnalyticsRepository(db)
	ctx := context.Background()

	records := []struct {
		query string
		count int64
	}{
		{"ruby", 3}, {"ruby", 5}, {"diamnod", 0}, {"diamnod", 0}, {"opal", 0}, {"", 10},
	}
	for _, r := range records {
		require.NoError(t, repo.Append(ctx, &domain.SearchAnalytics{
			Query:       r.query,
			ResultCount: r.count,
			Filters:     datatypes.JSON(`{}`),
			Locale:      "en",
			Strategy:    "exact",
		}))
	}

	since := time.Now().Add(-time.Hour)
	top, err := repo.TopQueries(ctx, since, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "diamnod", top[0].Query)
	assert.EqualValues(t, 2, top[0].Searches)
	assert.Equal(t, "ruby", top[1].Query)
	assert.InDelta(t, 4.0, top[1].AvgResultCount, 1e-9)

	zero, err := repo.ZeroResultQueries(ctx, since, 1)
	require.NoError(t, err)
	require.Len(t, zero, 1)
	assert.Equal(t, "diamnod", zero[0].Query)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 6, total)
}

func TestOrderRepository_EventLog(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	ctx := context.Background()

	order := &domain.Order{OwnerID: "user-1", TotalAmount: 5000, Currency: "USD"}
	require.NoError(t, repo.Create(ctx, order))

	steps := []struct {
		status      domain.OrderStatus
		wantChanged bool
	}{
		{domain.OrderStatusConfirmed, true},
		{domain.OrderStatusConfirmed, false},
		{domain.OrderStatusShipped, true},
		{domain.OrderStatusDelivered, true},
		{domain.OrderStatusRefunded, true},
	}
	for _, s := range steps {
		_, changed, err := repo.UpdateStatus(ctx, order.ID, s.status, datatypes.JSON(`{"by":"test"}`))
		require.NoError(t, err)
		assert.Equal(t, s.wantChanged, changed, s.status)
	}

	events, err := repo.Events(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, events, 5)

	assert.Equal(t, domain.OrderEventCreated, events[0].EventType)
	assert.Equal(t, domain.SeverityInfo, events[0].Severity)
	assert.Nil(t, events[0].FromStatus)

	want := []struct {
		from, to domain.OrderStatus
		severity domain.EventSeverity
	}{
		{domain.OrderStatusPending, domain.OrderStatusConfirmed, domain.SeverityInfo},
		{domain.OrderStatusConfirmed, domain.OrderStatusShipped, domain.SeverityInfo},
		{domain.OrderStatusShipped, domain.OrderStatusDelivered, domain.SeveritySuccess},
		{domain.OrderStatusDelivered, domain.OrderStatusRefunded, domain.SeverityWarning},
	}
	for i, w := range want {
		e := events[i+1]
		assert.Equal(t, domain.OrderEventStatusChanged, e.EventType)
		require.NotNil(t, e.FromStatus)
		assert.Equal(t, w.from, *e.FromStatus)
		assert.Equal(t, w.to, e.ToStatus)
		assert.Equal(t, w.severity, e.Severity)
	}

	_, _, err = repo.UpdateStatus(ctx, order.ID, "lost", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	_, _, err = repo.UpdateStatus(ctx, "missing", domain.OrderStatusShipped, nil)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartAndCheckout(t *testing.T) {
	db := newTestDB(t)
	gems := NewGemstoneRepository(db)
	cart := NewCartRepository(db)
	orders := NewOrderRepository(db)
	ctx := context.Background()

	ruby := testGem("GEM-10", domain.GemstoneTypeRuby, 1500, true)
	topaz := testGem("GEM-11", domain.GemstoneTypeTopaz, 300, true)
	require.NoError(t, gems.Save(ctx, ruby))
	require.NoError(t, gems.Save(ctx, topaz))

	require.NoError(t, cart.Add(ctx, "sess-1", ruby.ID, 1))
	require.NoError(t, cart.Add(ctx, "sess-1", ruby.ID, 2))
	require.NoError(t, cart.Add(ctx, "sess-1", topaz.ID, 1))
	require.NoError(t, cart.SetQuantity(ctx, "sess-1", topaz.ID, 4))

	items, err := cart.List(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	require.NotNil(t, items[0].Gemstone)
	assert.Equal(t, "GEM-10", items[0].Gemstone.SerialNumber)

	assert.ErrorIs(t, cart.SetQuantity(ctx, "sess-1", "missing", 2), gorm.ErrRecordNotFound)

	order := &domain.Order{ShippingName: "Ada"}
	require.NoError(t, orders.Checkout(ctx, "sess-1", order))
	assert.EqualValues(t, 3*1500+4*300, order.TotalAmount)
	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, "USD", order.Currency)

	stored, err := orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)

	left, err := cart.List(ctx, "sess-1")
	require.NoError(t, err)
	assert.Empty(t, left)

	assert.ErrorIs(t, orders.Checkout(ctx, "sess-1", &domain.Order{}), ErrEmptyCart)

	require.NoError(t, cart.Add(ctx, "sess-2", topaz.ID, 1))
	require.NoError(t, cart.SetQuantity(ctx, "sess-2", topaz.ID, 0))
	empty, err := cart.List(ctx, "sess-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestImportJobRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewImportJobRepository(db)
	ctx := context.Background()

	job := &domain.ImportJob{SourceType: "staging", SourceID: "batch-1", Status: domain.JobStatusRunning}
	require.NoError(t, repo.Create(ctx, job))
	job.ProcessedItems = 7
	job.Status = domain.JobStatusCompleted
	require.NoError(t, repo.Update(ctx, job))

	stored, err := repo.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusCompleted, stored.Status)
	assert.Equal(t, 7, stored.ProcessedItems)

	recent, err := repo.ListRecent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
