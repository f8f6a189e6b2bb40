package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/gemstore/internal/domain"
)

func TestCatalogService_CreateValidatesAndRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		g    *domain.Gemstone
	}{
		{name: "missing serial", g: &domain.Gemstone{Name: domain.GemstoneTypeRuby}},
		{name: "missing type", g: &domain.Gemstone{SerialNumber: "X"}},
		{name: "negative price", g: &domain.Gemstone{SerialNumber: "X", Name: domain.GemstoneTypeRuby, PriceAmount: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, env.catalog.CreateGemstone(ctx, tt.g), ErrInvalidInput)
		})
	}

	env.addGem(t, "GEM-1", domain.GemstoneTypeRuby, "red", 1000)
	err := env.catalog.CreateGemstone(ctx, &domain.Gemstone{SerialNumber: "GEM-1", Name: domain.GemstoneTypeRuby})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCatalogService_UpdateRecomputesVectors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.addGem(t, "GEM-1", domain.GemstoneTypeRuby, "red", 1000)
	created := g.CreatedAt

	updated, err := env.catalog.UpdateGemstone(ctx, g.ID, &domain.Gemstone{
		SerialNumber: "GEM-1",
		Name:         domain.GemstoneTypeSapphire,
		ColorCode:    "blue",
		PriceAmount:  2000,
		InStock:      true,
	})
	require.NoError(t, err)
	assert.True(t, created.Equal(updated.CreatedAt))
	assert.NotNil(t, updated.PrimaryImageURL)

	resp, err := env.search.Search(ctx, &SearchRequest{Query: "sapphire"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Total)
	resp, err = env.search.Search(ctx, &SearchRequest{Query: "ruby"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)

	_, err = env.catalog.UpdateGemstone(ctx, "missing", &domain.Gemstone{SerialNumber: "Z", Name: domain.GemstoneTypeRuby})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCatalogService_GetAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.addGem(t, "GEM-1", domain.GemstoneTypeRuby, "red", 1000)

	img, err := env.catalog.AddImage(ctx, g.ID, ImageInput{Data: pngBytes(t, 4, 3)})
	require.NoError(t, err)
	ok, err := env.storage.Exists(ctx, img.StorageKey)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := env.catalog.GetGemstone(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "GEM-1", got.SerialNumber)

	require.NoError(t, env.catalog.DeleteGemstone(ctx, g.ID))
	_, err = env.catalog.GetGemstone(ctx, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	ok, err = env.storage.Exists(ctx, img.StorageKey)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, env.catalog.DeleteGemstone(ctx, g.ID), ErrNotFound)
}

func TestCatalogService_AddImage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := &domain.Gemstone{SerialNumber: "GEM-9", Name: domain.GemstoneTypeSpinel, PriceAmount: 5000, InStock: true}
	require.NoError(t, env.catalog.CreateGemstone(ctx, g))

	img, err := env.catalog.AddImage(ctx, g.ID, ImageInput{Data: pngBytes(t, 8, 6)})
	require.NoError(t, err)
	assert.Equal(t, 8, img.Width)
	assert.Equal(t, 6, img.Height)
	assert.Equal(t, "png", img.Format)
	assert.Equal(t, "gemstones/gem-9/00.png", img.StorageKey)
	assert.Equal(t, "image/png", env.storage.ContentType(img.StorageKey))

	got, err := env.catalog.GetGemstone(ctx, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PrimaryImageURL)
	assert.Equal(t, img.URL, *got.PrimaryImageURL)

	_, err = env.catalog.AddImage(ctx, g.ID, ImageInput{Data: []byte("not an image")})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.catalog.AddImage(ctx, g.ID, ImageInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.catalog.AddImage(ctx, "missing", ImageInput{URL: "https://x/y.jpg"})
	assert.ErrorIs(t, err, ErrNotFound)

	video, err := env.catalog.AddImage(ctx, g.ID, ImageInput{URL: "https://cdn.example.com/v.mp4", Kind: "video", Format: "mp4"})
	require.NoError(t, err)
	assert.Equal(t, 1, video.SortOrder)
}

func TestCatalogService_UpsertTranslationReindexes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addGem(t, "GEM-1", domain.GemstoneTypeRuby, "red", 1000)
	env.addGem(t, "GEM-2", domain.GemstoneTypeSapphire, "blue", 1000)

	resp, err := env.search.Search(ctx, &SearchRequest{Query: "лал"})
	require.NoError(t, err)
	assert.Zero(t, resp.Total)

	n, err := env.catalog.UpsertTranslation(ctx, &domain.Translation{Family: domain.FamilyType, Code: "ruby", Locale: "RU", Name: "Лал"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	resp, err = env.search.Search(ctx, &SearchRequest{Query: "лал"})
	require.NoError(t, err)
	require.Equal(t, int64(1), resp.Total)
	assert.Equal(t, "GEM-1", resp.Items[0].SerialNumber)

	_, err = env.catalog.UpsertTranslation(ctx, &domain.Translation{Family: "shape", Code: "x", Locale: "en", Name: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = env.catalog.UpsertTranslation(ctx, &domain.Translation{Family: domain.FamilyType, Code: "x", Locale: "de", Name: "X"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCatalogService_ReindexAll(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for _, serial := range []string{"GEM-1", "GEM-2", "GEM-3"} {
		env.addGem(t, serial, domain.GemstoneTypeRuby, "red", 1000)
	}
	before, err := env.gemstones.GetBySerial(ctx, "GEM-2")
	require.NoError(t, err)

	n, err := env.catalog.ReindexAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	after, err := env.gemstones.GetBySerial(ctx, "GEM-2")
	require.NoError(t, err)
	assert.Equal(t, before.SearchVectorEN.String(), after.SearchVectorEN.String())
	assert.Equal(t, before.SearchVectorRU.String(), after.SearchVectorRU.String())
}
