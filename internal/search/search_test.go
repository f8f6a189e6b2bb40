package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/gemstore/internal/domain"
)

type fakeCandidates struct {
	rows []domain.Gemstone
	err  error
}

func (f *fakeCandidates) Searchable(ctx context.Context) ([]domain.Gemstone, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Gemstone, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

type fakeTranslations map[string]string

func translationKey(family domain.AttributeFamily, code, locale string) string {
	return fmt.Sprintf("%s|%s|%s", family, code, locale)
}

func (f fakeTranslations) Lookup(ctx context.Context, family domain.AttributeFamily, code, locale string) (string, bool, error) {
	name, ok := f[translationKey(family, code, locale)]
	return name, ok, nil
}

func (f fakeTranslations) LocalizedNames(ctx context.Context, family domain.AttributeFamily, locale string) (map[string]string, error) {
	out := map[string]string{}
	for key, name := range f {
		parts := strings.Split(key, "|")
		if parts[0] == string(family) && parts[2] == locale {
			out[parts[1]] = name
		}
	}
	return out, nil
}

type failingLookup struct{}

func (failingLookup) Lookup(ctx context.Context, family domain.AttributeFamily, code, locale string) (string, bool, error) {
	return "", false, errors.New("connection reset")
}

var testTranslations = fakeTranslations{
	translationKey(domain.FamilyType, "ruby", "ru"):     "Рубин",
	translationKey(domain.FamilyType, "sapphire", "ru"): "Сапфир",
	translationKey(domain.FamilyType, "diamond", "ru"):  "Бриллиант",
	translationKey(domain.FamilyColor, "red", "ru"):     "Красный",
	translationKey(domain.FamilyColor, "blue", "ru"):    "Синий",
	translationKey(domain.FamilyType, "ruby", "en"):     "Ruby",
	translationKey(domain.FamilyType, "sapphire", "en"): "Sapphire",
	translationKey(domain.FamilyType, "diamond", "en"):  "Diamond",
}

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

type gemOpt func(*domain.Gemstone)

func withPrice(p int64) gemOpt { return func(g *domain.Gemstone) { g.PriceAmount = p } }

func withoutImage() gemOpt { return func(g *domain.Gemstone) { g.PrimaryImageURL = nil } }

func withStock(in bool) gemOpt { return func(g *domain.Gemstone) { g.InStock = in } }

func withDescription(d string) gemOpt { return func(g *domain.Gemstone) { g.Description = d } }

func withColor(c string) gemOpt { return func(g *domain.Gemstone) { g.ColorCode = c } }

func withOrigin(o string) gemOpt { return func(g *domain.Gemstone) { g.Origin = o } }

func newGem(t *testing.T, id string, typ domain.GemstoneType, ageHours int, opts ...gemOpt) domain.Gemstone {
	t.Helper()
	g := domain.Gemstone{
		ID:              id,
		SerialNumber:    "GEM-" + id,
		Name:            typ,
		PriceAmount:     100000,
		PriceCurrency:   "USD",
		InStock:         true,
		WeightCarats:    1.5,
		PrimaryImageURL: strPtr("https://cdn.example.com/" + id + ".jpg"),
		CreatedAt:       baseTime.Add(-time.Duration(ageHours) * time.Hour),
	}
	for _, opt := range opts {
		opt(&g)
	}
	require.NoError(t, NewVectorMaintainer(testTranslations).Recompute(context.Background(), &g))
	return g
}

func newEngine(rows ...domain.Gemstone) *Engine {
	return NewEngine(&fakeCandidates{rows: rows}, testTranslations, Options{})
}

func hitIDs(page *Page) []string {
	ids := make([]string, 0, len(page.Items))
	for _, h := range page.Items {
		ids = append(ids, h.ID)
	}
	return ids
}

func TestDetectLocale(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		override string
		want     string
	}{
		{name: "empty", query: "", want: LocaleEN},
		{name: "blank", query: "   ", want: LocaleEN},
		{name: "latin", query: "blue sapphire", want: LocaleEN},
		{name: "cyrillic", query: "рубин", want: LocaleRU},
		{name: "yo only", query: "ё", want: LocaleRU},
		{name: "capital yo", query: "Ё", want: LocaleRU},
		{name: "mixed script", query: "ruby рубин", want: LocaleRU},
		{name: "single stray cyrillic", query: "sapphir\u0435", want: LocaleRU},
		{name: "override wins", query: "рубин", override: "en", want: LocaleEN},
		{name: "override case", query: "ruby", override: "RU", want: LocaleRU},
		{name: "unknown override ignored", query: "рубин", override: "de", want: LocaleRU},
		{name: "digits only", query: "0042", want: LocaleEN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLocale(tt.query, tt.override))
		})
	}
}

func TestParseFilters(t *testing.T) {
	t.Run("known keys", func(t *testing.T) {
		f, err := ParseFilters([]byte(`{"minPrice":100,"maxWeight":2.5,"gemstoneTypes":["ruby"],"inStockOnly":true,"useFuzzy":true}`))
		require.NoError(t, err)
		require.NotNil(t, f.MinPrice)
		assert.Equal(t, 100.0, *f.MinPrice)
		assert.Equal(t, 2.5, *f.MaxWeight)
		assert.Equal(t, []string{"ruby"}, f.GemstoneTypes)
		assert.True(t, f.InStockOnly)
		assert.True(t, f.UseFuzzy)
		assert.Empty(t, f.Ignored)
	})

	t.Run("unknown and legacy keys ignored", func(t *testing.T) {
		f, err := ParseFilters([]byte(`{"types":["ruby"],"zeta":1,"colors":["red"]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"types", "zeta"}, f.Ignored)
		assert.Empty(t, f.GemstoneTypes)
		assert.Equal(t, []string{"red"}, f.Colors)
	})

	t.Run("empty and null", func(t *testing.T) {
		for _, raw := range []string{"", "null", " ", "{}"} {
			f, err := ParseFilters([]byte(raw))
			require.NoError(t, err, raw)
			assert.Equal(t, Filters{}, f, raw)
		}
	})

	t.Run("wrong type", func(t *testing.T) {
		_, err := ParseFilters([]byte(`{"minPrice":"cheap"}`))
		assert.ErrorIs(t, err, ErrInvalidFilters)
		_, err = ParseFilters([]byte(`[1,2]`))
		assert.ErrorIs(t, err, ErrInvalidFilters)
	})
}

func TestCompose(t *testing.T) {
	aiCut := "oval"
	g := domain.Gemstone{
		Name:         domain.GemstoneTypeRuby,
		ColorCode:    "red",
		Origin:       "Myanmar",
		PriceAmount:  5000,
		WeightCarats: 2,
		InStock:      true,
		AICut:        &aiCut,
	}

	tests := []struct {
		name    string
		filters Filters
		want    bool
	}{
		{name: "no filters", filters: Filters{}, want: true},
		{name: "empty slices are absent", filters: Filters{GemstoneTypes: []string{}, Colors: []string{}}, want: true},
		{name: "false flags are absent", filters: Filters{InStockOnly: false, HasCertification: false}, want: true},
		{name: "price in range", filters: Filters{MinPrice: floatPtr(5000), MaxPrice: floatPtr(5000)}, want: true},
		{name: "price below min", filters: Filters{MinPrice: floatPtr(5001)}, want: false},
		{name: "weight above max", filters: Filters{MaxWeight: floatPtr(1.9)}, want: false},
		{name: "legacy type matches", filters: Filters{GemstoneTypes: []string{"ruby", "sapphire"}}, want: true},
		{name: "type mismatch", filters: Filters{GemstoneTypes: []string{"sapphire"}}, want: false},
		{name: "color code", filters: Filters{Colors: []string{"red"}}, want: true},
		{name: "ai cut counts", filters: Filters{Cuts: []string{"oval"}}, want: true},
		{name: "origin", filters: Filters{Origins: []string{"Sri Lanka"}}, want: false},
		{name: "in stock", filters: Filters{InStockOnly: true}, want: true},
		{name: "needs images", filters: Filters{HasImages: true}, want: false},
		{name: "needs certification", filters: Filters{HasCertification: true}, want: false},
		{name: "ai analysis", filters: Filters{HasAIAnalysis: true}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compose(tt.filters)(&g))
		})
	}
}

func TestComposeExcept_DropsOnlyOneDimension(t *testing.T) {
	g := domain.Gemstone{Name: domain.GemstoneTypeRuby, ColorCode: "red"}
	f := Filters{GemstoneTypes: []string{"sapphire"}, Colors: []string{"red"}}

	assert.False(t, Compose(f)(&g))
	assert.True(t, ComposeExcept(f, DimensionType)(&g))
	assert.False(t, ComposeExcept(f, DimensionColor)(&g))
}

func TestEligible(t *testing.T) {
	g := domain.Gemstone{PriceAmount: 1, PrimaryImageURL: strPtr("x")}
	assert.True(t, Eligible(&g))

	g.PriceAmount = 0
	assert.False(t, Eligible(&g))

	g = domain.Gemstone{PriceAmount: 1, PrimaryImageURL: strPtr("")}
	assert.False(t, Eligible(&g))
	g.ImageCount = 2
	assert.True(t, Eligible(&g))
}

func TestVectorMaintainer(t *testing.T) {
	g := domain.Gemstone{
		SerialNumber: "GEM-0042",
		Name:         domain.GemstoneTypeRuby,
		ColorCode:    "red",
		Description:  "Pigeon blood ruby from Mogok",
	}
	m := NewVectorMaintainer(testTranslations)
	require.NoError(t, m.Recompute(context.Background(), &g))

	t.Run("english weights", func(t *testing.T) {
		rubi := g.SearchVectorEN["rubi"]
		require.NotEmpty(t, rubi)
		assert.Equal(t, byte('A'), byte(rubi[0].Weight))
		assert.Equal(t, byte('B'), byte(g.SearchVectorEN["mogok"][0].Weight))
		assert.Contains(t, g.SearchVectorEN, "0042")
	})

	t.Run("russian uses localized names", func(t *testing.T) {
		assert.Contains(t, g.SearchVectorRU, "рубин")
		assert.Contains(t, g.SearchVectorRU, "красн")
	})

	t.Run("description vectors", func(t *testing.T) {
		assert.NotContains(t, g.DescriptionVectorEN, "0042")
		assert.Contains(t, g.DescriptionVectorEN, "pigeon")
	})

	t.Run("idempotent", func(t *testing.T) {
		before := []string{g.SearchVectorEN.String(), g.SearchVectorRU.String(), g.DescriptionVectorEN.String(), g.DescriptionVectorRU.String()}
		for i := 0; i < 5; i++ {
			require.NoError(t, m.Recompute(context.Background(), &g))
			after := []string{g.SearchVectorEN.String(), g.SearchVectorRU.String(), g.DescriptionVectorEN.String(), g.DescriptionVectorRU.String()}
			assert.Equal(t, before, after)
		}
	})

	t.Run("missing translation falls back to raw code", func(t *testing.T) {
		other := domain.Gemstone{SerialNumber: "GEM-7", Name: domain.GemstoneTypeParaibaTourmaline}
		require.NoError(t, m.Recompute(context.Background(), &other))
		assert.Contains(t, other.SearchVectorRU, "paraiba")
	})

	t.Run("lookup errors never fail the write", func(t *testing.T) {
		other := domain.Gemstone{SerialNumber: "GEM-8", Name: domain.GemstoneTypeRuby}
		require.NoError(t, NewVectorMaintainer(failingLookup{}).Recompute(context.Background(), &other))
		assert.Contains(t, other.SearchVectorRU, "rubi")
	})
}

func TestFuzzyMatch_ThresholdIsStrict(t *testing.T) {
	atThreshold := domain.Gemstone{SerialNumber: "abcxy"}
	aboveThreshold := domain.Gemstone{SerialNumber: "abcdx"}
	s := NewFuzzyMatch("abcdef")

	_, ok := s.Score(Candidate{Gemstone: &atThreshold})
	assert.False(t, ok, "similarity of exactly 0.3 must be excluded")

	score, ok := s.Score(Candidate{Gemstone: &aboveThreshold})
	assert.True(t, ok)
	assert.Greater(t, score, FuzzyThreshold)
}

func TestFuzzyMatch_UsesLocalizedTypeName(t *testing.T) {
	g := domain.Gemstone{SerialNumber: "X-1", Name: domain.GemstoneTypeDiamond}
	s := NewFuzzyMatch("бриллиант")

	_, ok := s.Score(Candidate{Gemstone: &g})
	assert.False(t, ok)

	score, ok := s.Score(Candidate{Gemstone: &g, TypeName: "Бриллиант"})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestExactMatch_StopWordQueryMatchesNothing(t *testing.T) {
	g := newGem(t, "1", domain.GemstoneTypeRuby, 0)
	_, ok := NewExactMatch("the of", LocaleEN, false).Score(Candidate{Gemstone: &g})
	assert.False(t, ok)

	score, ok := NewExactMatch("", LocaleEN, false).Score(Candidate{Gemstone: &g})
	assert.True(t, ok)
	assert.Zero(t, score)
}

func TestExactMatch_SearchDescriptions(t *testing.T) {
	g := newGem(t, "1", domain.GemstoneTypeDiamond, 0, withColor("white"), withDescription("brilliant diamond"))

	plain, ok := NewExactMatch("brilliant", LocaleEN, false).Score(Candidate{Gemstone: &g})
	require.True(t, ok)
	withDesc, ok := NewExactMatch("brilliant", LocaleEN, true).Score(Candidate{Gemstone: &g})
	require.True(t, ok)

	assert.InDelta(t, 0.4, plain, 1e-9)
	assert.InDelta(t, 0.8, withDesc, 1e-9)
}

func TestEngine_RussianQuery(t *testing.T) {
	engine := newEngine(
		newGem(t, "r-old", domain.GemstoneTypeRuby, 48, withColor("red")),
		newGem(t, "r-new", domain.GemstoneTypeRuby, 1, withColor("red")),
		newGem(t, "s-1", domain.GemstoneTypeSapphire, 2, withColor("blue")),
		newGem(t, "r-free", domain.GemstoneTypeRuby, 0, withPrice(0)),
		newGem(t, "r-noimg", domain.GemstoneTypeRuby, 0, withoutImage()),
	)

	page, err := engine.Search(context.Background(), Request{Query: "рубин", Page: 1, PageSize: 24})
	require.NoError(t, err)

	assert.Equal(t, LocaleRU, page.Locale)
	assert.Equal(t, StrategyExact, page.Strategy)
	assert.Equal(t, []string{"r-new", "r-old"}, hitIDs(page))
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, page.Items[0].RelevanceScore, page.Items[1].RelevanceScore)
	assert.Greater(t, page.Items[0].RelevanceScore, 0.0)
}

func TestEngine_FuzzyTypo(t *testing.T) {
	engine := newEngine(
		newGem(t, "d-1", domain.GemstoneTypeDiamond, 3),
		newGem(t, "d-2", domain.GemstoneTypeDiamond, 1),
		newGem(t, "r-1", domain.GemstoneTypeRuby, 2),
	)
	ctx := context.Background()

	exact, err := engine.Search(ctx, Request{Query: "diamnod"})
	require.NoError(t, err)
	assert.Empty(t, exact.Items)
	assert.Zero(t, exact.Total)

	fuzzy, err := engine.Search(ctx, Request{Query: "diamnod", Filters: Filters{UseFuzzy: true}})
	require.NoError(t, err)
	assert.Equal(t, StrategyFuzzy, fuzzy.Strategy)
	assert.Equal(t, []string{"d-2", "d-1"}, hitIDs(fuzzy))
	for _, h := range fuzzy.Items {
		assert.Greater(t, h.RelevanceScore, FuzzyThreshold)
	}
}

func TestEngine_FilteredBrowse(t *testing.T) {
	engine := newEngine(
		newGem(t, "ruby-a", domain.GemstoneTypeRuby, 5),
		newGem(t, "sapph-b", domain.GemstoneTypeSapphire, 1),
		newGem(t, "ruby-c", domain.GemstoneTypeRuby, 3, withStock(false)),
		newGem(t, "emer-d", domain.GemstoneTypeEmerald, 0),
		newGem(t, "ruby-e", domain.GemstoneTypeRuby, 2),
	)

	page, err := engine.Search(context.Background(), Request{
		Filters: Filters{GemstoneTypes: []string{"ruby", "sapphire"}, InStockOnly: true},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"sapph-b", "ruby-e", "ruby-a"}, hitIDs(page))
	for _, h := range page.Items {
		assert.Zero(t, h.RelevanceScore)
	}
}

func TestEngine_AbsentFiltersDoNotChangeResults(t *testing.T) {
	engine := newEngine(
		newGem(t, "1", domain.GemstoneTypeRuby, 1, withDescription("ruby ruby")),
		newGem(t, "2", domain.GemstoneTypeRuby, 2),
		newGem(t, "3", domain.GemstoneTypeSapphire, 3),
	)
	ctx := context.Background()

	base, err := engine.Search(ctx, Request{Query: "ruby"})
	require.NoError(t, err)

	explicit, err := ParseFilters([]byte(`{"minPrice":null,"gemstoneTypes":[],"colors":null,"inStockOnly":false}`))
	require.NoError(t, err)
	withDefaults, err := engine.Search(ctx, Request{Query: "ruby", Filters: explicit})
	require.NoError(t, err)

	assert.Equal(t, hitIDs(base), hitIDs(withDefaults))
	assert.Equal(t, base.Total, withDefaults.Total)
}

func TestEngine_OrderingInvariant(t *testing.T) {
	var rows []domain.Gemstone
	descriptions := []string{"ruby", "ruby ruby", "", "ruby red ruby", "ruby", ""}
	for i, d := range descriptions {
		rows = append(rows, newGem(t, fmt.Sprintf("g%d", i), domain.GemstoneTypeRuby, i%3, withDescription(d)))
	}

	page, err := newEngine(rows...).Search(context.Background(), Request{Query: "ruby"})
	require.NoError(t, err)
	require.Len(t, page.Items, len(rows))

	for i := 1; i < len(page.Items); i++ {
		prev, cur := page.Items[i-1], page.Items[i]
		require.GreaterOrEqual(t, prev.RelevanceScore, cur.RelevanceScore)
		if prev.RelevanceScore == cur.RelevanceScore {
			require.False(t, prev.CreatedAt.Before(cur.CreatedAt))
		}
	}
}

func TestEngine_PaginationIsComplete(t *testing.T) {
	var rows []domain.Gemstone
	for i := 0; i < 10; i++ {
		// pairs share a timestamp so the ID tie-break is exercised
		rows = append(rows, newGem(t, fmt.Sprintf("g%02d", i), domain.GemstoneTypeSapphire, i/2))
	}
	engine := newEngine(rows...)
	ctx := context.Background()

	full, err := engine.Search(ctx, Request{PageSize: 100})
	require.NoError(t, err)
	require.Len(t, full.Items, 10)

	var collected []string
	for p := 1; p <= 4; p++ {
		page, err := engine.Search(ctx, Request{Page: p, PageSize: 3})
		require.NoError(t, err)
		assert.EqualValues(t, 10, page.Total)
		collected = append(collected, hitIDs(page)...)
	}
	assert.Equal(t, hitIDs(full), collected)

	beyond, err := engine.Search(ctx, Request{Page: 9, PageSize: 3})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.EqualValues(t, 10, beyond.Total)
}

func TestEngine_HugePageIsEmptyNotPanic(t *testing.T) {
	engine := newEngine(
		newGem(t, "1", domain.GemstoneTypeRuby, 1),
		newGem(t, "2", domain.GemstoneTypeRuby, 2),
	)
	tests := []struct {
		name string
		page int
		size int
	}{
		{name: "max int", page: math.MaxInt, size: 100},
		{name: "overflowing offset", page: math.MaxInt64 / 50, size: 100},
		{name: "just past end", page: 2, size: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var page *Page
			var err error
			require.NotPanics(t, func() {
				page, err = engine.Search(context.Background(), Request{Page: tt.page, PageSize: tt.size})
			})
			require.NoError(t, err)
			assert.Empty(t, page.Items)
			assert.NotNil(t, page.Items)
			assert.EqualValues(t, 2, page.Total)
		})
	}
}

func TestEngine_SearchFulltextIgnoresDescriptionFlag(t *testing.T) {
	engine := newEngine(newGem(t, "1", domain.GemstoneTypeDiamond, 0, withColor("white"), withDescription("brilliant diamond")))
	ctx := context.Background()

	page, err := engine.SearchFulltext(ctx, "brilliant", Filters{SearchDescriptions: true}, 1, 24)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, LocaleEN, page.Locale)
	assert.InDelta(t, 0.4, page.Items[0].RelevanceScore, 1e-9)

	page, err = engine.SearchFulltext(ctx, "рубин", Filters{}, 1, 24)
	require.NoError(t, err)
	assert.Equal(t, LocaleRU, page.Locale)
}

func TestEngine_SearchMultilingual(t *testing.T) {
	engine := newEngine(
		newGem(t, "d-1", domain.GemstoneTypeDiamond, 0, withColor("white"), withDescription("brilliant diamond")),
		newGem(t, "r-1", domain.GemstoneTypeRuby, 1, withColor("red")),
	)
	ctx := context.Background()

	plain, err := engine.SearchMultilingual(ctx, "brilliant", LocaleEN, Filters{}, 1, 24, false)
	require.NoError(t, err)
	require.Len(t, plain.Items, 1)
	assert.InDelta(t, 0.4, plain.Items[0].RelevanceScore, 1e-9)

	withDesc, err := engine.SearchMultilingual(ctx, "brilliant", LocaleEN, Filters{}, 1, 24, true)
	require.NoError(t, err)
	require.Len(t, withDesc.Items, 1)
	assert.InDelta(t, 0.8, withDesc.Items[0].RelevanceScore, 1e-9)

	ru, err := engine.SearchMultilingual(ctx, "красный", LocaleRU, Filters{}, 1, 24, false)
	require.NoError(t, err)
	assert.Equal(t, LocaleRU, ru.Locale)
	assert.Equal(t, []string{"r-1"}, hitIDs(ru))

	inflected, err := engine.SearchMultilingual(ctx, "красная", LocaleRU, Filters{}, 1, 24, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"r-1"}, hitIDs(inflected))
}

func TestEngine_PagingDefaults(t *testing.T) {
	engine := newEngine()
	tests := []struct {
		name             string
		page, size       int
		wantPage, wantSz int
	}{
		{name: "zero values", wantPage: 1, wantSz: DefaultPageSize},
		{name: "negative page", page: -3, size: 10, wantPage: 1, wantSz: 10},
		{name: "capped size", page: 2, size: 1000, wantPage: 2, wantSz: MaxPageSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := engine.Search(context.Background(), Request{Page: tt.page, PageSize: tt.size})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, page.Page)
			assert.Equal(t, tt.wantSz, page.PageSize)
			assert.NotNil(t, page.Items)
		})
	}
}

func TestEngine_SourceErrorPropagates(t *testing.T) {
	engine := NewEngine(&fakeCandidates{err: errors.New("db down")}, nil, Options{})
	_, err := engine.Search(context.Background(), Request{Query: "ruby"})
	assert.ErrorContains(t, err, "db down")
}

func TestEngine_FacetCountsMatchSearchTotals(t *testing.T) {
	engine := newEngine(
		newGem(t, "1", domain.GemstoneTypeRuby, 1, withColor("red"), withOrigin("Myanmar")),
		newGem(t, "2", domain.GemstoneTypeRuby, 2, withColor("pink"), withOrigin("Myanmar")),
		newGem(t, "3", domain.GemstoneTypeSapphire, 3, withColor("blue"), withOrigin("Sri Lanka")),
		newGem(t, "4", domain.GemstoneTypeSapphire, 4, withColor("pink"), withOrigin("Madagascar"), withStock(false)),
	)
	ctx := context.Background()
	filters := Filters{GemstoneTypes: []string{"ruby"}, InStockOnly: true}

	facets, err := engine.FacetCounts(ctx, Request{Filters: filters})
	require.NoError(t, err)
	assert.EqualValues(t, 2, facets.Total)
	assert.Equal(t, map[string]int64{"ruby": 2, "sapphire": 1}, facets.Counts[DimensionType])
	assert.Equal(t, map[string]int64{"red": 1, "pink": 1}, facets.Counts[DimensionColor])

	for value, count := range facets.Counts[DimensionType] {
		narrowed := filters
		narrowed.GemstoneTypes = []string{value}
		page, err := engine.Search(ctx, Request{Filters: narrowed})
		require.NoError(t, err)
		assert.Equal(t, count, page.Total, value)
	}
}

type fakeVocabulary []domain.VocabularyEntry

func (f fakeVocabulary) Vocabulary(ctx context.Context, locale string) ([]domain.VocabularyEntry, error) {
	return f, nil
}

func TestSuggester(t *testing.T) {
	vocab := fakeVocabulary{
		{Text: "Diamond", Category: domain.FamilyType},
		{Text: "Diamond", Category: domain.FamilyType},
		{Text: "Diamond", Category: domain.FamilyCut},
		{Text: "Ruby", Category: domain.FamilyType},
		{Text: "Diamonds Blue", Category: domain.FamilyColor},
	}
	s := NewSuggester(vocab)
	ctx := context.Background()

	got, err := s.Suggest(ctx, "diamnod", 0, "en")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Diamond", got[0].Text)
	assert.InDelta(t, 4.0/12.0, got[0].Similarity, 1e-9)
	assert.Equal(t, domain.FamilyCut, got[0].Category)
	assert.Equal(t, domain.FamilyType, got[1].Category)

	limited, err := s.Suggest(ctx, "diamond", 1, "en")
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "Diamond", limited[0].Text)

	empty, err := s.Suggest(ctx, "  ", 5, "en")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
