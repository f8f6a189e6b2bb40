package search

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/timmy/gemstore/internal/domain"
)

// ErrInvalidFilters is returned when a known filter key carries a value of the wrong type.
var ErrInvalidFilters = errors.New("invalid filters")

// Filters is the typed form of the filters_json object accepted by every
// search entry point. A nil pointer, an empty slice and a false flag all mean
// "no constraint".
//
// Prices are compared against Gemstone.PriceAmount, i.e. in minor units.
type Filters struct {
	MinPrice  *float64 `json:"minPrice,omitempty"`
	MaxPrice  *float64 `json:"maxPrice,omitempty"`
	MinWeight *float64 `json:"minWeight,omitempty"`
	MaxWeight *float64 `json:"maxWeight,omitempty"`

	GemstoneTypes []string `json:"gemstoneTypes,omitempty"`
	Colors        []string `json:"colors,omitempty"`
	Cuts          []string `json:"cuts,omitempty"`
	Clarities     []string `json:"clarities,omitempty"`
	Origins       []string `json:"origins,omitempty"`

	InStockOnly      bool `json:"inStockOnly,omitempty"`
	HasImages        bool `json:"hasImages,omitempty"`
	HasCertification bool `json:"hasCertification,omitempty"`
	HasAIAnalysis    bool `json:"hasAIAnalysis,omitempty"`
	UseFuzzy         bool `json:"useFuzzy,omitempty"`

	// SearchDescriptions unions the description vector into the exact-match vector.
	SearchDescriptions bool `json:"searchDescriptions,omitempty"`

	// Ignored lists unrecognized keys from the decoded object, sorted.
	Ignored []string `json:"-"`
}

var filterKeys = map[string]struct{}{
	"minPrice": {}, "maxPrice": {}, "minWeight": {}, "maxWeight": {},
	"gemstoneTypes": {}, "colors": {}, "cuts": {}, "clarities": {}, "origins": {},
	"inStockOnly": {}, "hasImages": {}, "hasCertification": {}, "hasAIAnalysis": {},
	"useFuzzy": {}, "searchDescriptions": {},
}

// ParseFilters decodes a filters_json object. Empty input and JSON null give
// zero Filters. Unknown keys are skipped and reported in Ignored.
func ParseFilters(raw []byte) (Filters, error) {
	var f Filters
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return f, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}

	known := make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		if _, ok := filterKeys[key]; ok {
			known[key] = value
			continue
		}
		f.Ignored = append(f.Ignored, key)
	}
	sort.Strings(f.Ignored)

	cleaned, err := json.Marshal(known)
	if err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	ignored := f.Ignored
	if err := json.Unmarshal(cleaned, &f); err != nil {
		return Filters{}, fmt.Errorf("%w: %v", ErrInvalidFilters, err)
	}
	f.Ignored = ignored
	return f, nil
}

// JSON renders the recognized filters, omitting absent ones.
func (f Filters) JSON() []byte {
	b, err := json.Marshal(f)
	if err != nil {
		return []byte("{}")
	}
	return b
}

// Predicate reports whether a gemstone passes a set of filters.
type Predicate func(g *domain.Gemstone) bool

// Dimension is a facetable categorical attribute.
type Dimension string

const (
	DimensionNone    Dimension = ""
	DimensionType    Dimension = "type"
	DimensionColor   Dimension = "color"
	DimensionCut     Dimension = "cut"
	DimensionClarity Dimension = "clarity"
	DimensionOrigin  Dimension = "origin"
)

// FacetDimensions lists the dimensions reported by facet counts.
var FacetDimensions = []Dimension{DimensionType, DimensionColor, DimensionCut, DimensionClarity, DimensionOrigin}

// Value returns the gemstone's value for a dimension, codes first.
func (d Dimension) Value(g *domain.Gemstone) string {
	switch d {
	case DimensionType:
		return g.EffectiveTypeCode()
	case DimensionColor:
		return g.EffectiveColorCode()
	case DimensionCut:
		return g.EffectiveCutCode()
	case DimensionClarity:
		return g.EffectiveClarityCode()
	case DimensionOrigin:
		return g.Origin
	}
	return ""
}

// Compose builds the conjunction of every present filter.
func Compose(f Filters) Predicate {
	return ComposeExcept(f, DimensionNone)
}

// ComposeExcept is Compose with the filter on one categorical dimension
// dropped, which is what facet counts need.
func ComposeExcept(f Filters, skip Dimension) Predicate {
	var preds []Predicate

	if f.MinPrice != nil {
		min := *f.MinPrice
		preds = append(preds, func(g *domain.Gemstone) bool { return float64(g.PriceAmount) >= min })
	}
	if f.MaxPrice != nil {
		max := *f.MaxPrice
		preds = append(preds, func(g *domain.Gemstone) bool { return float64(g.PriceAmount) <= max })
	}
	if f.MinWeight != nil {
		min := *f.MinWeight
		preds = append(preds, func(g *domain.Gemstone) bool { return g.WeightCarats >= min })
	}
	if f.MaxWeight != nil {
		max := *f.MaxWeight
		preds = append(preds, func(g *domain.Gemstone) bool { return g.WeightCarats <= max })
	}

	categorical := []struct {
		dim    Dimension
		values []string
	}{
		{DimensionType, f.GemstoneTypes},
		{DimensionColor, f.Colors},
		{DimensionCut, f.Cuts},
		{DimensionClarity, f.Clarities},
		{DimensionOrigin, f.Origins},
	}
	for _, c := range categorical {
		if c.dim == skip || len(c.values) == 0 {
			continue
		}
		preds = append(preds, inSet(c.dim, c.values))
	}

	if f.InStockOnly {
		preds = append(preds, func(g *domain.Gemstone) bool { return g.InStock })
	}
	if f.HasImages {
		preds = append(preds, func(g *domain.Gemstone) bool { return g.HasImages() })
	}
	if f.HasCertification {
		preds = append(preds, func(g *domain.Gemstone) bool { return g.HasCertification() })
	}
	if f.HasAIAnalysis {
		preds = append(preds, func(g *domain.Gemstone) bool { return g.HasAIAnalysis() })
	}

	return func(g *domain.Gemstone) bool {
		for _, p := range preds {
			if !p(g) {
				return false
			}
		}
		return true
	}
}

func inSet(dim Dimension, values []string) Predicate {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return func(g *domain.Gemstone) bool {
		_, ok := set[dim.Value(g)]
		return ok
	}
}

// Eligible reports whether a gemstone may appear in default search results:
// a positive price and at least one image.
func Eligible(g *domain.Gemstone) bool {
	return g.PriceAmount > 0 && g.HasImages()
}
