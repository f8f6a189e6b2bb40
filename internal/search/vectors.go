package search

import (
	"context"
	"strings"

	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/textsearch"
)

// TranslationLookup resolves one (family, code, locale) display name.
// found=false means no row exists.
type TranslationLookup interface {
	Lookup(ctx context.Context, family domain.AttributeFamily, code, locale string) (name string, found bool, err error)
}

// VectorMaintainer rebuilds the derived search vectors of a gemstone.
// It runs inside the write transaction, so it must stay cheap: at most two
// single-row lookups per call.
type VectorMaintainer struct {
	lookup TranslationLookup
}

// NewVectorMaintainer creates a VectorMaintainer. lookup may be nil, in which
// case raw codes are used for every locale.
func NewVectorMaintainer(lookup TranslationLookup) *VectorMaintainer {
	return &VectorMaintainer{lookup: lookup}
}

// Recompute fills the four vector columns of g. Translation misses and lookup
// errors fall back to the raw code and never fail the write.
func (m *VectorMaintainer) Recompute(ctx context.Context, g *domain.Gemstone) error {
	typeEN := rawName(string(g.Name), g.TypeCode)
	colorEN := rawName(g.EffectiveColorCode(), "")

	typeRU := m.localized(ctx, domain.FamilyType, g.EffectiveTypeCode(), LocaleRU, typeEN)
	colorRU := m.localized(ctx, domain.FamilyColor, g.EffectiveColorCode(), LocaleRU, colorEN)

	g.SearchVectorEN = buildSearchVector(textsearch.English, g.SerialNumber, typeEN, colorEN, g.Description)
	g.SearchVectorRU = buildSearchVector(textsearch.Russian, g.SerialNumber, typeRU, colorRU, g.Description)
	g.DescriptionVectorEN = textsearch.ToVector(textsearch.English, g.Description).SetWeight(textsearch.WeightB)
	g.DescriptionVectorRU = textsearch.ToVector(textsearch.Russian, g.Description).SetWeight(textsearch.WeightB)
	return nil
}

func (m *VectorMaintainer) localized(ctx context.Context, family domain.AttributeFamily, code, locale, fallback string) string {
	if m.lookup == nil || code == "" {
		return fallback
	}
	name, found, err := m.lookup.Lookup(ctx, family, code, locale)
	if err != nil {
		logger.CtxWarn(ctx, "Translation lookup failed for %s/%s/%s, using raw code: %v", family, code, locale, err)
		return fallback
	}
	if !found || strings.TrimSpace(name) == "" {
		return fallback
	}
	return name
}

// buildSearchVector weights identifying fields A and free text B.
func buildSearchVector(lang textsearch.Language, serial, typeName, colorName, description string) textsearch.Vector {
	head := textsearch.ToVector(lang, joinNonEmpty(serial, typeName)).SetWeight(textsearch.WeightA)
	body := textsearch.ToVector(lang, joinNonEmpty(colorName, description)).SetWeight(textsearch.WeightB)
	return head.Concat(body)
}

// rawName prefers the enum value and renders underscores as spaces.
func rawName(value, fallback string) string {
	if value == "" {
		value = fallback
	}
	return strings.ReplaceAll(value, "_", " ")
}

func joinNonEmpty(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
