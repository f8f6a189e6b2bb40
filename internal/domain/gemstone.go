package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/timmy/gemstore/internal/textsearch"
)

// GemstoneType is the legacy enumerated gemstone type. New rows also carry a
// free-form TypeCode that joins against the translation table.
type GemstoneType string

const (
	GemstoneTypeDiamond           GemstoneType = "diamond"
	GemstoneTypeRuby              GemstoneType = "ruby"
	GemstoneTypeSapphire          GemstoneType = "sapphire"
	GemstoneTypeEmerald           GemstoneType = "emerald"
	GemstoneTypeAmethyst          GemstoneType = "amethyst"
	GemstoneTypeTopaz             GemstoneType = "topaz"
	GemstoneTypeGarnet            GemstoneType = "garnet"
	GemstoneTypePeridot           GemstoneType = "peridot"
	GemstoneTypeCitrine           GemstoneType = "citrine"
	GemstoneTypeTanzanite         GemstoneType = "tanzanite"
	GemstoneTypeAquamarine        GemstoneType = "aquamarine"
	GemstoneTypeMorganite         GemstoneType = "morganite"
	GemstoneTypeTourmaline        GemstoneType = "tourmaline"
	GemstoneTypeParaibaTourmaline GemstoneType = "paraiba_tourmaline"
	GemstoneTypeSpinel            GemstoneType = "spinel"
	GemstoneTypeAlexandrite       GemstoneType = "alexandrite"
	GemstoneTypeAgate             GemstoneType = "agate"
)

// DisplayName renders the enum value as words, e.g. "paraiba tourmaline".
func (t GemstoneType) DisplayName() string {
	return strings.ReplaceAll(string(t), "_", " ")
}

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Gemstone is a sellable stone.
//
// Categorical attributes exist twice: as the legacy value (Name, Color, Cut,
// Clarity) and as a code joining the translation table (TypeCode, ColorCode,
// CutCode, ClarityCode). Codes win when both are set.
//
// The four search vectors are derived state, rebuilt on every save by the
// catalog write path and never edited directly.
type Gemstone struct {
	ID           string       `gorm:"type:text;primaryKey" json:"id"`
	SerialNumber string       `gorm:"type:text;not null;uniqueIndex:idx_gemstones_serial" json:"serial_number"`
	Name         GemstoneType `gorm:"type:text;not null;index:idx_gemstones_name" json:"name"`
	TypeCode     string       `gorm:"type:text;index:idx_gemstones_type_code" json:"type_code,omitempty"`
	Color        string       `gorm:"type:text" json:"color"`
	ColorCode    string       `gorm:"type:text;index:idx_gemstones_color_code" json:"color_code,omitempty"`
	Cut          string       `gorm:"type:text" json:"cut"`
	CutCode      string       `gorm:"type:text" json:"cut_code,omitempty"`
	Clarity      string       `gorm:"type:text" json:"clarity"`
	ClarityCode  string       `gorm:"type:text" json:"clarity_code,omitempty"`
	Origin       string       `gorm:"type:text;index:idx_gemstones_origin" json:"origin,omitempty"`

	WeightCarats float64 `gorm:"not null;default:0" json:"weight_carats"`
	LengthMM     float64 `json:"length_mm,omitempty"`
	WidthMM      float64 `json:"width_mm,omitempty"`
	DepthMM      float64 `json:"depth_mm,omitempty"`

	// PriceAmount is in minor currency units.
	PriceAmount   int64  `gorm:"not null;default:0;index:idx_gemstones_price" json:"price_amount"`
	PriceCurrency string `gorm:"type:text;not null;default:USD" json:"price_currency"`
	InStock       bool   `gorm:"not null" json:"in_stock"`

	Description       string      `gorm:"type:text" json:"description"`
	Tags              StringArray `gorm:"type:text" json:"tags,omitempty"`
	CertificateNumber string      `gorm:"type:text" json:"certificate_number,omitempty"`
	CertificationLab  string      `gorm:"type:text" json:"certification_lab,omitempty"`

	PrimaryImageURL *string `gorm:"type:text" json:"primary_image_url,omitempty"`
	PrimaryVideoURL *string `gorm:"type:text" json:"primary_video_url,omitempty"`

	// AI shadow fields, written by an external batch pipeline.
	AIColor           *string    `gorm:"type:text" json:"ai_color,omitempty"`
	AIColorConfidence *float64   `json:"ai_color_confidence,omitempty"`
	AICut             *string    `gorm:"type:text" json:"ai_cut,omitempty"`
	AICutConfidence   *float64   `json:"ai_cut_confidence,omitempty"`
	AIDescription     *string    `gorm:"type:text" json:"ai_description,omitempty"`
	AIAnalyzedAt      *time.Time `json:"ai_analyzed_at,omitempty"`

	SearchVectorEN      textsearch.Vector `gorm:"column:search_vector_en;type:text" json:"-"`
	SearchVectorRU      textsearch.Vector `gorm:"column:search_vector_ru;type:text" json:"-"`
	DescriptionVectorEN textsearch.Vector `gorm:"column:description_vector_en;type:text" json:"-"`
	DescriptionVectorRU textsearch.Vector `gorm:"column:description_vector_ru;type:text" json:"-"`

	// ImageCount is filled by search queries from gemstone_images; it is never written.
	ImageCount int `gorm:"->;-:migration" json:"image_count"`

	Images []GemstoneImage `gorm:"foreignKey:GemstoneID" json:"images,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_gemstones_created_at" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Gemstone.
func (Gemstone) TableName() string {
	return "gemstones"
}

// EffectiveTypeCode returns the translation code, falling back to the legacy enum.
func (g *Gemstone) EffectiveTypeCode() string {
	if g.TypeCode != "" {
		return g.TypeCode
	}
	return string(g.Name)
}

// EffectiveColorCode returns the color code, then the manual color, then the AI-detected color.
func (g *Gemstone) EffectiveColorCode() string {
	switch {
	case g.ColorCode != "":
		return g.ColorCode
	case g.Color != "":
		return g.Color
	case g.AIColor != nil:
		return *g.AIColor
	}
	return ""
}

// EffectiveCutCode returns the cut code, then the manual cut, then the AI-detected cut.
func (g *Gemstone) EffectiveCutCode() string {
	switch {
	case g.CutCode != "":
		return g.CutCode
	case g.Cut != "":
		return g.Cut
	case g.AICut != nil:
		return *g.AICut
	}
	return ""
}

// EffectiveClarityCode returns the clarity code, falling back to the legacy value.
func (g *Gemstone) EffectiveClarityCode() string {
	if g.ClarityCode != "" {
		return g.ClarityCode
	}
	return g.Clarity
}

// HasImages reports whether the stone has a primary image or any image row.
func (g *Gemstone) HasImages() bool {
	return (g.PrimaryImageURL != nil && *g.PrimaryImageURL != "") || g.ImageCount > 0 || len(g.Images) > 0
}

// HasCertification reports whether a lab certificate is recorded.
func (g *Gemstone) HasCertification() bool {
	return g.CertificateNumber != "" || g.CertificationLab != ""
}

// HasAIAnalysis reports whether any AI shadow field has been populated.
func (g *Gemstone) HasAIAnalysis() bool {
	return g.AIAnalyzedAt != nil || g.AIColor != nil || g.AICut != nil || g.AIDescription != nil
}

// SearchVector returns the weighted search vector for a locale ("ru" or "en").
func (g *Gemstone) SearchVector(locale string) textsearch.Vector {
	if locale == "ru" {
		return g.SearchVectorRU
	}
	return g.SearchVectorEN
}

// DescriptionVector returns the description-only vector for a locale.
func (g *Gemstone) DescriptionVector(locale string) textsearch.Vector {
	if locale == "ru" {
		return g.DescriptionVectorRU
	}
	return g.DescriptionVectorEN
}

// GemstoneImage is an image or video attached to a gemstone.
type GemstoneImage struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	GemstoneID string    `gorm:"type:text;not null;index:idx_gemstone_images_gemstone" json:"gemstone_id"`
	StorageKey string    `gorm:"type:text" json:"storage_key,omitempty"`
	URL        string    `gorm:"type:text;not null" json:"url"`
	Kind       string    `gorm:"type:text;not null;default:image" json:"kind"`
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Format     string    `gorm:"type:text" json:"format,omitempty"`
	SortOrder  int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for GemstoneImage.
func (GemstoneImage) TableName() string {
	return "gemstone_images"
}

// SearchHit is a gemstone with its relevance score for one query.
type SearchHit struct {
	Gemstone
	RelevanceScore float64 `json:"relevance_score"`
}
