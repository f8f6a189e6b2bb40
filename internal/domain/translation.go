package domain

import "time"

// AttributeFamily names one controlled vocabulary of gemstone attributes.
type AttributeFamily string

const (
	FamilyType    AttributeFamily = "type"
	FamilyColor   AttributeFamily = "color"
	FamilyCut     AttributeFamily = "cut"
	FamilyClarity AttributeFamily = "clarity"
)

// AttributeFamilies lists every family in a fixed order.
var AttributeFamilies = []AttributeFamily{FamilyType, FamilyColor, FamilyCut, FamilyClarity}

// Valid reports whether f is a known family.
func (f AttributeFamily) Valid() bool {
	for _, known := range AttributeFamilies {
		if f == known {
			return true
		}
	}
	return false
}

// Translation maps an attribute code to its display name in one locale.
// (family, code, locale) is unique.
type Translation struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Family      AttributeFamily `gorm:"type:text;not null;uniqueIndex:idx_translations_family_code_locale,priority:1" json:"family"`
	Code        string          `gorm:"type:text;not null;uniqueIndex:idx_translations_family_code_locale,priority:2" json:"code"`
	Locale      string          `gorm:"type:text;not null;uniqueIndex:idx_translations_family_code_locale,priority:3;index:idx_translations_locale" json:"locale"`
	Name        string          `gorm:"type:text;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Translation.
func (Translation) TableName() string {
	return "attribute_translations"
}

// VocabularyEntry is a localized display name tagged with its family.
type VocabularyEntry struct {
	Text     string          `json:"text"`
	Category AttributeFamily `json:"category"`
}
