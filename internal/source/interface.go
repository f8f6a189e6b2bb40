package source

import (
	"context"
	"strings"

	"github.com/timmy/gemstore/internal/domain"
)

// MediaRef points at one photo or video of a catalog item.
type MediaRef struct {
	URL       string // Remote URL (feed sources)
	LocalPath string // Local file path (staging sources)
	Format    string // File format (jpeg, png, webp, mp4, ...)
	Kind      string // "image" or "video"
}

// GemstoneItem represents a gemstone listing from a catalog source.
type GemstoneItem struct {
	SourceID          string // Unique ID within the source
	SerialNumber      string
	Type              string
	Color             string
	Cut               string
	Clarity           string
	Origin            string
	WeightCarats      float64
	LengthMM          float64
	WidthMM           float64
	DepthMM           float64
	PriceAmount       int64 // Minor currency units
	PriceCurrency     string
	InStock           bool
	Description       string
	Tags              []string
	CertificateNumber string
	CertificationLab  string
	Media             []MediaRef
}

// ToGemstone maps the listing onto a new catalog row. Categorical values are
// lowercased and used both as the legacy value and as the translation code.
func (i *GemstoneItem) ToGemstone() *domain.Gemstone {
	typeCode := normalizeCode(i.Type)
	colorCode := normalizeCode(i.Color)
	cutCode := normalizeCode(i.Cut)
	clarityCode := strings.ToUpper(strings.TrimSpace(i.Clarity))

	currency := strings.ToUpper(strings.TrimSpace(i.PriceCurrency))
	if currency == "" {
		currency = "USD"
	}

	return &domain.Gemstone{
		SerialNumber:      strings.TrimSpace(i.SerialNumber),
		Name:              domain.GemstoneType(typeCode),
		TypeCode:          typeCode,
		Color:             colorCode,
		ColorCode:         colorCode,
		Cut:               cutCode,
		CutCode:           cutCode,
		Clarity:           clarityCode,
		ClarityCode:       clarityCode,
		Origin:            strings.TrimSpace(i.Origin),
		WeightCarats:      i.WeightCarats,
		LengthMM:          i.LengthMM,
		WidthMM:           i.WidthMM,
		DepthMM:           i.DepthMM,
		PriceAmount:       i.PriceAmount,
		PriceCurrency:     currency,
		InStock:           i.InStock,
		Description:       strings.TrimSpace(i.Description),
		Tags:              domain.StringArray(i.Tags),
		CertificateNumber: strings.TrimSpace(i.CertificateNumber),
		CertificationLab:  strings.TrimSpace(i.CertificationLab),
	}
}

// normalizeCode turns "Paraiba Tourmaline" into "paraiba_tourmaline".
func normalizeCode(v string) string {
	return strings.ReplaceAll(strings.ToLower(strings.Join(strings.Fields(v), " ")), " ", "_")
}

// Source defines the interface for gemstone catalog sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	// Parameters: none.
	// Returns:
	//   - string: stable source identifier.
	GetSourceID() string

	// GetDisplayName returns a human-readable name for this source.
	// Parameters: none.
	// Returns:
	//   - string: display-friendly source name.
	GetDisplayName() string

	// FetchBatch fetches a batch of gemstone items starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of items to fetch.
	// Returns:
	//   - items: batch of gemstone items.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []GemstoneItem, nextCursor string, err error)

	// ReadMedia returns the bytes of one media file referenced by an item.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - ref: media reference from a fetched item.
	// Returns:
	//   - []byte: file content.
	//   - error: non-nil if the file cannot be read.
	ReadMedia(ctx context.Context, ref MediaRef) ([]byte, error)
}

// FormatFromName infers a media format from a file name or URL path.
func FormatFromName(name string) string {
	if idx := strings.IndexAny(name, "?#"); idx != -1 {
		name = name[:idx]
	}
	dot := strings.LastIndex(name, ".")
	if dot == -1 {
		return ""
	}
	ext := strings.ToLower(name[dot+1:])
	if ext == "jpg" {
		return "jpeg"
	}
	return ext
}

// KindForFormat reports "video" for video container formats and "image" otherwise.
func KindForFormat(format string) string {
	switch format {
	case "mp4", "mov", "webm":
		return "video"
	default:
		return "image"
	}
}
