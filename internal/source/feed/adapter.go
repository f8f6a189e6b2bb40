package feed

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/gemstore/internal/config"
	"github.com/timmy/gemstore/internal/source"
)

const defaultTimeout = 30 * time.Second

// listing is the wire shape of one item in a feed page.
type listing struct {
	ID                string   `json:"id"`
	SerialNumber      string   `json:"serial_number"`
	Type              string   `json:"type"`
	Color             string   `json:"color"`
	Cut               string   `json:"cut"`
	Clarity           string   `json:"clarity"`
	Origin            string   `json:"origin"`
	WeightCarats      float64  `json:"weight_carats"`
	LengthMM          float64  `json:"length_mm"`
	WidthMM           float64  `json:"width_mm"`
	DepthMM           float64  `json:"depth_mm"`
	Price             price    `json:"price"`
	Available         *bool    `json:"available"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	CertificateNumber string   `json:"certificate_number"`
	CertificationLab  string   `json:"certification_lab"`
	Images            []string `json:"images"`
	Videos            []string `json:"videos"`
}

type price struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type pageResponse struct {
	Items      []listing `json:"items"`
	NextCursor string    `json:"next_cursor"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Adapter implements the Source interface for a supplier's HTTP JSON catalog.
// Pages are requested as GET <base_url>/gemstones?cursor=&limit=.
type Adapter struct {
	name     string
	client   *resty.Client
	pageSize int
}

// NewAdapter creates a feed adapter from configuration.
// Parameters:
//   - cfg: feed configuration; env references are resolved before validation.
// Returns:
//   - *Adapter: initialized adapter.
//   - error: non-nil if the configuration is invalid.
func NewAdapter(cfg *config.FeedConfig) (*Adapter, error) {
	cfg = cfg.Clone()
	cfg.ResolveEnvVars()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &Adapter{name: cfg.Name, client: client, pageSize: cfg.PageSize}, nil
}

// GetSourceID returns the source identifier with a "feed:" prefix.
func (a *Adapter) GetSourceID() string {
	return "feed:" + a.name
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Feed (%s)", a.name)
}

// FetchBatch requests one page from the feed. limit is capped at the
// configured page size.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.GemstoneItem, string, error) {
	if limit <= 0 || limit > a.pageSize {
		limit = a.pageSize
	}

	var page pageResponse
	var apiErr errorResponse
	req := a.client.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetResult(&page).
		SetError(&apiErr)
	if cursor != "" {
		req.SetQueryParam("cursor", cursor)
	}

	resp, err := req.Get("/gemstones")
	if err != nil {
		return nil, "", fmt.Errorf("feed request failed: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return nil, "", fmt.Errorf("feed returned %d: %s", resp.StatusCode(), apiErr.Error)
		}
		return nil, "", fmt.Errorf("feed returned %d", resp.StatusCode())
	}

	items := make([]source.GemstoneItem, 0, len(page.Items))
	for i := range page.Items {
		if page.Items[i].SerialNumber == "" {
			continue
		}
		items = append(items, a.toItem(&page.Items[i]))
	}
	return items, page.NextCursor, nil
}

// ReadMedia downloads a media file referenced by the feed.
func (a *Adapter) ReadMedia(ctx context.Context, ref source.MediaRef) ([]byte, error) {
	if ref.URL == "" {
		return nil, fmt.Errorf("feed media has no URL")
	}
	resp, err := a.client.R().SetContext(ctx).SetHeader("Accept", "*/*").Get(ref.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", ref.URL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to download %s: status %d", ref.URL, resp.StatusCode())
	}
	return resp.Body(), nil
}

func (a *Adapter) toItem(l *listing) source.GemstoneItem {
	inStock := true
	if l.Available != nil {
		inStock = *l.Available
	}
	id := l.ID
	if id == "" {
		id = l.SerialNumber
	}

	item := source.GemstoneItem{
		SourceID:          id,
		SerialNumber:      l.SerialNumber,
		Type:              l.Type,
		Color:             l.Color,
		Cut:               l.Cut,
		Clarity:           l.Clarity,
		Origin:            l.Origin,
		WeightCarats:      l.WeightCarats,
		LengthMM:          l.LengthMM,
		WidthMM:           l.WidthMM,
		DepthMM:           l.DepthMM,
		PriceAmount:       l.Price.Amount,
		PriceCurrency:     l.Price.Currency,
		InStock:           inStock,
		Description:       l.Description,
		Tags:              l.Tags,
		CertificateNumber: l.CertificateNumber,
		CertificationLab:  l.CertificationLab,
	}
	for _, u := range l.Images {
		item.Media = append(item.Media, source.MediaRef{URL: u, Format: source.FormatFromName(u), Kind: "image"})
	}
	for _, u := range l.Videos {
		item.Media = append(item.Media, source.MediaRef{URL: u, Format: source.FormatFromName(u), Kind: "video"})
	}
	return item
}
