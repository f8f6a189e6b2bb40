package staging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/source"
)

const (
	// ManifestFileName is the JSONL manifest file name in staging sources.
	ManifestFileName = "manifest.jsonl"
	// MediaDir is the directory name for staged photos and videos.
	MediaDir = "media"
)

// ManifestItem represents one line of manifest.jsonl.
type ManifestItem struct {
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
	PriceAmount       int64    `json:"price_amount"`
	PriceCurrency     string   `json:"price_currency"`
	InStock           *bool    `json:"in_stock"`
	Description       string   `json:"description"`
	Tags              []string `json:"tags"`
	CertificateNumber string   `json:"certificate_number"`
	CertificationLab  string   `json:"certification_lab"`
	Files             []string `json:"files"`
}

// Adapter implements the Source interface for a staging directory laid out as
// <base>/<source>/manifest.jsonl plus <base>/<source>/media/.
type Adapter struct {
	basePath string
	sourceID string
	items    []source.GemstoneItem
	loaded   bool
}

// NewAdapter creates a new staging adapter.
// Parameters:
//   - basePath: base path to the staging directory.
//   - sourceID: identifier for the staging source.
// Returns:
//   - *Adapter: initialized staging adapter.
func NewAdapter(basePath, sourceID string) *Adapter {
	return &Adapter{
		basePath: basePath,
		sourceID: sourceID,
	}
}

// GetSourceID returns the source identifier with a "staging:" prefix.
func (a *Adapter) GetSourceID() string {
	return "staging:" + a.sourceID
}

// GetDisplayName returns a human-readable name for this source.
func (a *Adapter) GetDisplayName() string {
	return fmt.Sprintf("Staging (%s)", a.sourceID)
}

// FetchBatch fetches a batch of gemstone items from the staging manifest.
// Parameters:
//   - ctx: context for cancellation and deadlines (unused for local reads).
//   - cursor: pagination cursor as an index string.
//   - limit: maximum number of items to fetch.
// Returns:
//   - []source.GemstoneItem: batch of items.
//   - string: next cursor or empty if no more items.
//   - error: non-nil if loading or parsing fails.
func (a *Adapter) FetchBatch(ctx context.Context, cursor string, limit int) ([]source.GemstoneItem, string, error) {
	if err := a.ensureLoaded(ctx); err != nil {
		return nil, "", err
	}

	startIndex := 0
	if cursor != "" {
		var err error
		startIndex, err = strconv.Atoi(cursor)
		if err != nil || startIndex < 0 {
			return nil, "", fmt.Errorf("invalid cursor %q", cursor)
		}
	}

	if startIndex >= len(a.items) {
		return []source.GemstoneItem{}, "", nil
	}

	endIndex := startIndex + limit
	if limit <= 0 || endIndex > len(a.items) {
		endIndex = len(a.items)
	}

	nextCursor := ""
	if endIndex < len(a.items) {
		nextCursor = strconv.Itoa(endIndex)
	}

	return a.items[startIndex:endIndex], nextCursor, nil
}

// ReadMedia reads a staged media file from disk.
func (a *Adapter) ReadMedia(ctx context.Context, ref source.MediaRef) ([]byte, error) {
	if ref.LocalPath == "" {
		return nil, fmt.Errorf("staging media has no local path")
	}
	return os.ReadFile(ref.LocalPath)
}

// GetTotalCount returns the total number of items in staging.
func (a *Adapter) GetTotalCount(ctx context.Context) (int, error) {
	if err := a.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return len(a.items), nil
}

func (a *Adapter) ensureLoaded(ctx context.Context) error {
	if a.loaded {
		return nil
	}
	if err := a.loadItems(ctx); err != nil {
		return fmt.Errorf("failed to load staging items: %w", err)
	}
	a.loaded = true
	return nil
}

// loadItems parses the manifest. Malformed lines and lines without a serial
// number are skipped; missing media files are dropped from the item.
func (a *Adapter) loadItems(ctx context.Context) error {
	stagingPath := filepath.Join(a.basePath, a.sourceID)
	manifestPath := filepath.Join(stagingPath, ManifestFileName)
	mediaPath := filepath.Join(stagingPath, MediaDir)

	file, err := os.Open(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("manifest file not found: %s", manifestPath)
		}
		return fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	a.items = []source.GemstoneItem{}

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var m ManifestItem
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			logger.CtxWarn(ctx, "Skipping malformed manifest line %d: %v", lineNo, err)
			continue
		}
		if strings.TrimSpace(m.SerialNumber) == "" {
			logger.CtxWarn(ctx, "Skipping manifest line %d: missing serial_number", lineNo)
			continue
		}

		a.items = append(a.items, a.toItem(&m, mediaPath))
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading manifest: %w", err)
	}

	// Sort items by ID for consistent ordering
	sort.Slice(a.items, func(i, j int) bool {
		return a.items[i].SourceID < a.items[j].SourceID
	})

	return nil
}

func (a *Adapter) toItem(m *ManifestItem, mediaPath string) source.GemstoneItem {
	id := m.ID
	if id == "" {
		id = m.SerialNumber
	}
	inStock := true
	if m.InStock != nil {
		inStock = *m.InStock
	}

	item := source.GemstoneItem{
		SourceID:          fmt.Sprintf("%s_%s", a.sourceID, id),
		SerialNumber:      m.SerialNumber,
		Type:              m.Type,
		Color:             m.Color,
		Cut:               m.Cut,
		Clarity:           m.Clarity,
		Origin:            m.Origin,
		WeightCarats:      m.WeightCarats,
		LengthMM:          m.LengthMM,
		WidthMM:           m.WidthMM,
		DepthMM:           m.DepthMM,
		PriceAmount:       m.PriceAmount,
		PriceCurrency:     m.PriceCurrency,
		InStock:           inStock,
		Description:       m.Description,
		Tags:              m.Tags,
		CertificateNumber: m.CertificateNumber,
		CertificationLab:  m.CertificationLab,
	}

	for _, name := range m.Files {
		localPath := filepath.Join(mediaPath, name)
		if _, err := os.Stat(localPath); err != nil {
			continue
		}
		format := source.FormatFromName(name)
		item.Media = append(item.Media, source.MediaRef{
			LocalPath: localPath,
			Format:    format,
			Kind:      source.KindForFormat(format),
		})
	}
	return item
}

// ListStagingSources lists all available staging sources.
// Parameters:
//   - basePath: base path to the staging directory.
// Returns:
//   - []string: list of staging source IDs.
//   - error: non-nil if reading the directory fails.
func ListStagingSources(basePath string) ([]string, error) {
	entries, err := os.ReadDir(basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var sources []string
	for _, entry := range entries {
		if entry.IsDir() {
			manifestPath := filepath.Join(basePath, entry.Name(), ManifestFileName)
			if _, err := os.Stat(manifestPath); err == nil {
				sources = append(sources, entry.Name())
			}
		}
	}

	return sources, nil
}
