package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/domain"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/service"
	"github.com/timmy/gemstore/internal/source"
)

const maxUploadBytes = 20 << 20

// GemstoneHandler handles catalog endpoints.
type GemstoneHandler struct {
	catalog *service.CatalogService
}

// NewGemstoneHandler creates a new gemstone handler.
// Parameters:
//   - catalog: catalog service instance.
// Returns:
//   - *GemstoneHandler: initialized handler.
func NewGemstoneHandler(catalog *service.CatalogService) *GemstoneHandler {
	return &GemstoneHandler{catalog: catalog}
}

// GetGemstone handles GET /api/v1/gemstones/:id.
func (h *GemstoneHandler) GetGemstone(c *gin.Context) {
	g, err := h.catalog.GetGemstone(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to get gemstone")
		return
	}
	c.JSON(http.StatusOK, g)
}

// CreateGemstone handles POST /api/v1/gemstones.
func (h *GemstoneHandler) CreateGemstone(c *gin.Context) {
	var g domain.Gemstone
	if err := c.ShouldBindJSON(&g); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := h.catalog.CreateGemstone(c.Request.Context(), &g); err != nil {
		respondError(c, err, "Failed to create gemstone")
		return
	}
	c.JSON(http.StatusCreated, g)
}

// UpdateGemstone handles PUT /api/v1/gemstones/:id.
func (h *GemstoneHandler) UpdateGemstone(c *gin.Context) {
	var g domain.Gemstone
	if err := c.ShouldBindJSON(&g); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	updated, err := h.catalog.UpdateGemstone(c.Request.Context(), c.Param("id"), &g)
	if err != nil {
		respondError(c, err, "Failed to update gemstone")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteGemstone handles DELETE /api/v1/gemstones/:id.
func (h *GemstoneHandler) DeleteGemstone(c *gin.Context) {
	if err := h.catalog.DeleteGemstone(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err, "Failed to delete gemstone")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddImageRequest attaches media by URL.
type AddImageRequest struct {
	URL    string `json:"url" binding:"required"`
	Kind   string `json:"kind"`
	Format string `json:"format"`
}

// AddImage handles POST /api/v1/gemstones/:id/images. A multipart "file"
// part is uploaded to object storage; a JSON body attaches an external URL.
func (h *GemstoneHandler) AddImage(c *gin.Context) {
	in, ok := h.imageInput(c)
	if !ok {
		return
	}
	img, err := h.catalog.AddImage(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err, "Failed to add image")
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (h *GemstoneHandler) imageInput(c *gin.Context) (service.ImageInput, bool) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req AddImageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request: "+err.Error())
			return service.ImageInput{}, false
		}
		format := req.Format
		if format == "" {
			format = source.FormatFromName(req.URL)
		}
		kind := req.Kind
		if kind == "" {
			kind = source.KindForFormat(format)
		}
		return service.ImageInput{URL: req.URL, Kind: kind, Format: format}, true
	}

	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "Form field 'file' is required")
		return service.ImageInput{}, false
	}
	if fh.Size > maxUploadBytes {
		badRequest(c, "File is too large")
		return service.ImageInput{}, false
	}
	f, err := fh.Open()
	if err != nil {
		badRequest(c, "Failed to read upload: "+err.Error())
		return service.ImageInput{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		logger.CtxWarn(c.Request.Context(), "Failed to read upload: file=%s, error=%v", fh.Filename, err)
		badRequest(c, "Failed to read upload: "+err.Error())
		return service.ImageInput{}, false
	}
	format := source.FormatFromName(filepath.Base(fh.Filename))
	kind := c.PostForm("kind")
	if kind == "" {
		kind = source.KindForFormat(format)
	}
	return service.ImageInput{Data: data, Kind: kind, Format: format}, true
}

// UpsertTranslation handles POST /api/v1/translations.
func (h *GemstoneHandler) UpsertTranslation(c *gin.Context) {
	var t domain.Translation
	if err := c.ShouldBindJSON(&t); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	reindexed, err := h.catalog.UpsertTranslation(c.Request.Context(), &t)
	if err != nil {
		respondError(c, err, "Failed to save translation")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"translation": t,
		"reindexed":   reindexed,
	})
}

// Reindex handles POST /api/v1/admin/reindex.
func (h *GemstoneHandler) Reindex(c *gin.Context) {
	workers, ok := queryInt(c, "workers", 0)
	if !ok {
		return
	}
	n, err := h.catalog.ReindexAll(c.Request.Context(), workers)
	if err != nil {
		respondError(c, err, "Reindex failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reindexed": n})
}
