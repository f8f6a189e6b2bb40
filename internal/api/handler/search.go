package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/api/middleware"
	"github.com/timmy/gemstore/internal/auth"
	"github.com/timmy/gemstore/internal/service"
)

// SearchHandler handles search-related endpoints.
type SearchHandler struct {
	searchService *service.SearchService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - searchService: search service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
	}
}

// Search handles POST /api/v1/search.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) Search(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	h.run(c, &req)
}

// SearchGet handles GET /api/v1/search for simple search queries.
// filters, when present, is the filters JSON object as a string.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) SearchGet(c *gin.Context) {
	req, ok := requestFromQuery(c)
	if !ok {
		return
	}
	h.run(c, req)
}

func (h *SearchHandler) run(c *gin.Context, req *service.SearchRequest) {
	if p := auth.PrincipalFrom(c.Request.Context()); p != nil {
		req.UserID = p.UserID
	}
	req.SessionID = c.GetHeader(middleware.SessionHeader)

	result, err := h.searchService.Search(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "Search failed")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Facets handles POST /api/v1/search/facets.
func (h *SearchHandler) Facets(c *gin.Context) {
	var req service.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	facets, err := h.searchService.Facets(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err, "Failed to count facets")
		return
	}

	c.JSON(http.StatusOK, facets)
}

// Suggestions handles GET /api/v1/search/suggestions.
// A blank term returns an empty list.
func (h *SearchHandler) Suggestions(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	suggestions, err := h.searchService.Suggest(c.Request.Context(), c.Query("q"), limit, c.Query("locale"))
	if err != nil {
		respondError(c, err, "Failed to get suggestions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"suggestions": suggestions,
		"total":       len(suggestions),
	})
}

// Locale handles GET /api/v1/search/locale.
func (h *SearchHandler) Locale(c *gin.Context) {
	query := c.Query("q")
	c.JSON(http.StatusOK, gin.H{
		"query":  query,
		"locale": h.searchService.DetectLocale(query, c.Query("locale")),
	})
}

func requestFromQuery(c *gin.Context) (*service.SearchRequest, bool) {
	page, ok := queryInt(c, "page", 0)
	if !ok {
		return nil, false
	}
	pageSize, ok := queryInt(c, "pageSize", 0)
	if !ok {
		return nil, false
	}

	req := &service.SearchRequest{
		Query:    c.Query("q"),
		Locale:   c.Query("locale"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := strings.TrimSpace(c.Query("filters")); raw != "" {
		req.Filters = json.RawMessage(raw)
	}
	return req, true
}
