package handler

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/service"
	"github.com/timmy/gemstore/internal/source"
)

// AdminHandler handles admin operations: catalog imports and search analytics.
type AdminHandler struct {
	importService *service.ImportService
	analytics     *service.AnalyticsService
	sources       map[string]source.Source
	logger        *logger.Logger

	// Import job state
	mu            sync.RWMutex
	isRunning     bool
	currentStats  *service.ImportStats
	lastRunTime   time.Time
	lastRunStatus string
}

// NewAdminHandler creates a new admin handler.
// Parameters:
//   - importService: import service instance.
//   - analytics: analytics service instance.
//   - sources: map of source adapters keyed by name.
//   - log: logger instance.
// Returns:
//   - *AdminHandler: initialized handler.
func NewAdminHandler(importService *service.ImportService, analytics *service.AnalyticsService, sources map[string]source.Source, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		importService: importService,
		analytics:     analytics,
		sources:       sources,
		logger:        log,
	}
}

// log returns a logger from Gin context if available, otherwise returns the default logger
func (h *AdminHandler) log(c *gin.Context) *logger.Logger {
	if l := logger.FromContext(c.Request.Context()); l != nil {
		return l
	}
	return h.logger
}

// ImportRequest represents the import API request.
type ImportRequest struct {
	Source string `json:"source" binding:"required"`
	Limit  int    `json:"limit" binding:"min=0,max=100000"`
	Force  bool   `json:"force"`
}

// ImportResponse represents the import API response.
type ImportResponse struct {
	Message string               `json:"message"`
	Stats   *service.ImportStats `json:"stats,omitempty"`
}

// ImportStatusResponse represents the import status.
type ImportStatusResponse struct {
	IsRunning     bool                 `json:"is_running"`
	LastRunTime   string               `json:"last_run_time,omitempty"`
	LastRunStatus string               `json:"last_run_status,omitempty"`
	CurrentStats  *service.ImportStats `json:"current_stats,omitempty"`
	Sources       []string             `json:"sources"`
}

// TriggerImport runs one import synchronously. Only one import runs at a time.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) TriggerImport(c *gin.Context) {
	ctx := c.Request.Context()

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.CtxWarn(ctx, "Invalid import request: client_ip=%s, error=%v", c.ClientIP(), err)
		badRequest(c, err.Error())
		return
	}

	src, ok := h.sources[req.Source]
	if !ok {
		logger.CtxWarn(ctx, "Unknown source requested: source=%s, client_ip=%s", req.Source, c.ClientIP())
		badRequest(c, "Unknown source: "+req.Source)
		return
	}

	h.mu.Lock()
	if h.isRunning {
		h.mu.Unlock()
		logger.CtxWarn(ctx, "Import request rejected: already running, source=%s", req.Source)
		c.JSON(http.StatusConflict, gin.H{"error": "Import is already running"})
		return
	}
	h.isRunning = true
	h.currentStats = nil
	h.mu.Unlock()

	logger.CtxInfo(ctx, "Starting import: source=%s, limit=%d, force=%v", req.Source, req.Limit, req.Force)

	// keep request-scoped log fields but outlive the HTTP deadline
	importCtx := context.WithoutCancel(ctx)
	startTime := time.Now()
	stats, err := h.importService.ImportFromSource(importCtx, src, req.Limit, &service.ImportOptions{
		Force: req.Force,
	})
	duration := time.Since(startTime)

	h.mu.Lock()
	h.isRunning = false
	h.currentStats = stats
	h.lastRunTime = time.Now()
	if err != nil {
		h.lastRunStatus = "failed: " + err.Error()
	} else {
		h.lastRunStatus = "success"
	}
	h.mu.Unlock()

	if err != nil {
		h.log(c).WithField(logger.FieldDurationMs, duration.Milliseconds()).WithError(err).Error("Import failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "stats": stats})
		return
	}

	c.JSON(http.StatusOK, ImportResponse{
		Message: "Import completed successfully",
		Stats:   stats,
	})
}

// GetImportStatus returns the current import status.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *AdminHandler) GetImportStatus(c *gin.Context) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	resp := ImportStatusResponse{
		IsRunning:     h.isRunning,
		LastRunStatus: h.lastRunStatus,
		CurrentStats:  h.currentStats,
		Sources:       make([]string, 0, len(h.sources)),
	}
	for name := range h.sources {
		resp.Sources = append(resp.Sources, name)
	}
	sort.Strings(resp.Sources)

	if !h.lastRunTime.IsZero() {
		resp.LastRunTime = h.lastRunTime.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, resp)
}

// ListImportJobs handles GET /api/v1/admin/import/jobs.
func (h *AdminHandler) ListImportJobs(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 20)
	if !ok {
		return
	}
	jobs, err := h.importService.RecentJobs(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err, "Failed to list import jobs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs, "total": len(jobs)})
}

// TopQueries handles GET /api/v1/admin/analytics/top-queries.
func (h *AdminHandler) TopQueries(c *gin.Context) {
	window, limit, ok := analyticsParams(c)
	if !ok {
		return
	}
	stats, err := h.analytics.TopQueries(c.Request.Context(), window, limit)
	if err != nil {
		respondError(c, err, "Failed to load top queries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": stats, "total": len(stats)})
}

// ZeroResultQueries handles GET /api/v1/admin/analytics/zero-results.
func (h *AdminHandler) ZeroResultQueries(c *gin.Context) {
	window, limit, ok := analyticsParams(c)
	if !ok {
		return
	}
	stats, err := h.analytics.ZeroResultQueries(c.Request.Context(), window, limit)
	if err != nil {
		respondError(c, err, "Failed to load zero-result queries")
		return
	}
	c.JSON(http.StatusOK, gin.H{"queries": stats, "total": len(stats)})
}

func analyticsParams(c *gin.Context) (time.Duration, int, bool) {
	days, ok := queryInt(c, "days", 0)
	if !ok {
		return 0, 0, false
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return 0, 0, false
	}
	return time.Duration(days) * 24 * time.Hour, limit, true
}
