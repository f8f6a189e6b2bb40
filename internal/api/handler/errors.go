package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/logger"
	"github.com/timmy/gemstore/internal/service"
)

// respondError maps service errors to HTTP statuses and writes {"error": ...}.
// Unexpected errors are logged and reported as 500 with the given prefix.
func respondError(c *gin.Context, err error, prefix string) {
	switch {
	case service.IsInvalidInput(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrAccessDenied.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.CtxError(c.Request.Context(), "%s: method=%s, path=%s, error=%v",
			prefix, c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": prefix + ": " + err.Error()})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

// queryInt parses an optional integer query parameter.
func queryInt(c *gin.Context, key string, def int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "Query parameter '"+key+"' must be an integer")
		return 0, false
	}
	return v, true
}
