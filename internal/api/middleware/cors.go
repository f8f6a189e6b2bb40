package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/timmy/gemstore/internal/config"
)

// CORS returns a middleware that handles Cross-Origin Resource Sharing.
// With AllowAllOrigins every origin is accepted without credentials;
// otherwise only the listed origins are, with credentials.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", "X-Session-ID", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		MaxAge:           12 * time.Hour,
		AllowCredentials: !cfg.AllowAllOrigins,
	}
	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		o = strings.TrimSpace(o)
		if o == "*" {
			cfg.AllowAllOrigins = true
			continue
		}
		if o != "" {
			origins = append(origins, o)
		}
	}
	if cfg.AllowAllOrigins || len(origins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// IsOriginAllowed checks if an origin is allowed based on the configuration
func IsOriginAllowed(origin string, cfg config.CORSConfig) bool {
	if cfg.AllowAllOrigins || len(cfg.AllowedOrigins) == 0 {
		return true
	}

	for _, allowedOrigin := range cfg.AllowedOrigins {
		if allowedOrigin == "*" || strings.EqualFold(origin, allowedOrigin) {
			return true
		}
	}

	return false
}
