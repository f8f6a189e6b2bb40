package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// FeedConfig defines an HTTP catalog feed used by the importer.
type FeedConfig struct {
	Name       string        `mapstructure:"name"`         // Source identifier recorded on import jobs
	BaseURL    string        `mapstructure:"base_url"`     // Feed endpoint, e.g. https://supplier.example.com/api
	BaseURLEnv string        `mapstructure:"base_url_env"` // Environment variable name for base URL
	APIKey     string        `mapstructure:"api_key"`      // API key (can be set directly or via env var)
	APIKeyEnv  string        `mapstructure:"api_key_env"`  // Environment variable name for API key
	PageSize   int           `mapstructure:"page_size"`    // Items requested per cursor page
	Timeout    time.Duration `mapstructure:"timeout"`      // Per-request timeout
}

// ResolveEnvVars resolves environment variable references in the configuration.
// Direct values (APIKey, BaseURL) take precedence if already set.
func (c *FeedConfig) ResolveEnvVars() {
	if c.APIKeyEnv != "" && c.APIKey == "" {
		if val := os.Getenv(c.APIKeyEnv); val != "" {
			c.APIKey = val
		}
	}
	if c.BaseURLEnv != "" && c.BaseURL == "" {
		if val := os.Getenv(c.BaseURLEnv); val != "" {
			c.BaseURL = val
		}
	}
}

// Validate checks that the feed configuration has all required fields.
// Returns an error describing the first validation failure, or nil if valid.
func (c *FeedConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("feed config: name is required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("feed %q: base_url is required (set directly or via %s)", c.Name, c.BaseURLEnv)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("feed %q: base_url must be an http(s) URL", c.Name)
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("feed %q: page_size must be positive", c.Name)
	}
	return nil
}

// Clone creates a copy of the feed configuration.
func (c *FeedConfig) Clone() *FeedConfig {
	clone := *c
	return &clone
}
