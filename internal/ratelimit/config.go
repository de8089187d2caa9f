package ratelimit

import (
	"strings"

	"github.com/ulule/limiter/v3"
)

// holds throttling configuration
type Config struct {
	// whether throttling is active
	Enabled bool

	// ulule formatted rate, e.g. "10-M" for ten requests per minute
	Rate string

	// prefix for keys in a shared store
	Prefix string

	// paths that bypass throttling (health checks, etc.)
	ExemptPaths []string
}

// returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled: true,
		Rate:    "10-M",
		Prefix:  "auth:limit",
		ExemptPaths: []string{
			"/health",
			"/ready",
			"/metrics",
		},
	}
}

func (c *Config) rate() (limiter.Rate, error) {
	return limiter.NewRateFromFormatted(c.Rate)
}

// checks if a path bypasses throttling
func (c *Config) IsExemptPath(path string) bool {
	for _, ep := range c.ExemptPaths {
		if path == ep || strings.HasPrefix(path, ep+"/") {
			return true
		}
	}
	return false
}
