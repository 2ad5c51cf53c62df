package config

import (
	"fmt"

	"github.com/law-makers/homeharvest/internal/proxy"
)

func validate(c *Config) error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level must be one of debug, info, warn, error (got %q)", c.LogLevel)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be > 0")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit and burst must be > 0")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("retries must be > 0")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff must be >= 0")
	}
	for name, n := range map[string]int{
		"page workers":     c.PageWorkers,
		"listing workers":  c.ListingWorkers,
		"provider workers": c.ProviderWorkers,
	} {
		if n <= 0 || n > DefaultMaxWorkers {
			return fmt.Errorf("%s must be between 1 and %d", name, DefaultMaxWorkers)
		}
	}
	if c.CacheMaxSizeBytes <= 0 {
		return fmt.Errorf("cache max size must be > 0")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be > 0")
	}
	if _, err := proxy.Parse(c.Proxies); err != nil {
		return err
	}
	return nil
}
