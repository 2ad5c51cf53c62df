package config

import "time"

// Default constants for application configuration
const (
	DefaultLogLevel          = "error"
	DefaultJSONLog           = false
	DefaultHTTPTimeout       = 60 * time.Second
	DefaultRateLimitRPS      = 5.0
	DefaultRateLimitBurst    = 10
	DefaultRetryAttempts     = 3
	DefaultRetryBackoff      = 3 * time.Second
	DefaultPageWorkers       = 4
	DefaultListingWorkers    = 20
	DefaultProviderWorkers   = 3
	DefaultMaxWorkers        = 64
	DefaultCacheTTL          = 10 * time.Minute
	DefaultCacheMaxSizeBytes = 32 * 1024 * 1024 // 32MB
	DefaultPersistToken      = true
	DefaultTokenTTL          = 12 * time.Hour

	// EnvPrefix prefixes every environment override, e.g. HOMEHARVEST_PROXY
	EnvPrefix = "HOMEHARVEST"
	// ConfigName is the config file searched for in $HOME and the working directory
	ConfigName = ".homeharvest"
)
