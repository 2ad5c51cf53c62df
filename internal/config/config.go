package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/law-makers/homeharvest/internal/utils/headers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// HTTP
	HTTPTimeout time.Duration
	UserAgent   string
	// Proxies is the raw comma separated proxy list
	Proxies string
	Headers map[string]string

	// Rate limiting and retry
	RateLimitRPS   float64
	RateLimitBurst int
	RetryAttempts  int
	RetryBackoff   time.Duration

	// Concurrency
	PageWorkers     int
	ListingWorkers  int
	ProviderWorkers int

	// Caching
	CacheTTL          time.Duration
	CacheMaxSizeBytes int64

	// Token persistence
	PersistToken bool
	TokenTTL     time.Duration
}

// settings maps config keys to the flags that may override them
var settings = map[string]string{
	"log_level":        "log-level",
	"json":             "json",
	"http_timeout":     "timeout",
	"user_agent":       "user-agent",
	"proxy":            "proxy",
	"rate_limit":       "rate-limit",
	"rate_burst":       "rate-burst",
	"retries":          "retries",
	"retry_backoff":    "retry-backoff",
	"page_workers":     "page-workers",
	"listing_workers":  "listing-workers",
	"provider_workers": "provider-workers",
	"cache_ttl":        "cache-ttl",
	"cache_max_bytes":  "cache-max-bytes",
	"persist_token":    "persist-token",
	"token_ttl":        "token-ttl",
}

// Load builds a Config by combining defaults, an optional config file, a
// .env file, HOMEHARVEST_* environment variables and CLI flags, in that
// order of increasing precedence. cmd may be nil.
func Load(cmd *cobra.Command) (*Config, error) {
	// A missing .env is normal
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := readConfigFile(v, cmd); err != nil {
		return nil, err
	}

	var rawHeaders []string
	if cmd != nil {
		for key, name := range settings {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
		if f := cmd.Flags().Lookup("header"); f != nil {
			rawHeaders, _ = cmd.Flags().GetStringArray("header")
		}
	}

	cfg := &Config{
		LogLevel:          strings.ToLower(v.GetString("log_level")),
		JSONLog:           v.GetBool("json"),
		HTTPTimeout:       v.GetDuration("http_timeout"),
		UserAgent:         v.GetString("user_agent"),
		Proxies:           v.GetString("proxy"),
		Headers:           headers.Merge(v.GetStringMapString("headers"), headers.ParseHeaders(rawHeaders)),
		RateLimitRPS:      v.GetFloat64("rate_limit"),
		RateLimitBurst:    v.GetInt("rate_burst"),
		RetryAttempts:     v.GetInt("retries"),
		RetryBackoff:      v.GetDuration("retry_backoff"),
		PageWorkers:       v.GetInt("page_workers"),
		ListingWorkers:    v.GetInt("listing_workers"),
		ProviderWorkers:   v.GetInt("provider_workers"),
		CacheTTL:          v.GetDuration("cache_ttl"),
		CacheMaxSizeBytes: v.GetInt64("cache_max_bytes"),
		PersistToken:      v.GetBool("persist_token"),
		TokenTTL:          v.GetDuration("token_ttl"),
	}

	// Verbosity flags win over the configured level
	if cmd != nil {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			cfg.LogLevel = "debug"
		} else if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
			cfg.LogLevel = "error"
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("json", DefaultJSONLog)
	v.SetDefault("http_timeout", DefaultHTTPTimeout)
	v.SetDefault("user_agent", "")
	v.SetDefault("proxy", "")
	v.SetDefault("rate_limit", DefaultRateLimitRPS)
	v.SetDefault("rate_burst", DefaultRateLimitBurst)
	v.SetDefault("retries", DefaultRetryAttempts)
	v.SetDefault("retry_backoff", DefaultRetryBackoff)
	v.SetDefault("page_workers", DefaultPageWorkers)
	v.SetDefault("listing_workers", DefaultListingWorkers)
	v.SetDefault("provider_workers", DefaultProviderWorkers)
	v.SetDefault("cache_ttl", DefaultCacheTTL)
	v.SetDefault("cache_max_bytes", DefaultCacheMaxSizeBytes)
	v.SetDefault("persist_token", DefaultPersistToken)
	v.SetDefault("token_ttl", DefaultTokenTTL)
}

// readConfigFile loads --config when given, otherwise looks for
// .homeharvest.{yaml,json,toml} in $HOME and the working directory.
func readConfigFile(v *viper.Viper, cmd *cobra.Command) error {
	var path string
	if cmd != nil {
		if f := cmd.Flags().Lookup("config"); f != nil {
			path = f.Value.String()
		}
	}
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")
	v.SetConfigName(ConfigName)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
