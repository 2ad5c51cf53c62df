package config

import "github.com/spf13/cobra"

// RegisterFlags registers common CLI flags on the provided root command
func RegisterFlags(cmd *cobra.Command) {
	if cmd == nil {
		return
	}

	pf := cmd.PersistentFlags()
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.BoolP("quiet", "q", false, "Suppress all output except errors")
	pf.Bool("json", DefaultJSONLog, "Emit logs as JSON lines")
	pf.String("log-level", DefaultLogLevel, "Log level (debug, info, warn, error)")
	pf.String("config", "", "Path to configuration file (default $HOME/.homeharvest.yaml)")

	pf.StringP("proxy", "p", "", "Proxy URL or comma separated list of proxies to rotate through")
	pf.Duration("timeout", DefaultHTTPTimeout, "Per-request HTTP timeout")
	pf.String("user-agent", "", "Custom user agent string")
	pf.StringArrayP("header", "H", nil, "Extra request header (\"Key: Value\"), repeatable")

	pf.Float64("rate-limit", DefaultRateLimitRPS, "Requests per second per host")
	pf.Int("rate-burst", DefaultRateLimitBurst, "Rate limiter burst size")
	pf.Int("retries", DefaultRetryAttempts, "Attempts per request on throttling responses")
	pf.Duration("retry-backoff", DefaultRetryBackoff, "Initial backoff between attempts")

	pf.Int("page-workers", DefaultPageWorkers, "Concurrent page fetches per provider")
	pf.Int("listing-workers", DefaultListingWorkers, "Concurrent listing enrichments per provider")
	pf.Int("provider-workers", DefaultProviderWorkers, "Providers queried concurrently")

	pf.Duration("cache-ttl", DefaultCacheTTL, "Lifetime of cached location lookups")
	pf.Int64("cache-max-bytes", DefaultCacheMaxSizeBytes, "Maximum size of the response cache")
	pf.Bool("persist-token", DefaultPersistToken, "Reuse the realtor.com token across runs via the OS keyring")
	pf.Duration("token-ttl", DefaultTokenTTL, "How long a persisted token is reused")
}
