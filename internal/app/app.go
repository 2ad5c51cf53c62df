// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/law-makers/homeharvest/internal/auth"
	"github.com/law-makers/homeharvest/internal/cache"
	"github.com/law-makers/homeharvest/internal/config"
	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/engine/realtor"
	"github.com/law-makers/homeharvest/internal/engine/redfin"
	"github.com/law-makers/homeharvest/internal/engine/zillow"
	"github.com/law-makers/homeharvest/internal/httpclient"
	"github.com/law-makers/homeharvest/internal/proxy"
	"github.com/law-makers/homeharvest/internal/ratelimit"
	"github.com/law-makers/homeharvest/internal/retry"
	"github.com/law-makers/homeharvest/internal/scrape"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per process and shared by the CLI commands. The
// bearer token session, HTTP connection pool and location cache live as
// long as the Application. Use Close() to release them.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Cache       cache.Cache
	Proxies     *proxy.Pool
	RateLimiter ratelimit.RateLimiter
	HTTPClient  *httpclient.Client
	Session     *auth.Session
	TokenStore  auth.TokenStore
	Providers   []engine.Provider
	startTime   time.Time
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the in-memory location cache
//   - Builds the proxy pool and per-host rate limiter
//   - Creates the shared HTTP client with retry on throttling
//   - Creates the lazy realtor.com token session
//   - Registers the listing providers
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := setupLogger(cfg)

	memCache := cache.NewMemoryCache(cfg.CacheMaxSizeBytes)
	logger.Debug().
		Int64("max_size_bytes", cfg.CacheMaxSizeBytes).
		Dur("ttl", cfg.CacheTTL).
		Msg("Memory cache initialized")

	proxies, err := proxy.Parse(cfg.Proxies)
	if err != nil {
		memCache.Close()
		return nil, err
	}
	pool := proxy.NewPool(proxies)

	rateLimiter := ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	logger.Debug().
		Float64("rps", cfg.RateLimitRPS).
		Int("burst", cfg.RateLimitBurst).
		Int("proxies", pool.Len()).
		Msg("Rate limiter initialized")

	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = cfg.RetryAttempts
	retryCfg.InitialBackoff = cfg.RetryBackoff

	httpClient, err := httpclient.New(httpclient.Options{
		Timeout:   cfg.HTTPTimeout,
		UserAgent: cfg.UserAgent,
		Headers:   cfg.Headers,
		Proxies:   pool,
		Limiter:   rateLimiter,
		Retry:     &retryCfg,
		Cache:     memCache,
		CacheTTL:  cfg.CacheTTL,
	})
	if err != nil {
		memCache.Close()
		return nil, fmt.Errorf("failed to create http client: %w", err)
	}
	logger.Debug().
		Dur("timeout", cfg.HTTPTimeout).
		Int("retries", cfg.RetryAttempts).
		Msg("HTTP client initialized")

	var source auth.TokenSource = auth.NewDeviceTokenSource(httpClient)
	var store auth.TokenStore
	if cfg.PersistToken {
		store = auth.NewKeyringStore()
		source = &auth.CachedSource{Source: source, Store: store, Name: auth.RealtorTokenName, TTL: cfg.TokenTTL}
	}
	session := auth.NewSession(source)

	opts := engine.Options{
		PageWorkers:    cfg.PageWorkers,
		ListingWorkers: cfg.ListingWorkers,
	}
	providers := []engine.Provider{
		realtor.New(httpClient, session, realtor.Config{}, opts),
		redfin.New(httpClient, redfin.Config{}, opts),
		zillow.New(httpClient, zillow.Config{}, opts),
	}
	logger.Debug().Int("providers", len(providers)).Msg("Providers initialized")

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Cache:       memCache,
		Proxies:     pool,
		RateLimiter: rateLimiter,
		HTTPClient:  httpClient,
		Session:     session,
		TokenStore:  store,
		Providers:   providers,
		startTime:   time.Now(),
	}

	logger.Info().Msg("Application initialized successfully")
	return app, nil
}

// setupLogger configures the global zerolog logger and returns it
func setupLogger(cfg *config.Config) zerolog.Logger {
	zerolog.SetGlobalLevel(logLevel(cfg.LogLevel))

	var w io.Writer
	if cfg.JSONLog {
		w = os.Stderr
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	log.Logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")
	return log.Logger
}

// logLevel maps a configured level name; anything else stays at error so
// non-verbose runs are quiet.
func logLevel(name string) zerolog.Level {
	switch name {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	}
	return zerolog.ErrorLevel
}

// Orchestrator returns a scrape orchestrator over the registered providers.
// done, when non-nil, is called as each provider finishes.
func (a *Application) Orchestrator(done scrape.ProviderDone) *scrape.Orchestrator {
	return scrape.New(a.Providers, scrape.Options{
		ProviderWorkers: a.Config.ProviderWorkers,
		OnProviderDone:  done,
	})
}

// Close releases the cache and pooled connections. The persisted token
// is left in place for the next run.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	if a.Cache != nil {
		st := a.Cache.Stats()
		a.Logger.Debug().
			Int("entries", st.Entries).
			Int64("size_bytes", st.SizeBytes).
			Uint64("hits", st.Hits).
			Uint64("misses", st.Misses).
			Float64("hit_rate", st.HitRate).
			Msg("Cache stats")
		a.Cache.Close()
	}
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
