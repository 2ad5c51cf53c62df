// Package scrape orchestrates one search across the listing providers:
// validation, concurrent fan-out, merge and address deduplication.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/reqctx"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// DefaultProviderWorkers bounds concurrent providers in one scrape
const DefaultProviderWorkers = 3

// ProviderDone is called once per provider as it finishes
type ProviderDone func(site models.SiteName, count int, err error)

// Options configures the orchestrator
type Options struct {
	ProviderWorkers int
	OnProviderDone  ProviderDone
}

// Orchestrator fans a search out to the registered providers
type Orchestrator struct {
	providers map[models.SiteName]engine.Provider
	opts      Options
}

// New registers providers by site name
func New(providers []engine.Provider, opts Options) *Orchestrator {
	if opts.ProviderWorkers <= 0 {
		opts.ProviderWorkers = DefaultProviderWorkers
	}
	o := &Orchestrator{
		providers: make(map[models.SiteName]engine.Provider, len(providers)),
		opts:      opts,
	}
	for _, p := range providers {
		o.providers[p.Name()] = p
	}
	return o
}

// Result is the merged record set of one scrape
type Result struct {
	RequestID  string
	Properties []models.Property
	Sites      []models.SiteName
	Duration   time.Duration
}

// Table projects the result onto the fixed column layout
func (r *Result) Table() models.Table {
	return models.NewTable(r.Properties)
}

// Len returns the number of properties
func (r *Result) Len() int {
	return len(r.Properties)
}

type contribution struct {
	site  models.SiteName
	props []models.Property
}

// Scrape validates req, queries the selected providers and merges their
// results. Input errors are returned before any network call.
func (o *Orchestrator) Scrape(ctx context.Context, req Request) (*Result, error) {
	ctx = reqctx.WithRequestContext(ctx)
	rc := reqctx.GetRequestContext(ctx)
	logger := reqctx.Logger(ctx, log.Logger)

	filters, sites, err := req.Filters()
	if err != nil {
		return nil, reqctx.NewRequestError(ctx, err)
	}

	providers := make([]engine.Provider, 0, len(sites))
	for _, site := range sites {
		p, ok := o.providers[site]
		if !ok {
			return nil, reqctx.NewRequestError(ctx, engine.NewError(engine.ErrCodeInvalidSite,
				fmt.Sprintf("site %q is not configured", site), nil).WithDetail("site", string(site)))
		}
		providers = append(providers, p)
	}

	logger.Info().
		Str("location", filters.Location).
		Str("listing_type", string(filters.ListingType)).
		Int("providers", len(providers)).
		Msg("Starting scrape")

	var contributions []contribution
	if len(providers) == 1 {
		contributions, err = o.searchOne(ctx, providers[0], filters)
	} else {
		contributions, err = o.searchAll(ctx, providers, filters)
	}
	if err != nil {
		return nil, reqctx.NewRequestError(ctx, err)
	}

	var merged []models.Property
	var used []models.SiteName
	for _, c := range contributions {
		if allEmpty(c.props) {
			continue
		}
		merged = append(merged, c.props...)
		used = append(used, c.site)
	}
	if !req.KeepDuplicates {
		merged = Dedup(merged)
	}

	result := &Result{
		RequestID:  rc.RequestID,
		Properties: merged,
		Sites:      used,
		Duration:   time.Since(rc.StartTime),
	}

	logger.Info().
		Int("count", result.Len()).
		Dur("duration", result.Duration).
		Msg("Scrape complete")
	return result, nil
}

// searchOne runs a single provider synchronously; every error propagates
func (o *Orchestrator) searchOne(ctx context.Context, p engine.Provider, filters models.SearchFilters) ([]contribution, error) {
	props, err := p.Search(ctx, filters)
	o.done(ctx, p.Name(), len(props), err)
	if err != nil {
		return nil, err
	}
	return []contribution{{site: p.Name(), props: props}}, nil
}

// searchAll runs providers concurrently and collects contributions in
// completion order. A provider without results contributes nothing; any
// other failure fails the scrape once every provider has finished.
func (o *Orchestrator) searchAll(ctx context.Context, providers []engine.Provider, filters models.SearchFilters) ([]contribution, error) {
	var (
		mu            sync.Mutex
		contributions []contribution
		errs          []error
	)

	var g errgroup.Group
	g.SetLimit(o.opts.ProviderWorkers)

	for _, p := range providers {
		g.Go(func() error {
			props, err := p.Search(ctx, filters)
			o.done(ctx, p.Name(), len(props), err)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, engine.ErrNoResultsFound):
			case err != nil:
				errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
			default:
				contributions = append(contributions, contribution{site: p.Name(), props: props})
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return contributions, nil
}

func (o *Orchestrator) done(ctx context.Context, site models.SiteName, count int, err error) {
	logger := reqctx.Logger(ctx, log.Logger)
	switch {
	case errors.Is(err, engine.ErrNoResultsFound):
		logger.Warn().Str("site", string(site)).Err(err).Msg("Provider returned no results")
	case err != nil:
		logger.Error().Str("site", string(site)).Err(err).Msg("Provider failed")
	default:
		logger.Debug().Str("site", string(site)).Int("count", count).Msg("Provider finished")
	}
	if o.opts.OnProviderDone != nil {
		o.opts.OnProviderDone(site, count, err)
	}
}

func allEmpty(props []models.Property) bool {
	for i := range props {
		if !props[i].IsEmpty() {
			return false
		}
	}
	return true
}
