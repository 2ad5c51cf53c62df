package engine

import (
	"context"
	"time"

	"github.com/law-makers/homeharvest/internal/httpclient"
	"github.com/law-makers/homeharvest/pkg/models"
)

// Provider is implemented by every listing source. Search resolves the
// location, runs the matching search strategy and returns normalized
// properties.
type Provider interface {
	// Search returns the listings matching filters
	Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error)

	// Name returns the provider's site name
	Name() models.SiteName
}

// HTTP is the transport a provider needs. *httpclient.Client satisfies it.
type HTTP interface {
	Get(ctx context.Context, url string, params map[string]string, headers map[string]string) (*httpclient.Response, error)
	GetCached(ctx context.Context, url string, params map[string]string, headers map[string]string) (*httpclient.Response, error)
	Post(ctx context.Context, url string, body any, headers map[string]string) (*httpclient.Response, error)
	Put(ctx context.Context, url string, body any, headers map[string]string) (*httpclient.Response, error)
}

// Options carries tuning shared by all providers
type Options struct {
	// PageWorkers bounds concurrent page fetches inside one search
	PageWorkers int
	// ListingWorkers bounds concurrent per-listing normalization and enrichment
	ListingWorkers int
	// Now is the clock used for relative dates; defaults to time.Now
	Now func() time.Time
}

// DefaultOptions mirrors the worker counts the providers tolerate
func DefaultOptions() Options {
	return Options{
		PageWorkers:    4,
		ListingWorkers: 20,
		Now:            time.Now,
	}
}

// WithDefaults fills zero fields
func (o Options) WithDefaults() Options {
	d := DefaultOptions()
	if o.PageWorkers <= 0 {
		o.PageWorkers = d.PageWorkers
	}
	if o.ListingWorkers <= 0 {
		o.ListingWorkers = d.ListingWorkers
	}
	if o.Now == nil {
		o.Now = d.Now
	}
	return o
}
