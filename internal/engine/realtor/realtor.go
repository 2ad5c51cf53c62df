// Package realtor implements the realtor.com provider: autocomplete
// resolution followed by token-authenticated GraphQL home searches.
package realtor

import (
	"context"
	"fmt"
	"strings"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/engine/batch"
	"github.com/law-makers/homeharvest/internal/engine/field"
	"github.com/law-makers/homeharvest/internal/retry"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	DefaultSearchURL       = "https://www.realtor.com/api/v1/rdc_search_srp?client_id=rdc-search-new-communities&schema=vesta"
	DefaultAutocompleteURL = "https://parser-external.geo.moveaws.com/suggest"
	DefaultPropertyURL     = "https://www.realtor.com/realestateandhomes-detail/"
	DefaultPageSize        = 200

	autocompleteAreaTypes = "city,state,county,postal_code,address,street,neighborhood,school,school_district,university,park"
)

// Authenticator supplies the bearer headers for GraphQL calls
type Authenticator interface {
	Headers(ctx context.Context) (map[string]string, error)
}

// Config holds the provider endpoints
type Config struct {
	SearchURL       string
	AutocompleteURL string
	PropertyURL     string
	PageSize        int
}

// DefaultConfig returns the production endpoints
func DefaultConfig() Config {
	return Config{
		SearchURL:       DefaultSearchURL,
		AutocompleteURL: DefaultAutocompleteURL,
		PropertyURL:     DefaultPropertyURL,
		PageSize:        DefaultPageSize,
	}
}

// Provider searches realtor.com
type Provider struct {
	http        engine.HTTP
	auth        Authenticator
	cfg         Config
	opts        engine.Options
	enrichRetry retry.Config
}

// New creates the realtor.com provider
func New(client engine.HTTP, auth Authenticator, cfg Config, opts engine.Options) *Provider {
	d := DefaultConfig()
	if cfg.SearchURL == "" {
		cfg.SearchURL = d.SearchURL
	}
	if cfg.AutocompleteURL == "" {
		cfg.AutocompleteURL = d.AutocompleteURL
	}
	if cfg.PropertyURL == "" {
		cfg.PropertyURL = d.PropertyURL
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = d.PageSize
	}
	return &Provider{
		http:        client,
		auth:        auth,
		cfg:         cfg,
		opts:        opts.WithDefaults(),
		enrichRetry: retry.EnrichmentConfig(),
	}
}

// Name returns the site name
func (p *Provider) Name() models.SiteName {
	return models.SiteRealtor
}

// Search resolves the location and runs the matching search strategy
func (p *Provider) Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error) {
	scope, err := p.Resolve(ctx, filters)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("site", string(p.Name())).
		Str("scope", string(scope.Kind)).
		Str("location_id", scope.LocationID).
		Msg("Resolved location")

	query, err := NewSearchQuery(scope, filters, p.cfg.PageSize)
	if err != nil {
		return nil, err
	}
	if query.Strategy == StrategyAddress {
		return p.searchHome(ctx, query, filters)
	}

	return engine.Paginate(ctx, p.cfg.PageSize, filters.Limit, p.opts.PageWorkers,
		func(ctx context.Context, offset int) (engine.Page[models.Property], error) {
			return p.fetchPage(ctx, query, filters, offset)
		})
}

// Resolve turns the free-text location into a scope using the first
// autocomplete candidate.
func (p *Provider) Resolve(ctx context.Context, filters models.SearchFilters) (models.ScopeSpec, error) {
	params := map[string]string{
		"input":      filters.Location,
		"client_id":  strings.ReplaceAll(filters.ListingType.Lower(), "_", "-"),
		"limit":      "1",
		"area_types": autocompleteAreaTypes,
	}

	resp, err := p.http.GetCached(ctx, p.cfg.AutocompleteURL, params, nil)
	if err != nil {
		return models.ScopeSpec{}, fmt.Errorf("realtor autocomplete: %w", err)
	}

	candidates := field.Array(resp.JSON(), "autocomplete")
	if len(candidates) == 0 {
		return models.ScopeSpec{}, engine.NoResults(filters.Location)
	}
	return scopeFromCandidate(candidates[0], filters)
}

func scopeFromCandidate(c gjson.Result, filters models.SearchFilters) (models.ScopeSpec, error) {
	areaType := field.StrOr(c, "area_type", "")
	scope := models.ScopeSpec{
		RegionType: areaType,
		LocationID: field.StrOr(c, "mpr_id", ""),
	}

	var center *models.Coordinate
	lat, lon := field.Float(c, "centroid.lat"), field.Float(c, "centroid.lon")
	if lat != nil && lon != nil {
		center = &models.Coordinate{Lat: *lat, Lon: *lon}
	}

	switch areaType {
	case "address":
		if filters.Radius != nil {
			if center == nil {
				return models.ScopeSpec{}, engine.GeoCoordsNotFound(filters.Location)
			}
			scope.Kind = models.ScopeRadius
			scope.Center = center
			scope.Radius = *filters.Radius
			return scope, nil
		}
		if scope.LocationID == "" {
			return models.ScopeSpec{}, engine.NoResults(filters.Location)
		}
		scope.Kind = models.ScopeAddress
		scope.Center = center
	case "postal_code":
		scope.Kind = models.ScopePostalCode
		scope.PostalCode = field.StrOr(c, "postal_code", "")
	default:
		scope.Kind = models.ScopeArea
		scope.City = field.StrOr(c, "city", "")
		scope.County = field.StrOr(c, "county", "")
		scope.StateCode = field.StrOr(c, "state_code", "")
		scope.PostalCode = field.StrOr(c, "postal_code", "")
	}
	return scope, nil
}

func (p *Provider) graphql(ctx context.Context, payload map[string]any) (gjson.Result, error) {
	headers, err := p.auth.Headers(ctx)
	if err != nil {
		return gjson.Result{}, err
	}
	resp, err := p.http.Post(ctx, p.cfg.SearchURL, payload, headers)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("realtor graphql: %w", err)
	}
	return resp.JSON(), nil
}

// fetchPage runs one home_search page. A missing envelope is an empty page.
func (p *Provider) fetchPage(ctx context.Context, query *SearchQuery, filters models.SearchFilters, offset int) (engine.Page[models.Property], error) {
	body, err := p.graphql(ctx, query.Payload(offset))
	if err != nil {
		return engine.Page[models.Property]{}, err
	}

	envelope := body.Get("data.home_search")
	results := field.Array(envelope, "results")
	if !envelope.IsObject() || results == nil {
		return engine.Page[models.Property]{}, nil
	}

	// never normalize past the caller's limit
	remaining := filters.Limit - offset
	if remaining < 0 {
		remaining = 0
	}
	if remaining < len(results) {
		results = results[:remaining]
	}

	props := batch.Map(ctx, results, p.opts.ListingWorkers, func(ctx context.Context, raw gjson.Result) (models.Property, bool) {
		return p.normalize(ctx, raw, filters, false)
	})

	return engine.Page[models.Property]{
		Total: int(envelope.Get("total").Int()),
		Items: props,
	}, nil
}

// searchHome looks up a single address through the home detail query.
// Detail payloads without a listing id fall back to the property's latest
// listing.
func (p *Provider) searchHome(ctx context.Context, query *SearchQuery, filters models.SearchFilters) ([]models.Property, error) {
	body, err := p.graphql(ctx, query.Payload(0))
	if err != nil {
		return nil, err
	}

	home := body.Get("data.home")
	if !home.IsObject() {
		return nil, nil
	}
	prop, ok := p.normalize(ctx, home, filters, true)
	if !ok {
		return nil, nil
	}

	if prop.ListingID == nil && prop.PropertyID != nil {
		id, err := p.GetLatestListingID(ctx, *prop.PropertyID)
		if err != nil {
			log.Debug().Err(err).Str("property_id", *prop.PropertyID).Msg("Listing id lookup failed")
		} else {
			prop.ListingID = id
		}
	}
	return []models.Property{prop}, nil
}

// enrichment is the optional per-listing detail block
type enrichment struct {
	schools []string
	tax     engine.TaxSummary
}

func (e enrichment) empty() bool {
	return len(e.schools) == 0 && e.tax.History == nil && e.tax.AssessedValue == nil
}

func extractEnrichment(home gjson.Result) enrichment {
	return enrichment{
		schools: schoolNames(field.Array(home, "nearbySchools.schools")),
		tax:     engine.SummarizeTaxHistory(field.Array(home, "taxHistory")),
	}
}

func schoolNames(schools []gjson.Result) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, s := range schools {
		name := field.Str(s, "district.name")
		if name == nil {
			continue
		}
		if _, dup := seen[*name]; dup {
			continue
		}
		seen[*name] = struct{}{}
		out = append(out, *name)
	}
	return out
}

var errMissingHome = engine.NewError(engine.ErrCodeParseError, "home payload missing", nil)

// enrich fetches schools and tax history for one listing, degrading to
// empty enrichment once the retry budget is spent.
func (p *Provider) enrich(ctx context.Context, propertyID string) enrichment {
	var out enrichment
	err := retry.WithRetry(ctx, p.enrichRetry, func(attempt int) error {
		body, err := p.graphql(ctx, map[string]any{
			"query":     enrichmentQuery,
			"variables": map[string]any{"property_id": propertyID},
		})
		if err != nil {
			return err
		}
		home := body.Get("data.home")
		if !home.IsObject() {
			return errMissingHome
		}
		out = extractEnrichment(home)
		return nil
	})
	if err != nil {
		log.Debug().Err(err).Str("property_id", propertyID).Msg("Enrichment failed, continuing without it")
		return enrichment{}
	}
	return out
}

// GetLatestListingID returns the primary listing id of a property, else
// its first listing. nil means the property has no listings.
func (p *Provider) GetLatestListingID(ctx context.Context, propertyID string) (*string, error) {
	body, err := p.graphql(ctx, map[string]any{
		"query":     listingIDQuery,
		"variables": map[string]any{"property_id": propertyID},
	})
	if err != nil {
		return nil, err
	}

	listings := field.Array(body, "data.property.listings")
	if len(listings) == 0 {
		return nil, nil
	}
	for _, l := range listings {
		if field.Bool(l, "primary") {
			return field.Str(l, "listing_id"), nil
		}
	}
	return field.Str(listings[0], "listing_id"), nil
}
