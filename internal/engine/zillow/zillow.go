// Package zillow implements the map-tile provider: the location is turned
// into map bounds and the listings inside them are read from the search
// page state endpoint.
package zillow

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/engine/field"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL    = "https://www.zillow.com"
	DefaultSuggestURL = "https://www.zillowstatic.com/autocomplete/v3/suggestions"

	searchStatePath = "/async-create-search-page-state"
	suggestABKey    = "6666272a-4b99-474c-b857-110ec438732b"
	defaultMapZoom  = 11
)

// browserHeaders are sent with every zillow request
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"Cache-Control":             "max-age=0",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "same-origin",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
}

var mapBoundsPattern = regexp.MustCompile(`window\.mapBounds = \{\s*"west":\s*(-?\d+\.\d+),\s*"east":\s*(-?\d+\.\d+),\s*"south":\s*(-?\d+\.\d+),\s*"north":\s*(-?\d+\.\d+)\s*\};`)

// Config holds the provider endpoints
type Config struct {
	BaseURL    string
	SuggestURL string
}

// Provider searches zillow
type Provider struct {
	http engine.HTTP
	cfg  Config
	opts engine.Options
}

// New creates the zillow provider
func New(client engine.HTTP, cfg Config, opts engine.Options) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.SuggestURL == "" {
		cfg.SuggestURL = DefaultSuggestURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{http: client, cfg: cfg, opts: opts.WithDefaults()}
}

// Name returns the site name
func (p *Provider) Name() models.SiteName {
	return models.SiteZillow
}

// Search resolves the location to map bounds, or to a single home page,
// and collects the listings.
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

	var props []models.Property
	if scope.Kind == models.ScopeRadius {
		props, err = p.searchBounds(ctx, engine.BoundingBoxAround(*scope.Center, scope.Radius), filters)
	} else {
		props, err = p.searchPage(ctx, filters)
	}
	if err != nil {
		return nil, err
	}

	props = engine.WithinRadius(props, scope)
	props = engine.FilterDateWindow(props, filters, p.opts.Now())
	if len(props) > filters.Limit {
		props = props[:filters.Limit]
	}
	return props, nil
}

// Resolve reads the first autocomplete suggestion
func (p *Provider) Resolve(ctx context.Context, filters models.SearchFilters) (models.ScopeSpec, error) {
	resp, err := p.http.GetCached(ctx, p.cfg.SuggestURL, map[string]string{
		"q":        filters.Location,
		"abKey":    suggestABKey,
		"clientId": "homepage-render",
	}, browserHeaders)
	if err != nil {
		return models.ScopeSpec{}, fmt.Errorf("zillow suggestions: %w", err)
	}

	results := field.Array(resp.JSON(), "results")
	if len(results) == 0 {
		return models.ScopeSpec{}, engine.NoResults(filters.Location)
	}
	meta := results[0].Get("metaData")

	var center *models.Coordinate
	if lat, lng := field.Float(meta, "lat"), field.Float(meta, "lng"); lat != nil && lng != nil {
		center = &models.Coordinate{Lat: *lat, Lon: *lng}
	}

	scope := models.ScopeSpec{
		RegionType: field.StrOr(meta, "regionType", ""),
		City:       field.StrOr(meta, "city", ""),
		County:     field.StrOr(meta, "county", ""),
		StateCode:  field.StrOr(meta, "state", ""),
		PostalCode: field.StrOr(meta, "zipCode", ""),
		Center:     center,
	}

	switch {
	case field.Present(meta, "zpid"):
		scope.LocationID = field.StrOr(meta, "zpid", "")
		scope.RegionType = "address"
		if filters.Radius != nil {
			if center == nil {
				return models.ScopeSpec{}, engine.GeoCoordsNotFound(filters.Location)
			}
			scope.Kind = models.ScopeRadius
			scope.Radius = *filters.Radius
			return scope, nil
		}
		scope.Kind = models.ScopeAddress
	case scope.RegionType == "zipcode":
		scope.Kind = models.ScopePostalCode
		scope.LocationID = field.StrOr(meta, "regionId", "")
	default:
		scope.Kind = models.ScopeArea
		scope.LocationID = field.StrOr(meta, "regionId", "")
	}
	return scope, nil
}

// pagePath is the search page segment for a listing type
func pagePath(lt models.ListingType) string {
	switch lt {
	case models.ListingForRent:
		return "for_rent"
	case models.ListingSold:
		return "recently_sold"
	}
	return "for_sale"
}

// searchPage loads the public search page. A search page yields map bounds
// for the backend search; a single home page carries the property itself.
func (p *Provider) searchPage(ctx context.Context, filters models.SearchFilters) ([]models.Property, error) {
	pageURL := fmt.Sprintf("%s/homes/%s/%s_rb/", p.cfg.BaseURL, pagePath(filters.ListingType), url.PathEscape(filters.Location))
	resp, err := p.http.Get(ctx, pageURL, nil, browserHeaders)
	if err != nil {
		return nil, fmt.Errorf("zillow search page: %w", err)
	}
	html := resp.Text()

	data, ok := nextData(html)
	if !ok {
		return nil, engine.NoResults(filters.Location)
	}
	pageProps := data.Get("props.pageProps")

	if pageProps.Get("searchPageState").Exists() {
		bounds, ok := mapBounds(pageProps, html)
		if !ok {
			return nil, engine.GeoCoordsNotFound(filters.Location)
		}
		return p.searchBounds(ctx, bounds, filters)
	}

	if cache := pageProps.Get("gdpClientCache"); cache.Exists() {
		// the cache is a JSON document embedded as a string
		if cache.Type == gjson.String {
			cache = gjson.Parse(cache.String())
		}
		var home gjson.Result
		cache.ForEach(func(_, entry gjson.Result) bool {
			home = entry.Get("property")
			return false
		})
		if !home.IsObject() {
			return nil, engine.NoResults(filters.Location)
		}
		prop, ok := p.parseDetail(home, filters)
		if !ok {
			return nil, nil
		}
		return []models.Property{prop}, nil
	}

	return nil, engine.NoResults(filters.Location)
}

// nextData extracts the __NEXT_DATA__ JSON embedded in a page
func nextData(html string) (gjson.Result, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return gjson.Result{}, false
	}
	raw := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if raw == "" || !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	return gjson.Parse(raw), true
}

// mapBounds reads the query state bounds, falling back to the inline
// window.mapBounds assignment.
func mapBounds(pageProps gjson.Result, html string) (engine.BoundingBox, bool) {
	qs := pageProps.Get("searchPageState.queryState.mapBounds")
	west, east := field.Float(qs, "west"), field.Float(qs, "east")
	south, north := field.Float(qs, "south"), field.Float(qs, "north")
	if west != nil && east != nil && south != nil && north != nil {
		return engine.BoundingBox{West: *west, East: *east, South: *south, North: *north}, true
	}

	m := mapBoundsPattern.FindStringSubmatch(html)
	if m == nil {
		return engine.BoundingBox{}, false
	}
	coords := make([]float64, 4)
	for i := range coords {
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return engine.BoundingBox{}, false
		}
		coords[i] = v
	}
	return engine.BoundingBox{West: coords[0], East: coords[1], South: coords[2], North: coords[3]}, true
}

type filterValue struct {
	Value any `json:"value"`
}

// filterState builds the search filter block for a listing type
func filterState(filters models.SearchFilters) map[string]filterValue {
	excluded := func(state map[string]filterValue) map[string]filterValue {
		for _, k := range []string{"isForSaleByAgent", "isForSaleByOwner", "isNewConstruction", "isComingSoon", "isAuction", "isForSaleForeclosure"} {
			state[k] = filterValue{false}
		}
		return state
	}

	var state map[string]filterValue
	switch filters.ListingType {
	case models.ListingForRent:
		state = excluded(map[string]filterValue{"isForRent": {true}})
	case models.ListingSold:
		state = excluded(map[string]filterValue{"isRecentlySold": {true}})
	default:
		state = map[string]filterValue{"sortSelection": {"days"}}
		if filters.ListingType == models.ListingPending {
			state["isPendingListingsSelected"] = filterValue{true}
		}
		if filters.Foreclosure != nil {
			state["isForSaleForeclosure"] = filterValue{*filters.Foreclosure}
		}
	}
	state["isAllHomes"] = filterValue{true}

	if filters.PastDays != nil {
		state["doz"] = filterValue{daysOnZillow(*filters.PastDays)}
	}
	return state
}

// dozBuckets are the days-on-site windows the endpoint accepts
var dozBuckets = []struct {
	days  int
	value string
}{
	{1, "1"}, {7, "7"}, {14, "14"}, {30, "30"}, {90, "90"},
	{180, "6m"}, {365, "12m"}, {730, "24m"}, {1095, "36m"},
}

// daysOnZillow picks the smallest bucket covering days; the exact window
// is applied client-side afterwards.
func daysOnZillow(days int) string {
	for _, b := range dozBuckets {
		if days <= b.days {
			return b.value
		}
	}
	return dozBuckets[len(dozBuckets)-1].value
}

func (p *Provider) searchBounds(ctx context.Context, bounds engine.BoundingBox, filters models.SearchFilters) ([]models.Property, error) {
	payload := map[string]any{
		"searchQueryState": map[string]any{
			"pagination":   map[string]any{},
			"isMapVisible": true,
			"mapBounds": map[string]float64{
				"west":  bounds.West,
				"east":  bounds.East,
				"south": bounds.South,
				"north": bounds.North,
			},
			"filterState":   filterState(filters),
			"isListVisible": true,
			"mapZoom":       defaultMapZoom,
		},
		"wants":          map[string][]string{"cat1": {"mapResults"}},
		"isDebugRequest": false,
	}

	resp, err := p.http.Put(ctx, p.cfg.BaseURL+searchStatePath, payload, browserHeaders)
	if err != nil {
		return nil, fmt.Errorf("zillow search state: %w", err)
	}

	var props []models.Property
	for _, result := range field.Array(resp.JSON(), "cat1.searchResults.mapResults") {
		var (
			prop models.Property
			ok   bool
		)
		switch {
		case result.Get("hdpData.homeInfo").IsObject():
			prop, ok = p.parseResult(result, filters)
		case field.Bool(result, "isBuilding"):
			prop, ok = p.parseBuilding(result, filters)
		}
		if ok {
			props = append(props, prop)
		}
	}

	log.Debug().
		Str("site", string(p.Name())).
		Int("count", len(props)).
		Msg("Fetched map results")
	return props, nil
}
