// Package redfin implements the redfin provider: a region id from the
// location autocomplete feeds the GIS, rentals or home detail endpoints.
package redfin

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/engine/field"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	DefaultBaseURL = "https://www.redfin.com"

	autocompletePath = "/stingray/do/location-autocomplete"
	gisPath          = "/stingray/api/gis"
	rentalsPath      = "/stingray/api/v1/search/rentals"
	detailPath       = "/stingray/api/home/details/aboveTheFold"

	// stingray responses are prefixed with this JSON hijacking guard
	jsonGuard = "{}&&"

	defaultSoldWithinDays = 30

	// maxHomes is the largest page the GIS and rentals endpoints serve.
	// Pending, MLS, radius and date filters run client-side, so the limit
	// is applied only after filtering.
	maxHomes = 100000
)

// autocomplete match types
const (
	matchAddress = "1"
	matchCity    = "2"
	matchZip     = "4"
)

// region types understood by the GIS endpoint
var regionTypes = map[string]string{
	matchCity: "6",
	matchZip:  "2",
}

// Config holds the provider endpoints
type Config struct {
	BaseURL string
}

// Provider searches redfin
type Provider struct {
	http engine.HTTP
	cfg  Config
	opts engine.Options
}

// New creates the redfin provider
func New(client engine.HTTP, cfg Config, opts engine.Options) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Provider{http: client, cfg: cfg, opts: opts.WithDefaults()}
}

// Name returns the site name
func (p *Provider) Name() models.SiteName {
	return models.SiteRedfin
}

// Search resolves the location and dispatches to the detail, rentals or
// GIS endpoint.
func (p *Provider) Search(ctx context.Context, filters models.SearchFilters) ([]models.Property, error) {
	scope, err := p.Resolve(ctx, filters)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("site", string(p.Name())).
		Str("scope", string(scope.Kind)).
		Str("region_id", scope.LocationID).
		Str("region_type", scope.RegionType).
		Msg("Resolved location")

	if scope.Kind == models.ScopeAddress {
		return p.searchHome(ctx, scope.LocationID, filters)
	}

	var props []models.Property
	if filters.ListingType == models.ListingForRent {
		props, err = p.searchRentals(ctx, scope, filters)
	} else {
		props, err = p.searchGIS(ctx, scope, filters)
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

// Resolve maps the autocomplete exact match, or the first suggestion, to a
// scope. Addresses with a radius fetch the home detail for its centroid.
func (p *Provider) Resolve(ctx context.Context, filters models.SearchFilters) (models.ScopeSpec, error) {
	body, err := p.getStingray(ctx, autocompletePath, map[string]string{
		"v":        "2",
		"al":       "1",
		"location": filters.Location,
	}, true)
	if err != nil {
		return models.ScopeSpec{}, fmt.Errorf("redfin autocomplete: %w", err)
	}

	payload := body.Get("payload")
	if !payload.Get("exactMatch").Exists() {
		return models.ScopeSpec{}, engine.NoResults(filters.Location)
	}
	target := payload.Get("exactMatch")
	if !target.IsObject() {
		target = payload.Get("sections.0.rows.0")
	}
	if !target.IsObject() {
		return models.ScopeSpec{}, engine.NoResults(filters.Location)
	}

	// ids look like "2_30749"
	_, regionID, ok := strings.Cut(field.StrOr(target, "id", ""), "_")
	if !ok || regionID == "" {
		return models.ScopeSpec{}, engine.NoResults(filters.Location)
	}
	matchType := field.StrOr(target, "type", "")

	scope := models.ScopeSpec{LocationID: regionID}
	switch matchType {
	case matchAddress:
		scope.RegionType = "address"
		if filters.Radius == nil {
			scope.Kind = models.ScopeAddress
			return scope, nil
		}
		center, err := p.homeCentroid(ctx, regionID)
		if err != nil {
			return models.ScopeSpec{}, err
		}
		if center == nil {
			return models.ScopeSpec{}, engine.GeoCoordsNotFound(filters.Location)
		}
		scope.Kind = models.ScopeRadius
		scope.Center = center
		scope.Radius = *filters.Radius
	case matchZip:
		scope.Kind = models.ScopePostalCode
		scope.RegionType = regionTypes[matchType]
		scope.PostalCode = field.StrOr(target, "name", "")
	default:
		scope.Kind = models.ScopeArea
		scope.RegionType = matchType
		if rt, ok := regionTypes[matchType]; ok {
			scope.RegionType = rt
		}
	}
	return scope, nil
}

// getStingray fetches a stingray endpoint and strips the JSON guard
func (p *Provider) getStingray(ctx context.Context, path string, params map[string]string, cached bool) (gjson.Result, error) {
	get := p.http.Get
	if cached {
		get = p.http.GetCached
	}
	resp, err := get(ctx, p.cfg.BaseURL+path, params, nil)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.Parse(strings.TrimPrefix(resp.Text(), jsonGuard)), nil
}

func (p *Provider) fetchDetail(ctx context.Context, homeID string) (gjson.Result, error) {
	body, err := p.getStingray(ctx, detailPath, map[string]string{
		"propertyId":  homeID,
		"accessLevel": "3",
	}, false)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("redfin home detail: %w", err)
	}
	return body.Get("payload"), nil
}

func (p *Provider) homeCentroid(ctx context.Context, homeID string) (*models.Coordinate, error) {
	payload, err := p.fetchDetail(ctx, homeID)
	if err != nil {
		return nil, err
	}
	info := payload.Get("addressSectionInfo")
	lat, lon := field.Float(info, "latLong.latitude"), field.Float(info, "latLong.longitude")
	if lat == nil || lon == nil {
		return nil, nil
	}
	return &models.Coordinate{Lat: *lat, Lon: *lon}, nil
}

func (p *Provider) searchHome(ctx context.Context, homeID string, filters models.SearchFilters) ([]models.Property, error) {
	payload, err := p.fetchDetail(ctx, homeID)
	if err != nil {
		return nil, err
	}
	if !payload.Get("addressSectionInfo").IsObject() {
		return nil, nil
	}
	prop, ok := p.parseDetail(payload, filters)
	if !ok {
		return nil, nil
	}
	return []models.Property{prop}, nil
}

// regionParams scopes a GIS or rentals request to a region or, for radius
// searches, a bounding polygon around the centroid.
func regionParams(scope models.ScopeSpec) map[string]string {
	if scope.Kind == models.ScopeRadius {
		return map[string]string{"poly": polygon(engine.BoundingBoxAround(*scope.Center, scope.Radius))}
	}
	return map[string]string{
		"region_id":   scope.LocationID,
		"region_type": scope.RegionType,
	}
}

// polygon serializes a box as the closed "lon lat,..." ring the GIS
// endpoint expects.
func polygon(b engine.BoundingBox) string {
	corners := [][2]float64{
		{b.West, b.South}, {b.East, b.South}, {b.East, b.North}, {b.West, b.North}, {b.West, b.South},
	}
	points := make([]string, len(corners))
	for i, c := range corners {
		points[i] = strconv.FormatFloat(c[0], 'f', 6, 64) + " " + strconv.FormatFloat(c[1], 'f', 6, 64)
	}
	return strings.Join(points, ",")
}

func (p *Provider) searchGIS(ctx context.Context, scope models.ScopeSpec, filters models.SearchFilters) ([]models.Property, error) {
	params := regionParams(scope)
	params["al"] = "1"
	params["num_homes"] = strconv.Itoa(maxHomes)
	if filters.ListingType == models.ListingSold {
		params["sold_within_days"] = strconv.Itoa(p.soldWithinDays(filters))
	}
	if uipt := uiPropertyTypes(filters.PropertyTypes); uipt != "" {
		params["uipt"] = uipt
	}

	body, err := p.getStingray(ctx, gisPath, params, false)
	if err != nil {
		return nil, fmt.Errorf("redfin gis: %w", err)
	}

	payload := body.Get("payload")
	if !payload.Exists() {
		return nil, nil
	}

	var props []models.Property
	for _, home := range field.Array(payload, "homes") {
		if prop, ok := p.parseHome(home, filters); ok {
			props = append(props, prop)
		}
	}
	payload.Get("buildings").ForEach(func(_, building gjson.Result) bool {
		if prop, ok := p.parseBuilding(building, filters); ok {
			props = append(props, prop)
		}
		return true
	})

	log.Debug().
		Str("site", string(p.Name())).
		Int("count", len(props)).
		Msg("Fetched GIS results")
	return props, nil
}

func (p *Provider) searchRentals(ctx context.Context, scope models.ScopeSpec, filters models.SearchFilters) ([]models.Property, error) {
	params := regionParams(scope)
	params["al"] = "1"
	params["isRentals"] = "true"
	params["num_homes"] = strconv.Itoa(maxHomes)

	body, err := p.getStingray(ctx, rentalsPath, params, false)
	if err != nil {
		return nil, fmt.Errorf("redfin rentals: %w", err)
	}

	var props []models.Property
	for _, home := range field.Array(body, "homes") {
		if prop, ok := p.parseRental(home, filters); ok {
			props = append(props, prop)
		}
	}
	return props, nil
}

// soldWithinDays converts the caller's window into the GIS lookback
func (p *Provider) soldWithinDays(filters models.SearchFilters) int {
	switch {
	case filters.PastDays != nil:
		return *filters.PastDays
	case filters.DateFrom != nil:
		days := int(math.Ceil(p.opts.Now().Sub(*filters.DateFrom).Hours() / 24))
		if days > 0 {
			return days
		}
	}
	return defaultSoldWithinDays
}

// uiPropertyCodes is the inverse of the legacy code mapping used in
// GIS payloads.
var uiPropertyCodes = map[models.PropertyType]int{
	models.PropertySingleFamily:             1,
	models.PropertyCondo:                    2,
	models.PropertyCondos:                   2,
	models.PropertyCondoTownhome:            2,
	models.PropertyCondoTownhomeRowhomeCoop: 2,
	models.PropertyCondop:                   2,
	models.PropertyTownhomes:                3,
	models.PropertyMultiFamily:              4,
	models.PropertyDuplexTriplex:            4,
	models.PropertyLand:                     5,
	models.PropertyFarm:                     5,
	models.PropertyMobile:                   7,
	models.PropertyCoop:                     8,
}

func uiPropertyTypes(types []models.PropertyType) string {
	seen := make(map[int]struct{})
	for _, t := range types {
		code, ok := uiPropertyCodes[t]
		if !ok {
			code = 6
		}
		seen[code] = struct{}{}
	}
	codes := make([]int, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Ints(codes)

	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}
