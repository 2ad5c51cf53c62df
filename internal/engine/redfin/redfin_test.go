package redfin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/httpclient"
	"github.com/law-makers/homeharvest/internal/retry"
	"github.com/law-makers/homeharvest/pkg/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeRedfin struct {
	autocomplete string
	gis          string
	rentals      string
	detail       string

	mu       sync.Mutex
	requests map[string][]url.Values
}

func (f *fakeRedfin) record(path string, q url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.requests == nil {
		f.requests = make(map[string][]url.Values)
	}
	f.requests[path] = append(f.requests[path], q)
}

func (f *fakeRedfin) calls(path string) []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[path]
}

func (f *fakeRedfin) handler() http.Handler {
	serve := func(body *string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			f.record(r.URL.Path, r.URL.Query())
			_, _ = io.WriteString(w, jsonGuard+*body)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc(autocompletePath, serve(&f.autocomplete))
	mux.HandleFunc(gisPath, serve(&f.gis))
	mux.HandleFunc(detailPath, serve(&f.detail))
	mux.HandleFunc(rentalsPath, func(w http.ResponseWriter, r *http.Request) {
		f.record(r.URL.Path, r.URL.Query())
		_, _ = io.WriteString(w, f.rentals)
	})
	return mux
}

func newTestProvider(t *testing.T, f *fakeRedfin) (*Provider, string) {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 1
	client, err := httpclient.New(httpclient.Options{Retry: &cfg})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}
	return New(client, Config{BaseURL: srv.URL}, engine.Options{Now: func() time.Time { return testNow }}), srv.URL
}

func searchFilters(location string, lt models.ListingType) models.SearchFilters {
	return models.SearchFilters{Location: location, ListingType: lt, Limit: 10000}
}

const cityMatch = `{"payload":{"exactMatch":{"id":"2_30749","type":"2","name":"Phoenix"}}}`

const gisPayload = `{"payload":{
	"homes":[
		{"propertyId":101,"listingId":9001,"url":"/AZ/Phoenix/100-Main-St-85004/home/101",
		 "mlsId":{"value":"6612345"},"mlsStatus":{"value":"Active"},
		 "streetLine":{"value":"100 Main St Apt 4"},"city":"Phoenix","state":"AZ","zip":"85004",
		 "price":{"value":450000},"sqFt":{"value":1600},"beds":3,"baths":2.5,"fullBaths":2,"partialBaths":1,
		 "dom":{"value":10},"propertyType":13,"yearBuilt":{"value":1999},"lotSize":{"value":6000},
		 "latLong":{"value":{"latitude":33.45,"longitude":-112.07}},"listingRemarks":"Bright &amp; open"},
		{"propertyId":102,"url":"/AZ/Phoenix/200-Oak-Ave-85004/home/102",
		 "mlsStatus":{"value":"Pending"},"streetLine":{"value":"200 Oak Ave"},"city":"Phoenix","state":"AZ","zip":"85004",
		 "price":{"value":300000},"propertyType":99,
		 "latLong":{"value":{"latitude":34.5,"longitude":-112.07}}}
	],
	"buildings":{
		"77":{"buildingId":77,"url":"/AZ/Phoenix/tower/building/77","numUnitsForSale":12,
			"address":{"streetNumber":"1","directionalPrefix":"N","streetName":"Central","streetType":"Ave",
				"unitType":"Ste","unitValue":"5","city":"Phoenix","stateOrProvinceCode":"AZ","postalCode":"85004"}}
	}
}}`

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		autocomplete string
		wantKind     models.ScopeKind
		wantRegion   string
		wantType     string
		wantErr      error
	}{
		{
			name:         "exact city match",
			autocomplete: cityMatch,
			wantKind:     models.ScopeArea,
			wantRegion:   "30749",
			wantType:     "6",
		},
		{
			name:         "zip from first suggestion",
			autocomplete: `{"payload":{"exactMatch":null,"sections":[{"rows":[{"id":"4_85281","type":"4","name":"85281"}]}]}}`,
			wantKind:     models.ScopePostalCode,
			wantRegion:   "85281",
			wantType:     "2",
		},
		{
			name:         "address without radius",
			autocomplete: `{"payload":{"exactMatch":{"id":"1_555","type":"1"}}}`,
			wantKind:     models.ScopeAddress,
			wantRegion:   "555",
			wantType:     "address",
		},
		{
			name:         "no exact match key",
			autocomplete: `{"payload":{"sections":[]}}`,
			wantErr:      engine.ErrNoResultsFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newTestProvider(t, &fakeRedfin{autocomplete: tt.autocomplete})
			scope, err := p.Resolve(context.Background(), searchFilters("x", models.ListingForSale))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if scope.Kind != tt.wantKind || scope.LocationID != tt.wantRegion || scope.RegionType != tt.wantType {
				t.Errorf("got %s/%s/%s, want %s/%s/%s",
					scope.Kind, scope.LocationID, scope.RegionType, tt.wantKind, tt.wantRegion, tt.wantType)
			}
		})
	}
}

func TestSearch_GIS(t *testing.T) {
	f := &fakeRedfin{autocomplete: cityMatch, gis: gisPayload}
	p, base := newTestProvider(t, f)

	props, err := p.Search(context.Background(), searchFilters("Phoenix, AZ", models.ListingForSale))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 3 {
		t.Fatalf("expected 2 homes and 1 building, got %d", len(props))
	}

	q := f.calls(gisPath)[0]
	if q.Get("region_id") != "30749" || q.Get("region_type") != "6" || q.Get("num_homes") != "100000" {
		t.Errorf("unexpected gis query %v", q)
	}
	if q.Has("sold_within_days") {
		t.Error("sold_within_days is only sent for SOLD searches")
	}

	byID := make(map[string]models.Property)
	for _, prop := range props {
		byID[*prop.PropertyID] = prop
	}

	home := byID["101"]
	if home.PropertyURL != base+"/AZ/Phoenix/100-Main-St-85004/home/101" {
		t.Errorf("unexpected url %q", home.PropertyURL)
	}
	if home.Status != "FOR_SALE" || *home.MLSID != "6612345" {
		t.Errorf("unexpected status/mls %s/%v", home.Status, home.MLSID)
	}
	if *home.Address.Street != "100 Main St" || *home.Address.Unit != "#4" {
		t.Errorf("unexpected address %+v", home.Address)
	}
	if home.DaysOnMarket == nil || *home.DaysOnMarket != 10 {
		t.Errorf("expected 10 days on market, got %v", home.DaysOnMarket)
	}
	if *home.Description.Style != models.PropertySingleFamily {
		t.Errorf("legacy code 13 must map to SINGLE_FAMILY, got %s", *home.Description.Style)
	}
	if *home.Description.BathsMin != 2.5 || *home.Description.BathsFull != 2 {
		t.Errorf("unexpected baths %+v", home.Description)
	}
	if *home.Latitude != 33.45 {
		t.Errorf("unexpected latitude %v", *home.Latitude)
	}
	if strings.Contains(*home.Description.Text, "&amp;") {
		t.Errorf("remarks should be unescaped, got %q", *home.Description.Text)
	}

	pending := byID["102"]
	if pending.Status != "PENDING" {
		t.Errorf("expected PENDING, got %s", pending.Status)
	}
	if *pending.Description.Style != models.PropertyOther {
		t.Errorf("unknown codes fall back to OTHER, got %s", *pending.Description.Style)
	}

	building := byID["77"]
	if *building.Description.Style != models.PropertyBuilding || *building.Description.UnitCount != 12 {
		t.Errorf("unexpected building %+v", building.Description)
	}
	if *building.Address.Street != "1 N Central Ave" || *building.Address.Unit != "#5" {
		t.Errorf("unexpected building address %+v", building.Address)
	}
}

func TestSearch_GISFilters(t *testing.T) {
	f := &fakeRedfin{autocomplete: cityMatch, gis: gisPayload}
	p, _ := newTestProvider(t, f)

	fl := searchFilters("Phoenix, AZ", models.ListingForSale)
	fl.ExcludePending = true
	fl.MLSOnly = true
	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 1 || *props[0].PropertyID != "101" {
		t.Errorf("expected only the active MLS listing, got %d", len(props))
	}

	fl = searchFilters("Phoenix, AZ", models.ListingPending)
	props, err = p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 1 || props[0].Status != "PENDING" {
		t.Errorf("PENDING searches keep only pending listings, got %d", len(props))
	}
}

func TestSearch_PendingLimitAppliesAfterFiltering(t *testing.T) {
	var homes []string
	for i := 1; i <= 8; i++ {
		status := "Active"
		if i > 4 {
			status = "Pending"
		}
		homes = append(homes, fmt.Sprintf(
			`{"propertyId":%d,"url":"/h/%d","mlsStatus":{"value":%q},"streetLine":{"value":"%d Elm St"},"city":"Phoenix"}`,
			i, i, status, i))
	}
	f := &fakeRedfin{
		autocomplete: cityMatch,
		gis:          `{"payload":{"homes":[` + strings.Join(homes, ",") + `]}}`,
	}
	p, _ := newTestProvider(t, f)

	fl := searchFilters("Phoenix, AZ", models.ListingPending)
	fl.Limit = 3
	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got := f.calls(gisPath)[0].Get("num_homes"); got != "100000" {
		t.Errorf("expected the provider maximum in num_homes, got %q", got)
	}
	if len(props) != 3 {
		t.Fatalf("expected 3 pending listings, got %d", len(props))
	}
	for _, prop := range props {
		if prop.Status != "PENDING" {
			t.Errorf("expected PENDING, got %s for %s", prop.Status, *prop.PropertyID)
		}
	}
}

func TestSearch_Sold(t *testing.T) {
	f := &fakeRedfin{
		autocomplete: cityMatch,
		gis: `{"payload":{"homes":[
			{"propertyId":1,"url":"/h/1","soldDate":1717200000000,"price":{"value":500000},"streetLine":{"value":"1 A St"}},
			{"propertyId":2,"url":"/h/2","soldDate":1704067200000,"price":{"value":400000},"streetLine":{"value":"2 B St"}}
		]}}`,
	}
	p, _ := newTestProvider(t, f)

	past := 45
	fl := searchFilters("Phoenix, AZ", models.ListingSold)
	fl.PastDays = &past
	fl.PropertyTypes = []models.PropertyType{models.PropertyCondos, models.PropertySingleFamily, models.PropertyCondo}

	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := f.calls(gisPath)[0]
	if q.Get("sold_within_days") != "45" {
		t.Errorf("expected sold_within_days=45, got %q", q.Get("sold_within_days"))
	}
	if q.Get("uipt") != "1,2" {
		t.Errorf("expected uipt=1,2, got %q", q.Get("uipt"))
	}

	// 2024-01-01 falls outside the 45 day window
	if len(props) != 1 || *props[0].PropertyID != "1" {
		t.Fatalf("expected only the recent sale, got %d", len(props))
	}
	if props[0].Status != "SOLD" || *props[0].Description.SoldPrice != 500000 {
		t.Errorf("unexpected sold record %+v", props[0])
	}
}

func TestSearch_RadiusWithoutCentroid(t *testing.T) {
	f := &fakeRedfin{
		autocomplete: `{"payload":{"exactMatch":{"id":"1_555","type":"1"}}}`,
		detail:       `{"payload":{"addressSectionInfo":{"streetAddress":{"assembledAddress":"2530 Al Lipscomb Way"}}}}`,
	}
	p, _ := newTestProvider(t, f)

	fl := searchFilters("2530 Al Lipscomb Way", models.ListingSold)
	radius := 0.5
	fl.Radius = &radius

	_, err := p.Search(context.Background(), fl)
	if !errors.Is(err, engine.ErrGeoCoordsNotFound) {
		t.Fatalf("expected GeoCoordsNotFound, got %v", err)
	}
	if len(f.calls(gisPath)) != 0 {
		t.Error("no GIS search may run without a centroid")
	}
}

func TestSearch_Radius(t *testing.T) {
	f := &fakeRedfin{
		autocomplete: `{"payload":{"exactMatch":{"id":"1_555","type":"1"}}}`,
		detail:       `{"payload":{"addressSectionInfo":{"latLong":{"latitude":33.45,"longitude":-112.07}}}}`,
		gis:          gisPayload,
	}
	p, _ := newTestProvider(t, f)

	fl := searchFilters("100 Main St", models.ListingForSale)
	radius := 1.0
	fl.Radius = &radius

	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := f.calls(gisPath)[0]
	if q.Get("poly") == "" || q.Has("region_id") {
		t.Errorf("radius searches send a polygon instead of a region: %v", q)
	}
	if strings.Count(q.Get("poly"), ",") != 4 {
		t.Errorf("expected a closed 5 point ring, got %q", q.Get("poly"))
	}

	// 102 is ~70 miles north and the building has no coordinates
	if len(props) != 1 || *props[0].PropertyID != "101" {
		t.Errorf("expected only the home inside the radius, got %d", len(props))
	}
}

func TestSearch_Rentals(t *testing.T) {
	f := &fakeRedfin{
		autocomplete: `{"payload":{"exactMatch":{"id":"4_85281","type":"4"}}}`,
		rentals: `{"homes":[{"homeData":{"propertyId":"88","url":"/AZ/Tempe/apt/home/88","staticMapUrl":"https://maps/88.png",
			"addressInfo":{"formattedStreetLine":"700 W University Dr","city":"Tempe","state":"AZ","zip":"85281",
				"centroid":{"centroid":{"latitude":33.42,"longitude":-111.95}}}},
			"rentalExtension":{"rentalId":"r-88","propertyName":"The Vue","description":"Steps from campus",
				"rentPriceRange":{"min":1400,"max":2100},"bedRange":{"min":1,"max":3},
				"bathRange":{"min":1,"max":2},"sqftRange":{"min":600,"max":1200},"lastUpdated":"2024-06-05T10:00:00Z"}}]}`,
	}
	p, _ := newTestProvider(t, f)

	props, err := p.Search(context.Background(), searchFilters("85281", models.ListingForRent))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(f.calls(gisPath)) != 0 || len(f.calls(rentalsPath)) != 1 {
		t.Fatalf("FOR_RENT must use the rentals endpoint")
	}
	q := f.calls(rentalsPath)[0]
	if q.Get("region_id") != "85281" || q.Get("region_type") != "2" || q.Get("isRentals") != "true" {
		t.Errorf("unexpected rentals query %v", q)
	}

	if len(props) != 1 {
		t.Fatalf("expected 1 rental, got %d", len(props))
	}
	r := props[0]
	if r.Status != "FOR_RENT" || *r.ListPriceMin != 1400 || *r.ListPriceMax != 2100 {
		t.Errorf("unexpected rental %+v", r)
	}
	if *r.Description.Name != "The Vue" || *r.Description.BedsMax != 3 {
		t.Errorf("unexpected description %+v", r.Description)
	}
	if r.DaysOnMarket == nil || *r.DaysOnMarket != 10 {
		t.Errorf("expected 10 days on market, got %v", r.DaysOnMarket)
	}
}

func TestSearch_SingleHome(t *testing.T) {
	f := &fakeRedfin{
		autocomplete: `{"payload":{"exactMatch":{"id":"1_555","type":"1"}}}`,
		detail: `{"payload":{
			"addressSectionInfo":{"propertyId":555,"url":"/TX/Dallas/2530-Al-Lipscomb-Way-75215/home/555",
				"streetAddress":{"assembledAddress":"2530 Al Lipscomb Way Unit 2"},"city":"Dallas","state":"TX","zip":"75215",
				"beds":3,"baths":2,"sqFt":{"value":1400},"yearBuilt":2010,"propertyType":1,
				"priceInfo":{"amount":325000},"latLong":{"latitude":32.77,"longitude":-96.78}},
			"mediaBrowserInfo":{"photos":[
				{"photoUrls":{"fullScreenPhotoUrl":"https://ssl.cdn-redfin.com/a.jpg"}},
				{"photoUrls":{"fullScreenPhotoUrl":"https://ssl.cdn-redfin.com/b.jpg"}}]}
		}}`,
	}
	p, base := newTestProvider(t, f)

	props, err := p.Search(context.Background(), searchFilters("2530 Al Lipscomb Way", models.ListingForSale))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 1 {
		t.Fatalf("expected 1 property, got %d", len(props))
	}
	q := f.calls(detailPath)[0]
	if q.Get("propertyId") != "555" || q.Get("accessLevel") != "3" {
		t.Errorf("unexpected detail query %v", q)
	}

	h := props[0]
	if h.PropertyURL != base+"/TX/Dallas/2530-Al-Lipscomb-Way-75215/home/555" {
		t.Errorf("unexpected url %q", h.PropertyURL)
	}
	if *h.Address.Street != "2530 Al Lipscomb Way" || *h.Address.Unit != "#2" {
		t.Errorf("unexpected address %+v", h.Address)
	}
	if *h.ListPrice != 325000 || *h.Description.YearBuilt != 2010 {
		t.Errorf("unexpected facts %+v", h)
	}
	if *h.Description.PrimaryPhoto != "https://ssl.cdn-redfin.com/a.jpg" || len(h.Description.AltPhotos) != 1 {
		t.Errorf("unexpected photos %+v", h.Description)
	}
}

func TestUIPropertyTypes(t *testing.T) {
	got := uiPropertyTypes([]models.PropertyType{
		models.PropertyTownhomes, models.PropertyApartment, models.PropertyMobile, models.PropertyTownhomes,
	})
	if got != "3,6,7" {
		t.Errorf("got %q, want 3,6,7", got)
	}
	if uiPropertyTypes(nil) != "" {
		t.Error("no types must produce no uipt parameter")
	}
}
