package realtor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/httpclient"
	"github.com/law-makers/homeharvest/internal/retry"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/tidwall/gjson"
)

type staticAuth struct{}

func (staticAuth) Headers(ctx context.Context) (map[string]string, error) {
	return map[string]string{"auth": "Bearer test"}, nil
}

// fakeRealtor serves the autocomplete and GraphQL endpoints
type fakeRealtor struct {
	t            *testing.T
	autocomplete string
	total        int
	home         string
	enrichStatus int

	mu        sync.Mutex
	offsets   []int
	documents []string
	gqlCalls  int
}

func (f *fakeRealtor) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/suggest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, f.autocomplete)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("auth") != "Bearer test" {
			f.t.Errorf("missing auth header")
		}
		body, _ := io.ReadAll(r.Body)
		req := gjson.ParseBytes(body)
		doc := req.Get("query").String()

		f.mu.Lock()
		f.gqlCalls++
		f.documents = append(f.documents, doc)
		f.mu.Unlock()

		switch {
		case strings.Contains(doc, "home_search"):
			offset := int(req.Get("variables.offset").Int())
			f.mu.Lock()
			f.offsets = append(f.offsets, offset)
			f.mu.Unlock()
			_, _ = io.WriteString(w, searchPage(f.total, offset, 200))
		case strings.Contains(doc, "query GetHome"):
			if f.enrichStatus != 0 {
				w.WriteHeader(f.enrichStatus)
				return
			}
			_, _ = io.WriteString(w, `{"data":{"home":{"nearbySchools":{"schools":[{"district":{"name":"Tempe Elementary"}},{"district":{"name":"Tempe Elementary"}},{"district":{"name":"Tempe Union"}}]},"taxHistory":[{"year":2022,"tax":2100,"assessment":{"total":210000}},{"year":2023,"tax":2300,"assessment":{"total":230000}}]}}}`)
		case strings.Contains(doc, "query Home("):
			_, _ = io.WriteString(w, f.home)
		case strings.Contains(doc, "query Property("):
			_, _ = io.WriteString(w, `{"data":{"property":{"listings":[{"listing_id":"111","primary":false},{"listing_id":"222","primary":true}]}}}`)
		default:
			f.t.Errorf("unexpected document %q", doc)
		}
	})
	return mux
}

func searchPage(total, offset, pageSize int) string {
	var results []map[string]any
	for i := offset; i < offset+pageSize && i < total; i++ {
		results = append(results, rawListing(i))
	}
	body, _ := json.Marshal(map[string]any{
		"data": map[string]any{
			"home_search": map[string]any{"count": len(results), "total": total, "results": results},
		},
	})
	return string(body)
}

func rawListing(i int) map[string]any {
	return map[string]any{
		"property_id": fmt.Sprintf("%d", 1000+i),
		"listing_id":  fmt.Sprintf("%d", 5000+i),
		"href":        fmt.Sprintf("https://www.realtor.com/realestateandhomes-detail/%d", 1000+i),
		"status":      "for_sale",
		"list_price":  300000 + i,
		"list_date":   "2024-06-01T00:00:00Z",
		"flags":       map[string]any{"is_pending": i%2 == 0, "is_contingent": false},
		"source":      map[string]any{"id": "ARMLS", "listing_id": fmt.Sprintf("M%d", i)},
		"location": map[string]any{
			"address": map[string]any{
				"street_number": fmt.Sprintf("%d", 100+i), "street_name": "Mill", "street_suffix": "Ave",
				"line": fmt.Sprintf("%d Mill Ave", 100+i), "city": "Tempe", "state_code": "AZ", "postal_code": "85281",
				"coordinate": map[string]any{"lat": 33.42, "lon": -111.94},
			},
			"county": map[string]any{"name": "Maricopa", "fips_code": "04013"},
		},
	}
}

func newTestProvider(t *testing.T, f *fakeRealtor) (*Provider, func()) {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f.handler())

	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = 1
	client, err := httpclient.New(httpclient.Options{Retry: &cfg})
	if err != nil {
		t.Fatalf("httpclient.New: %v", err)
	}

	p := New(client, staticAuth{}, Config{
		SearchURL:       srv.URL + "/graphql",
		AutocompleteURL: srv.URL + "/suggest",
	}, engine.Options{
		Now: func() time.Time { return time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC) },
	})
	p.enrichRetry = retry.Config{MaxAttempts: 2, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, Multiplier: 1}
	return p, srv.Close
}

func filters(location string, lt models.ListingType) models.SearchFilters {
	return models.SearchFilters{Location: location, ListingType: lt, Limit: 10000}
}

func TestSearch_PostalCodeWithZeroTotal(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"postal_code","postal_code":"85281","city":"Tempe","state_code":"AZ"}]}`,
		total:        0,
	}
	p, done := newTestProvider(t, f)
	defer done()

	fl := filters("85281", models.ListingForRent)
	scope, err := p.Resolve(context.Background(), fl)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if scope.Kind == models.ScopeAddress || scope.Kind != models.ScopePostalCode {
		t.Errorf("expected POSTAL_CODE scope, got %s", scope.Kind)
	}

	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("expected no error for empty result, got %v", err)
	}
	if len(props) != 0 {
		t.Errorf("expected no properties, got %d", len(props))
	}
	if !strings.Contains(f.documents[0], "status: for_rent") {
		t.Errorf("expected for_rent status predicate in %s", f.documents[0])
	}
}

func TestSearch_RadiusWithoutCentroid(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"address","mpr_id":"9876","line":"2530 Al Lipscomb Way"}]}`,
	}
	p, done := newTestProvider(t, f)
	defer done()

	fl := filters("2530 Al Lipscomb Way", models.ListingSold)
	radius := 0.5
	fl.Radius = &radius

	props, err := p.Search(context.Background(), fl)
	if !errors.Is(err, engine.ErrGeoCoordsNotFound) {
		t.Fatalf("expected GeoCoordsNotFound, got %v (%d props)", err, len(props))
	}
	if f.gqlCalls != 0 {
		t.Errorf("expected no search calls, got %d", f.gqlCalls)
	}
}

func TestSearch_RadiusWithCentroid(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"address","mpr_id":"9876","centroid":{"lon":-96.79,"lat":32.78}}]}`,
		total:        3,
	}
	p, done := newTestProvider(t, f)
	defer done()

	fl := filters("2530 Al Lipscomb Way", models.ListingSold)
	radius := 0.5
	fl.Radius = &radius

	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 3 {
		t.Errorf("expected 3 comps, got %d", len(props))
	}
	if !strings.Contains(f.documents[0], "nearby: { coordinates: $coordinates radius: $radius }") {
		t.Errorf("expected nearby predicate in %s", f.documents[0])
	}
}

func TestSearch_PaginatesAndNormalizes(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"city","city":"Tempe","state_code":"AZ"}]}`,
		total:        450,
	}
	p, done := newTestProvider(t, f)
	defer done()

	props, err := p.Search(context.Background(), filters("Tempe, AZ", models.ListingForSale))
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 450 {
		t.Fatalf("expected 450 properties, got %d", len(props))
	}

	sort.Ints(f.offsets)
	if fmt.Sprint(f.offsets) != "[0 200 400]" {
		t.Errorf("expected offsets [0 200 400], got %v", f.offsets)
	}

	for _, prop := range props {
		id := *prop.PropertyID
		var n int
		fmt.Sscanf(id, "%d", &n)
		want := "FOR_SALE"
		if (n-1000)%2 == 0 {
			want = "PENDING"
		}
		if prop.Status != want {
			t.Fatalf("property %s: expected status %s, got %s", id, want, prop.Status)
		}
		if prop.DaysOnMarket == nil || *prop.DaysOnMarket != 14 {
			t.Fatalf("property %s: expected 14 days on market, got %v", id, prop.DaysOnMarket)
		}
	}
}

func TestSearch_LimitTruncates(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"city","city":"Tempe","state_code":"AZ"}]}`,
		total:        450,
	}
	p, done := newTestProvider(t, f)
	defer done()

	fl := filters("Tempe, AZ", models.ListingForSale)
	fl.Limit = 250
	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 250 {
		t.Errorf("expected 250 properties, got %d", len(props))
	}
	if len(f.offsets) != 2 {
		t.Errorf("expected 2 page fetches, got %v", f.offsets)
	}
}

func TestSearch_ExcludePending(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"city","city":"Tempe","state_code":"AZ"}]}`,
		total:        10,
	}
	p, done := newTestProvider(t, f)
	defer done()

	fl := filters("Tempe, AZ", models.ListingForSale)
	fl.ExcludePending = true
	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 5 {
		t.Errorf("expected the 5 non-pending listings, got %d", len(props))
	}
}

func TestSearch_PendingQueriesForSale(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"city","city":"Tempe","state_code":"AZ"}]}`,
		total:        1,
	}
	p, done := newTestProvider(t, f)
	defer done()

	if _, err := p.Search(context.Background(), filters("Tempe, AZ", models.ListingPending)); err != nil {
		t.Fatalf("Search: %v", err)
	}
	doc := f.documents[0]
	if !strings.Contains(doc, "status: for_sale") || !strings.Contains(doc, "or_filters: { contingent: true, pending: true }") {
		t.Errorf("PENDING must query for_sale with pending-or-contingent predicate:\n%s", doc)
	}
}

func TestSearch_NoAutocompleteCandidates(t *testing.T) {
	f := &fakeRealtor{autocomplete: `{"autocomplete":[]}`}
	p, done := newTestProvider(t, f)
	defer done()

	_, err := p.Search(context.Background(), filters("Nowhere", models.ListingForSale))
	if !errors.Is(err, engine.ErrNoResultsFound) {
		t.Fatalf("expected NoResultsFound, got %v", err)
	}
}

func TestSearch_SingleAddress(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"address","mpr_id":"9876"}]}`,
		home: `{"data":{"home":{
			"property_id":"9876","href":"https://www.realtor.com/realestateandhomes-detail/9876",
			"status":"sold","list_price":500000,"list_date":"2024-01-10","last_sold_date":"2024-01-01","last_sold_price":480000,
			"flags":{"is_pending":false,"is_contingent":false},
			"description":{"type":"single_family","beds":3,"baths_full":2,"sqft":1800,"text":"<p>Lovely <b>home</b></p>"},
			"primary_photo":{"href":"https://ap.rdcpix.com/x/l-ms.jpg"},
			"photos":[{"href":"https://ap.rdcpix.com/x/a-ms.jpg"},{"href":null}],
			"location":{"address":{"street_number":"2530","street_name":"Al Lipscomb","street_suffix":"Way","unit":"#4","city":"Dallas","state_code":"TX","postal_code":"75215"},
				"neighborhoods":[{"name":"Cedars"},{"name":"South Dallas"}],"county":{"name":"Dallas","fips_code":"48113"}},
			"estimates":{"currentValues":[{"estimate":510000}]},
			"nearbySchools":{"schools":[{"district":{"name":"Dallas ISD"}}]},
			"taxHistory":[{"year":2022,"tax":9000,"assessment":{"total":400000}},{"year":2023,"tax":9500,"assessment":{"total":420000}}],
			"advertisers":[{"type":"seller","name":"Jane","fulfillment_id":"0","office":{"name":"Office A","fulfillment_id":"55"}}]
		}}}`,
	}
	p, done := newTestProvider(t, f)
	defer done()

	fl := filters("2530 Al Lipscomb Way", models.ListingSold)
	fl.ExtraPropertyData = true
	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(props) != 1 {
		t.Fatalf("expected 1 property, got %d", len(props))
	}
	prop := props[0]

	if prop.Status != "SOLD" {
		t.Errorf("unexpected status %q", prop.Status)
	}
	if prop.ListingID == nil || *prop.ListingID != "222" {
		t.Errorf("expected the primary listing id backfilled, got %v", prop.ListingID)
	}
	if prop.DaysOnMarket != nil {
		t.Errorf("sold before listed must have nil days on market, got %d", *prop.DaysOnMarket)
	}
	if *prop.Address.Street != "2530 Al Lipscomb Way" || *prop.Address.Unit != "#4" {
		t.Errorf("unexpected address %+v", prop.Address)
	}
	if *prop.Neighborhoods != "Cedars, South Dallas" {
		t.Errorf("unexpected neighborhoods %q", *prop.Neighborhoods)
	}
	if prop.EstimatedValue == nil || *prop.EstimatedValue != 510000 {
		t.Errorf("unexpected estimate %v", prop.EstimatedValue)
	}
	if prop.Tax == nil || *prop.Tax != 9500 || prop.AssessedValue == nil || *prop.AssessedValue != 420000 {
		t.Errorf("unexpected tax block %v / %v", prop.Tax, prop.AssessedValue)
	}
	if len(prop.NearbySchools) != 1 {
		t.Errorf("unexpected schools %v", prop.NearbySchools)
	}
	if *prop.Description.PrimaryPhoto != "https://ap.rdcpix.com/x/l-mod-w480_h360_x2.webp?w=1080&q=75" {
		t.Errorf("unexpected primary photo %q", *prop.Description.PrimaryPhoto)
	}
	if len(prop.Description.AltPhotos) != 1 {
		t.Errorf("unexpected alt photos %v", prop.Description.AltPhotos)
	}
	if prop.Description.Style == nil || *prop.Description.Style != models.PropertySingleFamily {
		t.Errorf("unexpected style %v", prop.Description.Style)
	}
	if prop.Description.SoldPrice == nil || *prop.Description.SoldPrice != 480000 {
		t.Errorf("unexpected sold price %v", prop.Description.SoldPrice)
	}
	if strings.Contains(*prop.Description.Text, "<") {
		t.Errorf("remarks should be cleaned, got %q", *prop.Description.Text)
	}
	if prop.Advertisers.Agent.UUID != nil || *prop.Advertisers.Office.UUID != "55" {
		t.Errorf("unexpected advertisers %+v", prop.Advertisers)
	}

	for _, doc := range f.documents {
		if strings.Contains(doc, "query GetHome") {
			t.Error("detail lookups must not trigger an enrichment fetch")
		}
	}
}

func TestSearch_EnrichmentAndDegradation(t *testing.T) {
	f := &fakeRealtor{
		autocomplete: `{"autocomplete":[{"area_type":"city","city":"Tempe","state_code":"AZ"}]}`,
		total:        2,
	}
	p, done := newTestProvider(t, f)
	defer done()

	fl := filters("Tempe, AZ", models.ListingForSale)
	fl.ExtraPropertyData = true
	props, err := p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, prop := range props {
		if len(prop.NearbySchools) != 2 {
			t.Errorf("expected deduplicated schools, got %v", prop.NearbySchools)
		}
		if prop.Tax == nil || *prop.Tax != 2300 {
			t.Errorf("expected latest tax 2300, got %v", prop.Tax)
		}
	}

	f.enrichStatus = http.StatusInternalServerError
	props, err = p.Search(context.Background(), fl)
	if err != nil {
		t.Fatalf("enrichment failure must not fail the search: %v", err)
	}
	if len(props) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(props))
	}
	for _, prop := range props {
		if prop.NearbySchools != nil || prop.TaxHistory != nil {
			t.Errorf("expected empty enrichment, got %v / %v", prop.NearbySchools, prop.TaxHistory)
		}
	}
}

func TestGetLatestListingID(t *testing.T) {
	f := &fakeRealtor{}
	p, done := newTestProvider(t, f)
	defer done()

	id, err := p.GetLatestListingID(context.Background(), "9876")
	if err != nil {
		t.Fatalf("GetLatestListingID: %v", err)
	}
	if id == nil || *id != "222" {
		t.Errorf("expected primary listing 222, got %v", id)
	}
}
