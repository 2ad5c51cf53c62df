package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/tidwall/gjson"
)

func date(s string) *time.Time {
	t, _ := time.Parse(time.DateOnly, s)
	return &t
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		pending, contingent bool
		literal, want       string
	}{
		{true, false, "for_sale", "PENDING"},
		{true, true, "sold", "PENDING"},
		{true, false, "off_market", "PENDING"},
		{false, true, "for_sale", "CONTINGENT"},
		{false, false, "for_rent", "FOR_RENT"},
		{false, false, "sold", "SOLD"},
	}
	for _, tc := range cases {
		if got := DeriveStatus(tc.pending, tc.contingent, tc.literal); got != tc.want {
			t.Errorf("DeriveStatus(%v, %v, %q) = %q, want %q", tc.pending, tc.contingent, tc.literal, got, tc.want)
		}
	}
}

func TestDaysOnMarket(t *testing.T) {
	now := *date("2024-06-15")

	if d := DaysOnMarket("sold", date("2024-01-01"), date("2024-01-31"), now); d == nil || *d != 30 {
		t.Errorf("sold: expected 30, got %v", d)
	}
	if d := DaysOnMarket("for_sale", date("2024-06-01"), nil, now); d == nil || *d != 14 {
		t.Errorf("for_sale: expected 14, got %v", d)
	}
	if d := DaysOnMarket("for_rent", date("2024-06-15"), nil, now); d == nil || *d != 0 {
		t.Errorf("listed today: expected 0, got %v", d)
	}
}

func TestDaysOnMarket_NeverNegative(t *testing.T) {
	now := *date("2024-06-15")

	// sold before it was listed
	for i := 1; i <= 30; i++ {
		list := date("2024-03-01")
		sold := list.AddDate(0, 0, -i)
		if d := DaysOnMarket("sold", list, &sold, now); d != nil {
			t.Fatalf("sold %d days before listing: expected nil, got %d", i, *d)
		}
	}
	// listed in the future
	if d := DaysOnMarket("for_sale", date("2024-07-01"), nil, now); d != nil {
		t.Errorf("future list date: expected nil, got %d", *d)
	}
	// indeterminate
	if d := DaysOnMarket("sold", date("2024-01-01"), nil, now); d != nil {
		t.Errorf("missing sold date: expected nil, got %d", *d)
	}
	if d := DaysOnMarket("off_market", date("2024-01-01"), nil, now); d != nil {
		t.Errorf("other status: expected nil, got %d", *d)
	}
}

func TestRewritePhoto(t *testing.T) {
	in := "https://ap.rdcpix.com/abc/l-m123s.jpg"
	want := "https://ap.rdcpix.com/abc/l-m123od-w480_h360_x2.webp?w=1080&q=75"
	if got := RewritePhoto(in); got != want {
		t.Errorf("RewritePhoto = %q, want %q", got, want)
	}
	plain := "https://ssl.cdn-redfin.com/photo/1/bigphoto/1.jpg"
	if got := RewritePhoto(plain); got != plain {
		t.Errorf("URL without thumbnail suffix must be unchanged, got %q", got)
	}
}

func TestSummarizeTaxHistory(t *testing.T) {
	raw := gjson.Parse(`[
		{"year": 2021, "tax": 3000, "assessment": {"building": 100, "land": 50, "total": 150}},
		{"assessment": {"total": 999}},
		{"year": 2023, "tax": 3400, "assessment": {"building": 120, "land": 60, "total": 180}},
		{"year": 2022}
	]`).Array()

	s := SummarizeTaxHistory(raw)
	if len(s.History) != 3 {
		t.Fatalf("expected 3 kept entries, got %d", len(s.History))
	}
	years := []int{2023, 2022, 2021}
	for i, y := range years {
		if s.History[i].Year == nil || *s.History[i].Year != y {
			t.Errorf("entry %d: expected year %d", i, y)
		}
	}
	if s.LatestTax == nil || *s.LatestTax != 3400 {
		t.Errorf("expected latest tax 3400, got %v", s.LatestTax)
	}
	if s.AssessedValue == nil || *s.AssessedValue != 180 {
		t.Errorf("expected assessed value 180, got %v", s.AssessedValue)
	}

	if empty := SummarizeTaxHistory(nil); empty.History != nil || empty.LatestTax != nil {
		t.Error("empty history should produce an empty summary")
	}
}

func TestParseAdvertisers(t *testing.T) {
	raw := gjson.Parse(`[
		{"type": "seller", "fulfillment_id": "0", "name": "Jane Agent", "email": "jane@example.com",
		 "phones": [{"number": "555-0100", "type": "Mobile", "primary": true}, {"type": "Office"}],
		 "broker": {"fulfillment_id": "77", "name": "Big Brokerage"},
		 "office": {"fulfillment_id": "0", "name": "Downtown Office", "mls_set": "A-1"}},
		{"type": "community", "builder": {"fulfillment_id": "42", "name": "Homes Inc"}}
	]`).Array()

	adv := ParseAdvertisers(raw)
	if adv == nil || adv.Agent == nil {
		t.Fatal("expected an agent")
	}
	if adv.Agent.UUID != nil {
		t.Errorf("fulfillment id \"0\" must be absent, got %q", *adv.Agent.UUID)
	}
	if len(adv.Agent.Phones) != 1 || adv.Agent.Phones[0].Number != "555-0100" {
		t.Errorf("unexpected phones %+v", adv.Agent.Phones)
	}
	if adv.Broker == nil || *adv.Broker.UUID != "77" {
		t.Errorf("unexpected broker %+v", adv.Broker)
	}
	if adv.Office == nil || adv.Office.UUID != nil || *adv.Office.Name != "Downtown Office" {
		t.Errorf("unexpected office %+v", adv.Office)
	}
	if adv.Builder == nil || *adv.Builder.Name != "Homes Inc" {
		t.Errorf("unexpected builder %+v", adv.Builder)
	}

	if ParseAdvertisers(nil) != nil {
		t.Error("no advertisers should yield nil")
	}
}

func TestParseAdvertisers_BrokerWithoutName(t *testing.T) {
	raw := gjson.Parse(`[{"type": "seller", "name": "A", "broker": {"fulfillment_id": "1"}}]`).Array()
	if adv := ParseAdvertisers(raw); adv.Broker != nil {
		t.Error("broker without a name must be omitted")
	}
}

func TestDropListing(t *testing.T) {
	base := models.SearchFilters{ListingType: models.ListingForSale}

	mlsOnly := base
	mlsOnly.MLSOnly = true
	if !DropListing(mlsOnly, false, false, false) {
		t.Error("mls-only must drop records without MLS id")
	}
	if DropListing(mlsOnly, true, false, false) {
		t.Error("mls-only must keep records with MLS id")
	}

	exclude := base
	exclude.ExcludePending = true
	if !DropListing(exclude, true, true, false) || !DropListing(exclude, true, false, true) {
		t.Error("pending and contingent must be dropped when excluded")
	}

	pending := exclude
	pending.ListingType = models.ListingPending
	if DropListing(pending, true, true, false) {
		t.Error("PENDING searches keep pending records")
	}
}

func TestFilterDateWindow(t *testing.T) {
	now := *date("2024-06-15")
	days := 10
	filters := models.SearchFilters{ListingType: models.ListingForSale, PastDays: &days}

	props := []models.Property{
		{PropertyURL: "recent", ListDate: date("2024-06-10")},
		{PropertyURL: "old", ListDate: date("2024-05-01")},
		{PropertyURL: "unknown"},
	}
	out := FilterDateWindow(props, filters, now)
	if len(out) != 2 || out[0].PropertyURL != "recent" || out[1].PropertyURL != "unknown" {
		t.Errorf("unexpected filter result %+v", out)
	}

	sold := models.SearchFilters{ListingType: models.ListingSold, DateFrom: date("2024-01-01"), DateTo: date("2024-01-31")}
	soldProps := []models.Property{
		{PropertyURL: "in", ListDate: date("2023-06-01"), LastSoldDate: date("2024-01-15")},
		{PropertyURL: "out", ListDate: date("2024-01-10"), LastSoldDate: date("2024-03-01")},
	}
	out = FilterDateWindow(soldProps, sold, now)
	if len(out) != 1 || out[0].PropertyURL != "in" {
		t.Errorf("SOLD window must use sold date, got %+v", out)
	}
}

func TestCleanRemarks(t *testing.T) {
	plain := "Charming bungalow"
	if got := CleanRemarks(&plain); got != &plain {
		t.Error("plain text must pass through")
	}
	html := "<p>Charming <b>bungalow</b></p>"
	got := CleanRemarks(&html)
	if got == nil || strings.Contains(*got, "<") || !strings.Contains(*got, "bungalow") {
		t.Errorf("unexpected cleaned remarks %v", got)
	}
}
