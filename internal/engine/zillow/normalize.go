package zillow

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/engine/address"
	"github.com/law-makers/homeharvest/internal/engine/field"
	urlutil "github.com/law-makers/homeharvest/internal/utils/url"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/tidwall/gjson"
)

// homeTypes maps zillow home types that differ from the canonical names
var homeTypes = map[string]models.PropertyType{
	"TOWNHOUSE":    models.PropertyTownhomes,
	"LOT":          models.PropertyLand,
	"MANUFACTURED": models.PropertyMobile,
}

func homeType(raw *string) *models.PropertyType {
	if raw == nil {
		return nil
	}
	key := strings.ToUpper(*raw)
	if pt, ok := homeTypes[key]; ok {
		return &pt
	}
	if pt, ok := models.ParsePropertyType(key); ok {
		return &pt
	}
	pt := models.PropertyOther
	return &pt
}

func (p *Provider) absURL(href *string) string {
	if href == nil {
		return ""
	}
	return urlutil.ResolveURL(p.cfg.BaseURL+"/", *href)
}

// statusFlags reads the pending and contingent markers of a home
func statusFlags(home gjson.Result) (isPending, isContingent bool) {
	status := strings.ToUpper(field.StrOr(home, "homeStatus", ""))
	isPending = status == "PENDING" || field.Bool(home, "listing_sub_type.is_pending")
	isContingent = strings.Contains(status, "CONTINGENT") || field.Bool(home, "listing_sub_type.is_contingent")
	return isPending, isContingent
}

// rawStatus is the literal status of a home, defaulting to the searched type
func rawStatus(home gjson.Result, filters models.SearchFilters, key string) string {
	switch s := strings.ToUpper(field.StrOr(home, key, "")); s {
	case "FOR_SALE", "FOR_RENT", "SOLD":
		return s
	case "RECENTLY_SOLD":
		return "SOLD"
	}
	if filters.ListingType == models.ListingPending {
		return string(models.ListingForSale)
	}
	return string(filters.ListingType)
}

// listDateFromDays backs a list date out of a days-on-site counter
func listDateFromDays(days *int, now time.Time) *time.Time {
	if days == nil {
		return nil
	}
	d := now.AddDate(0, 0, -*days)
	return &d
}

func pricePerSqft(price, area *int) *int {
	if price == nil || area == nil || *area == 0 {
		return nil
	}
	v := *price / *area
	return &v
}

func keepForPending(filters models.SearchFilters, isPending, isContingent bool) bool {
	return filters.ListingType != models.ListingPending || isPending || isContingent
}

// parseResult normalizes one map result carrying home info
func (p *Provider) parseResult(result gjson.Result, filters models.SearchFilters) (models.Property, bool) {
	home := result.Get("hdpData.homeInfo")
	isPending, isContingent := statusFlags(home)

	// map results carry no MLS attribution
	if engine.DropListing(filters, false, isPending, isContingent) || !keepForPending(filters, isPending, isContingent) {
		return models.Property{}, false
	}

	now := p.opts.Now()
	status := rawStatus(home, filters, "homeStatus")
	soldDate := field.Date(home, "dateSold")

	var listDate *time.Time
	if status != "SOLD" {
		listDate = listDateFromDays(field.Int(home, "daysOnZillow"), now)
	}

	price := field.Int(home, "price")
	area := field.Int(home, "livingArea")
	var soldPrice *int
	if status == "SOLD" {
		soldPrice = price
	}

	street, unit := address.ParseAddressOne(field.StrOr(home, "streetAddress", ""))
	if u := field.Str(home, "unit"); unit == nil && u != nil {
		unit = address.ParseAddressTwo(*u)
	}

	var lotUnit *string
	if field.Present(home, "lotAreaValue") {
		lotUnit = field.Str(home, "lotAreaUnit")
	}

	prop := models.Property{
		PropertyURL:    p.absURL(field.Str(result, "detailUrl")),
		Site:           models.SiteZillow,
		PropertyID:     field.Str(home, "zpid"),
		Status:         engine.DeriveStatus(isPending, isContingent, status),
		Address:        newAddress(street, unit, field.Str(home, "city"), field.Str(home, "state"), field.Str(home, "zipcode")),
		ListPrice:      price,
		ListDate:       listDate,
		LastSoldDate:   soldDate,
		PricePerSqft:   pricePerSqft(price, area),
		DaysOnMarket:   engine.DaysOnMarket(status, listDate, soldDate, now),
		EstimatedValue: field.Int(home, "zestimate"),
		AssessedValue:  field.Int(home, "taxAssessedValue"),
		Description: &models.Description{
			PrimaryPhoto: field.Str(result, "imgSrc"),
			Style:        homeType(field.Str(home, "homeType")),
			Beds:         field.Int(home, "bedrooms"),
			BathsFull:    field.Int(home, "bathrooms"),
			Sqft:         area,
			LotSqft:      field.Float(home, "lotAreaValue"),
			LotUnit:      lotUnit,
			SoldPrice:    soldPrice,
		},
		Latitude:  coordinate(result, home, "latitude"),
		Longitude: coordinate(result, home, "longitude"),
	}
	return prop, true
}

func coordinate(result, home gjson.Result, key string) *float64 {
	if v := field.Float(result, "latLong."+key); v != nil {
		return v
	}
	return field.Float(home, key)
}

// parseBuilding emits an apartment building result as a BUILDING row
func (p *Provider) parseBuilding(result gjson.Result, filters models.SearchFilters) (models.Property, bool) {
	if engine.DropListing(filters, false, false, false) || filters.ListingType == models.ListingPending {
		return models.Property{}, false
	}

	// only rental display prices ("$1,950+/mo") are meaningful
	var price *int
	if display := field.StrOr(result, "price", ""); strings.Contains(display, "+/mo") {
		if v := field.ParseNumber(display); v != nil {
			n := int(*v)
			price = &n
		}
	}

	name := field.Str(result, "buildingName")
	if name == nil {
		name = field.Str(result, "communityName")
	}

	style := models.PropertyBuilding
	return models.Property{
		PropertyURL: p.absURL(field.Str(result, "detailUrl")),
		Site:        models.SiteZillow,
		PropertyID:  field.Str(result, "lotId"),
		Status:      string(filters.ListingType),
		Address:     splitAddress(field.StrOr(result, "address", "")),
		ListPrice:   price,
		Description: &models.Description{
			Style:     &style,
			Name:      name,
			BathsMin:  field.Float(result, "minBaths"),
			BedsMin:   field.Int(result, "minBeds"),
			UnitCount: field.Int(result, "unitCount"),
		},
		Neighborhoods: field.Str(result, "communityName"),
		Latitude:      field.Float(result, "latLong.latitude"),
		Longitude:     field.Float(result, "latLong.longitude"),
	}, true
}

// splitAddress parses "555 Wedglea Dr, Dallas, TX 75211". Lines in any
// other shape are kept whole as the full line.
func splitAddress(line string) *models.Address {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	parts := strings.Split(line, ", ")
	if len(parts) != 3 {
		return &models.Address{FullLine: &line}
	}

	street, unit := address.ParseAddressOne(parts[0])
	city := strings.TrimSpace(parts[1])

	stateZip := strings.Fields(parts[2])
	var state, zip *string
	switch len(stateZip) {
	case 1:
		state = &stateZip[0]
	case 2:
		state, zip = &stateZip[0], &stateZip[1]
	default:
		return &models.Address{FullLine: &line}
	}
	return newAddress(street, unit, &city, state, zip)
}

func newAddress(street string, unit, city, state, zip *string) *models.Address {
	a := &models.Address{Unit: unit, City: city, State: state, Zip: zip}
	if street != "" {
		a.Street = &street
		full := street
		if unit != nil {
			full += " " + *unit
		}
		a.FullLine = &full
	}
	return a
}

// parseDetail normalizes the single home embedded in a property page
func (p *Provider) parseDetail(home gjson.Result, filters models.SearchFilters) (models.Property, bool) {
	attribution := home.Get("attributionInfo")
	mlsID := field.Str(attribution, "mlsId")
	isPending, isContingent := statusFlags(home)
	if engine.DropListing(filters, mlsID != nil, isPending, isContingent) {
		return models.Property{}, false
	}

	now := p.opts.Now()
	status := rawStatus(home, filters, "homeStatus")
	soldDate := field.Date(home, "dateSold")
	var listDate *time.Time
	if status != "SOLD" {
		listDate = listDateFromDays(field.Int(home, "daysOnZillow"), now)
	}

	price := field.Int(home, "price")
	var soldPrice *int
	if status == "SOLD" {
		soldPrice = price
	}

	addr := home.Get("address")
	street, unit := address.ParseAddressOne(field.StrOr(addr, "streetAddress", ""))

	var photos []string
	for _, photo := range field.Array(home, "responsivePhotos") {
		if href := field.Str(photo, "url"); href != nil {
			photos = append(photos, *href)
		}
	}
	var primary *string
	if len(photos) > 0 {
		primary = &photos[0]
		photos = photos[1:]
	}

	tax := engine.SummarizeTaxHistory(taxRecords(field.Array(home, "taxHistory")))

	return models.Property{
		PropertyURL:    p.absURL(field.Str(home, "hdpUrl")),
		Site:           models.SiteZillow,
		PropertyID:     field.Str(home, "zpid"),
		MLS:            field.Str(attribution, "mlsName"),
		MLSID:          mlsID,
		Status:         engine.DeriveStatus(isPending, isContingent, status),
		Address:        newAddress(street, unit, field.Str(addr, "city"), field.Str(addr, "state"), field.Str(addr, "zipcode")),
		ListPrice:      price,
		ListDate:       listDate,
		LastSoldDate:   soldDate,
		PricePerSqft:   field.Int(home, "resoFacts.pricePerSquareFoot"),
		HOAFee:         field.Int(home, "monthlyHoaFee"),
		DaysOnMarket:   engine.DaysOnMarket(status, listDate, soldDate, now),
		EstimatedValue: field.Int(home, "zestimate"),
		AssessedValue:  tax.AssessedValue,
		Tax:            tax.LatestTax,
		TaxHistory:     tax.History,
		Description: &models.Description{
			PrimaryPhoto: primary,
			AltPhotos:    photos,
			Style:        homeType(field.Str(home, "homeType")),
			Beds:         field.Int(home, "bedrooms"),
			BathsFull:    field.Int(home, "bathrooms"),
			Sqft:         field.Int(home, "livingArea"),
			LotSqft:      field.Float(home, "lotAreaValue"),
			LotUnit:      field.Str(home, "lotAreaUnits"),
			SoldPrice:    soldPrice,
			YearBuilt:    field.Int(home, "yearBuilt"),
			Stories:      field.Int(home, "resoFacts.stories"),
			Text:         engine.CleanRemarks(field.Str(home, "description")),
		},
		Latitude:    field.Float(home, "latitude"),
		Longitude:   field.Float(home, "longitude"),
		County:      field.Str(home, "county"),
		Advertisers: advertisers(attribution),
	}, true
}

// taxRecords reshapes {time, taxPaid, value} entries into the common
// {year, tax, assessment.total} form.
func taxRecords(raw []gjson.Result) []gjson.Result {
	out := make([]gjson.Result, 0, len(raw))
	for _, entry := range raw {
		rec := make(map[string]any, 3)
		if t := field.Date(entry, "time"); t != nil {
			rec["year"] = t.Year()
		}
		if tax := field.Int(entry, "taxPaid"); tax != nil {
			rec["tax"] = *tax
		}
		if v := field.Int(entry, "value"); v != nil {
			rec["assessment"] = map[string]int{"total": *v}
		}
		b, err := json.Marshal(rec)
		if err != nil {
			continue
		}
		out = append(out, gjson.ParseBytes(b))
	}
	return out
}

func advertisers(attribution gjson.Result) *models.Advertisers {
	agentName := field.Str(attribution, "agentName")
	if agentName == nil {
		return nil
	}
	adv := &models.Advertisers{
		Agent: &models.Agent{
			Name:  agentName,
			Email: field.Str(attribution, "agentEmail"),
		},
	}
	if phone := field.Str(attribution, "agentPhoneNumber"); phone != nil {
		adv.Agent.Phones = []models.Phone{{Number: *phone}}
	}
	if broker := field.Str(attribution, "brokerName"); broker != nil {
		adv.Broker = &models.Broker{Name: broker}
	}
	return adv
}
