package realtor

import (
	"context"
	"strings"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/engine/field"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/tidwall/gjson"
)

// normalize maps one raw listing (or a home detail payload when detail is
// set) onto a Property. The boolean is false when the listing is filtered.
func (p *Provider) normalize(ctx context.Context, raw gjson.Result, filters models.SearchFilters, detail bool) (models.Property, bool) {
	mls := field.Str(raw, "source.id")
	isPending := field.Bool(raw, "flags.is_pending")
	isContingent := field.Bool(raw, "flags.is_contingent")

	if engine.DropListing(filters, mls != nil, isPending, isContingent) {
		return models.Property{}, false
	}

	propertyID := field.Str(raw, "property_id")

	var extra enrichment
	if filters.ExtraPropertyData && !detail && propertyID != nil {
		extra = p.enrich(ctx, *propertyID)
	}
	if extra.empty() {
		extra = extractEnrichment(raw)
	}

	listDate := field.Date(raw, "list_date")
	lastSoldDate := field.Date(raw, "last_sold_date")
	rawStatus := field.StrOr(raw, "status", "")

	prop := models.Property{
		PropertyURL:     p.propertyURL(raw, propertyID),
		Site:            models.SiteRealtor,
		PropertyID:      propertyID,
		ListingID:       field.Str(raw, "listing_id"),
		MLS:             mls,
		MLSID:           field.Str(raw, "source.listing_id"),
		Status:          engine.DeriveStatus(isPending, isContingent, rawStatus),
		Address:         parseAddress(raw.Get("location.address")),
		ListPrice:       field.Int(raw, "list_price"),
		ListPriceMin:    field.Int(raw, "list_price_min"),
		ListPriceMax:    field.Int(raw, "list_price_max"),
		ListDate:        listDate,
		PendingDate:     field.Date(raw, "pending_date"),
		LastSoldDate:    lastSoldDate,
		PricePerSqft:    field.Int(raw, "price_per_sqft"),
		NewConstruction: field.Bool(raw, "flags.is_new_construction"),
		HOAFee:          field.Int(raw, "hoa.fee"),
		DaysOnMarket:    engine.DaysOnMarket(rawStatus, listDate, lastSoldDate, p.opts.Now()),
		Description:     parseDescription(raw),
		Latitude:        field.Float(raw, "location.address.coordinate.lat"),
		Longitude:       field.Float(raw, "location.address.coordinate.lon"),
		Neighborhoods:   parseNeighborhoods(field.Array(raw, "location.neighborhoods")),
		County:          field.Str(raw, "location.county.name"),
		FIPSCode:        field.Str(raw, "location.county.fips_code"),
		Advertisers:     engine.ParseAdvertisers(field.Array(raw, "advertisers")),
		NearbySchools:   extra.schools,
		AssessedValue:   extra.tax.AssessedValue,
		EstimatedValue:  estimatedValue(raw),
		Tax:             extra.tax.LatestTax,
		TaxHistory:      extra.tax.History,
	}
	return prop, true
}

func (p *Provider) propertyURL(raw gjson.Result, propertyID *string) string {
	if href := field.Str(raw, "href"); href != nil {
		return *href
	}
	if propertyID != nil {
		return p.cfg.PropertyURL + *propertyID
	}
	return ""
}

func parseAddress(addr gjson.Result) *models.Address {
	if !addr.IsObject() {
		return nil
	}

	var parts []string
	for _, key := range []string{"street_number", "street_direction", "street_name", "street_suffix"} {
		if s := field.Str(addr, key); s != nil {
			parts = append(parts, *s)
		}
	}
	var street *string
	if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
		street = &joined
	}

	return &models.Address{
		FullLine: field.Str(addr, "line"),
		Street:   street,
		Unit:     field.Str(addr, "unit"),
		City:     field.Str(addr, "city"),
		State:    field.Str(addr, "state_code"),
		Zip:      field.Str(addr, "postal_code"),
	}
}

func parseDescription(raw gjson.Result) *models.Description {
	desc := raw.Get("description")

	var style *models.PropertyType
	if t := field.Str(desc, "type"); t != nil {
		if pt, ok := models.ParsePropertyType(*t); ok {
			style = &pt
		}
	}

	var primary *string
	if href := field.Str(raw, "primary_photo.href"); href != nil {
		rewritten := engine.RewritePhoto(*href)
		primary = &rewritten
	}

	return &models.Description{
		PrimaryPhoto: primary,
		AltPhotos:    engine.RewritePhotos(field.Array(raw, "photos"), "href"),
		Style:        style,
		Name:         field.Str(desc, "name"),
		Beds:         field.Int(desc, "beds"),
		BathsFull:    field.Int(desc, "baths_full"),
		BathsHalf:    field.Int(desc, "baths_half"),
		Sqft:         field.Int(desc, "sqft"),
		LotSqft:      field.Float(desc, "lot_sqft"),
		SoldPrice:    soldPrice(raw),
		YearBuilt:    field.Int(desc, "year_built"),
		Garage:       field.Float(desc, "garage"),
		Stories:      field.Int(desc, "stories"),
		Text:         engine.CleanRemarks(field.Str(desc, "text")),
	}
}

// soldPrice is reported when the listing has a sold date, or when the list
// price differs from the description's sold price.
func soldPrice(raw gjson.Result) *int {
	listPrice := field.Int(raw, "list_price")
	descSold := field.Int(raw, "description.sold_price")

	differs := (listPrice == nil) != (descSold == nil) ||
		(listPrice != nil && descSold != nil && *listPrice != *descSold)

	if !field.Present(raw, "last_sold_date") && !differs {
		return nil
	}
	if v := field.Int(raw, "last_sold_price"); v != nil && *v != 0 {
		return v
	}
	return descSold
}

func parseNeighborhoods(raw []gjson.Result) *string {
	var names []string
	for _, n := range raw {
		if name := field.Str(n, "name"); name != nil {
			names = append(names, *name)
		}
	}
	if len(names) == 0 {
		return nil
	}
	joined := strings.Join(names, ", ")
	return &joined
}

func estimatedValue(raw gjson.Result) *int {
	for _, path := range []string{"current_estimates.0.estimate", "estimates.currentValues.0.estimate"} {
		if v := field.Int(raw, path); v != nil && *v != 0 {
			return v
		}
	}
	return nil
}
