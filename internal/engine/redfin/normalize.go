package redfin

import (
	"strings"
	"time"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/engine/address"
	"github.com/law-makers/homeharvest/internal/engine/field"
	urlutil "github.com/law-makers/homeharvest/internal/utils/url"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/tidwall/gjson"
)

// value reads GIS fields that come either bare or wrapped as {"value": x}
func value(home gjson.Result, key string) gjson.Result {
	if v := home.Get(key + ".value"); v.Exists() {
		return v
	}
	return home.Get(key)
}

func (p *Provider) absURL(href *string) string {
	if href == nil {
		return ""
	}
	return urlutil.ResolveURL(p.cfg.BaseURL+"/", *href)
}

// mlsFlags reads pending and contingent from the free-text MLS status
func mlsFlags(home gjson.Result) (isPending, isContingent bool) {
	status := strings.ToLower(field.StrOr(value(home, "mlsStatus"), "", ""))
	return strings.Contains(status, "pending"), strings.Contains(status, "contingent")
}

func propertyType(home gjson.Result) *models.PropertyType {
	code := field.Int(home, "propertyType")
	if code == nil {
		pt := models.PropertyOther
		return &pt
	}
	pt := models.PropertyTypeFromCode(*code)
	return &pt
}

// parseHome normalizes one GIS home
func (p *Provider) parseHome(home gjson.Result, filters models.SearchFilters) (models.Property, bool) {
	mlsID := field.Str(value(home, "mlsId"), "")
	isPending, isContingent := mlsFlags(home)

	if engine.DropListing(filters, mlsID != nil, isPending, isContingent) {
		return models.Property{}, false
	}
	if filters.ListingType == models.ListingPending && !isPending && !isContingent {
		return models.Property{}, false
	}

	now := p.opts.Now()
	soldDate := field.Date(home, "soldDate")
	rawStatus := "FOR_SALE"
	if soldDate != nil || filters.ListingType == models.ListingSold {
		rawStatus = "SOLD"
	}

	// GIS results carry days on market rather than a list date
	var listDate *time.Time
	if dom := field.Int(value(home, "dom"), ""); dom != nil && rawStatus != "SOLD" {
		d := now.AddDate(0, 0, -*dom)
		listDate = &d
	}

	street, unit := address.ParseAddressOne(field.StrOr(value(home, "streetLine"), "", ""))
	if unit == nil {
		if u := field.Str(value(home, "unitNumber"), ""); u != nil {
			unit = address.ParseAddressTwo(*u)
		}
	}

	price := field.Int(value(home, "price"), "")
	var soldPrice *int
	if rawStatus == "SOLD" {
		soldPrice = price
	}

	prop := models.Property{
		PropertyURL:  p.absURL(field.Str(home, "url")),
		Site:         models.SiteRedfin,
		PropertyID:   field.Str(home, "propertyId"),
		ListingID:    field.Str(home, "listingId"),
		MLSID:        mlsID,
		Status:       engine.DeriveStatus(isPending, isContingent, rawStatus),
		Address:      newAddress(street, unit, field.Str(home, "city"), field.Str(home, "state"), field.Str(home, "zip")),
		ListPrice:    price,
		ListDate:     listDate,
		LastSoldDate: soldDate,
		PricePerSqft: field.Int(value(home, "pricePerSqFt"), ""),
		HOAFee:       field.Int(value(home, "hoa"), ""),
		DaysOnMarket: engine.DaysOnMarket(rawStatus, listDate, soldDate, now),
		Description: &models.Description{
			Style:     propertyType(home),
			Beds:      field.Int(home, "beds"),
			BathsFull: field.Int(home, "fullBaths"),
			BathsHalf: field.Int(home, "partialBaths"),
			BathsMin:  field.Float(home, "baths"),
			BathsMax:  field.Float(home, "baths"),
			Sqft:      field.Int(value(home, "sqFt"), ""),
			LotSqft:   field.Float(value(home, "lotSize"), ""),
			SoldPrice: soldPrice,
			YearBuilt: field.Int(value(home, "yearBuilt"), ""),
			Stories:   field.Int(home, "stories"),
			Text:      engine.CleanRemarks(field.Str(home, "listingRemarks")),
		},
		Latitude:      field.Float(value(home, "latLong"), "latitude"),
		Longitude:     field.Float(value(home, "latLong"), "longitude"),
		Neighborhoods: field.Str(value(home, "location"), ""),
		Advertisers:   listingAgent(home),
	}
	return prop, true
}

func listingAgent(home gjson.Result) *models.Advertisers {
	name := field.Str(home, "listingAgent.name")
	if name == nil {
		name = field.Str(value(home, "listingAgent"), "")
	}
	if name == nil {
		return nil
	}
	return &models.Advertisers{Agent: &models.Agent{Name: name}}
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

// parseBuilding emits a multi-unit building as a BUILDING row
func (p *Provider) parseBuilding(building gjson.Result, filters models.SearchFilters) (models.Property, bool) {
	if engine.DropListing(filters, false, false, false) {
		return models.Property{}, false
	}
	if filters.ListingType == models.ListingPending {
		return models.Property{}, false
	}

	addr := building.Get("address")
	var parts []string
	for _, key := range []string{"streetNumber", "directionalPrefix", "streetName", "streetType"} {
		if s := field.Str(addr, key); s != nil {
			parts = append(parts, *s)
		}
	}
	street, _ := address.ParseAddressOne(strings.Join(parts, " "))

	var unit *string
	unitLine := strings.TrimSpace(field.StrOr(addr, "unitType", "") + " " + field.StrOr(addr, "unitValue", ""))
	if unitLine != "" {
		unit = address.ParseAddressTwo(unitLine)
	}

	style := models.PropertyBuilding
	return models.Property{
		PropertyURL: p.absURL(field.Str(building, "url")),
		Site:        models.SiteRedfin,
		PropertyID:  field.Str(building, "buildingId"),
		Status:      string(filters.ListingType),
		Address: newAddress(street, unit,
			field.Str(addr, "city"), field.Str(addr, "stateOrProvinceCode"), field.Str(addr, "postalCode")),
		Description: &models.Description{
			Style:     &style,
			UnitCount: field.Int(building, "numUnitsForSale"),
		},
	}, true
}

// parseRental normalizes one entry of the rentals endpoint
func (p *Provider) parseRental(home gjson.Result, filters models.SearchFilters) (models.Property, bool) {
	if engine.DropListing(filters, false, false, false) {
		return models.Property{}, false
	}

	data := home.Get("homeData")
	rental := home.Get("rentalExtension")
	info := data.Get("addressInfo")

	street, unit := address.ParseAddressOne(field.StrOr(info, "formattedStreetLine", ""))
	listDate := field.Date(rental, "lastUpdated")

	return models.Property{
		PropertyURL:  p.absURL(field.Str(data, "url")),
		Site:         models.SiteRedfin,
		PropertyID:   field.Str(data, "propertyId"),
		ListingID:    field.Str(rental, "rentalId"),
		Status:       "FOR_RENT",
		Address:      newAddress(street, unit, field.Str(info, "city"), field.Str(info, "state"), field.Str(info, "zip")),
		ListPrice:    field.Int(rental, "rentPriceRange.min"),
		ListPriceMin: field.Int(rental, "rentPriceRange.min"),
		ListPriceMax: field.Int(rental, "rentPriceRange.max"),
		ListDate:     listDate,
		DaysOnMarket: engine.DaysOnMarket("FOR_RENT", listDate, nil, p.opts.Now()),
		Description: &models.Description{
			PrimaryPhoto: field.Str(data, "staticMapUrl"),
			Name:         field.Str(rental, "propertyName"),
			BedsMin:      field.Int(rental, "bedRange.min"),
			BedsMax:      field.Int(rental, "bedRange.max"),
			BathsMin:     field.Float(rental, "bathRange.min"),
			BathsMax:     field.Float(rental, "bathRange.max"),
			Sqft:         field.Int(rental, "sqftRange.min"),
			Text:         engine.CleanRemarks(field.Str(rental, "description")),
		},
		Latitude:  field.Float(info, "centroid.centroid.latitude"),
		Longitude: field.Float(info, "centroid.centroid.longitude"),
	}, true
}

// parseDetail normalizes the aboveTheFold payload of a single home
func (p *Provider) parseDetail(payload gjson.Result, filters models.SearchFilters) (models.Property, bool) {
	info := payload.Get("addressSectionInfo")
	mlsID := field.Str(payload, "listingInfo.mlsId")
	if mlsID == nil {
		mlsID = field.Str(info, "mlsId")
	}
	isPending, isContingent := mlsFlags(info)
	if engine.DropListing(filters, mlsID != nil, isPending, isContingent) {
		return models.Property{}, false
	}

	soldDate := field.Date(info, "soldDate")
	rawStatus := "FOR_SALE"
	if soldDate != nil {
		rawStatus = "SOLD"
	}

	street, unit := address.ParseAddressOne(field.StrOr(info, "streetAddress.assembledAddress", ""))

	var primary *string
	var alt []string
	for _, photo := range field.Array(payload, "mediaBrowserInfo.photos") {
		href := field.Str(photo, "photoUrls.fullScreenPhotoUrl")
		if href == nil {
			continue
		}
		if primary == nil {
			primary = href
			continue
		}
		alt = append(alt, *href)
	}

	price := field.Int(info, "priceInfo.amount")
	var soldPrice *int
	if rawStatus == "SOLD" {
		soldPrice = price
	}

	return models.Property{
		PropertyURL:  p.absURL(field.Str(info, "url")),
		Site:         models.SiteRedfin,
		PropertyID:   field.Str(info, "propertyId"),
		ListingID:    field.Str(info, "listingId"),
		MLSID:        mlsID,
		Status:       engine.DeriveStatus(isPending, isContingent, rawStatus),
		Address:      newAddress(street, unit, field.Str(info, "city"), field.Str(info, "state"), field.Str(info, "zip")),
		ListPrice:    price,
		LastSoldDate: soldDate,
		PricePerSqft: field.Int(value(info, "pricePerSqFt"), ""),
		Description: &models.Description{
			PrimaryPhoto: primary,
			AltPhotos:    alt,
			Style:        propertyType(info),
			Beds:         field.Int(info, "beds"),
			BathsMin:     field.Float(info, "baths"),
			BathsMax:     field.Float(info, "baths"),
			Sqft:         field.Int(value(info, "sqFt"), ""),
			LotSqft:      field.Float(value(info, "lotSize"), ""),
			SoldPrice:    soldPrice,
			YearBuilt:    field.Int(value(info, "yearBuilt"), ""),
			Stories:      field.Int(info, "stories"),
			Text:         engine.CleanRemarks(field.Str(info, "listingRemarks")),
		},
		Latitude:  field.Float(info, "latLong.latitude"),
		Longitude: field.Float(info, "latLong.longitude"),
	}, true
}
