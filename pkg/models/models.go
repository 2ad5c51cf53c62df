package models

import (
	"fmt"
	"strings"
)

// SiteName identifies a listing provider
type SiteName string

const (
	SiteRealtor SiteName = "realtor.com"
	SiteRedfin  SiteName = "redfin"
	SiteZillow  SiteName = "zillow"
)

// AllSites lists every known provider in a stable order
func AllSites() []SiteName {
	return []SiteName{SiteRealtor, SiteRedfin, SiteZillow}
}

// ParseSiteName resolves a case-insensitive site name
func ParseSiteName(s string) (SiteName, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "realtor.com", "realtor":
		return SiteRealtor, true
	case "redfin":
		return SiteRedfin, true
	case "zillow":
		return SiteZillow, true
	}
	return "", false
}

// ListingType is the caller-visible listing status being searched for
type ListingType string

const (
	ListingForSale ListingType = "FOR_SALE"
	ListingForRent ListingType = "FOR_RENT"
	ListingSold    ListingType = "SOLD"
	ListingPending ListingType = "PENDING"
)

// ParseListingType accepts "for_sale", "FOR_SALE", "for-sale" and friends
func ParseListingType(s string) (ListingType, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_"))
	switch lt := ListingType(normalized); lt {
	case ListingForSale, ListingForRent, ListingSold, ListingPending:
		return lt, nil
	}
	return "", fmt.Errorf("unknown listing type %q", s)
}

// Lower returns the provider-facing lowercase form (for_sale, sold, ...)
func (l ListingType) Lower() string {
	return strings.ToLower(string(l))
}

// PropertyType is the closed set of canonical property styles
type PropertyType string

const (
	PropertyApartment                PropertyType = "APARTMENT"
	PropertyBuilding                 PropertyType = "BUILDING"
	PropertyCommercial               PropertyType = "COMMERCIAL"
	PropertyGovernment               PropertyType = "GOVERNMENT"
	PropertyIndustrial               PropertyType = "INDUSTRIAL"
	PropertyCondoTownhome            PropertyType = "CONDO_TOWNHOME"
	PropertyCondoTownhomeRowhomeCoop PropertyType = "CONDO_TOWNHOME_ROWHOME_COOP"
	PropertyCondo                    PropertyType = "CONDO"
	PropertyCondop                   PropertyType = "CONDOP"
	PropertyCondos                   PropertyType = "CONDOS"
	PropertyCoop                     PropertyType = "COOP"
	PropertyDuplexTriplex            PropertyType = "DUPLEX_TRIPLEX"
	PropertyFarm                     PropertyType = "FARM"
	PropertyInvestment               PropertyType = "INVESTMENT"
	PropertyLand                     PropertyType = "LAND"
	PropertyMobile                   PropertyType = "MOBILE"
	PropertyMultiFamily              PropertyType = "MULTI_FAMILY"
	PropertyRental                   PropertyType = "RENTAL"
	PropertySingleFamily             PropertyType = "SINGLE_FAMILY"
	PropertyTownhomes                PropertyType = "TOWNHOMES"
	PropertyOther                    PropertyType = "OTHER"
)

var propertyTypes = map[PropertyType]struct{}{
	PropertyApartment: {}, PropertyBuilding: {}, PropertyCommercial: {}, PropertyGovernment: {},
	PropertyIndustrial: {}, PropertyCondoTownhome: {}, PropertyCondoTownhomeRowhomeCoop: {},
	PropertyCondo: {}, PropertyCondop: {}, PropertyCondos: {}, PropertyCoop: {},
	PropertyDuplexTriplex: {}, PropertyFarm: {}, PropertyInvestment: {}, PropertyLand: {},
	PropertyMobile: {}, PropertyMultiFamily: {}, PropertyRental: {}, PropertySingleFamily: {},
	PropertyTownhomes: {}, PropertyOther: {},
}

// ParsePropertyType maps a provider string onto the enumeration.
// The boolean is false when the value is not a member.
func ParsePropertyType(s string) (PropertyType, bool) {
	pt := PropertyType(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := propertyTypes[pt]
	return pt, ok
}

// legacyPropertyCodes maps integer property-type codes used by older
// provider payloads. Anything not listed falls back to OTHER.
var legacyPropertyCodes = map[int]PropertyType{
	1:  PropertySingleFamily,
	2:  PropertyCondo,
	3:  PropertyTownhomes,
	4:  PropertyMultiFamily,
	5:  PropertyLand,
	6:  PropertyOther,
	7:  PropertyMobile,
	8:  PropertyCoop,
	13: PropertySingleFamily,
}

// PropertyTypeFromCode applies the legacy integer code mapping
func PropertyTypeFromCode(code int) PropertyType {
	if pt, ok := legacyPropertyCodes[code]; ok {
		return pt
	}
	return PropertyOther
}
