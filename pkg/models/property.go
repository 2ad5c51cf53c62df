package models

import "time"

// Address is the postal address of a listing
type Address struct {
	FullLine *string `json:"full_line,omitempty" yaml:"full_line,omitempty"`
	Street   *string `json:"street,omitempty" yaml:"street,omitempty"`
	Unit     *string `json:"unit,omitempty" yaml:"unit,omitempty"`
	City     *string `json:"city,omitempty" yaml:"city,omitempty"`
	State    *string `json:"state,omitempty" yaml:"state,omitempty"`
	Zip      *string `json:"zip_code,omitempty" yaml:"zip_code,omitempty"`
	Country  *string `json:"country,omitempty" yaml:"country,omitempty"`
}

// Description holds the physical facts and media of a listing
type Description struct {
	PrimaryPhoto *string       `json:"primary_photo,omitempty" yaml:"primary_photo,omitempty"`
	AltPhotos    []string      `json:"alt_photos,omitempty" yaml:"alt_photos,omitempty"`
	Style        *PropertyType `json:"style,omitempty" yaml:"style,omitempty"`
	Name         *string       `json:"name,omitempty" yaml:"name,omitempty"`

	Beds      *int     `json:"beds,omitempty" yaml:"beds,omitempty"`
	BedsMin   *int     `json:"beds_min,omitempty" yaml:"beds_min,omitempty"`
	BedsMax   *int     `json:"beds_max,omitempty" yaml:"beds_max,omitempty"`
	BathsFull *int     `json:"baths_full,omitempty" yaml:"baths_full,omitempty"`
	BathsHalf *int     `json:"baths_half,omitempty" yaml:"baths_half,omitempty"`
	BathsMin  *float64 `json:"baths_min,omitempty" yaml:"baths_min,omitempty"`
	BathsMax  *float64 `json:"baths_max,omitempty" yaml:"baths_max,omitempty"`

	Sqft      *int     `json:"sqft,omitempty" yaml:"sqft,omitempty"`
	LotSqft   *float64 `json:"lot_sqft,omitempty" yaml:"lot_sqft,omitempty"`
	LotUnit   *string  `json:"lot_unit,omitempty" yaml:"lot_unit,omitempty"`
	SoldPrice *int     `json:"sold_price,omitempty" yaml:"sold_price,omitempty"`
	YearBuilt *int     `json:"year_built,omitempty" yaml:"year_built,omitempty"`
	Garage    *float64 `json:"garage,omitempty" yaml:"garage,omitempty"`
	Stories   *int     `json:"stories,omitempty" yaml:"stories,omitempty"`
	UnitCount *int     `json:"unit_count,omitempty" yaml:"unit_count,omitempty"`
	Text      *string  `json:"text,omitempty" yaml:"text,omitempty"`
}

// Phone is an advertiser contact number
type Phone struct {
	Number  string `json:"number" yaml:"number"`
	Type    string `json:"type,omitempty" yaml:"type,omitempty"`
	Primary bool   `json:"primary,omitempty" yaml:"primary,omitempty"`
	Ext     string `json:"ext,omitempty" yaml:"ext,omitempty"`
}

// Agent is the listing agent
type Agent struct {
	UUID   *string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	NRDSID *string `json:"nrds_id,omitempty" yaml:"nrds_id,omitempty"`
	MLSSet *string `json:"mls_set,omitempty" yaml:"mls_set,omitempty"`
	Name   *string `json:"name,omitempty" yaml:"name,omitempty"`
	Email  *string `json:"email,omitempty" yaml:"email,omitempty"`
	Phones []Phone `json:"phones,omitempty" yaml:"phones,omitempty"`
}

// Broker is the brokerage the agent belongs to
type Broker struct {
	UUID *string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name *string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Builder is the builder behind a new-construction community
type Builder struct {
	UUID *string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name *string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Office is the agent's office
type Office struct {
	UUID   *string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	MLSSet *string `json:"mls_set,omitempty" yaml:"mls_set,omitempty"`
	Name   *string `json:"name,omitempty" yaml:"name,omitempty"`
	Email  *string `json:"email,omitempty" yaml:"email,omitempty"`
	Phones []Phone `json:"phones,omitempty" yaml:"phones,omitempty"`
}

// Advertisers groups who is marketing a listing. Broker and Office are
// only ever populated alongside an Agent.
type Advertisers struct {
	Agent   *Agent   `json:"agent,omitempty" yaml:"agent,omitempty"`
	Broker  *Broker  `json:"broker,omitempty" yaml:"broker,omitempty"`
	Builder *Builder `json:"builder,omitempty" yaml:"builder,omitempty"`
	Office  *Office  `json:"office,omitempty" yaml:"office,omitempty"`
}

// Assessment is the assessed value split of one tax year
type Assessment struct {
	Building *int `json:"building,omitempty" yaml:"building,omitempty"`
	Land     *int `json:"land,omitempty" yaml:"land,omitempty"`
	Total    *int `json:"total,omitempty" yaml:"total,omitempty"`
}

// TaxRecord is one entry of a property's tax history
type TaxRecord struct {
	Year       *int        `json:"year,omitempty" yaml:"year,omitempty"`
	Tax        *int        `json:"tax,omitempty" yaml:"tax,omitempty"`
	Assessment *Assessment `json:"assessment,omitempty" yaml:"assessment,omitempty"`
}

// Property is the canonical listing record every provider normalizes into.
// It is built once per raw record and not mutated afterwards.
type Property struct {
	PropertyURL string   `json:"property_url" yaml:"property_url"`
	Site        SiteName `json:"site_name" yaml:"site_name"`
	PropertyID  *string  `json:"property_id,omitempty" yaml:"property_id,omitempty"`
	ListingID   *string  `json:"listing_id,omitempty" yaml:"listing_id,omitempty"`

	// MLS is nil for non-MLS and FSBO listings
	MLS   *string `json:"mls,omitempty" yaml:"mls,omitempty"`
	MLSID *string `json:"mls_id,omitempty" yaml:"mls_id,omitempty"`

	Status  string   `json:"status,omitempty" yaml:"status,omitempty"`
	Address *Address `json:"address,omitempty" yaml:"address,omitempty"`

	ListPrice       *int       `json:"list_price,omitempty" yaml:"list_price,omitempty"`
	ListPriceMin    *int       `json:"list_price_min,omitempty" yaml:"list_price_min,omitempty"`
	ListPriceMax    *int       `json:"list_price_max,omitempty" yaml:"list_price_max,omitempty"`
	ListDate        *time.Time `json:"list_date,omitempty" yaml:"list_date,omitempty"`
	PendingDate     *time.Time `json:"pending_date,omitempty" yaml:"pending_date,omitempty"`
	LastSoldDate    *time.Time `json:"last_sold_date,omitempty" yaml:"last_sold_date,omitempty"`
	PricePerSqft    *int       `json:"price_per_sqft,omitempty" yaml:"price_per_sqft,omitempty"`
	NewConstruction bool       `json:"new_construction" yaml:"new_construction"`
	HOAFee          *int       `json:"hoa_fee,omitempty" yaml:"hoa_fee,omitempty"`
	DaysOnMarket    *int       `json:"days_on_mls,omitempty" yaml:"days_on_mls,omitempty"`

	Description *Description `json:"description,omitempty" yaml:"description,omitempty"`

	Latitude      *float64 `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty" yaml:"longitude,omitempty"`
	Neighborhoods *string  `json:"neighborhoods,omitempty" yaml:"neighborhoods,omitempty"`
	County        *string  `json:"county,omitempty" yaml:"county,omitempty"`
	FIPSCode      *string  `json:"fips_code,omitempty" yaml:"fips_code,omitempty"`

	Advertisers *Advertisers `json:"advertisers,omitempty" yaml:"advertisers,omitempty"`

	NearbySchools  []string    `json:"nearby_schools,omitempty" yaml:"nearby_schools,omitempty"`
	AssessedValue  *int        `json:"assessed_value,omitempty" yaml:"assessed_value,omitempty"`
	EstimatedValue *int        `json:"estimated_value,omitempty" yaml:"estimated_value,omitempty"`
	Tax            *int        `json:"tax,omitempty" yaml:"tax,omitempty"`
	TaxHistory     []TaxRecord `json:"tax_history,omitempty" yaml:"tax_history,omitempty"`
}

// IsEmpty reports whether the record carries no usable data at all
func (p *Property) IsEmpty() bool {
	return p == nil || (p.PropertyURL == "" && p.Address == nil && p.PropertyID == nil && p.ListPrice == nil)
}
