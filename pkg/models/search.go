package models

import "time"

// ScopeKind is the typed result of resolving a free-text location
type ScopeKind string

const (
	ScopeAddress    ScopeKind = "ADDRESS"
	ScopePostalCode ScopeKind = "POSTAL_CODE"
	ScopeArea       ScopeKind = "AREA"
	ScopeRadius     ScopeKind = "RADIUS"
)

// Coordinate is a WGS84 point
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ScopeSpec is the resolved geographic target of a search. Only the fields
// relevant to Kind are populated; RADIUS always carries Center and Radius.
type ScopeSpec struct {
	Kind ScopeKind

	// AREA / POSTAL_CODE
	City       string
	County     string
	StateCode  string
	PostalCode string

	// Provider-assigned identifier of the resolved location (mpr id, region
	// id, zpid) and the provider's own type label for it.
	LocationID string
	RegionType string

	// RADIUS (and ADDRESS when the provider supplies a centroid)
	Center *Coordinate
	Radius float64
}

// SearchFilters is the immutable input to one search
type SearchFilters struct {
	Location      string         `validate:"required"`
	ListingType   ListingType    `validate:"required,oneof=FOR_SALE FOR_RENT SOLD PENDING"`
	Radius        *float64       `validate:"omitempty,gt=0"`
	PropertyTypes []PropertyType `validate:"dive,required"`

	// DateFrom/DateTo are set together or not at all, and exclude PastDays
	DateFrom *time.Time
	DateTo   *time.Time
	PastDays *int `validate:"omitempty,gt=0"`

	MLSOnly bool
	// Foreclosure: nil means don't care; true/false are explicit predicates
	Foreclosure       *bool
	ExcludePending    bool
	ExtraPropertyData bool
	Limit             int `validate:"min=1,max=10000"`
}

// HasDateRange reports whether an explicit date window is set
func (f SearchFilters) HasDateRange() bool {
	return f.DateFrom != nil && f.DateTo != nil
}

// DateWindow returns the effective [from, to] window relative to now.
// ok is false when no date filter is set.
func (f SearchFilters) DateWindow(now time.Time) (from, to time.Time, ok bool) {
	switch {
	case f.HasDateRange():
		return *f.DateFrom, *f.DateTo, true
	case f.PastDays != nil:
		return now.AddDate(0, 0, -*f.PastDays), now, true
	}
	return time.Time{}, time.Time{}, false
}
