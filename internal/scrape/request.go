package scrape

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/pkg/models"
)

const (
	MinLimit     = 1
	MaxLimit     = 10000
	DefaultLimit = MaxLimit
)

// Request is the public scrape call surface. Free-form values are parsed
// and validated by Filters before any provider is contacted.
type Request struct {
	Location string
	// Sites is empty for every known provider
	Sites       []string
	ListingType string

	Radius   *float64
	PastDays *int
	// DateFrom/DateTo are ISO dates (2006-01-02)
	DateFrom string
	DateTo   string

	PropertyTypes     []string
	MLSOnly           bool
	Foreclosure       *bool
	ExtraPropertyData bool
	ExcludePending    bool
	KeepDuplicates    bool

	// Limit of 0 means DefaultLimit
	Limit int
}

var validate = validator.New()

// Filters validates the request and returns the immutable search filters
// and the providers to query.
func (r Request) Filters() (models.SearchFilters, []models.SiteName, error) {
	sites, err := parseSites(r.Sites)
	if err != nil {
		return models.SearchFilters{}, nil, err
	}

	listingType, err := models.ParseListingType(r.ListingType)
	if err != nil {
		return models.SearchFilters{}, nil, engine.NewError(engine.ErrCodeInvalidListingType, err.Error(), nil).
			WithDetail("listing_type", r.ListingType)
	}

	limit := r.Limit
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit < MinLimit || limit > MaxLimit {
		return models.SearchFilters{}, nil, engine.NewError(engine.ErrCodeInvalidLimit,
			fmt.Sprintf("limit %d is outside [%d, %d]", r.Limit, MinLimit, MaxLimit), nil).
			WithDetail("limit", r.Limit)
	}

	from, to, err := parseDateRange(r.DateFrom, r.DateTo, r.PastDays)
	if err != nil {
		return models.SearchFilters{}, nil, err
	}

	types := make([]models.PropertyType, 0, len(r.PropertyTypes))
	for _, raw := range r.PropertyTypes {
		pt, ok := models.ParsePropertyType(raw)
		if !ok {
			return models.SearchFilters{}, nil, engine.NewError(engine.ErrCodeInvalidInput,
				fmt.Sprintf("unknown property type %q", raw), nil).
				WithDetail("property_type", raw)
		}
		types = append(types, pt)
	}

	filters := models.SearchFilters{
		Location:          strings.TrimSpace(r.Location),
		ListingType:       listingType,
		Radius:            r.Radius,
		PropertyTypes:     types,
		DateFrom:          from,
		DateTo:            to,
		PastDays:          r.PastDays,
		MLSOnly:           r.MLSOnly,
		Foreclosure:       r.Foreclosure,
		ExcludePending:    r.ExcludePending,
		ExtraPropertyData: r.ExtraPropertyData,
		Limit:             limit,
	}

	if err := validate.Struct(filters); err != nil {
		return models.SearchFilters{}, nil, validationError(err)
	}
	return filters, sites, nil
}

func parseSites(raw []string) ([]models.SiteName, error) {
	if len(raw) == 0 {
		return models.AllSites(), nil
	}

	seen := make(map[models.SiteName]struct{}, len(raw))
	sites := make([]models.SiteName, 0, len(raw))
	for _, name := range raw {
		site, ok := models.ParseSiteName(name)
		if !ok {
			return nil, engine.NewError(engine.ErrCodeInvalidSite, fmt.Sprintf("unknown site %q", name), nil).
				WithDetail("site", name)
		}
		if _, dup := seen[site]; dup {
			continue
		}
		seen[site] = struct{}{}
		sites = append(sites, site)
	}
	return sites, nil
}

// parseDateRange requires both bounds or neither, and rejects combining a
// range with a relative window.
func parseDateRange(fromRaw, toRaw string, pastDays *int) (*time.Time, *time.Time, error) {
	fromRaw, toRaw = strings.TrimSpace(fromRaw), strings.TrimSpace(toRaw)
	if fromRaw == "" && toRaw == "" {
		return nil, nil, nil
	}
	if fromRaw == "" || toRaw == "" {
		return nil, nil, engine.NewError(engine.ErrCodeInvalidDate, "date_from and date_to must be set together", nil).
			WithDetail("date_from", fromRaw).
			WithDetail("date_to", toRaw)
	}
	if pastDays != nil {
		return nil, nil, engine.NewError(engine.ErrCodeInvalidDate, "a date range and past days are mutually exclusive", nil).
			WithDetail("past_days", *pastDays)
	}

	from, err := time.Parse(time.DateOnly, fromRaw)
	if err != nil {
		return nil, nil, engine.NewError(engine.ErrCodeInvalidDate, fmt.Sprintf("invalid date_from %q", fromRaw), err).
			WithDetail("date_from", fromRaw)
	}
	to, err := time.Parse(time.DateOnly, toRaw)
	if err != nil {
		return nil, nil, engine.NewError(engine.ErrCodeInvalidDate, fmt.Sprintf("invalid date_to %q", toRaw), err).
			WithDetail("date_to", toRaw)
	}
	if from.After(to) {
		return nil, nil, engine.NewError(engine.ErrCodeInvalidDate, fmt.Sprintf("date_from %s is after date_to %s", fromRaw, toRaw), nil)
	}
	return &from, &to, nil
}

func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return engine.NewError(engine.ErrCodeInvalidInput, err.Error(), nil)
	}

	msgs := make([]string, 0, len(verrs))
	e := engine.NewError(engine.ErrCodeInvalidInput, "", nil)
	for _, fe := range verrs {
		msgs = append(msgs, formatFieldError(fe))
		e.WithDetail(strings.ToLower(fe.Field()), fe.Value())
	}
	e.Message = strings.Join(msgs, "; ")
	return e
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "min", "max":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed validation '%s'", fe.Field(), fe.Tag())
}
