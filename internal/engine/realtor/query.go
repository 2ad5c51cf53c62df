package realtor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/pkg/models"
)

// Strategy is one of the structurally different search shapes
type Strategy string

const (
	StrategyAddress    Strategy = "address"
	StrategyComps      Strategy = "comps"
	StrategyPostalCode Strategy = "postal_code"
	StrategyArea       Strategy = "area"
)

// StrategyFor picks the search shape for a resolved scope
func StrategyFor(kind models.ScopeKind) Strategy {
	switch kind {
	case models.ScopeAddress:
		return StrategyAddress
	case models.ScopeRadius:
		return StrategyComps
	case models.ScopePostalCode:
		return StrategyPostalCode
	}
	return StrategyArea
}

// Predicate is one "name: value" entry of the home_search query block.
// Value is already a GraphQL literal or variable reference.
type Predicate struct {
	Name  string
	Value string
}

// SearchQuery is the typed form of a home_search request. It is built
// once per search and serialized for every page offset.
type SearchQuery struct {
	Strategy   Strategy
	Predicates []Predicate
	Sort       string
	PageSize   int

	scope models.ScopeSpec
}

// NewSearchQuery composes the predicate list for a scope and filters
func NewSearchQuery(scope models.ScopeSpec, filters models.SearchFilters, pageSize int) (*SearchQuery, error) {
	q := &SearchQuery{
		Strategy: StrategyFor(scope.Kind),
		PageSize: pageSize,
		scope:    scope,
	}
	if q.Strategy == StrategyAddress {
		q.PageSize = 1
		q.Predicates = []Predicate{{Name: "property_id", Value: "$property_id"}}
		return q, nil
	}

	if filters.Foreclosure != nil {
		q.add("foreclosure", fmt.Sprintf("%t", *filters.Foreclosure))
	}

	switch q.Strategy {
	case StrategyComps:
		if scope.Center == nil {
			return nil, engine.GeoCoordsNotFound(filters.Location)
		}
		q.add("nearby", "{ coordinates: $coordinates radius: $radius }")
	case StrategyPostalCode:
		q.add("postal_code", "$postal_code")
	case StrategyArea:
		q.add("city", "$city")
		q.add("county", "$county")
		q.add("postal_code", "$postal_code")
		q.add("state_code", "$state_code")
	}

	q.add("status", searchStatus(filters.ListingType))

	if pred, ok := datePredicate(filters); ok {
		q.Predicates = append(q.Predicates, pred)
	}

	if len(filters.PropertyTypes) > 0 {
		types := make([]string, len(filters.PropertyTypes))
		for i, pt := range filters.PropertyTypes {
			types[i] = strings.ToLower(string(pt))
		}
		encoded, err := json.Marshal(types)
		if err != nil {
			return nil, err
		}
		q.add("type", string(encoded))
	}

	if filters.ListingType == models.ListingPending {
		q.add("or_filters", "{ contingent: true, pending: true }")
	}

	if filters.ListingType == models.ListingSold {
		q.Sort = "[{ field: sold_date, direction: desc }]"
	} else {
		q.Sort = "[{ field: list_date, direction: desc }]"
	}

	return q, nil
}

func (q *SearchQuery) add(name, value string) {
	q.Predicates = append(q.Predicates, Predicate{Name: name, Value: value})
}

// searchStatus maps the caller's listing type onto the provider status.
// PENDING is a for_sale search with the pending-or-contingent predicate.
func searchStatus(lt models.ListingType) string {
	if lt == models.ListingPending {
		return models.ListingForSale.Lower()
	}
	return lt.Lower()
}

// datePredicate filters on sold_date for SOLD searches, list_date otherwise
func datePredicate(filters models.SearchFilters) (Predicate, bool) {
	name := "list_date"
	if filters.ListingType == models.ListingSold {
		name = "sold_date"
	}

	switch {
	case filters.HasDateRange():
		return Predicate{
			Name:  name,
			Value: fmt.Sprintf(`{ min: "%s", max: "%s" }`, filters.DateFrom.Format(time.DateOnly), filters.DateTo.Format(time.DateOnly)),
		}, true
	case filters.PastDays != nil:
		return Predicate{
			Name:  name,
			Value: fmt.Sprintf(`{ min: "$today-%dD" }`, *filters.PastDays),
		}, true
	}
	return Predicate{}, false
}

// Document serializes the query text
func (q *SearchQuery) Document() string {
	if q.Strategy == StrategyAddress {
		return homeQuery
	}

	var decls string
	switch q.Strategy {
	case StrategyComps:
		decls = "$coordinates: [Float]!, $radius: String!, $offset: Int!"
	case StrategyPostalCode:
		decls = "$postal_code: String, $offset: Int!"
	default:
		decls = "$city: String, $county: [String], $state_code: String, $postal_code: String, $offset: Int!"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "query Home_search(%s) {\n", decls)
	b.WriteString("    home_search(\n        query: {\n")
	for _, p := range q.Predicates {
		fmt.Fprintf(&b, "            %s: %s\n", p.Name, p.Value)
	}
	b.WriteString("        }\n")
	if q.Sort != "" {
		fmt.Fprintf(&b, "        sort: %s\n", q.Sort)
	}
	fmt.Fprintf(&b, "        limit: %d\n", q.PageSize)
	b.WriteString("        offset: $offset\n")
	b.WriteString("    ) ")
	b.WriteString(resultsEnvelope)
	b.WriteString("\n}")
	return b.String()
}

// Variables returns the GraphQL variables for one page
func (q *SearchQuery) Variables(offset int) map[string]any {
	s := q.scope
	switch q.Strategy {
	case StrategyAddress:
		return map[string]any{"property_id": s.LocationID}
	case StrategyComps:
		return map[string]any{
			"coordinates": []float64{s.Center.Lon, s.Center.Lat},
			"radius":      fmt.Sprintf("%smi", formatRadius(s.Radius)),
			"offset":      offset,
		}
	case StrategyPostalCode:
		return map[string]any{
			"postal_code": s.PostalCode,
			"offset":      offset,
		}
	}

	vars := map[string]any{"offset": offset}
	vars["city"] = nullable(s.City)
	vars["state_code"] = nullable(s.StateCode)
	vars["postal_code"] = nullable(s.PostalCode)
	if s.County != "" {
		vars["county"] = []string{s.County}
	} else {
		vars["county"] = nil
	}
	return vars
}

// Payload is the JSON request body for one page
func (q *SearchQuery) Payload(offset int) map[string]any {
	return map[string]any{
		"query":     q.Document(),
		"variables": q.Variables(offset),
	}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func formatRadius(r float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", r), "0"), ".")
}
