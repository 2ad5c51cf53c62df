package models

import (
	"encoding/json"
	"strings"
	"time"
)

// Columns is the fixed, ordered column set of the tabular result
var Columns = []string{
	"property_url", "site_name", "property_id", "listing_id", "mls", "mls_id", "status",
	"text", "style", "full_street_line", "street", "unit", "city", "state", "zip_code",
	"beds", "full_baths", "half_baths", "sqft", "year_built", "days_on_mls",
	"list_price", "list_price_min", "list_price_max", "list_date", "pending_date",
	"sold_price", "last_sold_date", "assessed_value", "estimated_value", "tax", "tax_history",
	"new_construction", "lot_sqft", "price_per_sqft", "latitude", "longitude",
	"neighborhoods", "county", "fips_code", "stories", "hoa_fee", "parking_garage",
	"agent_id", "agent_name", "agent_email", "agent_phones", "agent_mls_set", "agent_nrds_id",
	"broker_id", "broker_name", "builder_id", "builder_name",
	"office_id", "office_mls_set", "office_name", "office_email", "office_phones",
	"nearby_schools", "primary_photo", "alt_photos",
}

// Table is a row-oriented projection of properties. Cell values are nil,
// string, int, float64 or bool.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable flattens properties into the fixed column layout
func NewTable(props []Property) Table {
	t := Table{Columns: Columns, Rows: make([][]any, 0, len(props))}
	for i := range props {
		t.Rows = append(t.Rows, flatten(&props[i]))
	}
	return t
}

// Column returns the index of a column, or -1
func (t Table) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func flatten(p *Property) []any {
	row := make(map[string]any, len(Columns))
	row["property_url"] = p.PropertyURL
	row["site_name"] = string(p.Site)
	row["property_id"] = str(p.PropertyID)
	row["listing_id"] = str(p.ListingID)
	row["mls"] = str(p.MLS)
	row["mls_id"] = str(p.MLSID)
	if p.Status != "" {
		row["status"] = p.Status
	}

	if a := p.Address; a != nil {
		row["full_street_line"] = str(a.FullLine)
		row["street"] = str(a.Street)
		row["unit"] = str(a.Unit)
		row["city"] = str(a.City)
		row["state"] = str(a.State)
		row["zip_code"] = str(a.Zip)
	}

	if d := p.Description; d != nil {
		row["text"] = str(d.Text)
		if d.Style != nil {
			row["style"] = string(*d.Style)
		}
		row["beds"] = num(d.Beds)
		row["full_baths"] = num(d.BathsFull)
		row["half_baths"] = num(d.BathsHalf)
		row["sqft"] = num(d.Sqft)
		row["year_built"] = num(d.YearBuilt)
		row["sold_price"] = num(d.SoldPrice)
		row["lot_sqft"] = flt(d.LotSqft)
		row["stories"] = num(d.Stories)
		row["parking_garage"] = flt(d.Garage)
		row["primary_photo"] = str(d.PrimaryPhoto)
		if len(d.AltPhotos) > 0 {
			row["alt_photos"] = strings.Join(d.AltPhotos, ", ")
		}
	}

	row["days_on_mls"] = num(p.DaysOnMarket)
	row["list_price"] = num(p.ListPrice)
	row["list_price_min"] = num(p.ListPriceMin)
	row["list_price_max"] = num(p.ListPriceMax)
	row["list_date"] = date(p.ListDate)
	row["pending_date"] = date(p.PendingDate)
	row["last_sold_date"] = date(p.LastSoldDate)
	row["assessed_value"] = num(p.AssessedValue)
	row["estimated_value"] = num(p.EstimatedValue)
	row["tax"] = num(p.Tax)
	if len(p.TaxHistory) > 0 {
		row["tax_history"] = jsonText(p.TaxHistory)
	}
	row["new_construction"] = p.NewConstruction
	row["price_per_sqft"] = num(p.PricePerSqft)
	row["latitude"] = flt(p.Latitude)
	row["longitude"] = flt(p.Longitude)
	row["neighborhoods"] = str(p.Neighborhoods)
	row["county"] = str(p.County)
	row["fips_code"] = str(p.FIPSCode)
	row["hoa_fee"] = num(p.HOAFee)

	if adv := p.Advertisers; adv != nil {
		if ag := adv.Agent; ag != nil {
			row["agent_id"] = str(ag.UUID)
			row["agent_name"] = str(ag.Name)
			row["agent_email"] = str(ag.Email)
			if len(ag.Phones) > 0 {
				row["agent_phones"] = jsonText(ag.Phones)
			}
			row["agent_mls_set"] = str(ag.MLSSet)
			row["agent_nrds_id"] = str(ag.NRDSID)
		}
		if br := adv.Broker; br != nil {
			row["broker_id"] = str(br.UUID)
			row["broker_name"] = str(br.Name)
		}
		if bu := adv.Builder; bu != nil {
			row["builder_id"] = str(bu.UUID)
			row["builder_name"] = str(bu.Name)
		}
		if of := adv.Office; of != nil {
			row["office_id"] = str(of.UUID)
			row["office_mls_set"] = str(of.MLSSet)
			row["office_name"] = str(of.Name)
			row["office_email"] = str(of.Email)
			if len(of.Phones) > 0 {
				row["office_phones"] = jsonText(of.Phones)
			}
		}
	}

	if len(p.NearbySchools) > 0 {
		row["nearby_schools"] = strings.Join(p.NearbySchools, ", ")
	}

	out := make([]any, len(Columns))
	for i, c := range Columns {
		out[i] = row[c]
	}
	return out
}

// The helpers below return untyped nil for absent values so cells compare
// equal to nil.

func str(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func num(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}

func flt(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func date(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.DateOnly)
}

func jsonText(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return string(b)
}
