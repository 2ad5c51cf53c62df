package engine

import (
	"sort"
	"strings"
	"sync"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/law-makers/homeharvest/internal/engine/field"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/tidwall/gjson"
)

const (
	thumbnailSuffix   = "s.jpg"
	largePhotoVariant = "od-w480_h360_x2.webp?w=1080&q=75"
)

// DeriveStatus maps provider flags onto the canonical status: PENDING wins
// over CONTINGENT, which wins over the literal status.
func DeriveStatus(isPending, isContingent bool, literal string) string {
	switch {
	case isPending:
		return "PENDING"
	case isContingent:
		return "CONTINGENT"
	}
	return strings.ToUpper(strings.TrimSpace(literal))
}

// DaysOnMarket computes whole days on market for a raw status. SOLD uses
// sold minus list date; FOR_SALE and FOR_RENT use now minus list date.
// Negative or indeterminate results are nil, never clamped to zero.
func DaysOnMarket(status string, listDate, soldDate *time.Time, now time.Time) *int {
	if listDate == nil {
		return nil
	}

	var end time.Time
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SOLD":
		if soldDate == nil {
			return nil
		}
		end = *soldDate
	case "FOR_SALE", "FOR_RENT":
		end = now
	default:
		return nil
	}

	days := int(dateOnly(end).Sub(dateOnly(*listDate)).Hours() / 24)
	if days < 0 {
		return nil
	}
	return &days
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RewritePhoto swaps the thumbnail suffix for the large variant. URLs
// without the suffix are returned unchanged.
func RewritePhoto(url string) string {
	if strings.HasSuffix(url, thumbnailSuffix) {
		return strings.TrimSuffix(url, thumbnailSuffix) + largePhotoVariant
	}
	return url
}

// RewritePhotos rewrites every href in a photo list, skipping blanks
func RewritePhotos(photos []gjson.Result, path string) []string {
	var out []string
	for _, photo := range photos {
		if href := field.Str(photo, path); href != nil {
			out = append(out, RewritePhoto(*href))
		}
	}
	return out
}

// TaxSummary is the tax block derived from a raw tax history
type TaxSummary struct {
	History       []models.TaxRecord
	LatestTax     *int
	AssessedValue *int
}

// SummarizeTaxHistory sorts entries by year descending, drops entries that
// have neither a year nor a tax amount and derives the latest tax and
// assessed value from the most recent remaining entry.
func SummarizeTaxHistory(raw []gjson.Result) TaxSummary {
	records := make([]models.TaxRecord, 0, len(raw))
	for _, entry := range raw {
		rec := models.TaxRecord{
			Year: field.Int(entry, "year"),
			Tax:  field.Int(entry, "tax"),
		}
		if rec.Year == nil && rec.Tax == nil {
			continue
		}
		if assessment := entry.Get("assessment"); assessment.IsObject() {
			rec.Assessment = &models.Assessment{
				Building: field.Int(assessment, "building"),
				Land:     field.Int(assessment, "land"),
				Total:    field.Int(assessment, "total"),
			}
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return yearOf(records[i]) > yearOf(records[j])
	})

	var summary TaxSummary
	if len(records) == 0 {
		return summary
	}
	summary.History = records
	summary.LatestTax = records[0].Tax
	if records[0].Assessment != nil && records[0].Assessment.Total != nil && *records[0].Assessment.Total != 0 {
		summary.AssessedValue = records[0].Assessment.Total
	}
	return summary
}

func yearOf(r models.TaxRecord) int {
	if r.Year == nil {
		return 0
	}
	return *r.Year
}

// fulfillmentID treats the "0" sentinel as absent
func fulfillmentID(r gjson.Result) *string {
	id := field.Str(r, "fulfillment_id")
	if id == nil || *id == "0" {
		return nil
	}
	return id
}

// ParseAdvertisers partitions a raw advertiser list: the "seller" entry is
// the agent, carrying its broker and office; a "community" entry with a
// builder populates the builder.
func ParseAdvertisers(raw []gjson.Result) *models.Advertisers {
	if len(raw) == 0 {
		return nil
	}

	out := &models.Advertisers{}
	for _, adv := range raw {
		switch field.StrOr(adv, "type", "") {
		case "seller":
			out.Agent = &models.Agent{
				UUID:   fulfillmentID(adv),
				NRDSID: field.Str(adv, "nrds_id"),
				MLSSet: field.Str(adv, "mls_set"),
				Name:   field.Str(adv, "name"),
				Email:  field.Str(adv, "email"),
				Phones: ParsePhones(field.Array(adv, "phones")),
			}
			if broker := adv.Get("broker"); broker.IsObject() && field.Str(broker, "name") != nil {
				out.Broker = &models.Broker{
					UUID: fulfillmentID(broker),
					Name: field.Str(broker, "name"),
				}
			}
			if office := adv.Get("office"); office.IsObject() {
				out.Office = &models.Office{
					UUID:   fulfillmentID(office),
					MLSSet: field.Str(office, "mls_set"),
					Name:   field.Str(office, "name"),
					Email:  field.Str(office, "email"),
					Phones: ParsePhones(field.Array(office, "phones")),
				}
			}
		case "community":
			if builder := adv.Get("builder"); builder.IsObject() {
				out.Builder = &models.Builder{
					UUID: fulfillmentID(builder),
					Name: field.Str(builder, "name"),
				}
			}
		}
	}
	return out
}

// ParsePhones keeps entries that carry a number
func ParsePhones(raw []gjson.Result) []models.Phone {
	var out []models.Phone
	for _, p := range raw {
		number := field.Str(p, "number")
		if number == nil {
			continue
		}
		out = append(out, models.Phone{
			Number:  *number,
			Type:    field.StrOr(p, "type", ""),
			Primary: field.Bool(p, "primary"),
			Ext:     field.StrOr(p, "ext", ""),
		})
	}
	return out
}

// DropListing reports whether a normalized record must be filtered out:
// mls-only searches drop records without an MLS id, and pending or
// contingent records are dropped when excluded unless PENDING was asked for.
func DropListing(filters models.SearchFilters, hasMLS, isPending, isContingent bool) bool {
	if filters.MLSOnly && !hasMLS {
		return true
	}
	if (isPending || isContingent) && filters.ExcludePending && filters.ListingType != models.ListingPending {
		return true
	}
	return false
}

// FilterDateWindow applies the caller's date window client-side for
// providers without server-side date predicates. SOLD searches compare
// the last sold date, others the list date. Unknown dates are kept.
func FilterDateWindow(props []models.Property, filters models.SearchFilters, now time.Time) []models.Property {
	from, to, ok := filters.DateWindow(now)
	if !ok {
		return props
	}
	from, to = dateOnly(from), dateOnly(to)

	out := props[:0]
	for _, p := range props {
		d := p.ListDate
		if filters.ListingType == models.ListingSold {
			d = p.LastSoldDate
		}
		if d != nil {
			day := dateOnly(*d)
			if day.Before(from) || day.After(to) {
				continue
			}
		}
		out = append(out, p)
	}
	return out
}

var (
	converterOnce sync.Once
	converter     *md.Converter
)

// CleanRemarks converts HTML listing remarks to markdown text; plain text
// passes through untouched.
func CleanRemarks(text *string) *string {
	if text == nil || !strings.ContainsAny(*text, "<&") {
		return text
	}
	converterOnce.Do(func() {
		converter = md.NewConverter("", true, nil)
	})
	out, err := converter.ConvertString(*text)
	if err != nil {
		return text
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil
	}
	return &out
}
