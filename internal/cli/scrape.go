package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/law-makers/homeharvest/internal/engine"
	"github.com/law-makers/homeharvest/internal/scrape"
	"github.com/law-makers/homeharvest/internal/ui"
	"github.com/law-makers/homeharvest/internal/utils/output"
	"github.com/law-makers/homeharvest/pkg/models"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// scrapeFlags holds the scrape command's flag values
type scrapeFlags struct {
	sites          []string
	listingType    string
	format         string
	filename       string
	days           int
	dateFrom       string
	dateTo         string
	radius         float64
	mlsOnly        bool
	foreclosure    string
	excludePending bool
	keepDuplicates bool
	limit          int
	extraData      bool
	propertyTypes  []string
}

var scrapeOpts scrapeFlags

var scrapeCmd = &cobra.Command{
	Use:   "scrape <location>",
	Short: "Search listings for a location and save them to a file",
	Long: `Searches every selected provider for listings in a location and writes
the merged, deduplicated table to a file.

A location may be a ZIP code, a city ("Dallas, TX"), a county or a full
street address. With --radius an address search returns the listings
around it.`,
	Example: `  # Homes for sale in a ZIP code, saved as CSV
  homeharvest scrape 85281

  # Sold homes in the last 30 days from realtor.com only, as Excel
  homeharvest scrape "Dallas, TX" -l sold -d 30 -s realtor.com -o excel

  # Rentals within two miles of an address
  homeharvest scrape "2530 Al Lipscomb Way, Dallas, TX" -l for_rent -r 2

  # Single family homes sold in January, written as JSON
  homeharvest scrape "Phoenix, AZ" -l sold --date-from 2024-01-01 --date-to 2024-01-31 --property-type single_family -o json -f january`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeOpts.register(scrapeCmd.Flags())
}

func (o *scrapeFlags) register(f *pflag.FlagSet) {
	f.StringArrayVarP(&o.sites, "site", "s", nil, "Provider to query (realtor.com, redfin, zillow), repeatable; default all")
	f.StringVarP(&o.listingType, "listing-type", "l", "for_sale", "Listing type: for_sale, for_rent, sold or pending")
	f.StringVarP(&o.format, "output", "o", string(output.FormatCSV), "Output format: csv, excel, json, yaml, html or markdown")
	f.StringVarP(&o.filename, "filename", "f", "", "Output file name without extension (default HomeHarvest_<timestamp>)")
	f.IntVarP(&o.days, "days", "d", 0, "Only listings listed or sold in the past N days")
	f.StringVar(&o.dateFrom, "date-from", "", "Start of the listing or sale date range (YYYY-MM-DD)")
	f.StringVar(&o.dateTo, "date-to", "", "End of the listing or sale date range (YYYY-MM-DD)")
	f.Float64VarP(&o.radius, "radius", "r", 0, "Search radius in miles around an address")
	f.BoolVarP(&o.mlsOnly, "mls-only", "m", false, "Only listings with an MLS id")
	f.StringVar(&o.foreclosure, "foreclosure", "", "Foreclosure filter: true, false or empty for either")
	f.BoolVar(&o.excludePending, "exclude-pending", false, "Exclude pending and contingent listings from for_sale results")
	f.BoolVar(&o.keepDuplicates, "keep-duplicates", false, "Keep listings that share an address across providers")
	f.IntVar(&o.limit, "limit", scrape.DefaultLimit, "Maximum listings per provider")
	f.BoolVar(&o.extraData, "extra-property-data", false, "Fetch schools, tax history and estimates per listing")
	f.StringArrayVar(&o.propertyTypes, "property-type", nil, "Property type filter (single_family, condos, townhomes, ...), repeatable")
}

func runScrape(cmd *cobra.Command, args []string) error {
	a := GetAppFromCmd(cmd)
	if a == nil {
		return errors.New("application not initialized")
	}

	format, err := output.ParseFormat(scrapeOpts.format)
	if err != nil {
		return err
	}
	req, err := scrapeOpts.request(args[0], cmd.Flags())
	if err != nil {
		return err
	}

	// Progress only makes sense on an interactive, non-JSON stderr
	var bar *progressbar.ProgressBar
	if ui.IsTerminal(os.Stderr) && !a.Config.JSONLog && a.Config.LogLevel != "debug" {
		total := len(req.Sites)
		if total == 0 {
			total = len(models.AllSites())
		}
		bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Scraping "+req.Location),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionClearOnFinish(),
		)
	}

	onDone := func(site models.SiteName, count int, err error) {
		if bar == nil {
			return
		}
		bar.Describe(fmt.Sprintf("%s: %d", site, count))
		_ = bar.Add(1)
	}

	result, err := a.Orchestrator(onDone).Scrape(cmd.Context(), req)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		if engine.IsCallerError(err) {
			return err
		}
		return fmt.Errorf("scrape failed: %w", err)
	}

	path := outputPath(scrapeOpts.filename, format, time.Now())
	if err := output.Save(result.Table(), format, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Info().
		Str("request_id", result.RequestID).
		Str("file", path).
		Int("count", result.Len()).
		Msg("Output saved")

	p := ui.For(os.Stdout)
	fmt.Fprintf(os.Stdout, "%s %d properties from %s saved to %s\n",
		p.Success("✓"), result.Len(), joinSites(result.Sites), p.Bold(path))
	return nil
}

// request maps flag values onto a scrape request; only flags the user set
// are forwarded so unset filters stay unset.
func (f scrapeFlags) request(location string, flags *pflag.FlagSet) (scrape.Request, error) {
	req := scrape.Request{
		Location:          location,
		Sites:             f.sites,
		ListingType:       f.listingType,
		DateFrom:          f.dateFrom,
		DateTo:            f.dateTo,
		PropertyTypes:     f.propertyTypes,
		MLSOnly:           f.mlsOnly,
		ExtraPropertyData: f.extraData,
		ExcludePending:    f.excludePending,
		KeepDuplicates:    f.keepDuplicates,
		Limit:             f.limit,
	}

	if flags.Changed("days") {
		days := f.days
		req.PastDays = &days
	}
	if flags.Changed("radius") {
		radius := f.radius
		req.Radius = &radius
	}
	if s := strings.TrimSpace(f.foreclosure); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return scrape.Request{}, fmt.Errorf("invalid --foreclosure %q: must be true or false", f.foreclosure)
		}
		req.Foreclosure = &v
	}
	return req, nil
}

// outputPath appends the format extension, defaulting the name to
// HomeHarvest_<yyyymmdd_hhmmss>.
func outputPath(name string, format output.Format, now time.Time) string {
	if name == "" {
		name = "HomeHarvest_" + now.Format("20060102_150405")
	}
	if strings.EqualFold(filepath.Ext(name), format.Ext()) {
		return name
	}
	return name + format.Ext()
}

func joinSites(sites []models.SiteName) string {
	if len(sites) == 0 {
		return "no providers"
	}
	names := make([]string, len(sites))
	for i, s := range sites {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
