package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/vzahanych/weather-advisor/internal/aggregator"
	"github.com/vzahanych/weather-advisor/internal/recommend"
	"github.com/vzahanych/weather-advisor/internal/weather"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type adviseOptions struct {
	lat, lon float64
	city     string
	persona  string
	asJSON   bool
}

func adviseCmd(a *app) *cobra.Command {
	opts := &adviseOptions{}

	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Print recommendations for one location",
		Long: `Fetch current weather and the forecast for a location and print the agriculture
and/or travel recommendations. Without --city or --lat/--lon the location is
detected from this machine's public IP.`,
		Example: `  weather-advisor advise --lat 30.7333 --lon 76.7794 --persona agriculture
  weather-advisor advise --city "Paris, France" --persona travel`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(cmd); err != nil {
				return err
			}
			return a.runAdvise(cmd, opts)
		},
	}

	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&opts.lon, "lon", 0, "longitude")
	cmd.Flags().StringVar(&opts.city, "city", "", "city name, optionally with country")
	cmd.Flags().StringVarP(&opts.persona, "persona", "p", "all", "agriculture, travel or all")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print JSON instead of text")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsMutuallyExclusive("city", "lat")

	return cmd
}

func (o *adviseOptions) validate(cmd *cobra.Command) error {
	switch o.persona {
	case "agriculture", "travel", "all":
	default:
		return fmt.Errorf("invalid persona %q: want agriculture, travel or all", o.persona)
	}
	if cmd.Flags().Changed("lat") {
		if o.lat < -90 || o.lat > 90 || o.lon < -180 || o.lon > 180 {
			return fmt.Errorf("coordinates out of range: %v, %v", o.lat, o.lon)
		}
	}
	return nil
}

type adviceReport struct {
	Location    string                       `json:"location"`
	Lat         float64                      `json:"lat"`
	Lon         float64                      `json:"lon"`
	Provider    string                       `json:"provider"`
	Season      recommend.Season             `json:"season"`
	Weather     weather.Snapshot             `json:"weather"`
	Forecast    weather.Forecast             `json:"forecast"`
	Agriculture *recommend.AgricultureBundle `json:"agriculture,omitempty"`
	Travel      *recommend.TravelBundle      `json:"travel,omitempty"`
}

func (a *app) runAdvise(cmd *cobra.Command, opts *adviseOptions) error {
	ctx := cmd.Context()

	deps, err := a.buildComponents(nil)
	if err != nil {
		return err
	}
	defer deps.cache.Close()

	lat, lon, label := opts.lat, opts.lon, fmt.Sprintf("%.4f, %.4f", opts.lat, opts.lon)
	switch {
	case opts.city != "":
		loc, err := deps.geo.Geocode(ctx, opts.city, "")
		if err != nil {
			return fmt.Errorf("resolve %q: %w", opts.city, err)
		}
		lat, lon, label = loc.Lat, loc.Lon, opts.city
	case !cmd.Flags().Changed("lat"):
		loc := deps.geo.DetectOrDefault(ctx, "")
		lat, lon = loc.Lat, loc.Lon
		label = strings.Trim(loc.City+", "+loc.Country, ", ")
	}

	data, err := deps.agg.Conditions(ctx, lat, lon)
	if err != nil {
		return err
	}

	report, err := buildReport(ctx, deps.engine, data, opts.persona)
	if err != nil {
		return err
	}
	report.Location, report.Lat, report.Lon = label, lat, lon

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(out, report)
	return nil
}

func buildReport(ctx context.Context, engine *recommend.Engine, data *aggregator.Conditions, persona string) (*adviceReport, error) {
	report := &adviceReport{
		Provider: data.Provider,
		Season:   engine.Season(),
		Weather:  data.Current,
		Forecast: data.Forecast,
	}

	if persona == "agriculture" || persona == "all" {
		bundle, err := engine.Agriculture(ctx, data.Current, data.Forecast)
		if err != nil {
			return nil, err
		}
		report.Agriculture = &bundle
	}
	if persona == "travel" || persona == "all" {
		bundle, err := engine.Travel(ctx, data.Current, data.Forecast)
		if err != nil {
			return nil, err
		}
		report.Travel = &bundle
	}
	return report, nil
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n  %s\n%s\n", strings.Repeat("=", 60), title, strings.Repeat("=", 60))
}

func printList(w io.Writer, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", heading)
	for _, item := range items {
		fmt.Fprintf(w, "  • %s\n", item)
	}
}

func printAlerts(w io.Writer, alerts []recommend.Alert, none string) {
	if len(alerts) == 0 {
		fmt.Fprintf(w, "\n✅ %s\n", none)
		return
	}
	fmt.Fprintln(w, "\n⚠️  WEATHER ALERTS:")
	for _, a := range alerts {
		fmt.Fprintf(w, "  • [%s] %s\n    %s\n", strings.ToUpper(string(a.Severity)), a.Title, a.Message)
	}
}

func printReport(w io.Writer, r *adviceReport) {
	title := cases.Title(language.English)
	cur := r.Weather

	fmt.Fprintf(w, "\nLocation: %s\n", r.Location)
	fmt.Fprintf(w, "Coordinates: %.4f, %.4f (via %s)\n", r.Lat, r.Lon, r.Provider)
	fmt.Fprintf(w, "\n🌡️  Temperature: %.1f°C (feels like %.1f°C)\n", cur.Temperature, cur.FeelsLike)
	fmt.Fprintf(w, "💨 Wind Speed: %.1f km/h\n", cur.WindSpeed)
	fmt.Fprintf(w, "💧 Humidity: %d%%\n", cur.Humidity)
	fmt.Fprintf(w, "☁️  Conditions: %s\n", title.String(cur.Description))

	if b := r.Agriculture; b != nil {
		printSection(w, "AGRICULTURE")
		printAlerts(w, b.Alerts, "No weather alerts")
		printList(w, "💡 RECOMMENDATIONS:", b.Recommendations)
		printList(w, "📋 TODAY'S TASKS:", b.Tasks)
		printList(w, "✅ SUITABLE FARM ACTIVITIES:", b.SuitableActivities)
		printList(w, fmt.Sprintf("🌱 %s CROPS:", strings.ToUpper(string(r.Season))), b.CropAdvice)
	}

	if b := r.Travel; b != nil {
		printSection(w, "TRAVEL")
		fmt.Fprintf(w, "\n🎯 TRAVEL OUTLOOK: %s\n", strings.ToUpper(string(b.TravelOutlook)))
		printAlerts(w, b.Alerts, "No weather alerts - safe to travel!")
		printList(w, "🎒 SMART PACKING LIST:", b.PackingList)
		printList(w, "💡 TRAVEL TIPS:", b.Recommendations)
		printList(w, "⏰ BEST TIMES:", b.BestTimes)
	}

	if len(r.Forecast) > 0 {
		fmt.Fprintf(w, "\n📆 %d-DAY FORECAST:\n", len(r.Forecast))
		for _, d := range r.Forecast {
			date := time.Date(d.Date.Year, d.Date.Month, d.Date.Day, 0, 0, 0, 0, time.UTC)
			fmt.Fprintf(w, "  %s: %.0f-%.0f°C, %s, Rain: %.1fmm\n",
				date.Format("Mon, Jan 02"), d.TempMin, d.TempMax, title.String(d.Description), d.TotalRain)
		}
	}
}
