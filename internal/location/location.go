// Package location resolves where a request is for: IP geolocation,
// forward search and reverse geocoding against Nominatim.
package location

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"net/url"
	"strings"

	"github.com/vzahanych/weather-advisor/internal/config"
	"github.com/vzahanych/weather-advisor/pkg/httpclient"
	"github.com/vzahanych/weather-advisor/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("location not found")
	ErrLookupFailed = errors.New("location lookup failed")
	ErrEmptyQuery   = errors.New("empty location query")
)

// Source tells how a Location was obtained.
type Source string

const (
	SourceIP      Source = "ip"
	SourceSearch  Source = "search"
	SourceReverse Source = "reverse"
	SourceDefault Source = "default"
)

type Location struct {
	City        string  `json:"city"`
	Region      string  `json:"region,omitempty"`
	Country     string  `json:"country"`
	CountryCode string  `json:"country_code,omitempty"`
	DisplayName string  `json:"display_name,omitempty"`
	Lat         float64 `json:"latitude"`
	Lon         float64 `json:"longitude"`
	Timezone    string  `json:"timezone,omitempty"`
	Source      Source  `json:"source"`
}

type Service struct {
	cfg    config.LocationConfig
	client *httpclient.Client
	logger *zap.Logger
	tele   *telemetry.Telemetry
}

// New builds the service with its own HTTP client. Nominatim rejects
// requests without a User-Agent.
func New(cfg config.LocationConfig, observer httpclient.Observer, logger *zap.Logger, tele *telemetry.Telemetry) *Service {
	opts := []httpclient.Option{httpclient.WithUserAgent(cfg.UserAgent)}
	if observer != nil {
		opts = append(opts, httpclient.WithObserver(observer))
	}
	client := httpclient.New("geocoding", cfg.TimeoutDuration(), httpclient.DefaultRetryPolicy(),
		httpclient.BreakerSettings{MaxFailures: 5}, opts...)
	return NewWithClient(cfg, client, logger, tele)
}

func NewWithClient(cfg config.LocationConfig, client *httpclient.Client, logger *zap.Logger, tele *telemetry.Telemetry) *Service {
	return &Service{cfg: cfg, client: client, logger: logger, tele: tele}
}

// Default is the configured fallback location.
func (s *Service) Default() Location {
	d := s.cfg.Default
	return Location{
		City:     d.City,
		Region:   d.Region,
		Country:  d.Country,
		Lat:      d.Lat,
		Lon:      d.Lon,
		Timezone: d.Timezone,
		Source:   SourceDefault,
	}
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	City        string  `json:"city"`
	RegionName  string  `json:"regionName"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
}

// Detect geolocates ip. Private, loopback and unparsable addresses are
// looked up as the caller's own public address.
func (s *Service) Detect(ctx context.Context, ip string) (Location, error) {
	ctx, end := s.tele.StartSpan(ctx, "location.Detect")
	defer end()

	u := strings.TrimRight(s.cfg.IPLookupURL, "/")
	if addr, err := netip.ParseAddr(ip); err == nil && addr.IsGlobalUnicast() && !addr.IsPrivate() {
		u += "/" + url.PathEscape(addr.String())
	}

	var resp ipAPIResponse
	if err := s.client.GetJSON(ctx, u, &resp); err != nil {
		s.tele.RecordError(ctx, err, map[string]interface{}{"op": "detect"})
		return Location{}, fmt.Errorf("%w: ip lookup: %w", ErrLookupFailed, err)
	}
	if resp.Status != "success" {
		return Location{}, fmt.Errorf("%w: ip lookup: %s", ErrNotFound, resp.Message)
	}

	city := resp.City
	if city == "" {
		city = "Unknown"
	}
	return Location{
		City:        city,
		Region:      resp.RegionName,
		Country:     resp.Country,
		CountryCode: resp.CountryCode,
		Lat:         resp.Lat,
		Lon:         resp.Lon,
		Timezone:    resp.Timezone,
		Source:      SourceIP,
	}, nil
}

// DetectOrDefault never fails; lookup errors yield the default location.
func (s *Service) DetectOrDefault(ctx context.Context, ip string) Location {
	loc, err := s.Detect(ctx, ip)
	if err != nil {
		s.logger.Warn("IP geolocation failed, using default location",
			zap.String("ip", ip),
			zap.Error(err))
		return s.Default()
	}
	return loc
}

type nominatimAddress struct {
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	State       string `json:"state"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
}

type nominatimPlace struct {
	Lat         float64          `json:"lat,string"`
	Lon         float64          `json:"lon,string"`
	DisplayName string           `json:"display_name"`
	Address     nominatimAddress `json:"address"`
	Error       string           `json:"error"`
}

func (p nominatimPlace) toLocation(src Source) Location {
	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city == "" {
		city = p.Address.Village
	}
	if city == "" {
		city = "Unknown"
	}
	return Location{
		City:        city,
		Region:      p.Address.State,
		Country:     p.Address.Country,
		CountryCode: strings.ToUpper(p.Address.CountryCode),
		DisplayName: p.DisplayName,
		Lat:         p.Lat,
		Lon:         p.Lon,
		Source:      src,
	}
}

// Search returns up to limit matches for query. A non-positive limit uses
// the configured one. No match is an empty result, not an error.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}

	ctx, end := s.tele.StartSpan(ctx, "location.Search",
		attribute.String("query", query),
		attribute.Int("limit", limit),
	)
	defer end()

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", fmt.Sprint(limit))

	var places []nominatimPlace
	u := fmt.Sprintf("%s/search?%s", strings.TrimRight(s.cfg.NominatimURL, "/"), q.Encode())
	if err := s.client.GetJSON(ctx, u, &places); err != nil {
		s.tele.RecordError(ctx, err, map[string]interface{}{"op": "search"})
		return nil, fmt.Errorf("%w: search %q: %w", ErrLookupFailed, query, err)
	}

	out := make([]Location, 0, len(places))
	for _, p := range places {
		out = append(out, p.toLocation(SourceSearch))
	}
	s.logger.Debug("Location search", zap.String("query", query), zap.Int("results", len(out)))
	return out, nil
}

// Geocode resolves a city, optionally qualified by country, to its best
// match.
func (s *Service) Geocode(ctx context.Context, city, country string) (Location, error) {
	query := city
	if country != "" {
		query = city + ", " + country
	}
	results, err := s.Search(ctx, query, 1)
	if err != nil {
		return Location{}, err
	}
	if len(results) == 0 {
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, query)
	}
	return results[0], nil
}

func (s *Service) Reverse(ctx context.Context, lat, lon float64) (Location, error) {
	ctx, end := s.tele.StartSpan(ctx, "location.Reverse",
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	)
	defer end()

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))
	q.Set("format", "json")
	q.Set("addressdetails", "1")

	var place nominatimPlace
	u := fmt.Sprintf("%s/reverse?%s", strings.TrimRight(s.cfg.NominatimURL, "/"), q.Encode())
	if err := s.client.GetJSON(ctx, u, &place); err != nil {
		s.tele.RecordError(ctx, err, map[string]interface{}{"op": "reverse"})
		return Location{}, fmt.Errorf("%w: reverse: %w", ErrLookupFailed, err)
	}
	if place.Error != "" {
		return Location{}, fmt.Errorf("%w: %s", ErrNotFound, place.Error)
	}

	loc := place.toLocation(SourceReverse)
	loc.Lat, loc.Lon = lat, lon
	return loc, nil
}
