package config

import (
	"time"

	"github.com/vzahanych/weather-advisor/internal/recommend"
)

const (
	ProviderOpenWeather = "openweather"
	ProviderOpenMeteo   = "open-meteo"
	ProviderWeatherAPI  = "weather-api"

	CacheMemory    = "memory"
	CacheMemcached = "memcached"
)

type Config struct {
	Version     string               `mapstructure:"version"`
	Environment string               `mapstructure:"environment" validate:"oneof=development staging production test"`
	Server      ServerConfig         `mapstructure:"server"`
	Weather     WeatherConfig        `mapstructure:"weather"`
	Cache       CacheConfig          `mapstructure:"cache"`
	Location    LocationConfig       `mapstructure:"location"`
	Thresholds  recommend.Thresholds `mapstructure:"thresholds"`
	Logging     LoggingConfig        `mapstructure:"logging"`
	Telemetry   TelemetryConfig      `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int             `mapstructure:"port" validate:"min=1,max=65535"`
	Host         string          `mapstructure:"host"`
	ReadTimeout  int             `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout int             `mapstructure:"write_timeout" validate:"gte=0"`
	IdleTimeout  int             `mapstructure:"idle_timeout" validate:"gte=0"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps" validate:"gte=0"`
	Burst   int     `mapstructure:"burst" validate:"gte=0"`
}

type WeatherConfig struct {
	Services     map[string]WeatherServiceConfig `mapstructure:"services" validate:"dive"`
	Timeout      int                             `mapstructure:"timeout" validate:"gt=0"`
	Retries      int                             `mapstructure:"retries" validate:"gte=0,lte=10"`
	CacheTTL     int                             `mapstructure:"cache_ttl" validate:"gte=0"`
	ForecastDays int                             `mapstructure:"forecast_days" validate:"min=1,max=5"`
	Breaker      BreakerConfig                   `mapstructure:"breaker"`
}

func (c WeatherConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (c WeatherConfig) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

type WeatherServiceConfig struct {
	Type     string            `mapstructure:"type" validate:"oneof=openweather open-meteo weather-api"`
	Enabled  bool              `mapstructure:"enabled"`
	Priority int               `mapstructure:"priority"`
	BaseURL  string            `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey   string            `mapstructure:"api_key"`
	Params   map[string]string `mapstructure:"params"`
}

// BreakerConfig tunes the per-host circuit breaker in front of upstream APIs.
type BreakerConfig struct {
	MaxFailures uint32 `mapstructure:"max_failures" validate:"gt=0"`
	OpenTimeout int    `mapstructure:"open_timeout" validate:"gt=0"`
}

func (c BreakerConfig) OpenTimeoutDuration() time.Duration {
	return time.Duration(c.OpenTimeout) * time.Second
}

type CacheConfig struct {
	Backend   string          `mapstructure:"backend" validate:"oneof=memory memcached"`
	Memcached MemcachedConfig `mapstructure:"memcached"`
}

type MemcachedConfig struct {
	Addrs        []string `mapstructure:"addrs" validate:"dive,hostname_port"`
	TimeoutMS    int      `mapstructure:"timeout_ms" validate:"gte=0"`
	MaxIdleConns int      `mapstructure:"max_idle_conns" validate:"gte=0"`
}

type LocationConfig struct {
	IPLookupURL  string          `mapstructure:"ip_lookup_url" validate:"url"`
	NominatimURL string          `mapstructure:"nominatim_url" validate:"url"`
	UserAgent    string          `mapstructure:"user_agent" validate:"required"`
	SearchLimit  int             `mapstructure:"search_limit" validate:"min=1,max=50"`
	Timeout      int             `mapstructure:"timeout" validate:"gt=0"`
	Default      DefaultLocation `mapstructure:"default"`
}

func (c LocationConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

type DefaultLocation struct {
	City     string  `mapstructure:"city"`
	Region   string  `mapstructure:"region"`
	Country  string  `mapstructure:"country"`
	Lat      float64 `mapstructure:"lat" validate:"latitude"`
	Lon      float64 `mapstructure:"lon" validate:"longitude"`
	Timezone string  `mapstructure:"timezone"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format     string `mapstructure:"format" validate:"oneof=json console"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Weather: WeatherConfig{
			Services: map[string]WeatherServiceConfig{
				ProviderOpenWeather: {
					Type:     ProviderOpenWeather,
					Enabled:  true,
					Priority: 1,
					BaseURL:  "https://api.openweathermap.org/data/2.5",
					Params: map[string]string{
						"units": "metric",
					},
				},
				ProviderOpenMeteo: {
					Type:     ProviderOpenMeteo,
					Enabled:  true,
					Priority: 2,
					BaseURL:  "https://api.open-meteo.com/v1",
				},
				ProviderWeatherAPI: {
					Type:     ProviderWeatherAPI,
					Enabled:  false,
					Priority: 3,
					BaseURL:  "https://api.weatherapi.com/v1",
				},
			},
			Timeout:      10,
			Retries:      2,
			CacheTTL:     300,
			ForecastDays: 5,
			Breaker: BreakerConfig{
				MaxFailures: 5,
				OpenTimeout: 30,
			},
		},
		Cache: CacheConfig{
			Backend: CacheMemory,
			Memcached: MemcachedConfig{
				Addrs:        []string{"localhost:11211"},
				TimeoutMS:    200,
				MaxIdleConns: 4,
			},
		},
		Location: LocationConfig{
			IPLookupURL:  "http://ip-api.com/json",
			NominatimURL: "https://nominatim.openstreetmap.org",
			UserAgent:    "smart_weather_app",
			SearchLimit:  5,
			Timeout:      10,
			Default: DefaultLocation{
				City:     "New Delhi",
				Region:   "Delhi",
				Country:  "India",
				Lat:      28.6139,
				Lon:      77.2090,
				Timezone: "Asia/Kolkata",
			},
		},
		Thresholds: recommend.DefaultThresholds(),
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "weather-advisor",
		},
	}
}
