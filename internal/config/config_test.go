package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, NewDefaultConfig().Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
weather:
  forecast_days: 3
  services:
    openweather:
      api_key: from-file
thresholds:
  agriculture:
    frost_temp: 0
logging:
  level: DEBUG
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Weather.ForecastDays)
	assert.Equal(t, "from-file", cfg.Weather.Services[ProviderOpenWeather].APIKey)
	assert.Equal(t, ProviderOpenWeather, cfg.Weather.Services[ProviderOpenWeather].Type)
	assert.Equal(t, 0.0, cfg.Thresholds.Agriculture.FrostTemp)
	assert.Equal(t, 35.0, cfg.Thresholds.Agriculture.HeatStress)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.Default.Timezone)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("WA_SERVER_PORT", "7070")
	t.Setenv("WA_CACHE_BACKEND", "memcached")
	t.Setenv("WA_WEATHER_SERVICES_OPENWEATHER_API_KEY", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, CacheMemcached, cfg.Cache.Backend)
	assert.Equal(t, "from-env", cfg.Weather.Services[ProviderOpenWeather].APIKey)
}

func TestLoad_LegacyAPIKey(t *testing.T) {
	path := writeConfig(t, "version: 1.0.0\n")
	t.Setenv("OPENWEATHER_API_KEY", "legacy")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.Weather.Services[ProviderOpenWeather].APIKey)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "port", body: "server:\n  port: 70000\n"},
		{name: "log level", body: "logging:\n  level: loud\n"},
		{name: "forecast days", body: "weather:\n  forecast_days: 9\n"},
		{name: "thresholds", body: "thresholds:\n  travel:\n    cold_weather: 40\n"},
		{name: "cache backend", body: "cache:\n  backend: redis\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WA_SERVER_PORT=6060\n"), 0o600))
	chdir(t, dir)
	t.Cleanup(func() { os.Unsetenv("WA_SERVER_PORT") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestValidate_RequiresEnabledService(t *testing.T) {
	cfg := NewDefaultConfig()
	for name, svc := range cfg.Weather.Services {
		svc.Enabled = false
		cfg.Weather.Services[name] = svc
	}
	assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
