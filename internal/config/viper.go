package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "WA"

var ErrInvalidConfig = errors.New("invalid configuration")

// Load builds the configuration from defaults, an optional YAML file, a .env
// file and WA_* environment variables, in increasing order of precedence.
// When configPath is empty a missing ./config.yaml is not an error.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := NewDefaultConfig()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	SetDefaultsFromStructRecursive(reflect.ValueOf(cfg), "", v)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	applyLegacyEnv(cfg)
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if c.Cache.Backend == CacheMemcached && len(c.Cache.Memcached.Addrs) == 0 {
		return fmt.Errorf("%w: cache.memcached.addrs is required for the memcached backend", ErrInvalidConfig)
	}

	enabled := 0
	for _, svc := range c.Weather.Services {
		if svc.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return fmt.Errorf("%w: at least one weather service must be enabled", ErrInvalidConfig)
	}

	return nil
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// applyLegacyEnv honours the unprefixed OPENWEATHER_API_KEY variable when no
// key was configured through the file or WA_* variables.
func applyLegacyEnv(cfg *Config) {
	key := os.Getenv("OPENWEATHER_API_KEY")
	if key == "" {
		return
	}
	for name, svc := range cfg.Weather.Services {
		if svc.Type == ProviderOpenWeather && svc.APIKey == "" {
			svc.APIKey = key
			cfg.Weather.Services[name] = svc
		}
	}
}

// SetDefaultsFromStructRecursive registers every leaf of v as a viper default
// so AutomaticEnv can override it. Maps keyed by string with struct values
// are walked per entry.
func SetDefaultsFromStructRecursive(v reflect.Value, prefix string, viper *viper.Viper) {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		if !fieldValue.CanInterface() {
			continue
		}

		key := field.Tag.Get("mapstructure")
		if key == "" {
			key = strings.ToLower(field.Name)
		}

		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		switch {
		case fieldValue.Kind() == reflect.Struct:
			SetDefaultsFromStructRecursive(fieldValue, fullKey, viper)
		case fieldValue.Kind() == reflect.Map &&
			fieldValue.Type().Key().Kind() == reflect.String &&
			fieldValue.Type().Elem().Kind() == reflect.Struct:
			iter := fieldValue.MapRange()
			for iter.Next() {
				SetDefaultsFromStructRecursive(iter.Value(), fullKey+"."+iter.Key().String(), viper)
			}
		default:
			viper.SetDefault(fullKey, fieldValue.Interface())
		}
	}
}
