package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Port string `validate:"required,numeric"`

	// Forecast provider.
	WeatherProvider   string `validate:"oneof=openweather weatherapi"`
	OpenWeatherAPIKey string
	OpenWeatherURL    string `validate:"omitempty,url"`
	WeatherAPIKey     string
	WeatherAPIURL     string  `validate:"omitempty,url"`
	WeatherUnits      string  `validate:"oneof=imperial metric standard"`
	WeatherRateLimit  float64 `validate:"gte=0"` // requests per second, 0 = unlimited
	WeatherBurst      int     `validate:"gte=1"`
	HTTPTimeout       time.Duration
	ForecastCacheTTL  time.Duration

	// Location defines calendar days and "today".
	Location *time.Location `validate:"-"`

	// User/plant store.
	StoreDriver             string `validate:"oneof=memory sqlite firebase"`
	SQLitePath              string `validate:"required_if=StoreDriver sqlite"`
	FirebaseDatabaseURL     string `validate:"required_if=StoreDriver firebase"`
	FirebaseCredentialsFile string

	// DigestInterval controls how often the watering digest runs (0 disables it).
	DigestInterval time.Duration

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=json console"`
}

var validate = validator.New()

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("WEATHER_PROVIDER", "openweather")
	v.SetDefault("OPENWEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5")
	v.SetDefault("WEATHERAPI_BASE_URL", "https://api.weatherapi.com/v1")
	v.SetDefault("WEATHER_UNITS", "imperial")
	v.SetDefault("WEATHER_RATE_LIMIT", 1.0)
	v.SetDefault("WEATHER_BURST", 5)
	v.SetDefault("HTTP_TIMEOUT", "10s")
	v.SetDefault("FORECAST_CACHE_TTL", "10m")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("STORE_DRIVER", "memory")
	v.SetDefault("SQLITE_PATH", "data/waterwise.db")
	v.SetDefault("DIGEST_INTERVAL", "1h")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func fromViper(v *viper.Viper) (*AppConfig, error) {
	cfg := &AppConfig{
		Port:                    v.GetString("PORT"),
		WeatherProvider:         strings.ToLower(v.GetString("WEATHER_PROVIDER")),
		OpenWeatherAPIKey:       v.GetString("OPENWEATHER_API_KEY"),
		OpenWeatherURL:          v.GetString("OPENWEATHER_BASE_URL"),
		WeatherAPIKey:           v.GetString("WEATHERAPI_API_KEY"),
		WeatherAPIURL:           v.GetString("WEATHERAPI_BASE_URL"),
		WeatherUnits:            strings.ToLower(v.GetString("WEATHER_UNITS")),
		WeatherRateLimit:        v.GetFloat64("WEATHER_RATE_LIMIT"),
		WeatherBurst:            v.GetInt("WEATHER_BURST"),
		StoreDriver:             strings.ToLower(v.GetString("STORE_DRIVER")),
		SQLitePath:              v.GetString("SQLITE_PATH"),
		FirebaseDatabaseURL:     v.GetString("FIREBASE_DATABASE_URL"),
		FirebaseCredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		LogLevel:                strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:               strings.ToLower(v.GetString("LOG_FORMAT")),
	}

	var err error
	if cfg.HTTPTimeout, err = duration(v, "HTTP_TIMEOUT"); err != nil {
		return nil, err
	}
	if cfg.ForecastCacheTTL, err = duration(v, "FORECAST_CACHE_TTL"); err != nil {
		return nil, err
	}
	if cfg.DigestInterval, err = duration(v, "DIGEST_INTERVAL"); err != nil {
		return nil, err
	}

	tz := v.GetString("TIMEZONE")
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tz, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func duration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return d, nil
}
