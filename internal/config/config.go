package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type AppConfig struct {
	// Provider credentials. They are passed through untouched; a missing key
	// only disables that provider's calls.
	OpenWeatherAPIKey string
	WeatherbitAPIKey  string

	// Provider endpoints, overridable for testing against fakes.
	OpenWeatherBaseURL string `validate:"omitempty,url"`
	WeatherbitBaseURL  string `validate:"omitempty,url"`

	// HTTPTimeout bounds each outbound provider request.
	HTTPTimeout time.Duration `validate:"gt=0"`

	// Circuit breaker: consecutive failures before opening (0 = never) and open duration.
	BreakerFailures    int           `validate:"gte=0"`
	BreakerOpenTimeout time.Duration `validate:"gt=0"`

	// Cities polled by the background probe. Empty disables it.
	ProbeCities   []string
	ProbeInterval time.Duration `validate:"gte=1m"`

	// Outcome store retention.
	OutcomeMaxHistory int           `validate:"gte=0"` // max outcomes kept per provider (0 = unlimited)
	OutcomeMaxAge     time.Duration `validate:"gte=0"` // max age of outcomes (0 = unlimited)

	LogLevel string `validate:"oneof=debug info warn error"`
	Port     string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.OpenWeatherAPIKey = os.Getenv("OPEN_WEATHER_APPID")
	cfg.WeatherbitAPIKey = os.Getenv("WEATHERBIT_API_KEY")
	cfg.OpenWeatherBaseURL = os.Getenv("OPEN_WEATHER_BASE_URL")
	cfg.WeatherbitBaseURL = os.Getenv("WEATHERBIT_BASE_URL")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	cfg.BreakerFailures = getenvInt("BREAKER_FAILURES", 5)
	if cfg.BreakerOpenTimeout, err = getenvDuration("BREAKER_OPEN_TIMEOUT", "1m"); err != nil {
		return nil, err
	}

	cfg.ProbeCities = splitList(os.Getenv("PROBE_CITIES"))
	if cfg.ProbeInterval, err = getenvDuration("PROBE_INTERVAL", "15m"); err != nil {
		return nil, err
	}

	cfg.OutcomeMaxHistory = getenvInt("OUTCOME_MAX_HISTORY", 100)
	if cfg.OutcomeMaxAge, err = getenvDuration("OUTCOME_MAX_AGE", "24h"); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
