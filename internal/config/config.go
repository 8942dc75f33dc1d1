// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/limeboard/limeboard/internal/apperrors"
)

// PlaceholderURLMarker flags a LimeSurvey URL still at its documented
// example value; requests against it fail with a configuration error
// instead of a connection attempt.
const PlaceholderURLMarker = "your-limesurvey-domain"

// Config holds all application configuration.
type Config struct {
	Port     string
	APIKey   string
	LogLevel string
	Locale   string

	// LimeSurvey RemoteControl connection settings. Deliberately not
	// validated at startup: a misconfigured instance must still serve
	// requests and answer them with a localized configuration error.
	LimeSurveyURL      string
	LimeSurveyUser     string
	LimeSurveyPassword string

	// ExtraAttributes is the operator-configured list of participant
	// attribute keys surfaced for display and title templating.
	ExtraAttributes []string

	// TitleFormat is the optional global survey title template.
	TitleFormat string
	// TitleFormatsByID is an optional JSON mapping of survey id to template.
	TitleFormatsByID string

	CacheTTL        time.Duration
	CacheMaxEntries int

	RPCTimeout           time.Duration
	RPCRetryMax          int
	RPCRequestsPerSecond float64

	OtelTracesExporter string
	MetricsEnabled     bool
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration retrieves an environment variable as a duration or returns a default value.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat retrieves an environment variable as a float or returns a default value.
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// splitCommaList splits a comma-separated value into trimmed non-empty entries.
func splitCommaList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Load reads configuration from environment variables and returns a Config struct.
// It automatically loads .env file if it exists.
// Returns default values for any missing environment variables.
// API_KEY is required and the function will return an error if it's not set.
func Load() (*Config, error) {
	// Load .env file if it exists. Skip logging when absent (e.g. env from secrets/parameter store).
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		return nil, apperrors.NewConfigError("API_KEY", "API_KEY environment variable is required but not set")
	}

	cacheTTL := getEnvAsDuration("CACHE_TTL", 24*time.Hour)
	if cacheTTL <= 0 {
		return nil, apperrors.NewConfigError("CACHE_TTL", "CACHE_TTL must be a positive duration")
	}

	cacheMaxEntries := getEnvAsInt("CACHE_MAX_ENTRIES", 10000)
	if cacheMaxEntries <= 0 {
		return nil, apperrors.NewConfigError("CACHE_MAX_ENTRIES", "CACHE_MAX_ENTRIES must be a positive integer")
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		APIKey:   apiKey,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Locale:   getEnv("LOCALE", "en"),

		LimeSurveyURL:      os.Getenv("LIMESURVEY_API_URL"),
		LimeSurveyUser:     os.Getenv("LIMESURVEY_API_USER"),
		LimeSurveyPassword: os.Getenv("LIMESURVEY_API_PASSWORD"),

		ExtraAttributes: splitCommaList(os.Getenv("EXTRA_ATTRIBUTES")),

		TitleFormat:      os.Getenv("SURVEY_TITLE_FORMAT"),
		TitleFormatsByID: os.Getenv("SURVEY_TITLE_FORMATS_BY_ID"),

		CacheTTL:        cacheTTL,
		CacheMaxEntries: cacheMaxEntries,

		RPCTimeout:           getEnvAsDuration("RPC_TIMEOUT", 30*time.Second),
		RPCRetryMax:          getEnvAsInt("RPC_RETRY_MAX", 0),
		RPCRequestsPerSecond: getEnvAsFloat("RPC_REQUESTS_PER_SECOND", 0),

		OtelTracesExporter: os.Getenv("OTEL_TRACES_EXPORTER"),
		MetricsEnabled:     getEnv("METRICS_ENABLED", "true") == "true",
	}

	return cfg, nil
}

// ValidateLimeSurvey reports whether the LimeSurvey connection settings are
// usable. It returns the name of the failed check ("missing" or "placeholder")
// so callers can pick the matching localized message.
func (c *Config) ValidateLimeSurvey() (string, bool) {
	if c.LimeSurveyURL == "" || c.LimeSurveyUser == "" || c.LimeSurveyPassword == "" {
		return "missing", false
	}

	if strings.Contains(c.LimeSurveyURL, PlaceholderURLMarker) {
		return "placeholder", false
	}

	return "", true
}
