package api

import (
	"os"
	"strconv"
	"strings"

	"github.com/alexanderramin/comply/internal/domain"
)

// Config holds the backend connection settings.
type Config struct {
	Endpoint    string
	Token       string
	TimeoutMs   int
	MaxRetries  int // extra attempts for idempotent GETs only
	Variant     domain.CatalogueVariant
	LogCalls    bool
	MetricsFile string
}

// DefaultConfig returns a Config pointing at a local backend with no
// retries. An empty Variant lets the server choose the catalogue shape.
func DefaultConfig() Config {
	return Config{
		Endpoint:   "http://localhost:8080",
		TimeoutMs:  10000,
		MaxRetries: 0,
	}
}

// LoadConfig reads the COMPLY_* environment variables, falling back to
// defaults for unset or invalid values.
func LoadConfig() Config {
	cfg := DefaultConfig()

	if v := strings.TrimSpace(os.Getenv("COMPLY_API_ENDPOINT")); v != "" {
		cfg.Endpoint = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("COMPLY_API_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("COMPLY_API_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("COMPLY_API_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("COMPLY_CATALOGUE_VARIANT"); v != "" {
		if variant := domain.CatalogueVariant(strings.ToLower(v)); domain.ValidCatalogueVariants[variant] {
			cfg.Variant = variant
		}
	}
	if v := os.Getenv("COMPLY_LOG_CALLS"); v != "" {
		cfg.LogCalls, _ = strconv.ParseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv("COMPLY_METRICS_FILE")); v != "" {
		cfg.MetricsFile = v
	}

	return cfg
}
