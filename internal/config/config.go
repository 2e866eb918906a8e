package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Common errors
var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is required")
	ErrInvalidRadius      = errors.New("radius bounds must be positive and default must not exceed max")
	ErrInvalidRateLimit   = errors.New("ask rate limit must be positive with a burst of at least 1")
)

// DefaultOpenAIModel matches the model the navigator was tuned against.
const DefaultOpenAIModel = "gpt-4"

// Config is built once at process start and handed to every component that
// needs it. Nothing below main reads the environment.
type Config struct {
	Port        string
	DatabaseURL string
	CORSOrigins []string

	// Text generation
	OpenAIKey     string
	OpenAIModel   string
	OpenAIBaseURL string
	LLMTimeout    time.Duration

	// Geocoding fallback for ZIPs missing from zip_codes
	GoogleMapsKey string

	// Search bounds
	DefaultRadiusKm float64
	MaxRadiusKm     float64

	// Generated query execution
	StatementTimeout time.Duration

	// /ask rate limit per client
	AskRatePerSecond float64
	AskBurst         int

	// Extra classifier vocabulary on top of the built-in terms
	ExtraDomainTerms []string
}

// fileOverlay mirrors the optional YAML tuning file.
type fileOverlay struct {
	DefaultRadiusKm         *float64 `yaml:"default_radius_km"`
	MaxRadiusKm             *float64 `yaml:"max_radius_km"`
	LLMTimeoutSeconds       *int     `yaml:"llm_timeout_seconds"`
	StatementTimeoutSeconds *int     `yaml:"statement_timeout_seconds"`
	AskRatePerSecond        *float64 `yaml:"ask_rate_per_second"`
	AskBurst                *int     `yaml:"ask_burst"`
	OpenAIModel             string   `yaml:"openai_model"`
	DomainTerms             []string `yaml:"domain_terms"`
}

// Default returns the baseline configuration before env and file overrides.
func Default() Config {
	return Config{
		Port:             "5050",
		OpenAIModel:      DefaultOpenAIModel,
		LLMTimeout:       20 * time.Second,
		DefaultRadiusKm:  50,
		MaxRadiusKm:      500,
		StatementTimeout: 5 * time.Second,
		AskRatePerSecond: 1,
		AskBurst:         5,
	}
}

// LoadFromEnv loads configuration from environment variables, then applies
// the YAML file named by NAVIGATOR_CONFIG if one is set.
//
// Environment variables:
//   - DATABASE_URL: Postgres DSN (required)
//   - PORT: listen port (default: 5050)
//   - OPENAI_API_KEY: enables /ask; without it /ask answers 503
//   - OPENAI_MODEL: chat model (default: gpt-4)
//   - OPENAI_BASE_URL: alternate OpenAI-compatible endpoint
//   - GOOGLE_MAPS_API_KEY: enables live ZIP geocoding fallback
//   - CORS_ORIGINS: comma separated allow-list
//   - NAVIGATOR_CONFIG: path to a YAML tuning file
func LoadFromEnv() (Config, error) {
	cfg := Default()

	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}
	cfg.OpenAIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if model := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); model != "" {
		cfg.OpenAIModel = model
	}
	cfg.OpenAIBaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	cfg.GoogleMapsKey = strings.TrimSpace(os.Getenv("GOOGLE_MAPS_API_KEY"))
	cfg.CORSOrigins = splitList(os.Getenv("CORS_ORIGINS"))

	if path := strings.TrimSpace(os.Getenv("NAVIGATOR_CONFIG")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.ApplyYAML(raw); err != nil {
			return cfg, err
		}
	}

	return cfg, cfg.Validate()
}

// ApplyYAML overlays tunables from a YAML document onto cfg.
func (c *Config) ApplyYAML(raw []byte) error {
	var f fileOverlay
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.DefaultRadiusKm != nil {
		c.DefaultRadiusKm = *f.DefaultRadiusKm
	}
	if f.MaxRadiusKm != nil {
		c.MaxRadiusKm = *f.MaxRadiusKm
	}
	if f.LLMTimeoutSeconds != nil && *f.LLMTimeoutSeconds > 0 {
		c.LLMTimeout = time.Duration(*f.LLMTimeoutSeconds) * time.Second
	}
	if f.StatementTimeoutSeconds != nil && *f.StatementTimeoutSeconds > 0 {
		c.StatementTimeout = time.Duration(*f.StatementTimeoutSeconds) * time.Second
	}
	if f.AskRatePerSecond != nil {
		c.AskRatePerSecond = *f.AskRatePerSecond
	}
	if f.AskBurst != nil {
		c.AskBurst = *f.AskBurst
	}
	if f.OpenAIModel != "" {
		c.OpenAIModel = f.OpenAIModel
	}
	c.ExtraDomainTerms = append(c.ExtraDomainTerms, f.DomainTerms...)
	return nil
}

// Validate checks the settings the process cannot run without.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return ErrMissingDatabaseURL
	}
	if c.DefaultRadiusKm <= 0 || c.MaxRadiusKm <= 0 || c.DefaultRadiusKm > c.MaxRadiusKm {
		return ErrInvalidRadius
	}
	if c.AskRatePerSecond <= 0 || c.AskBurst < 1 {
		return ErrInvalidRateLimit
	}
	return nil
}

// LLMEnabled reports whether the text-generation capability is configured.
func (c Config) LLMEnabled() bool {
	return c.OpenAIKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
