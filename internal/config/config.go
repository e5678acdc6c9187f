// Package config loads CampusMart settings from a YAML file and the
// environment.
//
// Precedence, lowest to highest: Default(), the YAML file, environment
// variables, then CLI flags (applied by the cli package).
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabase   = "CAMPUSMART_DB"
	EnvAddr       = "CAMPUSMART_ADDR"
	EnvGroqKey    = "GROQ_API_KEY"
	EnvAPIKey     = "API_KEY"
	EnvInsightURL = "CAMPUSMART_INSIGHT_URL"
)

// Stock policies understood by the checkout engine.
const (
	StockRevalidate = "revalidate"
	StockTrustCart  = "trust-cart"
)

// Corrupt-blob policies understood by the store.
const (
	CorruptFail   = "fail"
	CorruptReseed = "reseed"
)

// Config is the full application configuration.
type Config struct {
	// Database is the SQLite file path, or ":memory:".
	Database string `yaml:"database"`

	// StockPolicy is "revalidate" or "trust-cart".
	StockPolicy string `yaml:"stock_policy"`

	// CorruptPolicy is "fail" or "reseed".
	CorruptPolicy string `yaml:"corrupt_policy"`

	HTTP    HTTP    `yaml:"http"`
	Insight Insight `yaml:"insight"`
}

// HTTP configures the API server.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Insight configures the text-generation collaborator.
type Insight struct {
	BaseURL string        `yaml:"base_url"`
	Model   string        `yaml:"model"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database:      "campusmart.db",
		StockPolicy:   StockRevalidate,
		CorruptPolicy: CorruptFail,
		HTTP:          HTTP{Addr: ":8080"},
		Insight: Insight{
			BaseURL: "https://api.groq.com/openai/v1",
			Model:   "llama3-70b-8192",
			Timeout: 15 * time.Second,
		},
	}
}

// Load reads path over Default() and applies environment overrides.
// An empty path skips the file. Unknown YAML fields are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}

		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true) // Reject unknown fields
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from the environment. lookup is os.LookupEnv in
// production and a map in tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabase); ok && v != "" {
		c.Database = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.HTTP.Addr = v
	}
	if v, ok := lookup(EnvInsightURL); ok && v != "" {
		c.Insight.BaseURL = v
	}
	// GROQ_API_KEY wins over the generic API_KEY.
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Insight.APIKey = v
	}
	if v, ok := lookup(EnvGroqKey); ok && v != "" {
		c.Insight.APIKey = v
	}
}

// Validate checks enumerations and required fields.
func (c Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database is required")
	}

	switch c.StockPolicy {
	case StockRevalidate, StockTrustCart:
	default:
		return fmt.Errorf("stock_policy must be %q or %q, got %q", StockRevalidate, StockTrustCart, c.StockPolicy)
	}

	switch c.CorruptPolicy {
	case CorruptFail, CorruptReseed:
	default:
		return fmt.Errorf("corrupt_policy must be %q or %q, got %q", CorruptFail, CorruptReseed, c.CorruptPolicy)
	}

	if c.Insight.Timeout <= 0 {
		return fmt.Errorf("insight.timeout must be positive, got %s", c.Insight.Timeout)
	}
	return nil
}
