package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nishad/geopool/internal/paths"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default upstream base URLs
const (
	DefaultENABrowserURL = "https://www.ebi.ac.uk/ena/browser/api"
	DefaultEBISearchURL  = "https://www.ebi.ac.uk/ebisearch/ws/rest"
	DefaultEutilsURL     = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"
	DefaultRNASeqerURL   = "https://www.ebi.ac.uk/fg/rnaseq/api/json"
)

// Environment variables that override the API base URLs
const (
	EnvENABrowserURL = "GEOPOOL_ENA_API_URL"
	EnvEBISearchURL  = "GEOPOOL_EBISEARCH_API_URL"
	EnvEutilsURL     = "GEOPOOL_EUTILS_API_URL"
	EnvRNASeqerURL   = "GEOPOOL_RNASEQER_API_URL"
)

// Config represents the geopool configuration
type Config struct {
	APIs     APIConfig      `yaml:"apis"`
	HTTP     HTTPConfig     `yaml:"http"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// APIConfig holds the base URLs of the upstream registries
type APIConfig struct {
	ENABrowser string `yaml:"ena_browser"` // ENA browser API (XML search)
	EBISearch  string `yaml:"ebi_search"`  // EBI search REST API
	Eutils     string `yaml:"eutils"`      // NCBI E-utilities
	RNASeqer   string `yaml:"rnaseqer"`    // RNASeq-er JSON API
}

// HTTPConfig controls the shared upstream client
type HTTPConfig struct {
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	MaxRetries        int     `yaml:"max_retries"`        // retries after the first attempt
	RetryWaitSeconds  int     `yaml:"retry_wait_seconds"` // wait before each retry
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent"`
}

// PipelineConfig holds run defaults that CLI flags can override
type PipelineConfig struct {
	Limit       int `yaml:"limit"`       // ENA result set bound
	Concurrency int `yaml:"concurrency"` // parallel resolver lookups
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		APIs: APIConfig{
			ENABrowser: DefaultENABrowserURL,
			EBISearch:  DefaultEBISearchURL,
			Eutils:     DefaultEutilsURL,
			RNASeqer:   DefaultRNASeqerURL,
		},
		HTTP: HTTPConfig{
			TimeoutSeconds:    120,
			MaxRetries:        1,
			RetryWaitSeconds:  20,
			RequestsPerSecond: 3, // eutils limit without an API key
			UserAgent:         "geopool",
		},
		Pipeline: PipelineConfig{
			Limit:       100000,
			Concurrency: 1,
		},
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overlays the API base URL environment variables onto c.
func (c *Config) ApplyEnv() {
	v := viper.New()
	bindings := []struct {
		key    string
		env    string
		target *string
	}{
		{"apis.ena_browser", EnvENABrowserURL, &c.APIs.ENABrowser},
		{"apis.ebi_search", EnvEBISearchURL, &c.APIs.EBISearch},
		{"apis.eutils", EnvEutilsURL, &c.APIs.Eutils},
		{"apis.rnaseqer", EnvRNASeqerURL, &c.APIs.RNASeqer},
	}

	for _, b := range bindings {
		_ = v.BindEnv(b.key, b.env)
		if s := v.GetString(b.key); s != "" {
			*b.target = s
		}
	}
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	if c.HTTP.MaxRetries < 0 {
		return fmt.Errorf("http.max_retries must not be negative, got %d", c.HTTP.MaxRetries)
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("http.requests_per_second must not be negative, got %v", c.HTTP.RequestsPerSecond)
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline.concurrency must be at least 1, got %d", c.Pipeline.Concurrency)
	}
	return nil
}

// Timeout returns the per-request timeout
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// RetryWait returns the wait before each retry
func (c *Config) RetryWait() time.Duration {
	return time.Duration(c.HTTP.RetryWaitSeconds) * time.Second
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	if path := os.Getenv("GEOPOOL_CONFIG"); path != "" {
		return path
	}

	if _, err := os.Stat("geopool.yaml"); err == nil {
		return "geopool.yaml"
	}

	return paths.GetConfigFilePath()
}
