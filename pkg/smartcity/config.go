package smartcity

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all integration layer configuration.
type Config struct {
	// Catalog portal configuration
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// Entity API configuration
	Entity EntityConfig `json:"entity" yaml:"entity"`

	// Document store configuration
	Store StoreConfig `json:"store" yaml:"store"`

	// HTTP client tuning
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Logging configuration
	Log LogConfig `json:"log" yaml:"log"`
}

// CatalogConfig holds catalog portal settings.
type CatalogConfig struct {
	// Base URL of the catalog portal
	BaseURL string `json:"base_url" yaml:"base_url"`

	// Path of the catalog index page
	CatalogPath string `json:"catalog_path" yaml:"catalog_path"`

	// Portal credentials (overridable via SMARTCITY_CATALOG_EMAIL /
	// SMARTCITY_CATALOG_PASSWORD)
	Email    string `json:"email" yaml:"email"`
	Password string `json:"password" yaml:"password"`

	// Concurrent detail page fetches
	DetailConcurrency int `json:"detail_concurrency" yaml:"detail_concurrency"`
}

// EntityConfig holds entity API settings.
type EntityConfig struct {
	// Entities collection endpoint
	EntitiesURL string `json:"entities_url" yaml:"entities_url"`

	// Tenant identifier sent on every request
	FiwareService string `json:"fiware_service" yaml:"fiware_service"`

	// API key (overridable via SMARTCITY_API_KEY)
	APIKey string `json:"api_key" yaml:"api_key"`
}

// StoreConfig holds document store settings.
type StoreConfig struct {
	// Directory holding the cached documents
	Dir string `json:"dir" yaml:"dir"`
}

// HTTPConfig holds HTTP client tuning.
type HTTPConfig struct {
	// Request timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Outbound rate limiting
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`

	// User agent sent on every request
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// DefaultConfig returns a configuration with the verified production
// endpoints and sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:           "https://city-api-catalog.smartcity-pf.com/yaizu",
			CatalogPath:       "/catalog",
			DetailConcurrency: 4,
		},
		Entity: EntityConfig{
			EntitiesURL:   "https://api.smartcity-yaizu.jp/v2/entities",
			FiwareService: "smartcity_yaizu",
		},
		Store: StoreConfig{
			Dir: "api_documents",
		},
		HTTP: HTTPConfig{
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
			Burst:             5,
			UserAgent:         "smartcity-service",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: false,
		},
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	config.ApplyEnv()
	return config, nil
}

// SaveToFile saves configuration to a file. Credentials are written as
// configured; keep the file out of version control.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if len(path) > 5 && path[len(path)-5:] == ".json" {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// ApplyEnv overrides credential fields from the environment. The
// environment wins over the file so secrets can stay out of configs.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("SMARTCITY_CATALOG_EMAIL"); v != "" {
		c.Catalog.Email = v
	}
	if v := os.Getenv("SMARTCITY_CATALOG_PASSWORD"); v != "" {
		c.Catalog.Password = v
	}
	if v := os.Getenv("SMARTCITY_API_KEY"); v != "" {
		c.Entity.APIKey = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Catalog.BaseURL == "" {
		return fmt.Errorf("catalog base URL is required")
	}

	if c.Entity.EntitiesURL == "" {
		return fmt.Errorf("entities URL is required")
	}

	if c.Store.Dir == "" {
		return fmt.Errorf("store directory is required")
	}

	if c.Catalog.DetailConcurrency < 1 {
		return fmt.Errorf("detail concurrency must be at least 1")
	}

	if c.HTTP.RequestsPerSecond <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
