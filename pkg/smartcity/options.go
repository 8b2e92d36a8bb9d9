package smartcity

import (
	"time"

	"github.com/moma1992/smartcity-mcp/internal/httpclient"
	"github.com/moma1992/smartcity-mcp/internal/logger"
)

// Option is a functional option for configuring the Client.
type Option func(*Client) error

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(c *Client) error {
		c.config = config
		return nil
	}
}

// WithConfigFile loads the configuration from a file.
func WithConfigFile(path string) Option {
	return func(c *Client) error {
		config, err := LoadFromFile(path)
		if err != nil {
			return err
		}
		c.config = config
		return nil
	}
}

// WithStoreDir sets the document store directory.
func WithStoreDir(dir string) Option {
	return func(c *Client) error {
		c.config.Store.Dir = dir
		return nil
	}
}

// WithCatalogURL sets the catalog portal base URL.
func WithCatalogURL(baseURL string) Option {
	return func(c *Client) error {
		c.config.Catalog.BaseURL = baseURL
		return nil
	}
}

// WithCatalogCredentials sets the portal credentials.
func WithCatalogCredentials(email, password string) Option {
	return func(c *Client) error {
		c.config.Catalog.Email = email
		c.config.Catalog.Password = password
		return nil
	}
}

// WithEntitiesURL sets the entity API endpoint.
func WithEntitiesURL(url string) Option {
	return func(c *Client) error {
		c.config.Entity.EntitiesURL = url
		return nil
	}
}

// WithAPIKey sets the entity API key.
func WithAPIKey(key string) Option {
	return func(c *Client) error {
		c.config.Entity.APIKey = key
		return nil
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		c.config.HTTP.Timeout = timeout
		return nil
	}
}

// WithRateLimit sets the outbound rate limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) error {
		c.config.HTTP.RequestsPerSecond = rps
		c.config.HTTP.Burst = burst
		return nil
	}
}

// WithHTTPClient sets a pre-built HTTP client, overriding the HTTP
// tuning section of the configuration.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) error {
		c.http = hc
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) error {
		c.logger = l
		return nil
	}
}

// WithLogLevel sets the log level.
func WithLogLevel(level string) Option {
	return func(c *Client) error {
		c.config.Log.Level = level
		return nil
	}
}

// WithPrettyLogs enables human-readable console log output.
func WithPrettyLogs(pretty bool) Option {
	return func(c *Client) error {
		c.config.Log.Pretty = pretty
		return nil
	}
}
