// Package smartcity is the public entry point of the integration
// layer. A Client wires the catalog scraper, the document store, and
// the entity API execution facade behind one configurable surface.
package smartcity

import (
	"context"

	"github.com/moma1992/smartcity-mcp/internal/catalog"
	"github.com/moma1992/smartcity-mcp/internal/docstore"
	"github.com/moma1992/smartcity-mcp/internal/httpclient"
	"github.com/moma1992/smartcity-mcp/internal/logger"
	"github.com/moma1992/smartcity-mcp/internal/ngsi"
	"github.com/moma1992/smartcity-mcp/internal/service"
)

// Client is the integration layer orchestrator.
type Client struct {
	config   *Config
	http     *httpclient.Client
	scraper  *catalog.Scraper
	store    *docstore.Store
	exec     *ngsi.Client
	registry *service.Registry
	logger   *logger.Logger
}

// New creates a client with the given options.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	c.config.ApplyEnv()
	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	if c.logger == nil {
		level, err := logger.ParseLevel(c.config.Log.Level)
		if err != nil {
			return nil, err
		}
		log := logger.New(logger.Config{
			Level:  level,
			Pretty: c.config.Log.Pretty,
		})
		c.logger = log
	}

	if c.http == nil {
		httpConfig := httpclient.DefaultConfig()
		httpConfig.Timeout = c.config.HTTP.Timeout
		httpConfig.RequestsPerSecond = c.config.HTTP.RequestsPerSecond
		httpConfig.Burst = c.config.HTTP.Burst
		if c.config.HTTP.UserAgent != "" {
			httpConfig.UserAgent = c.config.HTTP.UserAgent
		}
		c.http = httpclient.New(httpConfig)
	}

	c.scraper = catalog.NewScraper(c.http, catalog.Config{
		BaseURL:           c.config.Catalog.BaseURL,
		CatalogPath:       c.config.Catalog.CatalogPath,
		DetailConcurrency: c.config.Catalog.DetailConcurrency,
		FiwareService:     c.config.Entity.FiwareService,
	}, c.logger)

	store, err := docstore.New(c.config.Store.Dir, c.logger)
	if err != nil {
		return nil, err
	}
	c.store = store

	c.exec = ngsi.NewClient(c.http, ngsi.Config{
		EntitiesURL:   c.config.Entity.EntitiesURL,
		FiwareService: c.config.Entity.FiwareService,
	}, ngsi.Credentials{APIKey: c.config.Entity.APIKey}, c.logger)

	c.registry = service.NewRegistry(c.scraper, c.store, c.exec, catalog.Credentials{
		Email:    c.config.Catalog.Email,
		Password: c.config.Catalog.Password,
	}, c.logger)

	return c, nil
}

// Registry exposes the operation registry for callers that dispatch
// operations by name.
func (c *Client) Registry() *service.Registry {
	return c.registry
}

// ScrapeAndStore authenticates against the catalog portal, scrapes
// the full catalog, and persists the result.
func (c *Client) ScrapeAndStore(ctx context.Context) (*catalog.Summary, error) {
	outcome, err := c.registry.Invoke(ctx, "scrape_catalog", service.Params{})
	if err != nil {
		return nil, err
	}
	summary := outcome.Data.(catalog.Summary)
	return &summary, nil
}

// Search returns stored documents matching the keyword, name matches
// ranked first.
func (c *Client) Search(ctx context.Context, keyword string) ([]catalog.Document, error) {
	outcome, err := c.registry.Invoke(ctx, "search", service.Params{Keyword: keyword})
	if err != nil {
		return nil, err
	}
	return outcome.Data.([]catalog.Document), nil
}

// Load returns one stored document by ID.
func (c *Client) Load(ctx context.Context, id string) (*catalog.Document, error) {
	outcome, err := c.registry.Invoke(ctx, "load", service.Params{ID: id})
	if err != nil {
		return nil, err
	}
	return outcome.Data.(*catalog.Document), nil
}

// ListDocuments returns the summary index of the store.
func (c *Client) ListDocuments(ctx context.Context) (docstore.Index, error) {
	outcome, err := c.registry.Invoke(ctx, "list_documents", service.Params{})
	if err != nil {
		return nil, err
	}
	return outcome.Data.(docstore.Index), nil
}

// GenerateCommand produces example query shapes for a stored document
// without any network call.
func (c *Client) GenerateCommand(ctx context.Context, entityType string) ([]ngsi.CommandExample, error) {
	outcome, err := c.registry.Invoke(ctx, "generate_command", service.Params{EntityType: entityType})
	if err != nil {
		return nil, err
	}
	return outcome.Data.([]ngsi.CommandExample), nil
}

// Execute runs a live entity query.
func (c *Client) Execute(ctx context.Context, entityType string, params ngsi.QueryParameters) (*ngsi.QueryResult, error) {
	outcome, err := c.registry.Invoke(ctx, "execute", service.Params{
		EntityType: entityType,
		Query:      params,
	})
	if err != nil {
		return nil, err
	}
	return outcome.Data.(*ngsi.QueryResult), nil
}

// Status reports the current state of the local cache.
func (c *Client) Status(ctx context.Context) (*service.StatusReport, error) {
	return c.registry.Status()
}

// Close releases the client's resources.
func (c *Client) Close() error {
	if c.http != nil {
		c.http.Close()
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
