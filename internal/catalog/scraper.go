// Package catalog scrapes the municipal API documentation site:
// authenticated index fetch, per-API detail extraction, and topic
// classification. Persistence is left to the document store.
package catalog

import (
	"context"
	"encoding/base64"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/moma1992/smartcity-mcp/internal/errors"
	"github.com/moma1992/smartcity-mcp/internal/httpclient"
	"github.com/moma1992/smartcity-mcp/internal/logger"
)

// Config holds scraper configuration.
type Config struct {
	// BaseURL of the catalog site, e.g.
	// https://city-api-catalog.smartcity-pf.com/yaizu
	BaseURL string

	// CatalogPath is the index page path relative to BaseURL.
	CatalogPath string

	// DetailConcurrency bounds the per-API detail fetch fan-out.
	DetailConcurrency int

	// FiwareService recorded on every scraped document.
	FiwareService string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:           "https://city-api-catalog.smartcity-pf.com/yaizu",
		CatalogPath:       "/catalog",
		DetailConcurrency: 4,
		FiwareService:     "smartcity_yaizu",
	}
}

// Scraper fetches and extracts the API catalog.
type Scraper struct {
	client *httpclient.Client
	config Config
	log    *logger.Logger

	mu            sync.RWMutex
	authHeaders   map[string]string
	authenticated bool
}

// NewScraper creates a scraper over the given HTTP client.
func NewScraper(client *httpclient.Client, config Config, log *logger.Logger) *Scraper {
	if config.BaseURL == "" {
		config = DefaultConfig()
	}
	if config.DetailConcurrency < 1 {
		config.DetailConcurrency = 4
	}
	if log == nil {
		log = logger.Global()
	}
	return &Scraper{
		client: client,
		config: config,
		log:    log.WithComponent("scraper"),
	}
}

// Login authenticates against the catalog site. The site accepts Basic
// auth on the catalog page; a session cookie is picked up from the
// landing page first.
func (s *Scraper) Login(ctx context.Context, creds Credentials) error {
	if creds.Email == "" || creds.Password == "" {
		return errors.NewAuthError(s.config.BaseURL, 0, "catalog credentials are not configured")
	}

	// Landing page establishes the session cookie.
	resp, err := s.client.Get(ctx, s.config.BaseURL, nil, nil)
	if err != nil {
		return err
	}
	if len(resp.Cookies) > 0 {
		s.client.SetCookies(resp.Cookies)
	}

	encoded := base64.StdEncoding.EncodeToString([]byte(creds.Email + ":" + creds.Password))
	headers := map[string]string{
		"Authorization": "Basic " + encoded,
		"Accept":        "application/json, text/html",
	}

	catalogURL := s.config.BaseURL + s.config.CatalogPath
	resp, err = s.client.Get(ctx, catalogURL, nil, headers)
	if err != nil {
		return err
	}

	switch {
	case resp.IsSuccess():
		s.mu.Lock()
		s.authHeaders = headers
		s.authenticated = true
		s.mu.Unlock()
		s.log.Info("catalog login succeeded")
		return nil
	case resp.StatusCode == 401 || resp.StatusCode == 403:
		return errors.NewAuthError(catalogURL, resp.StatusCode, "catalog rejected credentials")
	default:
		return errors.New(errors.Fetch, catalogURL, "login",
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}
}

// IsAuthenticated reports whether a catalog session is established.
func (s *Scraper) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Run performs a full scrape: index fetch, bounded-concurrency detail
// fan-out, classification, and summary aggregation. A detail page that
// fails to fetch or parse yields a partial document; index-level
// failures and cancellation abort the run so a cached document is only
// ever replaced by a freshly fetched one. Requires a prior successful
// Login.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	s.mu.RLock()
	headers := s.authHeaders
	authenticated := s.authenticated
	s.mu.RUnlock()

	if !authenticated {
		return nil, errors.NewAuthError(s.config.BaseURL, 0, "not logged in to the catalog")
	}

	start := time.Now()

	indexURL := s.config.BaseURL + s.config.CatalogPath
	resp, err := s.client.Get(ctx, indexURL, nil, headers)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		if httpErr := errors.CategorizeHTTPStatus(resp.StatusCode, indexURL); httpErr != nil {
			return nil, httpErr
		}
	}

	parser, err := newIndexParser(s.config.BaseURL)
	if err != nil {
		return nil, errors.NewParseError(s.config.BaseURL, "base_url", err)
	}
	entries, skipped, err := parser.parseIndex(string(resp.Body))
	if err != nil {
		return nil, errors.NewParseError(indexURL, "index_parse", err)
	}
	s.log.Infof("catalog index: %d entries, %d links skipped", len(entries), skipped)

	docs, err := s.fetchDetails(ctx, entries, headers)
	if err != nil {
		return nil, err
	}

	// Order-independent aggregation: the fan-out preserves nothing,
	// sort by ID for a stable result set.
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })

	result := &Result{
		Documents: docs,
		Groupings: make(map[string][]string),
		Summary: Summary{
			Skipped:   skipped,
			TagCounts: make(map[string]int),
		},
	}

	for i := range docs {
		result.Summary.Scraped++
		if docs[i].Partial {
			result.Summary.Partial++
		}
		for _, tag := range docs[i].Tags {
			result.Summary.TagCounts[tag]++
			result.Groupings[tag] = append(result.Groupings[tag], docs[i].ID)
		}
	}
	result.Summary.Duration = time.Since(start)

	s.log.Event(logger.InfoLevel).
		Int("scraped", result.Summary.Scraped).
		Int("skipped", result.Summary.Skipped).
		Int("partial", result.Summary.Partial).
		Dur("duration", result.Summary.Duration).
		Msg("scrape completed")

	return result, nil
}

// fetchDetails fans out detail-page fetches with a bounded semaphore
// and joins before returning. Per-entry failures are isolated: the
// entry still yields a (partial) document. Cancellation is not a
// per-entry failure; a cancelled context discards the whole batch so
// unfetched entries are never written out as empty documents.
func (s *Scraper) fetchDetails(ctx context.Context, entries []indexEntry, headers map[string]string) ([]Document, error) {
	docs := make([]Document, len(entries))
	sem := make(chan struct{}, s.config.DetailConcurrency)
	var wg sync.WaitGroup

	for i, entry := range entries {
		wg.Add(1)
		go func(idx int, e indexEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if ctx.Err() != nil {
				return
			}
			docs[idx] = s.fetchOne(ctx, e, headers)
		}(i, entry)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.Categorize(err, s.config.BaseURL)
	}
	return docs, nil
}

func (s *Scraper) fetchOne(ctx context.Context, entry indexEntry, headers map[string]string) Document {
	doc := Document{
		ID:                entry.ID,
		Name:              entry.Name,
		Description:       entry.Description,
		FiwareService:     s.config.FiwareService,
		FiwareServicePath: "/" + entry.ID,
		SourceURL:         entry.DetailURL,
		ScrapedAt:         time.Now().UTC(),
	}

	resp, err := s.client.Get(ctx, entry.DetailURL, nil, headers)
	if err != nil || !resp.IsSuccess() {
		if ctx.Err() != nil {
			// The caller discards the batch on cancellation.
			return doc
		}
		doc.Partial = true
		if err != nil {
			s.log.ScrapeEvent(logger.WarnLevel, entry.ID, entry.DetailURL).
				Err(err).Msg("detail fetch failed, keeping partial document")
		} else {
			s.log.ScrapeEvent(logger.WarnLevel, entry.ID, entry.DetailURL).
				Int("status_code", resp.StatusCode).Msg("detail fetch failed, keeping partial document")
		}
		doc.Tags = Classify(&doc)
		return doc
	}

	attrs, endpoints, examples, ok := parseDetail(string(resp.Body))
	if !ok {
		doc.Partial = true
		s.log.ScrapeEvent(logger.WarnLevel, entry.ID, entry.DetailURL).
			Msg("detail page yielded no structured content")
	}
	doc.Attributes = attrs
	doc.Endpoints = endpoints
	doc.Examples = examples
	doc.Tags = Classify(&doc)
	return doc
}
