package catalog

import (
	"encoding/json"
	"time"
)

// Document is the stored, structured representation of one
// catalog-listed API: its schema, endpoints, and examples.
type Document struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Attributes  []Attribute       `json:"attributes,omitempty"`
	Endpoints   []Endpoint        `json:"endpoints,omitempty"`
	Examples    []json.RawMessage `json:"examples,omitempty"`
	Tags        []string          `json:"tags,omitempty"`

	// Partial marks a document whose detail page failed to parse
	// fully; fields are populated as available.
	Partial bool `json:"partial,omitempty"`

	FiwareService     string    `json:"fiware_service,omitempty"`
	FiwareServicePath string    `json:"fiware_service_path,omitempty"`
	SourceURL         string    `json:"source_url,omitempty"`
	ScrapedAt         time.Time `json:"scraped_at"`
}

// Attribute describes one attribute of an entity data model.
type Attribute struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Endpoint describes one documented API endpoint.
type Endpoint struct {
	Method     string   `json:"method,omitempty"`
	Path       string   `json:"path"`
	Parameters []string `json:"parameters,omitempty"`
}

// Credentials holds catalog site authentication material. Loaded once
// at startup, never persisted.
type Credentials struct {
	Email    string
	Password string
}

// Summary aggregates the outcome of a scrape run.
type Summary struct {
	Scraped   int            `json:"scraped"`
	Skipped   int            `json:"skipped"`
	Partial   int            `json:"partial"`
	TagCounts map[string]int `json:"tag_counts"`
	Duration  time.Duration  `json:"duration"`
}

// Result is a completed scrape: the full document set plus the summary.
// Persistence is the document store's responsibility.
type Result struct {
	Documents []Document
	Groupings map[string][]string // tag -> member document IDs
	Summary   Summary
}

// indexEntry is one per-API link parsed from the catalog index page.
type indexEntry struct {
	ID          string
	Name        string
	Description string
	DetailURL   string
}
