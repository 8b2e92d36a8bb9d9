package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/moma1992/smartcity-mcp/internal/errors"
)

// Resources are read-only projections of the stored catalog. They
// never trigger a scrape or a live query; a cold store yields empty
// projections, not errors.

// StatusReport describes the current state of the local cache.
type StatusReport struct {
	Documents     int            `json:"documents"`
	Authenticated bool           `json:"authenticated"`
	TagCounts     map[string]int `json:"tag_counts,omitempty"`
}

// CatalogSummary renders a one-line-per-document listing of the
// stored catalog.
func (r *Registry) CatalogSummary() (string, error) {
	index, err := r.store.ListSummary()
	if err != nil {
		return "", err
	}
	if len(index) == 0 {
		return "catalog is empty; run scrape_catalog first", nil
	}

	ids := make([]string, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "%d documents\n", len(ids))
	for _, id := range ids {
		entry := index[id]
		fmt.Fprintf(&b, "- %s: %s", id, entry.Name)
		if len(entry.Tags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(entry.Tags, ", "))
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// CatalogDetail renders the full stored document for one ID.
func (r *Registry) CatalogDetail(id string) (string, error) {
	doc, err := r.store.Load(id)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s (%s)\n", doc.Name, doc.ID)
	if doc.Partial {
		b.WriteString("note: detail page could not be fully parsed\n")
	}
	if doc.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", doc.Description)
	}
	if len(doc.Tags) > 0 {
		fmt.Fprintf(&b, "\ntags: %s\n", strings.Join(doc.Tags, ", "))
	}
	if len(doc.Attributes) > 0 {
		b.WriteString("\n## Attributes\n")
		for _, attr := range doc.Attributes {
			fmt.Fprintf(&b, "- %s (%s): %s\n", attr.Name, attr.Type, attr.Description)
		}
	}
	if len(doc.Endpoints) > 0 {
		b.WriteString("\n## Endpoints\n")
		for _, ep := range doc.Endpoints {
			fmt.Fprintf(&b, "- %s %s", ep.Method, ep.Path)
			if len(ep.Parameters) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(ep.Parameters, ", "))
			}
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

// DisasterAPIs renders the disaster-related grouping of the stored
// catalog.
func (r *Registry) DisasterAPIs() (string, error) {
	grouping, err := r.store.LoadGrouping("disaster")
	if err != nil {
		if errors.IsNotFound(err) {
			return "no disaster-related documents stored", nil
		}
		return "", err
	}
	if len(grouping.IDs) == 0 {
		return "no disaster-related documents stored", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d disaster-related documents\n", len(grouping.IDs))
	for _, id := range grouping.IDs {
		fmt.Fprintf(&b, "- %s\n", id)
	}
	return b.String(), nil
}

// MunicipalityInfo renders the static profile of the municipality
// behind the platform. Pure; no store or network access.
func (r *Registry) MunicipalityInfo() string {
	return `# Yaizu Smart City (焼津市)

## Overview
Yaizu is a city in central Shizuoka Prefecture with an active smart
city program built around an open data platform.

## Basic data
- Population: about 140,000
- Area: 70.31 km²
- Incorporated: March 1, 1951
- Known for one of Japan's largest fishing ports (bonito and tuna)

## Platform
The city publishes open data through an authenticated API catalog and
an NGSIv2 entity API, with a focus on disaster prevention: real-time
hazard feeds, evacuation shelter data, and sensor networks.

## Working with this tool
1. scrape_catalog fetches the latest API documentation
2. list_documents shows what is cached locally
3. search finds APIs by keyword
4. generate_command suggests entity queries for a cached API
5. execute runs a live entity query
`
}

// Status reports store size, tag distribution, and whether a catalog
// session is currently authenticated.
func (r *Registry) Status() (*StatusReport, error) {
	index, err := r.store.ListSummary()
	if err != nil {
		return nil, err
	}

	tagCounts := make(map[string]int)
	for _, entry := range index {
		for _, tag := range entry.Tags {
			tagCounts[tag]++
		}
	}
	if len(tagCounts) == 0 {
		tagCounts = nil
	}

	return &StatusReport{
		Documents:     len(index),
		Authenticated: r.scraper.IsAuthenticated(),
		TagCounts:     tagCounts,
	}, nil
}
