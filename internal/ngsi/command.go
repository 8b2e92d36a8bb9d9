package ngsi

import (
	"fmt"
	"strings"

	"github.com/moma1992/smartcity-mcp/internal/catalog"
)

// CommandExample is one suggested query shape for a cached entity
// type. Generated purely from the stored document; no network call.
type CommandExample struct {
	Title      string          `json:"title"`
	EntityType string          `json:"entity_type"`
	Params     QueryParameters `json:"params"`
	Query      string          `json:"query"`
}

// GenerateCommands produces example query shapes for a previously
// scraped document: a basic fetch, a paged fetch, an id filter, and
// geo or attribute filters when the schema supports them. Always
// returns at least one example.
func GenerateCommands(doc *catalog.Document) []CommandExample {
	entityType := doc.ID

	examples := []CommandExample{
		newExample("Basic fetch", entityType, QueryParameters{Limit: 10}),
		newExample("Larger page", entityType, QueryParameters{Limit: 50}),
		newExample("Single entity by id", entityType, QueryParameters{
			ID:    fmt.Sprintf("jp.smartcity-yaizu.%s.001", entityType),
			Limit: 1,
		}),
	}

	// Geo filter example: Yaizu station, 1km radius.
	if hasLocationAttribute(doc) {
		examples = append(examples, newExample("Nearby (1km around Yaizu station)", entityType, QueryParameters{
			GeoRel:   "near;maxDistance:1000",
			Geometry: "point",
			Coords:   "34.8675,138.3236",
			Limit:    20,
		}))
	}

	if attr := firstTextAttribute(doc); attr != "" {
		examples = append(examples, newExample(
			fmt.Sprintf("Filter by %s", attr), entityType, QueryParameters{
				Query: fmt.Sprintf("%s~=.*焼津.*", attr),
				Limit: 30,
			}))
	}

	examples = append(examples, newExample("Counted and ordered", entityType, QueryParameters{
		Limit:   100,
		Options: "count",
		OrderBy: "id",
	}))

	return examples
}

func newExample(title, entityType string, params QueryParameters) CommandExample {
	return CommandExample{
		Title:      title,
		EntityType: entityType,
		Params:     params,
		Query:      params.Encode(entityType).Encode(),
	}
}

func hasLocationAttribute(doc *catalog.Document) bool {
	for _, attr := range doc.Attributes {
		name := strings.ToLower(attr.Name)
		if strings.Contains(name, "latitude") ||
			strings.Contains(name, "longitude") ||
			strings.Contains(name, "location") ||
			strings.Contains(name, "position") {
			return true
		}
	}
	return false
}

func firstTextAttribute(doc *catalog.Document) string {
	for _, attr := range doc.Attributes {
		if strings.EqualFold(attr.Type, "Text") {
			return attr.Name
		}
	}
	return ""
}
