package ngsi

import (
	"strings"
	"testing"

	"github.com/moma1992/smartcity-mcp/internal/catalog"
)

func TestGenerateCommands_MinimalDocument(t *testing.T) {
	doc := &catalog.Document{ID: "DisasterMail", Name: "防災メール"}

	examples := GenerateCommands(doc)
	if len(examples) == 0 {
		t.Fatal("GenerateCommands should always return at least one example")
	}

	for _, ex := range examples {
		if ex.EntityType != "DisasterMail" {
			t.Errorf("EntityType = %q", ex.EntityType)
		}
		if ex.Query == "" {
			t.Errorf("example %q has empty query string", ex.Title)
		}
		if !strings.Contains(ex.Query, "type=DisasterMail") {
			t.Errorf("example %q missing type filter: %s", ex.Title, ex.Query)
		}
	}
}

func TestGenerateCommands_GeoExample(t *testing.T) {
	doc := &catalog.Document{
		ID:   "Aed",
		Name: "AED設置場所",
		Attributes: []catalog.Attribute{
			{Name: "Name", Type: "Text"},
			{Name: "InstallationPosition", Type: "geo:json"},
		},
	}

	examples := GenerateCommands(doc)

	var geo *CommandExample
	for i := range examples {
		if examples[i].Params.GeoRel != "" {
			geo = &examples[i]
			break
		}
	}
	if geo == nil {
		t.Fatal("document with a position attribute should yield a geo example")
	}
	if geo.Params.Geometry != "point" {
		t.Errorf("Geometry = %q", geo.Params.Geometry)
	}
	if geo.Params.Coords != "34.8675,138.3236" {
		t.Errorf("Coords = %q", geo.Params.Coords)
	}
}

func TestGenerateCommands_NoGeoWithoutLocation(t *testing.T) {
	doc := &catalog.Document{
		ID:         "DisasterMail",
		Attributes: []catalog.Attribute{{Name: "Body", Type: "Text"}},
	}

	for _, ex := range GenerateCommands(doc) {
		if ex.Params.GeoRel != "" {
			t.Errorf("document without location attributes yielded geo example %q", ex.Title)
		}
	}
}

func TestGenerateCommands_AttributeFilter(t *testing.T) {
	doc := &catalog.Document{
		ID:         "EvacuationShelter",
		Attributes: []catalog.Attribute{{Name: "ShelterName", Type: "Text"}},
	}

	var filter *CommandExample
	for _, ex := range GenerateCommands(doc) {
		if ex.Params.Query != "" {
			filter = &ex
			break
		}
	}
	if filter == nil {
		t.Fatal("document with a Text attribute should yield an attribute filter example")
	}
	if !strings.Contains(filter.Params.Query, "ShelterName") {
		t.Errorf("filter query = %q", filter.Params.Query)
	}
}

func TestGenerateCommands_IDExample(t *testing.T) {
	doc := &catalog.Document{ID: "Aed"}

	var byID *CommandExample
	for _, ex := range GenerateCommands(doc) {
		if ex.Params.ID != "" {
			byID = &ex
			break
		}
	}
	if byID == nil {
		t.Fatal("expected a single-entity example")
	}
	if byID.Params.ID != "jp.smartcity-yaizu.Aed.001" {
		t.Errorf("ID = %q", byID.Params.ID)
	}
	if byID.Params.Limit != 1 {
		t.Errorf("Limit = %d, want 1", byID.Params.Limit)
	}
}

// All generated examples must validate: the shapes offered to users
// have to be executable as-is.
func TestGenerateCommands_AllValid(t *testing.T) {
	doc := &catalog.Document{
		ID: "StreamGauge",
		Attributes: []catalog.Attribute{
			{Name: "StationName", Type: "Text"},
			{Name: "Location", Type: "geo:json"},
		},
	}

	for _, ex := range GenerateCommands(doc) {
		if err := ex.Params.Validate(); err != nil {
			t.Errorf("example %q does not validate: %v", ex.Title, err)
		}
	}
}
