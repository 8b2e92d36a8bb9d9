package ngsi

import (
	"testing"

	"github.com/moma1992/smartcity-mcp/internal/errors"
)

func TestQueryParameters_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  QueryParameters
		wantErr bool
	}{
		{"zero value", QueryParameters{}, false},
		{"limit in range", QueryParameters{Limit: 1000}, false},
		{"limit too large", QueryParameters{Limit: 1001}, true},
		{"limit negative", QueryParameters{Limit: -1}, true},
		{"offset negative", QueryParameters{Offset: -1}, true},
		{"id only", QueryParameters{ID: "jp.smartcity-yaizu.Aed.001"}, false},
		{"pattern only", QueryParameters{IDPattern: ".*Aed.*"}, false},
		{"id and pattern together", QueryParameters{ID: "x", IDPattern: "y"}, true},
		{"full geo triple", QueryParameters{
			GeoRel: "near;maxDistance:1000", Geometry: "point", Coords: "34.8675,138.3236",
		}, false},
		{"geo missing coords", QueryParameters{GeoRel: "near;maxDistance:1000", Geometry: "point"}, true},
		{"geo only coords", QueryParameters{Coords: "34.8675,138.3236"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr {
				if !errors.IsValidationError(err) {
					t.Errorf("Validate() = %v, want validation error", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestQueryParameters_Encode(t *testing.T) {
	params := QueryParameters{
		Query:    "temperature>20",
		GeoRel:   "near;maxDistance:1000",
		Geometry: "point",
		Coords:   "34.8675,138.3236",
		Limit:    100,
		Offset:   50,
		Attrs:    []string{"Name", "EquipmentAddress"},
		OrderBy:  "id",
		Options:  "count",
	}

	q := params.Encode("Aed")

	if q.Get("type") != "Aed" {
		t.Errorf("type = %q, want Aed", q.Get("type"))
	}
	if q.Get("q") != "temperature>20" {
		t.Errorf("q = %q", q.Get("q"))
	}
	if q.Get("georel") != "near;maxDistance:1000" {
		t.Errorf("georel = %q", q.Get("georel"))
	}
	if q.Get("coords") != "34.8675,138.3236" {
		t.Errorf("coords = %q", q.Get("coords"))
	}
	if q.Get("limit") != "100" {
		t.Errorf("limit = %q", q.Get("limit"))
	}
	if q.Get("offset") != "50" {
		t.Errorf("offset = %q", q.Get("offset"))
	}
	if q.Get("attrs") != "Name,EquipmentAddress" {
		t.Errorf("attrs = %q", q.Get("attrs"))
	}
	if q.Get("orderBy") != "id" {
		t.Errorf("orderBy = %q", q.Get("orderBy"))
	}
	if q.Get("options") != "count" {
		t.Errorf("options = %q", q.Get("options"))
	}
}

// Zero-value fields are never sent: an omitted parameter means absence,
// not a wildcard.
func TestQueryParameters_EncodeOmitsZeroValues(t *testing.T) {
	params := QueryParameters{}
	q := params.Encode("Aed")

	if len(q) != 1 {
		t.Errorf("query has %d keys, want only type: %v", len(q), q)
	}
	for _, key := range []string{"id", "idPattern", "q", "georel", "geometry", "coords", "limit", "offset", "attrs", "orderBy", "options"} {
		if q.Has(key) {
			t.Errorf("zero-value parameter %q should not be sent", key)
		}
	}
}
