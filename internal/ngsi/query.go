package ngsi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/moma1992/smartcity-mcp/internal/errors"
)

// Maximum page size accepted by the entity API.
const maxLimit = 1000

// QueryParameters holds the optional NGSIv2 query parameters for an
// entity query. Zero values mean "not supplied": an omitted parameter
// is never sent, and never silently defaulted to a wildcard.
type QueryParameters struct {
	// ID filters to a single entity identifier.
	ID string
	// IDPattern filters by identifier regular expression. Mutually
	// exclusive with ID.
	IDPattern string
	// Query is the NGSIv2 attribute filter expression (q).
	Query string
	// GeoRel, Geometry, and Coords form the spatial filter; either all
	// three are supplied or none.
	GeoRel   string
	Geometry string
	Coords   string
	// Limit caps the number of returned records (1..1000). Zero means
	// the server default.
	Limit int
	// Offset skips records for pagination.
	Offset int
	// Attrs restricts the returned attributes.
	Attrs []string
	// OrderBy sets the sort order.
	OrderBy string
	// Options carries NGSIv2 options such as "count" or "keyValues".
	Options string
}

// Validate rejects incompatible or out-of-range parameters before any
// network call.
func (p *QueryParameters) Validate() error {
	if p.Limit < 0 || p.Limit > maxLimit {
		return errors.NewValidationError("execute",
			fmt.Sprintf("limit must be between 1 and %d, got %d", maxLimit, p.Limit))
	}
	if p.Offset < 0 {
		return errors.NewValidationError("execute",
			fmt.Sprintf("offset must not be negative, got %d", p.Offset))
	}
	if p.ID != "" && p.IDPattern != "" {
		return errors.NewValidationError("execute",
			"id and idPattern are mutually exclusive")
	}

	geoSet := 0
	for _, v := range []string{p.GeoRel, p.Geometry, p.Coords} {
		if v != "" {
			geoSet++
		}
	}
	if geoSet != 0 && geoSet != 3 {
		return errors.NewValidationError("execute",
			"spatial filter requires georel, geometry, and coords together")
	}

	return nil
}

// Encode builds the query values for an entity request. The entity
// type filter is always set; optional parameters appear only when
// supplied.
func (p *QueryParameters) Encode(entityType string) url.Values {
	q := url.Values{}
	q.Set("type", entityType)

	if p.ID != "" {
		q.Set("id", p.ID)
	}
	if p.IDPattern != "" {
		q.Set("idPattern", p.IDPattern)
	}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	if p.GeoRel != "" {
		q.Set("georel", p.GeoRel)
		q.Set("geometry", p.Geometry)
		q.Set("coords", p.Coords)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		q.Set("offset", strconv.Itoa(p.Offset))
	}
	if len(p.Attrs) > 0 {
		q.Set("attrs", strings.Join(p.Attrs, ","))
	}
	if p.OrderBy != "" {
		q.Set("orderBy", p.OrderBy)
	}
	if p.Options != "" {
		q.Set("options", p.Options)
	}

	return q
}
