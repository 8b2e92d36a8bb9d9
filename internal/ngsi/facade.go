// Package ngsi executes live queries against the downstream NGSIv2
// entity API using schema knowledge from the document store, and
// generates example query shapes without network calls.
package ngsi

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/moma1992/smartcity-mcp/internal/errors"
	"github.com/moma1992/smartcity-mcp/internal/httpclient"
	"github.com/moma1992/smartcity-mcp/internal/logger"
)

// Config holds entity API configuration.
type Config struct {
	// EntitiesURL is the entities collection endpoint, e.g.
	// https://api.smartcity-yaizu.jp/v2/entities
	EntitiesURL string

	// FiwareService is the tenant identifier sent on every request.
	FiwareService string
}

// DefaultConfig returns the verified production endpoint settings.
func DefaultConfig() Config {
	return Config{
		EntitiesURL:   "https://api.smartcity-yaizu.jp/v2/entities",
		FiwareService: "smartcity_yaizu",
	}
}

// servicePaths maps entity types to the per-type routing segment of
// the multi-tenant addressing scheme. Unknown types fall back to "/".
var servicePaths = map[string]string{
	"Aed":                       "/Aed",
	"EvacuationShelter":         "/EvacuationShelter",
	"DisasterMail":              "/DisasterMail",
	"WeatherAlert":              "/WeatherAlert",
	"WeatherForecast":           "/WeatherForecast",
	"FloodRiskAreaMaxScale":     "/FloodRiskAreaMaxScale",
	"TsunamiEvacuationBuilding": "/TsunamiEvacuationBuilding",
	"DrinkingWaterTank":         "/DrinkingWaterTank",
	"PrecipitationGauge":        "/PrecipitationGauge",
	"CameraInformation":         "/CameraInformation",
	"StreamGauge":               "/StreamGauge",
	"FirstAidStation":           "/FirstAidStation",
	"ReliefHospital":            "/ReliefHospital",
}

// ServicePath returns the service path for an entity type.
func ServicePath(entityType string) string {
	if path, ok := servicePaths[entityType]; ok {
		return path
	}
	return "/"
}

// Credentials holds entity API authentication material.
type Credentials struct {
	APIKey string
}

// RecordSummary is the best-effort extraction of display fields from
// one entity record.
type RecordSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	Address  string `json:"address,omitempty"`
	Position string `json:"position,omitempty"`
}

// QueryResult is the transient, in-memory result of one live query.
type QueryResult struct {
	EntityType    string            `json:"entity_type"`
	ServicePath   string            `json:"service_path"`
	TraceID       string            `json:"trace_id"`
	Status        int               `json:"status"`
	Count         int               `json:"count"`
	Records       []json.RawMessage `json:"records,omitempty"`
	Summaries     []RecordSummary   `json:"summaries,omitempty"`
	RateLimited   bool              `json:"rate_limited"`
	RateRemaining string            `json:"rate_remaining,omitempty"`
	RateReset     string            `json:"rate_reset,omitempty"`
}

// Client is the execution facade over the entity API.
type Client struct {
	http   *httpclient.Client
	config Config
	creds  Credentials
	log    *logger.Logger
}

// NewClient creates an execution facade.
func NewClient(http *httpclient.Client, config Config, creds Credentials, log *logger.Logger) *Client {
	if config.EntitiesURL == "" {
		config = DefaultConfig()
	}
	if log == nil {
		log = logger.Global()
	}
	return &Client{
		http:   http,
		config: config,
		creds:  creds,
		log:    log.WithComponent("ngsi"),
	}
}

// Execute runs a live entity query. Parameters are validated before
// any network call; non-2xx responses are mapped onto the error
// taxonomy with the response body excerpt, never surfaced as raw
// transport errors. A 429 or zero remaining quota flags the result
// rate-limited with the advertised values verbatim; no automatic
// retry is performed.
func (c *Client) Execute(ctx context.Context, entityType string, params QueryParameters) (*QueryResult, error) {
	if entityType == "" {
		return nil, errors.NewValidationError("execute", "entity type is required")
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if c.creds.APIKey == "" {
		return nil, errors.NewAuthError(c.config.EntitiesURL, 0, "entity API key is not configured")
	}

	traceID := uuid.NewString()
	servicePath := ServicePath(entityType)

	headers := map[string]string{
		"Accept":             "application/json",
		"apikey":             c.creds.APIKey,
		"Fiware-Service":     c.config.FiwareService,
		"Fiware-ServicePath": servicePath,
		"x-request-trace-id": traceID,
	}

	resp, err := c.http.Get(ctx, c.config.EntitiesURL, params.Encode(entityType), headers)
	if err != nil {
		return nil, err
	}

	c.log.Event(logger.InfoLevel).
		Str("entity_type", entityType).
		Str("trace_id", traceID).
		Int("status_code", resp.StatusCode).
		Str("rate_remaining", resp.RateRemaining).
		Msg("entity query")

	result := &QueryResult{
		EntityType:    entityType,
		ServicePath:   servicePath,
		TraceID:       traceID,
		Status:        resp.StatusCode,
		RateRemaining: resp.RateRemaining,
		RateReset:     resp.RateReset,
		RateLimited:   resp.RateExhausted(),
	}

	if !resp.IsSuccess() {
		return nil, c.statusError(resp, entityType)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(resp.Body, &records); err != nil {
		return nil, errors.NewParseError(c.config.EntitiesURL, "response_decode", err)
	}

	result.Records = records
	result.Count = len(records)
	result.Summaries = summarizeRecords(records)
	return result, nil
}

// statusError maps a non-2xx response to the error taxonomy, carrying
// a body excerpt so the caller can render an actionable message.
func (c *Client) statusError(resp *httpclient.Response, entityType string) error {
	excerpt := bodyExcerpt(resp.Body)

	switch resp.StatusCode {
	case 401:
		return errors.NewAuthError(resp.URL, 401,
			fmt.Sprintf("API key rejected: %s", excerpt))
	case 403:
		return errors.NewAuthError(resp.URL, 403,
			fmt.Sprintf("access denied, check key permissions and Fiware service settings: %s", excerpt))
	case 404:
		return errors.NewNotFoundError(resp.URL, fmt.Sprintf("entity type %q", entityType))
	case 429:
		return errors.NewRateLimitError(resp.URL, resp.RateRemaining, resp.RateReset)
	default:
		if apiErr := errors.CategorizeHTTPStatus(resp.StatusCode, resp.URL); apiErr != nil {
			apiErr.Message = fmt.Sprintf("%s: %s", apiErr.Message, excerpt)
			return apiErr
		}
		return errors.New(errors.Unknown, resp.URL, "execute",
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, excerpt), nil)
	}
}

func bodyExcerpt(body []byte) string {
	const max = 500
	s := string(body)
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
