package service

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/moma1992/smartcity-mcp/internal/catalog"
	"github.com/moma1992/smartcity-mcp/internal/docstore"
	"github.com/moma1992/smartcity-mcp/internal/errors"
	"github.com/moma1992/smartcity-mcp/internal/httpclient"
	"github.com/moma1992/smartcity-mcp/internal/logger"
	"github.com/moma1992/smartcity-mcp/internal/ngsi"
)

const (
	testEmail    = "user@example.com"
	testPassword = "secret"
	testAPIKey   = "key-123"
)

// testPlatform serves both the catalog portal and the entity API.
func testPlatform(t *testing.T) *httptest.Server {
	t.Helper()

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte(testEmail+":"+testPassword))

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>landing</body></html>"))
	})
	mux.HandleFunc("/catalog", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != wantAuth {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`
		<html><body>
		<div class="api-item"><h2>避難所</h2><p class="description">避難所の一覧</p><a href="/apis/EvacuationShelter">d</a></div>
		<div class="api-item"><h2>AED設置場所</h2><a href="/apis/Aed">d</a></div>
		</body></html>`))
	})
	mux.HandleFunc("/apis/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`
		<html><body>
		<table><tr><th>属性</th></tr><tr><td>Name</td><td>Text</td></tr></table>
		</body></html>`))
	})
	mux.HandleFunc("/v2/entities", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != testAPIKey {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`[{"id": "jp.smartcity-yaizu.Aed.001", "Name": {"value": "焼津市役所"}}]`))
	})

	return httptest.NewServer(mux)
}

func newTestRegistry(t *testing.T, server *httptest.Server) *Registry {
	t.Helper()

	log := logger.New(logger.Config{Level: logger.Disabled})

	config := httpclient.DefaultConfig()
	config.RequestsPerSecond = 1000
	config.Burst = 1000
	client := httpclient.New(config)

	scraper := catalog.NewScraper(client, catalog.Config{
		BaseURL:           server.URL,
		CatalogPath:       "/catalog",
		DetailConcurrency: 2,
		FiwareService:     "smartcity_yaizu",
	}, log)

	store, err := docstore.New(t.TempDir(), log)
	if err != nil {
		t.Fatalf("docstore.New() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	exec := ngsi.NewClient(client, ngsi.Config{
		EntitiesURL:   server.URL + "/v2/entities",
		FiwareService: "smartcity_yaizu",
	}, ngsi.Credentials{APIKey: testAPIKey}, log)

	return NewRegistry(scraper, store, exec, catalog.Credentials{
		Email:    testEmail,
		Password: testPassword,
	}, log)
}

// =============================================================================
// Registry Tests
// =============================================================================

func TestRegistry_Operations(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	r := newTestRegistry(t, server)

	want := []string{"execute", "generate_command", "list_documents", "load", "scrape_catalog", "search"}
	if got := r.Operations(); !reflect.DeepEqual(got, want) {
		t.Errorf("Operations() = %v, want %v", got, want)
	}
}

func TestRegistry_UnknownOperation(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	r := newTestRegistry(t, server)
	_, err := r.Invoke(context.Background(), "bogus_op", Params{})
	if !errors.IsNotFound(err) {
		t.Errorf("Invoke(bogus) = %v, want not-found error", err)
	}
}

func TestRegistry_EndToEnd(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	r := newTestRegistry(t, server)
	ctx := context.Background()

	// Scrape populates the store.
	outcome, err := r.Invoke(ctx, "scrape_catalog", Params{})
	if err != nil {
		t.Fatalf("scrape_catalog error = %v", err)
	}
	summary, ok := outcome.Data.(catalog.Summary)
	if !ok {
		t.Fatalf("scrape_catalog data type = %T", outcome.Data)
	}
	if summary.Scraped != 2 {
		t.Errorf("Scraped = %d, want 2", summary.Scraped)
	}

	// list_documents sees both.
	outcome, err = r.Invoke(ctx, "list_documents", Params{})
	if err != nil {
		t.Fatalf("list_documents error = %v", err)
	}
	if index := outcome.Data.(docstore.Index); len(index) != 2 {
		t.Errorf("index size = %d, want 2", len(index))
	}

	// search finds the shelter by Japanese keyword.
	outcome, err = r.Invoke(ctx, "search", Params{Keyword: "避難"})
	if err != nil {
		t.Fatalf("search error = %v", err)
	}
	docs := outcome.Data.([]catalog.Document)
	if len(docs) != 1 || docs[0].ID != "EvacuationShelter" {
		t.Errorf("search result = %+v", docs)
	}

	// load returns the full document.
	outcome, err = r.Invoke(ctx, "load", Params{ID: "Aed"})
	if err != nil {
		t.Fatalf("load error = %v", err)
	}
	if doc := outcome.Data.(*catalog.Document); doc.Name != "AED設置場所" {
		t.Errorf("loaded doc = %+v", doc)
	}

	// generate_command works offline from the stored schema.
	outcome, err = r.Invoke(ctx, "generate_command", Params{EntityType: "Aed"})
	if err != nil {
		t.Fatalf("generate_command error = %v", err)
	}
	if examples := outcome.Data.([]ngsi.CommandExample); len(examples) == 0 {
		t.Error("generate_command should yield examples")
	}

	// execute hits the live entity endpoint.
	outcome, err = r.Invoke(ctx, "execute", Params{
		EntityType: "Aed",
		Query:      ngsi.QueryParameters{Limit: 10},
	})
	if err != nil {
		t.Fatalf("execute error = %v", err)
	}
	if result := outcome.Data.(*ngsi.QueryResult); result.Count != 1 {
		t.Errorf("execute Count = %d, want 1", result.Count)
	}
}

func TestRegistry_LoadMissing(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	r := newTestRegistry(t, server)
	_, err := r.Invoke(context.Background(), "load", Params{ID: "NoSuchDoc"})
	if !errors.IsNotFound(err) {
		t.Errorf("load(missing) = %v, want not-found error", err)
	}
}

// =============================================================================
// Resource Tests
// =============================================================================

func TestResources_ColdStore(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	r := newTestRegistry(t, server)

	// A cold store yields empty projections, never errors.
	summary, err := r.CatalogSummary()
	if err != nil {
		t.Fatalf("CatalogSummary() error = %v", err)
	}
	if !strings.Contains(summary, "empty") {
		t.Errorf("cold summary = %q", summary)
	}

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if report.Documents != 0 || report.Authenticated {
		t.Errorf("cold status = %+v", report)
	}
}

func TestResources_AfterScrape(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	r := newTestRegistry(t, server)
	ctx := context.Background()

	if _, err := r.Invoke(ctx, "scrape_catalog", Params{}); err != nil {
		t.Fatalf("scrape_catalog error = %v", err)
	}

	summary, err := r.CatalogSummary()
	if err != nil {
		t.Fatalf("CatalogSummary() error = %v", err)
	}
	if !strings.Contains(summary, "EvacuationShelter") || !strings.Contains(summary, "Aed") {
		t.Errorf("summary missing documents:\n%s", summary)
	}

	detail, err := r.CatalogDetail("EvacuationShelter")
	if err != nil {
		t.Fatalf("CatalogDetail() error = %v", err)
	}
	if !strings.Contains(detail, "避難所") {
		t.Errorf("detail missing name:\n%s", detail)
	}

	disaster, err := r.DisasterAPIs()
	if err != nil {
		t.Fatalf("DisasterAPIs() error = %v", err)
	}
	if !strings.Contains(disaster, "EvacuationShelter") {
		t.Errorf("disaster listing = %q", disaster)
	}

	report, err := r.Status()
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if report.Documents != 2 {
		t.Errorf("Documents = %d, want 2", report.Documents)
	}
	if !report.Authenticated {
		t.Error("Authenticated should be true after scrape")
	}
	if report.TagCounts["disaster"] != 1 {
		t.Errorf("TagCounts = %v", report.TagCounts)
	}
}

func TestResources_MunicipalityInfo(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	r := newTestRegistry(t, server)

	info := r.MunicipalityInfo()
	for _, want := range []string{"焼津市", "70.31", "scrape_catalog"} {
		if !strings.Contains(info, want) {
			t.Errorf("MunicipalityInfo() missing %q", want)
		}
	}
}
