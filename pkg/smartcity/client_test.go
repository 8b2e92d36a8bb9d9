package smartcity

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moma1992/smartcity-mcp/internal/errors"
	"github.com/moma1992/smartcity-mcp/internal/ngsi"
)

const (
	testEmail    = "user@example.com"
	testPassword = "secret"
	testAPIKey   = "key-123"
)

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
		<div class="api-item"><h2>避難所</h2><a href="/apis/EvacuationShelter">d</a></div>
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
		w.Write([]byte(`[{"id": "jp.smartcity-yaizu.EvacuationShelter.001"}]`))
	})

	return httptest.NewServer(mux)
}

func newTestClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	client, err := New(
		WithCatalogURL(server.URL),
		WithEntitiesURL(server.URL+"/v2/entities"),
		WithCatalogCredentials(testEmail, testPassword),
		WithAPIKey(testAPIKey),
		WithStoreDir(t.TempDir()),
		WithRateLimit(1000, 1000),
		WithLogLevel("error"),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNew_Defaults(t *testing.T) {
	client, err := New(WithStoreDir(t.TempDir()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	if client.Registry() == nil {
		t.Error("Registry() should not be nil")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(WithCatalogURL(""))
	if err == nil {
		t.Error("New with empty catalog URL should fail validation")
	}
}

func TestNew_BadLogLevel(t *testing.T) {
	_, err := New(WithStoreDir(t.TempDir()), WithLogLevel("bogus"))
	if err == nil {
		t.Error("New with unknown log level should fail")
	}
}

func TestClient_EndToEnd(t *testing.T) {
	server := testPlatform(t)
	defer server.Close()

	client := newTestClient(t, server)
	ctx := context.Background()

	summary, err := client.ScrapeAndStore(ctx)
	if err != nil {
		t.Fatalf("ScrapeAndStore() error = %v", err)
	}
	if summary.Scraped != 1 {
		t.Errorf("Scraped = %d, want 1", summary.Scraped)
	}

	docs, err := client.Search(ctx, "避難")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "EvacuationShelter" {
		t.Errorf("Search() = %+v", docs)
	}

	doc, err := client.Load(ctx, "EvacuationShelter")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Name != "避難所" {
		t.Errorf("Name = %q", doc.Name)
	}

	index, err := client.ListDocuments(ctx)
	if err != nil {
		t.Fatalf("ListDocuments() error = %v", err)
	}
	if len(index) != 1 {
		t.Errorf("index size = %d, want 1", len(index))
	}

	examples, err := client.GenerateCommand(ctx, "EvacuationShelter")
	if err != nil {
		t.Fatalf("GenerateCommand() error = %v", err)
	}
	if len(examples) == 0 {
		t.Error("GenerateCommand() should yield examples")
	}

	result, err := client.Execute(ctx, "EvacuationShelter", ngsi.QueryParameters{Limit: 5})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Count != 1 {
		t.Errorf("Count = %d, want 1", result.Count)
	}

	status, err := client.Status(ctx)
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if status.Documents != 1 || !status.Authenticated {
		t.Errorf("Status() = %+v", status)
	}
}

func TestClient_ScrapeWithoutCredentials(t *testing.T) {
	t.Setenv("SMARTCITY_CATALOG_EMAIL", "")
	t.Setenv("SMARTCITY_CATALOG_PASSWORD", "")

	server := testPlatform(t)
	defer server.Close()

	client, err := New(
		WithCatalogURL(server.URL),
		WithStoreDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer client.Close()

	_, err = client.ScrapeAndStore(context.Background())
	if !errors.IsAuthError(err) {
		t.Errorf("ScrapeAndStore without credentials = %v, want auth error", err)
	}
}
