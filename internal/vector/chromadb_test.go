// File path: internal/vector/chromadb_test.go
package vector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeChroma struct {
	mu                sync.Mutex
	collectionID      string
	created           bool
	heartbeatFailures int
	upsertMissing     bool
	upsertCalls       int
	addCalls          int
	lastPayload       map[string]interface{}
}

func (f *fakeChroma) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Path == "/api/v1/heartbeat":
		if f.heartbeatFailures > 0 {
			f.heartbeatFailures--
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"nanosecond heartbeat": 1}`))
	case r.URL.Path == "/api/v1/collections" && r.Method == http.MethodGet:
		if !f.created {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"collections": []interface{}{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"collections": []map[string]string{{"id": f.collectionID, "name": "bwmigrate_activities"}},
		})
	case r.URL.Path == "/api/v1/collections" && r.Method == http.MethodPost:
		f.created = true
		_ = json.NewEncoder(w).Encode(map[string]string{"id": f.collectionID})
	case strings.HasSuffix(r.URL.Path, "/upsert"):
		f.upsertCalls++
		if f.upsertMissing {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&f.lastPayload)
	case strings.HasSuffix(r.URL.Path, "/add"):
		f.addCalls++
		_ = json.NewDecoder(r.Body).Decode(&f.lastPayload)
	default:
		http.NotFound(w, r)
	}
}

func testConfig(t *testing.T, serverURL string) Config {
	t.Helper()
	cfg := Config{URL: serverURL, Timeout: time.Second}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	return cfg
}

func TestClientCreatesCollectionAndUpserts(t *testing.T) {
	fake := &fakeChroma{collectionID: "col-1", heartbeatFailures: 1}
	server := httptest.NewServer(fake)
	defer server.Close()

	client, err := New(context.Background(), testConfig(t, server.URL))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer client.Close()
	if !client.Available() {
		t.Fatalf("expected client to become available after retry")
	}
	records := []Record{{ID: "LoanApp:0", Document: "Activity type: inbound-call", Metadata: map[string]string{"source_process": "LoanApp"}, Embedding: []float32{1, 0}}}
	if err := client.Upsert(context.Background(), records); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !fake.created || fake.upsertCalls != 1 {
		t.Fatalf("unexpected fake state created=%v upserts=%d", fake.created, fake.upsertCalls)
	}
	ids, _ := fake.lastPayload["ids"].([]interface{})
	if len(ids) != 1 || ids[0] != "LoanApp:0" {
		t.Fatalf("unexpected payload ids %v", fake.lastPayload["ids"])
	}
}

func TestClientFallsBackToAdd(t *testing.T) {
	fake := &fakeChroma{collectionID: "col-2", created: true, upsertMissing: true}
	server := httptest.NewServer(fake)
	defer server.Close()

	client, _ := New(context.Background(), testConfig(t, server.URL))
	if err := client.Upsert(context.Background(), []Record{{ID: "a", Document: "x"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	fake.mu.Lock()
	defer fake.mu.Unlock()
	if fake.addCalls != 1 {
		t.Fatalf("expected add fallback, got %d calls", fake.addCalls)
	}
}

func TestClientUnavailableServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, err := New(context.Background(), testConfig(t, server.URL))
	if err != nil {
		t.Fatalf("new should not fail: %v", err)
	}
	if client.Available() {
		t.Fatalf("expected unavailable client")
	}
	if err := client.Upsert(context.Background(), []Record{{ID: "a"}}); err == nil {
		t.Fatalf("expected upsert error against unavailable server")
	}
}

func TestLoadConfigFromURL(t *testing.T) {
	t.Setenv("CHROMADB_CONFIG_FILE", "")
	t.Setenv("CHROMADB_HOST", "")
	t.Setenv("CHROMADB_URL", "https://chroma.internal:9000")
	t.Setenv("CHROMADB_COLLECTION", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Enabled || cfg.BaseURL() != "https://chroma.internal:9000/api/v1" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Collection != "bwmigrate_activities" || cfg.Timeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
}

func TestLoadConfigFileWithHostOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chroma.yaml")
	data := "url: http://file-host:8000\ncollection: loans\ntimeout: 3s\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHROMADB_CONFIG_FILE", path)
	t.Setenv("CHROMADB_URL", "")
	t.Setenv("CHROMADB_HOST", "chroma")
	t.Setenv("CHROMADB_PORT", "")
	t.Setenv("CHROMADB_COLLECTION", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.URL != "http://chroma:8000" || cfg.Collection != "loans" || cfg.Timeout != 3*time.Second {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfigRejectsBadEndpoint(t *testing.T) {
	t.Setenv("CHROMADB_CONFIG_FILE", "")
	t.Setenv("CHROMADB_HOST", "")
	t.Setenv("CHROMADB_URL", "chroma:8000")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for endpoint without scheme")
	}
}

func TestLoadConfigDisabledByDefault(t *testing.T) {
	t.Setenv("CHROMADB_CONFIG_FILE", "")
	t.Setenv("CHROMADB_HOST", "")
	t.Setenv("CHROMADB_URL", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Enabled {
		t.Fatalf("expected mirror to be disabled without endpoint")
	}
}

func TestPayloadDropsPartialEmbeddings(t *testing.T) {
	full := toPayload([]Record{{ID: "a", Embedding: []float32{1}}, {ID: "b", Embedding: []float32{0}}})
	if len(full.Embeddings) != 2 {
		t.Fatalf("expected embeddings to be sent, got %+v", full)
	}
	partial := toPayload([]Record{{ID: "a", Embedding: []float32{1}}, {ID: "b"}})
	if partial.Embeddings != nil || len(partial.IDs) != 2 {
		t.Fatalf("expected embeddings to be omitted, got %+v", partial)
	}
}
