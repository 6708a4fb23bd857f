// File path: internal/api/server_test.go
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nicodishanthj/Katral_bw/internal/common"
	"github.com/nicodishanthj/Katral_bw/internal/ir"
	"github.com/nicodishanthj/Katral_bw/internal/kb"
	"github.com/nicodishanthj/Katral_bw/internal/sqlite"
	"github.com/nicodishanthj/Katral_bw/internal/workflow"
)

type stubPipeline struct {
	report *workflow.MigrationReport
	index  *kb.Index
}

func (s *stubPipeline) Report() *workflow.MigrationReport { return s.report }

func (s *stubPipeline) Index() *kb.Index { return s.index }

type stubCatalog struct {
	runs      []sqlite.Run
	lastLimit int
	reports   map[string][]byte
}

func (s *stubCatalog) ListRuns(ctx context.Context, limit int) ([]sqlite.Run, error) {
	s.lastLimit = limit
	return s.runs, nil
}

func (s *stubCatalog) Report(ctx context.Context, runID string) ([]byte, error) {
	data, ok := s.reports[runID]
	if !ok {
		return nil, fmt.Errorf("load report: %w", sql.ErrNoRows)
	}
	return data, nil
}

func newPipeline() *stubPipeline {
	idx := kb.NewIndex(nil)
	idx.IndexActivities(context.Background(), "LoanApp", []ir.Activity{
		{ID: "LoanApp:0", Kind: ir.ActivityInboundCall, Name: "ReceiveApplication", Attributes: map[string]string{"transport": "HTTP"}},
		{ID: "LoanApp:1", Kind: ir.ActivityDataAccess, Name: "StoreApplication", Attributes: map[string]string{"sql.statement": "INSERT INTO loans"}},
	})
	report := &workflow.MigrationReport{
		RunID:        "run-1",
		Architecture: ir.ArchitectureLayered,
		Processes: []workflow.ProcessResult{{
			ProcessName:    "LoanApp",
			Folder:         "/in/LoanApp",
			State:          workflow.StateDone,
			OutputDir:      "/out/LoanApp",
			GeneratedFiles: []string{"/out/LoanApp/pom.xml"},
			Validation:     &workflow.ValidationOutcome{Compiled: true, Details: "ok"},
			Archive:        "/out/LoanApp_layered.zip",
		}},
	}
	return &stubPipeline{report: report, index: idx}
}

func newTestServer(t *testing.T, pipeline Pipeline, catalog RunCatalog) *Server {
	t.Helper()
	srv, err := NewServer(pipeline, catalog)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	return srv
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	return rr
}

func TestHealthz(t *testing.T) {
	rr := get(t, newTestServer(t, newPipeline(), nil), "/healthz")
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}
}

func TestNewServerRequiresPipeline(t *testing.T) {
	if _, err := NewServer(nil, nil); err == nil {
		t.Fatalf("expected error without pipeline")
	}
}

func TestReportEndpoint(t *testing.T) {
	rr := get(t, newTestServer(t, newPipeline(), nil), "/v1/report")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var resp struct {
		RunID            string   `json:"run_id"`
		ProcessedFolders []string `json:"processed_folders"`
		GeneratedFiles   []string `json:"generated_files"`
		Validation       map[string]struct {
			Compiled bool   `json:"compiled"`
			Details  string `json:"details"`
		} `json:"validation"`
		Archives []string `json:"archives"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if resp.RunID != "run-1" || len(resp.ProcessedFolders) != 1 || resp.ProcessedFolders[0] != "/in/LoanApp" {
		t.Fatalf("unexpected report %+v", resp)
	}
	if !resp.Validation["/out/LoanApp"].Compiled || len(resp.Archives) != 1 || len(resp.GeneratedFiles) != 1 {
		t.Fatalf("unexpected report contract fields %+v", resp)
	}

	empty := get(t, newTestServer(t, &stubPipeline{}, nil), "/v1/report")
	if empty.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before any run, got %d", empty.Code)
	}
}

func TestKnowledgeSearch(t *testing.T) {
	srv := newTestServer(t, newPipeline(), nil)
	rr := get(t, srv, "/v1/knowledge/search?q=SQL+database+operation&k=1")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Backend string `json:"backend"`
		Results []struct {
			ActivityID    string  `json:"activity_id"`
			SourceProcess string  `json:"source_process"`
			Score         float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if resp.Backend != "lexical" || len(resp.Results) != 1 || resp.Results[0].ActivityID != "LoanApp:1" {
		t.Fatalf("unexpected search response %+v", resp)
	}

	for _, target := range []string{"/v1/knowledge/search", "/v1/knowledge/search?q=sql&k=zero", "/v1/knowledge/search?q=sql&k=-1"} {
		if rr := get(t, srv, target); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rr.Code)
		}
	}
	if rr := get(t, newTestServer(t, &stubPipeline{}, nil), "/v1/knowledge/search?q=sql"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without an index, got %d", rr.Code)
	}
}

func TestRunsEndpoints(t *testing.T) {
	catalog := &stubCatalog{
		runs:    []sqlite.Run{{ID: "run-2", Processed: 3}, {ID: "run-1", Processed: 1}},
		reports: map[string][]byte{"run-1": []byte(`{"run_id":"run-1"}`)},
	}
	srv := newTestServer(t, newPipeline(), catalog)

	rr := get(t, srv, "/v1/runs?limit=2")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var resp struct {
		Runs []sqlite.Run `json:"runs"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode runs: %v", err)
	}
	if len(resp.Runs) != 2 || resp.Runs[0].ID != "run-2" || catalog.lastLimit != 2 {
		t.Fatalf("unexpected runs %+v (limit %d)", resp.Runs, catalog.lastLimit)
	}
	if get(t, srv, "/v1/runs"); catalog.lastLimit != defaultRunLimit {
		t.Fatalf("expected default limit, got %d", catalog.lastLimit)
	}

	report := get(t, srv, "/v1/runs/run-1/report")
	if report.Code != http.StatusOK || strings.TrimSpace(report.Body.String()) != `{"run_id":"run-1"}` {
		t.Fatalf("unexpected stored report %d %q", report.Code, report.Body.String())
	}
	if missing := get(t, srv, "/v1/runs/nope/report"); missing.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown run, got %d", missing.Code)
	}

	disabled := newTestServer(t, newPipeline(), nil)
	if rr := get(t, disabled, "/v1/runs"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 with catalog disabled, got %d", rr.Code)
	}
}

func TestLogsEndpoint(t *testing.T) {
	common.Logger().Warn("api-test: log capture check")
	rr := get(t, newTestServer(t, newPipeline(), nil), "/v1/logs?level=warn")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	var resp struct {
		Entries []struct {
			Level     string `json:"level"`
			Message   string `json:"message"`
			Component string `json:"component"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	found := false
	for _, entry := range resp.Entries {
		if entry.Level != "warn" {
			t.Fatalf("level filter not applied: %+v", entry)
		}
		if entry.Message == "api-test: log capture check" && entry.Component == "api-test" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected captured log entry")
	}
}

func TestLogsEndpointFiltersByProcess(t *testing.T) {
	common.Logger().Info("workflow: parsed", "process", "api-sample-process")
	common.Logger().Info("workflow: parsed", "process", "other-process")
	rr := get(t, newTestServer(t, newPipeline(), nil), "/v1/logs?process=api-sample-process")
	var resp struct {
		Entries []common.LogEntry `json:"entries"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode logs: %v", err)
	}
	if len(resp.Entries) == 0 {
		t.Fatalf("expected entries for the requested process")
	}
	for _, entry := range resp.Entries {
		if entry.Process != "api-sample-process" {
			t.Fatalf("process filter not applied: %+v", entry)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := get(t, newTestServer(t, newPipeline(), nil), "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "bwmigrate_knowledge_entries_total") {
		t.Fatalf("expected knowledge metrics to be exported")
	}
}
