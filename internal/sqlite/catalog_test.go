// File path: internal/sqlite/catalog_test.go
package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenWithConfig(Config{Path: filepath.Join(t.TempDir(), "catalog", "runs.db")})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleRecord(id, started string) RunRecord {
	return RunRecord{
		Run: Run{
			ID:             id,
			InputRoot:      "/in",
			OutputRoot:     "/out",
			Architecture:   "layered",
			StartedAt:      started,
			FinishedAt:     started,
			Processed:      1,
			Failed:         1,
			GeneratedFiles: 7,
		},
		Processes: []ProcessResult{{
			Folder:      "/in/LoanApp",
			ProcessName: "LoanApp",
			State:       "Done",
			Styles:      "REST",
			OutputDir:   "/out/LoanApp",
			Archive:     "/out/LoanApp_layered.zip",
			Compiled:    true,
			FileCount:   7,
		}},
		Failures: []Failure{{
			Folder:      "/in/Broken",
			ProcessName: "Broken",
			Error:       "render: boom",
		}},
		Report: []byte(`{"processed_folders":["/in/LoanApp"]}`),
	}
}

func TestRecordRunRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	if err := store.RecordRun(ctx, sampleRecord("run-1", "2026-01-02T10:00:00Z")); err != nil {
		t.Fatalf("record run: %v", err)
	}

	runs, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-1" || runs[0].GeneratedFiles != 7 {
		t.Fatalf("unexpected runs: %+v", runs)
	}

	results, err := store.ProcessResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("process results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one process result, got %d", len(results))
	}
	if !results[0].Compiled || results[0].Styles != "REST" || results[0].RunID != "run-1" {
		t.Fatalf("unexpected process result: %+v", results[0])
	}

	failures, err := store.Failures(ctx, "run-1")
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	if len(failures) != 1 || failures[0].Error != "render: boom" {
		t.Fatalf("unexpected failures: %+v", failures)
	}

	report, err := store.Report(ctx, "run-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if string(report) != `{"processed_folders":["/in/LoanApp"]}` {
		t.Fatalf("unexpected report %q", report)
	}
}

func TestRecordRunReplacesExistingRows(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	record := sampleRecord("run-1", "2026-01-02T10:00:00Z")
	if err := store.RecordRun(ctx, record); err != nil {
		t.Fatalf("record run: %v", err)
	}
	record.Failures = nil
	if err := store.RecordRun(ctx, record); err != nil {
		t.Fatalf("record run again: %v", err)
	}
	results, err := store.ProcessResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("process results: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected rows to be replaced, got %d", len(results))
	}
	failures, err := store.Failures(ctx, "run-1")
	if err != nil {
		t.Fatalf("failures: %v", err)
	}
	if len(failures) != 0 {
		t.Fatalf("expected failures to be cleared, got %+v", failures)
	}
}

func TestListRunsNewestFirstWithLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, rec := range []RunRecord{
		sampleRecord("run-a", "2026-01-01T10:00:00Z"),
		sampleRecord("run-c", "2026-01-03T10:00:00Z"),
		sampleRecord("run-b", "2026-01-02T10:00:00Z"),
	} {
		if err := store.RecordRun(ctx, rec); err != nil {
			t.Fatalf("record %s: %v", rec.Run.ID, err)
		}
	}
	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}

func TestRecordRunRequiresID(t *testing.T) {
	store := openTestStore(t)
	if err := store.RecordRun(context.Background(), RunRecord{}); err == nil {
		t.Fatalf("expected error for missing run id")
	}
}

func TestNilStoreIsNotReady(t *testing.T) {
	var store *Store
	if _, err := store.ListRuns(context.Background(), 1); err == nil {
		t.Fatalf("expected error from nil store")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BWMIGRATE_CATALOG_CONFIG_FILE", "")
	t.Setenv("BWMIGRATE_CATALOG_PATH", "/tmp/runs.db")
	t.Setenv("BWMIGRATE_CATALOG_BUSY_TIMEOUT", "2s")
	t.Setenv("BWMIGRATE_CATALOG_MAX_OPEN_CONNS", "")
	t.Setenv("BWMIGRATE_CATALOG_CONN_LIFETIME", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if !cfg.Enabled() || cfg.Path != "/tmp/runs.db" {
		t.Fatalf("unexpected path: %+v", cfg)
	}
	if cfg.BusyTimeout.String() != "2s" {
		t.Fatalf("unexpected busy timeout %v", cfg.BusyTimeout)
	}
	if cfg.MaxOpenConns != 4 || cfg.ConnLifetime.String() != "15m0s" {
		t.Fatalf("unexpected pool defaults: %+v", cfg)
	}
}

func TestLoadConfigFileAndInvalidEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("path: from-file.db\nmax_open_conns: 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BWMIGRATE_CATALOG_CONFIG_FILE", path)
	t.Setenv("BWMIGRATE_CATALOG_PATH", "")
	t.Setenv("BWMIGRATE_CATALOG_MAX_OPEN_CONNS", "")
	t.Setenv("BWMIGRATE_CATALOG_BUSY_TIMEOUT", "")
	t.Setenv("BWMIGRATE_CATALOG_CONN_LIFETIME", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Path != "from-file.db" || cfg.MaxOpenConns != 2 {
		t.Fatalf("unexpected file config: %+v", cfg)
	}
	t.Setenv("BWMIGRATE_CATALOG_BUSY_TIMEOUT", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for invalid busy timeout")
	}
}
