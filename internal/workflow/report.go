// File path: internal/workflow/report.go
package workflow

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/nicodishanthj/Katral_bw/internal/ir"
)

// ReportFileName is written at the root of the output directory.
const ReportFileName = "migration_report.json"

// ProcessResult is the outcome of one ProcessUnit.
type ProcessResult struct {
	ProcessName     string             `json:"process_name"`
	Folder          string             `json:"folder"`
	State           State              `json:"state"`
	Styles          ir.StyleSet        `json:"service_styles,omitempty"`
	Architecture    ir.Architecture    `json:"architecture"`
	OutputDir       string             `json:"output_dir,omitempty"`
	GeneratedFiles  []string           `json:"generated_files"`
	Validation      *ValidationOutcome `json:"validation,omitempty"`
	ValidationError string             `json:"validation_error,omitempty"`
	Archive         string             `json:"archive,omitempty"`
	PackagingError  string             `json:"packaging_error,omitempty"`
	Insights        []ir.Insight       `json:"insights,omitempty"`
	Warnings        []string           `json:"warnings,omitempty"`
	Error           string             `json:"error,omitempty"`
	Log             []LogEntry         `json:"log,omitempty"`
}

// Succeeded reports whether the unit reached Done.
func (r ProcessResult) Succeeded() bool {
	return r.State == StateDone
}

// Failure names a unit that did not reach Done.
type Failure struct {
	ProcessName string `json:"process_name"`
	Folder      string `json:"folder"`
	Error       string `json:"error"`
}

// MigrationReport aggregates every ProcessResult of one run. Processes and
// Failures are sorted by folder.
type MigrationReport struct {
	RunID        string
	InputRoot    string
	OutputRoot   string
	Architecture ir.Architecture
	StartedAt    time.Time
	FinishedAt   time.Time
	Processes    []ProcessResult
	Failures     []Failure
}

// ProcessedFolders lists the folders whose unit reached Done.
func (r *MigrationReport) ProcessedFolders() []string {
	folders := []string{}
	for _, p := range r.Processes {
		if p.Succeeded() {
			folders = append(folders, p.Folder)
		}
	}
	return folders
}

// GeneratedFiles lists every file written by the Renderer, sorted.
func (r *MigrationReport) GeneratedFiles() []string {
	files := []string{}
	for _, p := range r.Processes {
		files = append(files, p.GeneratedFiles...)
	}
	sort.Strings(files)
	return files
}

// Validation maps each validated output directory to its outcome.
func (r *MigrationReport) Validation() map[string]ValidationOutcome {
	out := map[string]ValidationOutcome{}
	for _, p := range r.Processes {
		if p.Validation != nil {
			out[p.OutputDir] = *p.Validation
		}
	}
	return out
}

// Archives lists the produced archives in folder order.
func (r *MigrationReport) Archives() []string {
	archives := []string{}
	for _, p := range r.Processes {
		if p.Archive != "" {
			archives = append(archives, p.Archive)
		}
	}
	return archives
}

type reportJSON struct {
	RunID            string                       `json:"run_id"`
	InputRoot        string                       `json:"input_root,omitempty"`
	OutputRoot       string                       `json:"output_root,omitempty"`
	Architecture     ir.Architecture              `json:"architecture,omitempty"`
	StartedAt        time.Time                    `json:"started_at"`
	FinishedAt       time.Time                    `json:"finished_at"`
	ProcessedFolders []string                     `json:"processed_folders"`
	GeneratedFiles   []string                     `json:"generated_files"`
	Validation       map[string]ValidationOutcome `json:"validation"`
	Archives         []string                     `json:"archives"`
	Processes        []ProcessResult              `json:"processes"`
	Failures         []Failure                    `json:"failures"`
}

// MarshalJSON emits the report contract: processed_folders,
// generated_files, validation and archives, plus run metadata.
func (r *MigrationReport) MarshalJSON() ([]byte, error) {
	processes := r.Processes
	if processes == nil {
		processes = []ProcessResult{}
	}
	failures := r.Failures
	if failures == nil {
		failures = []Failure{}
	}
	return json.Marshal(reportJSON{
		RunID:            r.RunID,
		InputRoot:        r.InputRoot,
		OutputRoot:       r.OutputRoot,
		Architecture:     r.Architecture,
		StartedAt:        r.StartedAt,
		FinishedAt:       r.FinishedAt,
		ProcessedFolders: r.ProcessedFolders(),
		GeneratedFiles:   r.GeneratedFiles(),
		Validation:       r.Validation(),
		Archives:         r.Archives(),
		Processes:        processes,
		Failures:         failures,
	})
}

// WriteReport serializes report to path, replacing any existing file.
func WriteReport(path string, report *MigrationReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("finalize report: %w", err)
	}
	return nil
}
