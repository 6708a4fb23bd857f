// File path: internal/workflow/leader.go
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nicodishanthj/Katral_bw/internal/common"
	"github.com/nicodishanthj/Katral_bw/internal/kb"
	"github.com/nicodishanthj/Katral_bw/internal/sqlite"
	"github.com/nicodishanthj/Katral_bw/internal/vector"
	"github.com/nicodishanthj/Katral_bw/internal/workflow/generator"
)

// RunRecorder persists finished runs.
type RunRecorder interface {
	RecordRun(ctx context.Context, record sqlite.RunRecord) error
}

// Leader discovers process folders and drives every ProcessUnit through its
// lifecycle on a bounded worker pool.
type Leader struct {
	cfg       Config
	renderer  Renderer
	validator Validator
	packager  Packager
	backend   kb.EmbeddingBackend
	mirror    vector.Store
	recorder  RunRecorder
	logger    *slog.Logger

	mu         sync.RWMutex
	lastIndex  *kb.Index
	lastReport *MigrationReport
}

type Option func(*Leader)

func WithRenderer(renderer Renderer) Option {
	return func(l *Leader) {
		l.renderer = renderer
	}
}

// WithValidator replaces the build validator; nil disables validation.
func WithValidator(validator Validator) Option {
	return func(l *Leader) {
		l.validator = validator
	}
}

// WithPackager replaces the zip packager; nil disables packaging.
func WithPackager(packager Packager) Option {
	return func(l *Leader) {
		l.packager = packager
	}
}

// WithBackend selects the embedding backend of every run's index.
func WithBackend(backend kb.EmbeddingBackend) Option {
	return func(l *Leader) {
		l.backend = backend
	}
}

func WithMirror(store vector.Store) Option {
	return func(l *Leader) {
		l.mirror = store
	}
}

func WithRecorder(recorder RunRecorder) Option {
	return func(l *Leader) {
		l.recorder = recorder
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(l *Leader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewLeader validates cfg and wires the default collaborators: the Spring
// renderer, the Maven/Gradle validator and the zip packager.
func NewLeader(cfg Config, opts ...Option) (*Leader, error) {
	if err := cfg.Normalize(); err != nil {
		return nil, fmt.Errorf("workflow config: %w", err)
	}
	l := &Leader{cfg: cfg, logger: common.Logger()}
	l.renderer = generator.NewSpringRenderer(l.logf)
	if cfg.Validate {
		l.validator = NewBuildValidator()
	}
	if cfg.Package {
		l.packager = NewZipPackager(string(cfg.Architecture))
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.renderer == nil {
		return nil, errors.New("workflow: renderer required")
	}
	return l, nil
}

func (l *Leader) logf(level, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	switch level {
	case "error":
		l.logger.Error(text)
	case "warn":
		l.logger.Warn(text)
	case "debug":
		l.logger.Debug(text)
	default:
		l.logger.Info(text)
	}
}

// Config returns the normalized configuration.
func (l *Leader) Config() Config {
	return l.cfg
}

// Index returns the knowledge index of the most recent run.
func (l *Leader) Index() *kb.Index {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastIndex
}

// Report returns the most recent report.
func (l *Leader) Report() *MigrationReport {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastReport
}

// Discover lists the immediate children of inputRoot that directly contain
// a process definition, sorted by path.
func (l *Leader) Discover(inputRoot string) ([]string, error) {
	root, err := filepath.Abs(inputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve input root: %w", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read input root: %w", err)
	}
	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(root, entry.Name())
		files, err := processFiles(l.cfg, folder)
		if err != nil {
			l.logger.Warn("workflow: skipping unreadable folder", "folder", folder, "error", err)
			continue
		}
		if len(files) > 0 {
			folders = append(folders, folder)
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// Run processes folders with at most concurrency units in flight. It always
// returns a report; every failure is recorded on it.
//
// Every unit is parsed and indexed before any unit plans, so the insights a
// unit sees do not depend on scheduling.
func (l *Leader) Run(ctx context.Context, folders []string, concurrency int) *MigrationReport {
	if concurrency < 1 {
		concurrency = 1
	}
	report := &MigrationReport{
		RunID:        uuid.NewString(),
		InputRoot:    l.cfg.InputRoot,
		OutputRoot:   l.outputRoot(),
		Architecture: l.cfg.Architecture,
		StartedAt:    time.Now().UTC(),
	}
	logger := l.logger.With("run_id", report.RunID)
	opts := []kb.Option{kb.WithLogger(logger)}
	if l.mirror != nil {
		opts = append(opts, kb.WithMirror(l.mirror))
	}
	idx := kb.NewIndex(l.backend, opts...)

	sorted := append([]string(nil), folders...)
	sort.Strings(sorted)
	outputDirs := assignOutputDirs(report.OutputRoot, sorted)
	units := make([]*Unit, len(sorted))
	for i, folder := range sorted {
		units[i] = NewUnit(l.cfg, folder, outputDirs[i], logger)
	}
	logger.Info("workflow: run started", "folders", len(units), "concurrency", concurrency, "backend", idx.Backend())

	l.each(units, concurrency, func(u *Unit) {
		_ = u.Analyze(ctx, idx)
	})
	l.each(units, concurrency, func(u *Unit) {
		if u.State().Terminal() {
			return
		}
		if err := l.complete(ctx, u, idx); err != nil {
			u.Fail(err)
		}
	})

	for _, u := range units {
		result := u.Result()
		report.Processes = append(report.Processes, result)
		if !result.Succeeded() {
			report.Failures = append(report.Failures, Failure{
				ProcessName: result.ProcessName,
				Folder:      result.Folder,
				Error:       result.Error,
			})
		}
	}
	report.FinishedAt = time.Now().UTC()
	logger.Info("workflow: run finished",
		"processed", len(report.ProcessedFolders()),
		"failed", len(report.Failures),
		"generated_files", len(report.GeneratedFiles()),
		"elapsed", report.FinishedAt.Sub(report.StartedAt).String())

	l.mu.Lock()
	l.lastIndex = idx
	l.lastReport = report
	l.mu.Unlock()
	return report
}

func (l *Leader) complete(ctx context.Context, u *Unit, idx *kb.Index) error {
	if err := u.BuildPlan(ctx, idx); err != nil {
		return err
	}
	if err := u.Render(ctx, l.renderer); err != nil {
		return err
	}
	if err := u.Validate(ctx, l.validator); err != nil {
		return err
	}
	if err := u.Package(ctx, l.packager); err != nil {
		return err
	}
	return u.Finish()
}

// each runs fn for every unit on a bounded pool. A panic is confined to the
// unit that raised it.
func (l *Leader) each(units []*Unit, concurrency int, fn func(*Unit)) {
	var g errgroup.Group
	g.SetLimit(concurrency)
	for _, u := range units {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					u.Fail(fmt.Errorf("panic: %v", r))
				}
			}()
			fn(u)
			return nil
		})
	}
	_ = g.Wait()
}

func (l *Leader) outputRoot() string {
	root := l.cfg.OutputRoot
	if abs, err := filepath.Abs(root); err == nil {
		return abs
	}
	return root
}

// assignOutputDirs names one output directory per folder after its base
// name. Folders must be sorted; later duplicates get a numeric suffix.
func assignOutputDirs(outputRoot string, folders []string) []string {
	used := map[string]bool{}
	dirs := make([]string, len(folders))
	for i, folder := range folders {
		base := filepath.Base(folder)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		used[strings.ToLower(name)] = true
		dirs[i] = filepath.Join(outputRoot, name)
	}
	return dirs
}

// Execute discovers the configured input root, runs every folder, writes
// migration_report.json and records the run when a recorder is wired.
func (l *Leader) Execute(ctx context.Context) (*MigrationReport, error) {
	if strings.TrimSpace(l.cfg.InputRoot) == "" {
		return nil, errors.New("workflow: input root required")
	}
	folders, err := l.Discover(l.cfg.InputRoot)
	if err != nil {
		return nil, err
	}
	if len(folders) == 0 {
		l.logger.Warn("workflow: no process folders found", "input", l.cfg.InputRoot)
	}
	if err := os.MkdirAll(l.outputRoot(), 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}
	report := l.Run(ctx, folders, l.cfg.Concurrency)
	if err := WriteReport(filepath.Join(report.OutputRoot, ReportFileName), report); err != nil {
		return report, err
	}
	if l.recorder != nil {
		record, err := runRecord(report)
		if err == nil {
			err = l.recorder.RecordRun(ctx, record)
		}
		if err != nil {
			l.logger.Warn("workflow: run catalog update failed", "run_id", report.RunID, "error", err)
		}
	}
	return report, nil
}

func runRecord(report *MigrationReport) (sqlite.RunRecord, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return sqlite.RunRecord{}, fmt.Errorf("encode report: %w", err)
	}
	record := sqlite.RunRecord{
		Run: sqlite.Run{
			ID:             report.RunID,
			InputRoot:      report.InputRoot,
			OutputRoot:     report.OutputRoot,
			Architecture:   string(report.Architecture),
			StartedAt:      report.StartedAt.Format(time.RFC3339Nano),
			FinishedAt:     report.FinishedAt.Format(time.RFC3339Nano),
			Processed:      len(report.ProcessedFolders()),
			Failed:         len(report.Failures),
			GeneratedFiles: len(report.GeneratedFiles()),
		},
		Report: data,
	}
	for _, p := range report.Processes {
		row := sqlite.ProcessResult{
			RunID:       report.RunID,
			Folder:      p.Folder,
			ProcessName: p.ProcessName,
			State:       string(p.State),
			Styles:      p.Styles.String(),
			OutputDir:   p.OutputDir,
			Archive:     p.Archive,
			FileCount:   len(p.GeneratedFiles),
			Warnings:    len(p.Warnings),
		}
		if p.Validation != nil {
			row.Compiled = p.Validation.Compiled
		}
		record.Processes = append(record.Processes, row)
	}
	for _, f := range report.Failures {
		record.Failures = append(record.Failures, sqlite.Failure{
			RunID:       report.RunID,
			Folder:      f.Folder,
			ProcessName: f.ProcessName,
			Error:       f.Error,
		})
	}
	return record, nil
}
