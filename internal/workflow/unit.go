// File path: internal/workflow/unit.go
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/nicodishanthj/Katral_bw/internal/classify"
	"github.com/nicodishanthj/Katral_bw/internal/common"
	"github.com/nicodishanthj/Katral_bw/internal/common/telemetry"
	"github.com/nicodishanthj/Katral_bw/internal/ir"
	"github.com/nicodishanthj/Katral_bw/internal/kb"
	"github.com/nicodishanthj/Katral_bw/internal/parser/bw"
	"github.com/nicodishanthj/Katral_bw/internal/parser/xsd"
)

const (
	maxLogEntries   = 500
	insightsPerHint = 3
	contextFileName = "process_context.json"
)

// HintQueries are asked of the knowledge index while planning every unit.
var HintQueries = []string{
	"REST or HTTP service call",
	"JMS messaging operation",
	"SQL database operation",
}

var (
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrNoProcessFiles    = errors.New("no process files")
)

// State is a ProcessUnit lifecycle state.
type State string

const (
	StateDiscovered State = "discovered"
	StateParsing    State = "parsing"
	StatePlanned    State = "planned"
	StateRendered   State = "rendered"
	StateValidated  State = "validated"
	StatePackaged   State = "packaged"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var transitions = map[State]State{
	StateDiscovered: StateParsing,
	StateParsing:    StatePlanned,
	StatePlanned:    StateRendered,
	StateRendered:   StateValidated,
	StateValidated:  StatePackaged,
	StatePackaged:   StateDone,
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// CanTransition reports whether from may move to to. Failed is reachable
// from every non-terminal state.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return transitions[from] == to
}

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

// Unit coordinates one process folder through the lifecycle. A Unit is
// driven by a single goroutine; only the knowledge index is shared.
type Unit struct {
	cfg       Config
	folder    string
	outputDir string
	logger    *slog.Logger

	state    State
	entered  time.Time
	process  *ir.ProcessUnit
	plan     *ir.ProcessPlan
	warnings []string
	logs     []LogEntry
	result   ProcessResult
}

// NewUnit prepares a unit for folder whose output goes to outputDir.
func NewUnit(cfg Config, folder, outputDir string, logger *slog.Logger) *Unit {
	if logger == nil {
		logger = common.Logger()
	}
	u := &Unit{
		cfg:       cfg,
		folder:    folder,
		outputDir: outputDir,
		logger:    logger.With("folder", folder),
		state:     StateDiscovered,
		entered:   time.Now(),
	}
	u.result = ProcessResult{
		ProcessName:    filepath.Base(folder),
		Folder:         folder,
		Architecture:   cfg.Architecture,
		OutputDir:      outputDir,
		GeneratedFiles: []string{},
	}
	return u
}

// State returns the current lifecycle state.
func (u *Unit) State() State {
	return u.state
}

// Process returns the parsed IR, or nil before parsing succeeds.
func (u *Unit) Process() *ir.ProcessUnit {
	return u.process
}

// Plan returns the plan, or nil before planning succeeds.
func (u *Unit) Plan() *ir.ProcessPlan {
	return u.plan
}

func (u *Unit) AppendLog(level, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	u.logs = append(u.logs, LogEntry{Time: time.Now().UTC(), Level: level, Message: text})
	if len(u.logs) > maxLogEntries {
		u.logs = u.logs[len(u.logs)-maxLogEntries:]
	}
	logger := u.logger.With("process", u.result.ProcessName, "state", string(u.state))
	switch level {
	case "error":
		logger.Error(text)
	case "warn":
		logger.Warn(text)
	case "debug":
		logger.Debug(text)
	default:
		logger.Info(text)
	}
}

func (u *Unit) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	u.warnings = append(u.warnings, msg)
	u.AppendLog("warn", "%s", msg)
}

func (u *Unit) transition(to State) error {
	if !CanTransition(u.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, u.state, to)
	}
	now := time.Now()
	telemetry.ObserveStage(string(u.state), now.Sub(u.entered))
	u.state = to
	u.entered = now
	if to.Terminal() {
		telemetry.RecordUnit(string(to))
	}
	return nil
}

// Fail moves the unit to Failed and records err. It is a no-op on a
// terminal unit.
func (u *Unit) Fail(err error) {
	if u.state.Terminal() {
		return
	}
	if err == nil {
		err = errors.New("unknown failure")
	}
	u.result.Error = err.Error()
	u.AppendLog("error", "Process unit failed in %s: %v", u.state, err)
	_ = u.transition(StateFailed)
}

// Analyze parses the folder's schemas and process files and indexes the
// activities. It moves the unit to Parsing; a unit whose process files all
// fail to parse is Failed.
func (u *Unit) Analyze(ctx context.Context, idx *kb.Index) error {
	if err := u.transition(StateParsing); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		u.Fail(err)
		return err
	}
	process, err := u.parse()
	if err != nil {
		u.Fail(err)
		return err
	}
	u.process = process
	u.result.ProcessName = process.Name
	idx.IndexActivities(ctx, process.Name, process.Activities)
	u.AppendLog("info", "Parsed %d activities from %d process file(s)", len(process.Activities), len(process.ProcessFiles))
	return nil
}

func (u *Unit) parse() (*ir.ProcessUnit, error) {
	var schemas []*ir.Schema
	walkErr := filepath.WalkDir(u.folder, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".xsd") {
			return nil
		}
		schema, err := xsd.ParseFile(path)
		if err != nil {
			u.warn("schema %s skipped: %v", u.rel(path), err)
			return nil
		}
		for _, w := range schema.Warnings {
			u.warn("schema %s: %s", u.rel(path), w)
		}
		schemas = append(schemas, schema)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan %s: %w", u.folder, walkErr)
	}
	set := ir.NewSchemaSet(schemas...)

	files, err := processFiles(u.cfg, u.folder)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoProcessFiles, u.folder)
	}
	process := &ir.ProcessUnit{Folder: u.folder, Activities: []ir.Activity{}}
	var firstErr error
	for _, path := range files {
		doc, err := bw.ParseFile(path, set)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			u.warn("process %s skipped: %v", u.rel(path), err)
			continue
		}
		doc.Qualify(u.scope() + "/" + u.rel(path))
		if process.Name == "" {
			process.Name = doc.Name
		}
		process.ProcessFiles = append(process.ProcessFiles, path)
		process.Activities = append(process.Activities, doc.Activities...)
		process.Transitions = append(process.Transitions, doc.Transitions...)
		for _, w := range doc.Warnings {
			u.warn("process %s: %s", u.rel(path), w)
		}
	}
	if len(process.ProcessFiles) == 0 {
		return nil, firstErr
	}
	process.Schemas = set.Types()
	return process, nil
}

// scope names the unit in activity IDs. Output directory names are unique
// within a run.
func (u *Unit) scope() string {
	if u.outputDir != "" {
		return filepath.Base(u.outputDir)
	}
	return filepath.Base(u.folder)
}

func (u *Unit) rel(path string) string {
	if rel, err := filepath.Rel(u.folder, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}

// processFiles lists the process definitions directly inside folder.
func processFiles(cfg Config, folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", folder, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !cfg.IsProcessFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(folder, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// BuildPlan infers styles, attaches knowledge insights and moves the unit
// to Planned. The index must be complete before any unit plans.
func (u *Unit) BuildPlan(ctx context.Context, idx *kb.Index) error {
	if err := u.transition(StatePlanned); err != nil {
		return err
	}
	styles, overridden := classify.FromOverride(u.cfg.ServiceType)
	if !overridden {
		styles = classify.Classify(u.process.Activities)
	}
	plan := &ir.ProcessPlan{
		ProcessName:  u.process.Name,
		PackageRoot:  u.cfg.PackageRoot,
		Styles:       styles,
		Architecture: u.cfg.Architecture,
		Unit:         u.process,
	}
	for _, query := range HintQueries {
		for _, match := range idx.Query(ctx, query, insightsPerHint) {
			if match.Score <= 0 {
				continue
			}
			plan.Insights = append(plan.Insights, ir.Insight{
				Query:         query,
				SourceProcess: match.SourceProcess,
				ActivityID:    match.ActivityID,
				Score:         match.Score,
			})
		}
	}
	u.plan = plan
	u.result.Styles = styles
	u.result.Insights = plan.Insights
	source := "inferred"
	if overridden {
		source = "configured"
	}
	u.AppendLog("info", "Planned %s service (%s) with %s architecture and %d insight(s)", styles, source, plan.Architecture, len(plan.Insights))
	return nil
}

// Render asks renderer for the project files and writes them with the plan
// summary under the unit's output directory.
func (u *Unit) Render(ctx context.Context, renderer Renderer) error {
	if err := u.transition(StateRendered); err != nil {
		return err
	}
	files, err := renderer.Render(ctx, u.plan)
	if err != nil {
		return u.renderFailed(err)
	}
	paths := make([]string, 0, len(files))
	for rel := range files {
		paths = append(paths, rel)
	}
	sort.Strings(paths)
	targets := make([]string, 0, len(paths))
	for _, rel := range paths {
		target, err := u.target(rel)
		if err != nil {
			return u.renderFailed(err)
		}
		targets = append(targets, target)
	}
	if err := os.MkdirAll(u.outputDir, 0o755); err != nil {
		return u.renderFailed(fmt.Errorf("create output directory: %w", err))
	}
	for i, rel := range paths {
		if err := os.MkdirAll(filepath.Dir(targets[i]), 0o755); err != nil {
			return u.renderFailed(err)
		}
		if err := os.WriteFile(targets[i], []byte(files[rel]), 0o644); err != nil {
			return u.renderFailed(err)
		}
	}
	if err := u.writeContext(); err != nil {
		return u.renderFailed(err)
	}
	u.result.GeneratedFiles = targets
	u.AppendLog("info", "Rendered %d file(s) into %s", len(targets), u.outputDir)
	return nil
}

func (u *Unit) renderFailed(err error) error {
	rerr := &ir.RenderError{Process: u.result.ProcessName, Err: err}
	u.Fail(rerr)
	return rerr
}

// target resolves a renderer path inside the output directory.
func (u *Unit) target(rel string) (string, error) {
	if strings.TrimSpace(rel) == "" {
		return "", errors.New("empty file path")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("absolute file path %q", rel)
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("file path %q escapes the output directory", rel)
	}
	return filepath.Join(u.outputDir, cleaned), nil
}

type processContext struct {
	ProcessName  string          `json:"process_name"`
	Folder       string          `json:"folder"`
	ProcessFiles []string        `json:"process_files"`
	Styles       ir.StyleSet     `json:"service_styles"`
	Architecture ir.Architecture `json:"architecture"`
	PackageRoot  string          `json:"package_root"`
	Activities   []ir.Activity   `json:"activities"`
	Transitions  []ir.Transition `json:"transitions,omitempty"`
	Insights     []ir.Insight    `json:"insights,omitempty"`
	Warnings     []string        `json:"warnings,omitempty"`
}

func (u *Unit) writeContext() error {
	files := make([]string, 0, len(u.process.ProcessFiles))
	for _, path := range u.process.ProcessFiles {
		files = append(files, u.rel(path))
	}
	summary := processContext{
		ProcessName:  u.plan.ProcessName,
		Folder:       u.folder,
		ProcessFiles: files,
		Styles:       u.plan.Styles,
		Architecture: u.plan.Architecture,
		PackageRoot:  u.plan.PackageRoot,
		Activities:   u.process.Activities,
		Transitions:  u.process.Transitions,
		Insights:     u.plan.Insights,
		Warnings:     u.warnings,
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", contextFileName, err)
	}
	return os.WriteFile(filepath.Join(u.outputDir, contextFileName), append(data, '\n'), 0o644)
}

// Validate runs validator when one is configured. Failures are recorded on
// the result and never fail the unit.
func (u *Unit) Validate(ctx context.Context, validator Validator) error {
	if err := u.transition(StateValidated); err != nil {
		return err
	}
	if validator == nil {
		u.AppendLog("debug", "Validation skipped")
		return nil
	}
	outcome, err := validator.Validate(ctx, u.outputDir)
	if err != nil {
		verr := &ir.ValidationFailure{OutputDir: u.outputDir, Err: err}
		u.result.ValidationError = verr.Error()
		u.AppendLog("warn", "%v", verr)
		return nil
	}
	u.result.Validation = &outcome
	if outcome.Compiled {
		u.AppendLog("info", "Generated project compiled")
	} else {
		u.AppendLog("warn", "Generated project did not compile: %s", firstLine(outcome.Details))
	}
	return nil
}

// Package archives the output directory when a packager is configured.
// Failures are recorded on the result and never fail the unit.
func (u *Unit) Package(ctx context.Context, packager Packager) error {
	if err := u.transition(StatePackaged); err != nil {
		return err
	}
	if packager == nil {
		u.AppendLog("debug", "Packaging skipped")
		return nil
	}
	archive, err := packager.Archive(ctx, u.outputDir)
	if err != nil {
		perr := &ir.PackagingFailure{OutputDir: u.outputDir, Err: err}
		u.result.PackagingError = perr.Error()
		u.AppendLog("warn", "%v", perr)
		return nil
	}
	u.result.Archive = archive
	u.AppendLog("info", "Packaged project into %s", archive)
	return nil
}

// Finish moves a packaged unit to Done.
func (u *Unit) Finish() error {
	if err := u.transition(StateDone); err != nil {
		return err
	}
	u.AppendLog("info", "Process unit completed")
	return nil
}

// Result snapshots the unit's outcome.
func (u *Unit) Result() ProcessResult {
	result := u.result
	result.State = u.state
	result.Warnings = append([]string(nil), u.warnings...)
	result.Log = append([]LogEntry(nil), u.logs...)
	result.GeneratedFiles = append([]string{}, u.result.GeneratedFiles...)
	return result
}

func firstLine(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		return text[:idx]
	}
	return text
}
