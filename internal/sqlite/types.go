// File path: internal/sqlite/types.go
package sqlite

// Run is one pipeline execution. Timestamps are RFC 3339 text in UTC.
type Run struct {
	ID             string `db:"id" json:"run_id"`
	InputRoot      string `db:"input_root" json:"input_root"`
	OutputRoot     string `db:"output_root" json:"output_root"`
	Architecture   string `db:"architecture" json:"architecture"`
	StartedAt      string `db:"started_at" json:"started_at"`
	FinishedAt     string `db:"finished_at" json:"finished_at"`
	Processed      int    `db:"processed" json:"processed"`
	Failed         int    `db:"failed" json:"failed"`
	GeneratedFiles int    `db:"generated_files" json:"generated_files"`
}

// ProcessResult is the catalog row for one ProcessUnit outcome.
type ProcessResult struct {
	ID          int64  `db:"id" json:"-"`
	RunID       string `db:"run_id" json:"run_id"`
	Folder      string `db:"folder" json:"folder"`
	ProcessName string `db:"process_name" json:"process_name"`
	State       string `db:"state" json:"state"`
	Styles      string `db:"styles" json:"styles"`
	OutputDir   string `db:"output_dir" json:"output_dir"`
	Archive     string `db:"archive" json:"archive,omitempty"`
	Compiled    bool   `db:"compiled" json:"compiled"`
	FileCount   int    `db:"file_count" json:"file_count"`
	Warnings    int    `db:"warnings" json:"warnings"`
}

// Failure is the catalog row for a unit that did not reach Done.
type Failure struct {
	ID          int64  `db:"id" json:"-"`
	RunID       string `db:"run_id" json:"run_id"`
	Folder      string `db:"folder" json:"folder"`
	ProcessName string `db:"process_name" json:"process_name"`
	Error       string `db:"error" json:"error"`
}

// RunRecord groups everything stored for a run.
type RunRecord struct {
	Run       Run
	Processes []ProcessResult
	Failures  []Failure
	// Report is the serialized migration report, stored verbatim.
	Report []byte
}
