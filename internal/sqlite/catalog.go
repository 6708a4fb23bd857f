// File path: internal/sqlite/catalog.go
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const defaultRunLimit = 20

// RecordRun stores a run with its process results and failures in a single
// transaction. Recording the same run id twice replaces the earlier rows.
func (s *Store) RecordRun(ctx context.Context, record RunRecord) error {
	if err := s.ensureReady(); err != nil {
		return err
	}
	if strings.TrimSpace(record.Run.ID) == "" {
		return errors.New("run id required")
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, table := range []string{"failures", "process_results"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE run_id = ?`, record.Run.ID); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, record.Run.ID); err != nil {
			return fmt.Errorf("clear run: %w", err)
		}
		if _, err := tx.NamedExecContext(ctx, `INSERT INTO runs(id, input_root, output_root, architecture, started_at, finished_at, processed, failed, generated_files)
                VALUES(:id, :input_root, :output_root, :architecture, :started_at, :finished_at, :processed, :failed, :generated_files)`, record.Run); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
		if len(record.Report) > 0 {
			if _, err := tx.ExecContext(ctx, `UPDATE runs SET report = ? WHERE id = ?`, string(record.Report), record.Run.ID); err != nil {
				return fmt.Errorf("store report: %w", err)
			}
		}
		for _, result := range record.Processes {
			result.RunID = record.Run.ID
			if _, err := tx.NamedExecContext(ctx, `INSERT INTO process_results(run_id, folder, process_name, state, styles, output_dir, archive, compiled, file_count, warnings)
                        VALUES(:run_id, :folder, :process_name, :state, :styles, :output_dir, :archive, :compiled, :file_count, :warnings)`, result); err != nil {
				return fmt.Errorf("insert process result %s: %w", result.Folder, err)
			}
		}
		for _, failure := range record.Failures {
			failure.RunID = record.Run.ID
			if _, err := tx.NamedExecContext(ctx, `INSERT INTO failures(run_id, folder, process_name, error)
                        VALUES(:run_id, :folder, :process_name, :error)`, failure); err != nil {
				return fmt.Errorf("insert failure %s: %w", failure.Folder, err)
			}
		}
		return nil
	})
}

// ListRuns returns the most recent runs, newest first. A non-positive limit
// falls back to the default page size.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRunLimit
	}
	runs := []Run{}
	if err := s.db.SelectContext(ctx, &runs, `SELECT id, input_root, output_root, architecture, started_at, finished_at, processed, failed, generated_files
                FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	return runs, nil
}

// ProcessResults returns the stored results of a run ordered by folder.
func (s *Store) ProcessResults(ctx context.Context, runID string) ([]ProcessResult, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	results := []ProcessResult{}
	if err := s.db.SelectContext(ctx, &results, `SELECT id, run_id, folder, process_name, state, COALESCE(styles, '') AS styles,
                COALESCE(output_dir, '') AS output_dir, COALESCE(archive, '') AS archive, compiled, file_count, warnings
                FROM process_results WHERE run_id = ? ORDER BY folder`, runID); err != nil {
		return nil, fmt.Errorf("select process results: %w", err)
	}
	return results, nil
}

// Failures returns the stored failures of a run ordered by folder.
func (s *Store) Failures(ctx context.Context, runID string) ([]Failure, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	failures := []Failure{}
	if err := s.db.SelectContext(ctx, &failures, `SELECT id, run_id, folder, COALESCE(process_name, '') AS process_name, error
                FROM failures WHERE run_id = ? ORDER BY folder, id`, runID); err != nil {
		return nil, fmt.Errorf("select failures: %w", err)
	}
	return failures, nil
}

// Report returns the serialized report stored with a run.
func (s *Store) Report(ctx context.Context, runID string) ([]byte, error) {
	if err := s.ensureReady(); err != nil {
		return nil, err
	}
	var report string
	if err := s.db.GetContext(ctx, &report, `SELECT COALESCE(report, '') FROM runs WHERE id = ?`, runID); err != nil {
		return nil, fmt.Errorf("load report: %w", err)
	}
	return []byte(report), nil
}

func (s *Store) ensureReady() error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	return nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
