package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"logq/internal/event"
)

// writeRetries bounds internal retries when another writer holds the
// database. Run number races never surface to callers; after the retries
// are exhausted the underlying error does.
const writeRetries = 5

// WriteRun persists one invocation, its event batch, and its capture
// metadata in a single transaction, and returns the run number assigned.
//
// Run numbers are allocated inside the transaction as MAX(run_number)+1
// over all runs ever stored, so they are dense and never reused even
// across partitions. A conflicting concurrent writer causes an internal
// retry, not a caller-visible error.
//
// The invocation's Date partition key is derived from StartedAt (UTC) when
// unset. Event rows are written exactly as given; the caller owns index
// assignment and fingerprinting.
func (s *Store) WriteRun(ctx context.Context, inv event.Invocation, events []event.Event, meta *event.Metadata) (int64, error) {
	var runNumber int64
	var err error
	for attempt := 0; attempt < writeRetries; attempt++ {
		runNumber, err = s.writeRunOnce(ctx, inv, events, meta)
		if err == nil {
			return runNumber, nil
		}
		if !isBusy(err) {
			return 0, err
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
	return 0, fmt.Errorf("write run: %w", err)
}

func (s *Store) writeRunOnce(ctx context.Context, inv event.Invocation, events []event.Event, meta *event.Metadata) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	defer tx.Rollback()

	var runNumber int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(run_number), 0) + 1 FROM invocations`,
	).Scan(&runNumber)
	if err != nil {
		return 0, fmt.Errorf("allocate run number: %w", err)
	}

	date := inv.Date
	if date == "" {
		date = inv.StartedAt.UTC().Format("2006-01-02")
	}

	var errorCount, warningCount int64
	for _, e := range events {
		switch {
		case event.IsError(e.Severity):
			errorCount++
		case event.IsWarning(e.Severity):
			warningCount++
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO invocations
		(id, run_number, source_name, source_kind, command, cwd,
		 exit_code, timed_out, started_at, duration_ms, date,
		 error_count, warning_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		inv.ID,
		runNumber,
		inv.SourceName,
		string(inv.SourceKind),
		inv.Command,
		inv.CWD,
		nullableInt(inv.ExitCode),
		boolToInt(inv.TimedOut),
		inv.StartedAt.UTC().Format(time.RFC3339Nano),
		inv.Duration.Milliseconds(),
		date,
		errorCount,
		warningCount,
	)
	if err != nil {
		return 0, fmt.Errorf("write invocation: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events
		(invocation_id, event_index, severity, file_path, line_number,
		 column_number, message, tool_name, category, code, fingerprint,
		 log_line_start, log_line_end)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare events: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		_, err = stmt.ExecContext(ctx,
			inv.ID,
			e.EventIndex,
			e.Severity,
			e.FilePath,
			e.LineNumber,
			e.ColumnNumber,
			e.Message,
			e.ToolName,
			e.Category,
			e.Code,
			e.Fingerprint,
			e.LogLineStart,
			e.LogLineEnd,
		)
		if err != nil {
			return 0, fmt.Errorf("write event %d: %w", e.EventIndex, err)
		}
	}

	if meta != nil {
		envJSON, err := marshalStringMap(meta.Environment)
		if err != nil {
			return 0, fmt.Errorf("write metadata: %w", err)
		}
		ciJSON, err := marshalStringMap(meta.CI)
		if err != nil {
			return 0, fmt.Errorf("write metadata: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invocation_meta
			(invocation_id, schema_version, hostname, platform, arch,
			 git_commit, git_branch, git_dirty, environment, ci)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			inv.ID,
			meta.SchemaVersion,
			meta.Hostname,
			meta.Platform,
			meta.Arch,
			meta.GitCommit,
			meta.GitBranch,
			nullableBool(meta.GitDirty),
			envJSON,
			ciJSON,
		)
		if err != nil {
			return 0, fmt.Errorf("write metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runNumber, nil
}

func isBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

func nullableInt(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableBool(v *bool) any {
	if v == nil {
		return nil
	}
	return boolToInt(*v)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
