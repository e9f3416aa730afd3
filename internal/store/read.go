package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"logq/internal/event"
)

// Run is one stored invocation together with its persisted severity
// tallies.
type Run struct {
	event.Invocation
	ErrorCount   int64
	WarningCount int64
}

const invocationCols = `id, run_number, source_name, source_kind, command, cwd,
	exit_code, timed_out, started_at, duration_ms, date, error_count, warning_count`

const eventCols = `invocation_id, event_index, severity, file_path, line_number,
	column_number, message, tool_name, category, code, fingerprint,
	log_line_start, log_line_end`

// RunByNumber fetches one run by its run number.
// Returns NoSuchInvocationError when the number names nothing.
func (s *Store) RunByNumber(ctx context.Context, runNumber int64) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invocationCols+`
		FROM invocations
		WHERE run_number = ?
	`, runNumber)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, &NoSuchInvocationError{RunNumber: runNumber}
	}
	if err != nil {
		return Run{}, fmt.Errorf("run %d: %w", runNumber, err)
	}
	return run, nil
}

// ListRuns returns runs newest first: started_at DESC with run_number DESC
// breaking ties, so the order is total and stable. A zero limit means no
// limit; a non-empty source filters by source name.
func (s *Store) ListRuns(ctx context.Context, limit int64, source string) ([]Run, error) {
	q := `SELECT ` + invocationCols + ` FROM invocations`
	var args []any
	if source != "" {
		q += ` WHERE source_name = ?`
		args = append(args, source)
	}
	q += ` ORDER BY started_at DESC, run_number DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LatestRunNumbers returns the run numbers of the n most recent runs,
// newest first.
func (s *Store) LatestRunNumbers(ctx context.Context, n int) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_number FROM invocations
		ORDER BY started_at DESC, run_number DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("latest runs: %w", err)
	}
	defer rows.Close()

	var nums []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("latest runs: %w", err)
		}
		nums = append(nums, n)
	}
	return nums, rows.Err()
}

// EventsByRun returns a run's events in index order.
// Returns NoSuchInvocationError when the run does not exist; a run with no
// events returns an empty slice.
func (s *Store) EventsByRun(ctx context.Context, runNumber int64) ([]event.Event, error) {
	run, err := s.RunByNumber(ctx, runNumber)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+eventCols+`
		FROM events
		WHERE invocation_id = ?
		ORDER BY event_index ASC
	`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("events for run %d: %w", runNumber, err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("events for run %d: %w", runNumber, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// EventByRef resolves a reference to its event and owning run.
// A missing run is NoSuchInvocationError; an existing run without the
// indexed event is NoSuchEventError. The two never blur.
func (s *Store) EventByRef(ctx context.Context, ref event.Ref) (event.Event, Run, error) {
	run, err := s.RunByNumber(ctx, ref.RunNumber)
	if err != nil {
		return event.Event{}, Run{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+eventCols+`
		FROM events
		WHERE invocation_id = ? AND event_index = ?
	`, run.ID, ref.EventIndex)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, Run{}, &NoSuchEventError{
			RunNumber:  ref.RunNumber,
			EventIndex: ref.EventIndex,
		}
	}
	if err != nil {
		return event.Event{}, Run{}, fmt.Errorf("event %s: %w", ref, err)
	}
	return e, run, nil
}

// MetadataByRun returns the capture metadata side row, or nil when the run
// recorded none. Corrupt JSON blobs come back as an error; aggregate
// queries treat that as a skippable row, direct lookups surface it.
func (s *Store) MetadataByRun(ctx context.Context, runNumber int64) (*event.Metadata, error) {
	run, err := s.RunByNumber(ctx, runNumber)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT schema_version, hostname, platform, arch, git_commit,
		       git_branch, git_dirty, environment, ci
		FROM invocation_meta
		WHERE invocation_id = ?
	`, run.ID)

	var meta event.Metadata
	var gitDirty sql.NullInt64
	var envJSON, ciJSON string
	err = row.Scan(&meta.SchemaVersion, &meta.Hostname, &meta.Platform,
		&meta.Arch, &meta.GitCommit, &meta.GitBranch, &gitDirty,
		&envJSON, &ciJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("metadata for run %d: %w", runNumber, err)
	}
	if gitDirty.Valid {
		dirty := gitDirty.Int64 != 0
		meta.GitDirty = &dirty
	}
	if meta.Environment, err = unmarshalStringMap(envJSON); err != nil {
		return nil, fmt.Errorf("metadata for run %d: %w", runNumber, err)
	}
	if meta.CI, err = unmarshalStringMap(ciJSON); err != nil {
		return nil, fmt.Errorf("metadata for run %d: %w", runNumber, err)
	}
	return &meta, nil
}

// ReadPartition returns the runs of a single (date, kind) partition,
// oldest first.
func (s *Store) ReadPartition(ctx context.Context, key event.PartitionKey) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+invocationCols+`
		FROM invocations
		WHERE date = ? AND source_kind = ?
		ORDER BY run_number ASC
	`, key.Date, string(key.Kind))
	if err != nil {
		return nil, fmt.Errorf("partition %s: %w", key, err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("partition %s: %w", key, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var kind, startedAt string
	var exitCode sql.NullInt64
	var timedOut int64
	var durationMS int64
	err := row.Scan(&run.ID, &run.RunNumber, &run.SourceName, &kind,
		&run.Command, &run.CWD, &exitCode, &timedOut, &startedAt,
		&durationMS, &run.Date, &run.ErrorCount, &run.WarningCount)
	if err != nil {
		return Run{}, err
	}
	run.SourceKind = event.SourceKind(kind)
	if exitCode.Valid {
		v := exitCode.Int64
		run.ExitCode = &v
	}
	run.TimedOut = timedOut != 0
	run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return Run{}, fmt.Errorf("bad started_at %q: %w", startedAt, err)
	}
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return run, nil
}

func scanEvent(row rowScanner) (event.Event, error) {
	var e event.Event
	err := row.Scan(&e.InvocationID, &e.EventIndex, &e.Severity, &e.FilePath,
		&e.LineNumber, &e.ColumnNumber, &e.Message, &e.ToolName,
		&e.Category, &e.Code, &e.Fingerprint, &e.LogLineStart, &e.LogLineEnd)
	if err != nil {
		return event.Event{}, err
	}
	return e, nil
}
