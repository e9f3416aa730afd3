package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"logq/internal/event"
)

// EventFilter narrows an event listing. Zero values mean "no constraint".
type EventFilter struct {
	// Limit caps the number of rows; zero means all.
	Limit int64

	// Runs restricts to specific run numbers, typically resolved from a
	// run selector.
	Runs []int64

	// Source restricts to one source name.
	Source string

	// FilePattern is a SQL LIKE pattern matched against the file path.
	FilePattern string
}

// EventRow is one listed event with enough run context to render it and
// the reference that addresses it.
type EventRow struct {
	event.Event
	Ref       event.Ref `json:"ref"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"started_at"`
}

// Errors lists error-class events, newest run first, emission order within
// a run.
func (e *Engine) Errors(ctx context.Context, f EventFilter) ([]EventRow, error) {
	return e.listEvents(ctx, []string{event.SeverityError, event.SeverityFatal}, f)
}

// Warnings lists warning events under the same ordering as Errors.
func (e *Engine) Warnings(ctx context.Context, f EventFilter) ([]EventRow, error) {
	return e.listEvents(ctx, []string{event.SeverityWarning}, f)
}

// listEvents compiles one parameterized SELECT over events joined to their
// invocations. The ORDER BY is total: run recency, then run number, then
// emission order.
func (e *Engine) listEvents(ctx context.Context, severities []string, f EventFilter) ([]EventRow, error) {
	var where []string
	var args []any

	where = append(where, "ev.severity IN ("+placeholders(len(severities))+")")
	for _, s := range severities {
		args = append(args, s)
	}
	if len(f.Runs) > 0 {
		where = append(where, "i.run_number IN ("+placeholders(len(f.Runs))+")")
		for _, r := range f.Runs {
			args = append(args, r)
		}
	}
	if f.Source != "" {
		where = append(where, "i.source_name = ?")
		args = append(args, f.Source)
	}
	if f.FilePattern != "" {
		where = append(where, "ev.file_path LIKE ?")
		args = append(args, f.FilePattern)
	}

	q := `
		SELECT ev.invocation_id, ev.event_index, ev.severity, ev.file_path,
		       ev.line_number, ev.column_number, ev.message, ev.tool_name,
		       ev.category, ev.code, ev.fingerprint, ev.log_line_start,
		       ev.log_line_end,
		       i.run_number, i.source_name, i.started_at
		FROM events ev
		JOIN invocations i ON i.id = ev.invocation_id
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY i.started_at DESC, i.run_number DESC, ev.event_index ASC`
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := e.store.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []EventRow
	for rows.Next() {
		var r EventRow
		var startedAt string
		err := rows.Scan(&r.InvocationID, &r.EventIndex, &r.Severity,
			&r.FilePath, &r.LineNumber, &r.ColumnNumber, &r.Message,
			&r.ToolName, &r.Category, &r.Code, &r.Fingerprint,
			&r.LogLineStart, &r.LogLineEnd,
			&r.Ref.RunNumber, &r.Source, &startedAt)
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		r.Ref.EventIndex = r.EventIndex
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("list events: bad started_at %q: %w", startedAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ResolveRuns turns a run selector into concrete run numbers, newest first
// for "last" selectors. An explicit number must exist.
func (e *Engine) ResolveRuns(ctx context.Context, sel event.RunSelector) ([]int64, error) {
	if sel.Run > 0 {
		if _, err := e.store.RunByNumber(ctx, sel.Run); err != nil {
			return nil, err
		}
		return []int64{sel.Run}, nil
	}
	return e.store.LatestRunNumbers(ctx, sel.Last)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
