// Package query answers status, history, error listing, and run diff
// requests over the store. Every query carries a total ORDER BY so results
// are deterministic, and all values are parameterized.
package query

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"logq/internal/event"
	"logq/internal/store"
)

// Engine composes read queries against one store.
type Engine struct {
	store *store.Store
	log   *slog.Logger
	now   func() time.Time
}

// New creates an engine. A nil logger discards; a nil clock uses time.Now.
func New(s *store.Store, log *slog.Logger, now func() time.Time) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if now == nil {
		now = time.Now
	}
	return &Engine{store: s, log: log, now: now}
}

// SourceStatus is the latest known state of one source.
type SourceStatus struct {
	Source       string           `json:"source"`
	Kind         event.SourceKind `json:"kind"`
	RunNumber    int64            `json:"run"`
	Badge        event.Badge      `json:"badge"`
	ErrorCount   int64            `json:"errors"`
	WarningCount int64            `json:"warnings"`
	ExitCode     *int64           `json:"exit_code"`
	TimedOut     bool             `json:"timed_out,omitempty"`
	StartedAt    time.Time        `json:"started_at"`
	Age          time.Duration    `json:"-"`
}

// Status reports the most recent run of every source, ordered by source
// name. "Most recent" follows history order: started_at with run_number
// breaking ties.
func (e *Engine) Status(ctx context.Context) ([]SourceStatus, error) {
	runs, err := e.store.ListRuns(ctx, 0, "")
	if err != nil {
		return nil, err
	}

	now := e.now()
	seen := map[string]bool{}
	var out []SourceStatus
	for _, run := range runs {
		if seen[run.SourceName] {
			continue
		}
		seen[run.SourceName] = true
		out = append(out, statusOf(run, now))
	}
	sortStatuses(out)
	return out, nil
}

// History lists runs newest first, optionally filtered to one source.
// Zero limit means all.
func (e *Engine) History(ctx context.Context, limit int64, source string) ([]SourceStatus, error) {
	runs, err := e.store.ListRuns(ctx, limit, source)
	if err != nil {
		return nil, err
	}
	now := e.now()
	out := make([]SourceStatus, 0, len(runs))
	for _, run := range runs {
		out = append(out, statusOf(run, now))
	}
	return out, nil
}

func statusOf(run store.Run, now time.Time) SourceStatus {
	return SourceStatus{
		Source:       run.SourceName,
		Kind:         run.SourceKind,
		RunNumber:    run.RunNumber,
		Badge:        event.BadgeFor(run.ErrorCount, run.WarningCount),
		ErrorCount:   run.ErrorCount,
		WarningCount: run.WarningCount,
		ExitCode:     run.ExitCode,
		TimedOut:     run.TimedOut,
		StartedAt:    run.StartedAt,
		Age:          now.Sub(run.StartedAt),
	}
}

func sortStatuses(statuses []SourceStatus) {
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Source < statuses[j].Source
	})
}
