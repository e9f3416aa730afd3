package store

import (
	"context"
	"testing"
	"time"

	"logq/internal/event"
)

func TestPrune_WholePartitionsOnly(t *testing.T) {
	s := createTestStore(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	old := createTestInvocation("build", event.SourceRun, now.AddDate(0, 0, -40))
	mid := createTestInvocation("build", event.SourceRun, now.AddDate(0, 0, -10))
	fresh := createTestInvocation("build", event.SourceRun, now)
	writeTestRun(t, s, old, []event.Event{testEvent("error", "stale failure")})
	midRun := writeTestRun(t, s, mid, nil)
	freshRun := writeTestRun(t, s, fresh, nil)

	// Dry run reports the doomed partition without touching it.
	report, err := s.Prune(context.Background(), 30, true, now)
	if err != nil {
		t.Fatalf("Prune(dry) failed: %v", err)
	}
	if !report.DryRun {
		t.Error("report.DryRun = false")
	}
	if len(report.Partitions) != 1 || report.Runs != 1 || report.Events != 1 {
		t.Fatalf("dry report = %+v, want one partition, one run, one event", report)
	}
	if _, err := s.RunByNumber(context.Background(), 1); err != nil {
		t.Fatalf("dry run deleted data: %v", err)
	}

	// Real prune removes the same set.
	real, err := s.Prune(context.Background(), 30, false, now)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if real.Runs != report.Runs || len(real.Partitions) != len(report.Partitions) {
		t.Errorf("real report %+v != dry report %+v", real, report)
	}

	if _, err := s.RunByNumber(context.Background(), 1); err == nil {
		t.Error("pruned run still readable")
	}
	for _, keep := range []int64{midRun, freshRun} {
		if _, err := s.RunByNumber(context.Background(), keep); err != nil {
			t.Errorf("run %d inside retention was pruned: %v", keep, err)
		}
	}

	// Event rows went with their invocation.
	var orphans int
	err = s.db.QueryRow(`
		SELECT COUNT(*) FROM events e
		WHERE NOT EXISTS (SELECT 1 FROM invocations i WHERE i.id = e.invocation_id)
	`).Scan(&orphans)
	if err != nil {
		t.Fatalf("orphan query failed: %v", err)
	}
	if orphans != 0 {
		t.Errorf("orphaned events = %d, want 0 (cascade)", orphans)
	}
}

func TestPrune_RunNumbersNotReused(t *testing.T) {
	s := createTestStore(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	writeTestRun(t, s, createTestInvocation("build", event.SourceRun, now.AddDate(0, 0, -40)), nil)
	writeTestRun(t, s, createTestInvocation("build", event.SourceRun, now), nil)

	if _, err := s.Prune(context.Background(), 30, false, now); err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}

	got := writeTestRun(t, s, createTestInvocation("build", event.SourceRun, now), nil)
	if got != 3 {
		t.Errorf("run number after prune = %d, want 3 (sequence never rewinds)", got)
	}
}

func TestPrune_NothingToDo(t *testing.T) {
	s := createTestStore(t)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	writeTestRun(t, s, createTestInvocation("build", event.SourceRun, now), nil)

	report, err := s.Prune(context.Background(), 30, false, now)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if len(report.Partitions) != 0 || report.Runs != 0 {
		t.Errorf("report = %+v, want empty", report)
	}
}
