package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"logq/internal/event"
)

func TestRunByNumber_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.RunByNumber(context.Background(), 99)
	var nie *NoSuchInvocationError
	if !errors.As(err, &nie) {
		t.Fatalf("error = %v, want NoSuchInvocationError", err)
	}
	if nie.RunNumber != 99 {
		t.Errorf("RunNumber = %d, want 99", nie.RunNumber)
	}
}

func TestEventByRef_DistinguishesMisses(t *testing.T) {
	s := createTestStore(t)
	runNumber := writeTestRun(t, s,
		createTestInvocation("build", event.SourceRun, testStart),
		[]event.Event{testEvent("error", "boom")})

	// Existing ref resolves.
	e, run, err := s.EventByRef(context.Background(), event.Ref{RunNumber: runNumber, EventIndex: 1})
	if err != nil {
		t.Fatalf("EventByRef() failed: %v", err)
	}
	if e.Message != "boom" || run.RunNumber != runNumber {
		t.Errorf("resolved wrong event: %+v run %d", e, run.RunNumber)
	}

	// Missing run is a NoSuchInvocationError.
	_, _, err = s.EventByRef(context.Background(), event.Ref{RunNumber: 42, EventIndex: 1})
	var nie *NoSuchInvocationError
	if !errors.As(err, &nie) {
		t.Errorf("missing run: error = %v, want NoSuchInvocationError", err)
	}

	// Missing event on an existing run is a NoSuchEventError.
	_, _, err = s.EventByRef(context.Background(), event.Ref{RunNumber: runNumber, EventIndex: 9})
	var nee *NoSuchEventError
	if !errors.As(err, &nee) {
		t.Fatalf("missing event: error = %v, want NoSuchEventError", err)
	}
	if nee.RunNumber != runNumber || nee.EventIndex != 9 {
		t.Errorf("NoSuchEventError = %+v", nee)
	}
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := createTestStore(t)

	writeTestRun(t, s, createTestInvocation("a", event.SourceRun, testStart), nil)
	writeTestRun(t, s, createTestInvocation("b", event.SourceRun, testStart.Add(2*time.Hour)), nil)
	writeTestRun(t, s, createTestInvocation("c", event.SourceRun, testStart.Add(time.Hour)), nil)

	runs, err := s.ListRuns(context.Background(), 0, "")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("len(runs) = %d, want 3", len(runs))
	}
	order := []string{runs[0].SourceName, runs[1].SourceName, runs[2].SourceName}
	want := []string{"b", "c", "a"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestListRuns_SourceFilterAndLimit(t *testing.T) {
	s := createTestStore(t)

	writeTestRun(t, s, createTestInvocation("build", event.SourceRun, testStart), nil)
	writeTestRun(t, s, createTestInvocation("lint", event.SourceRun, testStart.Add(time.Hour)), nil)
	writeTestRun(t, s, createTestInvocation("build", event.SourceRun, testStart.Add(2*time.Hour)), nil)

	runs, err := s.ListRuns(context.Background(), 1, "build")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].SourceName != "build" || runs[0].RunNumber != 3 {
		t.Errorf("got run %d source %q, want latest build run", runs[0].RunNumber, runs[0].SourceName)
	}
}

func TestReadPartition(t *testing.T) {
	s := createTestStore(t)

	writeTestRun(t, s, createTestInvocation("a", event.SourceRun, testStart), nil)
	writeTestRun(t, s, createTestInvocation("b", event.SourceExec, testStart), nil)
	writeTestRun(t, s, createTestInvocation("c", event.SourceRun, testStart.AddDate(0, 0, 1)), nil)

	runs, err := s.ReadPartition(context.Background(), event.PartitionKey{
		Date: "2026-08-20", Kind: event.SourceRun,
	})
	if err != nil {
		t.Fatalf("ReadPartition() failed: %v", err)
	}
	if len(runs) != 1 || runs[0].SourceName != "a" {
		t.Errorf("partition contents = %+v, want just run a", runs)
	}
}

func TestLatestRunNumbers(t *testing.T) {
	s := createTestStore(t)

	for i := 0; i < 4; i++ {
		writeTestRun(t, s, createTestInvocation("build", event.SourceRun,
			testStart.Add(time.Duration(i)*time.Hour)), nil)
	}

	nums, err := s.LatestRunNumbers(context.Background(), 2)
	if err != nil {
		t.Fatalf("LatestRunNumbers() failed: %v", err)
	}
	if len(nums) != 2 || nums[0] != 4 || nums[1] != 3 {
		t.Errorf("LatestRunNumbers = %v, want [4 3]", nums)
	}
}
