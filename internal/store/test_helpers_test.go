package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"logq/internal/event"
)

// createTestStore creates a store backed by a temp file database.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestInvocation builds an invocation with minimal required fields.
func createTestInvocation(source string, kind event.SourceKind, startedAt time.Time) event.Invocation {
	exit := int64(0)
	return event.Invocation{
		ID:         event.NewInvocationID(),
		SourceName: source,
		SourceKind: kind,
		Command:    "make all",
		CWD:        "/work/project",
		ExitCode:   &exit,
		StartedAt:  startedAt,
		Duration:   1500 * time.Millisecond,
	}
}

// writeTestRun persists an invocation with the given events and returns its
// run number.
func writeTestRun(t *testing.T, s *Store, inv event.Invocation, events []event.Event) int64 {
	t.Helper()
	for i := range events {
		events[i].InvocationID = inv.ID
		if events[i].EventIndex == 0 {
			events[i].EventIndex = int64(i) + 1
		}
		if events[i].Fingerprint == "" {
			events[i].Fingerprint = event.Fingerprint(
				events[i].ToolName, events[i].Category,
				events[i].Message, events[i].FilePath)
		}
	}
	runNumber, err := s.WriteRun(context.Background(), inv, events, nil)
	if err != nil {
		t.Fatalf("WriteRun() failed: %v", err)
	}
	return runNumber
}

func testEvent(severity, message string) event.Event {
	return event.Event{
		Severity: severity,
		Message:  message,
		ToolName: "make",
		Category: "build",
	}
}
