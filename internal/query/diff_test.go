package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logq/internal/event"
	"logq/internal/store"
)

func TestDiff_FixedNewUnchanged(t *testing.T) {
	e, s := newTestEngine(t)
	runA := seedRun(t, s, "build", 0, "failure A", "failure B")
	runB := seedRun(t, s, "build", time.Hour, "failure B", "failure C")

	report, err := e.Diff(context.Background(), runA, runB)
	require.NoError(t, err)

	require.Len(t, report.Fixed, 1)
	assert.Equal(t, "failure A", report.Fixed[0].Sample.Message)
	require.Len(t, report.New, 1)
	assert.Equal(t, "failure C", report.New[0].Sample.Message)
	require.Len(t, report.Unchanged, 1)
	assert.Equal(t, "failure B", report.Unchanged[0].Sample.Message)
}

func TestDiff_BucketsPartitionTheUnion(t *testing.T) {
	e, s := newTestEngine(t)
	runA := seedRun(t, s, "build", 0, "a", "b", "c", "a")
	runB := seedRun(t, s, "build", time.Hour, "b", "d", "b")

	report, err := e.Diff(context.Background(), runA, runB)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, bucket := range [][]FingerprintGroup{report.Fixed, report.New, report.Unchanged} {
		for _, g := range bucket {
			seen[g.Fingerprint]++
		}
	}
	assert.Len(t, seen, 4, "buckets cover the whole fingerprint union")
	for fp, n := range seen {
		assert.Equal(t, 1, n, "fingerprint %s appears in exactly one bucket", fp)
	}
	assert.Len(t, report.Fixed, 2)
	assert.Len(t, report.New, 1)
	assert.Len(t, report.Unchanged, 1)

	// Duplicates are counted, not re-bucketed: fixed groups count run A
	// occurrences, new and unchanged count run B's.
	assert.Equal(t, "a", report.Fixed[0].Sample.Message)
	assert.Equal(t, int64(2), report.Fixed[0].Count)
	assert.Equal(t, int64(2), report.Unchanged[0].Count)
}

func TestDiff_WarningsDoNotEnterFingerprintSets(t *testing.T) {
	e, s := newTestEngine(t)
	runA := seedRun(t, s, "build", 0, "~warn 1")
	runB := seedRun(t, s, "build", time.Hour, "~warn 2")

	report, err := e.Diff(context.Background(), runA, runB)
	require.NoError(t, err)
	assert.Empty(t, report.Fixed)
	assert.Empty(t, report.New)
	assert.Empty(t, report.Unchanged)
}

func TestDiff_IdenticalRuns(t *testing.T) {
	e, s := newTestEngine(t)
	runA := seedRun(t, s, "build", 0, "same failure")
	runB := seedRun(t, s, "build", time.Hour, "same failure")

	report, err := e.Diff(context.Background(), runA, runB)
	require.NoError(t, err)
	assert.Empty(t, report.Fixed)
	assert.Empty(t, report.New)
	require.Len(t, report.Unchanged, 1)
	assert.Empty(t, report.Categories, "no count movement, no deltas")
}

func TestDiff_CategoryDeltas(t *testing.T) {
	e, s := newTestEngine(t)

	write := func(offset time.Duration, events []event.Event) int64 {
		exit := int64(1)
		inv := event.Invocation{
			ID:         event.NewInvocationID(),
			SourceName: "build",
			SourceKind: event.SourceRun,
			Command:    "make",
			ExitCode:   &exit,
			StartedAt:  baseTime.Add(offset),
		}
		for i := range events {
			events[i].InvocationID = inv.ID
			events[i].EventIndex = int64(i) + 1
			events[i].Fingerprint = event.Fingerprint(
				events[i].ToolName, events[i].Category, events[i].Message, "")
		}
		n, err := s.WriteRun(context.Background(), inv, events, nil)
		require.NoError(t, err)
		return n
	}

	runA := write(0, []event.Event{
		{Severity: "error", ToolName: "gcc", Category: "compile", Message: "e1"},
		{Severity: "error", ToolName: "gcc", Category: "compile", Message: "e2"},
		{Severity: "error", ToolName: "gcc", Category: "compile", Message: "e3"},
		{Severity: "warning", ToolName: "gcc", Category: "lint", Message: "w1"},
		{Severity: "error", ToolName: "ld", Category: "link", Message: "l1"},
	})
	runB := write(time.Hour, []event.Event{
		{Severity: "warning", ToolName: "gcc", Category: "lint", Message: "w1"},
		{Severity: "warning", ToolName: "gcc", Category: "lint", Message: "w2"},
		{Severity: "error", ToolName: "ld", Category: "link", Message: "l1"},
	})

	report, err := e.Diff(context.Background(), runA, runB)
	require.NoError(t, err)

	require.Len(t, report.Categories, 2, "unchanged (ld, link) group is omitted")
	assert.Equal(t, CategoryDelta{
		ToolName: "gcc", Category: "compile", CountA: 3, CountB: 0, Delta: -3,
	}, report.Categories[0], "largest absolute movement first")
	assert.Equal(t, CategoryDelta{
		ToolName: "gcc", Category: "lint", CountA: 1, CountB: 2, Delta: 1,
	}, report.Categories[1])
}

func TestDiff_MissingRun(t *testing.T) {
	e, s := newTestEngine(t)
	runA := seedRun(t, s, "build", 0, "boom")

	_, err := e.Diff(context.Background(), runA, 99)
	var nie *store.NoSuchInvocationError
	require.ErrorAs(t, err, &nie)
	assert.Equal(t, int64(99), nie.RunNumber)
}
