package query

import (
	"context"
	"sort"

	"logq/internal/event"
	"logq/internal/store"
)

// FingerprintGroup is one distinct error fingerprint within a diff bucket,
// with a sample event for display. Count is the number of occurrences in
// the run the bucket describes: run A for fixed, run B for new and
// unchanged, since those report what the current run still shows.
type FingerprintGroup struct {
	Fingerprint string      `json:"fingerprint"`
	Display     string      `json:"display"`
	Count       int64       `json:"count"`
	Sample      event.Event `json:"sample"`
}

// CategoryDelta is the per-(tool, category) event count movement between
// two runs.
type CategoryDelta struct {
	ToolName string `json:"tool"`
	Category string `json:"category"`
	CountA   int64  `json:"count_a"`
	CountB   int64  `json:"count_b"`
	Delta    int64  `json:"delta"`
}

// DiffReport compares two runs. Fixed, New, and Unchanged exactly
// partition the union of the two runs' error fingerprints: every
// fingerprint lands in exactly one bucket.
type DiffReport struct {
	RunA       store.Run          `json:"-"`
	RunB       store.Run          `json:"-"`
	Fixed      []FingerprintGroup `json:"fixed"`
	New        []FingerprintGroup `json:"new"`
	Unchanged  []FingerprintGroup `json:"unchanged"`
	Categories []CategoryDelta    `json:"categories"`
}

// Diff compares run A (baseline) against run B. Error fingerprints present
// only in A are fixed, only in B are new, in both unchanged. Category
// deltas cover all events regardless of severity, emitted only where the
// count moved, largest movement first with (tool, category) breaking ties.
//
// Either run number failing to resolve is a NoSuchInvocationError; this
// engine never conflates that with a malformed selector.
func (e *Engine) Diff(ctx context.Context, runA, runB int64) (DiffReport, error) {
	a, err := e.store.RunByNumber(ctx, runA)
	if err != nil {
		return DiffReport{}, err
	}
	b, err := e.store.RunByNumber(ctx, runB)
	if err != nil {
		return DiffReport{}, err
	}

	eventsA, err := e.store.EventsByRun(ctx, runA)
	if err != nil {
		return DiffReport{}, err
	}
	eventsB, err := e.store.EventsByRun(ctx, runB)
	if err != nil {
		return DiffReport{}, err
	}

	groupsA := errorGroups(eventsA)
	groupsB := errorGroups(eventsB)

	report := DiffReport{RunA: a, RunB: b}
	for _, g := range groupsA {
		if _, inB := groupsB[g.Fingerprint]; !inB {
			report.Fixed = append(report.Fixed, g)
		}
	}
	for _, g := range groupsB {
		if _, inA := groupsA[g.Fingerprint]; inA {
			report.Unchanged = append(report.Unchanged, g)
		} else {
			report.New = append(report.New, g)
		}
	}
	sortGroups(report.Fixed)
	sortGroups(report.New)
	sortGroups(report.Unchanged)

	report.Categories = categoryDeltas(eventsA, eventsB)
	return report, nil
}

// errorGroups collapses a run's error-class events by fingerprint, keeping
// the earliest occurrence as the sample.
func errorGroups(events []event.Event) map[string]FingerprintGroup {
	groups := map[string]FingerprintGroup{}
	for _, ev := range events {
		if !event.IsError(ev.Severity) {
			continue
		}
		g, ok := groups[ev.Fingerprint]
		if !ok {
			g = FingerprintGroup{
				Fingerprint: ev.Fingerprint,
				Display:     event.DisplayFingerprint(ev.ToolName, ev.Fingerprint),
				Sample:      ev,
			}
		}
		g.Count++
		groups[ev.Fingerprint] = g
	}
	return groups
}

// sortGroups orders by the sample's emission index, fingerprint breaking
// the (unlikely) tie, so reports are stable.
func sortGroups(groups []FingerprintGroup) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Sample.EventIndex != groups[j].Sample.EventIndex {
			return groups[i].Sample.EventIndex < groups[j].Sample.EventIndex
		}
		return groups[i].Fingerprint < groups[j].Fingerprint
	})
}

func categoryDeltas(eventsA, eventsB []event.Event) []CategoryDelta {
	type key struct{ tool, category string }
	counts := map[key]*CategoryDelta{}

	tally := func(events []event.Event, side func(*CategoryDelta)) {
		for _, ev := range events {
			k := key{ev.ToolName, ev.Category}
			d, ok := counts[k]
			if !ok {
				d = &CategoryDelta{ToolName: k.tool, Category: k.category}
				counts[k] = d
			}
			side(d)
		}
	}
	tally(eventsA, func(d *CategoryDelta) { d.CountA++ })
	tally(eventsB, func(d *CategoryDelta) { d.CountB++ })

	var out []CategoryDelta
	for _, d := range counts {
		d.Delta = d.CountB - d.CountA
		if d.Delta != 0 {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := abs(out[i].Delta), abs(out[j].Delta)
		if ai != aj {
			return ai > aj
		}
		if out[i].ToolName != out[j].ToolName {
			return out[i].ToolName < out[j].ToolName
		}
		return out[i].Category < out[j].Category
	})
	return out
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
