package parse

import (
	"strings"

	"logq/internal/event"
)

// BuildEvents canonicalizes parser output into stored events. Indexes are
// assigned densely from 1 in emission order; fingerprints are computed
// here and nowhere else, so every stored event carries one regardless of
// what the parser knew. Diagnostics without a tool name inherit the first
// word of the invocation's command.
//
// An empty diagnostics list returns an empty batch; a clean run is not an
// error.
func BuildEvents(invocationID, command string, diags []Diagnostic) []event.Event {
	defaultTool := firstWord(command)
	events := make([]event.Event, 0, len(diags))
	for i, d := range diags {
		tool := d.ToolName
		if tool == "" {
			tool = defaultTool
		}
		events = append(events, event.Event{
			InvocationID: invocationID,
			EventIndex:   int64(i) + 1,
			Severity:     d.Severity,
			FilePath:     d.FilePath,
			LineNumber:   d.LineNumber,
			ColumnNumber: d.ColumnNumber,
			Message:      d.Message,
			ToolName:     tool,
			Category:     d.Category,
			Code:         d.Code,
			Fingerprint:  event.Fingerprint(tool, d.Category, d.Message, d.FilePath),
			LogLineStart: d.LogLineStart,
			LogLineEnd:   d.LogLineEnd,
		})
	}
	return events
}

func firstWord(command string) string {
	command = strings.TrimSpace(command)
	if i := strings.IndexAny(command, " \t"); i >= 0 {
		command = command[:i]
	}
	return command
}

// Counts tallies error and warning totals for a batch. Severities outside
// the known set count as neither.
func Counts(events []event.Event) (errors, warnings int64) {
	for _, e := range events {
		switch {
		case event.IsError(e.Severity):
			errors++
		case event.IsWarning(e.Severity):
			warnings++
		}
	}
	return errors, warnings
}
