package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"logq/internal/event"
	"logq/internal/query"
	"logq/internal/store"
)

func renderSummary(w io.Writer, s RunSummary) {
	fmt.Fprintf(w, "[%s] run %d (%s/%s): %d events, %d errors, %d warnings\n",
		s.Badge, s.RunNumber, s.Kind, s.Source, s.Events, s.Errors, s.Warnings)
	if s.TimedOut {
		fmt.Fprintln(w, "command timed out")
	}
	if s.StoreError != "" {
		fmt.Fprintf(w, "warning: run not stored: %s\n", s.StoreError)
	}
}

func renderStatuses(w io.Writer, statuses []query.SourceStatus, withSource bool) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	if withSource {
		fmt.Fprintln(tw, "RUN\tSOURCE\tSTATUS\tERRORS\tWARNINGS\tAGE")
	} else {
		fmt.Fprintln(tw, "RUN\tSTATUS\tERRORS\tWARNINGS\tAGE")
	}
	for _, s := range statuses {
		if withSource {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n",
				s.RunNumber, s.Source, s.Badge, s.ErrorCount, s.WarningCount, formatAge(s.Age))
		} else {
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n",
				s.RunNumber, s.Badge, s.ErrorCount, s.WarningCount, formatAge(s.Age))
		}
	}
	tw.Flush()
}

func renderEvents(w io.Writer, rows []query.EventRow, label string) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "no %s\n", label)
		return
	}
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REF\tSOURCE\tLOCATION\tMESSAGE")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.Ref, r.Source, r.Location(), truncate(r.Message, 80))
	}
	tw.Flush()
}

func renderDiff(w io.Writer, report query.DiffReport) {
	fmt.Fprintf(w, "diff run %d -> run %d\n",
		report.RunA.RunNumber, report.RunB.RunNumber)

	section := func(name string, groups []query.FingerprintGroup) {
		fmt.Fprintf(w, "\n%s (%d):\n", name, len(groups))
		for _, g := range groups {
			fmt.Fprintf(w, "  %-20s x%d  %s\n",
				g.Display, g.Count, truncate(g.Sample.Message, 70))
		}
		if len(groups) == 0 {
			fmt.Fprintln(w, "  none")
		}
	}
	section("fixed", report.Fixed)
	section("new", report.New)
	section("unchanged", report.Unchanged)

	if len(report.Categories) > 0 {
		fmt.Fprintln(w, "\ncategory deltas:")
		tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "  TOOL\tCATEGORY\tBEFORE\tAFTER\tDELTA")
		for _, d := range report.Categories {
			fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\t%+d\n",
				d.ToolName, d.Category, d.CountA, d.CountB, d.Delta)
		}
		tw.Flush()
	}
}

func renderShow(w io.Writer, e event.Event, run store.Run, ref event.Ref) {
	fmt.Fprintf(w, "ref:         %s\n", ref)
	fmt.Fprintf(w, "run:         %d (%s/%s)\n", run.RunNumber, run.SourceKind, run.SourceName)
	fmt.Fprintf(w, "command:     %s\n", run.Command)
	fmt.Fprintf(w, "severity:    %s\n", e.Severity)
	if e.FilePath != "" {
		fmt.Fprintf(w, "location:    %s\n", e.Location())
	}
	if e.ToolName != "" {
		fmt.Fprintf(w, "tool:        %s\n", e.ToolName)
	}
	if e.Category != "" {
		fmt.Fprintf(w, "category:    %s\n", e.Category)
	}
	if e.Code != "" {
		fmt.Fprintf(w, "code:        %s\n", e.Code)
	}
	fmt.Fprintf(w, "fingerprint: %s\n", event.DisplayFingerprint(e.ToolName, e.Fingerprint))
	if e.LogLineStart > 0 {
		fmt.Fprintf(w, "log lines:   %d-%d\n", e.LogLineStart, e.LogLineEnd)
	}
	fmt.Fprintf(w, "message:     %s\n", e.Message)
}

func renderPrune(w io.Writer, report store.PruneReport) {
	verb := "pruned"
	if report.DryRun {
		verb = "would prune"
	}
	if len(report.Partitions) == 0 {
		fmt.Fprintf(w, "nothing to prune before %s\n", report.Cutoff)
		return
	}
	fmt.Fprintf(w, "%s %d runs (%d events) before %s:\n",
		verb, report.Runs, report.Events, report.Cutoff)
	for _, p := range report.Partitions {
		fmt.Fprintf(w, "  %s: %d runs, %d events\n", p.Key, p.Runs, p.Events)
	}
}

func formatAge(age time.Duration) string {
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 48*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}

// truncate flattens newlines and caps the message at max runes, so a
// multibyte character is never cut in half.
func truncate(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
