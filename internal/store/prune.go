package store

import (
	"context"
	"fmt"
	"time"

	"logq/internal/event"
)

// PrunedPartition reports one partition selected for retention pruning.
type PrunedPartition struct {
	Key    event.PartitionKey
	Runs   int64
	Events int64
}

// PruneReport summarizes one prune pass. DryRun reports carry the same
// partitions a real pass would remove.
type PruneReport struct {
	Cutoff     string
	DryRun     bool
	Partitions []PrunedPartition
	Runs       int64
	Events     int64
}

// Prune removes whole partitions older than the retention window. A
// partition is pruned only when its date is strictly before today minus
// olderThanDays; partitions are never split. Event and metadata rows go
// with their invocations via foreign key cascade, in one transaction.
//
// With dryRun set nothing is deleted and the report lists what would go.
func (s *Store) Prune(ctx context.Context, olderThanDays int, dryRun bool, now time.Time) (PruneReport, error) {
	cutoff := now.UTC().AddDate(0, 0, -olderThanDays).Format("2006-01-02")
	report := PruneReport{Cutoff: cutoff, DryRun: dryRun}

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.date, i.source_kind, COUNT(*),
		       COALESCE(SUM(ec.n), 0)
		FROM invocations i
		LEFT JOIN (
			SELECT invocation_id, COUNT(*) AS n
			FROM events GROUP BY invocation_id
		) ec ON ec.invocation_id = i.id
		WHERE i.date < ?
		GROUP BY i.date, i.source_kind
		ORDER BY i.date ASC, i.source_kind ASC
	`, cutoff)
	if err != nil {
		return PruneReport{}, fmt.Errorf("prune scan: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p PrunedPartition
		var kind string
		if err := rows.Scan(&p.Key.Date, &kind, &p.Runs, &p.Events); err != nil {
			return PruneReport{}, fmt.Errorf("prune scan: %w", err)
		}
		p.Key.Kind = event.SourceKind(kind)
		report.Partitions = append(report.Partitions, p)
		report.Runs += p.Runs
		report.Events += p.Events
	}
	if err := rows.Err(); err != nil {
		return PruneReport{}, fmt.Errorf("prune scan: %w", err)
	}

	if dryRun || len(report.Partitions) == 0 {
		return report, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PruneReport{}, fmt.Errorf("prune: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM invocations WHERE date < ?`, cutoff); err != nil {
		return PruneReport{}, fmt.Errorf("prune delete: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return PruneReport{}, fmt.Errorf("prune commit: %w", err)
	}
	return report, nil
}
