package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"
)

// NewPruneCommand creates the prune command.
func NewPruneCommand(rootOpts *RootOptions) *cobra.Command {
	var olderThan int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete whole partitions past the retention window",
		Long: `Delete runs whose date partition is older than the retention
window, together with their events and metadata. Partitions are removed
whole; --dry-run reports exactly what a real pass would delete.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			days := olderThan
			if days == 0 {
				days = cfg.RetentionDays
			}

			report, err := st.Prune(cmd.Context(), days, dryRun, time.Now())
			if err != nil {
				return err
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(report, func(w io.Writer) {
				renderPrune(w, report)
			})
		},
	}

	cmd.Flags().IntVar(&olderThan, "older-than", 0, "retention window in days (default: config retention_days)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be pruned without deleting")

	return cmd
}
