package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"logq/internal/event"
	"logq/internal/query"
)

// NewDiffCommand creates the diff command.
func NewDiffCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "diff <run-a> <run-b>",
		Short: "Compare the errors of two runs",
		Long: `Compare run A (the baseline) against run B by error fingerprint:
which failures went away, which appeared, which persist. Run selectors
accept a run number or 'last'.

Example:
  logq diff 12 14
  logq diff 12 last`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			eng := query.New(st, newLogger(rootOpts), nil)
			runA, err := resolveOneRun(cmd, eng, args[0])
			if err != nil {
				return err
			}
			runB, err := resolveOneRun(cmd, eng, args[1])
			if err != nil {
				return err
			}

			report, err := eng.Diff(cmd.Context(), runA, runB)
			if err != nil {
				return asCommandError(err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(report, func(w io.Writer) {
				renderDiff(w, report)
			})
		},
	}
}

// resolveOneRun resolves a selector that must name exactly one run.
func resolveOneRun(cmd *cobra.Command, eng *query.Engine, arg string) (int64, error) {
	sel, err := event.ParseRunSelector(arg)
	if err != nil {
		return 0, asCommandError(err)
	}
	if sel.Last > 1 {
		return 0, NewExitError(ExitCommandError,
			fmt.Sprintf("diff needs a single run per side, got %q", arg))
	}
	runs, err := eng.ResolveRuns(cmd.Context(), sel)
	if err != nil {
		return 0, asCommandError(err)
	}
	if len(runs) == 0 {
		return 0, NewExitError(ExitCommandError, "no runs recorded yet")
	}
	return runs[0], nil
}
