package cli

import (
	"io"

	"github.com/spf13/cobra"

	"logq/internal/event"
	"logq/internal/query"
	"logq/internal/store"
)

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <ref>",
		Short: "Show one event by reference",
		Long: `Show the full detail of a single event addressed as run:index,
the references printed by errors and warnings listings.

Example:
  logq show 14:2`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := event.ParseRef(args[0])
			if err != nil {
				return asCommandError(err)
			}

			_, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			e, run, err := st.EventByRef(cmd.Context(), ref)
			if err != nil {
				return asCommandError(err)
			}

			payload := struct {
				Ref   event.Ref          `json:"ref"`
				Run   query.SourceStatus `json:"run"`
				Event event.Event        `json:"event"`
			}{
				Ref:   ref,
				Run:   runStatus(run),
				Event: e,
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(payload, func(w io.Writer) {
				renderShow(w, e, run, ref)
			})
		},
	}
}

// runStatus summarizes a run for JSON payloads without an age.
func runStatus(run store.Run) query.SourceStatus {
	return query.SourceStatus{
		Source:       run.SourceName,
		Kind:         run.SourceKind,
		RunNumber:    run.RunNumber,
		Badge:        event.BadgeFor(run.ErrorCount, run.WarningCount),
		ErrorCount:   run.ErrorCount,
		WarningCount: run.WarningCount,
		ExitCode:     run.ExitCode,
		TimedOut:     run.TimedOut,
		StartedAt:    run.StartedAt,
	}
}
