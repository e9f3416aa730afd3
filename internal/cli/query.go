package cli

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"logq/internal/event"
	"logq/internal/query"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "status",
		Short:         "Latest result for every source",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			eng := query.New(st, newLogger(rootOpts), nil)
			statuses, err := eng.Status(cmd.Context())
			if err != nil {
				return asCommandError(err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(statuses, func(w io.Writer) {
				renderStatuses(w, statuses, true)
			})
		},
	}
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int64
	var source string

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "Past runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			eng := query.New(st, newLogger(rootOpts), nil)
			runs, err := eng.History(cmd.Context(), limit, source)
			if err != nil {
				return asCommandError(err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(runs, func(w io.Writer) {
				renderStatuses(w, runs, true)
			})
		},
	}

	cmd.Flags().Int64VarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	cmd.Flags().StringVar(&source, "source", "", "restrict to one source")

	return cmd
}

// listFunc is the shared shape of Engine.Errors and Engine.Warnings.
type listFunc = func(context.Context, query.EventFilter) ([]query.EventRow, error)

// NewErrorsCommand creates the errors command.
func NewErrorsCommand(rootOpts *RootOptions) *cobra.Command {
	return newEventListCommand(rootOpts, "errors", "Error events, newest run first",
		func(eng *query.Engine) listFunc { return eng.Errors })
}

// NewWarningsCommand creates the warnings command.
func NewWarningsCommand(rootOpts *RootOptions) *cobra.Command {
	return newEventListCommand(rootOpts, "warnings", "Warning events, newest run first",
		func(eng *query.Engine) listFunc { return eng.Warnings })
}

// newEventListCommand builds the errors/warnings commands, which differ
// only in which engine listing they call.
func newEventListCommand(rootOpts *RootOptions, name, short string,
	pick func(*query.Engine) listFunc) *cobra.Command {

	var limit int64
	var source, filePattern, runSelector string

	cmd := &cobra.Command{
		Use:           name,
		Short:         short,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()

			eng := query.New(st, newLogger(rootOpts), nil)
			filter := query.EventFilter{
				Limit:       limit,
				Source:      source,
				FilePattern: filePattern,
			}
			if runSelector != "" {
				sel, err := event.ParseRunSelector(runSelector)
				if err != nil {
					return asCommandError(err)
				}
				if filter.Runs, err = eng.ResolveRuns(cmd.Context(), sel); err != nil {
					return asCommandError(err)
				}
			}

			rows, err := pick(eng)(cmd.Context(), filter)
			if err != nil {
				return asCommandError(err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(rows, func(w io.Writer) {
				renderEvents(w, rows, name)
			})
		},
	}

	cmd.Flags().Int64VarP(&limit, "limit", "n", 0, "cap the number of events shown")
	cmd.Flags().StringVar(&source, "source", "", "restrict to one source")
	cmd.Flags().StringVar(&filePattern, "file", "", "restrict to file paths matching a LIKE pattern")
	cmd.Flags().StringVar(&runSelector, "run", "", "restrict to runs: a run number, 'last', or 'last:N'")

	return cmd
}
