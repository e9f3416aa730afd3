package cli

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"logq/internal/config"
	"logq/internal/event"
	"logq/internal/parse"
)

// NewCaptureCommand creates the capture command.
func NewCaptureCommand(rootOpts *RootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "capture [name]",
		Short: "Parse stdin into a stored run",
		Long: `Read log content from stdin and store it as a run of kind
"capture". Useful at the end of a pipe:

  make all 2>&1 | logq capture build`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()
			log := newLogger(rootOpts)

			content, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return WrapExitError(ExitCommandError, "read stdin", err)
			}

			source := "stdin"
			if len(args) == 1 {
				source = args[0]
			}

			cwd, _ := os.Getwd()
			inv := event.Invocation{
				ID:         event.NewInvocationID(),
				SourceName: source,
				SourceKind: event.SourceCapture,
				Command:    "capture " + source,
				CWD:        cwd,
				StartedAt:  time.Now(),
			}
			meta := config.CaptureMetadata(cmd.Context(), cfg, cwd, nil)

			if format == "" {
				format = parse.FormatAuto
			}
			summary, err := ingestAndStore(cmd.Context(), st, log, inv, meta, string(content), format)
			if err != nil {
				return err
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(summary, func(w io.Writer) { renderSummary(w, summary) })
		},
	}

	cmd.Flags().StringVar(&format, "parse-format", "", "parser format hint (default: auto)")

	return cmd
}
