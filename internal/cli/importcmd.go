package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"logq/internal/config"
	"logq/internal/event"
	"logq/internal/parse"
)

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	var format string
	var source string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Parse an existing log file into a stored run",
		Long: `Parse a log file that was produced elsewhere (CI artifact, saved
build output) and store it as a run of kind "import". There is no exit
code to record, so the run stores none.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openWorkspace(rootOpts)
			if err != nil {
				return err
			}
			defer st.Close()
			log := newLogger(rootOpts)

			content, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read log", err)
			}
			if source == "" {
				source = filepath.Base(args[0])
			}

			cwd, _ := os.Getwd()
			inv := event.Invocation{
				ID:         event.NewInvocationID(),
				SourceName: source,
				SourceKind: event.SourceImport,
				Command:    "import " + args[0],
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
	cmd.Flags().StringVar(&source, "source", "", "source name for the run (default: file name)")

	return cmd
}
