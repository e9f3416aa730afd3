package cli

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"logq/internal/config"
	"logq/internal/event"
	"logq/internal/execx"
	"logq/internal/parse"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Format  string
	Timeout time.Duration
	Quiet   bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <name | command...>",
		Short: "Run a command, capture and store its events",
		Long: `Run a registered command by name, or any literal command, capturing
combined output. The output is parsed into events and stored as a new
run; the exit status of logq run is the exit status of the command
itself, so it drops into scripts and CI unchanged.

Examples:
  logq run build
  logq run -- go test ./...`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "parse-format", "", "parser format hint (default: detect from command)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "kill the command after this duration")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "do not echo command output")

	return cmd
}

func runCapture(cmd *cobra.Command, opts *RunOptions, args []string) error {
	cfg, st, err := openWorkspace(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()
	log := newLogger(opts.RootOptions)

	source := args[0]
	kind := event.SourceRun
	command := ""
	timeout := opts.Timeout
	format := opts.Format
	var extraEnv []string

	commands, err := config.LoadCommands(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "commands registry", err)
	}

	if reg, ok := commands[source]; ok && len(args) == 1 {
		command = reg.Cmd
		extraEnv = reg.CaptureEnv
		if format == "" {
			format = reg.Format
		}
		if timeout == 0 && reg.TimeoutSecs > 0 {
			timeout = time.Duration(reg.TimeoutSecs) * time.Second
		}
		if !reg.Captured() {
			return runUncaptured(cmd, command, timeout)
		}
	} else {
		// Literal command line.
		kind = event.SourceExec
		command = strings.Join(args, " ")
		source = firstToken(command)
	}

	execOpts := execx.Options{Timeout: timeout}
	if !opts.Quiet {
		execOpts.Stream = cmd.OutOrStdout()
	}
	res, err := execx.Run(cmd.Context(), command, execOpts)
	if err != nil {
		return WrapExitError(ExitCommandError, "exec", err)
	}

	if format == "" || format == parse.FormatAuto {
		format = parse.DetectFormat(command)
	}

	cwd, _ := os.Getwd()
	inv := event.Invocation{
		ID:         event.NewInvocationID(),
		SourceName: source,
		SourceKind: kind,
		Command:    command,
		CWD:        cwd,
		ExitCode:   res.ExitCode,
		TimedOut:   res.TimedOut,
		StartedAt:  res.StartedAt,
		Duration:   res.Duration,
	}
	meta := config.CaptureMetadata(cmd.Context(), cfg, cwd, extraEnv)

	summary, storeErr := ingestAndStore(cmd.Context(), st, log, inv, meta, res.Output, format)
	if storeErr != nil {
		// The user's command already ran; its exit code still wins. Report
		// the storage failure without masking the command's outcome.
		log.Error("store failed", "error", storeErr)
		summary = RunSummary{
			Source: source, Kind: kind, ExitCode: res.ExitCode,
			TimedOut: res.TimedOut, StoreError: storeErr.Error(),
		}
	}

	out := &OutputFormatter{Format: opts.RootOptions.Format,
		Writer: cmd.OutOrStdout(), ErrWriter: cmd.ErrOrStderr()}
	if err := out.Success(summary, func(w io.Writer) { renderSummary(w, summary) }); err != nil {
		return err
	}
	return exitLikeCommand(res)
}

// runUncaptured runs a registered command marked capture: false, passing
// output straight through with no parsing or storage.
func runUncaptured(cmd *cobra.Command, command string, timeout time.Duration) error {
	res, err := execx.Run(cmd.Context(), command, execx.Options{
		Timeout: timeout,
		Stream:  cmd.OutOrStdout(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "exec", err)
	}
	return exitLikeCommand(res)
}

// exitLikeCommand converts a command's outcome into logq's own exit
// status: pass the code through, and treat a timeout as failure.
func exitLikeCommand(res execx.Result) error {
	if res.TimedOut {
		return NewExitError(ExitFailure, "command timed out")
	}
	if res.ExitCode != nil && *res.ExitCode != 0 {
		// No message: the command's own output already told the story.
		return &ExitError{Code: int(*res.ExitCode)}
	}
	return nil
}

func firstToken(command string) string {
	if i := strings.IndexAny(command, " \t"); i >= 0 {
		return command[:i]
	}
	return command
}
