package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"logq/internal/config"
	"logq/internal/parse"
)

// NewCommandsCommand creates the commands command group.
func NewCommandsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "Manage the registered command templates",
	}
	cmd.AddCommand(newCommandsListCommand(rootOpts))
	cmd.AddCommand(newCommandsAddCommand(rootOpts))
	return cmd
}

func newCommandsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered commands",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Find("")
			if err != nil {
				return WrapExitError(ExitCommandError, "workspace", err)
			}
			commands, err := config.LoadCommands(cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "commands registry", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(commands, func(w io.Writer) {
				if len(commands) == 0 {
					fmt.Fprintln(w, "no commands registered")
					return
				}
				tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCOMMAND\tFORMAT\tDESCRIPTION")
				for _, name := range commands.Names() {
					c := commands[name]
					format := c.Format
					if format == "" {
						format = parse.DetectFormat(c.Cmd)
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, c.Cmd, format, c.Description)
				}
				tw.Flush()
			})
		},
	}
}

func newCommandsAddCommand(rootOpts *RootOptions) *cobra.Command {
	var description, format string
	var timeoutSecs int
	var noCapture bool

	cmd := &cobra.Command{
		Use:           "add <name> <command>",
		Short:         "Register a command template",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Find("")
			if err != nil {
				return WrapExitError(ExitCommandError, "workspace", err)
			}
			commands, err := config.LoadCommands(cfg)
			if err != nil {
				return WrapExitError(ExitCommandError, "commands registry", err)
			}

			name := args[0]
			if _, exists := commands[name]; exists {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("command %q already registered", name))
			}

			entry := config.Command{
				Cmd:         args[1],
				Description: description,
				TimeoutSecs: timeoutSecs,
				Format:      format,
			}
			if noCapture {
				capture := false
				entry.Capture = &capture
			}
			commands[name] = entry
			if err := config.SaveCommands(cfg, commands); err != nil {
				return WrapExitError(ExitCommandError, "commands registry", err)
			}

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]string{"added": name}, func(w io.Writer) {
				fmt.Fprintf(w, "registered %q -> %s\n", name, args[1])
			})
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "what the command does")
	cmd.Flags().StringVar(&format, "parse-format", "", "parser format hint (default: detect from command)")
	cmd.Flags().IntVar(&timeoutSecs, "timeout", 0, "timeout in seconds")
	cmd.Flags().BoolVar(&noCapture, "no-capture", false, "run without parsing or storing output")

	return cmd
}
