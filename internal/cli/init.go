package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"logq/internal/config"
	"logq/internal/store"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a .lq workspace in the current directory",
		Long: `Create the .lq workspace: the event database, config.yaml, and an
empty commands.yaml registry. Run it once at the project root.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Init(".")
			if err != nil {
				return WrapExitError(ExitCommandError, "init", err)
			}
			st, err := store.Open(cfg.DBPath())
			if err != nil {
				return WrapExitError(ExitCommandError, "init database", err)
			}
			st.Close()

			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Success(map[string]string{"workspace": cfg.Dir}, func(w io.Writer) {
				fmt.Fprintf(w, "initialized %s\n", cfg.Dir)
			})
		},
	}
}
