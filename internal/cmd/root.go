package cmd

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/blockstate/internal/log"
)

var (
	chdir      string
	configFile string
	logLevel   string
)

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "blockstate",
		Short:         "Apply, rebase and inspect block document state",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if chdir != "" && chdir != "." {
				if err := os.Chdir(chdir); err != nil {
					return errors.Wrapf(err, "failed to change directory to %q", chdir)
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&chdir, "chdir", ".", "Switch to a different working directory before executing the command.")
	pflags.StringVar(&configFile, "config", "", "A configuration file. By default blockstate.yaml or blockstate.toml in the working directory.")
	pflags.StringVar(&logLevel, "log-level", "", "Enable logging at the level (debug, info, warn, error).")

	cmd.AddCommand(applyCmd())
	cmd.AddCommand(rebaseCmd())
	cmd.AddCommand(rangeCmd())
	cmd.AddCommand(treeCmd())

	return &cmd
}
