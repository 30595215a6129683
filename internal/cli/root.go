// Package cli wires the cobra command surface onto the gitsub operations.
package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	cwd        string
	forceColor bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "git-sub",
	Short:         "Collect information of submodules in a convenient way",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			With().Timestamp().Logger()
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		}
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// colorEnabled decides color output once, up front: forced by flag or
// CLICOLOR_FORCE, otherwise on when stdout is a terminal.
func colorEnabled() bool {
	if forceColor {
		return true
	}
	if v := os.Getenv("CLICOLOR_FORCE"); v != "" && v != "0" {
		return true
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cwd, "cwd", "C", ".", "The working path of the repository")
	rootCmd.PersistentFlags().BoolVarP(&forceColor, "force-color", "c", false, "Force print color even using pipeline")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newLogCmd(),
		newStatusCmd(),
		newLsFilesCmd(),
	)
}
