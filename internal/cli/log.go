package cli

import (
	"os"

	"github.com/spf13/cobra"

	gitsub "github.com/PaddyThePaddy/git-sub"
)

func newLogCmd() *cobra.Command {
	var opts gitsub.LogOptions
	cmd := &cobra.Command{
		Use:   "log [pathspec...]",
		Short: "Collect and show log across all submodules",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Pathspec = args
			return gitsub.Log(cwd, opts, os.Stdout, colorEnabled())
		},
	}
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Search commits on all branches")
	cmd.Flags().StringVar(&opts.Author, "author", "", "Filter commits by author")
	cmd.Flags().StringVar(&opts.Grep, "grep", "", "Filter commits by commit message")
	cmd.Flags().StringVarP(&opts.Revision, "revision", "r", "", "Filter commits starting from the specific reference of the root repo")
	cmd.Flags().BoolVarP(&opts.Full, "full", "f", false, "Show long format of each commit")
	cmd.Flags().BoolVarP(&opts.List, "list", "l", false, "List files of each commit")
	cmd.Flags().BoolVarP(&opts.Patch, "patch", "p", false, "Show patch of each commit")
	cmd.Flags().IntVarP(&opts.Num, "num", "n", -1, "Set the number of logs to be displayed")
	cmd.Flags().IntVarP(&opts.Start, "start", "s", 0, "Set the number of logs to start to be displayed")
	return cmd
}
