package cli

import (
	"os"

	"github.com/spf13/cobra"

	gitsub "github.com/PaddyThePaddy/git-sub"
)

func newLsFilesCmd() *cobra.Command {
	var opts gitsub.LsFilesOptions
	cmd := &cobra.Command{
		Use:   "ls-files [pathspec...]",
		Short: "List files across all submodules",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Pathspec = args
			return gitsub.LsFiles(cwd, opts, os.Stdout, colorEnabled())
		},
	}
	cmd.Flags().BoolVarP(&opts.Staged, "staged", "s", false, "List files in the index")
	cmd.Flags().StringVarP(&opts.Revision, "rev", "r", "", "List files from the specific reference of the root repo")
	cmd.MarkFlagsMutuallyExclusive("staged", "rev")
	return cmd
}
