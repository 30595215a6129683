package cli

import (
	"os"

	"github.com/spf13/cobra"

	gitsub "github.com/PaddyThePaddy/git-sub"
)

func newStatusCmd() *cobra.Command {
	var opts gitsub.StatusOptions
	cmd := &cobra.Command{
		Use:   "status [pathspec...]",
		Short: "Collect status information across all submodules",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Pathspec = args
			return gitsub.Status(cwd, opts, os.Stdout, colorEnabled())
		},
	}
	cmd.Flags().BoolVarP(&opts.Staged, "staged", "S", false, "Only show staged changes")
	cmd.Flags().BoolVarP(&opts.WorkTree, "work-tree", "w", false, "Only show working tree changes (un-staged)")
	cmd.Flags().BoolVarP(&opts.IncludeIgnored, "ignored", "i", false, "Include ignored files")
	cmd.Flags().StringVarP(&opts.DiffFilter, "diff-filter", "f", "",
		"Filter changes with their status.\nA = Add, D = Delete, M = Modified, R = Rename,\nT = Type changed, U = Unknown\nlowercase will exclude those flags")
	cmd.Flags().BoolVarP(&opts.Short, "short", "s", false, "Only show summary of dirty submodules")
	cmd.Flags().BoolVarP(&opts.Patch, "patch", "p", false, "Show patch")
	cmd.Flags().BoolVarP(&opts.All, "all", "a", false, "Show all submodules regardless of dirty or not")
	cmd.MarkFlagsMutuallyExclusive("staged", "work-tree")
	return cmd
}
