// Package gitsub presents a unified, read-only view of version-control state
// for a root repository and its arbitrarily nested submodules: merged
// history, aggregated status, and cross-repository file listings.
package gitsub

import (
	"fmt"
	"io"
	"regexp"

	"github.com/PaddyThePaddy/git-sub/internal/difffilter"
	"github.com/PaddyThePaddy/git-sub/internal/forest"
	"github.com/PaddyThePaddy/git-sub/internal/history"
	"github.com/PaddyThePaddy/git-sub/internal/lsfiles"
	"github.com/PaddyThePaddy/git-sub/internal/pathspec"
	"github.com/PaddyThePaddy/git-sub/internal/render"
	"github.com/PaddyThePaddy/git-sub/internal/status"
)

// LogOptions configures the merged history listing.
type LogOptions struct {
	// All walks every local branch tip instead of each repository's HEAD.
	All bool
	// Author and Grep are regular expressions over "Name <email>" and the
	// commit message; empty strings disable the filter.
	Author string
	Grep   string
	// Pathspec keeps commits changing a matching root-relative path.
	Pathspec []string
	// Revision scopes the walk to the forest state as of this commit of
	// the root repository.
	Revision string
	Full     bool
	List     bool
	Patch    bool
	// Start skips that many commits; Num limits the output (negative
	// means unlimited).
	Start int
	Num   int
}

// Log prints the merged, time-ordered history of the forest rooted at
// rootPath.
func Log(rootPath string, opts LogOptions, out io.Writer, color bool) error {
	var err error
	runOpts := history.Options{
		All:      opts.All,
		Revision: opts.Revision,
		Full:     opts.Full,
		List:     opts.List,
		Patch:    opts.Patch,
		Start:    opts.Start,
		Num:      opts.Num,
	}
	if opts.Author != "" {
		if runOpts.Author, err = regexp.Compile(opts.Author); err != nil {
			return fmt.Errorf("compile author pattern: %w", err)
		}
	}
	if opts.Grep != "" {
		if runOpts.Grep, err = regexp.Compile(opts.Grep); err != nil {
			return fmt.Errorf("compile grep pattern: %w", err)
		}
	}
	if runOpts.Pathspec, err = pathspec.New(opts.Pathspec); err != nil {
		return err
	}
	root, err := forest.Open(rootPath)
	if err != nil {
		return err
	}
	return history.Run(root, runOpts, render.NewPrinter(out, color))
}

// StatusOptions configures the aggregated status report.
type StatusOptions struct {
	// Staged and WorkTree restrict the report to one change set; they are
	// mutually exclusive.
	Staged   bool
	WorkTree bool
	// DiffFilter is a git-style category pattern such as "AdM"; empty
	// enables every category.
	DiffFilter     string
	Pathspec       []string
	IncludeIgnored bool
	Short          bool
	Patch          bool
	// All reports every repository, clean or not.
	All bool
}

// Status reports, for every repository of the forest, its staged and
// worktree changes, operational state, and any head drift against the pin
// its parent records.
func Status(rootPath string, opts StatusOptions, out io.Writer, color bool) error {
	runOpts := status.Options{
		Show:           status.ShowBoth,
		Filter:         difffilter.Default(),
		IncludeIgnored: opts.IncludeIgnored,
		Short:          opts.Short,
		Patch:          opts.Patch,
		All:            opts.All,
	}
	if opts.Staged {
		runOpts.Show = status.ShowIndex
	} else if opts.WorkTree {
		runOpts.Show = status.ShowWorktree
	}
	if opts.DiffFilter != "" {
		runOpts.Filter = difffilter.FromPattern(opts.DiffFilter)
	}
	var err error
	if runOpts.Pathspec, err = pathspec.New(opts.Pathspec); err != nil {
		return err
	}
	root, err := forest.Open(rootPath)
	if err != nil {
		return err
	}
	return status.Run(root, runOpts, render.NewPrinter(out, color))
}

// LsFilesOptions configures the cross-repository file listing.
type LsFilesOptions struct {
	// Staged lists the index instead of a committed tree; Revision lists
	// the tree of that commit of the root repository. They are mutually
	// exclusive; with neither set HEAD is listed.
	Staged   bool
	Revision string
	Pathspec []string
}

// LsFiles lists every tracked file of the forest with its blob id, nested
// repositories resolved through their pinned commits.
func LsFiles(rootPath string, opts LsFilesOptions, out io.Writer, color bool) error {
	runOpts := lsfiles.Options{
		Staged:   opts.Staged,
		Revision: opts.Revision,
	}
	var err error
	if runOpts.Pathspec, err = pathspec.New(opts.Pathspec); err != nil {
		return err
	}
	root, err := forest.Open(rootPath)
	if err != nil {
		return err
	}
	return lsfiles.Run(root, runOpts, render.NewPrinter(out, color))
}
