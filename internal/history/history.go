// Package history merges the commit histories of a repository forest into a
// single time-ordered stream and runs the log operation over it.
package history

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"

	"github.com/PaddyThePaddy/git-sub/internal/difffilter"
	"github.com/PaddyThePaddy/git-sub/internal/forest"
	"github.com/PaddyThePaddy/git-sub/internal/gitutil"
	"github.com/PaddyThePaddy/git-sub/internal/pathspec"
	"github.com/PaddyThePaddy/git-sub/internal/render"
)

// Options selects and shapes the merged log.
type Options struct {
	// All seeds the walk from every local branch tip instead of HEAD.
	All bool
	// Author and Grep filter emitted commits; nil means no filter.
	Author *regexp.Regexp
	Grep   *regexp.Regexp
	// Pathspec keeps only commits that change a matching root-relative
	// path versus at least one parent.
	Pathspec *pathspec.Pathspec
	// Revision scopes the walk to the forest state as of one commit of
	// the root repository. Empty means current heads.
	Revision string
	// Full selects the long commit format, List appends per-commit file
	// lists, Patch appends unified diffs.
	Full  bool
	List  bool
	Patch bool
	// Start skips that many matching commits; Num limits the output, a
	// negative value meaning no limit.
	Start int
	Num   int
}

// Run walks the merged history of the forest rooted at root and prints the
// selected commits.
func Run(root *forest.Node, opts Options, p *render.Printer) error {
	seeds, err := seedFrontier(root, opts)
	if err != nil {
		return err
	}
	log.Debug().Int("seeds", len(seeds)).Msg("frontier seeded")

	walker := NewWalker(seeds)
	now := time.Now()
	skipped := 0
	emitted := 0
	for {
		if opts.Num >= 0 && emitted >= opts.Num {
			return nil
		}
		entry, err := walker.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if opts.Grep != nil && !opts.Grep.MatchString(entry.Commit.Message) {
			continue
		}
		if opts.Author != nil && !opts.Author.MatchString(entry.Commit.Author.String()) {
			continue
		}
		if opts.Pathspec != nil {
			ok, err := touchesPathspec(entry, opts.Pathspec)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
		}
		if skipped < opts.Start {
			skipped++
			continue
		}
		if err := printCommit(entry, root, now, opts, p); err != nil {
			return err
		}
		emitted++
	}
}

// seedFrontier builds the walker seeds: one per repository head (or branch
// tip) for a current-state walk, or the revision-scoped forest state when a
// starting revision is given.
func seedFrontier(root *forest.Node, opts Options) ([]forest.Seed, error) {
	if opts.Revision != "" {
		commit, err := gitutil.ResolveCommit(root.Repo, opts.Revision)
		if err != nil {
			return nil, err
		}
		return root.SeedsAt(commit)
	}
	if err := root.Discover(); err != nil {
		return nil, err
	}
	var seeds []forest.Seed
	for _, node := range root.Flatten() {
		if opts.All {
			iter, err := node.Repo.Branches()
			if err != nil {
				return nil, fmt.Errorf("list branches of %s: %w", node.Dir, err)
			}
			err = iter.ForEach(func(ref *plumbing.Reference) error {
				commit, err := node.Repo.CommitObject(ref.Hash())
				if err != nil {
					return fmt.Errorf("resolve branch %s: %w", ref.Name(), err)
				}
				seeds = append(seeds, forest.Seed{Repo: node.Repo, Mount: node.Mount, Commit: commit})
				return nil
			})
			if err != nil {
				return nil, err
			}
			continue
		}
		commit, err := gitutil.HeadCommit(node.Repo)
		if err != nil {
			return nil, fmt.Errorf("head of %s: %w", node.Dir, err)
		}
		seeds = append(seeds, forest.Seed{Repo: node.Repo, Mount: node.Mount, Commit: commit})
	}
	return seeds, nil
}

// touchesPathspec reports whether the commit changes a matching path versus
// at least one of its parents. Changed paths are rewritten to root-relative
// form with the entry's mount path before matching; renames test both names.
// Commits without parents never match, mirroring git's pathspec behavior for
// this tool.
func touchesPathspec(entry *Entry, ps *pathspec.Pathspec) (bool, error) {
	tree, err := entry.Commit.Tree()
	if err != nil {
		return false, fmt.Errorf("read tree of %s: %w", entry.Commit.Hash, err)
	}
	parents := entry.Commit.Parents()
	defer parents.Close()
	for {
		parent, err := parents.Next()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read parents of %s: %w", entry.Commit.Hash, err)
		}
		parentTree, err := parent.Tree()
		if err != nil {
			return false, fmt.Errorf("read tree of %s: %w", parent.Hash, err)
		}
		changes, err := object.DiffTree(parentTree, tree)
		if err != nil {
			return false, fmt.Errorf("diff %s..%s: %w", parent.Hash, entry.Commit.Hash, err)
		}
		for _, change := range changes {
			if change.To.Name != "" && ps.Match(pathspec.MapToRoot(entry.Mount, change.To.Name)) {
				return true, nil
			}
			if change.From.Name != "" && ps.Match(pathspec.MapToRoot(entry.Mount, change.From.Name)) {
				return true, nil
			}
		}
	}
}

func printCommit(entry *Entry, root *forest.Node, now time.Time, opts Options, p *render.Printer) error {
	location := root.Dir
	if entry.Mount != "" {
		location = "./" + entry.Mount
	}
	commit := entry.Commit
	p.Commit(render.Commit{
		Hash:       commit.Hash.String(),
		Summary:    summary(commit.Message),
		Message:    commit.Message,
		Author:     commit.Author.String(),
		AuthorName: commit.Author.Name,
		Committer:  commit.Committer.String(),
		AuthorTime: commit.Author.When,
		CommitTime: commit.Committer.When,
		Location:   location,
	}, opts.Full, now)

	if !opts.List && !opts.Patch {
		return nil
	}
	changes, err := firstParentChanges(commit)
	if err != nil {
		return err
	}
	if opts.List {
		for _, change := range changes {
			cat, err := difffilter.ClassifyChange(change)
			if err != nil {
				return fmt.Errorf("classify change of %s: %w", commit.Hash, err)
			}
			p.FileChange(cat, change.From.Name, change.To.Name)
		}
	}
	if opts.Patch {
		// commit-link entries have no blob content to diff; render them
		// as subproject lines and patch the rest as one tree diff
		var blobChanges object.Changes
		for _, change := range changes {
			if change.From.TreeEntry.Mode == filemode.Submodule ||
				change.To.TreeEntry.Mode == filemode.Submodule {
				p.GitlinkPatch(change.From.Name, change.To.Name,
					change.From.TreeEntry.Hash, change.To.TreeEntry.Hash)
				continue
			}
			blobChanges = append(blobChanges, change)
		}
		patch, err := blobChanges.Patch()
		if err != nil {
			return fmt.Errorf("build patch of %s: %w", commit.Hash, err)
		}
		if err := p.TreePatch(patch); err != nil {
			return fmt.Errorf("print patch of %s: %w", commit.Hash, err)
		}
	}
	return nil
}

// summary returns the first line of a commit message.
func summary(message string) string {
	if i := strings.IndexByte(message, '\n'); i >= 0 {
		return message[:i]
	}
	return message
}

// firstParentChanges diffs the commit against its first parent, or against
// the empty tree for a root commit.
func firstParentChanges(commit *object.Commit) (object.Changes, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", commit.Hash, err)
	}
	var parentTree *object.Tree
	if commit.NumParents() > 0 {
		parent, err := commit.Parent(0)
		if err != nil {
			return nil, fmt.Errorf("read parent of %s: %w", commit.Hash, err)
		}
		parentTree, err = parent.Tree()
		if err != nil {
			return nil, fmt.Errorf("read tree of %s: %w", parent.Hash, err)
		}
	}
	changes, err := object.DiffTreeWithOptions(context.Background(), parentTree, tree,
		&object.DiffTreeOptions{DetectRenames: true})
	if err != nil {
		return nil, fmt.Errorf("diff %s against first parent: %w", commit.Hash, err)
	}
	return changes, nil
}
