// Package lsfiles lists tracked files across the whole repository forest,
// either from the staging index or from the tree of a chosen revision.
package lsfiles

import (
	"fmt"
	"path"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/PaddyThePaddy/git-sub/internal/forest"
	"github.com/PaddyThePaddy/git-sub/internal/gitutil"
	"github.com/PaddyThePaddy/git-sub/internal/pathspec"
	"github.com/PaddyThePaddy/git-sub/internal/render"
)

// Options selects the listing mode. Staged and Revision are mutually
// exclusive; with neither set the root's HEAD tree is listed.
type Options struct {
	Staged   bool
	Revision string
	Pathspec *pathspec.Pathspec
}

// Run lists every tracked file reachable from the root repository,
// descending into commit-link entries via the pinned commit of each child.
func Run(root *forest.Node, opts Options, p *render.Printer) error {
	if opts.Staged {
		return listIndex(root.Repo, root.Dir, "", opts, p)
	}
	rev := opts.Revision
	if rev == "" {
		rev = "HEAD"
	}
	commit, err := gitutil.ResolveCommit(root.Repo, rev)
	if err != nil {
		return err
	}
	return listCommit(root.Repo, root.Dir, commit, "", opts, p)
}

// listIndex lists the staging index of one repository; commit-link entries
// recurse into the pinned commit of the child repository.
func listIndex(repo *git.Repository, dir, base string, opts Options, p *render.Printer) error {
	idx, err := gitutil.Index(repo)
	if err != nil {
		return fmt.Errorf("read index of %s: %w", dir, err)
	}
	for _, e := range idx.Entries {
		rootRel := path.Join(base, e.Name)
		if e.Mode == filemode.Submodule {
			child, err := gitutil.OpenSubmodule(dir, e.Name)
			if err != nil {
				return err
			}
			commit, err := child.CommitObject(e.Hash)
			if err != nil {
				return fmt.Errorf("%w: commit %s not found in %s: %v",
					gitutil.ErrSubmoduleUnavailable, e.Hash, e.Name, err)
			}
			childDir := filepath.Join(dir, filepath.FromSlash(e.Name))
			if err := listCommit(child, childDir, commit, rootRel, opts, p); err != nil {
				return err
			}
			continue
		}
		if !opts.Pathspec.Match(rootRel) {
			continue
		}
		p.File(e.Hash.String(), rootRel)
	}
	return nil
}

// listCommit lists the tree of one commit, rooted at the given root-relative
// base path.
func listCommit(repo *git.Repository, dir string, commit *object.Commit, base string, opts Options, p *render.Printer) error {
	tree, err := commit.Tree()
	if err != nil {
		return fmt.Errorf("read tree of %s: %w", commit.Hash, err)
	}
	return listTree(repo, dir, tree, base, "", opts, p)
}

// listTree walks one tree carrying two path accumulators: rootRel is
// relative to the forest root and names output lines, repoRel is relative to
// the current repository and resolves the next commit-link lookup. They
// diverge at every nested mount point.
func listTree(repo *git.Repository, dir string, tree *object.Tree, rootRel, repoRel string, opts Options, p *render.Printer) error {
	for _, e := range tree.Entries {
		nameRoot := path.Join(rootRel, e.Name)
		nameRepo := path.Join(repoRel, e.Name)
		switch e.Mode {
		case filemode.Submodule:
			child, err := gitutil.OpenSubmodule(dir, nameRepo)
			if err != nil {
				return err
			}
			commit, err := child.CommitObject(e.Hash)
			if err != nil {
				return fmt.Errorf("%w: commit %s not found in %s: %v",
					gitutil.ErrSubmoduleUnavailable, e.Hash, nameRepo, err)
			}
			childDir := filepath.Join(dir, filepath.FromSlash(nameRepo))
			if err := listCommit(child, childDir, commit, nameRoot, opts, p); err != nil {
				return err
			}
		case filemode.Dir:
			sub, err := repo.TreeObject(e.Hash)
			if err != nil {
				return fmt.Errorf("read tree %s: %w", e.Hash, err)
			}
			if err := listTree(repo, dir, sub, nameRoot, nameRepo, opts, p); err != nil {
				return err
			}
		default:
			if !opts.Pathspec.Match(nameRoot) {
				continue
			}
			p.File(e.Hash.String(), nameRoot)
		}
	}
	return nil
}
