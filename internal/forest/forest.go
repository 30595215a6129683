// Package forest discovers the tree of repositories reachable from a root
// repository through its (arbitrarily nested) submodules.
package forest

import (
	"fmt"
	"io"
	"path"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/rs/zerolog/log"

	"github.com/PaddyThePaddy/git-sub/internal/gitutil"
)

// Node is one open repository in the forest. Parent context (the mount path)
// is carried down by value during discovery; nodes never point back at their
// parents.
type Node struct {
	Repo *git.Repository
	// Dir is the absolute working directory.
	Dir string
	// Mount is the root-relative path the repository is attached at,
	// "" for the root itself.
	Mount string
	// Name is the submodule name from .gitmodules, "" for the root.
	Name string
	// Pin is the commit id the parent currently records for this
	// repository; zero for the root or when no pin is recorded yet.
	Pin      plumbing.Hash
	Children []*Node
}

// Open opens the root repository of a forest.
func Open(dir string) (*Node, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", dir, err)
	}
	repo, err := gitutil.Open(abs)
	if err != nil {
		return nil, err
	}
	workdir, err := gitutil.Workdir(repo)
	if err != nil {
		return nil, err
	}
	return &Node{Repo: repo, Dir: workdir}, nil
}

// Discover recursively opens every submodule below the node. Any submodule
// that cannot be opened aborts the whole discovery.
func (n *Node) Discover() error {
	subs, err := gitutil.Submodules(n.Repo)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		repo, err := gitutil.OpenSubmodule(n.Dir, sub.Path)
		if err != nil {
			return err
		}
		pin, err := gitutil.PinnedHash(n.Repo, sub.Path)
		if err != nil {
			// submodule declared but not yet committed anywhere
			pin = plumbing.ZeroHash
		}
		child := &Node{
			Repo:  repo,
			Dir:   filepath.Join(n.Dir, filepath.FromSlash(sub.Path)),
			Mount: path.Join(n.Mount, sub.Path),
			Name:  sub.Name,
			Pin:   pin,
		}
		log.Debug().Str("mount", child.Mount).Str("pin", pin.String()).Msg("submodule opened")
		if err := child.Discover(); err != nil {
			return err
		}
		n.Children = append(n.Children, child)
	}
	return nil
}

// Flatten returns every node of the forest, deepest subtrees first and the
// receiver last.
func (n *Node) Flatten() []*Node {
	var nodes []*Node
	for _, child := range n.Children {
		nodes = append(nodes, child.Flatten()...)
	}
	return append(nodes, n)
}

// Seed is one (repository, commit) starting point for a history walk.
type Seed struct {
	Repo   *git.Repository
	Mount  string
	Commit *object.Commit
}

// SeedsAt resolves the state of the whole forest as of one historical commit
// of this node's repository: every commit-link entry reachable from the
// commit's tree is resolved inside the corresponding child repository,
// recursively, and returned together with the commit itself.
func (n *Node) SeedsAt(commit *object.Commit) ([]Seed, error) {
	seeds, err := seedsBelow(n.Repo, n.Dir, n.Mount, commit)
	if err != nil {
		return nil, err
	}
	return append(seeds, Seed{Repo: n.Repo, Mount: n.Mount, Commit: commit}), nil
}

func seedsBelow(repo *git.Repository, dir, mount string, commit *object.Commit) ([]Seed, error) {
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read tree of %s: %w", commit.Hash, err)
	}
	var seeds []Seed
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("walk tree of %s: %w", commit.Hash, err)
		}
		if entry.Mode != filemode.Submodule {
			continue
		}
		child, err := gitutil.OpenSubmodule(dir, name)
		if err != nil {
			return nil, err
		}
		childCommit, err := child.CommitObject(entry.Hash)
		if err != nil {
			return nil, fmt.Errorf("%w: commit %s not found in %s: %v",
				gitutil.ErrSubmoduleUnavailable, entry.Hash, name, err)
		}
		childDir := filepath.Join(dir, filepath.FromSlash(name))
		childMount := path.Join(mount, name)
		below, err := seedsBelow(child, childDir, childMount, childCommit)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, below...)
		seeds = append(seeds, Seed{Repo: child, Mount: childMount, Commit: childCommit})
	}
	return seeds, nil
}
