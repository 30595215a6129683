// Package status computes per-repository status blocks across the forest:
// staged and worktree change sets, operational state, and head drift between
// a submodule's pin and its checked-out commit.
package status

import (
	"fmt"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
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

// Show selects which change sets are reported.
type Show int

const (
	ShowBoth Show = iota
	ShowIndex
	ShowWorktree
)

// Options shapes a status run.
type Options struct {
	Show           Show
	Filter         difffilter.Filter
	Pathspec       *pathspec.Pathspec
	IncludeIgnored bool
	// Short prints only headers and counts.
	Short bool
	// Patch appends a unified diff to every reported entry.
	Patch bool
	// All reports every repository, clean or not.
	All bool
}

// entry is one classified status line of a single repository.
type entry struct {
	path      string
	from      string // rename source
	cat       difffilter.Category
	code      string // two-column porcelain code
	staged    bool
	untracked bool
	ignored   bool
}

// Run discovers the forest below root and reports each repository's status.
func Run(root *forest.Node, opts Options, p *render.Printer) error {
	if err := root.Discover(); err != nil {
		return err
	}
	return aggregate(root, opts, p)
}

// aggregate reports one node and then descends into every child, whether or
// not the node itself was reported, so drift is detected per level.
func aggregate(node *forest.Node, opts Options, p *render.Printer) error {
	staged, worktree, err := collect(node, opts)
	if err != nil {
		return err
	}

	var head plumbing.Hash
	if commit, err := gitutil.HeadCommit(node.Repo); err == nil {
		head = commit.Hash
	}
	state := gitutil.RepoState(node.Repo)
	drift := !node.Pin.IsZero() && head != node.Pin
	log.Debug().
		Str("mount", node.Mount).
		Int("staged", len(staged)).
		Int("worktree", len(worktree)).
		Bool("drift", drift).
		Msg("repository status")

	if opts.All || len(staged) > 0 || len(worktree) > 0 || state != gitutil.StateClean || drift {
		location := node.Dir
		if node.Mount != "" {
			location = "./" + node.Mount
		}
		p.RepoHeader(location, head.String(), string(state))
		if drift {
			p.HeadDrift(node.Pin.String(), head.String())
		}
		p.Counts(len(staged), len(worktree))
		if !opts.Short {
			if opts.Show != ShowWorktree {
				if err := printEntries(node, staged, opts, p); err != nil {
					return err
				}
			}
			if opts.Show != ShowIndex {
				if err := printEntries(node, worktree, opts, p); err != nil {
					return err
				}
			}
		}
	}

	for _, child := range node.Children {
		if err := aggregate(child, opts, p); err != nil {
			return err
		}
	}
	return nil
}

// collect computes the staged (index vs HEAD) and worktree (worktree vs
// index) change sets of one repository. Submodule mount paths are excluded;
// neither set includes anything from child repositories.
func collect(node *forest.Node, opts Options) (staged, worktree []entry, err error) {
	wt, err := node.Repo.Worktree()
	if err != nil {
		return nil, nil, fmt.Errorf("worktree of %s: %w", node.Dir, err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, nil, fmt.Errorf("status of %s: %w", node.Dir, err)
	}

	children := childPaths(node)
	idxModes, _, err := indexState(node.Repo)
	if err != nil {
		return nil, nil, err
	}

	paths := make([]string, 0, len(st))
	for path := range st {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	keep := func(path string) bool {
		if children[path] || idxModes[path] == filemode.Submodule {
			return false
		}
		return opts.Pathspec.Match(pathspec.MapToRoot(node.Mount, path))
	}

	for _, path := range paths {
		if !keep(path) {
			continue
		}
		fs := st[path]
		if fs.Staging == git.Untracked {
			worktree = append(worktree, entry{
				path:      path,
				cat:       difffilter.Added,
				code:      "??",
				untracked: true,
			})
			continue
		}
		if fs.Staging != git.Unmodified {
			cat := difffilter.ClassifyStatus(fs.Staging)
			staged = append(staged, entry{
				path:   path,
				cat:    cat,
				code:   cat.Letter() + " ",
				staged: true,
			})
		}
		if fs.Worktree != git.Unmodified {
			cat := difffilter.ClassifyStatus(fs.Worktree)
			worktree = append(worktree, entry{
				path: path,
				cat:  cat,
				code: " " + cat.Letter(),
			})
		}
	}

	staged, err = detectStagedRenames(node.Repo, staged)
	if err != nil {
		return nil, nil, err
	}

	if opts.IncludeIgnored {
		ignored, err := gitutil.IgnoredPaths(node.Repo, children)
		if err != nil {
			return nil, nil, err
		}
		for _, path := range ignored {
			if !opts.Pathspec.Match(pathspec.MapToRoot(node.Mount, strings.TrimSuffix(path, "/"))) {
				continue
			}
			worktree = append(worktree, entry{
				path:    path,
				cat:     difffilter.Unknown,
				code:    "!!",
				ignored: true,
			})
		}
	}

	staged = filterEntries(staged, opts.Filter)
	worktree = filterEntries(worktree, opts.Filter)
	return staged, worktree, nil
}

func filterEntries(entries []entry, f difffilter.Filter) []entry {
	kept := entries[:0]
	for _, e := range entries {
		if f.Allows(e.cat) {
			kept = append(kept, e)
		}
	}
	return kept
}

// childPaths returns the repository-relative mount paths of direct children.
func childPaths(node *forest.Node) map[string]bool {
	paths := make(map[string]bool, len(node.Children))
	for _, child := range node.Children {
		rel := child.Mount
		if node.Mount != "" {
			rel = strings.TrimPrefix(child.Mount, node.Mount+"/")
		}
		paths[rel] = true
	}
	return paths
}

// indexState maps every index entry to its mode and blob hash.
func indexState(repo *git.Repository) (map[string]filemode.FileMode, map[string]plumbing.Hash, error) {
	idx, err := gitutil.Index(repo)
	if err != nil {
		return nil, nil, fmt.Errorf("read index: %w", err)
	}
	modes := make(map[string]filemode.FileMode, len(idx.Entries))
	hashes := make(map[string]plumbing.Hash, len(idx.Entries))
	for _, e := range idx.Entries {
		modes[e.Name] = e.Mode
		hashes[e.Name] = e.Hash
	}
	return modes, hashes, nil
}

// detectStagedRenames merges staged add/delete pairs that carry the same
// blob content into single rename entries, the way rename detection between
// HEAD and the index would.
func detectStagedRenames(repo *git.Repository, staged []entry) ([]entry, error) {
	var adds, dels []int
	for i, e := range staged {
		switch e.cat {
		case difffilter.Added:
			adds = append(adds, i)
		case difffilter.Deleted:
			dels = append(dels, i)
		}
	}
	if len(adds) == 0 || len(dels) == 0 {
		return staged, nil
	}

	_, idxHashes, err := indexState(repo)
	if err != nil {
		return nil, err
	}
	headTree, err := headTree(repo)
	if err != nil || headTree == nil {
		return staged, err
	}

	deletedByHash := make(map[plumbing.Hash]int, len(dels))
	for _, i := range dels {
		if e, err := headTree.FindEntry(staged[i].path); err == nil {
			deletedByHash[e.Hash] = i
		}
	}
	consumed := make(map[int]bool)
	for _, i := range adds {
		h, ok := idxHashes[staged[i].path]
		if !ok {
			continue
		}
		j, ok := deletedByHash[h]
		if !ok || consumed[j] {
			continue
		}
		consumed[j] = true
		staged[i].cat = difffilter.Renamed
		staged[i].code = "R "
		staged[i].from = staged[j].path
	}
	if len(consumed) == 0 {
		return staged, nil
	}
	kept := staged[:0]
	for i, e := range staged {
		if !consumed[i] {
			kept = append(kept, e)
		}
	}
	return kept, nil
}

func headTree(repo *git.Repository) (*object.Tree, error) {
	commit, err := gitutil.HeadCommit(repo)
	if err != nil {
		return nil, nil // unborn HEAD: nothing staged against yet
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("read HEAD tree: %w", err)
	}
	return tree, nil
}

func printEntries(node *forest.Node, entries []entry, opts Options, p *render.Printer) error {
	for _, e := range entries {
		p.StatusEntry(e.code, e.staged, e.from, e.path)
		if opts.Patch && !e.ignored {
			if err := printPatch(node, e, p); err != nil {
				return err
			}
		}
	}
	return nil
}
