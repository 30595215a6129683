// Package gitutil wraps the go-git primitives the rest of the tool builds on:
// opening repositories and submodules, resolving revisions, reading blobs and
// worktree files, and probing the repository's operational state.
package gitutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

var (
	// ErrNotARepository reports that a path does not hold a git repository.
	ErrNotARepository = errors.New("not a git repository")
	// ErrSubmoduleUnavailable reports a submodule that cannot be opened,
	// typically because it was never initialized.
	ErrSubmoduleUnavailable = errors.New("submodule unavailable")
	// ErrUnknownRevision reports a revision string that resolves to nothing.
	ErrUnknownRevision = errors.New("unknown revision")
)

// Open opens the repository whose working directory is dir.
func Open(dir string) (*git.Repository, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotARepository, dir, err)
	}
	return repo, nil
}

// Workdir returns the absolute working directory of an opened repository.
func Workdir(repo *git.Repository) (string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("repository has no working tree: %w", err)
	}
	return wt.Filesystem.Root(), nil
}

// HeadCommit returns the commit the repository's HEAD currently points at.
func HeadCommit(repo *git.Repository) (*object.Commit, error) {
	ref, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve HEAD: %w", err)
	}
	return repo.CommitObject(ref.Hash())
}

// ResolveCommit resolves a revision string (branch, tag, hash, HEAD~n, ...)
// to a commit object.
func ResolveCommit(repo *git.Repository, rev string) (*object.Commit, error) {
	h, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownRevision, rev, err)
	}
	commit, err := repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a commit: %v", ErrUnknownRevision, rev, err)
	}
	return commit, nil
}

// SubmoduleInfo is one entry of a repository's .gitmodules file.
type SubmoduleInfo struct {
	Name string
	Path string
}

// Submodules lists the submodules recorded in the repository's .gitmodules.
// A repository without the file has no submodules.
func Submodules(repo *git.Repository) ([]SubmoduleInfo, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository has no working tree: %w", err)
	}
	f, err := wt.Filesystem.Open(".gitmodules")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open .gitmodules: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read .gitmodules: %w", err)
	}
	modules := config.NewModules()
	if err := modules.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("parse .gitmodules: %w", err)
	}
	infos := make([]SubmoduleInfo, 0, len(modules.Submodules))
	for _, sub := range modules.Submodules {
		infos = append(infos, SubmoduleInfo{Name: sub.Name, Path: sub.Path})
	}
	// map iteration order is random; keep discovery deterministic
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

// OpenSubmodule opens the child repository checked out at relPath under the
// parent working directory.
func OpenSubmodule(parentDir, relPath string) (*git.Repository, error) {
	dir := filepath.Join(parentDir, filepath.FromSlash(relPath))
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSubmoduleUnavailable, relPath, err)
	}
	return repo, nil
}

// PinnedHash returns the commit id the repository currently records for the
// submodule at relPath, preferring the HEAD tree over the index.
func PinnedHash(repo *git.Repository, relPath string) (plumbing.Hash, error) {
	head, err := HeadCommit(repo)
	if err == nil {
		tree, terr := head.Tree()
		if terr == nil {
			if entry, eerr := tree.FindEntry(relPath); eerr == nil && entry.Mode == filemode.Submodule {
				return entry.Hash, nil
			}
		}
	}
	idx, err := repo.Storer.Index()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("read index: %w", err)
	}
	for _, entry := range idx.Entries {
		if entry.Name == relPath && entry.Mode == filemode.Submodule {
			return entry.Hash, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("%w: no pin recorded for %s", ErrSubmoduleUnavailable, relPath)
}

// Index returns the repository's staging index.
func Index(repo *git.Repository) (*index.Index, error) {
	return repo.Storer.Index()
}

// ReadBlob returns the full content of a blob object.
func ReadBlob(repo *git.Repository, h plumbing.Hash) ([]byte, error) {
	blob, err := repo.BlobObject(h)
	if err != nil {
		return nil, fmt.Errorf("find blob %s: %w", h, err)
	}
	r, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", h, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// ReadWorktreeFile returns the content of a file in the working directory,
// addressed by its repository-relative slash path.
func ReadWorktreeFile(repo *git.Repository, rel string) ([]byte, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository has no working tree: %w", err)
	}
	f, err := wt.Filesystem.Open(rel)
	if err != nil {
		return nil, fmt.Errorf("open worktree file %s: %w", rel, err)
	}
	defer f.Close()
	return io.ReadAll(f)
}

// State names the operational state of a repository.
type State string

const (
	StateClean      State = "Clean"
	StateMerge      State = "Merge"
	StateRebase     State = "Rebase"
	StateCherryPick State = "CherryPick"
	StateRevert     State = "Revert"
	StateBisect     State = "Bisect"
)

// RepoState probes the .git directory for in-progress operations. A storage
// without a filesystem (bare in-memory repositories) reports clean.
func RepoState(repo *git.Repository) State {
	st, ok := repo.Storer.(*filesystem.Storage)
	if !ok {
		return StateClean
	}
	fs := st.Filesystem()
	switch {
	case exists(fs, "rebase-merge"), exists(fs, "rebase-apply"):
		return StateRebase
	case exists(fs, "MERGE_HEAD"):
		return StateMerge
	case exists(fs, "CHERRY_PICK_HEAD"):
		return StateCherryPick
	case exists(fs, "REVERT_HEAD"):
		return StateRevert
	case exists(fs, "BISECT_LOG"):
		return StateBisect
	default:
		return StateClean
	}
}

func exists(fs billy.Filesystem, name string) bool {
	_, err := fs.Stat(name)
	return err == nil
}

// IgnoredPaths enumerates worktree paths excluded by gitignore rules.
// Directories matched as a whole are reported once, with a trailing slash,
// and not descended into. Paths listed in skip (and the .git directory) are
// never reported or entered.
func IgnoredPaths(repo *git.Repository, skip map[string]bool) ([]string, error) {
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("repository has no working tree: %w", err)
	}
	patterns, err := gitignore.ReadPatterns(wt.Filesystem, nil)
	if err != nil {
		return nil, fmt.Errorf("read gitignore patterns: %w", err)
	}
	matcher := gitignore.NewMatcher(patterns)

	var ignored []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := wt.Filesystem.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read worktree dir %s: %w", dir, err)
		}
		for _, entry := range entries {
			rel := path.Join(dir, entry.Name())
			if entry.Name() == ".git" || skip[rel] {
				continue
			}
			parts := strings.Split(rel, "/")
			if matcher.Match(parts, entry.IsDir()) {
				if entry.IsDir() {
					ignored = append(ignored, rel+"/")
				} else {
					ignored = append(ignored, rel)
				}
				continue
			}
			if entry.IsDir() {
				if err := walk(rel); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if err := walk("."); err != nil {
		return nil, err
	}
	return ignored, nil
}
