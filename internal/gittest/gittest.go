// Package gittest builds real on-disk repository fixtures for tests:
// commits with controlled timestamps, branches, and nested repositories
// recorded through gitlink entries and .gitmodules.
package gittest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Repo is a test repository rooted at Dir.
type Repo struct {
	t    *testing.T
	Dir  string
	Repo *git.Repository
}

// Init creates an empty repository at dir.
func Init(t *testing.T, dir string) *Repo {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	return &Repo{t: t, Dir: dir, Repo: repo}
}

// WriteFile writes content to a repository-relative path.
func (r *Repo) WriteFile(rel, content string) {
	r.t.Helper()
	abs := filepath.Join(r.Dir, filepath.FromSlash(rel))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(r.t, os.WriteFile(abs, []byte(content), 0o644))
}

// RemoveFile deletes a repository-relative path.
func (r *Repo) RemoveFile(rel string) {
	r.t.Helper()
	require.NoError(r.t, os.Remove(filepath.Join(r.Dir, filepath.FromSlash(rel))))
}

// Add stages the given repository-relative paths.
func (r *Repo) Add(paths ...string) {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	for _, p := range paths {
		_, err := wt.Add(p)
		require.NoError(r.t, err)
	}
}

// StageAll stages every worktree change, including deletions.
func (r *Repo) StageAll() {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.AddWithOptions(&git.AddOptions{All: true}))
}

// Commit stages everything and commits with the given committer timestamp.
func (r *Repo) Commit(msg string, when time.Time) plumbing.Hash {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.AddWithOptions(&git.AddOptions{All: true}))
	return r.CommitIndex(msg, when)
}

// CommitIndex commits the index as-is, without staging anything first.
func (r *Repo) CommitIndex(msg string, when time.Time) plumbing.Hash {
	r.t.Helper()
	return r.commit(msg, "Test Author", when, nil)
}

// CommitAs stages everything and commits with a specific author name.
func (r *Repo) CommitAs(msg, author string, when time.Time) plumbing.Hash {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.AddWithOptions(&git.AddOptions{All: true}))
	return r.commit(msg, author, when, nil)
}

// Merge commits the index as a merge of HEAD and the given other parent.
func (r *Repo) Merge(msg string, when time.Time, other plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	head, err := r.Repo.Head()
	require.NoError(r.t, err)
	return r.commit(msg, "Test Author", when, []plumbing.Hash{head.Hash(), other})
}

func (r *Repo) commit(msg, author string, when time.Time, parents []plumbing.Hash) plumbing.Hash {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	sig := &object.Signature{Name: author, Email: "test@example.com", When: when}
	h, err := wt.Commit(msg, &git.CommitOptions{
		Author:            sig,
		Committer:         sig,
		Parents:           parents,
		AllowEmptyCommits: true,
	})
	require.NoError(r.t, err)
	return h
}

// Branch points a new local branch at the given commit.
func (r *Repo) Branch(name string, h plumbing.Hash) {
	r.t.Helper()
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), h)
	require.NoError(r.t, r.Repo.Storer.SetReference(ref))
}

// Checkout moves HEAD (detached) to the given commit.
func (r *Repo) Checkout(h plumbing.Hash) {
	r.t.Helper()
	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)
	require.NoError(r.t, wt.Checkout(&git.CheckoutOptions{Hash: h}))
}

// Head returns the current HEAD commit id.
func (r *Repo) Head() plumbing.Hash {
	r.t.Helper()
	ref, err := r.Repo.Head()
	require.NoError(r.t, err)
	return ref.Hash()
}

// InitSubmodule creates a child repository at relPath, registers it in
// .gitmodules under the given name, and stages a gitlink entry for it. The
// pin must be committed by the caller (CommitIndex keeps the staged gitlink
// untouched).
func (r *Repo) InitSubmodule(name, relPath string) *Repo {
	r.t.Helper()
	child := Init(r.t, filepath.Join(r.Dir, filepath.FromSlash(relPath)))
	section := fmt.Sprintf("[submodule %q]\n\tpath = %s\n\turl = ./%s\n", name, relPath, relPath)
	gmPath := filepath.Join(r.Dir, ".gitmodules")
	existing, _ := os.ReadFile(gmPath)
	require.NoError(r.t, os.WriteFile(gmPath, append(existing, section...), 0o644))
	r.Add(".gitmodules")
	return child
}

// SetPin stages the gitlink entry for relPath at the given child commit.
func (r *Repo) SetPin(relPath string, pin plumbing.Hash) {
	r.t.Helper()
	idx, err := r.Repo.Storer.Index()
	require.NoError(r.t, err)
	for _, e := range idx.Entries {
		if e.Name == relPath {
			e.Hash = pin
			require.NoError(r.t, r.Repo.Storer.SetIndex(idx))
			return
		}
	}
	idx.Entries = append(idx.Entries, &index.Entry{
		Name: relPath,
		Hash: pin,
		Mode: filemode.Submodule,
	})
	sort.Slice(idx.Entries, func(i, j int) bool { return idx.Entries[i].Name < idx.Entries[j].Name })
	require.NoError(r.t, r.Repo.Storer.SetIndex(idx))
}
