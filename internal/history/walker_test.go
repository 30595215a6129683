package history

import (
	"io"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaddyThePaddy/git-sub/internal/forest"
	"github.com/PaddyThePaddy/git-sub/internal/gittest"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func seedAt(t *testing.T, r *gittest.Repo, mount string, h plumbing.Hash) forest.Seed {
	t.Helper()
	commit, err := r.Repo.CommitObject(h)
	require.NoError(t, err)
	return forest.Seed{Repo: r.Repo, Mount: mount, Commit: commit}
}

func drain(t *testing.T, w *Walker) []*Entry {
	t.Helper()
	var entries []*Entry
	for {
		e, err := w.Next()
		if err == io.EOF {
			return entries
		}
		require.NoError(t, err)
		entries = append(entries, e)
	}
}

func TestWalkerMergesByCommitterTime(t *testing.T) {
	a := gittest.Init(t, t.TempDir())
	b := gittest.Init(t, t.TempDir())

	a.WriteFile("a.txt", "1")
	a.Commit("a1", epoch)
	b.WriteFile("b.txt", "1")
	b.Commit("b1", epoch.Add(1*time.Minute))
	a.WriteFile("a.txt", "2")
	a.Commit("a2", epoch.Add(2*time.Minute))
	b.WriteFile("b.txt", "2")
	b.Commit("b2", epoch.Add(3*time.Minute))

	w := NewWalker([]forest.Seed{
		seedAt(t, a, "", a.Head()),
		seedAt(t, b, "libs/b", b.Head()),
	})
	entries := drain(t, w)
	require.Len(t, entries, 4)

	var msgs []string
	for i, e := range entries {
		msgs = append(msgs, e.Commit.Message)
		if i > 0 {
			assert.False(t, e.When.After(entries[i-1].When), "timestamps must be non-increasing")
		}
	}
	assert.Equal(t, []string{"b2", "a2", "b1", "a1"}, msgs)
}

func TestWalkerCarriesMountUnchanged(t *testing.T) {
	r := gittest.Init(t, t.TempDir())
	r.WriteFile("f.txt", "1")
	r.Commit("one", epoch)
	r.WriteFile("f.txt", "2")
	r.Commit("two", epoch.Add(time.Minute))

	w := NewWalker([]forest.Seed{seedAt(t, r, "libs/foo", r.Head())})
	for _, e := range drain(t, w) {
		assert.Equal(t, "libs/foo", e.Mount)
	}
}

func TestWalkerEmitsConvergingCommitOnce(t *testing.T) {
	r := gittest.Init(t, t.TempDir())
	r.WriteFile("f.txt", "base")
	base := r.Commit("base", epoch)
	r.WriteFile("f.txt", "left")
	left := r.Commit("left", epoch.Add(time.Minute))
	r.Checkout(base)
	r.WriteFile("g.txt", "right")
	right := r.Commit("right", epoch.Add(2*time.Minute))

	w := NewWalker([]forest.Seed{
		seedAt(t, r, "", left),
		seedAt(t, r, "", right),
	})
	entries := drain(t, w)
	require.Len(t, entries, 3)
	assert.Equal(t, right, entries[0].Commit.Hash)
	assert.Equal(t, left, entries[1].Commit.Hash)
	assert.Equal(t, base, entries[2].Commit.Hash)
}

func TestWalkerTimestampTiebreakOnMount(t *testing.T) {
	a := gittest.Init(t, t.TempDir())
	b := gittest.Init(t, t.TempDir())
	a.WriteFile("a.txt", "1")
	a.Commit("same instant a", epoch)
	b.WriteFile("b.txt", "1")
	b.Commit("same instant b", epoch)

	w := NewWalker([]forest.Seed{
		seedAt(t, b, "zzz", b.Head()),
		seedAt(t, a, "aaa", a.Head()),
	})
	entries := drain(t, w)
	require.Len(t, entries, 2)
	assert.Equal(t, "aaa", entries[0].Mount)
	assert.Equal(t, "zzz", entries[1].Mount)
}

func TestWalkerEmptyFrontier(t *testing.T) {
	w := NewWalker(nil)
	_, err := w.Next()
	assert.ErrorIs(t, err, io.EOF)
}
