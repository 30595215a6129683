package history

import (
	"container/heap"
	"fmt"
	"io"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/PaddyThePaddy/git-sub/internal/forest"
)

// Entry is one commit on the merged stream together with the repository it
// came from and the root-relative mount path of that repository. The mount
// path is fixed when the entry is created and inherited unchanged by the
// entries built for its parents.
type Entry struct {
	Commit *object.Commit
	Repo   *git.Repository
	Mount  string
	When   time.Time
}

// Walker merges the commit histories of every seeded repository into a
// single stream ordered by non-increasing committer timestamp. It is a
// one-shot iterator: Next returns io.EOF once the frontier is exhausted.
//
// Entries with equal timestamps are ordered by mount path, then commit id,
// so interleaving across repositories is deterministic. A commit reached
// again through a converging parent path is emitted only once: duplicate
// arrivals (same commit id, same mount) are collapsed when they surface
// together at the top of the frontier.
type Walker struct {
	frontier entryHeap
}

// NewWalker seeds the frontier with one entry per starting commit.
func NewWalker(seeds []forest.Seed) *Walker {
	w := &Walker{frontier: make(entryHeap, 0, len(seeds))}
	for _, s := range seeds {
		w.frontier = append(w.frontier, &Entry{
			Commit: s.Commit,
			Repo:   s.Repo,
			Mount:  s.Mount,
			When:   s.Commit.Committer.When,
		})
	}
	heap.Init(&w.frontier)
	return w
}

// Next removes and returns the newest entry of the frontier, after inserting
// that commit's parents. It returns io.EOF when no entries remain.
func (w *Walker) Next() (*Entry, error) {
	if w.frontier.Len() == 0 {
		return nil, io.EOF
	}
	top := heap.Pop(&w.frontier).(*Entry)
	for w.frontier.Len() > 0 {
		next := w.frontier[0]
		if next.Commit.Hash != top.Commit.Hash || next.Mount != top.Mount {
			break
		}
		heap.Pop(&w.frontier)
	}
	err := top.Commit.Parents().ForEach(func(parent *object.Commit) error {
		heap.Push(&w.frontier, &Entry{
			Commit: parent,
			Repo:   top.Repo,
			Mount:  top.Mount,
			When:   parent.Committer.When,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read parents of %s: %w", top.Commit.Hash, err)
	}
	return top, nil
}

// entryHeap is a max-heap on committer time with a deterministic tiebreak.
type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if !a.When.Equal(b.When) {
		return a.When.After(b.When)
	}
	if a.Mount != b.Mount {
		return a.Mount < b.Mount
	}
	return a.Commit.Hash.String() < b.Commit.Hash.String()
}

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) { *h = append(*h, x.(*Entry)) }

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}
