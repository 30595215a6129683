package lsfiles

import (
	"bytes"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaddyThePaddy/git-sub/internal/forest"
	"github.com/PaddyThePaddy/git-sub/internal/gittest"
	"github.com/PaddyThePaddy/git-sub/internal/pathspec"
	"github.com/PaddyThePaddy/git-sub/internal/render"
)

var epoch = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func runLs(t *testing.T, dir string, opts Options) string {
	t.Helper()
	root, err := forest.Open(dir)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, Run(root, opts, render.NewPrinter(&buf, false)))
	return buf.String()
}

// fixtureForest builds a root with one submodule at libs/child. The child has
// two commits; the returned root pins the first one, while the child's own
// HEAD sits on the second.
func fixtureForest(t *testing.T) (root *gittest.Repo, r1, r2, c1, c2 plumbing.Hash) {
	t.Helper()
	rootRepo := gittest.Init(t, t.TempDir())
	rootRepo.WriteFile("README.md", "hi\n")
	child := rootRepo.InitSubmodule("child", "libs/child")

	child.WriteFile("src/a.c", "a\n")
	c1 = child.Commit("child one", epoch)
	child.WriteFile("src/b.c", "b\n")
	c2 = child.Commit("child two", epoch.Add(time.Minute))

	rootRepo.Add("README.md")
	rootRepo.SetPin("libs/child", c1)
	r1 = rootRepo.CommitIndex("root one", epoch.Add(2*time.Minute))
	rootRepo.SetPin("libs/child", c2)
	r2 = rootRepo.CommitIndex("root two", epoch.Add(3*time.Minute))
	return rootRepo, r1, r2, c1, c2
}

func TestListHeadFollowsCurrentPin(t *testing.T) {
	root, _, _, _, _ := fixtureForest(t)

	out := runLs(t, root.Dir, Options{})
	assert.Contains(t, out, "README.md")
	assert.Contains(t, out, ".gitmodules")
	assert.Contains(t, out, "libs/child/src/a.c")
	assert.Contains(t, out, "libs/child/src/b.c")
}

func TestListRevisionUsesHistoricalPin(t *testing.T) {
	root, r1, _, _, _ := fixtureForest(t)

	out := runLs(t, root.Dir, Options{Revision: r1.String()})
	assert.Contains(t, out, "libs/child/src/a.c")
	assert.NotContains(t, out, "libs/child/src/b.c")
}

func TestListStagedRecursesStagedPin(t *testing.T) {
	root, _, _, c1, _ := fixtureForest(t)
	root.SetPin("libs/child", c1) // roll the staged pin back

	out := runLs(t, root.Dir, Options{Staged: true})
	assert.Contains(t, out, "libs/child/src/a.c")
	assert.NotContains(t, out, "libs/child/src/b.c")

	root.WriteFile("staged-only.txt", "s\n")
	root.Add("staged-only.txt")
	out = runLs(t, root.Dir, Options{Staged: true})
	assert.Contains(t, out, "staged-only.txt")
	assert.NotContains(t, runLs(t, root.Dir, Options{}), "staged-only.txt")
}

func TestListPathspecKeepsNestedMatches(t *testing.T) {
	root, _, _, _, _ := fixtureForest(t)

	ps, err := pathspec.New([]string{"libs/*"})
	require.NoError(t, err)
	out := runLs(t, root.Dir, Options{Pathspec: ps})
	assert.Contains(t, out, "libs/child/src/a.c")
	assert.NotContains(t, out, "README.md")
}

func TestListLinesCarryBlobIds(t *testing.T) {
	r := gittest.Init(t, t.TempDir())
	r.WriteFile("f.txt", "blob content\n")
	r.Commit("one", epoch)

	idx, err := r.Repo.Storer.Index()
	require.NoError(t, err)
	require.Len(t, idx.Entries, 1)

	out := runLs(t, r.Dir, Options{})
	assert.Contains(t, out, idx.Entries[0].Hash.String()+" f.txt")
}
