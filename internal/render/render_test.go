package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PaddyThePaddy/git-sub/internal/difffilter"
)

func plainPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinter(&buf, false), &buf
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Millisecond, "just now"},
		{5 * time.Second, "5 secs ago"},
		{3 * time.Minute, "3 mins ago"},
		{5 * time.Hour, "5 hours ago"},
		{72 * time.Hour, "3 days ago"},
		{70 * 24 * time.Hour, "2 months ago"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatDuration(c.d), "duration %s", c.d)
	}
}

func TestCommitShortFormat(t *testing.T) {
	p, buf := plainPrinter()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p.Commit(Commit{
		Hash:       "0123456789abcdef0123456789abcdef01234567",
		Summary:    "add the thing",
		AuthorName: "Alice",
		CommitTime: now.Add(-2 * time.Hour),
		Location:   "./libs/foo",
	}, false, now)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "0123456 - "), "short hash prefix, got %q", out)
	assert.Contains(t, out, "add the thing")
	assert.Contains(t, out, "(2 hours ago)")
	assert.Contains(t, out, "<Alice>")
	assert.Contains(t, out, "(./libs/foo)")
}

func TestCommitFullFormat(t *testing.T) {
	p, buf := plainPrinter()
	when := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	p.Commit(Commit{
		Hash:       "0123456789abcdef0123456789abcdef01234567",
		Message:    "subject\n\nbody line",
		Author:     "Alice <alice@example.com>",
		Committer:  "Alice <alice@example.com>",
		AuthorTime: when,
		CommitTime: when,
		Location:   "./libs/foo",
	}, true, when)

	out := buf.String()
	assert.Contains(t, out, "0123456789abcdef0123456789abcdef01234567")
	assert.Contains(t, out, "Author:     Alice <alice@example.com>")
	assert.Contains(t, out, "AuthorDate: Wed May 01 09:30:00 2024 +0000")
	assert.Contains(t, out, "    subject")
	assert.Contains(t, out, "    body line")
}

func TestFileChange(t *testing.T) {
	p, buf := plainPrinter()
	p.FileChange(difffilter.Modified, "", "a.c")
	p.FileChange(difffilter.Renamed, "old.c", "new.c")
	assert.Equal(t, "  M a.c\n  R old.c -> new.c\n", buf.String())
}

func TestRepoHeaderHidesCleanState(t *testing.T) {
	p, buf := plainPrinter()
	p.RepoHeader("./libs/foo", "0123456789abcdef0123456789abcdef01234567", "Clean")
	out := buf.String()
	assert.Contains(t, out, "Repo: ./libs/foo @ 0123456")
	assert.NotContains(t, out, "State:")

	buf.Reset()
	p.RepoHeader("./libs/foo", "0123456789abcdef0123456789abcdef01234567", "Merge")
	assert.Contains(t, buf.String(), "State: Merge")
}

func TestHeadDriftAndCounts(t *testing.T) {
	p, buf := plainPrinter()
	p.HeadDrift("aaa", "bbb")
	p.Counts(2, 5)
	out := buf.String()
	assert.Contains(t, out, "Repo head changed:\n From aaa\n To   bbb\n")
	assert.Contains(t, out, "2 changes staged\n")
	assert.Contains(t, out, "5 changes in working tree\n")
}

func TestStatusEntry(t *testing.T) {
	p, buf := plainPrinter()
	p.StatusEntry("A ", true, "", "new.txt")
	p.StatusEntry(" M", false, "", "mod.txt")
	p.StatusEntry("R ", true, "old.txt", "new.txt")
	assert.Equal(t, " A  new.txt\n  M mod.txt\n R  old.txt -> new.txt\n", buf.String())
}

func TestBlobPatchCreation(t *testing.T) {
	p, buf := plainPrinter()
	to := &PatchFile{
		Path:    "new.txt",
		Mode:    filemode.Regular,
		Hash:    plumbing.ComputeHash(plumbing.BlobObject, []byte("hello\n")),
		Content: []byte("hello\n"),
	}
	require.NoError(t, p.BlobPatch(nil, to))
	out := buf.String()
	assert.Contains(t, out, "new.txt")
	assert.Contains(t, out, "+hello")
}

func TestBlobPatchModification(t *testing.T) {
	p, buf := plainPrinter()
	from := &PatchFile{
		Path:    "f.txt",
		Mode:    filemode.Regular,
		Hash:    plumbing.ComputeHash(plumbing.BlobObject, []byte("one\n")),
		Content: []byte("one\n"),
	}
	to := &PatchFile{
		Path:    "f.txt",
		Mode:    filemode.Regular,
		Hash:    plumbing.ComputeHash(plumbing.BlobObject, []byte("two\n")),
		Content: []byte("two\n"),
	}
	require.NoError(t, p.BlobPatch(from, to))
	out := buf.String()
	assert.Contains(t, out, "-one")
	assert.Contains(t, out, "+two")
}

func TestBlobPatchBinary(t *testing.T) {
	p, buf := plainPrinter()
	to := &PatchFile{
		Path:    "blob.bin",
		Mode:    filemode.Regular,
		Hash:    plumbing.ComputeHash(plumbing.BlobObject, []byte{0, 1, 2}),
		Content: []byte{0, 1, 2},
	}
	require.NoError(t, p.BlobPatch(nil, to))
	out := buf.String()
	assert.Contains(t, out, "Binary files")
	assert.NotContains(t, out, "@@")
}

func TestGitlinkPatch(t *testing.T) {
	p, buf := plainPrinter()
	oldHash := plumbing.NewHash("1111111111111111111111111111111111111111")
	newHash := plumbing.NewHash("2222222222222222222222222222222222222222")
	p.GitlinkPatch("child", "child", oldHash, newHash)
	out := buf.String()
	assert.Contains(t, out, "-Subproject commit "+oldHash.String())
	assert.Contains(t, out, "+Subproject commit "+newHash.String())
	assert.Contains(t, out, "index 1111111..2222222 160000")
}
