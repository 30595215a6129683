package status

import (
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"

	"github.com/PaddyThePaddy/git-sub/internal/difffilter"
	"github.com/PaddyThePaddy/git-sub/internal/forest"
	"github.com/PaddyThePaddy/git-sub/internal/gitutil"
	"github.com/PaddyThePaddy/git-sub/internal/render"
)

// printPatch prints the unified diff of one status entry. Staged entries
// diff the HEAD blob against the index blob; worktree entries diff the index
// blob against the file on disk.
func printPatch(node *forest.Node, e entry, p *render.Printer) error {
	repo := node.Repo
	idxModes, idxHashes, err := indexState(repo)
	if err != nil {
		return err
	}

	headFile := func(path string) (*render.PatchFile, error) {
		tree, err := headTree(repo)
		if err != nil {
			return nil, err
		}
		if tree == nil {
			return nil, fmt.Errorf("no HEAD commit to diff %s against", path)
		}
		te, err := tree.FindEntry(path)
		if err != nil {
			return nil, fmt.Errorf("find %s in HEAD tree: %w", path, err)
		}
		content, err := gitutil.ReadBlob(repo, te.Hash)
		if err != nil {
			return nil, err
		}
		return &render.PatchFile{Path: path, Mode: te.Mode, Hash: te.Hash, Content: content}, nil
	}
	indexFile := func(path string) (*render.PatchFile, error) {
		h, ok := idxHashes[path]
		if !ok {
			return nil, fmt.Errorf("%s not found in index", path)
		}
		content, err := gitutil.ReadBlob(repo, h)
		if err != nil {
			return nil, err
		}
		return &render.PatchFile{Path: path, Mode: idxModes[path], Hash: h, Content: content}, nil
	}
	worktreeFile := func(path string) (*render.PatchFile, error) {
		content, err := gitutil.ReadWorktreeFile(repo, path)
		if err != nil {
			return nil, err
		}
		return &render.PatchFile{Path: path, Mode: filemode.Regular, Hash: plumbing.ZeroHash, Content: content}, nil
	}

	var from, to *render.PatchFile
	if e.staged {
		switch e.cat {
		case difffilter.Added:
			to, err = indexFile(e.path)
		case difffilter.Deleted:
			from, err = headFile(e.path)
		case difffilter.Renamed:
			if from, err = headFile(e.from); err == nil {
				to, err = indexFile(e.path)
			}
		default:
			if from, err = headFile(e.path); err == nil {
				to, err = indexFile(e.path)
			}
		}
	} else {
		switch {
		case e.untracked:
			to, err = worktreeFile(e.path)
		case e.cat == difffilter.Deleted:
			from, err = indexFile(e.path)
		default:
			if from, err = indexFile(e.path); err == nil {
				to, err = worktreeFile(e.path)
			}
		}
	}
	if err != nil {
		return err
	}
	return p.BlobPatch(from, to)
}
