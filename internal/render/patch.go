package render

import (
	"bytes"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/diff"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// TreePatch prints a tree-to-tree patch in unified format.
func (p *Printer) TreePatch(patch *object.Patch) error {
	enc := fdiff.NewUnifiedEncoder(p.w, fdiff.DefaultContextLines)
	if p.color {
		enc.SetColor(fdiff.NewColorConfig())
	}
	return enc.Encode(patch)
}

// PatchFile is one side of a blob-level patch. A nil PatchFile stands for an
// absent side (file creation or deletion).
type PatchFile struct {
	Path    string
	Mode    filemode.FileMode
	Hash    plumbing.Hash
	Content []byte
}

// BlobPatch prints a unified patch between two file versions, which may come
// from blobs, the index, or the working tree.
func (p *Printer) BlobPatch(from, to *PatchFile) error {
	fp := filePatch{
		from: patchSide(from),
		to:   patchSide(to),
	}
	if from != nil && bytes.IndexByte(from.Content, 0) >= 0 ||
		to != nil && bytes.IndexByte(to.Content, 0) >= 0 {
		fp.binary = true
	} else {
		var src, dst string
		if from != nil {
			src = string(from.Content)
		}
		if to != nil {
			dst = string(to.Content)
		}
		for _, d := range diff.Do(src, dst) {
			fp.chunks = append(fp.chunks, chunk{content: d.Text, op: chunkOp(d.Type)})
		}
	}
	enc := fdiff.NewUnifiedEncoder(p.w, fdiff.DefaultContextLines)
	if p.color {
		enc.SetColor(fdiff.NewColorConfig())
	}
	return enc.Encode(textPatch{patches: []fdiff.FilePatch{fp}})
}

// GitlinkPatch prints the two-line subproject form used for commit-link
// entries, which have no blob content to diff.
func (p *Printer) GitlinkPatch(oldPath, newPath string, oldHash, newHash plumbing.Hash) {
	fmt.Fprintf(p.w, "diff --git a/%s b/%s\n", oldPath, newPath)
	fmt.Fprintf(p.w, "index %s..%s 160000\n", shortHash(oldHash.String()), shortHash(newHash.String()))
	fmt.Fprintf(p.w, "--- a/%s\n", oldPath)
	fmt.Fprintf(p.w, "+++ b/%s\n", newPath)
	fmt.Fprintln(p.w, p.cyan.Render("@@ -1 +1 @@"))
	fmt.Fprintln(p.w, p.red.Render("-Subproject commit "+oldHash.String()))
	fmt.Fprintln(p.w, p.green.Render("+Subproject commit "+newHash.String()))
}

func chunkOp(t diffmatchpatch.Operation) fdiff.Operation {
	switch t {
	case diffmatchpatch.DiffInsert:
		return fdiff.Add
	case diffmatchpatch.DiffDelete:
		return fdiff.Delete
	default:
		return fdiff.Equal
	}
}

func patchSide(f *PatchFile) fdiff.File {
	if f == nil {
		return nil
	}
	return fileData{path: f.Path, mode: f.Mode, hash: f.Hash}
}

type fileData struct {
	path string
	mode filemode.FileMode
	hash plumbing.Hash
}

func (f fileData) Hash() plumbing.Hash     { return f.hash }
func (f fileData) Mode() filemode.FileMode { return f.mode }
func (f fileData) Path() string            { return f.path }

type chunk struct {
	content string
	op      fdiff.Operation
}

func (c chunk) Content() string        { return c.content }
func (c chunk) Type() fdiff.Operation  { return c.op }

type filePatch struct {
	from, to fdiff.File
	chunks   []fdiff.Chunk
	binary   bool
}

func (fp filePatch) IsBinary() bool                 { return fp.binary }
func (fp filePatch) Files() (from, to fdiff.File)   { return fp.from, fp.to }
func (fp filePatch) Chunks() []fdiff.Chunk          { return fp.chunks }

type textPatch struct {
	patches []fdiff.FilePatch
}

func (tp textPatch) FilePatches() []fdiff.FilePatch { return tp.patches }
func (tp textPatch) Message() string                { return "" }
