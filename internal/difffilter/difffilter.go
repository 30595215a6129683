// Package difffilter normalizes the change kinds reported by the VCS backend
// into six categories and filters them with a git-style --diff-filter pattern.
package difffilter

import (
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// Category is the normalized kind of a single change.
type Category int

const (
	Added Category = iota
	Modified
	Deleted
	Renamed
	TypeChanged
	Unknown
)

// Letter returns the single-letter label used by list and status output.
func (c Category) Letter() string {
	switch c {
	case Added:
		return "A"
	case Modified:
		return "M"
	case Deleted:
		return "D"
	case Renamed:
		return "R"
	case TypeChanged:
		return "T"
	default:
		return "U"
	}
}

// Filter enables or suppresses each change category independently.
type Filter struct {
	Added       bool
	Deleted     bool
	Modified    bool
	Renamed     bool
	TypeChanged bool
	Unknown     bool
}

// Default returns the permissive filter with every category enabled.
func Default() Filter {
	return Filter{
		Added:       true,
		Deleted:     true,
		Modified:    true,
		Renamed:     true,
		TypeChanged: true,
		Unknown:     true,
	}
}

// FromPattern builds a filter from a pattern such as "AdM". Every category
// starts disabled; an uppercase letter from {A,D,M,R,T,U} enables the
// matching category, a lowercase letter disables it. Characters outside the
// set are ignored.
func FromPattern(s string) Filter {
	var f Filter
	for _, c := range s {
		switch c {
		case 'a', 'A':
			f.Added = c == 'A'
		case 'd', 'D':
			f.Deleted = c == 'D'
		case 'm', 'M':
			f.Modified = c == 'M'
		case 'r', 'R':
			f.Renamed = c == 'R'
		case 't', 'T':
			f.TypeChanged = c == 'T'
		case 'u', 'U':
			f.Unknown = c == 'U'
		}
	}
	return f
}

// Allows reports whether changes of the given category pass the filter.
func (f Filter) Allows(c Category) bool {
	switch c {
	case Added:
		return f.Added
	case Modified:
		return f.Modified
	case Deleted:
		return f.Deleted
	case Renamed:
		return f.Renamed
	case TypeChanged:
		return f.TypeChanged
	default:
		return f.Unknown
	}
}

// ClassifyChange maps a tree-to-tree delta to a category. A pure rename
// (identical blob under a new name) is Renamed; a rename whose content also
// changed counts as Modified, and a mode flip between blob kinds counts as
// TypeChanged.
func ClassifyChange(ch *object.Change) (Category, error) {
	action, err := ch.Action()
	if err != nil {
		return Unknown, err
	}
	switch action {
	case merkletrie.Insert:
		return Added, nil
	case merkletrie.Delete:
		return Deleted, nil
	case merkletrie.Modify:
		if ch.From.Name != ch.To.Name {
			if ch.From.TreeEntry.Hash == ch.To.TreeEntry.Hash {
				return Renamed, nil
			}
			return Modified, nil
		}
		if ch.From.TreeEntry.Mode != ch.To.TreeEntry.Mode {
			return TypeChanged, nil
		}
		return Modified, nil
	default:
		return Unknown, nil
	}
}

// ClassifyStatus maps a raw backend status code to a category. Untracked
// files count as additions, copies as renames, and anything the backend
// cannot name (conflicts, ignored files) lands in Unknown.
func ClassifyStatus(code git.StatusCode) Category {
	switch code {
	case git.Added, git.Untracked:
		return Added
	case git.Modified:
		return Modified
	case git.Deleted:
		return Deleted
	case git.Renamed, git.Copied:
		return Renamed
	default:
		return Unknown
	}
}
