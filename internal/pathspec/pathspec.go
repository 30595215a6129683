// Package pathspec matches root-relative paths against glob patterns and
// rewrites paths that cross repository mount points.
package pathspec

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Pathspec is an ordered set of glob patterns. Paths are matched with
// slash-separated, root-relative names. Following git's pathspec behavior a
// pattern also selects everything below a directory it names, so "libs" and
// "libs/*" both match "libs/foo/src/a.c".
type Pathspec struct {
	patterns []string
}

// New validates the given patterns and builds a Pathspec. An empty pattern
// list yields nil, which matches everything.
func New(patterns []string) (*Pathspec, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	cleaned := make([]string, 0, len(patterns))
	for _, p := range patterns {
		p = strings.TrimSuffix(strings.TrimPrefix(p, "./"), "/")
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid pathspec pattern %q", p)
		}
		cleaned = append(cleaned, p)
	}
	return &Pathspec{patterns: cleaned}, nil
}

// Match reports whether the root-relative path matches any pattern. A nil
// Pathspec matches every path.
func (ps *Pathspec) Match(rel string) bool {
	if ps == nil {
		return true
	}
	for _, p := range ps.patterns {
		if matchOne(p, rel) {
			return true
		}
	}
	return false
}

// matchOne tests the pattern against the full path and against every leading
// directory of it, which gives the directory-prefix semantics of git
// pathspecs without letting "*" silently cross unrelated components.
func matchOne(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if ok, _ := doublestar.Match(pattern, dir); ok {
			return true
		}
	}
	return false
}

// MapToRoot rewrites a repository-relative path into a root-relative one by
// prefixing the mount path of the repository it came from. An empty mount
// leaves the path untouched.
func MapToRoot(mount, rel string) string {
	if mount == "" {
		return rel
	}
	return path.Join(mount, rel)
}
