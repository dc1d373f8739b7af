package watch

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// alwaysIgnored is skipped no matter what the user configures
const alwaysIgnored = ".git"

// Ignorer decides which directories a walk should not descend into
type Ignorer interface {
	Ignore(path string, isDir bool) bool
}

// GlobIgnorer matches doublestar patterns. A pattern without a slash is
// compared against the base name, anything else against the path relative
// to root. A trailing slash restricts the pattern to directories.
type GlobIgnorer struct {
	root     string
	patterns []string
}

// NewIgnorer builds the ignore rules for a walk rooted at root
func NewIgnorer(root string, patterns []string) *GlobIgnorer {
	all := make([]string, 0, len(patterns)+1)
	all = append(all, alwaysIgnored)
	all = append(all, patterns...)
	return &GlobIgnorer{root: root, patterns: all}
}

// Ignore reports whether path should be skipped. Hidden entries are not
// special; only .git and the configured patterns are excluded.
func (g *GlobIgnorer) Ignore(path string, isDir bool) bool {
	base := filepath.Base(path)
	rel, err := filepath.Rel(g.root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range g.patterns {
		if strings.HasSuffix(pattern, "/") {
			if !isDir {
				continue
			}
			pattern = strings.TrimSuffix(pattern, "/")
		}

		target := base
		if strings.Contains(pattern, "/") {
			target = rel
		}
		if ok, _ := doublestar.Match(pattern, target); ok {
			return true
		}
	}
	return false
}
