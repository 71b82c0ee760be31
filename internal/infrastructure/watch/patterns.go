package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude selects specification documents.
var DefaultInclude = []string{"**/*.json"}

// PatternFilter filters paths with include and exclude globs. Patterns
// support "**" and match either the base name or the slash-separated path.
type PatternFilter struct {
	Include []string
	Exclude []string
}

// NewPatternFilter creates a filter.
func NewPatternFilter(include, exclude []string) *PatternFilter {
	return &PatternFilter{Include: include, Exclude: exclude}
}

// Matches reports whether path passes the filter: no exclude matches and,
// when includes are set, at least one include matches.
func (f *PatternFilter) Matches(path string) bool {
	if anyMatch(f.Exclude, path) {
		return false
	}
	return len(f.Include) == 0 || anyMatch(f.Include, path)
}

func anyMatch(patterns []string, path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, base); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, slashed); ok {
			return true
		}
	}
	return false
}

// ExpandPaths resolves literal paths and "**" globs to a sorted, de-duplicated
// list of regular files. A literal path that does not exist is an error; a
// glob matching nothing is not.
func ExpandPaths(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			info, err := os.Stat(pattern)
			if err != nil {
				return nil, fmt.Errorf("cannot access %s: %w", pattern, err)
			}
			if info.IsDir() {
				return nil, fmt.Errorf("%s is a directory; use a glob such as %s", pattern, filepath.Join(pattern, "**", "*.json"))
			}
			add(filepath.Clean(pattern))
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob error: %w", err)
		}
		for _, m := range matches {
			add(m)
		}
	}

	sort.Strings(out)
	return out, nil
}
