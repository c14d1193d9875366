// Package fsutil walks a base directory honoring an include/exclude glob
// pair, the same doublestar-based guardrail matching the teacher used for
// its do-not-touch/read-only globs, repurposed here for the Discoverer's
// include/exclude scan (spec.md §4.2).
package fsutil

import (
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchesAny reports whether path matches any of globs.
func MatchesAny(path string, globs []string) bool {
	normalized := filepath.ToSlash(path)
	for _, g := range globs {
		if g == "" {
			continue
		}
		ok, err := doublestar.Match(g, normalized)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// ListFiles walks root, returning every file path (relative to root, slash
// separated) that matches includeGlobs and does not match excludeGlobs. A
// directory matching excludeGlobs is pruned entirely rather than descended
// into.
func ListFiles(root string, includeGlobs, excludeGlobs []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if MatchesAny(rel, excludeGlobs) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(includeGlobs) > 0 && !MatchesAny(rel, includeGlobs) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
