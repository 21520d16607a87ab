package walker

import (
	"path/filepath"
	"strings"
)

// MatchAny checks if a path relative to the walk root matches any of the
// given patterns.
//
// Patterns support:
//   - Basename globs: *.tmp, Thumbs.db
//   - Directory patterns: .git/, node_modules/ (matches at any depth)
//   - Path globs: build/*, cache-??
func MatchAny(relativePath string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	path := filepath.ToSlash(relativePath)
	base := filepath.Base(relativePath)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		p := filepath.ToSlash(pattern)

		// Directory pattern: trailing slash means "this directory and
		// everything under it", at any depth.
		if strings.HasSuffix(p, "/") {
			dir := strings.TrimSuffix(p, "/")
			if path == dir ||
				strings.HasPrefix(path, dir+"/") ||
				strings.Contains(path, "/"+dir+"/") ||
				strings.HasSuffix(path, "/"+dir) {
				return true
			}
			continue
		}

		if strings.Contains(p, "/") {
			// Pattern addresses the relative path.
			if ok, _ := filepath.Match(p, path); ok {
				return true
			}
			continue
		}

		// Bare pattern addresses the basename.
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}

	return false
}
