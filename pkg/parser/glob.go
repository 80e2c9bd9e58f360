package parser

import (
	"fmt"
	"path/filepath"
)

// ExpandGlobs expands command-line paths and glob patterns into a deduplicated
// list of file paths. Arguments keep their order; matches of a single pattern
// come out sorted. Patterns that don't match any files are returned as-is so
// the caller reports a proper file-not-found error for them.
func ExpandGlobs(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var result []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result = append(result, path)
		}
	}

	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}

		if len(matches) == 0 {
			add(pattern)
			continue
		}

		for _, match := range matches {
			add(match)
		}
	}

	return result, nil
}
