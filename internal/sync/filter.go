// Copyright (c) 2026 wp-deploy contributors
// wp-deploy - WordPress file and database sync tool
// This source code is licensed under the MIT license found in the LICENSE file.

package sync

import (
	"path"
	"strings"
)

// ShouldExclude reports whether a slash-separated relative path matches any
// exclude pattern. A pattern matches when it matches the full path, the
// file's basename, or (for directory patterns ending in "/") any directory
// component of the path.
func ShouldExclude(relPath string, patterns []string) bool {
	relPath = strings.TrimPrefix(path.Clean(relPath), "./")
	base := path.Base(relPath)
	components := strings.Split(relPath, "/")

	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if dir, ok := strings.CutSuffix(pattern, "/"); ok {
			for _, comp := range components[:max(len(components)-1, 0)] {
				if matched, _ := path.Match(dir, comp); matched {
					return true
				}
			}
			continue
		}

		if matched, _ := path.Match(pattern, relPath); matched {
			return true
		}
		if matched, _ := path.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// FilterPaths returns the paths not excluded by patterns, preserving order.
func FilterPaths(paths []string, patterns []string) []string {
	kept := make([]string, 0, len(paths))
	for _, p := range paths {
		if !ShouldExclude(p, patterns) {
			kept = append(kept, p)
		}
	}
	return kept
}
