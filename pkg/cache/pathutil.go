package cache

import "strings"

// Cache paths are treated as slash-separated strings regardless of the host
// platform, matching the spec's examples (e.g. "/t/a.txt") and keeping
// subtree-invalidation behavior identical across platforms.

// parentOf returns the parent directory of path, or "" if path has no
// parent (it's a root or a bare name).
func parentOf(path string) string {
	trimmed := strings.TrimSuffix(path, "/")
	index := strings.LastIndexByte(trimmed, '/')
	if index <= 0 {
		if index == 0 {
			return "/"
		}
		return ""
	}
	return trimmed[:index]
}

// pathDepth returns the number of path components in path.
func pathDepth(path string) uint16 {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return 0
	}
	return uint16(strings.Count(trimmed, "/") + 1)
}

// isUnderDirectory reports whether path lies strictly under dir, respecting
// path-component boundaries so that a delete of "/t" does not match "/ta".
func isUnderDirectory(path, dir string) bool {
	prefix := strings.TrimSuffix(dir, "/") + "/"
	return strings.HasPrefix(path, prefix)
}
