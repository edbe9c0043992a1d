// Package urlutil builds target-app URLs from the configured base URL.
package urlutil

import "strings"

// Join builds an absolute URL from a base origin and a path.
// Absolute http(s) paths are returned unchanged.
func Join(base, path string) string {
	base = Normalize(base)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if strings.HasPrefix(path, "/") {
		return base + path
	}
	return base + "/" + path
}

// Normalize trims whitespace and trailing slashes from a base URL.
func Normalize(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/")
}

// SameLocation reports whether a and b differ at most by a trailing slash.
func SameLocation(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
