package session

import "strings"

// maxPathLen bounds the cached path string to 255 bytes.
const maxPathLen = 255

// pushPath appends name to base ("/" or "/a/b"), bounding the result.
func pushPath(base, name string) string {
	var next string
	if base == "/" {
		next = "/" + name
	} else {
		next = base + "/" + name
	}
	if len(next) > maxPathLen {
		next = next[:maxPathLen]
	}
	return next
}

// popPath removes the last path component, returning "/" at or above root.
func popPath(base string) string {
	if base == "" || base == "/" {
		return "/"
	}
	idx := strings.LastIndexByte(base, '/')
	if idx <= 0 {
		return "/"
	}
	return base[:idx]
}
