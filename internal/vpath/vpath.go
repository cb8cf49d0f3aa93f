// Package vpath implements the virtual path model. Virtual paths are
// slash-delimited ancestor-folder sequences stored as plain strings; they
// are not filesystem paths and never start or end with a separator. The
// root is the empty string.
package vpath

import "strings"

const Separator = "/"

// Parse splits a path into its segments, dropping empties.
func Parse(path string) []string {
	if path == "" {
		return nil
	}

	parts := strings.Split(path, Separator)
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}

	return segments
}

// Build joins non-empty segments. An empty sequence yields the root path.
func Build(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment == "" {
			continue
		}
		kept = append(kept, segment)
	}

	return strings.Join(kept, Separator)
}

// Normalize reparses a caller-supplied path into canonical form.
func Normalize(path string) string {
	return Build(Parse(path))
}

// Join appends a leaf name to a path. Joining onto the root yields the
// name alone.
func Join(path string, name string) string {
	if path == "" {
		return name
	}

	return path + Separator + name
}

// Parent drops the last segment. The root's parent is the root; callers
// must detect the no-op themselves.
func Parent(path string) string {
	idx := strings.LastIndex(path, Separator)
	if idx < 0 {
		return ""
	}

	return path[:idx]
}

// IsDescendantOf reports whether candidate equals ancestor or sits anywhere
// below it.
func IsDescendantOf(candidate string, ancestor string) bool {
	return candidate == ancestor || strings.HasPrefix(candidate, ancestor+Separator)
}

// ReplacePrefix rewrites a descendant path after its ancestor was renamed
// or moved. Paths outside the old prefix are returned unchanged.
func ReplacePrefix(path string, oldPrefix string, newPrefix string) string {
	if path == oldPrefix {
		return newPrefix
	}
	if strings.HasPrefix(path, oldPrefix+Separator) {
		return newPrefix + path[len(oldPrefix):]
	}

	return path
}
