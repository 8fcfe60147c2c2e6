package utils

import (
	"path/filepath"
	"strings"
)

// NormalizeRomPath converts a gamelist <path> value to the canonical form
// used as the entry key. Comparison is by exact string match, so the only
// normalization applied is backslash-to-forward-slash; a "./" prefix is
// significant and kept as written.
func NormalizeRomPath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// SanitizeFilename reduces an externally supplied name (URL path segment,
// archive member) to a bare filename safe to join under a local directory.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean(filepath.FromSlash(name)))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return ""
	}
	return name
}
