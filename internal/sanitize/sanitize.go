// Package sanitize provides the string cleanup, secret redaction, and path
// containment checks applied to everything the project memory accepts or
// touches on disk.
package sanitize

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// String strips control characters and null bytes from s and trims leading
// and trailing whitespace. Newlines and tabs are preserved so multi-line
// content such as code snippets survives sanitization.
func String(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// All applies String to every element of ss in place and returns ss.
func All(ss []string) []string {
	for i := range ss {
		ss[i] = String(ss[i])
	}
	return ss
}

// EnsureWithin verifies that path resolves to root itself or a descendant
// of root. Both paths are made absolute and cleaned before comparison. It
// defends the store and lock file locations against traversal even though
// callers normally supply fixed suffixes.
func EnsureWithin(root, path string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving root %s: %w", root, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving path %s: %w", path, err)
	}

	absRoot = filepath.Clean(absRoot)
	absPath = filepath.Clean(absPath)

	if absPath == absRoot || strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return nil
	}
	return fmt.Errorf("path %s escapes project root %s", path, absRoot)
}
