// Package pathsafe normalizes untrusted skill names into filesystem-safe
// path segments and validates that computed destination paths stay inside
// their intended base directory. Every component that writes to disk from
// catalog-derived data goes through this package.
package pathsafe

import (
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	// Placeholder substituted when sanitization leaves nothing usable.
	Placeholder = "unnamed-skill"

	maxNameBytes = 255
)

// Sanitize turns an untrusted skill name into a safe path segment.
// It strips path separators, parent references, null bytes and the
// character class <>:"|?*, trims surrounding whitespace and leading dots,
// and truncates to 255 bytes. Pure function; never fails.
// Idempotent: Sanitize(Sanitize(x)) == Sanitize(x).
func Sanitize(name string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return -1
		case '<', '>', ':', '"', '|', '?', '*':
			return -1
		}
		return r
	}, name)

	// ".." may reappear after separator removal ("./." -> ".."), so strip
	// until stable.
	for strings.Contains(s, "..") {
		s = strings.ReplaceAll(s, "..", "")
	}

	s = trimEdges(s)
	s = truncateBytes(s, maxNameBytes)
	s = trimEdges(s)

	if s == "" {
		return Placeholder
	}
	return s
}

func trimEdges(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, ".")
	return strings.TrimSpace(s)
}

// truncateBytes cuts s to at most n bytes on a rune boundary.
func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// IsPathSafe reports whether target equals base or is a true descendant of
// base after both are resolved to absolute, cleaned form. A plain string
// prefix check is not enough: /x/skill must not match /x/skill-evil.
func IsPathSafe(base, target string) bool {
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(filepath.Clean(target))
	if err != nil {
		return false
	}

	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
