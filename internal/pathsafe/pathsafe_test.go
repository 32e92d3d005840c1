package pathsafe

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name unchanged",
			input: "api-designer",
			want:  "api-designer",
		},
		{
			name:  "strips separators",
			input: "foo/bar\\baz",
			want:  "foobarbaz",
		},
		{
			name:  "strips traversal sequences",
			input: "../../../etc/passwd",
			want:  "etcpasswd",
		},
		{
			name:  "strips reserved characters",
			input: `a<b>c:d"e|f?g*h`,
			want:  "abcdefgh",
		},
		{
			name:  "strips null bytes",
			input: "api\x00designer",
			want:  "apidesigner",
		},
		{
			name:  "trims whitespace and leading dots",
			input: "  ..hidden-skill  ",
			want:  "hidden-skill",
		},
		{
			name:  "interior dot preserved",
			input: "v1.2-helper",
			want:  "v1.2-helper",
		},
		{
			name:  "empty becomes placeholder",
			input: "",
			want:  Placeholder,
		},
		{
			name:  "only unsafe characters becomes placeholder",
			input: "../..\\..",
			want:  Placeholder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"api-designer",
		"../../../etc/passwd",
		"  ..weird  name..  ",
		strings.Repeat("a", 300),
		strings.Repeat("日", 100),
		strings.Repeat("a", 254) + " b",
		"",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("Sanitize not idempotent for %q: first %q, second %q", input, once, twice)
		}
		if len(once) > 255 {
			t.Errorf("Sanitize(%q) exceeds 255 bytes: %d", input, len(once))
		}
		if strings.Contains(once, "..") || strings.ContainsAny(once, `/\`) {
			t.Errorf("Sanitize(%q) = %q still contains traversal characters", input, once)
		}
	}
}

func TestIsPathSafe(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "cache", "skills", "my-skill")

	tests := []struct {
		name   string
		target string
		want   bool
	}{
		{
			name:   "descendant file",
			target: filepath.Join(base, "references", "api.md"),
			want:   true,
		},
		{
			name:   "base itself",
			target: base,
			want:   true,
		},
		{
			name:   "sibling directory",
			target: filepath.Join(string(filepath.Separator), "cache", "skills", "other-skill", "file.md"),
			want:   false,
		},
		{
			name:   "sibling with shared prefix",
			target: base + "-evil",
			want:   false,
		},
		{
			name:   "traversal escape",
			target: filepath.Join(base, "..", "..", "etc", "passwd"),
			want:   false,
		},
		{
			name:   "parent directory",
			target: filepath.Dir(base),
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPathSafe(base, tt.target); got != tt.want {
				t.Errorf("IsPathSafe(%q, %q) = %v, want %v", base, tt.target, got, tt.want)
			}
		})
	}
}
