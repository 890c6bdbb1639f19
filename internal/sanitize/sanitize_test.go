package sanitize

import (
	"path/filepath"
	"testing"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text untouched", in: "Use JWT for auth", want: "Use JWT for auth"},
		{name: "trims whitespace", in: "  padded  ", want: "padded"},
		{name: "strips null bytes", in: "a\x00b", want: "ab"},
		{name: "strips control characters", in: "a\x01\x02\x1fb", want: "ab"},
		{name: "strips DEL", in: "a\x7fb", want: "ab"},
		{name: "keeps newlines", in: "line one\nline two", want: "line one\nline two"},
		{name: "keeps tabs", in: "col\tcol", want: "col\tcol"},
		{name: "strips carriage returns", in: "a\r\nb", want: "a\nb"},
		{name: "keeps unicode text", in: "café ≤ 100", want: "café ≤ 100"},
		{name: "empty", in: "", want: ""},
		{name: "only control characters", in: "\x00\x01\x02", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.in); got != tt.want {
				t.Errorf("String(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAll(t *testing.T) {
	got := All([]string{" a ", "b\x00c"})
	if got[0] != "a" || got[1] != "bc" {
		t.Errorf("All() = %q", got)
	}
}

func TestEnsureWithin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{name: "root itself", path: root, wantErr: false},
		{name: "direct child", path: filepath.Join(root, ".specsafe"), wantErr: false},
		{name: "nested child", path: filepath.Join(root, ".specsafe", "memory.json"), wantErr: false},
		{name: "dot segments resolving inside", path: filepath.Join(root, "a", "..", "b"), wantErr: false},
		{name: "parent escape", path: filepath.Join(root, ".."), wantErr: true},
		{name: "traversal through store dir", path: filepath.Join(root, ".specsafe", "..", "..", "etc"), wantErr: true},
		{name: "unrelated absolute path", path: "/etc/passwd", wantErr: true},
		// A sibling whose name shares the root's prefix must not pass
		{name: "sibling with shared prefix", path: root + "-evil", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := EnsureWithin(root, tt.path)
			if (err != nil) != tt.wantErr {
				t.Errorf("EnsureWithin(%q, %q) error = %v, wantErr %v", root, tt.path, err, tt.wantErr)
			}
		})
	}
}
