package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeProjectID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already valid", "my-service", "my-service"},
		{"spaces become hyphens", "My Cool App", "My-Cool-App"},
		{"dots become hyphens", "app.v2.backend", "app-v2-backend"},
		{"runs collapse", "a...b", "a-b"},
		{"leading and trailing junk trimmed", "..hidden..", "hidden"},
		{"underscores survive", "my_app", "my_app"},
		{"unusable name falls back", "...", "project"},
		{"empty falls back", "", "project"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeProjectID(tt.in); got != tt.want {
				t.Errorf("normalizeProjectID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeProjectIDCapsLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "abcdefgh"
	}
	got := normalizeProjectID(long)
	if len(got) > 100 {
		t.Errorf("Expected id capped at 100 characters, got %d", len(got))
	}
}

func TestResolveRootPrefersFlag(t *testing.T) {
	original := flagDir
	defer func() { flagDir = original }()

	dir := t.TempDir()
	flagDir = dir
	t.Setenv("SPECSAFE_DIR", t.TempDir())

	got, err := resolveRoot()
	if err != nil {
		t.Fatalf("resolveRoot() error: %v", err)
	}
	want, _ := filepath.Abs(dir)
	if got != want {
		t.Errorf("Expected flag directory %s, got %s", want, got)
	}
}

func TestResolveRootUsesEnvWithoutFlag(t *testing.T) {
	original := flagDir
	defer func() { flagDir = original }()

	flagDir = ""
	dir := t.TempDir()
	t.Setenv("SPECSAFE_DIR", dir)

	got, err := resolveRoot()
	if err != nil {
		t.Fatalf("resolveRoot() error: %v", err)
	}
	if got != dir {
		t.Errorf("Expected env directory %s, got %s", dir, got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{90 * time.Minute, "1.5h"},
		{36 * time.Hour, "1.5d"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
