package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mehmetkoksal-w/mcpserver/internal/fsutil"
)

func TestMatchesAnyEdgeCases(t *testing.T) {
	excludes := []string{
		".git/**",
		"**/.git/**",
		"**/.env",
		"**/.hidden/**",
		"**/.DS_Store",
	}

	cases := []struct {
		path string
		want bool
	}{
		{path: ".git/config", want: true},
		{path: filepath.Join("nested", ".git", "config"), want: true},
		{path: filepath.Join("config", ".env"), want: true},
		{path: filepath.Join("app", ".hidden", "secret.txt"), want: true},
		{path: filepath.Join("app", ".DS_Store"), want: true},
		{path: filepath.Join("app", "visible.txt"), want: false},
	}

	for _, tc := range cases {
		if got := fsutil.MatchesAny(tc.path, excludes); got != tc.want {
			t.Fatalf("MatchesAny(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestListFilesHonorsIncludeAndExclude(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "handler.go"), "package x")
	mustWrite(t, filepath.Join(root, "handler_test.go"), "package x")
	mustWrite(t, filepath.Join(root, "README.md"), "# hi")
	mustWrite(t, filepath.Join(root, "vendor", "dep.go"), "package dep")

	files, err := fsutil.ListFiles(root, []string{"**/*.go"}, []string{"vendor/**", "**/*_test.go"})
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0] != "handler.go" {
		t.Fatalf("ListFiles = %v, want [handler.go]", files)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}
