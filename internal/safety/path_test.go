package safety

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSafeJoinUnder(t *testing.T) {
	root := t.TempDir()

	okPath, err := SafeJoinUnder(root, "长篇/book/book.zip")
	if err != nil {
		t.Fatalf("SafeJoinUnder returned error: %v", err)
	}
	if !strings.HasPrefix(okPath, root) {
		t.Fatalf("path %q is not under root %q", okPath, root)
	}

	if _, err := SafeJoinUnder(root, "../escape.zip"); err == nil {
		t.Fatal("expected traversal path to fail")
	}
	if _, err := SafeJoinUnder(root, "/abs/path.zip"); err == nil {
		t.Fatal("expected absolute path to fail")
	}
	if _, err := SafeJoinUnder(root, ""); err == nil {
		t.Fatal("expected empty path to fail")
	}
}

func TestEnsureUnderRoot(t *testing.T) {
	root := t.TempDir()
	if _, err := EnsureUnderRoot(root, root+"/child/file.zip"); err != nil {
		t.Fatalf("EnsureUnderRoot failed for child path: %v", err)
	}
	if _, err := EnsureUnderRoot(root, root+"/../escape"); err == nil {
		t.Fatal("expected escape path to fail")
	}
}

func TestWithin(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		candidate string
		want      bool
	}{
		{root, true},
		{filepath.Join(root, "out"), true},
		{filepath.Join(root, "a", "b"), true},
		{filepath.Dir(root), false},
		{filepath.Join(filepath.Dir(root), "sibling"), false},
	}
	for _, tt := range tests {
		got, err := Within(root, tt.candidate)
		if err != nil {
			t.Fatalf("Within(%q): %v", tt.candidate, err)
		}
		if got != tt.want {
			t.Errorf("Within(%q) = %v, want %v", tt.candidate, got, tt.want)
		}
	}
}

func TestEntryName(t *testing.T) {
	tests := []struct {
		base    string
		rel     string
		want    string
		wantErr bool
	}{
		{"book", ".", "book", false},
		{"book", "001.jpg", "book/001.jpg", false},
		{"book", filepath.Join("ch1", "002.png"), "book/ch1/002.png", false},
		{"book", "../outside.jpg", "", true},
		{"", "a.jpg", "", true},
		{"a/b", "c.jpg", "", true},
	}
	for _, tt := range tests {
		got, err := EntryName(tt.base, tt.rel)
		if (err != nil) != tt.wantErr {
			t.Fatalf("EntryName(%q, %q) error = %v, wantErr %v", tt.base, tt.rel, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("EntryName(%q, %q) = %q, want %q", tt.base, tt.rel, got, tt.want)
		}
	}
}
