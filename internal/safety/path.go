// Package safety keeps generated output paths and archive entry names from
// escaping the directories they are meant to live in.
package safety

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// CleanRelativePath validates and normalizes a relative path.
// It rejects absolute paths and parent traversal segments.
func CleanRelativePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is empty")
	}

	clean := filepath.Clean(filepath.FromSlash(p))
	if clean == "." {
		return "", fmt.Errorf("path resolves to current directory")
	}
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("absolute paths are not allowed: %q", p)
	}
	if escapes(clean) {
		return "", fmt.Errorf("parent traversal is not allowed: %q", p)
	}
	return clean, nil
}

// SafeJoinUnder joins a validated relative path under root and verifies
// the final path remains inside root.
func SafeJoinUnder(root, rel string) (string, error) {
	cleanRel, err := CleanRelativePath(rel)
	if err != nil {
		return "", err
	}
	return EnsureUnderRoot(root, filepath.Join(root, cleanRel))
}

// EnsureUnderRoot verifies candidate resolves under root and returns
// an absolute normalized path.
func EnsureUnderRoot(root, candidate string) (string, error) {
	rel, candAbs, err := relAbs(root, candidate)
	if err != nil {
		return "", err
	}
	if escapes(rel) {
		return "", fmt.Errorf("path escapes root: %q", candidate)
	}
	return candAbs, nil
}

// Within reports whether candidate is root itself or lies beneath it. Paths
// on different volumes are never nested.
func Within(root, candidate string) (bool, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return false, fmt.Errorf("resolve root: %w", err)
	}
	candAbs, err := filepath.Abs(candidate)
	if err != nil {
		return false, fmt.Errorf("resolve candidate: %w", err)
	}
	if !strings.EqualFold(filepath.VolumeName(rootAbs), filepath.VolumeName(candAbs)) {
		return false, nil
	}
	rel, _, err := relAbs(rootAbs, candAbs)
	if err != nil {
		return false, err
	}
	return !escapes(rel), nil
}

// EntryName builds a forward-slash archive entry name for rel beneath base.
// rel "." names base itself. Names that would climb out of base are rejected.
func EntryName(base, rel string) (string, error) {
	if base == "" || strings.ContainsAny(base, `/\`) {
		return "", fmt.Errorf("invalid entry base: %q", base)
	}
	if rel == "." || rel == "" {
		return base, nil
	}
	clean, err := CleanRelativePath(rel)
	if err != nil {
		return "", err
	}
	return path.Join(base, filepath.ToSlash(clean)), nil
}

func relAbs(root, candidate string) (string, string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", "", fmt.Errorf("resolve root: %w", err)
	}
	candAbs, err := filepath.Abs(candidate)
	if err != nil {
		return "", "", fmt.Errorf("resolve candidate: %w", err)
	}
	rel, err := filepath.Rel(rootAbs, candAbs)
	if err != nil {
		return "", "", fmt.Errorf("compare paths: %w", err)
	}
	return rel, candAbs, nil
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
