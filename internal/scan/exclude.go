package scan

import (
	"path/filepath"
	"strings"
)

// Exclusions lists paths a walk must not enter or report. An entry covers
// itself and everything beneath it.
type Exclusions []string

// NewExclusions cleans each path; empty entries are dropped.
func NewExclusions(paths ...string) Exclusions {
	var ex Exclusions
	for _, p := range paths {
		if p == "" {
			continue
		}
		ex = append(ex, filepath.Clean(p))
	}
	return ex
}

// Covers reports whether path is an excluded entry or lies beneath one.
func (ex Exclusions) Covers(path string) bool {
	if len(ex) == 0 {
		return false
	}
	path = filepath.Clean(path)
	for _, e := range ex {
		if path == e || strings.HasPrefix(path, e+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
