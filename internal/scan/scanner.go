// Package scan walks a collection tree and sorts every visible regular file
// into images and everything else.
package scan

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/failure"
)

// FileKind is the class a file falls into, decided by extension alone.
type FileKind int

const (
	KindOther FileKind = iota
	KindImage
)

func (k FileKind) String() string {
	if k == KindImage {
		return "image"
	}
	return "non-image"
}

// Matcher decides file kinds from a lower-cased extension allow-list.
type Matcher struct {
	exts map[string]bool
}

// NewMatcher builds a Matcher; extensions are matched case-insensitively.
func NewMatcher(exts []string) Matcher {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return Matcher{exts: set}
}

// Kind returns the kind for path.
func (m Matcher) Kind(path string) FileKind {
	if m.exts[strings.ToLower(filepath.Ext(path))] {
		return KindImage
	}
	return KindOther
}

// IsImage is shorthand for Kind(path) == KindImage.
func (m Matcher) IsImage(path string) bool {
	return m.Kind(path) == KindImage
}

// Result holds the two disjoint file lists in walk order.
type Result struct {
	Images []string
	Others []string
	Hidden   int // hidden files and directories skipped
	Excluded int // excluded files and directories skipped
	Errors   int // entries that could not be read
}

// Scanner walks a tree once, skipping hidden entries.
type Scanner struct {
	fs      afero.Fs
	matcher Matcher
	exclude Exclusions
	logger  *slog.Logger
}

// NewScanner creates a scanner over fs.
func NewScanner(fs afero.Fs, matcher Matcher, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{fs: fs, matcher: matcher, logger: logger}
}

// Exclude makes the scanner skip the given paths and everything below them.
func (s *Scanner) Exclude(ex Exclusions) *Scanner {
	s.exclude = ex
	return s
}

// Scan walks root and classifies every non-hidden regular file. Unreadable
// entries are logged and skipped; the walk always runs to the end.
func (s *Scanner) Scan(root string) Result {
	var res Result

	info, err := s.fs.Stat(root)
	if err != nil {
		s.logger.Error("scan root not accessible", "path", root, "kind", failure.KindScan, "error", err)
		return res
	}
	if !info.IsDir() {
		s.logger.Error("scan root is not a directory", "path", root, "kind", failure.KindScan)
		return res
	}

	s.logger.Info("scanning directory", "path", root)

	_ = afero.Walk(s.fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			res.Errors++
			s.logger.Warn("skipping unreadable entry", "path", path, "kind", failure.KindScan, "error", walkErr)
			return nil
		}
		if path == root {
			return nil
		}

		if s.exclude.Covers(path) {
			res.Excluded++
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if IsHidden(path, info) {
			res.Hidden++
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}
		if !info.Mode().IsRegular() {
			s.logger.Debug("skipping non-regular file", "path", path, "mode", info.Mode().String())
			return nil
		}

		if s.matcher.IsImage(path) {
			res.Images = append(res.Images, path)
		} else {
			res.Others = append(res.Others, path)
		}
		return nil
	})

	s.logger.Info("scan completed",
		"images", len(res.Images),
		"non_images", len(res.Others),
		"hidden_skipped", res.Hidden,
		"excluded", res.Excluded,
		"errors", res.Errors,
	)
	return res
}
