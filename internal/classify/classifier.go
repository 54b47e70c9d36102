// Package classify finds collection directories in a cleaned tree and buckets
// each by how many images it holds.
package classify

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/scan"
)

// NameSeparator joins path segments in a flattened unit name.
const NameSeparator = "_"

// Unit is one collection directory to be archived.
type Unit struct {
	Root       string // absolute directory on disk
	Name       string // relative path with separators flattened
	ImageCount int
	Tier       Tier
}

// Classifier discovers units below a root directory.
type Classifier struct {
	fs      afero.Fs
	matcher scan.Matcher
	exclude scan.Exclusions
	logger  *slog.Logger
}

// New creates a Classifier over fs using matcher to recognise images.
func New(fs afero.Fs, matcher scan.Matcher, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{fs: fs, matcher: matcher, logger: logger}
}

// Exclude keeps the given paths out of both unit discovery and image counts.
func (c *Classifier) Exclude(ex scan.Exclusions) *Classifier {
	c.exclude = ex
	return c
}

// Classify walks root depth-first and claims the first directory on each
// branch that has an image anywhere beneath it. Claimed directories are not
// descended into. root itself is never a unit. Units come back sorted by
// name; an empty slice is a normal result.
func (c *Classifier) Classify(root string) ([]Unit, error) {
	top, err := c.subdirs(root)
	if err != nil {
		return nil, failure.Wrap(failure.KindScan, "classify", root, err)
	}

	// Explicit stack; pushed in reverse so lexical order pops first.
	stack := make([]string, 0, len(top))
	for i := len(top) - 1; i >= 0; i-- {
		stack = append(stack, top[i])
	}

	var units []Unit
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if c.hasImage(dir) {
			count := c.CountImages(dir)
			name, err := UnitName(root, dir)
			if err != nil {
				c.logger.Warn("cannot name collection", "path", dir, "kind", failure.KindScan, "error", err)
				continue
			}
			unit := Unit{Root: dir, Name: name, ImageCount: count, Tier: TierFor(count)}
			c.logger.Debug("collection found", "unit", unit.Name, "images", count, "tier", unit.Tier)
			units = append(units, unit)
			continue
		}

		children, err := c.subdirs(dir)
		if err != nil {
			c.logger.Warn("skipping unreadable directory", "path", dir, "kind", failure.KindScan, "error", err)
			continue
		}
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}

	sort.Slice(units, func(i, j int) bool { return units[i].Name < units[j].Name })

	byTier := make(map[Tier]int, 3)
	for _, u := range units {
		byTier[u.Tier]++
	}
	c.logger.Info("classification completed",
		"units", len(units),
		"long", byTier[TierLong],
		"medium", byTier[TierMedium],
		"short", byTier[TierShort],
	)
	return units, nil
}

// CountImages counts visible image files anywhere beneath dir.
func (c *Classifier) CountImages(dir string) int {
	count := 0
	_ = c.walkImages(dir, func(string) error {
		count++
		return nil
	})
	return count
}

var errFound = errors.New("image found")

func (c *Classifier) hasImage(dir string) bool {
	return errors.Is(c.walkImages(dir, func(string) error { return errFound }), errFound)
}

// walkImages calls fn for every visible image file below dir, stopping at
// the first error fn returns.
func (c *Classifier) walkImages(dir string, fn func(path string) error) error {
	return afero.Walk(c.fs, dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			c.logger.Debug("skipping unreadable entry", "path", path, "error", walkErr)
			return nil
		}
		if path == dir {
			return nil
		}
		if c.exclude.Covers(path) || scan.IsHidden(path, info) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !c.matcher.IsImage(path) {
			return nil
		}
		return fn(path)
	})
}

// subdirs lists the visible subdirectories of dir in name order.
func (c *Classifier) subdirs(dir string) ([]string, error) {
	entries, err := afero.ReadDir(c.fs, dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if !e.IsDir() || c.exclude.Covers(path) || scan.IsHidden(path, e) {
			continue
		}
		dirs = append(dirs, path)
	}
	return dirs, nil
}

// UnitName flattens dir's path relative to root into a single archive name,
// e.g. "series/volume 1" becomes "series_volume 1".
func UnitName(root, dir string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", err
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", failure.New(failure.KindScan, "name", dir, "directory is not below the root")
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	return strings.Join(parts, NameSeparator), nil
}
