// Package clean removes corrupt images and non-image files from the source
// tree before collections are counted.
package clean

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/validate"
)

// Counts holds successful removals only.
type Counts struct {
	CorruptedDeleted int
	NonImageDeleted  int
	Missing          int
	Failed           int
}

// Cleaner deletes files one at a time; no single failure stops the batch.
type Cleaner struct {
	fs     afero.Fs
	logger *slog.Logger
}

// New creates a Cleaner over fs.
func New(fs afero.Fs, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{fs: fs, logger: logger}
}

// Clean removes every corrupted image and every non-image file.
func (c *Cleaner) Clean(nonImages []string, corrupted []validate.Corrupted) Counts {
	var counts Counts

	for _, item := range corrupted {
		switch c.remove(item.Path) {
		case removed:
			counts.CorruptedDeleted++
			c.logger.Info("deleted corrupted image", "path", item.Path, "reason", item.Reason)
		case missing:
			counts.Missing++
		case failed:
			counts.Failed++
		}
	}

	for _, path := range nonImages {
		switch c.remove(path) {
		case removed:
			counts.NonImageDeleted++
			c.logger.Info("deleted non-image file", "path", path)
		case missing:
			counts.Missing++
		case failed:
			counts.Failed++
		}
	}

	c.logger.Info("cleanup completed",
		"corrupted_deleted", counts.CorruptedDeleted,
		"non_image_deleted", counts.NonImageDeleted,
		"missing", counts.Missing,
		"failed", counts.Failed,
	)
	return counts
}

type removal int

const (
	removed removal = iota
	missing
	failed
)

func (c *Cleaner) remove(path string) removal {
	err := c.fs.Remove(path)
	if err == nil {
		return removed
	}
	if os.IsNotExist(err) {
		c.logger.Debug("file already gone", "path", path)
		return missing
	}
	c.logger.Error("failed to delete file", "path", path, "kind", failure.KindDeletion, "error", err)
	return failed
}
