// Package archive packs each classified collection into a zip under its
// tier directory.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"
	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/classify"
	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/safety"
	"github.com/BadgerOps/mangapack/internal/scan"
)

// Result describes one archive written to disk.
type Result struct {
	Unit   classify.Unit
	Path   string
	Files  int
	Size   int64
	SHA256 string
}

// Summary aggregates an ArchiveAll call.
type Summary struct {
	Created int
	Failed  int
	PerTier map[classify.Tier]int
	Results []Result
}

// Archiver writes unit archives into a Layout.
type Archiver struct {
	fs      afero.Fs
	layout  Layout
	exclude scan.Exclusions
	logger  *slog.Logger
}

// New creates an Archiver writing under layout.
func New(fs afero.Fs, layout Layout, logger *slog.Logger) *Archiver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{fs: fs, layout: layout, logger: logger}
}

// Exclude leaves the given paths out of every archive. The results directory
// and the report are always left out.
func (a *Archiver) Exclude(ex scan.Exclusions) *Archiver {
	a.exclude = ex
	return a
}

// ArchiveAll archives every unit. A unit that fails is logged and skipped.
func (a *Archiver) ArchiveAll(ctx context.Context, units []classify.Unit) Summary {
	summary := Summary{PerTier: make(map[classify.Tier]int, 3)}

	for _, unit := range units {
		res, err := a.Archive(ctx, unit)
		if err != nil {
			summary.Failed++
			a.logger.Error("archive failed, skipping unit",
				"unit", unit.Name,
				"tier", unit.Tier,
				"kind", failure.KindArchive,
				"error", err,
			)
			continue
		}
		summary.Created++
		summary.PerTier[unit.Tier]++
		summary.Results = append(summary.Results, res)
	}

	a.logger.Info("archiving completed",
		"created", summary.Created,
		"failed", summary.Failed,
		"long", summary.PerTier[classify.TierLong],
		"medium", summary.PerTier[classify.TierMedium],
		"short", summary.PerTier[classify.TierShort],
	)
	return summary
}

// Archive writes one zip containing unit's directory subtree, rooted at the
// directory's base name. The zip is built under a temporary name and only
// renamed into place once complete.
func (a *Archiver) Archive(ctx context.Context, unit classify.Unit) (Result, error) {
	dest, err := a.layout.ArchivePath(unit)
	if err != nil {
		return Result{}, failure.Wrap(failure.KindArchive, "resolve", unit.Root, err)
	}
	if err := a.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return Result{}, failure.Wrap(failure.KindArchive, "mkdir", filepath.Dir(dest), err)
	}
	if exists, _ := afero.Exists(a.fs, dest); exists {
		a.logger.Warn("overwriting existing archive", "unit", unit.Name, "path", dest)
	}

	tmp := dest + ".tmp"
	files, err := a.writeZip(ctx, unit.Root, tmp)
	if err != nil {
		_ = a.fs.Remove(tmp)
		return Result{}, failure.Wrap(failure.KindArchive, "write", dest, err)
	}
	if err := a.fs.Rename(tmp, dest); err != nil {
		_ = a.fs.Remove(tmp)
		return Result{}, failure.Wrap(failure.KindArchive, "rename", dest, err)
	}
	if files == 0 {
		a.logger.Warn("archived collection has no files", "unit", unit.Name, "path", unit.Root)
	}

	hash, size, err := hashFile(a.fs, dest)
	if err != nil {
		return Result{}, failure.Wrap(failure.KindArchive, "hash", dest, err)
	}

	a.logger.Info("archive created",
		"unit", unit.Name,
		"tier", unit.Tier,
		"path", dest,
		"files", files,
		"size", humanize.Bytes(uint64(size)),
		"sha256", hash,
	)
	return Result{Unit: unit, Path: dest, Files: files, Size: size, SHA256: hash}, nil
}

// writeZip streams the tree at root into a new zip at dest and returns the
// number of regular files stored.
func (a *Archiver) writeZip(ctx context.Context, root, dest string) (files int, err error) {
	out, err := a.fs.Create(dest)
	if err != nil {
		return 0, err
	}
	zw := zip.NewWriter(out)
	defer func() {
		if cerr := zw.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing zip writer: %w", cerr)
		}
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing archive file: %w", cerr)
		}
	}()

	skip := append(scan.NewExclusions(a.layout.ResultsDir(), a.layout.ReportPath()), a.exclude...)
	base := filepath.Base(root)
	err = afero.Walk(a.fs, root, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && skip.Covers(path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name, err := safety.EntryName(base, rel)
		if err != nil {
			return err
		}

		switch {
		case info.IsDir():
			return addDirToZip(zw, info, name)
		case info.Mode().IsRegular():
			if err := addFileToZip(a.fs, zw, path, info, name); err != nil {
				return fmt.Errorf("adding %s: %w", path, err)
			}
			files++
			return nil
		default:
			a.logger.Debug("skipping non-regular file in archive", "path", path, "mode", info.Mode().String())
			return nil
		}
	})
	return files, err
}

func addDirToZip(zw *zip.Writer, info os.FileInfo, name string) error {
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name + "/"
	header.Method = zip.Store
	_, err = zw.CreateHeader(header)
	return err
}

// addFileToZip adds a single file to a zip archive.
func addFileToZip(fs afero.Fs, zw *zip.Writer, srcPath string, info os.FileInfo, name string) error {
	f, err := fs.Open(srcPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

func hashFile(fs afero.Fs, path string) (string, int64, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() {
		_ = f.Close()
	}()

	h := sha256.New()
	size, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, nil
}
