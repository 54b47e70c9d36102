// Package engine runs the full pack pipeline: scan, validate, clean,
// classify, archive and report.
package engine

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/archive"
	"github.com/BadgerOps/mangapack/internal/classify"
	"github.com/BadgerOps/mangapack/internal/clean"
	"github.com/BadgerOps/mangapack/internal/config"
	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/host"
	"github.com/BadgerOps/mangapack/internal/report"
	"github.com/BadgerOps/mangapack/internal/safety"
	"github.com/BadgerOps/mangapack/internal/scan"
	"github.com/BadgerOps/mangapack/internal/validate"
)

// Options configures one run.
type Options struct {
	SourceDir string
	// OutputDir defaults to the working directory when empty.
	OutputDir string
	// Workers sizes the validation pool; <= 0 falls back to config, then
	// to one per logical core.
	Workers int
}

// RunReport carries everything a run produced.
type RunReport struct {
	Summary       report.RunReport
	Workers       int
	Scan          scan.Result
	Validation    validate.Report
	Cleaned       clean.Counts
	Units         []classify.Unit
	Archived      archive.Summary
	ReportPath    string
	ReportWritten bool
	Stages        []StageTiming
}

// Packer wires the pipeline stages over a filesystem.
type Packer struct {
	fs       afero.Fs
	cfg      *config.Config
	progress validate.Progress
	tracker  *StageTracker
	logger   *slog.Logger
	getwd    func() (string, error)
}

// NewPacker creates a Packer. progress receives validation updates (e.g. a
// terminal bar) and may be nil.
func NewPacker(fs afero.Fs, cfg *config.Config, progress validate.Progress, logger *slog.Logger) *Packer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if progress == nil {
		progress = validate.NopProgress{}
	}
	return &Packer{
		fs:       fs,
		cfg:      cfg,
		progress: progress,
		tracker:  NewStageTracker(),
		logger:   logger,
		getwd:    os.Getwd,
	}
}

// Tracker exposes the stage tracker for the current run.
func (p *Packer) Tracker() *StageTracker {
	return p.tracker
}

// Run processes opts.SourceDir from scratch. Only input errors are
// returned; every later failure is logged and reflected in the counters.
func (p *Packer) Run(ctx context.Context, opts Options) (*RunReport, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)

	src, out, err := p.resolvePaths(opts, logger)
	if err != nil {
		p.tracker.Fail(err.Error())
		return nil, err
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = p.cfg.Validate.Workers
	}
	workers = host.Workers(workers)

	logger.Info("starting run", "source", src, "output", out, "workers", workers)

	matcher := scan.NewMatcher(p.cfg.Scan.Extensions)
	layout := archive.Layout{OutputDir: out}
	// Results from this or an earlier run must never be scanned, cleaned or
	// classified when the output lives inside the source.
	generated := scan.NewExclusions(layout.ResultsDir(), layout.ReportPath())

	p.tracker.Begin(StageScan, "scanning "+src)
	scanned := scan.NewScanner(p.fs, matcher, logger).Exclude(generated).Scan(src)

	p.tracker.Begin(StageValidate, "validating images")
	validator := validate.New(p.fs, validate.Options{
		ParallelThreshold: p.cfg.Validate.ParallelThreshold,
		Workers:           workers,
		Progress:          validate.Multi{p.progress, p.tracker},
	}, logger)
	validation := validator.Validate(ctx, scanned.Images)

	p.tracker.Begin(StageClean, "removing corrupted and non-image files")
	cleaned := clean.New(p.fs, logger).Clean(scanned.Others, validation.Corrupted)

	p.tracker.Begin(StageClassify, "classifying collections")
	units, err := classify.New(p.fs, matcher, logger).Exclude(generated).Classify(src)
	if err != nil {
		logger.Error("classification failed", "path", src, "kind", failure.KindOf(err), "error", err)
	}

	p.tracker.Begin(StageArchive, "archiving collections")
	if err := layout.Prepare(p.fs); err != nil {
		logger.Error("failed to prepare output layout", "path", layout.ResultsDir(), "kind", failure.KindArchive, "error", err)
	}
	archived := archive.New(p.fs, layout, logger).ArchiveAll(ctx, units)

	p.tracker.Begin(StageReport, "writing report")
	summary := report.RunReport{
		RunID:            runID,
		StartedAt:        started,
		FinishedAt:       time.Now(),
		SourceDir:        src,
		OutputDir:        out,
		CorruptedDeleted: cleaned.CorruptedDeleted,
		NonImageDeleted:  cleaned.NonImageDeleted,
		Archives:         report.CountArchives(p.fs, layout),
	}
	written := report.WriteLogged(p.fs, layout.ReportPath(), summary, logger)

	p.tracker.Complete()

	logger.Info("run completed",
		"duration", summary.Elapsed().Round(time.Millisecond),
		"corrupted_deleted", summary.CorruptedDeleted,
		"non_image_deleted", summary.NonImageDeleted,
		"long", summary.Archives.Long,
		"medium", summary.Archives.Medium,
		"short", summary.Archives.Short,
	)

	return &RunReport{
		Summary:       summary,
		Workers:       workers,
		Scan:          scanned,
		Validation:    validation,
		Cleaned:       cleaned,
		Units:         units,
		Archived:      archived,
		ReportPath:    layout.ReportPath(),
		ReportWritten: written,
		Stages:        p.tracker.Timings(),
	}, nil
}

// resolvePaths checks the source exists and defaults and creates the output
// directory. An output directory inside the source tree is allowed.
func (p *Packer) resolvePaths(opts Options, logger *slog.Logger) (string, string, error) {
	if strings.TrimSpace(opts.SourceDir) == "" {
		return "", "", failure.New(failure.KindInput, "validate", "", "source directory is required")
	}
	src, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return "", "", failure.Wrap(failure.KindInput, "resolve", opts.SourceDir, err)
	}
	info, err := p.fs.Stat(src)
	if err != nil {
		return "", "", failure.Wrap(failure.KindInput, "stat", src, err)
	}
	if !info.IsDir() {
		return "", "", failure.New(failure.KindInput, "stat", src, "source is not a directory")
	}

	outDir := opts.OutputDir
	if strings.TrimSpace(outDir) == "" {
		wd, err := p.getwd()
		if err != nil {
			return "", "", failure.Wrap(failure.KindInput, "getwd", "", err)
		}
		outDir = wd
		logger.Warn("no output directory given, using current directory", "path", wd)
	}
	out, err := filepath.Abs(outDir)
	if err != nil {
		return "", "", failure.Wrap(failure.KindInput, "resolve", outDir, err)
	}

	inside, err := safety.Within(src, out)
	if err != nil {
		return "", "", failure.Wrap(failure.KindInput, "resolve", out, err)
	}
	if inside {
		logger.Warn("output directory is inside the source directory, results and report will be skipped",
			"source", src, "output", out)
	}

	if err := p.fs.MkdirAll(out, 0o755); err != nil {
		return "", "", failure.Wrap(failure.KindInput, "mkdir", out, err)
	}
	return src, out, nil
}
