// Package validate decides which image files are corrupt. Small batches are
// checked on the calling goroutine; large ones go through a worker pool.
package validate

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/BadgerOps/mangapack/internal/failure"
)

// DefaultParallelThreshold is the batch size at which the pool takes over.
const DefaultParallelThreshold = 100

// Corrupted is a file that failed verification and why.
type Corrupted struct {
	Path   string
	Reason string
}

// Report summarizes one Validate call.
type Report struct {
	Total        int
	Valid        int
	Unverifiable int
	Corrupted    []Corrupted
	Unresolved   []string
	Strategy     string
}

// Options configures a Validator.
type Options struct {
	// ParallelThreshold: batches smaller than this run sequentially.
	ParallelThreshold int
	// Workers is the pool size used for large batches.
	Workers  int
	Progress Progress
	// Verify overrides the per-file check; defaults to VerifyImage over fs.
	Verify VerifyFunc
}

// Validator checks image files and reports the corrupt ones.
type Validator struct {
	threshold int
	workers   int
	progress  Progress
	verify    VerifyFunc
	logger    *slog.Logger
}

// New creates a Validator reading files from fs.
func New(fs afero.Fs, opts Options, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ParallelThreshold < 0 {
		opts.ParallelThreshold = DefaultParallelThreshold
	}
	if opts.Progress == nil {
		opts.Progress = NopProgress{}
	}
	if opts.Verify == nil {
		opts.Verify = func(path string) error {
			return VerifyImage(fs, path)
		}
	}
	return &Validator{
		threshold: opts.ParallelThreshold,
		workers:   opts.Workers,
		progress:  opts.Progress,
		verify:    opts.Verify,
		logger:    logger,
	}
}

// SelectExecutor picks the strategy for a batch of n files.
func (v *Validator) SelectExecutor(n int) Executor {
	if n < v.threshold {
		return Sequential{}
	}
	return NewPool(v.workers, v.logger)
}

// Validate verifies every path and returns the corrupt subset. Files whose
// result could not be obtained are listed as unresolved and never counted
// as corrupt.
func (v *Validator) Validate(ctx context.Context, paths []string) Report {
	report := Report{Total: len(paths)}
	if len(paths) == 0 {
		v.logger.Info("no image files found, skipping validation")
		return report
	}

	exec := v.SelectExecutor(len(paths))
	report.Strategy = exec.Name()
	v.logger.Info("validating images", "count", len(paths), "strategy", exec.Name(), "workers", v.workers)

	v.progress.Start(len(paths), "validating images")
	outcomes := exec.Execute(ctx, paths, v.verify, v.progress)
	v.progress.Finish()

	for _, o := range outcomes {
		switch {
		case o.Err == nil:
			report.Valid++
		case errors.Is(o.Err, ErrUnverifiable):
			report.Unverifiable++
			v.logger.Debug("skipping image without decoder", "path", o.Path)
		case errors.Is(o.Err, ErrUnresolved):
			report.Unresolved = append(report.Unresolved, o.Path)
			v.logger.Error("could not obtain validation result", "path", o.Path, "kind", failure.KindValidation, "error", o.Err)
		default:
			report.Corrupted = append(report.Corrupted, Corrupted{Path: o.Path, Reason: o.Err.Error()})
			v.logger.Warn("corrupted image", "path", o.Path, "kind", failure.KindValidation, "reason", o.Err)
		}
	}

	v.logger.Info("validation completed",
		"total", report.Total,
		"valid", report.Valid,
		"corrupted", len(report.Corrupted),
		"unresolved", len(report.Unresolved),
		"unverifiable", report.Unverifiable,
	)
	return report
}
