package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/BadgerOps/mangapack/internal/engine"
	"github.com/BadgerOps/mangapack/internal/failure"
	"github.com/BadgerOps/mangapack/internal/validate"
)

func newProcessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "process SOURCE [OUTPUT] [WORKERS]",
		Short: "Clean, classify and archive every collection under SOURCE",
		Long: `Process a source directory from scratch:

  1. scan for image and non-image files (hidden entries are skipped)
  2. verify every image decodes, in parallel for large batches
  3. delete corrupted images and all non-image files
  4. find collection directories and count their images
  5. zip each collection into 分类结果/长篇, 中篇 or 短篇
  6. write 处理报告.txt into OUTPUT

OUTPUT defaults to the current directory. It may sit inside SOURCE; its
分类结果 directory and 处理报告.txt are then left untouched by later runs.
WORKERS defaults to the number of logical CPU cores.`,
		Example: `  mangapack process D:\manga
  mangapack process D:\manga D:\packed
  mangapack process D:\manga D:\packed 4 --quiet`,
		Args: cobra.RangeArgs(1, 3),
		RunE: processRun,
	}

	return cmd
}

func processRun(cmd *cobra.Command, args []string) error {
	if globalCfg == nil {
		return fmt.Errorf("config not loaded")
	}

	opts, err := parseProcessArgs(args)
	if err != nil {
		return err
	}

	var progress validate.Progress = validate.NopProgress{}
	if !quiet {
		progress = validate.NewBar(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	packer := engine.NewPacker(afero.NewOsFs(), globalCfg, progress, logger)

	var watching sync.WaitGroup
	if !quiet {
		watching.Add(1)
		go func() {
			defer watching.Done()
			watchStages(ctx, packer.Tracker(), cmd.ErrOrStderr())
		}()
	}

	res, err := packer.Run(ctx, opts)
	watching.Wait()
	if err != nil {
		return err
	}

	if !quiet {
		printSummary(cmd.OutOrStdout(), res)
	}
	return nil
}

// watchStages prints each stage as it finishes and returns once the run has
// completed or failed.
func watchStages(ctx context.Context, tracker *engine.StageTracker, w io.Writer) {
	printed := 0
	for {
		// Take the channel before the snapshot so no update is missed.
		changed := tracker.Wait()
		snap := tracker.Snapshot()
		for _, st := range snap.Stages[printed:] {
			fmt.Fprintf(w, "==> %s: %s (%s)\n", st.Stage, st.Message, st.Elapsed.Round(time.Millisecond))
		}
		printed = len(snap.Stages)

		switch snap.Stage {
		case engine.StageComplete:
			fmt.Fprintf(w, "==> %s after %s\n", snap.Stage, snap.Elapsed)
			return
		case engine.StageFailed:
			fmt.Fprintf(w, "==> %s: %s\n", snap.Stage, snap.Message)
			return
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return
		}
	}
}

// parseProcessArgs maps positional arguments onto engine options.
func parseProcessArgs(args []string) (engine.Options, error) {
	var opts engine.Options
	if len(args) > 0 {
		opts.SourceDir = args[0]
	}
	if len(args) > 1 {
		opts.OutputDir = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return opts, failure.New(failure.KindInput, "parse", "", fmt.Sprintf("worker count must be an integer, got %q", args[2]))
		}
		opts.Workers = n
	}
	return opts, nil
}

func printSummary(w io.Writer, res *engine.RunReport) {
	s := res.Summary

	var archivedBytes int64
	for _, r := range res.Archived.Results {
		archivedBytes += r.Size
	}

	fmt.Fprintf(w, "Processing complete:\n")
	fmt.Fprintf(w, "  Images checked: %d (%s, %d workers)\n", res.Validation.Total, res.Validation.Strategy, res.Workers)
	fmt.Fprintf(w, "  Corrupted images deleted: %d\n", s.CorruptedDeleted)
	fmt.Fprintf(w, "  Non-image files deleted: %d\n", s.NonImageDeleted)
	if n := len(res.Validation.Unresolved); n > 0 {
		fmt.Fprintf(w, "  Unresolved images: %d\n", n)
	}
	fmt.Fprintf(w, "  Collections: %d (long %d, medium %d, short %d)\n",
		s.Archives.Total(), s.Archives.Long, s.Archives.Medium, s.Archives.Short)
	if res.Archived.Failed > 0 {
		fmt.Fprintf(w, "  Failed archives: %d\n", res.Archived.Failed)
	}
	fmt.Fprintf(w, "  Archived size: %s\n", humanize.Bytes(uint64(archivedBytes)))
	fmt.Fprintf(w, "  Duration: %s\n", s.Elapsed().Round(time.Second))
	if res.ReportWritten {
		fmt.Fprintf(w, "  Report: %s\n", res.ReportPath)
	}
}
