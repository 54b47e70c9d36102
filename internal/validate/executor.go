package validate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrUnresolved marks a file whose verification result could not be
// obtained. Such files are neither valid nor corrupt.
var ErrUnresolved = errors.New("validation result unavailable")

// VerifyFunc checks a single file; a nil error means the file is intact.
type VerifyFunc func(path string) error

// Outcome is the immutable result for one input path.
type Outcome struct {
	Path string
	Err  error
}

// Executor runs a verify function over every path and returns exactly one
// Outcome per path, advancing progress once per path.
type Executor interface {
	Name() string
	Execute(ctx context.Context, paths []string, verify VerifyFunc, progress Progress) []Outcome
}

// safeVerify turns a panic inside verify into an unresolved outcome.
func safeVerify(verify VerifyFunc, path string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrUnresolved, r)
		}
	}()
	return verify(path)
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %v", ErrUnresolved, ctx.Err())
}

// Sequential verifies paths one at a time on the calling goroutine.
// Outcomes come back in input order.
type Sequential struct{}

func (Sequential) Name() string { return "sequential" }

func (Sequential) Execute(ctx context.Context, paths []string, verify VerifyFunc, progress Progress) []Outcome {
	outcomes := make([]Outcome, 0, len(paths))
	for _, path := range paths {
		var err error
		if ctx.Err() != nil {
			err = cancelled(ctx)
		} else {
			err = safeVerify(verify, path)
		}
		outcomes = append(outcomes, Outcome{Path: path, Err: err})
		progress.Advance()
	}
	return outcomes
}

// Pool verifies paths on a fixed number of worker goroutines. Outcomes come
// back in completion order.
type Pool struct {
	workers int
	logger  *slog.Logger
}

// NewPool creates a pool with the given number of workers (minimum 1).
func NewPool(workers int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		workers: workers,
		logger:  logger,
	}
}

func (p *Pool) Name() string { return "pool" }

// Workers returns the configured pool size.
func (p *Pool) Workers() int { return p.workers }

// Execute fans paths out to the workers and collects outcomes as they
// finish. Once ctx is cancelled, remaining paths are reported unresolved.
func (p *Pool) Execute(ctx context.Context, paths []string, verify VerifyFunc, progress Progress) []Outcome {
	if len(paths) == 0 {
		return []Outcome{}
	}

	jobs := make(chan string, len(paths))
	results := make(chan Outcome, len(paths))

	for _, path := range paths {
		jobs <- path
	}
	close(jobs)

	workers := p.workers
	if workers > len(paths) {
		workers = len(paths)
	}

	var g errgroup.Group
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			p.worker(ctx, jobs, results, verify)
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(results)
	}()

	outcomes := make([]Outcome, 0, len(paths))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
		progress.Advance()
	}

	p.logger.Debug("pool finished", "workers", workers, "outcomes", len(outcomes))
	return outcomes
}

// worker drains the jobs channel, one verify call per path.
func (p *Pool) worker(ctx context.Context, jobs <-chan string, results chan<- Outcome, verify VerifyFunc) {
	for path := range jobs {
		if ctx.Err() != nil {
			results <- Outcome{Path: path, Err: cancelled(ctx)}
			continue
		}
		results <- Outcome{Path: path, Err: safeVerify(verify, path)}
	}
}
