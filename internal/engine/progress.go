package engine

import (
	"sync"
	"time"
)

// Stage names one step of a run.
type Stage string

const (
	StagePending  Stage = "pending"
	StageScan     Stage = "scan"
	StageValidate Stage = "validate"
	StageClean    Stage = "clean"
	StageClassify Stage = "classify"
	StageArchive  Stage = "archive"
	StageReport   Stage = "report"
	StageComplete Stage = "complete"
	StageFailed   Stage = "failed"
)

// StageTiming records how long a finished stage took.
type StageTiming struct {
	Stage   Stage
	Elapsed time.Duration
	Message string
}

// RunProgress is a snapshot of the current run state.
type RunProgress struct {
	Stage     Stage
	Message   string
	Total     int
	Done      int
	Percent   float64
	Stages    []StageTiming
	StartTime time.Time
	Elapsed   string
}

// StageTracker records stage transitions and per-item progress in a
// thread-safe manner. It satisfies validate.Progress so the worker pool can
// report into it directly.
type StageTracker struct {
	mu sync.Mutex

	stage      Stage
	message    string
	total      int
	done       int
	startTime  time.Time
	stageStart time.Time
	timings    []StageTiming

	// Notification channel: close-and-replace pattern.
	// Listeners call Wait() to get the current channel, then block on it.
	notify chan struct{}

	now func() time.Time
}

// NewStageTracker creates a tracker in the pending stage.
func NewStageTracker() *StageTracker {
	return newStageTracker(time.Now)
}

func newStageTracker(now func() time.Time) *StageTracker {
	start := now()
	return &StageTracker{
		stage:      StagePending,
		startTime:  start,
		stageStart: start,
		notify:     make(chan struct{}),
		now:        now,
	}
}

// Snapshot returns a copy of the current progress state.
func (t *StageTracker) Snapshot() RunProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pct float64
	if t.total > 0 {
		pct = float64(t.done) / float64(t.total) * 100
	}

	stages := make([]StageTiming, len(t.timings))
	copy(stages, t.timings)

	return RunProgress{
		Stage:     t.stage,
		Message:   t.message,
		Total:     t.total,
		Done:      t.done,
		Percent:   pct,
		Stages:    stages,
		StartTime: t.startTime,
		Elapsed:   t.now().Sub(t.startTime).Truncate(time.Second).String(),
	}
}

// Wait returns a channel that will be closed when the next update occurs.
func (t *StageTracker) Wait() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.notify
}

// signal closes the current notify channel and replaces it with a new one.
// Must be called with t.mu held.
func (t *StageTracker) signal() {
	close(t.notify)
	t.notify = make(chan struct{})
}

// closeStage appends the timing of the running stage. Must be called with t.mu held.
func (t *StageTracker) closeStage(now time.Time) {
	switch t.stage {
	case StagePending, StageComplete, StageFailed:
		return
	}
	t.timings = append(t.timings, StageTiming{
		Stage:   t.stage,
		Elapsed: now.Sub(t.stageStart),
		Message: t.message,
	})
}

// Begin closes the running stage and starts stage. Item counters reset.
func (t *StageTracker) Begin(stage Stage, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.closeStage(now)
	t.stage = stage
	t.message = msg
	t.stageStart = now
	t.total = 0
	t.done = 0
	t.signal()
}

// Start sets the item total for the running stage.
func (t *StageTracker) Start(total int, description string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.done = 0
	if description != "" {
		t.message = description
	}
	t.signal()
}

// Advance marks one item of the running stage done.
func (t *StageTracker) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done++
	t.signal()
}

// Finish is a no-op; the stage ends at the next Begin.
func (t *StageTracker) Finish() {}

// Complete closes the running stage and marks the run done.
func (t *StageTracker) Complete() {
	t.end(StageComplete, "")
}

// Fail closes the running stage and marks the run failed.
func (t *StageTracker) Fail(msg string) {
	t.end(StageFailed, msg)
}

func (t *StageTracker) end(stage Stage, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.closeStage(now)
	t.stage = stage
	t.message = msg
	t.stageStart = now
	t.signal()
}

// Timings returns the recorded stage durations in execution order.
func (t *StageTracker) Timings() []StageTiming {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]StageTiming, len(t.timings))
	copy(out, t.timings)
	return out
}
