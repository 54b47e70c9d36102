package validate

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Progress is advanced once per verified file, whichever executor runs.
type Progress interface {
	Start(total int, description string)
	Advance()
	Finish()
}

// NopProgress discards all updates.
type NopProgress struct{}

func (NopProgress) Start(int, string) {}
func (NopProgress) Advance()          {}
func (NopProgress) Finish()           {}

// Bar renders a terminal progress bar to w.
type Bar struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

// NewBar returns a Progress drawing to w (usually os.Stderr).
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

func (b *Bar) Start(total int, description string) {
	w := b.w
	b.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("file"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

func (b *Bar) Advance() {
	if b.bar != nil {
		_ = b.bar.Add(1)
	}
}

func (b *Bar) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

// Multi fans every update out to several Progress sinks.
type Multi []Progress

func (m Multi) Start(total int, description string) {
	for _, p := range m {
		p.Start(total, description)
	}
}

func (m Multi) Advance() {
	for _, p := range m {
		p.Advance()
	}
}

func (m Multi) Finish() {
	for _, p := range m {
		p.Finish()
	}
}
