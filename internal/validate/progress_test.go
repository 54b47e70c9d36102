package validate

import (
	"bytes"
	"testing"
)

func TestBarRenders(t *testing.T) {
	var buf bytes.Buffer
	bar := NewBar(&buf)

	bar.Start(3, "validating images")
	for i := 0; i < 3; i++ {
		bar.Advance()
	}
	bar.Finish()

	if buf.Len() == 0 {
		t.Error("expected the progress bar to write output")
	}
}

func TestBarBeforeStartIsSafe(t *testing.T) {
	bar := NewBar(&bytes.Buffer{})
	bar.Advance()
	bar.Finish()
}

func TestMultiFansOut(t *testing.T) {
	a, b := &countingProgress{}, &countingProgress{}
	m := Multi{a, b}

	m.Start(2, "x")
	m.Advance()
	m.Advance()
	m.Finish()

	for i, c := range []*countingProgress{a, b} {
		if c.started != 1 || c.advanced != 2 || c.finished != 1 || c.total != 2 {
			t.Errorf("sink %d = %+v", i, c)
		}
	}
}
