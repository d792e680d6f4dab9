package vhs

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ProgressReporter informs the caller about installation progress.
// Implementations need not be safe for concurrent use; the resolver calls
// them from a single goroutine.
type ProgressReporter interface {
	// Start is called when installation begins.
	Start()

	// Progress is called to update the current operation. While
	// downloading, done and total carry byte counts (total is -1 when
	// unknown) and speed is in bytes per second; otherwise all three are
	// zero.
	Progress(desc string, done, total int64, speed float64)

	// Finish is called when installation ends, with the error that
	// stopped it, if any.
	Finish(err error)
}

// NopReporter discards all progress. It is the default.
type NopReporter struct{}

func (NopReporter) Start()                                 {}
func (NopReporter) Progress(string, int64, int64, float64) {}
func (NopReporter) Finish(error)                           {}

// StderrReporter renders progress as a single self-overwriting line.
type StderrReporter struct {
	// Out defaults to os.Stderr.
	Out io.Writer

	prevLen int
}

func (r *StderrReporter) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stderr
}

func (r *StderrReporter) Start() {}

func (r *StderrReporter) Progress(desc string, done, total int64, speed float64) {
	if total > 0 {
		const mb = 1 << 20
		desc += fmt.Sprintf(": %.1f/%.1fMB - %.2fMB/s",
			float64(done)/mb, float64(total)/mb, speed/mb)
	}

	line := desc
	if pad := r.prevLen - len(line); pad > 0 {
		line += strings.Repeat(" ", pad)
	}
	fmt.Fprint(r.out(), line+"\r")

	r.prevLen = len(desc)
}

func (r *StderrReporter) Finish(err error) {
	if err != nil {
		r.Progress(fmt.Sprintf("vhs installation failed: %v", err), 0, 0, 0)
		fmt.Fprint(r.out(), "\n")
	} else if r.prevLen > 0 {
		r.Progress("vhs installed", 0, 0, 0)
		fmt.Fprint(r.out(), "\n")
	}
}
