package vhs

import (
	"errors"
	"strings"
	"testing"
)

func TestStderrReporter_FormatsDownloadProgress(t *testing.T) {
	var out strings.Builder
	r := &StderrReporter{Out: &out}

	r.Progress("downloading vhs", 512*1024, 2*1024*1024, 1.5*1024*1024)

	got := out.String()
	if !strings.Contains(got, "downloading vhs: 0.5/2.0MB - 1.50MB/s") {
		t.Fatalf("unexpected progress line: %q", got)
	}
	if !strings.HasSuffix(got, "\r") {
		t.Fatalf("progress line should be self-overwriting: %q", got)
	}
}

func TestStderrReporter_PadsShrinkingLines(t *testing.T) {
	var out strings.Builder
	r := &StderrReporter{Out: &out}

	r.Progress("a long description of the operation", 0, 0, 0)
	out.Reset()
	r.Progress("short", 0, 0, 0)

	line := strings.TrimSuffix(out.String(), "\r")
	if len(line) < len("a long description of the operation") {
		t.Fatalf("previous line not fully overwritten: %q", line)
	}
}

func TestStderrReporter_FinishSuccess(t *testing.T) {
	var out strings.Builder
	r := &StderrReporter{Out: &out}

	r.Progress("resolving vhs", 0, 0, 0)
	r.Finish(nil)

	got := out.String()
	if !strings.Contains(got, "vhs installed") {
		t.Fatalf("missing final line: %q", got)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Fatalf("output should end with a newline: %q", got)
	}
}

func TestStderrReporter_FinishSilentWhenNothingHappened(t *testing.T) {
	var out strings.Builder
	r := &StderrReporter{Out: &out}

	r.Finish(nil)
	if out.Len() != 0 {
		t.Fatalf("nothing was installed, expected no output, got %q", out.String())
	}
}

func TestStderrReporter_FinishFailure(t *testing.T) {
	var out strings.Builder
	r := &StderrReporter{Out: &out}

	r.Finish(errors.New("boom"))
	if !strings.Contains(out.String(), "vhs installation failed: boom") {
		t.Fatalf("missing failure line: %q", out.String())
	}
}
