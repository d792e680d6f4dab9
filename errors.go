package vhs

import (
	"fmt"
	"strings"
)

// Error is returned when VHS is unavailable or installation fails.
type Error struct {
	msg string
	err error
}

func newError(msg string) *Error {
	return &Error{msg: msg}
}

func wrapError(msg string, err error) *Error {
	return &Error{msg: msg, err: err}
}

func (e *Error) Error() string {
	if e.err != nil {
		if e.msg == "" {
			return e.err.Error()
		}
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// RunError is returned when the VHS process exits unsuccessfully. When the
// run was quiet, captured output is attached.
type RunError struct {
	// Args is the full argument vector of the failed invocation.
	Args []string

	// ExitCode is the process exit code, or -1 when the process was
	// terminated by a signal.
	ExitCode int

	// Signal names the terminating signal ("killed", "interrupt", ...)
	// when the process did not exit on its own.
	Signal string

	Stdout []byte
	Stderr []byte
}

func (e *RunError) Error() string {
	status := fmt.Sprintf("code %d", e.ExitCode)
	if e.Signal != "" {
		status = "signal " + e.Signal
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "VHS run failed with %s", status)
	if len(e.Stderr) > 0 {
		sb.WriteString("\n\nStderr:\n")
		sb.Write(e.Stderr)
	}
	if len(e.Stdout) > 0 {
		sb.WriteString("\n\nStdout:\n")
		sb.Write(e.Stdout)
	}
	return sb.String()
}

// Unwrap bridges run failures to the package's base error type, so a
// caller matching *Error with errors.As catches them too.
func (e *RunError) Unwrap() error {
	return &Error{msg: e.Error()}
}
