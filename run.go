package vhs

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/taminomara/go-vhs/internal/logger"
)

// VHS is a handle to a resolved VHS installation. Create one with Resolve.
type VHS struct {
	binPath string
	path    string
	quiet   bool
	env     []string
	dir     string
}

func newVHS(binPath, path string, cfg *config) *VHS {
	return &VHS{
		binPath: binPath,
		path:    path,
		quiet:   cfg.quiet,
		env:     cfg.env,
		dir:     cfg.dir,
	}
}

// BinaryPath returns the path of the resolved vhs binary.
func (v *VHS) BinaryPath() string { return v.binPath }

// SearchPath returns the PATH value VHS subprocesses run with. When
// binaries were installed, the cache directory is prepended so vhs finds
// the bundled ttyd and ffmpeg.
func (v *VHS) SearchPath() string { return v.path }

// Which locates the named executable on the search path VHS runs with.
func (v *VHS) Which(name string) (string, error) {
	return findExecutable(name, v.path)
}

// RunOptions overrides per-invocation settings configured at Resolve time.
type RunOptions struct {
	// OutputPath overrides the output location set in the tape.
	OutputPath string

	// Quiet overrides the resolved quiet setting when non-nil.
	Quiet *bool

	// Env overrides the process environment ("KEY=VALUE" form).
	Env []string

	// Dir overrides the working directory.
	Dir string
}

// Run renders the given tape file. If outputPath is non-empty it
// overrides the output set in the tape. Returns a *RunError when the VHS
// process fails.
func (v *VHS) Run(ctx context.Context, tapePath, outputPath string) error {
	return v.RunWith(ctx, tapePath, RunOptions{OutputPath: outputPath})
}

// RunWith is Run with per-invocation overrides.
func (v *VHS) RunWith(ctx context.Context, tapePath string, opts RunOptions) error {
	quiet := v.quiet
	if opts.Quiet != nil {
		quiet = *opts.Quiet
	}

	var args []string
	if quiet {
		args = append(args, "-q")
	}
	if opts.OutputPath != "" {
		args = append(args, "-o", opts.OutputPath)
	}
	args = append(args, tapePath)

	env := opts.Env
	if env == nil {
		env = v.env
	}
	if env == nil {
		env = os.Environ()
	}
	env = setEnv(env, "PATH", v.path)

	dir := opts.Dir
	if dir == "" {
		dir = v.dir
	}

	logger.Log.Debug("running VHS", "bin", v.binPath, "args", args)

	cmd := exec.CommandContext(ctx, v.binPath, args...)
	cmd.Env = env
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	if quiet {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Run(); err != nil {
		ee, ok := err.(*exec.ExitError)
		if !ok {
			return wrapError("run vhs", err)
		}
		return &RunError{
			Args:     append([]string{v.binPath}, args...),
			ExitCode: ee.ExitCode(),
			Signal:   signalName(ee),
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
		}
	}
	return nil
}

// RunInline is like Run but accepts tape contents rather than a file.
func (v *VHS) RunInline(ctx context.Context, tape, outputPath string) error {
	return v.RunInlineWith(ctx, tape, RunOptions{OutputPath: outputPath})
}

// RunInlineWith is RunInline with per-invocation overrides.
func (v *VHS) RunInlineWith(ctx context.Context, tape string, opts RunOptions) error {
	dir, err := os.MkdirTemp("", "go-vhs-tape-*")
	if err != nil {
		return wrapError("create temp dir", err)
	}
	defer os.RemoveAll(dir)

	tapePath := filepath.Join(dir, "input.tape")
	if err := os.WriteFile(tapePath, []byte(tape), 0o644); err != nil {
		return wrapError("write tape", err)
	}
	return v.RunWith(ctx, tapePath, opts)
}

// Exec runs the vhs binary with raw arguments and inherited stdio,
// returning the child's exit code. This backs the CLI pass-through.
func (v *VHS) Exec(ctx context.Context, args ...string) (int, error) {
	cmd := exec.CommandContext(ctx, v.binPath, args...)
	cmd.Env = setEnv(os.Environ(), "PATH", v.path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.Log.Debug("forwarding to VHS", "bin", v.binPath, "args", args)

	if err := cmd.Run(); err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			code := ee.ExitCode()
			if code < 0 {
				code = 1
			}
			return code, nil
		}
		return 1, wrapError("run vhs", err)
	}
	return 0, nil
}

// setEnv returns env with the variable replaced or appended.
func setEnv(env []string, key, value string) []string {
	out := make([]string, 0, len(env)+1)
	prefix := key + "="
	for _, kv := range env {
		if !strings.HasPrefix(kv, prefix) {
			out = append(out, kv)
		}
	}
	return append(out, prefix+value)
}

// signalName extracts the terminating signal from a process failure, or
// "" when the process exited on its own.
func signalName(ee *exec.ExitError) string {
	if ee.ProcessState == nil || ee.ProcessState.Exited() {
		return ""
	}
	// ProcessState renders terminations as "signal: killed".
	s := ee.ProcessState.String()
	if rest, ok := strings.CutPrefix(s, "signal: "); ok {
		return rest
	}
	return s
}
