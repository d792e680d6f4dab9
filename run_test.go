package vhs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeScript drops a fake executable into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

// fakeVhs builds a vhs stand-in that answers --version and records any
// other invocation's arguments into args.txt next to itself. The script
// sticks to shell builtins: it runs with PATH pointing at the fake
// install dir only, so external utilities are not resolvable.
func fakeVhs(t *testing.T, dir, version string) string {
	t.Helper()
	return writeScript(t, dir, "vhs", `
if [ "$1" = "--version" ]; then
  echo "vhs version v`+version+`"
  exit 0
fi
printf '%s\n' "$@" > "${0%/*}/args.txt"
`)
}

func recordedArgs(t *testing.T, dir string) []string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, "args.txt"))
	if err != nil {
		t.Fatalf("read recorded args: %v", err)
	}
	return strings.Split(strings.TrimRight(string(b), "\n"), "\n")
}

func resolveFake(t *testing.T, dir string, opts ...Option) *VHS {
	t.Helper()
	opts = append([]Option{WithEnv([]string{"PATH=" + dir})}, opts...)
	v, err := Resolve(context.Background(), opts...)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return v
}

func TestRun_ForwardsArguments(t *testing.T) {
	dir := t.TempDir()
	fakeVhs(t, dir, "0.7.2")

	v := resolveFake(t, dir)
	if err := v.Run(context.Background(), "demo.tape", "out.gif"); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := recordedArgs(t, dir)
	want := []string{"-q", "-o", "out.gif", "demo.tape"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("args forwarded as %v; want %v", got, want)
	}
}

func TestWhich_FindsToolsOnSearchPath(t *testing.T) {
	dir := t.TempDir()
	fakeVhs(t, dir, "0.7.2")
	ttyd := writeScript(t, dir, "ttyd", "exit 0\n")

	v := resolveFake(t, dir)
	got, err := v.Which("ttyd")
	if err != nil {
		t.Fatalf("which ttyd: %v", err)
	}
	if got != ttyd {
		t.Fatalf("which ttyd = %q; want %q", got, ttyd)
	}

	if _, err := v.Which("ffmpeg"); err == nil {
		t.Fatalf("expected error for missing ffmpeg")
	}
}

func TestRun_NoOutputNoQuiet(t *testing.T) {
	dir := t.TempDir()
	fakeVhs(t, dir, "0.7.2")

	v := resolveFake(t, dir, WithQuiet(false))
	if err := v.Run(context.Background(), "demo.tape", ""); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := recordedArgs(t, dir)
	if len(got) != 1 || got[0] != "demo.tape" {
		t.Fatalf("args forwarded as %v; want only the tape", got)
	}
}

func TestRun_FailureCapturesOutput(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "vhs", `
if [ "$1" = "--version" ]; then
  echo "vhs version v0.7.2"
  exit 0
fi
echo "rendering"
echo "tape is broken" >&2
exit 3
`)

	v := resolveFake(t, dir)
	err := v.Run(context.Background(), "demo.tape", "")

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %T: %v", err, err)
	}
	if runErr.ExitCode != 3 {
		t.Fatalf("exit code %d; want 3", runErr.ExitCode)
	}
	msg := runErr.Error()
	if !strings.Contains(msg, "VHS run failed with code 3") {
		t.Fatalf("unexpected message: %q", msg)
	}
	if !strings.Contains(msg, "Stderr:\ntape is broken") {
		t.Fatalf("stderr not attached: %q", msg)
	}
	if !strings.Contains(msg, "Stdout:\nrendering") {
		t.Fatalf("stdout not attached: %q", msg)
	}
}

func TestRun_SignalReported(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "vhs", `
if [ "$1" = "--version" ]; then
  echo "vhs version v0.7.2"
  exit 0
fi
kill -9 $$
`)

	v := resolveFake(t, dir)
	err := v.Run(context.Background(), "demo.tape", "")

	var runErr *RunError
	if !errors.As(err, &runErr) {
		t.Fatalf("expected *RunError, got %T: %v", err, err)
	}
	if runErr.Signal != "killed" {
		t.Fatalf("signal %q; want killed", runErr.Signal)
	}
	if !strings.Contains(runErr.Error(), "VHS run failed with signal killed") {
		t.Fatalf("unexpected message: %q", runErr.Error())
	}
}

func TestRunInline_WritesTapeFile(t *testing.T) {
	dir := t.TempDir()
	result := filepath.Join(dir, "result.txt")
	writeScript(t, dir, "vhs", `
if [ "$1" = "--version" ]; then
  echo "vhs version v0.7.2"
  exit 0
fi
shift  # drop -q
while IFS= read -r line; do
  printf '%s\n' "$line"
done < "$1" > "$RESULT"
`)

	v := resolveFake(t, dir, WithEnv(append(os.Environ(),
		"PATH="+dir,
		"RESULT="+result,
	)))

	tape := "Type \"echo hi\"\nEnter\n"
	if err := v.RunInline(context.Background(), tape, ""); err != nil {
		t.Fatalf("run inline: %v", err)
	}

	b, err := os.ReadFile(result)
	if err != nil {
		t.Fatalf("read result: %v", err)
	}
	if string(b) != tape {
		t.Fatalf("tape content %q; want %q", b, tape)
	}
}

func TestRunWith_Overrides(t *testing.T) {
	dir := t.TempDir()
	fakeVhs(t, dir, "0.7.2")

	workDir := t.TempDir()
	quiet := false
	v := resolveFake(t, dir) // quiet by default
	err := v.RunWith(context.Background(), "demo.tape", RunOptions{
		Quiet: &quiet,
		Dir:   workDir,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	got := recordedArgs(t, dir)
	if len(got) != 1 || got[0] != "demo.tape" {
		t.Fatalf("quiet override not applied, args: %v", got)
	}
}

func TestExec_PropagatesExitCode(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "vhs", `
if [ "$1" = "--version" ]; then
  echo "vhs version v0.7.2"
  exit 0
fi
exit 7
`)

	v := resolveFake(t, dir)
	code, err := v.Exec(context.Background(), "broken.tape")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if code != 7 {
		t.Fatalf("exit code %d; want 7", code)
	}
}

func TestExec_ForwardsArgumentsVerbatim(t *testing.T) {
	dir := t.TempDir()
	fakeVhs(t, dir, "0.7.2")

	v := resolveFake(t, dir)
	code, err := v.Exec(context.Background(), "record", "--shell", "bash")
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code %d; want 0", code)
	}

	got := recordedArgs(t, dir)
	want := []string{"record", "--shell", "bash"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Fatalf("args forwarded as %v; want %v", got, want)
	}
}

func TestSetEnv(t *testing.T) {
	env := setEnv([]string{"A=1", "PATH=/old", "B=2"}, "PATH", "/new")
	joined := strings.Join(env, ";")
	if strings.Contains(joined, "/old") || !strings.Contains(joined, "PATH=/new") {
		t.Fatalf("unexpected env: %v", env)
	}
}
