// Package vhs locates or installs VHS, the charm terminal-GIF recorder,
// together with its runtime dependencies (ttyd and ffmpeg), and runs it.
//
// The entry point is Resolve: it searches PATH for a vhs binary whose
// version fits the requested range and, on 64-bit Linux, downloads the
// missing tools from their GitHub releases into a cache directory.
// The returned VHS renders tape files:
//
//	runner, err := vhs.Resolve(ctx)
//	if err != nil {
//		return err
//	}
//	if err := runner.Run(ctx, "./example.tape", "./example.gif"); err != nil {
//		return err
//	}
//
// On other platforms Resolve fails with installation instructions rather
// than attempting a download.
package vhs

import (
	"os"
	"path/filepath"
)

// cacheEnvVar overrides the default cache location.
const cacheEnvVar = "VHS_GO_CACHE_PATH"

// DefaultCachePath returns the directory downloaded binaries go to when
// no cache path is configured.
func DefaultCachePath() string {
	if p := os.Getenv(cacheEnvVar); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), "go-vhs-cache")
}
