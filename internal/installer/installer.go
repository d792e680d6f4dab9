// Package installer downloads the wrapped tools from their GitHub
// releases and places their executables into the cache directory.
package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/taminomara/go-vhs/internal/archive"
	"github.com/taminomara/go-vhs/internal/ghrel"
	"github.com/taminomara/go-vhs/internal/logger"
	"github.com/taminomara/go-vhs/internal/platform"
	"github.com/taminomara/go-vhs/internal/releases"
	"github.com/taminomara/go-vhs/internal/version"
)

// Reporter receives coarse installation progress. done and total are only
// meaningful while downloading; otherwise both are zero.
type Reporter interface {
	Progress(desc string, done, total int64, speed float64)
}

type nopReporter struct{}

func (nopReporter) Progress(string, int64, int64, float64) {}

// Installer fetches tool releases and installs their binaries.
type Installer struct {
	Source   releases.Source
	Host     platform.Host
	CacheDir string

	// Reporter defaults to a no-op when nil.
	Reporter Reporter

	// Attempts is the number of tries for each network operation.
	// Values below 1 mean a single try.
	Attempts int
}

func (ins *Installer) reporter() Reporter {
	if ins.Reporter == nil {
		return nopReporter{}
	}
	return ins.Reporter
}

// retryWithBackoff retries fn with exponentially growing delays, stopping
// early on context cancellation.
func retryWithBackoff(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	delay := baseDelay
	for i := 0; i < attempts; i++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		err := fn()
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if i == attempts-1 {
			return err
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		delay *= 2
	}
	return ctx.Err()
}

// BinaryPath returns where a tool's binary lives inside the cache dir.
func (ins *Installer) BinaryPath(spec releases.ToolSpec) string {
	return filepath.Join(ins.CacheDir, spec.Name)
}

// Installed reports whether the tool's binary is already cached.
func (ins *Installer) Installed(spec releases.ToolSpec) bool {
	_, err := os.Stat(ins.BinaryPath(spec))
	return err == nil
}

// Ensure installs the tool unless its binary is already cached.
func (ins *Installer) Ensure(ctx context.Context, spec releases.ToolSpec) error {
	if ins.Installed(spec) {
		logger.Log.Debug("using cached binary", "tool", spec.Name, "path", ins.BinaryPath(spec))
		return nil
	}
	return ins.Install(ctx, spec)
}

// Install resolves the matching release, downloads its asset and places
// the tool's executables into the cache directory.
func (ins *Installer) Install(ctx context.Context, spec releases.ToolSpec) error {
	if err := ins.install(ctx, spec); err != nil {
		return fmt.Errorf("%s install failed: %w", spec.Name, err)
	}
	return nil
}

func (ins *Installer) install(ctx context.Context, spec releases.ToolSpec) error {
	rep := ins.reporter()
	rep.Progress("resolving "+spec.Name, 0, 0, 0)

	asset, tag, err := ins.pickAsset(ctx, spec)
	if err != nil {
		return err
	}
	logger.Log.Debug("found release asset", "tool", spec.Name, "tag", tag, "asset", asset.Name)

	tmpDir, err := os.MkdirTemp("", "go-vhs-*")
	if err != nil {
		return fmt.Errorf("mkdir temp: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	tmpFile := filepath.Join(tmpDir, asset.Name)
	err = retryWithBackoff(ctx, ins.Attempts, 500*time.Millisecond, func() error {
		return ins.Source.DownloadAsset(ctx, asset.BrowserDownloadURL, tmpFile, func(done, total int64, speed float64) {
			rep.Progress("downloading "+spec.Name, done, total, speed)
		})
	})
	if err != nil {
		return err
	}

	rep.Progress("processing "+spec.Name, 0, 0, 0)

	if err := os.MkdirAll(ins.CacheDir, 0o755); err != nil {
		return fmt.Errorf("mkdir cache: %w", err)
	}

	if !archive.IsArchive(asset.Name) {
		// Raw binary asset (ttyd).
		return installBinary(tmpFile, ins.BinaryPath(spec))
	}

	logger.Log.Debug("unpacking", "tool", spec.Name, "archive", asset.Name)
	if err := archive.Extract(tmpFile, tmpDir); err != nil {
		return err
	}

	root := filepath.Join(tmpDir, archive.TrimExtension(asset.Name))

	if spec.BinDir != "" {
		entries, err := os.ReadDir(filepath.Join(root, spec.BinDir))
		if err != nil {
			return fmt.Errorf("read archive bin dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			src := filepath.Join(root, spec.BinDir, e.Name())
			if err := installBinary(src, filepath.Join(ins.CacheDir, e.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	src := filepath.Join(root, spec.Name)
	if _, err := os.Stat(src); err != nil {
		// Some archives unpack flat rather than into a root directory.
		src = filepath.Join(tmpDir, spec.Name)
		if _, err := os.Stat(src); err != nil {
			return fmt.Errorf("binary %s not found in archive %s", spec.Name, asset.Name)
		}
	}
	return installBinary(src, ins.BinaryPath(spec))
}

// pickAsset walks releases newest-first and returns the first asset that
// matches the host on a release inside the spec's version range.
func (ins *Installer) pickAsset(ctx context.Context, spec releases.ToolSpec) (ghrel.Asset, string, error) {
	var (
		asset ghrel.Asset
		tag   string
		found bool
	)

	walk := func() error {
		return ins.Source.ListReleases(ctx, spec.Owner, spec.Repo, func(rel ghrel.Release) bool {
			if spec.PinTag != "" && version.NormalizeTag(rel.TagName) != version.NormalizeTag(spec.PinTag) {
				return true
			}
			if spec.VersionRange != nil {
				v := version.FromOutput(rel.TagName)
				if v == "" || !spec.VersionRange.Contains(v) {
					logger.Log.Debug("release outside version range", "tool", spec.Name, "tag", rel.TagName)
					return true
				}
			}
			a, ok := ghrel.FindAsset(rel, func(name string) bool {
				return spec.MatchAsset(ins.Host, name)
			})
			if !ok {
				// A matching release without a matching asset means the
				// platform is not covered; keep it an error rather than
				// silently taking an older release.
				return false
			}
			asset, tag, found = a, rel.TagName, true
			return false
		})
	}

	if err := retryWithBackoff(ctx, ins.Attempts, 250*time.Millisecond, walk); err != nil {
		return ghrel.Asset{}, "", err
	}
	if !found {
		if spec.VersionRange != nil {
			return ghrel.Asset{}, "", fmt.Errorf(
				"unable to find %s release for %s on %s/%s",
				spec.Name, spec.VersionRange, runtime.GOOS, runtime.GOARCH)
		}
		return ghrel.Asset{}, "", fmt.Errorf(
			"unable to find %s release for platform %s/%s",
			spec.Name, runtime.GOOS, runtime.GOARCH)
	}
	return asset, tag, nil
}

// installBinary moves src into place and sets the executable bit.
func installBinary(src, dst string) error {
	logger.Log.Debug("installing binary", "src", src, "dst", dst)
	if err := os.Rename(src, dst); err != nil {
		// Rename fails when src and dst live on different filesystems.
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("install %s: %w", dst, err)
		}
	}
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dst, err)
	}
	if err := os.Chmod(dst, info.Mode()|0o111); err != nil {
		return fmt.Errorf("chmod %s: %w", dst, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	return ghrel.WriteFileAtomically(dst, func(out *os.File) error {
		_, err := io.Copy(out, in)
		return err
	})
}
