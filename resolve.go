package vhs

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/taminomara/go-vhs/internal/installer"
	"github.com/taminomara/go-vhs/internal/logger"
	"github.com/taminomara/go-vhs/internal/platform"
	"github.com/taminomara/go-vhs/internal/releases"
	"github.com/taminomara/go-vhs/internal/version"
)

const installDocsURL = "https://github.com/charmbracelet/vhs#installation"

type config struct {
	minVersion string
	maxVersion string
	cachePath  string
	quiet      bool
	env        []string
	dir        string
	install    bool
	reporter   ProgressReporter
	timeout    time.Duration
	attempts   int
	token      string

	// source overrides the GitHub release source. Test seam.
	source releases.Source
	// host overrides the detected platform. Test seam.
	host *platform.Host
}

// Option configures Resolve.
type Option func(*config)

// WithMinVersion sets the minimal acceptable VHS version ("0.5.0" by
// default). A leading "v" is tolerated.
func WithMinVersion(v string) Option { return func(c *config) { c.minVersion = v } }

// WithMaxVersion bounds the acceptable VHS versions from above,
// exclusive. Unbounded by default.
func WithMaxVersion(v string) Option { return func(c *config) { c.maxVersion = v } }

// WithCachePath sets where downloaded binaries are stored.
func WithCachePath(p string) Option { return func(c *config) { c.cachePath = p } }

// WithQuiet controls whether VHS output is captured rather than printed.
// Quiet is the default; captured output is attached to a RunError.
func WithQuiet(quiet bool) Option { return func(c *config) { c.quiet = quiet } }

// WithEnv overrides environment variables for the VHS process, in
// "KEY=VALUE" form as in exec.Cmd.
func WithEnv(env []string) Option { return func(c *config) { c.env = env } }

// WithWorkDir overrides the working directory for the VHS process.
func WithWorkDir(dir string) Option { return func(c *config) { c.dir = dir } }

// WithInstall enables or disables downloading VHS from GitHub when no
// usable system installation exists. Enabled by default.
func WithInstall(install bool) Option { return func(c *config) { c.install = install } }

// WithReporter sets the installation progress reporter.
func WithReporter(r ProgressReporter) Option { return func(c *config) { c.reporter = r } }

// WithTimeout bounds each request to the GitHub API.
func WithTimeout(d time.Duration) Option { return func(c *config) { c.timeout = d } }

// WithRetries sets the number of attempts for each network operation.
func WithRetries(n int) Option { return func(c *config) { c.attempts = n } }

// WithGitHubToken authenticates requests to the GitHub API. Without a
// token, GITHUB_TOKEN is consulted and anonymous requests are rate
// limited.
func WithGitHubToken(token string) Option { return func(c *config) { c.token = token } }

func newConfig(opts []Option) *config {
	c := &config{
		minVersion: "0.5.0",
		quiet:      true,
		install:    true,
		reporter:   NopReporter{},
		timeout:    60 * time.Second,
		attempts:   3,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Resolve finds a system VHS installation or downloads VHS from GitHub.
//
// If VHS is not installed, or its version falls outside the configured
// range, Resolve installs vhs, ttyd and ffmpeg into the cache path.
// Automatic installation only works on Linux amd64/arm64; macOS users are
// pointed at brew, everyone else at the VHS installation guide.
func Resolve(ctx context.Context, opts ...Option) (*VHS, error) {
	cfg := newConfig(opts)

	rng := version.Range{
		Min: version.NormalizeTag(cfg.minVersion),
		Max: version.NormalizeTag(cfg.maxVersion),
	}
	if err := rng.Validate(); err != nil {
		return nil, wrapError("", err)
	}

	cachePath := cfg.cachePath
	if cachePath == "" {
		cachePath = DefaultCachePath()
	}
	if abs, err := filepath.Abs(cachePath); err == nil {
		cachePath = abs
	}
	logger.Log.Debug("using cache path", "path", cachePath)

	cfg.reporter.Start()
	v, err := resolve(ctx, cfg, rng, cachePath)
	cfg.reporter.Finish(err)
	return v, err
}

func resolve(ctx context.Context, cfg *config, rng version.Range, cachePath string) (*VHS, error) {
	searchPath := pathFromEnv(cfg.env)

	// Try a pre-installed vhs first.
	systemVhs, err := findExecutable("vhs", searchPath)
	systemVersion := ""
	if err == nil {
		ok, v := checkVersion(ctx, systemVhs, rng)
		systemVersion = v
		if ok {
			logger.Log.Debug("using pre-installed vhs", "path", systemVhs, "version", v)
			return newVHS(systemVhs, searchPath, cfg), nil
		}
		logger.Log.Debug("pre-installed vhs is unusable", "path", systemVhs, "version", v)
	} else {
		logger.Log.Debug("pre-installed vhs not found")
	}

	host := platform.Current()
	if cfg.host != nil {
		host = *cfg.host
	}

	if host.OS == "darwin" {
		if systemVhs != "" {
			return nil, newError(fmt.Sprintf(
				"you have VHS %s, but %s is required; "+
					"run `brew upgrade vhs` to upgrade it, or see installation instructions at %s",
				systemVersion, rng, installDocsURL))
		}
		return nil, newError(fmt.Sprintf(
			"VHS is not installed on your system; "+
				"run `brew install vhs` to install it, or see installation instructions at %s",
			installDocsURL))
	}

	if !cfg.install || !host.SupportsInstall() {
		if systemVhs != "" {
			return nil, newError(fmt.Sprintf(
				"you have VHS %s, but %s is required; see upgrade instructions at %s",
				systemVersion, rng, installDocsURL))
		}
		return nil, newError(fmt.Sprintf(
			"VHS is not installed on your system; see installation instructions at %s",
			installDocsURL))
	}

	source := cfg.source
	if source == nil {
		source = releases.NewGitHubSource(cfg.timeout, cfg.token)
	}

	ins := &installer.Installer{
		Source:   source,
		Host:     host,
		CacheDir: cachePath,
		Reporter: reporterAdapter{cfg.reporter},
		Attempts: cfg.attempts,
	}

	if err := os.MkdirAll(cachePath, 0o755); err != nil {
		return nil, wrapError("create cache directory", err)
	}

	if err := ins.Ensure(ctx, releases.TtydSpec()); err != nil {
		return nil, wrapError("", err)
	}
	if err := ins.Ensure(ctx, releases.FfmpegSpec()); err != nil {
		return nil, wrapError("", err)
	}

	childPath := cachePath
	if searchPath != "" {
		childPath = cachePath + string(os.PathListSeparator) + searchPath
	}

	vhsSpec := releases.VhsSpec(rng)
	vhsPath := ins.BinaryPath(vhsSpec)

	if ins.Installed(vhsSpec) {
		if ok, _ := checkVersion(ctx, vhsPath, rng); ok {
			logger.Log.Debug("using cached vhs", "path", vhsPath)
			return newVHS(vhsPath, childPath, cfg), nil
		}
	}

	if err := ins.Install(ctx, vhsSpec); err != nil {
		return nil, wrapError("", err)
	}

	if ok, v := checkVersion(ctx, vhsPath, rng); !ok {
		logger.Log.Warn("downloaded latest vhs is outside the requested version range",
			"version", v, "required", rng.String())
	}

	return newVHS(vhsPath, childPath, cfg), nil
}

// reporterAdapter bridges the public reporter into the installer.
type reporterAdapter struct {
	r ProgressReporter
}

func (a reporterAdapter) Progress(desc string, done, total int64, speed float64) {
	a.r.Progress(desc, done, total, speed)
}

// pathFromEnv extracts PATH from an exec.Cmd-style environment, falling
// back to the process environment.
func pathFromEnv(env []string) string {
	for i := len(env) - 1; i >= 0; i-- {
		if rest, ok := strings.CutPrefix(env[i], "PATH="); ok {
			return rest
		}
	}
	return os.Getenv("PATH")
}

// findExecutable searches the given path list for an executable file,
// like exec.LookPath but against an explicit search path.
func findExecutable(name, path string) (string, error) {
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			continue
		}
		full := filepath.Join(dir, name)
		info, err := os.Stat(full)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode().Perm()&0o111 != 0 {
			return full, nil
		}
	}
	return "", fmt.Errorf("executable %s not found in PATH", name)
}

// checkVersion runs `bin --version` and checks the reported version
// against the range. Binaries that fail to run or report something
// unparseable are unusable; the raw output is returned for diagnostics.
func checkVersion(ctx context.Context, bin string, rng version.Range) (bool, string) {
	logger.Log.Debug("checking version", "bin", bin)
	out, err := exec.CommandContext(ctx, bin, "--version").Output()
	if err != nil {
		logger.Log.Debug("binary failed to print its version", "bin", bin, "err", err)
		return false, ""
	}

	text := strings.TrimSpace(string(out))
	v := version.FromOutput(text)
	if v == "" {
		logger.Log.Debug("binary printed an invalid version", "bin", bin, "output", text)
		return false, text
	}
	if !rng.Contains(v) {
		logger.Log.Debug("binary is outside the version range",
			"bin", bin, "version", v, "required", rng.String())
		return false, v
	}
	return true, v
}
