package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"

	vhs "github.com/taminomara/go-vhs"
	"github.com/taminomara/go-vhs/internal/platform"
	"github.com/taminomara/go-vhs/internal/releases"
	"github.com/taminomara/go-vhs/internal/version"
)

type versionItem struct {
	raw      string
	display  string
	isLatest bool
	inRange  bool
}

func (v versionItem) Title() string {
	if v.isLatest {
		return v.display + " (latest)"
	}
	return v.display
}

func (v versionItem) Description() string {
	if !v.inRange {
		return "outside configured version range"
	}
	return ""
}

func (v versionItem) FilterValue() string { return v.display }

type model struct {
	opts Options

	src  releases.Source
	host platform.Host
	rng  version.Range

	versions    list.Model
	selectedTag string

	loadingVersions bool
	installing      bool
	spin            spinner.Model
	bar             progress.Model

	// progressCh pumps installer progress into the update loop while an
	// install is running.
	progressCh chan installProgressMsg

	refreshCancel context.CancelFunc
	installCancel context.CancelFunc

	progressDesc string
	progressFrac float64

	status string
	err    error

	width  int
	height int
}

func newModel(opts Options) model {
	if opts.CachePath == "" {
		opts.CachePath = vhs.DefaultCachePath()
	}
	if opts.MinVersion == "" {
		opts.MinVersion = "0.5.0"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retries < 1 {
		opts.Retries = 3
	}

	l := list.New(nil, list.NewDefaultDelegate(), 40, 10)
	l.Title = "VHS versions"
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	sp := spinner.New()
	bar := progress.New(progress.WithDefaultGradient())

	return model{
		opts:     opts,
		src:      releases.NewGitHubSource(opts.Timeout, opts.Token),
		host:     platform.Current(),
		rng:      version.Range{Min: opts.MinVersion, Max: opts.MaxVersion},
		versions: l,
		spin:     sp,
		bar:      bar,
		status:   "ctrl+r: refresh   enter: install selected   q: quit",
	}
}

func (m *model) cancelRefresh() {
	if m.refreshCancel != nil {
		m.refreshCancel()
		m.refreshCancel = nil
	}
}

func (m *model) cancelInstall() {
	if m.installCancel != nil {
		m.installCancel()
		m.installCancel = nil
	}
}

func (m *model) setError(err error) {
	m.err = err
	if err != nil {
		m.status = err.Error()
	}
}

func (m *model) setStatus(s string) {
	m.err = nil
	m.status = s
}
