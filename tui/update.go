package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taminomara/go-vhs/internal/installer"
	"github.com/taminomara/go-vhs/internal/releases"
	"github.com/taminomara/go-vhs/internal/version"
)

type versionsLoadedMsg struct {
	versions []string
}

type versionsErrMsg struct {
	err error
}

type versionsCanceledMsg struct{}

type installProgressMsg struct {
	desc  string
	done  int64
	total int64
	speed float64
}

type installDoneMsg struct {
	tag string
}

type installErrMsg struct {
	err error
}

type installCanceledMsg struct{}

// initRefreshMsg triggers the startup auto-refresh flow.
type initRefreshMsg struct{}

func retryWithBackoff(ctx context.Context, attempts int, baseDelay time.Duration, fn func() error) error {
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

// chanReporter forwards installer progress into the update loop. Sends
// never block; stale frames are dropped instead.
type chanReporter struct {
	ch chan installProgressMsg
}

func (r chanReporter) Progress(desc string, done, total int64, speed float64) {
	select {
	case r.ch <- installProgressMsg{desc: desc, done: done, total: total, speed: speed}:
	default:
	}
}

func waitForProgress(ch chan installProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func refreshVersionsCmd(ctx context.Context, src releases.Source, attempts int) tea.Cmd {
	return func() tea.Msg {
		spec := releases.VhsSpec(version.Range{})
		var versions []string
		err := retryWithBackoff(ctx, attempts, 250*time.Millisecond, func() error {
			v, e := src.ListTags(ctx, spec.Owner, spec.Repo)
			if e == nil {
				versions = v
			}
			return e
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return versionsCanceledMsg{}
			}
			return versionsErrMsg{err: fmt.Errorf("refresh versions: %w", err)}
		}
		return versionsLoadedMsg{versions: versions}
	}
}

func installCmd(ctx context.Context, ins *installer.Installer, tag string, ch chan installProgressMsg) tea.Cmd {
	return func() tea.Msg {
		defer close(ch)

		err := runInstall(ctx, ins, tag)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return installCanceledMsg{}
			}
			return installErrMsg{err: err}
		}
		return installDoneMsg{tag: tag}
	}
}

// runInstall ensures ttyd and ffmpeg, then installs the pinned vhs tag,
// replacing any previously cached vhs binary.
func runInstall(ctx context.Context, ins *installer.Installer, tag string) error {
	if err := ins.Ensure(ctx, releases.TtydSpec()); err != nil {
		return err
	}
	if err := ins.Ensure(ctx, releases.FfmpegSpec()); err != nil {
		return err
	}

	spec := releases.VhsSpec(version.Range{Min: "0.0.0"})
	spec.PinTag = tag
	_ = os.Remove(ins.BinaryPath(spec))
	return ins.Install(ctx, spec)
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick,
		func() tea.Msg { return initRefreshMsg{} },
	)
}

func (m *model) startRefresh() tea.Cmd {
	// Cancel/replace policy: starting a refresh cancels any in-flight work.
	m.cancelInstall()
	m.installing = false
	m.cancelRefresh()

	m.loadingVersions = true
	m.setStatus("Refreshing version list…")

	baseCtx, cancel := context.WithCancel(context.Background())
	m.refreshCancel = cancel
	ctx, timeoutCancel := context.WithTimeout(baseCtx, m.opts.Timeout)

	inner := refreshVersionsCmd(ctx, m.src, m.opts.Retries)
	return func() tea.Msg {
		defer timeoutCancel()
		return inner()
	}
}

func (m *model) startInstall() tea.Cmd {
	m.cancelRefresh()
	m.loadingVersions = false
	m.cancelInstall()

	if !m.host.SupportsInstall() {
		m.setError(errors.New("installation is only supported on 64-bit Linux"))
		return nil
	}
	if m.selectedTag == "" {
		m.setError(errors.New("select a version first (refresh with ctrl+r)"))
		return nil
	}

	m.installing = true
	m.progressDesc = ""
	m.progressFrac = 0
	m.setStatus("Installing " + version.NormalizeTag(m.selectedTag) + "…")

	ctx, cancel := context.WithCancel(context.Background())
	m.installCancel = cancel

	m.progressCh = make(chan installProgressMsg, 16)
	ins := &installer.Installer{
		Source:   m.src,
		Host:     m.host,
		CacheDir: m.opts.CachePath,
		Reporter: chanReporter{ch: m.progressCh},
		Attempts: m.opts.Retries,
	}

	return tea.Batch(
		installCmd(ctx, ins, m.selectedTag, m.progressCh),
		waitForProgress(m.progressCh),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case initRefreshMsg:
		return m, m.startRefresh()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.versions.SetSize(max(msg.Width-8, 40), max(msg.Height-14, 6))
		m.bar.Width = max(msg.Width-16, 20)
		return m, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "q" || key == "ctrl+c" {
			m.cancelRefresh()
			m.cancelInstall()
			return m, tea.Quit
		}

		if key == "esc" {
			m.setStatus("Ready")
			return m, nil
		}

		if key == "ctrl+r" {
			return m, m.startRefresh()
		}

		if key == "enter" {
			if it, ok := m.versions.SelectedItem().(versionItem); ok {
				m.selectedTag = it.raw
			}
			return m, m.startInstall()
		}

		var cmd tea.Cmd
		m.versions, cmd = m.versions.Update(msg)
		return m, cmd

	case versionsLoadedMsg:
		m.loadingVersions = false
		m.refreshCancel = nil

		items := make([]versionItem, 0, len(msg.versions))
		for _, t := range msg.versions {
			display := version.NormalizeTag(t)
			items = append(items, versionItem{
				raw:     t,
				display: display,
				inRange: m.rng.Contains(display),
			})
		}

		if len(items) == 0 {
			m.setError(errors.New("no versions found"))
			m.versions.SetItems(nil)
			return m, nil
		}

		sort.Slice(items, func(i, j int) bool {
			if items[i].display == items[j].display {
				return items[i].raw > items[j].raw
			}
			return version.Greater(items[i].display, items[j].display)
		})
		items[0].isLatest = true

		litems := make([]list.Item, 0, len(items))
		for _, it := range items {
			litems = append(litems, it)
		}
		m.versions.SetItems(litems)
		m.versions.Select(0)
		m.selectedTag = items[0].raw
		m.setStatus(fmt.Sprintf("%d versions. enter: install selected", len(items)))
		return m, nil

	case versionsErrMsg:
		m.loadingVersions = false
		m.refreshCancel = nil
		m.setError(msg.err)
		return m, nil

	case versionsCanceledMsg:
		m.loadingVersions = false
		m.refreshCancel = nil
		m.setStatus("Refresh canceled.")
		return m, nil

	case installProgressMsg:
		m.progressDesc = msg.desc
		if msg.total > 0 {
			m.progressFrac = float64(msg.done) / float64(msg.total)
		} else {
			m.progressFrac = 0
		}
		return m, waitForProgress(m.progressCh)

	case installDoneMsg:
		m.installing = false
		m.installCancel = nil
		m.setStatus("Installed " + version.NormalizeTag(msg.tag) + " into " + m.opts.CachePath)
		return m, nil

	case installErrMsg:
		m.installing = false
		m.installCancel = nil
		m.setError(msg.err)
		return m, nil

	case installCanceledMsg:
		m.installing = false
		m.installCancel = nil
		m.setStatus("Install canceled.")
		return m, nil

	default:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
}
