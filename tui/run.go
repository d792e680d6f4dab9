package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Options configure the interactive installer.
type Options struct {
	// CachePath is the directory binaries are installed into.
	CachePath string

	// MinVersion and MaxVersion bound the versions marked as compatible.
	MinVersion string
	MaxVersion string

	// Token is the GitHub token; empty falls back to GITHUB_TOKEN.
	Token string

	Timeout time.Duration
	Retries int
}

func Run(opts Options) error {
	m := newModel(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
