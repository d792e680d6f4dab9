package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m model) View() string {
	w := m.width - 4
	if w <= 0 {
		w = 80
	}

	var (
		appPad = lipgloss.NewStyle().Padding(1, 2)

		muted = lipgloss.NewStyle().Faint(true)
		bold  = lipgloss.NewStyle().Bold(true)

		titleBar = lipgloss.NewStyle().
				Bold(true).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder())

		panel = lipgloss.NewStyle().
			Padding(1, 1).
			Border(lipgloss.RoundedBorder()).
			MarginTop(1)

		statusBox = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder()).
				MarginTop(1)

		errorBox = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder()).
				Bold(true).
				MarginTop(1)

		footer = lipgloss.NewStyle().MarginTop(1)
	)

	innerW := w - 4
	if innerW < 20 {
		innerW = 20
	}

	sub := "charmbracelet/vhs  •  " + m.opts.CachePath
	if m.loadingVersions {
		sub = fmt.Sprintf("%s  •  %s Refreshing…", sub, m.spin.View())
	}
	if m.installing {
		sub = fmt.Sprintf("%s  •  %s Installing…", sub, m.spin.View())
	}

	header := titleBar.Width(w).Render(
		lipgloss.JoinVertical(
			lipgloss.Left,
			bold.Render("VHS installer"),
			muted.Render(sub),
		),
	)

	versionsPanel := panel.Width(w).Render(m.versions.View())

	var extra strings.Builder
	if m.installing {
		desc := m.progressDesc
		if desc == "" {
			desc = "starting"
		}
		fmt.Fprintf(&extra, "%s\n%s",
			muted.Render(desc),
			m.bar.ViewAs(m.progressFrac),
		)
	}

	body := versionsPanel
	if extra.Len() > 0 {
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			versionsPanel,
			panel.Width(w).Render(extra.String()),
		)
	}

	var notices string
	if m.err != nil {
		notices = errorBox.Width(innerW).Render("Error: " + m.err.Error())
	} else if strings.TrimSpace(m.status) != "" {
		notices = statusBox.Width(innerW).Render(m.status)
	}

	footerLine := footer.Render(
		muted.Render("ctrl+r: refresh   enter: install   esc: clear   q: quit"),
	)

	parts := []string{header, body}
	if notices != "" {
		parts = append(parts, notices)
	}
	parts = append(parts, footerLine)

	return appPad.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
