package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/tinytelemetry/killfeed/internal/model"
)

const (
	headerHeight    = 1
	statusBoxHeight = 3
	chartBoxHeight  = countsChartHeight + 3
	statusBarHeight = 1
	journalChrome   = 3 // border + title
)

func (m *DashboardModel) resizeJournal() {
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	h := m.height - headerHeight - statusBoxHeight - chartBoxHeight - journalChrome - statusBarHeight
	if h < 3 {
		h = 3
	}
	m.journal.Width = w
	m.journal.Height = h
	m.journal.SetContent(renderJournal(m.entries, w))
}

// View renders the dashboard
func (m *DashboardModel) View() string {
	if m.width <= 0 || m.height <= 0 {
		return "Initializing dashboard..."
	}
	if m.height < 20 || m.width < 60 {
		return "Terminal too small. Resize to at least 60x20."
	}

	inner := m.width - 2
	sections := []string{
		m.renderHeader(),
		sectionStyle.Width(inner).Render(m.renderLatestStatus(inner - 4)),
		sectionStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left,
			chartTitleStyle.Render("Kill Events"),
			renderCountsChart(m.snap.Counters, inner-4),
		)),
		sectionStyle.Width(inner).Render(lipgloss.JoinVertical(lipgloss.Left,
			chartTitleStyle.Render(fmt.Sprintf("Dispatch Journal (%d)", len(m.entries))),
			m.journal.View(),
		)),
		m.renderStatusLine(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *DashboardModel) renderHeader() string {
	title := chartTitleStyle.Render("KILLFEED")
	if !m.haveSnap {
		return title + "  " + dimStyle.Render("waiting for service...")
	}

	parts := []string{title, stateBadge(string(m.snap.State))}
	if m.snap.Username != "" {
		parts = append(parts, m.snap.Username)
	}
	if m.snap.LogPath != "" {
		parts = append(parts, dimStyle.Render(fmt.Sprintf("%s @ %d", m.snap.LogPath, m.snap.Cursor)))
	}
	if m.snap.PlaySound {
		parts = append(parts, dimStyle.Render("♪"))
	}
	return truncate(strings.Join(parts, "  "), m.width)
}

func (m *DashboardModel) renderLatestStatus(width int) string {
	st := m.snap.Status
	if st.Message == "" {
		return helpStyle.Render("No status yet")
	}
	style := okStyle
	if st.Level == model.LevelError {
		style = errorStyle
	}
	ts := ""
	if !st.Time.IsZero() {
		ts = dimStyle.Render(st.Time.Format("15:04:05")) + "  "
	}
	return ts + style.Render(truncate(st.Message, width-10))
}

func (m *DashboardModel) renderStatusLine() string {
	var help []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	left := strings.Join(help, " • ")

	right := ""
	switch {
	case m.actionInFlight != "":
		right = m.actionInFlight + "..."
	case m.activeError() != "":
		right = m.activeError()
	}

	space := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if space < 1 {
		left = truncate(left, max(0, m.width-lipgloss.Width(right)-3))
		space = 1
	}
	line := " " + left + strings.Repeat(" ", space) + right + " "
	return statusBarStyle.Width(m.width).Render(truncate(line, m.width))
}

// renderJournal formats dispatch entries, oldest first, one per line.
func renderJournal(entries []model.DispatchEntry, width int) string {
	if len(entries) == 0 {
		return helpStyle.Render("No dispatches yet")
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		mark := okStyle.Render("✓")
		if !e.OK {
			mark = errorStyle.Render("✗")
		}
		code := "---"
		if e.StatusCode > 0 {
			code = fmt.Sprintf("%3d", e.StatusCode)
		}
		line := fmt.Sprintf("%s %s %-6s %s %s", e.Time.Format("15:04:05"), mark, e.Op, code, e.Message)
		lines = append(lines, truncate(line, width))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return ansi.Truncate(s, width, "…")
}
