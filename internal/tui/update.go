package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages
func (m *DashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeJournal()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.journal, cmd = m.journal.Update(msg)
		return m, cmd

	case TickMsg:
		if m.tickInFlight {
			return m, m.scheduleTick()
		}
		m.tickInFlight = true
		return m, tea.Batch(m.fetchTickDataCmd(), m.scheduleTick())

	case tickDataLoadedMsg:
		m.tickInFlight = false
		return m, m.applyTickData(msg)

	case actionDoneMsg:
		m.actionInFlight = ""
		if msg.err != nil {
			m.setError(msg.action + " failed: " + msg.err.Error())
		} else if msg.action == "start" {
			m.lastError = ""
		}
		if m.tickInFlight {
			return m, nil
		}
		m.tickInFlight = true
		return m, m.fetchTickDataCmd()
	}

	return m, nil
}

func (m *DashboardModel) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Start):
		if m.actionInFlight != "" {
			return m, nil
		}
		m.actionInFlight = "start"
		return m, m.startCmd()

	case key.Matches(msg, m.keys.Stop):
		if m.actionInFlight != "" {
			return m, nil
		}
		m.actionInFlight = "stop"
		return m, m.stopCmd()

	case key.Matches(msg, m.keys.End):
		m.journal.GotoBottom()
		return m, nil

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.journal, cmd = m.journal.Update(msg)
		return m, cmd
	}
	return m, nil
}

// applyTickData stores fresh data and returns a bell command when a new kill
// was sent on a session with sound enabled.
func (m *DashboardModel) applyTickData(msg tickDataLoadedMsg) tea.Cmd {
	if msg.lastError != "" {
		m.setError(msg.lastError)
	}

	var cmd tea.Cmd
	if msg.hasSnap {
		sent := msg.snap.Counters.Sent
		if m.haveSnap && sent > m.lastSent && msg.snap.PlaySound && m.bell != nil {
			bell := m.bell
			cmd = func() tea.Msg {
				bell.Notify()
				return nil
			}
		}
		m.snap = msg.snap
		m.haveSnap = true
		m.lastSent = sent
	}

	if msg.hasEntries {
		follow := m.journal.AtBottom() || len(m.entries) == 0
		m.entries = msg.entries
		m.journal.SetContent(renderJournal(m.entries, m.journal.Width))
		if follow {
			m.journal.GotoBottom()
		}
	}
	return cmd
}
