package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/tinytelemetry/killfeed/internal/model"
	"github.com/tinytelemetry/killfeed/internal/notify"
)

const (
	journalLimit     = 200
	errorDisplayTime = 30 * time.Second
)

// TickMsg represents periodic updates
type TickMsg time.Time

// tickDataLoadedMsg carries one refresh of the tracker state.
type tickDataLoadedMsg struct {
	snap       model.Snapshot
	hasSnap    bool
	entries    []model.DispatchEntry
	hasEntries bool
	lastError  string // first error encountered during this tick
}

// actionDoneMsg reports the result of a start or stop request.
type actionDoneMsg struct {
	action  string
	stopped bool
	err     error
}

// DashboardModel is the tracker dashboard. It reads and drives the tracker
// through model.ControlAPI, normally the socket RPC client.
type DashboardModel struct {
	api            model.ControlAPI
	keys           KeyMap
	updateInterval time.Duration
	startReq       model.StartRequest
	bell           notify.Notifier

	snap     model.Snapshot
	haveSnap bool
	lastSent int64
	entries  []model.DispatchEntry

	journal       viewport.Model
	journalHeight int

	// Async guards so a slow service never stacks requests.
	tickInFlight   bool
	actionInFlight string

	lastError   string
	lastErrorAt time.Time

	width  int
	height int
}

// Options configures a dashboard.
type Options struct {
	UpdateInterval time.Duration
	// StartRequest is sent on the start key; blank fields fall back to the
	// service's saved settings.
	StartRequest model.StartRequest
	Bell         notify.Notifier
}

// NewDashboardModel creates a new dashboard model.
func NewDashboardModel(api model.ControlAPI, opts Options) *DashboardModel {
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = model.DefaultUpdateInterval
	}
	return &DashboardModel{
		api:            api,
		keys:           DefaultKeyMap(),
		updateInterval: opts.UpdateInterval,
		startReq:       opts.StartRequest,
		bell:           opts.Bell,
		journal:        viewport.New(0, 0),
	}
}

// Init initializes the model
func (m *DashboardModel) Init() tea.Cmd {
	m.tickInFlight = true
	return tea.Batch(m.fetchTickDataCmd(), m.scheduleTick())
}

func (m *DashboardModel) scheduleTick() tea.Cmd {
	return tea.Tick(m.updateInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// fetchTickDataCmd reads the snapshot and journal off the UI goroutine.
func (m *DashboardModel) fetchTickDataCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		var msg tickDataLoadedMsg
		snap, err := api.Snapshot()
		if err != nil {
			msg.lastError = err.Error()
		} else {
			msg.snap = snap
			msg.hasSnap = true
		}

		entries, err := api.RecentDispatches(journalLimit)
		if err != nil {
			if msg.lastError == "" {
				msg.lastError = err.Error()
			}
		} else {
			msg.entries = entries
			msg.hasEntries = true
		}
		return msg
	}
}

func (m *DashboardModel) startCmd() tea.Cmd {
	api, req := m.api, m.startReq
	return func() tea.Msg {
		return actionDoneMsg{action: "start", err: api.StartSession(context.Background(), req)}
	}
}

func (m *DashboardModel) stopCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		stopped, err := api.StopSession()
		return actionDoneMsg{action: "stop", stopped: stopped, err: err}
	}
}

func (m *DashboardModel) setError(msg string) {
	m.lastError = msg
	m.lastErrorAt = time.Now()
}

// activeError returns the last error while it is still fresh.
func (m *DashboardModel) activeError() string {
	if m.lastError == "" || time.Since(m.lastErrorAt) > errorDisplayTime {
		return ""
	}
	return m.lastError
}
