package model

import "time"

// KillRecord is one kill event ready for dispatch. Field names are the wire schema.
type KillRecord struct {
	Killer    string `json:"Killer"`
	Victim    string `json:"Victim"`
	Weapon    string `json:"Weapon"`
	Location  string `json:"Location"`
	Timestamp string `json:"Timestamp"`
	EventId   string `json:"EventId"`
	Details   string `json:"Details"`
}

// RawMatch holds the positional captures of a kill line before validation.
type RawMatch struct {
	Timestamp  string
	Victim     string
	Zone       string
	Killer     string
	Weapon     string
	DamageType string
}

// SessionState is the tracking controller state.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateConnecting SessionState = "connecting"
	StateMonitoring SessionState = "monitoring"
	StateStopping   SessionState = "stopping"
)

// StatusLevel classifies a status event.
type StatusLevel string

const (
	LevelInfo  StatusLevel = "info"
	LevelError StatusLevel = "error"
)

// StatusEvent is one human-readable status message. Only the latest one matters.
type StatusEvent struct {
	Time    time.Time   `json:"time"`
	Level   StatusLevel `json:"level"`
	Message string      `json:"message"`
}

// Counters tracks per-process pipeline outcomes.
type Counters struct {
	Lines   int64 `json:"lines"`
	Sent    int64 `json:"sent"`
	Failed  int64 `json:"failed"`
	Skipped int64 `json:"skipped"`
}

// Snapshot is a point-in-time view of the controller for status surfaces.
type Snapshot struct {
	State     SessionState `json:"state"`
	SessionID string       `json:"session_id,omitempty"`
	LogPath   string       `json:"log_path,omitempty"`
	Username  string       `json:"username,omitempty"`
	Cursor    int64        `json:"cursor"`
	PlaySound bool         `json:"play_sound"`
	Status    StatusEvent  `json:"status"`
	Counters  Counters     `json:"counters"`
}

// StartRequest carries the values the UI collaborator supplies at session start.
// A nil PlaySound means "use the saved preference".
type StartRequest struct {
	LogPath   string `json:"log_path"`
	Username  string `json:"username"`
	Token     string `json:"token"`
	PlaySound *bool  `json:"play_sound,omitempty"`
}

// DispatchEntry is one dispatcher call recorded in the observability journal.
type DispatchEntry struct {
	Time       time.Time `json:"time"`
	SessionID  string    `json:"session_id,omitempty"`
	Op         string    `json:"op"` // "verify", "send"
	OK         bool      `json:"ok"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	Response   string    `json:"response,omitempty"`
}
