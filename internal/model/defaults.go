package model

import "time"

// Shared defaults used by both the service and TUI binaries.
const (
	DefaultPollInterval   = 1 * time.Second
	DefaultHealthInterval = 2 * time.Minute
	DefaultUpdateInterval = 1 * time.Second
	DefaultEventID        = "default-event"
	DefaultProcessName    = "starcitizen"
	DefaultJournalSize    = 500
)
