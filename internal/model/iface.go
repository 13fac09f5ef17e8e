package model

import "context"

// ControlAPI is the control and status contract shared by the HTTP API,
// the socket RPC server and the TUI client.
type ControlAPI interface {
	Snapshot() (Snapshot, error)
	StartSession(ctx context.Context, req StartRequest) error
	StopSession() (bool, error)
	RecentDispatches(limit int) ([]DispatchEntry, error)
}
