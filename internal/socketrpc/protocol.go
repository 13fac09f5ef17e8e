package socketrpc

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// JSON-RPC 2.0 Method Reference
//
// The socket RPC server exposes model.ControlAPI over a Unix domain socket.
// Each method maps 1:1 to the ControlAPI interface.
//
//   Method              Params                        Result
//   ────────────────    ──────────────────────────    ─────────────────────
//   Snapshot            (none)                        Snapshot
//   StartSession        {Request: StartRequest}       Snapshot
//   StopSession         (none)                        bool
//   RecentDispatches    {Limit: int}                  []DispatchEntry
//
// Methods without params accept empty or null params.
//
// Error codes follow JSON-RPC 2.0:
//   -32700  Parse error (malformed JSON)
//   -32601  Method not found
//   -32602  Invalid params
//   -32603  Internal error (marshal failure)
//   -32000  Application error
//   -32001  Start precondition failed (missing field, log, or game process)
//   -32002  Server connection failed
//   -32003  Tracker closed

const (
	CodeParseError     = -32700
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeApplication    = -32000
	CodePrecondition   = -32001
	CodeConnection     = -32002
	CodeClosed         = -32003
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC 2.0 error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

// DefaultSocketPath returns the default Unix socket path.
// It prefers $XDG_RUNTIME_DIR/killfeed/killfeed.sock, falling back to
// ~/.local/state/killfeed/killfeed.sock.
func DefaultSocketPath() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, "killfeed", "killfeed.sock")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/killfeed.sock"
	}
	return filepath.Join(home, ".local", "state", "killfeed", "killfeed.sock")
}
