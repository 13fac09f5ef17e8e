package tracker

import "errors"

var (
	// ErrMissingField means the log path, username or token was blank.
	ErrMissingField = errors.New("tracker: missing required setting")
	// ErrLogNotFound means the game log could not be found or opened.
	ErrLogNotFound = errors.New("tracker: game log not found")
	// ErrProcessNotRunning means the game process was not observed.
	ErrProcessNotRunning = errors.New("tracker: game process not running")
	// ErrConnection means the endpoint verification failed or was cancelled.
	ErrConnection = errors.New("tracker: server connection failed")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("tracker: controller closed")
)
