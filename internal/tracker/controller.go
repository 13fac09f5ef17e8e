package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinytelemetry/killfeed/internal/logsource"
	"github.com/tinytelemetry/killfeed/internal/metrics"
	"github.com/tinytelemetry/killfeed/internal/model"
	"github.com/tinytelemetry/killfeed/internal/notify"
	"github.com/tinytelemetry/killfeed/internal/procwatch"
)

// Dispatcher is the endpoint contract used by a session.
type Dispatcher interface {
	VerifyConnection(ctx context.Context) (bool, string)
	Send(ctx context.Context, rec model.KillRecord) (bool, string)
}

// DispatcherFactory builds the dispatcher for one session. Each session gets
// a fresh one so credentials are never shared across sessions.
type DispatcherFactory func(token, sessionID string) Dispatcher

// StatusSink receives human-readable status events; status.Board implements it.
type StatusSink interface {
	Report(level model.StatusLevel, msg string)
	Latest() model.StatusEvent
}

// Config wires the controller's collaborators.
type Config struct {
	NewDispatcher  DispatcherFactory
	Status         StatusSink
	Processes      procwatch.Checker
	ProcessName    string
	Notifier       notify.Notifier
	PollInterval   time.Duration
	HealthInterval time.Duration
}

// Controller owns the tracking state machine. At most one session is active;
// every transition goes through the controller under mu.
type Controller struct {
	cfg Config

	root       context.Context
	cancelRoot context.CancelFunc

	// startMu serializes Start so only one connection attempt runs at a time.
	startMu sync.Mutex

	mu            sync.Mutex
	state         model.SessionState
	session       *session
	draining      *session
	connectCancel context.CancelFunc
	closed        bool

	lines   atomic.Int64
	sent    atomic.Int64
	failed  atomic.Int64
	skipped atomic.Int64
}

// New creates an idle controller.
func New(cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = model.DefaultPollInterval
	}
	if cfg.HealthInterval <= 0 {
		cfg.HealthInterval = model.DefaultHealthInterval
	}
	if cfg.ProcessName == "" {
		cfg.ProcessName = model.DefaultProcessName
	}
	if cfg.Processes == nil {
		cfg.Processes = procwatch.System{}
	}
	if cfg.Status == nil {
		cfg.Status = discardStatus{}
	}
	root, cancel := context.WithCancel(context.Background())
	return &Controller{
		cfg:        cfg,
		root:       root,
		cancelRoot: cancel,
		state:      model.StateIdle,
	}
}

// State returns the current state.
func (c *Controller) State() model.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the controller state for status surfaces.
func (c *Controller) Snapshot() model.Snapshot {
	c.mu.Lock()
	snap := model.Snapshot{State: c.state}
	if s := c.session; s != nil {
		snap.SessionID = s.id
		snap.LogPath = s.logPath
		snap.Username = s.username
		snap.PlaySound = s.playSound
		snap.Cursor = s.cursor.Load()
	}
	c.mu.Unlock()

	snap.Status = c.cfg.Status.Latest()
	snap.Counters = model.Counters{
		Lines:   c.lines.Load(),
		Sent:    c.sent.Load(),
		Failed:  c.failed.Load(),
		Skipped: c.skipped.Load(),
	}
	return snap
}

// Start begins a session. A running session is stopped and fully drained
// before the new connection attempt.
func (c *Controller) Start(ctx context.Context, req model.StartRequest) error {
	return c.start(ctx, req, "", "")
}

// AutoStart is Start with status messages marked as coming from launch.
func (c *Controller) AutoStart(ctx context.Context, req model.StartRequest) error {
	return c.start(ctx, req, "Auto-start skipped: ", "Auto-start failed: ")
}

func (c *Controller) start(ctx context.Context, req model.StartRequest, skipPrefix, failPrefix string) error {
	c.startMu.Lock()
	defer c.startMu.Unlock()

	if c.isClosed() {
		return ErrClosed
	}

	req.LogPath = strings.TrimSpace(req.LogPath)
	req.Username = strings.TrimSpace(req.Username)
	req.Token = strings.TrimSpace(req.Token)
	if msg, err := c.checkPreconditions(req); err != nil {
		c.cfg.Status.Report(model.LevelError, skipPrefix+msg)
		return err
	}

	c.stop("Tracking stopped: starting a new session.", nil)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	connectCtx, cancel := context.WithCancel(c.root)
	defer cancel()
	c.state = model.StateConnecting
	c.connectCancel = cancel
	c.mu.Unlock()

	// Abandon the attempt if the caller goes away.
	release := context.AfterFunc(ctx, cancel)
	defer release()

	id := uuid.NewString()
	disp := c.cfg.NewDispatcher(req.Token, id)
	c.cfg.Status.Report(model.LevelInfo, "Testing server connection...")
	ok, msg := disp.VerifyConnection(connectCtx)

	tailer := logsource.NewFileTailer(req.LogPath)
	var cursor int64
	var openErr error
	if ok && connectCtx.Err() == nil {
		cursor, openErr = tailer.Open()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.connectCancel = nil

	switch {
	case c.closed:
		c.state = model.StateIdle
		return ErrClosed
	case connectCtx.Err() != nil:
		c.state = model.StateIdle
		c.cfg.Status.Report(model.LevelError, failPrefix+"Connection attempt cancelled.")
		return fmt.Errorf("%w: %v", ErrConnection, connectCtx.Err())
	case !ok:
		c.state = model.StateIdle
		c.cfg.Status.Report(model.LevelError, failPrefix+"Server connection failed: "+msg)
		return fmt.Errorf("%w: %s", ErrConnection, msg)
	case openErr != nil:
		c.state = model.StateIdle
		c.cfg.Status.Report(model.LevelError, failPrefix+"Log monitor error: "+openErr.Error())
		return fmt.Errorf("%w: %v", ErrLogNotFound, openErr)
	}

	sess := newSession(c.root, id, req, disp, tailer, cursor)
	c.session = sess
	c.state = model.StateMonitoring
	metrics.SessionsStarted.Inc()
	metrics.SessionActive.Set(1)
	log.Printf("tracker: session %s monitoring %s from offset %d", id, req.LogPath, cursor)
	c.cfg.Status.Report(model.LevelInfo, "Connected! Monitoring log...")

	go c.tailLoop(sess)
	go c.runHealth(sess)
	return nil
}

func (c *Controller) checkPreconditions(req model.StartRequest) (string, error) {
	if req.LogPath == "" || req.Username == "" || req.Token == "" {
		return "Please fill in all fields.", ErrMissingField
	}
	info, err := os.Stat(req.LogPath)
	if err != nil || info.IsDir() {
		return fmt.Sprintf("%s file not found.", filepath.Base(req.LogPath)), ErrLogNotFound
	}
	running, err := c.cfg.Processes.Running(c.cfg.ProcessName)
	if err != nil {
		log.Printf("tracker: process check failed: %v", err)
	}
	if !running {
		return fmt.Sprintf("%s is not running.", c.cfg.ProcessName), ErrProcessNotRunning
	}
	return "", nil
}

// Stop ends the active session, or cancels a connection attempt in progress.
// It returns once the tail loop and health monitor have exited, and reports
// whether there was anything to stop.
func (c *Controller) Stop() bool {
	return c.stop("Tracking stopped.", nil)
}

// stop retires the current session. When only is set, the call comes from
// that session's health monitor: it is a no-op if only is no longer current,
// and it does not wait for the monitor goroutine that is making the call.
func (c *Controller) stop(reason string, only *session) bool {
	c.mu.Lock()
	cancelled := false
	if only == nil && c.connectCancel != nil {
		c.connectCancel()
		cancelled = true
	}
	sess := c.session
	if sess == nil || (only != nil && sess != only) {
		draining := c.draining
		c.mu.Unlock()
		if only == nil && draining != nil {
			<-draining.stopped
		}
		return cancelled
	}
	c.session = nil
	c.draining = sess
	c.state = model.StateStopping
	c.mu.Unlock()

	sess.cancel()
	<-sess.tailDone
	if only == nil {
		<-sess.healthDone
	}

	c.mu.Lock()
	if c.draining == sess {
		c.draining = nil
	}
	if c.state == model.StateStopping {
		c.state = model.StateIdle
	}
	metrics.SessionActive.Set(0)
	log.Printf("tracker: session %s stopped at offset %d", sess.id, sess.cursor.Load())
	c.cfg.Status.Report(model.LevelInfo, reason)
	c.mu.Unlock()

	close(sess.stopped)
	return true
}

// Close stops any session and rejects further starts.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.stop("Tracking stopped: application exiting.", nil)
	c.cancelRoot()
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) isCurrent(sess *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session == sess && c.state == model.StateMonitoring
}

// IsPrecondition reports whether err kept a session from starting before any
// network traffic.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrMissingField) || errors.Is(err, ErrLogNotFound) || errors.Is(err, ErrProcessNotRunning)
}

type discardStatus struct{}

func (discardStatus) Report(model.StatusLevel, string) {}
func (discardStatus) Latest() model.StatusEvent        { return model.StatusEvent{} }
