package tracker

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/tinytelemetry/killfeed/internal/health"
	"github.com/tinytelemetry/killfeed/internal/killparse"
	"github.com/tinytelemetry/killfeed/internal/logsource"
	"github.com/tinytelemetry/killfeed/internal/metrics"
	"github.com/tinytelemetry/killfeed/internal/model"
)

// session is one monitoring run. The tail loop is the only writer of cursor.
type session struct {
	id         string
	logPath    string
	username   string
	playSound  bool
	dispatcher Dispatcher
	tailer     *logsource.FileTailer
	cursor     atomic.Int64

	ctx        context.Context
	cancel     context.CancelFunc
	tailDone   chan struct{}
	healthDone chan struct{}
	stopped    chan struct{}
}

func newSession(parent context.Context, id string, req model.StartRequest, disp Dispatcher, tailer *logsource.FileTailer, cursor int64) *session {
	ctx, cancel := context.WithCancel(parent)
	s := &session{
		id:         id,
		logPath:    req.LogPath,
		username:   req.Username,
		playSound:  req.PlaySound != nil && *req.PlaySound,
		dispatcher: disp,
		tailer:     tailer,
		ctx:        ctx,
		cancel:     cancel,
		tailDone:   make(chan struct{}),
		healthDone: make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	s.cursor.Store(cursor)
	return s
}

func (c *Controller) tailLoop(sess *session) {
	defer close(sess.tailDone)

	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()

	for {
		c.pollOnce(sess)

		timer.Reset(c.cfg.PollInterval)
		select {
		case <-sess.ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// pollOnce reads and handles everything appended since the last poll. Any
// panic is reported and swallowed so the loop keeps running.
func (c *Controller) pollOnce(sess *session) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("tracker: recovered panic in tail loop: %v", r)
			c.cfg.Status.Report(model.LevelError, fmt.Sprintf("Log monitor error: %v", r))
		}
	}()

	if sess.ctx.Err() != nil {
		return
	}

	lines, _, err := sess.tailer.Poll(sess.cursor.Load())
	for _, line := range lines {
		if sess.ctx.Err() != nil {
			return
		}
		// Advance first: a line that panics is skipped, not retried forever.
		sess.cursor.Store(line.End)
		c.handleLine(sess, line.Text)
	}
	if err != nil {
		metrics.TailErrors.Inc()
		log.Printf("tracker: poll %s: %v", sess.logPath, err)
		c.cfg.Status.Report(model.LevelError, "Log monitor error: "+err.Error())
	}
}

func (c *Controller) handleLine(sess *session, text string) {
	c.lines.Add(1)
	metrics.LinesTotal.Inc()

	m, ok := killparse.ParseLine(text)
	if !ok {
		return
	}

	rec, err := killparse.BuildRecord(m, sess.username)
	if err != nil {
		c.skipped.Add(1)
		metrics.KillsTotal.WithLabelValues(metrics.OutcomeSkipped).Inc()
		log.Printf("tracker: skipped kill line: %v", err)
		c.cfg.Status.Report(model.LevelError, "Kill event skipped: missing required field(s).")
		return
	}

	// In-flight sends finish even if the session is cancelled meanwhile.
	start := time.Now()
	sent, msg := sess.dispatcher.Send(context.WithoutCancel(sess.ctx), rec)
	metrics.DispatchDuration.Observe(time.Since(start).Seconds())

	if !sent {
		c.failed.Add(1)
		metrics.KillsTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		c.cfg.Status.Report(model.LevelError, "Error: "+msg)
		return
	}

	c.sent.Add(1)
	metrics.KillsTotal.WithLabelValues(metrics.OutcomeSent).Inc()
	c.cfg.Status.Report(model.LevelInfo, fmt.Sprintf("Kill sent: %s -> %s", rec.Killer, rec.Victim))
	if sess.playSound && c.cfg.Notifier != nil {
		c.cfg.Notifier.Notify()
	}
}

func (c *Controller) runHealth(sess *session) {
	defer close(sess.healthDone)

	m := &health.Monitor{
		Interval: c.cfg.HealthInterval,
		Probe:    sess.dispatcher.VerifyConnection,
		Active:   func() bool { return c.isCurrent(sess) },
		OnSuccess: func(msg string) {
			metrics.HealthChecks.WithLabelValues("ok").Inc()
			c.cfg.Status.Report(model.LevelInfo, "Health check passed: "+msg)
		},
		OnFailure: func(msg string) {
			metrics.HealthChecks.WithLabelValues("failed").Inc()
			log.Printf("tracker: session %s health check failed: %s", sess.id, msg)
			c.cfg.Status.Report(model.LevelError, "Health check failed: "+msg)
			c.stop("Tracking stopped: health check failed: "+msg, sess)
		},
	}
	m.Run(sess.ctx)
}
