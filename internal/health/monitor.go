package health

import (
	"context"
	"time"
)

// Probe checks the remote endpoint once.
type Probe func(ctx context.Context) (bool, string)

// Monitor runs a probe on a fixed period. Probes never overlap: a slow probe
// causes missed ticks to be dropped rather than queued.
type Monitor struct {
	Interval time.Duration
	Probe    Probe

	// Active is consulted before every probe; a false result skips the tick.
	Active func() bool
	// OnSuccess and OnFailure receive the probe message. After OnFailure the
	// monitor stops.
	OnSuccess func(msg string)
	OnFailure func(msg string)
}

// Run blocks until ctx is cancelled or a probe fails.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.tick(ctx) {
				return
			}
		}
	}
}

// tick returns false when the monitor should stop.
func (m *Monitor) tick(ctx context.Context) bool {
	if m.Active != nil && !m.Active() {
		return true
	}
	ok, msg := m.Probe(ctx)
	if ctx.Err() != nil {
		// The session ended while the probe was in flight.
		return false
	}
	if ok {
		if m.OnSuccess != nil {
			m.OnSuccess(msg)
		}
		return true
	}
	if m.OnFailure != nil {
		m.OnFailure(msg)
	}
	return false
}
