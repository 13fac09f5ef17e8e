package status

import (
	"log"
	"sync"
	"time"

	"github.com/tinytelemetry/killfeed/internal/model"
)

// Board holds the latest status event and fans it out to subscribers.
// Subscribers see only the newest event; slow readers skip intermediate ones.
type Board struct {
	mu     sync.Mutex
	latest model.StatusEvent
	subs   map[chan model.StatusEvent]struct{}
	now    func() time.Time
}

// NewBoard creates an empty board.
func NewBoard() *Board {
	return &Board{
		subs: make(map[chan model.StatusEvent]struct{}),
		now:  time.Now,
	}
}

// Report replaces the current status.
func (b *Board) Report(level model.StatusLevel, msg string) {
	evt := model.StatusEvent{Time: b.now(), Level: level, Message: msg}
	log.Printf("status: [%s] %s", level, msg)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = evt
	for ch := range b.subs {
		// Replace whatever is pending so the reader always gets the latest.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- evt:
		default:
		}
	}
}

// Latest returns the most recent status.
func (b *Board) Latest() model.StatusEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.latest
}

// Subscribe returns a channel that always holds at most the newest event, and
// a cancel func that removes and closes it.
func (b *Board) Subscribe() (<-chan model.StatusEvent, func()) {
	ch := make(chan model.StatusEvent, 1)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}
