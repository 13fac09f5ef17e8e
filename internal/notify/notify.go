package notify

import (
	"io"
	"log"
	"sync"
)

// Notifier plays the kill notification.
type Notifier interface {
	Notify()
}

// Bell rings the terminal bell on W.
type Bell struct {
	mu sync.Mutex
	W  io.Writer
}

// NewBell creates a bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{W: w}
}

func (b *Bell) Notify() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.W == nil {
		return
	}
	if _, err := b.W.Write([]byte{'\a'}); err != nil {
		log.Printf("notify: bell write failed: %v", err)
	}
}

// Func adapts a function to Notifier.
type Func func()

func (f Func) Notify() { f() }
