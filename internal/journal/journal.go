package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/tinytelemetry/killfeed/internal/model"
)

const (
	defaultFileMode = 0644
	defaultDirMode  = 0755

	// DefaultCapacity is the number of entries kept in memory.
	DefaultCapacity = model.DefaultJournalSize

	// maxResponseBytes bounds the raw response kept per entry.
	maxResponseBytes = 512
)

// Config holds journal parameters.
type Config struct {
	Capacity int
	Path     string // optional JSON-lines mirror; empty disables it
}

// Journal records every dispatcher call and its outcome for later inspection.
// It keeps a bounded ring in memory and optionally appends one JSON entry per
// line to a file. Appends are safe from multiple goroutines; each entry is
// written with a single Write call under the lock.
type Journal struct {
	mu      sync.Mutex
	entries []model.DispatchEntry
	start   int
	count   int
	file    *os.File
}

// Open creates a journal. The file mirror is created when cfg.Path is set.
func Open(cfg Config) (*Journal, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	j := &Journal{entries: make([]model.DispatchEntry, capacity)}

	if strings.TrimSpace(cfg.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), defaultDirMode); err != nil {
			return nil, fmt.Errorf("journal: mkdir: %w", err)
		}
		f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, defaultFileMode)
		if err != nil {
			return nil, fmt.Errorf("journal: open: %w", err)
		}
		j.file = f
	}
	return j, nil
}

// New returns an in-memory journal with the given capacity.
func New(capacity int) *Journal {
	j, _ := Open(Config{Capacity: capacity})
	return j
}

// Append records one entry. File write failures are returned but the entry is
// still kept in memory.
func (j *Journal) Append(e model.DispatchEntry) error {
	e.Response = truncateUTF8(e.Response, maxResponseBytes)

	j.mu.Lock()
	defer j.mu.Unlock()

	idx := (j.start + j.count) % len(j.entries)
	if j.count == len(j.entries) {
		j.entries[j.start] = e
		j.start = (j.start + 1) % len(j.entries)
	} else {
		j.entries[idx] = e
		j.count++
	}

	if j.file == nil {
		return nil
	}
	line, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("journal: marshal entry: %w", err)
	}
	line = append(line, '\n')
	if _, err := j.file.Write(line); err != nil {
		return fmt.Errorf("journal: write entry: %w", err)
	}
	return nil
}

// Recent returns up to limit of the newest entries, oldest first.
// A non-positive limit returns everything retained.
func (j *Journal) Recent(limit int) []model.DispatchEntry {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := j.count
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.DispatchEntry, 0, n)
	for i := j.count - n; i < j.count; i++ {
		out = append(out, j.entries[(j.start+i)%len(j.entries)])
	}
	return out
}

// Len returns the number of retained entries.
func (j *Journal) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.count
}

// Close closes the file mirror, if any.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.file == nil {
		return nil
	}
	err := j.file.Close()
	j.file = nil
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return err
	}
	return nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
