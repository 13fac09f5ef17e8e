package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/tinytelemetry/killfeed/internal/model"
)

func TestJournal_RingKeepsNewest(t *testing.T) {
	t.Parallel()

	j := New(3)
	for i := 0; i < 5; i++ {
		if err := j.Append(model.DispatchEntry{Op: "send", Message: fmt.Sprintf("m%d", i)}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if j.Len() != 3 {
		t.Fatalf("Len = %d, want 3", j.Len())
	}
	got := j.Recent(0)
	var msgs []string
	for _, e := range got {
		msgs = append(msgs, e.Message)
	}
	if strings.Join(msgs, ",") != "m2,m3,m4" {
		t.Fatalf("Recent = %v, want [m2 m3 m4]", msgs)
	}

	last := j.Recent(1)
	if len(last) != 1 || last[0].Message != "m4" {
		t.Fatalf("Recent(1) = %+v, want m4", last)
	}
}

func TestJournal_TruncatesResponse(t *testing.T) {
	t.Parallel()

	j := New(1)
	_ = j.Append(model.DispatchEntry{Response: strings.Repeat("r", 2000)})
	if got := len(j.Recent(1)[0].Response); got != maxResponseBytes {
		t.Fatalf("response len = %d, want %d", got, maxResponseBytes)
	}
}

func TestJournal_TruncatesOnRuneBoundary(t *testing.T) {
	t.Parallel()

	j := New(1)
	// The two-byte rune straddles the limit.
	_ = j.Append(model.DispatchEntry{Response: strings.Repeat("r", maxResponseBytes-1) + "é" + "tail"})
	got := j.Recent(1)[0].Response
	if !utf8.ValidString(got) {
		t.Fatalf("response is not valid UTF-8: %q", got[len(got)-4:])
	}
	if len(got) != maxResponseBytes-1 {
		t.Fatalf("response len = %d, want %d", len(got), maxResponseBytes-1)
	}
}

func TestJournal_ConcurrentAppendsToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dispatch.jsonl")
	j, err := Open(Config{Capacity: 1000, Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = j.Append(model.DispatchEntry{Op: "send", Message: fmt.Sprintf("w%d-%d", w, i), Response: strings.Repeat("x", 100)})
			}
		}(w)
	}
	wg.Wait()
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open journal file: %v", err)
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e model.DispatchEntry
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("line %d is not a whole entry: %v", count, err)
		}
		count++
	}
	if count != 200 {
		t.Fatalf("file entries = %d, want 200", count)
	}
	if j.Len() != 200 {
		t.Fatalf("Len = %d, want 200", j.Len())
	}
}
