package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/killfeed/internal/dispatch"
	"github.com/tinytelemetry/killfeed/internal/journal"
	"github.com/tinytelemetry/killfeed/internal/model"
	"github.com/tinytelemetry/killfeed/internal/procwatch"
	"github.com/tinytelemetry/killfeed/internal/settings"
	"github.com/tinytelemetry/killfeed/internal/status"
)

type collector struct {
	mu      sync.Mutex
	records []model.KillRecord
	auth    []string
}

func (c *collector) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/killtracker/verify", func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.auth = append(c.auth, r.Header.Get("Authorization"))
		c.mu.Unlock()
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/killtracker/kills", func(w http.ResponseWriter, r *http.Request) {
		var rec model.KillRecord
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		c.mu.Lock()
		c.records = append(c.records, rec)
		c.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	return mux
}

func (c *collector) Records() []model.KillRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.KillRecord(nil), c.records...)
}

func newTestService(t *testing.T, srv *httptest.Server) (*Service, *journal.Journal, *settings.Store) {
	t.Helper()

	j := journal.New(16)
	store := settings.NewStore(filepath.Join(t.TempDir(), "user_settings.json"))
	ctrl := New(Config{
		NewDispatcher: func(token, sessionID string) Dispatcher {
			return dispatch.New(dispatch.Config{
				BaseURL:   srv.URL,
				Token:     token,
				SessionID: sessionID,
				UserAgent: "killfeed/test",
				Recorder:  j,
			})
		},
		Status:         status.NewBoard(),
		Processes:      procwatch.Static(true),
		PollInterval:   5 * time.Millisecond,
		HealthInterval: time.Hour,
	})
	t.Cleanup(ctrl.Close)
	return NewService(ctrl, j, store), j, store
}

func TestService_EndToEnd(t *testing.T) {
	t.Parallel()

	col := &collector{}
	srv := httptest.NewServer(col.handler())
	defer srv.Close()

	svc, _, store := newTestService(t, srv)
	logPath := filepath.Join(t.TempDir(), "Game.log")
	if err := os.WriteFile(logPath, []byte(killLine+"\n"), 0644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	err := svc.StartSession(context.Background(), model.StartRequest{LogPath: logPath, Username: "tester", Token: "secret"})
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	f.WriteString(killLineFor("Alpha", "Bravo") + "\n")
	f.Close()

	waitFor(t, "record at collector", func() bool { return len(col.Records()) == 1 })
	if got := col.Records()[0]; got.Killer != "Alpha" || got.Victim != "Bravo" {
		t.Fatalf("record = %+v", got)
	}
	col.mu.Lock()
	auth := col.auth[0]
	col.mu.Unlock()
	if auth != "Bearer secret" {
		t.Fatalf("Authorization = %q, want %q", auth, "Bearer secret")
	}

	entries, err := svc.RecentDispatches(10)
	if err != nil {
		t.Fatalf("RecentDispatches: %v", err)
	}
	if len(entries) != 2 || entries[0].Op != "verify" || entries[1].Op != "send" {
		t.Fatalf("journal = %+v, want verify then send", entries)
	}
	snap, _ := svc.Snapshot()
	if entries[1].SessionID != snap.SessionID || !entries[1].OK {
		t.Fatalf("send entry = %+v, session %q", entries[1], snap.SessionID)
	}

	saved := store.Load()
	if saved.GameLogPath != logPath || saved.Username != "tester" || saved.Token != "secret" {
		t.Fatalf("saved settings = %+v", saved)
	}
	// PlaySound was unset, so the saved default carries over.
	if !saved.PlayKillSound || !snap.PlaySound {
		t.Fatalf("play sound saved=%v snapshot=%v, want true", saved.PlayKillSound, snap.PlaySound)
	}

	stopped, _ := svc.StopSession()
	if !stopped {
		t.Fatal("StopSession = false, want true")
	}
	if stopped, _ := svc.StopSession(); stopped {
		t.Fatal("second StopSession = true, want false")
	}
}

func TestService_StartFillsBlanksFromSettings(t *testing.T) {
	t.Parallel()

	col := &collector{}
	srv := httptest.NewServer(col.handler())
	defer srv.Close()

	svc, _, store := newTestService(t, srv)
	logPath := filepath.Join(t.TempDir(), "Game.log")
	os.WriteFile(logPath, nil, 0644)
	if err := store.Save(settings.UserSettings{GameLogPath: logPath, Username: "saved", Token: "saved-token"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := svc.StartSession(context.Background(), model.StartRequest{Username: "typed"}); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	snap, _ := svc.Snapshot()
	if snap.LogPath != logPath || snap.Username != "typed" {
		t.Fatalf("snapshot = %+v", snap)
	}
	if snap.PlaySound {
		t.Fatal("PlaySound = true, want saved false")
	}
	if got := store.Load().Username; got != "typed" {
		t.Fatalf("saved username = %q, want typed", got)
	}
}

func TestService_AutoStart(t *testing.T) {
	t.Parallel()

	col := &collector{}
	srv := httptest.NewServer(col.handler())
	defer srv.Close()

	svc, _, store := newTestService(t, srv)
	if err := svc.AutoStart(context.Background()); !errors.Is(err, ErrMissingField) {
		t.Fatalf("AutoStart with empty settings = %v, want ErrMissingField", err)
	}
	snap, _ := svc.Snapshot()
	if snap.Status.Message != "Auto-start skipped: Please fill in all fields and restart the application." {
		t.Fatalf("status = %q", snap.Status.Message)
	}

	store.Save(settings.UserSettings{GameLogPath: filepath.Join(t.TempDir(), "missing.log"), Username: "u", Token: "t"})
	if err := svc.AutoStart(context.Background()); !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("AutoStart with missing log = %v, want ErrLogNotFound", err)
	}
	snap, _ = svc.Snapshot()
	if snap.Status.Message != "Auto-start skipped: missing.log file not found." {
		t.Fatalf("status = %q", snap.Status.Message)
	}

	logPath := filepath.Join(t.TempDir(), "Game.log")
	os.WriteFile(logPath, nil, 0644)
	store.Save(settings.UserSettings{GameLogPath: logPath, Username: "u", Token: "t"})
	if err := svc.AutoStart(context.Background()); err != nil {
		t.Fatalf("AutoStart: %v", err)
	}
	if snap, _ := svc.Snapshot(); snap.State != model.StateMonitoring {
		t.Fatalf("state = %s, want monitoring", snap.State)
	}
}
