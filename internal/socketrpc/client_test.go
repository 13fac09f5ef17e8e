package socketrpc_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tinytelemetry/killfeed/internal/model"
	"github.com/tinytelemetry/killfeed/internal/socketrpc"
	"github.com/tinytelemetry/killfeed/internal/tracker"
)

// mockAPI is a minimal ControlAPI for roundtrip testing.
type mockAPI struct {
	mu      sync.Mutex
	state   model.SessionState
	req     model.StartRequest
	startFn func(context.Context) error
}

func (m *mockAPI) Snapshot() (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return model.Snapshot{
		State:    m.state,
		LogPath:  m.req.LogPath,
		Username: m.req.Username,
		Counters: model.Counters{Sent: 4, Skipped: 1},
		Status:   model.StatusEvent{Level: model.LevelInfo, Message: "Connected! Monitoring log..."},
	}, nil
}

func (m *mockAPI) StartSession(ctx context.Context, req model.StartRequest) error {
	if m.startFn != nil {
		if err := m.startFn(ctx); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.req = req
	m.state = model.StateMonitoring
	return nil
}

func (m *mockAPI) StopSession() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	was := m.state == model.StateMonitoring
	m.state = model.StateIdle
	return was, nil
}

func (m *mockAPI) RecentDispatches(limit int) ([]model.DispatchEntry, error) {
	out := []model.DispatchEntry{
		{Time: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), Op: "verify", OK: true, StatusCode: 200, Message: "OK"},
		{Time: time.Date(2025, 1, 1, 12, 0, 1, 0, time.UTC), Op: "send", OK: false, StatusCode: 500, Message: "HTTP 500"},
	}
	if limit < len(out) {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func startTestServer(t *testing.T, api model.ControlAPI) (string, *socketrpc.Server) {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "test.sock")
	srv := socketrpc.NewServer(sockPath, api)
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	return sockPath, srv
}

func TestRoundtrip(t *testing.T) {
	api := &mockAPI{state: model.StateIdle}
	sockPath, srv := startTestServer(t, api)
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	t.Run("Snapshot", func(t *testing.T) {
		snap, err := client.Snapshot()
		if err != nil {
			t.Fatal(err)
		}
		if snap.State != model.StateIdle || snap.Counters.Sent != 4 {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
		if snap.Status.Message != "Connected! Monitoring log..." {
			t.Fatalf("status = %q", snap.Status.Message)
		}
	})

	t.Run("StartSession", func(t *testing.T) {
		sound := false
		err := client.StartSession(context.Background(), model.StartRequest{
			LogPath: "/games/Game.log", Username: "pilot", Token: "t", PlaySound: &sound,
		})
		if err != nil {
			t.Fatal(err)
		}
		snap, _ := client.Snapshot()
		if snap.State != model.StateMonitoring || snap.LogPath != "/games/Game.log" || snap.Username != "pilot" {
			t.Fatalf("unexpected snapshot: %+v", snap)
		}
		api.mu.Lock()
		got := api.req.PlaySound
		api.mu.Unlock()
		if got == nil || *got {
			t.Fatalf("play sound = %v, want explicit false", got)
		}
	})

	t.Run("RecentDispatches", func(t *testing.T) {
		entries, err := client.RecentDispatches(1)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Op != "send" || entries[0].StatusCode != 500 {
			t.Fatalf("unexpected entries: %+v", entries)
		}
	})

	t.Run("StopSession", func(t *testing.T) {
		stopped, err := client.StopSession()
		if err != nil {
			t.Fatal(err)
		}
		if !stopped {
			t.Fatal("stopped = false, want true")
		}
		stopped, _ = client.StopSession()
		if stopped {
			t.Fatal("second stop = true, want false")
		}
	})
}

func TestStartSessionError(t *testing.T) {
	api := &mockAPI{startFn: func(context.Context) error { return tracker.ErrProcessNotRunning }}
	sockPath, srv := startTestServer(t, api)
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	err = client.StartSession(context.Background(), model.StartRequest{})
	var rpcErr *socketrpc.RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("error = %v, want *RPCError", err)
	}
	if rpcErr.Code != socketrpc.CodePrecondition {
		t.Fatalf("code = %d, want %d", rpcErr.Code, socketrpc.CodePrecondition)
	}
}

func TestStartSessionCallerTimeout(t *testing.T) {
	release := make(chan struct{})
	api := &mockAPI{startFn: func(context.Context) error {
		<-release
		return nil
	}}
	sockPath, srv := startTestServer(t, api)
	defer func() {
		close(release)
		srv.Stop()
	}()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if err := client.StartSession(ctx, model.StartRequest{}); err == nil {
		t.Fatal("expected error when caller context expires")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("StartSession took %v after caller timeout", elapsed)
	}
}

func TestCallAfterTimeoutRedials(t *testing.T) {
	api := &mockAPI{startFn: func(context.Context) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	}}
	sockPath, srv := startTestServer(t, api)
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := client.StartSession(ctx, model.StartRequest{}); err == nil {
		t.Fatal("expected error when caller context expires")
	}

	if _, err := client.StopSession(); err != nil {
		t.Fatalf("StopSession after timeout: %v", err)
	}
	snap, err := client.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot after timeout: %v", err)
	}
	if snap.Counters.Sent != 4 {
		t.Fatalf("snapshot = %+v", snap)
	}
	entries, err := client.RecentDispatches(2)
	if err != nil {
		t.Fatalf("RecentDispatches after timeout: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
}

func TestCallRedialsAfterServerRestart(t *testing.T) {
	sockPath, srv := startTestServer(t, &mockAPI{})
	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	srv.Stop()
	if _, err := client.Snapshot(); err == nil {
		t.Fatal("expected Snapshot to fail while server is down")
	}

	restarted := socketrpc.NewServer(sockPath, &mockAPI{state: model.StateIdle})
	if err := restarted.Start(); err != nil {
		t.Fatalf("restart server: %v", err)
	}
	defer restarted.Stop()

	snap, err := client.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot after restart: %v", err)
	}
	if snap.State != model.StateIdle {
		t.Fatalf("state = %q, want %q", snap.State, model.StateIdle)
	}
}

func TestCallAfterCloseFails(t *testing.T) {
	sockPath, srv := startTestServer(t, &mockAPI{})
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	client.Close()
	if _, err := client.Snapshot(); err == nil {
		t.Fatal("expected Snapshot to fail after Close")
	}
}

func TestDialFailure(t *testing.T) {
	_, err := socketrpc.Dial(filepath.Join(t.TempDir(), "nonexistent.sock"))
	if err == nil {
		t.Fatal("expected error dialing nonexistent socket")
	}
}

func TestServerStopCleansSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "cleanup.sock")
	srv := socketrpc.NewServer(sockPath, &mockAPI{})
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv.Stop()

	// Socket file should be removed.
	if _, err := socketrpc.Dial(sockPath); err == nil {
		t.Fatal("expected dial to fail after server stop")
	}
}

func TestSecondServerRefused(t *testing.T) {
	sockPath, srv := startTestServer(t, &mockAPI{})
	defer srv.Stop()

	other := socketrpc.NewServer(sockPath, &mockAPI{})
	if err := other.Start(); err == nil {
		other.Stop()
		t.Fatal("expected second server on the same socket to fail")
	}
}

func TestStopIdempotent(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "idempotent.sock")
	srv := socketrpc.NewServer(sockPath, &mockAPI{})
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	srv.Stop()
	srv.Stop()
}

func TestStopClosesConns(t *testing.T) {
	sockPath, srv := startTestServer(t, &mockAPI{})
	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Snapshot(); err != nil {
		t.Fatalf("Snapshot before stop: %v", err)
	}
	srv.Stop()

	done := make(chan error, 1)
	go func() {
		_, callErr := client.Snapshot()
		done <- callErr
	}()

	select {
	case callErr := <-done:
		if callErr == nil {
			t.Fatal("expected client call to fail after server stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client call hung after server stop")
	}
}
