package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tinytelemetry/killfeed/internal/dispatch"
	"github.com/tinytelemetry/killfeed/internal/httpserver"
	"github.com/tinytelemetry/killfeed/internal/journal"
	"github.com/tinytelemetry/killfeed/internal/model"
	"github.com/tinytelemetry/killfeed/internal/notify"
	"github.com/tinytelemetry/killfeed/internal/procwatch"
	"github.com/tinytelemetry/killfeed/internal/settings"
	"github.com/tinytelemetry/killfeed/internal/socketrpc"
	"github.com/tinytelemetry/killfeed/internal/status"
	"github.com/tinytelemetry/killfeed/internal/tracker"
	"golang.org/x/sync/errgroup"
)

// runServer starts the headless tracker with its control surfaces.
func runServer(cfg appConfig) error {
	cleanupLogger := configureRuntimeLogger()
	defer cleanupLogger()

	dispatchJournal, err := journal.Open(journal.Config{
		Capacity: cfg.JournalSize,
		Path:     cfg.JournalPath,
	})
	if err != nil {
		return fmt.Errorf("failed to open dispatch journal: %w", err)
	}
	defer dispatchJournal.Close()

	board := status.NewBoard()
	ctrl := tracker.New(buildTrackerConfig(cfg, board, dispatchJournal))
	defer ctrl.Close()

	store := settings.NewStore(cfg.SettingsPath)
	svc := tracker.NewService(ctrl, dispatchJournal, store)

	// Start HTTP API server if enabled
	if cfg.APIEnabled {
		apiServer := httpserver.NewServer(cfg.APIAddr, svc)
		if err := apiServer.Start(); err != nil {
			return fmt.Errorf("failed to start API server: %w", err)
		}
		defer apiServer.Stop()
	}

	// Start socket RPC server for TUI IPC
	sockServer := socketrpc.NewServer(cfg.SocketPath, svc)
	if err := sockServer.Start(); err != nil {
		log.Printf("Warning: failed to start socket server: %v", err)
	} else {
		defer sockServer.Stop()
	}

	// Set up context and signal handling before errgroup
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down gracefully... (press Ctrl+C again to force)")
		cancel()

		// Shutdown deadline starts at the first signal.
		deadline := time.NewTimer(10 * time.Second)
		defer deadline.Stop()

		select {
		case <-sigCh:
			fmt.Println("\nForce shutdown.")
		case <-deadline.C:
			fmt.Println("Shutdown timed out, forcing exit.")
		}
		cleanupSocket(cfg.SocketPath)
		os.Exit(1)
	}()

	printStartupBanner(cfg, store.Path())

	// Mirror status events to the console while running headless.
	events, unsubscribe := board.Subscribe()
	defer unsubscribe()

	// Use errgroup for concurrent goroutine lifecycle management.
	g, gctx := errgroup.WithContext(ctx)

	if cfg.AutoStart {
		g.Go(func() error {
			err := svc.AutoStart(gctx)
			if err != nil && !errors.Is(err, tracker.ErrClosed) {
				log.Printf("server: auto-start: %v", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev := <-events:
				printStatus(ev)
			}
		}
	})

	// Wait for context cancellation (from signal handler) in the errgroup
	g.Go(func() error {
		<-gctx.Done()
		ctrl.Close()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("server: errgroup exited with error: %v", err)
	}

	// If we reach here, graceful shutdown succeeded within the deadline.
	// The signal goroutine (if active) dies with the process.
	signal.Stop(sigCh)

	return nil
}

func buildTrackerConfig(cfg appConfig, board *status.Board, j *journal.Journal) tracker.Config {
	var processes procwatch.Checker = procwatch.System{}
	if cfg.SkipProcessCheck {
		processes = procwatch.Static(true)
	}

	return tracker.Config{
		NewDispatcher: func(token, sessionID string) tracker.Dispatcher {
			return dispatch.New(dispatch.Config{
				BaseURL:    cfg.EndpointURL,
				VerifyPath: cfg.VerifyPath,
				SendPath:   cfg.SendPath,
				Token:      token,
				UserAgent:  "killfeed/" + version,
				SessionID:  sessionID,
				Timeout:    cfg.RequestTimeout,
				Recorder:   j,
			})
		},
		Status:         board,
		Processes:      processes,
		ProcessName:    cfg.ProcessName,
		Notifier:       notify.NewBell(os.Stdout),
		PollInterval:   cfg.PollInterval,
		HealthInterval: cfg.HealthInterval,
	}
}

func cleanupSocket(path string) {
	if path != "" {
		os.Remove(path)
	}
}

func configureRuntimeLogger() func() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	home, err := os.UserHomeDir()
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logDir := filepath.Join(home, ".local", "state", "killfeed")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	logPath := filepath.Join(logDir, "killfeed.log")
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.SetOutput(os.Stderr)
		return func() {}
	}

	log.SetOutput(f)
	return func() {
		_ = f.Close()
	}
}

func printStatus(ev model.StatusEvent) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	if ev.Level == model.LevelError {
		style = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	}
	fmt.Printf("    %s  %s\n", dim.Render(ev.Time.Format("15:04:05")), style.Render(ev.Message))
}

func printStartupBanner(cfg appConfig, settingsPath string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	logo := cyan.Bold(true).Render(`
    ╦╔═╦╦  ╦  ╔═╗╔═╗╔═╗╔╦╗
    ╠╩╗║║  ║  ╠╣ ║╣ ║╣  ║║
    ╩ ╩╩╩═╝╩═╝╚  ╚═╝╚═╝═╩╝`)

	ver := dim.Render("v" + version)

	var lines []string
	lines = append(lines, "")
	lines = append(lines, logo)
	lines = append(lines, "    "+ver)
	lines = append(lines, "")

	separator := dim.Render("    ─────────────────────────────────")
	lines = append(lines, separator)
	lines = append(lines, "")

	// Control
	lines = append(lines, bold.Render("    Control"))
	lines = append(lines, "")

	if cfg.APIEnabled {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render(cfg.APIAddr)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  HTTP API       %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, fmt.Sprintf("    %s  Unix Socket    %s", check, cyan.Render(shortenPath(cfg.SocketPath))))
	lines = append(lines, "")

	// Tracking
	lines = append(lines, bold.Render("    Tracking"))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  Endpoint       %s", check, cyan.Render(cfg.EndpointURL)))
	if cfg.SkipProcessCheck {
		lines = append(lines, fmt.Sprintf("    %s  Process Check  %s", dot, dim.Render("disabled")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Process Check  %s", check, dim.Render(cfg.ProcessName)))
	}
	lines = append(lines, fmt.Sprintf("    %s  Poll / Health  %s", check, dim.Render(cfg.PollInterval.String()+" / "+cfg.HealthInterval.String())))
	if cfg.AutoStart {
		lines = append(lines, fmt.Sprintf("    %s  Auto-start     %s", check, dim.Render("enabled")))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Auto-start     %s", dot, dim.Render("disabled")))
	}
	lines = append(lines, "")

	// Storage
	lines = append(lines, bold.Render("    Storage"))
	lines = append(lines, "")

	lines = append(lines, fmt.Sprintf("    %s  Settings       %s", check, dim.Render(shortenPath(settingsPath))))
	if cfg.JournalPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Journal        %s", check, dim.Render(shortenPath(cfg.JournalPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Journal        %s", dot, dim.Render(fmt.Sprintf("memory only (%d entries)", cfg.JournalSize))))
	}

	lines = append(lines, "")
	lines = append(lines, bold.Render("    Config"))
	lines = append(lines, "")
	if cfg.ConfigPath != "" {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", check, dim.Render(shortenPath(cfg.ConfigPath))))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  Config File    %s", dot, dim.Render("default (no file)")))
	}

	lines = append(lines, "")
	lines = append(lines, separator)
	lines = append(lines, "")
	lines = append(lines, "    "+dim.Render("Press ")+yellow.Render("Ctrl+C")+dim.Render(" to stop"))
	lines = append(lines, "")

	fmt.Println(strings.Join(lines, "\n"))
}

func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
