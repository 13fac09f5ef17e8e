package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultFileMode = 0600
	defaultDirMode  = 0755
	fileName        = "user_settings.json"
)

// UserSettings are the values the tracker needs to start a session.
type UserSettings struct {
	GameLogPath   string `json:"GameLogPath"`
	Username      string `json:"Username"`
	Token         string `json:"Token"`
	PlayKillSound bool   `json:"PlayKillSound"`
}

// Defaults returns settings for a first run.
func Defaults() UserSettings {
	return UserSettings{PlayKillSound: true}
}

// Complete reports whether every field needed to start a session is set.
func (s UserSettings) Complete() bool {
	return strings.TrimSpace(s.GameLogPath) != "" &&
		strings.TrimSpace(s.Username) != "" &&
		strings.TrimSpace(s.Token) != ""
}

// DefaultPath returns the per-user settings file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return fileName
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "killfeed", fileName)
}

// Store reads and writes the settings file.
type Store struct {
	path string
}

// NewStore creates a store for path; empty uses DefaultPath.
func NewStore(path string) *Store {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	return &Store{path: path}
}

// Path returns the settings file location.
func (s *Store) Path() string { return s.path }

// Load returns the saved settings. A missing or unreadable file yields
// defaults; unreadable files are logged.
func (s *Store) Load() UserSettings {
	out := Defaults()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("settings: read %s: %v", s.path, err)
		}
		return out
	}
	if err := json.Unmarshal(data, &out); err != nil {
		log.Printf("settings: parse %s: %v", s.path, err)
		return Defaults()
	}
	return out
}

// Save writes settings atomically.
func (s *Store) Save(us UserSettings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), defaultDirMode); err != nil {
		return fmt.Errorf("settings: mkdir: %w", err)
	}
	data, err := json.MarshalIndent(us, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, defaultFileMode); err != nil {
		return fmt.Errorf("settings: write tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("settings: rename: %w", err)
	}
	return nil
}
