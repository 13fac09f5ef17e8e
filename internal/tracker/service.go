package tracker

import (
	"context"
	"log"
	"strings"

	"github.com/tinytelemetry/killfeed/internal/journal"
	"github.com/tinytelemetry/killfeed/internal/model"
	"github.com/tinytelemetry/killfeed/internal/settings"
)

// Service exposes the controller as model.ControlAPI. Blank start fields are
// filled from the saved settings and the merged values are saved back.
type Service struct {
	ctrl     *Controller
	journal  *journal.Journal
	settings *settings.Store
}

// NewService creates the control facade. journal and store may be nil.
func NewService(ctrl *Controller, j *journal.Journal, store *settings.Store) *Service {
	return &Service{ctrl: ctrl, journal: j, settings: store}
}

func (s *Service) Snapshot() (model.Snapshot, error) {
	return s.ctrl.Snapshot(), nil
}

func (s *Service) StartSession(ctx context.Context, req model.StartRequest) error {
	req = s.merge(req)
	if s.settings != nil {
		saved := settings.UserSettings{
			GameLogPath:   req.LogPath,
			Username:      req.Username,
			Token:         req.Token,
			PlayKillSound: req.PlaySound != nil && *req.PlaySound,
		}
		if err := s.settings.Save(saved); err != nil {
			log.Printf("tracker: save settings: %v", err)
		}
	}
	return s.ctrl.Start(ctx, req)
}

func (s *Service) StopSession() (bool, error) {
	return s.ctrl.Stop(), nil
}

func (s *Service) RecentDispatches(limit int) ([]model.DispatchEntry, error) {
	if s.journal == nil {
		return []model.DispatchEntry{}, nil
	}
	return s.journal.Recent(limit), nil
}

// AutoStart starts a session from saved settings if they are complete.
func (s *Service) AutoStart(ctx context.Context) error {
	if s.settings == nil {
		return nil
	}
	us := s.settings.Load()
	if !us.Complete() {
		s.ctrl.cfg.Status.Report(model.LevelInfo, "Auto-start skipped: Please fill in all fields and restart the application.")
		return ErrMissingField
	}
	sound := us.PlayKillSound
	return s.ctrl.AutoStart(ctx, model.StartRequest{
		LogPath:   us.GameLogPath,
		Username:  us.Username,
		Token:     us.Token,
		PlaySound: &sound,
	})
}

func (s *Service) merge(req model.StartRequest) model.StartRequest {
	if s.settings == nil {
		return req
	}
	saved := s.settings.Load()
	if strings.TrimSpace(req.LogPath) == "" {
		req.LogPath = saved.GameLogPath
	}
	if strings.TrimSpace(req.Username) == "" {
		req.Username = saved.Username
	}
	if strings.TrimSpace(req.Token) == "" {
		req.Token = saved.Token
	}
	if req.PlaySound == nil {
		sound := saved.PlayKillSound
		req.PlaySound = &sound
	}
	return req
}

var _ model.ControlAPI = (*Service)(nil)
