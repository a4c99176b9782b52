package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/ports"
)

// SettingsService holds the feedback settings shared by every touch
// session. Changes apply from the next touch sample.
type SettingsService struct {
	mu     sync.RWMutex
	audio  domain.AudioSettings
	radius float64
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(audio domain.AudioSettings, radius float64) (*SettingsService, error) {
	s := &SettingsService{}
	if err := s.SetAudio(audio); err != nil {
		return nil, err
	}
	if err := s.SetRadius(radius); err != nil {
		return nil, err
	}
	return s, nil
}

// Audio returns the current audio settings.
func (s *SettingsService) Audio() domain.AudioSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audio
}

// SetAudio replaces the audio settings after validating them.
func (s *SettingsService) SetAudio(a domain.AudioSettings) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("audio settings: %w", err)
	}
	s.mu.Lock()
	s.audio = a
	s.mu.Unlock()
	return nil
}

// Radius is the feature search radius in degrees.
func (s *SettingsService) Radius() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.radius
}

// SetRadius replaces the search radius.
func (s *SettingsService) SetRadius(r float64) error {
	if r < 0 || math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("radius must be a finite non-negative number, got %g", r)
	}
	s.mu.Lock()
	s.radius = r
	s.mu.Unlock()
	return nil
}

// Listen applies audio settings pushed through sub until ctx is done.
func (s *SettingsService) Listen(ctx context.Context, sub ports.EventSubscriber) error {
	return sub.SubscribeAudioSettings(ctx, func(ctx context.Context, a domain.AudioSettings) error {
		if err := s.SetAudio(a); err != nil {
			slog.Warn("rejected audio settings update", "error", err)
			return err
		}
		slog.Info("audio settings updated", "min_freq", a.MinFreq, "max_freq", a.MaxFreq, "volume", a.Volume)
		return nil
	})
}
