package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
)

func TestSettingsService_Validation(t *testing.T) {
	if _, err := usecases.NewSettingsService(domain.AudioSettings{MinFreq: 880, MaxFreq: 220, Volume: 1}, 5); err == nil {
		t.Error("expected error for inverted range")
	}
	if _, err := usecases.NewSettingsService(domain.DefaultAudioSettings(), -1); err == nil {
		t.Error("expected error for negative radius")
	}

	s := newSettings(t)
	if err := s.SetAudio(domain.AudioSettings{MinFreq: 100, MaxFreq: 200, Volume: 2}); err == nil {
		t.Error("expected error for volume above 1")
	}
	if s.Audio() != domain.DefaultAudioSettings() {
		t.Errorf("rejected update changed settings: %+v", s.Audio())
	}
}

func TestSettingsService_Listen(t *testing.T) {
	s := newSettings(t)
	update := domain.AudioSettings{MinFreq: 110, MaxFreq: 440, Volume: 0.5}
	sub := &mockSubscriber{settingsFn: func(ctx context.Context, handler func(ctx context.Context, a domain.AudioSettings) error) error {
		return handler(ctx, update)
	}}

	if err := s.Listen(context.Background(), sub); err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	if s.Audio() != update {
		t.Errorf("Audio() = %+v, want %+v", s.Audio(), update)
	}
}
