package ports

import (
	"context"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// SpeechSink speaks text. A new utterance supersedes the one in progress.
// Blank text must be a no-op. Implementations must not block.
type SpeechSink interface {
	Speak(text string) error
}

// AudioSink drives the continuous sonification tone.
type AudioSink interface {
	SetFrequency(hz float64) error
	PlayTone() error
	PauseTone() error
}

// VolumeSink is implemented by audio sinks that support volume control.
type VolumeSink interface {
	SetVolume(v float64) error
}

// EventPublisher publishes session events to a message broker.
type EventPublisher interface {
	PublishGesture(ctx context.Context, sessionID string, kind domain.GestureKind) error
	PublishAnnouncement(ctx context.Context, sessionID, text string) error
	PublishDatasetChanged(ctx context.Context, source string) error
}

// EventSubscriber receives updates pushed by the desktop application.
type EventSubscriber interface {
	SubscribeAudioSettings(ctx context.Context, handler func(ctx context.Context, s domain.AudioSettings) error) error
	SubscribeDatasetChanged(ctx context.Context, handler func(ctx context.Context, source string) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
