package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/gesture"
	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/viewport"
)

// StartPrompt is spoken when a touch device connects.
const StartPrompt = "If you are using a screen reader please turn it off to use this application"

// SessionDeps are the collaborators shared by every touch session.
type SessionDeps struct {
	Index    *features.Index
	Sampler  *raster.Sampler
	Settings *SettingsService
	Events   ports.EventPublisher // optional
}

// TouchResult reports what one touch event did.
type TouchResult struct {
	Feedback   Feedback
	Gesture    domain.GestureKind
	Recognized bool
}

// TouchSession owns the state of one connected touch device: its viewport,
// gesture recognizer and feedback engine. Events are serialized by an
// internal mutex so a session can be driven from a reader goroutine while
// being inspected from HTTP handlers.
type TouchSession struct {
	id     string
	mu     sync.Mutex
	vp     viewport.Viewport
	rec    *gesture.Recognizer
	nav    *Navigator
	fb     *FeedbackEngine
	speech ports.SpeechSink
	events ports.EventPublisher
	log    *slog.Logger
}

// NewTouchSession wires a session for one device.
func NewTouchSession(id string, vp viewport.Viewport, deps SessionDeps, speech ports.SpeechSink, audio ports.AudioSink) (*TouchSession, error) {
	if err := vp.Validate(); err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	log := slog.Default().With("session", id)
	s := &TouchSession{
		id:     id,
		vp:     vp,
		rec:    gesture.NewRecognizer(),
		speech: speech,
		events: deps.Events,
		log:    log,
	}
	s.fb = NewFeedbackEngine(deps.Index, deps.Sampler, deps.Settings, speech, audio, log)
	s.nav = NewNavigator(&s.vp, speech, s.fb.PauseTone, log)
	s.nav.Bind(s.rec)
	return s, nil
}

// ID returns the session id.
func (s *TouchSession) ID() string { return s.id }

// Start speaks the start prompt.
func (s *TouchSession) Start() {
	if err := s.speech.Speak(StartPrompt); err != nil {
		s.log.Warn("speech sink failed", "error", err)
	}
}

// HandleTouch runs one event through spatial feedback and then gesture
// recognition. Stray or malformed sequences are ignored; only an unknown
// phase is an error.
func (s *TouchSession) HandleTouch(ctx context.Context, ev domain.TouchEvent) (TouchResult, error) {
	if !ev.Phase.Valid() {
		return TouchResult{}, fmt.Errorf("unknown touch phase %q", ev.Phase)
	}

	s.mu.Lock()
	res := TouchResult{Feedback: s.fb.Handle(ev, s.vp)}
	res.Gesture, res.Recognized = s.rec.Observe(ev)
	s.mu.Unlock()

	if res.Recognized {
		s.log.Debug("gesture recognised", "kind", res.Gesture)
		if s.events != nil {
			if err := s.events.PublishGesture(ctx, s.id, res.Gesture); err != nil {
				s.log.Warn("publish gesture failed", "error", err)
			}
		}
	}
	if res.Feedback.Utterance != "" && s.events != nil {
		if err := s.events.PublishAnnouncement(ctx, s.id, res.Feedback.Utterance); err != nil {
			s.log.Warn("publish announcement failed", "error", err)
		}
	}
	return res, nil
}

// Resize updates the screen size mapped by the viewport.
func (s *TouchSession) Resize(width, height float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp.Resize(width, height)
}

// Viewport returns a copy of the current viewport.
func (s *TouchSession) Viewport() viewport.Viewport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vp
}

// State returns the feedback state.
func (s *TouchSession) State() FeedbackState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fb.State()
}

// Close silences the tone and drops any half-finished gesture.
func (s *TouchSession) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec.Reset()
	s.fb.PauseTone()
}
