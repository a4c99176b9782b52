package usecases_test

import (
	"context"
	"testing"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
	"github.com/samirrijal/tactilemap/internal/core/viewport"
)

func newSession(t *testing.T, vp viewport.Viewport, speech *fakeSpeech, pub *mockPublisher) *usecases.TouchSession {
	t.Helper()
	deps := usecases.SessionDeps{
		Index:    features.NewIndex(),
		Sampler:  raster.NewSampler(),
		Settings: newSettings(t),
	}
	if pub != nil {
		deps.Events = pub
	}
	s, err := usecases.NewTouchSession("s-1", vp, deps, speech, &fakeAudio{})
	if err != nil {
		t.Fatalf("NewTouchSession() error = %v", err)
	}
	return s
}

func TestTouchSession_TwoFingerSwipePans(t *testing.T) {
	vp, err := viewport.New(domain.Bounds{MinLat: -10, MinLon: 0, MaxLat: 10, MaxLon: 20}, 2000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	speech := &fakeSpeech{}
	pub := &mockPublisher{}
	s := newSession(t, vp, speech, pub)
	ctx := context.Background()

	f0 := domain.TouchSample{ID: 0, X: 1000, Y: 500}
	f1 := domain.TouchSample{ID: 1, X: 1100, Y: 500}
	m0 := domain.TouchSample{ID: 0, X: 700, Y: 500, Timestamp: 40}
	m1 := domain.TouchSample{ID: 1, X: 800, Y: 500, Timestamp: 40}

	events := []domain.TouchEvent{
		{Phase: domain.PhaseStart, Touches: []domain.TouchSample{f0, f1}, Changed: []domain.TouchSample{f0, f1}},
		{Phase: domain.PhaseMove, Touches: []domain.TouchSample{m0, m1}, Changed: []domain.TouchSample{m0, m1}},
		{Phase: domain.PhaseEnd, Touches: []domain.TouchSample{m1}, Changed: []domain.TouchSample{m0}},
		{Phase: domain.PhaseEnd, Changed: []domain.TouchSample{m1}},
	}
	var last usecases.TouchResult
	for _, ev := range events {
		last, err = s.HandleTouch(ctx, ev)
		if err != nil {
			t.Fatalf("HandleTouch() error = %v", err)
		}
	}

	if !last.Recognized || last.Gesture != domain.GestureSwipeLeft {
		t.Fatalf("expected swipe-left, got %+v", last)
	}
	got := s.Viewport()
	if got.LeftLon != -20 || got.RightLon != 0 {
		t.Errorf("viewport after swipe = %+v", got)
	}
	if len(pub.gestures) != 1 || pub.gestures[0] != domain.GestureSwipeLeft {
		t.Errorf("published gestures = %v", pub.gestures)
	}
	if n := len(speech.spoken); n == 0 || speech.spoken[n-1] != "Panning left" {
		t.Errorf("spoken = %q", speech.spoken)
	}
	if s.State() != usecases.StateIdle {
		t.Errorf("expected idle after last finger lifted, got %v", s.State())
	}
}

func TestTouchSession_StartPrompt(t *testing.T) {
	speech := &fakeSpeech{}
	s := newSession(t, worldViewport(t, 800, 600), speech, nil)
	s.Start()
	if len(speech.spoken) != 1 || speech.spoken[0] != usecases.StartPrompt {
		t.Errorf("spoken = %q", speech.spoken)
	}
}

func TestTouchSession_RejectsUnknownPhase(t *testing.T) {
	s := newSession(t, worldViewport(t, 800, 600), &fakeSpeech{}, nil)
	if _, err := s.HandleTouch(context.Background(), domain.TouchEvent{Phase: "hover"}); err == nil {
		t.Error("expected error for unknown phase")
	}
}

func TestTouchSession_StrayEndIgnored(t *testing.T) {
	s := newSession(t, worldViewport(t, 800, 600), &fakeSpeech{}, nil)
	res, err := s.HandleTouch(context.Background(), domain.TouchEvent{Phase: domain.PhaseEnd,
		Changed: []domain.TouchSample{{ID: 9, X: 1, Y: 1}}})
	if err != nil || res.Recognized {
		t.Errorf("stray end: res=%+v err=%v", res, err)
	}
}

func TestTouchSession_Resize(t *testing.T) {
	s := newSession(t, worldViewport(t, 800, 600), &fakeSpeech{}, nil)
	if err := s.Resize(1024, 768); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	if vp := s.Viewport(); vp.ScreenWidth != 1024 || vp.ScreenHeight != 768 {
		t.Errorf("viewport = %+v", vp)
	}
	if err := s.Resize(0, 768); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestSessionRegistry(t *testing.T) {
	reg := usecases.NewSessionRegistry()
	s := newSession(t, worldViewport(t, 800, 600), &fakeSpeech{}, nil)
	reg.Add(s)

	if got, ok := reg.Get("s-1"); !ok || got != s {
		t.Fatal("session not registered")
	}
	if ids := reg.IDs(); len(ids) != 1 || ids[0] != "s-1" {
		t.Errorf("IDs() = %v", ids)
	}
	reg.Remove("s-1")
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after remove", reg.Len())
	}
}
