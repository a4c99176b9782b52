package usecases_test

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/usecases"
	"github.com/samirrijal/tactilemap/internal/core/viewport"
)

func named(name string, g orb.Geometry) *domain.Feature {
	return &domain.Feature{Geometry: g, Properties: map[string]any{"name": name}, FirstProperty: "name"}
}

func newSettings(t *testing.T) *usecases.SettingsService {
	t.Helper()
	s, err := usecases.NewSettingsService(domain.DefaultAudioSettings(), 5)
	if err != nil {
		t.Fatalf("NewSettingsService() error = %v", err)
	}
	return s
}

func worldViewport(t *testing.T, w, h float64) viewport.Viewport {
	t.Helper()
	vp, err := viewport.World(w, h)
	if err != nil {
		t.Fatalf("World() error = %v", err)
	}
	return vp
}

func touch(phase domain.Phase, x, y float64) domain.TouchEvent {
	s := domain.TouchSample{ID: 1, X: x, Y: y}
	if phase == domain.PhaseEnd || phase == domain.PhaseCancel {
		return domain.TouchEvent{Phase: phase, Changed: []domain.TouchSample{s}}
	}
	return domain.TouchEvent{Phase: phase, Touches: []domain.TouchSample{s}, Changed: []domain.TouchSample{s}}
}

func TestFeedbackEngine_OriginScenario(t *testing.T) {
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{named("Origin", orb.Point{0, 0})})
	speech := &fakeSpeech{}
	engine := usecases.NewFeedbackEngine(ix, raster.NewSampler(), newSettings(t), speech, &fakeAudio{}, nil)
	vp := worldViewport(t, 800, 600)

	fb := engine.Handle(touch(domain.PhaseStart, 400, 300), vp)
	if fb.Point != (orb.Point{0, 0}) {
		t.Errorf("expected touch at (0,0), got %v", fb.Point)
	}
	engine.Handle(touch(domain.PhaseEnd, 400, 300), vp)
	engine.Handle(touch(domain.PhaseStart, 400, 300), vp)

	if len(speech.spoken) != 1 || speech.spoken[0] != "Near Point Origin" {
		t.Errorf("spoken = %q, want [\"Near Point Origin\"]", speech.spoken)
	}
}

func TestFeedbackEngine_EnterLeaveDelta(t *testing.T) {
	a := named("A", orb.Point{0, 0})
	b := named("B", orb.Point{4, 0})
	c := named("C", orb.Point{8, 0})
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{a, b, c})
	speech := &fakeSpeech{}
	engine := usecases.NewFeedbackEngine(ix, raster.NewSampler(), newSettings(t), speech, &fakeAudio{}, nil)

	// ten pixels per degree
	vp := worldViewport(t, 3600, 1800)
	engine.Handle(touch(domain.PhaseStart, 1820, 900), vp)
	engine.Handle(touch(domain.PhaseMove, 1860, 900), vp)

	want := []string{"Near Point A, Near Point B", "Near Point C, Leaving A"}
	if len(speech.spoken) != len(want) {
		t.Fatalf("spoken = %q, want %q", speech.spoken, want)
	}
	for i := range want {
		if speech.spoken[i] != want[i] {
			t.Errorf("utterance %d = %q, want %q", i, speech.spoken[i], want[i])
		}
	}
}

func TestFeedbackEngine_PolygonSaysIn(t *testing.T) {
	park := named("Park", orb.Polygon{{{-10, -10}, {10, -10}, {10, 10}, {-10, 10}, {-10, -10}}})
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{park})
	speech := &fakeSpeech{}
	engine := usecases.NewFeedbackEngine(ix, raster.NewSampler(), newSettings(t), speech, &fakeAudio{}, nil)

	engine.Handle(touch(domain.PhaseStart, 400, 300), worldViewport(t, 800, 600))
	if len(speech.spoken) != 1 || speech.spoken[0] != "In Polygon Park" {
		t.Errorf("spoken = %q", speech.spoken)
	}
}

func TestFeedbackEngine_UsesLastTouch(t *testing.T) {
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{named("East", orb.Point{90, 0})})
	speech := &fakeSpeech{}
	engine := usecases.NewFeedbackEngine(ix, raster.NewSampler(), newSettings(t), speech, &fakeAudio{}, nil)

	ev := domain.TouchEvent{Phase: domain.PhaseStart, Touches: []domain.TouchSample{
		{ID: 1, X: 400, Y: 300},
		{ID: 2, X: 600, Y: 300},
	}}
	engine.Handle(ev, worldViewport(t, 800, 600))
	if len(speech.spoken) != 1 || speech.spoken[0] != "Near Point East" {
		t.Errorf("spoken = %q", speech.spoken)
	}
}

func TestFeedbackEngine_ToneFollowsRaster(t *testing.T) {
	grid, err := raster.NewGrid(domain.RasterMeta{Origin: [2]float64{-180, 90}, Width: 2, Height: 2, Resolution: 90},
		[]float32{0, 10, 20, 30})
	if err != nil {
		t.Fatalf("NewGrid() error = %v", err)
	}
	sampler := raster.NewSampler()
	sampler.Load(grid)
	audio := &fakeAudio{}
	engine := usecases.NewFeedbackEngine(features.NewIndex(), sampler, newSettings(t), &fakeSpeech{}, audio, nil)
	vp := worldViewport(t, 800, 600)

	// (-45, -45) sits in cell (1,1)
	x, y := vp.CoordsToScreen(orb.Point{-45, -45})
	fb := engine.Handle(touch(domain.PhaseStart, x, y), vp)
	if !fb.ToneOn || fb.ToneHz != 880 || !audio.playing {
		t.Errorf("expected 880 Hz tone, got %+v", fb)
	}
	if audio.volume != 1 {
		t.Errorf("expected volume 1, got %g", audio.volume)
	}

	// east of the grid
	x, y = vp.CoordsToScreen(orb.Point{90, 0})
	fb = engine.Handle(touch(domain.PhaseMove, x, y), vp)
	if fb.ToneOn || audio.playing {
		t.Errorf("tone should pause out of bounds, got %+v", fb)
	}
}

func TestFeedbackEngine_EndPausesWithoutForgetting(t *testing.T) {
	grid, _ := raster.NewGrid(domain.RasterMeta{Origin: [2]float64{-180, 90}, Width: 2, Height: 1, Resolution: 180}, []float32{5, 5})
	sampler := raster.NewSampler()
	sampler.Load(grid)
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{named("Origin", orb.Point{0, 0})})
	audio := &fakeAudio{}
	engine := usecases.NewFeedbackEngine(ix, sampler, newSettings(t), &fakeSpeech{}, audio, nil)
	vp := worldViewport(t, 800, 600)

	engine.Handle(touch(domain.PhaseStart, 400, 300), vp)
	if !audio.playing {
		t.Fatal("expected tone while tracking")
	}
	if engine.State() != usecases.StateTracking {
		t.Fatalf("expected tracking, got %v", engine.State())
	}
	engine.Handle(touch(domain.PhaseEnd, 400, 300), vp)

	if engine.State() != usecases.StateIdle {
		t.Errorf("expected idle, got %v", engine.State())
	}
	if audio.playing {
		t.Error("tone still playing after last finger lifted")
	}
	if len(engine.Previous()) != 1 {
		t.Errorf("previously found features were cleared")
	}
}

func TestFeedbackEngine_NothingSpokenForEmptyDelta(t *testing.T) {
	speech := &fakeSpeech{}
	engine := usecases.NewFeedbackEngine(features.NewIndex(), raster.NewSampler(), newSettings(t), speech, &fakeAudio{}, nil)
	vp := worldViewport(t, 800, 600)
	engine.Handle(touch(domain.PhaseStart, 10, 10), vp)
	engine.Handle(touch(domain.PhaseMove, 20, 20), vp)

	if len(speech.spoken) != 0 {
		t.Errorf("expected silence, got %q", speech.spoken)
	}
}

func TestFeedbackEngine_SinkFailuresKeepState(t *testing.T) {
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{named("Origin", orb.Point{0, 0})})
	speech := &fakeSpeech{speakFn: func(string) error { return errors.New("no voices") }}
	engine := usecases.NewFeedbackEngine(ix, raster.NewSampler(), newSettings(t), speech, &fakeAudio{failAll: true}, nil)
	vp := worldViewport(t, 800, 600)

	fb := engine.Handle(touch(domain.PhaseStart, 400, 300), vp)
	if fb.Found != 1 || len(engine.Previous()) != 1 {
		t.Errorf("state not updated after sink failure: %+v", fb)
	}
	engine.Handle(touch(domain.PhaseMove, 400, 300), vp)
	if len(speech.spoken) != 1 {
		t.Errorf("expected one attempt only, got %q", speech.spoken)
	}
}

func TestFeedbackEngine_NewDatasetClearsPrevious(t *testing.T) {
	origin := named("Origin", orb.Point{0, 0})
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{origin})
	speech := &fakeSpeech{}
	engine := usecases.NewFeedbackEngine(ix, raster.NewSampler(), newSettings(t), speech, &fakeAudio{}, nil)
	vp := worldViewport(t, 800, 600)

	engine.Handle(touch(domain.PhaseStart, 400, 300), vp)
	ix.Load([]*domain.Feature{origin})
	engine.Handle(touch(domain.PhaseMove, 400, 300), vp)

	if len(speech.spoken) != 2 {
		t.Errorf("expected re-announcement after reload, got %q", speech.spoken)
	}
}
