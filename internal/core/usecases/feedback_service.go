package usecases

import (
	"log/slog"
	"strings"

	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/raster"
	"github.com/samirrijal/tactilemap/internal/core/viewport"
)

// FeedbackState is whether any finger is down.
type FeedbackState int

const (
	StateIdle FeedbackState = iota
	StateTracking
)

func (s FeedbackState) String() string {
	if s == StateTracking {
		return "tracking"
	}
	return "idle"
}

// Feedback describes what one touch event produced.
type Feedback struct {
	Sampled   bool
	Point     orb.Point
	Utterance string
	Found     int
	ToneHz    float64
	ToneOn    bool
}

// FeedbackEngine turns finger positions into speech about nearby features
// and a tone for the raster value underneath. It is driven by raw touch
// events, independently of gesture classification, and is not safe for
// concurrent use.
type FeedbackEngine struct {
	index    *features.Index
	sampler  *raster.Sampler
	settings *SettingsService
	speech   ports.SpeechSink
	audio    ports.AudioSink
	log      *slog.Logger

	state      FeedbackState
	previous   []*domain.Feature
	generation uint64
	toneOn     bool
	toneHz     float64
}

// NewFeedbackEngine creates a FeedbackEngine in the Idle state.
func NewFeedbackEngine(
	index *features.Index,
	sampler *raster.Sampler,
	settings *SettingsService,
	speech ports.SpeechSink,
	audio ports.AudioSink,
	log *slog.Logger,
) *FeedbackEngine {
	if log == nil {
		log = slog.Default()
	}
	return &FeedbackEngine{
		index:    index,
		sampler:  sampler,
		settings: settings,
		speech:   speech,
		audio:    audio,
		log:      log,
	}
}

// State returns the current state.
func (e *FeedbackEngine) State() FeedbackState { return e.state }

// Previous returns the features reported by the last sample.
func (e *FeedbackEngine) Previous() []*domain.Feature {
	return append([]*domain.Feature(nil), e.previous...)
}

// Handle processes one touch event against vp.
func (e *FeedbackEngine) Handle(ev domain.TouchEvent, vp viewport.Viewport) Feedback {
	switch ev.Phase {
	case domain.PhaseStart, domain.PhaseMove:
		if len(ev.Touches) == 0 {
			return Feedback{ToneOn: e.toneOn, ToneHz: e.toneHz}
		}
		e.state = StateTracking
		last := ev.Touches[len(ev.Touches)-1]
		return e.sample(vp.ScreenToCoords(last.X, last.Y))
	case domain.PhaseEnd, domain.PhaseCancel:
		if len(ev.Touches) == 0 {
			e.state = StateIdle
			e.PauseTone()
		}
	}
	return Feedback{ToneOn: e.toneOn, ToneHz: e.toneHz}
}

// PauseTone silences the tone if it is playing.
func (e *FeedbackEngine) PauseTone() {
	if !e.toneOn {
		return
	}
	e.toneOn = false
	if err := e.audio.PauseTone(); err != nil {
		e.log.Warn("audio sink pause failed", "error", err)
	}
}

func (e *FeedbackEngine) sample(p orb.Point) Feedback {
	if gen := e.index.Generation(); gen != e.generation {
		e.generation = gen
		e.previous = nil
	}

	radius := e.settings.Radius()
	found := e.index.Query(p, radius)
	utterance := describe(difference(found, e.previous), difference(e.previous, found), p, radius)
	e.previous = found

	if strings.TrimSpace(utterance) != "" {
		if err := e.speech.Speak(utterance); err != nil {
			e.log.Warn("speech sink failed", "error", err)
		}
	}

	if v, ok := e.sampler.ValueAt(p); ok {
		e.playTone(e.sampler.Frequency(v, e.settings.Audio()))
	} else {
		e.PauseTone()
	}

	e.log.Debug("touch sample", "lon", p[0], "lat", p[1], "found", len(found), "tone", e.toneOn)
	return Feedback{
		Sampled:   true,
		Point:     p,
		Utterance: utterance,
		Found:     len(found),
		ToneHz:    e.toneHz,
		ToneOn:    e.toneOn,
	}
}

func (e *FeedbackEngine) playTone(hz float64) {
	e.toneHz = hz
	if err := e.audio.SetFrequency(hz); err != nil {
		e.log.Warn("audio sink frequency failed", "error", err)
	}
	if e.toneOn {
		return
	}
	if vs, ok := e.audio.(ports.VolumeSink); ok {
		if err := vs.SetVolume(e.settings.Audio().Volume); err != nil {
			e.log.Warn("audio sink volume failed", "error", err)
		}
	}
	e.toneOn = true
	if err := e.audio.PlayTone(); err != nil {
		e.log.Warn("audio sink play failed", "error", err)
	}
}

// describe builds one utterance: entered features first, then left ones.
func describe(entered, left []*domain.Feature, p orb.Point, radius float64) string {
	phrases := make([]string, 0, len(entered)+len(left))
	for _, f := range entered {
		phrases = append(phrases, enterPhrase(f, p, radius))
	}
	for _, f := range left {
		phrases = append(phrases, "Leaving "+f.Name())
	}
	return strings.Join(phrases, ", ")
}

func enterPhrase(f *domain.Feature, p orb.Point, radius float64) string {
	member := features.MatchingMember(f.Geometry, p, radius)
	verb := "Near"
	switch member.(type) {
	case orb.Polygon, orb.MultiPolygon:
		verb = "In"
	}
	return verb + " " + member.GeoJSONType() + " " + f.Name()
}

// difference returns the features of a missing from b, keeping a's order.
func difference(a, b []*domain.Feature) []*domain.Feature {
	if len(a) == 0 {
		return nil
	}
	seen := make(map[*domain.Feature]struct{}, len(b))
	for _, f := range b {
		seen[f] = struct{}{}
	}
	var out []*domain.Feature
	for _, f := range a {
		if _, ok := seen[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}
