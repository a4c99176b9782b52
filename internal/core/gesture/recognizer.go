// Package gesture turns raw multi-touch event streams into discrete
// gestures. It holds no geographic state; consumers react through
// registered callbacks.
package gesture

import (
	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// Recognizer collects touch events into a Session and classifies it once,
// when the last finger lifts or the sequence is cancelled.
// It is not safe for concurrent use; callers serialize events per device.
type Recognizer struct {
	session  Session
	handlers map[domain.GestureKind][]func()
}

// NewRecognizer returns a recognizer with no handlers.
func NewRecognizer() *Recognizer {
	return &Recognizer{handlers: make(map[domain.GestureKind][]func())}
}

// On registers fn for kind. Handlers run synchronously in registration order.
func (r *Recognizer) On(kind domain.GestureKind, fn func()) {
	r.handlers[kind] = append(r.handlers[kind], fn)
}

// Session returns a copy of the samples gathered so far.
func (r *Recognizer) Session() Session {
	return Session{
		Started: append([]domain.TouchSample(nil), r.session.Started...),
		Moved:   append([]domain.TouchSample(nil), r.session.Moved...),
		Ended:   append([]domain.TouchSample(nil), r.session.Ended...),
	}
}

// Observe feeds one event. When the event resolves the session, the matched
// gesture (if any) is returned after its handlers have run. Malformed
// sequences never panic; stray samples are ignored.
func (r *Recognizer) Observe(ev domain.TouchEvent) (domain.GestureKind, bool) {
	switch ev.Phase {
	case domain.PhaseStart:
		landed := ev.Changed
		if len(landed) == 0 {
			landed = ev.Touches
		}
		for _, t := range landed {
			if !r.session.hasStarted(t.ID) {
				r.session.Started = append(r.session.Started, t)
			}
		}
	case domain.PhaseMove:
		for _, t := range ev.Touches {
			if r.session.hasStarted(t.ID) {
				r.session.Moved = append(r.session.Moved, t)
			}
		}
	case domain.PhaseEnd:
		r.session.Ended = append(r.session.Ended, ev.Changed...)
		if len(ev.Touches) == 0 {
			return r.resolve()
		}
	case domain.PhaseCancel:
		r.session.Ended = append(r.session.Ended, ev.Changed...)
		return r.resolve()
	}
	return "", false
}

// Reset drops the current session without classifying it.
func (r *Recognizer) Reset() {
	r.session = Session{}
}

func (r *Recognizer) resolve() (domain.GestureKind, bool) {
	s := r.session
	r.session = Session{}
	if len(s.Started) == 0 {
		return "", false
	}

	kind, ok := Classify(s)
	if !ok {
		return "", false
	}
	for _, fn := range r.handlers[kind] {
		fn()
	}
	return kind, true
}
