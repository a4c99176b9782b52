package gesture

import (
	"math"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

const (
	// SimultaneousWindow is the maximum spread, in milliseconds, between the
	// first and last touch-down for two fingers to count as one pinch.
	SimultaneousWindow = 15.0
	// SwipeThreshold is the dominant-axis travel, in pixels, a swipe must exceed.
	SwipeThreshold = 100.0
	// PinchRatio is the factor by which finger spacing must change.
	PinchRatio = 2.0
)

// Session accumulates the samples of one touch-down to all-fingers-up
// interaction.
type Session struct {
	Started []domain.TouchSample
	Moved   []domain.TouchSample
	Ended   []domain.TouchSample
}

// Empty reports whether nothing has been recorded.
func (s Session) Empty() bool {
	return len(s.Started) == 0 && len(s.Moved) == 0 && len(s.Ended) == 0
}

func (s Session) hasStarted(id int) bool {
	for _, t := range s.Started {
		if t.ID == id {
			return true
		}
	}
	return false
}

// Classify resolves a session into at most one gesture. Pinch/spread is
// tried before swipe.
func Classify(s Session) (domain.GestureKind, bool) {
	if kind, ok := classifyPinch(s); ok {
		return kind, true
	}
	return classifySwipe(s)
}

func classifyPinch(s Session) (domain.GestureKind, bool) {
	if len(s.Started) != 2 || len(s.Ended) != 2 {
		return "", false
	}
	if math.Abs(s.Started[0].Timestamp-s.Started[1].Timestamp) > SimultaneousWindow {
		return "", false
	}

	d0 := spacing(s.Started[0], s.Started[1])
	d1 := spacing(s.Ended[0], s.Ended[1])
	switch {
	case d0 > PinchRatio*d1:
		return domain.GesturePinch, true
	case d1 > PinchRatio*d0:
		return domain.GestureSpread, true
	}
	return "", false
}

func classifySwipe(s Session) (domain.GestureKind, bool) {
	if len(s.Started) < 2 || len(s.Moved) == 0 {
		return "", false
	}
	first := s.Started[0]
	last := s.Moved[len(s.Moved)-1]
	dx := first.X - last.X
	dy := first.Y - last.Y

	if math.Abs(dx) > math.Abs(dy) {
		switch {
		case dx > SwipeThreshold:
			return domain.GestureSwipeLeft, true
		case dx < -SwipeThreshold:
			return domain.GestureSwipeRight, true
		}
		return "", false
	}
	switch {
	case dy > SwipeThreshold:
		return domain.GestureSwipeUp, true
	case dy < -SwipeThreshold:
		return domain.GestureSwipeDown, true
	}
	return "", false
}

func spacing(a, b domain.TouchSample) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
