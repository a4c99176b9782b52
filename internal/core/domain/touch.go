package domain

// Phase is the lifecycle stage of a raw touch event.
type Phase string

const (
	PhaseStart  Phase = "start"
	PhaseMove   Phase = "move"
	PhaseEnd    Phase = "end"
	PhaseCancel Phase = "cancel"
)

// Valid reports whether p is one of the known phases.
func (p Phase) Valid() bool {
	switch p {
	case PhaseStart, PhaseMove, PhaseEnd, PhaseCancel:
		return true
	}
	return false
}

// TouchSample is one finger position at one instant. X and Y are
// page-relative pixels; Timestamp is a monotonic value in milliseconds.
type TouchSample struct {
	ID        int     `json:"id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp float64 `json:"timestamp"`
}

// TouchEvent mirrors a multi-touch pointer event. Touches holds the fingers
// still down after the event, Changed the fingers the event is about.
type TouchEvent struct {
	Phase   Phase         `json:"phase"`
	Touches []TouchSample `json:"touches"`
	Changed []TouchSample `json:"changed"`
}

// GestureKind identifies a classified multi-touch gesture.
type GestureKind string

const (
	GesturePinch      GestureKind = "pinch"
	GestureSpread     GestureKind = "spread"
	GestureSwipeLeft  GestureKind = "swipe-left"
	GestureSwipeRight GestureKind = "swipe-right"
	GestureSwipeUp    GestureKind = "swipe-up"
	GestureSwipeDown  GestureKind = "swipe-down"
)

// GestureKinds lists every kind in a stable order.
var GestureKinds = []GestureKind{
	GesturePinch, GestureSpread,
	GestureSwipeLeft, GestureSwipeRight, GestureSwipeUp, GestureSwipeDown,
}
