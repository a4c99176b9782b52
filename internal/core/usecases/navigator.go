package usecases

import (
	"log/slog"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/gesture"
	"github.com/samirrijal/tactilemap/internal/core/ports"
	"github.com/samirrijal/tactilemap/internal/core/viewport"
)

// Spoken navigation notices.
const (
	MsgZoomingIn     = "Zooming in"
	MsgZoomingOut    = "Zooming out"
	MsgCannotZoomIn  = "Cannot zoom in"
	MsgCannotZoomOut = "Cannot zoom out"
)

var edgeNames = map[viewport.Direction]string{
	viewport.Left:  "left",
	viewport.Right: "right",
	viewport.Up:    "top",
	viewport.Down:  "bottom",
}

// Navigator applies recognised gestures to a viewport: swipes pan in the
// swipe direction, a pinch zooms out and a spread zooms in. Every gesture
// is confirmed by speech.
type Navigator struct {
	vp       *viewport.Viewport
	speech   ports.SpeechSink
	onChange func()
	log      *slog.Logger
}

// NewNavigator creates a Navigator over vp. onChange runs after the
// viewport actually moved.
func NewNavigator(vp *viewport.Viewport, speech ports.SpeechSink, onChange func(), log *slog.Logger) *Navigator {
	if log == nil {
		log = slog.Default()
	}
	if onChange == nil {
		onChange = func() {}
	}
	return &Navigator{vp: vp, speech: speech, onChange: onChange, log: log}
}

// Bind registers the navigator's handlers on r.
func (n *Navigator) Bind(r *gesture.Recognizer) {
	r.On(domain.GestureSwipeLeft, func() { n.Pan(viewport.Left) })
	r.On(domain.GestureSwipeRight, func() { n.Pan(viewport.Right) })
	r.On(domain.GestureSwipeUp, func() { n.Pan(viewport.Up) })
	r.On(domain.GestureSwipeDown, func() { n.Pan(viewport.Down) })
	r.On(domain.GesturePinch, func() { n.ZoomOut() })
	r.On(domain.GestureSpread, func() { n.ZoomIn() })
}

// Pan moves the viewport one screen in dir, or announces the edge.
func (n *Navigator) Pan(dir viewport.Direction) bool {
	if !n.vp.PanBy(dir) {
		n.say("At " + edgeNames[dir] + " edge")
		return false
	}
	n.say("Panning " + dir.String())
	n.onChange()
	return true
}

// ZoomOut doubles the viewport span, or rejects when already at the world
// extent.
func (n *Navigator) ZoomOut() bool {
	if !n.vp.ZoomOut() {
		n.say(MsgCannotZoomOut)
		return false
	}
	n.say(MsgZoomingOut)
	n.onChange()
	return true
}

// ZoomIn halves the viewport span.
func (n *Navigator) ZoomIn() bool {
	if !n.vp.ZoomIn() {
		n.say(MsgCannotZoomIn)
		return false
	}
	n.say(MsgZoomingIn)
	n.onChange()
	return true
}

func (n *Navigator) say(text string) {
	if err := n.speech.Speak(text); err != nil {
		n.log.Warn("speech sink failed", "error", err)
	}
}
