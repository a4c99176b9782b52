// Package viewport maps screen pixels onto the geographic window shown on
// the touch surface and clamps pan/zoom to the world bounds.
package viewport

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// MinSpan is the smallest lon or lat extent zoom-in may produce, in degrees.
const MinSpan = 1e-6

// ErrInvalid is returned for bounds or screen sizes that break the invariants.
var ErrInvalid = errors.New("viewport: invalid geometry")

// Direction is a pan direction on the map: Left moves the window west.
type Direction int

const (
	Left Direction = iota
	Right
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	case Up:
		return "up"
	case Down:
		return "down"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Viewport is the geographic window currently mapped onto the screen.
// Invariants: TopLat > BottomLat, RightLon > LeftLon, all within the world.
type Viewport struct {
	TopLat       float64 `json:"top_lat"`
	BottomLat    float64 `json:"bottom_lat"`
	LeftLon      float64 `json:"left_lon"`
	RightLon     float64 `json:"right_lon"`
	ScreenWidth  float64 `json:"screen_width"`
	ScreenHeight float64 `json:"screen_height"`
}

// New builds a viewport over b on a width x height pixel screen.
func New(b domain.Bounds, width, height float64) (Viewport, error) {
	v := Viewport{
		TopLat:       b.MaxLat,
		BottomLat:    b.MinLat,
		LeftLon:      b.MinLon,
		RightLon:     b.MaxLon,
		ScreenWidth:  width,
		ScreenHeight: height,
	}
	if err := v.Validate(); err != nil {
		return Viewport{}, err
	}
	return v, nil
}

// World returns the full-extent viewport.
func World(width, height float64) (Viewport, error) {
	return New(domain.World, width, height)
}

// Validate checks the viewport invariants.
func (v Viewport) Validate() error {
	switch {
	case v.ScreenWidth <= 0 || v.ScreenHeight <= 0:
		return fmt.Errorf("%w: screen %gx%g", ErrInvalid, v.ScreenWidth, v.ScreenHeight)
	case v.TopLat <= v.BottomLat:
		return fmt.Errorf("%w: top %g not above bottom %g", ErrInvalid, v.TopLat, v.BottomLat)
	case v.RightLon <= v.LeftLon:
		return fmt.Errorf("%w: right %g not east of left %g", ErrInvalid, v.RightLon, v.LeftLon)
	case v.TopLat > 90 || v.BottomLat < -90 || v.LeftLon < -180 || v.RightLon > 180:
		return fmt.Errorf("%w: window exceeds world bounds", ErrInvalid)
	}
	return nil
}

// Bounds returns the window as a domain bounding box.
func (v Viewport) Bounds() domain.Bounds {
	return domain.Bounds{MinLat: v.BottomLat, MinLon: v.LeftLon, MaxLat: v.TopLat, MaxLon: v.RightLon}
}

func (v Viewport) lonSpan() float64 { return v.RightLon - v.LeftLon }
func (v Viewport) latSpan() float64 { return v.TopLat - v.BottomLat }

// ScreenToCoords converts a pixel position to [lon, lat]. Screen y grows
// downward while latitude grows upward.
func (v Viewport) ScreenToCoords(x, y float64) orb.Point {
	lon := (x/v.ScreenWidth)*v.lonSpan() + v.LeftLon
	lat := -(y/v.ScreenHeight)*v.latSpan() + v.TopLat
	return orb.Point{lon, lat}
}

// CoordsToScreen is the inverse of ScreenToCoords.
func (v Viewport) CoordsToScreen(p orb.Point) (x, y float64) {
	x = (p.Lon() - v.LeftLon) / v.lonSpan() * v.ScreenWidth
	y = (v.TopLat - p.Lat()) / v.latSpan() * v.ScreenHeight
	return x, y
}

// Resize changes the screen dimensions, keeping the geographic window.
func (v *Viewport) Resize(width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: screen %gx%g", ErrInvalid, width, height)
	}
	v.ScreenWidth, v.ScreenHeight = width, height
	return nil
}

// PanBy shifts the window by its own extent in dir. A shift past the world
// edge is shortened to end exactly on it. It returns false, leaving the
// viewport unchanged, when the window already touches that edge.
func (v *Viewport) PanBy(dir Direction) bool {
	switch dir {
	case Left:
		room := v.LeftLon - domain.World.MinLon
		if room <= 0 {
			return false
		}
		if span := v.lonSpan(); span < room {
			v.LeftLon -= span
			v.RightLon -= span
		} else {
			v.RightLon -= room
			v.LeftLon = domain.World.MinLon
		}
	case Right:
		room := domain.World.MaxLon - v.RightLon
		if room <= 0 {
			return false
		}
		if span := v.lonSpan(); span < room {
			v.LeftLon += span
			v.RightLon += span
		} else {
			v.LeftLon += room
			v.RightLon = domain.World.MaxLon
		}
	case Up:
		room := domain.World.MaxLat - v.TopLat
		if room <= 0 {
			return false
		}
		if span := v.latSpan(); span < room {
			v.TopLat += span
			v.BottomLat += span
		} else {
			v.BottomLat += room
			v.TopLat = domain.World.MaxLat
		}
	case Down:
		room := v.BottomLat - domain.World.MinLat
		if room <= 0 {
			return false
		}
		if span := v.latSpan(); span < room {
			v.TopLat -= span
			v.BottomLat -= span
		} else {
			v.TopLat -= room
			v.BottomLat = domain.World.MinLat
		}
	default:
		return false
	}
	v.snap()
	return true
}

// ZoomOut doubles each span from the top-left anchor. A span that cannot
// double is capped at the world extent, and the window slides back inside
// the world if it overhangs. It returns false, leaving the viewport
// unchanged, when neither axis can grow.
func (v *Viewport) ZoomOut() bool {
	worldLon := domain.World.MaxLon - domain.World.MinLon
	worldLat := domain.World.MaxLat - domain.World.MinLat

	lonSpan := min(2*v.lonSpan(), worldLon)
	latSpan := min(2*v.latSpan(), worldLat)
	if lonSpan <= v.lonSpan() && latSpan <= v.latSpan() {
		return false
	}

	v.RightLon = v.LeftLon + lonSpan
	if v.RightLon > domain.World.MaxLon {
		v.RightLon = domain.World.MaxLon
		v.LeftLon = v.RightLon - lonSpan
	}
	v.BottomLat = v.TopLat - latSpan
	if v.BottomLat < domain.World.MinLat {
		v.BottomLat = domain.World.MinLat
		v.TopLat = v.BottomLat + latSpan
	}
	v.snap()
	return true
}

// ZoomIn halves both spans, anchored at the top-left corner. It returns
// false when a span would drop below MinSpan.
func (v *Viewport) ZoomIn() bool {
	lonSpan, latSpan := v.lonSpan()/2, v.latSpan()/2
	if lonSpan < MinSpan || latSpan < MinSpan {
		return false
	}
	v.RightLon = v.LeftLon + lonSpan
	v.BottomLat = v.TopLat - latSpan
	return true
}

// snap pins edges that drifted past the world bound through rounding.
func (v *Viewport) snap() {
	v.LeftLon = max(v.LeftLon, domain.World.MinLon)
	v.RightLon = min(v.RightLon, domain.World.MaxLon)
	v.BottomLat = max(v.BottomLat, domain.World.MinLat)
	v.TopLat = min(v.TopLat, domain.World.MaxLat)
}
