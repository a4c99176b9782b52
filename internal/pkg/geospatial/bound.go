package geospatial

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
)

// boundPad widens LineBound outward, in degrees, so radian round-off never
// leaves a vertex outside its own box.
const boundPad = 1e-9

// LineBound returns a lon/lat box containing every great-circle segment of
// line, including arcs that bulge poleward past their vertices. Lines
// crossing the antimeridian get the full longitude range.
func LineBound(line orb.LineString) orb.Bound {
	if len(line) == 0 {
		return orb.Bound{}
	}
	rb := s2.NewRectBounder()
	for _, p := range line {
		rb.AddPoint(toS2(p))
	}
	r := rb.RectBound()

	minLat := math.Max(r.Lat.Lo*180/math.Pi-boundPad, -90)
	maxLat := math.Min(r.Lat.Hi*180/math.Pi+boundPad, 90)
	minLon, maxLon := -180.0, 180.0
	if !r.Lng.IsInverted() && !r.Lng.IsFull() {
		minLon = math.Max(r.Lng.Lo*180/math.Pi-boundPad, -180)
		maxLon = math.Min(r.Lng.Hi*180/math.Pi+boundPad, 180)
	}
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}
