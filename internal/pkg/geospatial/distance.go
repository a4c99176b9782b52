// Package geospatial holds the stateless distance and containment
// primitives used by the feature index. Points are orb.Point{lon, lat};
// distances are great-circle angles in degrees.
package geospatial

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

func toS2(p orb.Point) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon()))
}

// Distance returns the great-circle distance between a and b in degrees.
func Distance(a, b orb.Point) float64 {
	la := s2.LatLngFromDegrees(a.Lat(), a.Lon())
	lb := s2.LatLngFromDegrees(b.Lat(), b.Lon())
	return la.Distance(lb).Degrees()
}

// PointToLineDistance returns the minimum great-circle distance in degrees
// from p to any segment of line. An empty line is infinitely far away.
func PointToLineDistance(p orb.Point, line orb.LineString) float64 {
	switch len(line) {
	case 0:
		return math.Inf(1)
	case 1:
		return Distance(p, line[0])
	}

	x := toS2(p)
	best := math.Inf(1)
	a := toS2(line[0])
	for i := 1; i < len(line); i++ {
		b := toS2(line[i])
		var d float64
		if a == b {
			d = x.Distance(a).Degrees()
		} else {
			d = s2.DistanceFromSegment(x, a, b).Degrees()
		}
		if d < best {
			best = d
		}
		a = b
	}
	return best
}

// PointInPolygon reports whether p lies inside the exterior ring of poly and
// outside every hole. The test is planar in lon/lat, so polygons crossing
// the antimeridian are not handled.
func PointInPolygon(p orb.Point, poly orb.Polygon) bool {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return false
	}
	return planar.PolygonContains(poly, p)
}

// SearchBound returns a lon/lat box guaranteed to contain every point whose
// great-circle distance to center is at most radius degrees. It widens to the
// full longitude range near the poles or across the antimeridian.
func SearchBound(center orb.Point, radius float64) orb.Bound {
	if radius < 0 {
		radius = 0
	}
	minLat := math.Max(center.Lat()-radius, -90)
	maxLat := math.Min(center.Lat()+radius, 90)

	full := orb.Bound{Min: orb.Point{-180, minLat}, Max: orb.Point{180, maxLat}}
	maxAbsLat := math.Max(math.Abs(minLat), math.Abs(maxLat))
	if maxAbsLat >= 90 {
		return full
	}

	// haversine: sin(dlon/2) <= sin(r/2) / sqrt(cos(lat1)cos(lat2))
	s := math.Sin(toRad(radius)/2) / math.Cos(toRad(maxAbsLat))
	if s >= 1 {
		return full
	}
	dLon := 2 * math.Asin(s) * 180 / math.Pi
	minLon, maxLon := center.Lon()-dLon, center.Lon()+dLon
	if minLon < -180 || maxLon > 180 {
		return full
	}
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
