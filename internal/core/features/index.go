package features

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/pkg/geospatial"
)

// rtree parameters and the minimum side length of a leaf rectangle
const (
	treeMinChildren = 25
	treeMaxChildren = 50
	minRectSide     = 1e-9
	searchPad       = 1e-7
)

// Relation is how a touched point relates to a geometry.
type Relation int

const (
	RelationNone Relation = iota
	RelationNear
	RelationInside
)

type entry struct {
	feature *domain.Feature
	order   int
	rect    rtreego.Rect
}

func (e *entry) Bounds() rtreego.Rect { return e.rect }

type snapshot struct {
	tree     *rtreego.Rtree
	features []*domain.Feature
}

// Index answers "which features are under or near this point". Loads swap
// the whole snapshot so concurrent queries see either the old or the new
// dataset, never a mix.
type Index struct {
	snap       atomic.Pointer[snapshot]
	generation atomic.Uint64
}

func NewIndex() *Index {
	return &Index{}
}

// Load replaces the indexed dataset. Features with a null or empty geometry
// are kept for ordering but never match.
func (ix *Index) Load(features []*domain.Feature) {
	s := &snapshot{
		tree:     rtreego.NewTree(2, treeMinChildren, treeMaxChildren),
		features: features,
	}
	for i, f := range features {
		if f == nil || f.Geometry == nil {
			continue
		}
		b, ok := geometryBound(f.Geometry)
		if !ok {
			continue
		}
		rect, err := rectFromBound(b, minRectSide)
		if err != nil {
			continue
		}
		s.tree.Insert(&entry{feature: f, order: i, rect: rect})
	}
	ix.snap.Store(s)
	ix.generation.Add(1)
}

// Generation increases on every Load.
func (ix *Index) Generation() uint64 {
	return ix.generation.Load()
}

// Len is the number of loaded features.
func (ix *Index) Len() int {
	s := ix.snap.Load()
	if s == nil {
		return 0
	}
	return len(s.features)
}

// Features returns the loaded dataset in document order.
func (ix *Index) Features() []*domain.Feature {
	s := ix.snap.Load()
	if s == nil {
		return nil
	}
	return s.features
}

// Query returns every feature matching p within radius degrees, in load
// order, each at most once. Before the first Load it returns nil.
func (ix *Index) Query(p orb.Point, radius float64) []*domain.Feature {
	s := ix.snap.Load()
	if s == nil || s.tree.Size() == 0 {
		return nil
	}
	if radius < 0 {
		radius = 0
	}

	rect, err := rectFromBound(padBound(geospatial.SearchBound(p, radius), searchPad), minRectSide)
	if err != nil {
		return nil
	}

	var hits []*entry
	for _, sp := range s.tree.SearchIntersect(rect) {
		e := sp.(*entry)
		if Match(e.feature.Geometry, p, radius) != RelationNone {
			hits = append(hits, e)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].order < hits[j].order })

	out := make([]*domain.Feature, 0, len(hits))
	for i, e := range hits {
		if i > 0 && hits[i-1].feature == e.feature {
			continue
		}
		out = append(out, e.feature)
	}
	return out
}

// Match tests p against g: points within radius inclusive, lines strictly
// closer than radius, polygons by containment with holes excluded. A
// collection matches when any member does, containment winning over
// proximity.
func Match(g orb.Geometry, p orb.Point, radius float64) Relation {
	switch g := g.(type) {
	case orb.Point:
		if geospatial.Distance(p, g) <= radius {
			return RelationNear
		}
	case orb.MultiPoint:
		for _, pt := range g {
			if geospatial.Distance(p, pt) <= radius {
				return RelationNear
			}
		}
	case orb.LineString:
		if geospatial.PointToLineDistance(p, g) < radius {
			return RelationNear
		}
	case orb.MultiLineString:
		for _, ls := range g {
			if geospatial.PointToLineDistance(p, ls) < radius {
				return RelationNear
			}
		}
	case orb.Polygon:
		if geospatial.PointInPolygon(p, g) {
			return RelationInside
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			if geospatial.PointInPolygon(p, poly) {
				return RelationInside
			}
		}
	case orb.Collection:
		best := RelationNone
		for _, member := range g {
			if r := Match(member, p, radius); r > best {
				best = r
			}
		}
		return best
	}
	return RelationNone
}

// MatchingMember returns the first member of a collection that relates to
// p the same way the collection does, or g itself for simple geometries.
func MatchingMember(g orb.Geometry, p orb.Point, radius float64) orb.Geometry {
	c, ok := g.(orb.Collection)
	if !ok {
		return g
	}
	want := Match(c, p, radius)
	for _, member := range c {
		if Match(member, p, radius) == want {
			return MatchingMember(member, p, radius)
		}
	}
	return g
}

func geometryBound(g orb.Geometry) (orb.Bound, bool) {
	switch g := g.(type) {
	case orb.LineString:
		if len(g) == 0 {
			return orb.Bound{}, false
		}
		return geospatial.LineBound(g), true
	case orb.MultiLineString:
		return unionBounds(len(g), func(i int) (orb.Bound, bool) { return geometryBound(g[i]) })
	case orb.Collection:
		return unionBounds(len(g), func(i int) (orb.Bound, bool) { return geometryBound(g[i]) })
	case orb.Point:
		return g.Bound(), true
	case orb.MultiPoint:
		return g.Bound(), len(g) > 0
	case orb.Polygon:
		return g.Bound(), len(g) > 0 && len(g[0]) > 0
	case orb.MultiPolygon:
		return unionBounds(len(g), func(i int) (orb.Bound, bool) { return geometryBound(g[i]) })
	}
	return orb.Bound{}, false
}

func unionBounds(n int, at func(int) (orb.Bound, bool)) (orb.Bound, bool) {
	var out orb.Bound
	found := false
	for i := 0; i < n; i++ {
		b, ok := at(i)
		if !ok {
			continue
		}
		if !found {
			out, found = b, true
			continue
		}
		out = out.Union(b)
	}
	return out, found
}

func padBound(b orb.Bound, pad float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.Min[0] - pad, b.Min[1] - pad},
		Max: orb.Point{b.Max[0] + pad, b.Max[1] + pad},
	}
}

func rectFromBound(b orb.Bound, minSide float64) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min[0], b.Min[1]},
		[]float64{
			math.Max(b.Max[0]-b.Min[0], minSide),
			math.Max(b.Max[1]-b.Min[1], minSide),
		},
	)
}
