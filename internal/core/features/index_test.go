package features_test

import (
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
	"github.com/samirrijal/tactilemap/internal/core/features"
)

func feature(name string, g orb.Geometry) *domain.Feature {
	return &domain.Feature{
		Geometry:      g,
		Properties:    map[string]any{"name": name},
		FirstProperty: "name",
	}
}

func square(minX, minY, maxX, maxY float64) orb.Ring {
	return orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}
}

func names(fs []*domain.Feature) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.Name()
	}
	return out
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIndex_QueryBeforeLoad(t *testing.T) {
	ix := features.NewIndex()
	if got := ix.Query(orb.Point{0, 0}, 5); len(got) != 0 {
		t.Errorf("expected no results before load, got %d", len(got))
	}
	if ix.Generation() != 0 || ix.Len() != 0 {
		t.Errorf("fresh index should be empty at generation 0")
	}
}

func TestIndex_PolygonWithHole(t *testing.T) {
	ring := orb.Polygon{square(0, 0, 10, 10), square(4, 4, 6, 6)}
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{feature("Park", ring)})

	tests := []struct {
		name string
		p    orb.Point
		want int
	}{
		{"inside outer ring", orb.Point{2, 2}, 1},
		{"inside hole", orb.Point{5, 5}, 0},
		{"outside", orb.Point{12, 12}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ix.Query(tt.p, 0.5); len(got) != tt.want {
				t.Errorf("Query(%v) returned %d features, want %d", tt.p, len(got), tt.want)
			}
		})
	}
}

func TestIndex_PointRadiusInclusive(t *testing.T) {
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{feature("Bench", orb.Point{0, 0})})

	if got := ix.Query(orb.Point{0, 4.9}, 5); len(got) != 1 {
		t.Errorf("expected bench within radius, got %d", len(got))
	}
	if got := ix.Query(orb.Point{0, 5.1}, 5); len(got) != 0 {
		t.Errorf("expected bench outside radius, got %d", len(got))
	}
	if got := ix.Query(orb.Point{0, 0}, 0); len(got) != 1 {
		t.Errorf("zero radius should still match the exact point, got %d", len(got))
	}
}

func TestIndex_LineDistance(t *testing.T) {
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{feature("River", orb.LineString{{-10, 0}, {10, 0}})})

	if got := ix.Query(orb.Point{0, 1}, 2); len(got) != 1 {
		t.Errorf("expected river within 2 degrees, got %d", len(got))
	}
	if got := ix.Query(orb.Point{0, 3}, 2); len(got) != 0 {
		t.Errorf("expected river out of range, got %d", len(got))
	}
}

func TestIndex_InsertionOrderWithoutDuplicates(t *testing.T) {
	fs := []*domain.Feature{
		feature("C", orb.Polygon{square(-5, -5, 5, 5)}),
		feature("A", orb.Point{0.5, 0.5}),
		feature("Z", orb.Point{90, 0}),
		feature("B", orb.MultiPolygon{{square(-1, -1, 1, 1)}, {square(-2, -2, 2, 2)}}),
	}
	ix := features.NewIndex()
	ix.Load(fs)

	got := names(ix.Query(orb.Point{0, 0}, 1))
	want := []string{"C", "A", "B"}
	if !equalNames(got, want) {
		t.Errorf("Query() = %v, want %v", got, want)
	}
}

func TestIndex_CollectionMatchesAnyMember(t *testing.T) {
	c := orb.Collection{orb.Point{50, 50}, orb.Polygon{square(0, 0, 2, 2)}}
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{feature("Campus", c)})

	if got := ix.Query(orb.Point{1, 1}, 0.1); len(got) != 1 {
		t.Errorf("expected polygon member to match, got %d", len(got))
	}
	if got := ix.Query(orb.Point{50, 50.05}, 0.1); len(got) != 1 {
		t.Errorf("expected point member to match, got %d", len(got))
	}
	if got := ix.Query(orb.Point{25, 25}, 0.1); len(got) != 0 {
		t.Errorf("expected no match between members, got %d", len(got))
	}

	if m := features.MatchingMember(c, orb.Point{1, 1}, 0.1); m.GeoJSONType() != "Polygon" {
		t.Errorf("MatchingMember() = %s, want Polygon", m.GeoJSONType())
	}
}

func TestIndex_NullGeometryNeverMatches(t *testing.T) {
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{feature("Ghost", nil), feature("Real", orb.Point{0, 0})})

	got := names(ix.Query(orb.Point{0, 0}, 1))
	if !equalNames(got, []string{"Real"}) {
		t.Errorf("Query() = %v", got)
	}
	if ix.Len() != 2 {
		t.Errorf("Len() = %d, want 2", ix.Len())
	}
}

func TestIndex_LoadReplacesDataset(t *testing.T) {
	ix := features.NewIndex()
	ix.Load([]*domain.Feature{feature("Old", orb.Point{0, 0})})
	gen := ix.Generation()
	ix.Load([]*domain.Feature{feature("New", orb.Point{0, 0})})

	if ix.Generation() <= gen {
		t.Errorf("generation did not advance")
	}
	got := names(ix.Query(orb.Point{0, 0}, 1))
	if !equalNames(got, []string{"New"}) {
		t.Errorf("Query() = %v, want [New]", got)
	}
}

func TestMatch_Relations(t *testing.T) {
	if r := features.Match(orb.Polygon{square(0, 0, 1, 1)}, orb.Point{0.5, 0.5}, 0); r != features.RelationInside {
		t.Errorf("expected inside, got %v", r)
	}
	if r := features.Match(orb.Point{0, 0}, orb.Point{0, 0.5}, 1); r != features.RelationNear {
		t.Errorf("expected near, got %v", r)
	}
	if r := features.Match(orb.LineString{{0, 0}, {1, 0}}, orb.Point{0.5, 1.5}, 1); r != features.RelationNone {
		t.Errorf("line beyond radius should not match, got %v", r)
	}
}
