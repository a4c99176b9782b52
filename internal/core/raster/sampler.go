package raster

import (
	"math"
	"sync/atomic"

	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// Sampler answers value lookups against the currently loaded grid. Before
// the first Load every lookup is out of bounds.
type Sampler struct {
	grid atomic.Pointer[domain.RasterGrid]
}

func NewSampler() *Sampler {
	return &Sampler{}
}

// Load swaps in g. The previous grid stays visible to lookups already in
// progress.
func (s *Sampler) Load(g *domain.RasterGrid) {
	s.grid.Store(g)
}

// Grid returns the loaded grid, or nil.
func (s *Sampler) Grid() *domain.RasterGrid {
	return s.grid.Load()
}

// CoordsToCell maps a lon/lat point to grid indices. The indices are
// returned even when they fall outside the grid; ok is false only when no
// grid is loaded.
func (s *Sampler) CoordsToCell(p orb.Point) (x, y int, ok bool) {
	g := s.grid.Load()
	if g == nil {
		return 0, 0, false
	}
	x, y = coordsToCell(g, p)
	return x, y, true
}

// ValueAt returns the sample under p. Out-of-bounds cells and no-data
// cells both report ok=false.
func (s *Sampler) ValueAt(p orb.Point) (float64, bool) {
	g := s.grid.Load()
	if g == nil {
		return 0, false
	}
	x, y := coordsToCell(g, p)
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return 0, false
	}
	v := g.Values[y*g.Width+x]
	if !usable(v, g.NoData) {
		return 0, false
	}
	return v, true
}

// CellToCoords returns the top-left corner of cell (x, y).
func (s *Sampler) CellToCoords(x, y int) (orb.Point, bool) {
	g := s.grid.Load()
	if g == nil {
		return orb.Point{}, false
	}
	return orb.Point{
		g.TopLeft[0] + float64(x)*g.XResolution,
		g.TopLeft[1] + float64(y)*g.YResolution,
	}, true
}

// Bounds is the lon/lat extent of the loaded grid.
func (s *Sampler) Bounds() (orb.Bound, bool) {
	g := s.grid.Load()
	if g == nil {
		return orb.Bound{}, false
	}
	right := g.TopLeft[0] + float64(g.Width)*g.XResolution
	bottom := g.TopLeft[1] + float64(g.Height)*g.YResolution
	return orb.Bound{
		Min: orb.Point{math.Min(g.TopLeft[0], right), math.Min(g.TopLeft[1], bottom)},
		Max: orb.Point{math.Max(g.TopLeft[0], right), math.Max(g.TopLeft[1], bottom)},
	}, true
}

// Frequency maps v onto the settings' range using the loaded grid's
// min/max.
func (s *Sampler) Frequency(v float64, settings domain.AudioSettings) float64 {
	g := s.grid.Load()
	if g == nil {
		return settings.MinFreq
	}
	return FrequencyFor(v, g.Min, g.Max, settings)
}

// FrequencyFor linearly maps value from [min, max] to
// [settings.MinFreq, settings.MaxFreq]. A flat grid maps to MinFreq.
func FrequencyFor(value, min, max float64, settings domain.AudioSettings) float64 {
	if max == min {
		return settings.MinFreq
	}
	return settings.MinFreq + (value-min)/(max-min)*(settings.MaxFreq-settings.MinFreq)
}

func coordsToCell(g *domain.RasterGrid, p orb.Point) (int, int) {
	fx := math.Floor((p[0] - g.TopLeft[0]) / g.XResolution)
	fy := math.Floor((p[1] - g.TopLeft[1]) / g.YResolution)
	return clampIndex(fx), clampIndex(fy)
}

// clampIndex keeps far out-of-range and NaN coordinates from overflowing
// the int conversion while preserving their out-of-bounds sign.
func clampIndex(f float64) int {
	switch {
	case math.IsNaN(f):
		return -1
	case f < math.MinInt32:
		return math.MinInt32
	case f > math.MaxInt32:
		return math.MaxInt32
	}
	return int(f)
}
