package raster

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

var (
	ErrNoFiniteValues = errors.New("raster has no finite values")
	ErrShapeMismatch  = errors.New("raster data does not match metadata shape")
	ErrInvalidMeta    = errors.New("invalid raster metadata")
)

// DecodeValues reads a flat little-endian float32 array.
func DecodeValues(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a whole number of float32 values", ErrShapeMismatch, len(data))
	}
	out := make([]float32, len(data)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return out, nil
}

// NewGrid builds a north-up grid from metadata and row-major values.
// Non-finite and no-data cells stay in Values but are left out of Min/Max.
func NewGrid(meta domain.RasterMeta, values []float32) (*domain.RasterGrid, error) {
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("%w: size %dx%d", ErrInvalidMeta, meta.Width, meta.Height)
	}
	if !(meta.Resolution > 0) || math.IsInf(meta.Resolution, 0) {
		return nil, fmt.Errorf("%w: resolution %g", ErrInvalidMeta, meta.Resolution)
	}
	if len(values) != meta.Width*meta.Height {
		return nil, fmt.Errorf("%w: got %d values for %dx%d", ErrShapeMismatch, len(values), meta.Width, meta.Height)
	}

	g := &domain.RasterGrid{
		TopLeft:     orb.Point{meta.Origin[0], meta.Origin[1]},
		XResolution: meta.Resolution,
		YResolution: -meta.Resolution,
		Width:       meta.Width,
		Height:      meta.Height,
		Values:      make([]float64, len(values)),
		Min:         math.Inf(1),
		Max:         math.Inf(-1),
		NoData:      meta.NoDataValue,
	}
	found := false
	for i, v := range values {
		f := float64(v)
		g.Values[i] = f
		if !usable(f, g.NoData) {
			continue
		}
		found = true
		g.Min = math.Min(g.Min, f)
		g.Max = math.Max(g.Max, f)
	}
	if !found {
		return nil, ErrNoFiniteValues
	}
	return g, nil
}

func usable(v float64, noData *float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	return noData == nil || v != *noData
}
