package ports

import (
	"context"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// FeatureProvider fetches the vector layer as a GeoJSON FeatureCollection.
type FeatureProvider interface {
	FetchFeatures(ctx context.Context) ([]byte, error)
}

// RasterProvider fetches the raster layer: its metadata and a row-major
// little-endian float32 array with one value per cell.
type RasterProvider interface {
	FetchRasterMeta(ctx context.Context) (domain.RasterMeta, error)
	FetchRasterData(ctx context.Context) ([]byte, error)
}
