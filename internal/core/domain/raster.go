package domain

import "github.com/paulmach/orb"

// RasterMeta describes a north-up grid as served by a raster provider.
type RasterMeta struct {
	Origin      [2]float64 `json:"origin"` // [lon, lat] of the top-left corner
	Width       int        `json:"width"`
	Height      int        `json:"height"`
	Resolution  float64    `json:"resolution"`
	NoDataValue *float64   `json:"no_data_value,omitempty"`
}

// RasterGrid is a loaded raster. Values[y*Width+x] is cell (x, y).
// Min and Max cover finite, non-no-data values only.
type RasterGrid struct {
	TopLeft     orb.Point
	XResolution float64
	YResolution float64 // negative for north-down rows
	Width       int
	Height      int
	Values      []float64
	Min         float64
	Max         float64
	NoData      *float64
}
