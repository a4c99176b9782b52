package domain

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// World covers the whole lon/lat plane.
var World = Bounds{MinLat: -90, MinLon: -180, MaxLat: 90, MaxLon: 180}
