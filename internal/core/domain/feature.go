package domain

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Feature is one vector geometry plus its attributes. Features are
// immutable once loaded and compared by pointer identity.
type Feature struct {
	ID         any            `json:"id,omitempty"`
	Geometry   orb.Geometry   `json:"-"`
	Properties map[string]any `json:"properties"`

	// FirstProperty is the key of the first property in document order,
	// captured at parse time because Properties is unordered.
	FirstProperty string `json:"-"`
}

// Kind returns the GeoJSON geometry type, or "" for a null geometry.
func (f *Feature) Kind() string {
	if f == nil || f.Geometry == nil {
		return ""
	}
	return f.Geometry.GeoJSONType()
}

// Name is the spoken label: the first property value, falling back to the
// id and finally to "feature".
func (f *Feature) Name() string {
	if f.FirstProperty != "" {
		if v, ok := f.Properties[f.FirstProperty]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	if f.ID != nil {
		return fmt.Sprint(f.ID)
	}
	return "feature"
}

// Polygonal reports whether the geometry is answered by containment.
func (f *Feature) Polygonal() bool {
	switch f.Geometry.(type) {
	case orb.Polygon, orb.MultiPolygon:
		return true
	}
	return false
}
