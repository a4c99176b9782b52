package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/tactilemap/internal/core/domain"
)

// ErrInvalidFeatureCollection wraps every validation failure of a vector
// payload. A payload either loads completely or not at all.
var ErrInvalidFeatureCollection = errors.New("invalid feature collection")

// coordinate nesting depth per geometry type
var geometryDepth = map[string]int{
	"Point":           1,
	"MultiPoint":      2,
	"LineString":      2,
	"MultiLineString": 3,
	"Polygon":         3,
	"MultiPolygon":    4,
}

type rawCollection struct {
	Type     string       `json:"type"`
	Features []rawFeature `json:"features"`
}

type rawFeature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

type rawGeometry struct {
	Type        string            `json:"type"`
	Coordinates json.RawMessage   `json:"coordinates"`
	Geometries  []json.RawMessage `json:"geometries"`
}

// ParseFeatureCollection validates a GeoJSON FeatureCollection and converts
// it to features in document order.
func ParseFeatureCollection(data []byte) ([]*domain.Feature, error) {
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeatureCollection, err)
	}
	if raw.Type != "FeatureCollection" {
		return nil, fmt.Errorf("%w: type %q", ErrInvalidFeatureCollection, raw.Type)
	}
	if raw.Features == nil {
		return nil, fmt.Errorf("%w: missing features", ErrInvalidFeatureCollection)
	}

	firstKeys := make([]string, len(raw.Features))
	for i, f := range raw.Features {
		if f.Type != "Feature" {
			return nil, fmt.Errorf("%w: feature %d: type %q", ErrInvalidFeatureCollection, i, f.Type)
		}
		if err := validateGeometry(f.Geometry); err != nil {
			return nil, fmt.Errorf("%w: feature %d: %v", ErrInvalidFeatureCollection, i, err)
		}
		key, err := firstKey(f.Properties)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %d: properties: %v", ErrInvalidFeatureCollection, i, err)
		}
		firstKeys[i] = key
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeatureCollection, err)
	}
	if len(fc.Features) != len(raw.Features) {
		return nil, fmt.Errorf("%w: decoded %d of %d features", ErrInvalidFeatureCollection, len(fc.Features), len(raw.Features))
	}

	out := make([]*domain.Feature, len(fc.Features))
	for i, f := range fc.Features {
		out[i] = &domain.Feature{
			ID:            f.ID,
			Geometry:      f.Geometry,
			Properties:    map[string]any(f.Properties),
			FirstProperty: firstKeys[i],
		}
	}
	return out, nil
}

func validateGeometry(raw json.RawMessage) error {
	if isNull(raw) {
		return nil
	}
	var g rawGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return fmt.Errorf("geometry: %v", err)
	}
	if g.Type == "GeometryCollection" {
		if g.Geometries == nil {
			return errors.New("geometry collection without geometries")
		}
		for i, member := range g.Geometries {
			if isNull(member) {
				return fmt.Errorf("geometry collection member %d is null", i)
			}
			if err := validateGeometry(member); err != nil {
				return fmt.Errorf("member %d: %w", i, err)
			}
		}
		return nil
	}

	depth, ok := geometryDepth[g.Type]
	if !ok {
		return fmt.Errorf("unknown geometry type %q", g.Type)
	}
	if isNull(g.Coordinates) {
		return fmt.Errorf("%s without coordinates", g.Type)
	}
	var coords any
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return fmt.Errorf("%s coordinates: %v", g.Type, err)
	}
	if err := checkCoords(coords, depth); err != nil {
		return fmt.Errorf("%s coordinates: %w", g.Type, err)
	}
	return nil
}

// checkCoords verifies v is nested depth arrays deep with positions of at
// least two numbers at the bottom.
func checkCoords(v any, depth int) error {
	arr, ok := v.([]any)
	if !ok {
		return errors.New("expected array")
	}
	if depth == 1 {
		if len(arr) < 2 {
			return fmt.Errorf("position has %d values", len(arr))
		}
		for _, n := range arr {
			if _, ok := n.(float64); !ok {
				return errors.New("position value is not a number")
			}
		}
		return nil
	}
	for _, child := range arr {
		if err := checkCoords(child, depth-1); err != nil {
			return err
		}
	}
	return nil
}

// firstKey returns the first member name of a JSON object in document order.
func firstKey(raw json.RawMessage) (string, error) {
	if isNull(raw) {
		return "", nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", errors.New("expected object")
	}
	if !dec.More() {
		return "", nil
	}
	tok, err = dec.Token()
	if err != nil {
		return "", err
	}
	key, _ := tok.(string)
	return key, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
