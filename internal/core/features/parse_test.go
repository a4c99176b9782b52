package features_test

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"

	"github.com/samirrijal/tactilemap/internal/core/features"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 7, "geometry": {"type": "Point", "coordinates": [1, 2]},
     "properties": {"zeta": "Fountain", "alpha": "ignored"}},
    {"type": "Feature", "geometry": {"type": "Polygon", "coordinates": [[[0,0],[4,0],[4,4],[0,4],[0,0]]]},
     "properties": {}},
    {"type": "Feature", "geometry": null, "properties": {"name": "nowhere"}},
    {"type": "Feature", "geometry": {"type": "GeometryCollection", "geometries": [
      {"type": "LineString", "coordinates": [[0,0],[1,1]]},
      {"type": "Point", "coordinates": [3, 3]}
    ]}, "properties": {"kind": "mixed"}}
  ]
}`

func TestParseFeatureCollection_DocumentOrderAndFirstProperty(t *testing.T) {
	got, err := features.ParseFeatureCollection([]byte(sampleCollection))
	if err != nil {
		t.Fatalf("ParseFeatureCollection() error = %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 features, got %d", len(got))
	}
	if got[0].FirstProperty != "zeta" || got[0].Name() != "Fountain" {
		t.Errorf("first feature: key %q name %q", got[0].FirstProperty, got[0].Name())
	}
	if got[0].Kind() != "Point" {
		t.Errorf("expected Point, got %q", got[0].Kind())
	}
	if _, ok := got[1].Geometry.(orb.Polygon); !ok {
		t.Errorf("expected orb.Polygon, got %T", got[1].Geometry)
	}
	if got[1].Name() != "feature" {
		t.Errorf("feature without properties or id should be named %q, got %q", "feature", got[1].Name())
	}
	if got[2].Geometry != nil {
		t.Errorf("null geometry should stay nil, got %T", got[2].Geometry)
	}
	if c, ok := got[3].Geometry.(orb.Collection); !ok || len(c) != 2 {
		t.Errorf("expected two-member collection, got %#v", got[3].Geometry)
	}
}

func TestParseFeatureCollection_IDFallback(t *testing.T) {
	data := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":"pier-3","geometry":{"type":"Point","coordinates":[0,0]},"properties":null}]}`
	got, err := features.ParseFeatureCollection([]byte(data))
	if err != nil {
		t.Fatalf("ParseFeatureCollection() error = %v", err)
	}
	if got[0].Name() != "pier-3" {
		t.Errorf("expected id fallback, got %q", got[0].Name())
	}
}

func TestParseFeatureCollection_EmptyCollection(t *testing.T) {
	got, err := features.ParseFeatureCollection([]byte(`{"type":"FeatureCollection","features":[]}`))
	if err != nil {
		t.Fatalf("ParseFeatureCollection() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no features, got %d", len(got))
	}
}

func TestParseFeatureCollection_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"type":`},
		{"wrong collection type", `{"type":"Feature","features":[]}`},
		{"missing features", `{"type":"FeatureCollection"}`},
		{"wrong feature type", `{"type":"FeatureCollection","features":[{"type":"Point","geometry":null,"properties":{}}]}`},
		{"unknown geometry", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Circle","coordinates":[0,0]},"properties":{}}]}`},
		{"short position", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1]},"properties":{}}]}`},
		{"string coordinate", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":["a","b"]},"properties":{}}]}`},
		{"wrong nesting", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[0,0],[1,1]]},"properties":{}}]}`},
		{"missing coordinates", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"LineString"},"properties":{}}]}`},
		{"bad collection member", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"GeometryCollection","geometries":[{"type":"Nope"}]},"properties":{}}]}`},
		{"properties not object", `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":null,"properties":[1,2]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := features.ParseFeatureCollection([]byte(tt.data))
			if !errors.Is(err, features.ErrInvalidFeatureCollection) {
				t.Errorf("expected ErrInvalidFeatureCollection, got %v", err)
			}
		})
	}
}
