//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/samirrijal/tactilemap/internal/adapters/postgres"
	"github.com/samirrijal/tactilemap/internal/core/features"
	"github.com/samirrijal/tactilemap/internal/pkg/config"
)

// setupTestDB connects to the configured database and applies migrations.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("tactilemap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		t.Skipf("database unavailable: %v", err)
	}
	t.Cleanup(db.Close)

	if _, err := postgres.Migrate(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestFeatureRepo_ImportAndFetch(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewFeatureRepo(db, "map_features")
	ctx := context.Background()

	collection := `{"type":"FeatureCollection","features":[
	  {"type":"Feature","id":"a","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"zeta":"Fountain","alpha":1}},
	  {"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[4,0],[4,4],[0,4],[0,0]]]},"properties":{"name":"Park"}},
	  {"type":"Feature","geometry":null,"properties":null}
	]}`

	n, err := repo.ImportCollection(ctx, []byte(collection))
	if err != nil {
		t.Fatalf("ImportCollection() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("imported %d features, want 3", n)
	}

	data, err := repo.FetchFeatures(ctx)
	if err != nil {
		t.Fatalf("FetchFeatures() error = %v", err)
	}
	fs, err := features.ParseFeatureCollection(data)
	if err != nil {
		t.Fatalf("round-tripped collection invalid: %v", err)
	}
	if len(fs) != 3 {
		t.Fatalf("fetched %d features, want 3", len(fs))
	}
	if fs[0].Name() != "Fountain" {
		t.Errorf("first property order lost: %q", fs[0].Name())
	}
	if fs[1].Kind() != "Polygon" || fs[2].Geometry != nil {
		t.Errorf("geometries = %s, %v", fs[1].Kind(), fs[2].Geometry)
	}
}

func TestFeatureRepo_ImportRejectsInvalid(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewFeatureRepo(db, "map_features")

	if _, err := repo.ImportCollection(context.Background(), []byte(`{"type":"Feature"}`)); err == nil {
		t.Error("expected error for invalid collection")
	}
}
