package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/tactilemap/internal/core/features"
)

// FeatureRepo implements ports.FeatureProvider over a PostGIS table and
// assembles the FeatureCollection in the database.
type FeatureRepo struct {
	db    *DB
	table string
}

// NewFeatureRepo creates a FeatureRepo reading from table, which may be
// schema-qualified.
func NewFeatureRepo(db *DB, table string) *FeatureRepo {
	return &FeatureRepo{db: db, table: pgx.Identifier(strings.Split(table, ".")).Sanitize()}
}

// FetchFeatures returns every row as one GeoJSON FeatureCollection in
// ordinal order.
func (r *FeatureRepo) FetchFeatures(ctx context.Context) ([]byte, error) {
	query := fmt.Sprintf(`
		SELECT json_build_object(
			'type', 'FeatureCollection',
			'features', COALESCE(json_agg(json_build_object(
				'type', 'Feature',
				'id', feature_id,
				'geometry', ST_AsGeoJSON(geom)::json,
				'properties', properties
			) ORDER BY ordinal), '[]'::json)
		)::text
		FROM %s
	`, r.table)

	var doc string
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&doc); err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	return []byte(doc), nil
}

type importFeature struct {
	ID         json.RawMessage `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties json.RawMessage `json:"properties"`
}

// ImportCollection validates a FeatureCollection and replaces the table
// contents with it in one transaction. Raw property objects are stored as
// given so their key order survives.
func (r *FeatureRepo) ImportCollection(ctx context.Context, data []byte) (int, error) {
	if _, err := features.ParseFeatureCollection(data); err != nil {
		return 0, err
	}
	var doc struct {
		Features []importFeature `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("decode collection: %w", err)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, r.table)); err != nil {
		return 0, fmt.Errorf("clear features: %w", err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO %s (ordinal, feature_id, properties, geom)
		VALUES ($1, $2::json, COALESCE($3::json, '{}'::json), ST_SetSRID(ST_GeomFromGeoJSON($4::text), 4326))
	`, r.table)

	batch := &pgx.Batch{}
	for i, f := range doc.Features {
		batch.Queue(insert, i, nullableJSON(f.ID), nullableJSON(f.Properties), nullableJSON(f.Geometry))
	}
	br := tx.SendBatch(ctx, batch)
	for range doc.Features {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return 0, fmt.Errorf("batch exec: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("batch close: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(doc.Features), nil
}

// nullableJSON maps an absent or null member to SQL NULL.
func nullableJSON(raw json.RawMessage) *string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil
	}
	return &s
}
