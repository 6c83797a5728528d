package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// GeometryLoad describes a bulk load of polygon features into a PostGIS
// table.
type GeometryLoad struct {
	Schema string
	Table  string
	SRID   int
	// Replace empties the table before loading.
	Replace bool
}

// GeometryRow is one feature to load. Geometry is EWKB; Properties is a JSON
// object or nil.
type GeometryRow struct {
	FeatureID  string
	Properties []byte
	Geometry   []byte
}

var geometryColumns = []string{"feature_id", "properties", "geom_ewkb"}

// LoadGeometries loads rows into cfg.Schema.cfg.Table in one transaction.
//  1. Creates the schema, table and GiST index when missing
//  2. Optionally truncates the table
//  3. COPYs rows into a temp table
//  4. INSERT INTO target SELECT ... converting EWKB to MultiPolygon in SRID
func LoadGeometries(ctx context.Context, pool Pool, cfg GeometryLoad, rows []GeometryRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if cfg.Schema == "" || cfg.Table == "" {
		return 0, eris.New("db: load: schema and table are required")
	}
	if cfg.SRID <= 0 {
		return 0, eris.Errorf("db: load: invalid srid %d", cfg.SRID)
	}

	target := pgx.Identifier{cfg.Schema, cfg.Table}.Sanitize()
	tempTable := "_tmp_load_" + cfg.Table

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: load: begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ddl := []string{
		fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pgx.Identifier{cfg.Schema}.Sanitize()),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id bigserial PRIMARY KEY,
			feature_id text NOT NULL,
			properties jsonb,
			geom geometry(MultiPolygon, %d) NOT NULL
		)`, target, cfg.SRID),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s USING gist (geom)",
			pgx.Identifier{cfg.Table + "_geom_idx"}.Sanitize(), target),
	}
	if cfg.Replace {
		ddl = append(ddl, fmt.Sprintf("TRUNCATE %s", target))
	}
	ddl = append(ddl, fmt.Sprintf(
		"CREATE TEMP TABLE %s (feature_id text, properties text, geom_ewkb bytea) ON COMMIT DROP",
		pgx.Identifier{tempTable}.Sanitize(),
	))
	for _, stmt := range ddl {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return 0, eris.Wrapf(err, "db: load: prepare %s", target)
		}
	}

	copyRows := make([][]any, len(rows))
	for i, r := range rows {
		var props any
		if r.Properties != nil {
			props = string(r.Properties)
		}
		copyRows[i] = []any{r.FeatureID, props, r.Geometry}
	}
	if _, err := CopyFrom(ctx, tx, pgx.Identifier{tempTable}, geometryColumns, copyRows); err != nil {
		return 0, eris.Wrapf(err, "db: load: copy into temp table for %s", target)
	}

	insertSQL := fmt.Sprintf(
		`INSERT INTO %s (feature_id, properties, geom)
		SELECT feature_id, properties::jsonb, ST_Multi(ST_SetSRID(ST_GeomFromEWKB(geom_ewkb), %d))
		FROM %s`,
		target, cfg.SRID, pgx.Identifier{tempTable}.Sanitize(),
	)
	tag, err := tx.Exec(ctx, insertSQL)
	if err != nil {
		return 0, eris.Wrapf(err, "db: load: insert into %s", target)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: load: commit tx")
	}

	return tag.RowsAffected(), nil
}
