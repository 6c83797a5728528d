package layer

import (
	"context"
	"fmt"
	"iter"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/db"
	"github.com/sells-group/derogation-cli/internal/resilience"
)

// PostGIS lists the geometry tables of one schema as layers. Features are
// fetched on demand with an envelope filter so only candidates near the
// buffer leave the database.
type PostGIS struct {
	pool   db.Pool
	schema string
	srid   int
	retry  resilience.RetryConfig
}

// NewPostGIS creates a PostGIS provider. srid is the reference system of the
// query envelopes and must match the stored geometries.
func NewPostGIS(pool db.Pool, schema string, srid int) *PostGIS {
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger("postgis", "query")
	return &PostGIS{pool: pool, schema: schema, srid: srid, retry: retry}
}

// WithRetry replaces the retry policy used for catalog and feature queries.
func (p *PostGIS) WithRetry(cfg resilience.RetryConfig) *PostGIS {
	p.retry = cfg
	return p
}

// Layers implements Provider using the geometry_columns catalog view.
func (p *PostGIS) Layers(ctx context.Context) ([]Layer, error) {
	rows, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (pgx.Rows, error) {
		return p.pool.Query(ctx, `
			SELECT f_table_name, f_geometry_column, type
			FROM geometry_columns
			WHERE f_table_schema = $1
			ORDER BY f_table_name`, p.schema)
	})
	if err != nil {
		return nil, eris.Wrap(err, "layer: list postgis layers")
	}
	defer rows.Close()

	var layers []Layer
	for rows.Next() {
		l := &postgisLayer{provider: p}
		if err := rows.Scan(&l.table, &l.column, &l.geomType); err != nil {
			return nil, eris.Wrap(err, "layer: scan postgis layer")
		}
		layers = append(layers, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "layer: iterate postgis layers")
	}
	return layers, nil
}

type postgisLayer struct {
	provider *PostGIS
	table    string
	column   string
	geomType string
}

func (l *postgisLayer) Name() string { return l.table }

func (l *postgisLayer) GeometryType() string { return l.geomType }

func (l *postgisLayer) Features(ctx context.Context, bounds *geom.Bounds) iter.Seq2[Feature, error] {
	return func(yield func(Feature, error) bool) {
		p := l.provider
		table := pgx.Identifier{p.schema, l.table}.Sanitize()
		column := pgx.Identifier{l.column}.Sanitize()

		query := fmt.Sprintf(`SELECT ST_AsEWKB(%s) FROM %s`, column, table)
		var args []any
		if bounds != nil {
			query += fmt.Sprintf(` WHERE %s && ST_MakeEnvelope($1, $2, $3, $4, $5)`, column)
			args = []any{bounds.Min(0), bounds.Min(1), bounds.Max(0), bounds.Max(1), p.srid}
		}

		rows, err := resilience.DoVal(ctx, p.retry, func(ctx context.Context) (pgx.Rows, error) {
			return p.pool.Query(ctx, query, args...)
		})
		if err != nil {
			yield(Feature{}, eris.Wrapf(err, "layer: query postgis layer %s", l.table))
			return
		}
		defer rows.Close()

		var n, skipped int
		for rows.Next() {
			var data []byte
			if err := rows.Scan(&data); err != nil {
				yield(Feature{}, eris.Wrapf(err, "layer: scan postgis feature in %s", l.table))
				return
			}
			n++
			g, err := ewkb.Unmarshal(data)
			if err != nil {
				skipped++
				continue
			}
			if !yield(Feature{ID: strconv.Itoa(n), Geometry: g}, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(Feature{}, eris.Wrapf(err, "layer: iterate postgis layer %s", l.table))
			return
		}
		if skipped > 0 {
			zap.L().Debug("layer: skipped undecodable postgis rows",
				zap.String("layer", l.table),
				zap.Int("skipped", skipped),
			)
		}
	}
}
