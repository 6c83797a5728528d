package layer

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/derogation-cli/internal/geometry"
)

// gpkgEnvelopeSize maps the envelope indicator of a GeoPackage geometry
// header to the envelope length in bytes.
var gpkgEnvelopeSize = map[byte]int{0: 0, 1: 32, 2: 48, 3: 48, 4: 64}

type gpkgTable struct {
	name     string
	column   string
	geomType string
}

// OpenGeoPackage loads every feature table of a GeoPackage into memory,
// one layer per table, ordered by table name.
func OpenGeoPackage(ctx context.Context, path string) ([]Layer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: open geopackage %s", path)
	}
	defer func() { _ = db.Close() }()

	tables, err := gpkgFeatureTables(ctx, db)
	if err != nil {
		return nil, err
	}

	layers := make([]Layer, 0, len(tables))
	for _, t := range tables {
		l, err := loadGeoPackageTable(ctx, db, t)
		if err != nil {
			return nil, err
		}
		layers = append(layers, l)
	}
	return layers, nil
}

func gpkgFeatureTables(ctx context.Context, db *sql.DB) ([]gpkgTable, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.table_name, g.column_name, g.geometry_type_name
		FROM gpkg_contents c
		JOIN gpkg_geometry_columns g ON g.table_name = c.table_name
		WHERE c.data_type = 'features'
		ORDER BY c.table_name`)
	if err != nil {
		return nil, eris.Wrap(err, "layer: list geopackage feature tables")
	}
	defer func() { _ = rows.Close() }()

	var tables []gpkgTable
	for rows.Next() {
		var t gpkgTable
		if err := rows.Scan(&t.name, &t.column, &t.geomType); err != nil {
			return nil, eris.Wrap(err, "layer: scan geopackage table")
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "layer: iterate geopackage tables")
	}
	return tables, nil
}

func loadGeoPackageTable(ctx context.Context, db *sql.DB, t gpkgTable) (*MemoryLayer, error) {
	query := fmt.Sprintf(`SELECT rowid, %s FROM %s`, quoteIdent(t.column), quoteIdent(t.name))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: query geopackage table %s", t.name)
	}
	defer func() { _ = rows.Close() }()

	var features []Feature
	var skipped int
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, eris.Wrapf(err, "layer: scan geopackage row in %s", t.name)
		}
		g, err := DecodeGeoPackageGeometry(blob)
		if err != nil {
			skipped++
			continue
		}
		features = append(features, Feature{ID: strconv.FormatInt(id, 10), Geometry: g})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "layer: iterate geopackage table %s", t.name)
	}

	if skipped > 0 {
		zap.L().Debug("layer: skipped geopackage rows",
			zap.String("layer", t.name),
			zap.Int("skipped", skipped),
		)
	}

	l := NewMemoryLayer(t.name, features)
	if l.geomType == TypeUnknown && t.geomType != "" {
		l.geomType = t.geomType
	}
	return l, nil
}

// DecodeGeoPackageGeometry parses a GeoPackage binary geometry: the "GP"
// header, an optional envelope, then standard WKB.
func DecodeGeoPackageGeometry(blob []byte) (geom.T, error) {
	if len(blob) < 8 || blob[0] != 'G' || blob[1] != 'P' {
		return nil, eris.Wrap(geometry.ErrMalformed, "layer: not a geopackage geometry")
	}
	flags := blob[3]
	if flags&0x10 != 0 {
		return nil, eris.Wrap(geometry.ErrMalformed, "layer: empty geopackage geometry")
	}
	size, ok := gpkgEnvelopeSize[(flags>>1)&0x07]
	if !ok {
		return nil, eris.Wrapf(geometry.ErrMalformed, "layer: bad geopackage envelope flags %#x", flags)
	}
	offset := 8 + size
	if len(blob) <= offset {
		return nil, eris.Wrap(geometry.ErrMalformed, "layer: truncated geopackage geometry")
	}

	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, eris.Wrap(geometry.ErrMalformed, "layer: decode geopackage wkb: "+err.Error())
	}
	return g, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
