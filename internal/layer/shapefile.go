package layer

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/geometry"
)

// OpenShapefile reads a polygon shapefile into memory. The layer is named
// after the file without its extension.
func OpenShapefile(shpPath string) (*MemoryLayer, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	var features []Feature
	var skipped int
	for reader.Next() {
		n, shape := reader.Shape()

		g, err := ShapeGeometry(shape)
		if err != nil {
			skipped++
			continue
		}

		props := make(map[string]any, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			if val != "" {
				props[name] = val
			}
		}

		features = append(features, Feature{
			ID:         strconv.Itoa(n),
			Geometry:   g,
			Properties: props,
		})
	}

	name := strings.TrimSuffix(filepath.Base(shpPath), filepath.Ext(shpPath))
	if skipped > 0 {
		zap.L().Debug("layer: skipped shapefile records",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}

	return NewMemoryLayer(name, features), nil
}

// ShapeGeometry converts a shapefile polygon into a MultiPolygon. Clockwise
// parts start a new polygon; counter-clockwise parts are holes of the
// polygon before them.
func ShapeGeometry(shape shp.Shape) (*geom.MultiPolygon, error) {
	p, ok := shape.(*shp.Polygon)
	if !ok {
		return nil, eris.Wrapf(geometry.ErrMalformed, "layer: unsupported shape %T", shape)
	}
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil, eris.Wrap(geometry.ErrMalformed, "layer: empty polygon shape")
	}

	var polys [][][]geom.Coord
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if start < 0 || end > int32(len(p.Points)) || start >= end {
			return nil, eris.Wrapf(geometry.ErrMalformed, "layer: bad part %d bounds", i)
		}

		ring := make([]geom.Coord, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, geom.Coord{p.Points[j].X, p.Points[j].Y})
		}

		if geometry.SignedArea(ring) <= 0 || len(polys) == 0 {
			polys = append(polys, [][]geom.Coord{ring})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], ring)
	}

	mp, err := geom.NewMultiPolygon(geom.XY).SetCoords(polys)
	if err != nil {
		return nil, eris.Wrap(geometry.ErrMalformed, "layer: build multipolygon: "+err.Error())
	}
	return mp, nil
}
