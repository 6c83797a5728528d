package layer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// OpenGeoJSON reads a GeoJSON FeatureCollection into memory. Features whose
// geometry is not polygonal are dropped. The layer is named after the file
// without its extension.
func OpenGeoJSON(path string) (*MemoryLayer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "layer: read geojson %s", path)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ParseGeoJSON(name, data)
}

// ParseGeoJSON decodes a FeatureCollection into a layer with the given name.
func ParseGeoJSON(name string, data []byte) (*MemoryLayer, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "layer: decode geojson %s", name)
	}

	features := make([]Feature, 0, len(fc.Features))
	var skipped int
	for i, f := range fc.Features {
		switch f.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			skipped++
			continue
		}
		id := f.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		features = append(features, Feature{ID: id, Geometry: f.Geometry, Properties: f.Properties})
	}

	if skipped > 0 {
		zap.L().Debug("layer: skipped non-polygon geojson features",
			zap.String("layer", name),
			zap.Int("skipped", skipped),
		)
	}
	return NewMemoryLayer(name, features), nil
}

// ReadGeoJSONPoint extracts a point from a GeoJSON document holding a Point
// geometry, a Feature with a Point geometry, or a FeatureCollection whose
// first feature is a Point.
func ReadGeoJSONPoint(data []byte) (geom.Coord, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, eris.Wrap(err, "layer: decode geojson point")
	}

	var g geom.T
	switch head.Type {
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(data, &fc); err != nil {
			return nil, eris.Wrap(err, "layer: decode geojson point collection")
		}
		if len(fc.Features) == 0 {
			return nil, eris.New("layer: geojson point collection is empty")
		}
		g = fc.Features[0].Geometry
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, eris.Wrap(err, "layer: decode geojson point feature")
		}
		g = f.Geometry
	default:
		if err := geojson.Unmarshal(data, &g); err != nil {
			return nil, eris.Wrap(err, "layer: decode geojson point geometry")
		}
	}

	p, ok := g.(*geom.Point)
	if !ok || p == nil || p.Empty() {
		return nil, eris.Errorf("layer: geojson geometry is %T, want a point", g)
	}
	return geom.Coord{p.X(), p.Y()}, nil
}
