package report

import (
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/derogation-cli/internal/derogation"
)

// BufferFeature describes the analysis buffer of r as a GeoJSON feature with
// the verdict and per-zone areas as properties.
func BufferFeature(r *derogation.Report) (*geojson.Feature, error) {
	if r.Buffer == nil || r.Buffer.Polygon == nil {
		return nil, eris.New("report: report carries no buffer geometry")
	}

	areas := make(map[string]any, len(r.Results))
	for _, res := range r.Results {
		areas[res.Technical] = res.Area
	}

	return &geojson.Feature{
		ID:       r.RunID,
		Geometry: r.Buffer.Polygon,
		Properties: map[string]any{
			"name":             "Zone d'Analyse",
			"x":                r.Point.X,
			"y":                r.Point.Y,
			"radius":           r.Radius,
			"area":             r.BufferArea,
			"reference_system": r.ReferenceSystem,
			"verdict":          string(r.Verdict.Kind),
			"nearby":           r.Nearby,
			"zone_areas":       areas,
		},
	}, nil
}

// WriteBufferGeoJSON writes the buffer of r as a FeatureCollection.
func WriteBufferGeoJSON(w io.Writer, r *derogation.Report) error {
	f, err := BufferFeature(r)
	if err != nil {
		return err
	}
	fc := geojson.FeatureCollection{Features: []*geojson.Feature{f}}
	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrap(err, "report: marshal buffer geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "report: write buffer geojson")
	}
	return nil
}

// SaveBufferGeoJSON writes the buffer of r to a file at path.
func SaveBufferGeoJSON(path string, r *derogation.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	if err := WriteBufferGeoJSON(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}
