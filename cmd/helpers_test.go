//go:build !integration

package main

import (
	"github.com/twpayne/go-geom"

	"github.com/sells-group/derogation-cli/internal/layer"
)

func square(minX, minY, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}})
}

// stateLandLayers puts the project point on state land with two precedents
// nearby.
func stateLandLayers() layer.Static {
	return layer.Static{
		layer.NewMemoryLayer("DOMIANE_PRIVE_ETAT", []layer.Feature{
			{ID: "1", Geometry: square(-2, -2, 4), Properties: map[string]any{"NOM": "etat"}},
		}),
		layer.NewMemoryLayer("Derogation_central_13_avril", []layer.Feature{
			{ID: "1", Geometry: square(5, 5, 1)},
			{ID: "2", Geometry: square(-6, -6, 1)},
		}),
	}
}
