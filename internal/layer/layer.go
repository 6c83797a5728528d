// Package layer provides the named vector layers the analysis measures
// against. Layers come from shapefiles, GeoJSON files, GeoPackages or a
// PostGIS schema and are exposed through one Provider interface.
package layer

import (
	"context"
	"iter"

	"github.com/twpayne/go-geom"
)

// Geometry type names reported by Layer.GeometryType.
const (
	TypePolygon      = "Polygon"
	TypeMultiPolygon = "MultiPolygon"
	TypeUnknown      = "Unknown"
)

// Feature is one record of a layer.
type Feature struct {
	ID         string
	Geometry   geom.T
	Properties map[string]any
}

// Layer is a named collection of polygon features.
type Layer interface {
	// Name is the display name used for resolution.
	Name() string

	// GeometryType names the geometry type declared by the source.
	GeometryType() string

	// Features yields the features whose bounding box overlaps bounds, or every
	// feature when bounds is nil. Iteration stops at the first error.
	Features(ctx context.Context, bounds *geom.Bounds) iter.Seq2[Feature, error]
}

// Provider lists the layers available to an analysis.
type Provider interface {
	Layers(ctx context.Context) ([]Layer, error)
}

// Static is a Provider over a fixed set of layers.
type Static []Layer

// Layers implements Provider.
func (s Static) Layers(context.Context) ([]Layer, error) {
	return s, nil
}

// Catalog concatenates the layers of several providers, in provider order.
type Catalog struct {
	providers []Provider
}

// NewCatalog creates a Catalog over the given providers.
func NewCatalog(providers ...Provider) *Catalog {
	return &Catalog{providers: providers}
}

// Add appends a provider.
func (c *Catalog) Add(p Provider) {
	c.providers = append(c.providers, p)
}

// Layers implements Provider.
func (c *Catalog) Layers(ctx context.Context) ([]Layer, error) {
	var all []Layer
	for _, p := range c.providers {
		ls, err := p.Layers(ctx)
		if err != nil {
			return nil, err
		}
		all = append(all, ls...)
	}
	return all, nil
}

func geometryTypeOf(g geom.T) string {
	switch g.(type) {
	case *geom.Polygon:
		return TypePolygon
	case *geom.MultiPolygon:
		return TypeMultiPolygon
	default:
		return TypeUnknown
	}
}
