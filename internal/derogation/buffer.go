package derogation

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/derogation-cli/internal/geometry"
)

// Point is a planar coordinate in the configured reference system.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Coord returns p as a go-geom XY coordinate.
func (p Point) Coord() geom.Coord { return geom.Coord{p.X, p.Y} }

// Buffer is the analysis area of one run. It is a value owned by the caller;
// each new run builds a fresh one.
type Buffer struct {
	Center  Point
	Radius  float64
	Polygon *geom.Polygon
	// Area is computed once from Polygon.
	Area   float64
	Bounds *geom.Bounds
}

// BufferBuilder turns a point and radius into a Buffer.
type BufferBuilder struct {
	segments int
}

// NewBufferBuilder returns a builder approximating circles with the given
// number of boundary segments per full circle.
func NewBufferBuilder(segments int) BufferBuilder {
	if segments < 3 {
		segments = geometry.DefaultSegments
	}
	return BufferBuilder{segments: segments}
}

// Segments returns the boundary segment count.
func (b BufferBuilder) Segments() int { return b.segments }

// CreateBuffer validates the inputs and builds the disk polygon around center.
func (b BufferBuilder) CreateBuffer(center Point, radius float64) (*Buffer, error) {
	if !isFinite(center.X) || !isFinite(center.Y) {
		return nil, eris.Wrapf(ErrInvalidInput, "derogation: non-finite point (%v, %v)", center.X, center.Y)
	}
	if !isFinite(radius) || radius <= 0 {
		return nil, eris.Wrapf(ErrInvalidInput, "derogation: radius %v must be positive", radius)
	}

	poly, err := geometry.Disk(center.Coord(), radius, b.segments)
	if err != nil {
		return nil, eris.Wrap(err, "derogation: build buffer")
	}
	area, err := geometry.Area(poly)
	if err != nil {
		return nil, eris.Wrap(err, "derogation: buffer area")
	}

	return &Buffer{
		Center:  center,
		Radius:  radius,
		Polygon: poly,
		Area:    area,
		Bounds:  poly.Bounds(),
	}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
