// Package geometry implements the planar polygon operations behind the
// derogation analysis. Features and buffers are modelled with go-geom; area,
// intersection and point location are delegated to github.com/ctessum/geom
// after conversion at this package's boundary. All coordinates are XY in a
// projected reference system; distances and areas are in its linear unit.
package geometry

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// DefaultSegments is the number of boundary segments used to approximate a
// full circle.
const DefaultSegments = 40

// ErrMalformed marks a geometry that cannot take part in an operation, such
// as an unsupported type, a degenerate ring or a non-finite coordinate.
var ErrMalformed = eris.New("geometry: malformed geometry")

// Disk returns a counter-clockwise polygon with the given number of vertices
// placed on the circle of radius around center. The first vertex sits at
// angle zero and the ring is closed.
func Disk(center geom.Coord, radius float64, segments int) (*geom.Polygon, error) {
	if len(center) < 2 || !finite(center[0]) || !finite(center[1]) {
		return nil, eris.Wrap(ErrMalformed, "geometry: disk center must be finite")
	}
	if !finite(radius) || radius <= 0 {
		return nil, eris.Wrapf(ErrMalformed, "geometry: disk radius %v must be positive", radius)
	}
	if segments < 3 {
		return nil, eris.Wrapf(ErrMalformed, "geometry: disk needs at least 3 segments, got %d", segments)
	}

	flat := make([]float64, 0, 2*(segments+1))
	for i := 0; i < segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		flat = append(flat, center[0]+radius*math.Cos(theta), center[1]+radius*math.Sin(theta))
	}
	flat = append(flat, flat[0], flat[1])

	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}), nil
}

// DiskAreaTolerance is the area a regular polygon with the given number of
// segments loses against the true circle of the same radius.
func DiskAreaTolerance(radius float64, segments int) float64 {
	if segments < 3 {
		return math.Inf(1)
	}
	n := float64(segments)
	inscribed := n / 2 * radius * radius * math.Sin(2*math.Pi/n)
	return math.Pi*radius*radius - inscribed
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
