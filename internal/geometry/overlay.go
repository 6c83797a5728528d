package geometry

import (
	"math"

	ctgeom "github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Area returns the area of a polygonal geometry with holes subtracted. The
// result does not depend on ring orientation. Member polygons of a
// MultiPolygon are summed.
func Area(g geom.T) (float64, error) {
	polys, err := toPolygons(g)
	if err != nil {
		return 0, err
	}
	var sum float64
	for _, p := range polys {
		sum += math.Abs(p.Area())
	}
	return sum, nil
}

// IntersectionArea returns the area of subject lying inside clip. Each member
// polygon of subject is intersected with clip on its own and the areas are
// summed. Ring orientation of either input does not matter.
func IntersectionArea(subject geom.T, clip *geom.Polygon) (float64, error) {
	if clip == nil {
		return 0, eris.Wrap(ErrMalformed, "geometry: nil clip polygon")
	}
	window, err := toPolygon(clip)
	if err != nil {
		return 0, eris.Wrap(err, "geometry: clip polygon")
	}
	polys, err := toPolygons(subject)
	if err != nil {
		return 0, err
	}

	wb := window.Bounds()
	var sum float64
	for _, p := range polys {
		if !p.Bounds().Overlaps(wb) {
			continue
		}
		sum += overlapArea(p, window)
	}
	return sum, nil
}

// Intersects reports whether two polygonal geometries share at least one
// point. Touching boundaries count as intersecting. A geometry lying wholly
// inside a hole of the other does not intersect it.
func Intersects(a, b geom.T) (bool, error) {
	pas, err := toPolygons(a)
	if err != nil {
		return false, err
	}
	pbs, err := toPolygons(b)
	if err != nil {
		return false, err
	}

	for _, pa := range pas {
		ba := pa.Bounds()
		for _, pb := range pbs {
			if !ba.Overlaps(pb.Bounds()) {
				continue
			}
			if overlapArea(pa, pb) > 0 || touches(pa, pb) || touches(pb, pa) {
				return true, nil
			}
		}
	}
	return false, nil
}

func overlapArea(p ctgeom.Polygon, window ctgeom.Polygon) float64 {
	shared := p.Intersection(window)
	if shared == nil {
		return 0
	}
	var sum float64
	for _, sp := range shared.Polygons() {
		sum += math.Abs(sp.Area())
	}
	return sum
}

// touches reports whether a vertex of p lies inside or on the boundary of q.
// Combined with a zero overlap area it catches shared edges and corners.
func touches(p, q ctgeom.Polygon) bool {
	for _, ring := range p {
		for _, pt := range ring {
			if pt.Within(q) != ctgeom.Outside {
				return true
			}
		}
	}
	return false
}
