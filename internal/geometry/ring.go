package geometry

import (
	ctgeom "github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// Polygons flattens a polygonal geometry into its member polygons. Anything
// other than a Polygon or MultiPolygon is rejected.
func Polygons(g geom.T) ([]*geom.Polygon, error) {
	switch g := g.(type) {
	case *geom.Polygon:
		if g == nil {
			return nil, eris.Wrap(ErrMalformed, "geometry: nil polygon")
		}
		return []*geom.Polygon{g}, nil
	case *geom.MultiPolygon:
		if g == nil {
			return nil, eris.Wrap(ErrMalformed, "geometry: nil multipolygon")
		}
		polys := make([]*geom.Polygon, 0, g.NumPolygons())
		for i := 0; i < g.NumPolygons(); i++ {
			polys = append(polys, g.Polygon(i))
		}
		return polys, nil
	case nil:
		return nil, eris.Wrap(ErrMalformed, "geometry: missing geometry")
	default:
		return nil, eris.Wrapf(ErrMalformed, "geometry: unsupported geometry type %T", g)
	}
}

// rings returns the rings of p without the closing vertex. The outer ring
// comes first. Every ring is checked for finiteness and a minimum of three
// vertices.
func rings(p *geom.Polygon) ([][]geom.Coord, error) {
	n := p.NumLinearRings()
	if n == 0 {
		return nil, eris.Wrap(ErrMalformed, "geometry: polygon has no rings")
	}
	out := make([][]geom.Coord, 0, n)
	for i := 0; i < n; i++ {
		ring := openRing(p.LinearRing(i).Coords())
		if len(ring) < 3 {
			return nil, eris.Wrapf(ErrMalformed, "geometry: ring %d has %d vertices", i, len(ring))
		}
		for _, c := range ring {
			if len(c) < 2 || !finite(c[0]) || !finite(c[1]) {
				return nil, eris.Wrapf(ErrMalformed, "geometry: ring %d has a non-finite vertex", i)
			}
		}
		out = append(out, ring)
	}
	return out, nil
}

// openRing drops the closing vertex if the ring repeats its first vertex.
func openRing(coords []geom.Coord) []geom.Coord {
	if len(coords) > 1 && sameXY(coords[0], coords[len(coords)-1]) {
		return coords[:len(coords)-1]
	}
	return coords
}

func sameXY(a, b geom.Coord) bool {
	return len(a) >= 2 && len(b) >= 2 && a[0] == b[0] && a[1] == b[1]
}

// SignedArea returns the shoelace area of an open or closed ring: positive
// for counter-clockwise rings, negative for clockwise ones.
func SignedArea(ring []geom.Coord) float64 {
	ring = openRing(ring)
	if len(ring) < 3 {
		return 0
	}
	var sum float64
	for i := range ring {
		j := (i + 1) % len(ring)
		sum += ring[i][0]*ring[j][1] - ring[j][0]*ring[i][1]
	}
	return sum / 2
}

// BoundsOverlap reports whether the bounding boxes of a and b overlap,
// touching edges included.
func BoundsOverlap(a, b *geom.Bounds) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Overlaps(geom.XY, b)
}

// toPolygon converts p into a polygon of closed rings for the overlay
// operations. Ring orientation is kept as given.
func toPolygon(p *geom.Polygon) (ctgeom.Polygon, error) {
	rs, err := rings(p)
	if err != nil {
		return nil, err
	}
	out := make(ctgeom.Polygon, len(rs))
	for i, ring := range rs {
		path := make(ctgeom.Path, 0, len(ring)+1)
		for _, c := range ring {
			path = append(path, ctgeom.Point{X: c[0], Y: c[1]})
		}
		out[i] = append(path, path[0])
	}
	return out, nil
}

// toPolygons converts every member polygon of g.
func toPolygons(g geom.T) ([]ctgeom.Polygon, error) {
	polys, err := Polygons(g)
	if err != nil {
		return nil, err
	}
	out := make([]ctgeom.Polygon, 0, len(polys))
	for _, p := range polys {
		cp, err := toPolygon(p)
		if err != nil {
			return nil, err
		}
		out = append(out, cp)
	}
	return out, nil
}
