package geometry

import (
	"math"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func square(minX, minY, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}})
}

func clockwiseSquare(minX, minY, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY}, {minX, minY + size}, {minX + size, minY + size}, {minX + size, minY}, {minX, minY},
	}})
}

func TestDisk_AreaWithinTolerance(t *testing.T) {
	for _, r := range []float64{0.5, 1, 50, 250, 10000} {
		d, err := Disk(geom.Coord{500000, 400000}, r, DefaultSegments)
		require.NoError(t, err)

		area, err := Area(d)
		require.NoError(t, err)

		want := math.Pi * r * r
		tol := DiskAreaTolerance(r, DefaultSegments)
		assert.LessOrEqual(t, area, want, "radius %v", r)
		assert.InDelta(t, want, area, tol*1.0001+1e-9, "radius %v", r)
	}
}

func TestDisk_Shape(t *testing.T) {
	d, err := Disk(geom.Coord{10, 20}, 5, 40)
	require.NoError(t, err)

	ring := d.LinearRing(0).Coords()
	require.Len(t, ring, 41)
	assert.Equal(t, ring[0], ring[40])
	assert.InDelta(t, 15.0, ring[0][0], 1e-9)
	assert.InDelta(t, 20.0, ring[0][1], 1e-9)
	assert.Greater(t, SignedArea(ring), 0.0, "disk ring must be counter-clockwise")

	b := d.Bounds()
	assert.InDelta(t, 5.0, b.Min(0), 1e-9)
	assert.InDelta(t, 25.0, b.Max(1), 1e-9)
}

func TestDisk_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		center   geom.Coord
		radius   float64
		segments int
	}{
		{"zero radius", geom.Coord{0, 0}, 0, 40},
		{"negative radius", geom.Coord{0, 0}, -3, 40},
		{"nan radius", geom.Coord{0, 0}, math.NaN(), 40},
		{"nan x", geom.Coord{math.NaN(), 0}, 5, 40},
		{"inf y", geom.Coord{0, math.Inf(1)}, 5, 40},
		{"too few segments", geom.Coord{0, 0}, 5, 2},
		{"short coord", geom.Coord{1}, 5, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Disk(tt.center, tt.radius, tt.segments)
			require.Error(t, err)
			assert.True(t, eris.Is(err, ErrMalformed))
		})
	}
}

func TestDiskAreaTolerance(t *testing.T) {
	assert.True(t, math.IsInf(DiskAreaTolerance(1, 2), 1))
	assert.Greater(t, DiskAreaTolerance(1, 40), DiskAreaTolerance(1, 160))
	assert.InDelta(t, math.Pi-2, DiskAreaTolerance(1, 4), 1e-12)
}

func TestIntersects(t *testing.T) {
	withHole := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}},
		{{20, 20}, {20, 80}, {80, 80}, {80, 20}, {20, 20}},
	})

	tests := []struct {
		name string
		a, b geom.T
		want bool
	}{
		{"overlapping", square(0, 0, 10), square(5, 5, 10), true},
		{"disjoint", square(0, 0, 10), square(20, 20, 10), false},
		{"touching edge", square(0, 0, 10), square(10, 0, 10), true},
		{"touching corner", square(0, 0, 10), square(10, 10, 10), true},
		{"a contains b", square(0, 0, 100), square(40, 40, 5), true},
		{"b contains a", square(40, 40, 5), square(0, 0, 100), true},
		{"inside hole", withHole, square(40, 40, 5), false},
		{"crossing hole edge", withHole, square(15, 40, 10), true},
		{"clockwise overlapping", clockwiseSquare(0, 0, 10), clockwiseSquare(5, 5, 10), true},
		{"clockwise contains", clockwiseSquare(0, 0, 100), square(40, 40, 5), true},
		{"bbox overlap only", geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
			{{0, 0}, {10, 0}, {0, 10}, {0, 0}},
		}), square(8, 8, 2), false},
		{"multipolygon second part", geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
			{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}},
			{{{50, 50}, {60, 50}, {60, 60}, {50, 60}, {50, 50}}},
		}), square(55, 55, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Intersects(tt.a, tt.b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIntersects_Malformed(t *testing.T) {
	_, err := Intersects(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{1, 1}), square(0, 0, 1))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMalformed))

	degenerate := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{{0, 0}, {1, 1}, {0, 0}}})
	_, err = Intersects(degenerate, square(0, 0, 1))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMalformed))

	_, err = Intersects(nil, square(0, 0, 1))
	assert.True(t, eris.Is(err, ErrMalformed))
}

func TestIntersectionArea_Squares(t *testing.T) {
	tests := []struct {
		name    string
		subject geom.T
		clip    *geom.Polygon
		want    float64
	}{
		{"quarter overlap", square(5, 5, 10), square(0, 0, 10), 25},
		{"disjoint", square(20, 20, 10), square(0, 0, 10), 0},
		{"subject inside", square(2, 2, 3), square(0, 0, 10), 9},
		{"clip inside", square(0, 0, 100), square(10, 10, 10), 100},
		{"clockwise clip", square(5, 5, 10), clockwiseSquare(0, 0, 10), 25},
		{"clockwise subject", clockwiseSquare(5, 5, 10), square(0, 0, 10), 25},
		{"concave clip", square(0, 0, 20), geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
			{{0, 0}, {20, 0}, {20, 10}, {10, 10}, {10, 20}, {0, 20}, {0, 0}},
		}), 300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IntersectionArea(tt.subject, tt.clip)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-6)
		})
	}
}

func TestIntersectionArea_ConcaveSubject(t *testing.T) {
	// U shape: 30x30 block with a 10x20 notch cut from the top middle.
	u := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {30, 0}, {30, 30}, {20, 30}, {20, 10}, {10, 10}, {10, 30}, {0, 30}, {0, 0},
	}})
	// Clip covers the top band where both arms of the U live.
	got, err := IntersectionArea(u, square(-5, 15, 40))
	require.NoError(t, err)
	assert.InDelta(t, 2*10*15, got, 1e-6)
}

func TestIntersectionArea_HoleSubtracted(t *testing.T) {
	withHole := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {100, 0}, {100, 100}, {0, 100}, {0, 0}},
		{{40, 40}, {40, 60}, {60, 60}, {60, 40}, {40, 40}},
	})
	got, err := IntersectionArea(withHole, square(30, 30, 40))
	require.NoError(t, err)
	assert.InDelta(t, 1600-400, got, 1e-6)
}

func TestIntersectionArea_DiskFullyInside(t *testing.T) {
	d, err := Disk(geom.Coord{500, 500}, 50, DefaultSegments)
	require.NoError(t, err)

	got, err := IntersectionArea(square(0, 0, 1000), d)
	require.NoError(t, err)
	assert.InDelta(t, d.Area(), got, 1e-6)
}

func TestIntersectionArea_HalfDisk(t *testing.T) {
	d, err := Disk(geom.Coord{0, 0}, 50, DefaultSegments)
	require.NoError(t, err)

	// Right half-plane; 40 segments are symmetric about the y axis.
	got, err := IntersectionArea(square(0, -100, 200), d)
	require.NoError(t, err)
	assert.InDelta(t, d.Area()/2, got, 1e-6)
}

func TestIntersectionArea_NilClip(t *testing.T) {
	_, err := IntersectionArea(square(0, 0, 1), nil)
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMalformed))
}

func TestIntersectionArea_NonFiniteSubject(t *testing.T) {
	bad := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{0, 0}, {math.NaN(), 0}, {10, 10}, {0, 10}, {0, 0},
	}})
	_, err := IntersectionArea(bad, square(-50, -50, 100))
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrMalformed))
}

func TestIntersectionArea_ClockwiseSubject(t *testing.T) {
	d, err := Disk(geom.Coord{20, 20}, 5, DefaultSegments)
	require.NoError(t, err)

	got, err := IntersectionArea(clockwiseSquare(0, 0, 40), d)
	require.NoError(t, err)
	assert.Greater(t, got, 0.0)
	assert.InDelta(t, d.Area(), got, 1e-6)
}

func TestArea_OrientationIndependent(t *testing.T) {
	tests := []struct {
		name string
		g    geom.T
		want float64
	}{
		{"counter-clockwise square", square(0, 0, 4), 16},
		{"clockwise square", clockwiseSquare(0, 0, 4), 16},
		{"clockwise outer, counter-clockwise hole", geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
			{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
			{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
		}), 96},
		{"clockwise outer, clockwise hole", geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
			{{0, 0}, {0, 10}, {10, 10}, {10, 0}, {0, 0}},
			{{4, 4}, {4, 6}, {6, 6}, {6, 4}, {4, 4}},
		}), 96},
		{"counter-clockwise outer, counter-clockwise hole", geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
			{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
			{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
		}), 96},
		{"mixed multipolygon", geom.NewMultiPolygon(geom.XY).MustSetCoords([][][]geom.Coord{
			{{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}},
			{{{5, 5}, {6, 5}, {6, 6}, {5, 6}, {5, 5}}},
		}), 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Area(tt.g)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestArea_Malformed(t *testing.T) {
	_, err := Area(geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{1, 1}))
	assert.True(t, eris.Is(err, ErrMalformed))

	_, err = Area((*geom.Polygon)(nil))
	assert.True(t, eris.Is(err, ErrMalformed))

	_, err = Area(nil)
	assert.True(t, eris.Is(err, ErrMalformed))
}

func TestSignedArea(t *testing.T) {
	ccw := []geom.Coord{{0, 0}, {2, 0}, {2, 2}, {0, 2}}
	assert.InDelta(t, 4.0, SignedArea(ccw), 1e-12)

	cw := []geom.Coord{{0, 0}, {0, 2}, {2, 2}, {2, 0}, {0, 0}}
	assert.InDelta(t, -4.0, SignedArea(cw), 1e-12)

	assert.Zero(t, SignedArea([]geom.Coord{{0, 0}, {1, 1}}))
}

func TestBoundsOverlap(t *testing.T) {
	assert.True(t, BoundsOverlap(square(0, 0, 10).Bounds(), square(10, 10, 1).Bounds()))
	assert.False(t, BoundsOverlap(square(0, 0, 10).Bounds(), square(11, 0, 1).Bounds()))
	assert.False(t, BoundsOverlap(nil, square(0, 0, 1).Bounds()))
}
