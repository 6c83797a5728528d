package layer

import (
	"context"
	"iter"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// MemoryLayer holds its features in memory with precomputed bounds.
type MemoryLayer struct {
	name     string
	geomType string
	features []Feature
	bounds   []*geom.Bounds
}

// NewMemoryLayer creates a layer over features. The geometry type is taken
// from the first feature that has a geometry.
func NewMemoryLayer(name string, features []Feature) *MemoryLayer {
	l := &MemoryLayer{
		name:     name,
		geomType: TypeUnknown,
		features: features,
		bounds:   make([]*geom.Bounds, len(features)),
	}
	for i, f := range features {
		l.bounds[i] = featureBounds(f.Geometry)
		if l.bounds[i] == nil {
			continue
		}
		if l.geomType == TypeUnknown {
			l.geomType = geometryTypeOf(f.Geometry)
		}
	}
	return l
}

// featureBounds returns the bounds of g, or nil when g is missing or cannot
// report them (a typed nil pointer, for instance). Such features are yielded
// unfiltered.
func featureBounds(g geom.T) (b *geom.Bounds) {
	if g == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			b = nil
		}
	}()
	return g.Bounds()
}

// Name implements Layer.
func (l *MemoryLayer) Name() string { return l.name }

// GeometryType implements Layer.
func (l *MemoryLayer) GeometryType() string { return l.geomType }

// Len returns the number of features.
func (l *MemoryLayer) Len() int { return len(l.features) }

// Features implements Layer. Features without usable bounds are always
// yielded so that callers see and report them.
func (l *MemoryLayer) Features(ctx context.Context, bounds *geom.Bounds) iter.Seq2[Feature, error] {
	return func(yield func(Feature, error) bool) {
		for i, f := range l.features {
			if err := ctx.Err(); err != nil {
				yield(Feature{}, eris.Wrapf(err, "layer: iterate %s", l.name))
				return
			}
			if bounds != nil && l.bounds[i] != nil && !l.bounds[i].Overlaps(geom.XY, bounds) {
				continue
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}
