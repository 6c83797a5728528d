package derogation

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/geometry"
	"github.com/sells-group/derogation-cli/internal/layer"
)

// resolveLayer finds the layer for fragment. A miss wraps ErrLayerNotFound.
// Several matches keep the first and log the others.
func resolveLayer(log *zap.Logger, layers []layer.Layer, fragment string) (layer.Resolution, error) {
	res := layer.Resolve(layers, fragment)
	if !res.Found() {
		return res, eris.Wrapf(ErrLayerNotFound, "derogation: no layer matches %q", fragment)
	}
	if res.Ambiguous() {
		log.Warn("derogation: ambiguous layer match, using first",
			zap.String("fragment", fragment),
			zap.String("layer", res.Layer.Name()),
			zap.Strings("candidates", res.Candidates),
		)
	}
	return res, nil
}

// scanFeatures runs fn on every feature of l whose bounds overlap the buffer.
// A feature without geometry, or whose geometry fails in fn or in the bounds
// test, including by panicking, is skipped. Provider errors abort the scan.
func scanFeatures(ctx context.Context, log *zap.Logger, l layer.Layer, buf *Buffer, fn func(layer.Feature) error) (skipped int, err error) {
	for f, err := range l.Features(ctx, buf.Bounds) {
		if err != nil {
			return skipped, eris.Wrapf(err, "derogation: read layer %s", l.Name())
		}
		err := guard(func() error {
			if f.Geometry == nil {
				return eris.New("derogation: feature has no geometry")
			}
			if !geometry.BoundsOverlap(f.Geometry.Bounds(), buf.Bounds) {
				return nil
			}
			return fn(f)
		})
		if err != nil {
			skipped++
			skippedFeatures.WithLabelValues(l.Name()).Inc()
			log.Warn("derogation: skipping feature",
				zap.String("layer", l.Name()),
				zap.String("feature", f.ID),
				zap.Error(err),
			)
		}
	}
	return skipped, nil
}

// guard converts a failure or panic of fn into an ErrGeometry error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Wrap(ErrGeometry, fmt.Sprintf("panic: %v", r))
		}
	}()
	if err := fn(); err != nil {
		return eris.Wrap(ErrGeometry, err.Error())
	}
	return nil
}
