package derogation

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/geometry"
	"github.com/sells-group/derogation-cli/internal/layer"
)

// NotFound is the proximity count reported when no precedent layer exists.
const NotFound = -1

// ProximityCounter counts earlier derogations touching a buffer.
type ProximityCounter struct {
	fragment string
	log      *zap.Logger
}

// NewProximityCounter creates a counter for the precedent layer matching
// fragment.
func NewProximityCounter(fragment string) *ProximityCounter {
	return &ProximityCounter{
		fragment: fragment,
		log:      zap.L().With(zap.String("component", "proximity")),
	}
}

// CountNearby returns how many precedent features intersect buf, or
// NotFound when no layer matches the fragment.
func (c *ProximityCounter) CountNearby(ctx context.Context, buf *Buffer, layers []layer.Layer) (int, error) {
	res, err := resolveLayer(c.log, layers, c.fragment)
	if eris.Is(err, ErrLayerNotFound) {
		c.log.Warn("derogation: precedent layer not found", zap.String("fragment", c.fragment))
		return NotFound, nil
	}

	var count int
	_, err = scanFeatures(ctx, c.log, res.Layer, buf, func(f layer.Feature) error {
		hit, err := geometry.Intersects(f.Geometry, buf.Polygon)
		if err != nil {
			return err
		}
		if hit {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, eris.Wrap(err, "derogation: count precedents")
	}
	return count, nil
}
