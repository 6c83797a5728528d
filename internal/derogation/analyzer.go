package derogation

import (
	"context"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/derogation-cli/internal/geometry"
	"github.com/sells-group/derogation-cli/internal/layer"
)

// ImpactThreshold is the intersected area, in square reference units, above
// which a zone counts as impacted. Smaller overlaps are boundary noise.
const ImpactThreshold = 1.0

// Status classifies one zone category after measurement.
type Status string

const (
	StatusOK       Status = "OK"
	StatusImpact   Status = "IMPACT"
	StatusNotFound Status = "NOT_FOUND"
)

// IntersectionResult is the measurement of one zone category.
type IntersectionResult struct {
	Technical  string  `json:"technical" yaml:"technical"`
	Name       string  `json:"name" yaml:"name"`
	LayerName  string  `json:"layer,omitempty" yaml:"layer,omitempty"`
	Area       float64 `json:"area" yaml:"area"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
	Status     Status  `json:"status" yaml:"status"`
	Ambiguous  bool    `json:"ambiguous,omitempty" yaml:"ambiguous,omitempty"`
	Skipped    int     `json:"skipped_features,omitempty" yaml:"skipped_features,omitempty"`
}

// Impacted reports whether the intersected area exceeds ImpactThreshold.
func (r IntersectionResult) Impacted() bool { return r.Area > ImpactThreshold }

// Results holds one IntersectionResult per configured category, in
// configuration order.
type Results []IntersectionResult

// Get returns the result of a technical category name.
func (rs Results) Get(technical string) (IntersectionResult, bool) {
	i := slices.IndexFunc(rs, func(r IntersectionResult) bool { return r.Technical == technical })
	if i < 0 {
		return IntersectionResult{}, false
	}
	return rs[i], true
}

// Analyzer measures how much of a buffer each zone category covers.
type Analyzer struct {
	zones []ZoneCategory
	log   *zap.Logger
}

// NewAnalyzer creates an Analyzer over the given categories.
func NewAnalyzer(zones []ZoneCategory) *Analyzer {
	return &Analyzer{
		zones: slices.Clone(zones),
		log:   zap.L().With(zap.String("component", "analyzer")),
	}
}

// Analyze measures every category against buf. Areas of overlapping features
// within one layer are summed, not merged.
func (a *Analyzer) Analyze(ctx context.Context, buf *Buffer, layers []layer.Layer) (Results, error) {
	results := make(Results, 0, len(a.zones))
	for _, zone := range a.zones {
		r, err := a.analyzeZone(ctx, buf, layers, zone)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

func (a *Analyzer) analyzeZone(ctx context.Context, buf *Buffer, layers []layer.Layer, zone ZoneCategory) (IntersectionResult, error) {
	r := IntersectionResult{Technical: zone.Technical, Name: zone.Friendly}

	res, err := resolveLayer(a.log, layers, zone.Technical)
	if eris.Is(err, ErrLayerNotFound) {
		a.log.Warn("derogation: zone layer not found", zap.String("zone", zone.Technical))
		r.Status = StatusNotFound
		return r, nil
	}
	r.LayerName = res.Layer.Name()
	r.Ambiguous = res.Ambiguous()

	var total float64
	r.Skipped, err = scanFeatures(ctx, a.log, res.Layer, buf, func(f layer.Feature) error {
		hit, err := geometry.Intersects(f.Geometry, buf.Polygon)
		if err != nil || !hit {
			return err
		}
		area, err := geometry.IntersectionArea(f.Geometry, buf.Polygon)
		if err != nil {
			return err
		}
		total += area
		return nil
	})
	if err != nil {
		return IntersectionResult{}, eris.Wrapf(err, "derogation: analyze zone %s", zone.Technical)
	}

	r.Area = total
	r.Percentage = percentage(total, buf.Area)
	r.Status = StatusOK
	if r.Impacted() {
		r.Status = StatusImpact
	}
	return r, nil
}

func percentage(area, of float64) float64 {
	if of <= 0 {
		return 0
	}
	return area / of * 100
}
