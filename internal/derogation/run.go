package derogation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/derogation-cli/internal/layer"
)

// Request is the input of one analysis run.
type Request struct {
	Point  Point
	Radius float64
	// ImagePath is a rendered map supplied by the caller, passed through to
	// the report untouched.
	ImagePath string
}

// Report is the result of a successful run.
type Report struct {
	RunID           string    `json:"run_id" yaml:"run_id"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	ReferenceSystem string    `json:"reference_system" yaml:"reference_system"`
	Point           Point     `json:"point" yaml:"point"`
	Radius          float64   `json:"radius" yaml:"radius"`
	BufferArea      float64   `json:"buffer_area" yaml:"buffer_area"`
	Results         Results   `json:"results" yaml:"results"`
	Nearby          int       `json:"nearby_precedents" yaml:"nearby_precedents"`
	MaxPrecedents   int       `json:"max_precedents" yaml:"max_precedents"`
	Verdict         Verdict   `json:"verdict" yaml:"verdict"`
	ImagePath       string    `json:"image_path,omitempty" yaml:"image_path,omitempty"`

	Buffer *Buffer `json:"-" yaml:"-"`
}

// PrecedentLayerFound reports whether the precedent layer was resolved.
func (r *Report) PrecedentLayerFound() bool { return r.Nearby != NotFound }

// FailureKind classifies a failed run.
type FailureKind string

const (
	FailureInvalidInput FailureKind = "invalid_input"
	FailureUnexpected   FailureKind = "unexpected"
	FailureCanceled     FailureKind = "canceled"
)

// Failure describes why a run produced no verdict.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string { return fmt.Sprintf("%s: %v", f.Kind, f.Err) }

func (f *Failure) Unwrap() error { return f.Err }

// Outcome holds exactly one of Report or Failure.
type Outcome struct {
	Report  *Report
	Failure *Failure
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool { return o.Report != nil && o.Failure == nil }

// Err returns the failure as an error, or nil.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

func failed(kind FailureKind, err error) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Err: err}}
}

// Analysis runs the full pipeline: buffer, zone intersections and precedent
// count in parallel, then the decision rules. It keeps no state between runs.
type Analysis struct {
	settings Settings
	provider layer.Provider
	builder  BufferBuilder
	analyzer *Analyzer
	counter  *ProximityCounter
	engine   DecisionEngine
	now      func() time.Time
}

// NewAnalysis wires the components from settings. Layers are listed from
// provider on every run.
func NewAnalysis(settings Settings, provider layer.Provider) *Analysis {
	settings = settings.clone()
	return &Analysis{
		settings: settings,
		provider: provider,
		builder:  NewBufferBuilder(settings.BufferSegments),
		analyzer: NewAnalyzer(settings.Zones),
		counter:  NewProximityCounter(settings.PrecedentFragment),
		engine:   NewDecisionEngine(settings.StateLandZone),
		now:      time.Now,
	}
}

// Settings returns a copy of the analysis settings.
func (a *Analysis) Settings() Settings { return a.settings.clone() }

// Run executes one analysis. Any failure abandons the run without a partial
// verdict.
func (a *Analysis) Run(ctx context.Context, req Request) (out Outcome) {
	start := a.now()
	runID := uuid.NewString()
	log := zap.L().With(zap.String("component", "analysis"), zap.String("run_id", runID))

	defer func() {
		if r := recover(); r != nil {
			out = failed(FailureUnexpected, eris.Errorf("derogation: panic during run: %v", r))
		}
		outcome := "ok"
		if out.Failure != nil {
			outcome = string(out.Failure.Kind)
			log.Error("derogation: run failed", zap.String("kind", outcome), zap.Error(out.Failure.Err))
		}
		runsTotal.WithLabelValues(outcome).Inc()
		runDuration.Observe(time.Since(start).Seconds())
	}()

	if a.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.settings.Timeout)
		defer cancel()
	}

	buf, err := a.builder.CreateBuffer(req.Point, req.Radius)
	if err != nil {
		return failed(classify(ctx, err), err)
	}
	log.Info("derogation: buffer created",
		zap.Float64("x", req.Point.X),
		zap.Float64("y", req.Point.Y),
		zap.Float64("radius", req.Radius),
		zap.Float64("area", buf.Area),
	)

	layers, err := a.provider.Layers(ctx)
	if err != nil {
		err = eris.Wrap(err, "derogation: list layers")
		return failed(classify(ctx, err), err)
	}

	var (
		results Results
		nearby  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovered("zone analysis", func() error {
		var err error
		results, err = a.analyzer.Analyze(gctx, buf, layers)
		return err
	}))
	g.Go(recovered("precedent count", func() error {
		var err error
		nearby, err = a.counter.CountNearby(gctx, buf, layers)
		return err
	}))
	if err := g.Wait(); err != nil {
		return failed(classify(ctx, err), err)
	}

	verdict := a.engine.Decide(results, nearby, a.settings.MaxPrecedents)
	verdictsTotal.WithLabelValues(string(verdict.Kind)).Inc()
	log.Info("derogation: run complete",
		zap.String("verdict", string(verdict.Kind)),
		zap.Int("nearby", nearby),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Outcome{Report: &Report{
		RunID:           runID,
		CreatedAt:       start.UTC(),
		ReferenceSystem: a.settings.ReferenceSystem,
		Point:           req.Point,
		Radius:          req.Radius,
		BufferArea:      buf.Area,
		Results:         results,
		Nearby:          nearby,
		MaxPrecedents:   a.settings.MaxPrecedents,
		Verdict:         verdict,
		ImagePath:       req.ImagePath,
		Buffer:          buf,
	}}
}

// recovered turns a panic in fn into an error so that it fails the run
// instead of the process. The deferred recover in Run only covers its own
// goroutine.
func recovered(task string, fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = eris.Wrapf(ErrPanic, "derogation: %s: %v", task, r)
			}
		}()
		return fn()
	}
}

func classify(ctx context.Context, err error) FailureKind {
	switch {
	case eris.Is(err, ErrPanic):
		return FailureUnexpected
	case eris.Is(err, ErrInvalidInput):
		return FailureInvalidInput
	case ctx.Err() != nil, eris.Is(err, context.Canceled), eris.Is(err, context.DeadlineExceeded):
		return FailureCanceled
	default:
		return FailureUnexpected
	}
}
