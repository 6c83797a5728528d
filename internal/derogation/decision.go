package derogation

import "fmt"

// VerdictKind is the outcome of the decision rules.
type VerdictKind string

const (
	Favorable            VerdictKind = "FAVORABLE"
	UnfavorableStateLand VerdictKind = "UNFAVORABLE_STATE_LAND"
	UnfavorableSaturated VerdictKind = "UNFAVORABLE_SATURATED"
)

// Style tells renderers how to present a verdict.
type Style string

const (
	StyleFavorable   Style = "favorable"
	StyleUnfavorable Style = "unfavorable"
)

// Verdict is the final decision with its justification.
type Verdict struct {
	Kind          VerdictKind `json:"kind" yaml:"kind"`
	Justification string      `json:"justification" yaml:"justification"`
	Style         Style       `json:"style" yaml:"style"`
}

// Favorable reports whether the project may proceed.
func (v Verdict) Favorable() bool { return v.Kind == Favorable }

// DecisionEngine applies the decision rules in priority order.
type DecisionEngine struct {
	stateLandZone string
}

// NewDecisionEngine creates an engine that treats stateLandZone as the
// state-private domain category.
func NewDecisionEngine(stateLandZone string) DecisionEngine {
	return DecisionEngine{stateLandZone: stateLandZone}
}

// Decide returns the verdict for a set of results and a precedent count.
// The first matching rule wins:
//
//  1. state land impacted (area > ImpactThreshold)
//  2. precedent count above maxAllowed
//  3. favorable
//
// A NotFound count compares as -1 and never saturates.
func (e DecisionEngine) Decide(results Results, nearby, maxAllowed int) Verdict {
	if r, ok := results.Get(e.stateLandZone); ok && r.Impacted() {
		return Verdict{
			Kind:          UnfavorableStateLand,
			Justification: "PROJET NON FAVORABLE (Impact sur Domaine Privé de l'État)",
			Style:         StyleUnfavorable,
		}
	}
	if nearby > maxAllowed {
		return Verdict{
			Kind:          UnfavorableSaturated,
			Justification: fmt.Sprintf("PROJET NON FAVORABLE (Zone saturée: %d dérogations, maximum %d)", nearby, maxAllowed),
			Style:         StyleUnfavorable,
		}
	}
	return Verdict{
		Kind:          Favorable,
		Justification: "AVIS FAVORABLE",
		Style:         StyleFavorable,
	}
}
