package markov

import (
	"fmt"

	"github.com/milmed-sim/castrain/pkg/rngstream"
)

// MatrixError reports a transition row that does not sum to 1 ± 0.01,
// raised at construction time (fatal at load, per the error model).
type MatrixError struct {
	Facility string
	Triage   string
	Sum      float64
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("markov: %s/%s transition row sums to %.4f, expected 1 ± 0.01", e.Facility, e.Triage, e.Sum)
}

const matrixSumTolerance = 0.01

// Conditions carries every per-patient fact the chain needs to compute one
// transition. The current facility is passed explicitly (never read from
// enclosing scope) so that the mass-casualty override --- which in the
// original source referenced an out-of-scope variable --- has an
// unambiguous, always-correct facility to act on.
type Conditions struct {
	Triage              string
	Facility            string
	Amputation          bool
	Burn                bool
	SevereTBI           bool
	Psychological       bool
	VehicleEvac         bool
	MassCasualtyActive  bool
	DegradedEnvironment bool
	ElapsedHoursSinceInjury float64
}

// Chain is the validated, immutable set of transition tables for one
// scenario. It is safe for concurrent use by multiple workers: Next never
// mutates Chain state, only a per-call working copy of the base row.
type Chain struct {
	facilities map[string]FacilityTransitions
	modifiers  Modifiers
	vehicleEvacProbability float64
}

// NewChain validates every row of doc.BaseTransitions and returns a Chain,
// or the first MatrixError encountered.
func NewChain(doc *Document) (*Chain, error) {
	facilities := make(map[string]FacilityTransitions, len(doc.BaseTransitions))
	for name, entry := range doc.BaseTransitions {
		for _, triage := range []string{"T1", "T2", "T3", "T4"} {
			row, err := entry.Transitions.forTriage(triage)
			if err != nil {
				return nil, err
			}
			if sum := row.Sum(); len(row.Keys) > 0 {
				if d := sum - 1.0; d < -matrixSumTolerance || d > matrixSumTolerance {
					return nil, &MatrixError{Facility: name, Triage: triage, Sum: sum}
				}
			}
		}
		facilities[name] = entry.Transitions
	}

	return &Chain{
		facilities:             facilities,
		modifiers:               doc.Modifiers,
		vehicleEvacProbability: doc.SpecialConditions.VehicleEvacProbability,
	}, nil
}

// Next draws the successor state from the current facility under the given
// conditions. samplingErrorOccurred is true when every weight collapsed to
// zero and the chain fell back to the unmodified base row (a SamplingError
// in the error taxonomy; recovered locally, counted by the caller).
func (c *Chain) Next(rng *rngstream.Stream, conditions Conditions) (next string, samplingErrorOccurred bool, err error) {
	entry, ok := c.facilities[conditions.Facility]
	if !ok {
		return "", false, fmt.Errorf("markov: no transitions defined for facility %q", conditions.Facility)
	}
	base, err := entry.forTriage(conditions.Triage)
	if err != nil {
		return "", false, err
	}

	working := base.Clone()
	c.applySpecialConditions(working, conditions)
	c.applyModifiers(working, conditions)

	if working.Sum() <= 0 {
		working = base.Clone()
		samplingErrorOccurred = true
	}

	next = drawWeighted(rng, working)
	return next, samplingErrorOccurred, nil
}

// drawWeighted performs the renormalized weighted categorical draw in
// declared key order.
func drawWeighted(rng *rngstream.Stream, p *OrderedProbs) string {
	weights := make([]float64, len(p.Keys))
	for i, k := range p.Keys {
		weights[i] = p.Vals[k]
	}
	idx := rng.WeightedIndex(weights)
	if idx < 0 || idx >= len(p.Keys) {
		return RemainsRole4
	}
	return p.Keys[idx]
}
