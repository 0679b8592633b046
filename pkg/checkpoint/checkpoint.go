// Package checkpoint maintains the per-patient cumulative mortality budget
// that every facility-arrival checkpoint draws against, keeping cohort-wide
// mortality inside designer-set ranges regardless of how many hops a
// patient's path takes.
package checkpoint

import (
	"math"

	"gopkg.in/yaml.v3"

	"github.com/milmed-sim/castrain/pkg/rngstream"
)

// DefaultCaps are the designer-set cumulative mortality ceilings per triage
// category, used when a loaded document does not override them.
var DefaultCaps = map[string]float64{
	"T1": 0.60,
	"T2": 0.35,
	"T3": 0.15,
	"T4": 0.05,
}

type modelDoc struct {
	Caps       map[string]float64            `yaml:"caps"`
	ByFacility map[string]map[string]float64 `yaml:"by_facility"`
}

// Model is the validated, immutable checkpoint configuration shared by all
// workers.
type Model struct {
	caps       map[string]float64
	byFacility map[string]map[string]float64
}

// NewModel parses the mortality_checkpoints section of the
// transition-matrices document. A zero-value node (section absent) yields a
// Model using only DefaultCaps with no facility-specific checkpoint rates.
func NewModel(node yaml.Node) (*Model, error) {
	var doc modelDoc
	if node.Kind != 0 {
		if err := node.Decode(&doc); err != nil {
			return nil, err
		}
	}

	caps := make(map[string]float64, len(DefaultCaps))
	for k, v := range DefaultCaps {
		caps[k] = v
	}
	for k, v := range doc.Caps {
		caps[k] = v
	}

	return &Model{caps: caps, byFacility: doc.ByFacility}, nil
}

// CheckpointRate returns the base incremental mortality probability this
// model declares for a facility/triage pair, or 0 if undeclared.
func (m *Model) CheckpointRate(facility, triageCategory string) float64 {
	byTriage, ok := m.byFacility[facility]
	if !ok {
		return 0
	}
	return byTriage[triageCategory]
}

// Tracker holds one patient's cumulative mortality budget, seeded from the
// cap for their triage category at creation.
type Tracker struct {
	cap        float64
	cumulative float64
}

// NewTracker creates a Tracker for a patient with the given triage
// category.
func (m *Model) NewTracker(triageCategory string) *Tracker {
	return &Tracker{cap: m.caps[triageCategory]}
}

// Propose draws against the remaining budget with incremental probability
// pk, consuming min(pk, cap-cumulative) of the budget regardless of outcome,
// and reports whether the draw fired (meaning the patient is KIA at the
// current facility).
func (t *Tracker) Propose(rng *rngstream.Stream, pk float64) bool {
	remaining := t.cap - t.cumulative
	if remaining <= 0 {
		return false
	}
	effective := math.Min(pk, remaining)
	t.cumulative += effective
	if effective <= 0 {
		return false
	}
	return rng.Bernoulli(effective)
}
