// Package markov implements the facility Markov chain that routes a
// casualty through the evacuation echelons, applying special-condition
// overrides and environmental modifiers before each weighted draw.
package markov

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Facility/terminal state names. These are the exact strings that appear in
// patient record JSON output, not an internal enumeration.
const (
	POI          = "POI"
	Role1        = "Role1"
	Role2        = "Role2"
	Role3        = "Role3"
	Role4        = "Role4"
	KIA          = "KIA"
	RTD          = "RTD"
	RemainsRole4 = "Remains_Role4"
)

// IsAbsorbing reports whether a state is terminal.
func IsAbsorbing(state string) bool {
	switch state {
	case KIA, RTD, RemainsRole4:
		return true
	default:
		return false
	}
}

// OrderedProbs is a successor-state probability vector that preserves the
// declared key order from its source document. Declared order (not map
// iteration order) is what the weighted draw uses for tie-breaking, so two
// runs over the same document produce byte-identical draws.
type OrderedProbs struct {
	Keys []string
	Vals map[string]float64
}

// UnmarshalYAML parses a mapping node into an OrderedProbs, preserving
// key order and silently dropping any non-numeric field (for example the
// "description" string some source rows carry alongside their
// probabilities) rather than letting it corrupt a sum.
func (o *OrderedProbs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("markov: expected mapping for transition probabilities, got kind %d", node.Kind)
	}
	o.Vals = make(map[string]float64, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var v float64
		if err := node.Content[i+1].Decode(&v); err != nil {
			continue // non-numeric field such as "description"; ignore
		}
		o.Keys = append(o.Keys, key)
		o.Vals[key] = v
	}
	return nil
}

// Sum returns the total probability mass.
func (o *OrderedProbs) Sum() float64 {
	total := 0.0
	for _, k := range o.Keys {
		total += o.Vals[k]
	}
	return total
}

// Clone returns an independent copy so modifiers never mutate the shared,
// immutable base table in place.
func (o *OrderedProbs) Clone() *OrderedProbs {
	vals := make(map[string]float64, len(o.Vals))
	for k, v := range o.Vals {
		vals[k] = v
	}
	keys := make([]string, len(o.Keys))
	copy(keys, o.Keys)
	return &OrderedProbs{Keys: keys, Vals: vals}
}

func (o *OrderedProbs) scale(key string, factor, cap float64) {
	v, ok := o.Vals[key]
	if !ok {
		return
	}
	v *= factor
	if cap > 0 && v > cap {
		v = cap
	}
	o.Vals[key] = v
}

// FacilityTransitions holds the base transition vector for each triage
// category at one facility.
type FacilityTransitions struct {
	T1 OrderedProbs `yaml:"T1"`
	T2 OrderedProbs `yaml:"T2"`
	T3 OrderedProbs `yaml:"T3"`
	T4 OrderedProbs `yaml:"T4"`
}

func (f FacilityTransitions) forTriage(t string) (*OrderedProbs, error) {
	switch t {
	case "T1":
		return &f.T1, nil
	case "T2":
		return &f.T2, nil
	case "T3":
		return &f.T3, nil
	case "T4":
		return &f.T4, nil
	default:
		return nil, fmt.Errorf("markov: unknown triage category %q", t)
	}
}

type facilityEntry struct {
	Transitions FacilityTransitions `yaml:"transitions"`
}

// MassCasualtyModifiers configures the mass-casualty-event adjustment.
type MassCasualtyModifiers struct {
	KIAMultiplier float64 `yaml:"kia_multiplier"`
	RTDReduction  float64 `yaml:"rtd_reduction"`
}

// GoldenHourModifiers configures the T1 golden-hour adjustment.
type GoldenHourModifiers struct {
	SurvivalBonus float64 `yaml:"survival_bonus"`
	KIAMultiplier float64 `yaml:"kia_multiplier"`
}

// DegradedEnvironmentModifiers configures the degraded-environment
// adjustment.
type DegradedEnvironmentModifiers struct {
	KIAMultiplier float64 `yaml:"kia_multiplier"`
}

// Modifiers groups the environmental/situational multiplier tables.
type Modifiers struct {
	MassCasualty        MassCasualtyModifiers        `yaml:"mass_casualty"`
	GoldenHour          GoldenHourModifiers          `yaml:"golden_hour"`
	DegradedEnvironment DegradedEnvironmentModifiers `yaml:"degraded_environment"`
}

// SpecialConditions groups the tunable parameter of the special-condition
// overrides; the override multipliers and caps themselves are fixed
// constants (see conditions.go) per the specification's literal values.
type SpecialConditions struct {
	VehicleEvacProbability float64 `yaml:"vehicle_evac_probability"`
}

// Document is the parsed transition-matrices file: base_transitions,
// modifiers, and special_conditions. evacuation_times and
// mortality_checkpoints are carried through as raw nodes for the evac and
// checkpoint packages to parse themselves, since they are independent
// sub-documents sharing this one file.
type Document struct {
	BaseTransitions      map[string]facilityEntry `yaml:"base_transitions"`
	Modifiers            Modifiers                `yaml:"modifiers"`
	SpecialConditions    SpecialConditions         `yaml:"special_conditions"`
	EvacuationTimesRaw   yaml.Node                 `yaml:"evacuation_times"`
	MortalityCheckpoints yaml.Node                 `yaml:"mortality_checkpoints"`
}

// ParseDocument parses the transition-matrices file.
func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("markov: parse transition matrices: %w", err)
	}
	if doc.SpecialConditions.VehicleEvacProbability == 0 {
		doc.SpecialConditions.VehicleEvacProbability = 0.15
	}
	return &doc, nil
}
