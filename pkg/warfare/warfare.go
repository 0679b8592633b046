// Package warfare samples correlated, polytrauma-aware injuries for a
// warfare scenario and exposes the reverse-inference diagnostic used to
// identify the most likely scenario behind a given set of injury codes.
package warfare

import (
	"fmt"
	"sort"

	"github.com/milmed-sim/castrain/pkg/rngstream"
)

// Injury is one wound assigned to a patient.
type Injury struct {
	Code      string
	Name      string
	Severity  int
	IsPrimary bool
}

// InjuryCode is a static entry in a scenario's injury distribution.
type InjuryCode struct {
	Code        string
	Name        string
	Probability float64
}

// Pattern is the static, scenario-keyed table of injury distributions,
// severity/mortality/polytrauma modifiers, and injury correlations.
type Pattern struct {
	Name                   string
	InjuryDistribution     []InjuryCode // ordered; order is the tie-break/declared key order
	SeverityModifier       float64
	PolytraumaRate         float64
	MortalityModifier      float64
	MassCasualtyProbability float64
	EnvironmentFactors     []string
}

// Correlated injuries one a primary injury code commonly co-occurs with.
var correlations = map[string][]InjuryCode{
	"125596004": { // explosive injury
		{Code: "361220002", Name: "Penetrating injury (shrapnel)", Probability: 1},
		{Code: "7200002", Name: "Burn", Probability: 1},
		{Code: "127294003", Name: "Traumatic brain injury", Probability: 1},
		{Code: "267036007", Name: "Blast lung", Probability: 1},
	},
	"125689001": { // traumatic amputation
		{Code: "125605004", Name: "Pelvic/spine fracture", Probability: 1},
		{Code: "275272006", Name: "Abdominal injury", Probability: 1},
		{Code: "68566005", Name: "Genitourinary injury", Probability: 1},
		{Code: "7200002", Name: "Burn", Probability: 1},
	},
	"361220002": { // penetrating injury
		{Code: "275272006", Name: "Abdominal injury", Probability: 1},
		{Code: "125605004", Name: "Fracture", Probability: 1},
		{Code: "87991007", Name: "Hemothorax", Probability: 1},
	},
	"127294003": { // traumatic brain injury
		{Code: "125605004", Name: "Skull fracture", Probability: 1},
		{Code: "2055003", Name: "Facial laceration", Probability: 1},
		{Code: "409711008", Name: "Crush injury", Probability: 1},
	},
	"262574004": { // gunshot wound
		{Code: "361220002", Name: "Penetrating injury", Probability: 1},
		{Code: "125605004", Name: "Fracture", Probability: 1},
		{Code: "275272006", Name: "Internal organ damage", Probability: 1},
	},
}

// Table holds the five fixed warfare-scenario patterns.
var Table = map[string]Pattern{
	"artillery": {
		Name: "artillery",
		InjuryDistribution: []InjuryCode{
			{Code: "125596004", Name: "Explosive injury", Probability: 0.35},
			{Code: "361220002", Name: "Penetrating/shrapnel wound", Probability: 0.20},
			{Code: "7200002", Name: "Burn", Probability: 0.15},
			{Code: "125689001", Name: "Traumatic amputation", Probability: 0.10},
			{Code: "127294003", Name: "Traumatic brain injury", Probability: 0.08},
			{Code: "275272006", Name: "Abdominal injury", Probability: 0.05},
			{Code: "125605004", Name: "Fracture", Probability: 0.05},
			{Code: "267036007", Name: "Dyspnea/blast lung", Probability: 0.02},
		},
		SeverityModifier:        1.3,
		PolytraumaRate:          0.65,
		MortalityModifier:       1.2,
		MassCasualtyProbability: 0.40,
		EnvironmentFactors:      []string{"artillery_barrage"},
	},
	"ied": {
		Name: "ied",
		InjuryDistribution: []InjuryCode{
			{Code: "125689001", Name: "Traumatic amputation (legs)", Probability: 0.25},
			{Code: "125596004", Name: "Explosive injury", Probability: 0.20},
			{Code: "361220002", Name: "Penetrating wound (upward)", Probability: 0.15},
			{Code: "7200002", Name: "Burn", Probability: 0.12},
			{Code: "125605004", Name: "Fracture", Probability: 0.10},
			{Code: "275272006", Name: "Abdominal injury", Probability: 0.08},
			{Code: "127294003", Name: "Traumatic brain injury", Probability: 0.07},
			{Code: "68566005", Name: "Urinary tract injury", Probability: 0.03},
		},
		SeverityModifier:        1.4,
		PolytraumaRate:          0.70,
		MortalityModifier:       1.3,
		MassCasualtyProbability: 0.35,
		EnvironmentFactors:      []string{"urban_combat"},
	},
	"urban": {
		Name: "urban",
		InjuryDistribution: []InjuryCode{
			{Code: "262574004", Name: "Gunshot wound", Probability: 0.30},
			{Code: "361220002", Name: "Penetrating injury", Probability: 0.25},
			{Code: "125596004", Name: "Injury by explosive", Probability: 0.15},
			{Code: "2055003", Name: "Laceration", Probability: 0.10},
			{Code: "125605004", Name: "Fracture of bone", Probability: 0.08},
			{Code: "127294003", Name: "Traumatic brain injury", Probability: 0.05},
			{Code: "409711008", Name: "Crush injury", Probability: 0.04},
			{Code: "16932000", Name: "Nausea and vomiting", Probability: 0.03},
		},
		SeverityModifier:        1.1,
		PolytraumaRate:          0.45,
		MortalityModifier:       1.0,
		MassCasualtyProbability: 0.25,
		EnvironmentFactors:      []string{"urban_combat", "confined_spaces"},
	},
	"conventional": {
		Name: "conventional",
		InjuryDistribution: []InjuryCode{
			{Code: "262574004", Name: "Gunshot wound", Probability: 0.25},
			{Code: "125596004", Name: "Injury by explosive", Probability: 0.20},
			{Code: "361220002", Name: "Penetrating injury", Probability: 0.15},
			{Code: "125605004", Name: "Fracture of bone", Probability: 0.12},
			{Code: "2055003", Name: "Laceration", Probability: 0.10},
			{Code: "275272006", Name: "Injury of abdomen", Probability: 0.06},
			{Code: "127294003", Name: "Traumatic brain injury", Probability: 0.05},
			{Code: "7200002", Name: "Burn of skin", Probability: 0.04},
			{Code: "125689001", Name: "Traumatic amputation", Probability: 0.03},
		},
		SeverityModifier:        1.0,
		PolytraumaRate:          0.40,
		MortalityModifier:       1.0,
		MassCasualtyProbability: 0.20,
		EnvironmentFactors:      []string{"combined_arms"},
	},
	"mixed": {
		Name: "mixed",
		InjuryDistribution: []InjuryCode{
			{Code: "262574004", Name: "Gunshot wound", Probability: 0.20},
			{Code: "125596004", Name: "Injury by explosive", Probability: 0.18},
			{Code: "361220002", Name: "Penetrating injury", Probability: 0.16},
			{Code: "125605004", Name: "Fracture of bone", Probability: 0.12},
			{Code: "2055003", Name: "Laceration", Probability: 0.10},
			{Code: "125689001", Name: "Traumatic amputation", Probability: 0.06},
			{Code: "275272006", Name: "Injury of abdomen", Probability: 0.06},
			{Code: "127294003", Name: "Traumatic brain injury", Probability: 0.05},
			{Code: "7200002", Name: "Burn of skin", Probability: 0.04},
			{Code: "16932000", Name: "Psychological stress reaction", Probability: 0.03},
		},
		SeverityModifier:        1.1,
		PolytraumaRate:          0.50,
		MortalityModifier:       1.1,
		MassCasualtyProbability: 0.30,
		EnvironmentFactors:      []string{"unpredictable", "mixed_threats"},
	},
}

// Lookup returns the pattern for a scenario name, or an error if unknown.
func Lookup(scenario string) (Pattern, error) {
	p, ok := Table[scenario]
	if !ok {
		return Pattern{}, fmt.Errorf("warfare: unknown scenario %q", scenario)
	}
	return p, nil
}

// Sample draws a primary injury (and, when polytrauma is indicated,
// correlated secondary injuries), a clamped severity, and the
// mass-casualty/environment tags for one patient.
func (p Pattern) Sample(rng *rngstream.Stream) (injuries []Injury, severity int, polytrauma bool, isMassCasualty bool) {
	polytrauma = rng.Bernoulli(p.PolytraumaRate)

	primary := p.drawPrimary(rng)
	injuries = append(injuries, Injury{Code: primary.Code, Name: primary.Name, IsPrimary: true})

	if polytrauma {
		k := rng.Poisson(1.5)
		if k > 3 {
			k = 3
		}
		for _, inj := range p.drawCorrelated(rng, primary.Code, k) {
			injuries = append(injuries, Injury{Code: inj.Code, Name: inj.Name})
		}
	}

	base := rng.UniformInt(3, 8)
	if polytrauma {
		base += 2
	}
	severity = int(float64(base) * p.SeverityModifier)
	if severity < 1 {
		severity = 1
	}
	if severity > 10 {
		severity = 10
	}
	for i := range injuries {
		injuries[i].Severity = severity
	}

	isMassCasualty = rng.Bernoulli(p.MassCasualtyProbability)
	return injuries, severity, polytrauma, isMassCasualty
}

func (p Pattern) drawPrimary(rng *rngstream.Stream) InjuryCode {
	weights := make([]float64, len(p.InjuryDistribution))
	for i, c := range p.InjuryDistribution {
		weights[i] = c.Probability
	}
	return p.InjuryDistribution[rng.WeightedIndex(weights)]
}

// drawCorrelated samples up to k distinct correlated injuries without
// replacement from the primary code's correlation list.
func (p Pattern) drawCorrelated(rng *rngstream.Stream, primaryCode string, k int) []InjuryCode {
	pool := append([]InjuryCode(nil), correlations[primaryCode]...)
	if k > len(pool) {
		k = len(pool)
	}

	picked := make([]InjuryCode, 0, k)
	for i := 0; i < k && len(pool) > 0; i++ {
		weights := make([]float64, len(pool))
		for j := range pool {
			weights[j] = 1
		}
		idx := rng.WeightedIndex(weights)
		picked = append(picked, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return picked
}

// AnalyzeScenario is the diagnostic dual of Sample: given a set of injury
// codes, it returns the scenario whose distribution assigns them the
// highest total probability mass. Used only for reporting, never for
// generation.
func AnalyzeScenario(codes []string) string {
	seen := make(map[string]bool, len(codes))
	for _, c := range codes {
		seen[c] = true
	}

	names := make([]string, 0, len(Table))
	for name := range Table {
		names = append(names, name)
	}
	sort.Strings(names) // alphabetical order for deterministic tie-break

	best := ""
	bestScore := -1.0
	for _, name := range names {
		score := 0.0
		for _, c := range Table[name].InjuryDistribution {
			if seen[c.Code] {
				score += c.Probability
			}
		}
		if score > bestScore {
			bestScore = score
			best = name
		}
	}
	return best
}
