package markov

import (
	"testing"

	"github.com/milmed-sim/castrain/pkg/rngstream"
)

const sampleDoc = `
base_transitions:
  POI:
    transitions:
      T1: {Role1: 0.85, KIA: 0.10, RTD: 0.05, description: "POI T1 routing"}
      T2: {Role1: 0.90, KIA: 0.03, RTD: 0.07}
      T3: {Role1: 0.95, RTD: 0.05}
      T4: {Role1: 0.80, RTD: 0.20}
  Role1:
    transitions:
      T1: {Role2: 0.60, KIA: 0.15, RTD: 0.25}
      T2: {Role2: 0.40, RTD: 0.55, KIA: 0.05}
      T3: {Role2: 0.20, RTD: 0.75, KIA: 0.05}
      T4: {RTD: 0.95, Role2: 0.05}
  Role2:
    transitions:
      T1: {Role3: 0.50, KIA: 0.10, RTD: 0.40}
      T2: {Role3: 0.30, RTD: 0.65, KIA: 0.05}
      T3: {RTD: 0.90, Role3: 0.10}
      T4: {RTD: 1.0}
  Role3:
    transitions:
      T1: {Role4: 0.40, KIA: 0.10, RTD: 0.50}
      T2: {Role4: 0.20, RTD: 0.75, KIA: 0.05}
      T3: {RTD: 0.95, Role4: 0.05}
      T4: {RTD: 1.0}
  Role4:
    transitions:
      T1: {Remains_Role4: 0.70, KIA: 0.10, RTD: 0.20}
      T2: {Remains_Role4: 0.50, RTD: 0.50}
      T3: {RTD: 1.0}
      T4: {RTD: 1.0}
modifiers:
  mass_casualty: {kia_multiplier: 1.4, rtd_reduction: 0.7}
  golden_hour: {survival_bonus: 0.3, kia_multiplier: 1.5}
  degraded_environment: {kia_multiplier: 1.2}
special_conditions:
  vehicle_evac_probability: 0.15
`

func TestNewChainValidatesRowSums(t *testing.T) {
	doc, err := ParseDocument([]byte(sampleDoc))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if _, err := NewChain(doc); err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}
}

func TestNewChainRejectsBadRowSum(t *testing.T) {
	bad := sampleDoc + "\n" // copy then corrupt one row below
	doc, err := ParseDocument([]byte(bad))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	row := doc.BaseTransitions["POI"].Transitions.T1
	row.Vals["KIA"] = 0.9 // now sums well over 1
	entry := doc.BaseTransitions["POI"]
	entry.Transitions.T1 = row
	doc.BaseTransitions["POI"] = entry

	if _, err := NewChain(doc); err == nil {
		t.Fatal("expected MatrixError for corrupted row")
	} else if _, ok := err.(*MatrixError); !ok {
		t.Fatalf("expected *MatrixError, got %T", err)
	}
}

func TestNextStaysWithinDeclaredKeys(t *testing.T) {
	doc, _ := ParseDocument([]byte(sampleDoc))
	chain, err := NewChain(doc)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}
	rng := rngstream.New(42)

	for i := 0; i < 200; i++ {
		next, _, err := chain.Next(rng, Conditions{Triage: "T1", Facility: Role1})
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		switch next {
		case Role2, KIA, RTD:
		default:
			t.Fatalf("unexpected successor %q", next)
		}
	}
}

func TestAmputationIncreasesRole2AtRole1(t *testing.T) {
	doc, _ := ParseDocument([]byte(sampleDoc))
	chain, _ := NewChain(doc)
	rng := rngstream.New(1)

	role2Count := 0
	const n = 2000
	for i := 0; i < n; i++ {
		next, _, _ := chain.Next(rng, Conditions{Triage: "T1", Facility: Role1, Amputation: true})
		if next == Role2 {
			role2Count++
		}
	}
	if float64(role2Count)/n < 0.6 {
		t.Fatalf("expected amputation override to push most draws to Role2, got %.2f", float64(role2Count)/n)
	}
}

func TestGoldenHourReducesKIA(t *testing.T) {
	doc, _ := ParseDocument([]byte(sampleDoc))
	chain, _ := NewChain(doc)

	withinHour := rngstream.New(5)
	afterHour := rngstream.New(5)

	kiaWithin, kiaAfter := 0, 0
	const n = 3000
	for i := 0; i < n; i++ {
		next, _, _ := chain.Next(withinHour, Conditions{Triage: "T1", Facility: Role1, ElapsedHoursSinceInjury: 0.5})
		if next == KIA {
			kiaWithin++
		}
		next2, _, _ := chain.Next(afterHour, Conditions{Triage: "T1", Facility: Role1, ElapsedHoursSinceInjury: 2.0})
		if next2 == KIA {
			kiaAfter++
		}
	}
	if kiaWithin >= kiaAfter {
		t.Fatalf("expected fewer KIA within golden hour (%d) than after (%d)", kiaWithin, kiaAfter)
	}
}

func TestValidatePathFlagsBypassedRole1(t *testing.T) {
	v := ValidatePath([]string{POI, Role2, Role3, KIA})
	if !v.BypassedRole1 {
		t.Fatal("expected BypassedRole1 to be true")
	}
}

func TestValidatePathFlagsRevisit(t *testing.T) {
	v := ValidatePath([]string{POI, Role1, Role2, Role1, KIA})
	if len(v.Warnings) == 0 {
		t.Fatal("expected a warning for revisited facility")
	}
}
