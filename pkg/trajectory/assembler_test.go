package trajectory

import (
	"testing"
	"time"

	"github.com/milmed-sim/castrain/pkg/checkpoint"
	"github.com/milmed-sim/castrain/pkg/evac"
	"github.com/milmed-sim/castrain/pkg/markov"
	"github.com/milmed-sim/castrain/pkg/rngstream"
)

const testMatrixDoc = `
base_transitions:
  POI:
    transitions:
      T1: {Role1: 0.90, KIA: 0.07, RTD: 0.03}
      T2: {Role1: 0.93, KIA: 0.02, RTD: 0.05}
      T3: {Role1: 0.95, RTD: 0.05}
      T4: {Role1: 0.80, RTD: 0.20}
  Role1:
    transitions:
      T1: {Role2: 0.55, KIA: 0.15, RTD: 0.30}
      T2: {Role2: 0.35, RTD: 0.60, KIA: 0.05}
      T3: {Role2: 0.15, RTD: 0.80, KIA: 0.05}
      T4: {RTD: 0.97, Role2: 0.03}
  Role2:
    transitions:
      T1: {Role3: 0.45, KIA: 0.10, RTD: 0.45}
      T2: {Role3: 0.25, RTD: 0.70, KIA: 0.05}
      T3: {RTD: 0.92, Role3: 0.08}
      T4: {RTD: 1.0}
  Role3:
    transitions:
      T1: {Role4: 0.35, KIA: 0.10, RTD: 0.55}
      T2: {Role4: 0.15, RTD: 0.80, KIA: 0.05}
      T3: {RTD: 0.96, Role4: 0.04}
      T4: {RTD: 1.0}
  Role4:
    transitions:
      T1: {Remains_Role4: 0.60, KIA: 0.10, RTD: 0.30}
      T2: {Remains_Role4: 0.40, RTD: 0.60}
      T3: {RTD: 1.0}
      T4: {RTD: 1.0}
modifiers:
  mass_casualty: {kia_multiplier: 1.3, rtd_reduction: 0.8}
  golden_hour: {survival_bonus: 0.3, kia_multiplier: 1.4}
  degraded_environment: {kia_multiplier: 1.1}
special_conditions:
  vehicle_evac_probability: 0.15
evacuation_times:
  POI_to_Role1: {ground: {mu: 30, sigma: 10}, air: {mu: 12, sigma: 4}}
  Role1_to_Role2: {ground: {mu: 60}}
  Role2_to_Role3: {ground: {mu: 90}}
  Role3_to_Role4: {ground: {mu: 120}}
mortality_checkpoints:
  caps: {T1: 0.60, T2: 0.35, T3: 0.15, T4: 0.05}
`

func buildTestAssembler(t *testing.T, scenario string) *Assembler {
	t.Helper()

	doc, err := markov.ParseDocument([]byte(testMatrixDoc))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	chain, err := markov.NewChain(doc)
	if err != nil {
		t.Fatalf("NewChain() error = %v", err)
	}
	evacModel, err := evac.NewModel(doc.EvacuationTimesRaw)
	if err != nil {
		t.Fatalf("evac.NewModel() error = %v", err)
	}
	checkpointModel, err := checkpoint.NewModel(doc.MortalityCheckpoints)
	if err != nil {
		t.Fatalf("checkpoint.NewModel() error = %v", err)
	}

	fronts := []FrontInput{
		{ID: "alpha", Name: "Alpha Front", Ratio: 1.0, Nations: []NationInput{{Code: "USA", Percentage: 100}}},
	}

	assembler, err := NewAssembler(fronts, scenario, chain, evacModel, checkpointModel, true, nil, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 10)
	if err != nil {
		t.Fatalf("NewAssembler() error = %v", err)
	}
	return assembler
}

func TestAssembleProducesValidRecord(t *testing.T) {
	assembler := buildTestAssembler(t, "conventional")
	rng := rngstream.New(42)

	record, diag, err := assembler.Assemble(rng.Child(0), 0)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	_ = diag

	if len(record.Timeline) < 2 {
		t.Fatalf("expected at least injury+terminal events, got %d", len(record.Timeline))
	}
	last := record.Timeline[len(record.Timeline)-1]
	switch last.EventType {
	case EventKIA, EventRTD, EventRemainsRole4:
	default:
		t.Fatalf("unexpected terminal event type %q", last.EventType)
	}

	wantStatus := map[string]string{EventKIA: StatusKIA, EventRTD: StatusRTD, EventRemainsRole4: StatusRemainsRole4}[last.EventType]
	if record.FinalStatus != wantStatus {
		t.Fatalf("final_status %q does not match last event %q", record.FinalStatus, last.EventType)
	}

	if len(record.Injuries) == 0 {
		t.Fatal("expected at least one injury")
	}
	if record.Front != "alpha" {
		t.Fatalf("expected front alpha, got %q", record.Front)
	}
	if record.Nationality != "USA" {
		t.Fatalf("expected nationality USA, got %q", record.Nationality)
	}
}

func TestAssembleTimelineIsMonotonic(t *testing.T) {
	assembler := buildTestAssembler(t, "ied")
	rng := rngstream.New(7)

	for i := 0; i < 200; i++ {
		record, _, err := assembler.Assemble(rng.Child(i), i)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		for j := 1; j < len(record.Timeline); j++ {
			if record.Timeline[j].Timestamp.Before(record.Timeline[j-1].Timestamp) {
				t.Fatalf("patient %d: timeline not monotonic at event %d", i, j)
			}
			if record.Timeline[j].HoursSinceInjury < 0 {
				t.Fatalf("patient %d: negative hours_since_injury at event %d", i, j)
			}
		}
	}
}

func TestAssembleEmitsTreatmentEventAtNonPOIFacilities(t *testing.T) {
	assembler := buildTestAssembler(t, "conventional")
	rng := rngstream.New(17)

	sawTreatment := false
	for i := 0; i < 200 && !sawTreatment; i++ {
		record, _, err := assembler.Assemble(rng.Child(i), i)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		for j, ev := range record.Timeline {
			if ev.EventType != EventTreatment {
				continue
			}
			sawTreatment = true
			if ev.Facility == "" || ev.Facility == "POI" {
				t.Fatalf("patient %d: treatment event at invalid facility %q", i, ev.Facility)
			}
			if j == 0 || record.Timeline[j-1].EventType != EventArrival || record.Timeline[j-1].Facility != ev.Facility {
				t.Fatalf("patient %d: treatment event not immediately preceded by arrival at the same facility", i)
			}
		}
	}
	if !sawTreatment {
		t.Fatal("expected at least one treatment event across 200 patients")
	}
}

func TestAssembleEveryPatientHasValidFrontNationalityTriageInjuries(t *testing.T) {
	assembler := buildTestAssembler(t, "conventional")
	rng := rngstream.New(123)

	validTriage := map[string]bool{"T1": true, "T2": true, "T3": true, "T4": true}

	for i := 0; i < 500; i++ {
		record, _, err := assembler.Assemble(rng.Child(i), i)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if record.Front != "alpha" {
			t.Fatalf("patient %d: front %q not in configured fronts", i, record.Front)
		}
		if record.Nationality != "USA" {
			t.Fatalf("patient %d: nationality %q not valid for front", i, record.Nationality)
		}
		if !validTriage[record.TriageCategory] {
			t.Fatalf("patient %d: triage category %q not in {T1..T4}", i, record.TriageCategory)
		}
		if len(record.Injuries) == 0 {
			t.Fatalf("patient %d: expected non-empty injuries", i)
		}
	}
}

func TestConventionalPolytraumaFrequencyInRange(t *testing.T) {
	assembler := buildTestAssembler(t, "conventional")
	rng := rngstream.New(55)

	polytraumaCount := 0
	const n = 5000
	for i := 0; i < n; i++ {
		record, _, err := assembler.Assemble(rng.Child(i), i)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if record.Polytrauma {
			polytraumaCount++
		}
	}
	freq := float64(polytraumaCount) / n
	if freq < 0.30 || freq > 0.55 {
		t.Fatalf("conventional polytrauma frequency %.3f outside expected [0.30, 0.55]", freq)
	}
}

func TestDirectFromPOIEvacuationIsRare(t *testing.T) {
	assembler := buildTestAssembler(t, "conventional")
	rng := rngstream.New(321)

	direct := 0
	const n = 5000
	for i := 0; i < n; i++ {
		record, _, err := assembler.Assemble(rng.Child(i), i)
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		if len(record.Timeline) >= 2 {
			first := record.Timeline[1]
			if first.EventType == EventArrival && first.Facility != "Role1" {
				direct++
			}
		}
	}
	frac := float64(direct) / n
	if frac > 0.10 {
		t.Fatalf("direct-from-POI fraction %.3f exceeds 10%% ceiling", frac)
	}
}

func TestAssembleDeterministicForSameSeed(t *testing.T) {
	assembler1 := buildTestAssembler(t, "artillery")
	assembler2 := buildTestAssembler(t, "artillery")

	root1 := rngstream.New(99)
	root2 := rngstream.New(99)

	r1, _, _ := assembler1.Assemble(root1.Child(5), 5)
	r2, _, _ := assembler2.Assemble(root2.Child(5), 5)

	if r1.FinalStatus != r2.FinalStatus || len(r1.Timeline) != len(r2.Timeline) {
		t.Fatalf("expected identical records for identical seed: %+v vs %+v", r1, r2)
	}
}
