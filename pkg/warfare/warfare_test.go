package warfare

import (
	"testing"

	"github.com/milmed-sim/castrain/pkg/rngstream"
)

func TestAllScenariosSumToOne(t *testing.T) {
	for name, p := range Table {
		sum := 0.0
		for _, c := range p.InjuryDistribution {
			sum += c.Probability
		}
		if diff := sum - 1.0; diff > 0.01 || diff < -0.01 {
			t.Errorf("scenario %s: injury distribution sums to %.4f, want 1 ± 0.01", name, sum)
		}
	}
}

func TestSampleSeverityClamped(t *testing.T) {
	p := Table["ied"]
	rng := rngstream.New(7)
	for i := 0; i < 500; i++ {
		_, severity, _, _ := p.Sample(rng)
		if severity < 1 || severity > 10 {
			t.Fatalf("severity %d out of [1,10]", severity)
		}
	}
}

func TestIEDPolytraumaFrequencyAtScale(t *testing.T) {
	p := Table["ied"]
	rng := rngstream.New(7)
	polytraumaCount := 0
	const n = 5000
	for i := 0; i < n; i++ {
		_, _, polytrauma, _ := p.Sample(rng.Child(i))
		if polytrauma {
			polytraumaCount++
		}
	}
	freq := float64(polytraumaCount) / n
	if freq < 0.60 {
		t.Fatalf("ied polytrauma frequency %.3f below expected floor 0.60", freq)
	}
}

func TestSamplePrimaryInjuryAlwaysPresent(t *testing.T) {
	p := Table["conventional"]
	rng := rngstream.New(1)
	injuries, _, _, _ := p.Sample(rng)
	if len(injuries) == 0 {
		t.Fatal("expected at least one injury")
	}
	if !injuries[0].IsPrimary {
		t.Fatal("expected first injury to be primary")
	}
}

func TestAnalyzeScenarioRecoversIED(t *testing.T) {
	// amputation + urinary tract injury + fracture score highest against
	// the ied distribution specifically (0.25+0.03+0.10=0.38), ahead of
	// every other scenario's score for the same three codes.
	codes := []string{"125689001", "68566005", "125605004"}
	got := AnalyzeScenario(codes)
	if got != "ied" {
		t.Fatalf("AnalyzeScenario() = %q, want ied", got)
	}
}

func TestLookupUnknownScenario(t *testing.T) {
	if _, err := Lookup("nonexistent"); err == nil {
		t.Fatal("expected error for unknown scenario")
	}
}
