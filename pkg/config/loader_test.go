package config

import "testing"

const validDoc = `
config_version: castrain.v1
total_patients: 100
injury_mix:
  "Battle Injury": 70
  "Non-Battle Injury": 25
  "Disease": 5
deterioration_model:
  gunshot_wound:
    initial_health: 80
    deterioration_rate: 10
    hemorrhage_multiplier: 1.5
environmental_modifiers:
  urban_combat: 1.2
compatible_with:
  fronts_config: ["castrain.v1"]
---
config_version: castrain.v1
fronts:
  - id: alpha
    name: Alpha Front
    ratio: 1.0
    nations:
      - nationality_code: USA
        percentage: 100
    medical_facilities:
      role1: {count: 2, capacity_per_facility: 20, or_capacity: 0}
      role2: {count: 1, capacity_per_facility: 40, or_capacity: 6}
      role3: {count: 1, capacity_per_facility: 80, or_capacity: 10}
      role4: {count: 1, capacity_per_facility: 200, or_capacity: 20}
compatible_with:
  injuries: ["castrain.v1"]
---
warfare_scenario: conventional
seed: 42
`

func TestParseMultiDocument(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Injuries == nil {
		t.Fatal("expected injuries document")
	}
	if cfg.Fronts == nil {
		t.Fatal("expected fronts document")
	}
	if len(cfg.Fronts.Fronts) != 1 {
		t.Fatalf("expected 1 front, got %d", len(cfg.Fronts.Fronts))
	}
	if cfg.Scenario.WarfareScenario != "conventional" {
		t.Fatalf("expected conventional scenario, got %q", cfg.Scenario.WarfareScenario)
	}
}

func TestValidateAccumulatesAllProblems(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// Introduce two independent errors and one warning, verify the
	// validation pass reports all of them rather than stopping at the first.
	cfg.Fronts.Fronts[0].MedicalFacilities.Role1.ORCapacity = 2
	cfg.Fronts.Fronts[0].Nations[0].Percentage = 50
	cfg.Fronts.Fronts[0].TransportAssets.Helicopters = 8
	cfg.Defaults()

	result := cfg.Validate()
	if result.IsValid() {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) < 2 {
		t.Fatalf("expected at least 2 accumulated errors, got %d: %v", len(result.Errors), result.Errors)
	}
	if len(result.Warnings) < 1 {
		t.Fatalf("expected at least 1 warning, got %d: %v", len(result.Warnings), result.Warnings)
	}
}

func TestValidateRejectsRatioMismatch(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg.Fronts.Fronts[0].Ratio = 0.5
	cfg.Defaults()

	result := cfg.Validate()
	if result.IsValid() {
		t.Fatal("expected invalid result for mismatched front ratios")
	}
}

func TestDefaultsFillsWarfareScenario(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg.Scenario.WarfareScenario = ""
	cfg.Defaults()
	if cfg.Scenario.WarfareScenario != "conventional" {
		t.Fatalf("expected default scenario conventional, got %q", cfg.Scenario.WarfareScenario)
	}
}

func TestValidateRejectsIncompatibleVersions(t *testing.T) {
	doc := `
config_version: castrain.v1
total_patients: 10
injury_mix: {"Battle Injury": 100}
compatible_with:
  fronts_config: ["castrain.v2"]
---
config_version: castrain.v1
fronts:
  - id: alpha
    ratio: 1.0
    nations: [{nationality_code: USA, percentage: 100}]
    medical_facilities:
      role1: {count: 1, capacity_per_facility: 10, or_capacity: 0}
      role2: {count: 1, capacity_per_facility: 10, or_capacity: 6}
      role3: {count: 1, capacity_per_facility: 10, or_capacity: 6}
      role4: {count: 1, capacity_per_facility: 10, or_capacity: 6}
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	cfg.Defaults()
	result := cfg.Validate()
	if result.IsValid() {
		t.Fatal("expected incompatible versions to be rejected")
	}
}
