package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ConfigVersion = "castrain.v1"
)

// Duration wraps time.Duration for YAML/JSON marshaling as human strings.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// InjuriesConfig is the deterioration/injury-mix document.
type InjuriesConfig struct {
	ConfigVersion   string                  `yaml:"config_version" json:"config_version"`
	TotalPatients   int                     `yaml:"total_patients" json:"total_patients"`
	InjuryMix       map[string]float64      `yaml:"injury_mix" json:"injury_mix"` // Battle Injury, Non-Battle Injury, Disease -> percentage
	Deterioration   map[string]Deterioration `yaml:"deterioration_model" json:"deterioration_model"`
	EnvironmentMods map[string]float64      `yaml:"environmental_modifiers" json:"environmental_modifiers"`
	CompatibleWith  Compatibility           `yaml:"compatible_with" json:"compatible_with"`
}

// Deterioration describes the per-injury-type/severity deterioration curve.
type Deterioration struct {
	InitialHealth        float64 `yaml:"initial_health" json:"initial_health"`               // [0,100]
	DeteriorationRate     float64 `yaml:"deterioration_rate" json:"deterioration_rate"`       // [0,100]
	HemorrhageMultiplier float64 `yaml:"hemorrhage_multiplier" json:"hemorrhage_multiplier"` // [0.5,3.0]
}

// Compatibility lists the config_version values this document declares itself
// compatible with in the companion document.
type Compatibility struct {
	FrontsConfig []string `yaml:"fronts_config,omitempty" json:"fronts_config,omitempty"`
	Injuries     []string `yaml:"injuries,omitempty" json:"injuries,omitempty"`
}

// FrontsConfig is the fronts/facility-topology document.
type FrontsConfig struct {
	ConfigVersion  string        `yaml:"config_version" json:"config_version"`
	Fronts         []FrontSpec   `yaml:"fronts" json:"fronts"`
	CompatibleWith Compatibility `yaml:"compatible_with" json:"compatible_with"`
}

// FrontSpec describes one front: its share of casualties, nationality mix,
// and medical-facility topology.
type FrontSpec struct {
	ID                 string           `yaml:"id" json:"id"`
	Name               string           `yaml:"name" json:"name"`
	Ratio              float64          `yaml:"ratio" json:"ratio"`
	Nations            []NationShare    `yaml:"nations" json:"nations"`
	MedicalFacilities  FacilityTopology `yaml:"medical_facilities" json:"medical_facilities"`
	TransportAssets    TransportAssets  `yaml:"transport_assets,omitempty" json:"transport_assets,omitempty"`
}

// NationShare is one nationality's percentage share within a front.
type NationShare struct {
	NationalityCode string  `yaml:"nationality_code" json:"nationality_code"`
	Percentage      float64 `yaml:"percentage" json:"percentage"`
}

// FacilityTopology describes bed/OR capacity per echelon.
type FacilityTopology struct {
	Role1 FacilitySpec `yaml:"role1" json:"role1"`
	Role2 FacilitySpec `yaml:"role2" json:"role2"`
	Role3 FacilitySpec `yaml:"role3" json:"role3"`
	Role4 FacilitySpec `yaml:"role4" json:"role4"`
}

// FacilitySpec is one echelon's capacity configuration.
type FacilitySpec struct {
	Count               int `yaml:"count" json:"count"`
	CapacityPerFacility int `yaml:"capacity_per_facility" json:"capacity_per_facility"`
	ORCapacity          int `yaml:"or_capacity" json:"or_capacity"`
}

// TransportAssets counts available evacuation transport by type.
type TransportAssets struct {
	Helicopters int `yaml:"helicopters,omitempty" json:"helicopters,omitempty"`
	GroundAmbulances int `yaml:"ground_ambulances,omitempty" json:"ground_ambulances,omitempty"`
}

// ScenarioOverride is an optional top-level document that selects the
// warfare scenario, environment flags, and mass-casualty behavior for a run.
type ScenarioOverride struct {
	TotalPatients    int      `yaml:"total_patients,omitempty" json:"total_patients,omitempty"`
	WarfareScenario  string   `yaml:"warfare_scenario,omitempty" json:"warfare_scenario,omitempty"`
	EnvironmentFlags []string `yaml:"environment_flags,omitempty" json:"environment_flags,omitempty"`
	MassCasualty     bool     `yaml:"mass_casualty,omitempty" json:"mass_casualty,omitempty"`
	BaseDate         string   `yaml:"base_date,omitempty" json:"base_date,omitempty"`
	DaysOfFighting   int      `yaml:"days_of_fighting,omitempty" json:"days_of_fighting,omitempty"`
	Seed             *int64   `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// UnmarshalYAML implements custom YAML unmarshaling for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements custom YAML marshaling for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	if d == 0 {
		return "", nil
	}
	return time.Duration(d).String(), nil
}
