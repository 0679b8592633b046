package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds all loaded configuration documents for one scenario run.
type Config struct {
	Injuries *InjuriesConfig
	Fronts   *FrontsConfig
	Scenario *ScenarioOverride
}

// Load reads configuration from a file path. The file may contain one or
// more YAML documents (separated by `---`); each is discriminated by its
// top-level shape rather than an explicit kind field, since the three
// document types have disjoint required fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses configuration from YAML bytes, supporting multi-document
// input. Documents are distinguished by which top-level keys they carry.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var raw map[string]any
		if err := decoder.Decode(&raw); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode YAML document: %w", err)
		}
		if raw == nil {
			continue
		}

		docBytes, err := yaml.Marshal(raw)
		if err != nil {
			return nil, fmt.Errorf("re-marshal document: %w", err)
		}

		switch {
		case raw["deterioration_model"] != nil || raw["injury_mix"] != nil:
			var injuries InjuriesConfig
			if err := yaml.Unmarshal(docBytes, &injuries); err != nil {
				return nil, fmt.Errorf("parse injuries document: %w", err)
			}
			if cfg.Injuries != nil {
				return nil, fmt.Errorf("multiple injuries documents found")
			}
			cfg.Injuries = &injuries

		case raw["fronts"] != nil:
			var fronts FrontsConfig
			if err := yaml.Unmarshal(docBytes, &fronts); err != nil {
				return nil, fmt.Errorf("parse fronts document: %w", err)
			}
			if cfg.Fronts != nil {
				return nil, fmt.Errorf("multiple fronts documents found")
			}
			cfg.Fronts = &fronts

		case raw["warfare_scenario"] != nil || raw["mass_casualty"] != nil:
			var scenario ScenarioOverride
			if err := yaml.Unmarshal(docBytes, &scenario); err != nil {
				return nil, fmt.Errorf("parse scenario override document: %w", err)
			}
			if cfg.Scenario != nil {
				return nil, fmt.Errorf("multiple scenario override documents found")
			}
			cfg.Scenario = &scenario

		default:
			return nil, fmt.Errorf("unrecognized configuration document (no injuries/fronts/scenario fields)")
		}
	}

	if cfg.Injuries == nil {
		return nil, fmt.Errorf("missing injuries configuration document")
	}
	if cfg.Fronts == nil {
		return nil, fmt.Errorf("missing fronts configuration document")
	}
	if cfg.Scenario == nil {
		cfg.Scenario = &ScenarioOverride{}
	}

	return cfg, nil
}

// Defaults applies default values to a loaded configuration, mirroring the
// fallbacks the generator would otherwise need to special-case at every
// call site.
func (c *Config) Defaults() {
	if c.Scenario.WarfareScenario == "" {
		c.Scenario.WarfareScenario = "conventional"
	}
	if c.Scenario.TotalPatients == 0 {
		c.Scenario.TotalPatients = c.Injuries.TotalPatients
	}
	if c.Scenario.DaysOfFighting == 0 {
		c.Scenario.DaysOfFighting = 1
	}

	for i := range c.Fronts.Fronts {
		f := &c.Fronts.Fronts[i]
		if f.MedicalFacilities.Role1.CapacityPerFacility == 0 {
			f.MedicalFacilities.Role1.CapacityPerFacility = 20
		}
	}
}

// Validate cross-checks the loaded documents and accumulates every problem
// found rather than returning on the first one, matching the accumulation
// contract required of the core (errors abort, warnings are advisory).
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	c.validateCompatibility(result)
	c.validateInjuries(result)
	c.validateFronts(result)
	c.validateScenario(result)

	return result
}

func (c *Config) validateCompatibility(r *ValidationResult) {
	if c.Injuries == nil || c.Fronts == nil {
		return
	}
	if !contains(c.Injuries.CompatibleWith.FrontsConfig, c.Fronts.ConfigVersion) {
		r.addError("injuries config_version %q does not declare compatibility with fronts config_version %q",
			c.Injuries.ConfigVersion, c.Fronts.ConfigVersion)
	}
	if !contains(c.Fronts.CompatibleWith.Injuries, c.Injuries.ConfigVersion) {
		r.addError("fronts config_version %q does not declare compatibility with injuries config_version %q",
			c.Fronts.ConfigVersion, c.Injuries.ConfigVersion)
	}
}

func (c *Config) validateInjuries(r *ValidationResult) {
	if c.Injuries == nil {
		r.addError("injuries configuration is missing")
		return
	}

	sum := 0.0
	for _, pct := range c.Injuries.InjuryMix {
		sum += pct
	}
	if len(c.Injuries.InjuryMix) > 0 && !within(sum, 100, 0.01) {
		r.addError("injury_mix percentages sum to %.2f, expected 100 ± 0.01", sum)
	}

	for name, d := range c.Injuries.Deterioration {
		if d.InitialHealth < 0 || d.InitialHealth > 100 {
			r.addError("deterioration_model[%s].initial_health = %.2f outside [0,100]", name, d.InitialHealth)
		}
		if d.DeteriorationRate < 0 || d.DeteriorationRate > 100 {
			r.addError("deterioration_model[%s].deterioration_rate = %.2f outside [0,100]", name, d.DeteriorationRate)
		}
		if d.HemorrhageMultiplier < 0.5 || d.HemorrhageMultiplier > 3.0 {
			r.addWarning("deterioration_model[%s].hemorrhage_multiplier = %.2f outside recommended [0.5,3.0]", name, d.HemorrhageMultiplier)
		}
	}

	for name, mult := range c.Injuries.EnvironmentMods {
		if mult < 0.5 || mult > 3.0 {
			r.addWarning("environmental_modifiers[%s] = %.2f outside recommended [0.5,3.0]", name, mult)
		}
	}
}

func (c *Config) validateFronts(r *ValidationResult) {
	if c.Fronts == nil {
		r.addError("fronts configuration is missing")
		return
	}
	if len(c.Fronts.Fronts) == 0 {
		r.addError("fronts configuration declares no fronts")
		return
	}

	ratioSum := 0.0
	expectedTotal := 0
	if c.Injuries != nil {
		expectedTotal = c.Injuries.TotalPatients
	}

	for _, f := range c.Fronts.Fronts {
		ratioSum += f.Ratio

		nationSum := 0.0
		for _, n := range f.Nations {
			nationSum += n.Percentage
		}
		if len(f.Nations) > 0 && !within(nationSum, 100, 0.01) {
			r.addError("front %q nationality percentages sum to %.2f, expected 100 ± 0.01", f.ID, nationSum)
		}

		if f.MedicalFacilities.Role1.ORCapacity != 0 {
			r.addError("front %q: Role1 or_capacity must be 0, got %d", f.ID, f.MedicalFacilities.Role1.ORCapacity)
		}
		if f.MedicalFacilities.Role2.ORCapacity <= 4 {
			r.addWarning("front %q: Role2 or_capacity %d is unusually low", f.ID, f.MedicalFacilities.Role2.ORCapacity)
		}
		if f.MedicalFacilities.Role1.CapacityPerFacility > 2*max(f.MedicalFacilities.Role2.CapacityPerFacility, 1) {
			r.addWarning("front %q: Role1 capacity more than double Role2 capacity", f.ID)
		}
		if f.TransportAssets.Helicopters > 5 {
			r.addWarning("front %q: helicopter count %d is unusually high", f.ID, f.TransportAssets.Helicopters)
		}

		if expectedTotal > 0 {
			expectedCasualties := float64(expectedTotal) * f.Ratio
			bedCapacity := float64(f.MedicalFacilities.Role1.Count*f.MedicalFacilities.Role1.CapacityPerFacility +
				f.MedicalFacilities.Role2.Count*f.MedicalFacilities.Role2.CapacityPerFacility)
			if expectedCasualties > 0 && bedCapacity < 0.10*expectedCasualties {
				r.addWarning("front %q: bed capacity %.0f is below 10%% of expected casualties %.0f", f.ID, bedCapacity, expectedCasualties)
			}
		}
	}

	if !within(ratioSum, 1.0, 0.01) {
		r.addError("front casualty_ratio values sum to %.4f, expected 1 ± 0.01", ratioSum)
	}
}

func (c *Config) validateScenario(r *ValidationResult) {
	if c.Scenario == nil {
		return
	}
	if c.Scenario.WarfareScenario != "" {
		switch c.Scenario.WarfareScenario {
		case "conventional", "artillery", "urban", "ied", "mixed":
		default:
			r.addError("warfare_scenario %q is not one of conventional|artillery|urban|ied|mixed", c.Scenario.WarfareScenario)
		}
	}
	if c.Scenario.TotalPatients <= 0 {
		r.addError("total_patients must be positive, got %d", c.Scenario.TotalPatients)
	}
}

func contains(list []string, v string) bool {
	if len(list) == 0 {
		return true // absence of a compatibility list is treated as unconstrained
	}
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func within(v, target, tolerance float64) bool {
	d := v - target
	if d < 0 {
		d = -d
	}
	return d <= tolerance
}
