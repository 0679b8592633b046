package trajectory

// EnvironmentFlags is a compact bitset of situational conditions, carried
// alongside richer per-patient state without the overhead of a map or
// string slice during generation. Expanded to strings only when a record
// is emitted.
type EnvironmentFlags uint16

const (
	FlagNightOperations EnvironmentFlags = 1 << iota
	FlagExtremeWeather
	FlagUrbanCombat
	FlagMountainTerrain
	FlagDesertConditions
	FlagArcticConditions
	FlagJungleTerrain
	FlagAmphibiousOps
)

var flagNames = []struct {
	flag EnvironmentFlags
	name string
}{
	{FlagNightOperations, "night_operations"},
	{FlagExtremeWeather, "extreme_weather"},
	{FlagUrbanCombat, "urban_combat"},
	{FlagMountainTerrain, "mountain"},
	{FlagDesertConditions, "desert"},
	{FlagArcticConditions, "arctic"},
	{FlagJungleTerrain, "jungle"},
	{FlagAmphibiousOps, "amphibious"},
}

// ParseFlags builds an EnvironmentFlags set from declared flag names,
// silently ignoring names it doesn't recognize.
func ParseFlags(names []string) EnvironmentFlags {
	var f EnvironmentFlags
	for _, n := range names {
		for _, entry := range flagNames {
			if entry.name == n {
				f |= entry.flag
			}
		}
	}
	return f
}

// Set returns a copy with the given flag set.
func (f EnvironmentFlags) Set(flag EnvironmentFlags) EnvironmentFlags {
	return f | flag
}

// Has reports whether the given flag is set.
func (f EnvironmentFlags) Has(flag EnvironmentFlags) bool {
	return f&flag != 0
}

// Strings expands the bitset to its declared flag names, in declaration
// order, for JSON output.
func (f EnvironmentFlags) Strings() []string {
	var out []string
	for _, entry := range flagNames {
		if f.Has(entry.flag) {
			out = append(out, entry.name)
		}
	}
	return out
}
