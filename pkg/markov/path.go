package markov

// MaxTransitions is the hard cap on hops before a patient is force-finalized
// as RemainsRole4 (a PathLengthError in the error taxonomy).
const MaxTransitions = 10

// PathValidation surfaces non-fatal diagnostics about a completed path,
// mirroring the original source's path sanity checks.
type PathValidation struct {
	Warnings      []string
	BypassedRole1 bool
}

// ValidatePath checks a completed facility path for revisited non-terminal
// facilities, unusual length, and bypassed-Role1 routing. It never rejects
// a path; it only annotates it for diagnostics.
func ValidatePath(path []string) PathValidation {
	var v PathValidation

	seen := make(map[string]bool, len(path))
	for i, facility := range path {
		if IsAbsorbing(facility) {
			continue
		}
		if seen[facility] {
			v.Warnings = append(v.Warnings, "facility "+facility+" revisited in path")
		}
		seen[facility] = true
		_ = i
	}

	if len(path) > 6 {
		v.Warnings = append(v.Warnings, "path length exceeds typical bound of 6 hops")
	}

	if len(path) > 0 && !IsAbsorbing(path[len(path)-1]) {
		v.Warnings = append(v.Warnings, "path does not end in a terminal state")
	}

	hasRole1 := false
	for _, f := range path {
		if f == Role1 {
			hasRole1 = true
			break
		}
	}
	v.BypassedRole1 = !hasRole1 && len(path) > 2

	return v
}
