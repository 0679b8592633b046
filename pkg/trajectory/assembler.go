package trajectory

import (
	"fmt"
	"time"

	"github.com/milmed-sim/castrain/pkg/checkpoint"
	"github.com/milmed-sim/castrain/pkg/evac"
	"github.com/milmed-sim/castrain/pkg/markov"
	"github.com/milmed-sim/castrain/pkg/rngstream"
	"github.com/milmed-sim/castrain/pkg/triage"
	"github.com/milmed-sim/castrain/pkg/warfare"
)

// FrontInput is the subset of a configured front the assembler needs to
// draw a casualty's origin and nationality.
type FrontInput struct {
	ID      string
	Name    string
	Ratio   float64
	Nations []NationInput
}

// NationInput is one nationality's percentage share within a front.
type NationInput struct {
	Code       string
	Percentage float64
}

// Diagnostics counts the recovered, non-fatal conditions a single
// assembly can hit.
type Diagnostics struct {
	SamplingErrors   int
	PathLengthErrors int
}

// amputationCode, burnCode, tbiCode, and psychologicalCode identify the
// special-condition triggers the Markov chain reacts to.
const (
	amputationCode    = "125689001"
	burnCode          = "7200002"
	tbiCode           = "127294003"
	psychologicalCode = "16932000"
)

const vehicleCasualtyProbability = 0.08

// Assembler combines the warfare sampler, triage classifier, facility
// Markov chain, evacuation timing model, and mortality checkpoint model
// into one patient record per call. All dependencies are shared, read-only
// state; Assembler itself holds no per-patient state between calls.
type Assembler struct {
	fronts         []FrontInput
	frontWeights   []float64
	scenarioName   string
	pattern        warfare.Pattern
	chain          *markov.Chain
	evacModel      *evac.Model
	checkpointModel *checkpoint.Model
	massCasualtyEnabled bool
	globalEnvFlags EnvironmentFlags
	baseDate       time.Time
	daysOfFighting int
}

// NewAssembler validates the warfare scenario name and builds an Assembler.
func NewAssembler(
	fronts []FrontInput,
	scenarioName string,
	chain *markov.Chain,
	evacModel *evac.Model,
	checkpointModel *checkpoint.Model,
	massCasualtyEnabled bool,
	globalEnvFlagNames []string,
	baseDate time.Time,
	daysOfFighting int,
) (*Assembler, error) {
	pattern, err := warfare.Lookup(scenarioName)
	if err != nil {
		return nil, err
	}
	if len(fronts) == 0 {
		return nil, fmt.Errorf("trajectory: at least one front is required")
	}
	if daysOfFighting <= 0 {
		daysOfFighting = 1
	}

	weights := make([]float64, len(fronts))
	for i, f := range fronts {
		weights[i] = f.Ratio
	}

	return &Assembler{
		fronts:              fronts,
		frontWeights:        weights,
		scenarioName:        scenarioName,
		pattern:             pattern,
		chain:               chain,
		evacModel:           evacModel,
		checkpointModel:     checkpointModel,
		massCasualtyEnabled: massCasualtyEnabled,
		globalEnvFlags:      ParseFlags(globalEnvFlagNames),
		baseDate:            baseDate,
		daysOfFighting:      daysOfFighting,
	}, nil
}

// Assemble produces one complete patient record for cohort index i, drawing
// every random decision from rng (expected to be a Child stream unique to
// this index).
func (a *Assembler) Assemble(rng *rngstream.Stream, index int) (Record, Diagnostics, error) {
	var diag Diagnostics

	front := a.fronts[rng.WeightedIndex(a.frontWeights)]
	nationality := drawNationality(rng, front.Nations)

	demographics := GenerateDemographics(rng, a.baseDate)

	injuries, severity, polytrauma, isMassCasualty := a.pattern.Sample(rng)
	triageCategory := triage.Classify(severity, polytrauma, codesOf(injuries))

	envFlags := a.globalEnvFlags
	for _, name := range a.pattern.EnvironmentFactors {
		envFlags |= ParseFlags([]string{name})
	}

	injuryTimestamp := a.drawInjuryTimestamp(rng, isMassCasualty)

	record := Record{
		ID:               index,
		Demographics:     demographics,
		Nationality:      nationality,
		Front:            front.ID,
		WarfareScenario:  a.scenarioName,
		InjuryTimestamp:  injuryTimestamp,
		TriageCategory:   string(triageCategory),
		Injuries:         toRecordInjuries(injuries),
		IsMassCasualty:   isMassCasualty,
		Polytrauma:       polytrauma,
		EnvironmentFlags: envFlags.Strings(),
	}

	record.Timeline = append(record.Timeline, Event{
		EventType:        EventInjury,
		Facility:         markov.POI,
		Timestamp:        injuryTimestamp,
		HoursSinceInjury: 0,
	})

	vehicleEvac := rng.Bernoulli(vehicleCasualtyProbability)
	checkpointTracker := a.checkpointModel.NewTracker(string(triageCategory))

	current := markov.POI
	currentTime := injuryTimestamp
	finalStatus := ""

	for hop := 0; hop < markov.MaxTransitions; hop++ {
		elapsedHours := hoursSince(injuryTimestamp, currentTime)

		conditions := markov.Conditions{
			Triage:                  string(triageCategory),
			Facility:                current,
			Amputation:              hasCode(injuries, amputationCode),
			Burn:                    hasCode(injuries, burnCode),
			SevereTBI:               hasCode(injuries, tbiCode) && severity >= 7,
			Psychological:           hasCode(injuries, psychologicalCode),
			VehicleEvac:             vehicleEvac && current == markov.POI,
			MassCasualtyActive:      a.massCasualtyEnabled && isMassCasualty,
			DegradedEnvironment:     envFlags.Has(FlagExtremeWeather) || envFlags.Has(FlagArcticConditions),
			ElapsedHoursSinceInjury: elapsedHours,
		}

		next, samplingErr, err := a.chain.Next(rng, conditions)
		if err != nil {
			return Record{}, diag, err
		}
		if samplingErr {
			diag.SamplingErrors++
		}

		if markov.IsAbsorbing(next) {
			finalStatus = statusFor(next)
			record.Timeline = append(record.Timeline, Event{
				EventType:        eventTypeFor(next),
				Facility:         current,
				Timestamp:        currentTime,
				HoursSinceInjury: elapsedHours,
			})
			break
		}

		minutes, _ := a.evacModel.Sample(rng, current, next, string(triageCategory))
		currentTime = currentTime.Add(time.Duration(minutes) * time.Minute)
		current = next
		elapsedHours = hoursSince(injuryTimestamp, currentTime)

		record.Timeline = append(record.Timeline, Event{
			EventType:        EventArrival,
			Facility:         current,
			Timestamp:        currentTime,
			HoursSinceInjury: elapsedHours,
		})

		if current != markov.POI {
			record.Timeline = append(record.Timeline, Event{
				EventType:        EventTreatment,
				Facility:         current,
				Timestamp:        currentTime,
				HoursSinceInjury: elapsedHours,
			})
		}

		checkpointRate := a.checkpointModel.CheckpointRate(current, string(triageCategory))
		if checkpointRate > 0 && checkpointTracker.Propose(rng, checkpointRate) {
			finalStatus = StatusKIA
			record.Timeline = append(record.Timeline, Event{
				EventType:        EventKIA,
				Facility:         current,
				Timestamp:        currentTime,
				HoursSinceInjury: elapsedHours,
			})
			break
		}

		if hop == markov.MaxTransitions-1 {
			diag.PathLengthErrors++
			finalStatus = StatusRemainsRole4
			record.Timeline = append(record.Timeline, Event{
				EventType:        EventRemainsRole4,
				Facility:         current,
				Timestamp:        currentTime,
				HoursSinceInjury: elapsedHours,
			})
		}
	}

	record.FinalStatus = finalStatus
	return record, diag, nil
}

func drawNationality(rng *rngstream.Stream, nations []NationInput) string {
	if len(nations) == 0 {
		return ""
	}
	weights := make([]float64, len(nations))
	for i, n := range nations {
		weights[i] = n.Percentage
	}
	return nations[rng.WeightedIndex(weights)].Code
}

// drawInjuryTimestamp places the injury within the fighting window,
// clustering mass-casualty patients around fewer, denser time windows
// rather than spreading them uniformly across the whole period.
func (a *Assembler) drawInjuryTimestamp(rng *rngstream.Stream, isMassCasualty bool) time.Time {
	day := rng.Intn(a.daysOfFighting)

	var hourOfDay float64
	if a.massCasualtyEnabled && isMassCasualty {
		hourOfDay = rng.NormalPositive(12, 2, 0)
		if hourOfDay > 23.99 {
			hourOfDay = 23.99
		}
	} else {
		hourOfDay = rng.Float64() * 24
	}

	offset := time.Duration(day)*24*time.Hour + time.Duration(hourOfDay*3600)*time.Second
	return a.baseDate.Add(offset)
}

func hoursSince(injury, at time.Time) float64 {
	hours := at.Sub(injury).Hours()
	return roundTo(hours, 0.1)
}

func roundTo(v, step float64) float64 {
	return float64(int64(v/step+0.5)) * step
}

func codesOf(injuries []warfare.Injury) []string {
	codes := make([]string, len(injuries))
	for i, inj := range injuries {
		codes[i] = inj.Code
	}
	return codes
}

func hasCode(injuries []warfare.Injury, code string) bool {
	for _, inj := range injuries {
		if inj.Code == code {
			return true
		}
	}
	return false
}

func toRecordInjuries(injuries []warfare.Injury) []Injury {
	out := make([]Injury, len(injuries))
	for i, inj := range injuries {
		out[i] = Injury{Code: inj.Code, Name: inj.Name, Severity: inj.Severity, IsPrimary: inj.IsPrimary}
	}
	return out
}

func statusFor(state string) string {
	switch state {
	case markov.KIA:
		return StatusKIA
	case markov.RTD:
		return StatusRTD
	case markov.RemainsRole4:
		return StatusRemainsRole4
	default:
		return StatusRemainsRole4
	}
}

func eventTypeFor(state string) string {
	switch state {
	case markov.KIA:
		return EventKIA
	case markov.RTD:
		return EventRTD
	case markov.RemainsRole4:
		return EventRemainsRole4
	default:
		return EventRemainsRole4
	}
}
