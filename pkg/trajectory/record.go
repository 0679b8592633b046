// Package trajectory assembles one patient record end to end: demographics,
// warfare-pattern injuries, triage classification, and the Markov-chain
// walk from point of injury to a terminal outcome.
package trajectory

import "time"

// Injury is one wound on a patient record.
type Injury struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Severity  int    `json:"severity"`
	IsPrimary bool   `json:"is_primary"`
}

// Event is one entry in a patient's movement timeline.
type Event struct {
	EventType       string    `json:"event_type"`
	Facility        string    `json:"facility"`
	Timestamp       time.Time `json:"timestamp"`
	HoursSinceInjury float64  `json:"hours_since_injury"`
}

// Event type tags.
const (
	EventInjury       = "injury"
	EventArrival      = "arrival"
	EventTreatment    = "treatment"
	EventKIA          = "kia"
	EventRTD          = "rtd"
	EventRemainsRole4 = "remains_role4"
)

// Final outcome tags.
const (
	StatusKIA          = "KIA"
	StatusRTD          = "RTD"
	StatusRemainsRole4 = "Remains_Role4"
)

// Record is one complete patient record, streamed once to the Sink and
// then discarded.
type Record struct {
	ID              int         `json:"id"`
	Demographics    Demographics `json:"demographics"`
	Nationality     string      `json:"nationality"`
	Front           string      `json:"front"`
	WarfareScenario string      `json:"warfare_scenario"`
	InjuryTimestamp time.Time   `json:"injury_timestamp"`
	TriageCategory  string      `json:"triage_category"`
	Injuries        []Injury    `json:"injuries"`
	Timeline        []Event     `json:"timeline"`
	FinalStatus     string      `json:"final_status"`
	IsMassCasualty  bool        `json:"is_mass_casualty"`
	Polytrauma      bool        `json:"polytrauma"`
	EnvironmentFlags []string   `json:"environment_flags"`
}
