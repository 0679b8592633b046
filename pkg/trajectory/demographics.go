package trajectory

import (
	"fmt"
	"time"

	"github.com/milmed-sim/castrain/pkg/rngstream"
)

// Demographics is the non-medical identity data attached to a patient
// record. Names and birthdates here carry no clinical or actuarial
// realism; they exist only to make generated records look like individual
// people for exercise purposes.
type Demographics struct {
	Name      string `json:"name"`
	Birthdate string `json:"birthdate"` // YYYY-MM-DD
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	BloodType string `json:"blood_type"`
}

var givenNamesMale = []string{"James", "Michael", "Robert", "David", "Carlos", "Ahmed", "Wei", "Luca", "Oleh", "Kwame"}
var givenNamesFemale = []string{"Mary", "Patricia", "Jennifer", "Maria", "Fatima", "Li", "Giulia", "Olena", "Aisha", "Sofia"}
var surnames = []string{"Smith", "Johnson", "Garcia", "Kowalski", "Hassan", "Wang", "Rossi", "Kovalenko", "Mensah", "Silva"}
var bloodTypes = []string{"O+", "O-", "A+", "A-", "B+", "B-", "AB+", "AB-"}
var bloodTypeWeights = []float64{37.4, 6.6, 35.7, 6.3, 8.5, 1.5, 3.4, 0.6}

// GenerateDemographics produces a deterministic demographics record for one
// patient, derived entirely from its own child RNG stream so identical
// seeds reproduce identical identities.
func GenerateDemographics(rng *rngstream.Stream, referenceDate time.Time) Demographics {
	isMale := rng.Bernoulli(0.85) // military casualty cohorts skew male; adjust per scenario upstream if needed
	gender := "female"
	given := givenNamesFemale
	if isMale {
		gender = "male"
		given = givenNamesMale
	}

	name := fmt.Sprintf("%s %s", given[rng.Intn(len(given))], surnames[rng.Intn(len(surnames))])

	ageYears := rng.UniformInt(18, 45)
	birthdate := referenceDate.AddDate(-ageYears, -rng.Intn(12), -rng.Intn(28))

	bloodType := bloodTypes[rng.WeightedIndex(bloodTypeWeights)]

	return Demographics{
		Name:      name,
		Birthdate: birthdate.Format("2006-01-02"),
		Age:       ageAt(birthdate, referenceDate),
		Gender:    gender,
		BloodType: bloodType,
	}
}

// ageAt computes whole years elapsed between birthdate and asOf, matching
// the original source's cached birthdate-to-age computation.
func ageAt(birthdate, asOf time.Time) int {
	age := asOf.Year() - birthdate.Year()
	if asOf.YearDay() < birthdate.YearDay() {
		age--
	}
	return age
}
