package markov

// Special-condition override constants. These are fixed multipliers and
// caps from the specification, not tunable configuration: amputation,
// burn, and severe TBI only ever act at Role1; psychological status acts at
// POI and Role1; vehicle evacuation only acts at POI.
const (
	amputationR2Factor, amputationR2Cap = 1.5, 0.85
	amputationRTDFactor                 = 0.3

	burnR3Factor, burnR3Cap = 2.0, 0.60
	burnRTDFactor           = 0.2

	tbiR2Factor, tbiR2Cap = 1.5, 0.80
	tbiRTDFactor          = 0.2

	psychPOIR1Factor, psychPOIR1Cap = 1.5, 0.9
	psychR1RTDFactor, psychR1RTDCap = 1.5, 0.75

	massCasualtyR1R2Factor, massCasualtyR1R2Cap = 1.3, 0.90
)

func (c *Chain) applySpecialConditions(p *OrderedProbs, cond Conditions) {
	if cond.Facility == Role1 {
		if cond.Amputation {
			p.scale(Role2, amputationR2Factor, amputationR2Cap)
			p.scale(RTD, amputationRTDFactor, 0)
		}
		if cond.Burn {
			p.scale(Role3, burnR3Factor, burnR3Cap)
			p.scale(RTD, burnRTDFactor, 0)
		}
		if cond.SevereTBI {
			p.scale(Role2, tbiR2Factor, tbiR2Cap)
			p.scale(RTD, tbiRTDFactor, 0)
		}
		if cond.Psychological {
			p.scale(RTD, psychR1RTDFactor, psychR1RTDCap)
		}
	}

	if cond.Facility == POI {
		if cond.Psychological {
			p.scale(Role1, psychPOIR1Factor, psychPOIR1Cap)
		}
		if cond.VehicleEvac {
			c.applyVehicleEvac(p)
		}
	}
}

// applyVehicleEvac transfers a fraction of POI -> Role1 mass directly to
// Role2 (70%) and Role3 (30%), modeling a vehicle casualty bypassing Role1.
func (c *Chain) applyVehicleEvac(p *OrderedProbs) {
	role1, ok := p.Vals[Role1]
	if !ok {
		return
	}
	transfer := role1 * c.vehicleEvacProbability
	p.Vals[Role1] = role1 - transfer
	addAndTrackKey(p, Role2, transfer*0.70)
	addAndTrackKey(p, Role3, transfer*0.30)
}

func addAndTrackKey(p *OrderedProbs, key string, amount float64) {
	if _, ok := p.Vals[key]; !ok {
		p.Keys = append(p.Keys, key)
	}
	p.Vals[key] += amount
}

func (c *Chain) applyModifiers(p *OrderedProbs, cond Conditions) {
	if cond.MassCasualtyActive {
		p.scale(KIA, c.modifiers.MassCasualty.KIAMultiplier, 0)
		p.scale(RTD, c.modifiers.MassCasualty.RTDReduction, 0)
		if cond.Facility == Role1 && cond.Triage == "T1" {
			p.scale(Role2, massCasualtyR1R2Factor, massCasualtyR1R2Cap)
		}
	}

	if cond.Triage == "T1" {
		if cond.ElapsedHoursSinceInjury <= 1.0 {
			p.scale(KIA, 1.0-c.modifiers.GoldenHour.SurvivalBonus, 0)
		} else {
			p.scale(KIA, c.modifiers.GoldenHour.KIAMultiplier, 0)
		}
	}

	if cond.DegradedEnvironment {
		p.scale(KIA, c.modifiers.DegradedEnvironment.KIAMultiplier, 0)
	}
}
