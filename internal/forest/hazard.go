package forest

import (
	"math/rand"

	"forestsim/internal/config"
)

// EarlyYears is the number of leading years in which drought and flood
// lethality is scaled by the early-year multipliers.
const EarlyYears = 5

// Base lethality of a hazard once it has occurred.
const (
	droughtLethality   = 0.3
	floodLethality     = 0.2
	windthrowLethality = 0.15
)

// HazardModel applies drought, flood and windthrow mortality.
type HazardModel struct {
	Hazards config.HazardConfig
	Early   config.EarlyYearRisks
	// TargetDensity is the planned stocking in trees/ha that windthrow
	// resilience is measured against.
	TargetDensity float64
}

func NewHazardModel(p *config.Parameters) *HazardModel {
	return &HazardModel{
		Hazards:       p.Hazards,
		Early:         p.EarlyYearRisks,
		TargetDensity: p.InitialStockingDensity,
	}
}

// Apply evaluates every living tree once for the given year and returns the
// number of deaths. A tree that dies skips its remaining hazards.
func (m *HazardModel) Apply(s *Stand, year int, rng *rand.Rand) int {
	droughtMul, floodMul := 1.0, 1.0
	if year < EarlyYears {
		droughtMul = m.Early.DroughtMortalityMultiplier
		floodMul = m.Early.FloodMortalityMultiplier
	}
	expected := s.Area * m.TargetDensity

	deaths := 0
	for i := range s.Trees {
		if !s.Trees[i].Alive {
			continue
		}
		if strike(rng, m.Hazards.DroughtProbability, droughtLethality*droughtMul) ||
			strike(rng, m.Hazards.FloodProbability, floodLethality*floodMul) ||
			strike(rng, m.Hazards.WindthrowProbability, windthrowLethality*(1-m.resistance(s, expected))) {
			s.Kill(i, year)
			deaths++
		}
	}
	return deaths
}

// resistance grows with the current living density relative to the plan.
func (m *HazardModel) resistance(s *Stand, expected float64) float64 {
	if expected <= 0 {
		return 0
	}
	return m.Early.DensityResilienceFactor * float64(s.Living()) / expected
}

// strike draws occurrence against p and, only when it occurs, lethality
// against lethal.
func strike(rng *rand.Rand, p, lethal float64) bool {
	if rng.Float64() >= p {
		return false
	}
	return rng.Float64() < lethal
}
