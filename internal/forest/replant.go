package forest

import (
	"math/rand"

	"forestsim/internal/config"
)

// ReplantingPolicy tops a stand back up to a minimum density ("beating up")
// in the configured years. The configured maximum replanting age is not
// checked here.
type ReplantingPolicy struct {
	Threshold float64 // trees/ha
	Years     map[int]bool
	Species   *SpeciesPicker
}

func NewReplantingPolicy(p *config.Parameters, sp *SpeciesPicker) *ReplantingPolicy {
	years := make(map[int]bool, len(p.BeatingUpYears))
	for _, y := range p.BeatingUpYears {
		years[y] = true
	}
	return &ReplantingPolicy{Threshold: p.BeatingUpThreshold, Years: years, Species: sp}
}

func (r *ReplantingPolicy) Due(year int) bool { return r.Years[year] }

// Deficit is the number of trees needed to reach the threshold, truncated.
func (r *ReplantingPolicy) Deficit(s *Stand) int {
	required := s.Area * r.Threshold
	living := float64(s.Living())
	if living >= required {
		return 0
	}
	return int(required - living)
}

// Apply plants the deficit as replacement trees in year and returns how many
// were added.
func (r *ReplantingPolicy) Apply(s *Stand, year int, rng *rand.Rand) int {
	n := r.Deficit(s)
	for k := 0; k < n; k++ {
		plantRandom(s, rng, r.Species, year, true)
	}
	return n
}
