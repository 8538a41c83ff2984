package forest

import (
	"math/rand"

	"forestsim/internal/config"
)

// SpeciesPicker draws species from a weighted mix. It is read-only after
// construction and safe to share between trials.
type SpeciesPicker struct {
	names []string
	cum   []float64
}

func NewSpeciesPicker(mix []config.SpeciesWeight) *SpeciesPicker {
	sp := &SpeciesPicker{}
	total := 0.0
	for _, sw := range mix {
		if sw.Weight < 0 {
			continue
		}
		total += sw.Weight
		sp.names = append(sp.names, sw.Species)
		sp.cum = append(sp.cum, total)
	}
	return sp
}

// Pick consumes one draw from rng.
func (sp *SpeciesPicker) Pick(rng *rand.Rand) string {
	if len(sp.names) == 0 {
		return ""
	}
	u := rng.Float64() * sp.cum[len(sp.cum)-1]
	for i, c := range sp.cum {
		if u < c {
			return sp.names[i]
		}
	}
	// u can only reach the total through rounding; fall back to the last
	// species that carries weight.
	for i := len(sp.cum) - 1; i > 0; i-- {
		if sp.cum[i] > sp.cum[i-1] {
			return sp.names[i]
		}
	}
	return sp.names[0]
}

// plantRandom plants one tree at a uniform position with a drawn species.
func plantRandom(s *Stand, rng *rand.Rand, sp *SpeciesPicker, year int, replacement bool) int {
	pos := s.RandomPosition(rng)
	return s.Plant(sp.Pick(rng), pos, year, replacement)
}
