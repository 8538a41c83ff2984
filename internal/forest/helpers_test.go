package forest

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"forestsim/internal/config"
	"forestsim/internal/util"
)

func defaultParams(t *testing.T) *config.Parameters {
	t.Helper()
	p, err := config.Default()
	require.NoError(t, err)
	return p
}

// calmParams returns defaults with every hazard switched off.
func calmParams(t *testing.T) *config.Parameters {
	t.Helper()
	p := defaultParams(t)
	p.Hazards = config.HazardConfig{}
	return p
}

// bruteNeighbours is the quadratic reference for SpatialGrid.CountWithin.
func bruteNeighbours(trees []Tree, idx int, r float64) int {
	n := 0
	for j := range trees {
		if j == idx || !trees[j].Alive {
			continue
		}
		if trees[idx].Pos.Within(trees[j].Pos, r) {
			n++
		}
	}
	return n
}

// recordingObserver keeps every callback of a single trial.
type recordingObserver struct {
	NopObserver
	years     []YearStats
	replanted map[int]int
	depleted  []int
	finished  int
	lastErr   error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{replanted: map[int]int{}}
}

func (r *recordingObserver) YearCompleted(_ int, ys YearStats) { r.years = append(r.years, ys) }
func (r *recordingObserver) Replanted(_, year, added int)      { r.replanted[year] = added }
func (r *recordingObserver) StandDepleted(_, year int)         { r.depleted = append(r.depleted, year) }
func (r *recordingObserver) TrialFinished(_ int, _ TrialResult, err error) {
	r.finished++
	r.lastErr = err
}

func newTrialRNG(e *Engine, trial int) *rand.Rand {
	return util.New(util.TrialSeed(e.opts.Seed, trial))
}
