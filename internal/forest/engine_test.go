package forest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forestsim/internal/config"
)

// smallParams keeps stands small enough for many-year runs in tests.
func smallParams(t *testing.T) *config.Parameters {
	t.Helper()
	p := defaultParams(t)
	p.InitialStockingDensity = 400
	p.BeatingUpThreshold = 350
	return p
}

func TestRunShapeAndBounds(t *testing.T) {
	e, err := NewEngine(smallParams(t), 1, Options{Seed: 42, Workers: 3, Verify: true})
	require.NoError(t, err)

	results, err := e.Run(context.Background(), 4, 12)
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, i, r.Trial)
		assert.Equal(t, 12, r.Series.Len())
		for name, values := range r.Series.Metrics() {
			assert.Len(t, values, 12, name)
		}
		for year := 0; year < 12; year++ {
			assert.GreaterOrEqual(t, r.Series.SurvivalRate[year], 0.0)
			assert.LessOrEqual(t, r.Series.SurvivalRate[year], 1.0)
			assert.GreaterOrEqual(t, r.Series.StockingDensity[year], 0.0)
		}
	}
	assert.NotEqual(t, results[0].Series, results[1].Series)
}

func TestRunDeterministicAcrossWorkerCounts(t *testing.T) {
	p := smallParams(t)
	run := func(workers int) []byte {
		e, err := NewEngine(p, 1, Options{Seed: 7, Workers: workers})
		require.NoError(t, err)
		results, err := e.Run(context.Background(), 5, 8)
		require.NoError(t, err)
		b, err := json.Marshal(results)
		require.NoError(t, err)
		return b
	}
	first := run(1)
	assert.Equal(t, first, run(1))
	assert.Equal(t, first, run(4))
}

func TestZeroHazardRunOnlyGains(t *testing.T) {
	p := smallParams(t)
	p.Hazards = config.HazardConfig{}
	p.BeatingUpThreshold = 500
	p.BeatingUpYears = []int{1}

	obs := newRecordingObserver()
	e, err := NewEngine(p, 1, Options{Seed: 3, Workers: 1, Observer: obs, Verify: true})
	require.NoError(t, err)
	res, err := e.RunTrial(context.Background(), 0, 6)
	require.NoError(t, err)

	initial := int(400 * 1.2)
	assert.Equal(t, 500-initial, obs.replanted[1])
	for year, ys := range obs.years {
		want := initial
		if year >= 1 {
			want += obs.replanted[1]
		}
		assert.Equal(t, want, ys.Living, "year %d", year)
		assert.Equal(t, ys.Total, ys.Living)
		assert.Equal(t, 1.0, res.Series.SurvivalRate[year])
	}
	assert.Equal(t, float64(500-initial)*p.Financial.BeatingUpCostBase, res.Series.BeatingUpCosts[5])
}

func TestSingleTreeScenarioBThroughEngine(t *testing.T) {
	p := calmParams(t)
	p.InitialStockingDensity = 1
	p.OverstockingPercentage = 0
	p.BeatingUpYears = nil

	e, err := NewEngine(p, 1, Options{Seed: 5})
	require.NoError(t, err)
	res, err := e.RunTrial(context.Background(), 0, 1)
	require.NoError(t, err)

	g := 0.7
	assert.Equal(t, 0.3+0.5*g, res.Series.MeanHeight[0])
	assert.Equal(t, (0.3+0.5*g)*(0.01+0.005*g)*0.5, res.Series.CarbonSequestration[0])
}

func TestDepletedStandKeepsRecordingZeros(t *testing.T) {
	p := smallParams(t)
	p.Hazards.DroughtProbability = 1
	p.EarlyYearRisks.DroughtMortalityMultiplier = 10
	p.BeatingUpYears = nil

	obs := newRecordingObserver()
	e, err := NewEngine(p, 1, Options{Seed: 1, Observer: obs})
	require.NoError(t, err)
	res, err := e.RunTrial(context.Background(), 0, 4)
	require.NoError(t, err)

	assert.Equal(t, []int{0}, obs.depleted)
	assert.Equal(t, 1, obs.finished)
	assert.NoError(t, obs.lastErr)
	for year := 0; year < 4; year++ {
		assert.Zero(t, res.Series.StockingDensity[year])
		assert.Zero(t, res.Series.MeanHeight[year])
		assert.Zero(t, res.Series.SurvivalRate[year])
	}
}

func TestBeatingUpNeverReducesCount(t *testing.T) {
	p := smallParams(t)
	p.BeatingUpYears = []int{0, 1, 2, 3, 4, 5}
	obs := newRecordingObserver()
	e, err := NewEngine(p, 1, Options{Seed: 11, Observer: obs})
	require.NoError(t, err)
	_, err = e.RunTrial(context.Background(), 2, 6)
	require.NoError(t, err)

	prevTotal := 0
	for _, ys := range obs.years {
		assert.GreaterOrEqual(t, ys.Total, prevTotal)
		if ys.Replanted > 0 {
			assert.Equal(t, int(p.BeatingUpThreshold)-(ys.Living-ys.Replanted), ys.Replanted)
		}
		prevTotal = ys.Total
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e, err := NewEngine(smallParams(t), 1, Options{Seed: 1})
	require.NoError(t, err)
	_, err = e.Run(ctx, 3, 5)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCancelledTrialStillFinishes(t *testing.T) {
	obs := &cancelOnYear{recordingObserver: newRecordingObserver(), year: 2}
	ctx, cancel := context.WithCancel(context.Background())
	obs.cancel = cancel
	e, err := NewEngine(smallParams(t), 1, Options{Seed: 1, Observer: obs})
	require.NoError(t, err)

	_, err = e.RunTrial(ctx, 0, 10)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, obs.years, 3)
	assert.Equal(t, 1, obs.finished)
	assert.ErrorIs(t, obs.lastErr, context.Canceled)
}

type cancelOnYear struct {
	*recordingObserver
	year   int
	cancel context.CancelFunc
}

func (c *cancelOnYear) YearCompleted(trial int, ys YearStats) {
	c.recordingObserver.YearCompleted(trial, ys)
	if ys.Year == c.year {
		c.cancel()
	}
}

func TestRunRejectsBadInput(t *testing.T) {
	p := smallParams(t)
	_, err := NewEngine(p, 0, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidParameters)

	for _, area := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = NewEngine(smallParams(t), area, Options{})
		assert.ErrorIs(t, err, config.ErrInvalidParameters, "area %v", area)
	}

	inf := smallParams(t)
	inf.InitialStockingDensity = math.Inf(1)
	_, err = NewEngine(inf, 1, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidParameters)

	nan := smallParams(t)
	nan.Hazards.DroughtProbability = math.NaN()
	_, err = NewEngine(nan, 1, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidParameters)

	p.Hazards.FloodProbability = 2
	_, err = NewEngine(p, 1, Options{})
	assert.ErrorIs(t, err, config.ErrInvalidParameters)

	e, err := NewEngine(smallParams(t), 1, Options{})
	require.NoError(t, err)
	_, err = e.Run(context.Background(), 0, 5)
	assert.ErrorIs(t, err, config.ErrInvalidParameters)
	_, err = e.Run(context.Background(), 1, 0)
	assert.ErrorIs(t, err, config.ErrInvalidParameters)
}

func TestVerifyYearFlagsFrozenTreeChange(t *testing.T) {
	s := NewStand(1, Site{}, 1)
	a := s.Plant("birch", Vec2{1, 1}, 0, false)
	b := s.Plant("birch", Vec2{9, 9}, 0, false)
	s.Kill(a, 0)
	prev := append([]Tree(nil), s.Trees...)

	require.NoError(t, verifyYear(prev, s, 0, 1))

	s.Trees[a].Height += 0.1
	err := verifyYear(prev, s, 2, 1)
	require.Error(t, err)
	var iv *InvariantViolation
	require.True(t, errors.As(err, &iv))
	assert.Equal(t, a, iv.Tree)
	assert.Equal(t, 2, iv.Trial)

	s.Trees[a].Height = prev[a].Height
	s.Trees[b].Diameter = 0
	assert.ErrorIs(t, verifyYear(prev, s, 0, 1), ErrInvariant)
}

func TestVerifiedRunFrozenDeadTrees(t *testing.T) {
	p := smallParams(t)
	p.Hazards.WindthrowProbability = 0.5
	e, err := NewEngine(p, 1, Options{Seed: 21})
	require.NoError(t, err)

	rng := newTrialRNG(e, 0)
	s := e.Initialize(rng)
	series := NewSeries(10)
	frozen := map[int]Tree{}
	for year := 0; year < 10; year++ {
		prev := append([]Tree(nil), s.Trees...)
		_, err := e.Step(s, year, rng, &series)
		require.NoError(t, err)
		require.NoError(t, verifyYear(prev, s, 0, year))
		for i := range s.Trees {
			tr := s.Trees[i]
			if tr.Alive {
				continue
			}
			if f, ok := frozen[i]; ok {
				assert.Equal(t, f, tr, "tree %d", i)
			} else {
				frozen[i] = tr
			}
		}
	}
	assert.NotEmpty(t, frozen)
}
