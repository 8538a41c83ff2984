package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"golang.org/x/sync/errgroup"

	"forestsim/internal/config"
	"forestsim/internal/util"
)

type Options struct {
	Seed     int64
	Workers  int // parallel trials, 0 = GOMAXPROCS
	Verify   bool
	Observer Observer
}

// TrialResult is the output of one trial.
type TrialResult struct {
	Trial  int    `json:"trial"`
	Seed   int64  `json:"seed"`
	Series Series `json:"series"`
}

// Engine runs independent trials of a stand simulation. It is safe to call
// Run concurrently; every trial owns its stand and random stream.
type Engine struct {
	params  *config.Parameters
	area    float64
	opts    Options
	species *SpeciesPicker
	hazards *HazardModel
	growth  *GrowthModel
	replant *ReplantingPolicy
	stats   StatisticsRecorder
}

// NewEngine validates p and area and builds the yearly models.
func NewEngine(p *config.Parameters, area float64, opts Options) (*Engine, error) {
	if err := config.Validate(p); err != nil {
		return nil, err
	}
	if math.IsNaN(area) || math.IsInf(area, 0) || area <= 0 {
		return nil, fmt.Errorf("%w: site area must be a finite number > 0, got %v", config.ErrInvalidParameters, area)
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver{}
	}
	sp := NewSpeciesPicker(p.SpeciesMix)
	return &Engine{
		params:  p,
		area:    area,
		opts:    opts,
		species: sp,
		hazards: NewHazardModel(p),
		growth:  NewGrowthModel(p),
		replant: NewReplantingPolicy(p, sp),
		stats:   StatisticsRecorder{CostPerTree: p.Financial.BeatingUpCostBase},
	}, nil
}

// Run simulates trials independent stands for years each and returns one
// result per trial, ordered by trial index.
func (e *Engine) Run(ctx context.Context, trials, years int) ([]TrialResult, error) {
	if trials < 1 {
		return nil, fmt.Errorf("%w: trials must be >= 1, got %d", config.ErrInvalidParameters, trials)
	}
	if years < 1 {
		return nil, fmt.Errorf("%w: years must be >= 1, got %d", config.ErrInvalidParameters, years)
	}

	results := make([]TrialResult, trials)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := 0; i < trials; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r, err := e.RunTrial(gctx, i, years)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunTrial simulates one trial. The trial index selects the random stream.
func (e *Engine) RunTrial(ctx context.Context, trial, years int) (res TrialResult, err error) {
	if err := ctx.Err(); err != nil {
		return TrialResult{}, err
	}
	seed := util.TrialSeed(e.opts.Seed, trial)
	rng := util.New(seed)
	obs := e.opts.Observer

	s := e.Initialize(rng)
	obs.TrialStarted(trial, s)
	defer func() { obs.TrialFinished(trial, res, err) }()

	series := NewSeries(years)
	depleted := false
	var prev []Tree
	for year := 0; year < years; year++ {
		if err := ctx.Err(); err != nil {
			return TrialResult{}, err
		}
		if e.opts.Verify {
			prev = append(prev[:0], s.Trees...)
		}

		ys, err := e.Step(s, year, rng, &series)
		if err != nil {
			var iv *InvariantViolation
			if errors.As(err, &iv) {
				iv.Trial = trial
			}
			return TrialResult{}, err
		}
		if ys.Replanted > 0 {
			obs.Replanted(trial, year, ys.Replanted)
		}
		if e.opts.Verify {
			if err := verifyYear(prev, s, trial, year); err != nil {
				return TrialResult{}, err
			}
		}
		obs.YearCompleted(trial, ys)
		if ys.Living == 0 && !depleted {
			depleted = true
			obs.StandDepleted(trial, year)
		}
	}
	return TrialResult{Trial: trial, Seed: seed, Series: series}, nil
}

// Initialize plants a fresh stand at year 0.
func (e *Engine) Initialize(rng *rand.Rand) *Stand {
	siteFactor := 0.8 + 0.2*rng.Float64()
	s := NewStand(e.area, siteFrom(e.params.Site), siteFactor)
	n := int(e.area * e.params.InitialStockingDensity * (1 + e.params.OverstockingPercentage))
	s.Trees = make([]Tree, 0, n)
	s.Log = make([]PlantingRecord, 0, n)
	for i := 0; i < n; i++ {
		plantRandom(s, rng, e.species, 0, false)
	}
	return s
}

// Step advances s through one year and appends that year's statistics.
func (e *Engine) Step(s *Stand, year int, rng *rand.Rand, series *Series) (YearStats, error) {
	e.hazards.Apply(s, year, rng)
	if err := e.growth.Apply(s); err != nil {
		return YearStats{}, err
	}
	added := 0
	if e.replant.Due(year) {
		added = e.replant.Apply(s, year, rng)
	}
	ys, err := e.stats.Record(series, s, year)
	ys.Replanted = added
	return ys, err
}

// verifyYear checks that no tree shrank and that trees dead before or during
// year kept the dimensions they had when the year started.
func verifyYear(prev []Tree, s *Stand, trial, year int) error {
	for i := range prev {
		before, now := &prev[i], &s.Trees[i]
		if !before.Alive && now.Alive {
			return &InvariantViolation{Trial: trial, Year: year, Tree: i, Detail: "dead tree came back to life"}
		}
		if !now.Alive {
			if now.Age != before.Age || now.Height != before.Height || now.Diameter != before.Diameter {
				return &InvariantViolation{Trial: trial, Year: year, Tree: i, Detail: "dead tree changed dimensions"}
			}
			continue
		}
		if now.Height < before.Height || now.Diameter < before.Diameter {
			return &InvariantViolation{Trial: trial, Year: year, Tree: i, Detail: "tree shrank"}
		}
	}
	return nil
}
