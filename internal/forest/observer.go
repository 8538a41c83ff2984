package forest

// Observer receives progress callbacks from the engine. Trials run
// concurrently, so implementations must be safe for concurrent use. Calls for
// one trial always come from the same goroutine, in order.
type Observer interface {
	TrialStarted(trial int, s *Stand)
	YearCompleted(trial int, ys YearStats)
	Replanted(trial, year, added int)
	// StandDepleted fires once per trial, in the first year that ends with
	// no living trees.
	StandDepleted(trial, year int)
	// TrialFinished always fires once a trial has started; err is non-nil
	// when the trial was cancelled or failed.
	TrialFinished(trial int, r TrialResult, err error)
}

type NopObserver struct{}

func (NopObserver) TrialStarted(int, *Stand)              {}
func (NopObserver) YearCompleted(int, YearStats)          {}
func (NopObserver) Replanted(int, int, int)               {}
func (NopObserver) StandDepleted(int, int)                {}
func (NopObserver) TrialFinished(int, TrialResult, error) {}

// Observers fans callbacks out in order.
type Observers []Observer

func (obs Observers) TrialStarted(trial int, s *Stand) {
	for _, o := range obs {
		o.TrialStarted(trial, s)
	}
}

func (obs Observers) YearCompleted(trial int, ys YearStats) {
	for _, o := range obs {
		o.YearCompleted(trial, ys)
	}
}

func (obs Observers) Replanted(trial, year, added int) {
	for _, o := range obs {
		o.Replanted(trial, year, added)
	}
}

func (obs Observers) StandDepleted(trial, year int) {
	for _, o := range obs {
		o.StandDepleted(trial, year)
	}
}

func (obs Observers) TrialFinished(trial int, r TrialResult, err error) {
	for _, o := range obs {
		o.TrialFinished(trial, r, err)
	}
}
