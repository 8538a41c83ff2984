package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"forestsim/internal/forest"
)

// Summary is the cross-trial mean of every metric.
type Summary struct {
	Trials int                  `json:"trials"`
	Years  int                  `json:"years"`
	Mean   map[string][]float64 `json:"mean"`  // metric -> per-year mean
	Final  map[string]float64   `json:"final"` // metric -> final-year mean
}

// Summarize averages results year by year. All results must cover the same
// number of years.
func Summarize(results []forest.TrialResult) (Summary, error) {
	if len(results) == 0 {
		return Summary{}, fmt.Errorf("no trial results")
	}
	years := results[0].Series.Len()
	sum := Summary{
		Trials: len(results),
		Years:  years,
		Mean:   map[string][]float64{},
		Final:  map[string]float64{},
	}
	for _, name := range forest.MetricNames() {
		sum.Mean[name] = make([]float64, years)
	}
	for _, r := range results {
		if r.Series.Len() != years {
			return Summary{}, fmt.Errorf("trial %d has %d years, want %d", r.Trial, r.Series.Len(), years)
		}
		for name, values := range r.Series.Metrics() {
			acc := sum.Mean[name]
			for y, v := range values {
				acc[y] += v
			}
		}
	}
	n := float64(len(results))
	for name, acc := range sum.Mean {
		for y := range acc {
			acc[y] /= n
		}
		if years > 0 {
			sum.Final[name] = acc[years-1]
		}
	}
	return sum, nil
}

// Print writes the final-year console report.
func (s Summary) Print(w io.Writer) {
	fmt.Fprintln(w, "\nSimulation Results:")
	fmt.Fprintln(w, strings.Repeat("-", 50))
	fmt.Fprintf(w, "After %d years (averaged over %d trials):\n", s.Years, s.Trials)
	fmt.Fprintf(w, "Final stocking density: %.0f trees/ha\n", s.Final[forest.MetricStockingDensity])
	fmt.Fprintf(w, "Mean tree height: %.1f m\n", s.Final[forest.MetricMeanHeight])
	fmt.Fprintf(w, "Survival rate: %.1f%%\n", s.Final[forest.MetricSurvivalRate]*100)
	fmt.Fprintf(w, "Total beating up costs: £%.2f/ha\n", s.Final[forest.MetricBeatingUpCosts])
	// The carbon series is a standing-stock proxy, not an accumulated flux.
	fmt.Fprintf(w, "Carbon stock proxy: %.1f tCO2e/ha\n", s.Final[forest.MetricCarbonSequestration])
}

func MarshalPretty(v any) []byte {
	b, _ := json.MarshalIndent(v, "", "  ")
	return b
}
