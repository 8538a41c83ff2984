package forest

// Metric names, as used in Series.Metrics and the JSON output.
const (
	MetricStockingDensity     = "stocking_density"
	MetricMeanHeight          = "mean_height"
	MetricSurvivalRate        = "survival_rate"
	MetricCarbonSequestration = "carbon_sequestration"
	MetricBeatingUpCosts      = "beating_up_costs"
)

// MetricNames lists the five metrics in report order.
func MetricNames() []string {
	return []string{
		MetricStockingDensity,
		MetricMeanHeight,
		MetricSurvivalRate,
		MetricBeatingUpCosts,
		MetricCarbonSequestration,
	}
}

// Series holds one value per simulated year for each metric.
//
// CarbonSequestration is the standing biomass proxy of the living trees in
// that year. It is recomputed every year and is not a cumulative flux.
type Series struct {
	StockingDensity     []float64 `json:"stocking_density"`
	MeanHeight          []float64 `json:"mean_height"`
	SurvivalRate        []float64 `json:"survival_rate"`
	CarbonSequestration []float64 `json:"carbon_sequestration"`
	BeatingUpCosts      []float64 `json:"beating_up_costs"`
}

func NewSeries(years int) Series {
	return Series{
		StockingDensity:     make([]float64, 0, years),
		MeanHeight:          make([]float64, 0, years),
		SurvivalRate:        make([]float64, 0, years),
		CarbonSequestration: make([]float64, 0, years),
		BeatingUpCosts:      make([]float64, 0, years),
	}
}

func (s Series) Len() int { return len(s.StockingDensity) }

func (s Series) Metrics() map[string][]float64 {
	return map[string][]float64{
		MetricStockingDensity:     s.StockingDensity,
		MetricMeanHeight:          s.MeanHeight,
		MetricSurvivalRate:        s.SurvivalRate,
		MetricCarbonSequestration: s.CarbonSequestration,
		MetricBeatingUpCosts:      s.BeatingUpCosts,
	}
}

func (s *Series) append(ys YearStats) {
	s.StockingDensity = append(s.StockingDensity, ys.StockingDensity)
	s.MeanHeight = append(s.MeanHeight, ys.MeanHeight)
	s.SurvivalRate = append(s.SurvivalRate, ys.SurvivalRate)
	s.CarbonSequestration = append(s.CarbonSequestration, ys.CarbonSequestration)
	s.BeatingUpCosts = append(s.BeatingUpCosts, ys.BeatingUpCosts)
}

// YearStats is the snapshot recorded at the end of one year.
type YearStats struct {
	Year                int
	Living              int
	Total               int
	Replanted           int
	StockingDensity     float64
	MeanHeight          float64
	SurvivalRate        float64
	CarbonSequestration float64
	BeatingUpCosts      float64
}

// StatisticsRecorder derives the yearly metrics of a stand.
type StatisticsRecorder struct {
	CostPerTree float64
}

func (r StatisticsRecorder) Measure(s *Stand, year int) (YearStats, error) {
	ys := YearStats{Year: year, Living: s.Living(), Total: s.Total()}
	if ys.Living > 0 {
		heights, carbon := 0.0, 0.0
		for i := range s.Trees {
			t := &s.Trees[i]
			if !t.Alive {
				continue
			}
			heights += t.Height
			carbon += t.Height * t.Diameter * 0.5
		}
		ys.StockingDensity = float64(ys.Living) / s.Area
		ys.MeanHeight = heights / float64(ys.Living)
		ys.SurvivalRate = float64(ys.Living) / float64(ys.Total)
		ys.CarbonSequestration = carbon
	}
	ys.BeatingUpCosts = float64(s.LivingReplacements()) * r.CostPerTree

	if ys.SurvivalRate < 0 || ys.SurvivalRate > 1 {
		return ys, &InvariantViolation{Year: year, Tree: -1, Detail: "survival rate outside [0,1]"}
	}
	return ys, nil
}

// Record measures s and appends the result to series.
func (r StatisticsRecorder) Record(series *Series, s *Stand, year int) (YearStats, error) {
	ys, err := r.Measure(s, year)
	if err != nil {
		return ys, err
	}
	series.append(ys)
	return ys, nil
}
