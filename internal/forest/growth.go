package forest

import (
	"fmt"

	"forestsim/internal/config"
)

const (
	NeighbourRadius = 2.0 // m
	MaxCompetition  = 0.8
)

// GrowthTable resolves a growth rate from region and sub-region.
type GrowthTable struct {
	rates map[string]map[string]float64
}

func NewGrowthTable(regions map[string]config.RegionGrowth) GrowthTable {
	t := GrowthTable{rates: map[string]map[string]float64{}}
	for name, rg := range regions {
		sub := map[string]float64{}
		for k, v := range rg.Rates {
			sub[k] = v
		}
		t.rates[name] = sub
	}
	return t
}

func (t GrowthTable) Rate(region, subRegion string) (float64, error) {
	sub, ok := t.rates[region]
	if !ok {
		return 0, fmt.Errorf("no growth rates for region %q", region)
	}
	r, ok := sub[subRegion]
	if !ok {
		return 0, fmt.Errorf("no growth rate for %s/%s", region, subRegion)
	}
	return r, nil
}

// SubRegionClassifier maps a site to a growth-table sub-region.
type SubRegionClassifier func(Site) string

// ElevationClassifier puts sites at or above highland meters in the highland
// sub-region.
func ElevationClassifier(highland float64) SubRegionClassifier {
	return func(s Site) string {
		return config.SiteConfig{Elevation: s.Elevation, HighlandElevationM: highland}.SubRegion()
	}
}

// GrowthModel grows every living tree by one year, slowed by the number of
// living neighbours within NeighbourRadius.
type GrowthModel struct {
	Table           GrowthTable
	Classify        SubRegionClassifier
	Competition     float64 // growth penalty per neighbour
	ApplySiteFactor bool
}

func NewGrowthModel(p *config.Parameters) *GrowthModel {
	return &GrowthModel{
		Table:           NewGrowthTable(p.RegionalGrowthRate),
		Classify:        ElevationClassifier(p.Site.HighlandElevationM),
		Competition:     p.OverstockingStrategy.CompetitionFactor,
		ApplySiteFactor: p.Growth.ApplySiteFactor,
	}
}

// Rate is the growth rate of s before competition.
func (m *GrowthModel) Rate(s *Stand) (float64, error) {
	rate, err := m.Table.Rate(s.Site.Region, m.Classify(s.Site))
	if err != nil {
		return 0, err
	}
	if m.ApplySiteFactor {
		rate *= s.SiteFactor
	}
	return rate, nil
}

// CompetitionFactor converts a neighbour count into a growth penalty.
func (m *GrowthModel) CompetitionFactor(neighbours int) float64 {
	return min(MaxCompetition, float64(neighbours)*m.Competition)
}

func (m *GrowthModel) Apply(s *Stand) error {
	rate, err := m.Rate(s)
	if err != nil {
		return fmt.Errorf("growth: %w", err)
	}
	grid := NewSpatialGrid(s.Side, NeighbourRadius)
	grid.IndexLiving(s.Trees)
	for i := range s.Trees {
		if !s.Trees[i].Alive {
			continue
		}
		c := m.CompetitionFactor(grid.CountWithin(s.Trees, i, NeighbourRadius))
		s.Trees[i].Grow(rate, c)
	}
	return nil
}
