package config

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// ErrInvalidParameters is matched by every ConfigurationError.
var ErrInvalidParameters = errors.New("invalid parameters")

// FieldError describes one rejected parameter.
type FieldError struct {
	Field      string
	Message    string
	Suggestion string
}

func (e FieldError) String() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s: %s (did you mean %q?)", e.Field, e.Message, e.Suggestion)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigurationError collects every problem found in a Parameters record.
type ConfigurationError struct {
	Fields []FieldError
}

func (e *ConfigurationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%v: %s", ErrInvalidParameters, strings.Join(parts, "; "))
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrInvalidParameters }

func (e *ConfigurationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ConfigurationError) addSuggested(field, suggestion, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...), Suggestion: suggestion})
}

var beatingUpTimings = []string{"early", "late"}

// Validate checks p and returns a *ConfigurationError listing every problem,
// or nil.
func Validate(p *Parameters) error {
	if p == nil {
		return &ConfigurationError{Fields: []FieldError{{Field: "parameters", Message: "missing"}}}
	}
	ce := &ConfigurationError{}

	positive(ce, "initial_stocking_density", p.InitialStockingDensity)
	nonNegative(ce, "overstocking_percentage", p.OverstockingPercentage)
	nonNegative(ce, "beating_up_threshold", p.BeatingUpThreshold)
	if p.MaxBeatingUpAge < 0 {
		ce.add("max_beating_up_age", "must be >= 0, got %d", p.MaxBeatingUpAge)
	}
	for i, y := range p.BeatingUpYears {
		if y < 0 {
			ce.add(fmt.Sprintf("beating_up_years[%d]", i), "must be >= 0, got %d", y)
		}
	}

	validateSpecies(ce, p.SpeciesMix)

	probability(ce, "hazards.drought_probability", p.Hazards.DroughtProbability)
	probability(ce, "hazards.flood_probability", p.Hazards.FloodProbability)
	probability(ce, "hazards.windthrow_probability", p.Hazards.WindthrowProbability)
	probability(ce, "hazards.disease_probability", p.Hazards.DiseaseProbability)

	f := p.Financial
	nonNegative(ce, "financial.initial_planting_cost", f.InitialPlantingCost)
	nonNegative(ce, "financial.beating_up_cost_base", f.BeatingUpCostBase)
	nonNegative(ce, "financial.beating_up_cost_increase", f.BeatingUpCostIncrease)
	nonNegative(ce, "financial.grant_rate_per_hectare", f.GrantRatePerHectare)
	nonNegative(ce, "financial.carbon_price_per_tonne", f.CarbonPricePerTonne)
	nonNegative(ce, "financial.discount_rate", f.DiscountRate)

	nonNegative(ce, "overstocking_strategy.competition_factor", p.OverstockingStrategy.CompetitionFactor)
	nonNegative(ce, "early_year_risks.drought_mortality_multiplier", p.EarlyYearRisks.DroughtMortalityMultiplier)
	nonNegative(ce, "early_year_risks.flood_mortality_multiplier", p.EarlyYearRisks.FloodMortalityMultiplier)
	nonNegative(ce, "early_year_risks.density_resilience_factor", p.EarlyYearRisks.DensityResilienceFactor)
	nonNegative(ce, "beating_up_strategy.cost_increase_per_year", p.BeatingUpStrategy.CostIncreasePerYear)

	if t := p.BeatingUpStrategy.Timing; t != "" && !contains(beatingUpTimings, t) {
		ce.addSuggested("beating_up_strategy.timing", closest(t, beatingUpTimings), "unknown timing %q", t)
	}

	if !finite(p.Site.Elevation) {
		ce.add("site.elevation", "must be a finite number, got %v", p.Site.Elevation)
	}
	if !finite(p.Site.HighlandElevationM) {
		ce.add("site.highland_elevation_m", "must be a finite number, got %v", p.Site.HighlandElevationM)
	}

	validateRegion(ce, p)

	if len(ce.Fields) > 0 {
		return ce
	}
	return nil
}

func validateSpecies(ce *ConfigurationError, mix []SpeciesWeight) {
	if len(mix) == 0 {
		ce.add("species_mix", "at least one species is required")
		return
	}
	seen := map[string]bool{}
	total := 0.0
	for i, sw := range mix {
		field := fmt.Sprintf("species_mix[%d]", i)
		if strings.TrimSpace(sw.Species) == "" {
			ce.add(field+".species", "name is required")
		} else if seen[sw.Species] {
			ce.add(field+".species", "duplicate species %q", sw.Species)
		}
		seen[sw.Species] = true
		if !finite(sw.Weight) || sw.Weight < 0 {
			ce.add(field+".weight", "must be a finite number >= 0, got %v", sw.Weight)
			continue
		}
		total += sw.Weight
	}
	if !finite(total) || total <= 0 {
		ce.add("species_mix", "weights must sum to > 0")
	}
}

func validateRegion(ce *ConfigurationError, p *Parameters) {
	if len(p.RegionalGrowthRate) == 0 {
		ce.add("regional_growth_rate", "at least one region is required")
		return
	}
	regions := make([]string, 0, len(p.RegionalGrowthRate))
	for name, rg := range p.RegionalGrowthRate {
		regions = append(regions, name)
		for sub, rate := range rg.Rates {
			nonNegative(ce, fmt.Sprintf("regional_growth_rate.%s.%s", name, sub), rate)
		}
	}
	sort.Strings(regions)

	region := p.Site.Region
	rg, ok := p.RegionalGrowthRate[region]
	if !ok {
		ce.addSuggested("site.region", closest(region, regions), "region %q has no growth rates", region)
		return
	}
	sub := p.Site.SubRegion()
	if _, ok := rg.Rates[sub]; !ok {
		subs := make([]string, 0, len(rg.Rates))
		for k := range rg.Rates {
			subs = append(subs, k)
		}
		sort.Strings(subs)
		ce.addSuggested("site.elevation", closest(sub, subs),
			"elevation %v classifies as %q, which region %q does not define", p.Site.Elevation, sub, region)
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func probability(ce *ConfigurationError, field string, v float64) {
	if !finite(v) || v < 0 || v > 1 {
		ce.add(field, "must be within [0,1], got %v", v)
	}
}

func nonNegative(ce *ConfigurationError, field string, v float64) {
	if !finite(v) || v < 0 {
		ce.add(field, "must be a finite number >= 0, got %v", v)
	}
}

func positive(ce *ConfigurationError, field string, v float64) {
	if !finite(v) || v <= 0 {
		ce.add(field, "must be a finite number > 0, got %v", v)
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// closest returns the candidate nearest to s by edit distance, or "" when
// nothing is close enough to be a plausible typo.
func closest(s string, candidates []string) string {
	best, bestDist := "", -1
	in := strings.ToLower(s)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(in, strings.ToLower(c))
		if d > suggestionLimit(len(c)) {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func suggestionLimit(length int) int {
	switch {
	case length <= 4:
		return 1
	case length <= 8:
		return 2
	default:
		return 3
	}
}
