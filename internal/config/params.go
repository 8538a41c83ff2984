package config

// Parameters is the read-only configuration of one simulation run.
type Parameters struct {
	InitialStockingDensity float64         `yaml:"initial_stocking_density"`
	OverstockingPercentage float64         `yaml:"overstocking_percentage"`
	SpeciesMix             []SpeciesWeight `yaml:"species_mix"`

	BeatingUpThreshold float64 `yaml:"beating_up_threshold"`
	BeatingUpYears     []int   `yaml:"beating_up_years"`
	MaxBeatingUpAge    int     `yaml:"max_beating_up_age"`

	Financial FinancialConfig `yaml:"financial"`
	Hazards   HazardConfig    `yaml:"hazards"`

	RegionalGrowthRate map[string]RegionGrowth `yaml:"regional_growth_rate"`

	OverstockingStrategy OverstockingStrategy `yaml:"overstocking_strategy"`
	BeatingUpStrategy    BeatingUpStrategy    `yaml:"beating_up_strategy"`
	EarlyYearRisks       EarlyYearRisks       `yaml:"early_year_risks"`

	Site   SiteConfig   `yaml:"site"`
	Growth GrowthConfig `yaml:"growth"`
}

type SpeciesWeight struct {
	Species string  `yaml:"species"`
	Weight  float64 `yaml:"weight"`
}

type FinancialConfig struct {
	InitialPlantingCost   float64 `yaml:"initial_planting_cost"`
	BeatingUpCostBase     float64 `yaml:"beating_up_cost_base"`
	BeatingUpCostIncrease float64 `yaml:"beating_up_cost_increase"`
	GrantRatePerHectare   float64 `yaml:"grant_rate_per_hectare"`
	CarbonPricePerTonne   float64 `yaml:"carbon_price_per_tonne"`
	DiscountRate          float64 `yaml:"discount_rate"`
}

type HazardConfig struct {
	DroughtProbability   float64 `yaml:"drought_probability"`
	FloodProbability     float64 `yaml:"flood_probability"`
	WindthrowProbability float64 `yaml:"windthrow_probability"`
	// DiseaseProbability is validated but not drawn against.
	DiseaseProbability float64 `yaml:"disease_probability"`
}

// RegionGrowth holds the growth rate per sub-region ("highland", "lowland")
// of one region. Any key other than beating_up_window is a sub-region.
type RegionGrowth struct {
	Rates           map[string]float64 `yaml:",inline"`
	BeatingUpWindow int                `yaml:"beating_up_window"`
}

type OverstockingStrategy struct {
	Enabled           bool    `yaml:"enabled"`
	InitialSurplus    float64 `yaml:"initial_surplus"`
	ExpectedMortality float64 `yaml:"expected_mortality"`
	CompetitionFactor float64 `yaml:"competition_factor"`
}

type BeatingUpStrategy struct {
	Timing               string  `yaml:"timing"`
	MaxAgeDifference     int     `yaml:"max_age_difference"`
	CompetitionThreshold float64 `yaml:"competition_threshold"`
	CostIncreasePerYear  float64 `yaml:"cost_increase_per_year"`
}

type EarlyYearRisks struct {
	DroughtMortalityMultiplier float64 `yaml:"drought_mortality_multiplier"`
	FloodMortalityMultiplier   float64 `yaml:"flood_mortality_multiplier"`
	DiseaseSpreadRate          float64 `yaml:"disease_spread_rate"`
	DensityResilienceFactor    float64 `yaml:"density_resilience_factor"`
}

type SiteConfig struct {
	Region             string  `yaml:"region"`
	SoilType           string  `yaml:"soil_type"`
	Elevation          float64 `yaml:"elevation"`
	MeanAnnualTemp     float64 `yaml:"mean_annual_temp"`
	MeanAnnualRainfall float64 `yaml:"mean_annual_rainfall"`
	// HighlandElevationM splits highland from lowland sub-regions.
	HighlandElevationM float64 `yaml:"highland_elevation_m"`
}

type GrowthConfig struct {
	ApplySiteFactor bool `yaml:"apply_site_factor"`
}

const (
	SubRegionHighland = "highland"
	SubRegionLowland  = "lowland"
)

// SubRegion classifies the site by elevation.
func (s SiteConfig) SubRegion() string {
	if s.Elevation >= s.HighlandElevationM {
		return SubRegionHighland
	}
	return SubRegionLowland
}
