package domain

// SourceMetrics holds the raw values joined from auxiliary sources.
// Pointer fields distinguish "never matched" from a real zero; they stay
// nil after the join until the fallback defaults step fills them.
type SourceMetrics struct {
	GDPMillions        *float64 `json:"gdp_millions,omitempty"`
	SVIPercentile      *float64 `json:"svi_percentile,omitempty"`
	HazardRating       *string  `json:"hazard_rating,omitempty"`
	Population         *float64 `json:"population,omitempty"`
	MedianHomeValue    *float64 `json:"median_home_value,omitempty"`
	PropertyGrowthRate *float64 `json:"property_growth_rate,omitempty"`
	RuralStatus        *string  `json:"rural_status,omitempty"`
	FEMARiskZone       *string  `json:"fema_risk_zone,omitempty"`
	PopulationDensity  *float64 `json:"population_density,omitempty"`
}

// Indicators holds the derived per-county values the composite formulas
// consume. Populated only after merge, defaults, and normalization.
type Indicators struct {
	GDPPerCapita  float64 `json:"gdp_per_capita"`
	HurricaneRisk float64 `json:"hurricane_risk"`
	SocialVuln    float64 `json:"social_vulnerability"`
	EconomicVuln  float64 `json:"economic_vulnerability"`

	// IBTrACS aggregates; zero when no historical track point fell
	// inside the county.
	StormCount int     `json:"storm_count"`
	AvgWindKt  float64 `json:"avg_wind_speed"`
	MaxWindKt  float64 `json:"max_wind_speed"`

	// Statista-derived inputs; zero when enrichment was not run.
	PropertyExposure float64 `json:"property_exposure"`
	RuralFactor      float64 `json:"rural_factor"`
	FEMARiskFactor   float64 `json:"fema_risk_factor"`
}

// County is one row of the scored geographic layer. Identity is the
// canonical FIPS; geometry is immutable once loaded. Merges enrich a
// county, they never replace or drop it.
type County struct {
	FIPS     string       `json:"fips"`
	Name     string       `json:"name"`
	Geometry MultiPolygon `json:"-"`

	Source     SourceMetrics `json:"source_metrics"`
	Indicators Indicators    `json:"indicators"`
	Scores     Scorecard     `json:"scores"`
}

// Centroid returns the county's geometric reference point for storm
// distance classification.
func (c *County) Centroid() Point {
	return c.Geometry.Centroid()
}
