package merge

import "github.com/couchcryptid/county-risk-fusion/internal/domain"

// DefaultValues is the named fallback table applied to counties an
// auxiliary source failed to match. Filling missing joins with these
// constants is a correctness-relevant business rule, not an implementation
// detail: the values are documented per metric and tested directly.
type DefaultValues struct {
	// SVIPercentile is the national median percentile.
	SVIPercentile float64
	// GDPPerCapita in USD, applied when GDP or population is missing so
	// economic vulnerability stays computable.
	GDPPerCapita float64
	// HazardRating is the NRI midpoint rating.
	HazardRating string
	// MedianHomeValue in USD.
	MedianHomeValue float64
	// PropertyGrowthRate in percent per year.
	PropertyGrowthRate float64
	// RuralStatus land-use label.
	RuralStatus string
	// FEMARiskZone label.
	FEMARiskZone string
	// PopulationDensity per square mile.
	PopulationDensity float64
}

// Defaults is the fallback table for every metric.
var Defaults = DefaultValues{
	SVIPercentile:      0.5,
	GDPPerCapita:       50_000,
	HazardRating:       "Relatively Moderate",
	MedianHomeValue:    300_000,
	PropertyGrowthRate: 3.5,
	RuralStatus:        "suburban",
	FEMARiskZone:       "moderate",
	PopulationDensity:  200,
}

// ApplyDefaults fills every nil source field with its documented fallback
// so no null propagates into scoring. GDP and population stay nil here;
// their combined fallback (GDP per capita) applies during indicator
// derivation.
func ApplyDefaults(counties []domain.County) {
	for i := range counties {
		src := &counties[i].Source
		if src.SVIPercentile == nil {
			v := Defaults.SVIPercentile
			src.SVIPercentile = &v
		}
		if src.HazardRating == nil {
			v := Defaults.HazardRating
			src.HazardRating = &v
		}
		if src.MedianHomeValue == nil {
			v := Defaults.MedianHomeValue
			src.MedianHomeValue = &v
		}
		if src.PropertyGrowthRate == nil {
			v := Defaults.PropertyGrowthRate
			src.PropertyGrowthRate = &v
		}
		if src.RuralStatus == nil {
			v := Defaults.RuralStatus
			src.RuralStatus = &v
		}
		if src.FEMARiskZone == nil {
			v := Defaults.FEMARiskZone
			src.FEMARiskZone = &v
		}
		if src.PopulationDensity == nil {
			v := Defaults.PopulationDensity
			src.PopulationDensity = &v
		}
	}
}

// DeriveIndicators computes the per-county inputs of the base composite
// formula after joins and defaults: GDP per capita (with the documented
// fallback when GDP or population is missing), social vulnerability from
// the SVI percentile, hurricane risk from the categorical hazard rating,
// and economic vulnerability as the inverse population-relative
// normalization of GDP per capita.
func DeriveIndicators(counties []domain.County) {
	perCapita := make([]float64, len(counties))
	for i := range counties {
		src := counties[i].Source
		if src.GDPMillions != nil && src.Population != nil && *src.Population > 0 {
			perCapita[i] = *src.GDPMillions * 1_000_000 / *src.Population
		} else {
			perCapita[i] = Defaults.GDPPerCapita
		}
	}

	economic := domain.Normalize(perCapita, true)

	for i := range counties {
		ind := &counties[i].Indicators
		ind.GDPPerCapita = perCapita[i]
		ind.EconomicVuln = economic[i]
		if counties[i].Source.SVIPercentile != nil {
			ind.SocialVuln = domain.Clamp(*counties[i].Source.SVIPercentile, 0, 1)
		}
		if counties[i].Source.HazardRating != nil {
			ind.HurricaneRisk = domain.HazardRatingScore(*counties[i].Source.HazardRating)
		}
	}
}
