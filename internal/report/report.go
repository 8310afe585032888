// Package report derives the human-facing summaries of a scored run: score
// distribution statistics, category counts, top-ranked counties, and the
// enhanced property/land-use summary with its correlation matrix.
package report

import (
	"math"
	"sort"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// Stats is a standard descriptive summary of one numeric series.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Describe computes descriptive statistics. The standard deviation is the
// population form; an empty series yields the zero Stats.
func Describe(values []float64) Stats {
	n := len(values)
	if n == 0 {
		return Stats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var variance float64
	for _, v := range sorted {
		d := v - mean
		variance += d * d
	}
	variance /= float64(n)

	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Stats{
		Mean:   mean,
		Median: median,
		StdDev: math.Sqrt(variance),
		Min:    sorted[0],
		Max:    sorted[n-1],
	}
}

// Pearson returns the correlation coefficient of two equally long series.
// Degenerate inputs (mismatched length, fewer than two points, or a
// constant series) read as zero correlation.
func Pearson(x, y []float64) float64 {
	n := len(x)
	if n != len(y) || n < 2 {
		return 0
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/float64(n), sumY/float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// CategoryCounts tallies counties per risk category for one formula
// version. Counties missing that version are skipped.
func CategoryCounts(counties []domain.County, v domain.Version) map[string]int {
	counts := make(map[string]int)
	for i := range counties {
		if score, ok := counties[i].Scores.Get(v); ok {
			counts[score.Category]++
		}
	}
	return counts
}

// RankedCounty is one row of a top-N listing.
type RankedCounty struct {
	FIPS     string  `json:"fips"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	Rank     int     `json:"rank"`
}

// TopN returns the n highest-scoring counties under one formula version,
// score descending, FIPS ascending on ties so the listing is stable.
func TopN(counties []domain.County, v domain.Version, n int) []RankedCounty {
	var ranked []RankedCounty
	for i := range counties {
		score, ok := counties[i].Scores.Get(v)
		if !ok {
			continue
		}
		ranked = append(ranked, RankedCounty{
			FIPS:     counties[i].FIPS,
			Name:     counties[i].Name,
			Score:    score.Score,
			Category: score.Category,
			Rank:     score.Rank,
		})
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		return ranked[a].FIPS < ranked[b].FIPS
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// Summary is the per-version score summary persisted as summary_stats.
type Summary struct {
	GeneratedAt   string         `json:"generated_at"`
	Version       domain.Version `json:"version"`
	TotalCounties int            `json:"total_counties"`
	Scores        Stats          `json:"score_stats"`
	Categories    map[string]int `json:"category_distribution"`
	TopCounties   []RankedCounty `json:"top_counties"`
}

// topCount caps the top listing in summaries.
const topCount = 10

// BuildSummary assembles the score summary for one formula version.
func BuildSummary(counties []domain.County, v domain.Version) Summary {
	var scores []float64
	for i := range counties {
		if score, ok := counties[i].Scores.Get(v); ok {
			scores = append(scores, score.Score)
		}
	}
	return Summary{
		GeneratedAt:   domain.Now().Format("2006-01-02T15:04:05Z07:00"),
		Version:       v,
		TotalCounties: len(scores),
		Scores:        Describe(scores),
		Categories:    CategoryCounts(counties, v),
		TopCounties:   TopN(counties, v, topCount),
	}
}

// EnhancedSummary is the property/land-use summary persisted as
// enhanced_stats when the statista version ran.
type EnhancedSummary struct {
	GeneratedAt        string             `json:"generated_at"`
	TotalCounties      int                `json:"total_counties"`
	HomeValue          Stats              `json:"median_home_value_stats"`
	GrowthRate         Stats              `json:"growth_rate_stats"`
	Density            Stats              `json:"population_density_stats"`
	RuralDistribution  map[string]int     `json:"rural_distribution"`
	FEMADistribution   map[string]int     `json:"fema_zone_distribution"`
	CriticalRuralZones []RankedCounty     `json:"critical_rural_zones"`
	Correlations       map[string]float64 `json:"correlations"`
}

// criticalRuralThreshold marks rural counties whose statista score makes
// them slow-recovery concerns.
const criticalRuralThreshold = 0.7

// BuildEnhancedSummary assembles the enriched summary over the statista
// version. Critical rural zones are rural or rural-coastal counties whose
// statista score is at least the threshold, score descending.
func BuildEnhancedSummary(counties []domain.County) EnhancedSummary {
	var homes, growth, density, scores []float64
	ruralDist := make(map[string]int)
	femaDist := make(map[string]int)
	var criticalRural []RankedCounty

	for i := range counties {
		c := &counties[i]
		score, ok := c.Scores.Get(domain.VersionStatista)
		if !ok {
			continue
		}
		scores = append(scores, score.Score)
		if c.Source.MedianHomeValue != nil {
			homes = append(homes, *c.Source.MedianHomeValue)
		}
		if c.Source.PropertyGrowthRate != nil {
			growth = append(growth, *c.Source.PropertyGrowthRate)
		}
		if c.Source.PopulationDensity != nil {
			density = append(density, *c.Source.PopulationDensity)
		}

		rural := ""
		if c.Source.RuralStatus != nil {
			rural = *c.Source.RuralStatus
			ruralDist[rural]++
		}
		if c.Source.FEMARiskZone != nil {
			femaDist[*c.Source.FEMARiskZone]++
		}

		if score.Score >= criticalRuralThreshold && (rural == "rural" || rural == "rural_coastal") {
			criticalRural = append(criticalRural, RankedCounty{
				FIPS:     c.FIPS,
				Name:     c.Name,
				Score:    score.Score,
				Category: score.Category,
				Rank:     score.Rank,
			})
		}
	}

	sort.Slice(criticalRural, func(a, b int) bool {
		if criticalRural[a].Score != criticalRural[b].Score {
			return criticalRural[a].Score > criticalRural[b].Score
		}
		return criticalRural[a].FIPS < criticalRural[b].FIPS
	})

	return EnhancedSummary{
		GeneratedAt:        domain.Now().Format("2006-01-02T15:04:05Z07:00"),
		TotalCounties:      len(scores),
		HomeValue:          Describe(homes),
		GrowthRate:         Describe(growth),
		Density:            Describe(density),
		RuralDistribution:  ruralDist,
		FEMADistribution:   femaDist,
		CriticalRuralZones: criticalRural,
		Correlations:       correlations(counties),
	}
}

// correlations relates the statista score to the economic and property
// inputs across counties that have the full set.
func correlations(counties []domain.County) map[string]float64 {
	var scores, gdp, homes, density, ruralFactor []float64
	for i := range counties {
		c := &counties[i]
		score, ok := c.Scores.Get(domain.VersionStatista)
		if !ok || c.Source.MedianHomeValue == nil || c.Source.PopulationDensity == nil || c.Source.RuralStatus == nil {
			continue
		}
		scores = append(scores, score.Score)
		gdp = append(gdp, c.Indicators.GDPPerCapita)
		homes = append(homes, *c.Source.MedianHomeValue)
		density = append(density, *c.Source.PopulationDensity)
		ruralFactor = append(ruralFactor, domain.RuralFactor(*c.Source.RuralStatus))
	}
	return map[string]float64{
		"score_vs_gdp":          Pearson(scores, gdp),
		"score_vs_home_value":   Pearson(scores, homes),
		"score_vs_density":      Pearson(scores, density),
		"score_vs_rural_factor": Pearson(scores, ruralFactor),
	}
}
