package domain

import (
	"fmt"
	"math"
	"sort"
)

// Version names one composite score formula. Versions accumulate in a
// Scorecard; computing one never mutates another.
type Version string

const (
	// VersionBase uses the NRI categorical hurricane rating as the
	// hurricane risk input.
	VersionBase Version = "base"
	// VersionNOAA replaces the categorical rating with the IBTrACS
	// frequency/intensity-derived risk score.
	VersionNOAA Version = "noaa"
	// VersionStatista adds property exposure and the rural factor.
	VersionStatista Version = "statista"
)

// Metric names used in weight tables and metric maps.
const (
	MetricHurricaneRisk    = "hurricane_risk"
	MetricSocialVuln       = "social_vulnerability"
	MetricEconomicVuln     = "economic_vulnerability"
	MetricPropertyExposure = "property_exposure"
	MetricRuralFactor      = "rural_factor"
)

// WeightTable maps metric names to weights. Entries must sum to 1.0.
type WeightTable map[string]float64

// Weights holds the declared weight table for every formula version.
var Weights = map[Version]WeightTable{
	VersionBase: {
		MetricHurricaneRisk: 0.40,
		MetricSocialVuln:    0.30,
		MetricEconomicVuln:  0.30,
	},
	VersionNOAA: {
		MetricHurricaneRisk: 0.40,
		MetricSocialVuln:    0.30,
		MetricEconomicVuln:  0.30,
	},
	VersionStatista: {
		MetricHurricaneRisk:    0.25,
		MetricSocialVuln:       0.20,
		MetricEconomicVuln:     0.20,
		MetricPropertyExposure: 0.20,
		MetricRuralFactor:      0.15,
	},
}

// Validate checks that the table's weights sum to 1.0 within 1e-9.
func (w WeightTable) Validate() error {
	var sum float64
	for _, v := range w {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("weight table sums to %v, want 1.0", sum)
	}
	return nil
}

// Composite returns the weighted sum of the named metrics, clamped to
// [0,1]. A metric missing from the map contributes zero; out-of-range
// inputs are absorbed by the clamp.
func Composite(weights WeightTable, metrics map[string]float64) float64 {
	var score float64
	for name, w := range weights {
		score += w * metrics[name]
	}
	return Clamp(score, 0, 1)
}

// Risk categories in descending order of severity.
const (
	CategoryCritical = "Critical"
	CategoryHigh     = "High"
	CategoryModerate = "Moderate"
	CategoryLow      = "Low"
	CategoryVeryLow  = "Very Low"
)

// Categorize maps a composite score to its ordinal risk category.
func Categorize(score float64) string {
	switch {
	case score >= 0.8:
		return CategoryCritical
	case score >= 0.6:
		return CategoryHigh
	case score >= 0.4:
		return CategoryModerate
	case score >= 0.2:
		return CategoryLow
	default:
		return CategoryVeryLow
	}
}

// RankDescending assigns competition ("min") ranks, descending by score:
// tied values share the best rank and the next distinct value's rank
// accounts for every row ranked above it, so [0.9, 0.9, 0.7] ranks 1, 1, 3.
// The result is positionally aligned with the input.
func RankDescending(scores []float64) []int {
	n := len(scores)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	ranks := make([]int, n)
	for pos, idx := range order {
		if pos > 0 && scores[idx] == scores[order[pos-1]] {
			ranks[idx] = ranks[order[pos-1]]
			continue
		}
		ranks[idx] = pos + 1
	}
	return ranks
}

// VersionScore is one formula version's derived triple for a county.
type VersionScore struct {
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	Rank     int     `json:"rank"`
}

// Scorecard holds every computed version side by side plus an explicit
// canonical version tag. Earlier versions are never overwritten in place;
// switching the canonical pointer is the only way a newer version changes
// what is exposed externally.
type Scorecard struct {
	Canonical Version                  `json:"canonical"`
	Versions  map[Version]VersionScore `json:"versions"`
}

// Set records a version's score. It never touches other versions.
func (s *Scorecard) Set(v Version, score VersionScore) {
	if s.Versions == nil {
		s.Versions = make(map[Version]VersionScore)
	}
	s.Versions[v] = score
}

// Get returns the named version's score and whether it has been computed.
func (s *Scorecard) Get(v Version) (VersionScore, bool) {
	score, ok := s.Versions[v]
	return score, ok
}

// CanonicalScore returns the currently canonical version's score. A
// scorecard with no computed canonical version reads as zero.
func (s *Scorecard) CanonicalScore() VersionScore {
	return s.Versions[s.Canonical]
}

// hazardRatingScores maps NRI categorical hurricane risk ratings to the
// numeric proxy used by the base formula version.
var hazardRatingScores = map[string]float64{
	"Very Low":            0.1,
	"Relatively Low":      0.3,
	"Relatively Moderate": 0.5,
	"Relatively High":     0.7,
	"Very High":           0.9,
	"Not Applicable":      0.0,
}

// HazardRatingScore converts an NRI hurricane risk rating to [0,1].
// Unrecognized ratings fall back to the moderate midpoint.
func HazardRatingScore(rating string) float64 {
	if v, ok := hazardRatingScores[rating]; ok {
		return v
	}
	return 0.5
}

// ruralFactors maps land-use classifications to the rural vulnerability
// factor of the statista version. Rural counties recover slowest.
var ruralFactors = map[string]float64{
	"rural":         1.0,
	"rural_coastal": 0.9,
	"suburban":      0.4,
	"urban":         0.2,
}

// RuralFactor converts a rural status label to [0,1]. Unrecognized labels
// score as suburban.
func RuralFactor(status string) float64 {
	if v, ok := ruralFactors[status]; ok {
		return v
	}
	return ruralFactors["suburban"]
}

// femaZoneFactors maps FEMA flood/risk zone labels to a correlation factor
// carried as a county metric.
var femaZoneFactors = map[string]float64{
	"very_high": 1.0,
	"high":      0.75,
	"moderate":  0.5,
	"low":       0.25,
}

// FEMAZoneFactor converts a FEMA risk zone label to [0,1]. Unrecognized
// zones score as moderate.
func FEMAZoneFactor(zone string) float64 {
	if v, ok := femaZoneFactors[zone]; ok {
		return v
	}
	return femaZoneFactors["moderate"]
}
