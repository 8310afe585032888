package merge

import "github.com/couchcryptid/county-risk-fusion/internal/domain"

// The Merge* functions left-join one source onto the base layer in place.
// They never drop, reorder, or add base rows; unmatched counties keep nil
// source fields until ApplyDefaults runs. Each returns a Coverage so the
// pipeline can report match counts.

// MergeGDP attaches economic output to matched counties.
func MergeGDP(counties []domain.County, recs map[string]GDPRecord, malformed int) Coverage {
	matched := 0
	for i := range counties {
		rec, ok := recs[counties[i].FIPS]
		if !ok {
			continue
		}
		gdp := rec.GDPMillions
		counties[i].Source.GDPMillions = &gdp
		if counties[i].Name == "" {
			counties[i].Name = rec.Name
		}
		matched++
	}
	return Coverage{Source: "gdp", Matched: matched, Base: len(counties), Malformed: malformed}
}

// MergeSVI attaches the social vulnerability percentile and population.
func MergeSVI(counties []domain.County, recs map[string]SVIRecord, malformed int) Coverage {
	matched := 0
	for i := range counties {
		rec, ok := recs[counties[i].FIPS]
		if !ok {
			continue
		}
		pct := rec.Percentile
		counties[i].Source.SVIPercentile = &pct
		if rec.Population > 0 {
			pop := rec.Population
			counties[i].Source.Population = &pop
		}
		matched++
	}
	return Coverage{Source: "svi", Matched: matched, Base: len(counties), Malformed: malformed}
}

// MergeNRI attaches the categorical hazard rating.
func MergeNRI(counties []domain.County, recs map[string]NRIRecord, malformed int) Coverage {
	matched := 0
	for i := range counties {
		rec, ok := recs[counties[i].FIPS]
		if !ok {
			continue
		}
		rating := rec.HazardRating
		counties[i].Source.HazardRating = &rating
		matched++
	}
	return Coverage{Source: "nri", Matched: matched, Base: len(counties), Malformed: malformed}
}

// MergeStatista attaches the property/land-use enrichment fields.
func MergeStatista(counties []domain.County, recs map[string]StatistaRecord, malformed int) Coverage {
	matched := 0
	for i := range counties {
		rec, ok := recs[counties[i].FIPS]
		if !ok {
			continue
		}
		home, growth, density := rec.MedianHomeValue, rec.GrowthRate, rec.Density
		rural, zone := rec.RuralStatus, rec.FEMARiskZone
		counties[i].Source.MedianHomeValue = &home
		counties[i].Source.PropertyGrowthRate = &growth
		counties[i].Source.PopulationDensity = &density
		counties[i].Source.RuralStatus = &rural
		counties[i].Source.FEMARiskZone = &zone
		matched++
	}
	return Coverage{Source: "statista", Matched: matched, Base: len(counties), Malformed: malformed}
}
