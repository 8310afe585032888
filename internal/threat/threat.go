// Package threat classifies counties against the current active storm set.
// Each run recomputes every county's threat band from scratch; nothing
// carries over from the previous run, so a cleared feed immediately clears
// every band.
package threat

import (
	"sort"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// Classify assigns each county a distance-based threat band from its
// centroid to the nearest active storm. With no active storms every county
// reads as no-threat. The result aligns positionally with the input and
// carries each county's canonical composite score so consumers can flag
// critical counties without the scored layer at hand.
func Classify(counties []domain.County, storms []domain.ActiveStorm) []domain.CountyThreat {
	threats := make([]domain.CountyThreat, len(counties))
	for i := range counties {
		ct := domain.CountyThreat{
			FIPS:               counties[i].FIPS,
			Name:               counties[i].Name,
			ThreatLevel:        domain.ThreatNone,
			VulnerabilityScore: counties[i].Scores.CanonicalScore().Score,
		}

		if len(storms) > 0 {
			centroid := counties[i].Centroid()
			nearest := 0
			nearestKm := domain.Haversine(centroid, storms[0].Position())
			for s := 1; s < len(storms); s++ {
				if km := domain.Haversine(centroid, storms[s].Position()); km < nearestKm {
					nearest, nearestKm = s, km
				}
			}

			storm := storms[nearest]
			ct.ThreatLevel = domain.ThreatLevelForDistance(nearestKm)
			ct.NearestDistanceKm = &nearestKm
			ct.NearestStormName = storm.Name
			ct.NearestStormWindKt = storm.WindKt
			ct.NearestStormCat = storm.Category
			if ct.NearestStormCat == "" {
				ct.NearestStormCat = domain.CategorizeWind(storm.WindKt)
			}
			ct.HasActiveThreat = ct.ThreatLevel != domain.ThreatNone
		}

		threats[i] = ct
	}
	return threats
}

// CriticalCounties returns the critical subset sorted by vulnerability
// score descending, capped at limit. A limit of zero or less means no cap.
func CriticalCounties(threats []domain.CountyThreat, limit int) []domain.CountyThreat {
	var critical []domain.CountyThreat
	for _, t := range threats {
		if t.Critical() {
			critical = append(critical, t)
		}
	}
	sort.SliceStable(critical, func(a, b int) bool {
		return critical[a].VulnerabilityScore > critical[b].VulnerabilityScore
	})
	if limit > 0 && len(critical) > limit {
		critical = critical[:limit]
	}
	return critical
}

// Snapshot is the full result of one classification run, persisted as the
// active_storms artifact and summarized in logs. The per-county list also
// publishes separately as the county_threats array.
type Snapshot struct {
	GeneratedAt         string                     `json:"generated_at"`
	ActiveStorms        []domain.ActiveStorm       `json:"active_storms"`
	TotalCounties       int                        `json:"total_counties"`
	CountiesUnderThreat int                        `json:"counties_under_threat"`
	Distribution        map[domain.ThreatLevel]int `json:"threat_distribution"`
	Counties            []domain.CountyThreat      `json:"counties"`
	CriticalCounties    []domain.CountyThreat      `json:"critical_counties"`
}

// criticalLimit caps the critical list carried in a snapshot.
const criticalLimit = 10

// BuildSnapshot assembles the run summary around the classified threats.
func BuildSnapshot(storms []domain.ActiveStorm, threats []domain.CountyThreat) Snapshot {
	dist := map[domain.ThreatLevel]int{
		domain.ThreatExtreme:  0,
		domain.ThreatHigh:     0,
		domain.ThreatModerate: 0,
		domain.ThreatLow:      0,
		domain.ThreatNone:     0,
	}
	underThreat := 0
	for _, t := range threats {
		dist[t.ThreatLevel]++
		if t.HasActiveThreat {
			underThreat++
		}
	}

	return Snapshot{
		GeneratedAt:         domain.Now().Format("2006-01-02T15:04:05Z07:00"),
		ActiveStorms:        storms,
		TotalCounties:       len(threats),
		CountiesUnderThreat: underThreat,
		Distribution:        dist,
		Counties:            threats,
		CriticalCounties:    CriticalCounties(threats, criticalLimit),
	}
}
