package domain

import "time"

// TrackPoint is one historical storm track observation. Track points are
// consumed once for per-county aggregation and never persisted in the
// scored layer.
type TrackPoint struct {
	StormID string    `json:"sid"`
	Name    string    `json:"name,omitempty"`
	Time    time.Time `json:"iso_time"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	WindKt  float64   `json:"usa_wind"`
}

// Position returns the observation's coordinate pair.
func (t TrackPoint) Position() Point {
	return Point{Lat: t.Lat, Lon: t.Lon}
}

// ActiveStorm is a live snapshot of one currently active storm. Snapshots
// carry no history; each classifier run replaces the prior set wholesale.
type ActiveStorm struct {
	ID             string  `json:"id" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	Classification string  `json:"classification,omitempty"`
	Lat            float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Lon            float64 `json:"longitude" validate:"gte=-180,lte=180"`
	WindKt         float64 `json:"wind_speed_kt" validate:"gte=0"`
	PressureMb     float64 `json:"pressure,omitempty"`
	Movement       string  `json:"movement,omitempty"`
	LastUpdate     string  `json:"last_update,omitempty"`
	Category       string  `json:"category,omitempty"`
}

// Position returns the storm's current coordinate pair.
func (s ActiveStorm) Position() Point {
	return Point{Lat: s.Lat, Lon: s.Lon}
}

// CategorizeWind maps sustained wind in knots to a Saffir-Simpson label.
func CategorizeWind(windKt float64) string {
	switch {
	case windKt < 34:
		return "Tropical Depression"
	case windKt < 64:
		return "Tropical Storm"
	case windKt < 83:
		return "Category 1 Hurricane"
	case windKt < 96:
		return "Category 2 Hurricane"
	case windKt < 113:
		return "Category 3 Hurricane"
	case windKt < 137:
		return "Category 4 Hurricane"
	default:
		return "Category 5 Hurricane"
	}
}

// ThreatLevel is a discrete distance-based threat band.
type ThreatLevel string

const (
	ThreatExtreme  ThreatLevel = "extreme"
	ThreatHigh     ThreatLevel = "high"
	ThreatModerate ThreatLevel = "moderate"
	ThreatLow      ThreatLevel = "low"
	ThreatNone     ThreatLevel = "none"
)

// Threat distance thresholds in kilometers, boundary-inclusive on the
// lower side of each band.
const (
	ThreatExtremeKm  = 100.0
	ThreatHighKm     = 250.0
	ThreatModerateKm = 500.0
	ThreatLowKm      = 1000.0
)

// ThreatLevelForDistance maps a distance to the nearest active storm onto
// a threat band. Distances beyond the low threshold are no threat.
func ThreatLevelForDistance(km float64) ThreatLevel {
	switch {
	case km <= ThreatExtremeKm:
		return ThreatExtreme
	case km <= ThreatHighKm:
		return ThreatHigh
	case km <= ThreatModerateKm:
		return ThreatModerate
	case km <= ThreatLowKm:
		return ThreatLow
	default:
		return ThreatNone
	}
}

// CountyThreat is the per-county result of one classifier run. It is
// recomputed entirely each run and carries the canonical composite score
// at classification time, so consumers can flag critical counties without
// re-reading the scored layer.
type CountyThreat struct {
	FIPS               string      `json:"fips"`
	Name               string      `json:"name"`
	ThreatLevel        ThreatLevel `json:"current_threat_level"`
	NearestDistanceKm  *float64    `json:"nearest_storm_distance_km,omitempty"`
	NearestStormName   string      `json:"nearest_storm_name,omitempty"`
	NearestStormCat    string      `json:"nearest_storm_category,omitempty"`
	NearestStormWindKt float64     `json:"nearest_storm_wind_speed,omitempty"`
	HasActiveThreat    bool        `json:"has_active_threat"`
	VulnerabilityScore float64     `json:"vulnerability_score"`
}

// Critical reports whether the county is in an actionable state: under an
// extreme or high threat band while its composite score is at least 0.6.
func (t CountyThreat) Critical() bool {
	return (t.ThreatLevel == ThreatExtreme || t.ThreatLevel == ThreatHigh) &&
		t.VulnerabilityScore >= 0.6
}
