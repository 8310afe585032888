// Package hurricane turns historical IBTrACS storm track observations into
// per-county frequency and intensity aggregates, and derives the
// track-based hurricane risk score used by the noaa formula version.
//
// Attribution is point-in-polygon against county geometry, with a
// bounding-box pre-filter on both the study area and each county so the
// polygon test only runs for plausible points. A storm crossing a county
// several times counts once; wind aggregates are taken over every
// attributed observation.
package hurricane

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// FloridaBounds covers the Florida study area. Track points are
// pre-filtered against this box expanded by BoundsMarginDeg so near-coast
// observations still attribute to coastal counties.
var FloridaBounds = domain.BBox{MinLat: 24.0, MaxLat: 31.5, MinLon: -88.0, MaxLon: -79.5}

// BoundsMarginDeg is the pre-filter expansion in degrees.
const BoundsMarginDeg = 2.0

// LoadTracks reads an IBTrACS-style track CSV: SID, NAME, ISO_TIME, LAT,
// LON, USA_WIND. The archive's units row (first row after the header,
// non-numeric coordinates) is skipped; any other row with an unusable
// coordinate or wind value is dropped and counted as malformed.
func LoadTracks(path string) ([]domain.TrackPoint, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("load storm tracks: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read track header of %s: %w", path, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"SID", "LAT", "LON", "USA_WIND"} {
		if _, ok := columns[required]; !ok {
			return nil, 0, fmt.Errorf("track file %s missing column %s", path, required)
		}
	}

	cell := func(row []string, name string) string {
		idx := columns[name]
		if idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var points []domain.TrackPoint
	malformed := 0
	rowNum := 0
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read track rows of %s: %w", path, err)
		}
		rowNum++

		lat, latErr := strconv.ParseFloat(cell(row, "LAT"), 64)
		lon, lonErr := strconv.ParseFloat(cell(row, "LON"), 64)
		wind, windErr := strconv.ParseFloat(cell(row, "USA_WIND"), 64)
		if latErr != nil || lonErr != nil {
			// IBTrACS ships a units row directly under the header.
			if rowNum == 1 {
				continue
			}
			malformed++
			continue
		}
		if windErr != nil || wind < 0 {
			malformed++
			continue
		}
		sid := cell(row, "SID")
		if sid == "" {
			malformed++
			continue
		}

		pt := domain.TrackPoint{
			StormID: sid,
			Name:    cell(row, "NAME"),
			Lat:     lat,
			Lon:     lon,
			WindKt:  wind,
		}
		if ts, err := time.Parse("2006-01-02 15:04:05", cell(row, "ISO_TIME")); err == nil {
			pt.Time = ts
		}
		points = append(points, pt)
	}

	return points, malformed, nil
}

// FilterBounds returns the track points inside the box, preserving order.
func FilterBounds(points []domain.TrackPoint, bounds domain.BBox) []domain.TrackPoint {
	kept := make([]domain.TrackPoint, 0, len(points))
	for _, pt := range points {
		if bounds.Contains(pt.Position()) {
			kept = append(kept, pt)
		}
	}
	return kept
}

// Aggregate attributes track points to counties and fills the IBTrACS
// indicator fields in place: unique storm count, mean wind, and max wind
// over the attributed observations. Counties no point falls in keep their
// zero aggregates.
func Aggregate(counties []domain.County, points []domain.TrackPoint) {
	for i := range counties {
		geom := counties[i].Geometry
		if len(geom) == 0 {
			continue
		}
		box := geom.Bounds()

		storms := make(map[string]bool)
		var windSum, windMax float64
		var hits int
		for _, pt := range points {
			pos := pt.Position()
			if !box.Contains(pos) || !geom.Contains(pos) {
				continue
			}
			storms[pt.StormID] = true
			windSum += pt.WindKt
			if pt.WindKt > windMax {
				windMax = pt.WindKt
			}
			hits++
		}

		ind := &counties[i].Indicators
		ind.StormCount = len(storms)
		ind.MaxWindKt = windMax
		if hits > 0 {
			ind.AvgWindKt = windSum / float64(hits)
		}
	}
}

// Frequency/intensity mix of the track-derived risk score. Storm count is
// normalized across the county population; winds against the fixed
// tropical-storm-to-Category-5 ranges so scores stay comparable between
// runs over different track archives.
const (
	weightFrequency    = 0.50
	weightAvgIntensity = 0.30
	weightMaxIntensity = 0.20

	avgWindFloorKt   = 34.0
	avgWindCeilingKt = 137.0
	maxWindFloorKt   = 34.0
	maxWindCeilingKt = 160.0
)

// RiskScores derives the noaa-version hurricane risk for every county from
// its aggregates. The result aligns positionally with the input; counties
// never touched by a storm score the minimum of each component.
func RiskScores(counties []domain.County) []float64 {
	counts := make([]float64, len(counties))
	for i := range counties {
		counts[i] = float64(counties[i].Indicators.StormCount)
	}
	freq := domain.Normalize(counts, false)

	scores := make([]float64, len(counties))
	for i := range counties {
		ind := counties[i].Indicators
		scores[i] = weightFrequency*freq[i] +
			weightAvgIntensity*domain.FixedRange(ind.AvgWindKt, avgWindFloorKt, avgWindCeilingKt) +
			weightMaxIntensity*domain.FixedRange(ind.MaxWindKt, maxWindFloorKt, maxWindCeilingKt)
		scores[i] = domain.Clamp(scores[i], 0, 1)
	}
	return scores
}
