package merge

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

// baseProperties is the TIGER/Line-style property schema of the base
// boundary layer. GEOID is preferred; STATEFP+COUNTYFP is the fallback.
type baseProperties struct {
	Name     string `json:"NAME"`
	GeoID    string `json:"GEOID"`
	StateFP  string `json:"STATEFP"`
	CountyFP string `json:"COUNTYFP"`
}

// LoadBaseLayer reads the county boundary GeoJSON and returns one County
// per feature, in file order. Identity is the canonical FIPS; features
// whose key cannot be normalized are dropped and counted as malformed.
// Duplicate FIPS keep the first occurrence.
func LoadBaseLayer(path string) ([]domain.County, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, fmt.Errorf("%w: %s — run the boundary download step first", ErrBaseLayerMissing, path)
		}
		return nil, 0, fmt.Errorf("load base layer: %w", err)
	}

	var fc domain.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, 0, fmt.Errorf("parse base layer %s: %w", path, err)
	}

	mapper := domain.KeyMapper{Shape: domain.KeyFiveDigit}
	counties := make([]domain.County, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	malformed := 0

	for _, feat := range fc.Features {
		var props baseProperties
		if len(feat.Properties) > 0 {
			if err := json.Unmarshal(feat.Properties, &props); err != nil {
				return nil, 0, fmt.Errorf("parse base layer properties: %w", err)
			}
		}

		raw := props.GeoID
		if raw == "" && props.StateFP != "" && props.CountyFP != "" {
			raw = props.StateFP + props.CountyFP
		}
		fips := mapper.Canonical(raw)
		if fips == "" {
			malformed++
			continue
		}
		if seen[fips] {
			malformed++
			continue
		}
		seen[fips] = true

		geom, err := feat.Geometry.AsMultiPolygon()
		if err != nil {
			return nil, 0, fmt.Errorf("county %s geometry: %w", fips, err)
		}

		counties = append(counties, domain.County{
			FIPS:     fips,
			Name:     props.Name,
			Geometry: geom,
		})
	}

	return counties, malformed, nil
}

// GDPRecord is one county's economic output row.
type GDPRecord struct {
	Name        string
	GDPMillions float64
}

// LoadGDP reads the BEA-style GDP table. Keys arrive as bare 3-digit
// county codes, so the source's mapper must be state-prefixed.
func LoadGDP(src Source) (map[string]GDPRecord, int, error) {
	t, err := openSource(src)
	if err != nil || t == nil {
		return nil, 0, err
	}

	recs := make(map[string]GDPRecord, len(t.rows))
	malformed := 0
	for _, row := range t.rows {
		fips := src.Mapper.Canonical(t.cell(row, src.KeyColumn))
		if fips == "" {
			malformed++
			continue
		}
		gdp, ok := parseFloat(t.cell(row, "GDP_2023"))
		if !ok {
			malformed++
			continue
		}
		recs[fips] = GDPRecord{Name: t.cell(row, "GeoName"), GDPMillions: gdp}
	}
	return recs, malformed, nil
}

// SVIRecord is one county's social vulnerability row.
type SVIRecord struct {
	County     string
	Percentile float64
	Population float64
}

// LoadSVI reads the CDC SVI table. RPL_THEMES is the overall percentile;
// E_TOTPOP feeds GDP-per-capita derivation.
func LoadSVI(src Source) (map[string]SVIRecord, int, error) {
	t, err := openSource(src)
	if err != nil || t == nil {
		return nil, 0, err
	}

	recs := make(map[string]SVIRecord, len(t.rows))
	malformed := 0
	for _, row := range t.rows {
		fips := src.Mapper.Canonical(t.cell(row, src.KeyColumn))
		if fips == "" {
			malformed++
			continue
		}
		pct, ok := parseFloat(t.cell(row, "RPL_THEMES"))
		if !ok {
			malformed++
			continue
		}
		rec := SVIRecord{County: t.cell(row, "COUNTY"), Percentile: pct}
		if pop, ok := parseFloat(t.cell(row, "E_TOTPOP")); ok {
			rec.Population = pop
		}
		recs[fips] = rec
	}
	return recs, malformed, nil
}

// NRIRecord is one county's hazard-risk row.
type NRIRecord struct {
	HazardRating string
}

// LoadNRI reads the FEMA National Risk Index table. Keys may arrive at
// tract granularity, so the source's mapper is typically slice_prefix;
// repeated county keys keep the first rating seen.
func LoadNRI(src Source) (map[string]NRIRecord, int, error) {
	t, err := openSource(src)
	if err != nil || t == nil {
		return nil, 0, err
	}

	recs := make(map[string]NRIRecord, len(t.rows))
	malformed := 0
	for _, row := range t.rows {
		fips := src.Mapper.Canonical(t.cell(row, src.KeyColumn))
		if fips == "" {
			malformed++
			continue
		}
		rating := t.cell(row, "HRCN_RISKR")
		if rating == "" {
			malformed++
			continue
		}
		if _, dup := recs[fips]; dup {
			continue
		}
		recs[fips] = NRIRecord{HazardRating: rating}
	}
	return recs, malformed, nil
}

// StatistaRecord is one county's property/land-use enrichment row.
type StatistaRecord struct {
	County          string
	MedianHomeValue float64
	GrowthRate      float64
	RuralStatus     string
	FEMARiskZone    string
	Density         float64
}

// LoadStatista reads the optional enrichment table. A missing file is not
// an error; the statista formula version is simply skipped.
func LoadStatista(src Source) (map[string]StatistaRecord, int, error) {
	t, err := openSource(src)
	if err != nil || t == nil {
		return nil, 0, err
	}

	recs := make(map[string]StatistaRecord, len(t.rows))
	malformed := 0
	for _, row := range t.rows {
		fips := src.Mapper.Canonical(t.cell(row, src.KeyColumn))
		if fips == "" {
			malformed++
			continue
		}
		home, ok := parseFloat(t.cell(row, "median_home_value"))
		if !ok {
			malformed++
			continue
		}
		rec := StatistaRecord{
			County:          t.cell(row, "County"),
			MedianHomeValue: home,
			RuralStatus:     t.cell(row, "rural_status"),
			FEMARiskZone:    t.cell(row, "fema_risk_zone"),
		}
		if v, ok := parseFloat(t.cell(row, "annual_growth_percent")); ok {
			rec.GrowthRate = v
		}
		if v, ok := parseFloat(t.cell(row, "population_density")); ok {
			rec.Density = v
		}
		recs[fips] = rec
	}
	return recs, malformed, nil
}
