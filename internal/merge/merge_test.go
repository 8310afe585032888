package merge

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-fusion/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const baseLayerJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"NAME": "Miami-Dade", "GEOID": "12086"},
     "geometry": {"type": "Polygon", "coordinates": [[[-80.5, 25.2], [-80.1, 25.2], [-80.1, 25.9], [-80.5, 25.9], [-80.5, 25.2]]]}},
    {"type": "Feature", "properties": {"NAME": "Broward", "STATEFP": "12", "COUNTYFP": "011"},
     "geometry": {"type": "Polygon", "coordinates": [[[-80.5, 25.9], [-80.1, 25.9], [-80.1, 26.3], [-80.5, 26.3], [-80.5, 25.9]]]}},
    {"type": "Feature", "properties": {"NAME": "Duplicate Miami-Dade", "GEOID": "12086"},
     "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}},
    {"type": "Feature", "properties": {"NAME": "Bad Key", "GEOID": "12A86"},
     "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}}
  ]
}`

func TestLoadBaseLayer(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "counties.geojson", baseLayerJSON)

	counties, malformed, err := LoadBaseLayer(path)
	require.NoError(t, err)

	// Duplicate and malformed keys are dropped and counted; file order is
	// preserved for the rest.
	assert.Equal(t, 2, malformed)
	require.Len(t, counties, 2)
	assert.Equal(t, "12086", counties[0].FIPS)
	assert.Equal(t, "Miami-Dade", counties[0].Name)
	assert.Equal(t, "12011", counties[1].FIPS)
	assert.Equal(t, "Broward", counties[1].Name)
	assert.NotEmpty(t, counties[0].Geometry)
}

func TestLoadBaseLayerMissingIsFatal(t *testing.T) {
	_, _, err := LoadBaseLayer(filepath.Join(t.TempDir(), "nope.geojson"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBaseLayerMissing)
	assert.Contains(t, err.Error(), "boundary download")
}

func TestOpenSourceMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.csv")

	t.Run("required aborts with guidance", func(t *testing.T) {
		_, err := openSource(Source{Name: "gdp", Path: missing, Required: true})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSourceMissing)
		assert.Contains(t, err.Error(), "gdp")
	})

	t.Run("optional is skipped silently", func(t *testing.T) {
		tbl, err := openSource(Source{Name: "statista", Path: missing})
		require.NoError(t, err)
		assert.Nil(t, tbl)
	})
}

func TestLoadGDP(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "gdp.csv", ""+
		"GeoFIPS,GeoName,GDP_2023\n"+
		"86,\"Miami-Dade, FL\",198000\n"+
		"11,\"Broward, FL\",112000\n"+
		"999999,Out of range,1\n"+
		"86,Bad number,not-a-float\n")

	recs, malformed, err := LoadGDP(Source{
		Name:      "gdp",
		Path:      path,
		KeyColumn: "GeoFIPS",
		Mapper:    domain.KeyMapper{Shape: domain.KeyStatePrefixed, StateFIPS: "12"},
		Required:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, malformed)
	require.Len(t, recs, 2)
	assert.Equal(t, 198000.0, recs["12086"].GDPMillions)
	assert.Equal(t, "Broward, FL", recs["12011"].Name)
}

func TestLoadSVI(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "svi.csv", ""+
		"FIPS,COUNTY,RPL_THEMES,E_TOTPOP\n"+
		"12086,Miami-Dade,0.8534,2700000\n"+
		"12011,Broward,0.61,1950000\n"+
		"12099,Palm Beach,-999,1500000\n")

	recs, malformed, err := LoadSVI(Source{
		Name:      "svi",
		Path:      path,
		KeyColumn: "FIPS",
		Mapper:    domain.KeyMapper{Shape: domain.KeyFiveDigit},
		Required:  true,
	})
	require.NoError(t, err)
	assert.Zero(t, malformed)
	require.Len(t, recs, 3)
	assert.Equal(t, 0.8534, recs["12086"].Percentile)
	assert.Equal(t, 2700000.0, recs["12086"].Population)
	// Sentinel percentiles are carried through; clamping happens during
	// indicator derivation.
	assert.Equal(t, -999.0, recs["12099"].Percentile)
}

func TestLoadNRITractKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "nri.csv", ""+
		"TRACTFIPS,HRCN_RISKR\n"+
		"12086001100,Very High\n"+
		"12086001200,Relatively Low\n"+
		"12011020500,Relatively High\n"+
		"12099,\n")

	recs, malformed, err := LoadNRI(Source{
		Name:      "nri",
		Path:      path,
		KeyColumn: "TRACTFIPS",
		Mapper:    domain.KeyMapper{Shape: domain.KeySlicePrefix},
		Required:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, malformed)
	require.Len(t, recs, 2)
	// Tract rows collapse to county granularity, first rating wins.
	assert.Equal(t, "Very High", recs["12086"].HazardRating)
	assert.Equal(t, "Relatively High", recs["12011"].HazardRating)
}

func TestLoadStatista(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "statista.csv", ""+
		"fips,County,median_home_value,annual_growth_percent,rural_status,fema_risk_zone,population_density\n"+
		"12086,Miami-Dade,550000,6.2,urban,very_high,1350\n"+
		"12001,Alachua,280000,3.1,suburban,moderate,310\n")

	recs, malformed, err := LoadStatista(Source{
		Name:      "statista",
		Path:      path,
		KeyColumn: "fips",
		Mapper:    domain.KeyMapper{Shape: domain.KeyFiveDigit},
	})
	require.NoError(t, err)
	assert.Zero(t, malformed)
	require.Len(t, recs, 2)
	assert.Equal(t, 550000.0, recs["12086"].MedianHomeValue)
	assert.Equal(t, "urban", recs["12086"].RuralStatus)
	assert.Equal(t, "very_high", recs["12086"].FEMARiskZone)
	assert.Equal(t, 310.0, recs["12001"].Density)
}

func makeCounties(n int) []domain.County {
	counties := make([]domain.County, n)
	for i := range counties {
		counties[i] = domain.County{FIPS: fmt.Sprintf("12%03d", i*2+1)}
	}
	return counties
}

func TestMergeKeepsAllBaseRows(t *testing.T) {
	// 67 base counties, source matches only 40: the join keeps all 67 rows
	// in order and the remaining 27 fall back to defaults afterwards.
	counties := makeCounties(67)
	recs := make(map[string]GDPRecord, 40)
	for i := 0; i < 40; i++ {
		recs[counties[i].FIPS] = GDPRecord{GDPMillions: float64(1000 + i)}
	}

	cov := MergeGDP(counties, recs, 3)

	assert.Equal(t, Coverage{Source: "gdp", Matched: 40, Base: 67, Malformed: 3}, cov)
	assert.InDelta(t, 40.0/67.0, cov.Ratio(), 1e-12)
	require.Len(t, counties, 67)
	for i := 0; i < 40; i++ {
		require.NotNil(t, counties[i].Source.GDPMillions, "county %d", i)
	}
	unmatched := 0
	for i := 40; i < 67; i++ {
		if counties[i].Source.GDPMillions == nil {
			unmatched++
		}
	}
	assert.Equal(t, 27, unmatched)
}

func TestMergeSVIAttachesPopulation(t *testing.T) {
	counties := []domain.County{{FIPS: "12086"}, {FIPS: "12011"}}
	recs := map[string]SVIRecord{
		"12086": {Percentile: 0.85, Population: 2700000},
		"12011": {Percentile: 0.61},
	}

	cov := MergeSVI(counties, recs, 0)

	assert.Equal(t, 2, cov.Matched)
	require.NotNil(t, counties[0].Source.SVIPercentile)
	assert.Equal(t, 0.85, *counties[0].Source.SVIPercentile)
	require.NotNil(t, counties[0].Source.Population)
	// Zero population is not a usable denominator and stays unset.
	assert.Nil(t, counties[1].Source.Population)
}

func TestApplyDefaults(t *testing.T) {
	svi := 0.85
	counties := []domain.County{
		{FIPS: "12086", Source: domain.SourceMetrics{SVIPercentile: &svi}},
		{FIPS: "12133"},
	}

	ApplyDefaults(counties)

	// Matched values survive untouched.
	assert.Equal(t, 0.85, *counties[0].Source.SVIPercentile)

	// The fully unmatched county gets the documented fallback for every
	// metric except GDP and population, which fall back jointly at
	// derivation time.
	src := counties[1].Source
	require.NotNil(t, src.SVIPercentile)
	assert.Equal(t, 0.5, *src.SVIPercentile)
	assert.Equal(t, "Relatively Moderate", *src.HazardRating)
	assert.Equal(t, 300000.0, *src.MedianHomeValue)
	assert.Equal(t, 3.5, *src.PropertyGrowthRate)
	assert.Equal(t, "suburban", *src.RuralStatus)
	assert.Equal(t, "moderate", *src.FEMARiskZone)
	assert.Equal(t, 200.0, *src.PopulationDensity)
	assert.Nil(t, src.GDPMillions)
	assert.Nil(t, src.Population)
}

func TestDeriveIndicators(t *testing.T) {
	gdpA, popA := 100000.0, 2000000.0 // 50k per capita
	gdpB, popB := 5000.0, 100000.0    // 50k per capita
	gdpC, popC := 30000.0, 300000.0   // 100k per capita
	sviHigh, sviLow := 0.9, 0.1
	ratingHigh, ratingLow := "Very High", "Very Low"

	counties := []domain.County{
		{FIPS: "12086", Source: domain.SourceMetrics{
			GDPMillions: &gdpA, Population: &popA, SVIPercentile: &sviHigh, HazardRating: &ratingHigh,
		}},
		{FIPS: "12011", Source: domain.SourceMetrics{
			GDPMillions: &gdpB, Population: &popB, SVIPercentile: &sviLow, HazardRating: &ratingLow,
		}},
		{FIPS: "12099", Source: domain.SourceMetrics{
			GDPMillions: &gdpC, Population: &popC, SVIPercentile: &sviLow, HazardRating: &ratingLow,
		}},
		// GDP missing entirely: per-capita falls back to $50,000.
		{FIPS: "12133", Source: domain.SourceMetrics{
			SVIPercentile: &sviLow, HazardRating: &ratingLow,
		}},
	}

	DeriveIndicators(counties)

	assert.Equal(t, 50000.0, counties[0].Indicators.GDPPerCapita)
	assert.Equal(t, 100000.0, counties[2].Indicators.GDPPerCapita)
	assert.Equal(t, 50000.0, counties[3].Indicators.GDPPerCapita)

	// Economic vulnerability is the inverse normalization: the richest
	// county scores 0, the poorest 1.
	assert.Equal(t, 1.0, counties[0].Indicators.EconomicVuln)
	assert.Equal(t, 0.0, counties[2].Indicators.EconomicVuln)

	assert.Equal(t, 0.9, counties[0].Indicators.SocialVuln)
	assert.Equal(t, 0.9, counties[0].Indicators.HurricaneRisk)
	assert.Equal(t, 0.1, counties[1].Indicators.HurricaneRisk)
}

func TestDeriveIndicatorsClampsSentinelSVI(t *testing.T) {
	bad := -999.0
	counties := []domain.County{{FIPS: "12099", Source: domain.SourceMetrics{SVIPercentile: &bad}}}

	DeriveIndicators(counties)

	assert.Equal(t, 0.0, counties[0].Indicators.SocialVuln)
}
