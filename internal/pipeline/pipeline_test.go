package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-fusion/internal/artifact"
	"github.com/couchcryptid/county-risk-fusion/internal/config"
	"github.com/couchcryptid/county-risk-fusion/internal/domain"
	"github.com/couchcryptid/county-risk-fusion/internal/merge"
	"github.com/couchcryptid/county-risk-fusion/internal/observability"
	"github.com/couchcryptid/county-risk-fusion/internal/report"
)

const fixtureBase = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"NAME": "Miami-Dade", "GEOID": "12086"},
     "geometry": {"type": "Polygon", "coordinates": [[[-80.9, 25.2], [-80.1, 25.2], [-80.1, 25.9], [-80.9, 25.9], [-80.9, 25.2]]]}},
    {"type": "Feature", "properties": {"NAME": "Broward", "GEOID": "12011"},
     "geometry": {"type": "Polygon", "coordinates": [[[-80.9, 25.9], [-80.1, 25.9], [-80.1, 26.4], [-80.9, 26.4], [-80.9, 25.9]]]}},
    {"type": "Feature", "properties": {"NAME": "Alachua", "GEOID": "12001"},
     "geometry": {"type": "Polygon", "coordinates": [[[-82.7, 29.4], [-82.0, 29.4], [-82.0, 29.9], [-82.7, 29.9], [-82.7, 29.4]]]}}
  ]
}`

const fixtureGDP = "GeoFIPS,GeoName,GDP_2023\n" +
	"86,\"Miami-Dade, FL\",198000\n" +
	"11,\"Broward, FL\",112000\n" +
	"1,\"Alachua, FL\",15000\n"

const fixtureSVI = "FIPS,COUNTY,RPL_THEMES,E_TOTPOP\n" +
	"12086,Miami-Dade,0.85,2700000\n" +
	"12011,Broward,0.61,1950000\n" +
	"12001,Alachua,0.45,280000\n"

const fixtureNRI = "TRACTFIPS,HRCN_RISKR\n" +
	"12086001100,Very High\n" +
	"12011020500,Relatively High\n" +
	"12001000200,Relatively Low\n"

const fixtureStatista = "fips,County,median_home_value,annual_growth_percent,rural_status,fema_risk_zone,population_density\n" +
	"12086,Miami-Dade,550000,6.2,urban,very_high,1350\n" +
	"12011,Broward,420000,5.1,urban,high,1470\n" +
	"12001,Alachua,280000,3.1,suburban,moderate,310\n"

const fixtureTracks = "SID,NAME,ISO_TIME,LAT,LON,USA_WIND\n" +
	"Year,Name,UTC,degrees_north,degrees_east,kts\n" +
	"s1,IAN,2022-09-28 12:00:00,25.5,-80.5,125\n" +
	"s1,IAN,2022-09-28 18:00:00,26.1,-80.4,110\n" +
	"s2,IRMA,2017-09-10 12:00:00,25.7,-80.6,100\n"

func fixtureConfig(t *testing.T) (*config.Config, *artifact.Store) {
	t.Helper()
	dataDir := t.TempDir()
	outDir := t.TempDir()

	files := map[string]string{
		"counties.geojson": fixtureBase,
		"gdp.csv":          fixtureGDP,
		"svi.csv":          fixtureSVI,
		"nri.csv":          fixtureNRI,
		"statista.csv":     fixtureStatista,
		"tracks.csv":       fixtureTracks,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644))
	}

	store, err := artifact.NewStore(outDir)
	require.NoError(t, err)

	return &config.Config{
		DataDir:       dataDir,
		OutputDir:     outDir,
		BaseLayerPath: filepath.Join(dataDir, "counties.geojson"),
		GDPPath:       filepath.Join(dataDir, "gdp.csv"),
		SVIPath:       filepath.Join(dataDir, "svi.csv"),
		NRIPath:       filepath.Join(dataDir, "nri.csv"),
		StatistaPath:  filepath.Join(dataDir, "statista.csv"),
		TracksPath:    filepath.Join(dataDir, "tracks.csv"),
		StateFIPS:     "12",
	}, store
}

func newTestPipeline(cfg *config.Config, store *artifact.Store) *Pipeline {
	return New(cfg, store, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
}

func TestRunFull(t *testing.T) {
	cfg, store := fixtureConfig(t)

	require.NoError(t, newTestPipeline(cfg, store).Run(context.Background()))

	counties, err := store.ReadScoredLayer()
	require.NoError(t, err)
	require.Len(t, counties, 3)

	byFIPS := map[string]domain.County{}
	for _, c := range counties {
		byFIPS[c.FIPS] = c
	}

	miami := byFIPS["12086"]
	// All three versions computed, statista canonical.
	assert.Equal(t, domain.VersionStatista, miami.Scores.Canonical)
	for _, v := range []domain.Version{domain.VersionBase, domain.VersionNOAA, domain.VersionStatista} {
		score, ok := miami.Scores.Get(v)
		require.True(t, ok, "version %s", v)
		assert.GreaterOrEqual(t, score.Score, 0.0)
		assert.LessOrEqual(t, score.Score, 1.0)
		assert.NotEmpty(t, score.Category)
		assert.GreaterOrEqual(t, score.Rank, 1)
	}

	// Track fixture: two unique storms crossed Miami-Dade, none Alachua.
	assert.Equal(t, 2, miami.Indicators.StormCount)
	assert.Equal(t, 125.0, miami.Indicators.MaxWindKt)
	assert.Zero(t, byFIPS["12001"].Indicators.StormCount)

	// Indicators derived from the joined sources.
	assert.InDelta(t, 198000e6/2700000, miami.Indicators.GDPPerCapita, 1e-6)
	assert.Equal(t, 0.85, miami.Indicators.SocialVuln)
	assert.Equal(t, 0.9, miami.Indicators.HurricaneRisk)
	assert.Equal(t, 0.2, miami.Indicators.RuralFactor)
	assert.Equal(t, 1.0, miami.Indicators.FEMARiskFactor)

	// Summary artifact reflects the canonical version.
	var summary report.Summary
	require.NoError(t, store.ReadJSON(artifact.SummaryFile, &summary))
	assert.Equal(t, domain.VersionStatista, summary.Version)
	assert.Equal(t, 3, summary.TotalCounties)

	var enhanced report.EnhancedSummary
	require.NoError(t, store.ReadJSON(artifact.EnhancedFile, &enhanced))
	assert.Equal(t, 3, enhanced.TotalCounties)

	// Tabular companion published alongside.
	_, err = os.Stat(store.Path(artifact.ScoredTableFile))
	assert.NoError(t, err)
}

func TestRunWithoutStatista(t *testing.T) {
	cfg, store := fixtureConfig(t)
	require.NoError(t, os.Remove(cfg.StatistaPath))

	require.NoError(t, newTestPipeline(cfg, store).Run(context.Background()))

	counties, err := store.ReadScoredLayer()
	require.NoError(t, err)
	require.Len(t, counties, 3)

	// The optional source degrades to two versions, noaa canonical.
	assert.Equal(t, domain.VersionNOAA, counties[0].Scores.Canonical)
	_, ok := counties[0].Scores.Get(domain.VersionStatista)
	assert.False(t, ok)

	var enhanced report.EnhancedSummary
	assert.ErrorIs(t, store.ReadJSON(artifact.EnhancedFile, &enhanced), artifact.ErrNotPublished)
}

func TestRunMissingBaseIsFatal(t *testing.T) {
	cfg, store := fixtureConfig(t)
	require.NoError(t, os.Remove(cfg.BaseLayerPath))

	err := newTestPipeline(cfg, store).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, merge.ErrBaseLayerMissing)
}

func TestRunMissingRequiredSourceKeepsArtifacts(t *testing.T) {
	cfg, store := fixtureConfig(t)

	// First run publishes.
	require.NoError(t, newTestPipeline(cfg, store).Run(context.Background()))

	// Second run aborts before mutation: required SVI gone.
	require.NoError(t, os.Remove(cfg.SVIPath))
	err := newTestPipeline(cfg, store).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, merge.ErrSourceMissing)

	// Previously published layer still readable.
	counties, err := store.ReadScoredLayer()
	require.NoError(t, err)
	assert.Len(t, counties, 3)
}

func TestRunCancelled(t *testing.T) {
	cfg, store := fixtureConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestPipeline(cfg, store).Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeriveStatistaIndicators(t *testing.T) {
	homeValue := func(v float64) domain.SourceMetrics {
		return domain.SourceMetrics{MedianHomeValue: &v}
	}
	counties := []domain.County{
		{FIPS: "a", Source: homeValue(200_000)},
		{FIPS: "b", Source: homeValue(300_000)},
		{FIPS: "c", Source: homeValue(300_000)},
		{FIPS: "d", Source: homeValue(400_000)},
	}
	// Growth rate must not move exposure: it is reported in the enhanced
	// summary but is not a scoring input.
	fast := 10.0
	counties[2].Source.PropertyGrowthRate = &fast

	deriveStatistaIndicators(counties)

	// Exposure is the plain min-max of home value: extremes map exactly.
	assert.Equal(t, 0.0, counties[0].Indicators.PropertyExposure)
	assert.Equal(t, 1.0, counties[3].Indicators.PropertyExposure)
	assert.InDelta(t, 0.5, counties[1].Indicators.PropertyExposure, 1e-12)
	assert.Equal(t, counties[1].Indicators.PropertyExposure, counties[2].Indicators.PropertyExposure,
		"equal home values must yield equal exposure")
}

func TestScoreVersionRanksAndCanonical(t *testing.T) {
	counties := []domain.County{{FIPS: "a"}, {FIPS: "b"}, {FIPS: "c"}}
	counties[0].Indicators = domain.Indicators{HurricaneRisk: 0.9, SocialVuln: 0.9, EconomicVuln: 0.9}
	counties[1].Indicators = domain.Indicators{HurricaneRisk: 0.9, SocialVuln: 0.9, EconomicVuln: 0.9}
	counties[2].Indicators = domain.Indicators{HurricaneRisk: 0.1, SocialVuln: 0.1, EconomicVuln: 0.1}

	scoreVersion(counties, domain.VersionBase, baseMetrics)

	a, _ := counties[0].Scores.Get(domain.VersionBase)
	b, _ := counties[1].Scores.Get(domain.VersionBase)
	c, _ := counties[2].Scores.Get(domain.VersionBase)

	// Competition ranking: tie shares rank 1, next rank is 3.
	assert.Equal(t, 1, a.Rank)
	assert.Equal(t, 1, b.Rank)
	assert.Equal(t, 3, c.Rank)
	assert.InDelta(t, 0.9, a.Score, 1e-12)
	assert.Equal(t, domain.VersionBase, counties[0].Scores.Canonical)
}
