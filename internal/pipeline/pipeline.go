// Package pipeline orchestrates one fusion run: load the base county
// layer, join the auxiliary sources, fill defaults, derive indicators,
// compute every applicable score version, build the summaries, and publish
// the artifacts.
//
// Stage order is fixed. All required sources load before any county is
// mutated, so a missing source aborts the run with the previously
// published artifacts untouched.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/county-risk-fusion/internal/artifact"
	"github.com/couchcryptid/county-risk-fusion/internal/config"
	"github.com/couchcryptid/county-risk-fusion/internal/domain"
	"github.com/couchcryptid/county-risk-fusion/internal/hurricane"
	"github.com/couchcryptid/county-risk-fusion/internal/merge"
	"github.com/couchcryptid/county-risk-fusion/internal/observability"
	"github.com/couchcryptid/county-risk-fusion/internal/report"
)

// Pipeline runs the county risk fusion end to end.
type Pipeline struct {
	cfg     *config.Config
	store   *artifact.Store
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New wires a pipeline over the artifact store.
func New(cfg *config.Config, store *artifact.Store, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{cfg: cfg, store: store, logger: logger, metrics: metrics}
}

// sources holds every loaded auxiliary table, so all required inputs are
// validated before the base layer is touched.
type sources struct {
	gdp         map[string]merge.GDPRecord
	gdpBad      int
	svi         map[string]merge.SVIRecord
	sviBad      int
	nri         map[string]merge.NRIRecord
	nriBad      int
	statista    map[string]merge.StatistaRecord
	statistaBad int
	tracks      []domain.TrackPoint
	tracksBad   int
}

// Run executes one fusion run. Errors abort the run; previously published
// artifacts stay in place.
func (p *Pipeline) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	started := time.Now()

	p.metrics.RunsTotal.Inc()
	defer func() {
		p.metrics.RunDuration.Observe(time.Since(started).Seconds())
		if err != nil {
			p.metrics.RunFailures.Inc()
			logger.Error("fusion run failed", "error", err)
			return
		}
		logger.Info("fusion run complete", "duration", time.Since(started))
	}()

	logger.Info("fusion run starting",
		"base_layer", p.cfg.BaseLayerPath,
		"state_fips", p.cfg.StateFIPS)

	counties, baseMalformed, err := p.loadBase(logger)
	if err != nil {
		return err
	}
	if len(counties) == 0 {
		return fmt.Errorf("base layer %s contains no usable counties", p.cfg.BaseLayerPath)
	}

	src, err := p.loadSources(logger)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.join(logger, counties, src)
	logger.Info("base layer joined",
		"counties", len(counties), "malformed_base_keys", baseMalformed)

	p.stage(logger, "derive", func() {
		merge.ApplyDefaults(counties)
		merge.DeriveIndicators(counties)
	})

	p.stage(logger, "score_base", func() {
		scoreVersion(counties, domain.VersionBase, baseMetrics)
	})

	p.stage(logger, "hurricane", func() {
		points := hurricane.FilterBounds(src.tracks, hurricane.FloridaBounds.Expand(hurricane.BoundsMarginDeg))
		hurricane.Aggregate(counties, points)
		risks := hurricane.RiskScores(counties)
		scoreVersion(counties, domain.VersionNOAA, func(i int, c *domain.County) map[string]float64 {
			m := baseMetrics(i, c)
			m[domain.MetricHurricaneRisk] = risks[i]
			return m
		})
	})

	if src.statista != nil {
		p.stage(logger, "score_statista", func() {
			deriveStatistaIndicators(counties)
			scoreVersion(counties, domain.VersionStatista, statistaMetrics)
		})
	} else {
		logger.Info("statista enrichment absent, skipping statista version")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := p.publish(logger, counties, src.statista != nil); err != nil {
		return err
	}

	p.metrics.CountiesScored.Set(float64(len(counties)))
	return nil
}

func (p *Pipeline) loadBase(logger *slog.Logger) ([]domain.County, int, error) {
	started := time.Now()
	counties, malformed, err := merge.LoadBaseLayer(p.cfg.BaseLayerPath)
	p.metrics.StageDuration.WithLabelValues("load_base").Observe(time.Since(started).Seconds())
	if err != nil {
		return nil, 0, err
	}
	if malformed > 0 {
		logger.Warn("base layer had malformed keys", "malformed", malformed)
		p.metrics.MalformedKeys.WithLabelValues("base").Add(float64(malformed))
	}
	return counties, malformed, nil
}

func (p *Pipeline) loadSources(logger *slog.Logger) (*sources, error) {
	started := time.Now()
	defer func() {
		p.metrics.StageDuration.WithLabelValues("load_sources").Observe(time.Since(started).Seconds())
	}()

	five := domain.KeyMapper{Shape: domain.KeyFiveDigit}
	src := &sources{}
	var err error

	src.gdp, src.gdpBad, err = merge.LoadGDP(merge.Source{
		Name:      "gdp",
		Path:      p.cfg.GDPPath,
		KeyColumn: "GeoFIPS",
		Mapper:    domain.KeyMapper{Shape: domain.KeyStatePrefixed, StateFIPS: p.cfg.StateFIPS},
		Required:  true,
	})
	if err != nil {
		return nil, err
	}

	src.svi, src.sviBad, err = merge.LoadSVI(merge.Source{
		Name: "svi", Path: p.cfg.SVIPath, KeyColumn: "FIPS", Mapper: five, Required: true,
	})
	if err != nil {
		return nil, err
	}

	src.nri, src.nriBad, err = merge.LoadNRI(merge.Source{
		Name:      "nri",
		Path:      p.cfg.NRIPath,
		KeyColumn: "TRACTFIPS",
		Mapper:    domain.KeyMapper{Shape: domain.KeySlicePrefix},
		Required:  true,
	})
	if err != nil {
		return nil, err
	}

	src.statista, src.statistaBad, err = merge.LoadStatista(merge.Source{
		Name: "statista", Path: p.cfg.StatistaPath, KeyColumn: "fips", Mapper: five,
	})
	if err != nil {
		return nil, err
	}

	src.tracks, src.tracksBad, err = hurricane.LoadTracks(p.cfg.TracksPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.cfg.TracksPath, err)
	}
	if src.tracksBad > 0 {
		logger.Warn("track archive had malformed rows", "malformed", src.tracksBad)
		p.metrics.MalformedKeys.WithLabelValues("tracks").Add(float64(src.tracksBad))
	}

	logger.Info("sources loaded",
		"gdp_rows", len(src.gdp),
		"svi_rows", len(src.svi),
		"nri_counties", len(src.nri),
		"statista_rows", len(src.statista),
		"track_points", len(src.tracks))
	return src, nil
}

func (p *Pipeline) join(logger *slog.Logger, counties []domain.County, src *sources) {
	started := time.Now()
	defer func() {
		p.metrics.StageDuration.WithLabelValues("join").Observe(time.Since(started).Seconds())
	}()

	coverages := []merge.Coverage{
		merge.MergeGDP(counties, src.gdp, src.gdpBad),
		merge.MergeSVI(counties, src.svi, src.sviBad),
		merge.MergeNRI(counties, src.nri, src.nriBad),
	}
	if src.statista != nil {
		coverages = append(coverages, merge.MergeStatista(counties, src.statista, src.statistaBad))
	}

	for _, cov := range coverages {
		p.metrics.JoinCoverage.WithLabelValues(cov.Source).Set(cov.Ratio())
		if cov.Malformed > 0 {
			p.metrics.MalformedKeys.WithLabelValues(cov.Source).Add(float64(cov.Malformed))
		}
		if cov.Matched < cov.Base {
			logger.Warn("degraded join coverage",
				"source", cov.Source,
				"matched", cov.Matched,
				"base", cov.Base,
				"malformed", cov.Malformed)
			continue
		}
		logger.Info("source joined", "source", cov.Source, "matched", cov.Matched)
	}
}

func (p *Pipeline) stage(logger *slog.Logger, name string, fn func()) {
	started := time.Now()
	fn()
	p.metrics.StageDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())
	logger.Debug("stage complete", "stage", name, "duration", time.Since(started))
}

func (p *Pipeline) publish(logger *slog.Logger, counties []domain.County, enhanced bool) error {
	started := time.Now()
	defer func() {
		p.metrics.StageDuration.WithLabelValues("publish").Observe(time.Since(started).Seconds())
	}()

	canonical := counties[0].Scores.Canonical
	summary := report.BuildSummary(counties, canonical)

	if err := p.store.WriteScoredLayer(counties); err != nil {
		return err
	}
	if err := p.store.WriteScoredTable(counties); err != nil {
		return err
	}
	if err := p.store.WriteJSON(artifact.SummaryFile, summary); err != nil {
		return err
	}
	if enhanced {
		if err := p.store.WriteJSON(artifact.EnhancedFile, report.BuildEnhancedSummary(counties)); err != nil {
			return err
		}
	}

	logger.Info("artifacts published",
		"dir", p.store.Path(""),
		"canonical_version", canonical,
		"counties", len(counties),
		"enhanced", enhanced)
	return nil
}

// metricsFor builds one county's metric map for a score version.
type metricsFor func(i int, c *domain.County) map[string]float64

// scoreVersion computes one formula version for every county, assigns
// competition ranks, and advances the canonical version pointer. Prior
// versions stay untouched.
func scoreVersion(counties []domain.County, v domain.Version, metrics metricsFor) {
	weights := domain.Weights[v]
	scores := make([]float64, len(counties))
	for i := range counties {
		scores[i] = domain.Composite(weights, metrics(i, &counties[i]))
	}
	ranks := domain.RankDescending(scores)

	for i := range counties {
		counties[i].Scores.Set(v, domain.VersionScore{
			Score:    scores[i],
			Category: domain.Categorize(scores[i]),
			Rank:     ranks[i],
		})
		counties[i].Scores.Canonical = v
	}
}

func baseMetrics(_ int, c *domain.County) map[string]float64 {
	return map[string]float64{
		domain.MetricHurricaneRisk: c.Indicators.HurricaneRisk,
		domain.MetricSocialVuln:    c.Indicators.SocialVuln,
		domain.MetricEconomicVuln:  c.Indicators.EconomicVuln,
	}
}

func statistaMetrics(_ int, c *domain.County) map[string]float64 {
	return map[string]float64{
		domain.MetricHurricaneRisk:    c.Indicators.HurricaneRisk,
		domain.MetricSocialVuln:       c.Indicators.SocialVuln,
		domain.MetricEconomicVuln:     c.Indicators.EconomicVuln,
		domain.MetricPropertyExposure: c.Indicators.PropertyExposure,
		domain.MetricRuralFactor:      c.Indicators.RuralFactor,
	}
}

// deriveStatistaIndicators fills the property-derived metrics: exposure is
// the min-max normalized median home value, plus the categorical rural
// and FEMA factors.
func deriveStatistaIndicators(counties []domain.County) {
	homes := make([]float64, len(counties))
	for i := range counties {
		if v := counties[i].Source.MedianHomeValue; v != nil {
			homes[i] = *v
		}
	}
	normHomes := domain.Normalize(homes, false)

	for i := range counties {
		c := &counties[i]
		c.Indicators.PropertyExposure = normHomes[i]

		if c.Source.RuralStatus != nil {
			c.Indicators.RuralFactor = domain.RuralFactor(*c.Source.RuralStatus)
		}
		if c.Source.FEMARiskZone != nil {
			c.Indicators.FEMARiskFactor = domain.FEMAZoneFactor(*c.Source.FEMARiskZone)
		}
	}
}
