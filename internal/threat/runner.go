package threat

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/county-risk-fusion/internal/artifact"
	"github.com/couchcryptid/county-risk-fusion/internal/domain"
	"github.com/couchcryptid/county-risk-fusion/internal/feed"
	"github.com/couchcryptid/county-risk-fusion/internal/observability"
)

// Publisher pushes one run's threats to downstream consumers.
type Publisher interface {
	PublishThreats(ctx context.Context, generatedAt string, threats []domain.CountyThreat) error
}

// Runner executes classification cycles over the published scored layer.
type Runner struct {
	store     *artifact.Store
	feed      feed.Feed
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRunner wires a classifier runner. publisher may be nil when no sink
// topic is configured.
func NewRunner(store *artifact.Store, f feed.Feed, publisher Publisher, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	return &Runner{store: store, feed: f, publisher: publisher, logger: logger, metrics: metrics}
}

// RunOnce executes one classification cycle: read the scored layer, fetch
// the active storm set, classify, persist the snapshot, and publish. A
// feed failure degrades to an empty storm set rather than failing the
// cycle; a missing scored layer is fatal because there is nothing to
// classify against.
func (r *Runner) RunOnce(ctx context.Context) error {
	counties, err := r.store.ReadScoredLayer()
	if err != nil {
		return fmt.Errorf("threat run: %w", err)
	}

	storms, err := r.feed.ActiveStorms(ctx)
	if err != nil {
		r.metrics.FeedFailures.Inc()
		r.logger.Warn("storm feed failed, treating as no active storms", "error", err)
		storms = nil
	}

	threats := Classify(counties, storms)
	snap := BuildSnapshot(storms, threats)

	// The storm-side artifact carries the whole snapshot summary; the
	// threats artifact is the bare per-county array so serving layers can
	// load either independently.
	if err := r.store.WriteJSON(artifact.ActiveStormsFile, snap); err != nil {
		return fmt.Errorf("threat run: %w", err)
	}
	if err := r.store.WriteJSON(artifact.CountyThreatsFile, snap.Counties); err != nil {
		return fmt.Errorf("threat run: %w", err)
	}

	r.metrics.ActiveStorms.Set(float64(len(storms)))
	for level, count := range snap.Distribution {
		r.metrics.CountiesPerBand.WithLabelValues(string(level)).Set(float64(count))
	}

	if r.publisher != nil {
		if err := r.publisher.PublishThreats(ctx, snap.GeneratedAt, threats); err != nil {
			r.metrics.PublishErrors.Inc()
			r.logger.Error("publish threats failed", "error", err)
		} else {
			r.metrics.EventsPublished.Add(float64(len(threats)))
		}
	}

	r.logger.Info("threat classification complete",
		"active_storms", len(storms),
		"counties", len(threats),
		"under_threat", snap.CountiesUnderThreat,
		"critical", len(snap.CriticalCounties))
	return nil
}

// CheckReadiness reports ready once a scored layer is available to
// classify against.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if _, err := os.Stat(r.store.Path(artifact.ScoredLayerFile)); err != nil {
		return fmt.Errorf("scored layer not published: %w", artifact.ErrNotPublished)
	}
	return nil
}
