package threat

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/county-risk-fusion/internal/artifact"
	"github.com/couchcryptid/county-risk-fusion/internal/domain"
	"github.com/couchcryptid/county-risk-fusion/internal/observability"
)

type stubFeed struct {
	storms []domain.ActiveStorm
	err    error
}

func (f stubFeed) ActiveStorms(context.Context) ([]domain.ActiveStorm, error) {
	return f.storms, f.err
}

type stubPublisher struct {
	published []domain.CountyThreat
	err       error
}

func (p *stubPublisher) PublishThreats(_ context.Context, _ string, threats []domain.CountyThreat) error {
	if p.err != nil {
		return p.err
	}
	p.published = threats
	return nil
}

func publishedStore(t *testing.T) *artifact.Store {
	t.Helper()
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	counties := []domain.County{
		pointCounty("12086", "Miami-Dade", 25.5, -80.5, 0.85),
		pointCounty("12001", "Alachua", 29.7, -82.4, 0.40),
	}
	require.NoError(t, store.WriteScoredLayer(counties))
	return store
}

func newRunner(store *artifact.Store, f stubFeed, p Publisher) *Runner {
	return NewRunner(store, f, p, slog.New(slog.DiscardHandler), observability.NewMetricsForTesting())
}

func TestRunOnce(t *testing.T) {
	store := publishedStore(t)
	pub := &stubPublisher{}
	storms := []domain.ActiveStorm{{ID: "al092026", Name: "MILTON", Lat: 25.8, Lon: -80.4, WindKt: 110}}

	require.NoError(t, newRunner(store, stubFeed{storms: storms}, pub).RunOnce(context.Background()))

	// The storm artifact holds the snapshot summary.
	var snap Snapshot
	require.NoError(t, store.ReadJSON(artifact.ActiveStormsFile, &snap))
	assert.Equal(t, 2, snap.TotalCounties)
	assert.Equal(t, 1, snap.CountiesUnderThreat)
	require.Len(t, snap.ActiveStorms, 1)
	assert.Equal(t, "MILTON", snap.ActiveStorms[0].Name)

	// The threats artifact is the bare per-county array.
	var threats []domain.CountyThreat
	require.NoError(t, store.ReadJSON(artifact.CountyThreatsFile, &threats))
	require.Len(t, threats, 2)
	assert.Equal(t, domain.ThreatExtreme, threats[0].ThreatLevel)
	assert.Equal(t, "12086", threats[0].FIPS)

	require.Len(t, pub.published, 2)
	assert.Equal(t, "12086", pub.published[0].FIPS)
}

func TestRunOnceFeedFailureDegrades(t *testing.T) {
	store := publishedStore(t)

	err := newRunner(store, stubFeed{err: errors.New("nhc unreachable")}, nil).RunOnce(context.Background())
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, store.ReadJSON(artifact.ActiveStormsFile, &snap))
	assert.Empty(t, snap.ActiveStorms)
	assert.Zero(t, snap.CountiesUnderThreat)

	var threats []domain.CountyThreat
	require.NoError(t, store.ReadJSON(artifact.CountyThreatsFile, &threats))
	for _, th := range threats {
		assert.Equal(t, domain.ThreatNone, th.ThreatLevel)
	}
}

func TestRunOnceWithoutScoredLayer(t *testing.T) {
	store, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)

	runErr := newRunner(store, stubFeed{}, nil).RunOnce(context.Background())
	assert.ErrorIs(t, runErr, artifact.ErrNotPublished)
}

func TestRunOncePublishFailureIsNonFatal(t *testing.T) {
	store := publishedStore(t)
	pub := &stubPublisher{err: errors.New("broker down")}

	err := newRunner(store, stubFeed{}, pub).RunOnce(context.Background())
	assert.NoError(t, err)
}

func TestCheckReadiness(t *testing.T) {
	empty, err := artifact.NewStore(t.TempDir())
	require.NoError(t, err)
	r := newRunner(empty, stubFeed{}, nil)
	assert.Error(t, r.CheckReadiness(context.Background()))

	ready := newRunner(publishedStore(t), stubFeed{}, nil)
	assert.NoError(t, ready.CheckReadiness(context.Background()))
}
