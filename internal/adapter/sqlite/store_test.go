package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monsoonlabs/hazardwatch/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "hazardwatch.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func seismicEvent(id string, at time.Time, lat, lon, mag float64) domain.Event {
	return domain.Event{
		ID:         id,
		Hazard:     domain.HazardSeismic,
		OccurredAt: at,
		Lat:        lat,
		Lon:        lon,
		Magnitude:  mag,
		DepthKm:    10,
		Region:     "Assam",
		Place:      "Near Guwahati, India",
		Source:     "usgs",
		IngestedAt: at.Add(time.Minute),
	}
}

func TestInsertAndFindNear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ev := seismicEvent("seismic-abc", at, 26.15, 91.77, 4.8)

	id, err := s.Insert(ctx, ev)
	require.NoError(t, err)
	assert.Equal(t, "seismic-abc", id)

	t.Run("match within tolerance", func(t *testing.T) {
		got, err := s.FindNear(ctx, domain.HazardSeismic, at.Add(3*time.Minute), 26.2, 91.8, 5*time.Minute, 0.1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ev, *got)
	})

	t.Run("time outside tolerance", func(t *testing.T) {
		got, err := s.FindNear(ctx, domain.HazardSeismic, at.Add(6*time.Minute), 26.15, 91.77, 5*time.Minute, 0.1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("coordinates outside tolerance", func(t *testing.T) {
		got, err := s.FindNear(ctx, domain.HazardSeismic, at, 26.4, 91.77, 5*time.Minute, 0.1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("different hazard", func(t *testing.T) {
		got, err := s.FindNear(ctx, domain.HazardFlood, at, 26.15, 91.77, 5*time.Minute, 0.1)
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}

func TestFindNearPicksClosestInTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	far := seismicEvent("seismic-far", at.Add(-4*time.Minute), 26.15, 91.77, 4.1)
	near := seismicEvent("seismic-near", at.Add(time.Minute), 26.15, 91.77, 4.5)

	_, err := s.Insert(ctx, far)
	require.NoError(t, err)
	_, err = s.Insert(ctx, near)
	require.NoError(t, err)

	got, err := s.FindNear(ctx, domain.HazardSeismic, at, 26.15, 91.77, 5*time.Minute, 0.1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "seismic-near", got.ID)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	ev := seismicEvent("seismic-upd", at, 26.15, 91.77, 4.2)
	_, err := s.Insert(ctx, ev)
	require.NoError(t, err)

	ev.Magnitude = 4.7
	ev.Source = "ncs"
	require.NoError(t, s.Update(ctx, ev.ID, ev))

	got, err := s.FindNear(ctx, domain.HazardSeismic, at, 26.15, 91.77, time.Minute, 0.01)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4.7, got.Magnitude)
	assert.Equal(t, "ncs", got.Source)

	t.Run("unknown id", func(t *testing.T) {
		err := s.Update(ctx, "seismic-missing", ev)
		assert.ErrorContains(t, err, "not found")
	})
}

func TestHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"seismic-1", "seismic-2", "seismic-3"} {
		_, err := s.Insert(ctx, seismicEvent(id, base.AddDate(0, 0, i*10), 26.15, 91.77, 4.0))
		require.NoError(t, err)
	}
	flood := domain.Event{
		ID: "flood-1", Hazard: domain.HazardFlood, OccurredAt: base.AddDate(0, 0, 15),
		Lat: 26.1, Lon: 91.7, Severity: "high", RainfallMM: 320,
		Region: "Assam", Source: "floodwatch", IngestedAt: base,
	}
	_, err := s.Insert(ctx, flood)
	require.NoError(t, err)

	got, err := s.History(ctx, domain.HazardSeismic, base.AddDate(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "seismic-3", got[0].ID)
	assert.Equal(t, "seismic-2", got[1].ID)

	empty, err := s.History(ctx, domain.HazardCyclone, base)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestModelRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	type params struct {
		Weights   []float64 `json:"weights"`
		Intercept float64   `json:"intercept"`
	}

	loaded := params{}
	ok, err := s.LoadModel(ctx, "seismic", &loaded)
	require.NoError(t, err)
	assert.False(t, ok)

	saved := params{Weights: []float64{0.3, -0.1, 0.7}, Intercept: 1.5}
	require.NoError(t, s.SaveModel(ctx, "seismic", saved))

	ok, err = s.LoadModel(ctx, "seismic", &loaded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, saved, loaded)

	// Retraining replaces the stored payload.
	saved.Intercept = 2.0
	require.NoError(t, s.SaveModel(ctx, "seismic", saved))
	ok, err = s.LoadModel(ctx, "seismic", &loaded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2.0, loaded.Intercept)
}
