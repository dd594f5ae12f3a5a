package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/outdoor-temperature/internal/weather"
)

func snap(ts time.Time, temp float64) weather.Snapshot {
	return weather.Snapshot{Timestamp: ts, Temperature: temp}
}

func TestMemoryStoreLatestAndRange(t *testing.T) {
	s := NewMemoryStore(0, 0)

	_, err := s.GetLatest()
	assert.ErrorIs(t, err, ErrNotFound)

	base := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.SaveSnapshot(snap(base.Add(time.Duration(i)*time.Hour), float64(i)))
	}

	latest, err := s.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, 3.0, latest.Temperature)

	got, err := s.GetRange(base.Add(time.Hour), base.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1.0, got[0].Temperature)
	assert.Equal(t, 2.0, got[1].Temperature)

	_, err = s.GetRange(base.Add(10*time.Hour), base.Add(11*time.Hour))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreRetention(t *testing.T) {
	now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

	s := NewMemoryStore(2, 0)
	for i := 0; i < 5; i++ {
		s.SaveSnapshot(snap(now.Add(time.Duration(i)*time.Minute), float64(i)))
	}
	all, err := s.GetRange(now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, 3.0, all[0].Temperature)

	s = NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }
	s.SaveSnapshot(snap(now.Add(-3*time.Hour), 1))
	s.SaveSnapshot(snap(now.Add(-30*time.Minute), 2))
	all, err = s.GetRange(now.Add(-24*time.Hour), now)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 2.0, all[0].Temperature)

	// The newest snapshot survives even when older than maxAge.
	s = NewMemoryStore(0, time.Hour)
	s.now = func() time.Time { return now }
	s.SaveSnapshot(snap(now.Add(-5*time.Hour), 7))
	latest, err := s.GetLatest()
	require.NoError(t, err)
	assert.Equal(t, 7.0, latest.Temperature)
}
