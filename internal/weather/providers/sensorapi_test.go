package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/outdoor-temperature/internal/netlink"
	"github.com/i474232898/outdoor-temperature/internal/store"
	"github.com/i474232898/outdoor-temperature/internal/weather"
)

func TestSensorAPIProviderGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/sensorsValues", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("sensors"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sensors":[{"id":42,"value":3.5}]}`))
	}))
	defer srv.Close()

	p := NewSensorAPIProvider(srv.Client(), time.Hour)
	body, err := p.Get(context.Background(), srv.URL+"/api/sensorsValues?sensors=42")
	require.NoError(t, err)
	assert.JSONEq(t, `{"sensors":[{"id":42,"value":3.5}]}`, string(body))
}

func TestSensorAPIProviderStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewSensorAPIProvider(srv.Client(), time.Hour)
	_, err := p.Get(context.Background(), srv.URL)

	var fe *weather.FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, weather.ErrTransport)
	assert.Equal(t, http.StatusServiceUnavailable, fe.StatusCode)
}

func TestSensorAPIProviderConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewSensorAPIProvider(NewHTTPClient(time.Second, 2*time.Second), time.Hour)
	_, err := p.Get(context.Background(), url)

	var fe *weather.FetchError
	require.ErrorAs(t, err, &fe)
	assert.ErrorIs(t, err, weather.ErrTransport)
	assert.Zero(t, fe.StatusCode)
	assert.NotEmpty(t, fe.Detail)
}

func TestSensorAPIProviderInvalidURL(t *testing.T) {
	p := NewSensorAPIProvider(http.DefaultClient, time.Hour)
	_, err := p.Get(context.Background(), "://bad")
	assert.ErrorIs(t, err, weather.ErrTransport)
}

func TestSensorAPIProviderCircuitOpens(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewSensorAPIProvider(srv.Client(), time.Hour)
	for i := 0; i < 5; i++ {
		_, err := p.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}

	_, err := p.Get(context.Background(), srv.URL)
	var fe *weather.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe.Detail, "circuit breaker open")
	assert.Equal(t, int32(5), hits.Load())
}

func TestNewHTTPClientTimeouts(t *testing.T) {
	c := NewHTTPClient(ConnectTimeout, RequestTimeout)
	assert.Equal(t, 20*time.Second, c.Timeout)

	tr, ok := c.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, 15*time.Second, tr.TLSHandshakeTimeout)
	assert.False(t, tr.DisableKeepAlives)
}

func TestOpenTimeout(t *testing.T) {
	assert.Equal(t, 30*time.Second, OpenTimeout(time.Minute))
	assert.Equal(t, 500*time.Millisecond, OpenTimeout(time.Second))
	assert.Equal(t, minOpenTimeout, OpenTimeout(0))
	assert.Less(t, OpenTimeout(time.Minute), weather.RetryInterval)
}

func TestSensorAPIProviderHalfOpenAfterTimeout(t *testing.T) {
	var (
		hits    atomic.Int32
		healthy atomic.Bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"sensors":[{"value":1}]}`))
	}))
	defer srv.Close()

	p := NewSensorAPIProvider(srv.Client(), 50*time.Millisecond)
	for i := 0; i < 5; i++ {
		_, err := p.Get(context.Background(), srv.URL)
		require.Error(t, err)
	}
	_, err := p.Get(context.Background(), srv.URL)
	require.Error(t, err)
	require.Equal(t, int32(5), hits.Load())

	healthy.Store(true)
	time.Sleep(80 * time.Millisecond)
	_, err = p.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(6), hits.Load())
}

// TestDuePollReachesServerAfterTrip runs the device's wake cycle against a
// failing service: once the breaker has tripped, the next due poll one wake
// later still issues its GET.
func TestDuePollReachesServerAfterTrip(t *testing.T) {
	var (
		hits    atomic.Int32
		healthy atomic.Bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"sensors":[{"value":-1.5},{"value":-2.5}]}`))
	}))
	defer srv.Close()

	wake := 200 * time.Millisecond
	svc, err := weather.NewService(
		NewSensorAPIProvider(srv.Client(), OpenTimeout(wake)),
		netlink.Always{},
		&store.MemoryStateStore{},
		store.NewMemoryStore(10, 0),
		weather.Settings{URL: srv.URL, IntervalHours: 1},
		weather.WithLogger(log.New(io.Discard)),
	)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		polled, err := svc.MaybeUpdate(context.Background())
		require.True(t, polled)
		require.ErrorIs(t, err, weather.ErrTransport)
	}
	require.Equal(t, int32(5), hits.Load())

	healthy.Store(true)
	time.Sleep(wake)

	polled, err := svc.MaybeUpdate(context.Background())
	require.True(t, polled)
	require.NoError(t, err)
	assert.Equal(t, int32(6), hits.Load())
	assert.Equal(t, weather.Some(-2), svc.State().Current)
}
