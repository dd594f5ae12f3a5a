package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// SensorAPIProvider fetches sensor readings from a narodmon-style aggregation
// service. The URL carries the sensor IDs and API key.
type SensorAPIProvider struct {
	name    string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// minOpenTimeout keeps the breaker meaningful for very short wake intervals.
const minOpenTimeout = 100 * time.Millisecond

// OpenTimeout is how long the breaker stays open for a device waking every
// wake. It is shorter than one wake, so the next due poll always finds the
// breaker half-open and reaches the network.
func OpenTimeout(wake time.Duration) time.Duration {
	openFor := wake / 2
	if openFor < minOpenTimeout {
		openFor = minOpenTimeout
	}
	return openFor
}

// NewSensorAPIProvider creates the provider; the breaker opens after five
// consecutive failures and lets a trial request through after openFor.
func NewSensorAPIProvider(client *http.Client, openFor time.Duration) *SensorAPIProvider {
	if openFor <= 0 {
		openFor = minOpenTimeout
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sensorapi",
		MaxRequests: 1,
		Interval:    1 * time.Hour,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &SensorAPIProvider{
		name:    "sensorapi",
		httpCfg: HTTPClientConfig{Client: client},
		circuit: cb,
	}
}

func (p *SensorAPIProvider) Name() string {
	return p.name
}

// Get issues one GET against url.
func (p *SensorAPIProvider) Get(ctx context.Context, url string) ([]byte, error) {
	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	return doRequest(ctx, p.httpCfg, p.circuit, buildRequest)
}
