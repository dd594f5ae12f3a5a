package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/outdoor-temperature/internal/weather"
)

const (
	// ConnectTimeout bounds establishing the TCP connection.
	ConnectTimeout = 15 * time.Second
	// RequestTimeout bounds the whole request including reading the body.
	RequestTimeout = 20 * time.Second
)

// HTTPClientConfig bundles the HTTP client used for outbound calls.
type HTTPClientConfig struct {
	Client *http.Client
}

var (
	errNoHTTPClient = errors.New("http client not configured")
	errCircuitOpen  = errors.New("circuit breaker open")
)

// NewHTTPClient returns a client with the connect and overall timeouts of a
// poll. Connections are kept alive between polls.
func NewHTTPClient(connectTimeout, requestTimeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connectTimeout,
		MaxIdleConns:        2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   requestTimeout,
	}
}

// doRequest executes exactly one request through the circuit breaker and
// returns the body of a 2xx response. Every failure is a transport error.
func doRequest(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) ([]byte, error) {
	if cfg.Client == nil {
		return nil, weather.NewTransportError(0, errNoHTTPClient.Error())
	}

	req, err := buildRequest()
	if err != nil {
		return nil, weather.NewTransportError(0, fmt.Sprintf("build request: %v", err))
	}
	req = req.WithContext(ctx)

	result, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := cfg.Client.Do(req)
		if execErr != nil {
			return nil, weather.NewTransportError(0, execErr.Error())
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil, weather.NewTransportError(resp.StatusCode, http.StatusText(resp.StatusCode))
		}

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, weather.NewTransportError(0, fmt.Sprintf("read body: %v", readErr))
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, weather.NewTransportError(0, fmt.Sprintf("%v: %v", errCircuitOpen, err))
		}
		return nil, err
	}

	body, ok := result.([]byte)
	if !ok {
		return nil, weather.NewTransportError(0, "unexpected result type from circuit breaker")
	}
	return body, nil
}
