// Package relay sends server-side tracking requests to Matomo.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"matomotrack/api/logging"
	"matomotrack/api/metrics"
	"matomotrack/api/tracking"
)

// drainLimit caps how much of a response body is read before closing it,
// so the connection can be reused.
const drainLimit = 64 << 10

// ErrCircuitOpen is returned while the breaker refuses calls to the analytics host.
var ErrCircuitOpen = errors.New("relay: circuit open")

// Config tunes the HTTP timeout and the circuit breaker.
type Config struct {
	// Timeout bounds one request. Default: 5s.
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures that opens the breaker. Default: 5.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing again. Default: 30s.
	OpenTimeout time.Duration
}

// Dispatcher issues RelayRequests. It never retries; a failed request is reported
// to the caller, which is expected to log it and carry on.
type Dispatcher struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:        "matomo-relay",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("relay circuit breaker state changed")
		},
	}

	return &Dispatcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Dispatch sends r as a single GET. The response body is discarded; a non-2xx
// status is reported as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, r *tracking.RelayRequest) error {
	start := time.Now()
	_, err := d.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.do(ctx, r)
	})
	metrics.RecordRelay(time.Since(start), err)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return err
}

func (d *Dispatcher) do(ctx context.Context, r *tracking.RelayRequest) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fmt.Errorf("relay: create request: %w", err)
	}
	// An empty User-Agent stops net/http from sending its own.
	req.Header.Set("User-Agent", "")
	for key, values := range r.Header {
		req.Header.Del(key)
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if r.Referer != "" {
		req.Header.Set("Referer", r.Referer)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("relay: do request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("relay: status %d", resp.StatusCode)
	}
	return nil
}

// State reports the breaker state: "closed", "half-open" or "open".
func (d *Dispatcher) State() string {
	return d.breaker.State().String()
}
