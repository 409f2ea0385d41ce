package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/pkg/config"
)

var ErrUpstreamUnavailable = errors.New("upstream temporarily unavailable")

// errServerStatus marks a 5xx response as a breaker failure while still
// handing the response back to the caller.
var errServerStatus = errors.New("server error status")

// errCallerGone marks a transport error caused by the caller's own context
// ending. It is not held against the upstream.
var errCallerGone = errors.New("request context done")

// Transport is an http.RoundTripper guarded by a circuit breaker. Transport
// errors and 5xx responses count as failures; an open breaker rejects the
// request without touching the network.
type Transport struct {
	base    http.RoundTripper
	breaker *gobreaker.CircuitBreaker
	log     *zap.Logger
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(name string, base http.RoundTripper, cfg config.CircuitBreakerConfig, log *zap.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:    base,
		breaker: gobreaker.NewCircuitBreaker(breakerSettings(name, cfg, log)),
		log:     log,
	}
}

func breakerSettings(name string, cfg config.CircuitBreakerConfig, log *zap.Logger) gobreaker.Settings {
	minRequests := cfg.MinRequests
	if minRequests == 0 {
		minRequests = 5
	}
	threshold := cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 0.6
	}

	return gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	var callerErr error
	result, err := t.breaker.Execute(func() (interface{}, error) {
		resp, err := t.base.RoundTrip(req)
		if err != nil {
			if req.Context().Err() != nil {
				callerErr = err
				return nil, errCallerGone
			}
			return nil, err
		}
		if resp.StatusCode >= 500 {
			return resp, errServerStatus
		}
		return resp, nil
	})

	if errors.Is(err, errServerStatus) {
		return result.(*http.Response), nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		t.log.Warn("Circuit breaker open, request blocked",
			zap.String("url", req.URL.Redacted()),
			zap.String("breaker", t.breaker.Name()),
		)
		return nil, fmt.Errorf("%w (%s): %v", ErrUpstreamUnavailable, t.breaker.Name(), err)
	}
	if err != nil {
		if errors.Is(err, errCallerGone) {
			return nil, callerErr
		}
		return nil, err
	}
	return result.(*http.Response), nil
}

// State reports the breaker state.
func (t *Transport) State() gobreaker.State {
	return t.breaker.State()
}

// Ping fails while the breaker is open, so readiness reports a dead upstream.
func (t *Transport) Ping(ctx context.Context) error {
	if t.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("%w (%s)", ErrUpstreamUnavailable, t.breaker.Name())
	}
	return nil
}

// NewHTTPClient returns a client with the given timeout whose transport is
// guarded by a breaker unless breaking is disabled.
func NewHTTPClient(name string, timeout time.Duration, cfg config.CircuitBreakerConfig, log *zap.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	if cfg.Enabled {
		client.Transport = NewTransport(name, nil, cfg, log)
	}
	return client
}
