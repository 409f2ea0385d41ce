package circuitbreaker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/pkg/config"
)

func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testBreakerConfig() config.CircuitBreakerConfig {
	return config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}
}

func TestTransport_PassesSuccessfulResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewHTTPClient("test", time.Second, testBreakerConfig(), newTestLogger())

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestTransport_ServerErrorsReturnResponseAndTrip(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	transport := NewTransport("sarvam", nil, testBreakerConfig(), newTestLogger())
	client := &http.Client{Transport: transport, Timeout: time.Second}

	for i := 0; i < 3; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d: expected the 5xx response, got error %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadGateway {
			t.Errorf("request %d: expected 502, got %d", i, resp.StatusCode)
		}
	}

	if transport.State() != gobreaker.StateOpen {
		t.Fatalf("expected breaker to be open, got %s", transport.State())
	}

	_, err := client.Get(srv.URL)
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected ErrUpstreamUnavailable, got %v", err)
	}
	if err := transport.Ping(context.Background()); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected readiness ping to fail while open, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("open breaker must not reach the server, hits=%d", got)
	}
}

func TestTransport_ClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	transport := NewTransport("sarvam", nil, testBreakerConfig(), newTestLogger())
	client := &http.Client{Transport: transport, Timeout: time.Second}

	for i := 0; i < 5; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		resp.Body.Close()
	}

	if transport.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker for 4xx responses, got %s", transport.State())
	}
}

func TestTransport_CallerCancellationDoesNotTrip(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	transport := NewTransport("generation", nil, testBreakerConfig(), newTestLogger())
	client := &http.Client{Transport: transport}

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
		_, err := client.Do(req)
		cancel()
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("request %d: expected deadline error, got %v", i, err)
		}
	}

	if transport.State() != gobreaker.StateClosed {
		t.Errorf("expected closed breaker after caller timeouts, got %s", transport.State())
	}
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Errorf("expected every request to reach the server, hits=%d", got)
	}
}

func TestTransport_ConnectionErrorsTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	transport := NewTransport("sarvam", nil, testBreakerConfig(), newTestLogger())
	client := &http.Client{Transport: transport, Timeout: time.Second}

	for i := 0; i < 3; i++ {
		if _, err := client.Get(url); err == nil {
			t.Fatalf("request %d: expected connection error", i)
		}
	}

	if transport.State() != gobreaker.StateOpen {
		t.Errorf("expected open breaker after connection failures, got %s", transport.State())
	}
}

func TestNewHTTPClient_DisabledBreaker(t *testing.T) {
	cfg := testBreakerConfig()
	cfg.Enabled = false

	client := NewHTTPClient("test", 0, cfg, newTestLogger())
	if client.Transport != nil {
		t.Error("expected default transport when breaking is disabled")
	}
	if client.Timeout != 30*time.Second {
		t.Errorf("expected 30s fallback timeout, got %s", client.Timeout)
	}
}
