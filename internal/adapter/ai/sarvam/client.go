package sarvam

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/pkg/config"
)

const apiKeyHeader = "api-subscription-key"

// maxResponseBytes bounds how much of an upstream body is read.
const maxResponseBytes = 32 << 20

// Client talks to the Sarvam speech-to-text and text-to-speech endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	voice      config.VoiceConfig
	httpClient *http.Client
	log        *zap.Logger
}

// NewClient builds a client. httpClient carries the call timeout and, when
// enabled, the circuit breaker.
func NewClient(cfg config.SarvamConfig, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		voice:      cfg.Voice,
		httpClient: httpClient,
		log:        log,
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + path
}

// do sends req and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req.Header.Set(apiKeyHeader, c.apiKey)

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet(body))
	}

	return body, nil
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	if s == "" {
		return "<empty body>"
	}
	return s
}
