package gemini

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/seu-repo/healthvoice/internal/domain"
	"github.com/seu-repo/healthvoice/pkg/config"
)

const defaultModel = "gemini-2.5-flash"

// Client generates replies with the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

func NewClient(ctx context.Context, cfg config.GenerationConfig, httpClient *http.Client, log *zap.Logger) (*Client, error) {
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	log.Info("Gemini client initialized", zap.String("model", model))
	return &Client{
		client: client,
		model:  model,
		log:    log,
	}, nil
}

// Generate returns the text of the first candidate.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini: %w", domain.ErrEmptyResponse)
	}

	c.log.Debug("Completion received",
		zap.String("model", c.model),
		zap.Int("reply_chars", len([]rune(text))),
	)

	return text, nil
}
