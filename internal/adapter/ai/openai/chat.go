package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/domain"
	"github.com/seu-repo/healthvoice/pkg/config"
)

// Client generates replies through any OpenAI-compatible chat endpoint.
type Client struct {
	client *goopenai.Client
	model  string
	log    *zap.Logger
}

// NewClient creates a chat client. An empty base URL means api.openai.com.
func NewClient(cfg config.GenerationConfig, httpClient *http.Client, log *zap.Logger) *Client {
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if httpClient != nil {
		oc.HTTPClient = httpClient
	}

	model := cfg.Model
	if model == "" {
		model = goopenai.GPT4oMini
	}

	return &Client{
		client: goopenai.NewClientWithConfig(oc),
		model:  model,
		log:    log,
	}
}

// Generate sends the prompt as a single user turn and returns the
// completion text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai: %w", domain.ErrEmptyResponse)
	}

	c.log.Debug("Completion received",
		zap.String("model", c.model),
		zap.Int("total_tokens", resp.Usage.TotalTokens),
	)

	return resp.Choices[0].Message.Content, nil
}
