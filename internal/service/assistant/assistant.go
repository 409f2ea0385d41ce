package assistant

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/domain"
	"github.com/seu-repo/healthvoice/internal/ports"
)

const defaultTimeout = 60 * time.Second

// Assistant is the response generator: it frames the user's message with the
// fixed instruction and asks the generation service for a reply.
type Assistant struct {
	generator ports.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

func NewAssistant(generator ports.Generator, timeout time.Duration, logger *zap.Logger) *Assistant {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Assistant{
		generator: generator,
		timeout:   timeout,
		logger:    logger,
	}
}

// Respond always yields a reply. When generation fails the reply text is the
// "Error generating response: ..." message and Degraded is set, so the caller
// can still show and speak it.
func (a *Assistant) Respond(ctx context.Context, message string) domain.Reply {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	text, err := a.generator.Generate(ctx, ComposePrompt(message))
	if err != nil {
		stageErr := domain.NewStageError(domain.StageGeneration, err)
		a.logger.Warn("Generation failed, returning degraded reply", zap.Error(err))
		return domain.Reply{Text: stageErr.Error(), Degraded: true}
	}

	return domain.Reply{Text: text}
}
