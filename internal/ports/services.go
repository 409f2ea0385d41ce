package ports

import (
	"context"

	"github.com/seu-repo/healthvoice/internal/domain"
)

// Transcriber converts recorded audio into text. An empty transcript with a
// nil error means no speech was detected.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Generator is a generative-text service taking a fully composed prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Synthesizer converts text into speech for a locale code.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, locale string) ([]byte, error)
}

// Responder produces the assistant's reply to a user message. It never
// fails: generation errors come back as a degraded Reply.
type Responder interface {
	Respond(ctx context.Context, message string) domain.Reply
}

// EventPublisher delivers interaction summaries to the event bus.
type EventPublisher interface {
	PublishInteraction(ctx context.Context, event *domain.InteractionEvent) error
}
