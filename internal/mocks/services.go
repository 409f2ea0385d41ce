package mocks

import (
	"context"
	"sync"

	"github.com/seu-repo/healthvoice/internal/domain"
)

// MockTranscriber is a mock implementation of ports.Transcriber
type MockTranscriber struct {
	TranscribeFunc func(ctx context.Context, audio []byte, filename string) (string, error)
	Calls          int
}

func (m *MockTranscriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	m.Calls++
	if m.TranscribeFunc != nil {
		return m.TranscribeFunc(ctx, audio, filename)
	}
	return "", nil
}

// MockGenerator is a mock implementation of ports.Generator
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, prompt string) (string, error)
	Calls        int
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.Calls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, prompt)
	}
	return "mock reply", nil
}

// MockSynthesizer is a mock implementation of ports.Synthesizer
type MockSynthesizer struct {
	SynthesizeFunc func(ctx context.Context, text, locale string) ([]byte, error)
	Calls          int
	LastText       string
	LastLocale     string
}

func (m *MockSynthesizer) Synthesize(ctx context.Context, text, locale string) ([]byte, error) {
	m.Calls++
	m.LastText = text
	m.LastLocale = locale
	if m.SynthesizeFunc != nil {
		return m.SynthesizeFunc(ctx, text, locale)
	}
	return []byte("RIFF"), nil
}

// MockResponder is a mock implementation of ports.Responder
type MockResponder struct {
	RespondFunc func(ctx context.Context, message string) domain.Reply
	Calls       int
	LastMessage string
}

func (m *MockResponder) Respond(ctx context.Context, message string) domain.Reply {
	m.Calls++
	m.LastMessage = message
	if m.RespondFunc != nil {
		return m.RespondFunc(ctx, message)
	}
	return domain.Reply{Text: "mock reply"}
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	PublishFunc func(ctx context.Context, event *domain.InteractionEvent) error

	mu     sync.Mutex
	Events []*domain.InteractionEvent
}

func (m *MockEventPublisher) PublishInteraction(ctx context.Context, event *domain.InteractionEvent) error {
	m.mu.Lock()
	m.Events = append(m.Events, event)
	m.mu.Unlock()
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

// Published returns a snapshot of the events seen so far
func (m *MockEventPublisher) Published() []*domain.InteractionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.InteractionEvent, len(m.Events))
	copy(out, m.Events)
	return out
}
