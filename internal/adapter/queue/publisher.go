package queue

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/internal/domain"
)

// EventPublisher serializes interaction summaries onto a message queue.
type EventPublisher struct {
	queue   MessageQueue
	subject string
	log     *zap.Logger
}

// NewEventPublisher returns a publisher for q. A nil q yields a publisher
// that drops every event.
func NewEventPublisher(q MessageQueue, subject string, log *zap.Logger) *EventPublisher {
	return &EventPublisher{queue: q, subject: subject, log: log}
}

func (p *EventPublisher) PublishInteraction(ctx context.Context, event *domain.InteractionEvent) error {
	if p.queue == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := sonic.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal interaction event: %w", err)
	}

	if err := p.queue.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}

	p.log.Debug("Published interaction event",
		zap.String("subject", p.subject),
		zap.String("id", event.ID),
	)
	return nil
}
