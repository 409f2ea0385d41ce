package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/healthvoice/pkg/config"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Ping() error
	Close() error
}

// New connects the broker selected by cfg.Driver. The "none" driver returns
// a nil queue and no error.
func New(cfg config.EventsConfig, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "nats":
		q, err := NewNATSQueue(cfg.URL, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	case "rabbitmq":
		q, err := NewRabbitMQQueue(cfg.URL, log)
		if err != nil {
			return nil, err
		}
		return q, nil
	default:
		return nil, fmt.Errorf("unsupported events driver %q", cfg.Driver)
	}
}
