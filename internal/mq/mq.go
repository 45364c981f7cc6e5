package mq

import (
	"context"
	"fmt"

	"github.com/spec-kit/incident-service/internal/config"
)

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// New builds the backend selected by cfg.Driver; "none" yields nil.
func New(ctx context.Context, cfg config.MQConfig) (Backend, error) {
	switch cfg.Driver {
	case "", config.MQDriverNone:
		return nil, nil
	case config.MQDriverRabbitMQ:
		return NewRabbitMQClient(cfg)
	case config.MQDriverPubSub:
		return NewPubSubClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported mq driver %q", cfg.Driver)
	}
}
