package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/events"
)

const relayTimeout = 5 * time.Second

// EventPublisher is the broker side of the relay; mq.Backend satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// NotificationService logs report events and relays them to a broker.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	topic      string
	logger     *zap.Logger
}

// NewNotificationService creates the service. A nil publisher only logs.
func NewNotificationService(dispatcher events.Dispatcher, publisher EventPublisher, topic string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		topic:      topic,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventReportSubmitted, n.handleReportSubmitted)
	n.dispatcher.Subscribe(events.EventReportStatusChanged, n.handleReportStatusChanged)
}

func (n *NotificationService) handleReportSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("ReportSubmitted", zap.String("custom_id", event.CustomID), zap.Any("payload", event.Payload))
	n.relay(ctx, event)
	return nil
}

func (n *NotificationService) handleReportStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ReportStatusChanged", zap.String("custom_id", event.CustomID), zap.Any("payload", event.Payload))
	n.relay(ctx, event)
	return nil
}

// relay publishes the JSON event; broker failures are logged only.
func (n *NotificationService) relay(ctx context.Context, event events.Event) {
	if n.publisher == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("encode event", zap.String("event_id", event.ID), zap.Error(err))
		return
	}

	relayCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), relayTimeout)
	defer cancel()

	messageID, err := n.publisher.Publish(relayCtx, n.topic, data, map[string]string{
		"event_type": string(event.Type),
		"custom_id":  event.CustomID,
	})
	if err != nil {
		n.logger.Warn("relay event failed",
			zap.String("event_id", event.ID),
			zap.String("topic", n.topic),
			zap.Error(err))
		return
	}
	n.logger.Debug("event relayed",
		zap.String("event_id", event.ID),
		zap.String("message_id", messageID))
}
