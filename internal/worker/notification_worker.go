package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Subscriber streams raw notification payloads from a channel.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error, error)
}

// DeliveryFunc hands a decoded notification to a delivery channel.
type DeliveryFunc func(ctx context.Context, n service.Notification) error

// NotificationWorker registers event handlers and drains published notifications.
type NotificationWorker struct {
	notifications *service.NotificationService
	subscriber    Subscriber
	channel       string
	deliver       DeliveryFunc
	logger        *zap.Logger
}

// NewNotificationWorker builds a worker. subscriber and deliver may be nil.
func NewNotificationWorker(notifications *service.NotificationService, subscriber Subscriber, channel string, deliver DeliveryFunc, logger *zap.Logger) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		notifications: notifications,
		subscriber:    subscriber,
		channel:       channel,
		deliver:       deliver,
		logger:        logger,
	}
}

// Start registers notification handlers and, when a subscriber is configured,
// consumes the channel in the background until ctx is done.
func (w *NotificationWorker) Start(ctx context.Context) {
	if w.notifications != nil {
		w.notifications.RegisterHandlers()
	}
	if w.subscriber == nil || w.channel == "" {
		return
	}
	payloads, closeFn, err := w.subscriber.Subscribe(ctx, w.channel)
	if err != nil {
		w.logger.Warn("notification subscription unavailable", zap.String("channel", w.channel), zap.Error(err))
		return
	}
	go func() {
		defer func() { _ = closeFn() }()
		w.consume(ctx, payloads)
	}()
}

func (w *NotificationWorker) consume(ctx context.Context, payloads <-chan []byte) {
	for payload := range payloads {
		w.handle(ctx, payload)
	}
}

func (w *NotificationWorker) handle(ctx context.Context, payload []byte) {
	var n service.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		w.logger.Warn("discarding malformed notification", zap.Error(err))
		return
	}
	if w.deliver == nil {
		w.logger.Info("notification received",
			zap.String("recipient_id", n.RecipientID),
			zap.String("ticket_code", n.TicketCode),
			zap.String("event_type", string(n.EventType)))
		return
	}
	if err := w.deliver(ctx, n); err != nil {
		w.logger.Warn("notification delivery failed",
			zap.String("recipient_id", n.RecipientID),
			zap.String("ticket_id", n.TicketID),
			zap.Error(err))
	}
}
