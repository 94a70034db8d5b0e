package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// Publisher fans notifications out to other processes.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	publisher  Publisher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// Notification is the message published for each recipient.
type Notification struct {
	RecipientID string           `json:"recipient_id"`
	EventID     string           `json:"event_id"`
	EventType   events.EventType `json:"event_type"`
	TicketID    string           `json:"ticket_id"`
	TicketCode  string           `json:"ticket_code"`
	Title       string           `json:"title"`
	Payload     interface{}      `json:"payload"`
}

// NewNotificationService creates the service. publisher may be nil.
func NewNotificationService(dispatcher events.Dispatcher, publisher Publisher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		publisher:  publisher,
		logger:     loggerOrNop(logger),
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID), zap.Strings("recipients", event.Recipients))
	return n.notify(ctx, event, fmt.Sprintf("New ticket %s", event.TicketCode))
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	title := fmt.Sprintf("Ticket %s changed status", event.TicketCode)
	if payload, ok := event.Payload.(events.TicketStatusChangedPayload); ok {
		title = fmt.Sprintf("Ticket %s moved to %s", event.TicketCode, payload.NewStatus)
	}
	return n.notify(ctx, event, title)
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketAssigned", zap.String("ticket_id", event.TicketID), zap.Any("payload", event.Payload))
	return n.notify(ctx, event, fmt.Sprintf("Ticket %s assigned", event.TicketCode))
}

// notify publishes one notification per recipient. Every recipient is attempted;
// the first failure is returned.
func (n *NotificationService) notify(ctx context.Context, event events.Event, title string) error {
	var firstErr error
	for _, recipient := range event.Recipients {
		msg := Notification{
			RecipientID: recipient,
			EventID:     event.ID,
			EventType:   event.Type,
			TicketID:    event.TicketID,
			TicketCode:  event.TicketCode,
			Title:       title,
			Payload:     event.Payload,
		}
		if err := n.publish(ctx, msg); err != nil && firstErr == nil {
			firstErr = err
		}
		n.sendEmailNotificationStub(ctx, msg)
	}
	return firstErr
}

func (n *NotificationService) publish(ctx context.Context, msg Notification) error {
	if n.publisher == nil || strings.TrimSpace(n.cfg.RedisChannel) == "" {
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := n.publisher.Publish(ctx, n.cfg.RedisChannel, body); err != nil {
		n.logger.Warn("notification publish failed",
			zap.String("recipient_id", msg.RecipientID),
			zap.String("ticket_id", msg.TicketID),
			zap.Error(err))
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, msg Notification) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("recipient_id", msg.RecipientID),
		zap.String("ticket_id", msg.TicketID),
		zap.String("event_type", string(msg.EventType)))
}
