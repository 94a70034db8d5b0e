package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// notFoundOr maps pgx.ErrNoRows to a NotFound error for resource.
func notFoundOr(err error, resource, idKey, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, map[string]any{idKey: id})
	}
	return apperrors.MapError(err)
}

// mapStoreError turns store sentinels into API errors.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrWorkloadUnderflow):
		return apperrors.NewConflict("technician workload would become negative", nil)
	case errors.Is(err, repository.ErrActiveAssignmentExists):
		return apperrors.NewConflict("ticket already has an active assignment", nil)
	default:
		return apperrors.MapError(err)
	}
}

// activeAssignment returns the ticket's active assignment, or nil when there is none.
func activeAssignment(ctx context.Context, repos repository.Repositories, ticketID string) (*domain.Assignment, error) {
	assignment, err := repos.Assignments.GetActiveByTicket(ctx, ticketID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

func loadTicketForUpdate(ctx context.Context, repos repository.Repositories, ticketID string) (*domain.Ticket, error) {
	ticket, err := repos.Tickets.GetForUpdate(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", "ticket_id", ticketID)
	}
	if ticket.Deleted {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	return ticket, nil
}

func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil && logger != nil {
		logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
