package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	"github.com/spec-kit/helpdesk-service/internal/workload"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TransitionService moves tickets through their lifecycle.
type TransitionService struct {
	store      repository.Store
	machine    *lifecycle.Machine
	tracker    *workload.Tracker
	calc       *sla.Calculator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TransitionDependencies bundles collaborators for the transition service.
type TransitionDependencies struct {
	Store      repository.Store
	Machine    *lifecycle.Machine
	Tracker    *workload.Tracker
	Calculator *sla.Calculator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// EvidenceInput describes an already uploaded evidence image.
type EvidenceInput struct {
	FileName    string
	URL         string
	MimeType    string
	SizeBytes   int64
	Description string
}

// TransitionInput is a requested status change.
type TransitionInput struct {
	NewStatus    domain.TicketStatus
	Observations string
	Evidence     []EvidenceInput
}

// TransitionResult is the updated ticket with the history entry just written.
type TransitionResult struct {
	Ticket  *domain.Ticket
	History *domain.TicketHistory
}

// NewTransitionService constructs the service.
func NewTransitionService(deps TransitionDependencies) *TransitionService {
	svc := &TransitionService{
		store:      deps.Store,
		machine:    deps.Machine,
		tracker:    deps.Tracker,
		calc:       deps.Calculator,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
	if svc.machine == nil {
		svc.machine = lifecycle.NewMachine()
	}
	if svc.tracker == nil {
		svc.tracker = workload.NewTracker()
	}
	if svc.calc == nil {
		svc.calc = sla.NewCalculator()
	}
	return svc
}

// Transition validates and applies a status change in one transaction, then
// notifies the people involved.
func (s *TransitionService) Transition(ctx context.Context, actor domain.Actor, ticketID string, input TransitionInput) (*TransitionResult, error) {
	var (
		result     TransitionResult
		from       domain.TicketStatus
		technician *string
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ticket, err := loadTicketForUpdate(ctx, repos, ticketID)
		if err != nil {
			return err
		}
		assignment, err := activeAssignment(ctx, repos, ticket.ID)
		if err != nil {
			return apperrors.MapError(err)
		}

		if err := s.machine.Check(lifecycle.Request{
			Current:             ticket.Status,
			Target:              input.NewStatus,
			RequesterID:         ticket.RequesterID,
			HasActiveAssignment: assignment != nil,
			Actor:               actor,
			Observations:        input.Observations,
			EvidenceCount:       len(input.Evidence),
		}); err != nil {
			return err
		}
		if err := validateEvidence(input.Evidence); err != nil {
			return err
		}

		now := s.calc.Now().UTC()
		from = ticket.Status
		history := &domain.TicketHistory{
			TicketID:     ticket.ID,
			FromStatus:   &from,
			ToStatus:     input.NewStatus,
			ActorID:      actor.UserID,
			Observations: strings.TrimSpace(input.Observations),
			CreatedAt:    now,
		}
		if err := repos.History.Create(ctx, history); err != nil {
			return apperrors.MapError(err)
		}
		for _, ev := range input.Evidence {
			image := &domain.EvidenceImage{
				HistoryID:   history.ID,
				FileName:    strings.TrimSpace(ev.FileName),
				URL:         strings.TrimSpace(ev.URL),
				MimeType:    ev.MimeType,
				SizeBytes:   ev.SizeBytes,
				Description: ev.Description,
			}
			if err := repos.Evidence.Create(ctx, image); err != nil {
				return apperrors.MapError(err)
			}
			history.Evidence = append(history.Evidence, *image)
		}

		if assignment != nil {
			technician = assignment.TechnicianID
		}
		if _, err := s.tracker.OnTransition(ctx, repos.Technicians, technician, from, input.NewStatus); err != nil {
			return mapStoreError(err)
		}

		ticket.Status = input.NewStatus
		switch input.NewStatus {
		case domain.TicketStatusClosed, domain.TicketStatusCancelled:
			ticket.ClosedAt = &now
		case domain.TicketStatusResolved:
			if ticket.RespondedAt == nil {
				ticket.RespondedAt = &now
			}
		}
		if err := repos.Tickets.Update(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		// a ticket back in PENDING must be assignable again
		releases := input.NewStatus.IsTerminal() || input.NewStatus == domain.TicketStatusPending
		if releases && assignment != nil {
			if err := repos.Assignments.Deactivate(ctx, assignment.ID); err != nil {
				return apperrors.MapError(err)
			}
		}

		result = TransitionResult{Ticket: ticket, History: history}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket status changed",
		zap.String("ticket_id", result.Ticket.ID),
		zap.String("from", string(from)),
		zap.String("to", string(input.NewStatus)),
		zap.String("actor_id", actor.UserID))

	recipients := []string{result.Ticket.RequesterID}
	if technician != nil {
		recipients = append(recipients, *technician)
	}
	if input.NewStatus == domain.TicketStatusCancelled && !actor.IsAdmin() {
		recipients = append(recipients, listAdminIDs(ctx, s.store, s.logger)...)
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventTicketStatusChanged,
		TicketID:   result.Ticket.ID,
		TicketCode: result.Ticket.Code,
		Actor:      events.ActorFrom(actor),
		Recipients: events.Recipients(actor.UserID, recipients...),
		Payload: events.TicketStatusChangedPayload{
			OldStatus:    from,
			NewStatus:    input.NewStatus,
			Observations: result.History.Observations,
		},
	})
	return &result, nil
}

// ValidTargets lists the statuses a ticket can move to next.
func (s *TransitionService) ValidTargets(status domain.TicketStatus) []domain.TicketStatus {
	return s.machine.ValidTargets(status)
}

func validateEvidence(evidence []EvidenceInput) error {
	details := map[string]any{}
	for i, ev := range evidence {
		if strings.TrimSpace(ev.URL) == "" {
			details[fmt.Sprintf("evidence_images[%d].url", i)] = "required"
		}
		if strings.TrimSpace(ev.FileName) == "" {
			details[fmt.Sprintf("evidence_images[%d].file_name", i)] = "required"
		}
		if ev.SizeBytes < 0 {
			details[fmt.Sprintf("evidence_images[%d].size_bytes", i)] = "must not be negative"
		}
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid evidence images", details)
	}
	return nil
}
