package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const creationObservations = "Ticket created"

// TicketService coordinates ticket workflows.
type TicketService struct {
	store      repository.Store
	calc       *sla.Calculator
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	Store      repository.Store
	Calculator *sla.Calculator
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	CategoryID  *string
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	calc := deps.Calculator
	if calc == nil {
		calc = sla.NewCalculator()
	}
	return &TicketService{
		store:      deps.Store,
		calc:       calc,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
	}
}

// CreateTicket files a PENDING ticket with SLA deadlines from its category and
// records the initial history entry.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.Actor, input TicketCreateInput) (*domain.Ticket, error) {
	if err := lifecycle.Authorize(actor, lifecycle.ActionCreateTicket, ""); err != nil {
		return nil, err
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	details := map[string]any{}
	if input.Title == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(input.CategoryID) == "" {
		details["category_id"] = "required"
	}
	if !input.Priority.IsValid() {
		details["priority"] = "must be one of LOW, MEDIUM, HIGH, CRITICAL"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid ticket", details)
	}

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		category, err := repos.Categories.GetByID(ctx, input.CategoryID)
		if err != nil {
			return notFoundOr(err, "category", "category_id", input.CategoryID)
		}

		now := s.calc.Now().UTC()
		response, resolution := s.calc.Deadlines(now, category.SLA)
		ticket = &domain.Ticket{
			Title:              input.Title,
			Description:        input.Description,
			CategoryID:         category.ID,
			RequesterID:        actor.UserID,
			Status:             domain.TicketStatusPending,
			Priority:           input.Priority,
			ResponseDeadline:   response,
			ResolutionDeadline: resolution,
			CreatedAt:          now,
		}
		if err := repos.Tickets.Create(ctx, ticket); err != nil {
			return apperrors.MapError(err)
		}
		return apperrors.MapError(repos.History.Create(ctx, &domain.TicketHistory{
			TicketID:     ticket.ID,
			ToStatus:     domain.TicketStatusPending,
			ActorID:      actor.UserID,
			Observations: creationObservations,
			CreatedAt:    now,
		}))
	})
	if err != nil {
		return nil, err
	}

	admins := s.adminIDs(ctx)
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventTicketCreated,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		Actor:      events.ActorFrom(actor),
		Recipients: events.Recipients(actor.UserID, admins...),
		Payload: events.TicketCreatedPayload{
			CategoryID: ticket.CategoryID,
			Priority:   ticket.Priority,
			Title:      ticket.Title,
		},
	})
	return ticket, nil
}

// GetTicket returns a ticket the actor may see.
func (s *TicketService) GetTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.store.Repos().Tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, notFoundOr(err, "ticket", "ticket_id", ticketID)
	}
	if ticket.Deleted {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
	}
	if err := lifecycle.Authorize(actor, lifecycle.ActionViewTicket, ticket.RequesterID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns tickets visible to the actor. Requesters only see their own.
func (s *TicketService) ListTickets(ctx context.Context, actor domain.Actor, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		CategoryID:  filter.CategoryID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	switch lifecycle.ScopeFor(actor.Role, lifecycle.ActionViewTicket) {
	case lifecycle.ScopeAny:
	case lifecycle.ScopeOwn:
		userID := actor.UserID
		repoFilter.RequesterID = &userID
	default:
		return nil, apperrors.NewForbidden("role not permitted for this action")
	}
	tickets, err := s.store.Repos().Tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return tickets, nil
}

// ListHistory returns the ticket's history, most recent first, with evidence attached.
func (s *TicketService) ListHistory(ctx context.Context, actor domain.Actor, ticketID string) ([]domain.TicketHistory, error) {
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	entries, err := repos.History.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if len(entries) == 0 {
		return entries, nil
	}
	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}
	evidence, err := repos.Evidence.ListByHistory(ctx, ids)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range entries {
		entries[i].Evidence = evidence[entries[i].ID]
	}
	return entries, nil
}

func (s *TicketService) adminIDs(ctx context.Context) []string {
	return listAdminIDs(ctx, s.store, s.logger)
}

func listAdminIDs(ctx context.Context, store repository.Store, logger *zap.Logger) []string {
	admins, err := store.Repos().Users.ListByRole(ctx, domain.RoleAdmin)
	if err != nil {
		logger.Warn("unable to load administrators for notification", zap.Error(err))
		return nil
	}
	ids := make([]string, len(admins))
	for i, admin := range admins {
		ids[i] = admin.ID
	}
	return ids
}
