package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/lifecycle"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	"github.com/spec-kit/helpdesk-service/internal/workload"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const autotriageLockKey = "helpdesk:autotriage:lock"

const (
	failureNoTechnician     = "no technician with required specialty"
	failurePriorityExcluded = "priority not eligible for automatic assignment"
)

// BatchLocker guards against overlapping autotriage batches.
type BatchLocker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context), error)
}

// AssignmentService handles ticket assignment operations.
type AssignmentService struct {
	store      repository.Store
	scorer     *Scorer
	tracker    *workload.Tracker
	dispatcher events.Dispatcher
	locker     BatchLocker
	lockTTL    time.Duration
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// AssignmentDependencies bundles collaborators.
type AssignmentDependencies struct {
	Store      repository.Store
	Scorer     *Scorer
	Tracker    *workload.Tracker
	Dispatcher events.Dispatcher
	Locker     BatchLocker
	LockTTL    time.Duration
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// AutotriageResult is the outcome for one pending ticket.
type AutotriageResult struct {
	TicketID       string
	TicketCode     string
	TechnicianID   *string
	TechnicianName string
	Score          int
	Error          string
}

// Succeeded reports whether the ticket was assigned.
func (r AutotriageResult) Succeeded() bool {
	return r.Error == ""
}

// AutotriageReport summarizes a batch.
type AutotriageReport struct {
	Results        []AutotriageResult
	TotalProcessed int
	Succeeded      int
	Failed         int
}

// ManualAssignmentInput is an administrator's assignment request.
type ManualAssignmentInput struct {
	TicketID      string
	TechnicianID  string
	Justification string
}

// PendingTicket is a queue entry for the manual assignment screen.
type PendingTicket struct {
	Ticket         domain.Ticket
	HoursRemaining int
	UrgencyScore   int
	Band           sla.Band
}

// TechnicianWorkload summarizes a technician's capacity.
type TechnicianWorkload struct {
	Technician domain.Technician
	Headroom   float64
	AtCapacity bool
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	svc := &AssignmentService{
		store:      deps.Store,
		scorer:     deps.Scorer,
		tracker:    deps.Tracker,
		dispatcher: deps.Dispatcher,
		locker:     deps.Locker,
		lockTTL:    deps.LockTTL,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger),
	}
	if svc.scorer == nil {
		svc.scorer = NewScorer(nil, defaultAutotriageConfig())
	}
	if svc.tracker == nil {
		svc.tracker = workload.NewTracker()
	}
	if svc.lockTTL <= 0 {
		svc.lockTTL = 5 * time.Minute
	}
	return svc
}

// RunAutotriage assigns every pending ticket to the best scoring technician.
// Per-ticket failures are reported in the results and the batch continues.
// A store failure aborts the batch; tickets assigned before it stay assigned.
func (s *AssignmentService) RunAutotriage(ctx context.Context, actor domain.Actor) (*AutotriageReport, error) {
	if err := lifecycle.Authorize(actor, lifecycle.ActionRunAutotriage, ""); err != nil {
		return nil, err
	}

	if s.locker != nil {
		release, err := s.locker.AcquireLock(ctx, autotriageLockKey, s.lockTTL)
		switch {
		case errors.Is(err, persistence.ErrLockHeld):
			return nil, apperrors.NewConflict("autotriage batch already running", nil)
		case err != nil:
			s.logger.Warn("autotriage lock unavailable; running unlocked", zap.Error(err))
		default:
			defer release(context.WithoutCancel(ctx))
		}
	}

	pending, err := s.store.Repos().Tickets.ListPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	report := &AutotriageReport{Results: make([]AutotriageResult, 0, len(pending))}
	for i := range pending {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.MapError(err)
		}
		result, err := s.autoAssign(ctx, actor, &pending[i])
		if err != nil {
			s.logger.Error("autotriage aborted",
				zap.String("ticket_code", pending[i].Code),
				zap.Int("processed", report.TotalProcessed),
				zap.Error(err))
			return nil, err
		}
		report.Results = append(report.Results, result)
		report.TotalProcessed++
		if result.Succeeded() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}

	s.metrics.RecordAutotriage(report.Succeeded, report.Failed)
	s.logger.Info("autotriage finished",
		zap.String("actor_id", actor.UserID),
		zap.Int("processed", report.TotalProcessed),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", report.Failed))
	return report, nil
}

// autoAssign returns an error only for failures that should stop the batch.
func (s *AssignmentService) autoAssign(ctx context.Context, actor domain.Actor, ticket *domain.Ticket) (AutotriageResult, error) {
	result := AutotriageResult{TicketID: ticket.ID, TicketCode: ticket.Code}
	fail := func(reason string) (AutotriageResult, error) {
		result.Error = reason
		s.logger.Debug("autotriage skipped ticket",
			zap.String("ticket_code", ticket.Code),
			zap.String("reason", reason))
		return result, nil
	}
	failOrAbort := func(err error) (AutotriageResult, error) {
		if isInfrastructureError(err) {
			return AutotriageResult{}, err
		}
		return fail(errorMessage(err))
	}

	repos := s.store.Repos()
	category, err := repos.Categories.GetByID(ctx, ticket.CategoryID)
	if err != nil {
		return failOrAbort(notFoundOr(err, "category", "category_id", ticket.CategoryID))
	}
	if !category.Rule.AllowsPriority(ticket.Priority) {
		return fail(failurePriorityExcluded)
	}

	hours, urgency := s.scorer.Urgency(ticket)
	result.Score = urgency

	candidates, err := repos.Technicians.ListEligible(ctx, category.Rule.RequiredSpecialties)
	if err != nil {
		return failOrAbort(apperrors.MapError(err))
	}
	best, final := pickTechnician(candidates, urgency)
	if best == nil {
		return fail(failureNoTechnician)
	}

	justification := fmt.Sprintf("Automatic assignment: final score %.2f (urgency %d, headroom %.2f, %d hours remaining)",
		final, urgency, best.Headroom(), hours)
	assignment, assigned, err := s.assign(ctx, assignParams{
		ticketID:      ticket.ID,
		technicianID:  best.ID,
		method:        domain.AssignmentMethodAutomatic,
		justification: justification,
		assignedBy:    actor.UserID,
	})
	if err != nil {
		return failOrAbort(err)
	}

	result.TechnicianID = assignment.TechnicianID
	result.TechnicianName = best.Name
	result.Score = assignment.Score
	s.publishAssigned(ctx, actor, assigned, assignment, assigned.RequesterID)
	return result, nil
}

// AssignManually assigns a pending ticket to a technician chosen by an administrator.
func (s *AssignmentService) AssignManually(ctx context.Context, actor domain.Actor, input ManualAssignmentInput) (*domain.Assignment, error) {
	if err := lifecycle.Authorize(actor, lifecycle.ActionAssignManually, ""); err != nil {
		return nil, err
	}
	details := map[string]any{}
	if strings.TrimSpace(input.TicketID) == "" {
		details["ticket_id"] = "required"
	}
	if strings.TrimSpace(input.TechnicianID) == "" {
		details["technician_id"] = "required"
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid assignment request", details)
	}
	if strings.TrimSpace(input.Justification) == "" {
		return nil, apperrors.NewBadRequest(apperrors.CodeMissingJustification,
			"a justification is required for manual assignment", nil)
	}

	assignment, ticket, err := s.assign(ctx, assignParams{
		ticketID:        input.TicketID,
		technicianID:    input.TechnicianID,
		method:          domain.AssignmentMethodManual,
		justification:   strings.TrimSpace(input.Justification),
		assignedBy:      actor.UserID,
		enforceCapacity: true,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("ticket assigned manually",
		zap.String("ticket_id", ticket.ID),
		zap.String("technician_id", input.TechnicianID),
		zap.String("actor_id", actor.UserID))
	s.publishAssigned(ctx, actor, ticket, assignment)
	return assignment, nil
}

type assignParams struct {
	ticketID        string
	technicianID    string
	method          domain.AssignmentMethod
	justification   string
	assignedBy      string
	enforceCapacity bool
}

// assign re-checks every precondition under row locks and creates the assignment.
func (s *AssignmentService) assign(ctx context.Context, p assignParams) (*domain.Assignment, *domain.Ticket, error) {
	var (
		assignment *domain.Assignment
		ticket     *domain.Ticket
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		ticket, err = loadTicketForUpdate(ctx, repos, p.ticketID)
		if err != nil {
			return err
		}
		if ticket.Status != domain.TicketStatusPending {
			return apperrors.NewIllegalTransition(apperrors.CodeTicketNotPending,
				"ticket is no longer pending", map[string]any{"ticket_id": ticket.ID, "status": ticket.Status})
		}
		existing, err := activeAssignment(ctx, repos, ticket.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if existing != nil {
			return apperrors.NewConflict("ticket already has an active assignment", map[string]any{"ticket_id": ticket.ID})
		}

		tech, err := repos.Technicians.GetForUpdate(ctx, p.technicianID)
		if err != nil {
			return notFoundOr(err, "technician", "technician_id", p.technicianID)
		}
		if tech.Role != domain.RoleTechnician {
			return apperrors.NewValidationError("user is not a technician", map[string]any{"technician_id": tech.ID})
		}
		if !tech.Active {
			return apperrors.NewConflict("technician is inactive", map[string]any{"technician_id": tech.ID})
		}
		if p.enforceCapacity && tech.AtCapacity() {
			return apperrors.NewCapacityExceeded("technician is at capacity", map[string]any{
				"technician_id":    tech.ID,
				"current_workload": tech.CurrentWorkload,
				"workload_limit":   tech.WorkloadLimit,
			})
		}

		hours, urgency := s.scorer.Urgency(ticket)
		technicianID := tech.ID
		assignment = &domain.Assignment{
			TicketID:          ticket.ID,
			TechnicianID:      &technicianID,
			Method:            p.method,
			Justification:     p.justification,
			Score:             urgency,
			SLAHoursRemaining: hours,
			AssignedByID:      p.assignedBy,
		}
		if err := repos.Assignments.Create(ctx, assignment); err != nil {
			return mapStoreError(err)
		}
		if err := s.tracker.OnAssigned(ctx, repos.Technicians, tech.ID); err != nil {
			return mapStoreError(err)
		}

		ticket.Status = domain.TicketStatusAssigned
		ticket.PriorityScore = &urgency
		return apperrors.MapError(repos.Tickets.Update(ctx, ticket))
	})
	if err != nil {
		return nil, nil, err
	}
	return assignment, ticket, nil
}

// ListPendingTickets returns the manual assignment queue, most urgent first.
func (s *AssignmentService) ListPendingTickets(ctx context.Context, actor domain.Actor) ([]PendingTicket, error) {
	if err := lifecycle.Authorize(actor, lifecycle.ActionViewAssignmentQueue, ""); err != nil {
		return nil, err
	}
	tickets, err := s.store.Repos().Tickets.ListPending(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	queue := make([]PendingTicket, len(tickets))
	for i := range tickets {
		hours, urgency := s.scorer.Urgency(&tickets[i])
		queue[i] = PendingTicket{
			Ticket:         tickets[i],
			HoursRemaining: hours,
			UrgencyScore:   urgency,
			Band:           sla.BandFor(hours),
		}
	}
	sort.SliceStable(queue, func(i, j int) bool { return queue[i].UrgencyScore > queue[j].UrgencyScore })
	return queue, nil
}

// ListTechnicianWorkloads returns available technicians, least loaded first.
func (s *AssignmentService) ListTechnicianWorkloads(ctx context.Context, actor domain.Actor) ([]TechnicianWorkload, error) {
	if err := lifecycle.Authorize(actor, lifecycle.ActionViewAssignmentQueue, ""); err != nil {
		return nil, err
	}
	techs, err := s.store.Repos().Technicians.ListAvailable(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]TechnicianWorkload, len(techs))
	for i := range techs {
		result[i] = TechnicianWorkload{
			Technician: techs[i],
			Headroom:   techs[i].Headroom(),
			AtCapacity: techs[i].AtCapacity(),
		}
	}
	return result, nil
}

func (s *AssignmentService) publishAssigned(ctx context.Context, actor domain.Actor, ticket *domain.Ticket, assignment *domain.Assignment, extra ...string) {
	technicianID := ""
	if assignment.TechnicianID != nil {
		technicianID = *assignment.TechnicianID
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:       events.EventTicketAssigned,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		Actor:      events.ActorFrom(actor),
		Recipients: events.Recipients(actor.UserID, append([]string{technicianID}, extra...)...),
		Payload: events.TicketAssignedPayload{
			AssignmentID: assignment.ID,
			TechnicianID: technicianID,
			Method:       assignment.Method,
			Score:        assignment.Score,
		},
	})
}

// isInfrastructureError reports whether err maps to a server-side failure
// rather than a rule the ticket or technician failed.
func isInfrastructureError(err error) bool {
	domainErr := apperrors.ToDomainError(err)
	return domainErr != nil && domainErr.HTTPStatus >= http.StatusInternalServerError
}

func errorMessage(err error) string {
	if domainErr := apperrors.ToDomainError(err); domainErr != nil {
		return domainErr.Message
	}
	return err.Error()
}

func defaultAutotriageConfig() config.AutotriageConfig {
	return config.AutotriageConfig{DefaultHoursRemaining: defaultHoursRemaining}
}
