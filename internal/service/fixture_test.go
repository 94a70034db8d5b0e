package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/observability"
	"github.com/spec-kit/helpdesk-service/internal/repository/memstore"
	"github.com/spec-kit/helpdesk-service/internal/sla"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	store       *memstore.Store
	clock       *fakeClock
	events      *events.Recorder
	metrics     *observability.Metrics
	tickets     *TicketService
	transitions *TransitionService
	assignments *AssignmentService

	admin     domain.User
	requester domain.User
	other     domain.User

	categorySeq int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, config.AutotriageConfig{DefaultHoursRemaining: 720}, nil)
}

func newFixtureWith(t *testing.T, cfg config.AutotriageConfig, locker BatchLocker) *fixture {
	t.Helper()
	clock := &fakeClock{now: t0}
	store := memstore.New()
	store.SetClock(clock.Now)
	calc := sla.NewCalculator().WithClock(clock.Now)
	recorder := events.NewRecorder()
	metrics := observability.NewMetrics()

	f := &fixture{
		store:   store,
		clock:   clock,
		events:  recorder,
		metrics: metrics,
		tickets: NewTicketService(TicketDependencies{
			Store: store, Calculator: calc, Dispatcher: recorder,
		}),
		transitions: NewTransitionService(TransitionDependencies{
			Store: store, Calculator: calc, Dispatcher: recorder,
		}),
		assignments: NewAssignmentService(AssignmentDependencies{
			Store:      store,
			Scorer:     NewScorer(calc, cfg),
			Dispatcher: recorder,
			Locker:     locker,
			Metrics:    metrics,
		}),
	}
	f.admin = store.AddUser(domain.User{ID: "admin-1", Name: "Ada Admin", Email: "ada@example.com", Role: domain.RoleAdmin, Active: true})
	f.requester = store.AddUser(domain.User{ID: "user-1", Name: "Rita Requester", Email: "rita@example.com", Role: domain.RoleCustomer, Active: true})
	f.other = store.AddUser(domain.User{ID: "user-2", Name: "Otto Other", Email: "otto@example.com", Role: domain.RoleCustomer, Active: true})
	return f
}

func actorOf(u domain.User) domain.Actor {
	return domain.Actor{UserID: u.ID, Role: u.Role}
}

func techActor(tech domain.Technician) domain.Actor {
	return domain.Actor{UserID: tech.ID, Role: domain.RoleTechnician}
}

func intPtr(v int) *int { return &v }

func (f *fixture) addCategory(t *testing.T, resolutionMinutes *int, specialties []string, priorities ...domain.TicketPriority) domain.Category {
	t.Helper()
	f.categorySeq++
	category := &domain.Category{
		Code: fmt.Sprintf("CAT-%d", f.categorySeq),
		Name: fmt.Sprintf("Category %d", f.categorySeq),
		SLA:  domain.SLAConfig{ResolutionMinutes: resolutionMinutes},
		Rule: domain.AssignmentRule{RequiredSpecialties: specialties, Priorities: priorities},
	}
	require.NoError(t, f.store.Repos().Categories.Create(context.Background(), category))
	return *category
}

func (f *fixture) addTech(id string, limit, current int, specialties ...string) domain.Technician {
	return f.store.AddTechnician(domain.Technician{
		ID:              id,
		Name:            "Tech " + id,
		Email:           id + "@example.com",
		Active:          true,
		Available:       true,
		WorkloadLimit:   limit,
		CurrentWorkload: current,
		Specialties:     specialties,
	})
}

func (f *fixture) createTicket(t *testing.T, category domain.Category, priority domain.TicketPriority) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(context.Background(), actorOf(f.requester), TicketCreateInput{
		CategoryID:  category.ID,
		Title:       "Printer on fire",
		Description: "Smoke coming out of the tray",
		Priority:    priority,
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) assign(t *testing.T, ticketID, techID string) *domain.Assignment {
	t.Helper()
	assignment, err := f.assignments.AssignManually(context.Background(), actorOf(f.admin), ManualAssignmentInput{
		TicketID:      ticketID,
		TechnicianID:  techID,
		Justification: "best fit",
	})
	require.NoError(t, err)
	return assignment
}

func (f *fixture) move(t *testing.T, actor domain.Actor, ticketID string, statuses ...domain.TicketStatus) {
	t.Helper()
	for _, status := range statuses {
		_, err := f.transitions.Transition(context.Background(), actor, ticketID, withEvidence(status))
		require.NoError(t, err, "move to %s", status)
	}
}

func withEvidence(status domain.TicketStatus) TransitionInput {
	return TransitionInput{
		NewStatus:    status,
		Observations: "work noted",
		Evidence: []EvidenceInput{{
			FileName:  "screen.png",
			URL:       "https://files.example.com/screen.png",
			MimeType:  "image/png",
			SizeBytes: 2048,
		}},
	}
}

func (f *fixture) workload(t *testing.T, techID string) int {
	t.Helper()
	tech, ok := f.store.Technician(techID)
	require.True(t, ok)
	return tech.CurrentWorkload
}

// requireWorkloadConsistent checks every counter against the active assignments
// whose tickets sit in a counted status.
func (f *fixture) requireWorkloadConsistent(t *testing.T, techIDs ...string) {
	t.Helper()
	counts := map[string]int{}
	for _, a := range f.store.ActiveAssignments() {
		ticket, ok := f.store.Ticket(a.TicketID)
		require.True(t, ok)
		switch ticket.Status {
		case domain.TicketStatusAssigned, domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer:
			counts[*a.TechnicianID]++
		}
	}
	for _, id := range techIDs {
		require.Equal(t, counts[id], f.workload(t, id), "workload of %s", id)
	}
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	require.Equal(t, code, domainErr.Code, "error: %v", err)
}
