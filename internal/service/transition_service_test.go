package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestTransitionFullLifecycleKeepsWorkloadConsistent(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, intPtr(240), []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	ticket := f.createTicket(t, category, domain.TicketPriorityMedium)

	f.assign(t, ticket.ID, tech.ID)
	assert.Equal(t, 1, f.workload(t, tech.ID))

	steps := []domain.TicketStatus{
		domain.TicketStatusInProgress,
		domain.TicketStatusAwaitingCustomer,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	}
	for _, step := range steps {
		f.move(t, techActor(tech), ticket.ID, step)
		f.requireWorkloadConsistent(t, tech.ID)
	}

	stored, ok := f.store.Ticket(ticket.ID)
	require.True(t, ok)
	assert.Equal(t, domain.TicketStatusClosed, stored.Status)
	assert.NotNil(t, stored.ClosedAt)
	assert.NotNil(t, stored.RespondedAt)
	assert.Equal(t, 0, f.workload(t, tech.ID))
	assert.Empty(t, f.store.ActiveAssignments())
}

func TestTransitionRejectsJumps(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)

	_, err := f.transitions.Transition(context.Background(), techActor(tech), ticket.ID, withEvidence(domain.TicketStatusInProgress))
	requireCode(t, err, apperrors.CodeIllegalJump)
	assert.Equal(t, 422, apperrors.ToDomainError(err).HTTPStatus)

	stored, _ := f.store.Ticket(ticket.ID)
	assert.Equal(t, domain.TicketStatusPending, stored.Status)
}

func TestTransitionToAssignedNeedsAssignment(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)

	_, err := f.transitions.Transition(context.Background(), actorOf(f.admin), ticket.ID, withEvidence(domain.TicketStatusAssigned))
	requireCode(t, err, apperrors.CodeMissingTechnician)
}

func TestTransitionValidationOrder(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)
	f.assign(t, ticket.ID, tech.ID)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor domain.Actor
		input TransitionInput
		code  string
	}{
		{
			name:  "unknown status",
			actor: techActor(tech),
			input: TransitionInput{NewStatus: "ON_HOLD"},
			code:  apperrors.CodeInvalidState,
		},
		{
			name:  "requester cannot progress",
			actor: actorOf(f.requester),
			input: withEvidence(domain.TicketStatusInProgress),
			code:  apperrors.CodeForbidden,
		},
		{
			name:  "other user cannot cancel",
			actor: actorOf(f.other),
			input: TransitionInput{NewStatus: domain.TicketStatusCancelled, Observations: "not mine"},
			code:  apperrors.CodeForbidden,
		},
		{
			name:  "blank observations",
			actor: techActor(tech),
			input: TransitionInput{NewStatus: domain.TicketStatusInProgress, Observations: "   ", Evidence: withEvidence("").Evidence},
			code:  apperrors.CodeMissingJustification,
		},
		{
			name:  "missing evidence",
			actor: techActor(tech),
			input: TransitionInput{NewStatus: domain.TicketStatusInProgress, Observations: "starting"},
			code:  apperrors.CodeMissingEvidence,
		},
		{
			name:  "admin cancelling still needs evidence",
			actor: actorOf(f.admin),
			input: TransitionInput{NewStatus: domain.TicketStatusCancelled, Observations: "duplicate"},
			code:  apperrors.CodeMissingEvidence,
		},
		{
			name:  "malformed evidence",
			actor: techActor(tech),
			input: TransitionInput{NewStatus: domain.TicketStatusInProgress, Observations: "go", Evidence: []EvidenceInput{{FileName: "a.png"}}},
			code:  apperrors.CodeValidationFailed,
		},
		{
			name:  "unknown ticket",
			actor: techActor(tech),
			input: withEvidence(domain.TicketStatusInProgress),
			code:  apperrors.CodeNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := ticket.ID
			if tt.code == apperrors.CodeNotFound {
				id = "missing"
			}
			_, err := f.transitions.Transition(ctx, tt.actor, id, tt.input)
			requireCode(t, err, tt.code)
		})
	}

	history, err := f.tickets.ListHistory(ctx, actorOf(f.admin), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1, "rejected transitions must not write history")
	assert.Equal(t, 1, f.workload(t, tech.ID))
}

func TestOwnerCancellationWithoutEvidence(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)

	result, err := f.transitions.Transition(context.Background(), actorOf(f.requester), ticket.ID, TransitionInput{
		NewStatus:    domain.TicketStatusCancelled,
		Observations: "fixed it myself",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusCancelled, result.Ticket.Status)
	assert.NotNil(t, result.Ticket.ClosedAt)
	assert.Empty(t, result.History.Evidence)

	changed := f.events.OfType(events.EventTicketStatusChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, []string{f.admin.ID}, changed[0].Recipients, "admins hear about cancellations; the actor is excluded")

	_, err = f.transitions.Transition(context.Background(), actorOf(f.admin), ticket.ID, withEvidence(domain.TicketStatusPending))
	requireCode(t, err, apperrors.CodeIllegalJump)
}

func TestCancelAssignedTicketReleasesTechnician(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)
	f.assign(t, ticket.ID, tech.ID)
	f.move(t, techActor(tech), ticket.ID, domain.TicketStatusInProgress)

	f.move(t, actorOf(f.admin), ticket.ID, domain.TicketStatusCancelled)

	assert.Equal(t, 0, f.workload(t, tech.ID))
	assert.Empty(t, f.store.ActiveAssignments())

	changed := f.events.OfType(events.EventTicketStatusChanged)
	last := changed[len(changed)-1]
	assert.ElementsMatch(t, []string{f.requester.ID, tech.ID}, last.Recipients)
}

func TestStepBackToPendingReleasesAssignment(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)
	f.assign(t, ticket.ID, tech.ID)

	f.move(t, techActor(tech), ticket.ID, domain.TicketStatusInProgress, domain.TicketStatusAssigned)
	assert.Equal(t, 1, f.workload(t, tech.ID))

	f.move(t, actorOf(f.admin), ticket.ID, domain.TicketStatusPending)
	assert.Equal(t, 0, f.workload(t, tech.ID))
	assert.Empty(t, f.store.ActiveAssignments())
	f.requireWorkloadConsistent(t, tech.ID)

	f.assign(t, ticket.ID, tech.ID)
	assert.Equal(t, 1, f.workload(t, tech.ID))
	f.requireWorkloadConsistent(t, tech.ID)
}

func TestTransitionRollsBackOnWorkloadUnderflow(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	staged := f.store.PutTicket(domain.Ticket{
		CategoryID:  category.ID,
		RequesterID: f.requester.ID,
		Title:       "staged",
		Status:      domain.TicketStatusInProgress,
		Priority:    domain.TicketPriorityLow,
	})
	techID := tech.ID
	require.NoError(t, f.store.Repos().Assignments.Create(context.Background(), &domain.Assignment{
		TicketID:     staged.ID,
		TechnicianID: &techID,
		Method:       domain.AssignmentMethodManual,
	}))

	_, err := f.transitions.Transition(context.Background(), techActor(tech), staged.ID, withEvidence(domain.TicketStatusResolved))
	requireCode(t, err, apperrors.CodeConflict)

	stored, _ := f.store.Ticket(staged.ID)
	assert.Equal(t, domain.TicketStatusInProgress, stored.Status)
	history, err := f.tickets.ListHistory(context.Background(), actorOf(f.admin), staged.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRespondedAtKeepsFirstResolution(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)
	f.assign(t, ticket.ID, tech.ID)

	f.clock.Advance(time.Hour)
	f.move(t, techActor(tech), ticket.ID, domain.TicketStatusInProgress, domain.TicketStatusResolved)
	firstResolution := f.clock.Now()

	f.clock.Advance(2 * time.Hour)
	f.move(t, techActor(tech), ticket.ID, domain.TicketStatusInProgress, domain.TicketStatusResolved)

	stored, ok := f.store.Ticket(ticket.ID)
	require.True(t, ok)
	require.NotNil(t, stored.RespondedAt)
	assert.True(t, firstResolution.Equal(*stored.RespondedAt), "responded_at %s", stored.RespondedAt)
	assert.Nil(t, stored.ClosedAt)
	f.requireWorkloadConsistent(t, tech.ID)
}
