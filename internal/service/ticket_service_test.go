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

func TestCreateTicketStampsSLAAndHistory(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, intPtr(120), []string{"net"})

	ticket := f.createTicket(t, category, domain.TicketPriorityCritical)

	assert.Equal(t, domain.TicketStatusPending, ticket.Status)
	assert.Equal(t, "TCK-000001", ticket.Code)
	assert.Equal(t, f.requester.ID, ticket.RequesterID)
	require.NotNil(t, ticket.ResolutionDeadline)
	assert.Equal(t, t0.Add(120*time.Minute), *ticket.ResolutionDeadline)
	assert.Nil(t, ticket.ResponseDeadline)
	assert.Nil(t, ticket.PriorityScore)

	history, err := f.tickets.ListHistory(context.Background(), actorOf(f.requester), ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].FromStatus)
	assert.Equal(t, domain.TicketStatusPending, history[0].ToStatus)
	assert.Equal(t, f.requester.ID, history[0].ActorID)
	assert.Equal(t, "Rita Requester", history[0].ActorName)
	assert.NotEmpty(t, history[0].Observations)

	created := f.events.OfType(events.EventTicketCreated)
	require.Len(t, created, 1)
	assert.Equal(t, []string{f.admin.ID}, created[0].Recipients)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	ctx := context.Background()

	tests := []struct {
		name  string
		input TicketCreateInput
		code  string
	}{
		{"blank title", TicketCreateInput{CategoryID: category.ID, Title: "  "}, apperrors.CodeValidationFailed},
		{"missing category", TicketCreateInput{Title: "x"}, apperrors.CodeValidationFailed},
		{"bad priority", TicketCreateInput{CategoryID: category.ID, Title: "x", Priority: "URGENT"}, apperrors.CodeValidationFailed},
		{"unknown category", TicketCreateInput{CategoryID: "nope", Title: "x"}, apperrors.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tickets.CreateTicket(ctx, actorOf(f.requester), tt.input)
			requireCode(t, err, tt.code)
		})
	}

	ticket, err := f.tickets.CreateTicket(ctx, actorOf(f.requester), TicketCreateInput{CategoryID: category.ID, Title: "defaults"})
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Nil(t, ticket.ResolutionDeadline)
}

func TestCreateTicketCodesAreSequential(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})

	first := f.createTicket(t, category, domain.TicketPriorityLow)
	second := f.createTicket(t, category, domain.TicketPriorityLow)
	assert.Equal(t, "TCK-000001", first.Code)
	assert.Equal(t, "TCK-000002", second.Code)
}

func TestGetTicketScopesRequesters(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	ticket := f.createTicket(t, category, domain.TicketPriorityLow)
	tech := f.addTech("tech-a", 3, 0, "net")
	ctx := context.Background()

	_, err := f.tickets.GetTicket(ctx, actorOf(f.requester), ticket.ID)
	require.NoError(t, err)
	_, err = f.tickets.GetTicket(ctx, techActor(tech), ticket.ID)
	require.NoError(t, err)

	_, err = f.tickets.GetTicket(ctx, actorOf(f.other), ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)
	_, err = f.tickets.ListHistory(ctx, actorOf(f.other), ticket.ID)
	requireCode(t, err, apperrors.CodeForbidden)

	_, err = f.tickets.GetTicket(ctx, actorOf(f.admin), "missing")
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestListTicketsOnlyOwnForRequesters(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, nil, []string{"net"})
	ctx := context.Background()

	f.createTicket(t, category, domain.TicketPriorityLow)
	_, err := f.tickets.CreateTicket(ctx, actorOf(f.other), TicketCreateInput{CategoryID: category.ID, Title: "other"})
	require.NoError(t, err)

	own, err := f.tickets.ListTickets(ctx, actorOf(f.requester), TicketListFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, f.requester.ID, own[0].RequesterID)

	all, err := f.tickets.ListTickets(ctx, actorOf(f.admin), TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	term := "other"
	found, err := f.tickets.ListTickets(ctx, actorOf(f.admin), TicketListFilter{SearchTerm: &term})
	require.NoError(t, err)
	assert.Len(t, found, 1)
}

func TestHistoryIsMostRecentFirstWithEvidence(t *testing.T) {
	f := newFixture(t)
	category := f.addCategory(t, intPtr(600), []string{"net"})
	tech := f.addTech("tech-a", 3, 0, "net")
	ticket := f.createTicket(t, category, domain.TicketPriorityHigh)

	f.clock.Advance(time.Minute)
	f.assign(t, ticket.ID, tech.ID)
	f.clock.Advance(time.Minute)
	f.move(t, techActor(tech), ticket.ID, domain.TicketStatusInProgress)

	history, err := f.tickets.ListHistory(context.Background(), actorOf(f.admin), ticket.ID)
	require.NoError(t, err)
	// assignment itself writes no history entry
	require.Len(t, history, 2)

	latest := history[0]
	require.NotNil(t, latest.FromStatus)
	assert.Equal(t, domain.TicketStatusAssigned, *latest.FromStatus)
	assert.Equal(t, domain.TicketStatusInProgress, latest.ToStatus)
	assert.Equal(t, "Tech tech-a", latest.ActorName)
	require.Len(t, latest.Evidence, 1)
	assert.Equal(t, "screen.png", latest.Evidence[0].FileName)
	assert.Equal(t, latest.ID, latest.Evidence[0].HistoryID)

	assert.Nil(t, history[1].FromStatus)
	assert.Empty(t, history[1].Evidence)
}
