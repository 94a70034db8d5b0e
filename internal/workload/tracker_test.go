package workload

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

type recordingCounter struct {
	deltas map[string]int
	err    error
}

func (c *recordingCounter) AdjustWorkload(_ context.Context, technicianID string, delta int) error {
	if c.err != nil {
		return c.err
	}
	if c.deltas == nil {
		c.deltas = map[string]int{}
	}
	c.deltas[technicianID] += delta
	return nil
}

func TestDelta(t *testing.T) {
	tests := []struct {
		from domain.TicketStatus
		to   domain.TicketStatus
		want int
	}{
		{domain.TicketStatusPending, domain.TicketStatusAssigned, 1},
		{domain.TicketStatusAssigned, domain.TicketStatusInProgress, 0},
		{domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer, 0},
		{domain.TicketStatusInProgress, domain.TicketStatusResolved, -1},
		{domain.TicketStatusAssigned, domain.TicketStatusCancelled, -1},
		{domain.TicketStatusAwaitingCustomer, domain.TicketStatusCancelled, -1},
		{domain.TicketStatusResolved, domain.TicketStatusClosed, 0},
		{domain.TicketStatusPending, domain.TicketStatusCancelled, 0},
		{domain.TicketStatusResolved, domain.TicketStatusInProgress, 1},
		{domain.TicketStatusAssigned, domain.TicketStatusPending, -1},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, Delta(tt.from, tt.to))
		})
	}
}

func TestTrackerOnTransition(t *testing.T) {
	ctx := context.Background()
	tracker := NewTracker()
	tech := "tec-1"

	t.Run("applies delta to technician", func(t *testing.T) {
		counter := &recordingCounter{}
		delta, err := tracker.OnTransition(ctx, counter, &tech, domain.TicketStatusInProgress, domain.TicketStatusResolved)
		require.NoError(t, err)
		assert.Equal(t, -1, delta)
		assert.Equal(t, -1, counter.deltas[tech])
	})

	t.Run("no technician is a no-op", func(t *testing.T) {
		counter := &recordingCounter{}
		delta, err := tracker.OnTransition(ctx, counter, nil, domain.TicketStatusAssigned, domain.TicketStatusCancelled)
		require.NoError(t, err)
		assert.Zero(t, delta)
		assert.Empty(t, counter.deltas)
	})

	t.Run("moves inside counted set are no-ops", func(t *testing.T) {
		counter := &recordingCounter{}
		delta, err := tracker.OnTransition(ctx, counter, &tech, domain.TicketStatusAssigned, domain.TicketStatusInProgress)
		require.NoError(t, err)
		assert.Zero(t, delta)
		assert.Empty(t, counter.deltas)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		counter := &recordingCounter{err: errors.New("would go negative")}
		_, err := tracker.OnTransition(ctx, counter, &tech, domain.TicketStatusInProgress, domain.TicketStatusResolved)
		assert.ErrorContains(t, err, "would go negative")
	})
}

func TestTrackerOnAssigned(t *testing.T) {
	counter := &recordingCounter{}
	require.NoError(t, NewTracker().OnAssigned(context.Background(), counter, "tec-2"))
	assert.Equal(t, 1, counter.deltas["tec-2"])
}
