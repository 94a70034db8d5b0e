// Package workload keeps technician workload counters consistent with ticket status.
package workload

import (
	"context"
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Counter is the store operation the tracker drives. The store must refuse to
// move a counter below zero.
type Counter interface {
	AdjustWorkload(ctx context.Context, technicianID string, delta int) error
}

// Counted reports whether tickets in status count toward technician workload.
func Counted(status domain.TicketStatus) bool {
	switch status {
	case domain.TicketStatusAssigned, domain.TicketStatusInProgress, domain.TicketStatusAwaitingCustomer:
		return true
	}
	return false
}

// Delta is the counter change caused by moving a ticket from one status to another.
func Delta(from, to domain.TicketStatus) int {
	switch {
	case !Counted(from) && Counted(to):
		return 1
	case Counted(from) && !Counted(to):
		return -1
	default:
		return 0
	}
}

// Tracker applies workload deltas. It is the only writer of workload counters.
type Tracker struct{}

// NewTracker returns a tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// OnAssigned records a new assignment, which always enters the counted set.
func (t *Tracker) OnAssigned(ctx context.Context, counter Counter, technicianID string) error {
	if err := counter.AdjustWorkload(ctx, technicianID, 1); err != nil {
		return fmt.Errorf("increment workload: %w", err)
	}
	return nil
}

// OnTransition applies the delta for a status change. technicianID may be nil when
// the ticket has no active assignment, in which case nothing is counted.
func (t *Tracker) OnTransition(ctx context.Context, counter Counter, technicianID *string, from, to domain.TicketStatus) (int, error) {
	delta := Delta(from, to)
	if delta == 0 || technicianID == nil {
		return 0, nil
	}
	if err := counter.AdjustWorkload(ctx, *technicianID, delta); err != nil {
		return 0, fmt.Errorf("adjust workload: %w", err)
	}
	return delta, nil
}
