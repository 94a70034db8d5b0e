package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

func TestUrgencyScore(t *testing.T) {
	tests := []struct {
		priority domain.TicketPriority
		hours    int
		want     int
	}{
		{domain.TicketPriorityCritical, 1, 3999},
		{domain.TicketPriorityLow, 720, 280},
		{domain.TicketPriorityHigh, -5, 3005},
		{domain.TicketPriorityMedium, 0, 2000},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, UrgencyScore(tt.priority, tt.hours), "%s/%d", tt.priority, tt.hours)
	}
}

func TestUrgencyIsMonotonicInPriority(t *testing.T) {
	ordered := []domain.TicketPriority{
		domain.TicketPriorityLow, domain.TicketPriorityMedium, domain.TicketPriorityHigh, domain.TicketPriorityCritical,
	}
	for _, hours := range []int{-2000, -1, 0, 24, 720, 5000} {
		for i := 1; i < len(ordered); i++ {
			assert.Greater(t, UrgencyScore(ordered[i], hours), UrgencyScore(ordered[i-1], hours))
		}
	}
}

func TestScorerDefaultsAndClamp(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	calc := sla.NewCalculator().WithClock(func() time.Time { return now })

	overdue := now.Add(-3000 * time.Hour)
	ticket := &domain.Ticket{Priority: domain.TicketPriorityLow, ResolutionDeadline: &overdue}

	plain := NewScorer(calc, config.AutotriageConfig{})
	assert.Equal(t, 720, plain.HoursRemaining(&domain.Ticket{}))
	hours, score := plain.Urgency(ticket)
	assert.Equal(t, -3000, hours)
	assert.Equal(t, 4000, score, "unclamped overdue LOW outranks a fresh CRITICAL")

	clamped := NewScorer(calc, config.AutotriageConfig{DefaultHoursRemaining: 48, HoursClamp: 999})
	assert.Equal(t, 48, clamped.HoursRemaining(&domain.Ticket{}))
	hours, score = clamped.Urgency(ticket)
	assert.Equal(t, -999, hours)
	assert.Equal(t, 1999, score)
}

func TestPickTechnician(t *testing.T) {
	candidates := []domain.Technician{
		{ID: "a", WorkloadLimit: 4, CurrentWorkload: 2},
		{ID: "b", WorkloadLimit: 2, CurrentWorkload: 1},
		{ID: "c", WorkloadLimit: 0},
	}
	best, score := pickTechnician(candidates, 100)
	assert.Equal(t, "a", best.ID, "equal headroom goes to the first id")
	assert.InDelta(t, 600.0, score, 1e-9)

	best, _ = pickTechnician(nil, 100)
	assert.Nil(t, best)

	assert.InDelta(t, 100.0, FinalScore(&candidates[2], 100), 1e-9)
}
