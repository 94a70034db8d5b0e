package service

import (
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

const defaultHoursRemaining = 720

// Scorer ranks tickets by urgency and technicians by headroom.
type Scorer struct {
	calc         *sla.Calculator
	defaultHours int
	clamp        int
}

// NewScorer builds a scorer. A zero DefaultHoursRemaining falls back to 720.
func NewScorer(calc *sla.Calculator, cfg config.AutotriageConfig) *Scorer {
	if calc == nil {
		calc = sla.NewCalculator()
	}
	hours := cfg.DefaultHoursRemaining
	if hours == 0 {
		hours = defaultHoursRemaining
	}
	clamp := cfg.HoursClamp
	if clamp < 0 {
		clamp = 0
	}
	return &Scorer{calc: calc, defaultHours: hours, clamp: clamp}
}

// HoursRemaining is the whole hours left until the ticket's resolution deadline.
func (s *Scorer) HoursRemaining(ticket *domain.Ticket) int {
	hours := s.calc.HoursRemainingOr(ticket.ResolutionDeadline, s.defaultHours)
	if s.clamp > 0 {
		if hours > s.clamp {
			hours = s.clamp
		}
		if hours < -s.clamp {
			hours = -s.clamp
		}
	}
	return hours
}

// Urgency returns hours remaining and the urgency score for ticket.
func (s *Scorer) Urgency(ticket *domain.Ticket) (hours, score int) {
	hours = s.HoursRemaining(ticket)
	return hours, UrgencyScore(ticket.Priority, hours)
}

// UrgencyScore is priorityWeight*1000 - hoursRemaining. Overdue tickets score
// above their priority band.
func UrgencyScore(priority domain.TicketPriority, hoursRemaining int) int {
	return priority.Weight()*1000 - hoursRemaining
}

// FinalScore combines technician headroom with ticket urgency.
func FinalScore(tech *domain.Technician, urgency int) float64 {
	return tech.Headroom()*1000 + float64(urgency)
}

// pickTechnician returns the highest scoring candidate. candidates must be
// ordered by id so that ties go to the lowest id.
func pickTechnician(candidates []domain.Technician, urgency int) (*domain.Technician, float64) {
	var best *domain.Technician
	var bestScore float64
	for i := range candidates {
		score := FinalScore(&candidates[i], urgency)
		if best == nil || score > bestScore {
			best = &candidates[i]
			bestScore = score
		}
	}
	return best, bestScore
}
