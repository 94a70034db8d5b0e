package dto

import (
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/sla"
)

// ManualAssignmentRequest payload.
type ManualAssignmentRequest struct {
	TicketID      string `json:"ticket_id"`
	TechnicianID  string `json:"technician_id"`
	Justification string `json:"justification"`
}

// AssignmentResponse describes an assignment.
type AssignmentResponse struct {
	ID                string                  `json:"id"`
	TicketID          string                  `json:"ticket_id"`
	TechnicianID      *string                 `json:"technician_id"`
	Method            domain.AssignmentMethod `json:"method"`
	Justification     string                  `json:"justification"`
	Score             int                     `json:"score"`
	SLAHoursRemaining int                     `json:"sla_hours_remaining"`
	AssignedByID      string                  `json:"assigned_by_id"`
	Active            bool                    `json:"active"`
}

// AutotriageResultResponse is one ticket's outcome.
type AutotriageResultResponse struct {
	TicketCode     string  `json:"ticket_code"`
	TechnicianID   *string `json:"technician_id,omitempty"`
	TechnicianName string  `json:"technician_name,omitempty"`
	Score          int     `json:"score"`
	Error          string  `json:"error,omitempty"`
}

// AutotriageResponse is the batch summary.
type AutotriageResponse struct {
	Results        []AutotriageResultResponse `json:"results"`
	TotalProcessed int                        `json:"total_processed"`
	Succeeded      int                        `json:"succeeded"`
	Failed         int                        `json:"failed"`
}

// PendingTicketResponse is a queue entry.
type PendingTicketResponse struct {
	Ticket         TicketResponse `json:"ticket"`
	HoursRemaining int            `json:"hours_remaining"`
	UrgencyScore   int            `json:"urgency_score"`
	Band           sla.Band       `json:"band"`
}

// TechnicianWorkloadResponse summarizes capacity.
type TechnicianWorkloadResponse struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	CurrentWorkload int      `json:"current_workload"`
	WorkloadLimit   int      `json:"workload_limit"`
	Headroom        float64  `json:"headroom"`
	AtCapacity      bool     `json:"at_capacity"`
	Specialties     []string `json:"specialties"`
}
