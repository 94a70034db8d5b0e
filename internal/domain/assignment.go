package domain

import "time"

// AssignmentMethod records how a technician was chosen.
type AssignmentMethod string

const (
	AssignmentMethodAutomatic AssignmentMethod = "AUTOMATIC"
	AssignmentMethodManual    AssignmentMethod = "MANUAL"
)

// Assignment links a ticket to the technician responsible for it.
type Assignment struct {
	ID                string
	TicketID          string
	TechnicianID      *string
	Method            AssignmentMethod
	Justification     string
	Score             int
	SLAHoursRemaining int
	AssignedByID      string
	Active            bool
	CreatedAt         time.Time
}
