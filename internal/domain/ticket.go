package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusPending          TicketStatus = "PENDING"
	TicketStatusAssigned         TicketStatus = "ASSIGNED"
	TicketStatusInProgress       TicketStatus = "IN_PROGRESS"
	TicketStatusAwaitingCustomer TicketStatus = "AWAITING_CUSTOMER"
	TicketStatusResolved         TicketStatus = "RESOLVED"
	TicketStatusClosed           TicketStatus = "CLOSED"
	TicketStatusCancelled        TicketStatus = "CANCELLED"
)

// AllTicketStatuses lists every recognized status.
var AllTicketStatuses = []TicketStatus{
	TicketStatusPending,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusAwaitingCustomer,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusCancelled,
}

// IsValid reports whether s is a recognized status.
func (s TicketStatus) IsValid() bool {
	for _, candidate := range AllTicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusCancelled
}

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "LOW"
	TicketPriorityMedium   TicketPriority = "MEDIUM"
	TicketPriorityHigh     TicketPriority = "HIGH"
	TicketPriorityCritical TicketPriority = "CRITICAL"
)

// Weight maps the priority onto the autotriage multiplier.
func (p TicketPriority) Weight() int {
	switch p {
	case TicketPriorityLow:
		return 1
	case TicketPriorityMedium:
		return 2
	case TicketPriorityHigh:
		return 3
	case TicketPriorityCritical:
		return 4
	default:
		return 0
	}
}

// IsValid reports whether p is a recognized priority.
func (p TicketPriority) IsValid() bool {
	return p.Weight() > 0
}

// Ticket is the aggregate for helpdesk requests.
type Ticket struct {
	ID                 string
	Code               string
	Title              string
	Description        string
	CategoryID         string
	RequesterID        string
	Status             TicketStatus
	Priority           TicketPriority
	PriorityScore      *int
	ResponseDeadline   *time.Time
	ResolutionDeadline *time.Time
	RespondedAt        *time.Time
	ClosedAt           *time.Time
	Deleted            bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
