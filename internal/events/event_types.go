package events

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// ActorFrom converts an authenticated actor.
func ActorFrom(actor domain.Actor) Actor {
	return Actor{UserID: actor.UserID, Role: actor.Role}
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	TicketID   string      `json:"ticket_id"`
	TicketCode string      `json:"ticket_code"`
	Actor      Actor       `json:"actor"`
	Recipients []string    `json:"recipients"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CategoryID string                `json:"category_id"`
	Priority   domain.TicketPriority `json:"priority"`
	Title      string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus    domain.TicketStatus `json:"old_status"`
	NewStatus    domain.TicketStatus `json:"new_status"`
	Observations string              `json:"observations,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssignmentID string                  `json:"assignment_id"`
	TechnicianID string                  `json:"technician_id"`
	Method       domain.AssignmentMethod `json:"method"`
	Score        int                     `json:"score"`
}

// Recipients drops blanks, duplicates and the excluded ids while keeping order.
func Recipients(exclude string, ids ...string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == exclude {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
