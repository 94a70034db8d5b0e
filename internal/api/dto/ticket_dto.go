package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	CategoryID  string                `json:"category_id"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// TransitionRequest payload.
type TransitionRequest struct {
	NewStatus      domain.TicketStatus    `json:"new_status"`
	Observations   string                 `json:"observations"`
	EvidenceImages []EvidenceImageRequest `json:"evidence_images"`
}

// EvidenceImageRequest describes an uploaded image.
type EvidenceImageRequest struct {
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Description string `json:"description"`
}

// TicketResponse provides full ticket info with SLA fields.
type TicketResponse struct {
	ID                 string                `json:"id"`
	Code               string                `json:"code"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	CategoryID         string                `json:"category_id"`
	RequesterID        string                `json:"requester_id"`
	Status             domain.TicketStatus   `json:"status"`
	Priority           domain.TicketPriority `json:"priority"`
	PriorityScore      *int                  `json:"priority_score"`
	ResponseDeadline   *time.Time            `json:"response_deadline"`
	ResolutionDeadline *time.Time            `json:"resolution_deadline"`
	RespondedAt        *time.Time            `json:"responded_at"`
	ClosedAt           *time.Time            `json:"closed_at"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// TicketHistoryResponse is one lifecycle entry.
type TicketHistoryResponse struct {
	ID             string                  `json:"id"`
	FromStatus     *domain.TicketStatus    `json:"from_status"`
	ToStatus       domain.TicketStatus     `json:"to_status"`
	ActorID        string                  `json:"actor_id"`
	ActorName      string                  `json:"actor_name"`
	Observations   string                  `json:"observations"`
	EvidenceImages []EvidenceImageResponse `json:"evidence_images"`
	CreatedAt      time.Time               `json:"created_at"`
}

// EvidenceImageResponse metadata.
type EvidenceImageResponse struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	URL         string `json:"url"`
	MimeType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Description string `json:"description,omitempty"`
}

// TransitionResponse returns the ticket and the entry just written.
type TransitionResponse struct {
	Ticket  TicketResponse        `json:"ticket"`
	History TicketHistoryResponse `json:"history"`
}
