package domain

import "time"

// TicketHistory is an immutable audit trail entry written by every transition.
type TicketHistory struct {
	ID           string
	TicketID     string
	FromStatus   *TicketStatus
	ToStatus     TicketStatus
	ActorID      string
	ActorName    string
	Observations string
	Evidence     []EvidenceImage
	CreatedAt    time.Time
}

// EvidenceImage is an image attached to a history entry.
type EvidenceImage struct {
	ID          string
	HistoryID   string
	FileName    string
	URL         string
	MimeType    string
	SizeBytes   int64
	Description string
	CreatedAt   time.Time
}
