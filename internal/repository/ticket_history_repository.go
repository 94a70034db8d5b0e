package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketHistoryRepository stores the append-only transition log.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	// ListByTicket returns entries most recent first, with the actor name filled in.
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(db DBTX) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, from_status, to_status, actor_id, observations, created_at)
        VALUES ($1,$2,$3,$4,$5,COALESCE($6, NOW()))
        RETURNING id, created_at`
	var createdAt any
	if !history.CreatedAt.IsZero() {
		createdAt = history.CreatedAt
	}
	return r.db.QueryRow(ctx, query,
		history.TicketID,
		history.FromStatus,
		history.ToStatus,
		history.ActorID,
		history.Observations,
		createdAt,
	).Scan(&history.ID, &history.CreatedAt)
}

// seq breaks created_at ties in insertion order.
const listHistoryQuery = `
        SELECT h.id, h.ticket_id, h.from_status, h.to_status, h.actor_id, COALESCE(u.name, ''),
               h.observations, h.created_at
        FROM ticket_history h LEFT JOIN users u ON u.id = h.actor_id
        WHERE h.ticket_id=$1 ORDER BY h.created_at DESC, h.seq DESC`

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	rows, err := r.db.Query(ctx, listHistoryQuery, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.FromStatus,
			&history.ToStatus,
			&history.ActorID,
			&history.ActorName,
			&history.Observations,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
