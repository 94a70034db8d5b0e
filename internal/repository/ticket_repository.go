package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters.
type TicketFilter struct {
	RequesterID    *string
	CategoryID     *string
	Statuses       []domain.TicketStatus
	Priorities     []domain.TicketPriority
	SearchTerm     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	IncludeDeleted bool
	OldestFirst    bool
	Limit          int
	Offset         int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetForUpdate loads the ticket and locks it until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error)
	ListPending(ctx context.Context) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

const ticketColumns = `id, code, title, description, category_id, requester_id, status, priority,
               priority_score, response_deadline, resolution_deadline, responded_at, closed_at,
               deleted, created_at, updated_at`

const pendingBatchLimit = 10000

type ticketRepository struct {
	db DBTX
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, title, description, category_id, requester_id, status, priority,
                             response_deadline, resolution_deadline, created_at, updated_at)
        VALUES ('TCK-' || LPAD(nextval('ticket_code_seq')::text, 6, '0'), $1,$2,$3,$4,$5,$6,$7,$8,$9,$9)
        RETURNING id, code, updated_at`
	return r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.CategoryID,
		ticket.RequesterID,
		ticket.Status,
		ticket.Priority,
		ticket.ResponseDeadline,
		ticket.ResolutionDeadline,
		ticket.CreatedAt,
	).Scan(&ticket.ID, &ticket.Code, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, priority_score=$5,
            response_deadline=$6, resolution_deadline=$7, responded_at=$8, closed_at=$9, deleted=$10,
            updated_at=NOW()
        WHERE id=$11
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.PriorityScore,
		ticket.ResponseDeadline,
		ticket.ResolutionDeadline,
		ticket.RespondedAt,
		ticket.ClosedAt,
		ticket.Deleted,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 FOR UPDATE`
	return r.fetchSingle(ctx, query, id)
}

func (r *ticketRepository) ListPending(ctx context.Context) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, TicketFilter{
		Statuses:    []domain.TicketStatus{domain.TicketStatusPending},
		OldestFirst: true,
		Limit:       pendingBatchLimit,
	})
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if !filter.IncludeDeleted {
		clauses = append(clauses, "deleted = FALSE")
	}
	if filter.RequesterID != nil {
		args = append(args, *filter.RequesterID)
		clauses = append(clauses, fmt.Sprintf("requester_id=$%d", len(args)))
	}
	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		clauses = append(clauses, fmt.Sprintf("category_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(code) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	order := "created_at DESC, code DESC"
	if filter.OldestFirst {
		order = "created_at ASC, code ASC"
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY %s LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), order, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.CategoryID,
		&ticket.RequesterID,
		&ticket.Status,
		&ticket.Priority,
		&ticket.PriorityScore,
		&ticket.ResponseDeadline,
		&ticket.ResolutionDeadline,
		&ticket.RespondedAt,
		&ticket.ClosedAt,
		&ticket.Deleted,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
