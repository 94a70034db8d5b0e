package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// AssignmentRepository persists ticket assignments.
type AssignmentRepository interface {
	// Create inserts an active assignment. It fails with ErrActiveAssignmentExists
	// when the ticket already has one.
	Create(ctx context.Context, assignment *domain.Assignment) error
	// GetActiveByTicket returns pgx.ErrNoRows when the ticket has no active assignment.
	GetActiveByTicket(ctx context.Context, ticketID string) (*domain.Assignment, error)
	Deactivate(ctx context.Context, id string) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error)
}

const assignmentColumns = `id, ticket_id, technician_id, method, justification, score, sla_hours_remaining,
               assigned_by_id, active, created_at`

const activeAssignmentIndex = "assignments_one_active_per_ticket"

type assignmentRepository struct {
	db DBTX
}

// NewAssignmentRepository instantiates repository.
func NewAssignmentRepository(db DBTX) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (ticket_id, technician_id, method, justification, score, sla_hours_remaining,
                                 assigned_by_id, active)
        VALUES ($1,$2,$3,$4,$5,$6,$7,TRUE)
        RETURNING id, active, created_at`
	err := r.db.QueryRow(ctx, query,
		assignment.TicketID,
		assignment.TechnicianID,
		assignment.Method,
		assignment.Justification,
		assignment.Score,
		assignment.SLAHoursRemaining,
		assignment.AssignedByID,
	).Scan(&assignment.ID, &assignment.Active, &assignment.CreatedAt)
	if isUniqueViolation(err, activeAssignmentIndex) {
		return ErrActiveAssignmentExists
	}
	return err
}

func (r *assignmentRepository) GetActiveByTicket(ctx context.Context, ticketID string) (*domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=$1 AND active = TRUE`
	return scanAssignment(r.db.QueryRow(ctx, query, ticketID))
}

func (r *assignmentRepository) Deactivate(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE assignments SET active = FALSE WHERE id=$1 AND active = TRUE`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM assignments WHERE ticket_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *assignment)
	}
	return result, rows.Err()
}

func scanAssignment(row pgx.Row) (*domain.Assignment, error) {
	var assignment domain.Assignment
	if err := row.Scan(
		&assignment.ID,
		&assignment.TicketID,
		&assignment.TechnicianID,
		&assignment.Method,
		&assignment.Justification,
		&assignment.Score,
		&assignment.SLAHoursRemaining,
		&assignment.AssignedByID,
		&assignment.Active,
		&assignment.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}
