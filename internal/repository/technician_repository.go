package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TechnicianRepository handles technician capacity records.
type TechnicianRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Technician, error)
	// GetForUpdate loads and locks the technician row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id string) (*domain.Technician, error)
	// ListEligible returns active, available technicians sharing at least one of
	// the specialties, ordered by id.
	ListEligible(ctx context.Context, specialties []string) ([]domain.Technician, error)
	ListAvailable(ctx context.Context) ([]domain.Technician, error)
	AdjustWorkload(ctx context.Context, id string, delta int) error
}

const technicianSelect = `
        SELECT u.id, u.name, u.email, u.role, u.active, t.available, t.workload_limit, t.current_workload,
               COALESCE(ARRAY(SELECT ts.specialty_id FROM technician_specialties ts
                              WHERE ts.technician_id = u.id ORDER BY ts.specialty_id), '{}')
        FROM technicians t JOIN users u ON u.id = t.user_id`

type technicianRepository struct {
	db DBTX
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(db DBTX) TechnicianRepository {
	return &technicianRepository{db: db}
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	return scanTechnician(r.db.QueryRow(ctx, technicianSelect+` WHERE u.id=$1`, id))
}

func (r *technicianRepository) GetForUpdate(ctx context.Context, id string) (*domain.Technician, error) {
	return scanTechnician(r.db.QueryRow(ctx, technicianSelect+` WHERE u.id=$1 FOR UPDATE OF t`, id))
}

func (r *technicianRepository) ListEligible(ctx context.Context, specialties []string) ([]domain.Technician, error) {
	if len(specialties) == 0 {
		return nil, nil
	}
	query := technicianSelect + `
        WHERE u.active = TRUE AND u.role = $1 AND t.available = TRUE
          AND EXISTS (SELECT 1 FROM technician_specialties ts
                      WHERE ts.technician_id = u.id AND ts.specialty_id = ANY($2))
        ORDER BY u.id`
	return r.list(ctx, query, domain.RoleTechnician, specialties)
}

func (r *technicianRepository) ListAvailable(ctx context.Context) ([]domain.Technician, error) {
	query := technicianSelect + `
        WHERE u.active = TRUE AND u.role = $1 AND t.available = TRUE
        ORDER BY t.current_workload ASC, u.id`
	return r.list(ctx, query, domain.RoleTechnician)
}

func (r *technicianRepository) AdjustWorkload(ctx context.Context, id string, delta int) error {
	const query = `
        UPDATE technicians SET current_workload = current_workload + $1
        WHERE user_id=$2 AND current_workload + $1 >= 0`
	cmd, err := r.db.Exec(ctx, query, delta, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrWorkloadUnderflow
	}
	return nil
}

func (r *technicianRepository) list(ctx context.Context, query string, args ...any) ([]domain.Technician, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		tech, err := scanTechnician(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *tech)
	}
	return result, rows.Err()
}

func scanTechnician(row pgx.Row) (*domain.Technician, error) {
	var tech domain.Technician
	if err := row.Scan(
		&tech.ID,
		&tech.Name,
		&tech.Email,
		&tech.Role,
		&tech.Active,
		&tech.Available,
		&tech.WorkloadLimit,
		&tech.CurrentWorkload,
		&tech.Specialties,
	); err != nil {
		return nil, err
	}
	return &tech, nil
}
