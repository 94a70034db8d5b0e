package repository

import (
	"context"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// UserRepository reads helpdesk users. Account management lives elsewhere.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type userRepository struct {
	db DBTX
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, name, email, role, active, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	const query = `
        SELECT id, name, email, role, active, created_at, updated_at
        FROM users WHERE role=$1 AND active = TRUE ORDER BY id`
	rows, err := r.db.Query(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Role,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, user)
	}
	return result, rows.Err()
}
