package repository

import (
	"context"
	"fmt"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// CategoryRepository reads categories and their assignment rules.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
}

type categoryRepository struct {
	db DBTX
}

// NewCategoryRepository instantiates repository.
func NewCategoryRepository(db DBTX) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}
	const query = `
        INSERT INTO categories (code, name, sla_response_minutes, sla_resolution_minutes, urgency_level,
                                rule_priorities, tags)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	if err := r.db.QueryRow(ctx, query, categoryInsertArgs(category)...).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt); err != nil {
		return err
	}
	for _, specialtyID := range category.Rule.RequiredSpecialties {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO category_specialties (category_id, specialty_id) VALUES ($1,$2)`,
			category.ID, specialtyID,
		); err != nil {
			return err
		}
	}
	return nil
}

// categoryInsertArgs binds nil slices as empty arrays; pgx sends nil as NULL,
// which the NOT NULL array columns reject.
func categoryInsertArgs(category *domain.Category) []any {
	priorities := category.Rule.Priorities
	if priorities == nil {
		priorities = []domain.TicketPriority{}
	}
	tags := category.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		category.Code,
		category.Name,
		category.SLA.ResponseMinutes,
		category.SLA.ResolutionMinutes,
		category.SLA.UrgencyLevel,
		priorities,
		tags,
	}
}

func (r *categoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	const query = `
        SELECT c.id, c.code, c.name, c.sla_response_minutes, c.sla_resolution_minutes, c.urgency_level,
               c.rule_priorities, c.tags, c.created_at, c.updated_at,
               COALESCE(ARRAY(SELECT cs.specialty_id FROM category_specialties cs
                              WHERE cs.category_id = c.id ORDER BY cs.specialty_id), '{}')
        FROM categories c WHERE c.id=$1`

	var category domain.Category
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Code,
		&category.Name,
		&category.SLA.ResponseMinutes,
		&category.SLA.ResolutionMinutes,
		&category.SLA.UrgencyLevel,
		&category.Rule.Priorities,
		&category.Tags,
		&category.CreatedAt,
		&category.UpdatedAt,
		&category.Rule.RequiredSpecialties,
	); err != nil {
		return nil, err
	}
	return &category, nil
}
