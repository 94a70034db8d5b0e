package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrWorkloadUnderflow is returned when a decrement would take a counter below zero.
	ErrWorkloadUnderflow = errors.New("workload counter cannot go negative")
	// ErrActiveAssignmentExists is returned when a ticket already has an active assignment.
	ErrActiveAssignmentExists = errors.New("ticket already has an active assignment")
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Tickets     TicketRepository
	Categories  CategoryRepository
	Technicians TechnicianRepository
	Assignments AssignmentRepository
	History     TicketHistoryRepository
	Evidence    EvidenceRepository
	Users       UserRepository
}

// Store hands out repositories and runs units of work atomically.
type Store interface {
	Repos() Repositories
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore returns a Postgres-backed store.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

func (s *pgStore) Repos() Repositories {
	return newRepositories(s.pool)
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
}

func newRepositories(db DBTX) Repositories {
	return Repositories{
		Tickets:     NewTicketRepository(db),
		Categories:  NewCategoryRepository(db),
		Technicians: NewTechnicianRepository(db),
		Assignments: NewAssignmentRepository(db),
		History:     NewTicketHistoryRepository(db),
		Evidence:    NewEvidenceRepository(db),
		Users:       NewUserRepository(db),
	}
}

const pgUniqueViolation = "23505"

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
	}
	return false
}
