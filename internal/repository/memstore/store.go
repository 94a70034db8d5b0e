// Package memstore is an in-memory repository.Store for tests and local runs.
package memstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type state struct {
	users       map[string]domain.User
	technicians map[string]domain.Technician
	categories  map[string]domain.Category
	tickets     map[string]domain.Ticket
	assignments map[string]domain.Assignment
	history     []domain.TicketHistory
	evidence    []domain.EvidenceImage
	ticketSeq   int
}

func newState() *state {
	return &state{
		users:       map[string]domain.User{},
		technicians: map[string]domain.Technician{},
		categories:  map[string]domain.Category{},
		tickets:     map[string]domain.Ticket{},
		assignments: map[string]domain.Assignment{},
	}
}

func (s *state) clone() *state {
	c := &state{
		users:       make(map[string]domain.User, len(s.users)),
		technicians: make(map[string]domain.Technician, len(s.technicians)),
		categories:  make(map[string]domain.Category, len(s.categories)),
		tickets:     make(map[string]domain.Ticket, len(s.tickets)),
		assignments: make(map[string]domain.Assignment, len(s.assignments)),
		history:     append([]domain.TicketHistory(nil), s.history...),
		evidence:    append([]domain.EvidenceImage(nil), s.evidence...),
		ticketSeq:   s.ticketSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.technicians {
		v.Specialties = append([]string(nil), v.Specialties...)
		c.technicians[k] = v
	}
	for k, v := range s.categories {
		c.categories[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.assignments {
		c.assignments[k] = v
	}
	return c
}

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

// Store keeps every record in memory. Transactions serialize on one mutex and
// roll back by restoring a snapshot.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// SetClock overrides the timestamp source for created records.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Repos returns repositories that lock per call.
func (s *Store) Repos() repository.Repositories {
	return s.repos(&s.mu)
}

// WithinTx runs fn with exclusive access; any error restores the previous state.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.st.clone()
	if err := fn(ctx, s.repos(noopLocker{})); err != nil {
		s.st = snapshot
		return err
	}
	return nil
}

func (s *Store) repos(l sync.Locker) repository.Repositories {
	return repository.Repositories{
		Tickets:     &ticketRepo{s: s, l: l},
		Categories:  &categoryRepo{s: s, l: l},
		Technicians: &technicianRepo{s: s, l: l},
		Assignments: &assignmentRepo{s: s, l: l},
		History:     &historyRepo{s: s, l: l},
		Evidence:    &evidenceRepo{s: s, l: l},
		Users:       &userRepo{s: s, l: l},
	}
}

// AddUser seeds a user. An empty ID is generated.
func (s *Store) AddUser(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = s.now()
		user.UpdatedAt = user.CreatedAt
	}
	s.st.users[user.ID] = user
	return user
}

// AddTechnician seeds a technician and its backing user.
func (s *Store) AddTechnician(tech domain.Technician) domain.Technician {
	if tech.Role == "" {
		tech.Role = domain.RoleTechnician
	}
	user := s.AddUser(domain.User{ID: tech.ID, Name: tech.Name, Email: tech.Email, Role: tech.Role, Active: tech.Active})
	tech.ID = user.ID
	s.mu.Lock()
	defer s.mu.Unlock()
	tech.Specialties = append([]string(nil), tech.Specialties...)
	s.st.technicians[tech.ID] = tech
	return tech
}

// Technician returns the stored technician for assertions.
func (s *Store) Technician(id string) (domain.Technician, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tech, ok := s.st.technicians[id]
	return tech, ok
}

// Ticket returns the stored ticket for assertions.
func (s *Store) Ticket(id string) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.st.tickets[id]
	return ticket, ok
}

// PutTicket overwrites a ticket record, bypassing lifecycle rules. Tests use it to
// stage tickets in arbitrary states.
func (s *Store) PutTicket(ticket domain.Ticket) domain.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Code == "" {
		s.st.ticketSeq++
		ticket.Code = ticketCode(s.st.ticketSeq)
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = s.now()
	}
	s.st.tickets[ticket.ID] = ticket
	return ticket
}

// ActiveAssignments returns all active assignments.
func (s *Store) ActiveAssignments() []domain.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Assignment
	for _, a := range s.st.assignments {
		if a.Active {
			result = append(result, a)
		}
	}
	return result
}

func ticketCode(seq int) string {
	return fmt.Sprintf("TCK-%06d", seq)
}
