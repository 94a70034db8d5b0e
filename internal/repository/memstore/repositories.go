package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

type ticketRepo struct {
	s *Store
	l sync.Locker
}

func (r *ticketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.l.Lock()
	defer r.l.Unlock()
	st := r.s.st
	st.ticketSeq++
	ticket.ID = uuid.NewString()
	ticket.Code = ticketCode(st.ticketSeq)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.s.now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	st.tickets[ticket.ID] = *ticket
	return nil
}

func (r *ticketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	r.l.Lock()
	defer r.l.Unlock()
	if _, ok := r.s.st.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.s.now()
	r.s.st.tickets[ticket.ID] = *ticket
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.l.Lock()
	defer r.l.Unlock()
	ticket, ok := r.s.st.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *ticketRepo) GetForUpdate(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.GetByID(ctx, id)
}

func (r *ticketRepo) ListPending(ctx context.Context) ([]domain.Ticket, error) {
	return r.ListWithFilter(ctx, repository.TicketFilter{
		Statuses:    []domain.TicketStatus{domain.TicketStatusPending},
		OldestFirst: true,
		Limit:       10000,
	})
}

func (r *ticketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.l.Lock()
	defer r.l.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.s.st.tickets {
		if matchesFilter(ticket, filter) {
			result = append(result, ticket)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if filter.OldestFirst {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
		if filter.OldestFirst {
			return a.Code < b.Code
		}
		return a.Code > b.Code
	})
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func matchesFilter(ticket domain.Ticket, filter repository.TicketFilter) bool {
	if ticket.Deleted && !filter.IncludeDeleted {
		return false
	}
	if filter.RequesterID != nil && ticket.RequesterID != *filter.RequesterID {
		return false
	}
	if filter.CategoryID != nil && ticket.CategoryID != *filter.CategoryID {
		return false
	}
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, ticket.Priority) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
		return false
	}
	if filter.SearchTerm != nil {
		term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
		if term != "" &&
			!strings.Contains(strings.ToLower(ticket.Title), term) &&
			!strings.Contains(strings.ToLower(ticket.Description), term) &&
			!strings.Contains(strings.ToLower(ticket.Code), term) {
			return false
		}
	}
	return true
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []domain.TicketPriority, p domain.TicketPriority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}

type categoryRepo struct {
	s *Store
	l sync.Locker
}

func (r *categoryRepo) Create(_ context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return fmt.Errorf("invalid category: %w", err)
	}
	r.l.Lock()
	defer r.l.Unlock()
	for _, existing := range r.s.st.categories {
		if existing.Code == category.Code {
			return fmt.Errorf("category code %s already exists", category.Code)
		}
	}
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.CreatedAt = r.s.now()
	category.UpdatedAt = category.CreatedAt
	r.s.st.categories[category.ID] = *category
	return nil
}

func (r *categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.l.Lock()
	defer r.l.Unlock()
	category, ok := r.s.st.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &category, nil
}

type technicianRepo struct {
	s *Store
	l sync.Locker
}

func (r *technicianRepo) GetByID(_ context.Context, id string) (*domain.Technician, error) {
	r.l.Lock()
	defer r.l.Unlock()
	return r.get(id)
}

func (r *technicianRepo) get(id string) (*domain.Technician, error) {
	tech, ok := r.s.st.technicians[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if user, ok := r.s.st.users[id]; ok {
		tech.Active = user.Active
		tech.Role = user.Role
		tech.Name = user.Name
	}
	tech.Specialties = append([]string(nil), tech.Specialties...)
	return &tech, nil
}

func (r *technicianRepo) GetForUpdate(ctx context.Context, id string) (*domain.Technician, error) {
	return r.GetByID(ctx, id)
}

func (r *technicianRepo) ListEligible(_ context.Context, specialties []string) ([]domain.Technician, error) {
	r.l.Lock()
	defer r.l.Unlock()
	var result []domain.Technician
	for id := range r.s.st.technicians {
		tech, _ := r.get(id)
		if tech.Active && tech.Available && tech.Role == domain.RoleTechnician && tech.HasAnySpecialty(specialties) {
			result = append(result, *tech)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *technicianRepo) ListAvailable(_ context.Context) ([]domain.Technician, error) {
	r.l.Lock()
	defer r.l.Unlock()
	var result []domain.Technician
	for id := range r.s.st.technicians {
		tech, _ := r.get(id)
		if tech.Active && tech.Available && tech.Role == domain.RoleTechnician {
			result = append(result, *tech)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CurrentWorkload != result[j].CurrentWorkload {
			return result[i].CurrentWorkload < result[j].CurrentWorkload
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *technicianRepo) AdjustWorkload(_ context.Context, id string, delta int) error {
	r.l.Lock()
	defer r.l.Unlock()
	tech, ok := r.s.st.technicians[id]
	if !ok {
		return pgx.ErrNoRows
	}
	if tech.CurrentWorkload+delta < 0 {
		return repository.ErrWorkloadUnderflow
	}
	tech.CurrentWorkload += delta
	r.s.st.technicians[id] = tech
	return nil
}

type assignmentRepo struct {
	s *Store
	l sync.Locker
}

func (r *assignmentRepo) Create(_ context.Context, assignment *domain.Assignment) error {
	r.l.Lock()
	defer r.l.Unlock()
	for _, existing := range r.s.st.assignments {
		if existing.TicketID == assignment.TicketID && existing.Active {
			return repository.ErrActiveAssignmentExists
		}
	}
	assignment.ID = uuid.NewString()
	assignment.Active = true
	assignment.CreatedAt = r.s.now()
	r.s.st.assignments[assignment.ID] = *assignment
	return nil
}

func (r *assignmentRepo) GetActiveByTicket(_ context.Context, ticketID string) (*domain.Assignment, error) {
	r.l.Lock()
	defer r.l.Unlock()
	for _, existing := range r.s.st.assignments {
		if existing.TicketID == ticketID && existing.Active {
			return &existing, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *assignmentRepo) Deactivate(_ context.Context, id string) error {
	r.l.Lock()
	defer r.l.Unlock()
	existing, ok := r.s.st.assignments[id]
	if !ok || !existing.Active {
		return pgx.ErrNoRows
	}
	existing.Active = false
	r.s.st.assignments[id] = existing
	return nil
}

func (r *assignmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Assignment, error) {
	r.l.Lock()
	defer r.l.Unlock()
	var result []domain.Assignment
	for _, existing := range r.s.st.assignments {
		if existing.TicketID == ticketID {
			result = append(result, existing)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type historyRepo struct {
	s *Store
	l sync.Locker
}

func (r *historyRepo) Create(_ context.Context, history *domain.TicketHistory) error {
	r.l.Lock()
	defer r.l.Unlock()
	history.ID = uuid.NewString()
	if history.CreatedAt.IsZero() {
		history.CreatedAt = r.s.now()
	}
	entry := *history
	entry.Evidence = nil
	r.s.st.history = append(r.s.st.history, entry)
	return nil
}

func (r *historyRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.l.Lock()
	defer r.l.Unlock()
	var result []domain.TicketHistory
	// newest first; appended order breaks timestamp ties
	for i := len(r.s.st.history) - 1; i >= 0; i-- {
		entry := r.s.st.history[i]
		if entry.TicketID != ticketID {
			continue
		}
		if user, ok := r.s.st.users[entry.ActorID]; ok {
			entry.ActorName = user.Name
		}
		result = append(result, entry)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

type evidenceRepo struct {
	s *Store
	l sync.Locker
}

func (r *evidenceRepo) Create(_ context.Context, image *domain.EvidenceImage) error {
	r.l.Lock()
	defer r.l.Unlock()
	image.ID = uuid.NewString()
	image.CreatedAt = r.s.now()
	r.s.st.evidence = append(r.s.st.evidence, *image)
	return nil
}

func (r *evidenceRepo) ListByHistory(_ context.Context, historyIDs []string) (map[string][]domain.EvidenceImage, error) {
	r.l.Lock()
	defer r.l.Unlock()
	wanted := make(map[string]struct{}, len(historyIDs))
	for _, id := range historyIDs {
		wanted[id] = struct{}{}
	}
	result := make(map[string][]domain.EvidenceImage, len(historyIDs))
	for _, image := range r.s.st.evidence {
		if _, ok := wanted[image.HistoryID]; ok {
			result[image.HistoryID] = append(result[image.HistoryID], image)
		}
	}
	return result, nil
}

type userRepo struct {
	s *Store
	l sync.Locker
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.l.Lock()
	defer r.l.Unlock()
	user, ok := r.s.st.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *userRepo) ListByRole(_ context.Context, role domain.Role) ([]domain.User, error) {
	r.l.Lock()
	defer r.l.Unlock()
	var result []domain.User
	for _, user := range r.s.st.users {
		if user.Role == role && user.Active {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
