package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	tickets     *service.TicketService
	transitions *service.TransitionService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, transitions *service.TransitionService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, transitions: transitions}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":          ticketResponse(ticket),
		"valid_targets": h.transitions.ValidTargets(ticket.Status),
	})
}

// Transition POST /tickets/:id/transitions.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	evidence := make([]service.EvidenceInput, 0, len(req.EvidenceImages))
	for _, img := range req.EvidenceImages {
		evidence = append(evidence, service.EvidenceInput{
			FileName:    img.FileName,
			URL:         img.URL,
			MimeType:    img.MimeType,
			SizeBytes:   img.SizeBytes,
			Description: img.Description,
		})
	}
	result, err := h.transitions.Transition(c.UserContext(), actor, c.Params("id"), service.TransitionInput{
		NewStatus:    domain.TicketStatus(strings.ToUpper(strings.TrimSpace(string(req.NewStatus)))),
		Observations: req.Observations,
		Evidence:     evidence,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TransitionResponse{
		Ticket:  ticketResponse(result.Ticket),
		History: historyResponse(result.History),
	}})
}

// ListHistory GET /tickets/:id/history.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	entries, err := h.tickets.ListHistory(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketHistoryResponse, 0, len(entries))
	for i := range entries {
		items = append(items, historyResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.TicketStatus(strings.TrimSpace(part)))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.TicketPriority(strings.TrimSpace(part)))
		}
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		filter.CategoryID = &categoryID
	}
	if search := strings.TrimSpace(c.Query("q")); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page-1 > math.MaxInt32/pageSize {
		return filter, apperrors.NewValidationError("invalid pagination", map[string]any{"page": "out of range"})
	}
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	return dto.TicketResponse{
		ID:                 ticket.ID,
		Code:               ticket.Code,
		Title:              ticket.Title,
		Description:        ticket.Description,
		CategoryID:         ticket.CategoryID,
		RequesterID:        ticket.RequesterID,
		Status:             ticket.Status,
		Priority:           ticket.Priority,
		PriorityScore:      ticket.PriorityScore,
		ResponseDeadline:   ticket.ResponseDeadline,
		ResolutionDeadline: ticket.ResolutionDeadline,
		RespondedAt:        ticket.RespondedAt,
		ClosedAt:           ticket.ClosedAt,
		CreatedAt:          ticket.CreatedAt,
		UpdatedAt:          ticket.UpdatedAt,
	}
}

func historyResponse(entry *domain.TicketHistory) dto.TicketHistoryResponse {
	images := make([]dto.EvidenceImageResponse, 0, len(entry.Evidence))
	for _, img := range entry.Evidence {
		images = append(images, dto.EvidenceImageResponse{
			ID:          img.ID,
			FileName:    img.FileName,
			URL:         img.URL,
			MimeType:    img.MimeType,
			SizeBytes:   img.SizeBytes,
			Description: img.Description,
		})
	}
	return dto.TicketHistoryResponse{
		ID:             entry.ID,
		FromStatus:     entry.FromStatus,
		ToStatus:       entry.ToStatus,
		ActorID:        entry.ActorID,
		ActorName:      entry.ActorName,
		Observations:   entry.Observations,
		EvidenceImages: images,
		CreatedAt:      entry.CreatedAt,
	}
}
