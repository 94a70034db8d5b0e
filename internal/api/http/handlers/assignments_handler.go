package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AssignmentsHandler exposes administrator assignment endpoints.
type AssignmentsHandler struct {
	service *service.AssignmentService
}

// NewAssignmentsHandler constructs handler.
func NewAssignmentsHandler(assignmentService *service.AssignmentService) *AssignmentsHandler {
	return &AssignmentsHandler{service: assignmentService}
}

// RunAutotriage POST /assignments/autotriage.
func (h *AssignmentsHandler) RunAutotriage(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	report, err := h.service.RunAutotriage(c.UserContext(), actor)
	if err != nil {
		return err
	}
	results := make([]dto.AutotriageResultResponse, 0, len(report.Results))
	for _, r := range report.Results {
		results = append(results, dto.AutotriageResultResponse{
			TicketCode:     r.TicketCode,
			TechnicianID:   r.TechnicianID,
			TechnicianName: r.TechnicianName,
			Score:          r.Score,
			Error:          r.Error,
		})
	}
	return c.JSON(fiber.Map{"data": dto.AutotriageResponse{
		Results:        results,
		TotalProcessed: report.TotalProcessed,
		Succeeded:      report.Succeeded,
		Failed:         report.Failed,
	}})
}

// AssignManually POST /assignments/manual.
func (h *AssignmentsHandler) AssignManually(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	var req dto.ManualAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	assignment, err := h.service.AssignManually(c.UserContext(), actor, service.ManualAssignmentInput{
		TicketID:      req.TicketID,
		TechnicianID:  req.TechnicianID,
		Justification: req.Justification,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": assignmentResponse(assignment)})
}

// ListPendingTickets GET /assignments/pending-tickets.
func (h *AssignmentsHandler) ListPendingTickets(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	queue, err := h.service.ListPendingTickets(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.PendingTicketResponse, 0, len(queue))
	for i := range queue {
		items = append(items, dto.PendingTicketResponse{
			Ticket:         ticketResponse(&queue[i].Ticket),
			HoursRemaining: queue[i].HoursRemaining,
			UrgencyScore:   queue[i].UrgencyScore,
			Band:           queue[i].Band,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListTechnicians GET /assignments/technicians.
func (h *AssignmentsHandler) ListTechnicians(c *fiber.Ctx) error {
	actor, err := auth.ActorFromContext(c)
	if err != nil {
		return err
	}
	workloads, err := h.service.ListTechnicianWorkloads(c.UserContext(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.TechnicianWorkloadResponse, 0, len(workloads))
	for i := range workloads {
		items = append(items, technicianWorkloadResponse(&workloads[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func assignmentResponse(a *domain.Assignment) dto.AssignmentResponse {
	return dto.AssignmentResponse{
		ID:                a.ID,
		TicketID:          a.TicketID,
		TechnicianID:      a.TechnicianID,
		Method:            a.Method,
		Justification:     a.Justification,
		Score:             a.Score,
		SLAHoursRemaining: a.SLAHoursRemaining,
		AssignedByID:      a.AssignedByID,
		Active:            a.Active,
	}
}

func technicianWorkloadResponse(w *service.TechnicianWorkload) dto.TechnicianWorkloadResponse {
	specialties := w.Technician.Specialties
	if specialties == nil {
		specialties = []string{}
	}
	return dto.TechnicianWorkloadResponse{
		ID:              w.Technician.ID,
		Name:            w.Technician.Name,
		Email:           w.Technician.Email,
		CurrentWorkload: w.Technician.CurrentWorkload,
		WorkloadLimit:   w.Technician.WorkloadLimit,
		Headroom:        w.Headroom,
		AtCapacity:      w.AtCapacity,
		Specialties:     specialties,
	}
}
