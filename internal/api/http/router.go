package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Tickets        *handlers.TicketsHandler
	Assignments    *handlers.AssignmentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/transitions", cfg.Tickets.Transition)
	tickets.Get("/:id/history", cfg.Tickets.ListHistory)

	assignments := api.Group("/assignments", auth.RequireRole(domain.RoleAdmin))
	assignments.Post("/autotriage", cfg.Assignments.RunAutotriage)
	assignments.Post("/manual", cfg.Assignments.AssignManually)
	assignments.Get("/pending-tickets", cfg.Assignments.ListPendingTickets)
	assignments.Get("/technicians", cfg.Assignments.ListTechnicians)
}
