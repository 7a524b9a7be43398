package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RaythaHQ/ticket-system-sub001/internal/api/http/handlers"
	"github.com/RaythaHQ/ticket-system-sub001/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	SlaRules       *handlers.SlaRulesHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/staff/login", cfg.Auth.LoginStaff)

	protected := app.Group("/api", cfg.AuthMiddleware.Handle)

	tickets := protected.Group("/tickets")
	tickets.Post("", cfg.Tickets.Create)
	tickets.Get("/:id", cfg.Tickets.Get)
	tickets.Get("/:id/history", cfg.Tickets.History)
	tickets.Patch("/:id/attributes", cfg.Tickets.UpdateAttributes)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/snooze", cfg.Tickets.Snooze)
	tickets.Post("/:id/unsnooze", cfg.Tickets.Unsnooze)
	tickets.Post("/:id/sla/extend", cfg.Tickets.ExtendSla)
	tickets.Post("/:id/sla/refresh", auth.RequireManageTickets(), cfg.Tickets.RefreshSla)

	rules := protected.Group("/sla/rules")
	rules.Get("", cfg.SlaRules.List)
	rules.Get("/:id", cfg.SlaRules.Get)
}
