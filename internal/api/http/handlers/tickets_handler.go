package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RaythaHQ/ticket-system-sub001/internal/api/dto"
	"github.com/RaythaHQ/ticket-system-sub001/internal/auth"
	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	"github.com/RaythaHQ/ticket-system-sub001/internal/service"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

// TicketsHandler exposes ticket operations, including the SLA surface.
type TicketsHandler struct {
	tickets *service.TicketService
	slas    *service.SlaService
}

// NewTicketsHandler returns a new handler instance.
func NewTicketsHandler(tickets *service.TicketService, slas *service.SlaService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, slas: slas}
}

// Create opens a new ticket on behalf of the authenticated staff member.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TicketCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}
	if req.Title == "" {
		return apperrors.NewValidationError("title is required", nil)
	}

	ticket, err := h.tickets.CreateTicket(c.UserContext(), staff.ID, service.TicketCreateInput{
		OwningTeamID: req.OwningTeamID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     domain.TicketPriority(req.Priority),
		Category:     req.Category,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromTicket(ticket))
}

// Get fetches a single ticket.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.tickets.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// History lists audit entries for a ticket.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	offset := c.QueryInt("offset", 0)
	entries, err := h.tickets.ListHistory(c.UserContext(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	out := make([]dto.HistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.FromHistory(entry))
	}
	return c.JSON(fiber.Map{"history": out})
}

// UpdateAttributes edits priority, category or owning team and re-evaluates
// the SLA assignment.
func (h *TicketsHandler) UpdateAttributes(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TicketAttributesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	update := service.TicketAttributeUpdate{
		Category:     req.Category,
		OwningTeamID: req.OwningTeamID,
		ClearTeam:    req.ClearTeam,
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		update.Priority = &priority
	}

	ticket, err := h.tickets.UpdateAttributes(c.UserContext(), staff, c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// UpdateStatus transitions the ticket lifecycle.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.UpdateStatus(c.UserContext(), staff, c.Params("id"), domain.TicketStatus(req.Status), req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// Snooze parks the ticket until the requested instant.
func (h *TicketsHandler) Snooze(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.SnoozeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.tickets.Snooze(c.UserContext(), staff, c.Params("id"), req.Until)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// Unsnooze wakes the ticket, shifting the SLA clock when the org opts in.
func (h *TicketsHandler) Unsnooze(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.tickets.Unsnooze(c.UserContext(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// ExtendSla applies a manual due-date extension.
func (h *TicketsHandler) ExtendSla(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ExtendSlaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.slas.ExtendDueDate(c.UserContext(), staff, c.Params("id"), req.Hours)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}

// RefreshSla re-runs rule matching on operator demand.
func (h *TicketsHandler) RefreshSla(c *fiber.Ctx) error {
	staff, ok := auth.StaffFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.RefreshSlaRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.slas.RefreshSla(c.UserContext(), staff, c.Params("id"), req.RestartClock)
	if err != nil {
		return err
	}
	return c.JSON(dto.FromTicket(ticket))
}
