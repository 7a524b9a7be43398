package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/RaythaHQ/ticket-system-sub001/internal/api/dto"
	"github.com/RaythaHQ/ticket-system-sub001/internal/service"
)

// SlaRulesHandler exposes SLA rule inspection.
type SlaRulesHandler struct {
	slas *service.SlaService
}

// NewSlaRulesHandler returns a new handler instance.
func NewSlaRulesHandler(slas *service.SlaService) *SlaRulesHandler {
	return &SlaRulesHandler{slas: slas}
}

// List returns all configured rules in matcher order.
func (h *SlaRulesHandler) List(c *fiber.Ctx) error {
	rules, err := h.slas.ListRules(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]dto.SlaRuleResponse, 0, len(rules))
	for i := range rules {
		out = append(out, dto.FromSlaRule(&rules[i]))
	}
	return c.JSON(fiber.Map{"rules": out})
}

// Get returns one rule.
func (h *SlaRulesHandler) Get(c *fiber.Ctx) error {
	rule, err := h.slas.GetRule(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.FromSlaRule(rule))
}
