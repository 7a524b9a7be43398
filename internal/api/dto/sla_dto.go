package dto

import (
	"encoding/json"
	"time"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// SlaRuleResponse is the outward rule representation.
type SlaRuleResponse struct {
	ID                      string          `json:"id"`
	Name                    string          `json:"name"`
	Description             string          `json:"description,omitempty"`
	Conditions              json.RawMessage `json:"conditions,omitempty"`
	TargetResolutionMinutes int             `json:"target_resolution_minutes"`
	TargetCloseMinutes      *int            `json:"target_close_minutes,omitempty"`
	BusinessHoursEnabled    bool            `json:"business_hours_enabled"`
	BusinessHours           json.RawMessage `json:"business_hours,omitempty"`
	BreachBehavior          json.RawMessage `json:"breach_behavior,omitempty"`
	IsActive                bool            `json:"is_active"`
	Priority                int             `json:"priority"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

// FromSlaRule maps a domain rule to its response shape.
func FromSlaRule(r *domain.SlaRule) SlaRuleResponse {
	return SlaRuleResponse{
		ID:                      r.ID,
		Name:                    r.Name,
		Description:             r.Description,
		Conditions:              r.ConditionsRaw,
		TargetResolutionMinutes: r.TargetResolutionMinutes,
		TargetCloseMinutes:      r.TargetCloseMinutes,
		BusinessHoursEnabled:    r.BusinessHoursEnabled,
		BusinessHours:           r.BusinessHoursRaw,
		BreachBehavior:          r.BreachBehaviorRaw,
		IsActive:                r.IsActive,
		Priority:                r.Priority,
		CreatedAt:               r.CreatedAt,
		UpdatedAt:               r.UpdatedAt,
	}
}

// LoginRequest carries staff credentials.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	StaffID   string    `json:"staff_id"`
	Role      string    `json:"role"`
}
