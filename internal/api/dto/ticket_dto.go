package dto

import (
	"time"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// TicketCreateRequest describes the payload for creating a ticket.
type TicketCreateRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Priority     string  `json:"priority"`
	Category     string  `json:"category"`
	OwningTeamID *string `json:"owning_team_id,omitempty"`
}

// TicketAttributesRequest carries SLA-relevant field edits.
type TicketAttributesRequest struct {
	Priority     *string `json:"priority,omitempty"`
	Category     *string `json:"category,omitempty"`
	OwningTeamID *string `json:"owning_team_id,omitempty"`
	ClearTeam    bool    `json:"clear_team,omitempty"`
}

// TicketStatusRequest carries a lifecycle transition.
type TicketStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// SnoozeRequest carries the snooze end instant.
type SnoozeRequest struct {
	Until time.Time `json:"until"`
}

// ExtendSlaRequest carries a manual extension.
type ExtendSlaRequest struct {
	Hours int `json:"hours"`
}

// RefreshSlaRequest carries the refresh options.
type RefreshSlaRequest struct {
	RestartClock bool `json:"restart_clock"`
}

// TicketResponse is the outward ticket representation.
type TicketResponse struct {
	ID                string     `json:"id"`
	ExternalKey       string     `json:"external_key"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	Category          string     `json:"category"`
	OwningTeamID      *string    `json:"owning_team_id,omitempty"`
	AssigneeID        *string    `json:"assignee_id,omitempty"`
	SlaRuleID         *string    `json:"sla_rule_id,omitempty"`
	SlaDueAt          *time.Time `json:"sla_due_at,omitempty"`
	SlaBreachedAt     *time.Time `json:"sla_breached_at,omitempty"`
	SlaStatus         *string    `json:"sla_status,omitempty"`
	SlaExtensionCount int        `json:"sla_extension_count"`
	SnoozedAt         *time.Time `json:"snoozed_at,omitempty"`
	SnoozedUntil      *time.Time `json:"snoozed_until,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	ClosedAt          *time.Time `json:"closed_at,omitempty"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:                t.ID,
		ExternalKey:       t.ExternalKey,
		Title:             t.Title,
		Description:       t.Description,
		Status:            string(t.Status),
		Priority:          string(t.Priority),
		Category:          t.Category,
		OwningTeamID:      t.OwningTeamID,
		AssigneeID:        t.AssigneeID,
		SlaRuleID:         t.SlaRuleID,
		SlaDueAt:          t.SlaDueAt,
		SlaBreachedAt:     t.SlaBreachedAt,
		SlaExtensionCount: t.SlaExtensionCount,
		SnoozedAt:         t.SnoozedAt,
		SnoozedUntil:      t.SnoozedUntil,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		ClosedAt:          t.ClosedAt,
	}
	if t.SlaStatus != nil {
		status := string(*t.SlaStatus)
		resp.SlaStatus = &status
	}
	return resp
}

// HistoryResponse is the outward history entry representation.
type HistoryResponse struct {
	ID         string         `json:"id"`
	ChangeType string         `json:"change_type"`
	ChangedBy  *string        `json:"changed_by,omitempty"`
	ActorType  string         `json:"actor_type"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// FromHistory maps a history entry.
func FromHistory(h domain.TicketHistory) HistoryResponse {
	return HistoryResponse{
		ID:         h.ID,
		ChangeType: string(h.ChangeType),
		ChangedBy:  h.ChangedByID,
		ActorType:  string(h.ChangedByType),
		OldValue:   h.OldValue,
		NewValue:   h.NewValue,
		CreatedAt:  h.CreatedAt,
	}
}
