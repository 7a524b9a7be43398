package events

import (
	"time"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventSlaRuleAssigned     EventType = "sla_rule_assigned"
	EventSlaDueDateChanged   EventType = "sla_due_date_changed"
	EventSlaApproaching      EventType = "sla_approaching_breach"
	EventSlaBreached         EventType = "sla_breached"
	EventSlaExtended         EventType = "sla_extended"
	EventSlaRefreshed        EventType = "sla_refreshed"
	EventSlaClockShifted     EventType = "sla_clock_shifted"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type    domain.ActorType `json:"type"`
	UserID  *string          `json:"user_id,omitempty"`
	StaffID *string          `json:"staff_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Priority     domain.TicketPriority `json:"priority"`
	Category     string                `json:"category"`
	OwningTeamID *string               `json:"owning_team_id,omitempty"`
	Title        string                `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// SlaRuleAssignedPayload payload.
type SlaRuleAssignedPayload struct {
	OldRuleID *string    `json:"old_rule_id,omitempty"`
	NewRuleID *string    `json:"new_rule_id,omitempty"`
	DueAt     *time.Time `json:"due_at,omitempty"`
}

// SlaDueDateChangedPayload payload.
type SlaDueDateChangedPayload struct {
	OldDueAt *time.Time `json:"old_due_at,omitempty"`
	NewDueAt *time.Time `json:"new_due_at,omitempty"`
	Reason   string     `json:"reason,omitempty"`
}

// SlaCompliancePayload payload for approaching/breached transitions.
type SlaCompliancePayload struct {
	RuleID    *string          `json:"rule_id,omitempty"`
	DueAt     time.Time        `json:"due_at"`
	OldStatus domain.SlaStatus `json:"old_status"`
	NewStatus domain.SlaStatus `json:"new_status"`
}

// SlaExtendedPayload payload.
type SlaExtendedPayload struct {
	Hours          int       `json:"hours"`
	NewDueAt       time.Time `json:"new_due_at"`
	ExtensionCount int       `json:"extension_count"`
	ClearedBreach  bool      `json:"cleared_breach"`
}

// SlaClockShiftedPayload payload for snooze-driven due date shifts.
type SlaClockShiftedPayload struct {
	PausedMinutes int       `json:"paused_minutes"`
	NewDueAt      time.Time `json:"new_due_at"`
}
