package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen        TicketStatus = "OPEN"
	TicketStatusInProgress  TicketStatus = "IN_PROGRESS"
	TicketStatusPendingUser TicketStatus = "PENDING_USER"
	TicketStatusResolved    TicketStatus = "RESOLVED"
	TicketStatusClosed      TicketStatus = "CLOSED"
	TicketStatusCancelled   TicketStatus = "CANCELLED"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// SlaStatus enumerates compliance states for a ticket's SLA clock.
type SlaStatus string

const (
	SlaStatusOnTrack           SlaStatus = "ON_TRACK"
	SlaStatusApproachingBreach SlaStatus = "APPROACHING_BREACH"
	SlaStatusBreached          SlaStatus = "BREACHED"
	SlaStatusCompleted         SlaStatus = "COMPLETED"
)

// Ticket is the aggregate for support requests. The Sla* fields are owned by
// the SLA engine; RowVersion guards concurrent SLA writes between the edit
// path and the breach scanner.
type Ticket struct {
	ID           string
	ExternalKey  string
	RequesterID  string
	OwningTeamID *string
	AssigneeID   *string
	Title        string
	Description  string
	Status       TicketStatus
	Priority     TicketPriority
	Category     string

	SlaRuleID         *string
	SlaDueAt          *time.Time
	SlaBreachedAt     *time.Time
	SlaStatus         *SlaStatus
	SlaExtensionCount int

	SnoozedAt    *time.Time
	SnoozedUntil *time.Time
	UnsnoozedAt  *time.Time

	RowVersion int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
	ClosedAt   *time.Time
}

// IsClosed reports whether the ticket lifecycle forbids further SLA mutation.
func (t *Ticket) IsClosed() bool {
	switch t.Status {
	case TicketStatusResolved, TicketStatusClosed, TicketStatusCancelled:
		return true
	}
	return false
}

// HasOpenSla reports whether the breach scanner should still look at this
// ticket: an assigned due date with a non-terminal compliance state.
func (t *Ticket) HasOpenSla() bool {
	if t.SlaDueAt == nil || t.SlaStatus == nil {
		return false
	}
	return *t.SlaStatus == SlaStatusOnTrack || *t.SlaStatus == SlaStatusApproachingBreach
}
