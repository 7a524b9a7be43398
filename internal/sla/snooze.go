package sla

import (
	"time"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// SnoozeClockAdjuster shifts a ticket's due date by the wall-clock duration
// it spent snoozed, when the organization pauses the SLA clock for snoozes.
type SnoozeClockAdjuster struct{}

// NewSnoozeClockAdjuster constructs the adjuster.
func NewSnoozeClockAdjuster() *SnoozeClockAdjuster {
	return &SnoozeClockAdjuster{}
}

// ApplyUnsnooze returns the shifted due date, or nil when nothing changed.
// The shift is a pure forward move: no rule re-match, no status change. It
// requires both snooze markers and an assigned due date, and the org opt-in.
func (a *SnoozeClockAdjuster) ApplyUnsnooze(ticket *domain.Ticket, settings domain.OrganizationSettings) *time.Time {
	if !settings.PauseSlaOnSnooze {
		return nil
	}
	if ticket.SlaDueAt == nil || ticket.SnoozedAt == nil || ticket.UnsnoozedAt == nil {
		return nil
	}
	paused := ticket.UnsnoozedAt.Sub(*ticket.SnoozedAt)
	if paused <= 0 {
		return nil
	}
	shifted := ticket.SlaDueAt.Add(paused)
	ticket.SlaDueAt = &shifted
	return &shifted
}
