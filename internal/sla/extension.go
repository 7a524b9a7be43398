package sla

import (
	"time"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

// PermissionChecker answers whether an actor holds the manage-tickets
// capability, which exempts them from extension caps.
type PermissionChecker interface {
	HasManageTicketsCapability(actor *domain.StaffMember) bool
}

// StaffPermissionChecker derives the capability from the staff role.
type StaffPermissionChecker struct{}

// HasManageTicketsCapability implements PermissionChecker.
func (StaffPermissionChecker) HasManageTicketsCapability(actor *domain.StaffMember) bool {
	return actor.CanManageTickets()
}

// ExtensionGuard validates and applies manual due-date extensions.
type ExtensionGuard struct {
	clock       Clock
	permissions PermissionChecker
}

// NewExtensionGuard constructs the guard.
func NewExtensionGuard(clock Clock, permissions PermissionChecker) *ExtensionGuard {
	if clock == nil {
		clock = SystemClock{}
	}
	if permissions == nil {
		permissions = StaffPermissionChecker{}
	}
	return &ExtensionGuard{clock: clock, permissions: permissions}
}

// Extend pushes the ticket's due date forward by the given hours. Rejected
// operations leave the ticket untouched: closed ticket, non-positive hours,
// a resulting due date not after now, or a capped actor exceeding the
// organization's count or per-extension limits. A successful extension on a
// breached or approaching ticket resets it to ON_TRACK and clears the breach
// timestamp.
func (g *ExtensionGuard) Extend(ticket *domain.Ticket, hours int, actor *domain.StaffMember, settings domain.OrganizationSettings) (time.Time, error) {
	if ticket.IsClosed() {
		return time.Time{}, apperrors.NewConflict("Cannot modify SLA on a closed ticket", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status,
		})
	}
	if ticket.SlaDueAt == nil {
		return time.Time{}, apperrors.NewValidationError("Ticket has no SLA due date to extend", map[string]any{
			"ticket_id": ticket.ID,
		})
	}
	if hours <= 0 {
		return time.Time{}, apperrors.NewValidationError("Extension hours must be positive", map[string]any{
			"hours": hours,
		})
	}

	if !g.permissions.HasManageTicketsCapability(actor) {
		if settings.MaxExtensions > 0 && ticket.SlaExtensionCount >= settings.MaxExtensions {
			return time.Time{}, apperrors.NewValidationError("Maximum extensions reached", map[string]any{
				"max_extensions": settings.MaxExtensions,
				"used":           ticket.SlaExtensionCount,
			})
		}
		if settings.MaxExtensionHours > 0 && hours > settings.MaxExtensionHours {
			return time.Time{}, apperrors.NewValidationError("Extension exceeds the allowed hours per extension", map[string]any{
				"max_extension_hours": settings.MaxExtensionHours,
				"requested":           hours,
			})
		}
	}

	newDue := ticket.SlaDueAt.Add(time.Duration(hours) * time.Hour)
	if !newDue.After(g.clock.Now()) {
		return time.Time{}, apperrors.NewValidationError("Extended due date must be in the future", map[string]any{
			"due_at": newDue,
		})
	}

	ticket.SlaDueAt = &newDue
	ticket.SlaExtensionCount++
	if ticket.SlaStatus == nil {
		onTrack := domain.SlaStatusOnTrack
		ticket.SlaStatus = &onTrack
	} else if *ticket.SlaStatus == domain.SlaStatusBreached || *ticket.SlaStatus == domain.SlaStatusApproachingBreach {
		onTrack := domain.SlaStatusOnTrack
		ticket.SlaStatus = &onTrack
		ticket.SlaBreachedAt = nil
	}
	return newDue, nil
}
