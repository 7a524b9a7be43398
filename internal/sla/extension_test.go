package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

func agent() *domain.StaffMember {
	return &domain.StaffMember{ID: "staff-1", Role: domain.StaffRoleAgent}
}

func teamLead() *domain.StaffMember {
	return &domain.StaffMember{ID: "staff-2", Role: domain.StaffRoleTeamLead}
}

func extendableTicket(due time.Time) *domain.Ticket {
	status := domain.SlaStatusOnTrack
	return &domain.Ticket{
		ID:        "ticket-1",
		Status:    domain.TicketStatusInProgress,
		SlaDueAt:  &due,
		SlaStatus: &status,
	}
}

func TestExtendMovesDueDateForward(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	due := now.Add(time.Hour)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)
	ticket := extendableTicket(due)

	newDue, err := guard.Extend(ticket, 4, agent(), domain.OrganizationSettings{})
	require.NoError(t, err)
	assert.Equal(t, due.Add(4*time.Hour), newDue)
	assert.Equal(t, newDue, *ticket.SlaDueAt)
	assert.Equal(t, 1, ticket.SlaExtensionCount)
}

func TestExtendMonotonicity(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)
	ticket := extendableTicket(now.Add(time.Hour))

	prevDue := *ticket.SlaDueAt
	for i := 1; i <= 3; i++ {
		newDue, err := guard.Extend(ticket, 2, agent(), domain.OrganizationSettings{})
		require.NoError(t, err)
		assert.True(t, newDue.After(prevDue))
		assert.Equal(t, i, ticket.SlaExtensionCount)
		prevDue = newDue
	}
}

func TestExtendCapOnCount(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)
	settings := domain.OrganizationSettings{MaxExtensions: 2}

	ticket := extendableTicket(now.Add(time.Hour))
	ticket.SlaExtensionCount = 2
	before := *ticket.SlaDueAt

	_, err := guard.Extend(ticket, 1, agent(), settings)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	// A rejected extension leaves the ticket untouched.
	assert.Equal(t, before, *ticket.SlaDueAt)
	assert.Equal(t, 2, ticket.SlaExtensionCount)
}

func TestExtendCapOnHoursPerExtension(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)
	settings := domain.OrganizationSettings{MaxExtensionHours: 8}

	ticket := extendableTicket(now.Add(time.Hour))
	_, err := guard.Extend(ticket, 9, agent(), settings)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Equal(t, 0, ticket.SlaExtensionCount)
}

func TestExtendManageTicketsBypassesCaps(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)
	settings := domain.OrganizationSettings{MaxExtensions: 1, MaxExtensionHours: 2}

	ticket := extendableTicket(now.Add(time.Hour))
	ticket.SlaExtensionCount = 5

	_, err := guard.Extend(ticket, 100, teamLead(), settings)
	require.NoError(t, err)
	assert.Equal(t, 6, ticket.SlaExtensionCount)
}

func TestExtendClearsBreach(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)

	due := now.Add(-time.Hour)
	breachedAt := now.Add(-30 * time.Minute)
	breached := domain.SlaStatusBreached
	ticket := extendableTicket(due)
	ticket.SlaStatus = &breached
	ticket.SlaBreachedAt = &breachedAt

	newDue, err := guard.Extend(ticket, 3, agent(), domain.OrganizationSettings{})
	require.NoError(t, err)
	assert.True(t, newDue.After(now))
	assert.Equal(t, domain.SlaStatusOnTrack, *ticket.SlaStatus)
	assert.Nil(t, ticket.SlaBreachedAt)
}

func TestExtendResultMustBeInFuture(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)

	// Due 10h in the past: +2h still lands before now.
	ticket := extendableTicket(now.Add(-10 * time.Hour))
	_, err := guard.Extend(ticket, 2, agent(), domain.OrganizationSettings{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	assert.Equal(t, 0, ticket.SlaExtensionCount)
}

func TestExtendRejectsClosedTicket(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)

	ticket := extendableTicket(now.Add(time.Hour))
	ticket.Status = domain.TicketStatusResolved

	_, err := guard.Extend(ticket, 1, agent(), domain.OrganizationSettings{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestExtendRejectsMissingDueDate(t *testing.T) {
	guard := NewExtensionGuard(FixedClock{Instant: time.Now()}, nil)
	ticket := &domain.Ticket{ID: "t", Status: domain.TicketStatusOpen}

	_, err := guard.Extend(ticket, 1, agent(), domain.OrganizationSettings{})
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestExtendRejectsNonPositiveHours(t *testing.T) {
	now := time.Date(2026, time.May, 4, 12, 0, 0, 0, time.UTC)
	guard := NewExtensionGuard(FixedClock{Instant: now}, nil)
	ticket := extendableTicket(now.Add(time.Hour))

	for _, hours := range []int{0, -3} {
		_, err := guard.Extend(ticket, hours, agent(), domain.OrganizationSettings{})
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
	}
	assert.Equal(t, 0, ticket.SlaExtensionCount)
}
