package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

func openTicket(created, due time.Time, status domain.SlaStatus) *domain.Ticket {
	return &domain.Ticket{
		ID:        "ticket-1",
		Status:    domain.TicketStatusOpen,
		CreatedAt: created,
		SlaDueAt:  &due,
		SlaStatus: &status,
	}
}

func TestAdvanceOnTrackBeforeLead(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(8 * time.Hour)
	machine := NewComplianceStateMachine(FixedClock{Instant: created.Add(time.Hour)}, ApproachingPolicy{LeadMinutes: 60})

	ticket := openTicket(created, due, domain.SlaStatusOnTrack)
	assert.Empty(t, machine.Advance(ticket))
	assert.Equal(t, domain.SlaStatusOnTrack, *ticket.SlaStatus)
}

func TestAdvanceIntoApproaching(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(8 * time.Hour)
	now := due.Add(-30 * time.Minute)
	machine := NewComplianceStateMachine(FixedClock{Instant: now}, ApproachingPolicy{LeadMinutes: 60})

	ticket := openTicket(created, due, domain.SlaStatusOnTrack)
	transitions := machine.Advance(ticket)
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.SlaStatusOnTrack, transitions[0].From)
	assert.Equal(t, domain.SlaStatusApproachingBreach, transitions[0].To)
	assert.Equal(t, domain.SlaStatusApproachingBreach, *ticket.SlaStatus)
	assert.Nil(t, ticket.SlaBreachedAt)
}

func TestAdvancePercentLeadWinsWhenLarger(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(10 * time.Hour)
	// 20% of 10h = 2h lead, larger than the fixed 30 minutes.
	machine := NewComplianceStateMachine(
		FixedClock{Instant: due.Add(-90 * time.Minute)},
		ApproachingPolicy{LeadMinutes: 30, LeadPercent: 20},
	)

	ticket := openTicket(created, due, domain.SlaStatusOnTrack)
	transitions := machine.Advance(ticket)
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.SlaStatusApproachingBreach, transitions[0].To)
}

func TestAdvanceStraightToBreached(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(time.Hour)
	now := due.Add(45 * time.Minute)
	machine := NewComplianceStateMachine(FixedClock{Instant: now}, ApproachingPolicy{LeadMinutes: 60})

	// A sweep that lands after the due date never stops at APPROACHING.
	ticket := openTicket(created, due, domain.SlaStatusOnTrack)
	transitions := machine.Advance(ticket)
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.SlaStatusOnTrack, transitions[0].From)
	assert.Equal(t, domain.SlaStatusBreached, transitions[0].To)
	require.NotNil(t, ticket.SlaBreachedAt)
	assert.Equal(t, now, *ticket.SlaBreachedAt)
}

func TestAdvanceExactlyAtDueIsBreach(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(time.Hour)
	machine := NewComplianceStateMachine(FixedClock{Instant: due}, ApproachingPolicy{})

	ticket := openTicket(created, due, domain.SlaStatusOnTrack)
	transitions := machine.Advance(ticket)
	require.Len(t, transitions, 1)
	assert.Equal(t, domain.SlaStatusBreached, transitions[0].To)
}

func TestAdvanceBreachedIsIdempotent(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(time.Hour)
	machine := NewComplianceStateMachine(FixedClock{Instant: due.Add(time.Hour)}, ApproachingPolicy{})

	ticket := openTicket(created, due, domain.SlaStatusOnTrack)
	first := machine.Advance(ticket)
	require.Len(t, first, 1)
	breachedAt := *ticket.SlaBreachedAt

	// HasOpenSla is false once BREACHED: repeated sweeps are no-ops.
	second := machine.Advance(ticket)
	assert.Empty(t, second)
	assert.Equal(t, breachedAt, *ticket.SlaBreachedAt)
}

func TestAdvanceSkipsTicketsWithoutOpenSla(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	machine := NewComplianceStateMachine(FixedClock{Instant: created}, ApproachingPolicy{})

	noDue := &domain.Ticket{ID: "t", Status: domain.TicketStatusOpen, CreatedAt: created}
	assert.Empty(t, machine.Advance(noDue))

	due := created.Add(time.Hour)
	completed := openTicket(created, due, domain.SlaStatusCompleted)
	assert.Empty(t, machine.Advance(completed))
}

func TestCompleteFromOpenStates(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(time.Hour)
	machine := NewComplianceStateMachine(FixedClock{Instant: created.Add(30 * time.Minute)}, ApproachingPolicy{})

	for _, from := range []domain.SlaStatus{domain.SlaStatusOnTrack, domain.SlaStatusApproachingBreach} {
		ticket := openTicket(created, due, from)
		transition := machine.Complete(ticket)
		require.NotNil(t, transition)
		assert.Equal(t, from, transition.From)
		assert.Equal(t, domain.SlaStatusCompleted, transition.To)
		assert.Equal(t, domain.SlaStatusCompleted, *ticket.SlaStatus)
	}
}

func TestCompleteNeverHidesBreach(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(time.Hour)
	machine := NewComplianceStateMachine(FixedClock{Instant: due}, ApproachingPolicy{})

	ticket := openTicket(created, due, domain.SlaStatusBreached)
	assert.Nil(t, machine.Complete(ticket))
	assert.Equal(t, domain.SlaStatusBreached, *ticket.SlaStatus)
}

func TestCompleteWithoutSlaIsNoop(t *testing.T) {
	machine := NewComplianceStateMachine(nil, ApproachingPolicy{})
	ticket := &domain.Ticket{ID: "t", Status: domain.TicketStatusOpen}
	assert.Nil(t, machine.Complete(ticket))
	assert.Nil(t, ticket.SlaStatus)
}

func TestLeadZeroPolicyNeverApproaches(t *testing.T) {
	created := time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)
	due := created.Add(time.Hour)
	machine := NewComplianceStateMachine(FixedClock{Instant: due.Add(-time.Minute)}, ApproachingPolicy{})

	ticket := openTicket(created, due, domain.SlaStatusOnTrack)
	assert.Empty(t, machine.Advance(ticket))
}
