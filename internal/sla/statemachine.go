package sla

import (
	"time"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// ApproachingPolicy controls how far ahead of the due date a ticket enters
// APPROACHING_BREACH. LeadMinutes is a fixed head start; LeadPercent, when
// positive, is a share of the ticket's whole clock span (creation to due).
// The larger of the two wins.
type ApproachingPolicy struct {
	LeadMinutes int
	LeadPercent int
}

// Lead resolves the effective warning lead for one ticket.
func (p ApproachingPolicy) Lead(created, due time.Time) time.Duration {
	lead := time.Duration(p.LeadMinutes) * time.Minute
	if p.LeadPercent > 0 && due.After(created) {
		pct := due.Sub(created) * time.Duration(p.LeadPercent) / 100
		if pct > lead {
			lead = pct
		}
	}
	return lead
}

// Transition records a compliance state change for event emission.
type Transition struct {
	From domain.SlaStatus
	To   domain.SlaStatus
	At   time.Time
}

// ComplianceStateMachine is the single place allowed to move a ticket's
// compliance state forward and to set the breach timestamp.
type ComplianceStateMachine struct {
	clock  Clock
	policy ApproachingPolicy
}

// NewComplianceStateMachine constructs the state machine.
func NewComplianceStateMachine(clock Clock, policy ApproachingPolicy) *ComplianceStateMachine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ComplianceStateMachine{clock: clock, policy: policy}
}

// Advance moves the ticket forward along ON_TRACK -> APPROACHING_BREACH ->
// BREACHED based on the current time. A ticket already BREACHED or COMPLETED
// is left alone, which is what makes repeated sweeps idempotent. The breach
// timestamp is written exactly once, on the first transition into BREACHED.
func (m *ComplianceStateMachine) Advance(ticket *domain.Ticket) []Transition {
	if !ticket.HasOpenSla() {
		return nil
	}
	now := m.clock.Now()
	due := *ticket.SlaDueAt
	current := *ticket.SlaStatus

	if !now.Before(due) {
		breached := domain.SlaStatusBreached
		ticket.SlaStatus = &breached
		if ticket.SlaBreachedAt == nil {
			at := now
			ticket.SlaBreachedAt = &at
		}
		return []Transition{{From: current, To: breached, At: now}}
	}

	if current == domain.SlaStatusOnTrack {
		lead := m.policy.Lead(ticket.CreatedAt, due)
		if lead > 0 && !now.Before(due.Add(-lead)) {
			approaching := domain.SlaStatusApproachingBreach
			ticket.SlaStatus = &approaching
			return []Transition{{From: current, To: approaching, At: now}}
		}
	}
	return nil
}

// Complete marks the compliance clock finished because the ticket resolved
// or closed. A breach that already happened is never hidden by resolution.
func (m *ComplianceStateMachine) Complete(ticket *domain.Ticket) *Transition {
	if ticket.SlaStatus == nil {
		return nil
	}
	current := *ticket.SlaStatus
	if current == domain.SlaStatusBreached || current == domain.SlaStatusCompleted {
		return nil
	}
	completed := domain.SlaStatusCompleted
	ticket.SlaStatus = &completed
	return &Transition{From: current, To: completed, At: m.clock.Now()}
}
