package sla

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

type staticRules struct {
	rules []domain.SlaRule
	err   error
}

func (s staticRules) ActiveRules(context.Context) ([]domain.SlaRule, error) {
	return s.rules, s.err
}

func newTicket(priority domain.TicketPriority, createdAt time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:        "ticket-1",
		Status:    domain.TicketStatusOpen,
		Priority:  priority,
		CreatedAt: createdAt,
	}
}

func TestEvaluateAssignsRuleAndDueDate(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	rule := makeRule(t, "rule-1", 0, 0, domain.RuleConditions{Priority: priPtr(domain.TicketPriorityHigh)})
	rule.TargetResolutionMinutes = 240

	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{rule}}, FixedClock{Instant: created}, nil)
	ticket := newTicket(domain.TicketPriorityHigh, created)

	matched, err := engine.EvaluateAndAssign(context.Background(), ticket)
	require.NoError(t, err)
	require.NotNil(t, matched)

	require.NotNil(t, ticket.SlaRuleID)
	assert.Equal(t, "rule-1", *ticket.SlaRuleID)
	require.NotNil(t, ticket.SlaDueAt)
	assert.Equal(t, created.Add(4*time.Hour), *ticket.SlaDueAt)
	require.NotNil(t, ticket.SlaStatus)
	assert.Equal(t, domain.SlaStatusOnTrack, *ticket.SlaStatus)
}

func TestEvaluateUsesBusinessHours(t *testing.T) {
	created := time.Date(2026, time.January, 9, 15, 0, 0, 0, time.UTC) // Friday
	rule := makeRule(t, "rule-bh", 0, 0, domain.RuleConditions{})
	rule.TargetResolutionMinutes = 480
	rule.BusinessHoursEnabled = true
	raw, err := json.Marshal(domain.BusinessHoursConfig{
		Workdays:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartOfDay: "09:00",
		EndOfDay:   "17:00",
	})
	require.NoError(t, err)
	rule.BusinessHoursRaw = raw

	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{rule}}, FixedClock{Instant: created}, nil)
	ticket := newTicket(domain.TicketPriorityLow, created)

	_, err = engine.EvaluateAndAssign(context.Background(), ticket)
	require.NoError(t, err)
	require.NotNil(t, ticket.SlaDueAt)
	assert.Equal(t, time.Date(2026, time.January, 12, 15, 0, 0, 0, time.UTC), *ticket.SlaDueAt)
}

func TestEvaluateSameRuleKeepsDueDate(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	rule := makeRule(t, "rule-1", 0, 0, domain.RuleConditions{})
	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{rule}}, FixedClock{Instant: created.Add(time.Hour)}, nil)

	ruleID := "rule-1"
	due := created.Add(time.Hour)
	status := domain.SlaStatusApproachingBreach
	ticket := newTicket(domain.TicketPriorityLow, created)
	ticket.SlaRuleID = &ruleID
	ticket.SlaDueAt = &due
	ticket.SlaStatus = &status

	_, err := engine.EvaluateAndAssign(context.Background(), ticket)
	require.NoError(t, err)
	assert.Equal(t, due, *ticket.SlaDueAt)
	assert.Equal(t, domain.SlaStatusApproachingBreach, *ticket.SlaStatus)
}

func TestEvaluateRuleChangeRecomputesFromCreation(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	urgent := makeRule(t, "urgent", 0, 0, domain.RuleConditions{Priority: priPtr(domain.TicketPriorityUrgent)})
	urgent.TargetResolutionMinutes = 60
	slow := makeRule(t, "slow", 1, 0, domain.RuleConditions{})
	slow.TargetResolutionMinutes = 600

	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{urgent, slow}}, FixedClock{Instant: created.Add(2 * time.Hour)}, nil)

	slowID := "slow"
	oldDue := created.Add(10 * time.Hour)
	status := domain.SlaStatusOnTrack
	ticket := newTicket(domain.TicketPriorityUrgent, created)
	ticket.SlaRuleID = &slowID
	ticket.SlaDueAt = &oldDue
	ticket.SlaStatus = &status

	matched, err := engine.EvaluateAndAssign(context.Background(), ticket)
	require.NoError(t, err)
	require.NotNil(t, matched)
	assert.Equal(t, "urgent", matched.ID)
	assert.Equal(t, created.Add(time.Hour), *ticket.SlaDueAt)
}

func TestEvaluateNoMatchClearsAssignment(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	rule := makeRule(t, "urgent-only", 0, 0, domain.RuleConditions{Priority: priPtr(domain.TicketPriorityUrgent)})
	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{rule}}, FixedClock{Instant: created}, nil)

	ruleID := "urgent-only"
	due := created.Add(time.Hour)
	breached := created.Add(2 * time.Hour)
	status := domain.SlaStatusBreached
	ticket := newTicket(domain.TicketPriorityLow, created)
	ticket.SlaRuleID = &ruleID
	ticket.SlaDueAt = &due
	ticket.SlaBreachedAt = &breached
	ticket.SlaStatus = &status

	matched, err := engine.EvaluateAndAssign(context.Background(), ticket)
	require.NoError(t, err)
	assert.Nil(t, matched)
	assert.Nil(t, ticket.SlaRuleID)
	assert.Nil(t, ticket.SlaDueAt)
	assert.Nil(t, ticket.SlaStatus)
	// History keeps the breach: the timestamp survives a rule unbind.
	require.NotNil(t, ticket.SlaBreachedAt)
	assert.Equal(t, breached, *ticket.SlaBreachedAt)
}

func TestEvaluateNoMatchKeepsCompletedStatus(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	engine := NewDueDateEngine(staticRules{}, FixedClock{Instant: created}, nil)

	completed := domain.SlaStatusCompleted
	ticket := newTicket(domain.TicketPriorityLow, created)
	ticket.SlaStatus = &completed

	_, err := engine.EvaluateAndAssign(context.Background(), ticket)
	require.NoError(t, err)
	require.NotNil(t, ticket.SlaStatus)
	assert.Equal(t, domain.SlaStatusCompleted, *ticket.SlaStatus)
}

func TestEvaluateClosedTicketRejected(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	engine := NewDueDateEngine(staticRules{}, FixedClock{Instant: created}, nil)

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusCancelled,
	} {
		ticket := newTicket(domain.TicketPriorityLow, created)
		ticket.Status = status

		_, err := engine.EvaluateAndAssign(context.Background(), ticket)
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, "CONFLICT"))
		assert.Nil(t, ticket.SlaRuleID)
		assert.Nil(t, ticket.SlaDueAt)
	}
}

func TestEvaluateRuleSourceErrorPropagates(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	boom := errors.New("db down")
	engine := NewDueDateEngine(staticRules{err: boom}, FixedClock{Instant: created}, nil)

	_, err := engine.EvaluateAndAssign(context.Background(), newTicket(domain.TicketPriorityLow, created))
	assert.ErrorIs(t, err, boom)
}

func TestRefreshRestartClockRecomputesFromNow(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	now := created.Add(6 * time.Hour)
	rule := makeRule(t, "rule-1", 0, 0, domain.RuleConditions{})
	rule.TargetResolutionMinutes = 120

	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{rule}}, FixedClock{Instant: now}, nil)

	ruleID := "rule-1"
	oldDue := created.Add(2 * time.Hour)
	breachedAt := created.Add(3 * time.Hour)
	status := domain.SlaStatusBreached
	ticket := newTicket(domain.TicketPriorityLow, created)
	ticket.SlaRuleID = &ruleID
	ticket.SlaDueAt = &oldDue
	ticket.SlaBreachedAt = &breachedAt
	ticket.SlaStatus = &status

	_, err := engine.Refresh(context.Background(), ticket, true)
	require.NoError(t, err)
	assert.Equal(t, now.Add(2*time.Hour), *ticket.SlaDueAt)
	assert.Equal(t, domain.SlaStatusOnTrack, *ticket.SlaStatus)
	assert.Nil(t, ticket.SlaBreachedAt)
}

func TestRefreshWithoutRestartKeepsRunningClock(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	rule := makeRule(t, "rule-1", 0, 0, domain.RuleConditions{})
	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{rule}}, FixedClock{Instant: created.Add(time.Hour)}, nil)

	ruleID := "rule-1"
	due := created.Add(time.Hour)
	ticket := newTicket(domain.TicketPriorityLow, created)
	ticket.SlaRuleID = &ruleID
	ticket.SlaDueAt = &due
	onTrack := domain.SlaStatusOnTrack
	ticket.SlaStatus = &onTrack

	_, err := engine.Refresh(context.Background(), ticket, false)
	require.NoError(t, err)
	assert.Equal(t, due, *ticket.SlaDueAt)
}

func TestEvaluateMalformedBusinessHoursFallsBackToCalendar(t *testing.T) {
	created := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	rule := makeRule(t, "rule-bad-bh", 0, 0, domain.RuleConditions{})
	rule.TargetResolutionMinutes = 60
	rule.BusinessHoursEnabled = true
	rule.BusinessHoursRaw = json.RawMessage(`{"workdays":`)

	engine := NewDueDateEngine(staticRules{rules: []domain.SlaRule{rule}}, FixedClock{Instant: created}, nil)
	ticket := newTicket(domain.TicketPriorityLow, created)

	_, err := engine.EvaluateAndAssign(context.Background(), ticket)
	require.NoError(t, err)
	require.NotNil(t, ticket.SlaDueAt)
	assert.Equal(t, created.Add(time.Hour), *ticket.SlaDueAt)
}
