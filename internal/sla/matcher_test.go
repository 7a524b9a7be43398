package sla

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

func makeRule(t *testing.T, id string, priority, position int, conditions domain.RuleConditions) domain.SlaRule {
	t.Helper()
	raw, err := json.Marshal(conditions)
	require.NoError(t, err)
	return domain.SlaRule{
		ID:                      id,
		Name:                    id,
		ConditionsRaw:           raw,
		TargetResolutionMinutes: 60,
		IsActive:                true,
		Priority:                priority,
		Position:                position,
	}
}

func strPtr(s string) *string { return &s }

func priPtr(p domain.TicketPriority) *domain.TicketPriority { return &p }

func TestMatchFirstByPriorityThenPosition(t *testing.T) {
	ticket := &domain.Ticket{Priority: domain.TicketPriorityHigh, Category: "billing"}
	rules := []domain.SlaRule{
		makeRule(t, "later", 2, 0, domain.RuleConditions{Priority: priPtr(domain.TicketPriorityHigh)}),
		makeRule(t, "second", 1, 5, domain.RuleConditions{Category: strPtr("billing")}),
		makeRule(t, "first", 1, 1, domain.RuleConditions{Priority: priPtr(domain.TicketPriorityHigh)}),
	}

	matched := NewRuleMatcher(nil).Match(ticket, rules)
	require.NotNil(t, matched)
	assert.Equal(t, "first", matched.ID)
}

func TestMatchSkipsInactiveRules(t *testing.T) {
	ticket := &domain.Ticket{Priority: domain.TicketPriorityLow}
	inactive := makeRule(t, "inactive", 0, 0, domain.RuleConditions{})
	inactive.IsActive = false
	fallback := makeRule(t, "fallback", 9, 0, domain.RuleConditions{})

	matched := NewRuleMatcher(nil).Match(ticket, []domain.SlaRule{inactive, fallback})
	require.NotNil(t, matched)
	assert.Equal(t, "fallback", matched.ID)
}

func TestMatchEmptyConditionsMatchEverything(t *testing.T) {
	ticket := &domain.Ticket{Priority: domain.TicketPriorityUrgent, Category: "anything"}
	rules := []domain.SlaRule{makeRule(t, "catch-all", 100, 0, domain.RuleConditions{})}

	matched := NewRuleMatcher(nil).Match(ticket, rules)
	require.NotNil(t, matched)
	assert.Equal(t, "catch-all", matched.ID)
}

func TestMatchAllConditionsMustHold(t *testing.T) {
	team := "team-1"
	ticket := &domain.Ticket{
		Priority:     domain.TicketPriorityHigh,
		Category:     "billing",
		OwningTeamID: &team,
	}
	rules := []domain.SlaRule{
		makeRule(t, "wrong-team", 0, 0, domain.RuleConditions{
			Priority:     priPtr(domain.TicketPriorityHigh),
			OwningTeamID: strPtr("team-2"),
		}),
		makeRule(t, "exact", 1, 0, domain.RuleConditions{
			Priority:     priPtr(domain.TicketPriorityHigh),
			Category:     strPtr("billing"),
			OwningTeamID: strPtr("team-1"),
		}),
	}

	matched := NewRuleMatcher(nil).Match(ticket, rules)
	require.NotNil(t, matched)
	assert.Equal(t, "exact", matched.ID)
}

func TestMatchCaseInsensitiveStrings(t *testing.T) {
	ticket := &domain.Ticket{Priority: domain.TicketPriorityHigh, Category: "Billing"}
	rules := []domain.SlaRule{
		makeRule(t, "ci", 0, 0, domain.RuleConditions{Category: strPtr("BILLING")}),
	}

	assert.NotNil(t, NewRuleMatcher(nil).Match(ticket, rules))
}

func TestMatchTeamConditionNeedsTicketTeam(t *testing.T) {
	ticket := &domain.Ticket{Priority: domain.TicketPriorityHigh}
	rules := []domain.SlaRule{
		makeRule(t, "team-bound", 0, 0, domain.RuleConditions{OwningTeamID: strPtr("team-1")}),
	}

	assert.Nil(t, NewRuleMatcher(nil).Match(ticket, rules))
}

func TestMatchSkipsMalformedConditions(t *testing.T) {
	ticket := &domain.Ticket{Priority: domain.TicketPriorityHigh}
	broken := domain.SlaRule{
		ID:            "broken",
		ConditionsRaw: json.RawMessage(`{"priority":`),
		IsActive:      true,
		Priority:      0,
	}
	good := makeRule(t, "good", 1, 0, domain.RuleConditions{})

	matched := NewRuleMatcher(nil).Match(ticket, []domain.SlaRule{broken, good})
	require.NotNil(t, matched)
	assert.Equal(t, "good", matched.ID)
}

func TestMatchNoRules(t *testing.T) {
	ticket := &domain.Ticket{Priority: domain.TicketPriorityHigh}
	assert.Nil(t, NewRuleMatcher(nil).Match(ticket, nil))
}
