package sla

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// RuleMatcher selects the applicable SLA rule for a ticket from the active
// rule set. Matching is first-match-wins over rules ordered by rule priority
// ascending, then declaration order.
type RuleMatcher struct {
	logger *zap.Logger
}

// NewRuleMatcher constructs a matcher.
func NewRuleMatcher(logger *zap.Logger) *RuleMatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleMatcher{logger: logger}
}

// Match returns the first active rule whose conditions all hold for the
// ticket, or nil when no rule applies. A rule with an unparseable condition
// document is skipped with a warning, never fatal.
func (m *RuleMatcher) Match(ticket *domain.Ticket, rules []domain.SlaRule) *domain.SlaRule {
	ordered := make([]domain.SlaRule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Priority != ordered[j].Priority {
			return ordered[i].Priority < ordered[j].Priority
		}
		return ordered[i].Position < ordered[j].Position
	})

	for i := range ordered {
		rule := &ordered[i]
		if !rule.IsActive {
			continue
		}
		conditions, err := rule.Conditions()
		if err != nil {
			m.logger.Warn("skipping SLA rule with malformed conditions",
				zap.String("rule_id", rule.ID),
				zap.String("rule_name", rule.Name),
				zap.Error(err))
			continue
		}
		if conditionsMatch(conditions, ticket) {
			return rule
		}
	}
	return nil
}

func conditionsMatch(c domain.RuleConditions, ticket *domain.Ticket) bool {
	if c.Priority != nil && !strings.EqualFold(string(*c.Priority), string(ticket.Priority)) {
		return false
	}
	if c.Category != nil && !strings.EqualFold(*c.Category, ticket.Category) {
		return false
	}
	if c.OwningTeamID != nil {
		if ticket.OwningTeamID == nil {
			return false
		}
		if !strings.EqualFold(*c.OwningTeamID, *ticket.OwningTeamID) {
			return false
		}
	}
	return true
}
