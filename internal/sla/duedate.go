package sla

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
	apperrors "github.com/RaythaHQ/ticket-system-sub001/pkg/util"
)

// RuleSource supplies the active rule set, ordered by priority then position.
type RuleSource interface {
	ActiveRules(ctx context.Context) ([]domain.SlaRule, error)
}

// DueDateEngine assigns SLA rules and due dates to tickets. It mutates the
// ticket in memory; persistence is the caller's transaction.
type DueDateEngine struct {
	rules   RuleSource
	matcher *RuleMatcher
	calc    *BusinessHoursCalculator
	clock   Clock
	logger  *zap.Logger
}

// NewDueDateEngine constructs the engine.
func NewDueDateEngine(rules RuleSource, clock Clock, logger *zap.Logger) *DueDateEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &DueDateEngine{
		rules:   rules,
		matcher: NewRuleMatcher(logger),
		calc:    NewBusinessHoursCalculator(logger),
		clock:   clock,
		logger:  logger,
	}
}

// EvaluateAndAssign runs rule matching for the ticket and writes SlaRuleID,
// SlaDueAt and, when previously unset, SlaStatus. Called on creation and on
// edits to priority, category or owning team. When re-evaluation resolves the
// same rule that is already assigned, the existing due date is preserved so
// unrelated edits never restart the clock. A no-match result clears the SLA
// fields unless the compliance state is already COMPLETED.
func (e *DueDateEngine) EvaluateAndAssign(ctx context.Context, ticket *domain.Ticket) (*domain.SlaRule, error) {
	return e.evaluate(ctx, ticket, ticket.CreatedAt, false)
}

// Refresh is the operator-triggered variant. With restartClock the due date
// is recomputed from the current instant even for an unchanged rule, the
// compliance state resets to ON_TRACK and any breach timestamp is cleared.
func (e *DueDateEngine) Refresh(ctx context.Context, ticket *domain.Ticket, restartClock bool) (*domain.SlaRule, error) {
	start := ticket.CreatedAt
	if restartClock {
		start = e.clock.Now()
	}
	return e.evaluate(ctx, ticket, start, restartClock)
}

func (e *DueDateEngine) evaluate(ctx context.Context, ticket *domain.Ticket, start time.Time, restartClock bool) (*domain.SlaRule, error) {
	if ticket.IsClosed() {
		return nil, apperrors.NewConflict("Cannot modify SLA on a closed ticket", map[string]any{
			"ticket_id": ticket.ID,
			"status":    ticket.Status,
		})
	}

	rules, err := e.rules.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	rule := e.matcher.Match(ticket, rules)
	if rule == nil {
		e.clearAssignment(ticket)
		return nil, nil
	}

	sameRule := ticket.SlaRuleID != nil && *ticket.SlaRuleID == rule.ID
	if sameRule && !restartClock {
		// Unchanged rule on a re-evaluation: keep the running clock.
		return rule, nil
	}

	cfg, err := rule.BusinessHours()
	if err != nil {
		e.logger.Warn("business hours payload unreadable, using calendar time",
			zap.String("rule_id", rule.ID), zap.Error(err))
		cfg = nil
	}

	due := e.calc.DueDate(start, rule.TargetResolutionMinutes, cfg)
	ruleID := rule.ID
	ticket.SlaRuleID = &ruleID
	ticket.SlaDueAt = &due
	if ticket.SlaStatus == nil {
		onTrack := domain.SlaStatusOnTrack
		ticket.SlaStatus = &onTrack
	}
	if restartClock {
		onTrack := domain.SlaStatusOnTrack
		ticket.SlaStatus = &onTrack
		ticket.SlaBreachedAt = nil
	}
	return rule, nil
}

// clearAssignment drops the rule binding. A breach timestamp that already
// exists stays; only an extension or a clock-restarting refresh may erase it.
func (e *DueDateEngine) clearAssignment(ticket *domain.Ticket) {
	ticket.SlaRuleID = nil
	ticket.SlaDueAt = nil
	if ticket.SlaStatus != nil && *ticket.SlaStatus != domain.SlaStatusCompleted {
		ticket.SlaStatus = nil
	}
}
