package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// SlaRuleRepository encapsulates SLA rule persistence.
type SlaRuleRepository interface {
	Create(ctx context.Context, rule *domain.SlaRule) error
	GetByID(ctx context.Context, id string) (*domain.SlaRule, error)
	// ActiveRules returns the active set ordered by priority ascending then
	// declaration order, the order the matcher walks.
	ActiveRules(ctx context.Context) ([]domain.SlaRule, error)
	ListAll(ctx context.Context) ([]domain.SlaRule, error)
}

const slaRuleColumns = `
        id, name, description, conditions, target_resolution_minutes, target_close_minutes,
        business_hours_enabled, business_hours, breach_behavior,
        is_active, priority, position, created_at, updated_at`

type slaRuleRepository struct {
	pool *pgxpool.Pool
}

// NewSlaRuleRepository instantiates repository.
func NewSlaRuleRepository(pool *pgxpool.Pool) SlaRuleRepository {
	return &slaRuleRepository{pool: pool}
}

func (r *slaRuleRepository) Create(ctx context.Context, rule *domain.SlaRule) error {
	const query = `
        INSERT INTO sla_rules (name, description, conditions, target_resolution_minutes, target_close_minutes,
            business_hours_enabled, business_hours, breach_behavior, is_active, priority, position)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		rule.Name,
		rule.Description,
		rule.ConditionsRaw,
		rule.TargetResolutionMinutes,
		rule.TargetCloseMinutes,
		rule.BusinessHoursEnabled,
		rule.BusinessHoursRaw,
		rule.BreachBehaviorRaw,
		rule.IsActive,
		rule.Priority,
		rule.Position,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *slaRuleRepository) GetByID(ctx context.Context, id string) (*domain.SlaRule, error) {
	query := `SELECT ` + slaRuleColumns + ` FROM sla_rules WHERE id=$1`
	var rule domain.SlaRule
	if err := r.pool.QueryRow(ctx, query, id).Scan(slaRuleScanTargets(&rule)...); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *slaRuleRepository) ActiveRules(ctx context.Context) ([]domain.SlaRule, error) {
	query := `SELECT ` + slaRuleColumns + `
        FROM sla_rules WHERE is_active
        ORDER BY priority ASC, position ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlaRules(rows)
}

func (r *slaRuleRepository) ListAll(ctx context.Context) ([]domain.SlaRule, error) {
	query := `SELECT ` + slaRuleColumns + `
        FROM sla_rules ORDER BY priority ASC, position ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSlaRules(rows)
}

func slaRuleScanTargets(rule *domain.SlaRule) []any {
	return []any{
		&rule.ID,
		&rule.Name,
		&rule.Description,
		&rule.ConditionsRaw,
		&rule.TargetResolutionMinutes,
		&rule.TargetCloseMinutes,
		&rule.BusinessHoursEnabled,
		&rule.BusinessHoursRaw,
		&rule.BreachBehaviorRaw,
		&rule.IsActive,
		&rule.Priority,
		&rule.Position,
		&rule.CreatedAt,
		&rule.UpdatedAt,
	}
}

func scanSlaRules(rows pgx.Rows) ([]domain.SlaRule, error) {
	var result []domain.SlaRule
	for rows.Next() {
		var rule domain.SlaRule
		if err := rows.Scan(slaRuleScanTargets(&rule)...); err != nil {
			return nil, err
		}
		result = append(result, rule)
	}
	return result, rows.Err()
}
