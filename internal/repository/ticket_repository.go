package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// ErrVersionConflict signals a lost optimistic-concurrency race on the SLA
// fields: another writer updated the row since it was read. The caller should
// reload and retry, or leave it for the next sweep.
var ErrVersionConflict = errors.New("ticket row version conflict")

const ticketColumns = `
        id, external_key, requester_user_id, owning_team_id, assignee_staff_id,
        title, description, status, priority, category,
        sla_rule_id, sla_due_at, sla_breached_at, sla_status, sla_extension_count,
        snoozed_at, snoozed_until, unsnoozed_at,
        row_version, created_at, updated_at, closed_at`

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// UpdateSla writes only the SLA-owned fields, guarded by row_version.
	// Returns ErrVersionConflict when the guard fails.
	UpdateSla(ctx context.Context, ticket *domain.Ticket) error
	// ListOpenSlaBatch returns tickets with an open compliance state and a
	// due date, keyset-paginated by id so a sweep never needs one pass.
	ListOpenSlaBatch(ctx context.Context, afterID string, limit int) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (external_key, requester_user_id, owning_team_id, assignee_staff_id,
            title, description, status, priority, category,
            sla_rule_id, sla_due_at, sla_breached_at, sla_status, sla_extension_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, row_version, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ExternalKey,
		ticket.RequesterID,
		ticket.OwningTeamID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.SlaRuleID,
		ticket.SlaDueAt,
		ticket.SlaBreachedAt,
		ticket.SlaStatus,
		ticket.SlaExtensionCount,
	).Scan(&ticket.ID, &ticket.RowVersion, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET owning_team_id=$1, assignee_staff_id=$2, title=$3, description=$4,
            status=$5, priority=$6, category=$7,
            sla_rule_id=$8, sla_due_at=$9, sla_breached_at=$10, sla_status=$11, sla_extension_count=$12,
            snoozed_at=$13, snoozed_until=$14, unsnoozed_at=$15,
            closed_at=$16, row_version=row_version+1, updated_at=NOW()
        WHERE id=$17 AND row_version=$18
        RETURNING row_version`
	err := r.pool.QueryRow(ctx, query,
		ticket.OwningTeamID,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.Category,
		ticket.SlaRuleID,
		ticket.SlaDueAt,
		ticket.SlaBreachedAt,
		ticket.SlaStatus,
		ticket.SlaExtensionCount,
		ticket.SnoozedAt,
		ticket.SnoozedUntil,
		ticket.UnsnoozedAt,
		ticket.ClosedAt,
		ticket.ID,
		ticket.RowVersion,
	).Scan(&ticket.RowVersion)
	if err == pgx.ErrNoRows {
		return r.versionOrNotFound(ctx, ticket.ID)
	}
	return err
}

// UpdateSla persists only the fields the SLA engine owns, so the edit path
// and the breach scanner can interleave per-ticket without clobbering
// non-SLA columns.
func (r *ticketRepository) UpdateSla(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET sla_rule_id=$1, sla_due_at=$2, sla_breached_at=$3,
            sla_status=$4, sla_extension_count=$5,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$6 AND row_version=$7
        RETURNING row_version`
	err := r.pool.QueryRow(ctx, query,
		ticket.SlaRuleID,
		ticket.SlaDueAt,
		ticket.SlaBreachedAt,
		ticket.SlaStatus,
		ticket.SlaExtensionCount,
		ticket.ID,
		ticket.RowVersion,
	).Scan(&ticket.RowVersion)
	if err == pgx.ErrNoRows {
		return r.versionOrNotFound(ctx, ticket.ID)
	}
	return err
}

// versionOrNotFound disambiguates a zero-row update: either the row is gone
// or another writer bumped the version.
func (r *ticketRepository) versionOrNotFound(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return pgx.ErrNoRows
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(ticketScanTargets(&ticket)...); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) ListOpenSlaBatch(ctx context.Context, afterID string, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 200
	}
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE sla_due_at IS NOT NULL
          AND sla_status IN ('ON_TRACK','APPROACHING_BREACH')
          AND status NOT IN ('RESOLVED','CLOSED','CANCELLED')
          AND id::text > $1
        ORDER BY id::text ASC
        LIMIT $2`
	rows, err := r.pool.Query(ctx, query, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func ticketScanTargets(t *domain.Ticket) []any {
	return []any{
		&t.ID,
		&t.ExternalKey,
		&t.RequesterID,
		&t.OwningTeamID,
		&t.AssigneeID,
		&t.Title,
		&t.Description,
		&t.Status,
		&t.Priority,
		&t.Category,
		&t.SlaRuleID,
		&t.SlaDueAt,
		&t.SlaBreachedAt,
		&t.SlaStatus,
		&t.SlaExtensionCount,
		&t.SnoozedAt,
		&t.SnoozedUntil,
		&t.UnsnoozedAt,
		&t.RowVersion,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.ClosedAt,
	}
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(ticketScanTargets(&ticket)...); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
