package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// OrganizationRepository reads org-level settings. The service is
// single-tenant: one settings row, seeded by migration.
type OrganizationRepository interface {
	GetSettings(ctx context.Context) (*domain.OrganizationSettings, error)
	UpdateSettings(ctx context.Context, settings *domain.OrganizationSettings) error
}

type organizationRepository struct {
	pool *pgxpool.Pool
}

// NewOrganizationRepository instantiates repository.
func NewOrganizationRepository(pool *pgxpool.Pool) OrganizationRepository {
	return &organizationRepository{pool: pool}
}

func (r *organizationRepository) GetSettings(ctx context.Context) (*domain.OrganizationSettings, error) {
	const query = `
        SELECT id, name, pause_sla_on_snooze, max_extensions, max_extension_hours, created_at, updated_at
        FROM organizations ORDER BY created_at ASC LIMIT 1`
	var s domain.OrganizationSettings
	if err := r.pool.QueryRow(ctx, query).Scan(
		&s.ID,
		&s.Name,
		&s.PauseSlaOnSnooze,
		&s.MaxExtensions,
		&s.MaxExtensionHours,
		&s.CreatedAt,
		&s.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *organizationRepository) UpdateSettings(ctx context.Context, settings *domain.OrganizationSettings) error {
	const query = `
        UPDATE organizations
        SET name=$1, pause_sla_on_snooze=$2, max_extensions=$3, max_extension_hours=$4, updated_at=NOW()
        WHERE id=$5`
	_, err := r.pool.Exec(ctx, query,
		settings.Name,
		settings.PauseSlaOnSnooze,
		settings.MaxExtensions,
		settings.MaxExtensionHours,
		settings.ID,
	)
	return err
}
