package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/query"
)

var targetSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"valuation":  "valuation",
}

type TargetRepo struct {
	db DB
}

func NewTargetRepo(db DB) *TargetRepo {
	return &TargetRepo{db: db}
}

func (r *TargetRepo) Create(ctx context.Context, t *domain.Target) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO targets (id, organization_id, spac_id, name, sector, description, status, valuation, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.OrganizationID, t.SPACID, t.Name, t.Sector, t.Description, t.Status, t.Valuation, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("targetRepo.Create: %w", err)
	}

	return nil
}

func (r *TargetRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.Target, error) {
	var t domain.Target

	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, spac_id, name, sector, description, status, valuation, created_at, updated_at
		 FROM targets WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	).Scan(&t.ID, &t.OrganizationID, &t.SPACID, &t.Name, &t.Sector, &t.Description, &t.Status, &t.Valuation, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("targetRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("targetRepo.GetByID: %w", err)
	}

	return &t, nil
}

func (r *TargetRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Target, int, error) {
	where, args := listFilter(organizationID, spec, []string{"name", "sector", "description"})

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM targets WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("targetRepo.List: count: %w", err)
	}

	args = append(args, spec.Limit(), spec.Offset())
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(
			`SELECT id, organization_id, spac_id, name, sector, description, status, valuation, created_at, updated_at
			 FROM targets WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			where, orderBy(targetSortColumns, spec), len(args)-1, len(args),
		),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("targetRepo.List: %w", err)
	}
	defer rows.Close()

	var targets []*domain.Target
	for rows.Next() {
		var t domain.Target

		err = rows.Scan(&t.ID, &t.OrganizationID, &t.SPACID, &t.Name, &t.Sector, &t.Description, &t.Status, &t.Valuation, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("targetRepo.List: scan: %w", err)
		}
		targets = append(targets, &t)
	}
	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("targetRepo.List: rows: %w", err)
	}

	return targets, total, nil
}

func (r *TargetRepo) Update(ctx context.Context, t *domain.Target) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE targets SET spac_id = $1, name = $2, sector = $3, description = $4, status = $5, valuation = $6, updated_at = $7
		 WHERE organization_id = $8 AND id = $9`,
		t.SPACID, t.Name, t.Sector, t.Description, t.Status, t.Valuation, t.UpdatedAt, t.OrganizationID, t.ID,
	)
	if err != nil {
		return fmt.Errorf("targetRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("targetRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TargetRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM targets WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	)
	if err != nil {
		return fmt.Errorf("targetRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("targetRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
