package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/query"
)

// spacSortColumns maps allow-listed sort field names onto columns. The
// query builder already rejected anything outside the allow-list.
var spacSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"ticker":     "ticker",
	"deadline":   "deadline",
}

type SPACRepo struct {
	db DB
}

func NewSPACRepo(db DB) *SPACRepo {
	return &SPACRepo{db: db}
}

func (r *SPACRepo) Create(ctx context.Context, s *domain.SPAC) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO spacs (id, organization_id, name, ticker, description, status, trust_amount, deadline, cik, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.OrganizationID, s.Name, s.Ticker, s.Description, s.Status, s.TrustAmount, s.Deadline, s.CIK, s.CreatedAt, s.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("spacRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("spacRepo.Create: %w", err)
	}

	return nil
}

func (r *SPACRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.SPAC, error) {
	var s domain.SPAC

	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, name, ticker, description, status, trust_amount, deadline, cik, created_at, updated_at
		 FROM spacs WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	).Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Ticker, &s.Description, &s.Status, &s.TrustAmount, &s.Deadline, &s.CIK, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("spacRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("spacRepo.GetByID: %w", err)
	}

	return &s, nil
}

// List returns one page of SPACs plus the total match count. Search is a
// case-insensitive substring match over name, ticker and description.
// Ordering carries a secondary id tie-break so pagination is deterministic
// when many rows share a sort value.
func (r *SPACRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.SPAC, int, error) {
	where, args := listFilter(organizationID, spec, []string{"name", "ticker", "description"})

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM spacs WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("spacRepo.List: count: %w", err)
	}

	args = append(args, spec.Limit(), spec.Offset())
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(
			`SELECT id, organization_id, name, ticker, description, status, trust_amount, deadline, cik, created_at, updated_at
			 FROM spacs WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			where, orderBy(spacSortColumns, spec), len(args)-1, len(args),
		),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("spacRepo.List: %w", err)
	}
	defer rows.Close()

	var spacs []*domain.SPAC
	for rows.Next() {
		var s domain.SPAC

		err = rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Ticker, &s.Description, &s.Status, &s.TrustAmount, &s.Deadline, &s.CIK, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("spacRepo.List: scan: %w", err)
		}
		spacs = append(spacs, &s)
	}
	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("spacRepo.List: rows: %w", err)
	}

	return spacs, total, nil
}

// ListDeadlinesBefore returns active SPACs with a deadline on or before the
// cutoff, ordered soonest first. Used by the reminder job, so it crosses
// organization boundaries.
func (r *SPACRepo) ListDeadlinesBefore(ctx context.Context, cutoff time.Time) ([]*domain.SPAC, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, organization_id, name, ticker, description, status, trust_amount, deadline, cik, created_at, updated_at
		 FROM spacs
		 WHERE deadline IS NOT NULL AND deadline <= $1 AND status NOT IN ($2, $3)
		 ORDER BY deadline, id`,
		cutoff, domain.SPACStatusCompleted, domain.SPACStatusLiquidated,
	)
	if err != nil {
		return nil, fmt.Errorf("spacRepo.ListDeadlinesBefore: %w", err)
	}
	defer rows.Close()

	var spacs []*domain.SPAC
	for rows.Next() {
		var s domain.SPAC

		err = rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.Ticker, &s.Description, &s.Status, &s.TrustAmount, &s.Deadline, &s.CIK, &s.CreatedAt, &s.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("spacRepo.ListDeadlinesBefore: scan: %w", err)
		}
		spacs = append(spacs, &s)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("spacRepo.ListDeadlinesBefore: rows: %w", err)
	}

	return spacs, nil
}

func (r *SPACRepo) Update(ctx context.Context, s *domain.SPAC) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE spacs SET name = $1, ticker = $2, description = $3, status = $4, trust_amount = $5, deadline = $6, cik = $7, updated_at = $8
		 WHERE organization_id = $9 AND id = $10`,
		s.Name, s.Ticker, s.Description, s.Status, s.TrustAmount, s.Deadline, s.CIK, s.UpdatedAt, s.OrganizationID, s.ID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("spacRepo.Update: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("spacRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("spacRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *SPACRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM spacs WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	)
	if err != nil {
		return fmt.Errorf("spacRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("spacRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

// listFilter builds the WHERE clause shared by the list repositories:
// organization scope, optional status equality, optional OR'd ILIKE search
// over the given text columns.
func listFilter(organizationID uuid.UUID, spec query.Spec, searchColumns []string) (string, []any) {
	where := []string{"organization_id = $1"}
	args := []any{organizationID}

	if spec.Status != "" {
		args = append(args, spec.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	if spec.Search != "" {
		args = append(args, "%"+spec.Search+"%")
		n := len(args)
		parts := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			parts[i] = fmt.Sprintf("%s ILIKE $%d", col, n)
		}
		where = append(where, "("+strings.Join(parts, " OR ")+")")
	}

	return strings.Join(where, " AND "), args
}

// orderBy renders the ORDER BY expression from an allow-listed column map
// with a secondary id tie-break.
func orderBy(columns map[string]string, spec query.Spec) string {
	col, ok := columns[spec.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if spec.Descending {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s, id %s", col, dir, dir)
}
