package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jpd-dfo/spacos/internal/domain"
)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type OrganizationRepo struct {
	db DB
}

func NewOrganizationRepo(db DB) *OrganizationRepo {
	return &OrganizationRepo{db: db}
}

func (r *OrganizationRepo) Create(ctx context.Context, o *domain.Organization) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO organizations (id, name, slug, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, o.Slug, o.CreatedAt, o.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("organizationRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("organizationRepo.Create: %w", err)
	}

	return nil
}

func (r *OrganizationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Organization, error) {
	var o domain.Organization

	err := r.db.QueryRow(ctx,
		`SELECT id, name, slug, created_at, updated_at
		 FROM organizations WHERE id = $1`,
		id,
	).Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("organizationRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.GetByID: %w", err)
	}

	return &o, nil
}

func (r *OrganizationRepo) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	var o domain.Organization

	err := r.db.QueryRow(ctx,
		`SELECT id, name, slug, created_at, updated_at
		 FROM organizations WHERE slug = $1`,
		slug,
	).Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("organizationRepo.GetBySlug: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.GetBySlug: %w", err)
	}

	return &o, nil
}

func (r *OrganizationRepo) Update(ctx context.Context, o *domain.Organization) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE organizations SET name = $1, slug = $2, updated_at = $3 WHERE id = $4`,
		o.Name, o.Slug, o.UpdatedAt, o.ID,
	)
	if err != nil {
		return fmt.Errorf("organizationRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("organizationRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *OrganizationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Organization, error) {
	rows, err := r.db.Query(ctx,
		`SELECT o.id, o.name, o.slug, o.created_at, o.updated_at
		 FROM organizations o
		 JOIN memberships m ON m.organization_id = o.id
		 WHERE m.user_id = $1
		 ORDER BY o.name, o.id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var orgs []*domain.Organization
	for rows.Next() {
		var o domain.Organization

		err = rows.Scan(&o.ID, &o.Name, &o.Slug, &o.CreatedAt, &o.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("organizationRepo.ListByUser: scan: %w", err)
		}
		orgs = append(orgs, &o)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("organizationRepo.ListByUser: rows: %w", err)
	}

	return orgs, nil
}

type MembershipRepo struct {
	db DB
}

func NewMembershipRepo(db DB) *MembershipRepo {
	return &MembershipRepo{db: db}
}

func (r *MembershipRepo) Create(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO memberships (id, organization_id, user_id, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.OrganizationID, m.UserID, m.Role, m.CreatedAt, m.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("membershipRepo.Create: %w", domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("membershipRepo.Create: %w", err)
	}

	return nil
}

func (r *MembershipRepo) Get(ctx context.Context, organizationID, userID uuid.UUID) (*domain.Membership, error) {
	var m domain.Membership

	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, user_id, role, created_at, updated_at
		 FROM memberships WHERE organization_id = $1 AND user_id = $2`,
		organizationID, userID,
	).Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("membershipRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.Get: %w", err)
	}

	return &m, nil
}

func (r *MembershipRepo) List(ctx context.Context, organizationID uuid.UUID) ([]*domain.Membership, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, organization_id, user_id, role, created_at, updated_at
		 FROM memberships WHERE organization_id = $1 ORDER BY created_at, id`,
		organizationID,
	)
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.List: %w", err)
	}
	defer rows.Close()

	var members []*domain.Membership
	for rows.Next() {
		var m domain.Membership

		err = rows.Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Role, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("membershipRepo.List: scan: %w", err)
		}
		members = append(members, &m)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("membershipRepo.List: rows: %w", err)
	}

	return members, nil
}

func (r *MembershipRepo) UpdateRole(ctx context.Context, organizationID, userID uuid.UUID, role domain.Role) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE memberships SET role = $1, updated_at = now()
		 WHERE organization_id = $2 AND user_id = $3`,
		role, organizationID, userID,
	)
	if err != nil {
		return fmt.Errorf("membershipRepo.UpdateRole: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membershipRepo.UpdateRole: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *MembershipRepo) Delete(ctx context.Context, organizationID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM memberships WHERE organization_id = $1 AND user_id = $2`,
		organizationID, userID,
	)
	if err != nil {
		return fmt.Errorf("membershipRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("membershipRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
