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

var contactSortColumns = map[string]string{
	"created_at": "created_at",
	"name":       "name",
	"firm":       "firm",
}

type ContactRepo struct {
	db DB
}

func NewContactRepo(db DB) *ContactRepo {
	return &ContactRepo{db: db}
}

func (r *ContactRepo) Create(ctx context.Context, c *domain.Contact) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO contacts (id, organization_id, name, email, firm, title, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.OrganizationID, c.Name, c.Email, c.Firm, c.Title, c.Notes, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("contactRepo.Create: %w", err)
	}

	return nil
}

func (r *ContactRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.Contact, error) {
	var c domain.Contact

	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, name, email, firm, title, notes, created_at, updated_at
		 FROM contacts WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	).Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Firm, &c.Title, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("contactRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("contactRepo.GetByID: %w", err)
	}

	return &c, nil
}

func (r *ContactRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Contact, int, error) {
	where, args := listFilter(organizationID, query.Spec{Search: spec.Search}, []string{"name", "email", "firm"})
	// Contacts carry no status column; only search applies.
	_ = spec.Status

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM contacts WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("contactRepo.List: count: %w", err)
	}

	args = append(args, spec.Limit(), spec.Offset())
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(
			`SELECT id, organization_id, name, email, firm, title, notes, created_at, updated_at
			 FROM contacts WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			where, orderBy(contactSortColumns, spec), len(args)-1, len(args),
		),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("contactRepo.List: %w", err)
	}
	defer rows.Close()

	var contacts []*domain.Contact
	for rows.Next() {
		var c domain.Contact

		err = rows.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Email, &c.Firm, &c.Title, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("contactRepo.List: scan: %w", err)
		}
		contacts = append(contacts, &c)
	}
	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("contactRepo.List: rows: %w", err)
	}

	return contacts, total, nil
}

func (r *ContactRepo) Update(ctx context.Context, c *domain.Contact) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE contacts SET name = $1, email = $2, firm = $3, title = $4, notes = $5, updated_at = $6
		 WHERE organization_id = $7 AND id = $8`,
		c.Name, c.Email, c.Firm, c.Title, c.Notes, c.UpdatedAt, c.OrganizationID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("contactRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contactRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *ContactRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM contacts WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	)
	if err != nil {
		return fmt.Errorf("contactRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("contactRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
