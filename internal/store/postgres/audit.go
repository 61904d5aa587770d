package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/domain"
)

type AuditRepo struct {
	db DB
}

func NewAuditRepo(db DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Record(ctx context.Context, entry *domain.AuditEntry) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_entries (id, organization_id, user_id, action, resource, resource_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.OrganizationID, entry.UserID, entry.Action, entry.Resource, entry.ResourceID, entry.Details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("auditRepo.Record: %w", err)
	}

	return nil
}

func (r *AuditRepo) List(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*domain.AuditEntry, int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM audit_entries WHERE organization_id = $1`,
		organizationID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List: count: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, organization_id, user_id, action, resource, resource_id, details, created_at
		 FROM audit_entries WHERE organization_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		organizationID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("auditRepo.List: %w", err)
	}

	return entries, total, nil
}

func (r *AuditRepo) ListByResource(ctx context.Context, organizationID uuid.UUID, resource string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, organization_id, user_id, action, resource, resource_id, details, created_at
		 FROM audit_entries WHERE organization_id = $1 AND resource = $2 AND resource_id = $3
		 ORDER BY created_at DESC, id DESC`,
		organizationID, resource, resourceID,
	)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByResource: %w", err)
	}
	defer rows.Close()

	entries, err := scanAuditRows(rows)
	if err != nil {
		return nil, fmt.Errorf("auditRepo.ListByResource: %w", err)
	}

	return entries, nil
}

type auditRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanAuditRows(rows auditRows) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry

		err := rows.Scan(&e.ID, &e.OrganizationID, &e.UserID, &e.Action, &e.Resource, &e.ResourceID, &e.Details, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return entries, nil
}
