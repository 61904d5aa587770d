package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/query"
)

var documentSortColumns = map[string]string{
	"created_at": "created_at",
	"title":      "title",
	"kind":       "kind",
}

type DocumentRepo struct {
	db DB
}

func NewDocumentRepo(db DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, d *domain.Document) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO documents (id, organization_id, spac_id, title, kind, storage_key, content_text, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		d.ID, d.OrganizationID, d.SPACID, d.Title, d.Kind, d.StorageKey, d.ContentText, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.Create: %w", err)
	}

	return nil
}

func (r *DocumentRepo) GetByID(ctx context.Context, organizationID, id uuid.UUID) (*domain.Document, error) {
	var d domain.Document

	err := r.db.QueryRow(ctx,
		`SELECT id, organization_id, spac_id, title, kind, storage_key, content_text, created_at, updated_at
		 FROM documents WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	).Scan(&d.ID, &d.OrganizationID, &d.SPACID, &d.Title, &d.Kind, &d.StorageKey, &d.ContentText, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("documentRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("documentRepo.GetByID: %w", err)
	}

	return &d, nil
}

// List pages documents. The status filter selects the document kind.
func (r *DocumentRepo) List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*domain.Document, int, error) {
	where := "organization_id = $1"
	args := []any{organizationID}

	if spec.Status != "" {
		args = append(args, spec.Status)
		where += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if spec.Search != "" {
		args = append(args, "%"+spec.Search+"%")
		where += fmt.Sprintf(" AND title ILIKE $%d", len(args))
	}

	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM documents WHERE `+where, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List: count: %w", err)
	}

	args = append(args, spec.Limit(), spec.Offset())
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(
			`SELECT id, organization_id, spac_id, title, kind, storage_key, content_text, created_at, updated_at
			 FROM documents WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
			where, orderBy(documentSortColumns, spec), len(args)-1, len(args),
		),
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List: %w", err)
	}
	defer rows.Close()

	var docs []*domain.Document
	for rows.Next() {
		var d domain.Document

		err = rows.Scan(&d.ID, &d.OrganizationID, &d.SPACID, &d.Title, &d.Kind, &d.StorageKey, &d.ContentText, &d.CreatedAt, &d.UpdatedAt)
		if err != nil {
			return nil, 0, fmt.Errorf("documentRepo.List: scan: %w", err)
		}
		docs = append(docs, &d)
	}
	err = rows.Err()
	if err != nil {
		return nil, 0, fmt.Errorf("documentRepo.List: rows: %w", err)
	}

	return docs, total, nil
}

func (r *DocumentRepo) Update(ctx context.Context, d *domain.Document) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE documents SET spac_id = $1, title = $2, kind = $3, storage_key = $4, content_text = $5, updated_at = $6
		 WHERE organization_id = $7 AND id = $8`,
		d.SPACID, d.Title, d.Kind, d.StorageKey, d.ContentText, d.UpdatedAt, d.OrganizationID, d.ID,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *DocumentRepo) Delete(ctx context.Context, organizationID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM documents WHERE organization_id = $1 AND id = $2`,
		organizationID, id,
	)
	if err != nil {
		return fmt.Errorf("documentRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("documentRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

// AnalysisRepo is the persisted deal-score cache: one row per document.
type AnalysisRepo struct {
	db DB
}

func NewAnalysisRepo(db DB) *AnalysisRepo {
	return &AnalysisRepo{db: db}
}

func (r *AnalysisRepo) Get(ctx context.Context, documentID uuid.UUID) (*domain.DocumentAnalysis, error) {
	var a domain.DocumentAnalysis

	err := r.db.QueryRow(ctx,
		`SELECT document_id, score, summary, risks, model, created_at, expires_at
		 FROM document_analyses WHERE document_id = $1`,
		documentID,
	).Scan(&a.DocumentID, &a.Score, &a.Summary, &a.Risks, &a.Model, &a.CreatedAt, &a.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("analysisRepo.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("analysisRepo.Get: %w", err)
	}

	return &a, nil
}

func (r *AnalysisRepo) Upsert(ctx context.Context, a *domain.DocumentAnalysis) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO document_analyses (document_id, score, summary, risks, model, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (document_id) DO UPDATE
		 SET score = EXCLUDED.score, summary = EXCLUDED.summary, risks = EXCLUDED.risks,
		     model = EXCLUDED.model, created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`,
		a.DocumentID, a.Score, a.Summary, a.Risks, a.Model, a.CreatedAt, a.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("analysisRepo.Upsert: %w", err)
	}

	return nil
}

// Invalidate drops the cached analysis for a document. Deleting a row that
// does not exist is not an error: invalidation is idempotent.
func (r *AnalysisRepo) Invalidate(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM document_analyses WHERE document_id = $1`,
		documentID,
	)
	if err != nil {
		return fmt.Errorf("analysisRepo.Invalidate: %w", err)
	}

	return nil
}

func (r *AnalysisRepo) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM document_analyses WHERE expires_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("analysisRepo.DeleteExpired: %w", err)
	}

	return tag.RowsAffected(), nil
}
