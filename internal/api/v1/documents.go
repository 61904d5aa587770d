package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/ai"
	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/guard"
	"github.com/jpd-dfo/spacos/internal/query"
)

var documentSortFields = []string{"created_at", "title", "kind"}

type CreateDocumentInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	Body           struct {
		SPACID      *uuid.UUID `json:"spac_id,omitempty" doc:"SPAC this document belongs to"`
		Title       string     `json:"title" minLength:"1" maxLength:"255" doc:"Document title"`
		Kind        string     `json:"kind" doc:"Document kind"`
		StorageKey  string     `json:"storage_key,omitempty" maxLength:"512" doc:"Object-storage key of the file body"`
		ContentText string     `json:"content_text,omitempty" doc:"Extracted plain text used for AI scoring"`
	}
}

type DocumentOutput struct {
	Body *domain.Document
}

type ListDocumentsInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ListParams
}

type ListDocumentsOutput struct {
	Body query.Page[*domain.Document]
}

type GetDocumentInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Document ID"`
}

type UpdateDocumentInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Document ID"`
	Body           struct {
		SPACID      *uuid.UUID `json:"spac_id,omitempty" doc:"SPAC this document belongs to"`
		Title       string     `json:"title,omitempty" maxLength:"255" doc:"Document title"`
		Kind        string     `json:"kind,omitempty" doc:"Document kind"`
		StorageKey  *string    `json:"storage_key,omitempty" doc:"Object-storage key of the file body"`
		ContentText *string    `json:"content_text,omitempty" doc:"Extracted plain text used for AI scoring"`
	}
}

type DeleteDocumentInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Document ID"`
}

type AnalyzeDocumentInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Document ID"`
	Force          bool      `query:"force" doc:"Re-score even when a fresh analysis exists"`
}

type AnalysisBody struct {
	DocumentID uuid.UUID `json:"document_id"`
	Score      int       `json:"score"`
	Summary    string    `json:"summary"`
	Risks      []string  `json:"risks"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
	Cached     bool      `json:"cached"`
}

type AnalyzeDocumentOutput struct {
	Body AnalysisBody
}

func RegisterDocumentRoutes(api huma.API, store domain.Store, g *guard.Guard, bus ActivityBus, scorer Scorer, analysisTTL time.Duration) {
	huma.Register(api, huma.Operation{
		OperationID: "create-document",
		Method:      http.MethodPost,
		Path:        "/documents",
		Summary:     "Create a document record",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *CreateDocumentInput) (*DocumentOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		kind := domain.DocumentKind(input.Body.Kind)
		if !kind.Valid() {
			return nil, huma.Error400BadRequest("unknown document kind " + input.Body.Kind)
		}

		now := time.Now()
		d := &domain.Document{
			ID:             uuid.New(),
			OrganizationID: input.OrganizationID,
			SPACID:         input.Body.SPACID,
			Title:          input.Body.Title,
			Kind:           kind,
			StorageKey:     input.Body.StorageKey,
			ContentText:    input.Body.ContentText,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		entry := newAudit(m, "create", "document", d.ID, map[string]any{"title": d.Title, "kind": string(d.Kind)})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Documents().Create(ctx, d); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create document", err)
		}

		publishActivity(ctx, bus, entry)
		return &DocumentOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-documents",
		Method:      http.MethodGet,
		Path:        "/documents",
		Summary:     "List documents",
		Description: "The status parameter filters by document kind.",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *ListDocumentsInput) (*ListDocumentsOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		if input.Status != "" && !domain.DocumentKind(input.Status).Valid() {
			return nil, huma.Error400BadRequest("unknown document kind " + input.Status)
		}

		spec, err := query.Build(input.params(), query.Options{SortFields: documentSortFields})
		if err != nil {
			return nil, queryErr(err)
		}

		docs, total, err := store.Documents().List(ctx, input.OrganizationID, spec)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list documents", err)
		}

		return &ListDocumentsOutput{Body: query.NewPage(docs, total, spec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-document",
		Method:      http.MethodGet,
		Path:        "/documents/{id}",
		Summary:     "Get a document by ID",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *GetDocumentInput) (*DocumentOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		d, err := store.Documents().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("document not found")
			}
			return nil, huma.Error500InternalServerError("failed to get document", err)
		}

		return &DocumentOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-document",
		Method:      http.MethodPut,
		Path:        "/documents/{id}",
		Summary:     "Update a document",
		Description: "Updating a document invalidates its stored analysis.",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *UpdateDocumentInput) (*DocumentOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		existing, err := store.Documents().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("document not found")
			}
			return nil, huma.Error500InternalServerError("failed to get document", err)
		}

		if input.Body.SPACID != nil {
			existing.SPACID = input.Body.SPACID
		}
		if input.Body.Title != "" {
			existing.Title = input.Body.Title
		}
		if input.Body.Kind != "" {
			kind := domain.DocumentKind(input.Body.Kind)
			if !kind.Valid() {
				return nil, huma.Error400BadRequest("unknown document kind " + input.Body.Kind)
			}
			existing.Kind = kind
		}
		if input.Body.StorageKey != nil {
			existing.StorageKey = *input.Body.StorageKey
		}
		if input.Body.ContentText != nil {
			existing.ContentText = *input.Body.ContentText
		}
		existing.UpdatedAt = time.Now()

		entry := newAudit(m, "update", "document", existing.ID, map[string]any{"title": existing.Title})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Documents().Update(ctx, existing); err != nil {
				return err
			}
			if err := tx.Analyses().Invalidate(ctx, existing.ID); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to update document", err)
		}

		publishActivity(ctx, bus, entry)
		return &DocumentOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-document",
		Method:      http.MethodDelete,
		Path:        "/documents/{id}",
		Summary:     "Delete a document (admin or owner)",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *DeleteDocumentInput) (*struct{}, error) {
		m, err := g.RequireRole(ctx, input.OrganizationID, domain.RoleAdmin)
		if err != nil {
			return nil, guardErr(err)
		}

		entry := newAudit(m, "delete", "document", input.ID, nil)
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Analyses().Invalidate(ctx, input.ID); err != nil {
				return err
			}
			if err := tx.Documents().Delete(ctx, input.OrganizationID, input.ID); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("document not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete document", err)
		}

		publishActivity(ctx, bus, entry)
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "analyze-document",
		Method:      http.MethodPost,
		Path:        "/documents/{id}/analyze",
		Summary:     "Score a document with AI",
		Description: "Returns the stored analysis when one exists and is fresh; otherwise scores the document and persists the result for the configured TTL.",
		Tags:        []string{"Documents"},
	}, func(ctx context.Context, input *AnalyzeDocumentInput) (*AnalyzeDocumentOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		doc, err := store.Documents().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("document not found")
			}
			return nil, huma.Error500InternalServerError("failed to get document", err)
		}

		now := time.Now()
		if !input.Force {
			stored, err := store.Analyses().Get(ctx, doc.ID)
			if err == nil && !stored.Expired(now) {
				return &AnalyzeDocumentOutput{Body: analysisBody(stored, true)}, nil
			}
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error500InternalServerError("failed to read analysis", err)
			}
		}

		if doc.ContentText == "" {
			return nil, huma.Error400BadRequest("document has no extracted text to score")
		}

		verdict, err := scorer.ScoreDocument(ctx, doc.Title, doc.ContentText)
		if err != nil {
			if errors.Is(err, ai.ErrUpstream) {
				return nil, huma.Error502BadGateway("scoring service unavailable")
			}
			return nil, huma.Error500InternalServerError("failed to score document", err)
		}

		analysis := &domain.DocumentAnalysis{
			DocumentID: doc.ID,
			Score:      verdict.Score,
			Summary:    verdict.Summary,
			Risks:      verdict.Risks,
			Model:      scorer.Model(),
			CreatedAt:  now,
			ExpiresAt:  now.Add(analysisTTL),
		}

		entry := newAudit(m, "analyze", "document", doc.ID, map[string]any{"score": analysis.Score})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Analyses().Upsert(ctx, analysis); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to store analysis", err)
		}

		publishActivity(ctx, bus, entry)
		return &AnalyzeDocumentOutput{Body: analysisBody(analysis, false)}, nil
	})
}

func analysisBody(a *domain.DocumentAnalysis, cached bool) AnalysisBody {
	return AnalysisBody{
		DocumentID: a.DocumentID,
		Score:      a.Score,
		Summary:    a.Summary,
		Risks:      a.Risks,
		Model:      a.Model,
		CreatedAt:  a.CreatedAt,
		ExpiresAt:  a.ExpiresAt,
		Cached:     cached,
	}
}
