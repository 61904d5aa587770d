package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/guard"
	"github.com/jpd-dfo/spacos/internal/query"
)

// spacSortFields is the sortBy allow-list for SPAC listings; the first
// entry is the default.
var spacSortFields = []string{"created_at", "name", "ticker", "deadline"}

type CreateSPACInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	Body           struct {
		Name        string     `json:"name" minLength:"1" maxLength:"255" doc:"SPAC name"`
		Ticker      string     `json:"ticker" minLength:"1" maxLength:"12" doc:"Exchange ticker"`
		Description string     `json:"description,omitempty" doc:"Free-text description"`
		Status      string     `json:"status,omitempty" doc:"Lifecycle status"`
		TrustAmount int64      `json:"trust_amount,omitempty" minimum:"0" doc:"Trust value in USD cents"`
		Deadline    *time.Time `json:"deadline,omitempty" doc:"Business combination deadline"`
		CIK         string     `json:"cik,omitempty" maxLength:"10" doc:"SEC CIK number"`
	}
}

type SPACOutput struct {
	Body *domain.SPAC
}

type ListSPACsInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ListParams
}

type ListSPACsOutput struct {
	Body query.Page[*domain.SPAC]
}

type GetSPACInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"SPAC ID"`
}

type UpdateSPACInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"SPAC ID"`
	Body           struct {
		Name        string     `json:"name,omitempty" maxLength:"255" doc:"SPAC name"`
		Ticker      string     `json:"ticker,omitempty" maxLength:"12" doc:"Exchange ticker"`
		Description *string    `json:"description,omitempty" doc:"Free-text description"`
		Status      string     `json:"status,omitempty" doc:"Lifecycle status"`
		TrustAmount *int64     `json:"trust_amount,omitempty" doc:"Trust value in USD cents"`
		Deadline    *time.Time `json:"deadline,omitempty" doc:"Business combination deadline"`
		CIK         *string    `json:"cik,omitempty" doc:"SEC CIK number"`
	}
}

type DeleteSPACInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"SPAC ID"`
}

func RegisterSPACRoutes(api huma.API, store domain.Store, g *guard.Guard, bus ActivityBus) {
	huma.Register(api, huma.Operation{
		OperationID: "create-spac",
		Method:      http.MethodPost,
		Path:        "/spacs",
		Summary:     "Create a SPAC record",
		Tags:        []string{"SPACs"},
	}, func(ctx context.Context, input *CreateSPACInput) (*SPACOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		status := domain.SPACStatusPreIPO
		if input.Body.Status != "" {
			status = domain.SPACStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown SPAC status " + input.Body.Status)
			}
		}

		now := time.Now()
		s := &domain.SPAC{
			ID:             uuid.New(),
			OrganizationID: input.OrganizationID,
			Name:           input.Body.Name,
			Ticker:         input.Body.Ticker,
			Description:    input.Body.Description,
			Status:         status,
			TrustAmount:    input.Body.TrustAmount,
			Deadline:       input.Body.Deadline,
			CIK:            input.Body.CIK,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		entry := newAudit(m, "create", "spac", s.ID, map[string]any{"name": s.Name, "ticker": s.Ticker})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.SPACs().Create(ctx, s); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("ticker already in use")
			}
			return nil, huma.Error500InternalServerError("failed to create SPAC", err)
		}

		publishActivity(ctx, bus, entry)
		return &SPACOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-spacs",
		Method:      http.MethodGet,
		Path:        "/spacs",
		Summary:     "List SPACs in an organization",
		Tags:        []string{"SPACs"},
	}, func(ctx context.Context, input *ListSPACsInput) (*ListSPACsOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		if input.Status != "" && !domain.SPACStatus(input.Status).Valid() {
			return nil, huma.Error400BadRequest("unknown SPAC status " + input.Status)
		}

		spec, err := query.Build(input.params(), query.Options{SortFields: spacSortFields})
		if err != nil {
			return nil, queryErr(err)
		}

		spacs, total, err := store.SPACs().List(ctx, input.OrganizationID, spec)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list SPACs", err)
		}

		return &ListSPACsOutput{Body: query.NewPage(spacs, total, spec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-spac",
		Method:      http.MethodGet,
		Path:        "/spacs/{id}",
		Summary:     "Get a SPAC by ID",
		Tags:        []string{"SPACs"},
	}, func(ctx context.Context, input *GetSPACInput) (*SPACOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		s, err := store.SPACs().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("SPAC not found")
			}
			return nil, huma.Error500InternalServerError("failed to get SPAC", err)
		}

		return &SPACOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-spac",
		Method:      http.MethodPut,
		Path:        "/spacs/{id}",
		Summary:     "Update a SPAC",
		Tags:        []string{"SPACs"},
	}, func(ctx context.Context, input *UpdateSPACInput) (*SPACOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		existing, err := store.SPACs().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("SPAC not found")
			}
			return nil, huma.Error500InternalServerError("failed to get SPAC", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Ticker != "" {
			existing.Ticker = input.Body.Ticker
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.Status != "" {
			status := domain.SPACStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown SPAC status " + input.Body.Status)
			}
			existing.Status = status
		}
		if input.Body.TrustAmount != nil {
			existing.TrustAmount = *input.Body.TrustAmount
		}
		if input.Body.Deadline != nil {
			existing.Deadline = input.Body.Deadline
		}
		if input.Body.CIK != nil {
			existing.CIK = *input.Body.CIK
		}
		existing.UpdatedAt = time.Now()

		entry := newAudit(m, "update", "spac", existing.ID, map[string]any{"status": string(existing.Status)})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.SPACs().Update(ctx, existing); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("ticker already in use")
			}
			return nil, huma.Error500InternalServerError("failed to update SPAC", err)
		}

		publishActivity(ctx, bus, entry)
		return &SPACOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-spac",
		Method:      http.MethodDelete,
		Path:        "/spacs/{id}",
		Summary:     "Delete a SPAC (admin or owner)",
		Tags:        []string{"SPACs"},
	}, func(ctx context.Context, input *DeleteSPACInput) (*struct{}, error) {
		m, err := g.RequireRole(ctx, input.OrganizationID, domain.RoleAdmin)
		if err != nil {
			return nil, guardErr(err)
		}

		entry := newAudit(m, "delete", "spac", input.ID, nil)
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.SPACs().Delete(ctx, input.OrganizationID, input.ID); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("SPAC not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete SPAC", err)
		}

		publishActivity(ctx, bus, entry)
		return nil, nil
	})
}
