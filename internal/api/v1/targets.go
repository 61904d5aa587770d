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

var targetSortFields = []string{"created_at", "name", "valuation"}

type CreateTargetInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	Body           struct {
		SPACID      *uuid.UUID `json:"spac_id,omitempty" doc:"SPAC this target is tracked against"`
		Name        string     `json:"name" minLength:"1" maxLength:"255" doc:"Target company name"`
		Sector      string     `json:"sector,omitempty" maxLength:"120" doc:"Industry sector"`
		Description string     `json:"description,omitempty" doc:"Free-text notes"`
		Status      string     `json:"status,omitempty" doc:"Evaluation status"`
		Valuation   int64      `json:"valuation,omitempty" minimum:"0" doc:"Estimated valuation in USD cents"`
	}
}

type TargetOutput struct {
	Body *domain.Target
}

type ListTargetsInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ListParams
}

type ListTargetsOutput struct {
	Body query.Page[*domain.Target]
}

type GetTargetInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Target ID"`
}

type UpdateTargetInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Target ID"`
	Body           struct {
		SPACID      *uuid.UUID `json:"spac_id,omitempty" doc:"SPAC this target is tracked against"`
		Name        string     `json:"name,omitempty" maxLength:"255" doc:"Target company name"`
		Sector      *string    `json:"sector,omitempty" doc:"Industry sector"`
		Description *string    `json:"description,omitempty" doc:"Free-text notes"`
		Status      string     `json:"status,omitempty" doc:"Evaluation status"`
		Valuation   *int64     `json:"valuation,omitempty" doc:"Estimated valuation in USD cents"`
	}
}

type DeleteTargetInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Target ID"`
}

func RegisterTargetRoutes(api huma.API, store domain.Store, g *guard.Guard, bus ActivityBus) {
	huma.Register(api, huma.Operation{
		OperationID: "create-target",
		Method:      http.MethodPost,
		Path:        "/targets",
		Summary:     "Create an acquisition target",
		Tags:        []string{"Targets"},
	}, func(ctx context.Context, input *CreateTargetInput) (*TargetOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		status := domain.TargetStatusIdentified
		if input.Body.Status != "" {
			status = domain.TargetStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown target status " + input.Body.Status)
			}
		}

		now := time.Now()
		t := &domain.Target{
			ID:             uuid.New(),
			OrganizationID: input.OrganizationID,
			SPACID:         input.Body.SPACID,
			Name:           input.Body.Name,
			Sector:         input.Body.Sector,
			Description:    input.Body.Description,
			Status:         status,
			Valuation:      input.Body.Valuation,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		entry := newAudit(m, "create", "target", t.ID, map[string]any{"name": t.Name})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Targets().Create(ctx, t); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create target", err)
		}

		publishActivity(ctx, bus, entry)
		return &TargetOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-targets",
		Method:      http.MethodGet,
		Path:        "/targets",
		Summary:     "List acquisition targets",
		Tags:        []string{"Targets"},
	}, func(ctx context.Context, input *ListTargetsInput) (*ListTargetsOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		if input.Status != "" && !domain.TargetStatus(input.Status).Valid() {
			return nil, huma.Error400BadRequest("unknown target status " + input.Status)
		}

		spec, err := query.Build(input.params(), query.Options{SortFields: targetSortFields})
		if err != nil {
			return nil, queryErr(err)
		}

		targets, total, err := store.Targets().List(ctx, input.OrganizationID, spec)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list targets", err)
		}

		return &ListTargetsOutput{Body: query.NewPage(targets, total, spec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-target",
		Method:      http.MethodGet,
		Path:        "/targets/{id}",
		Summary:     "Get a target by ID",
		Tags:        []string{"Targets"},
	}, func(ctx context.Context, input *GetTargetInput) (*TargetOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		t, err := store.Targets().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("target not found")
			}
			return nil, huma.Error500InternalServerError("failed to get target", err)
		}

		return &TargetOutput{Body: t}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-target",
		Method:      http.MethodPut,
		Path:        "/targets/{id}",
		Summary:     "Update a target",
		Tags:        []string{"Targets"},
	}, func(ctx context.Context, input *UpdateTargetInput) (*TargetOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		existing, err := store.Targets().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("target not found")
			}
			return nil, huma.Error500InternalServerError("failed to get target", err)
		}

		if input.Body.SPACID != nil {
			existing.SPACID = input.Body.SPACID
		}
		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Sector != nil {
			existing.Sector = *input.Body.Sector
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.Status != "" {
			status := domain.TargetStatus(input.Body.Status)
			if !status.Valid() {
				return nil, huma.Error400BadRequest("unknown target status " + input.Body.Status)
			}
			existing.Status = status
		}
		if input.Body.Valuation != nil {
			existing.Valuation = *input.Body.Valuation
		}
		existing.UpdatedAt = time.Now()

		entry := newAudit(m, "update", "target", existing.ID, map[string]any{"status": string(existing.Status)})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Targets().Update(ctx, existing); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to update target", err)
		}

		publishActivity(ctx, bus, entry)
		return &TargetOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-target",
		Method:      http.MethodDelete,
		Path:        "/targets/{id}",
		Summary:     "Delete a target (admin or owner)",
		Tags:        []string{"Targets"},
	}, func(ctx context.Context, input *DeleteTargetInput) (*struct{}, error) {
		m, err := g.RequireRole(ctx, input.OrganizationID, domain.RoleAdmin)
		if err != nil {
			return nil, guardErr(err)
		}

		entry := newAudit(m, "delete", "target", input.ID, nil)
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Targets().Delete(ctx, input.OrganizationID, input.ID); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("target not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete target", err)
		}

		publishActivity(ctx, bus, entry)
		return nil, nil
	})
}
