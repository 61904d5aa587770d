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

var contactSortFields = []string{"created_at", "name", "firm"}

type CreateContactInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	Body           struct {
		Name  string `json:"name" minLength:"1" maxLength:"255" doc:"Contact name"`
		Email string `json:"email,omitempty" format:"email" doc:"Email address"`
		Firm  string `json:"firm,omitempty" maxLength:"255" doc:"Firm or company"`
		Title string `json:"title,omitempty" maxLength:"255" doc:"Job title"`
		Notes string `json:"notes,omitempty" doc:"Free-text notes"`
	}
}

type ContactOutput struct {
	Body *domain.Contact
}

type ListContactsInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ListParams
}

type ListContactsOutput struct {
	Body query.Page[*domain.Contact]
}

type GetContactInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Contact ID"`
}

type UpdateContactInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Contact ID"`
	Body           struct {
		Name  string  `json:"name,omitempty" maxLength:"255" doc:"Contact name"`
		Email *string `json:"email,omitempty" doc:"Email address"`
		Firm  *string `json:"firm,omitempty" doc:"Firm or company"`
		Title *string `json:"title,omitempty" doc:"Job title"`
		Notes *string `json:"notes,omitempty" doc:"Free-text notes"`
	}
}

type DeleteContactInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	ID             uuid.UUID `path:"id" doc:"Contact ID"`
}

func RegisterContactRoutes(api huma.API, store domain.Store, g *guard.Guard, bus ActivityBus) {
	huma.Register(api, huma.Operation{
		OperationID: "create-contact",
		Method:      http.MethodPost,
		Path:        "/contacts",
		Summary:     "Create a contact",
		Tags:        []string{"Contacts"},
	}, func(ctx context.Context, input *CreateContactInput) (*ContactOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		now := time.Now()
		c := &domain.Contact{
			ID:             uuid.New(),
			OrganizationID: input.OrganizationID,
			Name:           input.Body.Name,
			Email:          input.Body.Email,
			Firm:           input.Body.Firm,
			Title:          input.Body.Title,
			Notes:          input.Body.Notes,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		entry := newAudit(m, "create", "contact", c.ID, map[string]any{"name": c.Name})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Contacts().Create(ctx, c); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to create contact", err)
		}

		publishActivity(ctx, bus, entry)
		return &ContactOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-contacts",
		Method:      http.MethodGet,
		Path:        "/contacts",
		Summary:     "List contacts",
		Tags:        []string{"Contacts"},
	}, func(ctx context.Context, input *ListContactsInput) (*ListContactsOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		spec, err := query.Build(input.params(), query.Options{SortFields: contactSortFields})
		if err != nil {
			return nil, queryErr(err)
		}

		contacts, total, err := store.Contacts().List(ctx, input.OrganizationID, spec)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list contacts", err)
		}

		return &ListContactsOutput{Body: query.NewPage(contacts, total, spec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-contact",
		Method:      http.MethodGet,
		Path:        "/contacts/{id}",
		Summary:     "Get a contact by ID",
		Tags:        []string{"Contacts"},
	}, func(ctx context.Context, input *GetContactInput) (*ContactOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		c, err := store.Contacts().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("contact not found")
			}
			return nil, huma.Error500InternalServerError("failed to get contact", err)
		}

		return &ContactOutput{Body: c}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-contact",
		Method:      http.MethodPut,
		Path:        "/contacts/{id}",
		Summary:     "Update a contact",
		Tags:        []string{"Contacts"},
	}, func(ctx context.Context, input *UpdateContactInput) (*ContactOutput, error) {
		m, err := g.Require(ctx, input.OrganizationID)
		if err != nil {
			return nil, guardErr(err)
		}

		existing, err := store.Contacts().GetByID(ctx, input.OrganizationID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("contact not found")
			}
			return nil, huma.Error500InternalServerError("failed to get contact", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Email != nil {
			existing.Email = *input.Body.Email
		}
		if input.Body.Firm != nil {
			existing.Firm = *input.Body.Firm
		}
		if input.Body.Title != nil {
			existing.Title = *input.Body.Title
		}
		if input.Body.Notes != nil {
			existing.Notes = *input.Body.Notes
		}
		existing.UpdatedAt = time.Now()

		entry := newAudit(m, "update", "contact", existing.ID, map[string]any{"name": existing.Name})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Contacts().Update(ctx, existing); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to update contact", err)
		}

		publishActivity(ctx, bus, entry)
		return &ContactOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-contact",
		Method:      http.MethodDelete,
		Path:        "/contacts/{id}",
		Summary:     "Delete a contact (admin or owner)",
		Tags:        []string{"Contacts"},
	}, func(ctx context.Context, input *DeleteContactInput) (*struct{}, error) {
		m, err := g.RequireRole(ctx, input.OrganizationID, domain.RoleAdmin)
		if err != nil {
			return nil, guardErr(err)
		}

		entry := newAudit(m, "delete", "contact", input.ID, nil)
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Contacts().Delete(ctx, input.OrganizationID, input.ID); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("contact not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete contact", err)
		}

		publishActivity(ctx, bus, entry)
		return nil, nil
	})
}
