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
	"github.com/jpd-dfo/spacos/internal/server/middleware"
)

type CreateOrganizationInput struct {
	Body struct {
		Name string `json:"name" minLength:"1" maxLength:"255" doc:"Organization display name"`
		Slug string `json:"slug" minLength:"2" maxLength:"63" pattern:"^[a-z0-9][a-z0-9-]*$" doc:"URL-safe identifier"`
	}
}

type OrganizationOutput struct {
	Body *domain.Organization
}

type ListMyOrganizationsOutput struct {
	Body struct {
		Organizations []*domain.Organization `json:"organizations"`
	}
}

type GetOrganizationInput struct {
	ID uuid.UUID `path:"id" doc:"Organization ID"`
}

type UpdateOrganizationInput struct {
	ID   uuid.UUID `path:"id" doc:"Organization ID"`
	Body struct {
		Name string `json:"name,omitempty" maxLength:"255" doc:"Organization display name"`
	}
}

// MemberView pairs a membership with the member's profile fields.
type MemberView struct {
	UserID    uuid.UUID   `json:"user_id"`
	Email     string      `json:"email"`
	Name      string      `json:"name"`
	Role      domain.Role `json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`
	AvatarURL string      `json:"avatar_url,omitempty"`
}

type ListMembersInput struct {
	ID uuid.UUID `path:"id" doc:"Organization ID"`
}

type ListMembersOutput struct {
	Body struct {
		Members []MemberView `json:"members"`
	}
}

type InviteMemberInput struct {
	ID   uuid.UUID `path:"id" doc:"Organization ID"`
	Body struct {
		Email string `json:"email" format:"email" doc:"Email of an existing user to add"`
		Role  string `json:"role,omitempty" doc:"Role to grant, defaults to member"`
	}
}

type MembershipOutput struct {
	Body *domain.Membership
}

type ChangeRoleInput struct {
	ID     uuid.UUID `path:"id" doc:"Organization ID"`
	UserID uuid.UUID `path:"userId" doc:"Member's user ID"`
	Body   struct {
		Role string `json:"role" doc:"New role"`
	}
}

type RemoveMemberInput struct {
	ID     uuid.UUID `path:"id" doc:"Organization ID"`
	UserID uuid.UUID `path:"userId" doc:"Member's user ID"`
}

func RegisterOrganizationRoutes(api huma.API, store domain.Store, g *guard.Guard) {
	huma.Register(api, huma.Operation{
		OperationID: "create-organization",
		Method:      http.MethodPost,
		Path:        "/organizations",
		Summary:     "Create an organization",
		Description: "The creating user becomes the organization's owner.",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *CreateOrganizationInput) (*OrganizationOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}

		now := time.Now()
		org := &domain.Organization{
			ID:        uuid.New(),
			Name:      input.Body.Name,
			Slug:      input.Body.Slug,
			CreatedAt: now,
			UpdatedAt: now,
		}
		m := &domain.Membership{
			ID:             uuid.New(),
			OrganizationID: org.ID,
			UserID:         userID,
			Role:           domain.RoleOwner,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		entry := newAudit(m, "create", "organization", org.ID, map[string]any{"slug": org.Slug})
		err := store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Organizations().Create(ctx, org); err != nil {
				return err
			}
			if err := tx.Memberships().Create(ctx, m); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("slug already in use")
			}
			return nil, huma.Error500InternalServerError("failed to create organization", err)
		}

		return &OrganizationOutput{Body: org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-my-organizations",
		Method:      http.MethodGet,
		Path:        "/organizations",
		Summary:     "List organizations the caller belongs to",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, _ *struct{}) (*ListMyOrganizationsOutput, error) {
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("Unauthorized")
		}

		orgs, err := store.Organizations().ListByUser(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list organizations", err)
		}

		out := &ListMyOrganizationsOutput{}
		out.Body.Organizations = orgs
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-organization",
		Method:      http.MethodGet,
		Path:        "/organizations/{id}",
		Summary:     "Get an organization",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *GetOrganizationInput) (*OrganizationOutput, error) {
		if _, err := g.Require(ctx, input.ID); err != nil {
			return nil, guardErr(err)
		}

		org, err := store.Organizations().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("organization not found")
			}
			return nil, huma.Error500InternalServerError("failed to get organization", err)
		}

		return &OrganizationOutput{Body: org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-organization",
		Method:      http.MethodPut,
		Path:        "/organizations/{id}",
		Summary:     "Update an organization (admin or owner)",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *UpdateOrganizationInput) (*OrganizationOutput, error) {
		m, err := g.RequireRole(ctx, input.ID, domain.RoleAdmin)
		if err != nil {
			return nil, guardErr(err)
		}

		org, err := store.Organizations().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("organization not found")
			}
			return nil, huma.Error500InternalServerError("failed to get organization", err)
		}

		if input.Body.Name != "" {
			org.Name = input.Body.Name
		}
		org.UpdatedAt = time.Now()

		entry := newAudit(m, "update", "organization", org.ID, map[string]any{"name": org.Name})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Organizations().Update(ctx, org); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to update organization", err)
		}

		return &OrganizationOutput{Body: org}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-members",
		Method:      http.MethodGet,
		Path:        "/organizations/{id}/members",
		Summary:     "List organization members",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
		if _, err := g.Require(ctx, input.ID); err != nil {
			return nil, guardErr(err)
		}

		memberships, err := store.Memberships().List(ctx, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		views := make([]MemberView, 0, len(memberships))
		for _, m := range memberships {
			u, err := store.Users().GetByID(ctx, m.UserID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to load member profile", err)
			}
			views = append(views, MemberView{
				UserID:    u.ID,
				Email:     u.Email,
				Name:      u.Name,
				Role:      m.Role,
				JoinedAt:  m.CreatedAt,
				AvatarURL: u.AvatarURL,
			})
		}

		out := &ListMembersOutput{}
		out.Body.Members = views
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "invite-member",
		Method:      http.MethodPost,
		Path:        "/organizations/{id}/members",
		Summary:     "Add a member by email (admin or owner)",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *InviteMemberInput) (*MembershipOutput, error) {
		inviter, err := g.RequireRole(ctx, input.ID, domain.RoleAdmin)
		if err != nil {
			return nil, guardErr(err)
		}

		role := domain.RoleMember
		if input.Body.Role != "" {
			role = domain.Role(input.Body.Role)
			if !role.Valid() {
				return nil, huma.Error400BadRequest("unknown role " + input.Body.Role)
			}
		}
		// Only an owner can mint another owner or admin.
		if role.AtLeast(domain.RoleAdmin) && !inviter.Role.AtLeast(domain.RoleOwner) {
			return nil, huma.Error403Forbidden("only owners can grant the " + string(role) + " role")
		}

		u, err := store.Users().GetByEmail(ctx, input.Body.Email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no user with that email")
			}
			return nil, huma.Error500InternalServerError("failed to look up user", err)
		}

		now := time.Now()
		m := &domain.Membership{
			ID:             uuid.New(),
			OrganizationID: input.ID,
			UserID:         u.ID,
			Role:           role,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		entry := newAudit(inviter, "invite", "membership", m.ID, map[string]any{"email": u.Email, "role": string(role)})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Memberships().Create(ctx, m); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("user is already a member")
			}
			return nil, huma.Error500InternalServerError("failed to add member", err)
		}

		return &MembershipOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "change-member-role",
		Method:      http.MethodPut,
		Path:        "/organizations/{id}/members/{userId}",
		Summary:     "Change a member's role (owner only)",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *ChangeRoleInput) (*MembershipOutput, error) {
		owner, err := g.RequireRole(ctx, input.ID, domain.RoleOwner)
		if err != nil {
			return nil, guardErr(err)
		}

		role := domain.Role(input.Body.Role)
		if !role.Valid() {
			return nil, huma.Error400BadRequest("unknown role " + input.Body.Role)
		}
		if input.UserID == owner.UserID {
			return nil, huma.Error400BadRequest("owners cannot change their own role")
		}

		entry := newAudit(owner, "change_role", "membership", input.UserID, map[string]any{"role": string(role)})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Memberships().UpdateRole(ctx, input.ID, input.UserID, role); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("membership not found")
			}
			return nil, huma.Error500InternalServerError("failed to change role", err)
		}

		m, err := store.Memberships().Get(ctx, input.ID, input.UserID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load membership", err)
		}
		return &MembershipOutput{Body: m}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-member",
		Method:      http.MethodDelete,
		Path:        "/organizations/{id}/members/{userId}",
		Summary:     "Remove a member (admin or owner)",
		Tags:        []string{"Organizations"},
	}, func(ctx context.Context, input *RemoveMemberInput) (*struct{}, error) {
		actor, err := g.RequireRole(ctx, input.ID, domain.RoleAdmin)
		if err != nil {
			return nil, guardErr(err)
		}

		target, err := store.Memberships().Get(ctx, input.ID, input.UserID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("membership not found")
			}
			return nil, huma.Error500InternalServerError("failed to load membership", err)
		}
		// Admins cannot remove owners or fellow admins.
		if target.Role.AtLeast(actor.Role) && actor.UserID != target.UserID {
			return nil, huma.Error403Forbidden("cannot remove a member with an equal or higher role")
		}

		entry := newAudit(actor, "remove", "membership", target.ID, map[string]any{"user_id": target.UserID.String()})
		err = store.WithTx(ctx, func(tx domain.Store) error {
			if err := tx.Memberships().Delete(ctx, input.ID, input.UserID); err != nil {
				return err
			}
			return tx.Audit().Record(ctx, entry)
		})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("membership not found")
			}
			return nil, huma.Error500InternalServerError("failed to remove member", err)
		}

		return nil, nil
	})
}
