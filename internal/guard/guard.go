// Package guard gates every organization-scoped operation: it resolves the
// authenticated principal to a Membership for the target organization and
// rejects the request if none exists. The decision is re-checked on every
// request; membership and role can change between requests, so it is never
// cached at the session level.
package guard

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/server/middleware"
)

type Guard struct {
	memberships domain.MembershipRepository
}

func New(memberships domain.MembershipRepository) *Guard {
	return &Guard{memberships: memberships}
}

// Require returns the caller's membership in the organization, or
// domain.ErrUnauthorized when no principal is in the context and
// domain.ErrForbidden when no membership row exists.
func (g *Guard) Require(ctx context.Context, organizationID uuid.UUID) (*domain.Membership, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok || userID == uuid.Nil {
		return nil, fmt.Errorf("guard.Require: %w", domain.ErrUnauthorized)
	}

	m, err := g.memberships.Get(ctx, organizationID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("guard.Require: %w", domain.ErrForbidden)
		}
		return nil, fmt.Errorf("guard.Require: %w", err)
	}

	return m, nil
}

// RequireRole is Require plus a minimum-role check (member < admin < owner).
func (g *Guard) RequireRole(ctx context.Context, organizationID uuid.UUID, min domain.Role) (*domain.Membership, error) {
	m, err := g.Require(ctx, organizationID)
	if err != nil {
		return nil, err
	}

	if !m.Role.AtLeast(min) {
		return nil, fmt.Errorf("guard.RequireRole: role %s below %s: %w", m.Role, min, domain.ErrForbidden)
	}

	return m, nil
}
