package v1

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/query"
)

// ListParams are the shared, untrusted list query parameters. Embedded by
// every list input type so the wire names stay consistent across endpoints.
type ListParams struct {
	Search    string `query:"search" doc:"Case-insensitive substring search"`
	Status    string `query:"status" doc:"Filter by status"`
	Page      int    `query:"page" doc:"Page number, 1-based; out-of-range values are floored to 1"`
	PageSize  int    `query:"pageSize" doc:"Items per page; clamped to [1, 100]"`
	SortBy    string `query:"sortBy" doc:"Sort field from the per-entity allow-list"`
	SortOrder string `query:"sortOrder" doc:"Sort direction: asc or desc (default desc)"`
}

func (p ListParams) params() query.Params {
	return query.Params{
		Search:    p.Search,
		Status:    p.Status,
		Page:      p.Page,
		PageSize:  p.PageSize,
		SortBy:    p.SortBy,
		SortOrder: p.SortOrder,
	}
}

// guardErr maps access-guard failures onto HTTP errors. Anything that is
// not an authorization outcome is a store failure and stays opaque.
func guardErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return huma.Error401Unauthorized("Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		return huma.Error403Forbidden("Access denied")
	default:
		return huma.Error500InternalServerError("failed to check access", err)
	}
}

// queryErr maps list-parameter validation failures onto a 400 with
// field-level detail.
func queryErr(err error) error {
	var invalid *query.ErrInvalidParam
	if errors.As(err, &invalid) {
		return huma.Error400BadRequest("Invalid query parameters", invalid)
	}
	return huma.Error400BadRequest("Invalid query parameters")
}

// newAudit builds an audit entry for a mutation performed by the given
// membership's principal.
func newAudit(m *domain.Membership, action, resource string, resourceID uuid.UUID, details map[string]any) *domain.AuditEntry {
	return &domain.AuditEntry{
		ID:             uuid.New(),
		OrganizationID: m.OrganizationID,
		UserID:         m.UserID,
		Action:         action,
		Resource:       resource,
		ResourceID:     resourceID,
		Details:        details,
		CreatedAt:      time.Now(),
	}
}

// publishActivity forwards an audit entry to the feed when a bus is wired.
func publishActivity(ctx context.Context, bus ActivityBus, entry *domain.AuditEntry) {
	if bus != nil {
		bus.PublishActivity(ctx, entry.OrganizationID, entry)
	}
}
