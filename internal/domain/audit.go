package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuditEntry struct {
	ID             uuid.UUID      `json:"id"`
	OrganizationID uuid.UUID      `json:"organization_id"`
	UserID         uuid.UUID      `json:"user_id"`
	Action         string         `json:"action"` // "create", "update", "delete", "analyze", ...
	Resource       string         `json:"resource"`
	ResourceID     uuid.UUID      `json:"resource_id"`
	Details        map[string]any `json:"details,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type AuditRepository interface {
	Record(ctx context.Context, entry *AuditEntry) error
	List(ctx context.Context, organizationID uuid.UUID, limit, offset int) ([]*AuditEntry, int, error)
	ListByResource(ctx context.Context, organizationID uuid.UUID, resource string, resourceID uuid.UUID) ([]*AuditEntry, error)
}
