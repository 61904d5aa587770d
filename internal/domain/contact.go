package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/query"
)

// Contact is an address-book entry scoped to an organization: bankers,
// counsel, target executives and other deal participants.
type Contact struct {
	ID             uuid.UUID `json:"id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	Name           string    `json:"name"`
	Email          string    `json:"email,omitempty"`
	Firm           string    `json:"firm,omitempty"`
	Title          string    `json:"title,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ContactRepository interface {
	Create(ctx context.Context, c *Contact) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*Contact, error)
	List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*Contact, int, error)
	Update(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
}
