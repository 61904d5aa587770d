package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/query"
)

type TargetStatus string

const (
	TargetStatusIdentified TargetStatus = "identified"
	TargetStatusContacted  TargetStatus = "contacted"
	TargetStatusNDASigned  TargetStatus = "nda_signed"
	TargetStatusLOI        TargetStatus = "loi"
	TargetStatusDA         TargetStatus = "da"
	TargetStatusClosed     TargetStatus = "closed"
	TargetStatusPassed     TargetStatus = "passed"
)

var TargetStatuses = []TargetStatus{
	TargetStatusIdentified,
	TargetStatusContacted,
	TargetStatusNDASigned,
	TargetStatusLOI,
	TargetStatusDA,
	TargetStatusClosed,
	TargetStatusPassed,
}

func (s TargetStatus) Valid() bool {
	for _, v := range TargetStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Target is a candidate acquisition company in a SPAC's pipeline.
type Target struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	SPACID         *uuid.UUID   `json:"spac_id,omitempty"` // nullable until attached to a deal
	Name           string       `json:"name"`
	Sector         string       `json:"sector,omitempty"`
	Description    string       `json:"description,omitempty"`
	Status         TargetStatus `json:"status"`
	Valuation      int64        `json:"valuation"` // USD cents, 0 = unknown
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type TargetRepository interface {
	Create(ctx context.Context, t *Target) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*Target, error)
	List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*Target, int, error)
	Update(ctx context.Context, t *Target) error
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
}
