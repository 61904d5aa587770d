package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/query"
)

type SPACStatus string

const (
	SPACStatusPreIPO     SPACStatus = "pre_ipo"
	SPACStatusSearching  SPACStatus = "searching"
	SPACStatusLOISigned  SPACStatus = "loi_signed"
	SPACStatusDASigned   SPACStatus = "da_signed"
	SPACStatusCompleted  SPACStatus = "completed"
	SPACStatusLiquidated SPACStatus = "liquidated"
)

// SPACStatuses lists every valid SPAC lifecycle status.
var SPACStatuses = []SPACStatus{
	SPACStatusPreIPO,
	SPACStatusSearching,
	SPACStatusLOISigned,
	SPACStatusDASigned,
	SPACStatusCompleted,
	SPACStatusLiquidated,
}

func (s SPACStatus) Valid() bool {
	for _, v := range SPACStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// SPAC is a special purpose acquisition company record.
// Ticker is unique per organization. CIK links the entity to SEC EDGAR.
type SPAC struct {
	ID             uuid.UUID  `json:"id"`
	OrganizationID uuid.UUID  `json:"organization_id"`
	Name           string     `json:"name"`
	Ticker         string     `json:"ticker"`
	Description    string     `json:"description,omitempty"`
	Status         SPACStatus `json:"status"`
	TrustAmount    int64      `json:"trust_amount"` // USD cents
	Deadline       *time.Time `json:"deadline,omitempty"`
	CIK            string     `json:"cik,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type SPACRepository interface {
	Create(ctx context.Context, s *SPAC) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*SPAC, error)
	List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*SPAC, int, error)
	Update(ctx context.Context, s *SPAC) error
	Delete(ctx context.Context, organizationID, id uuid.UUID) error

	// ListDeadlinesBefore returns active SPACs, across all organizations,
	// whose deadline falls on or before the cutoff. Completed and
	// liquidated SPACs have no deadline pressure and are excluded.
	ListDeadlinesBefore(ctx context.Context, cutoff time.Time) ([]*SPAC, error)
}
