package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/query"
)

type DocumentKind string

const (
	DocumentKindProspectus DocumentKind = "prospectus"
	DocumentKindLOI        DocumentKind = "loi"
	DocumentKindDA         DocumentKind = "da"
	DocumentKindDiligence  DocumentKind = "diligence"
	DocumentKindOther      DocumentKind = "other"
)

var DocumentKinds = []DocumentKind{
	DocumentKindProspectus,
	DocumentKindLOI,
	DocumentKindDA,
	DocumentKindDiligence,
	DocumentKindOther,
}

func (k DocumentKind) Valid() bool {
	for _, v := range DocumentKinds {
		if k == v {
			return true
		}
	}
	return false
}

// Document is deal-document metadata. The file body lives in object storage
// under StorageKey; this service only tracks the record.
type Document struct {
	ID             uuid.UUID    `json:"id"`
	OrganizationID uuid.UUID    `json:"organization_id"`
	SPACID         *uuid.UUID   `json:"spac_id,omitempty"`
	Title          string       `json:"title"`
	Kind           DocumentKind `json:"kind"`
	StorageKey     string       `json:"storage_key"`
	ContentText    string       `json:"-"` // extracted text used for scoring
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// DocumentAnalysis is the persisted AI deal-score cache: one row per
// document, refreshed when expired and invalidated on document mutation.
type DocumentAnalysis struct {
	DocumentID uuid.UUID `json:"document_id"`
	Score      int       `json:"score"` // 0-100
	Summary    string    `json:"summary"`
	Risks      []string  `json:"risks"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"created_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the analysis is past its TTL at the given instant.
func (a *DocumentAnalysis) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

type DocumentRepository interface {
	Create(ctx context.Context, d *Document) error
	GetByID(ctx context.Context, organizationID, id uuid.UUID) (*Document, error)
	List(ctx context.Context, organizationID uuid.UUID, spec query.Spec) ([]*Document, int, error)
	Update(ctx context.Context, d *Document) error
	Delete(ctx context.Context, organizationID, id uuid.UUID) error
}

type AnalysisRepository interface {
	Get(ctx context.Context, documentID uuid.UUID) (*DocumentAnalysis, error)
	Upsert(ctx context.Context, a *DocumentAnalysis) error
	Invalidate(ctx context.Context, documentID uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
