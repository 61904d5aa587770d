package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/ai"
	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/edgar"
)

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	LoginOAuth(ctx context.Context, provider, providerID, email, name, avatarURL string) (accessToken, refreshToken string, err error)
}

// FilingClient abstracts the EDGAR lookup for handler testing.
// *edgar.Client satisfies this interface.
type FilingClient interface {
	Filings(ctx context.Context, cik string, formTypes []string, page, pageSize int) (*edgar.FilingsPage, error)
}

// Scorer abstracts the AI deal-scoring provider for handler testing.
// *ai.Client satisfies this interface.
type Scorer interface {
	ScoreDocument(ctx context.Context, title, text string) (*ai.DealScore, error)
	Model() string
}

// ActivityBus fans audit events out to connected activity-feed clients.
// A nil bus disables the feed.
type ActivityBus interface {
	PublishActivity(ctx context.Context, organizationID uuid.UUID, entry *domain.AuditEntry)
}
