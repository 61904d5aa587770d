package server

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/ai"
	v1 "github.com/jpd-dfo/spacos/internal/api/v1"
	"github.com/jpd-dfo/spacos/internal/api/ws"
	"github.com/jpd-dfo/spacos/internal/config"
	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/edgar"
	"github.com/jpd-dfo/spacos/internal/guard"
	"github.com/jpd-dfo/spacos/internal/store/postgres"
)

func registerAPIRoutes(api huma.API, store *postgres.Store, g *guard.Guard, bus v1.ActivityBus, filings *edgar.Client, scorer *ai.Client, cfg *config.Config) {
	v1.RegisterOrganizationRoutes(api, store, g)
	v1.RegisterSPACRoutes(api, store, g, bus)
	v1.RegisterTargetRoutes(api, store, g, bus)
	v1.RegisterDocumentRoutes(api, store, g, bus, scorer, cfg.AI.AnalysisTTL)
	v1.RegisterContactRoutes(api, store, g, bus)
	v1.RegisterFilingRoutes(api, store, g, filings)
	v1.RegisterAuditRoutes(api, store, g)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/activity/{organizationID}", hub.ServeActivity)
}

// multiBus fans one activity event out to every configured sink.
type multiBus []v1.ActivityBus

func (m multiBus) PublishActivity(ctx context.Context, organizationID uuid.UUID, entry *domain.AuditEntry) {
	for _, b := range m {
		b.PublishActivity(ctx, organizationID, entry)
	}
}
