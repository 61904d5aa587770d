package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/edgar"
	"github.com/jpd-dfo/spacos/internal/guard"
	"github.com/jpd-dfo/spacos/internal/query"
)

type ListFilingsInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	SPACID         uuid.UUID `path:"spacId" doc:"SPAC ID"`
	FormTypes      string    `query:"formTypes" doc:"Comma-separated SEC form types, e.g. S-1,8-K,425"`
	Page           int       `query:"page" doc:"Page number, 1-based"`
	PageSize       int       `query:"pageSize" doc:"Items per page; clamped to [1, 100]"`
}

type ListFilingsOutput struct {
	Body *edgar.FilingsPage
}

// RegisterFilingRoutes exposes SEC EDGAR filings for a SPAC's CIK. Results
// come through the short-lived lookup cache; the response's cached field
// says whether EDGAR was actually contacted.
func RegisterFilingRoutes(api huma.API, store domain.Store, g *guard.Guard, filings FilingClient) {
	huma.Register(api, huma.Operation{
		OperationID: "list-spac-filings",
		Method:      http.MethodGet,
		Path:        "/spacs/{spacId}/filings",
		Summary:     "List SEC filings for a SPAC",
		Tags:        []string{"Filings"},
	}, func(ctx context.Context, input *ListFilingsInput) (*ListFilingsOutput, error) {
		if _, err := g.Require(ctx, input.OrganizationID); err != nil {
			return nil, guardErr(err)
		}

		s, err := store.SPACs().GetByID(ctx, input.OrganizationID, input.SPACID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("SPAC not found")
			}
			return nil, huma.Error500InternalServerError("failed to get SPAC", err)
		}
		if s.CIK == "" {
			return nil, huma.Error400BadRequest("SPAC has no CIK on record")
		}

		var formTypes []string
		for _, f := range strings.Split(input.FormTypes, ",") {
			if f = strings.TrimSpace(f); f != "" {
				formTypes = append(formTypes, f)
			}
		}

		page, err := filings.Filings(ctx, s.CIK, formTypes, input.Page, input.PageSize)
		if err != nil {
			if errors.Is(err, edgar.ErrUpstream) {
				return nil, huma.Error502BadGateway("EDGAR unavailable")
			}
			var invalid *query.ErrInvalidParam
			if errors.As(err, &invalid) {
				return nil, queryErr(err)
			}
			return nil, huma.Error500InternalServerError("failed to fetch filings", err)
		}

		return &ListFilingsOutput{Body: page}, nil
	})
}
