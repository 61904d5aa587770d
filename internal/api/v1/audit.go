package v1

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/jpd-dfo/spacos/internal/domain"
	"github.com/jpd-dfo/spacos/internal/export"
	"github.com/jpd-dfo/spacos/internal/guard"
	"github.com/jpd-dfo/spacos/internal/query"
)

const auditExportLimit = 10_000

type ListAuditInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	Page           int       `query:"page" doc:"Page number, 1-based"`
	PageSize       int       `query:"pageSize" doc:"Items per page; clamped to [1, 100]"`
}

type ListAuditOutput struct {
	Body query.Page[*domain.AuditEntry]
}

type ResourceAuditInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
	Resource       string    `path:"resource" doc:"Resource type, e.g. spac"`
	ResourceID     uuid.UUID `path:"resourceId" doc:"Resource ID"`
}

type ResourceAuditOutput struct {
	Body struct {
		Entries []*domain.AuditEntry `json:"entries"`
	}
}

type ExportAuditInput struct {
	OrganizationID uuid.UUID `query:"organizationId" required:"true" doc:"Organization ID"`
}

type ExportAuditOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

func RegisterAuditRoutes(api huma.API, store domain.Store, g *guard.Guard) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit",
		Method:      http.MethodGet,
		Path:        "/audit",
		Summary:     "List the audit trail (admin or owner)",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditInput) (*ListAuditOutput, error) {
		if _, err := g.RequireRole(ctx, input.OrganizationID, domain.RoleAdmin); err != nil {
			return nil, guardErr(err)
		}

		spec, err := query.Build(query.Params{Page: input.Page, PageSize: input.PageSize}, query.Options{SortFields: []string{"created_at"}})
		if err != nil {
			return nil, queryErr(err)
		}

		entries, total, err := store.Audit().List(ctx, input.OrganizationID, spec.Limit(), spec.Offset())
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListAuditOutput{Body: query.NewPage(entries, total, spec)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-resource-audit",
		Method:      http.MethodGet,
		Path:        "/audit/{resource}/{resourceId}",
		Summary:     "List audit entries for one resource (admin or owner)",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ResourceAuditInput) (*ResourceAuditOutput, error) {
		if _, err := g.RequireRole(ctx, input.OrganizationID, domain.RoleAdmin); err != nil {
			return nil, guardErr(err)
		}

		entries, err := store.Audit().ListByResource(ctx, input.OrganizationID, input.Resource, input.ResourceID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		out := &ResourceAuditOutput{}
		out.Body.Entries = entries
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "export-audit",
		Method:      http.MethodGet,
		Path:        "/audit/export",
		Summary:     "Export the audit trail as CSV (admin or owner)",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ExportAuditInput) (*ExportAuditOutput, error) {
		if _, err := g.RequireRole(ctx, input.OrganizationID, domain.RoleAdmin); err != nil {
			return nil, guardErr(err)
		}

		entries, _, err := store.Audit().List(ctx, input.OrganizationID, auditExportLimit, 0)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to load audit entries", err)
		}

		var buf bytes.Buffer
		if err := export.AuditCSV(&buf, entries); err != nil {
			return nil, huma.Error500InternalServerError("failed to render CSV", err)
		}

		return &ExportAuditOutput{
			ContentType:        "text/csv",
			ContentDisposition: fmt.Sprintf("attachment; filename=audit-%s.csv", time.Now().UTC().Format("2006-01-02")),
			Body:               buf.Bytes(),
		}, nil
	})
}
