// Package export renders audit trails into downloadable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jpd-dfo/spacos/internal/domain"
)

var auditHeader = []string{"timestamp", "user_id", "action", "resource", "resource_id", "details"}

// AuditCSV writes the entries as CSV in the order supplied, one row per
// entry. Details maps are serialized as JSON in the final column so
// arbitrary keys survive the flattening.
func AuditCSV(w io.Writer, entries []*domain.AuditEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(auditHeader); err != nil {
		return fmt.Errorf("export.AuditCSV: %w", err)
	}

	for _, e := range entries {
		details := ""
		if len(e.Details) > 0 {
			b, err := json.Marshal(e.Details)
			if err != nil {
				return fmt.Errorf("export.AuditCSV: encoding details: %w", err)
			}
			details = string(b)
		}

		row := []string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.UserID.String(),
			e.Action,
			e.Resource,
			e.ResourceID.String(),
			details,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export.AuditCSV: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export.AuditCSV: %w", err)
	}
	return nil
}
