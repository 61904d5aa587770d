package export

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpd-dfo/spacos/internal/domain"
)

func TestAuditCSV(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	resourceID := uuid.New()
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	entries := []*domain.AuditEntry{
		{
			UserID:     userID,
			Action:     "create",
			Resource:   "spac",
			ResourceID: resourceID,
			Details:    map[string]any{"ticker": "ACQ"},
			CreatedAt:  at,
		},
		{
			UserID:     userID,
			Action:     "delete",
			Resource:   "spac",
			ResourceID: resourceID,
			CreatedAt:  at.Add(time.Hour),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, AuditCSV(&buf, entries))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"timestamp", "user_id", "action", "resource", "resource_id", "details"}, rows[0])

	assert.Equal(t, "2026-03-14T09:30:00Z", rows[1][0])
	assert.Equal(t, userID.String(), rows[1][1])
	assert.Equal(t, "create", rows[1][2])
	assert.Equal(t, `{"ticker":"ACQ"}`, rows[1][5])

	assert.Equal(t, "delete", rows[2][2])
	assert.Equal(t, "", rows[2][5])
}

func TestAuditCSVEmpty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, AuditCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
