package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpd-dfo/spacos/internal/query"
)

var spacSorts = query.Options{SortFields: []string{"created_at", "name", "ticker", "deadline"}}

func TestBuildDefaults(t *testing.T) {
	t.Parallel()

	spec, err := query.Build(query.Params{}, spacSorts)
	require.NoError(t, err)

	assert.Equal(t, 1, spec.Page)
	assert.Equal(t, query.DefaultPageSize, spec.PageSize)
	assert.Equal(t, "created_at", spec.SortBy)
	assert.True(t, spec.Descending)
	assert.Equal(t, 0, spec.Offset())
	assert.Equal(t, query.DefaultPageSize, spec.Limit())
}

func TestBuildNormalization(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		params       query.Params
		wantPage     int
		wantPageSize int
	}{
		{"negative_page_floored", query.Params{Page: -3}, 1, 20},
		{"zero_page_floored", query.Params{Page: 0}, 1, 20},
		{"page_size_clamped_high", query.Params{PageSize: 500}, 1, query.MaxPageSize},
		{"page_size_clamped_low", query.Params{PageSize: -1}, 1, 1},
		{"valid_passthrough", query.Params{Page: 3, PageSize: 50}, 3, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			spec, err := query.Build(tt.params, spacSorts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, spec.Page)
			assert.Equal(t, tt.wantPageSize, spec.PageSize)
		})
	}
}

func TestBuildPerEndpointDefaultPageSize(t *testing.T) {
	t.Parallel()

	opts := query.Options{SortFields: []string{"created_at"}, DefaultPageSize: 50}
	spec, err := query.Build(query.Params{}, opts)
	require.NoError(t, err)
	assert.Equal(t, 50, spec.PageSize)
}

func TestBuildRejectsUnknownSortBy(t *testing.T) {
	t.Parallel()

	_, err := query.Build(query.Params{SortBy: "trust_amount"}, spacSorts)
	require.Error(t, err)

	var invalid *query.ErrInvalidParam
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sortBy", invalid.Field)
}

func TestBuildSortOrder(t *testing.T) {
	t.Parallel()

	spec, err := query.Build(query.Params{SortOrder: "asc"}, spacSorts)
	require.NoError(t, err)
	assert.False(t, spec.Descending)

	spec, err = query.Build(query.Params{SortOrder: "desc"}, spacSorts)
	require.NoError(t, err)
	assert.True(t, spec.Descending)

	_, err = query.Build(query.Params{SortOrder: "sideways"}, spacSorts)
	var invalid *query.ErrInvalidParam
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "sortOrder", invalid.Field)
}

func TestBuildOffset(t *testing.T) {
	t.Parallel()

	spec, err := query.Build(query.Params{Page: 2, PageSize: 20}, spacSorts)
	require.NoError(t, err)
	assert.Equal(t, 20, spec.Offset())

	spec, err = query.Build(query.Params{Page: 5, PageSize: 7}, spacSorts)
	require.NoError(t, err)
	assert.Equal(t, 28, spec.Offset())
}

func TestNewPageEnvelope(t *testing.T) {
	t.Parallel()

	spec := query.Spec{Page: 2, PageSize: 20}

	t.Run("middle_page", func(t *testing.T) {
		t.Parallel()

		items := make([]int, 20)
		page := query.NewPage(items, 45, spec)
		assert.Equal(t, 45, page.Total)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 20, page.PageSize)
		assert.Equal(t, 3, page.TotalPages)
		assert.Len(t, page.Items, 20)
	})

	t.Run("empty_total_zero_pages", func(t *testing.T) {
		t.Parallel()

		page := query.NewPage([]string{}, 0, spec)
		assert.Equal(t, 0, page.TotalPages)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
	})

	t.Run("nil_items_serializes_as_empty_slice", func(t *testing.T) {
		t.Parallel()

		page := query.NewPage[string](nil, 0, spec)
		assert.NotNil(t, page.Items)
	})

	t.Run("exact_multiple", func(t *testing.T) {
		t.Parallel()

		page := query.NewPage(make([]int, 20), 40, spec)
		assert.Equal(t, 2, page.TotalPages)
	})

	t.Run("single_partial_page", func(t *testing.T) {
		t.Parallel()

		page := query.NewPage(make([]int, 3), 3, query.Spec{Page: 1, PageSize: 20})
		assert.Equal(t, 1, page.TotalPages)
	})
}

// items.length == min(pageSize, max(0, total-(page-1)*pageSize)) for the
// last and beyond-the-end pages.
func TestPageMath(t *testing.T) {
	t.Parallel()

	total := 45
	for page := 1; page <= 4; page++ {
		spec := query.Spec{Page: page, PageSize: 20}
		remaining := total - spec.Offset()
		if remaining < 0 {
			remaining = 0
		}
		wantLen := remaining
		if wantLen > spec.PageSize {
			wantLen = spec.PageSize
		}
		env := query.NewPage(make([]int, wantLen), total, spec)
		assert.Len(t, env.Items, wantLen, "page %d", page)
		assert.Equal(t, 3, env.TotalPages)
	}
}
