package edgar_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpd-dfo/spacos/internal/cache"
	"github.com/jpd-dfo/spacos/internal/edgar"
)

func submissionsFixture() map[string]any {
	return map[string]any{
		"name": "Example Acquisition Corp",
		"filings": map[string]any{
			"recent": map[string]any{
				"accessionNumber": []string{"0001-23-000001", "0001-23-000002", "0001-23-000003"},
				"form":            []string{"S-1", "8-K", "425"},
				"filingDate":      []string{"2026-01-10", "2026-02-02", "2026-03-15"},
				"primaryDocument": []string{"s1.htm", "8k.htm", "425.htm"},
			},
		},
	}
}

func fixtureServer(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/submissions/CIK0001234567.json", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode(submissionsFixture())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFilingsFetchAndFilter(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := fixtureServer(t, &calls)
	c := edgar.New(srv.URL, "spacos test@example.com", 5*time.Second, cache.NewMemory(100, 5*time.Minute))

	page, err := c.Filings(context.Background(), "1234567", []string{"8-K"}, 1, 20)
	require.NoError(t, err)

	assert.False(t, page.Cached)
	assert.Equal(t, "Example Acquisition Corp", page.EntityName)
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "8-K", page.Items[0].Form)
}

func TestFilingsSecondLookupIsCached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := fixtureServer(t, &calls)
	c := edgar.New(srv.URL, "spacos test@example.com", 5*time.Second, cache.NewMemory(100, 5*time.Minute))

	first, err := c.Filings(context.Background(), "1234567", nil, 1, 20)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := c.Filings(context.Background(), "1234567", nil, 1, 20)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Total, second.Total)

	// One upstream call for two client responses.
	assert.Equal(t, int64(1), calls.Load())
}

func TestFilingsDistinctKeysMissCache(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := fixtureServer(t, &calls)
	c := edgar.New(srv.URL, "spacos test@example.com", 5*time.Second, cache.NewMemory(100, 5*time.Minute))

	_, err := c.Filings(context.Background(), "1234567", nil, 1, 20)
	require.NoError(t, err)

	// Different form filter derives a different cache key.
	page, err := c.Filings(context.Background(), "1234567", []string{"S-1"}, 1, 20)
	require.NoError(t, err)
	assert.False(t, page.Cached)
	assert.Equal(t, int64(2), calls.Load())
}

func TestFilingsPagination(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := fixtureServer(t, &calls)
	c := edgar.New(srv.URL, "spacos test@example.com", 5*time.Second, cache.NewMemory(100, 5*time.Minute))

	page, err := c.Filings(context.Background(), "1234567", nil, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 1)

	// Beyond the last page: empty items, same metadata.
	page, err = c.Filings(context.Background(), "1234567", nil, 9, 2)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Total)
}

func TestFilingsRetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(submissionsFixture())
	}))
	t.Cleanup(srv.Close)

	c := edgar.New(srv.URL, "spacos test@example.com", 5*time.Second, cache.NewMemory(100, 5*time.Minute))

	page, err := c.Filings(context.Background(), "1234567", nil, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, int64(3), calls.Load())
}

func TestFilingsUpstreamErrorPropagatesUncached(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	c := edgar.New(srv.URL, "spacos test@example.com", 5*time.Second, cache.NewMemory(100, 5*time.Minute))

	_, err := c.Filings(context.Background(), "1234567", nil, 1, 20)
	require.ErrorIs(t, err, edgar.ErrUpstream)
	assert.Equal(t, int64(3), calls.Load())

	// Nothing was cached; the next call hits upstream again.
	_, err = c.Filings(context.Background(), "1234567", nil, 1, 20)
	require.Error(t, err)
	assert.Equal(t, int64(6), calls.Load())
}

func TestFilingsNotFoundIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	c := edgar.New(srv.URL, "spacos test@example.com", 5*time.Second, cache.NewMemory(100, 5*time.Minute))

	_, err := c.Filings(context.Background(), "99", nil, 1, 20)
	require.Error(t, err)
	assert.Equal(t, int64(1), calls.Load())
}
