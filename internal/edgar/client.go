// Package edgar looks up SEC EDGAR filings for a SPAC's CIK. Lookups are
// memoized through a short-lived cache because EDGAR rate-limits clients
// and filing lists change slowly.
package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jpd-dfo/spacos/internal/cache"
	"github.com/jpd-dfo/spacos/internal/query"
)

// ErrUpstream marks an EDGAR failure after retries; routes translate it to
// a 502 instead of leaking provider detail.
var ErrUpstream = errors.New("edgar: upstream failure")

const (
	maxAttempts   = 3
	retryBaseWait = 250 * time.Millisecond
)

type Filing struct {
	AccessionNumber string `json:"accession_number"`
	Form            string `json:"form"`
	FilingDate      string `json:"filing_date"`
	PrimaryDocument string `json:"primary_document"`
}

// FilingsPage is one page of filings for a CIK plus whether it was served
// from cache.
type FilingsPage struct {
	CIK        string   `json:"cik"`
	EntityName string   `json:"entity_name"`
	Items      []Filing `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	PageSize   int      `json:"pageSize"`
	TotalPages int      `json:"totalPages"`
	Cached     bool     `json:"cached"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      cache.Store
}

// New creates an EDGAR client. SEC requires a descriptive User-Agent; the
// cache memoizes derived filing pages for its configured TTL.
func New(baseURL, userAgent string, timeout time.Duration, store cache.Store) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		cache:      store,
	}
}

// Filings returns one page of a company's filings, newest first, optionally
// restricted to the given form types (e.g. "S-1", "8-K", "425").
func (c *Client) Filings(ctx context.Context, cik string, formTypes []string, page, pageSize int) (*FilingsPage, error) {
	spec, err := query.Build(query.Params{Page: page, PageSize: pageSize}, query.Options{SortFields: []string{"filing_date"}})
	if err != nil {
		return nil, fmt.Errorf("edgar.Filings: %w", err)
	}

	cik = padCIK(cik)
	key := fmt.Sprintf("filings:%s:%d:%d:%s", cik, spec.Page, spec.PageSize, strings.Join(formTypes, ","))

	result, cached, err := cache.Fetch(ctx, c.cache, key, func(ctx context.Context) (*FilingsPage, error) {
		return c.fetchPage(ctx, cik, formTypes, spec)
	})
	if err != nil {
		return nil, err
	}

	result.Cached = cached
	return result, nil
}

// submissionsDoc mirrors the column-oriented shape of EDGAR's
// /submissions/CIK##########.json payload.
type submissionsDoc struct {
	Name    string `json:"name"`
	Filings struct {
		Recent struct {
			AccessionNumber []string `json:"accessionNumber"`
			Form            []string `json:"form"`
			FilingDate      []string `json:"filingDate"`
			PrimaryDocument []string `json:"primaryDocument"`
		} `json:"recent"`
	} `json:"filings"`
}

func (c *Client) fetchPage(ctx context.Context, cik string, formTypes []string, spec query.Spec) (*FilingsPage, error) {
	doc, err := c.fetchSubmissions(ctx, cik)
	if err != nil {
		return nil, err
	}

	wanted := make(map[string]bool, len(formTypes))
	for _, f := range formTypes {
		wanted[strings.ToUpper(strings.TrimSpace(f))] = true
	}

	recent := doc.Filings.Recent
	var all []Filing
	for i := range recent.AccessionNumber {
		form := recent.Form[i]
		if len(wanted) > 0 && !wanted[strings.ToUpper(form)] {
			continue
		}
		all = append(all, Filing{
			AccessionNumber: recent.AccessionNumber[i],
			Form:            form,
			FilingDate:      recent.FilingDate[i],
			PrimaryDocument: recent.PrimaryDocument[i],
		})
	}

	total := len(all)
	start := spec.Offset()
	if start > total {
		start = total
	}
	end := start + spec.Limit()
	if end > total {
		end = total
	}

	env := query.NewPage(all[start:end], total, spec)
	return &FilingsPage{
		CIK:        cik,
		EntityName: doc.Name,
		Items:      env.Items,
		Total:      env.Total,
		Page:       env.Page,
		PageSize:   env.PageSize,
		TotalPages: env.TotalPages,
	}, nil
}

// fetchSubmissions retrieves the submissions document with a small retry
// budget for transient failures.
func (c *Client) fetchSubmissions(ctx context.Context, cik string) (*submissionsDoc, error) {
	url := fmt.Sprintf("%s/submissions/CIK%s.json", c.baseURL, cik)

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			wait := retryBaseWait << (attempt - 1)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			log.Debug().Str("cik", cik).Int("attempt", attempt+1).Msg("edgar: retrying submissions fetch")
		}

		doc, retryable, err := c.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return nil, fmt.Errorf("edgar.fetchSubmissions: %w: %w", ErrUpstream, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, url string) (*submissionsDoc, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, fmt.Errorf("no submissions for CIK (%d)", resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	var doc submissionsDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, false, fmt.Errorf("decoding submissions: %w", err)
	}

	return &doc, false, nil
}

// padCIK left-pads a CIK to the 10 digits EDGAR expects.
func padCIK(cik string) string {
	cik = strings.TrimSpace(cik)
	if len(cik) >= 10 {
		return cik
	}
	return strings.Repeat("0", 10-len(cik)) + cik
}
