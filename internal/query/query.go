// Package query translates untrusted list parameters into a bounded
// filter/sort/pagination specification and wraps results in a page envelope.
package query

import (
	"fmt"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort directions accepted on the wire.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// ErrInvalidParam marks a list parameter that failed validation. Callers
// surface it as a client error with the offending field named.
type ErrInvalidParam struct {
	Field  string
	Detail string
}

func (e *ErrInvalidParam) Error() string {
	return fmt.Sprintf("query: invalid %s: %s", e.Field, e.Detail)
}

// Params are the raw, untrusted list parameters from a request.
type Params struct {
	Search    string
	Status    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Options is the per-entity contract the builder validates against.
type Options struct {
	// SortFields is the allow-list of sortable field names. The first
	// entry is the default when no sortBy is supplied.
	SortFields []string
	// DefaultPageSize overrides DefaultPageSize when > 0.
	DefaultPageSize int
}

// Spec is a validated, bounded store query description.
type Spec struct {
	Search     string
	Status     string
	SortBy     string
	Descending bool
	Page       int
	PageSize   int
}

// Offset returns the row offset for the requested page.
func (s Spec) Offset() int {
	return (s.Page - 1) * s.PageSize
}

// Limit returns the row limit for the requested page.
func (s Spec) Limit() int {
	return s.PageSize
}

// Build normalizes and validates raw parameters into a Spec.
//
// Page defaults to 1 and is floored at 1. PageSize defaults to
// opts.DefaultPageSize (or DefaultPageSize) and is clamped to
// [1, MaxPageSize]. SortBy must be on the allow-list; an unrecognized
// value is rejected, never silently substituted. SortOrder defaults to
// descending.
func Build(p Params, opts Options) (Spec, error) {
	if len(opts.SortFields) == 0 {
		return Spec{}, &ErrInvalidParam{Field: "sortBy", Detail: "no sortable fields configured"}
	}

	page := p.Page
	if page < 1 {
		page = 1
	}

	size := p.PageSize
	if size == 0 {
		size = opts.DefaultPageSize
		if size == 0 {
			size = DefaultPageSize
		}
	}
	if size < 1 {
		size = 1
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = opts.SortFields[0]
	} else if !contains(opts.SortFields, sortBy) {
		return Spec{}, &ErrInvalidParam{
			Field:  "sortBy",
			Detail: fmt.Sprintf("%q is not sortable, must be one of %v", sortBy, opts.SortFields),
		}
	}

	var desc bool
	switch p.SortOrder {
	case "", SortDesc:
		desc = true
	case SortAsc:
		desc = false
	default:
		return Spec{}, &ErrInvalidParam{
			Field:  "sortOrder",
			Detail: fmt.Sprintf("%q must be %q or %q", p.SortOrder, SortAsc, SortDesc),
		}
	}

	return Spec{
		Search:     p.Search,
		Status:     p.Status,
		SortBy:     sortBy,
		Descending: desc,
		Page:       page,
		PageSize:   size,
	}, nil
}

// Page is the paginated-list response envelope.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// NewPage wraps one page of items with count metadata.
// TotalPages is ceil(total/pageSize) and 0 when total is 0.
func NewPage[T any](items []T, total int, spec Spec) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + spec.PageSize - 1) / spec.PageSize
	}
	return Page[T]{
		Items:      items,
		Total:      total,
		Page:       spec.Page,
		PageSize:   spec.PageSize,
		TotalPages: totalPages,
	}
}

func contains(fields []string, f string) bool {
	for _, v := range fields {
		if v == f {
			return true
		}
	}
	return false
}
