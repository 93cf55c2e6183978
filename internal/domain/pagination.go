package domain

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// PageRequest is a 1-based page request.
type PageRequest struct {
	Page  int
	Limit int
}

// NewPageRequest normalizes page and limit into valid bounds.
func NewPageRequest(page, limit int) PageRequest {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PageRequest{Page: page, Limit: limit}
}

// Skip returns (page-1)*limit.
func (p PageRequest) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Pagination is the envelope returned with every list.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes pages = ceil(total/limit).
func NewPagination(p PageRequest, total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, Pages: pages}
}

// SortKey orders a query by a single stored field.
type SortKey struct {
	Field string
	Desc  bool
}

// Sort is an ordered list of sort keys; later keys break ties.
type Sort []SortKey

// Page is one page of results plus its pagination envelope.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
