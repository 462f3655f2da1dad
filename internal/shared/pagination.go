package shared

import "math"

const defaultPerPage = 20

// Pagination carries listing window metadata for paginated endpoints.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPagination normalises page inputs. Page and per-page values at or
// below zero fall back to the first page of the default window.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the SQL offset for the current window.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}
