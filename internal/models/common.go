package models

// Pagination carries offset pagination metadata on list responses.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination derives page counts from the total row count.
func NewPagination(page, perPage, total int) *Pagination {
	if perPage <= 0 {
		perPage = 1
	}
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}
	return &Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}
