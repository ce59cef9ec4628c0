package models

// Pagination carries list metadata in response envelopes.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// NewPagination builds list metadata from the requested page and the total
// row count.
func NewPagination(page, pageSize, totalCount int) *Pagination {
	return &Pagination{Page: page, PageSize: pageSize, TotalCount: totalCount}
}
