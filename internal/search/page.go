package search

import "github.com/greencity/event-service/internal/domain"

// PageRequest selects a zero-based page of Size results.
type PageRequest struct {
	Number int
	Size   int
	Sort   []Order
}

func (p PageRequest) Validate() error {
	if p.Size <= 0 {
		return domain.ErrInvalidPageRequest("invalid page request", map[string]string{
			"size": "must be > 0",
		})
	}
	if p.Number < 0 {
		return domain.ErrInvalidPageRequest("invalid page request", map[string]string{
			"page": "must be >= 0",
		})
	}
	return nil
}

func (p PageRequest) Offset() int { return p.Number * p.Size }

// Page is one page of results plus the total across all pages.
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"total_elements"`
	Size          int   `json:"size"`
	Number        int   `json:"number"`
}

func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

func (p Page[T]) HasNext() bool {
	return p.Number+1 < p.TotalPages()
}
