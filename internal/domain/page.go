package domain

import (
	"fmt"
	"math"
)

// MaxPageSize bounds product pages. Category pages use a caller-chosen
// ceiling via NewBoundedPageRequest.
const MaxPageSize = 100

var ErrInvalidPageRequest = fmt.Errorf("%w: page must be >= 0 and size between 1 and %d", ErrValidation, MaxPageSize)

// PageRequest selects one page of an ordered result set.
type PageRequest struct {
	Page int
	Size int
}

// NewPageRequest validates page bounds.
func NewPageRequest(page, size int) (PageRequest, error) {
	return newPageRequest(page, size, MaxPageSize)
}

// NewBoundedPageRequest is NewPageRequest with a caller-chosen size ceiling.
func NewBoundedPageRequest(page, size, maxSize int) (PageRequest, error) {
	return newPageRequest(page, size, maxSize)
}

func newPageRequest(page, size, maxSize int) (PageRequest, error) {
	if page < 0 || size < 1 || size > maxSize {
		return PageRequest{}, ErrInvalidPageRequest
	}
	// Offset must stay representable
	if page > (math.MaxInt-size)/size {
		return PageRequest{}, ErrInvalidPageRequest
	}
	return PageRequest{Page: page, Size: size}, nil
}

// Offset is the number of rows skipped before this page.
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is a bounded slice of a larger ordered result set.
type Page[T any] struct {
	Items         []T
	Page          int
	Size          int
	TotalElements int64
}

// NewPage assembles a page for the given request.
func NewPage[T any](items []T, req PageRequest, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:         items,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
	}
}

// TotalPages is ceil(TotalElements / Size).
func (p Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}
