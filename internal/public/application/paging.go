package application

import "github.com/sngm3741/product-page/internal/public/domain"

// DefaultPageSize is the number of reviews rendered per page.
const DefaultPageSize = 3

// PageOf returns the zero-based page of view. ok is false when the page lies
// past the end of view.
func PageOf(view []domain.Review, page, size int) (items []domain.Review, ok bool) {
	if size <= 0 {
		size = DefaultPageSize
	}
	// Compare page numbers before multiplying so huge values cannot wrap.
	if page < 0 || len(view) == 0 || page > (len(view)-1)/size {
		return nil, false
	}
	start := page * size
	end := len(view)
	if size < end-start {
		end = start + size
	}
	items = make([]domain.Review, end-start)
	copy(items, view[start:end])
	return items, true
}
