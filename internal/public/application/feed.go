package application

import (
	"sync"
	"time"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// FeedOptions configures a Feed.
type FeedOptions struct {
	PageSize     int
	RecentWindow time.Duration
	Now          func() time.Time
}

// Feed owns the review list state of one page view: the full record set, the
// active filter, its derived view and the number of pages rendered so far.
type Feed struct {
	mu sync.Mutex

	records  []domain.Review
	view     []domain.Review
	active   domain.Filter
	page     int
	pageSize int
	options  domain.ViewOptions
	now      func() time.Time
}

// NewFeed starts a feed on the "all" filter with nothing rendered yet.
func NewFeed(records []domain.Review, opts FeedOptions) *Feed {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	f := &Feed{
		records:  records,
		active:   domain.FilterAll,
		pageSize: opts.PageSize,
		options:  domain.ViewOptions{RecentWindow: opts.RecentWindow},
		now:      opts.Now,
	}
	f.view = f.options.Apply(f.records, f.active, f.now())
	return f
}

// Open renders the first page of the active filter, discarding anything
// rendered before.
func (f *Feed) Open() []domain.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.page = 0
	return f.nextLocked()
}

// SelectFilter switches the active filter and returns the first page of the
// new view. Selecting the active filter again changes nothing and reports
// false so callers skip rendering.
func (f *Feed) SelectFilter(filter domain.Filter) ([]domain.Review, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if filter == f.active {
		return nil, false
	}
	f.active = filter
	f.view = f.options.Apply(f.records, filter, f.now())
	f.page = 0
	return f.nextLocked(), true
}

// LoadMore returns the next page of the active view. It reports false and
// leaves the cursor alone once the view is exhausted.
func (f *Feed) LoadMore() ([]domain.Review, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page*f.pageSize >= len(f.view) {
		return nil, false
	}
	return f.nextLocked(), true
}

func (f *Feed) nextLocked() []domain.Review {
	items, ok := PageOf(f.view, f.page, f.pageSize)
	if !ok {
		return []domain.Review{}
	}
	f.page++
	return items
}

// MoreVisible reports whether the "load more" control should be shown: at
// least one page is rendered and another one exists.
func (f *Feed) MoreVisible() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page > 0 && f.page*f.pageSize < len(f.view)
}

// Snapshot describes the feed for rendering and logging.
type Snapshot struct {
	Filter   domain.Filter
	Page     int
	PageSize int
	Total    int
	More     bool
}

// Snapshot returns the current feed state.
func (f *Feed) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Snapshot{
		Filter:   f.active,
		Page:     f.page,
		PageSize: f.pageSize,
		Total:    len(f.view),
		More:     f.page > 0 && f.page*f.pageSize < len(f.view),
	}
}
