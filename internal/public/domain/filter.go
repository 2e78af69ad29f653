package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Filter selects which reviews are shown and in which order.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterRecent  Filter = "recent"
	FilterGood    Filter = "good"
	FilterBad     Filter = "bad"
	FilterPopular Filter = "popular"
)

// DefaultRecentWindow is how far back the recent filter looks.
const DefaultRecentWindow = 183 * 24 * time.Hour

// Filters lists every filter in the order the page offers them.
var Filters = []Filter{FilterAll, FilterRecent, FilterGood, FilterBad, FilterPopular}

// ErrUnknownFilter is returned by ParseFilter for values outside Filters.
var ErrUnknownFilter = errors.New("unknown review filter")

// ParseFilter accepts both the plain key ("good") and the form control id
// ("reviews-good").
func ParseFilter(raw string) (Filter, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.TrimPrefix(key, "reviews-")
	if key == "" {
		return FilterAll, nil
	}
	for _, f := range Filters {
		if string(f) == key {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, raw)
}

// ControlID returns the id of the radio input that selects the filter.
func (f Filter) ControlID() string {
	return "reviews-" + string(f)
}

// ViewOptions tunes how filtered views are derived.
type ViewOptions struct {
	RecentWindow time.Duration
}

// Apply derives the filtered view with the default recent window.
func Apply(records []Review, filter Filter, now time.Time) []Review {
	return ViewOptions{RecentWindow: DefaultRecentWindow}.Apply(records, filter, now)
}

// Apply returns a new slice holding the reviews selected by filter in the
// filter's order. records is never reordered or shared with the result.
func (o ViewOptions) Apply(records []Review, filter Filter, now time.Time) []Review {
	window := o.RecentWindow
	if window <= 0 {
		window = DefaultRecentWindow
	}

	view := make([]Review, len(records))
	copy(view, records)

	switch filter {
	case FilterRecent:
		cutoff := now.Add(-window)
		view = keep(view, func(r Review) bool { return !r.Date.Before(cutoff) })
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].Date.After(view[j].Date)
		})
	case FilterGood:
		view = keep(view, func(r Review) bool { return r.Rating >= 3 })
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].Rating > view[j].Rating
		})
	case FilterBad:
		view = keep(view, func(r Review) bool { return r.Rating <= 2 })
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].Rating < view[j].Rating
		})
	case FilterPopular:
		sort.SliceStable(view, func(i, j int) bool {
			return view[i].Popularity > view[j].Popularity
		})
	}
	return view
}

// keep filters in place; callers pass a slice they own.
func keep(reviews []Review, pred func(Review) bool) []Review {
	out := reviews[:0]
	for _, r := range reviews {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
