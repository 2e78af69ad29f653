package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func review(rating int, daysAgo int, popularity int) Review {
	return Review{
		Description: "text",
		Rating:      rating,
		Date:        testNow.Add(-time.Duration(daysAgo) * 24 * time.Hour),
		Popularity:  popularity,
	}
}

func ratings(reviews []Review) []int {
	out := make([]int, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.Rating)
	}
	return out
}

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{
		"":                FilterAll,
		"all":             FilterAll,
		"reviews-recent":  FilterRecent,
		" GOOD ":          FilterGood,
		"reviews-bad":     FilterBad,
		"reviews-popular": FilterPopular,
	}
	for raw, want := range cases {
		got, err := ParseFilter(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	_, err := ParseFilter("best")
	require.True(t, errors.Is(err, ErrUnknownFilter))
}

func TestApplyAllKeepsSourceOrder(t *testing.T) {
	records := []Review{review(2, 1, 0), review(5, 2, 0), review(1, 3, 0)}
	require.Equal(t, []int{2, 5, 1}, ratings(Apply(records, FilterAll, testNow)))
}

func TestApplyNeverMutatesInput(t *testing.T) {
	records := []Review{review(1, 1, 3), review(5, 2, 1), review(3, 3, 2)}
	for _, f := range Filters {
		view := Apply(records, f, testNow)
		if len(view) > 0 {
			view[0].Rating = 99
		}
		require.Equal(t, []int{1, 5, 3}, ratings(records), "filter %s", f)
	}
}

func TestGoodAndBadPartitionRatings(t *testing.T) {
	var records []Review
	for rating := 1; rating <= 5; rating++ {
		records = append(records, review(rating, 1, 0))
	}

	good := Apply(records, FilterGood, testNow)
	bad := Apply(records, FilterBad, testNow)

	require.Equal(t, []int{5, 4, 3}, ratings(good))
	require.Equal(t, []int{1, 2}, ratings(bad))
	require.Len(t, append(good, bad...), len(records))
}

func TestRecentExcludesOldReviews(t *testing.T) {
	records := []Review{
		review(4, 200, 0),
		review(3, 10, 0),
		review(2, 183, 0),
		review(1, 184, 0),
		review(5, 1, 0),
	}
	view := Apply(records, FilterRecent, testNow)

	cutoff := testNow.Add(-DefaultRecentWindow)
	for _, r := range view {
		require.False(t, r.Date.Before(cutoff))
	}
	require.Equal(t, []int{5, 3, 2}, ratings(view))
}

func TestScenarioTwoRecords(t *testing.T) {
	t0 := testNow.Add(-20 * 24 * time.Hour)
	t1 := testNow.Add(-5 * 24 * time.Hour)
	records := []Review{{Rating: 1, Date: t0}, {Rating: 5, Date: t1}}

	require.Equal(t, []int{1}, ratings(Apply(records, FilterBad, testNow)))
	require.Equal(t, []int{5}, ratings(Apply(records, FilterGood, testNow)))

	recent := Apply(records, FilterRecent, testNow)
	require.Len(t, recent, 2)
	require.Equal(t, t1, recent[0].Date)
	require.Equal(t, t0, recent[1].Date)
}

func TestPopularSortsByPopularityNotRating(t *testing.T) {
	records := []Review{review(5, 1, 1), review(1, 1, 9), review(3, 1, 4)}
	require.Equal(t, []int{1, 3, 5}, ratings(Apply(records, FilterPopular, testNow)))
}

func TestCustomRecentWindow(t *testing.T) {
	records := []Review{review(1, 5, 0), review(2, 40, 0)}
	view := ViewOptions{RecentWindow: 30 * 24 * time.Hour}.Apply(records, FilterRecent, testNow)
	require.Equal(t, []int{1}, ratings(view))
}

func TestRatingClass(t *testing.T) {
	require.Equal(t, "review-rating-one", Review{Rating: 1}.RatingClass())
	require.Equal(t, "review-rating-five", Review{Rating: 5}.RatingClass())
	require.Equal(t, "", Review{Rating: 0}.RatingClass())
	require.Equal(t, "", Review{Rating: 6}.RatingClass())
}
