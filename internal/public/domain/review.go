package domain

import "time"

// Review is one user review of the product as it arrives from the data file.
// Records are never modified after load.
type Review struct {
	Description string
	Rating      int
	Date        time.Time
	Author      Author
	// Popularity is the separate "review-rating" metric carried by the data
	// file. It is unrelated to Rating.
	Popularity int
}

// Author identifies who wrote a review.
type Author struct {
	Name    string
	Picture string
}

// RatingClass returns the CSS modifier for the review rating, or "" when the
// rating falls outside 1..5.
func (r Review) RatingClass() string {
	switch r.Rating {
	case 1:
		return "review-rating-one"
	case 2:
		return "review-rating-two"
	case 3:
		return "review-rating-three"
	case 4:
		return "review-rating-four"
	case 5:
		return "review-rating-five"
	}
	return ""
}

// Photo is a single screenshot shown by the gallery.
type Photo struct {
	ID  string
	Src string
}
