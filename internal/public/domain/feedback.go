package domain

import "time"

// Feedback is a review submitted through the product page form.
type Feedback struct {
	ID          string
	Name        string
	Rating      int
	Text        string
	SubmittedAt time.Time
}
