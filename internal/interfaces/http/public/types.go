package public

import (
	"time"

	"github.com/sngm3741/product-page/internal/gallery"
	"github.com/sngm3741/product-page/internal/public/domain"
)

type authorResponse struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

type reviewResponse struct {
	Description  string         `json:"description"`
	Rating       int            `json:"rating"`
	RatingClass  string         `json:"ratingClass,omitempty"`
	Date         string         `json:"date"`
	Author       authorResponse `json:"author"`
	ReviewRating int            `json:"review-rating"`
}

type reviewPageResponse struct {
	Filter domain.Filter    `json:"filter"`
	Page   int              `json:"page"`
	Total  int              `json:"total"`
	More   bool             `json:"more"`
	Items  []reviewResponse `json:"items"`
}

type reviewListResponse struct {
	Filter domain.Filter    `json:"filter"`
	Items  []reviewResponse `json:"items"`
	Page   int              `json:"page"`
	Limit  int              `json:"limit"`
	Total  int              `json:"total"`
}

type photoResponse struct {
	ID  string `json:"id"`
	Src string `json:"src"`
}

type galleryResponse struct {
	State    string        `json:"state"`
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Photo    photoResponse `json:"photo"`
	Fragment string        `json:"fragment"`
	HasPrev  bool          `json:"hasPrev"`
	HasNext  bool          `json:"hasNext"`
	Handled  *bool         `json:"handled,omitempty"`
}

type feedbackResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Rating      int       `json:"rating"`
	Text        string    `json:"text,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

type feedbackRequest struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

func toReviewResponses(reviews []domain.Review) []reviewResponse {
	out := make([]reviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, reviewResponse{
			Description:  r.Description,
			Rating:       r.Rating,
			RatingClass:  r.RatingClass(),
			Date:         r.Date.Format("2006-01-02"),
			Author:       authorResponse{Name: r.Author.Name, Picture: r.Author.Picture},
			ReviewRating: r.Popularity,
		})
	}
	return out
}

func toGalleryResponse(v gallery.View) galleryResponse {
	return galleryResponse{
		State:    v.State.String(),
		Index:    v.Index,
		Total:    v.Total,
		Photo:    photoResponse{ID: v.Current.ID, Src: v.Current.Src},
		Fragment: v.Fragment,
		HasPrev:  v.HasPrev,
		HasNext:  v.HasNext,
	}
}

func toFeedbackResponse(f domain.Feedback) feedbackResponse {
	return feedbackResponse{
		ID:          f.ID,
		Name:        f.Name,
		Rating:      f.Rating,
		Text:        f.Text,
		SubmittedAt: f.SubmittedAt,
	}
}
