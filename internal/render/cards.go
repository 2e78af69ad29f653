package render

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sngm3741/product-page/internal/public/domain"
	"github.com/sngm3741/product-page/internal/thumbnail"
)

// maxConcurrentThumbnails caps the thumbnail races running for one list.
const maxConcurrentThumbnails = 8

// Card is the display form of one review.
type Card struct {
	Description string
	Rating      int
	RatingClass string
	AuthorName  string
	// Picture is set only when the thumbnail won its race.
	Picture   string
	Thumbnail thumbnail.Outcome
}

// Failed reports whether the card shows the failure indicator.
func (c Card) Failed() bool { return c.Thumbnail == thumbnail.Failed }

// NewCard maps a review without resolving its thumbnail.
func NewCard(r domain.Review) Card {
	return Card{
		Description: r.Description,
		Rating:      r.Rating,
		RatingClass: r.RatingClass(),
		AuthorName:  r.Author.Name,
	}
}

// Settle resolves the thumbnail of every card concurrently. Each card is
// independent; a failed or timed out thumbnail only affects its own card.
func (r *Renderer) Settle(ctx context.Context, reviews []domain.Review) []Card {
	cards := make([]Card, len(reviews))
	var g errgroup.Group
	g.SetLimit(maxConcurrentThumbnails)
	for i, review := range reviews {
		cards[i] = NewCard(review)
		if r.racer == nil {
			continue
		}
		g.Go(func() error {
			res, err := r.racer.Resolve(ctx, review.Author.Picture)
			if err != nil {
				r.logger.Debug("thumbnail left unsettled", zap.String("src", review.Author.Picture), zap.Error(err))
				res = thumbnail.Result{Outcome: thumbnail.Failed, Reason: "cancelled"}
			}
			cards[i].Thumbnail = res.Outcome
			if res.Outcome == thumbnail.Loaded {
				cards[i].Picture = review.Author.Picture
			}
			return nil
		})
	}
	_ = g.Wait()
	return cards
}
