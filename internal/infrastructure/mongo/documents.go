package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// ReviewDocument is the stored form of one review record. Seq keeps the
// order of the source data file, which the "all" filter shows as-is.
type ReviewDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Seq         int                `bson:"seq"`
	Description string             `bson:"description"`
	Rating      int                `bson:"rating"`
	Date        time.Time          `bson:"date"`
	Author      AuthorDocument     `bson:"author"`
	Popularity  int                `bson:"reviewRating"`
}

// AuthorDocument is embedded in ReviewDocument.
type AuthorDocument struct {
	Name    string `bson:"name"`
	Picture string `bson:"picture,omitempty"`
}

// FeedbackDocument is one stored form submission.
type FeedbackDocument struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Rating      int       `bson:"rating"`
	Text        string    `bson:"text,omitempty"`
	SubmittedAt time.Time `bson:"submittedAt"`
}

func reviewToDocument(seq int, r domain.Review) ReviewDocument {
	return ReviewDocument{
		Seq:         seq,
		Description: r.Description,
		Rating:      r.Rating,
		Date:        r.Date.UTC(),
		Author:      AuthorDocument{Name: r.Author.Name, Picture: r.Author.Picture},
		Popularity:  r.Popularity,
	}
}

func (d ReviewDocument) toDomain() domain.Review {
	return domain.Review{
		Description: d.Description,
		Rating:      d.Rating,
		Date:        d.Date,
		Author:      domain.Author{Name: d.Author.Name, Picture: d.Author.Picture},
		Popularity:  d.Popularity,
	}
}

func feedbackToDocument(f *domain.Feedback) FeedbackDocument {
	return FeedbackDocument{
		ID:          f.ID,
		Name:        f.Name,
		Rating:      f.Rating,
		Text:        f.Text,
		SubmittedAt: f.SubmittedAt,
	}
}

func (d FeedbackDocument) toDomain() domain.Feedback {
	return domain.Feedback{
		ID:          d.ID,
		Name:        d.Name,
		Rating:      d.Rating,
		Text:        d.Text,
		SubmittedAt: d.SubmittedAt,
	}
}
