package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// FeedbackRepository stores review form submissions.
type FeedbackRepository struct {
	feedback *mongo.Collection
}

// NewFeedbackRepository binds the repository to collection in db.
func NewFeedbackRepository(db *mongo.Database, collection string) *FeedbackRepository {
	return &FeedbackRepository{feedback: db.Collection(collection)}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	if _, err := r.feedback.InsertOne(ctx, feedbackToDocument(feedback)); err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}

// List returns up to limit submissions, newest first.
func (r *FeedbackRepository) List(ctx context.Context, limit int) ([]domain.Feedback, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "submittedAt", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := r.feedback.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find feedback: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []FeedbackDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode feedback: %w", err)
	}
	out := make([]domain.Feedback, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// EnsureIndexes creates the listing index.
func (r *FeedbackRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.feedback.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "submittedAt", Value: -1}},
	})
	return err
}
