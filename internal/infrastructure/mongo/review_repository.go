package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sngm3741/product-page/internal/public/domain"
)

// ReviewRepository reads and seeds the review collection.
type ReviewRepository struct {
	reviews *mongo.Collection
}

// NewReviewRepository binds the repository to collection in db.
func NewReviewRepository(db *mongo.Database, collection string) *ReviewRepository {
	return &ReviewRepository{reviews: db.Collection(collection)}
}

// Load returns every review in source order. It satisfies the review source
// port of the data loader.
func (r *ReviewRepository) Load(ctx context.Context) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := r.reviews.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	defer cursor.Close(ctx)

	records := make([]domain.Review, 0)
	for cursor.Next(ctx) {
		var doc ReviewDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode review: %w", err)
		}
		records = append(records, doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Insert appends records after the ones already stored and returns how many
// were written.
func (r *ReviewRepository) Insert(ctx context.Context, records []domain.Review) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	start, err := r.nextSeq(ctx)
	if err != nil {
		return 0, err
	}
	docs := make([]any, 0, len(records))
	for i, rec := range records {
		docs = append(docs, reviewToDocument(start+i, rec))
	}
	res, err := r.reviews.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("insert reviews: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// Drop removes every stored review.
func (r *ReviewRepository) Drop(ctx context.Context) error {
	_, err := r.reviews.DeleteMany(ctx, bson.D{})
	return err
}

// EnsureIndexes creates the indexes the filters read through.
func (r *ReviewRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.reviews.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
	})
	return err
}

func (r *ReviewRepository) nextSeq(ctx context.Context) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "seq", Value: -1}})
	var last ReviewDocument
	err := r.reviews.FindOne(ctx, bson.D{}, opts).Decode(&last)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("find last review: %w", err)
	}
	return last.Seq + 1, nil
}
