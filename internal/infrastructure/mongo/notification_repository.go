package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// NotificationFailureRepository keeps messenger notifications that could not
// be delivered so they can be replayed later.
type NotificationFailureRepository struct {
	collection *mongo.Collection
}

// NewNotificationFailureRepository binds the repository to collection in db.
func NewNotificationFailureRepository(db *mongo.Database, collection string) *NotificationFailureRepository {
	return &NotificationFailureRepository{collection: db.Collection(collection)}
}

// Record stores one failed delivery in pending status.
func (r *NotificationFailureRepository) Record(ctx context.Context, target string, payload map[string]any, cause error, attempts int) error {
	now := time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, bson.M{
		"target":      target,
		"payload":     payload,
		"error":       cause.Error(),
		"attempts":    attempts,
		"status":      "pending",
		"createdAt":   now,
		"lastTriedAt": now,
	})
	return err
}
