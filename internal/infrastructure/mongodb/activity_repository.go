package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/krishibazaar/marketplace/internal/domain/activity"
)

type ActivityRepository struct {
	collection *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{collection: db.Collection("activity_log")}
}

func (r *ActivityRepository) Append(ctx context.Context, e activity.Entry) error {
	if _, err := r.collection.InsertOne(ctx, toActivityDocument(e)); err != nil {
		return fmt.Errorf("mongodb: append activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]activity.Entry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongodb: list activity: %w", err)
	}
	defer cursor.Close(ctx)

	var out []activity.Entry
	for cursor.Next(ctx) {
		var doc activityDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongodb: decode activity: %w", err)
		}
		out = append(out, toActivityEntry(&doc))
	}
	return out, cursor.Err()
}
