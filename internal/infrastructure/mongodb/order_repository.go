package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domain "github.com/krishibazaar/marketplace/internal/domain/order"
)

type OrderRepository struct {
	collection *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) (*OrderRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	collection := db.Collection("orders")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("mongodb: create order index: %w", err)
	}

	return &OrderRepository{collection: collection}, nil
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	if _, err := r.collection.InsertOne(ctx, toOrderDocument(o)); err != nil {
		return fmt.Errorf("mongodb: insert order: %w", err)
	}
	return nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	var doc orderDocument
	err := r.collection.FindOne(ctx, bson.M{"order_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: find order: %w", err)
	}
	return toOrderEntity(&doc)
}

func (r *OrderRepository) Update(ctx context.Context, o *domain.Order) error {
	doc := toOrderDocument(o)
	doc.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"order_id": o.ID}, doc)
	if err != nil {
		return fmt.Errorf("mongodb: update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *OrderRepository) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{})
}

func (r *OrderRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{"seller_id": sellerID})
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return r.list(ctx, bson.M{"buyer_id": buyerID})
}

func (r *OrderRepository) list(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("mongodb: list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Order
	for cursor.Next(ctx) {
		var doc orderDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongodb: decode order: %w", err)
		}
		o, err := toOrderEntity(&doc)
		if err != nil {
			return nil, fmt.Errorf("mongodb: decode order price: %w", err)
		}
		out = append(out, o)
	}
	return out, cursor.Err()
}
