package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/krishibazaar/marketplace/internal/domain/inventory"
	domain "github.com/krishibazaar/marketplace/internal/domain/product"
)

// ProductRepository persists listings in the products collection and doubles
// as the inventory ledger. Decrement uses a single FindOneAndUpdate whose
// filter requires quantity >= amount, so the re-check and the decrement are
// one server-side compare-and-swap; two racing accepts cannot both win the
// last units.
type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(db *mongo.Database) (*ProductRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	collection := db.Collection("products")
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("mongodb: create product index: %w", err)
	}

	return &ProductRepository{collection: collection}, nil
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	if _, err := r.collection.InsertOne(ctx, toProductDocument(p)); err != nil {
		return fmt.Errorf("mongodb: insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	var doc productDocument
	err := r.collection.FindOne(ctx, bson.M{"product_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongodb: find product: %w", err)
	}
	return toProductEntity(&doc)
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	doc := toProductDocument(p)
	doc.UpdatedAt = time.Now().UTC()

	result, err := r.collection.ReplaceOne(ctx, bson.M{"product_id": p.ID}, doc)
	if err != nil {
		return fmt.Errorf("mongodb: update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	return r.list(ctx, bson.M{})
}

func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error) {
	return r.list(ctx, bson.M{"seller_id": sellerID})
}

func (r *ProductRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	filter := bson.M{"quantity": bson.M{"$gt": 0}}
	if query != "" {
		pattern := primitiveRegex(query)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"category": pattern},
			bson.M{"location": pattern},
		}
	}
	return r.list(ctx, filter)
}

func (r *ProductRepository) list(ctx context.Context, filter bson.M) ([]*domain.Product, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongodb: list products: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Product
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongodb: decode product: %w", err)
		}
		p, err := toProductEntity(&doc)
		if err != nil {
			return nil, fmt.Errorf("mongodb: decode product price: %w", err)
		}
		out = append(out, p)
	}
	return out, cursor.Err()
}

// CurrentQuantity implements inventory.Ledger.
func (r *ProductRepository) CurrentQuantity(ctx context.Context, productID string) (int, error) {
	p, err := r.Get(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.Quantity, nil
}

// Decrement implements inventory.Ledger.
func (r *ProductRepository) Decrement(ctx context.Context, productID string, amount int) error {
	if amount <= 0 {
		return inventory.ErrInvalidAmount
	}

	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"product_id": productID, "quantity": bson.M{"$gte": amount}},
		bson.M{
			"$inc": bson.M{"quantity": -amount},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		},
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the product is unknown or the stock cannot cover the amount.
		if _, getErr := r.Get(ctx, productID); getErr != nil {
			return getErr
		}
		return inventory.ErrInsufficientStock
	}
	if err != nil {
		return fmt.Errorf("mongodb: decrement quantity: %w", err)
	}
	return nil
}

func primitiveRegex(query string) bson.M {
	return bson.M{"$regex": query, "$options": "i"}
}
