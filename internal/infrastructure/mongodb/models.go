package mongodb

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/krishibazaar/marketplace/internal/domain/activity"
	domorder "github.com/krishibazaar/marketplace/internal/domain/order"
	domproduct "github.com/krishibazaar/marketplace/internal/domain/product"
)

// Prices travel as strings so decimal values survive the round trip exactly.

type productDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ProductID  string             `bson:"product_id"`
	Name       string             `bson:"name"`
	Price      string             `bson:"price"`
	Quantity   int                `bson:"quantity"`
	Category   string             `bson:"category"`
	Location   string             `bson:"location"`
	Image      string             `bson:"image"`
	SellerID   string             `bson:"seller_id"`
	AcceptsCOD bool               `bson:"accepts_cod"`
	AcceptsUPI bool               `bson:"accepts_upi"`
	UPIQR      string             `bson:"upi_qr"`
	CreatedAt  time.Time          `bson:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at"`
}

func toProductDocument(p *domproduct.Product) *productDocument {
	return &productDocument{
		ProductID:  p.ID,
		Name:       p.Name,
		Price:      p.Price.String(),
		Quantity:   p.Quantity,
		Category:   p.Category,
		Location:   p.Location,
		Image:      p.Image,
		SellerID:   p.SellerID,
		AcceptsCOD: p.AcceptsCOD,
		AcceptsUPI: p.AcceptsUPI,
		UPIQR:      p.UPIQR,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func toProductEntity(doc *productDocument) (*domproduct.Product, error) {
	price, err := decimal.NewFromString(doc.Price)
	if err != nil {
		return nil, err
	}
	return &domproduct.Product{
		ID:         doc.ProductID,
		Name:       doc.Name,
		Price:      price,
		Quantity:   doc.Quantity,
		Category:   doc.Category,
		Location:   doc.Location,
		Image:      doc.Image,
		SellerID:   doc.SellerID,
		AcceptsCOD: doc.AcceptsCOD,
		AcceptsUPI: doc.AcceptsUPI,
		UPIQR:      doc.UPIQR,
		CreatedAt:  doc.CreatedAt,
		UpdatedAt:  doc.UpdatedAt,
	}, nil
}

type orderDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	OrderID       string             `bson:"order_id"`
	ProductID     string             `bson:"product_id"`
	BuyerID       string             `bson:"buyer_id"`
	SellerID      string             `bson:"seller_id"`
	Quantity      int                `bson:"quantity"`
	UnitPrice     string             `bson:"unit_price"`
	Status        string             `bson:"status"`
	PaymentMethod string             `bson:"payment_method"`
	CreatedAt     time.Time          `bson:"created_at"`
	UpdatedAt     time.Time          `bson:"updated_at"`
}

func toOrderDocument(o *domorder.Order) *orderDocument {
	return &orderDocument{
		OrderID:       o.ID,
		ProductID:     o.ProductID,
		BuyerID:       o.BuyerID,
		SellerID:      o.SellerID,
		Quantity:      o.Quantity,
		UnitPrice:     o.UnitPrice.String(),
		Status:        string(o.Status),
		PaymentMethod: string(o.PaymentMethod),
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toOrderEntity(doc *orderDocument) (*domorder.Order, error) {
	unitPrice, err := decimal.NewFromString(doc.UnitPrice)
	if err != nil {
		return nil, err
	}
	return &domorder.Order{
		ID:            doc.OrderID,
		ProductID:     doc.ProductID,
		BuyerID:       doc.BuyerID,
		SellerID:      doc.SellerID,
		Quantity:      doc.Quantity,
		UnitPrice:     unitPrice,
		Status:        domorder.Status(doc.Status),
		PaymentMethod: domorder.PaymentMethod(doc.PaymentMethod),
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}, nil
}

type activityDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EntryID    string             `bson:"entry_id"`
	ActorID    string             `bson:"actor_id"`
	Action     string             `bson:"action"`
	OccurredAt time.Time          `bson:"occurred_at"`
}

func toActivityDocument(e activity.Entry) *activityDocument {
	return &activityDocument{
		EntryID:    e.ID,
		ActorID:    e.ActorID,
		Action:     e.Action,
		OccurredAt: e.OccurredAt,
	}
}

func toActivityEntry(doc *activityDocument) activity.Entry {
	return activity.Entry{
		ID:         doc.EntryID,
		ActorID:    doc.ActorID,
		Action:     doc.Action,
		OccurredAt: doc.OccurredAt,
	}
}
