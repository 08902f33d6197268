package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("product: not found")
	ErrInvalidName     = errors.New("product: name is required")
	ErrInvalidPrice    = errors.New("product: price must be greater than zero")
	ErrInvalidQuantity = errors.New("product: quantity must be zero or greater")
	ErrNotOwner        = errors.New("product: actor is not the listing owner")
)

const (
	DefaultImage    = "default.jpg"
	DefaultLocation = "Not specified"
)

// Product is a grower's listing. Quantity is the authoritative stock figure
// and is decremented only when an order against it is accepted.
type Product struct {
	ID         string
	Name       string
	Price      decimal.Decimal
	Quantity   int
	Category   string
	Location   string
	Image      string
	SellerID   string
	AcceptsCOD bool
	AcceptsUPI bool
	UPIQR      string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// New validates and builds a listing. At least one payment method must be
// enabled; when neither is, cash-on-delivery is the default.
func New(id, sellerID, name string, price decimal.Decimal, quantity int, category, location string, acceptsCOD, acceptsUPI bool) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if location == "" {
		location = DefaultLocation
	}
	if !acceptsCOD && !acceptsUPI {
		acceptsCOD = true
	}

	now := time.Now().UTC()
	return &Product{
		ID:         id,
		Name:       name,
		Price:      price,
		Quantity:   quantity,
		Category:   category,
		Location:   location,
		Image:      DefaultImage,
		SellerID:   sellerID,
		AcceptsCOD: acceptsCOD,
		AcceptsUPI: acceptsUPI,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// UpdateListing is the seller's out-of-band correction of price and quantity.
// It is not an order-driven mutation and bypasses the order state machine.
func (p *Product) UpdateListing(price decimal.Decimal, quantity int) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	if quantity < 0 {
		return ErrInvalidQuantity
	}
	p.Price = price
	p.Quantity = quantity
	p.touch()
	return nil
}

func (p *Product) InStock() bool { return p.Quantity > 0 }

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
