package product

import "time"

// ProductListedEvent is emitted when a grower publishes a new listing.
type ProductListedEvent struct {
	ProductID  string
	SellerID   string
	Name       string
	Quantity   int
	OccurredAt time.Time
}

func (ProductListedEvent) EventName() string { return "product.listed" }

func NewProductListedEvent(p *Product) ProductListedEvent {
	return ProductListedEvent{
		ProductID:  p.ID,
		SellerID:   p.SellerID,
		Name:       p.Name,
		Quantity:   p.Quantity,
		OccurredAt: time.Now().UTC(),
	}
}

// ProductUpdatedEvent is emitted on a seller's price/quantity correction.
type ProductUpdatedEvent struct {
	ProductID  string
	SellerID   string
	Name       string
	OccurredAt time.Time
}

func (ProductUpdatedEvent) EventName() string { return "product.updated" }

func NewProductUpdatedEvent(p *Product) ProductUpdatedEvent {
	return ProductUpdatedEvent{
		ProductID:  p.ID,
		SellerID:   p.SellerID,
		Name:       p.Name,
		OccurredAt: time.Now().UTC(),
	}
}
