package order

import "context"

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	Update(ctx context.Context, o *Order) error
	ListAll(ctx context.Context) ([]*Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error)
}
