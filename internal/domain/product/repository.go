package product

import "context"

type Repository interface {
	Insert(ctx context.Context, p *Product) error
	Get(ctx context.Context, id string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	ListAll(ctx context.Context) ([]*Product, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*Product, error)
	// Search matches name, category, or location case-insensitively,
	// restricted to in-stock listings.
	Search(ctx context.Context, query string) ([]*Product, error)
}
