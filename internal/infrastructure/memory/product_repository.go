package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/krishibazaar/marketplace/internal/domain/inventory"
	domain "github.com/krishibazaar/marketplace/internal/domain/product"
)

// ProductRepository is the in-memory listing store. It also serves as the
// inventory ledger: Decrement runs under the repository lock, so the stock
// re-check and the write are one atomic step per product.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]*domain.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{products: make(map[string]*domain.Product)}
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return domain.ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	_ = ctx
	if p == nil || p.ID == "" {
		return domain.ErrNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[p.ID]; !ok {
		return domain.ErrNotFound
	}
	r.products[p.ID] = p.Clone()
	return nil
}

func (r *ProductRepository) ListAll(ctx context.Context) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *ProductRepository) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Product, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Product
	for _, p := range r.products {
		if p.SellerID == sellerID {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *ProductRepository) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	_ = ctx
	q := strings.ToLower(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Product
	for _, p := range r.products {
		if !p.InStock() {
			continue
		}
		if q == "" || matches(p, q) {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func matches(p *domain.Product, q string) bool {
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Category), q) ||
		strings.Contains(strings.ToLower(p.Location), q)
}

// CurrentQuantity implements inventory.Ledger.
func (r *ProductRepository) CurrentQuantity(ctx context.Context, productID string) (int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return p.Quantity, nil
}

// Decrement implements inventory.Ledger. The check and the write happen under
// one lock hold; a decrement that would go negative fails and changes nothing.
func (r *ProductRepository) Decrement(ctx context.Context, productID string, amount int) error {
	_ = ctx
	if amount <= 0 {
		return inventory.ErrInvalidAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[productID]
	if !ok {
		return domain.ErrNotFound
	}
	if amount > p.Quantity {
		return inventory.ErrInsufficientStock
	}
	p.Quantity -= amount
	return nil
}
