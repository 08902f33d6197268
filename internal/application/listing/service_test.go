package listing

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishibazaar/marketplace/internal/domain/actor"
	domain "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/infrastructure/memory"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string {
	return fmt.Sprintf("id-%d", s.n.Add(1))
}

var (
	grower   = actor.Actor{ID: "farmer-1", Role: actor.RoleFarmer}
	consumer = actor.Actor{ID: "buyer-1", Role: actor.RoleConsumer}
)

func newService() (*Service, *memory.ProductRepository) {
	repo := memory.NewProductRepository()
	return NewService(repo, &seqIDs{}, nil, nil), repo
}

func TestAddProduct(t *testing.T) {
	svc, repo := newService()

	p, err := svc.AddProduct(context.Background(), grower, AddProductInput{
		Name:       "Tomatoes",
		Price:      decimal.NewFromInt(30),
		Quantity:   50,
		Category:   "vegetables",
		AcceptsUPI: true,
	})
	require.NoError(t, err)
	assert.Equal(t, grower.ID, p.SellerID)

	stored, err := repo.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tomatoes", stored.Name)
}

func TestAddProduct_FarmersOnly(t *testing.T) {
	svc, _ := newService()

	_, err := svc.AddProduct(context.Background(), consumer, AddProductInput{
		Name:     "Tomatoes",
		Price:    decimal.NewFromInt(30),
		Quantity: 50,
	})
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestUpdateListing_OwnerOnly(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	p, err := svc.AddProduct(ctx, grower, AddProductInput{
		Name:     "Tomatoes",
		Price:    decimal.NewFromInt(30),
		Quantity: 50,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateListing(ctx, grower, p.ID, decimal.NewFromInt(35), 60)
	require.NoError(t, err)
	assert.Equal(t, 60, updated.Quantity)

	other := actor.Actor{ID: "farmer-2", Role: actor.RoleFarmer}
	_, err = svc.UpdateListing(ctx, other, p.ID, decimal.NewFromInt(1), 1)
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func TestSearch_InStockOnly(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.AddProduct(ctx, grower, AddProductInput{Name: "Tomatoes", Price: decimal.NewFromInt(30), Quantity: 50, Category: "vegetables"})
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, grower, AddProductInput{Name: "Okra", Price: decimal.NewFromInt(40), Quantity: 0})
	require.NoError(t, err)

	all, err := svc.Search(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Tomatoes", all[0].Name)

	byCategory, err := svc.Search(ctx, "VEGET")
	require.NoError(t, err)
	assert.Len(t, byCategory, 1)

	none, err := svc.Search(ctx, "mango")
	require.NoError(t, err)
	assert.Empty(t, none)
}
