package report

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishibazaar/marketplace/internal/domain/activity"
	"github.com/krishibazaar/marketplace/internal/domain/actor"
	domorder "github.com/krishibazaar/marketplace/internal/domain/order"
	domproduct "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/infrastructure/memory"
)

var (
	admin   = actor.Actor{ID: "admin-1", Role: actor.RoleAdmin}
	grower  = actor.Actor{ID: "farmer-1", Role: actor.RoleFarmer}
	grower2 = actor.Actor{ID: "farmer-2", Role: actor.RoleFarmer}
)

func seedProduct(t *testing.T, repo *memory.ProductRepository, id, sellerID string, price int64, qty int) {
	t.Helper()
	p, err := domproduct.New(id, sellerID, "Produce "+id, decimal.NewFromInt(price), qty, "", "", true, false)
	require.NoError(t, err)
	require.NoError(t, repo.Insert(context.Background(), p))
}

func seedOrder(t *testing.T, repo *memory.OrderRepository, id, productID, sellerID string, qty int, acceptAt int64) {
	t.Helper()
	o, err := domorder.New(id, productID, "buyer-1", sellerID, qty)
	require.NoError(t, err)
	if acceptAt > 0 {
		require.NoError(t, o.Accept(decimal.NewFromInt(acceptAt)))
	}
	require.NoError(t, repo.Insert(context.Background(), o))
}

func TestReconcile_AdminScope(t *testing.T) {
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	svc := NewService(orders, products, memory.NewActivityRepository(), nil)
	ctx := context.Background()

	seedProduct(t, products, "p-1", grower.ID, 30, 40)
	seedProduct(t, products, "p-2", grower2.ID, 50, 25)

	seedOrder(t, orders, "o-1", "p-1", grower.ID, 10, 30) // accepted, 300
	seedOrder(t, orders, "o-2", "p-2", grower2.ID, 4, 50) // accepted, 200
	seedOrder(t, orders, "o-3", "p-1", grower.ID, 99, 0)  // pending, excluded

	summary, err := svc.Reconcile(ctx, admin)
	require.NoError(t, err)

	assert.Equal(t, 14, summary.TotalAcceptedQuantity)
	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, 65, summary.TotalInventory)
}

func TestReconcile_SellerScope(t *testing.T) {
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	svc := NewService(orders, products, memory.NewActivityRepository(), nil)

	seedProduct(t, products, "p-1", grower.ID, 30, 40)
	seedProduct(t, products, "p-2", grower2.ID, 50, 25)
	seedOrder(t, orders, "o-1", "p-1", grower.ID, 10, 30)
	seedOrder(t, orders, "o-2", "p-2", grower2.ID, 4, 50)

	summary, err := svc.Reconcile(context.Background(), grower)
	require.NoError(t, err)

	assert.Equal(t, 10, summary.TotalAcceptedQuantity)
	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(300)))
	assert.Equal(t, 40, summary.TotalInventory)
}

// Revenue is based on the price snapshotted at acceptance, not the listing's
// current price.
func TestReconcile_RevenueUsesAcceptedPrice(t *testing.T) {
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	svc := NewService(orders, products, memory.NewActivityRepository(), nil)
	ctx := context.Background()

	seedProduct(t, products, "p-1", grower.ID, 30, 40)
	seedOrder(t, orders, "o-1", "p-1", grower.ID, 10, 30)

	// The seller re-prices the listing after the sale.
	p, err := products.Get(ctx, "p-1")
	require.NoError(t, err)
	require.NoError(t, p.UpdateListing(decimal.NewFromInt(99), p.Quantity))
	require.NoError(t, products.Update(ctx, p))

	summary, err := svc.Reconcile(ctx, admin)
	require.NoError(t, err)
	assert.True(t, summary.TotalRevenue.Equal(decimal.NewFromInt(300)))
}

func TestReconcile_Empty(t *testing.T) {
	svc := NewService(memory.NewOrderRepository(), memory.NewProductRepository(), memory.NewActivityRepository(), nil)

	summary, err := svc.Reconcile(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalAcceptedQuantity)
	assert.True(t, summary.TotalRevenue.IsZero())
	assert.Equal(t, 0, summary.TotalInventory)
}

func TestRecentActivity_AdminOnly(t *testing.T) {
	trail := memory.NewActivityRepository()
	svc := NewService(memory.NewOrderRepository(), memory.NewProductRepository(), trail, nil)
	ctx := context.Background()

	require.NoError(t, trail.Append(ctx, activity.Entry{ID: "a-1", ActorID: grower.ID, Action: "Added new product: Tomatoes"}))

	entries, err := svc.RecentActivity(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = svc.RecentActivity(ctx, grower)
	assert.ErrorIs(t, err, domorder.ErrUnauthorized)
}
