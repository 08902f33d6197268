package order

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishibazaar/marketplace/internal/domain/actor"
	"github.com/krishibazaar/marketplace/internal/domain/inventory"
	domain "github.com/krishibazaar/marketplace/internal/domain/order"
	domoutbox "github.com/krishibazaar/marketplace/internal/domain/outbox"
	domproduct "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/infrastructure/memory"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NewID() string {
	return fmt.Sprintf("id-%d", s.n.Add(1))
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *capturingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *capturingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventName())
	}
	return out
}

type fixture struct {
	svc       *Service
	products  *memory.ProductRepository
	orders    *memory.OrderRepository
	publisher *capturingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	products := memory.NewProductRepository()
	orders := memory.NewOrderRepository()
	publisher := &capturingPublisher{}
	svc := NewService(orders, products, products, &seqIDs{}, publisher, nil)
	return &fixture{svc: svc, products: products, orders: orders, publisher: publisher}
}

func (f *fixture) seedProduct(t *testing.T, sellerID string, price int64, quantity int) *domproduct.Product {
	t.Helper()
	p, err := domproduct.New("prod-"+sellerID, sellerID, "Tomatoes", decimal.NewFromInt(price), quantity, "vegetables", "Pune", true, false)
	require.NoError(t, err)
	require.NoError(t, f.products.Insert(context.Background(), p))
	return p
}

var (
	buyer  = actor.Actor{ID: "buyer-1", Role: actor.RoleConsumer}
	seller = actor.Actor{ID: "seller-1", Role: actor.RoleFarmer}
)

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 50)
	ctx := context.Background()

	result, err := f.svc.CreateOrder(ctx, buyer, p.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, result.Status)

	// Creation does not reserve stock.
	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Quantity)

	assert.Equal(t, []string{"order.placed"}, f.publisher.names())
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 5)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, buyer, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.CreateOrder(ctx, buyer, p.ID, 6)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	_, err = f.svc.CreateOrder(ctx, buyer, "missing", 1)
	assert.ErrorIs(t, err, domproduct.ErrNotFound)
}

func TestTransitionOrder_AcceptDecrementsStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 50)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, buyer, p.ID, 20)
	require.NoError(t, err)

	result, err := f.svc.TransitionOrder(ctx, seller, created.OrderID, ActionAccept)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, result.Status)

	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Quantity)

	// The unit price in effect at acceptance is snapshotted on the order.
	o, err := f.orders.Get(ctx, created.OrderID)
	require.NoError(t, err)
	assert.True(t, o.UnitPrice.Equal(decimal.NewFromInt(30)))
}

func TestTransitionOrder_RejectLeavesStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 50)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, buyer, p.ID, 20)
	require.NoError(t, err)

	result, err := f.svc.TransitionOrder(ctx, seller, created.OrderID, ActionReject)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, result.Status)

	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, stored.Quantity)
}

func TestTransitionOrder_InsufficientStockKeepsOrderPending(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 10)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, buyer, p.ID, 8)
	require.NoError(t, err)

	// Stock drops out from under the pending order.
	require.NoError(t, f.products.Decrement(ctx, p.ID, 5))

	_, err = f.svc.TransitionOrder(ctx, seller, created.OrderID, ActionAccept)
	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)

	o, err := f.orders.Get(ctx, created.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, o.Status)

	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.Quantity)
}

func TestTransitionOrder_OnlySellerMayDecide(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 10)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, buyer, p.ID, 2)
	require.NoError(t, err)

	other := actor.Actor{ID: "seller-2", Role: actor.RoleFarmer}
	_, err = f.svc.TransitionOrder(ctx, other, created.OrderID, ActionAccept)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestTransitionOrder_AlreadyFinalized(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 10)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, buyer, p.ID, 2)
	require.NoError(t, err)

	_, err = f.svc.TransitionOrder(ctx, seller, created.OrderID, ActionReject)
	require.NoError(t, err)

	_, err = f.svc.TransitionOrder(ctx, seller, created.OrderID, ActionAccept)
	assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
}

func TestTransitionOrder_UnknownAction(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 10)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, buyer, p.ID, 2)
	require.NoError(t, err)

	_, err = f.svc.TransitionOrder(ctx, seller, created.OrderID, "archive")
	assert.ErrorIs(t, err, ErrInvalidAction)
}

// Two pending orders jointly exceed stock; exactly one acceptance may win and
// the loser's order must stay pending.
func TestTransitionOrder_ConcurrentAcceptsNeverOversell(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 10)
	ctx := context.Background()

	first, err := f.svc.CreateOrder(ctx, buyer, p.ID, 6)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, actor.Actor{ID: "buyer-2", Role: actor.RoleConsumer}, p.ID, 7)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, orderID := range []string{first.OrderID, second.OrderID} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.TransitionOrder(ctx, seller, orderID, ActionAccept)
		}()
	}
	wg.Wait()

	var accepted, failed int
	for _, err := range errs {
		if err == nil {
			accepted++
		} else {
			assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, failed)

	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stored.Quantity, 0)
}

// The same order accepted from two goroutines decrements stock exactly once.
func TestTransitionOrder_ConcurrentDoubleAccept(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 10)
	ctx := context.Background()

	created, err := f.svc.CreateOrder(ctx, buyer, p.ID, 4)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.svc.TransitionOrder(ctx, seller, created.OrderID, ActionAccept)
		}()
	}
	wg.Wait()

	var succeeded int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyFinalized)
		}
	}
	assert.Equal(t, 1, succeeded)

	stored, err := f.products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.Quantity)
}

func TestListForActor(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, seller.ID, 30, 50)
	ctx := context.Background()

	_, err := f.svc.CreateOrder(ctx, buyer, p.ID, 1)
	require.NoError(t, err)
	_, err = f.svc.CreateOrder(ctx, actor.Actor{ID: "buyer-2", Role: actor.RoleConsumer}, p.ID, 2)
	require.NoError(t, err)

	sellerView, err := f.svc.ListForActor(ctx, seller)
	require.NoError(t, err)
	assert.Len(t, sellerView, 2)

	buyerView, err := f.svc.ListForActor(ctx, buyer)
	require.NoError(t, err)
	assert.Len(t, buyerView, 1)
}
