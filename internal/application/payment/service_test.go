package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/krishibazaar/marketplace/internal/domain/actor"
	domain "github.com/krishibazaar/marketplace/internal/domain/order"
	domoutbox "github.com/krishibazaar/marketplace/internal/domain/outbox"
)

type mockOrderRepo struct {
	mock.Mock
}

func (m *mockOrderRepo) Insert(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) Update(ctx context.Context, o *domain.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *mockOrderRepo) ListAll(ctx context.Context) ([]*domain.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) ListBySeller(ctx context.Context, sellerID string) ([]*domain.Order, error) {
	args := m.Called(ctx, sellerID)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

func (m *mockOrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	args := m.Called(ctx, buyerID)
	return args.Get(0).([]*domain.Order), args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, e domoutbox.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func pendingOrder(t *testing.T) *domain.Order {
	t.Helper()
	o, err := domain.New("ord-1", "prod-1", "buyer-1", "seller-1", 3)
	require.NoError(t, err)
	return o
}

func TestRecordPayment(t *testing.T) {
	repo := new(mockOrderRepo)
	pub := new(mockPublisher)
	svc := NewService(repo, pub, nil)

	o := pendingOrder(t)
	repo.On("Get", mock.Anything, "ord-1").Return(o, nil)
	repo.On("Update", mock.Anything, mock.AnythingOfType("*order.Order")).
		Return(nil).
		Run(func(args mock.Arguments) {
			updated := args.Get(1).(*domain.Order)
			assert.Equal(t, domain.PaymentInstant, updated.PaymentMethod)
		})
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil)

	payer := actor.Actor{ID: "buyer-1", Role: actor.RoleConsumer}
	err := svc.RecordPayment(context.Background(), payer, "ord-1", domain.PaymentInstant)
	require.NoError(t, err)

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestRecordPayment_OnlyBuyer(t *testing.T) {
	repo := new(mockOrderRepo)
	svc := NewService(repo, nil, nil)

	repo.On("Get", mock.Anything, "ord-1").Return(pendingOrder(t), nil)

	stranger := actor.Actor{ID: "someone-else", Role: actor.RoleConsumer}
	err := svc.RecordPayment(context.Background(), stranger, "ord-1", domain.PaymentInstant)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecordPayment_RejectedOrderRefuses(t *testing.T) {
	repo := new(mockOrderRepo)
	svc := NewService(repo, nil, nil)

	o := pendingOrder(t)
	require.NoError(t, o.Reject())
	repo.On("Get", mock.Anything, "ord-1").Return(o, nil)

	payer := actor.Actor{ID: "buyer-1", Role: actor.RoleConsumer}
	err := svc.RecordPayment(context.Background(), payer, "ord-1", domain.PaymentInstant)
	assert.ErrorIs(t, err, domain.ErrOrderRejected)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRecordPayment_AcceptedOrderStillTakesPayment(t *testing.T) {
	repo := new(mockOrderRepo)
	svc := NewService(repo, nil, nil)

	o := pendingOrder(t)
	require.NoError(t, o.Accept(decimal.NewFromInt(25)))
	repo.On("Get", mock.Anything, "ord-1").Return(o, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)

	payer := actor.Actor{ID: "buyer-1", Role: actor.RoleConsumer}
	err := svc.RecordPayment(context.Background(), payer, "ord-1", domain.PaymentCashOnDelivery)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRecordPayment_NotFound(t *testing.T) {
	repo := new(mockOrderRepo)
	svc := NewService(repo, nil, nil)

	repo.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	payer := actor.Actor{ID: "buyer-1", Role: actor.RoleConsumer}
	err := svc.RecordPayment(context.Background(), payer, "missing", domain.PaymentInstant)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
