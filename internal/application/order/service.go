package order

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/krishibazaar/marketplace/internal/domain/actor"
	"github.com/krishibazaar/marketplace/internal/domain/inventory"
	domain "github.com/krishibazaar/marketplace/internal/domain/order"
	"github.com/krishibazaar/marketplace/internal/domain/outbox"
	domproduct "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
	"github.com/krishibazaar/marketplace/internal/pkg/keylock"
)

const (
	component    = "order_service"
	spanPrefix   = "UC."
	ucCreate     = "order.create"
	ucTransition = "order.transition"
)

// Action is the seller's disposition of a pending order.
type Action string

const (
	ActionAccept Action = "accept"
	ActionReject Action = "reject"
)

var ErrInvalidAction = errors.New("order: unknown action")

// Service owns the order lifecycle. Creating an order checks stock but does
// not reserve it; the authoritative gate is the ledger decrement at accept
// time, serialized per product by a keyed lock.
type Service struct {
	orders    domain.Repository
	products  domproduct.Repository
	ledger    inventory.Ledger
	locks     *keylock.KeyedMutex
	ids       IDGenerator
	publisher outbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(
	orders domain.Repository,
	products domproduct.Repository,
	ledger inventory.Ledger,
	ids IDGenerator,
	publisher outbox.Publisher,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		orders:       orders,
		products:     products,
		ledger:       ledger,
		locks:        keylock.New(),
		ids:          ids,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", component)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

type CreateOrderResult struct {
	OrderID string
	Status  domain.Status
}

// CreateOrder places a pending order for the buyer. Valid only when the
// requested quantity is positive and the listing can satisfy it at the
// instant of evaluation. Stock is not reserved, so concurrent pending orders
// may collectively oversubscribe a listing; acceptance resolves that.
func (s *Service) CreateOrder(ctx context.Context, buyer actor.Actor, productID string, quantity int) (_ *CreateOrderResult, err error) {
	ctx, done := s.instrument(ctx, ucCreate,
		attribute.String("order.buyer_id", buyer.ID),
		attribute.String("order.product_id", productID),
		attribute.Int("order.quantity", quantity),
	)
	defer func() { done(err) }()

	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Quantity < quantity {
		return nil, inventory.ErrInsufficientStock
	}

	// Seller reference is denormalized here so attribution is stable even if
	// the listing is later reassigned.
	entity, err := domain.New(s.ids.NewID(), p.ID, buyer.ID, p.SellerID, quantity)
	if err != nil {
		return nil, err
	}
	if err = s.orders.Insert(ctx, entity); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewOrderPlacedEvent(entity, p.Name))

	return &CreateOrderResult{OrderID: entity.ID, Status: entity.Status}, nil
}

type TransitionResult struct {
	OrderID string
	Status  domain.Status
}

// TransitionOrder applies the seller's accept/reject decision. Accept
// re-checks stock at transition time and decrements it in the same
// per-product critical section as the status flip; when stock cannot satisfy
// the order, the transition fails and the order stays pending so the seller
// can retry or reject explicitly.
func (s *Service) TransitionOrder(ctx context.Context, seller actor.Actor, orderID string, action Action) (_ *TransitionResult, err error) {
	ctx, done := s.instrument(ctx, ucTransition,
		attribute.String("order.id", orderID),
		attribute.String("order.action", string(action)),
	)
	defer func() { done(err) }()

	entity, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if entity.SellerID != seller.ID {
		return nil, domain.ErrUnauthorized
	}

	unlock := s.locks.Lock(entity.ProductID)
	defer unlock()

	// Reload under the product lock; a concurrent transition may have
	// finalized the order while this one waited.
	entity, err = s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !entity.IsPending() {
		return nil, domain.ErrAlreadyFinalized
	}

	switch action {
	case ActionAccept:
		var p *domproduct.Product
		if p, err = s.products.Get(ctx, entity.ProductID); err != nil {
			return nil, err
		}
		if err = s.ledger.Decrement(ctx, entity.ProductID, entity.Quantity); err != nil {
			return nil, err
		}
		if err = entity.Accept(p.Price); err != nil {
			return nil, err
		}
		if err = s.orders.Update(ctx, entity); err != nil {
			return nil, err
		}
		s.publish(ctx, domain.NewOrderAcceptedEvent(entity))

	case ActionReject:
		if err = entity.Reject(); err != nil {
			return nil, err
		}
		if err = s.orders.Update(ctx, entity); err != nil {
			return nil, err
		}
		s.publish(ctx, domain.NewOrderRejectedEvent(entity))

	default:
		return nil, ErrInvalidAction
	}

	return &TransitionResult{OrderID: entity.ID, Status: entity.Status}, nil
}

// Get returns a single order.
func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, domain.ErrNotFound
	}
	return s.orders.Get(ctx, id)
}

// ListForActor returns the actor's view of the order book: a seller sees
// incoming orders, everyone else their own purchases.
func (s *Service) ListForActor(ctx context.Context, act actor.Actor) ([]*domain.Order, error) {
	if act.IsFarmer() {
		return s.orders.ListBySeller(ctx, act.ID)
	}
	return s.orders.ListByBuyer(ctx, act.ID)
}

func (s *Service) publish(ctx context.Context, e outbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}

// instrument opens the use-case span and returns a completion func that
// records the span status, RED metrics, and a single use_case_done log line.
func (s *Service) instrument(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+useCase, attrs...)
	start := time.Now()

	return ctx, func(err error) {
		lat := time.Since(start).Seconds()
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()

		s.reqCounter.Add(1,
			observability.L("use_case", useCase),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat,
			observability.L("use_case", useCase),
		)

		fields := []observability.Field{
			observability.F("use_case", useCase),
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logctx.FromOr(ctx, s.log).Info("use_case_done", fields...)
	}
}
