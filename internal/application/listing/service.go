package listing

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/krishibazaar/marketplace/internal/domain/actor"
	"github.com/krishibazaar/marketplace/internal/domain/outbox"
	domain "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
)

const component = "listing_service"

// IDGenerator supplies identifiers for new listings.
type IDGenerator interface {
	NewID() string
}

// Service manages grower listings. Quantity edits here are the seller's
// out-of-band corrections; order-driven stock mutation goes through the
// order state machine only.
type Service struct {
	products  domain.Repository
	ids       IDGenerator
	publisher outbox.Publisher
	log       observability.Logger
}

func NewService(products domain.Repository, ids IDGenerator, publisher outbox.Publisher, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		products:  products,
		ids:       ids,
		publisher: publisher,
		log:       tel.Logger().With(observability.F("component", component)),
	}
}

type AddProductInput struct {
	Name       string
	Price      decimal.Decimal
	Quantity   int
	Category   string
	Location   string
	AcceptsCOD bool
	AcceptsUPI bool
}

// AddProduct publishes a new listing owned by the acting grower.
func (s *Service) AddProduct(ctx context.Context, seller actor.Actor, in AddProductInput) (*domain.Product, error) {
	if !seller.IsFarmer() {
		return nil, domain.ErrNotOwner
	}

	entity, err := domain.New(s.ids.NewID(), seller.ID, in.Name, in.Price, in.Quantity, in.Category, in.Location, in.AcceptsCOD, in.AcceptsUPI)
	if err != nil {
		return nil, err
	}
	if err := s.products.Insert(ctx, entity); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewProductListedEvent(entity))
	return entity, nil
}

// UpdateListing applies the owner's price/quantity correction.
func (s *Service) UpdateListing(ctx context.Context, seller actor.Actor, productID string, price decimal.Decimal, quantity int) (*domain.Product, error) {
	entity, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if entity.SellerID != seller.ID {
		return nil, domain.ErrNotOwner
	}
	if err := entity.UpdateListing(price, quantity); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, entity); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewProductUpdatedEvent(entity))
	return entity, nil
}

// Search returns in-stock listings matching the query, or every in-stock
// listing when the query is empty.
func (s *Service) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	return s.products.Search(ctx, query)
}

// ListForSeller returns the grower's own listings.
func (s *Service) ListForSeller(ctx context.Context, seller actor.Actor) ([]*domain.Product, error) {
	return s.products.ListBySeller(ctx, seller.ID)
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
