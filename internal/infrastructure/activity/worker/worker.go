// Package worker consumes domain events from the bus and appends the
// human-readable audit trail shown on the admin dashboard.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/krishibazaar/marketplace/internal/domain/activity"
	domorder "github.com/krishibazaar/marketplace/internal/domain/order"
	domoutbox "github.com/krishibazaar/marketplace/internal/domain/outbox"
	domproduct "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
)

type IDGenerator interface {
	NewID() string
}

type Worker struct {
	subscriber domoutbox.Subscriber
	repo       activity.Repository
	ids        IDGenerator
	log        observability.Logger
}

func New(subscriber domoutbox.Subscriber, repo activity.Repository, ids IDGenerator, tel observability.Observability) *Worker {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Worker{
		subscriber: subscriber,
		repo:       repo,
		ids:        ids,
		log:        tel.Logger().With(observability.F("component", "activity_worker")),
	}
}

func (w *Worker) Start() {
	w.subscriber.Subscribe(domorder.OrderPlacedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domorder.OrderAcceptedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domorder.OrderRejectedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domorder.PaymentRecordedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domproduct.ProductListedEvent{}.EventName(), w.handle)
	w.subscriber.Subscribe(domproduct.ProductUpdatedEvent{}.EventName(), w.handle)
}

func (w *Worker) handle(ctx context.Context, e domoutbox.Event) error {
	actorID, action, occurred := describe(e)
	if action == "" {
		return nil
	}

	entry := activity.Entry{
		ID:         w.ids.NewID(),
		ActorID:    actorID,
		Action:     action,
		OccurredAt: occurred,
	}
	if err := w.repo.Append(ctx, entry); err != nil {
		logctx.FromOr(ctx, w.log).Warn("activity_append_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
		return err
	}
	return nil
}

func describe(e domoutbox.Event) (actorID, action string, occurred time.Time) {
	switch evt := e.(type) {
	case domorder.OrderPlacedEvent:
		return evt.BuyerID, fmt.Sprintf("Placed order for %dkg of %s", evt.Quantity, evt.ProductName), evt.OccurredAt
	case domorder.OrderAcceptedEvent:
		return evt.SellerID, fmt.Sprintf("Accepted order #%s", evt.OrderID), evt.OccurredAt
	case domorder.OrderRejectedEvent:
		return evt.SellerID, fmt.Sprintf("Rejected order #%s", evt.OrderID), evt.OccurredAt
	case domorder.PaymentRecordedEvent:
		return evt.BuyerID, fmt.Sprintf("Paid via %s for order #%s", evt.Method, evt.OrderID), evt.OccurredAt
	case domproduct.ProductListedEvent:
		return evt.SellerID, fmt.Sprintf("Added new product: %s", evt.Name), evt.OccurredAt
	case domproduct.ProductUpdatedEvent:
		return evt.SellerID, fmt.Sprintf("Updated price/qty for %s", evt.Name), evt.OccurredAt
	default:
		return "", "", time.Time{}
	}
}
