package payment

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/krishibazaar/marketplace/internal/domain/actor"
	domain "github.com/krishibazaar/marketplace/internal/domain/order"
	"github.com/krishibazaar/marketplace/internal/domain/outbox"
	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
)

const (
	component = "payment_service"
	ucRecord  = "payment.record"
)

// Service records post-creation payment confirmations on orders. Only the
// order's buyer may record one, and rejected orders refuse the update.
type Service struct {
	orders    domain.Repository
	publisher outbox.Publisher
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewService(orders domain.Repository, publisher outbox.Publisher, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		orders:       orders,
		publisher:    publisher,
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", component)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
	}
}

// RecordPayment sets the order's payment method on the payer's confirmation.
func (s *Service) RecordPayment(ctx context.Context, payer actor.Actor, orderID string, method domain.PaymentMethod) (err error) {
	ctx, span := s.tel.Tracer().Start(ctx, "UC."+ucRecord,
		attribute.String("order.id", orderID),
		attribute.String("payment.method", string(method)),
	)
	start := time.Now()
	defer func() {
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
			observability.L("use_case", ucRecord),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat, observability.L("use_case", ucRecord))

		fields := []observability.Field{
			observability.F("use_case", ucRecord),
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logctx.FromOr(ctx, s.log).Info("use_case_done", fields...)
	}()

	entity, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	if entity.BuyerID != payer.ID {
		return domain.ErrUnauthorized
	}
	if err = entity.RecordPayment(method); err != nil {
		return err
	}
	if err = s.orders.Update(ctx, entity); err != nil {
		return err
	}

	if s.publisher != nil {
		if perr := s.publisher.Publish(ctx, domain.NewPaymentRecordedEvent(entity)); perr != nil {
			logctx.FromOr(ctx, s.log).Warn("event_publish_failed",
				observability.F("event", "order.payment_recorded"),
				observability.F("error", perr.Error()),
			)
		}
	}
	return nil
}
