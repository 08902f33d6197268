package forecast

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/krishibazaar/marketplace/internal/forecast"
	"github.com/krishibazaar/marketplace/internal/observability"
	"github.com/krishibazaar/marketplace/internal/observability/logctx"
)

const (
	component = "forecast_service"
	ucAll     = "forecast.all"
	ucSingle  = "forecast.single"
)

// Service wraps the forecaster with telemetry. Forecasting holds no shared
// mutable state, so calls may run fully in parallel; the only cost of the
// per-call refit is recomputation, which the fit histogram makes visible.
type Service struct {
	forecaster *forecast.Forecaster
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	fitCounter   observability.Counter
	fitDuration  observability.Histogram
}

func NewService(f *forecast.Forecaster, tel observability.Observability) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		forecaster:   f,
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", component)),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
		fitCounter:   tel.Metrics().Counter(observability.MForecastFits),
		fitDuration:  tel.Metrics().Histogram(observability.MForecastFitDuration),
	}
}

// ForecastAll predicts quantity and price for every product in the sales
// history. Per-product failures are isolated inside the result; only a
// missing/empty store or an infrastructure failure errors the whole call.
func (s *Service) ForecastAll(ctx context.Context, target time.Time) (_ *forecast.BatchResult, err error) {
	ctx, done := s.instrument(ctx, ucAll,
		attribute.String("forecast.target_date", target.Format("2006-01-02")),
	)
	defer func() { done(err) }()

	start := time.Now()
	result, err := s.forecaster.ForecastAll(ctx, target)
	if err != nil {
		return nil, err
	}
	s.fitDuration.Observe(time.Since(start).Seconds(), observability.L("scope", "all"))

	for _, pf := range result.Products {
		outcome := "success"
		if pf.Err != nil {
			outcome = "error"
		}
		s.fitCounter.Add(1, observability.L("outcome", outcome))
	}
	return result, nil
}

// ForecastSingle predicts quantity and price for one product at the target
// date, matching the name case-insensitively.
func (s *Service) ForecastSingle(ctx context.Context, productName string, target time.Time) (_ *forecast.ProductForecast, err error) {
	ctx, done := s.instrument(ctx, ucSingle,
		attribute.String("forecast.product", productName),
		attribute.String("forecast.target_date", target.Format("2006-01-02")),
	)
	defer func() { done(err) }()

	start := time.Now()
	pf, err := s.forecaster.ForecastSingle(ctx, productName, target)
	if err != nil {
		s.fitCounter.Add(1, observability.L("outcome", "error"))
		return nil, err
	}
	s.fitDuration.Observe(time.Since(start).Seconds(), observability.L("scope", "single"))
	s.fitCounter.Add(1, observability.L("outcome", "success"))
	return pf, nil
}

func (s *Service) instrument(ctx context.Context, useCase string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tel.Tracer().Start(ctx, "UC."+useCase, attrs...)
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
		s.durHistogram.Observe(lat, observability.L("use_case", useCase))

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
