package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	appForecast "github.com/krishibazaar/marketplace/internal/application/forecast"
	appListing "github.com/krishibazaar/marketplace/internal/application/listing"
	appOrder "github.com/krishibazaar/marketplace/internal/application/order"
	appOtp "github.com/krishibazaar/marketplace/internal/application/otp"
	appPayment "github.com/krishibazaar/marketplace/internal/application/payment"
	appReport "github.com/krishibazaar/marketplace/internal/application/report"
	"github.com/krishibazaar/marketplace/internal/config"
	"github.com/krishibazaar/marketplace/internal/domain/activity"
	domainInventory "github.com/krishibazaar/marketplace/internal/domain/inventory"
	domainOrder "github.com/krishibazaar/marketplace/internal/domain/order"
	domainOutbox "github.com/krishibazaar/marketplace/internal/domain/outbox"
	domainProduct "github.com/krishibazaar/marketplace/internal/domain/product"
	"github.com/krishibazaar/marketplace/internal/forecast"
	activityworker "github.com/krishibazaar/marketplace/internal/infrastructure/activity/worker"
	"github.com/krishibazaar/marketplace/internal/infrastructure/id"
	"github.com/krishibazaar/marketplace/internal/infrastructure/memory"
	"github.com/krishibazaar/marketplace/internal/infrastructure/mongodb"
	natsinfra "github.com/krishibazaar/marketplace/internal/infrastructure/nats"
	"github.com/krishibazaar/marketplace/internal/infrastructure/observability/oteltrace"
	"github.com/krishibazaar/marketplace/internal/infrastructure/observability/prometrics"
	"github.com/krishibazaar/marketplace/internal/infrastructure/observability/telemetry"
	"github.com/krishibazaar/marketplace/internal/infrastructure/observability/zaplogger"
	outboxinfra "github.com/krishibazaar/marketplace/internal/infrastructure/outbox"
	"github.com/krishibazaar/marketplace/internal/infrastructure/salescsv"
	"github.com/krishibazaar/marketplace/internal/infrastructure/smsgateway"
	"github.com/krishibazaar/marketplace/internal/observability"
	httppresentation "github.com/krishibazaar/marketplace/internal/presentation/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	tel := telemetry.New(oteltrace.New(cfg.ServiceName), logger, buildCounters(), buildHistograms())
	log := tel.Logger().With(observability.F("component", "main"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence.
	var (
		products domainProduct.Repository
		orders   domainOrder.Repository
		ledger   domainInventory.Ledger
		trail    activity.Repository
	)
	switch cfg.Persistence {
	case "mongo":
		db, disconnect, err := mongodb.Connect(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Error("mongodb_connect_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = disconnect(dctx)
		}()

		productRepo, err := mongodb.NewProductRepository(db)
		if err != nil {
			log.Error("mongodb_index_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		orderRepo, err := mongodb.NewOrderRepository(db)
		if err != nil {
			log.Error("mongodb_index_failed", observability.F("error", err.Error()))
			os.Exit(1)
		}
		products, orders, ledger = productRepo, orderRepo, productRepo
		trail = mongodb.NewActivityRepository(db)
	default:
		productRepo := memory.NewProductRepository()
		products, orders, ledger = productRepo, memory.NewOrderRepository(), productRepo
		trail = memory.NewActivityRepository()
	}

	ids := id.NewUUIDGenerator()

	// Event plumbing: every use case publishes to the in-process bus; the
	// activity worker and the optional NATS bridge consume from it.
	bus := outboxinfra.NewBus(tel)
	bus.Start(ctx)
	defer bus.Stop(context.Background())

	activityworker.New(bus, trail, ids, tel).Start()

	if cfg.Events == "nats" {
		publisher, err := natsinfra.NewPublisher(cfg.NATSURL, tel)
		if err != nil {
			log.Error("nats_unavailable", observability.F("error", err.Error()))
			os.Exit(1)
		}
		defer publisher.Close()
		bridgeToNATS(bus, publisher)
	}

	// Application services.
	salesStore := salescsv.New(cfg.SalesCSV)
	gateway := smsgateway.New(smsgateway.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Sender:   cfg.SMTPSender,
		Password: cfg.SMTPPassword,
	})

	orderSvc := appOrder.NewService(orders, products, ledger, ids, bus, tel)
	paymentSvc := appPayment.NewService(orders, bus, tel)
	listingSvc := appListing.NewService(products, ids, bus, tel)
	forecastSvc := appForecast.NewService(forecast.New(salesStore), tel)
	reportSvc := appReport.NewService(orders, products, trail, tel)
	otpSvc := appOtp.NewService(gateway, tel)

	handler := httppresentation.NewHandler(orderSvc, paymentSvc, listingSvc, forecastSvc, reportSvc, otpSvc, tel)

	mux := http.NewServeMux()
	mux.Handle("/", handler.Router())
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_server_listening", observability.F("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_failed", observability.F("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown_started")

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn("http_shutdown_error", observability.F("error", err.Error()))
	}
	log.Info("shutdown_complete")
}

// bridgeToNATS forwards every domain event published on the bus to NATS.
func bridgeToNATS(bus *outboxinfra.Bus, publisher *natsinfra.Publisher) {
	forward := func(ctx context.Context, e domainOutbox.Event) error {
		return publisher.Publish(ctx, e)
	}
	for _, name := range []string{
		domainOrder.OrderPlacedEvent{}.EventName(),
		domainOrder.OrderAcceptedEvent{}.EventName(),
		domainOrder.OrderRejectedEvent{}.EventName(),
		domainOrder.PaymentRecordedEvent{}.EventName(),
		domainProduct.ProductListedEvent{}.EventName(),
		domainProduct.ProductUpdatedEvent{}.EventName(),
	} {
		bus.Subscribe(name, forward)
	}
}

func buildCounters() map[observability.MetricKey]observability.Counter {
	reg := metricsRegistry()
	return map[observability.MetricKey]observability.Counter{
		observability.MUsecaseRequests: reg.Counter(
			string(observability.MUsecaseRequests),
			"Use case invocations by outcome.",
			"use_case", "outcome",
		),
		observability.MHTTPRequests: reg.Counter(
			string(observability.MHTTPRequests),
			"HTTP requests by route, method, and status.",
			"route", "method", "status",
		),
		observability.MForecastFits: reg.Counter(
			string(observability.MForecastFits),
			"Forecast model fits by outcome.",
			"outcome",
		),
	}
}

func buildHistograms() map[observability.MetricKey]observability.Histogram {
	reg := metricsRegistry()
	buckets := []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	return map[observability.MetricKey]observability.Histogram{
		observability.MUsecaseDuration: reg.Histogram(
			string(observability.MUsecaseDuration),
			"Use case latency in seconds.",
			buckets,
			"use_case",
		),
		observability.MHTTPRequestDuration: reg.Histogram(
			string(observability.MHTTPRequestDuration),
			"HTTP request latency in seconds.",
			buckets,
			"route", "method", "status",
		),
		observability.MForecastFitDuration: reg.Histogram(
			string(observability.MForecastFitDuration),
			"Forecast fit latency in seconds.",
			buckets,
			"scope",
		),
	}
}

var sharedRegistry prometrics.Registry

func metricsRegistry() prometrics.Registry {
	if sharedRegistry == nil {
		sharedRegistry = prometrics.New("krishibazaar", "marketplace")
	}
	return sharedRegistry
}
