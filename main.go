package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	appOrder "github.com/lumipay/payflow/internal/application/order"
	appPayment "github.com/lumipay/payflow/internal/application/payment"
	"github.com/lumipay/payflow/internal/config"
	domorder "github.com/lumipay/payflow/internal/domain/order"
	dompay "github.com/lumipay/payflow/internal/domain/payment"
	"github.com/lumipay/payflow/internal/infrastructure/gateway"
	httptransport "github.com/lumipay/payflow/internal/infrastructure/http"
	"github.com/lumipay/payflow/internal/infrastructure/id"
	"github.com/lumipay/payflow/internal/infrastructure/memory"
	obsprovider "github.com/lumipay/payflow/internal/infrastructure/observability"
	"github.com/lumipay/payflow/internal/infrastructure/observability/oteltrace"
	"github.com/lumipay/payflow/internal/infrastructure/observability/prometrics"
	"github.com/lumipay/payflow/internal/infrastructure/observability/zaplogger"
	"github.com/lumipay/payflow/internal/infrastructure/outbox"
	"github.com/lumipay/payflow/internal/infrastructure/sqlite"
	"github.com/lumipay/payflow/internal/observability"
	"github.com/lumipay/payflow/internal/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	baseLogger := logging.MustNewLogger(cfg.ServiceName, cfg.Env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	portLogger := zaplogger.FromZap(baseLogger)
	registry := prometrics.New(cfg.ServiceName, "")
	tel := obsprovider.New(
		oteltrace.New(cfg.ServiceName),
		portLogger,
		map[observability.MetricKey]observability.Counter{
			observability.MUsecaseRequests: registry.Counter(
				string(observability.MUsecaseRequests),
				"Total number of use case invocations.",
				"use_case", "outcome",
			),
			observability.MExternalRequests: registry.Counter(
				string(observability.MExternalRequests),
				"Total number of calls to external collaborators.",
				"peer", "endpoint", "outcome",
			),
			observability.MPaymentOutcomes: registry.Counter(
				string(observability.MPaymentOutcomes),
				"Payment lifecycle outcomes.",
				"outcome",
			),
			observability.MHTTPRequests: registry.Counter(
				string(observability.MHTTPRequests),
				"Total number of HTTP requests.",
				"method", "status",
			),
		},
		map[observability.MetricKey]observability.Histogram{
			observability.MUsecaseDuration: registry.Histogram(
				string(observability.MUsecaseDuration),
				"Duration of use case execution in seconds.",
				prometheus.DefBuckets,
				"use_case",
			),
			observability.MExternalRequestDuration: registry.Histogram(
				string(observability.MExternalRequestDuration),
				"Duration of external collaborator calls in seconds.",
				prometheus.DefBuckets,
				"peer", "endpoint",
			),
			observability.MHTTPRequestDuration: registry.Histogram(
				string(observability.MHTTPRequestDuration),
				"Duration of HTTP request handling in seconds.",
				prometheus.DefBuckets,
				"method", "status",
			),
		},
	)

	var (
		paymentRepo dompay.Repository
		orderRepo   domorder.Repository
	)
	switch cfg.Store {
	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			systemLogger.Fatal("sqlite_open_failed", zap.Error(err))
		}
		defer func() { _ = db.Close() }()
		if err := sqlite.RunMigrations(db); err != nil {
			systemLogger.Fatal("sqlite_migrate_failed", zap.Error(err))
		}
		paymentRepo = sqlite.NewPaymentRepository(db)
		orderRepo = sqlite.NewOrderRepository(db)
	default:
		paymentRepo = memory.NewPaymentRepository()
		orderRepo = memory.NewOrderRepository()
	}

	bus := outbox.NewBus(portLogger)
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	idGenerator := id.NewUUIDGenerator()
	orderService := appOrder.NewService(orderRepo, idGenerator, tel)
	authGateway := gateway.NewSimulator(cfg.GatewaySuccessRate, cfg.GatewayLatency, portLogger)
	paymentService := appPayment.NewService(paymentRepo, orderService, authGateway, idGenerator, bus, tel)

	paymentWorker := appPayment.NewWorker(bus, tel)
	paymentWorker.Start()

	handler := httptransport.NewHandler(orderService, paymentService)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httptransport.Instrument(tel, handler.Router()))

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
			zap.String("store", string(cfg.Store)),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}
