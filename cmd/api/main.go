package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caterbase/caterbase-backend/api/routes"
	"github.com/caterbase/caterbase-backend/internal/catalog"
	"github.com/caterbase/caterbase-backend/internal/customers"
	"github.com/caterbase/caterbase-backend/internal/inventory"
	"github.com/caterbase/caterbase-backend/internal/ledger"
	"github.com/caterbase/caterbase-backend/internal/notifications"
	"github.com/caterbase/caterbase-backend/internal/orders"
	"github.com/caterbase/caterbase-backend/internal/payments"
	"github.com/caterbase/caterbase-backend/internal/staff"
	"github.com/caterbase/caterbase-backend/pkg/config"
	"github.com/caterbase/caterbase-backend/pkg/db"
	"github.com/caterbase/caterbase-backend/pkg/logger"
	"github.com/caterbase/caterbase-backend/pkg/metrics"
	"github.com/caterbase/caterbase-backend/pkg/outbox"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	ops := metrics.NewOpsMetrics(registry)

	svcs, err := buildServices(cfg, logg, dbClient, ops)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}

	relay, err := outbox.NewRelay(outbox.NewRepository(dbClient.DB()), outbox.NewLogSink(logg), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to wire outbox relay", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error(ctx, "outbox relay stopped unexpectedly", err)
		}
	}()

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	startCtx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(startCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, svcs,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{})),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(startCtx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(startCtx, "api server stopped")
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, ops *metrics.OpsMetrics) (routes.Services, error) {
	gormDB := dbClient.DB()

	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)
	notifySvc, err := notifications.NewService(outboxSvc)
	if err != nil {
		return routes.Services{}, err
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(gormDB), logg, ops)
	if err != nil {
		return routes.Services{}, err
	}

	customerSvc, err := customers.NewService(customers.NewRepository(gormDB), dbClient, notifySvc, cfg.AccessKey, logg)
	if err != nil {
		return routes.Services{}, err
	}

	catalogSvc, err := catalog.NewService(catalog.NewRepository(gormDB), cfg.Inventory)
	if err != nil {
		return routes.Services{}, err
	}

	orderSvc, err := orders.NewService(
		orders.NewRepository(gormDB),
		catalog.NewRepository(gormDB),
		customerSvc,
		inventory.NewTracker(),
		ledgerSvc,
		notifySvc,
		dbClient,
		cfg.Orders,
		logg,
		ops,
	)
	if err != nil {
		return routes.Services{}, err
	}

	paymentSvc, err := payments.NewService(payments.NewRepository(gormDB), ledgerSvc, dbClient, logg)
	if err != nil {
		return routes.Services{}, err
	}

	staffSvc, err := staff.NewService(staff.NewRepository(gormDB), cfg.JWT, cfg.Password, logg)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Staff:     staffSvc,
		Customers: customerSvc,
		Catalog:   catalogSvc,
		Orders:    orderSvc,
		Payments:  paymentSvc,
		Ledger:    ledgerSvc,
	}, nil
}
