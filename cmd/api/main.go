package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/havenwerk/verhuur-backend/api/routes"
	"github.com/havenwerk/verhuur-backend/internal/bookings"
	"github.com/havenwerk/verhuur-backend/internal/cron"
	"github.com/havenwerk/verhuur-backend/internal/invoicing"
	"github.com/havenwerk/verhuur-backend/internal/leases"
	"github.com/havenwerk/verhuur-backend/internal/purchases"
	"github.com/havenwerk/verhuur-backend/internal/settings"
	syncsvc "github.com/havenwerk/verhuur-backend/internal/sync"
	"github.com/havenwerk/verhuur-backend/internal/tenants"
	"github.com/havenwerk/verhuur-backend/pkg/config"
	"github.com/havenwerk/verhuur-backend/pkg/db"
	"github.com/havenwerk/verhuur-backend/pkg/eboekhouden"
	"github.com/havenwerk/verhuur-backend/pkg/logger"
	"github.com/havenwerk/verhuur-backend/pkg/metrics"
	"github.com/havenwerk/verhuur-backend/pkg/migrate"
	"github.com/havenwerk/verhuur-backend/pkg/outbox"
	"github.com/havenwerk/verhuur-backend/pkg/redis"
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	ledgerClient, err := eboekhouden.NewClient(cfg.EBoekhouden, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger client", err)
		os.Exit(1)
	}

	conn := dbClient.DB()
	outboxService := outbox.NewService(outbox.NewRepository(conn), logg)

	tenantsService, err := tenants.NewService(tenants.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create tenants service", err)
		os.Exit(1)
	}
	leasesService, err := leases.NewService(leases.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create leases service", err)
		os.Exit(1)
	}
	bookingsService, err := bookings.NewService(bookings.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create bookings service", err)
		os.Exit(1)
	}
	purchasesService, err := purchases.NewService(purchases.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create purchases service", err)
		os.Exit(1)
	}
	settingsService, err := settings.NewService(settings.NewRepository(conn))
	if err != nil {
		logg.Error(context.Background(), "failed to create settings service", err)
		os.Exit(1)
	}
	invoicingService, err := invoicing.NewService(invoicing.ServiceParams{
		Repo:     invoicing.NewRepository(conn),
		Leases:   leases.NewRepository(conn),
		Bookings: bookings.NewRepository(conn),
		Tx:       dbClient,
		Outbox:   outboxService,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create invoicing service", err)
		os.Exit(1)
	}

	syncLogRepo := syncsvc.NewSyncLogRepository(conn)
	mappingRepo := syncsvc.NewMappingRepository(conn)
	syncService, err := syncsvc.NewService(syncsvc.ServiceParams{
		Ledger:    ledgerClient,
		Customers: tenants.NewRepository(conn),
		Invoices:  invoicing.NewRepository(conn),
		Purchases: purchases.NewRepository(conn),
		Mappings:  mappingRepo,
		SyncLog:   syncLogRepo,
		Tx:        dbClient,
		Outbox:    outboxService,
		Metrics:   metrics.NewLedgerSyncMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, routes.Services{
			Tenants:   tenantsService,
			Leases:    leasesService,
			Bookings:  bookingsService,
			Invoicing: invoicingService,
			Purchases: purchasesService,
			Settings:  settingsService,
			Sync:      syncService,
			SyncLog:   syncLogRepo,
			Mappings:  mappingRepo,
			Jobs:      cron.NewRepository(conn),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
