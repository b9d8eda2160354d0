package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

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

const lockKeyFormat = "verhuur:cron-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "cron-worker"

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	syncService, err := syncsvc.NewService(syncsvc.ServiceParams{
		Ledger:    ledgerClient,
		Customers: tenants.NewRepository(conn),
		Invoices:  invoicing.NewRepository(conn),
		Purchases: purchases.NewRepository(conn),
		Mappings:  syncsvc.NewMappingRepository(conn),
		SyncLog:   syncsvc.NewSyncLogRepository(conn),
		Tx:        dbClient,
		Outbox:    outboxService,
		Metrics:   metrics.NewLedgerSyncMetrics(prometheus.DefaultRegisterer),
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync service", err)
		os.Exit(1)
	}

	jobsRepo := cron.NewRepository(conn)
	if err := jobsRepo.Seed(context.Background(), time.Now().UTC()); err != nil {
		logg.Error(context.Background(), "failed to seed scheduled jobs", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()
	if err := registerHandlers(registry, invoicingService, syncService, settingsService, logg); err != nil {
		logg.Error(context.Background(), "failed to build job handlers", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:        logg,
		Registry:      registry,
		Jobs:          jobsRepo,
		Lock:          lock,
		Metrics:       metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:      cfg.Cron.Interval,
		RetryAttempts: cfg.Cron.RetryAttempts,
		RetryBase:     cfg.Cron.RetryBase,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func registerHandlers(
	registry *cron.Registry,
	invoicingService invoicing.Service,
	syncService syncsvc.Service,
	settingsService settings.Service,
	logg *logger.Logger,
) error {
	monthly, err := cron.NewMonthlyLeaseInvoicingJob(invoicingService, settingsService, logg)
	if err != nil {
		return err
	}
	meetingRooms, err := cron.NewMeetingRoomInvoicingJob(invoicingService, settingsService, logg)
	if err != nil {
		return err
	}
	flexDesks, err := cron.NewFlexDeskInvoicingJob(invoicingService, settingsService, logg)
	if err != nil {
		return err
	}
	payments, err := cron.NewPaymentStatusCheckJob(syncService, settingsService, logg)
	if err != nil {
		return err
	}
	invoiceVerify, err := cron.NewInvoiceSyncVerificationJob(syncService, settingsService, logg)
	if err != nil {
		return err
	}
	relationVerify, err := cron.NewRelationVerificationJob(syncService, settingsService, logg)
	if err != nil {
		return err
	}

	registry.Register(monthly)
	registry.Register(meetingRooms)
	registry.Register(flexDesks)
	registry.Register(payments)
	registry.Register(invoiceVerify)
	registry.Register(relationVerify)
	return nil
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
