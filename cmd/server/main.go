package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/handlepay/handlepay/internal/api/http"
	"github.com/handlepay/handlepay/internal/application/approval"
	"github.com/handlepay/handlepay/internal/application/history"
	"github.com/handlepay/handlepay/internal/application/intent"
	"github.com/handlepay/handlepay/internal/application/notification"
	"github.com/handlepay/handlepay/internal/application/resolver"
	"github.com/handlepay/handlepay/internal/config"
	"github.com/handlepay/handlepay/internal/domain/ledger"
	"github.com/handlepay/handlepay/internal/infrastructure/ledgerrpc"
	"github.com/handlepay/handlepay/internal/infrastructure/metrics"
	"github.com/handlepay/handlepay/internal/infrastructure/postgres"
	"github.com/handlepay/handlepay/internal/infrastructure/sse"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := zerolog.New(os.Stdout).Level(cfg.LogLevel).With().Timestamp().Logger()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db error: %v", err)
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool, cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	// infrastructure
	collector := metrics.NewCollector("handlepay")
	client, err := ledgerrpc.NewClient(ledgerrpc.Config{
		URL:          cfg.LedgerRPCURL,
		Rate:         cfg.LedgerRPCRate,
		Burst:        cfg.LedgerRPCBurst,
		PollInterval: cfg.ReceiptPollInterval,
	}, collector, logger)
	if err != nil {
		log.Fatalf("ledger client error: %v", err)
	}
	acct, err := client.Account(ctx)
	if err != nil {
		log.Fatalf("ledger account error: %v", err)
	}
	session, err := ledger.NewSession(acct, client)
	if err != nil {
		log.Fatalf("session error: %v", err)
	}

	sseHub := sse.NewHub(cfg.SSEHeartbeat, logger)
	go sseHub.Start(ctx)

	// services
	historyRepo := postgres.NewHistoryRepository(pool)
	resolverSvc := resolver.NewService(client, logger)
	approvalSvc := approval.NewService(client, logger)
	historySvc := history.NewService(historyRepo, logger, cfg.HistorySigningKey, collector)
	notificationSvc := notification.NewService(sseHub, logger)

	flows := intent.NewManager(intent.Deps{
		Session:   session,
		Resolver:  resolverSvc,
		Approvals: approvalSvc,
		History:   historySvc,
		Sink:      notificationSvc,
		Contracts: intent.Contracts{
			PaymentRouter: cfg.PaymentRouter,
			Giveaway:      cfg.Giveaway,
			Registry:      cfg.Registry,
		},
		Config: intent.Config{
			ResolveDebounce:     cfg.ResolveDebounce,
			AllowanceDebounce:   cfg.AllowanceDebounce,
			ValidationTimeout:   cfg.ValidationTimeout,
			ConfirmationTimeout: cfg.ConfirmationTimeout,
		},
		Metrics: collector,
		Logger:  logger,
	})

	// API server
	apiServer := httpapi.NewServer(flows, resolverSvc, historySvc, session, sseHub, collector, logger)

	httpServer := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// start server
	go func() {
		logger.Info().
			Str("addr", cfg.ServerAddr).
			Str("account", acct.Hex()).
			Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sseHub.Stop()
	_ = httpServer.Shutdown(ctxShutdown)
	flows.CloseAll()
	if err := apiServer.Shutdown(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("background executions did not settle")
	}
	stop()
}
