package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerline/ledgerline/internal/apiclients"
	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/budget"
	budgethttp "github.com/ledgerline/ledgerline/internal/budget/http"
	"github.com/ledgerline/ledgerline/internal/claims"
	"github.com/ledgerline/ledgerline/internal/ledger"
	ledgerhttp "github.com/ledgerline/ledgerline/internal/ledger/http"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/overview"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, cfg.SessionCookieName, cfg.SessionTTL)

	auditLogger := shared.NewAuditLogger(dbpool)
	approvalRecorder := shared.NewApprovalRecorder(dbpool, logger)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}
	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	ledgerCache := cache.NewCache(redisClient, cfg.CacheTTL, "ledger:version", "ledger.bump")
	ledgerRepo := ledger.NewRepository(dbpool)
	ledgerService := ledger.NewService(ledgerRepo, ledgerCache)
	ledgerHandler := ledgerhttp.NewHandler(logger, ledgerService, rbacMiddleware)

	budgetCache := cache.NewCache(redisClient, cfg.CacheTTL, "budget:version", "budget.bump")
	budgetRepo := budget.NewRepository(dbpool)
	budgetService := budget.NewService(budgetRepo, budgetCache, auditLogger, approvalRecorder, idempotencyStore, logger)
	claimsClient := claims.NewClient(cfg.ClaimsFeedURL, logger)
	budgetHandler := budgethttp.NewHandler(logger, budgetService, claimsClient, rbacMiddleware)

	overviewHandler := overview.NewHandler(logger, ledgerService, budgetService, claimsClient, rbacMiddleware)

	apiClientRepo := apiclients.NewRepository(dbpool)
	apiClientService := apiclients.NewService(apiClientRepo, logger)
	apiClientHandler := apiclients.NewHandler(logger, apiClientService, rbacMiddleware)

	metrics := observability.NewMetrics()

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		SessionManager:    sessionManager,
		APIClients:        apiClientService,
		LedgerHandler:     ledgerHandler,
		BudgetHandler:     budgetHandler,
		OverviewHandler:   overviewHandler,
		RBACHandler:       rbacHandler,
		APIClientsHandler: apiClientHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
