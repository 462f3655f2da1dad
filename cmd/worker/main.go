package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/app"
	"github.com/ledgerline/ledgerline/internal/budget"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	auditLogger := shared.NewAuditLogger(pool)
	approvalRecorder := shared.NewApprovalRecorder(pool, logger)
	idempotencyStore := shared.NewIdempotencyStore(pool)

	budgetCache := cache.NewCache(redisClient, cfg.CacheTTL, "budget:version", "budget.bump")
	budgetRepo := budget.NewRepository(pool)
	budgetService := budget.NewService(budgetRepo, budgetCache, auditLogger, approvalRecorder, idempotencyStore, logger)

	ledgerCache := cache.NewCache(redisClient, cfg.CacheTTL, "ledger:version", "ledger.bump")
	ledgerRepo := ledger.NewRepository(pool)
	ledgerService := ledger.NewService(ledgerRepo, ledgerCache)

	alertScanJob := jobs.NewBudgetAlertScanJob(budgetService, logger, nil)
	glIntegrityJob := jobs.NewGLIntegrityJob(ledgerService, logger, nil)

	alertTask, err := jobs.NewBudgetAlertScanTask(jobs.BudgetAlertScanPayload{})
	if err != nil {
		logger.Error("build alert scan task", slog.Any("error", err))
		os.Exit(1)
	}
	integrityTask, err := jobs.NewGLIntegrityTask(jobs.GLIntegrityPayload{Period: "monthly"})
	if err != nil {
		logger.Error("build integrity task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskBudgetAlertScan, Handler: alertScanJob.Handle},
			{Type: jobs.TaskGLIntegrity, Handler: glIntegrityJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.BudgetAlertCron, Task: alertTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.GLIntegrityCron, Task: integrityTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
