package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ledgerline/ledgerline/internal/budget"
	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// BudgetAlertScanJob recomputes utilization alerts and surfaces them in the
// logs and metrics so on-call staff see threshold crossings between reads.
type BudgetAlertScanJob struct {
	Budget  *budget.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewBudgetAlertScanJob initialises the alert scan handler.
func NewBudgetAlertScanJob(budgetSvc *budget.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *BudgetAlertScanJob {
	return &BudgetAlertScanJob{
		Budget:  budgetSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the alert scan.
func (j *BudgetAlertScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Budget == nil {
		return errors.New("budget alert scan: handler not configured")
	}
	var payload BudgetAlertScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Year <= 0 {
		payload.Year = j.now().Year()
	}

	start := j.now()
	tracker := j.metrics().Track(TaskBudgetAlertScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int("year", payload.Year))
	logger.Info("starting budget alert scan")

	alerts, err := j.Budget.Alerts(ctx, payload.Year)
	if err != nil {
		resultErr = err
		logger.Error("scan failed", slog.Any("error", err))
		return resultErr
	}

	for _, a := range alerts {
		logger.Warn("budget threshold crossed",
			slog.String("department", a.Department),
			slog.String("severity", string(a.Severity)),
			slog.Float64("utilization_percent", a.UtilizationPercent),
			slog.Float64("over_amount", a.OverAmount),
		)
		j.metrics().AddAlerts(string(a.Severity), 1)
	}

	logger.Info("completed budget alert scan",
		slog.Int("alerts", len(alerts)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *BudgetAlertScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskBudgetAlertScan))
	}
	return slog.Default().With(slog.String("job", TaskBudgetAlertScan))
}

func (j *BudgetAlertScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *BudgetAlertScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
