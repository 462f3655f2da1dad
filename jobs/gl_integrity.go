package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ledgerline/ledgerline/internal/jobs"
	"github.com/ledgerline/ledgerline/internal/ledger"
)

// GLIntegrityJob sweeps posted entries for debit/credit mismatches. Upstream
// posting modules should make these impossible; the job is the safety net
// that catches them early if one slips through.
type GLIntegrityJob struct {
	Ledger  *ledger.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewGLIntegrityJob initialises the integrity check handler.
func NewGLIntegrityJob(ledgerSvc *ledger.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{
		Ledger:  ledgerSvc,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the integrity check.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Ledger == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Period == "" {
		payload.Period = "monthly"
	}

	start := j.now()
	tracker := j.metrics().Track(TaskGLIntegrity)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("period", payload.Period))
	logger.Info("starting gl integrity check")

	issues, err := j.Ledger.Integrity(ctx, payload.Period, start)
	if err != nil {
		resultErr = err
		logger.Error("integrity check failed", slog.Any("error", err))
		return resultErr
	}

	for _, issue := range issues {
		logger.Warn("unbalanced journal entry",
			slog.Int64("entry_id", issue.EntryID),
			slog.String("entry_ref", issue.EntryRef),
			slog.Float64("debit", issue.Debit),
			slog.Float64("credit", issue.Credit),
			slog.Float64("difference", issue.Difference),
		)
	}

	logger.Info("completed gl integrity check",
		slog.Int("imbalances", len(issues)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGLIntegrity))
	}
	return slog.Default().With(slog.String("job", TaskGLIntegrity))
}

func (j *GLIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *GLIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
