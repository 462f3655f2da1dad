package budget

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/shared"
)

const approvalModule = "budget_adjustment"

// AuditPort records audit trail entries.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// ApprovalPort records approval history.
type ApprovalPort interface {
	Record(ctx context.Context, log shared.ApprovalLog) error
	EnsureSubmit(ctx context.Context, module string, ref uuid.UUID, actorID int64, note string) error
}

// IdempotencyPort guards retried submissions.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

// Service aggregates allocations and drives the adjustment workflow.
type Service struct {
	repo      Repository
	cache     *cache.Cache
	audit     AuditPort
	approvals ApprovalPort
	idem      IdempotencyPort
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewService wires the budget service.
func NewService(repo Repository, c *cache.Cache, audit AuditPort, approvals ApprovalPort, idem IdempotencyPort, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		cache:     c,
		audit:     audit,
		approvals: approvals,
		idem:      idem,
		validate:  validator.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// SummaryView bundles per-department allocations with their rollup.
type SummaryView struct {
	Allocations []Allocation      `json:"allocations"`
	Summary     AllocationSummary `json:"summary"`
}

// Summary returns the allocation rollup for the year, served from cache.
func (s *Service) Summary(ctx context.Context, year int) (SummaryView, error) {
	key, err := s.cache.BuildKey(ctx, "budget", "summary", strconv.Itoa(year))
	if err != nil {
		return SummaryView{}, err
	}
	var view SummaryView
	err = s.cache.FetchJSON(ctx, key, &view, func(ctx context.Context) (interface{}, error) {
		allocations, err := s.repo.AllocationsForYear(ctx, year)
		if err != nil {
			return nil, err
		}
		return SummaryView{Allocations: allocations, Summary: ComputeAllocationSummary(allocations)}, nil
	})
	if err != nil {
		return SummaryView{}, err
	}
	return view, nil
}

// Alerts derives threshold alerts from the current allocations. They are
// recomputed on every call rather than cached, so a just-approved adjustment
// is reflected immediately.
func (s *Service) Alerts(ctx context.Context, year int) ([]Alert, error) {
	allocations, err := s.repo.AllocationsForYear(ctx, year)
	if err != nil {
		return nil, err
	}
	return BuildAlerts(allocations, s.now()), nil
}

// FlagOverBudgetClaims filters the supplied claims against the year's
// remaining balances.
func (s *Service) FlagOverBudgetClaims(ctx context.Context, year int, claims []Claim) ([]Claim, error) {
	allocations, err := s.repo.AllocationsForYear(ctx, year)
	if err != nil {
		return nil, err
	}
	return OverBudgetClaims(claims, allocations), nil
}

// SubmitAdjustmentInput carries a new adjustment request.
type SubmitAdjustmentInput struct {
	Department     string  `json:"department" validate:"required"`
	BudgetYear     int     `json:"budget_year" validate:"required,gte=2000"`
	Type           string  `json:"type" validate:"required,oneof=INCREASE DECREASE TRANSFER"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	Reason         string  `json:"reason" validate:"required"`
	IdempotencyKey string  `json:"idempotency_key,omitempty"`
	ActorID        int64   `json:"-"`
}

// SubmitAdjustment queues a pending adjustment.
func (s *Service) SubmitAdjustment(ctx context.Context, input SubmitAdjustmentInput) (Adjustment, error) {
	if err := s.validate.Struct(input); err != nil {
		return Adjustment{}, fmt.Errorf("budget: invalid adjustment: %w", err)
	}
	if s.idem != nil && input.IdempotencyKey != "" {
		if err := s.idem.CheckAndInsert(ctx, input.IdempotencyKey, approvalModule); err != nil {
			return Adjustment{}, err
		}
	}
	adj := Adjustment{
		ID:         uuid.New(),
		Department: input.Department,
		BudgetYear: input.BudgetYear,
		Type:       AdjustmentType(input.Type),
		Amount:     input.Amount,
		Reason:     input.Reason,
		Status:     AdjustmentPending,
		CreatedBy:  input.ActorID,
		CreatedAt:  s.now(),
	}
	if err := s.repo.InsertAdjustment(ctx, adj); err != nil {
		return Adjustment{}, err
	}
	if s.approvals != nil {
		if err := s.approvals.EnsureSubmit(ctx, approvalModule, adj.ID, input.ActorID, input.Reason); err != nil {
			s.logger.Error("record adjustment submit", slog.Any("error", err))
		}
	}
	s.recordAudit(ctx, input.ActorID, "budget.adjustment.submit", adj)
	return adj, nil
}

// GetAdjustment fetches a single adjustment.
func (s *Service) GetAdjustment(ctx context.Context, id uuid.UUID) (Adjustment, error) {
	return s.repo.GetAdjustment(ctx, id)
}

// ListAdjustments enumerates adjustments, optionally filtered by status.
func (s *Service) ListAdjustments(ctx context.Context, status AdjustmentStatus, limit, offset int) ([]Adjustment, error) {
	return s.repo.ListAdjustments(ctx, status, limit, offset)
}

// ApproveAdjustment applies the adjustment delta and resolves it. The row is
// locked for the duration so a concurrent approval observes the resolved
// status and fails with ErrInvalidTransition instead of re-applying the delta.
func (s *Service) ApproveAdjustment(ctx context.Context, id uuid.UUID, actorID int64, note string) (Adjustment, error) {
	var resolved Adjustment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		adj, err := tx.GetAdjustmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if adj.Status != AdjustmentPending {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, adj.ID, adj.Status)
		}
		if err := tx.ApplyAllocationDelta(ctx, adj.Department, adj.BudgetYear, adj.Type.Delta(adj.Amount)); err != nil {
			return err
		}
		at := s.now()
		if err := tx.UpdateAdjustmentStatus(ctx, adj.ID, AdjustmentApproved, actorID, at); err != nil {
			return err
		}
		adj.Status = AdjustmentApproved
		adj.ResolvedBy = &actorID
		adj.ResolvedAt = &at
		resolved = adj
		return nil
	})
	if err != nil {
		return Adjustment{}, err
	}
	s.recordApproval(ctx, shared.ApprovalApprove, resolved.ID, actorID, note)
	s.recordAudit(ctx, actorID, "budget.adjustment.approve", resolved)
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Error("bump budget cache", slog.Any("error", err))
	}
	return resolved, nil
}

// RejectAdjustment resolves the adjustment without touching balances.
func (s *Service) RejectAdjustment(ctx context.Context, id uuid.UUID, actorID int64, note string) (Adjustment, error) {
	var resolved Adjustment
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		adj, err := tx.GetAdjustmentForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if adj.Status != AdjustmentPending {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTransition, adj.ID, adj.Status)
		}
		at := s.now()
		if err := tx.UpdateAdjustmentStatus(ctx, adj.ID, AdjustmentRejected, actorID, at); err != nil {
			return err
		}
		adj.Status = AdjustmentRejected
		adj.ResolvedBy = &actorID
		adj.ResolvedAt = &at
		resolved = adj
		return nil
	})
	if err != nil {
		return Adjustment{}, err
	}
	s.recordApproval(ctx, shared.ApprovalReject, resolved.ID, actorID, note)
	s.recordAudit(ctx, actorID, "budget.adjustment.reject", resolved)
	return resolved, nil
}

func (s *Service) recordApproval(ctx context.Context, action shared.ApprovalAction, ref uuid.UUID, actorID int64, note string) {
	if s.approvals == nil {
		return
	}
	err := s.approvals.Record(ctx, shared.ApprovalLog{
		Module:  approvalModule,
		RefID:   ref,
		ActorID: actorID,
		Action:  action,
		Note:    note,
	})
	if err != nil {
		s.logger.Error("record adjustment approval", slog.Any("error", err))
	}
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action string, adj Adjustment) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "budget_adjustment",
		EntityID: adj.ID.String(),
		Meta: map[string]any{
			"department": adj.Department,
			"type":       string(adj.Type),
			"amount":     adj.Amount,
		},
	})
	if err != nil {
		s.logger.Error("record adjustment audit", slog.Any("error", err))
	}
}
