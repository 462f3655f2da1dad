package budget

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type memRepository struct {
	allocations map[string]*Allocation
	adjustments map[uuid.UUID]*Adjustment
	reads       int
}

func newMemRepository() *memRepository {
	return &memRepository{
		allocations: map[string]*Allocation{},
		adjustments: map[uuid.UUID]*Adjustment{},
	}
}

func (m *memRepository) addAllocation(a Allocation) {
	a.Remaining = a.Allocated - a.Utilized
	copied := a
	m.allocations[a.Department] = &copied
}

func (m *memRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, m)
}

func (m *memRepository) AllocationsForYear(_ context.Context, year int) ([]Allocation, error) {
	m.reads++
	var out []Allocation
	for _, a := range m.allocations {
		if a.BudgetYear == year {
			copied := *a
			copied.Remaining = copied.Allocated - copied.Utilized
			out = append(out, copied)
		}
	}
	return out, nil
}

func (m *memRepository) GetAdjustment(_ context.Context, id uuid.UUID) (Adjustment, error) {
	adj, ok := m.adjustments[id]
	if !ok {
		return Adjustment{}, ErrAdjustmentNotFound
	}
	return *adj, nil
}

func (m *memRepository) ListAdjustments(_ context.Context, status AdjustmentStatus, _, _ int) ([]Adjustment, error) {
	var out []Adjustment
	for _, adj := range m.adjustments {
		if status == "" || adj.Status == status {
			out = append(out, *adj)
		}
	}
	return out, nil
}

func (m *memRepository) InsertAdjustment(_ context.Context, adj Adjustment) error {
	copied := adj
	m.adjustments[adj.ID] = &copied
	return nil
}

func (m *memRepository) GetAdjustmentForUpdate(ctx context.Context, id uuid.UUID) (Adjustment, error) {
	return m.GetAdjustment(ctx, id)
}

func (m *memRepository) UpdateAdjustmentStatus(_ context.Context, id uuid.UUID, status AdjustmentStatus, resolvedBy int64, at time.Time) error {
	adj, ok := m.adjustments[id]
	if !ok {
		return ErrAdjustmentNotFound
	}
	adj.Status = status
	adj.ResolvedBy = &resolvedBy
	adj.ResolvedAt = &at
	return nil
}

func (m *memRepository) ApplyAllocationDelta(_ context.Context, department string, _ int, delta float64) error {
	a, ok := m.allocations[department]
	if !ok {
		return ErrAdjustmentNotFound
	}
	a.Allocated += delta
	return nil
}

type recorderStub struct {
	approvals []shared.ApprovalLog
	submits   int
}

func (r *recorderStub) Record(_ context.Context, log shared.ApprovalLog) error {
	r.approvals = append(r.approvals, log)
	return nil
}

func (r *recorderStub) EnsureSubmit(context.Context, string, uuid.UUID, int64, string) error {
	r.submits++
	return nil
}

type auditStub struct {
	logs []shared.AuditLog
}

func (a *auditStub) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type idemStub struct {
	seen map[string]bool
}

func (i *idemStub) CheckAndInsert(_ context.Context, key, _ string) error {
	if i.seen == nil {
		i.seen = map[string]bool{}
	}
	if i.seen[key] {
		return shared.ErrIdempotencyConflict
	}
	i.seen[key] = true
	return nil
}

func newBudgetTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewCache(client, time.Minute, "budget:version", "budget.bump")
}

func newTestService(t *testing.T, repo *memRepository) (*Service, *recorderStub, *auditStub) {
	t.Helper()
	approvals := &recorderStub{}
	audit := &auditStub{}
	svc := NewService(repo, newBudgetTestCache(t), audit, approvals, &idemStub{}, slog.Default())
	return svc, approvals, audit
}

func TestSubmitAdjustmentValidation(t *testing.T) {
	repo := newMemRepository()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.SubmitAdjustment(context.Background(), SubmitAdjustmentInput{
		Department: "IT",
		BudgetYear: 2024,
		Type:       "SHRINK",
		Amount:     100,
		Reason:     "typo",
		ActorID:    7,
	})
	require.Error(t, err)

	_, err = svc.SubmitAdjustment(context.Background(), SubmitAdjustmentInput{
		Department: "IT",
		BudgetYear: 2024,
		Type:       "DECREASE",
		Amount:     -5,
		Reason:     "negative",
		ActorID:    7,
	})
	require.Error(t, err)
}

func TestSubmitAdjustmentIdempotency(t *testing.T) {
	repo := newMemRepository()
	svc, approvals, _ := newTestService(t, repo)

	input := SubmitAdjustmentInput{
		Department:     "IT",
		BudgetYear:     2024,
		Type:           "INCREASE",
		Amount:         300,
		Reason:         "hardware refresh",
		IdempotencyKey: "req-42",
		ActorID:        7,
	}
	adj, err := svc.SubmitAdjustment(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, AdjustmentPending, adj.Status)
	require.Equal(t, 1, approvals.submits)

	_, err = svc.SubmitAdjustment(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, repo.adjustments, 1)
}

func TestApproveDecreaseAppliesDeltaOnce(t *testing.T) {
	repo := newMemRepository()
	repo.addAllocation(Allocation{Department: "IT", BudgetYear: 2024, Allocated: 5000, Utilized: 1000})
	svc, approvals, audit := newTestService(t, repo)

	adj, err := svc.SubmitAdjustment(context.Background(), SubmitAdjustmentInput{
		Department: "IT",
		BudgetYear: 2024,
		Type:       "DECREASE",
		Amount:     200,
		Reason:     "reforecast",
		ActorID:    7,
	})
	require.NoError(t, err)

	resolved, err := svc.ApproveAdjustment(context.Background(), adj.ID, 9, "ok")
	require.NoError(t, err)
	require.Equal(t, AdjustmentApproved, resolved.Status)
	require.InDelta(t, 4800, repo.allocations["IT"].Allocated, 0.001)

	// Approving twice must fail and must not double-apply.
	_, err = svc.ApproveAdjustment(context.Background(), adj.ID, 9, "again")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.InDelta(t, 4800, repo.allocations["IT"].Allocated, 0.001)

	require.Len(t, approvals.approvals, 1)
	require.Equal(t, shared.ApprovalApprove, approvals.approvals[0].Action)
	require.NotEmpty(t, audit.logs)
}

func TestRejectLeavesBalancesUntouched(t *testing.T) {
	repo := newMemRepository()
	repo.addAllocation(Allocation{Department: "IT", BudgetYear: 2024, Allocated: 5000})
	svc, _, _ := newTestService(t, repo)

	adj, err := svc.SubmitAdjustment(context.Background(), SubmitAdjustmentInput{
		Department: "IT",
		BudgetYear: 2024,
		Type:       "INCREASE",
		Amount:     1000,
		Reason:     "expansion",
		ActorID:    7,
	})
	require.NoError(t, err)

	resolved, err := svc.RejectAdjustment(context.Background(), adj.ID, 9, "not now")
	require.NoError(t, err)
	require.Equal(t, AdjustmentRejected, resolved.Status)
	require.InDelta(t, 5000, repo.allocations["IT"].Allocated, 0.001)

	_, err = svc.ApproveAdjustment(context.Background(), adj.ID, 9, "late")
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveUnknownAdjustment(t *testing.T) {
	repo := newMemRepository()
	svc, _, _ := newTestService(t, repo)

	_, err := svc.ApproveAdjustment(context.Background(), uuid.New(), 9, "")
	require.ErrorIs(t, err, ErrAdjustmentNotFound)
	require.NotErrorIs(t, err, ErrInvalidTransition)
}

func TestSummaryCachedUntilApproval(t *testing.T) {
	repo := newMemRepository()
	repo.addAllocation(Allocation{Department: "IT", BudgetYear: 2024, Allocated: 10000, Utilized: 9500})
	svc, _, _ := newTestService(t, repo)

	view, err := svc.Summary(context.Background(), 2024)
	require.NoError(t, err)
	require.InDelta(t, 95, view.Summary.UtilizationRate, 0.001)
	require.InDelta(t, 500, view.Summary.TotalRemaining, 0.001)

	_, err = svc.Summary(context.Background(), 2024)
	require.NoError(t, err)
	require.Equal(t, 1, repo.reads)

	adj, err := svc.SubmitAdjustment(context.Background(), SubmitAdjustmentInput{
		Department: "IT",
		BudgetYear: 2024,
		Type:       "INCREASE",
		Amount:     2000,
		Reason:     "cover overrun",
		ActorID:    7,
	})
	require.NoError(t, err)
	_, err = svc.ApproveAdjustment(context.Background(), adj.ID, 9, "")
	require.NoError(t, err)

	view, err = svc.Summary(context.Background(), 2024)
	require.NoError(t, err)
	require.InDelta(t, 12000, view.Summary.TotalAllocated, 0.001)
}

func TestAlertsRecomputedEveryRead(t *testing.T) {
	repo := newMemRepository()
	repo.addAllocation(Allocation{Department: "IT", BudgetYear: 2024, Allocated: 1000, Utilized: 950})
	svc, _, _ := newTestService(t, repo)

	alerts, err := svc.Alerts(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, SeverityOrange, alerts[0].Severity)

	repo.allocations["IT"].Utilized = 1100
	alerts, err = svc.Alerts(context.Background(), 2024)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	require.Equal(t, SeverityRed, alerts[0].Severity)
	require.InDelta(t, 100, alerts[0].OverAmount, 0.001)
}

func TestFlagOverBudgetClaims(t *testing.T) {
	repo := newMemRepository()
	repo.addAllocation(Allocation{Department: "IT", BudgetYear: 2024, Allocated: 1000, Utilized: 900})
	svc, _, _ := newTestService(t, repo)

	flagged, err := svc.FlagOverBudgetClaims(context.Background(), 2024, []Claim{
		{ID: "c1", Department: "IT", Amount: 50},
		{ID: "c2", Department: "IT", Amount: 500},
	})
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	require.Equal(t, "c2", flagged[0].ID)
}
