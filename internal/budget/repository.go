package budget

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerline/ledgerline/internal/platform/db"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
)

// Repository defines budget data access.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error

	AllocationsForYear(ctx context.Context, year int) ([]Allocation, error)
	GetAdjustment(ctx context.Context, id uuid.UUID) (Adjustment, error)
	ListAdjustments(ctx context.Context, status AdjustmentStatus, limit, offset int) ([]Adjustment, error)
	InsertAdjustment(ctx context.Context, adj Adjustment) error
}

// TxRepository defines the operations used inside the approval transaction.
type TxRepository interface {
	GetAdjustmentForUpdate(ctx context.Context, id uuid.UUID) (Adjustment, error)
	UpdateAdjustmentStatus(ctx context.Context, id uuid.UUID, status AdjustmentStatus, resolvedBy int64, at time.Time) error
	ApplyAllocationDelta(ctx context.Context, department string, year int, delta float64) error
}

var _ Repository = (*pgRepository)(nil)
var _ TxRepository = (*pgTxRepository)(nil)

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

func (r *pgRepository) AllocationsForYear(ctx context.Context, year int) ([]Allocation, error) {
	rows, err := r.pool.Query(ctx, `SELECT department, budget_year,
  COALESCE(SUM(allocated), 0), COALESCE(SUM(reserved), 0), COALESCE(SUM(utilized), 0)
FROM budget_allocations
WHERE budget_year = $1
GROUP BY department, budget_year
ORDER BY department`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var allocations []Allocation
	for rows.Next() {
		var a Allocation
		if err := rows.Scan(&a.Department, &a.BudgetYear, &a.Allocated, &a.Reserved, &a.Utilized); err != nil {
			return nil, err
		}
		a.Remaining = a.Allocated - a.Utilized
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

const adjustmentColumns = `id, department, budget_year, type, amount, reason, status, created_by, created_at, resolved_by, resolved_at`

func (r *pgRepository) GetAdjustment(ctx context.Context, id uuid.UUID) (Adjustment, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM budget_adjustments WHERE id = $1`, id)
	return scanAdjustment(row)
}

func (r *pgRepository) ListAdjustments(ctx context.Context, status AdjustmentStatus, limit, offset int) ([]Adjustment, error) {
	query := `SELECT ` + adjustmentColumns + ` FROM budget_adjustments`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		args = append(args, limit, offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var adjustments []Adjustment
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			return nil, err
		}
		adjustments = append(adjustments, adj)
	}
	return adjustments, rows.Err()
}

func (r *pgRepository) InsertAdjustment(ctx context.Context, adj Adjustment) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO budget_adjustments
  (id, department, budget_year, type, amount, reason, status, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		adj.ID, adj.Department, adj.BudgetYear, string(adj.Type), adj.Amount, adj.Reason, string(adj.Status), adj.CreatedBy, adj.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return httpx.ErrDuplicate
		}
		return err
	}
	return nil
}

type pgTxRepository struct {
	tx pgx.Tx
}

// GetAdjustmentForUpdate locks the row so concurrent approvals serialize.
func (r *pgTxRepository) GetAdjustmentForUpdate(ctx context.Context, id uuid.UUID) (Adjustment, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+adjustmentColumns+` FROM budget_adjustments WHERE id = $1 FOR UPDATE`, id)
	return scanAdjustment(row)
}

func (r *pgTxRepository) UpdateAdjustmentStatus(ctx context.Context, id uuid.UUID, status AdjustmentStatus, resolvedBy int64, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `UPDATE budget_adjustments
SET status = $2, resolved_by = $3, resolved_at = $4
WHERE id = $1`, id, string(status), resolvedBy, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAdjustmentNotFound
	}
	return nil
}

func (r *pgTxRepository) ApplyAllocationDelta(ctx context.Context, department string, year int, delta float64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE budget_allocations
SET allocated = allocated + $3
WHERE department = $1 AND budget_year = $2`, department, year, delta)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("budget: allocation row missing for department")
	}
	return nil
}

func scanAdjustment(row pgx.Row) (Adjustment, error) {
	var adj Adjustment
	var adjType, status string
	err := row.Scan(&adj.ID, &adj.Department, &adj.BudgetYear, &adjType, &adj.Amount, &adj.Reason, &status, &adj.CreatedBy, &adj.CreatedAt, &adj.ResolvedBy, &adj.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Adjustment{}, ErrAdjustmentNotFound
		}
		return Adjustment{}, err
	}
	adj.Type = AdjustmentType(adjType)
	adj.Status = AdjustmentStatus(status)
	return adj, nil
}
