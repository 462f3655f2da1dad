package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads posted journal activity from Postgres. Posting itself
// happens upstream; every query here is read only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds the repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const lineColumns = `je.id, je.ref, je.entry_date, a.id, a.code, a.name, a.type, jl.debit, jl.credit`

// LinesInRange returns posted journal lines dated within [start, end].
func (r *Repository) LinesInRange(ctx context.Context, start, end time.Time) ([]JournalLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+`
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.entry_id
JOIN accounts a ON a.id = jl.account_id
WHERE je.status = 'POSTED'
  AND je.entry_date >= $1
  AND je.entry_date <= $2
ORDER BY a.code, je.entry_date, je.id`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

// LinesForAccount returns posted lines for one account within [start, end].
func (r *Repository) LinesForAccount(ctx context.Context, accountID int64, start, end time.Time) ([]JournalLine, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lineColumns+`
FROM journal_lines jl
JOIN journal_entries je ON je.id = jl.entry_id
JOIN accounts a ON a.id = jl.account_id
WHERE je.status = 'POSTED'
  AND jl.account_id = $1
  AND je.entry_date >= $2
  AND je.entry_date <= $3
ORDER BY je.entry_date, je.id`, accountID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLines(rows)
}

// AccountByCode resolves a chart of accounts node by its code.
func (r *Repository) AccountByCode(ctx context.Context, code string) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, type, is_active, created_at, updated_at
FROM accounts WHERE code = $1`, code).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func scanLines(rows pgx.Rows) ([]JournalLine, error) {
	var lines []JournalLine
	for rows.Next() {
		var l JournalLine
		if err := rows.Scan(&l.EntryID, &l.EntryRef, &l.EntryDate, &l.AccountID, &l.AccountCode, &l.AccountName, &l.AccountType, &l.Debit, &l.Credit); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
