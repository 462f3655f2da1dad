package ledger

import (
	"context"
	"encoding/csv"
	"io"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ledgerline/ledgerline/internal/period"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
)

// LineReader is the subset of the repository the service depends on.
type LineReader interface {
	LinesInRange(ctx context.Context, start, end time.Time) ([]JournalLine, error)
	LinesForAccount(ctx context.Context, accountID int64, start, end time.Time) ([]JournalLine, error)
	AccountByCode(ctx context.Context, code string) (Account, error)
}

// Service resolves reporting periods, aggregates balances and serves them
// through the versioned cache.
type Service struct {
	repo  LineReader
	cache *cache.Cache
	now   func() time.Time
}

// NewService wires the repository with the cache helper.
func NewService(repo LineReader, c *cache.Cache) *Service {
	return &Service{repo: repo, cache: c, now: time.Now}
}

// TrialBalance aggregates posted activity for the period named by keyword,
// anchored at asOf. A zero asOf means "now".
func (s *Service) TrialBalance(ctx context.Context, keyword string, asOf time.Time) (TrialBalance, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	rng := period.Resolve(keyword, asOf)
	key, err := s.cache.BuildKey(ctx, "ledger", "tb", string(period.Normalize(keyword)), rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))
	if err != nil {
		return TrialBalance{}, err
	}
	var tb TrialBalance
	err = s.cache.FetchJSON(ctx, key, &tb, func(ctx context.Context) (interface{}, error) {
		lines, err := s.repo.LinesInRange(ctx, rng.Start, rng.End)
		if err != nil {
			return nil, err
		}
		computed := ComputeTrialBalance(lines)
		computed.Start = rng.Start
		computed.End = rng.End
		return computed, nil
	})
	if err != nil {
		return TrialBalance{}, err
	}
	return tb, nil
}

// AccountBalance reports the closing position of the account identified by
// code over the resolved period.
func (s *Service) AccountBalance(ctx context.Context, code, keyword string, asOf time.Time) (AccountBalance, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	account, err := s.repo.AccountByCode(ctx, code)
	if err != nil {
		return AccountBalance{}, err
	}
	rng := period.Resolve(keyword, asOf)
	lines, err := s.repo.LinesForAccount(ctx, account.ID, rng.Start, rng.End)
	if err != nil {
		return AccountBalance{}, err
	}
	return BalanceFor(account, lines), nil
}

// Integrity surfaces posted entries whose lines do not balance. The scan job
// and the admin endpoint both use it.
func (s *Service) Integrity(ctx context.Context, keyword string, asOf time.Time) ([]EntryImbalance, error) {
	if asOf.IsZero() {
		asOf = s.now()
	}
	rng := period.Resolve(keyword, asOf)
	lines, err := s.repo.LinesInRange(ctx, rng.Start, rng.End)
	if err != nil {
		return nil, err
	}
	return EntryImbalances(lines), nil
}

// InvalidateBalances bumps the cache version after posting activity.
func (s *Service) InvalidateBalances(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// WriteTrialBalanceCSV streams the trial balance as CSV. Amounts are grouped
// with thousands separators for spreadsheet consumers.
func WriteTrialBalanceCSV(w io.Writer, tb TrialBalance) error {
	printer := message.NewPrinter(language.English)
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Account Code", "Account Name", "Type", "Debit", "Credit"}); err != nil {
		return err
	}
	for _, row := range tb.Rows {
		record := []string{
			row.AccountCode,
			row.AccountName,
			string(row.AccountType),
			printer.Sprintf("%.2f", row.DebitBalance),
			printer.Sprintf("%.2f", row.CreditBalance),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := cw.Write([]string{"", "Total", "", printer.Sprintf("%.2f", tb.DebitTotal), printer.Sprintf("%.2f", tb.CreditTotal)}); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
