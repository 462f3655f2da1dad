package ledger

import (
	"errors"
	"time"
)

// AccountType enumerates chart of accounts categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// NormalDebit reports whether the type accumulates value on the debit side.
func (t AccountType) NormalDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// EntryStatus enumerates journal entry lifecycle values. Only POSTED entries
// participate in balances; VOID entries are excluded unconditionally.
type EntryStatus string

const (
	EntryStatusDraft  EntryStatus = "DRAFT"
	EntryStatusPosted EntryStatus = "POSTED"
	EntryStatusVoid   EntryStatus = "VOID"
)

// Account models a chart of accounts node.
type Account struct {
	ID        int64
	Code      string
	Name      string
	Type      AccountType
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JournalEntry captures posting metadata.
type JournalEntry struct {
	ID     int64
	Ref    string
	Date   time.Time
	Status EntryStatus
	Memo   string
}

// JournalLine is a single debit or credit against an account, joined with the
// account and entry attributes the aggregation needs. Postings are created by
// upstream modules; this package only reads them.
type JournalLine struct {
	EntryID     int64
	EntryRef    string
	EntryDate   time.Time
	AccountID   int64
	AccountCode string
	AccountName string
	AccountType AccountType
	Debit       float64
	Credit      float64
}

// TrialRow is a per-account balance snapshot. Exactly one of DebitBalance and
// CreditBalance is nonzero.
type TrialRow struct {
	AccountCode   string      `json:"account_code"`
	AccountName   string      `json:"account_name"`
	AccountType   AccountType `json:"account_type"`
	DebitBalance  float64     `json:"debit_balance"`
	CreditBalance float64     `json:"credit_balance"`
}

// TrialBalance is the aggregated view handed to the presentation layer.
type TrialBalance struct {
	Rows              []TrialRow `json:"rows"`
	DebitTotal        float64    `json:"debit_total"`
	CreditTotal       float64    `json:"credit_total"`
	Balanced          bool       `json:"balanced"`
	UnbalancedEntries int        `json:"unbalanced_entries"`
	Start             time.Time  `json:"start"`
	End               time.Time  `json:"end"`
}

// AccountBalance reports the closing position of a single account.
type AccountBalance struct {
	AccountCode string      `json:"account_code"`
	AccountName string      `json:"account_name"`
	AccountType AccountType `json:"account_type"`
	Debit       float64     `json:"debit"`
	Credit      float64     `json:"credit"`
	Balance     float64     `json:"balance"`
}

// EntryImbalance describes a posted entry whose lines do not balance.
type EntryImbalance struct {
	EntryID    int64   `json:"entry_id"`
	EntryRef   string  `json:"entry_ref"`
	Debit      float64 `json:"debit"`
	Credit     float64 `json:"credit"`
	Difference float64 `json:"difference"`
}

var (
	// ErrAccountNotFound occurs when an account code cannot be resolved.
	ErrAccountNotFound = errors.New("ledger: account not found")
)
