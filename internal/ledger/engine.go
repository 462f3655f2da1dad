package ledger

import (
	"math"
	"sort"
)

// balanceTolerance is the absolute difference, in currency units, below which
// debits and credits are considered equal.
const balanceTolerance = 0.01

// ComputeTrialBalance aggregates journal lines into per-account balances.
// Callers supply lines already filtered to posted, non-void entries within
// the reporting window. An empty input yields a zero-valued, balanced result.
func ComputeTrialBalance(lines []JournalLine) TrialBalance {
	type accountTotals struct {
		code    string
		name    string
		accType AccountType
		debit   float64
		credit  float64
	}
	accounts := make(map[int64]*accountTotals)
	entries := make(map[int64]*EntryImbalance)

	for _, line := range lines {
		acc, ok := accounts[line.AccountID]
		if !ok {
			acc = &accountTotals{code: line.AccountCode, name: line.AccountName, accType: line.AccountType}
			accounts[line.AccountID] = acc
		}
		acc.debit += line.Debit
		acc.credit += line.Credit

		entry, ok := entries[line.EntryID]
		if !ok {
			entry = &EntryImbalance{EntryID: line.EntryID, EntryRef: line.EntryRef}
			entries[line.EntryID] = entry
		}
		entry.Debit += line.Debit
		entry.Credit += line.Credit
	}

	result := TrialBalance{}
	for _, acc := range accounts {
		if acc.debit == 0 && acc.credit == 0 {
			continue
		}
		var balance float64
		if acc.accType.NormalDebit() {
			balance = acc.debit - acc.credit
		} else {
			balance = acc.credit - acc.debit
		}
		row := TrialRow{AccountCode: acc.code, AccountName: acc.name, AccountType: acc.accType}
		onNormalSide := balance >= 0
		amount := round2(math.Abs(balance))
		if amount == 0 {
			// Activity cancelled out; the account holds no position.
			continue
		}
		if acc.accType.NormalDebit() == onNormalSide {
			row.DebitBalance = amount
		} else {
			row.CreditBalance = amount
		}
		result.Rows = append(result.Rows, row)
	}

	sort.Slice(result.Rows, func(i, j int) bool {
		return result.Rows[i].AccountCode < result.Rows[j].AccountCode
	})

	for _, row := range result.Rows {
		result.DebitTotal += row.DebitBalance
		result.CreditTotal += row.CreditBalance
	}
	result.DebitTotal = round2(result.DebitTotal)
	result.CreditTotal = round2(result.CreditTotal)
	result.Balanced = math.Abs(result.DebitTotal-result.CreditTotal) <= balanceTolerance

	for _, entry := range entries {
		if math.Abs(entry.Debit-entry.Credit) > balanceTolerance {
			result.UnbalancedEntries++
		}
	}
	return result
}

// EntryImbalances returns the posted entries whose own lines do not balance,
// sorted by entry id. Used by the integrity job to report broken postings.
func EntryImbalances(lines []JournalLine) []EntryImbalance {
	entries := make(map[int64]*EntryImbalance)
	for _, line := range lines {
		entry, ok := entries[line.EntryID]
		if !ok {
			entry = &EntryImbalance{EntryID: line.EntryID, EntryRef: line.EntryRef}
			entries[line.EntryID] = entry
		}
		entry.Debit += line.Debit
		entry.Credit += line.Credit
	}
	var out []EntryImbalance
	for _, entry := range entries {
		diff := entry.Debit - entry.Credit
		if math.Abs(diff) <= balanceTolerance {
			continue
		}
		entry.Difference = round2(diff)
		entry.Debit = round2(entry.Debit)
		entry.Credit = round2(entry.Credit)
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntryID < out[j].EntryID })
	return out
}

// BalanceFor reduces the lines of a single account into a signed closing
// balance on its normal side.
func BalanceFor(account Account, lines []JournalLine) AccountBalance {
	out := AccountBalance{AccountCode: account.Code, AccountName: account.Name, AccountType: account.Type}
	for _, line := range lines {
		if line.AccountID != account.ID {
			continue
		}
		out.Debit += line.Debit
		out.Credit += line.Credit
	}
	out.Debit = round2(out.Debit)
	out.Credit = round2(out.Credit)
	if account.Type.NormalDebit() {
		out.Balance = round2(out.Debit - out.Credit)
	} else {
		out.Balance = round2(out.Credit - out.Debit)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
