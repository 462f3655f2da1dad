package budget

import (
	"sort"
	"time"
)

// UtilizationPercent computes utilized/allocated as a percentage. A zero or
// negative allocation yields 0 rather than a division error.
func UtilizationPercent(allocated, utilized float64) float64 {
	if allocated <= 0 {
		return 0
	}
	return utilized / allocated * 100
}

// ClassifySeverity maps a utilization percentage to its tier. Thresholds are
// inclusive lower bounds and the highest match wins.
func ClassifySeverity(utilizationPercent float64) Severity {
	switch {
	case utilizationPercent >= 100:
		return SeverityRed
	case utilizationPercent >= 90:
		return SeverityOrange
	case utilizationPercent >= 80:
		return SeverityLightOrange
	case utilizationPercent >= 70:
		return SeverityYellow
	default:
		return SeverityGood
	}
}

// ComputeAllocationSummary totals the allocations. An empty slice yields a
// zero-valued summary.
func ComputeAllocationSummary(allocations []Allocation) AllocationSummary {
	var summary AllocationSummary
	for _, a := range allocations {
		summary.TotalAllocated += a.Allocated
		summary.TotalUtilized += a.Utilized
	}
	summary.TotalRemaining = summary.TotalAllocated - summary.TotalUtilized
	summary.UtilizationRate = UtilizationPercent(summary.TotalAllocated, summary.TotalUtilized)
	return summary
}

// BuildAlerts derives alert records for every allocation at or above the
// lowest severity threshold. Alerts are recomputed on each read, never stored.
func BuildAlerts(allocations []Allocation, alertDate time.Time) []Alert {
	var alerts []Alert
	for _, a := range allocations {
		pct := UtilizationPercent(a.Allocated, a.Utilized)
		severity := ClassifySeverity(pct)
		if severity == SeverityGood {
			continue
		}
		over := a.Utilized - a.Allocated
		if over < 0 {
			over = 0
		}
		alerts = append(alerts, Alert{
			Department:         a.Department,
			BudgetYear:         a.BudgetYear,
			BudgetedAmount:     a.Allocated,
			UtilizedAmount:     a.Utilized,
			UtilizationPercent: pct,
			OverAmount:         over,
			Severity:           severity,
			AlertDate:          alertDate,
		})
	}
	sort.Slice(alerts, func(i, j int) bool {
		if alerts[i].UtilizationPercent != alerts[j].UtilizationPercent {
			return alerts[i].UtilizationPercent > alerts[j].UtilizationPercent
		}
		return alerts[i].Department < alerts[j].Department
	})
	return alerts
}

// OverBudgetClaims filters claims that exceed their department's remaining
// budget. A claim is over budget when the department is already exhausted or
// the claim alone would exhaust it. Departments absent from the allocation
// set count as having nothing remaining.
func OverBudgetClaims(claims []Claim, allocations []Allocation) []Claim {
	remaining := make(map[string]float64, len(allocations))
	for _, a := range allocations {
		remaining[a.Department] += a.Allocated - a.Utilized
	}
	var flagged []Claim
	for _, c := range claims {
		rem := remaining[c.Department]
		if rem <= 0 || c.Amount > rem {
			flagged = append(flagged, c)
		}
	}
	return flagged
}
