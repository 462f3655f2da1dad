package budget

import (
	"testing"
	"time"
)

func TestClassifySeverityThresholds(t *testing.T) {
	cases := []struct {
		pct  float64
		want Severity
	}{
		{0, SeverityGood},
		{69.999, SeverityGood},
		{70, SeverityYellow},
		{79.999, SeverityYellow},
		{80, SeverityLightOrange},
		{89.999, SeverityLightOrange},
		{90, SeverityOrange},
		{99.999, SeverityOrange},
		{100, SeverityRed},
		{150, SeverityRed},
	}
	for _, tc := range cases {
		if got := ClassifySeverity(tc.pct); got != tc.want {
			t.Fatalf("ClassifySeverity(%v) = %q, want %q", tc.pct, got, tc.want)
		}
	}
}

func TestUtilizationPercentZeroAllocation(t *testing.T) {
	if got := UtilizationPercent(0, 500); got != 0 {
		t.Fatalf("expected 0 for zero allocation, got %v", got)
	}
	if got := UtilizationPercent(10000, 9500); got != 95 {
		t.Fatalf("expected 95, got %v", got)
	}
}

func TestComputeAllocationSummary(t *testing.T) {
	allocations := []Allocation{
		{Department: "IT", Allocated: 10000, Utilized: 9500},
		{Department: "HR", Allocated: 5000, Utilized: 1000},
	}
	summary := ComputeAllocationSummary(allocations)
	if summary.TotalAllocated != 15000 {
		t.Fatalf("allocated = %v", summary.TotalAllocated)
	}
	if summary.TotalUtilized != 10500 {
		t.Fatalf("utilized = %v", summary.TotalUtilized)
	}
	if summary.TotalRemaining != 4500 {
		t.Fatalf("remaining = %v", summary.TotalRemaining)
	}
	if summary.UtilizationRate != 70 {
		t.Fatalf("rate = %v", summary.UtilizationRate)
	}
}

func TestComputeAllocationSummaryEmpty(t *testing.T) {
	summary := ComputeAllocationSummary(nil)
	if summary.TotalAllocated != 0 || summary.TotalUtilized != 0 || summary.TotalRemaining != 0 || summary.UtilizationRate != 0 {
		t.Fatalf("expected zero summary, got %+v", summary)
	}
}

func TestBuildAlerts(t *testing.T) {
	day := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	allocations := []Allocation{
		{Department: "IT", BudgetYear: 2024, Allocated: 10000, Utilized: 9500},
		{Department: "HR", BudgetYear: 2024, Allocated: 5000, Utilized: 1000},
		{Department: "OPS", BudgetYear: 2024, Allocated: 2000, Utilized: 2600},
	}
	alerts := BuildAlerts(allocations, day)
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	// Sorted by utilization descending: OPS at 130% first.
	if alerts[0].Department != "OPS" || alerts[0].Severity != SeverityRed {
		t.Fatalf("unexpected first alert %+v", alerts[0])
	}
	if alerts[0].OverAmount != 600 {
		t.Fatalf("over amount = %v", alerts[0].OverAmount)
	}
	if alerts[1].Department != "IT" || alerts[1].Severity != SeverityOrange {
		t.Fatalf("unexpected second alert %+v", alerts[1])
	}
	if alerts[1].OverAmount != 0 {
		t.Fatalf("over amount = %v", alerts[1].OverAmount)
	}
	if !alerts[0].AlertDate.Equal(day) {
		t.Fatalf("alert date = %v", alerts[0].AlertDate)
	}
}

func TestOverBudgetClaims(t *testing.T) {
	allocations := []Allocation{
		{Department: "IT", Allocated: 1000, Utilized: 900},
		{Department: "OPS", Allocated: 500, Utilized: 700},
	}
	claims := []Claim{
		{ID: "c1", Department: "IT", Amount: 50},   // fits in remaining 100
		{ID: "c2", Department: "IT", Amount: 150},  // exceeds remaining
		{ID: "c3", Department: "OPS", Amount: 10},  // department exhausted
		{ID: "c4", Department: "LAB", Amount: 100}, // no allocation at all
	}
	flagged := OverBudgetClaims(claims, allocations)
	if len(flagged) != 3 {
		t.Fatalf("expected 3 flagged claims, got %d", len(flagged))
	}
	ids := map[string]bool{}
	for _, c := range flagged {
		ids[c.ID] = true
	}
	if !ids["c2"] || !ids["c3"] || !ids["c4"] || ids["c1"] {
		t.Fatalf("unexpected flagged set %v", ids)
	}
}

func TestAdjustmentTypeDelta(t *testing.T) {
	if AdjustmentIncrease.Delta(200) != 200 {
		t.Fatal("increase should add")
	}
	if AdjustmentTransfer.Delta(200) != 200 {
		t.Fatal("transfer should add")
	}
	if AdjustmentDecrease.Delta(200) != -200 {
		t.Fatal("decrease should subtract")
	}
}
