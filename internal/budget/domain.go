// Package budget aggregates allocation utilization and runs the adjustment
// approval workflow.
package budget

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status enumerates budget lifecycle values.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusActive   Status = "ACTIVE"
	StatusClosed   Status = "CLOSED"
	StatusRejected Status = "REJECTED"
)

// AdjustmentType enumerates how an adjustment moves money.
type AdjustmentType string

const (
	AdjustmentIncrease AdjustmentType = "INCREASE"
	AdjustmentDecrease AdjustmentType = "DECREASE"
	AdjustmentTransfer AdjustmentType = "TRANSFER"
)

// Valid reports whether the type is one of the supported values.
func (t AdjustmentType) Valid() bool {
	switch t {
	case AdjustmentIncrease, AdjustmentDecrease, AdjustmentTransfer:
		return true
	}
	return false
}

// Delta returns the signed allocation effect of the given amount. Increase
// and transfer add to the target allocation; decrease subtracts.
func (t AdjustmentType) Delta(amount float64) float64 {
	if t == AdjustmentDecrease {
		return -amount
	}
	return amount
}

// AdjustmentStatus enumerates adjustment workflow states. PENDING is the only
// state that accepts a transition.
type AdjustmentStatus string

const (
	AdjustmentPending  AdjustmentStatus = "PENDING"
	AdjustmentApproved AdjustmentStatus = "APPROVED"
	AdjustmentRejected AdjustmentStatus = "REJECTED"
)

// Severity classifies budget utilization pressure.
type Severity string

const (
	SeverityGood        Severity = "good"
	SeverityYellow      Severity = "yellow"
	SeverityLightOrange Severity = "light_orange"
	SeverityOrange      Severity = "orange"
	SeverityRed         Severity = "red"
)

// Budget is a spending envelope owned by a department.
type Budget struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Department  string    `json:"department"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	TotalAmount float64   `json:"total_amount"`
	Status      Status    `json:"status"`
}

// Allocation is the per-department rollup the summary and alerts derive from.
// Remaining may go negative when a department overspends.
type Allocation struct {
	Department string  `json:"department"`
	BudgetYear int     `json:"budget_year"`
	Allocated  float64 `json:"allocated"`
	Reserved   float64 `json:"reserved"`
	Utilized   float64 `json:"utilized"`
	Remaining  float64 `json:"remaining"`
}

// AllocationSummary totals allocations across departments.
type AllocationSummary struct {
	TotalAllocated  float64 `json:"total_allocated"`
	TotalUtilized   float64 `json:"total_utilized"`
	TotalRemaining  float64 `json:"total_remaining"`
	UtilizationRate float64 `json:"utilization_rate"`
}

// Adjustment is a pending change to a department allocation.
type Adjustment struct {
	ID         uuid.UUID        `json:"id"`
	Department string           `json:"department"`
	BudgetYear int              `json:"budget_year"`
	Type       AdjustmentType   `json:"type"`
	Amount     float64          `json:"amount"`
	Reason     string           `json:"reason"`
	Status     AdjustmentStatus `json:"status"`
	CreatedBy  int64            `json:"created_by"`
	CreatedAt  time.Time        `json:"created_at"`
	ResolvedBy *int64           `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time       `json:"resolved_at,omitempty"`
}

// Alert flags an allocation that crossed a utilization threshold.
type Alert struct {
	Department         string    `json:"department"`
	BudgetYear         int       `json:"budget_year"`
	BudgetedAmount     float64   `json:"budgeted_amount"`
	UtilizedAmount     float64   `json:"utilized_amount"`
	UtilizationPercent float64   `json:"utilization_percent"`
	OverAmount         float64   `json:"over_amount"`
	Severity           Severity  `json:"severity"`
	AlertDate          time.Time `json:"alert_date"`
}

// Claim is an external expense claim checked against department budgets.
type Claim struct {
	ID           string  `json:"id"`
	EmployeeName string  `json:"employee_name"`
	Department   string  `json:"department"`
	Amount       float64 `json:"amount"`
}

var (
	// ErrAdjustmentNotFound occurs when the adjustment id does not exist.
	ErrAdjustmentNotFound = errors.New("budget: adjustment not found")
	// ErrInvalidTransition occurs when an already resolved adjustment is
	// approved or rejected again. The allocation delta must never apply twice.
	ErrInvalidTransition = errors.New("budget: adjustment already resolved")
)
