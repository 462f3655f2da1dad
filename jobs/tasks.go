// Package jobs runs scheduled budget and ledger checks through Asynq.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskBudgetAlertScan recomputes utilization alerts across departments.
	TaskBudgetAlertScan = "budget:alert_scan"
	// TaskGLIntegrity verifies that posted journal entries balance.
	TaskGLIntegrity = "gl:integrity"
)

// BudgetAlertScanPayload configures an alert scan run. A zero year means the
// current year at execution time.
type BudgetAlertScanPayload struct {
	Year int `json:"year,omitempty"`
}

// NewBudgetAlertScanTask constructs the alert scan task.
func NewBudgetAlertScanTask(payload BudgetAlertScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskBudgetAlertScan, data, asynq.Queue(QueueDefault)), nil
}

// GLIntegrityPayload configures an integrity run. Period defaults to monthly.
type GLIntegrityPayload struct {
	Period string `json:"period,omitempty"`
}

// NewGLIntegrityTask constructs the integrity check task.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrity, data, asynq.Queue(QueueDefault)), nil
}
