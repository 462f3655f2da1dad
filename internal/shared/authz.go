package shared

// Finance and admin permissions enforced by the RBAC middleware.
const (
	PermLedgerView = "finance.ledger.view"

	PermBudgetView    = "finance.budget.view"
	PermBudgetAdjust  = "finance.budget.adjust"
	PermBudgetApprove = "finance.budget.approve"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermAPIClientsManage = "admin.apiclients.manage"
)

// FinanceScopes lists the permissions covering the finance read-models.
func FinanceScopes() []string {
	return []string{
		PermLedgerView,
		PermBudgetView,
		PermBudgetAdjust,
		PermBudgetApprove,
	}
}

// AdminScopes lists the back-office administration permissions.
func AdminScopes() []string {
	return []string{
		PermRolesView,
		PermRolesEdit,
		PermAPIClientsManage,
	}
}
