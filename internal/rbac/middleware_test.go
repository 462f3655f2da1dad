package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/shared"
)

func requestWithScopes(scopes ...string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ledger/trial-balance", nil)
	if len(scopes) > 0 {
		req = req.WithContext(shared.ContextWithAPIScopes(req.Context(), scopes))
	}
	return req
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAnyGrantsOnAPIScope(t *testing.T) {
	mw := Middleware{}
	var called bool
	handler := mw.RequireAny(shared.PermLedgerView, shared.PermBudgetView)(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithScopes(shared.PermBudgetView))

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAnyRejectsMissingScope(t *testing.T) {
	mw := Middleware{}
	var called bool
	handler := mw.RequireAny(shared.PermBudgetApprove)(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithScopes(shared.PermLedgerView))

	require.False(t, called)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAllNeedsEveryPermission(t *testing.T) {
	mw := Middleware{}
	var called bool
	handler := mw.RequireAll(shared.PermBudgetView, shared.PermBudgetApprove)(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithScopes(shared.PermBudgetView))
	require.False(t, called)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithScopes(shared.PermBudgetView, shared.PermBudgetApprove))
	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAnonymousRequestIsForbidden(t *testing.T) {
	mw := Middleware{}
	var called bool
	handler := mw.RequireAny(shared.PermLedgerView)(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithScopes())

	require.False(t, called)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestPermissionMatchingIsCaseInsensitive(t *testing.T) {
	mw := Middleware{}
	var called bool
	handler := mw.RequireAny("Finance.Ledger.View")(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithScopes("FINANCE.LEDGER.VIEW"))

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestEmptyRequirementPassesThrough(t *testing.T) {
	mw := Middleware{}
	var called bool
	handler := mw.RequireAll()(okHandler(&called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithScopes())

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}
