package overview

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/ledgerline/internal/budget"
	"github.com/ledgerline/ledgerline/internal/claims"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/platform/cache"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/shared"
)

type fakeLineReader struct{}

func (fakeLineReader) LinesInRange(context.Context, time.Time, time.Time) ([]ledger.JournalLine, error) {
	return nil, nil
}

func (fakeLineReader) LinesForAccount(context.Context, int64, time.Time, time.Time) ([]ledger.JournalLine, error) {
	return nil, nil
}

func (fakeLineReader) AccountByCode(context.Context, string) (ledger.Account, error) {
	return ledger.Account{}, ledger.ErrAccountNotFound
}

type fakeBudgetRepo struct {
	allocations []budget.Allocation
}

func (r *fakeBudgetRepo) WithTx(context.Context, func(context.Context, budget.TxRepository) error) error {
	return errors.New("not supported")
}

func (r *fakeBudgetRepo) AllocationsForYear(context.Context, int) ([]budget.Allocation, error) {
	return append([]budget.Allocation(nil), r.allocations...), nil
}

func (r *fakeBudgetRepo) GetAdjustment(context.Context, uuid.UUID) (budget.Adjustment, error) {
	return budget.Adjustment{}, budget.ErrAdjustmentNotFound
}

func (r *fakeBudgetRepo) ListAdjustments(context.Context, budget.AdjustmentStatus, int, int) ([]budget.Adjustment, error) {
	return nil, nil
}

func (r *fakeBudgetRepo) InsertAdjustment(context.Context, budget.Adjustment) error {
	return errors.New("not supported")
}

func newOverviewHandler(t *testing.T, feedURL string) *Handler {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ledgerSvc := ledger.NewService(fakeLineReader{}, cache.NewCache(client, time.Minute, "ledger:version", "ledger.bump"))
	budgetSvc := budget.NewService(&fakeBudgetRepo{}, cache.NewCache(client, time.Minute, "budget:version", "budget.bump"), nil, nil, nil, slog.Default())
	claimsClient := claims.NewClient(feedURL, slog.Default())
	return NewHandler(slog.Default(), ledgerSvc, budgetSvc, claimsClient, rbac.Middleware{})
}

func getOverview(t *testing.T, h *Handler) Overview {
	t.Helper()
	router := chi.NewRouter()
	h.MountRoutes(router)

	req := httptest.NewRequest(http.MethodGet, "/overview", nil)
	req = req.WithContext(shared.ContextWithAPIScopes(req.Context(), []string{shared.PermLedgerView, shared.PermBudgetView}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view Overview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return view
}

func TestOverviewReportsHealthyFeedWithZeroClaimsAsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"claims":[]}`))
	}))
	defer srv.Close()

	view := getOverview(t, newOverviewHandler(t, srv.URL))
	require.True(t, view.ClaimsAvailable)
	require.Empty(t, view.OverBudget)
}

func TestOverviewReportsFeedOutageAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	view := getOverview(t, newOverviewHandler(t, srv.URL))
	require.False(t, view.ClaimsAvailable)
	require.Empty(t, view.OverBudget)
}
