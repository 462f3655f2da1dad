// Package ledgerhttp exposes the trial balance read model over HTTP.
package ledgerhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/singleflight"

	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/period"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler wires ledger reporting endpoints.
type Handler struct {
	logger  *slog.Logger
	service *ledger.Service
	rbac    rbac.Middleware
	group   singleflight.Group
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service *ledger.Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/ledger", func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLedgerView))
		r.Get("/trial-balance", h.trialBalance)
		r.Get("/trial-balance/export", h.exportTrialBalance)
		r.Get("/accounts/{code}/balance", h.accountBalance)
		r.Get("/integrity", h.integrity)
		// Posting collaborators call this after write activity so the next
		// read rebuilds from the journal.
		r.Post("/cache/invalidate", h.invalidate)
	})
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	keyword, asOf, ok := reportParams(w, r)
	if !ok {
		return
	}
	tb, err := h.computeTrialBalance(r, keyword, asOf)
	if err != nil {
		h.logger.Error("trial balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

func (h *Handler) exportTrialBalance(w http.ResponseWriter, r *http.Request) {
	keyword, asOf, ok := reportParams(w, r)
	if !ok {
		return
	}
	tb, err := h.computeTrialBalance(r, keyword, asOf)
	if err != nil {
		h.logger.Error("trial balance export", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	filename := fmt.Sprintf("trial-balance-%s-%s.csv", period.Normalize(keyword), tb.End.Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if err := ledger.WriteTrialBalanceCSV(w, tb); err != nil {
		h.logger.Error("trial balance csv", slog.Any("error", err))
	}
}

// computeTrialBalance collapses concurrent identical requests onto one
// aggregation pass.
func (h *Handler) computeTrialBalance(r *http.Request, keyword string, asOf time.Time) (ledger.TrialBalance, error) {
	key := string(period.Normalize(keyword)) + "|" + asOf.Format("2006-01-02")
	result, err := h.singleflightBuild(r.Context(), key, func(ctx context.Context) (interface{}, error) {
		return h.service.TrialBalance(ctx, keyword, asOf)
	})
	if err != nil {
		return ledger.TrialBalance{}, err
	}
	return result.(ledger.TrialBalance), nil
}

// singleflightBuild shares one build across concurrent identical requests.
// The build runs detached from the leader's cancellation so one impatient
// caller cannot poison the result for the rest; each caller still honours
// its own deadline through the select.
func (h *Handler) singleflightBuild(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	resultChan := h.group.DoChan(key, func() (interface{}, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(chi.URLParam(r, "code"))
	if code == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Account", "account code is required")
		return
	}
	keyword, asOf, ok := reportParams(w, r)
	if !ok {
		return
	}
	balance, err := h.service.AccountBalance(r.Context(), code, keyword, asOf)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("account balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, balance)
}

func (h *Handler) integrity(w http.ResponseWriter, r *http.Request) {
	keyword, asOf, ok := reportParams(w, r)
	if !ok {
		return
	}
	issues, err := h.service.Integrity(r.Context(), keyword, asOf)
	if err != nil {
		h.logger.Error("ledger integrity", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"imbalances": issues, "count": len(issues)})
}

func (h *Handler) invalidate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.InvalidateBalances(r.Context()); err != nil {
		h.logger.Error("invalidate balances", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, map[string]string{"status": "invalidated"})
}

// reportParams reads the period keyword and optional as_of anchor. Keyword
// normalization never fails; a malformed as_of does.
func reportParams(w http.ResponseWriter, r *http.Request) (string, time.Time, bool) {
	keyword := r.URL.Query().Get("period")
	raw := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if raw == "" {
		return keyword, time.Time{}, true
	}
	asOf, err := time.Parse("2006-01-02", raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Date", "as_of must be formatted as YYYY-MM-DD")
		return "", time.Time{}, false
	}
	return keyword, asOf, true
}
