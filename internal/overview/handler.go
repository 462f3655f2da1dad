// Package overview assembles the finance dashboard read model.
package overview

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/ledgerline/ledgerline/internal/budget"
	"github.com/ledgerline/ledgerline/internal/claims"
	"github.com/ledgerline/ledgerline/internal/ledger"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Overview is the combined dashboard payload.
type Overview struct {
	TrialBalance    ledger.TrialBalance `json:"trial_balance"`
	Budget          budget.SummaryView  `json:"budget"`
	Alerts          []budget.Alert      `json:"alerts"`
	OverBudget      []budget.Claim      `json:"over_budget_claims"`
	ClaimsAvailable bool                `json:"claims_available"`
	GeneratedAt     time.Time           `json:"generated_at"`
}

// Handler serves the dashboard endpoint.
type Handler struct {
	logger *slog.Logger
	ledger *ledger.Service
	budget *budget.Service
	claims *claims.Client
	rbac   rbac.Middleware
	now    func() time.Time
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, ledgerSvc *ledger.Service, budgetSvc *budget.Service, claimsClient *claims.Client, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, ledger: ledgerSvc, budget: budgetSvc, claims: claimsClient, rbac: rbac, now: time.Now}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermLedgerView, shared.PermBudgetView))
		r.Get("/overview", h.overview)
	})
}

// overview fans the three source reads out concurrently. The claims feed is
// best effort; ledger and budget failures fail the request.
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	period := r.URL.Query().Get("period")
	year := h.now().Year()
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			year = v
		}
	}

	var (
		view     Overview
		rawFeed  []claims.Claim
		feedSeen bool
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		tb, err := h.ledger.TrialBalance(ctx, period, time.Time{})
		if err != nil {
			return err
		}
		view.TrialBalance = tb
		return nil
	})
	g.Go(func() error {
		summary, err := h.budget.Summary(ctx, year)
		if err != nil {
			return err
		}
		view.Budget = summary
		return nil
	})
	g.Go(func() error {
		alerts, err := h.budget.Alerts(ctx, year)
		if err != nil {
			return err
		}
		view.Alerts = alerts
		return nil
	})
	g.Go(func() error {
		rawFeed, feedSeen = h.claims.FetchOrEmpty(ctx, year)
		return nil
	})
	if err := g.Wait(); err != nil {
		h.logger.Error("overview", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	converted := make([]budget.Claim, 0, len(rawFeed))
	for _, c := range rawFeed {
		converted = append(converted, budget.Claim{ID: c.ID, EmployeeName: c.EmployeeName, Department: c.Department, Amount: c.Amount})
	}
	flagged, err := h.budget.FlagOverBudgetClaims(r.Context(), year, converted)
	if err != nil {
		h.logger.Error("overview claims filter", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	view.OverBudget = flagged
	view.ClaimsAvailable = feedSeen
	view.GeneratedAt = h.now()
	httpx.JSON(w, http.StatusOK, view)
}
