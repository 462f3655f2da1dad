// Package budgethttp exposes budget utilization and adjustment endpoints.
package budgethttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ledgerline/ledgerline/internal/budget"
	"github.com/ledgerline/ledgerline/internal/claims"
	"github.com/ledgerline/ledgerline/internal/platform/httpx"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/shared"
)

// Handler wires budget endpoints.
type Handler struct {
	logger  *slog.Logger
	service *budget.Service
	claims  *claims.Client
	rbac    rbac.Middleware
	now     func() time.Time
}

// NewHandler constructs handler.
func NewHandler(logger *slog.Logger, service *budget.Service, claimsClient *claims.Client, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, claims: claimsClient, rbac: rbac, now: time.Now}
}

// MountRoutes registers routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/budget", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermBudgetView, shared.PermBudgetAdjust, shared.PermBudgetApprove))
			r.Get("/summary", h.summary)
			r.Get("/alerts", h.alerts)
			r.Get("/claims/over-budget", h.overBudgetClaims)
			r.Get("/adjustments", h.listAdjustments)
			r.Get("/adjustments/{id}", h.getAdjustment)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAll(shared.PermBudgetAdjust))
			r.Post("/adjustments", h.submitAdjustment)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAll(shared.PermBudgetApprove))
			r.Post("/adjustments/{id}/approve", h.approveAdjustment)
			r.Post("/adjustments/{id}/reject", h.rejectAdjustment)
		})
	})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Summary(r.Context(), h.year(r))
	if err != nil {
		h.logger.Error("budget summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, view)
}

func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Alerts(r.Context(), h.year(r))
	if err != nil {
		h.logger.Error("budget alerts", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"alerts": alerts, "count": len(alerts)})
}

// overBudgetClaims joins the external claims feed with remaining balances. A
// feed outage degrades to an empty claim set instead of failing the request.
func (h *Handler) overBudgetClaims(w http.ResponseWriter, r *http.Request) {
	year := h.year(r)
	feed, feedOK := h.claims.FetchOrEmpty(r.Context(), year)
	converted := make([]budget.Claim, 0, len(feed))
	for _, c := range feed {
		converted = append(converted, budget.Claim{
			ID:           c.ID,
			EmployeeName: c.EmployeeName,
			Department:   c.Department,
			Amount:       c.Amount,
		})
	}
	flagged, err := h.service.FlagOverBudgetClaims(r.Context(), year, converted)
	if err != nil {
		h.logger.Error("over budget claims", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"claims":         flagged,
		"count":          len(flagged),
		"feed_entries":   len(feed),
		"feed_available": feedOK,
	})
}

func (h *Handler) listAdjustments(w http.ResponseWriter, r *http.Request) {
	status := budget.AdjustmentStatus(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status"))))
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	pagination := shared.NewPagination(page, perPage, 0)
	adjustments, err := h.service.ListAdjustments(r.Context(), status, pagination.PerPage, pagination.Offset())
	if err != nil {
		h.logger.Error("list adjustments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"adjustments": adjustments})
}

func (h *Handler) getAdjustment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.adjustmentID(w, r)
	if !ok {
		return
	}
	adj, err := h.service.GetAdjustment(r.Context(), id)
	if err != nil {
		h.respondAdjustmentError(w, "get adjustment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, adj)
}

func (h *Handler) submitAdjustment(w http.ResponseWriter, r *http.Request) {
	var input budget.SubmitAdjustmentInput
	if err := httpx.DecodeJSON(r, &input); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
		return
	}
	input.ActorID = shared.CurrentUserID(r.Context())
	if key := r.Header.Get("Idempotency-Key"); key != "" {
		input.IdempotencyKey = key
	}
	adj, err := h.service.SubmitAdjustment(r.Context(), input)
	if err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			httpx.Problem(w, http.StatusConflict, "Duplicate Request", err.Error())
			return
		}
		h.respondAdjustmentError(w, "submit adjustment", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, adj)
}

type resolutionRequest struct {
	Note string `json:"note"`
}

func (h *Handler) approveAdjustment(w http.ResponseWriter, r *http.Request) {
	h.resolveAdjustment(w, r, h.service.ApproveAdjustment)
}

func (h *Handler) rejectAdjustment(w http.ResponseWriter, r *http.Request) {
	h.resolveAdjustment(w, r, h.service.RejectAdjustment)
}

func (h *Handler) resolveAdjustment(w http.ResponseWriter, r *http.Request, resolve func(ctx context.Context, id uuid.UUID, actorID int64, note string) (budget.Adjustment, error)) {
	id, ok := h.adjustmentID(w, r)
	if !ok {
		return
	}
	var req resolutionRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Invalid Payload", err.Error())
			return
		}
	}
	adj, err := resolve(r.Context(), id, shared.CurrentUserID(r.Context()), req.Note)
	if err != nil {
		h.respondAdjustmentError(w, "resolve adjustment", err)
		return
	}
	httpx.JSON(w, http.StatusOK, adj)
}

func (h *Handler) respondAdjustmentError(w http.ResponseWriter, op string, err error) {
	var vErrs validator.ValidationErrors
	switch {
	case errors.Is(err, budget.ErrAdjustmentNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, budget.ErrInvalidTransition):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	case errors.As(err, &vErrs):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

func (h *Handler) adjustmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Identifier", "adjustment id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (h *Handler) year(r *http.Request) int {
	if raw := strings.TrimSpace(r.URL.Query().Get("year")); raw != "" {
		if year, err := strconv.Atoi(raw); err == nil && year > 0 {
			return year
		}
	}
	return h.now().Year()
}
