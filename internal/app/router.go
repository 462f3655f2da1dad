package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ledgerline/ledgerline/internal/apiclients"
	budgethttp "github.com/ledgerline/ledgerline/internal/budget/http"
	ledgerhttp "github.com/ledgerline/ledgerline/internal/ledger/http"
	"github.com/ledgerline/ledgerline/internal/observability"
	"github.com/ledgerline/ledgerline/internal/overview"
	"github.com/ledgerline/ledgerline/internal/rbac"
	"github.com/ledgerline/ledgerline/internal/shared"
	"github.com/ledgerline/ledgerline/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	APIClients     *apiclients.Service

	LedgerHandler     *ledgerhttp.Handler
	BudgetHandler     *budgethttp.Handler
	OverviewHandler   *overview.Handler
	RBACHandler       *rbac.Handler
	APIClientsHandler *apiclients.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	var apiAuth func(http.Handler) http.Handler
	if params.APIClients != nil {
		apiAuth = params.APIClients.Authenticate
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		APIAuth:        apiAuth,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.LedgerHandler != nil {
		params.LedgerHandler.MountRoutes(r)
	}
	if params.BudgetHandler != nil {
		params.BudgetHandler.MountRoutes(r)
	}
	if params.OverviewHandler != nil {
		params.OverviewHandler.MountRoutes(r)
	}
	if params.RBACHandler != nil {
		r.Route("/admin", params.RBACHandler.MountRoutes)
	}
	if params.APIClientsHandler != nil {
		params.APIClientsHandler.MountRoutes(r)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
